package service

import (
	"context"
	"testing"
	"time"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnnouncementService(t *testing.T) (*AnnouncementService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	return NewAnnouncementService(repository.NewAnnouncementRepository(env.db), env.redis, logger.NewNop()), env
}

func TestAnnouncementCacheInvalidatedOnChange(t *testing.T) {
	svc, env := newAnnouncementService(t)
	ctx := context.Background()

	created, err := svc.CreateAnnouncement(ctx, adminCaller, AnnouncementInput{Title: " 开业公告 ", Content: "全场九折", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "开业公告", created.Title)

	visible, err := svc.VisibleAnnouncements(ctx)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.True(t, env.mini.Exists(announcementCacheKey))

	_, err = svc.UpdateAnnouncement(ctx, adminCaller, created.ID, AnnouncementInput{Title: "开业公告", Content: "全场九折", IsActive: false})
	require.NoError(t, err)
	assert.False(t, env.mini.Exists(announcementCacheKey))

	visible, err = svc.VisibleAnnouncements(ctx)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestAnnouncementValidation(t *testing.T) {
	svc, _ := newAnnouncementService(t)
	ctx := context.Background()
	start := time.Now()
	end := start.Add(-time.Minute)

	cases := []struct {
		name  string
		input AnnouncementInput
		msg   string
	}{
		{"empty title", AnnouncementInput{Title: "  ", Content: "x"}, constants.ErrAnnouncementTitle},
		{"empty content", AnnouncementInput{Title: "x"}, constants.ErrAnnouncementContent},
		{"reversed window", AnnouncementInput{Title: "x", Content: "y", StartAt: &start, EndAt: &end}, constants.ErrAnnouncementWindow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateAnnouncement(ctx, adminCaller, tc.input)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
			assert.Equal(t, tc.msg, apperr.Message(err, ""))
		})
	}
}

func TestAnnouncementRequiresAdmin(t *testing.T) {
	svc, _ := newAnnouncementService(t)
	ctx := context.Background()
	user := model.Caller{UserID: "u1", Role: model.RoleUser}

	_, err := svc.CreateAnnouncement(ctx, user, AnnouncementInput{Title: "x", Content: "y"})
	assert.True(t, apperr.IsKind(err, apperr.KindPermission))

	_, err = svc.ListAnnouncements(ctx, model.Anonymous)
	assert.True(t, apperr.IsKind(err, apperr.KindPermission))

	err = svc.DeleteAnnouncement(ctx, user, uuid.NewString())
	assert.True(t, apperr.IsKind(err, apperr.KindPermission))
}

func TestAnnouncementNotFound(t *testing.T) {
	svc, _ := newAnnouncementService(t)
	ctx := context.Background()

	err := svc.DeleteAnnouncement(ctx, adminCaller, uuid.NewString())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	err = svc.DeleteAnnouncement(ctx, adminCaller, "not-a-uuid")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
