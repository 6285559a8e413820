package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"cardshop/internal/apperr"
	"cardshop/internal/model"
	"cardshop/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	mini := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer rdb.Close()
	sessions := NewSessionService(rdb, logger.NewNop())
	ctx := context.Background()

	token, err := sessions.Issue(ctx, adminCaller, time.Hour)
	require.NoError(t, err)
	assert.Len(t, token, sessionTokenLen)
	assert.Equal(t, time.Hour, mini.TTL(sessionKeyPrefix+token))

	caller, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.True(t, caller.IsAdmin())
	assert.Equal(t, "admin-1", caller.UserID)

	caller, err = sessions.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, model.Anonymous, caller)

	require.NoError(t, sessions.Revoke(ctx, token))
	caller, err = sessions.Resolve(ctx, token)
	assert.True(t, apperr.IsKind(err, apperr.KindPermission))
	assert.False(t, caller.IsAdmin())

	_, err = sessions.Issue(ctx, model.Caller{}, 0)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSessionTokenFormat(t *testing.T) {
	mini := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer rdb.Close()
	sessions := NewSessionService(rdb, logger.NewNop())
	ctx := context.Background()

	hex := regexp.MustCompile(`^[0-9a-f]{64}$`)
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		token, err := sessions.Issue(ctx, adminCaller, time.Minute)
		require.NoError(t, err)
		assert.Regexp(t, hex, token)
		assert.False(t, seen[token])
		seen[token] = true

		// 与 Authorization: Bearer 头解析后的结果一致
		caller, err := sessions.Resolve(ctx, token)
		require.NoError(t, err)
		assert.True(t, caller.IsAdmin())
	}
}
