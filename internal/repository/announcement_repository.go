package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cardshop/internal/model"

	"github.com/jmoiron/sqlx"
)

// AnnouncementRepository 公告存储库
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository 创建公告存储库实例
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// ListVisible 获取指定时间正在展示的公告
func (r *AnnouncementRepository) ListVisible(ctx context.Context, now time.Time) ([]model.Announcement, error) {
	announcements := []model.Announcement{}
	query := `
		SELECT * FROM announcements
		WHERE is_active = ?
			AND (start_at IS NULL OR start_at <= ?)
			AND (end_at IS NULL OR end_at >= ?)
		ORDER BY sort_order ASC, created_at DESC
	`
	err := r.db.SelectContext(ctx, &announcements, query, true, now, now)
	return announcements, err
}

// ListAll 管理员获取所有公告（含未启用）
func (r *AnnouncementRepository) ListAll(ctx context.Context) ([]model.Announcement, error) {
	announcements := []model.Announcement{}
	query := `SELECT * FROM announcements ORDER BY sort_order ASC, created_at DESC`
	err := r.db.SelectContext(ctx, &announcements, query)
	return announcements, err
}

// GetByID 根据ID获取公告
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*model.Announcement, error) {
	var announcement model.Announcement
	if err := r.db.GetContext(ctx, &announcement, `SELECT * FROM announcements WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &announcement, nil
}

// Create 创建公告
func (r *AnnouncementRepository) Create(ctx context.Context, a *model.Announcement) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO announcements (id, title, content, is_active, sort_order, start_at, end_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, a.ID, a.Title, a.Content, a.IsActive, a.SortOrder, a.StartAt, a.EndAt, now, now); err != nil {
		return fmt.Errorf("创建公告失败: %w", err)
	}
	return nil
}

// Update 更新公告
func (r *AnnouncementRepository) Update(ctx context.Context, a *model.Announcement) error {
	a.UpdatedAt = time.Now()

	query := `
		UPDATE announcements
		SET title = ?, content = ?, is_active = ?, sort_order = ?, start_at = ?, end_at = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query, a.Title, a.Content, a.IsActive, a.SortOrder, a.StartAt, a.EndAt, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("更新公告失败: %w", err)
	}
	return requireAffected(res)
}

// Delete 删除公告
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("删除公告失败: %w", err)
	}
	return requireAffected(res)
}

// requireAffected 未影响任何行时返回 ErrNotFound
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
