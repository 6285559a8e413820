package model

import "time"

// Announcement 首页公告，StartAt/EndAt 为空表示不限制
type Announcement struct {
	ID        string     `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	Content   string     `db:"content" json:"content"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	SortOrder int        `db:"sort_order" json:"sort_order"`
	StartAt   *time.Time `db:"start_at" json:"start_at,omitempty"`
	EndAt     *time.Time `db:"end_at" json:"end_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// VisibleAt 公告在指定时间是否展示
func (a Announcement) VisibleAt(t time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.StartAt != nil && a.StartAt.After(t) {
		return false
	}
	if a.EndAt != nil && a.EndAt.Before(t) {
		return false
	}
	return true
}
