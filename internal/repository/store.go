package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// MySQL 锁等待超时与死锁错误码
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// Store 数据库事务入口，所有事务都带有超时上限
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewStore 创建事务入口，timeout 为单个事务的最长执行时间
func NewStore(db *sqlx.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

// DB 返回底层连接
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// InTx 在一个事务中执行 fn，fn 返回错误时回滚
//
// fn 收到的 ctx 带有事务超时，事务内的所有查询都应使用它。
// 超时、连接失效、锁等待超时和死锁统一转换为 KindStoreUnavailable。
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(ctx, err)
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return classify(ctx, err)
	}

	if err := tx.Commit(); err != nil {
		return classify(ctx, err)
	}
	return nil
}

// classify 将暂时性存储错误转换为业务错误，其他错误原样返回
func classify(ctx context.Context, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	// 事务超时后 database/sql 会自动回滚，后续语句只返回 ErrTxDone
	if isTransient(err) || (errors.Is(err, sql.ErrTxDone) && ctx.Err() != nil) {
		return apperr.Wrap(apperr.KindStoreUnavailable, constants.ErrStoreUnavailable, err)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlLockWaitTimeout || myErr.Number == mysqlDeadlock
	}
	return false
}

// forUpdate 返回当前驱动的行锁子句，SQLite 以单连接串行执行事务，无需行锁
func forUpdate(db *sqlx.DB) string {
	if db.DriverName() == "mysql" {
		return " FOR UPDATE"
	}
	return ""
}
