package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"cardshop/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type stubMaintainer struct {
	expireCalls int32
	stockCalls  int32
}

func (s *stubMaintainer) ExpireStaleOrders(ctx context.Context, now time.Time) (int, error) {
	atomic.AddInt32(&s.expireCalls, 1)
	return 1, nil
}

func (s *stubMaintainer) CountAwaitingStock(ctx context.Context) (int, error) {
	atomic.AddInt32(&s.stockCalls, 1)
	return 0, nil
}

func TestOrderSchedulerRunsJobs(t *testing.T) {
	orders := &stubMaintainer{}
	s := NewOrderScheduler(orders, logger.NewNop())
	s.expireInterval = 5 * time.Millisecond
	s.stockInterval = time.Hour

	s.Start()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&orders.expireCalls) >= 3
	}, time.Second, 5*time.Millisecond)
	s.Stop()

	// 启动时各执行一次
	assert.Equal(t, int32(1), atomic.LoadInt32(&orders.stockCalls))

	calls := atomic.LoadInt32(&orders.expireCalls)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, atomic.LoadInt32(&orders.expireCalls))
}
