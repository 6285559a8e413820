package scheduler

import (
	"context"
	"sync"
	"time"

	"cardshop/pkg/logger"
)

// OrderMaintainer 订单定时维护操作
type OrderMaintainer interface {
	ExpireStaleOrders(ctx context.Context, now time.Time) (int, error)
	CountAwaitingStock(ctx context.Context) (int, error)
}

// OrderScheduler 订单调度器
type OrderScheduler struct {
	orders         OrderMaintainer
	expireInterval time.Duration
	stockInterval  time.Duration
	logger         *logger.Logger
	quit           chan struct{}
	wg             sync.WaitGroup
}

// NewOrderScheduler 创建订单调度器实例
func NewOrderScheduler(orders OrderMaintainer, logger *logger.Logger) *OrderScheduler {
	return &OrderScheduler{
		orders:         orders,
		expireInterval: time.Minute,
		stockInterval:  10 * time.Minute,
		logger:         logger,
		quit:           make(chan struct{}),
	}
}

// Start 启动订单调度器
func (s *OrderScheduler) Start() {
	s.wg.Add(2)

	// 启动定时过期未支付订单的goroutine
	go s.run(s.expireInterval, s.expireStaleOrders)

	// 启动定时检查待补货订单的goroutine
	go s.run(s.stockInterval, s.checkAwaitingStock)

	s.logger.Info("订单调度器启动")
}

// Stop 停止订单调度器并等待正在执行的任务结束
func (s *OrderScheduler) Stop() {
	close(s.quit)
	s.wg.Wait()
	s.logger.Info("订单调度器停止")
}

// run 立即执行一次，之后按间隔执行
func (s *OrderScheduler) run(interval time.Duration, job func()) {
	defer s.wg.Done()

	job()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			job()
		case <-s.quit:
			return
		}
	}
}

// expireStaleOrders 过期超时未支付订单
func (s *OrderScheduler) expireStaleOrders() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.orders.ExpireStaleOrders(ctx, time.Now())
	if err != nil {
		s.logger.Error("过期订单检查失败", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("过期订单检查完成", "expired", n)
	}
}

// checkAwaitingStock 提醒运营补货
func (s *OrderScheduler) checkAwaitingStock() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.orders.CountAwaitingStock(ctx)
	if err != nil {
		s.logger.Error("待补货订单检查失败", "error", err)
		return
	}
	if n > 0 {
		s.logger.Warn("存在已支付但库存不足的订单，请尽快补货", "orders", n)
	}
}
