package service

import (
	"context"
	"time"

	"cardshop/internal/model"
	"cardshop/pkg/async"
	"cardshop/pkg/email"
	"cardshop/pkg/logger"
)

const (
	deliveryTimeout  = 30 * time.Second
	deliveryRetryMax = 3
)

// CardMailer 发送卡密邮件
type CardMailer interface {
	Enabled() bool
	SendCardDelivery(data email.EmailData) error
}

// MailDelivery 通过异步任务发送卡密邮件，发送结果不影响订单状态
type MailDelivery struct {
	worker   *async.Worker
	mailer   CardMailer
	queryURL string
	logger   *logger.Logger
}

// NewMailDelivery 创建卡密邮件投递
func NewMailDelivery(worker *async.Worker, mailer CardMailer, siteURL string, logger *logger.Logger) *MailDelivery {
	queryURL := ""
	if siteURL != "" {
		queryURL = siteURL + "/order/query"
	}
	return &MailDelivery{
		worker:   worker,
		mailer:   mailer,
		queryURL: queryURL,
		logger:   logger,
	}
}

// NotifyCardsIssued 将发货邮件加入异步队列
func (d *MailDelivery) NotifyCardsIssued(order *model.Order, cards []model.Card) {
	if !d.mailer.Enabled() {
		d.logger.Debug("邮件服务未配置，跳过发货通知", "order_no", order.OrderNo)
		return
	}

	contents := make([]string, len(cards))
	for i, c := range cards {
		contents[i] = c.Content
	}

	data := email.EmailData{
		To:       order.Email,
		OrderNo:  order.OrderNo,
		ItemName: order.ProductName,
		Quantity: order.Quantity,
		Amount:   order.TotalAmount.StringFixed(2),
		Cards:    contents,
		QueryURL: d.queryURL,
	}

	err := d.worker.AddTask(async.Task{
		ID:       "deliver_" + order.OrderNo,
		Timeout:  deliveryTimeout,
		RetryMax: deliveryRetryMax,
		Handler: func(ctx context.Context) error {
			return d.mailer.SendCardDelivery(data)
		},
	})
	if err != nil {
		d.logger.Error("发货邮件入队失败", "order_no", order.OrderNo, "error", err)
	}
}
