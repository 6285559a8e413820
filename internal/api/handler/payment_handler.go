package handler

import (
	"context"
	"net/http"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/service"
	"cardshop/pkg/logger"
	"cardshop/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// 回调参数
var notifyFields = []string{
	"pid", "trade_no", "out_trade_no", "type", "name", "money", "trade_status",
	payment.FieldSignType, payment.FieldSign,
}

// PaymentFulfiller 处理已验签的支付成功通知
type PaymentFulfiller interface {
	HandlePaymentSuccess(ctx context.Context, orderNo, tradeNo string) (*service.FulfillmentOutcome, error)
}

// PaymentHandler 支付网关回调处理器
type PaymentHandler struct {
	fulfiller PaymentFulfiller
	secret    string
	logger    *logger.Logger
}

// NewPaymentHandler 创建支付回调处理器
func NewPaymentHandler(fulfiller PaymentFulfiller, secret string, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		fulfiller: fulfiller,
		secret:    secret,
		logger:    logger,
	}
}

// Notify 处理网关异步通知，响应体只能是 success 或 fail
func (h *PaymentHandler) Notify(c *gin.Context) {
	params := make(map[string]string, len(notifyFields))
	for _, field := range notifyFields {
		params[field] = c.Query(field)
	}
	orderNo := params["out_trade_no"]
	tradeNo := params["trade_no"]

	if orderNo == "" || params[payment.FieldSign] == "" {
		h.logger.Warn("支付回调缺少必要参数", "out_trade_no", orderNo, "trade_no", tradeNo)
		c.String(http.StatusBadRequest, constants.NotifyFail)
		return
	}

	if h.secret == "" {
		h.logger.Error("支付密钥未配置，无法验证回调", "out_trade_no", orderNo)
		c.String(http.StatusInternalServerError, constants.NotifyFail)
		return
	}

	if !payment.Verify(params, h.secret) {
		h.logger.Warn("支付回调签名验证失败", "out_trade_no", orderNo, "trade_no", tradeNo)
		c.String(http.StatusBadRequest, constants.NotifyFail)
		return
	}

	if params["trade_status"] != payment.TradeSuccess {
		h.logger.Info("交易状态非成功，忽略回调", "out_trade_no", orderNo, "trade_status", params["trade_status"])
		c.String(http.StatusOK, constants.NotifySuccess)
		return
	}

	outcome, err := h.fulfiller.HandlePaymentSuccess(c.Request.Context(), orderNo, tradeNo)
	if err != nil {
		h.logger.Error("处理支付回调失败", "out_trade_no", orderNo, "trade_no", tradeNo,
			"kind", apperr.KindOf(err).String(), "error", err)
		c.String(http.StatusInternalServerError, constants.NotifyFail)
		return
	}

	h.checkAmount(outcome, params["money"], tradeNo)
	c.String(http.StatusOK, constants.NotifySuccess)
}

// checkAmount 核对回调金额与订单金额，不一致时只记录日志
func (h *PaymentHandler) checkAmount(outcome *service.FulfillmentOutcome, money, tradeNo string) {
	paid, err := decimal.NewFromString(money)
	if err != nil {
		h.logger.Warn("支付回调金额格式错误", "out_trade_no", outcome.Order.OrderNo, "trade_no", tradeNo, "money", money)
		return
	}
	if !paid.Equal(outcome.Order.TotalAmount) {
		h.logger.Warn("支付回调金额与订单金额不一致", "out_trade_no", outcome.Order.OrderNo, "trade_no", tradeNo,
			"money", money, "total_amount", outcome.Order.TotalAmount.StringFixed(2))
	}
}
