package payment

import (
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
)

// TradeSuccess 网关支付成功状态
const TradeSuccess = "TRADE_SUCCESS"

// Client Linux DO Credit 支付客户端
type Client struct {
	PID       string
	Secret    string
	Gateway   string
	NotifyURL string
	ReturnURL string
}

// NewClient 创建支付客户端，siteURL 用于拼接回调和跳转地址
func NewClient(pid, secret, gateway, siteURL string) *Client {
	return &Client{
		PID:       pid,
		Secret:    secret,
		Gateway:   gateway,
		NotifyURL: siteURL + "/api/v1/payment/notify",
		ReturnURL: siteURL + "/order/result",
	}
}

// Configured 商户号和密钥是否已配置
func (c *Client) Configured() bool {
	return c.PID != "" && c.Secret != ""
}

// GatewayType 将站内支付方式转换为网关的 type 参数
func GatewayType(method string) string {
	if method == "" || method == "ldc" {
		return "epay"
	}
	return method
}

// PayRequest 发起支付所需的订单信息
type PayRequest struct {
	OrderNo string
	Name    string
	Money   decimal.Decimal
	Type    string
}

// BuildPayURL 生成跳转到网关的支付链接
func (c *Client) BuildPayURL(req PayRequest) string {
	params := map[string]string{
		"pid":          c.PID,
		"type":         req.Type,
		"out_trade_no": req.OrderNo,
		"notify_url":   c.NotifyURL,
		"return_url":   c.ReturnURL + "?orderNo=" + url.QueryEscape(req.OrderNo),
		"name":         req.Name,
		"money":        req.Money.StringFixed(2),
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set(FieldSign, Sign(params, c.Secret))
	values.Set(FieldSignType, SignTypeMD5)

	return fmt.Sprintf("%s/submit.php?%s", c.Gateway, values.Encode())
}
