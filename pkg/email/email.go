package email

import (
	"bytes"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
	"sort"
	"strings"

	"cardshop/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config 邮件配置
type Config struct {
	Host     string // SMTP服务器地址
	Port     int    // SMTP服务器端口
	Username string // 邮箱账号
	Password string // 邮箱密码
	From     string // 发件人
	FromName string // 发件人名称
}

// EmailType 邮件类型
type EmailType string

const (
	// TypeCardDelivery 卡密发货邮件
	TypeCardDelivery EmailType = "card_delivery"
)

// EmailData 邮件数据
type EmailData struct {
	To       string   // 收件人
	Subject  string   // 邮件主题
	ShopName string   // 店铺名称
	OrderNo  string   // 订单号
	ItemName string   // 商品名称
	Quantity int      // 购买数量
	Amount   string   // 订单金额
	Cards    []string // 卡密内容
	QueryURL string   // 订单查询地址
}

// Service 邮件服务
type Service struct {
	config    Config
	logger    *logger.Logger
	templates *template.Template
}

// NewService 创建邮件服务
func NewService(config Config, logger *logger.Logger) (*Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("解析邮件模板失败: %w", err)
	}
	return &Service{
		config:    config,
		logger:    logger,
		templates: tmpl,
	}, nil
}

// Enabled SMTP是否已配置
func (s *Service) Enabled() bool {
	return s.config.Host != "" && s.config.From != ""
}

// SendEmail 发送邮件
func (s *Service) SendEmail(emailType EmailType, data EmailData) error {
	// 设置默认店铺名称
	if data.ShopName == "" {
		data.ShopName = "LDC 发卡商城"
	}

	// 根据邮件类型设置主题
	if data.Subject == "" {
		switch emailType {
		case TypeCardDelivery:
			data.Subject = fmt.Sprintf("%s - 订单 %s 发货通知", data.ShopName, data.OrderNo)
		}
	}

	content, err := s.Render(emailType, data)
	if err != nil {
		return err
	}

	return s.send(data.To, data.Subject, content)
}

// Render 渲染邮件内容
func (s *Service) Render(emailType EmailType, data EmailData) (string, error) {
	buf := new(bytes.Buffer)
	if err := s.templates.ExecuteTemplate(buf, string(emailType)+".html", data); err != nil {
		return "", fmt.Errorf("渲染邮件模板失败: %w", err)
	}
	return buf.String(), nil
}

// SendCardDelivery 发送卡密发货邮件
func (s *Service) SendCardDelivery(data EmailData) error {
	return s.SendEmail(TypeCardDelivery, data)
}

// buildMessage 组装邮件头和正文
func (s *Service) buildMessage(to, subject, body string) string {
	header := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From),
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, header[k])
	}
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

// send 通过 TLS 连接发送邮件
func (s *Service) send(to, subject, body string) error {
	message := s.buildMessage(to, subject, body)

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		return fmt.Errorf("创建TLS连接失败: %w", err)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("创建SMTP客户端失败: %w", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP认证失败: %w", err)
	}
	if err = client.Mail(s.config.From); err != nil {
		return fmt.Errorf("设置发件人失败: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("设置收件人失败: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("准备发送数据失败: %w", err)
	}
	if _, err = w.Write([]byte(message)); err != nil {
		return fmt.Errorf("写入邮件内容失败: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("关闭数据写入失败: %w", err)
	}

	s.logger.Info("邮件已发送", "to", to, "subject", subject)
	return client.Quit()
}
