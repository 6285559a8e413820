package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用程序配置
type Config struct {
	APIPort  int
	LogLevel string
	LogFile  LogFileConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Email    EmailConfig
	Payment  PaymentConfig
	Order    OrderConfig
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int // 单个文件最大大小，单位MB
	MaxBackups int
	MaxAge     int // 天
	Compress   bool
}

// DatabaseConfig 数据库配置，Driver 为 mysql 或 sqlite
type DatabaseConfig struct {
	Driver   string
	Path     string // sqlite 数据库文件
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

// EmailConfig 邮件配置
type EmailConfig struct {
	Host     string // SMTP服务器地址
	Port     int    // SMTP服务器端口
	Username string // 邮箱账号
	Password string // 邮箱密码
	From     string // 发件人
	FromName string // 发件人名称
}

// PaymentConfig Linux DO Credit 支付配置
type PaymentConfig struct {
	PID     string // 商户ID
	Secret  string // 商户密钥
	Gateway string // 网关地址
	SiteURL string // 本站地址，用于拼接回调地址
}

// OrderConfig 订单处理配置
type OrderConfig struct {
	FulfillTimeout     time.Duration // 发货事务超时
	ExpireAfter        time.Duration // 未支付订单过期时间
	QueryRatePerMinute int           // 订单查询限流
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 加载.env文件，文件不存在时直接使用环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{
		APIPort:  intEnv("API_PORT", 8080),
		LogLevel: os.Getenv("LOG_LEVEL"),
		LogFile: LogFileConfig{
			Enabled:    boolEnv("LOG_FILE_ENABLED", false),
			Path:       stringEnv("LOG_FILE_PATH", "logs/app.log"),
			MaxSize:    intEnv("LOG_FILE_MAX_SIZE", 100),
			MaxBackups: intEnv("LOG_FILE_MAX_BACKUPS", 7),
			MaxAge:     intEnv("LOG_FILE_MAX_AGE", 30),
			Compress:   boolEnv("LOG_FILE_COMPRESS", true),
		},
		Database: DatabaseConfig{
			Driver:   stringEnv("DB_DRIVER", "mysql"),
			Path:     stringEnv("DB_PATH", "data/cardshop.db"),
			Host:     os.Getenv("DB_HOST"),
			Port:     intEnv("DB_PORT", 3306),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     intEnv("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Email: EmailConfig{
			Host:     os.Getenv("EMAIL_HOST"),
			Port:     intEnv("EMAIL_PORT", 587),
			Username: os.Getenv("EMAIL_USERNAME"),
			Password: os.Getenv("EMAIL_PASSWORD"),
			From:     os.Getenv("EMAIL_FROM"),
			FromName: os.Getenv("EMAIL_FROM_NAME"),
		},
		Payment: PaymentConfig{
			PID:     os.Getenv("LDC_PID"),
			Secret:  os.Getenv("LDC_SECRET"),
			Gateway: stringEnv("LDC_GATEWAY", "https://credit.linux.do/epay"),
			SiteURL: strings.TrimRight(os.Getenv("SITE_URL"), "/"),
		},
		Order: OrderConfig{
			FulfillTimeout:     time.Duration(intEnv("FULFILL_TIMEOUT_SECONDS", 5)) * time.Second,
			ExpireAfter:        time.Duration(intEnv("ORDER_EXPIRE_MINUTES", 30)) * time.Minute,
			QueryRatePerMinute: intEnv("QUERY_RATE_PER_MINUTE", 20),
		},
	}

	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func boolEnv(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
