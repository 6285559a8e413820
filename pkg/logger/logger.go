package logger

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cardshop/config"
)

// Logger 封装zap日志库
type Logger struct {
	*zap.Logger
	file *dailyFile
}

// dailyFile 按天切换文件名的日志输出，切换与写入互斥
type dailyFile struct {
	mu  sync.Mutex
	dir string
	lj  *lumberjack.Logger
}

func (f *dailyFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lj.Write(p)
}

// switchTo 关闭当前文件，后续写入新日期的文件
func (f *dailyFile) switchTo(t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lj.Filename = dailyFileName(f.dir, t)
	return f.lj.Rotate()
}

func (f *dailyFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lj.Close()
}

// NewLogger 创建一个只输出到控制台的日志记录器
func NewLogger(level string) *Logger {
	return NewLoggerWithConfig(level, config.LogFileConfig{})
}

// NewNop 创建一个丢弃所有输出的日志记录器，测试使用
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// NewLoggerWithConfig 使用配置创建一个新的日志记录器
func NewLoggerWithConfig(level string, logFileConfig config.LogFileConfig) *Logger {
	zapLevel := parseLevel(level)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	enabler := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapLevel
	})

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.Lock(os.Stdout), enabler),
	}

	var file *dailyFile
	if logFileConfig.Enabled && logFileConfig.Path != "" {
		logDir := filepath.Dir(logFileConfig.Path)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			panic(err)
		}

		// 按天命名日志文件，lumberjack负责按大小切割
		file = &dailyFile{
			dir: logDir,
			lj: &lumberjack.Logger{
				Filename:   dailyFileName(logDir, time.Now()),
				MaxSize:    logFileConfig.MaxSize,
				MaxBackups: logFileConfig.MaxBackups,
				MaxAge:     logFileConfig.MaxAge,
				Compress:   logFileConfig.Compress,
				LocalTime:  true,
			},
		}
		go rotateDaily(file)

		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), enabler))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))

	return &Logger{Logger: logger, file: file}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func dailyFileName(dir string, t time.Time) string {
	return filepath.Join(dir, t.Format("2006-01-02")+".log")
}

// rotateDaily 每天零点切换到新的日志文件
func rotateDaily(f *dailyFile) {
	for {
		now := time.Now()
		next := now.Add(24 * time.Hour)
		next = time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, next.Location())
		timer := time.NewTimer(next.Sub(now))
		<-timer.C

		_ = f.switchTo(time.Now())
	}
}

// With 返回附带固定字段的子日志记录器
func (l *Logger) With(fields ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(fieldsToZapFields(fields...)...), file: l.file}
}

// Info 记录信息级别日志
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.Logger.Info(msg, fieldsToZapFields(fields...)...)
}

// Debug 记录调试级别日志
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.Logger.Debug(msg, fieldsToZapFields(fields...)...)
}

// Warn 记录警告级别日志
func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.Logger.Warn(msg, fieldsToZapFields(fields...)...)
}

// Error 记录错误级别日志
func (l *Logger) Error(msg string, fields ...interface{}) {
	l.Logger.Error(msg, fieldsToZapFields(fields...)...)
}

// Fatal 记录致命错误日志并退出程序
func (l *Logger) Fatal(msg string, fields ...interface{}) {
	l.Logger.Fatal(msg, fieldsToZapFields(fields...)...)
}

// Close 刷新缓冲并关闭日志文件
func (l *Logger) Close() error {
	_ = l.Logger.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// 将键值对参数转换为zap字段
func fieldsToZapFields(fields ...interface{}) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		switch f := fields[i].(type) {
		case error:
			zapFields = append(zapFields, zap.Error(f))
		case string:
			if i+1 < len(fields) {
				zapFields = append(zapFields, zap.Any(f, fields[i+1]))
				i++
			}
		default:
			zapFields = append(zapFields, zap.Any("field", f))
		}
	}
	return zapFields
}
