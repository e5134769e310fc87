package logger

import (
	"edulearn_backend/internal/config"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 在 InitLogger 前为 no-op，避免测试环境空指针
var Log = zap.NewNop()

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "msg"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeDuration = zapcore.SecondsDurationEncoder
	return cfg
}

func fileCore(level zapcore.Level) zapcore.Core {
	rotating := zapcore.AddSync(&lumberjack.Logger{
		Filename:   "logs/edulearn.log",
		MaxSize:    100, // MB
		MaxBackups: 5,
		MaxAge:     30, // 天
		Compress:   true,
	})
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), rotating, level)
}

func consoleCore(level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(os.Stdout), level)
}

// InitLogger 文件走 JSON 并按大小轮转，控制台保持可读格式
func InitLogger(cfg *config.Config) {
	level := zapcore.InfoLevel
	if cfg.Server.Mode == "debug" {
		level = zapcore.DebugLevel
	}

	Log = zap.New(
		zapcore.NewTee(fileCore(level), consoleCore(level)),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// Sync 进程退出前刷新缓冲
func Sync() {
	_ = Log.Sync()
}
