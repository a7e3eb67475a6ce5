package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New 总是输出到标准输出，配置了 LOG_FILE 时同时写入按大小轮转的日志文件
// 返回的 io.Closer 在退出前关闭日志文件
func New(cfg *config.Config) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Bot.Debug {
		opts.Level = slog.LevelDebug
	}

	if cfg.Log.File == "" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), io.NopCloser(nil)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   true,
	}

	return slog.New(slog.NewTextHandler(io.MultiWriter(os.Stdout, rotator), opts)), rotator
}
