package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// webhookSecretPattern 是 Telegram 对 secret_token 的格式要求
var webhookSecretPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

type Config struct {
	Environment      string `env:"ENVIRONMENT" envDefault:"development"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	AdminID          int64  `env:"ADMIN_ID,required"`
	Bot              struct {
		Mode          string `env:"MODE" envDefault:"polling"` // polling 或 webhook
		WebhookURL    string `env:"WEBHOOK_URL"`
		WebhookSecret string `env:"WEBHOOK_SECRET"`
		PollTimeout   int    `env:"POLL_TIMEOUT" envDefault:"60"`
		HandleTimeout int    `env:"HANDLE_TIMEOUT" envDefault:"15"`
		Debug         bool   `env:"DEBUG" envDefault:"false"`
	} `envPrefix:"BOT_"`
	Storage struct {
		DataDir      string `env:"DATA_DIR" envDefault:"."`
		DocumentFile string `env:"DOCUMENT_FILE" envDefault:"database.json"`
	} `envPrefix:"STORAGE_"`
	Session struct {
		Backend         string `env:"BACKEND" envDefault:"memory"` // memory 或 redis
		TTL             int    `env:"TTL" envDefault:"1800"`
		CleanupInterval int    `env:"CLEANUP_INTERVAL" envDefault:"600"`
	} `envPrefix:"SESSION_"`
	Server struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 天
		Secret     string `env:"SECRET"`                          // 为空时不开放 /api
	} `envPrefix:"JWT_"`
	Redis struct {
		Host             string `env:"HOST" envDefault:"localhost"`
		Port             int    `env:"PORT" envDefault:"6379"`
		Password         string `env:"PASSWORD"`
		DB               int    `env:"DB" envDefault:"0"`
		OperationTimeout int    `env:"OPERATION_TIMEOUT" envDefault:"5"`
	} `envPrefix:"REDIS_"`
	RabbitMQ struct {
		DSN            string `env:"DSN"` // 为空时不发送通知
		Queue          string `env:"QUEUE" envDefault:"notification_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Email struct {
		AdminAddress string `env:"ADMIN_ADDRESS"`
		SMTP         struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	Log struct {
		File       string `env:"FILE"`
		MaxSize    int    `env:"MAX_SIZE" envDefault:"10"` // MB
		MaxBackups int    `env:"MAX_BACKUPS" envDefault:"5"`
		MaxAge     int    `env:"MAX_AGE" envDefault:"30"` // 天
	} `envPrefix:"LOG_"`
}

func LoadConfig() (*Config, error) {
	// .env 文件不存在时直接使用系统环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("无法读取 .env 文件: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if cfg.Bot.Mode != "polling" && cfg.Bot.Mode != "webhook" {
		return nil, fmt.Errorf("BOT_MODE 只能是 polling 或 webhook，当前为 %q", cfg.Bot.Mode)
	}
	if cfg.Bot.Mode == "webhook" {
		if cfg.Bot.WebhookURL == "" {
			return nil, errors.New("webhook 模式下必须设置 BOT_WEBHOOK_URL")
		}
		// 没有密钥时任何人都可以伪造更新，包括以管理员身份点击按钮
		if !webhookSecretPattern.MatchString(cfg.Bot.WebhookSecret) {
			return nil, errors.New("webhook 模式下必须设置 BOT_WEBHOOK_SECRET（1~256 个字符，只能包含 A-Z a-z 0-9 _ -）")
		}
	}
	if cfg.Session.Backend != "memory" && cfg.Session.Backend != "redis" {
		return nil, fmt.Errorf("SESSION_BACKEND 只能是 memory 或 redis，当前为 %q", cfg.Session.Backend)
	}

	return cfg, nil
}
