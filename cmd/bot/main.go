package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/access"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/bot"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/config"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/handler"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/logger"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/notify"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/repository"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/session"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/telegram"
	"golang.org/x/sync/errgroup"
)

func main() {
	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("无法加载配置", "error", err)
		os.Exit(1)
	}

	/**********************************************
	 * 创建 logger
	 **********************************************/
	log, logCloser := logger.New(cfg)
	defer logCloser.Close()
	slog.SetDefault(log)

	/**********************************************
	 * 创建 repository，并确认文档可以读取
	 **********************************************/
	repo := repository.NewRepository(cfg)
	if _, err := repo.Load(); err != nil {
		log.Error("无法读取数据文件", "error", err)
		return
	}

	/**********************************************
	 * 创建会话存储
	 **********************************************/
	ttl := time.Duration(cfg.Session.TTL) * time.Second
	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.OperationTimeout)*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Error("无法连接到 redis", "error", err)
			return
		}
		sessions = session.NewRedisStore(rdb, ttl)
	default:
		sessions = session.NewMemoryStore(ttl, time.Duration(cfg.Session.CleanupInterval)*time.Second)
	}

	/**********************************************
	 * 连接 rabbitmq，未配置时不发送通知
	 **********************************************/
	var publisher bot.Publisher = notify.NopPublisher{}
	if cfg.RabbitMQ.DSN != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			log.Error("无法连接到 rabbitmq", "error", err)
			return
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			log.Error("无法建立通道", "error", err)
			return
		}
		defer ch.Close()

		if _, err := notify.DeclareQueue(ch, cfg.RabbitMQ.Queue); err != nil {
			log.Error("无法声明队列", "error", err)
			return
		}
		publisher = notify.NewPublisher(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
	} else {
		log.Warn("未配置 RABBITMQ_DSN，通知将被丢弃")
	}

	/**********************************************
	 * 创建 bot
	 **********************************************/
	client, err := telegram.NewClient(cfg)
	if err != nil {
		log.Error("无法创建 Telegram 客户端", "error", err)
		return
	}

	resolver := access.NewResolver(repo, cfg.AdminID)
	b, err := bot.New(repo, resolver, sessions, client, publisher)
	if err != nil {
		log.Error("无法创建 bot", "error", err)
		return
	}
	router := telegram.NewRouter(b, time.Duration(cfg.Bot.HandleTimeout)*time.Second)

	/**********************************************
	 * 创建 handler
	 **********************************************/
	var webhook *handler.Webhook
	if cfg.Bot.Mode == "webhook" {
		webhook = &handler.Webhook{Source: client, Router: router}
	}
	h, err := handler.NewHandler(cfg, repo, resolver, publisher, webhook)
	if err != nil {
		log.Error("无法创建 handler", "error", err)
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器和 bot
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("正在启动服务器...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if cfg.Bot.Mode == "webhook" {
			return client.RegisterWebhook()
		}
		return client.Poll(gctx, router)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("正在关闭服务器...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("服务异常退出", "error", err)
		return
	}
	log.Info("服务器已成功关闭")
}
