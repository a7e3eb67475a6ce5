package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/config"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/logger"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/notify"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/repository"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/telegram"
)

func main() {
	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("无法读取配置文件", "error", err)
		os.Exit(1)
	}

	/**********************************************
	 * 创建 logger
	 **********************************************/
	log, logCloser := logger.New(cfg)
	defer logCloser.Close()

	if cfg.RabbitMQ.DSN == "" {
		log.Error("未配置 RABBITMQ_DSN")
		return
	}

	/**********************************************
	 * 创建邮件客户端，未配置 SMTP 时不发送邮件
	 **********************************************/
	var mailer notify.Mailer
	if cfg.Email.SMTP.Host != "" {
		m, err := notify.NewSMTPMailer(cfg)
		if err != nil {
			log.Error("无法创建邮件客户端", "error", err)
			return
		}
		defer m.Close()
		mailer = m
	} else {
		log.Warn("未配置 SMTP，注册通知不会发送邮件")
	}

	/**********************************************
	 * 创建 Telegram 客户端，用于推送新内容
	 **********************************************/
	client, err := telegram.NewClient(cfg)
	if err != nil {
		log.Error("无法创建 Telegram 客户端", "error", err)
		return
	}

	worker := notify.NewWorker(repository.NewRepository(cfg), mailer, client, cfg.Email.AdminAddress)

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		log.Error("无法连接到 RabbitMQ", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Error("无法创建通道", "error", err)
		return
	}
	defer ch.Close()

	if _, err := notify.DeclareQueue(ch, cfg.RabbitMQ.Queue); err != nil {
		log.Error("无法声明队列", "error", err)
		return
	}

	// 一次只取一条，处理完再取下一条
	if err := ch.Qos(1, 0, false); err != nil {
		log.Error("无法设置预取数量", "error", err)
		return
	}

	/**********************************************
	 * 消费消息直到收到退出信号
	 **********************************************/
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("等待消息...（按 CTRL+C 退出）", "queue", cfg.RabbitMQ.Queue)
	start := time.Now()
	if err := notify.Consume(ctx, ch, cfg.RabbitMQ.Queue, worker); err != nil {
		log.Error("消费消息失败", "error", err)
		return
	}
	log.Info("notifier 已成功关闭", "uptime", time.Since(start))
}
