package telegram

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

// SecretTokenHeader 是 Telegram 在 webhook 请求中携带密钥的请求头
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

var ErrInvalidSecret = errors.New("webhook 密钥不正确")

// Handler 接收已经转换为领域类型的交互，通常是 *bot.Bot
type Handler interface {
	HandleCommand(ctx context.Context, chatID int64, identity domain.Identity, command string) error
	HandleText(ctx context.Context, chatID int64, identity domain.Identity, text string) error
	HandleClick(ctx context.Context, click domain.Click) error
}

// Router 把 Telegram 更新转换为领域交互，并负责日志、超时和 panic 恢复
type Router struct {
	handler Handler
	timeout time.Duration
}

func NewRouter(handler Handler, timeout time.Duration) *Router {
	return &Router{handler: handler, timeout: timeout}
}

func (r *Router) Route(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	kind, userID := "ignored", int64(0)

	defer func() {
		if err := recover(); err != nil {
			slog.Error("处理更新时发生 panic", "update", update.UpdateID, "error", fmt.Errorf("panic: %v", err))
			fmt.Print(string(debug.Stack()))
		}
	}()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var err error
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
			break
		}
		kind, userID = "click", cq.From.ID
		err = r.handler.HandleClick(ctx, domain.Click{
			ID:     cq.ID,
			Data:   cq.Data,
			From:   identityOf(cq.From),
			Origin: domain.MessageRef{ChatID: cq.Message.Chat.ID, MessageID: cq.Message.MessageID},
		})
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat == nil {
			break
		}
		userID = msg.From.ID
		if msg.IsCommand() {
			kind = "command"
			err = r.handler.HandleCommand(ctx, msg.Chat.ID, identityOf(msg.From), msg.Command())
		} else if msg.Text != "" {
			kind = "text"
			err = r.handler.HandleText(ctx, msg.Chat.ID, identityOf(msg.From), msg.Text)
		}
	}

	if err != nil {
		slog.Error("处理更新失败", "kind", kind, "user", userID, "error", err)
	}
	slog.Info("已处理更新", "kind", kind, "user", userID, "duration", time.Since(start))
}

func identityOf(u *tgbotapi.User) domain.Identity {
	return domain.Identity{ID: u.ID, Username: u.UserName}
}

// Poll 长轮询获取更新，按到达顺序逐条处理，ctx 取消后返回
func (c *Client) Poll(ctx context.Context, router *Router) error {
	if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("无法删除 webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.cfg.Bot.PollTimeout
	updates := c.api.GetUpdatesChan(u)

	slog.Info("开始接收更新", "mode", "polling")
	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			router.Route(ctx, update)
		}
	}
}

// RegisterWebhook 向 Telegram 注册 webhook 地址和密钥
func (c *Client) RegisterWebhook() error {
	params := tgbotapi.Params{"url": c.cfg.Bot.WebhookURL}
	params.AddNonEmpty("secret_token", c.cfg.Bot.WebhookSecret)

	if _, err := c.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("无法注册 webhook: %w", err)
	}

	slog.Info("开始接收更新", "mode", "webhook", "url", c.cfg.Bot.WebhookURL)
	return nil
}

// ReadWebhookUpdate 校验密钥并解析请求体，未配置密钥时拒绝所有请求
func (c *Client) ReadWebhookUpdate(r *http.Request) (*tgbotapi.Update, error) {
	secret := c.cfg.Bot.WebhookSecret
	got := r.Header.Get(SecretTokenHeader)
	if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
		return nil, ErrInvalidSecret
	}
	return c.api.HandleUpdate(r)
}
