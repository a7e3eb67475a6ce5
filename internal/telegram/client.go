package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/config"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

// Telegram 在新内容与原消息完全相同时返回这个错误，可以忽略
const errNotModified = "message is not modified"

// Client 封装 Bot API，实现 bot.Messenger
type Client struct {
	api *tgbotapi.BotAPI
	cfg *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("无法连接 Telegram: %w", err)
	}
	api.Debug = cfg.Bot.Debug

	slog.Info("已连接 Telegram", "username", api.Self.UserName)

	return &Client{api: api, cfg: cfg}, nil
}

func (c *Client) Send(_ context.Context, chatID int64, screen domain.Screen) error {
	msg := tgbotapi.NewMessage(chatID, screen.Text)
	if len(screen.Buttons) > 0 {
		msg.ReplyMarkup = Keyboard(screen.Buttons)
	}

	_, err := c.api.Send(msg)
	return err
}

// Edit 就地替换原消息的文字和按钮，没有按钮时键盘被移除
func (c *Client) Edit(_ context.Context, ref domain.MessageRef, screen domain.Screen) error {
	var edit tgbotapi.EditMessageTextConfig
	if len(screen.Buttons) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(ref.ChatID, ref.MessageID, screen.Text, Keyboard(screen.Buttons))
	} else {
		edit = tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, screen.Text)
	}

	if _, err := c.api.Send(edit); err != nil {
		if strings.Contains(err.Error(), errNotModified) {
			return nil
		}
		return err
	}
	return nil
}

func (c *Client) AnswerClick(_ context.Context, clickID string) error {
	_, err := c.api.Request(tgbotapi.NewCallback(clickID, ""))
	return err
}

// SendText 用于通知学生，不带按钮
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.Send(ctx, chatID, domain.Screen{Text: text})
}

// Keyboard 每个按钮单独一行
func Keyboard(buttons []domain.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
