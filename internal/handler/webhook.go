package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/telegram"
)

// TelegramWebhook 同步处理更新后返回 200，Telegram 不关心响应体
func (h *Handler) TelegramWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := h.webhook.Source.ReadWebhookUpdate(r)
	if err != nil {
		if errors.Is(err, telegram.ErrInvalidSecret) {
			slog.Warn("拒绝 webhook 请求", "ip", r.RemoteAddr)
			w.WriteHeader(http.StatusForbidden)
			return
		}
		h.badRequest(w, r, err)
		return
	}

	h.webhook.Router.Route(r.Context(), *update)
	w.WriteHeader(http.StatusOK)
}
