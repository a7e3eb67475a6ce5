package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/access"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/config"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/repository"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/utils"
)

type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// Webhook 把 Telegram 推送的更新交给 bot，polling 模式下为 nil
type Webhook struct {
	Source interface {
		ReadWebhookUpdate(r *http.Request) (*tgbotapi.Update, error)
	}
	Router interface {
		Route(ctx context.Context, update tgbotapi.Update)
	}
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	resolver   *access.Resolver
	translator ut.Translator
	publisher  Publisher
	webhook    *Webhook

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, resolver *access.Resolver, publisher Publisher, webhook *Webhook) (*Handler, error) {
	validate, trans, err := utils.NewValidator()
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		resolver:   resolver,
		translator: trans,
		publisher:  publisher,
		webhook:    webhook,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Healthz)

	if h.webhook != nil {
		h.Mux.Post("/telegram/webhook", h.TelegramWebhook)
	}

	// 没有配置 JWT 密钥时不开放管理 API
	if h.config.JWT.Secret == "" {
		return
	}

	h.Mux.Route("/api", func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin, domain.RoleAssistant}))

		r.Get("/students", h.GetAllStudents)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.GetAllTasks)
			r.Put("/{ref}/groups", h.UpdateTaskGroups)
		})

		r.Route("/tests", func(r chi.Router) {
			r.Get("/", h.GetAllTests)
			r.Put("/{ref}/groups", h.UpdateTestGroups)
		})
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "ok", nil)
}
