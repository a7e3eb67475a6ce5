package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/repository"
)

type updateGroupsRequest struct {
	Groups []string `json:"groups" validate:"required,dive,required,max=8"`
}

func (h *Handler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.repository.GetAllTasks()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Список заданий", tasks)
}

func (h *Handler) GetAllTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.repository.GetAllTests()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Список тестов", tests)
}

func (h *Handler) UpdateTaskGroups(w http.ResponseWriter, r *http.Request) {
	var req updateGroupsRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	task, added, err := h.repository.SetTaskGroups(chi.URLParam(r, "ref"), req.Groups)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			h.errorResponse(w, r, http.StatusNotFound, "Задание не найдено")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.published(r, domain.ContentKindTask, task.Title, added)
	h.successResponse(w, r, "Группы задания обновлены", task)
}

func (h *Handler) UpdateTestGroups(w http.ResponseWriter, r *http.Request) {
	var req updateGroupsRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	test, added, err := h.repository.SetTestGroups(chi.URLParam(r, "ref"), req.Groups)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			h.errorResponse(w, r, http.StatusNotFound, "Тест не найден")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.published(r, domain.ContentKindTest, test.Title, added)
	h.successResponse(w, r, "Группы теста обновлены", test)
}

// published 只通知新加入的小组，发布失败不影响响应
func (h *Handler) published(r *http.Request, kind, title string, added []string) {
	if len(added) == 0 {
		return
	}

	err := h.publisher.Publish(r.Context(), domain.Notification{
		Type:       domain.NotificationContentPublished,
		Data:       domain.ContentPublishedData{Kind: kind, Title: title, Groups: added},
		OccurredAt: time.Now(),
	})
	if err != nil {
		slog.Error("发布通知失败", "kind", kind, "title", title, "error", err)
	}
}
