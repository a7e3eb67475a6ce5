package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strconv"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/repository"
)

// ErrMalformed 表示消息本身有问题，重新入队也不会成功
var ErrMalformed = errors.New("无法处理的通知")

type Mailer interface {
	Mail(ctx context.Context, to, subject string, tmpl *template.Template, data any) error
}

type Broadcaster interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

var studentRegisteredTemplate = template.Must(template.New("student_registered").Parse(`<p>Новый студент зарегистрировался в боте.</p>
<ul>
  <li>ФИО: {{.FIO}}</li>
  <li>Номер студенческого билета: {{.StudentID}}</li>
  <li>Группа: {{.Group}}</li>
  <li>Telegram: {{if .Handle}}@{{.Handle}}{{else}}нет{{end}} (id {{.UserID}})</li>
</ul>`))

const studentRegisteredSubject = "Новая регистрация студента"

// Worker 处理队列中的通知：注册通知发邮件给管理员，发布通知推送给对应小组的学生
type Worker struct {
	repo         *repository.Repository
	mailer       Mailer
	broadcaster  Broadcaster
	adminAddress string
}

func NewWorker(repo *repository.Repository, mailer Mailer, broadcaster Broadcaster, adminAddress string) *Worker {
	return &Worker{repo: repo, mailer: mailer, broadcaster: broadcaster, adminAddress: adminAddress}
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var msg envelope
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch msg.Type {
	case domain.NotificationStudentRegistered:
		var data domain.StudentRegisteredData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return w.studentRegistered(ctx, data)
	case domain.NotificationContentPublished:
		var data domain.ContentPublishedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return w.contentPublished(ctx, data)
	default:
		return fmt.Errorf("%w: 不支持的通知类型 %q", ErrMalformed, msg.Type)
	}
}

func (w *Worker) studentRegistered(ctx context.Context, data domain.StudentRegisteredData) error {
	if w.mailer == nil || w.adminAddress == "" {
		slog.Info("未配置管理员邮箱，跳过注册通知", "student_id", data.StudentID)
		return nil
	}
	return w.mailer.Mail(ctx, w.adminAddress, studentRegisteredSubject, studentRegisteredTemplate, data)
}

// contentPublished 单个学生推送失败只记录日志，不影响其他学生
func (w *Worker) contentPublished(ctx context.Context, data domain.ContentPublishedData) error {
	users, err := w.repo.GetUsersInGroups(data.Groups)
	if err != nil {
		return err
	}

	text := publishedText(data)
	sent := 0
	for _, user := range users {
		chatID, err := strconv.ParseInt(user.ID, 10, 64)
		if err != nil || chatID <= 0 {
			continue
		}
		if err := w.broadcaster.SendText(ctx, chatID, text); err != nil {
			slog.Warn("推送给学生失败", "user", user.ID, "error", err)
			continue
		}
		sent++
	}

	slog.Info("已推送新内容", "kind", data.Kind, "title", data.Title, "groups", data.Groups, "sent", sent)
	return nil
}

func publishedText(data domain.ContentPublishedData) string {
	if data.Kind == domain.ContentKindTest {
		return "Новый тест: " + data.Title
	}
	return "Новое задание: " + data.Title
}
