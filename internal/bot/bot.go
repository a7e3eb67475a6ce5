package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/access"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/repository"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/session"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/utils"
)

// Messenger 是聊天平台的出站接口
type Messenger interface {
	Send(ctx context.Context, chatID int64, screen domain.Screen) error
	Edit(ctx context.Context, ref domain.MessageRef, screen domain.Screen) error
	// AnswerClick 让客户端停止按钮上的加载状态
	AnswerClick(ctx context.Context, clickID string) error
}

// Publisher 发布领域事件，失败不影响交互本身
type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

const (
	CommandStart  = "start"
	CommandCancel = "cancel"
)

type Bot struct {
	repo       *repository.Repository
	resolver   *access.Resolver
	sessions   session.Store
	messenger  Messenger
	publisher  Publisher
	validate   *validator.Validate
	translator ut.Translator
}

func New(repo *repository.Repository, resolver *access.Resolver, sessions session.Store, messenger Messenger, publisher Publisher) (*Bot, error) {
	validate, trans, err := utils.NewValidator()
	if err != nil {
		return nil, err
	}

	return &Bot{
		repo:       repo,
		resolver:   resolver,
		sessions:   sessions,
		messenger:  messenger,
		publisher:  publisher,
		validate:   validate,
		translator: trans,
	}, nil
}

// HandleCommand 处理 /start 和 /cancel，两者都会放弃进行中的流程
func (b *Bot) HandleCommand(ctx context.Context, chatID int64, identity domain.Identity, command string) error {
	var err error
	switch command {
	case CommandStart:
		err = b.start(ctx, chatID, identity)
	case CommandCancel:
		err = b.cancel(ctx, chatID, identity)
	default:
		slog.Debug("忽略未知命令", "command", command, "user", identity.ID)
		return nil
	}
	if err != nil {
		return b.internalError(ctx, chatID, err)
	}
	return nil
}

// HandleClick 先应答按钮，再重新解析角色、执行动作并就地编辑原消息
func (b *Bot) HandleClick(ctx context.Context, click domain.Click) error {
	if err := b.messenger.AnswerClick(ctx, click.ID); err != nil {
		slog.Warn("应答按钮失败", "user", click.From.ID, "error", err)
	}

	action, err := DecodeAction(click.Data)
	if err != nil {
		slog.Info("忽略无法识别的按钮", "user", click.From.ID, "data", click.Data)
		return nil
	}

	role, err := b.resolve(click.From)
	if err != nil {
		return b.internalError(ctx, click.Origin.ChatID, err)
	}

	if !permitted(action, role) {
		slog.Info("权限不足，忽略按钮", "user", click.From.ID, "role", role, "action", action.Encode())
		return nil
	}

	screen, err := b.perform(ctx, click.From, role, action)
	if err != nil {
		return b.internalError(ctx, click.Origin.ChatID, err)
	}

	if err := b.messenger.Edit(ctx, click.Origin, screen); err != nil {
		return b.internalError(ctx, click.Origin.ChatID, err)
	}
	return nil
}

// HandleText 把文字输入交给当前流程的当前步骤，没有会话时不做任何事
func (b *Bot) HandleText(ctx context.Context, chatID int64, identity domain.Identity, text string) error {
	if err := b.advance(ctx, chatID, identity, text); err != nil {
		return b.internalError(ctx, chatID, err)
	}
	return nil
}

func (b *Bot) start(ctx context.Context, chatID int64, identity domain.Identity) error {
	role, err := b.resolve(identity)
	if err != nil {
		return err
	}

	if err := b.sessions.Delete(ctx, identity.ID); err != nil {
		return err
	}

	if role == domain.RoleNone {
		screen, err := b.startFlow(ctx, identity, domain.FlowRegistration)
		if err != nil {
			return err
		}
		return b.messenger.Send(ctx, chatID, screen)
	}

	return b.sendHome(ctx, chatID, role, identity, "")
}

func (b *Bot) cancel(ctx context.Context, chatID int64, identity domain.Identity) error {
	sess, err := b.sessions.Get(ctx, identity.ID)
	if err != nil {
		return err
	}

	notice := textNothingToCancel
	if sess != nil {
		if err := b.sessions.Delete(ctx, identity.ID); err != nil {
			return err
		}
		notice = textFlowCancelled
	}

	role, err := b.resolve(identity)
	if err != nil {
		return err
	}
	if role == domain.RoleNone {
		return b.messenger.Send(ctx, chatID, domain.Screen{Text: notice})
	}

	return b.sendHome(ctx, chatID, role, identity, notice)
}

func (b *Bot) advance(ctx context.Context, chatID int64, identity domain.Identity, text string) error {
	sess, err := b.sessions.Get(ctx, identity.ID)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	f, ok := flows[sess.Flow]
	idx := f.stepIndex(sess.Step)
	if !ok || idx < 0 {
		slog.Warn("会话状态无效，已丢弃", "user", identity.ID, "flow", sess.Flow, "step", sess.Step)
		return b.sessions.Delete(ctx, identity.ID)
	}

	role, err := b.resolve(identity)
	if err != nil {
		return err
	}
	if !slices.Contains(f.roles, role) {
		// 流程进行中角色发生了变化
		slog.Info("权限不足，放弃流程", "user", identity.ID, "role", role, "flow", sess.Flow)
		return b.sessions.Delete(ctx, identity.ID)
	}

	current := f.steps[idx]
	value := text
	if current.trim {
		value = strings.TrimSpace(value)
	}

	fields := maps.Clone(sess.Fields)
	if fields == nil {
		fields = make(map[string]string)
	}
	fields[current.name] = value

	if err := b.validate.StructPartial(f.input(fields), current.field); err != nil {
		var invalid validator.ValidationErrors
		if !errors.As(err, &invalid) {
			return err
		}
		return b.messenger.Send(ctx, chatID, domain.Screen{Text: utils.TranslateFirst(invalid, b.translator)})
	}

	if f.check != nil {
		doc, err := b.repo.Load()
		if err != nil {
			return err
		}
		if msg := f.check(doc, current.name, value); msg != "" {
			return b.messenger.Send(ctx, chatID, domain.Screen{Text: msg})
		}
	}

	if idx+1 < len(f.steps) {
		next := f.steps[idx+1]
		sess.Fields = fields
		sess.Step = next.name
		sess.UpdatedAt = time.Now()
		if err := b.sessions.Save(ctx, sess); err != nil {
			return err
		}
		return b.messenger.Send(ctx, chatID, domain.Screen{Text: next.prompt})
	}

	// 提交失败时会话保持不变，用户可以重新发送最后一步
	done, err := f.commit(ctx, b, identity, fields)
	if errors.Is(err, repository.ErrAlreadyExists) {
		restart := domain.NewSession(identity.ID, sess.Flow, f.steps[0].name)
		if err := b.sessions.Save(ctx, restart); err != nil {
			return err
		}
		return b.messenger.Send(ctx, chatID, domain.Screen{Text: f.conflict})
	}
	if err != nil {
		return err
	}

	if err := b.sessions.Delete(ctx, identity.ID); err != nil {
		slog.Warn("清除会话失败", "user", identity.ID, "error", err)
	}
	slog.Info("流程已完成", "user", identity.ID, "flow", sess.Flow)

	if err := b.messenger.Send(ctx, chatID, domain.Screen{Text: done.reply}); err != nil {
		return err
	}

	// 提交可能改变了角色（注册），重新解析后再决定下一个菜单
	role, err = b.resolve(identity)
	if err != nil {
		return err
	}
	if !Allowed(done.next, role) {
		return nil
	}
	screen, err := b.render(done.next, role, identity)
	if err != nil {
		return err
	}
	return b.messenger.Send(ctx, chatID, screen)
}

func (b *Bot) startFlow(ctx context.Context, identity domain.Identity, flow domain.Flow) (domain.Screen, error) {
	f, ok := flows[flow]
	if !ok {
		return domain.Screen{}, fmt.Errorf("未知流程 %q", flow)
	}

	// 新流程直接覆盖旧会话
	first := f.steps[0]
	if err := b.sessions.Save(ctx, domain.NewSession(identity.ID, flow, first.name)); err != nil {
		return domain.Screen{}, err
	}
	slog.Info("流程已开始", "user", identity.ID, "flow", flow)

	return domain.Screen{Text: first.prompt}, nil
}

// permitted 判断角色是否可以执行按钮动作，不允许的动作被静默丢弃
func permitted(action Action, role domain.Role) bool {
	switch action.Kind {
	case KindBack:
		_, ok := HomeOf(role)
		return ok
	case KindOpen:
		return Allowed(MenuID(action.Ref), role)
	case KindFlow:
		f, ok := flows[domain.Flow(action.Ref)]
		return ok && role != domain.RoleNone && slices.Contains(f.roles, role)
	case KindRemoveAssistant:
		return slices.Contains(adminOnly, role)
	case KindRemoveTask, KindRemoveTest:
		return slices.Contains(staff, role)
	case KindViewTask, KindViewTest:
		return slices.Contains(userOnly, role)
	default:
		return false
	}
}

func (b *Bot) perform(ctx context.Context, identity domain.Identity, role domain.Role, action Action) (domain.Screen, error) {
	switch action.Kind {
	case KindOpen, KindBack:
		id, err := Dispatch(action, role)
		if err != nil {
			return domain.Screen{}, err
		}
		return b.render(id, role, identity)
	case KindFlow:
		return b.startFlow(ctx, identity, domain.Flow(action.Ref))
	case KindRemoveAssistant:
		_, err := b.repo.DeleteAssistantByRef(action.Ref)
		return b.afterRemoval(role, identity, err, textAssistantRemoved)
	case KindRemoveTask:
		_, err := b.repo.DeleteTaskByRef(action.Ref)
		return b.afterRemoval(role, identity, err, textTaskRemoved)
	case KindRemoveTest:
		_, err := b.repo.DeleteTestByRef(action.Ref)
		return b.afterRemoval(role, identity, err, textTestRemoved)
	case KindViewTask:
		return b.viewTask(role, identity, action.Ref)
	case KindViewTest:
		return b.viewTest(role, identity, action.Ref)
	default:
		return domain.Screen{}, ErrInvalidAction
	}
}

// afterRemoval 删除后回到主菜单，记录已经不存在时提示后同样回到主菜单
func (b *Bot) afterRemoval(role domain.Role, identity domain.Identity, err error, done string) (domain.Screen, error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return b.home(role, identity, textNotFound)
	case err != nil:
		return domain.Screen{}, err
	default:
		return b.home(role, identity, done)
	}
}

func (b *Bot) viewTask(role domain.Role, identity domain.Identity, ref string) (domain.Screen, error) {
	doc, err := b.repo.Load()
	if err != nil {
		return domain.Screen{}, err
	}

	user := doc.FindUser(identity)
	task := doc.FindTaskByRef(ref)
	if user == nil || task == nil || !task.VisibleTo(user.Group) {
		return b.home(role, identity, textNotFound)
	}

	body, err := b.repo.ReadAssignment(task.FilePath)
	if errors.Is(err, repository.ErrNotFound) {
		return b.home(role, identity, textNotFound)
	}
	if err != nil {
		return domain.Screen{}, err
	}
	if strings.TrimSpace(body) == "" {
		body = textEmptyContent
	}

	return domain.Screen{Text: body, Buttons: []domain.Button{button(labelBack, openAction(MenuUserTasks))}}, nil
}

func (b *Bot) viewTest(role domain.Role, identity domain.Identity, ref string) (domain.Screen, error) {
	doc, err := b.repo.Load()
	if err != nil {
		return domain.Screen{}, err
	}

	user := doc.FindUser(identity)
	test := doc.FindTestByRef(ref)
	if user == nil || test == nil || !test.VisibleTo(user.Group) {
		return b.home(role, identity, textNotFound)
	}

	questions, err := b.repo.ReadTestDefinition(test.FilePath)
	if errors.Is(err, repository.ErrNotFound) {
		return b.home(role, identity, textNotFound)
	}
	if err != nil {
		return domain.Screen{}, err
	}

	return domain.Screen{Text: formatQuestions(questions), Buttons: []domain.Button{button(labelBack, openAction(MenuUserTests))}}, nil
}

// formatQuestions 每道题一行题目，下一行是逗号分隔的选项
func formatQuestions(questions domain.QuestionSet) string {
	blocks := make([]string, 0, len(questions))
	for _, q := range questions {
		blocks = append(blocks, q.Text+"\n"+strings.Join(q.Answers, ", "))
	}

	text := strings.Join(blocks, "\n")
	if strings.TrimSpace(text) == "" {
		return textEmptyContent
	}
	return text
}

func (b *Bot) render(id MenuID, role domain.Role, identity domain.Identity) (domain.Screen, error) {
	doc, err := b.repo.Load()
	if err != nil {
		return domain.Screen{}, err
	}
	return Render(id, role, identity, doc)
}

// home 渲染角色主菜单，notice 非空时放在菜单文字前面
func (b *Bot) home(role domain.Role, identity domain.Identity, notice string) (domain.Screen, error) {
	id, ok := HomeOf(role)
	if !ok {
		return domain.Screen{Text: notice}, nil
	}

	screen, err := b.render(id, role, identity)
	if err != nil {
		return domain.Screen{}, err
	}
	if notice != "" {
		screen.Text = notice + "\n\n" + screen.Text
	}
	return screen, nil
}

func (b *Bot) sendHome(ctx context.Context, chatID int64, role domain.Role, identity domain.Identity, notice string) error {
	screen, err := b.home(role, identity, notice)
	if err != nil {
		return err
	}
	return b.messenger.Send(ctx, chatID, screen)
}

// resolve 把未注册视为 RoleNone，只返回真正的存储错误
func (b *Bot) resolve(identity domain.Identity) (domain.Role, error) {
	role, err := b.resolver.Resolve(identity)
	if err != nil && !errors.Is(err, access.ErrNotRegistered) {
		return domain.RoleNone, err
	}
	return role, nil
}

func (b *Bot) publish(ctx context.Context, n domain.Notification) {
	if err := b.publisher.Publish(ctx, n); err != nil {
		slog.Error("发布通知失败", "type", n.Type, "error", err)
	}
}

// internalError 记录错误并告诉用户稍后重试
func (b *Bot) internalError(ctx context.Context, chatID int64, err error) error {
	slog.Error("处理交互失败", "chat", chatID, "error", err)

	if sendErr := b.messenger.Send(ctx, chatID, domain.Screen{Text: textInternalError}); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return nil
}
