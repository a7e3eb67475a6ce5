package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/access"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/config"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/repository"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/session"
)

const adminID = 1000

var (
	admin     = domain.Identity{ID: adminID, Username: "boss"}
	assistant = domain.Identity{ID: 7, Username: "helper"}
	student   = domain.Identity{ID: 10, Username: "ivan"}
	stranger  = domain.Identity{ID: 42, Username: "newbie"}
)

type sent struct {
	chatID int64
	screen domain.Screen
}

type edited struct {
	ref    domain.MessageRef
	screen domain.Screen
}

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []sent
	edited   []edited
	answered []string
	editErr  error
}

func (m *fakeMessenger) Send(_ context.Context, chatID int64, screen domain.Screen) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sent{chatID: chatID, screen: screen})
	return nil
}

func (m *fakeMessenger) Edit(_ context.Context, ref domain.MessageRef, screen domain.Screen) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editErr != nil {
		return m.editErr
	}
	m.edited = append(m.edited, edited{ref: ref, screen: screen})
	return nil
}

func (m *fakeMessenger) AnswerClick(_ context.Context, clickID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, clickID)
	return nil
}

func (m *fakeMessenger) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.sent {
		out = append(out, s.screen.Text)
	}
	return out
}

func (m *fakeMessenger) lastEdit(t *testing.T) domain.Screen {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.edited)
	return m.edited[len(m.edited)-1].screen
}

func (m *fakeMessenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.edited = nil
	m.answered = nil
}

type fakePublisher struct {
	mu            sync.Mutex
	notifications []domain.Notification
	err           error
}

func (p *fakePublisher) Publish(_ context.Context, n domain.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, n)
	return p.err
}

type fixture struct {
	bot       *Bot
	repo      *repository.Repository
	sessions  session.Store
	messenger *fakeMessenger
	publisher *fakePublisher
	dataDir   string
}

func setup(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.Storage.DataDir = t.TempDir()
	repo := repository.NewRepository(cfg)

	require.NoError(t, repo.CreateUser(&domain.User{ID: "10", Name: "ivan", Group: "2", StudentID: "ST2210345", FIO: "Иванов Иван"}))
	require.NoError(t, repo.CreateAssistant(&domain.Assistant{Name: "helper", Position: "Доцент", FIO: "Сидоров С.С."}))

	f := &fixture{
		repo:      repo,
		sessions:  session.NewMemoryStore(time.Minute, time.Minute),
		messenger: &fakeMessenger{},
		publisher: &fakePublisher{},
		dataDir:   cfg.Storage.DataDir,
	}
	b, err := New(repo, access.NewResolver(repo, adminID), f.sessions, f.messenger, f.publisher)
	require.NoError(t, err)
	f.bot = b

	return f
}

func (f *fixture) click(t *testing.T, from domain.Identity, action Action) {
	t.Helper()
	err := f.bot.HandleClick(context.Background(), domain.Click{
		ID:     "cb-1",
		Data:   action.Encode(),
		From:   from,
		Origin: domain.MessageRef{ChatID: from.ID, MessageID: 1},
	})
	require.NoError(t, err)
}

func (f *fixture) text(t *testing.T, from domain.Identity, text string) {
	t.Helper()
	require.NoError(t, f.bot.HandleText(context.Background(), from.ID, from, text))
}

func (f *fixture) session(t *testing.T, id int64) *domain.Session {
	t.Helper()
	s, err := f.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	return s
}

func TestRegistrationFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.bot.HandleCommand(ctx, stranger.ID, stranger, CommandStart))
	assert.Equal(t, []string{promptStudentID}, f.messenger.texts())

	f.text(t, stranger, "  ST2210345 ")
	f.text(t, stranger, "Новиков Никита Андреевич")

	texts := f.messenger.texts()
	require.Len(t, texts, 4)
	assert.Equal(t, promptFIO, texts[1])
	assert.Equal(t, textRegistrationDone, texts[2])
	assert.Equal(t, textUserMenu, texts[3])

	users, err := f.repo.GetAllUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, domain.User{
		ID: "42", Name: "newbie", Role: domain.RoleUser, Group: "2", StudentID: "ST2210345", FIO: "Новиков Никита Андреевич",
	}, users[1])
	assert.Nil(t, f.session(t, stranger.ID))

	require.Len(t, f.publisher.notifications, 1)
	assert.Equal(t, domain.NotificationStudentRegistered, f.publisher.notifications[0].Type)
}

func TestRegistrationRejectsStudentIDWithoutDigits(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.bot.HandleCommand(context.Background(), stranger.ID, stranger, CommandStart))
	f.text(t, stranger, "NODIGITS")

	texts := f.messenger.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "цифру")

	s := f.session(t, stranger.ID)
	require.NotNil(t, s)
	assert.Equal(t, fieldStudentID, s.Step)

	users, err := f.repo.GetAllUsers()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegistrationSurvivesPublisherFailure(t *testing.T) {
	f := setup(t)
	f.publisher.err = errors.New("broker down")

	require.NoError(t, f.bot.HandleCommand(context.Background(), stranger.ID, stranger, CommandStart))
	f.text(t, stranger, "ST5000001")
	f.text(t, stranger, "Морозов Егор")

	// 通知失败不影响注册
	assert.Contains(t, f.messenger.texts(), textRegistrationDone)
}

func TestAddAssignmentFlow(t *testing.T) {
	f := setup(t)

	f.click(t, admin, Action{Kind: KindFlow, Ref: string(domain.FlowAddAssignment)})
	assert.Equal(t, []string{"cb-1"}, f.messenger.answered)
	assert.Equal(t, promptAssignmentName, f.messenger.lastEdit(t).Text)
	assert.Empty(t, f.messenger.lastEdit(t).Buttons)

	f.text(t, admin, "Homework 1")
	f.text(t, admin, "Read chapter 3")

	assert.Equal(t, []string{promptAssignmentBody, textAssignmentAdded, textTasksMenu}, f.messenger.texts())

	tasks, err := f.repo.GetAllTasks()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.Task{Title: "Homework 1", FilePath: "tasks/Homework 1.txt", Groups: []string{}}, tasks[0])

	body, err := os.ReadFile(filepath.Join(f.dataDir, "tasks", "Homework 1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Read chapter 3", string(body))
	assert.Nil(t, f.session(t, admin.ID))
}

func TestAddTestFlowByAssistant(t *testing.T) {
	f := setup(t)

	f.click(t, assistant, Action{Kind: KindFlow, Ref: string(domain.FlowAddTest)})
	f.text(t, assistant, "Quiz")
	f.text(t, assistant, "Вопрос 1\nA\nB\nВопрос 2\nC")

	assert.Equal(t, []string{promptTestQuestions, textTestAdded, textTasksMenu}, f.messenger.texts())

	tests, err := f.repo.GetAllTests()
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "tests/Quiz.json", tests[0].FilePath)

	questions, err := f.repo.ReadTestDefinition(tests[0].FilePath)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "Вопрос 1", questions[0].Text)
	assert.Equal(t, []string{"A", "B"}, questions[0].Answers)
	assert.Equal(t, []string{"C"}, questions[1].Answers)
}

func TestAddAssignmentRejectsInvalidAndDuplicateTitles(t *testing.T) {
	f := setup(t)
	_, err := f.repo.CreateTask("Homework 1", "old")
	require.NoError(t, err)

	f.click(t, admin, Action{Kind: KindFlow, Ref: string(domain.FlowAddAssignment)})
	f.text(t, admin, "../etc")
	f.text(t, admin, "Homework 1")

	texts := f.messenger.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Название задания")
	assert.Equal(t, textTitleExists, texts[1])
	assert.Equal(t, fieldTitle, f.session(t, admin.ID).Step)

	body, err := f.repo.ReadAssignment(repository.AssignmentPath("Homework 1"))
	require.NoError(t, err)
	assert.Equal(t, "old", body)
}

func TestAddAssistantFlow(t *testing.T) {
	f := setup(t)

	f.click(t, admin, Action{Kind: KindFlow, Ref: string(domain.FlowAddAssistant)})
	f.text(t, admin, "@helper")
	f.text(t, admin, "@second")
	f.text(t, admin, "Лаборант")
	f.text(t, admin, "Волков Илья")

	assert.Equal(t, []string{textAssistantExists, promptPosition, promptFIO, textAssistantAdded, textAssistantsMenu}, f.messenger.texts())

	assistants, err := f.repo.GetAllAssistants()
	require.NoError(t, err)
	require.Len(t, assistants, 2)
	assert.Equal(t, "second", assistants[1].Name)
	assert.Equal(t, "Лаборант", assistants[1].Position)
}

func TestAddAssistantRejectsUnusableHandles(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.repo.CreateUser(&domain.User{ID: "11", Name: "petrova", Group: "3", StudentID: "ST3100000", FIO: "Петрова Анна"}))

	f.click(t, admin, Action{Kind: KindFlow, Ref: string(domain.FlowAddAssistant)})
	f.text(t, admin, "@")
	f.text(t, admin, "@")
	f.text(t, admin, "ivan petrov")
	f.text(t, admin, "@Petrova")
	f.text(t, admin, "HELPER")

	invalid := "@name должен быть именем пользователя Telegram: от 5 до 32 латинских букв, цифр или _"
	assert.Equal(t, []string{invalid, invalid, invalid, textHandleIsStudent, textAssistantExists}, f.messenger.texts())
	assert.Equal(t, fieldName, f.session(t, admin.ID).Step)

	assistants, err := f.repo.GetAllAssistants()
	require.NoError(t, err)
	require.Len(t, assistants, 1)
	assert.Equal(t, "helper", assistants[0].Name)
}

func TestAddAssistantConflictWithStudentAtCommit(t *testing.T) {
	f := setup(t)

	f.click(t, admin, Action{Kind: KindFlow, Ref: string(domain.FlowAddAssistant)})
	f.text(t, admin, "@sidorov")
	f.text(t, admin, "Лаборант")

	// 在最后一步之前这个 handle 被学生注册了
	require.NoError(t, f.repo.CreateUser(&domain.User{ID: "12", Name: "Sidorov", Group: "1", StudentID: "ST1000001", FIO: "Сидоров Сидор"}))
	f.text(t, admin, "Сидоров Сидор")

	texts := f.messenger.texts()
	assert.Equal(t, textAssistantExists, texts[len(texts)-1])
	assert.Equal(t, fieldName, f.session(t, admin.ID).Step)

	assistants, err := f.repo.GetAllAssistants()
	require.NoError(t, err)
	assert.Len(t, assistants, 1)
}

func TestBlankMultilineInputIsRejected(t *testing.T) {
	f := setup(t)

	f.click(t, admin, Action{Kind: KindFlow, Ref: string(domain.FlowAddTest)})
	f.text(t, admin, "Quiz")
	f.text(t, admin, "\n")
	f.text(t, admin, " \n\t")

	blank := "Вопросы не может быть пустым"
	assert.Equal(t, []string{promptTestQuestions, blank, blank}, f.messenger.texts())
	assert.Equal(t, fieldQuestions, f.session(t, admin.ID).Step)

	tests, err := f.repo.GetAllTests()
	require.NoError(t, err)
	assert.Empty(t, tests)

	f.messenger.reset()
	f.click(t, admin, Action{Kind: KindFlow, Ref: string(domain.FlowAddAssignment)})
	f.text(t, admin, "Homework 2")
	f.text(t, admin, "   ")
	assert.Equal(t, []string{promptAssignmentBody, "Задание не может быть пустым"}, f.messenger.texts())
}

func TestFailedEditRepliesWithInternalError(t *testing.T) {
	f := setup(t)
	f.messenger.editErr = errors.New("Bad Request: message is too long")

	f.click(t, admin, Action{Kind: KindOpen, Ref: string(MenuStudents)})

	assert.Equal(t, []string{textInternalError}, f.messenger.texts())
}

func TestTextWithoutSessionIsIgnored(t *testing.T) {
	f := setup(t)

	f.text(t, admin, "hello")
	f.text(t, stranger, "hello")

	assert.Empty(t, f.messenger.texts())
}

func TestStorageFailureKeepsSession(t *testing.T) {
	f := setup(t)

	// 用同名文件占住 tasks 目录，写入作业内容必然失败
	blocker := filepath.Join(f.dataDir, "tasks")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	f.click(t, admin, Action{Kind: KindFlow, Ref: string(domain.FlowAddAssignment)})
	f.text(t, admin, "Homework 1")
	f.text(t, admin, "Read chapter 3")

	assert.Equal(t, []string{promptAssignmentBody, textInternalError}, f.messenger.texts())
	s := f.session(t, admin.ID)
	require.NotNil(t, s)
	assert.Equal(t, fieldContent, s.Step)
	assert.Equal(t, "Homework 1", s.Fields[fieldTitle])

	tasks, err := f.repo.GetAllTasks()
	require.NoError(t, err)
	assert.Empty(t, tasks)

	// 故障排除后重发最后一步即可完成
	require.NoError(t, os.Remove(blocker))
	f.text(t, admin, "Read chapter 3")
	tasks, err = f.repo.GetAllTasks()
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestUnauthorizedClickIsDropped(t *testing.T) {
	f := setup(t)

	f.click(t, student, Action{Kind: KindRemoveAssistant, Ref: domain.RefOf("helper")})
	f.click(t, assistant, Action{Kind: KindOpen, Ref: string(MenuAssistants)})
	f.click(t, stranger, Action{Kind: KindBack})

	assert.Len(t, f.messenger.answered, 3)
	assert.Empty(t, f.messenger.edited)
	assert.Empty(t, f.messenger.sent)

	assistants, err := f.repo.GetAllAssistants()
	require.NoError(t, err)
	assert.Len(t, assistants, 1)
}

func TestRemoveAssistant(t *testing.T) {
	f := setup(t)

	f.click(t, admin, Action{Kind: KindRemoveAssistant, Ref: domain.RefOf("helper")})
	assert.Equal(t, textAssistantRemoved+"\n\n"+textAdminMenu, f.messenger.lastEdit(t).Text)

	assistants, err := f.repo.GetAllAssistants()
	require.NoError(t, err)
	assert.Empty(t, assistants)

	// 旧消息上的按钮再次被点击
	f.click(t, admin, Action{Kind: KindRemoveAssistant, Ref: domain.RefOf("helper")})
	assert.Equal(t, textNotFound+"\n\n"+textAdminMenu, f.messenger.lastEdit(t).Text)
}

func TestRemoveTaskAndTest(t *testing.T) {
	f := setup(t)
	_, err := f.repo.CreateTask("Homework 1", "body")
	require.NoError(t, err)
	_, err = f.repo.CreateTest("Quiz", domain.QuestionSet{}.With("Вопрос 1", []string{"A"}))
	require.NoError(t, err)

	f.click(t, assistant, Action{Kind: KindRemoveTask, Ref: domain.RefOf("Homework 1")})
	assert.Equal(t, textTaskRemoved+"\n\n"+textAssistantMenu, f.messenger.lastEdit(t).Text)
	f.click(t, assistant, Action{Kind: KindRemoveTest, Ref: domain.RefOf("Quiz")})
	assert.Equal(t, textTestRemoved+"\n\n"+textAssistantMenu, f.messenger.lastEdit(t).Text)

	doc, err := f.repo.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Tasks)
	assert.Empty(t, doc.Tests)
	assert.Len(t, doc.Users, 1)
	assert.Len(t, doc.Assistants, 1)
}

func TestViewTaskRespectsGroup(t *testing.T) {
	f := setup(t)
	_, err := f.repo.CreateTask("Homework 1", "Read chapter 3")
	require.NoError(t, err)
	_, err = f.repo.CreateTask("Homework 2", "Secret")
	require.NoError(t, err)
	_, _, err = f.repo.SetTaskGroups(domain.RefOf("Homework 1"), []string{"2"})
	require.NoError(t, err)
	_, _, err = f.repo.SetTaskGroups(domain.RefOf("Homework 2"), []string{"5"})
	require.NoError(t, err)

	f.click(t, student, Action{Kind: KindOpen, Ref: string(MenuUserTasks)})
	assert.Equal(t, []string{"Homework 1", labelBack}, labels(f.messenger.lastEdit(t)))

	f.click(t, student, Action{Kind: KindViewTask, Ref: domain.RefOf("Homework 1")})
	assert.Equal(t, "Read chapter 3", f.messenger.lastEdit(t).Text)

	f.click(t, student, Action{Kind: KindViewTask, Ref: domain.RefOf("Homework 2")})
	assert.Equal(t, textNotFound+"\n\n"+textUserMenu, f.messenger.lastEdit(t).Text)
}

func TestViewTest(t *testing.T) {
	f := setup(t)
	questions := domain.QuestionSet{}.With("Вопрос 1", []string{"A", "B"}).With("Вопрос 2", []string{"C"})
	_, err := f.repo.CreateTest("Quiz", questions)
	require.NoError(t, err)
	_, _, err = f.repo.SetTestGroups(domain.RefOf("Quiz"), []string{"2"})
	require.NoError(t, err)

	f.click(t, student, Action{Kind: KindViewTest, Ref: domain.RefOf("Quiz")})
	assert.Equal(t, "Вопрос 1\nA, B\nВопрос 2\nC", f.messenger.lastEdit(t).Text)
}

func TestRoleRevokedMidFlow(t *testing.T) {
	f := setup(t)

	f.click(t, assistant, Action{Kind: KindFlow, Ref: string(domain.FlowAddAssignment)})
	_, err := f.repo.DeleteAssistant("helper")
	require.NoError(t, err)

	f.text(t, assistant, "Homework 1")

	assert.Empty(t, f.messenger.texts())
	assert.Nil(t, f.session(t, assistant.ID))
}

func TestStartReplacesActiveFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.click(t, admin, Action{Kind: KindFlow, Ref: string(domain.FlowAddTest)})
	f.click(t, admin, Action{Kind: KindFlow, Ref: string(domain.FlowAddAssignment)})
	assert.Equal(t, domain.FlowAddAssignment, f.session(t, admin.ID).Flow)

	require.NoError(t, f.bot.HandleCommand(ctx, admin.ID, admin, CommandStart))
	assert.Nil(t, f.session(t, admin.ID))
	assert.Equal(t, []string{textAdminMenu}, f.messenger.texts())
}

func TestCancelCommand(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.click(t, admin, Action{Kind: KindFlow, Ref: string(domain.FlowAddAssignment)})
	f.messenger.reset()

	require.NoError(t, f.bot.HandleCommand(ctx, admin.ID, admin, CommandCancel))
	assert.Equal(t, []string{textFlowCancelled + "\n\n" + textAdminMenu}, f.messenger.texts())
	assert.Nil(t, f.session(t, admin.ID))

	f.messenger.reset()
	require.NoError(t, f.bot.HandleCommand(ctx, stranger.ID, stranger, CommandCancel))
	assert.Equal(t, []string{textNothingToCancel}, f.messenger.texts())
}

func TestNavigationEditsInPlace(t *testing.T) {
	f := setup(t)

	f.click(t, admin, Action{Kind: KindOpen, Ref: string(MenuTasks)})
	assert.Equal(t, textTasksMenu, f.messenger.lastEdit(t).Text)

	f.click(t, admin, Action{Kind: KindBack})
	assert.Equal(t, textAdminMenu, f.messenger.lastEdit(t).Text)
	assert.Equal(t, domain.MessageRef{ChatID: admin.ID, MessageID: 1}, f.messenger.edited[1].ref)
	assert.Empty(t, f.messenger.sent)
}
