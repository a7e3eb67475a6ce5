package bot

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/utils"
)

// 会话中各步骤保存的字段名
const (
	fieldStudentID = "student_id"
	fieldFIO       = "fio"
	fieldName      = "name"
	fieldPosition  = "position"
	fieldTitle     = "title"
	fieldQuestions = "questions"
	fieldContent   = "content"
)

type registrationInput struct {
	StudentID string `label:"Номер студенческого билета" validate:"required,max=32,studentid"`
	FIO       string `label:"ФИО" validate:"required,max=128"`
}

type assistantInput struct {
	Name     string `label:"@name" validate:"required,handle"`
	Position string `label:"Должность" validate:"required,max=128"`
	FIO      string `label:"ФИО" validate:"required,max=128"`
}

type testInput struct {
	Title     string `label:"Название теста" validate:"required,max=64,title"`
	Questions string `label:"Вопросы" validate:"required,notblank"`
}

type assignmentInput struct {
	Title   string `label:"Название задания" validate:"required,max=64,title"`
	Content string `label:"Задание" validate:"required,notblank"`
}

type step struct {
	// name 是会话中的字段名，field 是校验时对应的结构体字段
	name   string
	field  string
	prompt string
	// 单行输入去掉首尾空白，多行内容原样保存
	trim bool
}

// completion 是流程提交成功后要告诉用户的内容
type completion struct {
	reply string
	next  MenuID
}

type flow struct {
	roles []domain.Role
	steps []step
	input func(fields map[string]string) any
	// check 在某一步输入通过格式校验后检查与已有数据的冲突，返回非空文字表示拒绝
	check func(doc *domain.Document, step, value string) string
	// conflict 是提交时发现重复记录后的提示，流程会回到第一步
	conflict string
	commit   func(ctx context.Context, b *Bot, identity domain.Identity, fields map[string]string) (completion, error)
}

func (f flow) stepIndex(name string) int {
	for i, s := range f.steps {
		if s.name == name {
			return i
		}
	}
	return -1
}

var flows = map[domain.Flow]flow{
	domain.FlowRegistration: {
		roles: []domain.Role{domain.RoleNone},
		steps: []step{
			{name: fieldStudentID, field: "StudentID", prompt: promptStudentID, trim: true},
			{name: fieldFIO, field: "FIO", prompt: promptFIO, trim: true},
		},
		input: func(fields map[string]string) any {
			return registrationInput{StudentID: fields[fieldStudentID], FIO: fields[fieldFIO]}
		},
		conflict: textAlreadyRegistered + "\n" + promptStudentID,
		commit:   commitRegistration,
	},
	domain.FlowAddAssistant: {
		roles: adminOnly,
		steps: []step{
			{name: fieldName, field: "Name", prompt: promptAssistantName, trim: true},
			{name: fieldPosition, field: "Position", prompt: promptPosition, trim: true},
			{name: fieldFIO, field: "FIO", prompt: promptFIO, trim: true},
		},
		input: func(fields map[string]string) any {
			return assistantInput{Name: fields[fieldName], Position: fields[fieldPosition], FIO: fields[fieldFIO]}
		},
		check: func(doc *domain.Document, step, value string) string {
			if step != fieldName {
				return ""
			}
			// 学生先于助教被识别，同一个 handle 作为助教永远不会生效
			if doc.FindUser(domain.Identity{Username: value}) != nil {
				return textHandleIsStudent
			}
			if doc.FindAssistant(domain.Identity{Username: value}) != nil {
				return textAssistantExists
			}
			return ""
		},
		conflict: textAssistantExists,
		commit:   commitAssistant,
	},
	domain.FlowAddTest: {
		roles: staff,
		steps: []step{
			{name: fieldTitle, field: "Title", prompt: promptTestTitle, trim: true},
			{name: fieldQuestions, field: "Questions", prompt: promptTestQuestions},
		},
		input: func(fields map[string]string) any {
			return testInput{Title: fields[fieldTitle], Questions: fields[fieldQuestions]}
		},
		check: func(doc *domain.Document, step, value string) string {
			if step == fieldTitle && doc.FindTest(value) != nil {
				return textTitleExists
			}
			return ""
		},
		conflict: textTitleExists,
		commit:   commitTest,
	},
	domain.FlowAddAssignment: {
		roles: staff,
		steps: []step{
			{name: fieldTitle, field: "Title", prompt: promptAssignmentName, trim: true},
			{name: fieldContent, field: "Content", prompt: promptAssignmentBody},
		},
		input: func(fields map[string]string) any {
			return assignmentInput{Title: fields[fieldTitle], Content: fields[fieldContent]}
		},
		check: func(doc *domain.Document, step, value string) string {
			if step == fieldTitle && doc.FindTask(value) != nil {
				return textTitleExists
			}
			return ""
		},
		conflict: textTitleExists,
		commit:   commitAssignment,
	},
}

func commitRegistration(ctx context.Context, b *Bot, identity domain.Identity, fields map[string]string) (completion, error) {
	group, err := utils.DeriveGroup(fields[fieldStudentID])
	if err != nil {
		return completion{}, err
	}

	user := &domain.User{
		ID:        identity.IDString(),
		Name:      domain.NormalizeHandle(identity.Username),
		Group:     group,
		StudentID: fields[fieldStudentID],
		FIO:       fields[fieldFIO],
	}
	if err := b.repo.CreateUser(user); err != nil {
		return completion{}, err
	}

	b.publish(ctx, domain.Notification{
		Type: domain.NotificationStudentRegistered,
		Data: domain.StudentRegisteredData{
			UserID:    user.ID,
			Handle:    user.Name,
			StudentID: user.StudentID,
			FIO:       user.FIO,
			Group:     user.Group,
		},
		OccurredAt: time.Now(),
	})

	return completion{reply: textRegistrationDone, next: MenuUserHome}, nil
}

func commitAssistant(_ context.Context, b *Bot, _ domain.Identity, fields map[string]string) (completion, error) {
	assistant := &domain.Assistant{
		Name:     fields[fieldName],
		Position: fields[fieldPosition],
		FIO:      fields[fieldFIO],
	}
	if err := b.repo.CreateAssistant(assistant); err != nil {
		return completion{}, err
	}

	return completion{reply: textAssistantAdded, next: MenuAssistants}, nil
}

func commitTest(_ context.Context, b *Bot, _ domain.Identity, fields map[string]string) (completion, error) {
	questions := utils.ParseQuestions(fields[fieldQuestions])
	if _, err := b.repo.CreateTest(fields[fieldTitle], questions); err != nil {
		return completion{}, err
	}

	return completion{reply: textTestAdded, next: MenuTasks}, nil
}

func commitAssignment(_ context.Context, b *Bot, _ domain.Identity, fields map[string]string) (completion, error) {
	if _, err := b.repo.CreateTask(fields[fieldTitle], fields[fieldContent]); err != nil {
		return completion{}, err
	}

	return completion{reply: textAssignmentAdded, next: MenuTasks}, nil
}
