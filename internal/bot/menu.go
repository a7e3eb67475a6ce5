package bot

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

type MenuID string

// maxMessageRunes 略小于 Telegram 单条消息 4096 字符的上限
const maxMessageRunes = 4000

const (
	MenuAdminHome       MenuID = "admin-home"
	MenuAssistantHome   MenuID = "assistant-home"
	MenuUserHome        MenuID = "user-home"
	MenuAssistants      MenuID = "assistants-menu"
	MenuStudents        MenuID = "students-list"
	MenuTasks           MenuID = "tasks-menu"
	MenuAddTaskType     MenuID = "add-task-type-picker"
	MenuRemoveAssistant MenuID = "remove-assistant-picker"
	MenuRemoveTask      MenuID = "remove-task-picker"
	MenuUserTasks       MenuID = "user-tasks"
	MenuUserTests       MenuID = "user-tests"
)

var (
	adminOnly = []domain.Role{domain.RoleAdmin}
	staff     = []domain.Role{domain.RoleAdmin, domain.RoleAssistant}
	userOnly  = []domain.Role{domain.RoleUser}
)

// view 是渲染一个菜单所需的全部输入，渲染结果只取决于 view
type view struct {
	role     domain.Role
	identity domain.Identity
	doc      *domain.Document
}

type menu struct {
	roles  []domain.Role
	render func(v view) domain.Screen
}

var menus = map[MenuID]menu{
	MenuAdminHome:       {roles: adminOnly, render: renderAdminHome},
	MenuAssistantHome:   {roles: []domain.Role{domain.RoleAssistant}, render: renderAssistantHome},
	MenuUserHome:        {roles: userOnly, render: renderUserHome},
	MenuAssistants:      {roles: adminOnly, render: renderAssistantsMenu},
	MenuStudents:        {roles: staff, render: renderStudents},
	MenuTasks:           {roles: staff, render: renderTasksMenu},
	MenuAddTaskType:     {roles: staff, render: renderAddTaskType},
	MenuRemoveAssistant: {roles: adminOnly, render: renderRemoveAssistant},
	MenuRemoveTask:      {roles: staff, render: renderRemoveTask},
	MenuUserTasks:       {roles: userOnly, render: renderUserTasks},
	MenuUserTests:       {roles: userOnly, render: renderUserTests},
}

// HomeOf 返回角色的主菜单，未注册用户没有主菜单
func HomeOf(role domain.Role) (MenuID, bool) {
	switch role {
	case domain.RoleAdmin:
		return MenuAdminHome, true
	case domain.RoleAssistant:
		return MenuAssistantHome, true
	case domain.RoleUser:
		return MenuUserHome, true
	default:
		return "", false
	}
}

// Allowed 判断角色能否看到某个菜单
func Allowed(id MenuID, role domain.Role) bool {
	m, ok := menus[id]
	return ok && slices.Contains(m.roles, role)
}

// Render 是纯函数：相同的菜单、角色、身份和文档总是得到相同的 Screen
func Render(id MenuID, role domain.Role, identity domain.Identity, doc *domain.Document) (domain.Screen, error) {
	if !Allowed(id, role) {
		return domain.Screen{}, ErrInvalidAction
	}
	return menus[id].render(view{role: role, identity: identity, doc: doc}), nil
}

// Dispatch 处理纯导航类的动作，返回下一个菜单
func Dispatch(action Action, role domain.Role) (MenuID, error) {
	switch action.Kind {
	case KindBack:
		if home, ok := HomeOf(role); ok {
			return home, nil
		}
	case KindOpen:
		if id := MenuID(action.Ref); Allowed(id, role) {
			return id, nil
		}
	}
	return "", ErrInvalidAction
}

func button(label, action string) domain.Button {
	return domain.Button{Label: label, Action: action}
}

func backButton() domain.Button {
	return button(labelBack, backAction())
}

func renderAdminHome(view) domain.Screen {
	return domain.Screen{
		Text: textAdminMenu,
		Buttons: []domain.Button{
			button(labelAssistants, openAction(MenuAssistants)),
			button(labelStudents, openAction(MenuStudents)),
			button(labelTasks, openAction(MenuTasks)),
		},
	}
}

func renderAssistantHome(view) domain.Screen {
	return domain.Screen{
		Text: textAssistantMenu,
		Buttons: []domain.Button{
			button(labelStudents, openAction(MenuStudents)),
			button(labelTasks, openAction(MenuTasks)),
		},
	}
}

func renderUserHome(view) domain.Screen {
	return domain.Screen{
		Text: textUserMenu,
		Buttons: []domain.Button{
			button(labelMyTasks, openAction(MenuUserTasks)),
			button(labelMyTests, openAction(MenuUserTests)),
		},
	}
}

func renderAssistantsMenu(view) domain.Screen {
	return domain.Screen{
		Text: textAssistantsMenu,
		Buttons: []domain.Button{
			button(labelAddAssistant, Action{Kind: KindFlow, Ref: string(domain.FlowAddAssistant)}.Encode()),
			button(labelRemoveAssistant, openAction(MenuRemoveAssistant)),
			backButton(),
		},
	}
}

func renderStudents(v view) domain.Screen {
	if len(v.doc.Users) == 0 {
		return domain.Screen{Text: textNoStudents, Buttons: []domain.Button{backButton()}}
	}

	var sb strings.Builder
	sb.WriteString(textStudentsHeader)
	size := utf8.RuneCountInString(textStudentsHeader)
	for i, user := range v.doc.Users {
		line := fmt.Sprintf("%s %s %s\n", user.StudentID, user.FIO, user.Group)
		n := utf8.RuneCountInString(line)
		// 给结尾的省略提示留出空间
		if size+n > maxMessageRunes-64 {
			fmt.Fprintf(&sb, textStudentsOmitted, len(v.doc.Users)-i)
			break
		}
		sb.WriteString(line)
		size += n
	}

	return domain.Screen{Text: sb.String(), Buttons: []domain.Button{backButton()}}
}

func renderTasksMenu(view) domain.Screen {
	return domain.Screen{
		Text: textTasksMenu,
		Buttons: []domain.Button{
			button(labelAddTask, openAction(MenuAddTaskType)),
			button(labelRemoveTask, openAction(MenuRemoveTask)),
			backButton(),
		},
	}
}

func renderAddTaskType(view) domain.Screen {
	return domain.Screen{
		Text: textChooseTaskType,
		Buttons: []domain.Button{
			button(labelTest, Action{Kind: KindFlow, Ref: string(domain.FlowAddTest)}.Encode()),
			button(labelAssignment, Action{Kind: KindFlow, Ref: string(domain.FlowAddAssignment)}.Encode()),
			backButton(),
		},
	}
}

func renderRemoveAssistant(v view) domain.Screen {
	if len(v.doc.Assistants) == 0 {
		return domain.Screen{Text: textNoAssistantsToRemove, Buttons: []domain.Button{backButton()}}
	}

	buttons := make([]domain.Button, 0, len(v.doc.Assistants)+1)
	for _, assistant := range v.doc.Assistants {
		handle := domain.NormalizeHandle(assistant.Name)
		buttons = append(buttons, button(
			fmt.Sprintf("%s %s (@%s)", assistant.Position, assistant.FIO, handle),
			Action{Kind: KindRemoveAssistant, Ref: domain.RefOf(domain.HandleKey(handle))}.Encode(),
		))
	}
	buttons = append(buttons, backButton())

	return domain.Screen{Text: textChooseAssistantToRemove, Buttons: buttons}
}

// renderRemoveTask 作业和测试放在同一个列表里，测试带前缀区分
func renderRemoveTask(v view) domain.Screen {
	if len(v.doc.Tasks) == 0 && len(v.doc.Tests) == 0 {
		return domain.Screen{Text: textNoTasksToRemove, Buttons: []domain.Button{backButton()}}
	}

	buttons := make([]domain.Button, 0, len(v.doc.Tasks)+len(v.doc.Tests)+1)
	for _, task := range v.doc.Tasks {
		buttons = append(buttons, button(task.Title, Action{Kind: KindRemoveTask, Ref: domain.RefOf(task.Title)}.Encode()))
	}
	for _, test := range v.doc.Tests {
		buttons = append(buttons, button(labelTestPrefix+test.Title, Action{Kind: KindRemoveTest, Ref: domain.RefOf(test.Title)}.Encode()))
	}
	buttons = append(buttons, backButton())

	return domain.Screen{Text: textChooseTaskToRemove, Buttons: buttons}
}

func renderUserTasks(v view) domain.Screen {
	user := v.doc.FindUser(v.identity)
	if user == nil {
		return domain.Screen{Text: textNotRegistered}
	}

	var buttons []domain.Button
	for _, task := range v.doc.Tasks {
		if task.VisibleTo(user.Group) {
			buttons = append(buttons, button(task.Title, Action{Kind: KindViewTask, Ref: domain.RefOf(task.Title)}.Encode()))
		}
	}
	if len(buttons) == 0 {
		return domain.Screen{Text: textNoTasks, Buttons: []domain.Button{backButton()}}
	}

	return domain.Screen{Text: textMyTasks, Buttons: append(buttons, backButton())}
}

func renderUserTests(v view) domain.Screen {
	user := v.doc.FindUser(v.identity)
	if user == nil {
		return domain.Screen{Text: textNotRegistered}
	}

	var buttons []domain.Button
	for _, test := range v.doc.Tests {
		if test.VisibleTo(user.Group) {
			buttons = append(buttons, button(test.Title, Action{Kind: KindViewTest, Ref: domain.RefOf(test.Title)}.Encode()))
		}
	}
	if len(buttons) == 0 {
		return domain.Screen{Text: textNoTests, Buttons: []domain.Button{backButton()}}
	}

	return domain.Screen{Text: textMyTests, Buttons: append(buttons, backButton())}
}
