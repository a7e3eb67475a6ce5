package bot

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

func sampleDocument() *domain.Document {
	doc := domain.NewDocument()
	doc.Users = []domain.User{
		{ID: "10", Name: "ivan", Role: domain.RoleUser, Group: "2", StudentID: "ST2210345", FIO: "Иванов Иван"},
		{ID: "11", Name: "petr", Role: domain.RoleUser, Group: "3", StudentID: "ST3100000", FIO: "Петров Пётр"},
	}
	doc.Assistants = []domain.Assistant{
		{Name: "helper", Role: domain.RoleAssistant, Position: "Доцент", FIO: "Сидоров С.С."},
	}
	doc.Tasks = []domain.Task{
		{Title: "Homework 1", FilePath: "tasks/Homework 1.txt", Groups: []string{"2"}},
		{Title: "Homework 2", FilePath: "tasks/Homework 2.txt", Groups: []string{"3"}},
	}
	doc.Tests = []domain.Test{
		{Title: "Quiz", FilePath: "tests/Quiz.json", Groups: []string{"2", "3"}, Results: map[string]any{}},
	}
	return doc
}

func labels(screen domain.Screen) []string {
	var out []string
	for _, b := range screen.Buttons {
		out = append(out, b.Label)
	}
	return out
}

func TestRenderIsIdempotent(t *testing.T) {
	doc := sampleDocument()
	identity := domain.Identity{ID: 10, Username: "ivan"}

	for id, m := range menus {
		for _, role := range m.roles {
			first, err := Render(id, role, identity, doc)
			require.NoError(t, err)
			second, err := Render(id, role, identity, doc)
			require.NoError(t, err)
			assert.Equal(t, first, second, "menu %s", id)
		}
	}
}

func TestRenderRejectsOtherRoles(t *testing.T) {
	doc := sampleDocument()

	_, err := Render(MenuRemoveAssistant, domain.RoleAssistant, domain.Identity{ID: 7}, doc)
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = Render(MenuStudents, domain.RoleUser, domain.Identity{ID: 10}, doc)
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = Render(MenuAdminHome, domain.RoleNone, domain.Identity{ID: 5}, doc)
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestHomeMenus(t *testing.T) {
	doc := sampleDocument()

	screen, err := Render(MenuAdminHome, domain.RoleAdmin, domain.Identity{ID: 1}, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{labelAssistants, labelStudents, labelTasks}, labels(screen))

	screen, err = Render(MenuAssistantHome, domain.RoleAssistant, domain.Identity{ID: 7}, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{labelStudents, labelTasks}, labels(screen))

	screen, err = Render(MenuUserHome, domain.RoleUser, domain.Identity{ID: 10}, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{labelMyTasks, labelMyTests}, labels(screen))
}

func TestUserTasksOnlyShowOwnGroup(t *testing.T) {
	doc := sampleDocument()

	screen, err := Render(MenuUserTasks, domain.RoleUser, domain.Identity{ID: 10}, doc)
	require.NoError(t, err)
	assert.Equal(t, textMyTasks, screen.Text)
	assert.Equal(t, []string{"Homework 1", labelBack}, labels(screen))
	assert.Equal(t, Action{Kind: KindViewTask, Ref: domain.RefOf("Homework 1")}.Encode(), screen.Buttons[0].Action)

	screen, err = Render(MenuUserTests, domain.RoleUser, domain.Identity{ID: 11}, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Quiz", labelBack}, labels(screen))
}

func TestUserTasksEmptyAndUnknownUser(t *testing.T) {
	doc := sampleDocument()
	doc.Tasks = []domain.Task{}

	screen, err := Render(MenuUserTasks, domain.RoleUser, domain.Identity{ID: 10}, doc)
	require.NoError(t, err)
	assert.Equal(t, textNoTasks, screen.Text)

	screen, err = Render(MenuUserTests, domain.RoleUser, domain.Identity{ID: 99}, doc)
	require.NoError(t, err)
	assert.Equal(t, textNotRegistered, screen.Text)
	assert.Empty(t, screen.Buttons)
}

func TestStudentsList(t *testing.T) {
	doc := sampleDocument()

	screen, err := Render(MenuStudents, domain.RoleAssistant, domain.Identity{ID: 7}, doc)
	require.NoError(t, err)
	assert.Equal(t, textStudentsHeader+"ST2210345 Иванов Иван 2\nST3100000 Петров Пётр 3\n", screen.Text)

	screen, err = Render(MenuStudents, domain.RoleAdmin, domain.Identity{ID: 1}, domain.NewDocument())
	require.NoError(t, err)
	assert.Equal(t, textNoStudents, screen.Text)
	assert.Equal(t, []string{labelBack}, labels(screen))
}

func TestStudentsListFitsOneMessage(t *testing.T) {
	doc := domain.NewDocument()
	for i := 0; i < 300; i++ {
		doc.Users = append(doc.Users, domain.User{
			ID:        fmt.Sprint(i + 1),
			Group:     "2",
			StudentID: fmt.Sprintf("ST2%06d", i),
			FIO:       "Константинопольский Константин Константинович",
		})
	}

	screen, err := Render(MenuStudents, domain.RoleAdmin, domain.Identity{ID: 1}, doc)
	require.NoError(t, err)
	assert.LessOrEqual(t, utf8.RuneCountInString(screen.Text), 4096)

	shown := strings.Count(screen.Text, "\n") - 1
	assert.Greater(t, shown, 0)
	assert.Less(t, shown, 300)
	assert.True(t, strings.HasSuffix(screen.Text, fmt.Sprintf(textStudentsOmitted, 300-shown)))
	assert.Equal(t, []string{labelBack}, labels(screen))
}

func TestRemovePickers(t *testing.T) {
	doc := sampleDocument()

	screen, err := Render(MenuRemoveTask, domain.RoleAssistant, domain.Identity{ID: 7}, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Homework 1", "Homework 2", labelTestPrefix + "Quiz", labelBack}, labels(screen))
	assert.Equal(t, Action{Kind: KindRemoveTest, Ref: domain.RefOf("Quiz")}.Encode(), screen.Buttons[2].Action)

	screen, err = Render(MenuRemoveAssistant, domain.RoleAdmin, domain.Identity{ID: 1}, doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Доцент Сидоров С.С. (@helper)", labelBack}, labels(screen))

	empty := domain.NewDocument()
	screen, err = Render(MenuRemoveTask, domain.RoleAdmin, domain.Identity{ID: 1}, empty)
	require.NoError(t, err)
	assert.Equal(t, textNoTasksToRemove, screen.Text)
	screen, err = Render(MenuRemoveAssistant, domain.RoleAdmin, domain.Identity{ID: 1}, empty)
	require.NoError(t, err)
	assert.Equal(t, textNoAssistantsToRemove, screen.Text)
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		role    domain.Role
		want    MenuID
		wantErr bool
	}{
		{name: "admin back", action: Action{Kind: KindBack}, role: domain.RoleAdmin, want: MenuAdminHome},
		{name: "assistant back", action: Action{Kind: KindBack}, role: domain.RoleAssistant, want: MenuAssistantHome},
		{name: "user back", action: Action{Kind: KindBack}, role: domain.RoleUser, want: MenuUserHome},
		{name: "unregistered back", action: Action{Kind: KindBack}, role: domain.RoleNone, wantErr: true},
		{name: "open allowed", action: Action{Kind: KindOpen, Ref: string(MenuTasks)}, role: domain.RoleAssistant, want: MenuTasks},
		{name: "open forbidden", action: Action{Kind: KindOpen, Ref: string(MenuAssistants)}, role: domain.RoleAssistant, wantErr: true},
		{name: "open unknown", action: Action{Kind: KindOpen, Ref: "nowhere"}, role: domain.RoleAdmin, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Dispatch(tt.action, tt.role)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
