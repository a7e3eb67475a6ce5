package utils

import (
	"fmt"
	"math/rand"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

var commonSurnames = []string{
	"Иванов", "Смирнов", "Кузнецов", "Попов", "Васильев", "Петров", "Соколов", "Михайлов",
	"Новиков", "Фёдоров", "Морозов", "Волков", "Алексеев", "Лебедев", "Семёнов", "Егоров",
}
var commonFirstNames = []string{
	"Александр", "Дмитрий", "Максим", "Сергей", "Андрей", "Алексей", "Артём", "Илья",
	"Кирилл", "Михаил", "Никита", "Матвей", "Роман", "Егор", "Арсений", "Иван",
}
var commonPatronymics = []string{
	"Александрович", "Дмитриевич", "Сергеевич", "Андреевич", "Алексеевич", "Михайлович",
	"Иванович", "Петрович", "Николаевич", "Викторович",
}

var positions = []string{"Ассистент", "Старший преподаватель", "Доцент", "Лаборант"}

func GenerateRandomFIO() string {
	return fmt.Sprintf("%s %s %s",
		commonSurnames[rand.Intn(len(commonSurnames))],
		commonFirstNames[rand.Intn(len(commonFirstNames))],
		commonPatronymics[rand.Intn(len(commonPatronymics))],
	)
}

var digits = "0123456789"
var letters = []rune("abcdefghijklmnopqrstuvwxyz")

func GenerateRandomID(letterLength int, digitLength int) string {
	randomID := make([]rune, letterLength+digitLength)
	for i := range randomID {
		if i < letterLength {
			randomID[i] = letters[rand.Intn(len(letters))]
		} else {
			randomID[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(randomID)
}

// GenerateRandomStudentID 生成形如 ST2210345 的学号，第一位数字决定小组
func GenerateRandomStudentID() string {
	return fmt.Sprintf("ST%d%06d", rand.Intn(9)+1, rand.Intn(1000000))
}

// GenerateRandomUser 生成的学生使用负数 id，不会和真实的 Telegram 用户冲突
func GenerateRandomUser() *domain.User {
	studentID := GenerateRandomStudentID()
	group, _ := DeriveGroup(studentID)

	return &domain.User{
		ID:        fmt.Sprintf("-%d", rand.Intn(1000000)+1),
		Name:      "student_" + GenerateRandomID(4, 3),
		Role:      domain.RoleUser,
		Group:     group,
		StudentID: studentID,
		FIO:       GenerateRandomFIO(),
	}
}

func GenerateRandomAssistant() *domain.Assistant {
	return &domain.Assistant{
		Name:     "assistant_" + GenerateRandomID(4, 3),
		Role:     domain.RoleAssistant,
		Position: positions[rand.Intn(len(positions))],
		FIO:      GenerateRandomFIO(),
	}
}

// GenerateRandomGroups 使用 Fisher-Yates 洗牌算法生成 1~3 个不重复的小组
func GenerateRandomGroups() []string {
	groups := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}

	for i := len(groups) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		groups[i], groups[j] = groups[j], groups[i]
	}

	n := rand.Intn(3) + 1
	return groups[:n]
}

func GenerateRandomAssignment() (title string, body string) {
	title = "Задание " + GenerateRandomID(0, 3)
	body = fmt.Sprintf("Прочитайте главу %d и решите задачи %d-%d.", rand.Intn(12)+1, rand.Intn(10)+1, rand.Intn(10)+11)
	return title, body
}

func GenerateRandomQuestionSet() (title string, questions domain.QuestionSet) {
	title = "Тест " + GenerateRandomID(0, 3)
	n := rand.Intn(4) + 2
	for i := 1; i <= n; i++ {
		answers := make([]string, rand.Intn(3)+2)
		for j := range answers {
			answers[j] = fmt.Sprintf("Ответ %d", j+1)
		}
		questions = questions.With(fmt.Sprintf("%s %d", QuestionMarker, i), answers)
	}
	return title, questions
}
