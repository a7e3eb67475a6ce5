package utils

import (
	"errors"
	"strings"
	"unicode"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

// QuestionMarker 开头的行是题目，其余行是上一道题的选项
const QuestionMarker = "Вопрос"

var ErrNoGroupDigit = errors.New("学号中没有数字，无法确定小组")

// DeriveGroup 从左到右找到学号中的第一个数字作为小组号
func DeriveGroup(studentID string) (string, error) {
	for _, r := range studentID {
		if unicode.IsDigit(r) {
			return string(r), nil
		}
	}
	return "", ErrNoGroupDigit
}

// ParseQuestions 单次从左到右扫描
// 开头的空行被跳过，第一个非空行总是题目；之后到下一个题目行之前的行都是选项（包括空行，所以末尾空行会变成最后一题的空选项）
func ParseQuestions(text string) domain.QuestionSet {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	questions := domain.QuestionSet{}
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	for i < len(lines) {
		question := lines[i]
		answers := []string{}
		i++
		for i < len(lines) && !strings.HasPrefix(lines[i], QuestionMarker) {
			answers = append(answers, lines[i])
			i++
		}
		questions = questions.With(question, answers)
	}

	return questions
}
