package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

type Task struct {
	Title    string   `json:"title"`
	FilePath string   `json:"file_path"`
	Groups   []string `json:"groups"`
}

type Test struct {
	Title    string         `json:"title"`
	FilePath string         `json:"file_path"`
	Groups   []string       `json:"groups"`
	Results  map[string]any `json:"results"`
}

func (t *Task) VisibleTo(group string) bool {
	return group != "" && slices.Contains(t.Groups, group)
}

func (t *Test) VisibleTo(group string) bool {
	return group != "" && slices.Contains(t.Groups, group)
}

type Question struct {
	Text    string
	Answers []string
}

// QuestionSet 按输入顺序保存题目，序列化为 {"题目": ["答案", ...]} 形式的 JSON 对象
type QuestionSet []Question

func (qs QuestionSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, q := range qs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(q.Text)
		if err != nil {
			return nil, err
		}
		answers := q.Answers
		if answers == nil {
			answers = []string{}
		}
		value, err := json.Marshal(answers)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (qs *QuestionSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("题目集合必须是 JSON 对象")
	}

	result := QuestionSet{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		text, ok := tok.(string)
		if !ok {
			return fmt.Errorf("无效的题目键 %v", tok)
		}
		answers := []string{}
		if err := dec.Decode(&answers); err != nil {
			return fmt.Errorf("题目 %q 的答案无效: %w", text, err)
		}
		result = result.With(text, answers)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*qs = result
	return nil
}

// With 追加一道题，同名题目覆盖原有答案但保留原位置
func (qs QuestionSet) With(text string, answers []string) QuestionSet {
	for i := range qs {
		if qs[i].Text == text {
			qs[i].Answers = answers
			return qs
		}
	}
	return append(qs, Question{Text: text, Answers: answers})
}
