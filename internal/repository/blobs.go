package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

const (
	tasksDir = "tasks"
	testsDir = "tests"
)

// AssignmentPath 和 TestPath 是写入文档中的相对路径，只由标题决定
func AssignmentPath(title string) string {
	return path.Join(tasksDir, title+".txt")
}

func TestPath(title string) string {
	return path.Join(testsDir, title+".json")
}

func (r *Repository) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.dataDir, filepath.FromSlash(p))
}

func (r *Repository) WriteAssignment(title, body string) (string, error) {
	p := AssignmentPath(title)
	if err := writeFileAtomic(r.resolve(p), []byte(body)); err != nil {
		return "", fmt.Errorf("写入作业内容失败: %w", err)
	}

	return p, nil
}

func (r *Repository) ReadAssignment(p string) (string, error) {
	data, err := os.ReadFile(r.resolve(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("读取作业内容失败: %w", err)
	}

	return string(data), nil
}

func (r *Repository) WriteTestDefinition(title string, questions domain.QuestionSet) (string, error) {
	data, err := json.MarshalIndent(questions, "", "    ")
	if err != nil {
		return "", fmt.Errorf("序列化测试题目失败: %w", err)
	}

	p := TestPath(title)
	if err := writeFileAtomic(r.resolve(p), data); err != nil {
		return "", fmt.Errorf("写入测试题目失败: %w", err)
	}

	return p, nil
}

func (r *Repository) ReadTestDefinition(p string) (domain.QuestionSet, error) {
	data, err := os.ReadFile(r.resolve(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("读取测试题目失败: %w", err)
	}

	questions := domain.QuestionSet{}
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("测试题目格式错误: %w", err)
	}

	return questions, nil
}

func (r *Repository) removeBlob(p string) error {
	if err := os.Remove(r.resolve(p)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
