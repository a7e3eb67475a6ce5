package repository

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

func (r *Repository) GetAllTasks() ([]domain.Task, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}

	return doc.Tasks, nil
}

func (r *Repository) GetAllTests() ([]domain.Test, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}

	return doc.Tests, nil
}

// CreateTask 先写作业内容再写文档记录，写内容失败时文档保持不变
func (r *Repository) CreateTask(title, body string) (*domain.Task, error) {
	var task domain.Task

	err := r.Update(func(doc *domain.Document) error {
		if doc.FindTask(title) != nil {
			return ErrAlreadyExists
		}

		p, err := r.WriteAssignment(title, body)
		if err != nil {
			return err
		}

		task = domain.Task{Title: title, FilePath: p, Groups: []string{}}
		doc.Tasks = append(doc.Tasks, task)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *Repository) CreateTest(title string, questions domain.QuestionSet) (*domain.Test, error) {
	var test domain.Test

	err := r.Update(func(doc *domain.Document) error {
		if doc.FindTest(title) != nil {
			return ErrAlreadyExists
		}

		p, err := r.WriteTestDefinition(title, questions)
		if err != nil {
			return err
		}

		test = domain.Test{Title: title, FilePath: p, Groups: []string{}, Results: map[string]any{}}
		doc.Tests = append(doc.Tests, test)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &test, nil
}

// DeleteTaskByRef 先删除文档记录再删除内容文件，内容文件删除失败只记录日志
func (r *Repository) DeleteTaskByRef(ref string) (*domain.Task, error) {
	var deleted domain.Task

	err := r.Update(func(doc *domain.Document) error {
		for i := range doc.Tasks {
			if domain.RefOf(doc.Tasks[i].Title) == ref {
				deleted = doc.Tasks[i]
				doc.Tasks = append(doc.Tasks[:i], doc.Tasks[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}

	if err := r.removeBlob(deleted.FilePath); err != nil {
		slog.Warn("无法删除作业内容文件", "path", deleted.FilePath, "error", err)
	}

	return &deleted, nil
}

func (r *Repository) DeleteTestByRef(ref string) (*domain.Test, error) {
	var deleted domain.Test

	err := r.Update(func(doc *domain.Document) error {
		for i := range doc.Tests {
			if domain.RefOf(doc.Tests[i].Title) == ref {
				deleted = doc.Tests[i]
				doc.Tests = append(doc.Tests[:i], doc.Tests[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}

	if err := r.removeBlob(deleted.FilePath); err != nil {
		slog.Warn("无法删除测试题目文件", "path", deleted.FilePath, "error", err)
	}

	return &deleted, nil
}

// SetTaskGroups 覆盖作业的可见小组，返回更新后的作业和新增的小组
func (r *Repository) SetTaskGroups(ref string, groups []string) (*domain.Task, []string, error) {
	var (
		updated domain.Task
		added   []string
	)

	groups = cleanGroups(groups)
	err := r.Update(func(doc *domain.Document) error {
		task := doc.FindTaskByRef(ref)
		if task == nil {
			return ErrNotFound
		}
		added = newGroups(task.Groups, groups)
		task.Groups = groups
		updated = *task
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &updated, added, nil
}

func (r *Repository) SetTestGroups(ref string, groups []string) (*domain.Test, []string, error) {
	var (
		updated domain.Test
		added   []string
	)

	groups = cleanGroups(groups)
	err := r.Update(func(doc *domain.Document) error {
		test := doc.FindTestByRef(ref)
		if test == nil {
			return ErrNotFound
		}
		added = newGroups(test.Groups, groups)
		test.Groups = groups
		updated = *test
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &updated, added, nil
}

func cleanGroups(groups []string) []string {
	cleaned := make([]string, 0, len(groups))
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g == "" || slices.Contains(cleaned, g) {
			continue
		}
		cleaned = append(cleaned, g)
	}
	return cleaned
}

func newGroups(before, after []string) []string {
	added := make([]string, 0)
	for _, g := range after {
		if !slices.Contains(before, g) {
			added = append(added, g)
		}
	}
	return added
}
