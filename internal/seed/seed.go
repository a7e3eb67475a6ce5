package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/repository"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/utils"
)

// ImportRoster 从 CSV 导入学生名单，列依次为：学号,ФИО,handle,telegram id（最后一列可省略）
// 第一行是表头；无法确定小组或已存在的学生会被跳过
func ImportRoster(r *repository.Repository, src io.Reader) (int, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// 跳过表头
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}

	imported := 0
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("第 %d 行格式错误: %w", line, err)
		}
		if len(record) < 3 {
			slog.Warn("列数不足，跳过", "line", line)
			continue
		}

		studentID := strings.TrimSpace(record[0])
		group, err := utils.DeriveGroup(studentID)
		if err != nil {
			slog.Warn("无法确定小组，跳过", "line", line, "student_id", studentID)
			continue
		}

		user := &domain.User{
			Name:      domain.NormalizeHandle(record[2]),
			Group:     group,
			StudentID: studentID,
			FIO:       strings.TrimSpace(record[1]),
		}
		if len(record) > 3 {
			user.ID = strings.TrimSpace(record[3])
		}

		if err := r.CreateUser(user); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				slog.Warn("学生已存在，跳过", "line", line, "student_id", studentID)
				continue
			}
			return imported, err
		}
		imported++
	}

	return imported, nil
}

// SeedRandomData 插入 n 个随机学生、n/4 个助教以及若干作业和测试
func SeedRandomData(r *repository.Repository, n int) error {
	for i := 0; i < n; i++ {
		if err := r.CreateUser(utils.GenerateRandomUser()); err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
			return err
		}
	}

	for i := 0; i < n/4+1; i++ {
		if err := r.CreateAssistant(utils.GenerateRandomAssistant()); err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
			return err
		}
	}

	for i := 0; i < n/2+1; i++ {
		title, body := utils.GenerateRandomAssignment()
		task, err := r.CreateTask(title, body)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				continue
			}
			return err
		}
		if _, _, err := r.SetTaskGroups(domain.RefOf(task.Title), utils.GenerateRandomGroups()); err != nil {
			return err
		}

		title, questions := utils.GenerateRandomQuestionSet()
		test, err := r.CreateTest(title, questions)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				continue
			}
			return err
		}
		if _, _, err := r.SetTestGroups(domain.RefOf(test.Title), utils.GenerateRandomGroups()); err != nil {
			return err
		}
	}

	return nil
}
