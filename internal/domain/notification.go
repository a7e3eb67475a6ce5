package domain

import "time"

const (
	NotificationStudentRegistered = "student_registered"
	NotificationContentPublished  = "content_published"
)

const (
	ContentKindTask = "task"
	ContentKindTest = "test"
)

type Notification struct {
	Type       string    `json:"type"`
	Data       any       `json:"data"`
	OccurredAt time.Time `json:"occurredAt"`
}

type StudentRegisteredData struct {
	UserID    string `json:"userID"`
	Handle    string `json:"handle"`
	StudentID string `json:"studentID"`
	FIO       string `json:"fio"`
	Group     string `json:"group"`
}

type ContentPublishedData struct {
	Kind   string   `json:"kind"`
	Title  string   `json:"title"`
	Groups []string `json:"groups"`
}
