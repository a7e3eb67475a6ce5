package domain

import "time"

// Flow 对应原先保存在会话中的标记名
type Flow string

const (
	FlowNone          Flow = ""
	FlowRegistration  Flow = "registration_step"
	FlowAddAssistant  Flow = "adding_assistant"
	FlowAddTest       Flow = "adding_test"
	FlowAddAssignment Flow = "adding_assignment"
)

// Session 是单个用户的临时会话状态，不写入文档
type Session struct {
	UserID    int64             `json:"userID"`
	Flow      Flow              `json:"flow"`
	Step      string            `json:"step"`
	Fields    map[string]string `json:"fields"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func NewSession(userID int64, flow Flow, step string) *Session {
	return &Session{
		UserID:    userID,
		Flow:      flow,
		Step:      step,
		Fields:    make(map[string]string),
		UpdatedAt: time.Now(),
	}
}
