package domain

type Button struct {
	Label  string
	Action string
}

// Screen 是一次渲染的结果，编辑原消息和发送新消息使用同一个 Screen
type Screen struct {
	Text    string
	Buttons []Button
}

// MessageRef 指向一条已发送的消息
type MessageRef struct {
	ChatID    int64
	MessageID int
}

type Click struct {
	ID     string
	Data   string
	From   Identity
	Origin MessageRef
}
