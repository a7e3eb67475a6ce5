package domain

import (
	"strconv"
	"strings"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
	// RoleNone 表示未注册
	RoleNone Role = ""
)

// Identity 是 Telegram 侧的用户身份，Username 不带 @ 且可能为空
type Identity struct {
	ID       int64
	Username string
}

func (i Identity) IDString() string {
	return strconv.FormatInt(i.ID, 10)
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	Group     string `json:"group"`
	StudentID string `json:"student_id"`
	FIO       string `json:"fio"`
}

type Assistant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Position string `json:"position"`
	FIO      string `json:"fio"`
}

// NormalizeHandle 去掉前导 @ 和首尾空白
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

// HandleKey 是 handle 的比较键，Telegram 的用户名不区分大小写
func HandleKey(handle string) string {
	return strings.ToLower(NormalizeHandle(handle))
}

// Matches 按 id 或 handle 匹配，空 handle 不参与匹配
func (u *User) Matches(identity Identity) bool {
	return matchIdentity(u.ID, u.Name, identity)
}

func (a *Assistant) Matches(identity Identity) bool {
	return matchIdentity(a.ID, a.Name, identity)
}

func matchIdentity(id, name string, identity Identity) bool {
	if id != "" && id == identity.IDString() {
		return true
	}
	handle := NormalizeHandle(identity.Username)
	return handle != "" && strings.EqualFold(NormalizeHandle(name), handle)
}
