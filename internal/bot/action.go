package bot

import (
	"errors"
	"strings"
)

// ActionKind 是按钮回调数据的前缀，决定 Ref 的含义
type ActionKind string

const (
	KindOpen            ActionKind = "open" // Ref 为菜单
	KindBack            ActionKind = "back"
	KindFlow            ActionKind = "flow" // Ref 为会话流程
	KindRemoveAssistant ActionKind = "rmas"
	KindRemoveTask      ActionKind = "rmtk"
	KindRemoveTest      ActionKind = "rmts"
	KindViewTask        ActionKind = "vwtk"
	KindViewTest        ActionKind = "vwts"
)

const actionSeparator = ":"

// Telegram 限制 callback_data 最多 64 字节
const maxActionLength = 64

var ErrInvalidAction = errors.New("无法识别的按钮数据")

// Action 是按钮回调数据的结构化形式，编码为 <kind>:<ref>
// 实体的 Ref 使用 domain.RefOf 生成的定长摘要，标题中的任何字符都不会影响解析
type Action struct {
	Kind ActionKind
	Ref  string
}

func (a Action) Encode() string {
	return string(a.Kind) + actionSeparator + a.Ref
}

func DecodeAction(data string) (Action, error) {
	if len(data) > maxActionLength {
		return Action{}, ErrInvalidAction
	}

	kind, ref, found := strings.Cut(data, actionSeparator)
	if !found {
		return Action{}, ErrInvalidAction
	}

	action := Action{Kind: ActionKind(kind), Ref: ref}
	switch action.Kind {
	case KindBack:
		return action, nil
	case KindOpen, KindFlow, KindRemoveAssistant, KindRemoveTask, KindRemoveTest, KindViewTask, KindViewTest:
		if ref == "" {
			return Action{}, ErrInvalidAction
		}
		return action, nil
	default:
		return Action{}, ErrInvalidAction
	}
}

func openAction(id MenuID) string {
	return Action{Kind: KindOpen, Ref: string(id)}.Encode()
}

func backAction() string {
	return Action{Kind: KindBack}.Encode()
}
