package access

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/repository"
)

var ErrNotRegistered = errors.New("用户未注册")

// Resolver 每次调用都重新读取文档来确定角色，不缓存，撤销权限在下一条消息时立即生效
type Resolver struct {
	repo    *repository.Repository
	adminID int64
}

func NewResolver(repo *repository.Repository, adminID int64) *Resolver {
	return &Resolver{repo: repo, adminID: adminID}
}

// Resolve 依次查找 users、assistants，最后比较管理员 id
func (r *Resolver) Resolve(identity domain.Identity) (domain.Role, error) {
	doc, err := r.repo.Load()
	if err != nil {
		return domain.RoleNone, err
	}

	if doc.FindUser(identity) != nil {
		return domain.RoleUser, nil
	}

	if assistant := doc.FindAssistant(identity); assistant != nil {
		if assistant.ID == "" && identity.ID != 0 {
			// 助教第一次通过 handle 匹配，补上数字 id，失败不影响本次判定
			if err := r.repo.BindAssistantID(identity); err != nil {
				slog.Warn("无法绑定助教 id", "username", identity.Username, "error", err)
			}
		}
		return domain.RoleAssistant, nil
	}

	if identity.ID == r.adminID {
		return domain.RoleAdmin, nil
	}

	return domain.RoleNone, ErrNotRegistered
}

// Authorize 重新解析角色并检查是否在允许的角色列表中
func (r *Resolver) Authorize(identity domain.Identity, allowed ...domain.Role) (domain.Role, bool, error) {
	role, err := r.Resolve(identity)
	if err != nil {
		if errors.Is(err, ErrNotRegistered) {
			return domain.RoleNone, false, nil
		}
		return domain.RoleNone, false, err
	}

	return role, slices.Contains(allowed, role), nil
}
