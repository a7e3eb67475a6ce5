package session

import (
	"context"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

// Store 按用户保存会话，过期的会话视为不存在
type Store interface {
	// Get 在会话不存在时返回 nil, nil
	Get(ctx context.Context, userID int64) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, userID int64) error
}
