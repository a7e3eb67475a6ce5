package session

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore 创建带过期时间的内存会话表，每隔 cleanupInterval 清理一次过期会话
func NewMemoryStore(ttl, cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (s *MemoryStore) Get(_ context.Context, userID int64) (*domain.Session, error) {
	if x, found := s.cache.Get(key(userID)); found {
		// 返回副本，调用方修改后必须显式 Save
		return clone(x.(*domain.Session)), nil
	}
	return nil, nil
}

func (s *MemoryStore) Save(_ context.Context, session *domain.Session) error {
	session.UpdatedAt = time.Now()
	s.cache.Set(key(session.UserID), clone(session), cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.cache.Delete(key(userID))
	return nil
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func clone(s *domain.Session) *domain.Session {
	copied := *s
	copied.Fields = make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		copied.Fields[k] = v
	}
	return &copied
}
