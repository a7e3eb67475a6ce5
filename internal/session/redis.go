package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 每次保存都会重置过期时间，即空闲超过 ttl 的流程会被丢弃
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	data, err := s.client.Get(ctx, redisKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	session := &domain.Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("会话数据格式错误: %w", err)
	}
	if session.Fields == nil {
		session.Fields = make(map[string]string)
	}

	return session, nil
}

func (s *RedisStore) Save(ctx context.Context, session *domain.Session) error {
	session.UpdatedAt = time.Now()

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, redisKey(session.UserID), data, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, redisKey(userID)).Err()
}

func redisKey(userID int64) string {
	return fmt.Sprintf("session_%d", userID)
}
