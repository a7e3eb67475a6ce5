package handler

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/config"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
)

// AuthClaims 的 Subject 是 Telegram 用户 id，角色不写进令牌，每次请求重新解析
type AuthClaims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// NewAccessToken 为 Telegram 用户签发管理 API 的访问令牌
func NewAccessToken(cfg *config.Config, identity domain.Identity) (string, error) {
	now := time.Now()
	expiration := now.Add(time.Duration(cfg.JWT.Expiration) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Username: domain.NormalizeHandle(identity.Username),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   identity.IDString(),
		},
	})

	return token.SignedString([]byte(cfg.JWT.Secret))
}
