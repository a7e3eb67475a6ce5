package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/config"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/domain"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/handler"
)

// 为管理员或助教签发访问 /api 的令牌，角色在每次请求时重新解析
func main() {
	var id int64
	var username string

	flag.Int64Var(&id, "id", 0, "Telegram 用户 id")
	flag.StringVar(&username, "username", "", "Telegram 用户名（助教尚未绑定 id 时需要）")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", "error", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		logger.Error("未配置 JWT_SECRET")
		os.Exit(1)
	}
	if id == 0 {
		logger.Error("请通过 -id 指定用户")
		os.Exit(1)
	}

	token, err := handler.NewAccessToken(cfg, domain.Identity{ID: id, Username: username})
	if err != nil {
		logger.Error("无法签发令牌", "error", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
