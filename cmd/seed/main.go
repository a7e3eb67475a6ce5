package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/sysu-ecnc-dev/classroom-bot/internal/config"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/repository"
	"github.com/sysu-ecnc-dev/classroom-bot/internal/seed"
)

func main() {
	var op int
	var n int
	var roster string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机数据, 2: 从 CSV 导入学生名单)")
	flag.IntVar(&n, "n", 8, "随机学生的数量")
	flag.StringVar(&roster, "roster", "", "学生名单 CSV 文件路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", "error", err)
		os.Exit(1)
	}

	// 创建 repository
	repo := repository.NewRepository(cfg)

	// 执行操作
	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		if n <= 0 {
			logger.Error("请输入合法的学生数量")
			return
		}
		if err := seed.SeedRandomData(repo, n); err != nil {
			logger.Error("无法插入随机数据", "error", err)
			return
		}
		logger.Info("已插入随机数据", "n", n)
	case 2:
		if roster == "" {
			logger.Error("请通过 -roster 指定名单文件")
			return
		}
		f, err := os.Open(roster)
		if err != nil {
			logger.Error("无法打开名单文件", "error", err)
			return
		}
		defer f.Close()

		imported, err := seed.ImportRoster(repo, f)
		if err != nil {
			logger.Error("导入名单失败", "imported", imported, "error", err)
			return
		}
		logger.Info("已导入学生名单", "imported", imported)
	default:
		logger.Error("不支持的操作", "op", op)
	}
}
