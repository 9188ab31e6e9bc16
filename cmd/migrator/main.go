package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/lvdashuaibi/littlepoll/config"
	"github.com/lvdashuaibi/littlepoll/internal/logger"
	"github.com/lvdashuaibi/littlepoll/migrations"
)

func main() {
	var (
		action     string
		steps      int
		configPath string
	)

	flag.StringVar(&action, "action", "up", "迁移操作: up, down, force, version")
	flag.IntVar(&steps, "steps", 0, "步数（up/down），force 时为目标版本")
	flag.StringVar(&configPath, "config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)

	m, err := migrations.New(cfg.Database.Driver, cfg.Database.Master)
	if err != nil {
		log.Error("初始化迁移失败", logger.Err(err))
		os.Exit(1)
	}
	defer m.Close()

	switch action {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "force":
		err = m.Force(steps)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.Error("读取版本失败", logger.Err(verr))
			os.Exit(1)
		}
		fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)
		return
	default:
		log.Error("未知的迁移操作", "action", action)
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error("迁移失败", "action", action, logger.Err(err))
		os.Exit(1)
	}

	log.Info("迁移执行成功", "action", action)
}
