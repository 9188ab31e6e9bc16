package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lvdashuaibi/littlepoll/config"
	"github.com/lvdashuaibi/littlepoll/internal/api"
	intkafka "github.com/lvdashuaibi/littlepoll/internal/kafka"
	"github.com/lvdashuaibi/littlepoll/internal/lock"
	"github.com/lvdashuaibi/littlepoll/internal/logger"
	"github.com/lvdashuaibi/littlepoll/internal/repository"
	"github.com/lvdashuaibi/littlepoll/internal/service"
	"github.com/lvdashuaibi/littlepoll/migrations"
)

const (
	MigrateLockName   = "littlepoll:migrate:lock"
	LockRetryInterval = 500 * time.Millisecond
)

var (
	configPath = flag.String("config", "config/config.yaml", "配置文件路径")
	instanceID = flag.Int("instance", 1, "实例ID，用于区分多个实例")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env).With(slog.Int("instance", *instanceID))

	if err := run(cfg, log); err != nil {
		log.Error("服务异常退出", logger.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewSQLRepository(cfg.Database)
	if err != nil {
		return fmt.Errorf("初始化数据库仓库失败: %w", err)
	}
	defer repo.Close()
	log.Info("数据库仓库初始化成功", slog.String("driver", cfg.Database.Driver))

	if cfg.Database.AutoMigrate {
		if err := migrate(ctx, cfg, log); err != nil {
			return err
		}
	}

	var opts []service.Option

	if cfg.Redis.Enabled {
		redisRepo, err := repository.NewRedisRepository(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("初始化Redis仓库失败: %w", err)
		}
		defer redisRepo.Close()
		opts = append(opts, service.WithResultsCache(redisRepo))
		log.Info("Redis结果缓存已启用")
	}

	if cfg.Kafka.Enabled {
		producer, err := intkafka.NewProducer(ctx, cfg.Kafka, log)
		if err != nil {
			return fmt.Errorf("初始化Kafka生产者失败: %w", err)
		}
		defer producer.Close()
		opts = append(opts, service.WithEventPublisher(producer))
	}

	svc := service.NewPollService(log, repo, repo, repo, cfg.Polls.IndexLimit, opts...)

	if cfg.Kafka.Enabled {
		consumer, err := intkafka.NewConsumer(ctx, cfg.Kafka, log)
		if err != nil {
			return fmt.Errorf("初始化Kafka消费者失败: %w", err)
		}
		consumer.StartConsuming(ctx, svc.ProcessVoteEvent)
		defer consumer.Stop()
	}

	// 多实例时端口递增
	serverCfg := *cfg
	serverCfg.Server.Port = cfg.Server.Port + *instanceID - 1

	srv, err := api.NewServer(&serverCfg, svc, repo, log)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	log.Info("littlepoll 已启动", slog.String("url", fmt.Sprintf("http://localhost:%d/polls/", serverCfg.Server.Port)))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP服务启动失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("正在关闭服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// migrate 多实例同时启动时只有持锁的实例执行迁移，其余实例等待后再执行（此时无变更）
func migrate(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	dl, err := newLock(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("初始化分布式锁失败: %w", err)
	}
	defer dl.Close()

	lockCtx, cancel := context.WithTimeout(ctx, cfg.Lock.Timeout)
	defer cancel()

	err = lock.WithLock(lockCtx, dl, MigrateLockName, cfg.Lock.Timeout, LockRetryInterval, func(context.Context) error {
		log.Info("获取迁移锁成功，开始执行数据库迁移")
		return migrations.Up(cfg.Database.Driver, cfg.Database.Master)
	})
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return fmt.Errorf("等待迁移锁超时: %w", err)
		}
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	log.Info("数据库迁移完成")
	return nil
}

func newLock(ctx context.Context, cfg *config.Config, log *slog.Logger) (lock.Lock, error) {
	switch cfg.Lock.Backend {
	case "etcd":
		return lock.NewETCDLock(cfg.ETCD)
	case "redis":
		return lock.NewRedLock(ctx, cfg.Redis, cfg.Lock, log)
	default:
		return lock.NewLocalLock(), nil
	}
}
