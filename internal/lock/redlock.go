package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/lvdashuaibi/littlepoll/config"
	"github.com/lvdashuaibi/littlepoll/internal/logger"
)

// 只删除自己持有的锁
var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// 只为自己持有的锁续期
var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// RedLock 多个独立Redis节点上的Redlock实现。持有期间每 ttl/3 续期一次
type RedLock struct {
	clients   []*redis.Client
	addresses []string
	log       *slog.Logger
	retries   int

	mu    sync.Mutex
	locks map[string]*heldLock
}

type heldLock struct {
	token  string
	cancel context.CancelFunc // 停止续期
}

// NewRedLock 创建新的分布式锁客户端
func NewRedLock(ctx context.Context, redisCfg config.RedisConfig, lockCfg config.LockConfig, log *slog.Logger) (*RedLock, error) {
	const op = "lock.NewRedLock"

	if len(redisCfg.LockAddresses) == 0 {
		return nil, fmt.Errorf("%s: redis.lock_addresses 为空", op)
	}

	var clients []*redis.Client
	for _, addr := range redisCfg.LockAddresses {
		client := redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     redisCfg.Password,
			DB:           redisCfg.DB,
			PoolSize:     redisCfg.PoolSize,
			MaxRetries:   redisCfg.MaxRetries,
			DialTimeout:  redisCfg.Timeout,
			ReadTimeout:  redisCfg.Timeout,
			WriteTimeout: redisCfg.Timeout,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			for _, c := range clients {
				c.Close()
			}
			return nil, fmt.Errorf("%s: Redis锁节点 %s 连接测试失败: %w", op, addr, err)
		}

		clients = append(clients, client)
	}

	retries := lockCfg.RetryCount
	if retries < 1 {
		retries = 1
	}

	return &RedLock{
		clients:   clients,
		addresses: redisCfg.LockAddresses,
		log:       log.With(slog.String("component", "redlock")),
		retries:   retries,
		locks:     make(map[string]*heldLock),
	}, nil
}

func (r *RedLock) quorum() int {
	return len(r.clients)/2 + 1
}

// AcquireLock 在多数节点上 SETNX 成功且未超过有效期时视为获得锁
func (r *RedLock) AcquireLock(ctx context.Context, lockName string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.locks[lockName]; ok {
		return false, fmt.Errorf("lock.RedLock.AcquireLock: 锁 %s 已被当前实例持有", lockName)
	}

	token := uuid.NewString()

	for attempt := 0; attempt < r.retries; attempt++ {
		success := 0
		start := time.Now()

		for i, client := range r.clients {
			ok, err := client.SetNX(ctx, lockName, token, ttl).Result()
			if err != nil {
				r.log.Warn("在节点获取锁失败",
					slog.String("node", r.addresses[i]),
					slog.String("lock", lockName),
					logger.Err(err))
				continue
			}
			if ok {
				success++
			}
		}

		if success >= r.quorum() && ttl-time.Since(start) > 0 {
			extendCtx, cancel := context.WithCancel(context.Background())
			go r.extend(extendCtx, lockName, token, ttl)

			r.locks[lockName] = &heldLock{token: token, cancel: cancel}
			r.log.Debug("获取锁成功", slog.String("lock", lockName))
			return true, nil
		}

		r.unlockAll(context.WithoutCancel(ctx), lockName, token)

		select {
		case <-ctx.Done():
			return false, nil
		case <-time.After(100 * time.Millisecond):
		}
	}

	return false, nil
}

// ReleaseLock 释放分布式锁
func (r *RedLock) ReleaseLock(ctx context.Context, lockName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	held, ok := r.locks[lockName]
	if !ok {
		return fmt.Errorf("lock.RedLock.ReleaseLock: 锁 %s 不存在或未持有", lockName)
	}

	held.cancel()
	r.unlockAll(ctx, lockName, held.token)
	delete(r.locks, lockName)
	return nil
}

// extend 定期在各节点续期，续期成功的节点不足多数时停止并记录
func (r *RedLock) extend(ctx context.Context, lockName, token string, ttl time.Duration) {
	interval := ttl / 3
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		extended := 0
		for i, client := range r.clients {
			n, err := extendScript.Run(ctx, client, []string{lockName}, token, ttl.Milliseconds()).Int64()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.log.Warn("在节点续期锁失败",
					slog.String("node", r.addresses[i]),
					slog.String("lock", lockName),
					logger.Err(err))
				continue
			}
			if n == 1 {
				extended++
			}
		}

		if extended < r.quorum() {
			if ctx.Err() == nil {
				r.log.Error("锁续期失败，锁可能已丢失", slog.String("lock", lockName))
			}
			return
		}
	}
}

func (r *RedLock) unlockAll(ctx context.Context, lockName, token string) {
	for i, client := range r.clients {
		if err := unlockScript.Run(ctx, client, []string{lockName}, token).Err(); err != nil {
			r.log.Warn("在节点释放锁失败",
				slog.String("node", r.addresses[i]),
				slog.String("lock", lockName),
				logger.Err(err))
		}
	}
}

// Close 释放所有持有的锁并关闭客户端
func (r *RedLock) Close() error {
	r.mu.Lock()
	for name, held := range r.locks {
		held.cancel()
		r.unlockAll(context.Background(), name, held.token)
	}
	r.locks = make(map[string]*heldLock)
	r.mu.Unlock()

	for _, client := range r.clients {
		if err := client.Close(); err != nil {
			r.log.Warn("关闭Redis客户端失败", logger.Err(err))
		}
	}
	return nil
}
