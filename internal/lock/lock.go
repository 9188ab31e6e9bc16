package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotAcquired 在截止时间前未能获得锁
var ErrNotAcquired = errors.New("lock not acquired")

// Lock 分布式锁接口
type Lock interface {
	// AcquireLock 获取分布式锁，ttl 为锁的有效期
	// 返回值：bool表示是否成功获取锁，error表示获取过程中的错误
	AcquireLock(ctx context.Context, lockName string, ttl time.Duration) (bool, error)

	// ReleaseLock 释放分布式锁
	ReleaseLock(ctx context.Context, lockName string) error

	// Close 释放所有持有的锁并关闭客户端
	Close() error
}

// WithLock 持有锁执行 fn；锁被其他实例持有时每隔 retryInterval 重试，直到 ctx 结束
func WithLock(ctx context.Context, l Lock, lockName string, ttl, retryInterval time.Duration, fn func(ctx context.Context) error) error {
	const op = "lock.WithLock"

	for {
		ok, err := l.AcquireLock(ctx, lockName, ttl)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %s: %w", op, lockName, ErrNotAcquired)
		case <-time.After(retryInterval):
		}
	}

	defer l.ReleaseLock(context.WithoutCancel(ctx), lockName)
	return fn(ctx)
}
