package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/etcd/api/v3/v3rpc/rpctypes"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/lvdashuaibi/littlepoll/config"
)

// EtcdLock 基于租约的etcd分布式锁
type EtcdLock struct {
	client *clientv3.Client
	mu     sync.Mutex
	locks  map[string]*lockEntry
}

type lockEntry struct {
	leaseID clientv3.LeaseID
	key     string
	cancel  context.CancelFunc // 停止自动续约
}

func NewETCDLock(cfg config.ETCDConfig) (*EtcdLock, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("lock.NewETCDLock: 创建etcd客户端失败: %w", err)
	}

	return &EtcdLock{
		client: cli,
		locks:  make(map[string]*lockEntry),
	}, nil
}

func lockKey(lockName string) string {
	return "/locks/" + lockName
}

func ttlSeconds(ttl time.Duration) int64 {
	s := int64(ttl / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}

func (el *EtcdLock) AcquireLock(ctx context.Context, lockName string, ttl time.Duration) (bool, error) {
	const op = "lock.EtcdLock.AcquireLock"

	el.mu.Lock()
	defer el.mu.Unlock()

	if _, ok := el.locks[lockName]; ok {
		return false, fmt.Errorf("%s: 锁 %s 已被当前实例持有", op, lockName)
	}

	key := lockKey(lockName)

	grantResp, err := el.client.Grant(ctx, ttlSeconds(ttl))
	if err != nil {
		return false, fmt.Errorf("%s: 创建租约失败: %w", op, err)
	}

	// key 不存在时才写入
	txnResp, err := el.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, "", clientv3.WithLease(grantResp.ID))).
		Commit()
	if err != nil {
		el.client.Revoke(context.WithoutCancel(ctx), grantResp.ID)
		return false, fmt.Errorf("%s: 事务执行失败: %w", op, err)
	}

	if !txnResp.Succeeded {
		el.client.Revoke(context.WithoutCancel(ctx), grantResp.ID)
		return false, nil
	}

	keepAliveCtx, keepAliveCancel := context.WithCancel(context.Background())
	go el.keepAlive(keepAliveCtx, grantResp.ID, ttl)

	el.locks[lockName] = &lockEntry{
		leaseID: grantResp.ID,
		key:     key,
		cancel:  keepAliveCancel,
	}
	return true, nil
}

func (el *EtcdLock) ReleaseLock(ctx context.Context, lockName string) error {
	el.mu.Lock()
	defer el.mu.Unlock()

	return el.releaseLock(ctx, lockName)
}

func (el *EtcdLock) Close() error {
	el.mu.Lock()
	for lockName := range el.locks {
		el.releaseLock(context.Background(), lockName)
	}
	el.mu.Unlock()

	return el.client.Close()
}

// keepAlive 每半个有效期续约一次，直到释放锁
func (el *EtcdLock) keepAlive(ctx context.Context, leaseID clientv3.LeaseID, ttl time.Duration) {
	ticker := time.NewTicker(time.Duration(ttlSeconds(ttl)) * time.Second / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := el.client.KeepAliveOnce(ctx, leaseID); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (el *EtcdLock) releaseLock(ctx context.Context, lockName string) error {
	const op = "lock.EtcdLock.ReleaseLock"

	entry, ok := el.locks[lockName]
	if !ok {
		return nil
	}

	entry.cancel()
	delete(el.locks, lockName)

	if _, err := el.client.Delete(ctx, entry.key); err != nil {
		return fmt.Errorf("%s: 删除键失败: %w", op, err)
	}

	// 租约已过期时视为已释放
	if _, err := el.client.Revoke(ctx, entry.leaseID); err != nil && !errors.Is(err, rpctypes.ErrLeaseNotFound) {
		return fmt.Errorf("%s: 释放租约失败: %w", op, err)
	}
	return nil
}
