package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLock 进程内锁，单实例部署（lock.backend=none）时使用
type LocalLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLock() *LocalLock {
	return &LocalLock{held: make(map[string]struct{})}
}

func (l *LocalLock) AcquireLock(_ context.Context, lockName string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[lockName]; ok {
		return false, nil
	}
	l.held[lockName] = struct{}{}
	return true, nil
}

func (l *LocalLock) ReleaseLock(_ context.Context, lockName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, lockName)
	return nil
}

func (l *LocalLock) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.held = make(map[string]struct{})
	return nil
}
