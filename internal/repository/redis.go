package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/lvdashuaibi/littlepoll/config"
	"github.com/lvdashuaibi/littlepoll/internal/model"
)

const (
	// Redis键前缀
	ResultsKey        = "poll:results:"
	ResultsVersionKey = "poll:results:version:"
)

// errResultsChanged 读库期间有新的投票
var errResultsChanged = errors.New("results version changed")

// RedisRepository 投票结果缓存。每个问题带一个版本号，投票时递增，
// 只有版本未变化时才回填缓存
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepository(ctx context.Context, cfg config.RedisConfig) (*RedisRepository, error) {
	const op = "repository.NewRedisRepository"

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.DataAddress,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: Redis数据节点连接测试失败: %w", op, err)
	}

	return NewRedisRepositoryFromClient(client, cfg.ResultsTTL), nil
}

// NewRedisRepositoryFromClient ttl <= 0 时缓存不过期
func NewRedisRepositoryFromClient(client *redis.Client, ttl time.Duration) *RedisRepository {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisRepository{
		client: client,
		ttl:    ttl,
	}
}

func resultsKey(questionID int64) string {
	return ResultsKey + strconv.FormatInt(questionID, 10)
}

func resultsVersionKey(questionID int64) string {
	return ResultsVersionKey + strconv.FormatInt(questionID, 10)
}

// GetResults 从缓存获取结果，未命中时返回 false
func (r *RedisRepository) GetResults(ctx context.Context, questionID int64) (*model.QuestionResults, bool, error) {
	const op = "repository.RedisRepository.GetResults"

	data, err := r.client.Get(ctx, resultsKey(questionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: 获取结果缓存失败: %w", op, err)
	}

	var results model.QuestionResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false, fmt.Errorf("%s: 解析结果缓存失败: %w", op, err)
	}
	return &results, true, nil
}

// ResultsVersion 问题结果的当前版本号，从未投票时为0。回填前先读取
func (r *RedisRepository) ResultsVersion(ctx context.Context, questionID int64) (int64, error) {
	const op = "repository.RedisRepository.ResultsVersion"

	version, err := readVersion(ctx, r.client, questionID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return version, nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readVersion(ctx context.Context, c stringGetter, questionID int64) (int64, error) {
	version, err := c.Get(ctx, resultsVersionKey(questionID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

// SetResultsIfUnchanged 版本号仍为 version 时写入结果缓存；
// 期间有投票使版本变化时不写入并返回 false
func (r *RedisRepository) SetResultsIfUnchanged(ctx context.Context, results *model.QuestionResults, version int64) (bool, error) {
	const op = "repository.RedisRepository.SetResultsIfUnchanged"

	data, err := json.Marshal(results)
	if err != nil {
		return false, fmt.Errorf("%s: 序列化结果失败: %w", op, err)
	}

	questionID := results.Question.ID
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, questionID)
		if err != nil {
			return err
		}
		if current != version {
			return errResultsChanged
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, resultsKey(questionID), data, r.ttl)
			return nil
		})
		return err
	}, resultsVersionKey(questionID))

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errResultsChanged), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("%s: 设置结果缓存失败: %w", op, err)
	}
}

// InvalidateResults 递增版本号并删除缓存，投票、增删选项或删除问题后调用
func (r *RedisRepository) InvalidateResults(ctx context.Context, questionID int64) error {
	const op = "repository.RedisRepository.InvalidateResults"

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, resultsVersionKey(questionID))
		pipe.Del(ctx, resultsKey(questionID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: 清除结果缓存失败: %w", op, err)
	}
	return nil
}

// Close 关闭Redis连接
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
