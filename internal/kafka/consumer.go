package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lvdashuaibi/littlepoll/config"
	"github.com/lvdashuaibi/littlepoll/internal/logger"
	"github.com/lvdashuaibi/littlepoll/internal/model"
)

const (
	// 处理失败后的重试间隔，指数退避
	RetryBaseDelay = 200 * time.Millisecond
	RetryMaxDelay  = 30 * time.Second
)

// messageReader *kafka.Reader 中消费者使用的部分
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer 消费者组内的多个reader并发消费投票事件。
// 消息处理成功后才提交位移，至少投递一次
type Consumer struct {
	readers   []messageReader
	log       *slog.Logger
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	retryBase time.Duration
	retryMax  time.Duration
}

type MessageHandler func(ctx context.Context, event *model.VoteEvent) error

func NewConsumer(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (*Consumer, error) {
	const op = "kafka.NewConsumer"

	partitions, err := topicPartitions(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// 同组reader数超过分区数时多余的reader分不到分区
	workers := max(cfg.Workers, 1)
	if len(partitions) > 0 && len(partitions) < workers {
		log.Info("分区数量小于期望的worker数量",
			slog.Int("partitions", len(partitions)),
			slog.Int("workers", workers))
		workers = len(partitions)
	}

	readers := make([]messageReader, 0, workers)
	for i := 0; i < workers; i++ {
		readers = append(readers, kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  cfg.GroupID,
			MinBytes: 1,
			MaxBytes: 10e6, // 10MB
		}))
	}

	log.Info("创建Kafka消费者",
		slog.String("topic", cfg.Topic),
		slog.String("group_id", cfg.GroupID),
		slog.Int("workers", workers))

	return &Consumer{
		readers:   readers,
		log:       log,
		retryBase: RetryBaseDelay,
		retryMax:  RetryMaxDelay,
	}, nil
}

// StartConsuming 每个reader一个goroutine
func (c *Consumer) StartConsuming(ctx context.Context, handler MessageHandler) {
	ctx, c.cancel = context.WithCancel(ctx)

	for i, reader := range c.readers {
		c.wg.Add(1)
		go func(workerID int, r messageReader) {
			defer c.wg.Done()
			c.consumeMessages(ctx, workerID, r, handler)
		}(i, reader)
	}

	c.log.Info("已启动Kafka消费者工作线程", slog.Int("workers", len(c.readers)))
}

func (c *Consumer) consumeMessages(ctx context.Context, workerID int, reader messageReader, handler MessageHandler) {
	log := c.log.With(slog.Int("worker", workerID))
	log.Debug("消费者工作线程已启动")

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Debug("消费者工作线程收到停止信号")
				return
			}
			log.Error("读取消息失败", logger.Err(err))
			time.Sleep(time.Second)
			continue
		}

		if !c.processWithRetry(ctx, log, m, handler) {
			log.Debug("消费者工作线程收到停止信号，消息未提交", slog.Int64("offset", m.Offset))
			return
		}

		if err := reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return
			}
			// 未提交的消息会在重平衡后重新投递，由幂等写入去重
			log.Error("提交位移失败",
				slog.Int("partition", m.Partition),
				slog.Int64("offset", m.Offset),
				logger.Err(err))
		}
	}
}

// processWithRetry 处理失败时退避重试，直到成功或 ctx 结束；ctx 结束时返回 false
func (c *Consumer) processWithRetry(ctx context.Context, log *slog.Logger, m kafka.Message, handler MessageHandler) bool {
	delay := c.retryBase
	for attempt := 1; ; attempt++ {
		err := handleMessage(ctx, log, m, handler)
		if err == nil {
			return true
		}

		log.Error("处理投票事件失败，稍后重试",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			logger.Err(err))

		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
		delay = min(delay*2, c.retryMax)
	}
}

// handleMessage 无法解析的消息直接丢弃并返回 nil，处理失败时返回错误
func handleMessage(ctx context.Context, log *slog.Logger, m kafka.Message, handler MessageHandler) error {
	event, err := decodeVoteEvent(m.Value)
	if err != nil {
		log.Warn("丢弃无法解析的消息",
			slog.Int("partition", m.Partition),
			slog.Int64("offset", m.Offset),
			logger.Err(err))
		return nil
	}

	if err := handler(ctx, event); err != nil {
		return fmt.Errorf("事件 %s: %w", event.ID, err)
	}
	return nil
}

// Stop 停止消费并关闭reader
func (c *Consumer) Stop() error {
	c.log.Info("正在停止所有Kafka消费者工作线程")
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	var errs []error
	for _, reader := range c.readers {
		if err := reader.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
