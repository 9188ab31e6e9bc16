package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lvdashuaibi/littlepoll/config"
	"github.com/lvdashuaibi/littlepoll/internal/model"
)

type Producer struct {
	writer *kafka.Writer
	log    *slog.Logger
}

func NewProducer(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (*Producer, error) {
	const op = "kafka.NewProducer"

	partitions, err := topicPartitions(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("生产者检测到Kafka主题分区",
		slog.String("topic", cfg.Topic),
		slog.Int("partitions", len(partitions)))

	return &Producer{
		writer: newWriter(cfg),
		log:    log,
	}, nil
}

// BatchTimeout 投票请求同步等待写入，不攒批
const BatchTimeout = 10 * time.Millisecond

// newWriter 基于消息Key的Hash分区
func newWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: BatchTimeout,
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}
}

// SendVoteEvent 发送投票事件，以问题ID作为分区key
func (p *Producer) SendVoteEvent(ctx context.Context, event *model.VoteEvent) error {
	const op = "kafka.Producer.SendVoteEvent"

	data, err := encodeVoteEvent(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := kafka.Message{
		Key:   messageKey(event),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s: 发送投票事件失败: %w", op, err)
	}
	return nil
}

// Close 关闭Kafka生产者
func (p *Producer) Close() error {
	return p.writer.Close()
}

// topicPartitions 读取主题的分区ID
func topicPartitions(ctx context.Context, cfg config.KafkaConfig) ([]int, error) {
	conn, err := kafka.DialLeader(ctx, "tcp", cfg.Brokers[0], cfg.Topic, 0)
	if err != nil {
		return nil, fmt.Errorf("连接Kafka失败: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return nil, fmt.Errorf("读取分区信息失败: %w", err)
	}

	var ids []int
	for _, p := range partitions {
		if p.Topic == cfg.Topic {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}
