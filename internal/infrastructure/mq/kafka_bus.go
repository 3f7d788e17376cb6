package mq

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"cosinnus_server/internal/config"
	"cosinnus_server/pkg/errorx"
)

// KafkaBus 分布式模式的事件总线
// 同一群组的事件使用相同的 Key，保证分区内有序
type KafkaBus struct {
	producer *kafka.Writer
	consumer *kafka.Reader
	handlers []Handler
}

// NewKafkaBus 根据配置创建 Kafka 生产者与消费者
func NewKafkaBus(kafkaConfig config.KafkaConfig) *KafkaBus {
	timeout := kafkaConfig.Timeout * time.Second
	return &KafkaBus{
		producer: &kafka.Writer{
			Addr:                   kafka.TCP(kafkaConfig.HostPort),
			Topic:                  kafkaConfig.MembershipTopic,
			Balancer:               &kafka.Hash{},
			WriteTimeout:           timeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: false,
		},
		consumer: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        []string{kafkaConfig.HostPort},
			Topic:          kafkaConfig.MembershipTopic,
			CommitInterval: timeout,
			GroupID:        kafkaConfig.ConsumerGroup,
			StartOffset:    kafka.LastOffset,
		}),
	}
}

// Subscribe 注册处理函数
func (k *KafkaBus) Subscribe(h Handler) {
	k.handlers = append(k.handlers, h)
}

// Publish 写入 Kafka，Key 为群组编号
func (k *KafkaBus) Publish(ctx context.Context, evt MembershipEvent) error {
	value, err := evt.Encode()
	if err != nil {
		return err
	}
	err = k.producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(evt.GroupID), 10)),
		Value: value,
	})
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeMQError, "写入成员事件 group_id=%d", evt.GroupID)
	}
	return nil
}

// Start 启动消费循环
func (k *KafkaBus) Start(ctx context.Context) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("kafka membership consumer panic", zap.Any("recover", r))
			}
		}()
		for {
			msg, err := k.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				zap.L().Error("read membership event failed", zap.Error(err))
				continue
			}
			evt, err := DecodeMembershipEvent(msg.Value)
			if err != nil {
				zap.L().Error("skip malformed membership event",
					zap.Int64("offset", msg.Offset),
					zap.Int("partition", msg.Partition),
					zap.Error(err))
				continue
			}
			dispatch(ctx, k.handlers, evt)
		}
	}()
}

// Close 关闭生产者与消费者
func (k *KafkaBus) Close() {
	if err := k.producer.Close(); err != nil {
		zap.L().Error("close kafka writer failed", zap.Error(err))
	}
	if err := k.consumer.Close(); err != nil {
		zap.L().Error("close kafka reader failed", zap.Error(err))
	}
}

var _ Bus = (*KafkaBus)(nil)

// NewBus 按 messageMode 选择事件总线实现
func NewBus(kafkaConfig config.KafkaConfig) Bus {
	if kafkaConfig.MessageMode == "kafka" {
		zap.L().Info("membership events via kafka", zap.String("topic", kafkaConfig.MembershipTopic))
		return NewKafkaBus(kafkaConfig)
	}
	zap.L().Info("membership events via in-process channel")
	return NewChannelBus(0)
}
