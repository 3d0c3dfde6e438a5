package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/yeremiapane/tableside/utils"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter appends events to a topic keyed by branch, so one branch's
// events stay ordered within a partition.
type KafkaEmitter struct {
	Writer  messageWriter
	Timeout time.Duration
}

func NewKafkaEmitter(brokers []string, topic string) *KafkaEmitter {
	return &KafkaEmitter{
		Writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
			Async:    true,
		},
		Timeout: 2 * time.Second,
	}
}

func (k *KafkaEmitter) Emit(branchID uint, eventType string, refID string) {
	payload, err := json.Marshal(newMessage(branchID, eventType, refID))
	if err != nil {
		utils.ErrorLogger.Errorf("KAFKA: marshal %s: %v", eventType, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.Timeout)
	defer cancel()

	err = k.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(branchID), 10)),
		Value: payload,
	})
	if err != nil {
		utils.ErrorLogger.Errorf("KAFKA: publish %s for %s: %v", eventType, refID, err)
	}
}

func (k *KafkaEmitter) Close() error {
	return k.Writer.Close()
}
