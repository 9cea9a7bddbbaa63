package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"taxibackend/internal/utils"

	"github.com/IBM/sarama"
)

const eventBookingConfirmed = "booking.confirmed"

type bookingEvent struct {
	Event      string            `json:"event"`
	BookingID  string            `json:"booking_id"`
	Email      string            `json:"email"`
	Metadata   map[string]string `json:"metadata"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// KafkaPublisher emits booking events keyed by booking id so every event of
// one booking lands on the same partition.
type KafkaPublisher struct {
	producer sarama.AsyncProducer
	topic    string

	// mu guards closed; sends hold it shared so Close waits for them.
	mu     sync.RWMutex
	closed bool
}

var ErrPublisherClosed = errors.New("kafka publisher closed")

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Flush.Frequency = 500 * time.Millisecond
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("start kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic), nil
}

func NewKafkaPublisherWithProducer(producer sarama.AsyncProducer, topic string) *KafkaPublisher {
	go func() {
		for err := range producer.Errors() {
			utils.LogEvent("", "KAFKA", "publish_failed", err.Error())
		}
	}()
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) BookingConfirmed(ctx context.Context, email string, meta map[string]string) error {
	payload, err := json.Marshal(bookingEvent{
		Event:      eventBookingConfirmed,
		BookingID:  meta["booking_id"],
		Email:      email,
		Metadata:   meta,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode booking event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(meta["booking_id"]),
		Value: sarama.ByteEncoder(payload),
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.producer.Close()
}
