package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-transactions/internal/config"
	"ms-transactions/internal/logger"
	"ms-transactions/internal/models"

	"github.com/segmentio/kafka-go"
)

const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
)

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topics config.TopicConfig
	Logger *logger.Logger
}

// NewProducer returns a producer whose messages pick their topic per event.
func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Topics: topics, Logger: log}
}

func (p *Producer) PublishTransactionCreated(ctx context.Context, tx models.Transaction) error {
	return p.publish(ctx, p.Topics.TransactionCreated, EventTransactionCreated, tx)
}

func (p *Producer) PublishTransactionUpdated(ctx context.Context, tx models.Transaction) error {
	return p.publish(ctx, p.Topics.TransactionUpdated, EventTransactionUpdated, tx)
}

// PublishTransactionDeleted carries the record as it was before removal.
func (p *Producer) PublishTransactionDeleted(ctx context.Context, tx models.Transaction) error {
	return p.publish(ctx, p.Topics.TransactionDeleted, EventTransactionDeleted, tx)
}

func (p *Producer) publish(ctx context.Context, topic, eventType string, tx models.Transaction) error {
	event := models.TransactionEvent{
		Type:          eventType,
		TransactionID: tx.ID,
		Transaction:   &tx,
		Timestamp:     time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(tx.ID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", eventType, topic, err)
	}

	if p.Logger != nil {
		p.Logger.LogKafka("PUBLISH", topic, fmt.Sprintf("%s for transaction %s", eventType, tx.ID))
	}
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
