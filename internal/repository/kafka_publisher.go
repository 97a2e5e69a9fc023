package repository

import (
	"context"

	"FinCorr/internal/domain/models"
	domrepo "FinCorr/internal/domain/repository"
	pkgkafka "FinCorr/pkg/kafka"
)

type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaPublisher implements EventPublisher for Kafka. It also satisfies
// logger.Publisher so the log collector can share the producer.
type KafkaPublisher struct {
	producer producer
	topic    string
}

var _ domrepo.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(p *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

// PublishPriceUpdate keys the event by symbol so updates for one symbol stay ordered.
func (p *KafkaPublisher) PublishPriceUpdate(ctx context.Context, ev models.PriceUpdateEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

// PublishMessage sends an arbitrary payload to topic.
func (p *KafkaPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishPriceUpdate(context.Context, models.PriceUpdateEvent) error { return nil }
func (NopPublisher) Close() error                                                     { return nil }
