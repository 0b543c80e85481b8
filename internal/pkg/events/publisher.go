// Package events publica eventos de ciclo de vida de pedidos no Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	OrderPlaced        = "order.placed"
	OrderCancelled     = "order.cancelled"
	OrderStatusChanged = "order.status_changed"

	headerEventType    = "x-event-type"
	headerEventVersion = "x-event-version"

	currentVersion = 1
)

// Envelope é o evento publicado. Key define a partição (ID do pedido).
type Envelope struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// Publisher é o contrato usado pelos serviços.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// messageWriter é o subconjunto do *kafka.Writer usado aqui.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher grava eventos num tópico, particionando pela chave.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaPublisher cria o writer síncrono com RequireAll.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		timeout: 5 * time.Second,
	}
}

// Publish serializa o envelope em JSON e grava uma mensagem.
func (p *KafkaPublisher) Publish(ctx context.Context, env Envelope) error {
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("falha ao serializar evento %s: %w", env.Type, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(env.Key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(env.Type)},
			{Key: headerEventVersion, Value: []byte(strconv.Itoa(currentVersion))},
		},
	})
}

// Close faz o flush e fecha o writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher descarta eventos (Kafka não configurado).
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Envelope) error { return nil }
func (NopPublisher) Close() error                            { return nil }
