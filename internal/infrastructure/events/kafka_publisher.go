// Package events publica las ventas confirmadas en Kafka para consumidores externos (reportes).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/application/sales"
)

var _ sales.CommitListener = (*KafkaPublisher)(nil)

// EventSaleCommitted tipo de evento publicado tras el commit.
const EventSaleCommitted = "sale.committed"

// MessageWriter lo que el publicador necesita de *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DefaultPublishTimeout tope de una publicación cuando no se configura otro.
const DefaultPublishTimeout = time.Second

// NewKafkaWriter writer síncrono con lotes cortos. timeout acota cada escritura al broker.
func NewKafkaWriter(brokers []string, topic string, timeout time.Duration) *kafka.Writer {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              100,
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: true,
	}
}

// KafkaPublisher implementa sales.CommitListener.
type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
	now     func() time.Time
}

// NewKafkaPublisher construye el publicador sobre un writer.
// timeout <= 0 usa DefaultPublishTimeout; con el broker caído la respuesta de la venta
// se demora como mucho ese tiempo.
func NewKafkaPublisher(writer MessageWriter, timeout time.Duration) *KafkaPublisher {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &KafkaPublisher{writer: writer, timeout: timeout, now: time.Now}
}

// OnSaleCommitted publica {event_id, type, occurred_at, sale} con clave = id de venta.
// El contexto de traza se propaga en las cabeceras del mensaje.
func (p *KafkaPublisher) OnSaleCommitted(ctx context.Context, sale dto.SaleResponse) error {
	payload, err := json.Marshal(dto.SaleCommittedEvent{
		EventID:    uuid.New().String(),
		Type:       EventSaleCommitted,
		OccurredAt: p.now().UTC(),
		Sale:       sale,
	})
	if err != nil {
		return fmt.Errorf("encode sale event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(sale.ID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventSaleCommitted)},
		},
	}
	carrier := headerCarrier{msg: &msg}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish sale %d: %w", sale.ID, err)
	}
	return nil
}

// Close cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// headerCarrier adapta las cabeceras de kafka.Message a propagation.TextMapCarrier.
type headerCarrier struct {
	msg *kafka.Message
}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
