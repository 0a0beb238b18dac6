package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"merchantry.io/app/internal/modules/orders"
)

const TopicOrderCreated = "orders.created"

type OrderCreatedEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	StoreID     string    `json:"store_id"`
	CustomerID  string    `json:"customer_id"`
	TotalCents  int64     `json:"total_cents"`
	Currency    string    `json:"currency"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Publisher emits order lifecycle events to Kafka. A Publisher built from an
// empty broker list is disabled and every publish is a no-op.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokersCSV, topic string) *Publisher {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return &Publisher{}
	}
	if topic == "" {
		topic = TopicOrderCreated
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Publisher) Enabled() bool { return p.writer != nil }

func (p *Publisher) OrderCreated(ctx context.Context, o orders.Order, items []orders.OrderItem) error {
	if p.writer == nil {
		return nil
	}
	ev := OrderCreatedEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		StoreID:     o.StoreID,
		CustomerID:  o.CustomerID,
		TotalCents:  o.TotalCents,
		Currency:    o.Currency,
		ItemCount:   len(items),
		CreatedAt:   o.CreatedAt,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.StoreID),
		Value: data,
		Time:  time.Now().UTC(),
	})
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
