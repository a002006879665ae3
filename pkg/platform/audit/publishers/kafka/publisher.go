// Package kafka forwards audit events to a Kafka topic. It is the sink the
// audit worker drains into when brokers are configured.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "paycustom/pkg/platform/audit"
)

// Producer is the subset of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink produces one record per audit event, keyed by event id.
type Sink struct {
	producer Producer
	topic    string
}

func NewSink(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

// payload is the JSON structure written to the topic.
type payload struct {
	ID              string `json:"id"`
	Category        string `json:"category"`
	Timestamp       string `json:"timestamp"`
	Action          string `json:"action"`
	Subject         string `json:"subject,omitempty"`
	Decision        string `json:"decision,omitempty"`
	Reason          string `json:"reason,omitempty"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
	ShopDomain      string `json:"shop_domain,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
	ClientIP        string `json:"client_ip,omitempty"`
}

// Encode builds the record for an event without producing it.
func (s *Sink) Encode(event audit.Event) (*kgo.Record, error) {
	event = event.Normalize(time.Now())
	body, err := json.Marshal(payload{
		ID:              event.ID.String(),
		Category:        string(event.Category),
		Timestamp:       event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:          event.Action,
		Subject:         event.Subject,
		Decision:        event.Decision,
		Reason:          event.Reason,
		PaymentMethodID: event.PaymentMethodID,
		ShopDomain:      event.ShopDomain,
		RequestID:       event.RequestID,
		ClientIP:        event.ClientIP,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal audit event: %w", err)
	}
	return &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.ID.String()),
		Value: body,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(event.Category)},
			{Key: "action", Value: []byte(event.Action)},
		},
	}, nil
}

// Append produces the event synchronously.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	record, err := s.Encode(event)
	if err != nil {
		return err
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}
