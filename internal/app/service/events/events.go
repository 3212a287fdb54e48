package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/bizpay/internal/models"
	"github.com/fatflowers/bizpay/pkg/config"
	"github.com/fatflowers/bizpay/pkg/logctx"
	"github.com/fatflowers/bizpay/pkg/types"
)

type EventType string

const (
	EventPaymentCompleted EventType = "payment.completed"
	EventPaymentCancelled EventType = "payment.cancelled"
)

// PaymentEvent is emitted after a payment reaches a terminal state.
type PaymentEvent struct {
	Type       EventType             `json:"type"`
	PaymentID  uint64                `json:"payment_id"`
	OrderID    string                `json:"order_id"`
	BusinessID string                `json:"business_id"`
	Provider   types.PaymentProvider `json:"provider"`
	Amount     int64                 `json:"amount"`
	Currency   string                `json:"currency"`
	LeadID     *string               `json:"lead_id,omitempty"`
	ExternalID *string               `json:"external_id,omitempty"`
	ErrorCode  int                   `json:"error_code"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// NewPaymentEvent builds an event of typ from the stored payment.
func NewPaymentEvent(typ EventType, p *models.PaymentTransaction, errorCode int) *PaymentEvent {
	return &PaymentEvent{
		Type:       typ,
		PaymentID:  p.ID,
		OrderID:    p.OrderID,
		BusinessID: p.BusinessID,
		Provider:   p.Provider,
		Amount:     p.Amount,
		Currency:   p.Currency,
		LeadID:     p.LeadID,
		ExternalID: p.ExternalID,
		ErrorCode:  errorCode,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev *PaymentEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by order id so every event of one
// order lands on the same partition.
type KafkaPublisher struct {
	w   messageWriter
	log *zap.SugaredLogger
}

// batchTimeout caps how long a lone event waits for a batch to fill; the
// kafka-go default is a full second.
const batchTimeout = 10 * time.Millisecond

func NewKafkaPublisher(brokers []string, topic string, log *zap.SugaredLogger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: batchTimeout,
		WriteTimeout: 10 * time.Second,
	}
	return &KafkaPublisher{w: w, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev *PaymentEvent) error {
	if ev == nil {
		return nil
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}); err != nil {
		return fmt.Errorf("failed to publish %s for %s: %w", ev.Type, ev.OrderID, err)
	}
	logctx.FromCtx(ctx, p.log).Infow("payment_event_published", "type", ev.Type, "order_id", ev.OrderID)
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// NoopPublisher only logs. It is used when no brokers are configured.
type NoopPublisher struct {
	log *zap.SugaredLogger
}

func NewNoopPublisher(log *zap.SugaredLogger) *NoopPublisher { return &NoopPublisher{log: log} }

func (p *NoopPublisher) Publish(ctx context.Context, ev *PaymentEvent) error {
	if ev == nil {
		return nil
	}
	logctx.FromCtx(ctx, p.log).Debugw("payment_event_skipped", "type", ev.Type, "order_id", ev.OrderID)
	return nil
}

// NewPublisher picks the Kafka publisher when brokers are configured.
func NewPublisher(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) Publisher {
	if len(cfg.Events.Brokers) == 0 {
		log.Infow("events: no brokers configured, payment events disabled")
		return NewNoopPublisher(log)
	}
	p := NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			log.Infow("closing kafka writer")
			return p.Close()
		},
	})
	log.Infow("events: publishing to kafka", "brokers", cfg.Events.Brokers, "topic", cfg.Events.Topic)
	return p
}

var Module = fx.Options(
	fx.Provide(NewPublisher),
)
