// Package messaging relays outbox events to NATS.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"bistro/internal/core/id"
	"bistro/internal/infrastructure/storage/postgres"
	"bistro/pkg/logger"
)

// DefaultSubjectPrefix prefixes every event subject, e.g. bistro.order.created.
const DefaultSubjectPrefix = "bistro"

// Envelope is the message body published for each outbox event.
type Envelope struct {
	ID            id.ID           `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   id.ID           `json:"aggregateId"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

var _ postgres.OutboxHandler = (*NATSPublisher)(nil)

// NATSPublisher publishes outbox messages and waits for the server to
// acknowledge the flush before the relay marks them published.
type NATSPublisher struct {
	conn         *nats.Conn
	prefix       string
	flushTimeout time.Duration
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("bistro-outbox"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn(context.Background(), "nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info(context.Background(), "nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{conn: conn, prefix: prefix, flushTimeout: 5 * time.Second}, nil
}

// Subject returns the subject an event type is published on.
func Subject(prefix, eventType string) string {
	return prefix + "." + strings.ToLower(eventType)
}

// Handle publishes one outbox message. The message id doubles as the
// Nats-Msg-Id header so JetStream consumers can drop redeliveries.
func (p *NATSPublisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	body, err := json.Marshal(Envelope{
		ID:            msg.ID,
		Type:          msg.EventType,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		Payload:       json.RawMessage(msg.Payload),
		OccurredAt:    msg.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	m := nats.NewMsg(Subject(p.prefix, msg.EventType))
	m.Data = body
	m.Header.Set(nats.MsgIdHdr, msg.ID.String())
	m.Header.Set("Bistro-Event-Type", msg.EventType)

	if err := p.conn.PublishMsg(m); err != nil {
		return fmt.Errorf("publish %s: %w", m.Subject, err)
	}

	flushCtx, cancel := context.WithTimeout(ctx, p.flushTimeout)
	defer cancel()
	if err := p.conn.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("flush %s: %w", m.Subject, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
