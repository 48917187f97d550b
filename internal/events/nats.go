package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// NatsBus publishes events to a NATS server under planwise.events.{type}.
type NatsBus struct {
	conn *nats.Conn
}

// NewNatsBus connects to NATS. Reconnects are unlimited so a broker restart
// does not take the server down with it.
func NewNatsBus(url string) (*NatsBus, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url,
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Printf("[Events] NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[Events] NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Printf("[Events] Connected to NATS at %s", url)
	return &NatsBus{conn: nc}, nil
}

// Publish sends the event as JSON. Errors are returned but callers treat
// them as non-fatal.
func (b *NatsBus) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	subject := "planwise.events." + event.Type
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection so pending publishes flush.
func (b *NatsBus) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Drain()
}
