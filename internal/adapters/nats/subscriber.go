package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeCorpusRebuilt delivers rebuild events published after the call.
// The consumer is ephemeral so every API replica receives each event.
func (s *Subscriber) SubscribeCorpusRebuilt(ctx context.Context, handler func(ctx context.Context, stats domain.AcquisitionStats) error) error {
	sub, err := s.js.Subscribe(SubjectCorpusRebuilt, func(msg *nats.Msg) {
		var stats domain.AcquisitionStats
		if err := json.Unmarshal(msg.Data, &stats); err != nil {
			slog.Warn("drop malformed rebuild event", "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, stats); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
