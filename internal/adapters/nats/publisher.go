package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

// Subjects carried on the bus.
const (
	SubjectCorpusRebuilt = "streetpool.corpus.rebuilt"
	SubjectDailySelected = "streetpool.daily.selected"
	SubjectProgress      = "streetpool.acquisition.progress"

	// SubjectAll matches every subject above; the WebSocket relay listens on it.
	SubjectAll = "streetpool.>"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
// Progress ticks are published on core NATS since nobody replays them.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "STREETPOOL_CORPUS",
			Subjects:  []string{"streetpool.corpus.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			MaxMsgs:   100,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "STREETPOOL_DAILY",
			Subjects:  []string{"streetpool.daily.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    72 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishCorpusRebuilt(ctx context.Context, stats domain.AcquisitionStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectCorpusRebuilt, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishDailySelection(ctx context.Context, sel *domain.DailySelection) error {
	data, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectDailySelected, data, nats.Context(ctx), nats.MsgId("daily-"+sel.Date))
	return err
}

func (p *Publisher) PublishProgress(ctx context.Context, stats domain.AcquisitionStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectProgress, data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("streetpool"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
