package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/streetpool/internal/adapters/postgres"
	"github.com/samirrijal/streetpool/internal/adapters/valkey"
	"github.com/samirrijal/streetpool/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
// NATS, DB and Cache are optional and only feed readiness checks and the relay.
type Dependencies struct {
	Corpus *usecases.CorpusService
	Daily  *usecases.DailyService
	NATS   *nats.Conn
	DB     *postgres.DB
	Cache  *valkey.Cache
}
