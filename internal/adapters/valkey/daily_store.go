package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/streetpool/internal/core/domain"
)

const dailyKeyPrefix = "streetpool:daily:"

// DailyStore implements ports.DailySelectionStore on Valkey. SET NX gives
// compute-if-absent across every API replica.
type DailyStore struct {
	client valkey.Client
	ttl    time.Duration
}

// NewDailyStore creates a DailyStore. Entries expire after ttl; zero keeps them forever.
func NewDailyStore(client valkey.Client, ttl time.Duration) *DailyStore {
	return &DailyStore{client: client, ttl: ttl}
}

func (s *DailyStore) Get(ctx context.Context, date string) (*domain.DailySelection, error) {
	b, err := s.client.Do(ctx, s.client.B().Get().Key(dailyKeyPrefix+date).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get daily %s: %w", date, err)
	}

	var sel domain.DailySelection
	if err := json.Unmarshal(b, &sel); err != nil {
		return nil, fmt.Errorf("decode daily %s: %w", date, domain.ErrMalformed)
	}
	return &sel, nil
}

func (s *DailyStore) PutIfAbsent(ctx context.Context, sel *domain.DailySelection) (*domain.DailySelection, error) {
	data, err := json.Marshal(sel)
	if err != nil {
		return nil, err
	}

	key := dailyKeyPrefix + sel.Date
	var cmd valkey.Completed
	if s.ttl > 0 {
		cmd = s.client.B().Set().Key(key).Value(valkey.BinaryString(data)).Nx().Ex(s.ttl).Build()
	} else {
		cmd = s.client.B().Set().Key(key).Value(valkey.BinaryString(data)).Nx().Build()
	}

	err = s.client.Do(ctx, cmd).Error()
	switch {
	case err == nil:
		return sel, nil
	case valkey.IsValkeyNil(err):
		// Another writer got there first.
		return s.Get(ctx, sel.Date)
	default:
		return nil, fmt.Errorf("put daily %s: %w", sel.Date, err)
	}
}
