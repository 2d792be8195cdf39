// Package session holds per-user ephemeral state: the selection snapshot of
// the last multi-result search and the request rate gate.
package session

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dan1650/plates-bot/internal/cache"
	"github.com/dan1650/plates-bot/internal/storage"
)

// ErrSelectionExpired is returned when a token is not in the user's latest
// selection, either because it was never issued or because a newer search
// replaced it.
var ErrSelectionExpired = errors.New("selection expired")

// KeyPrefix namespaces selection snapshots inside the cache.
const KeyPrefix = "sel:"

// Selections maps selection tokens to record snapshots, one snapshot per user.
// Registering replaces the user's snapshot. A snapshot also ends after ttl,
// which keeps stores without their own size bound (Redis) from growing with
// every user ever seen; a ttl of zero keeps it until replaced or evicted.
type Selections struct {
	client cache.Client
	ttl    time.Duration
}

// NewSelections creates a selection store over client.
func NewSelections(client cache.Client, ttl time.Duration) *Selections {
	return &Selections{client: client, ttl: ttl}
}

// Register stores records as the user's only selection and returns the token
// issued for each row id.
func (s *Selections) Register(ctx context.Context, userID int64, records []storage.Record) (map[int64]string, error) {
	snapshot := make(map[string]storage.Record, len(records))
	tokens := make(map[int64]string, len(records))
	for _, rec := range records {
		tok := rec.Token()
		snapshot[tok] = rec
		tokens[rec.RowID] = tok
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, errors.Wrap(err, "marshal selection")
	}
	if err := s.client.Set(ctx, userKey(userID), data, s.ttl); err != nil {
		return nil, errors.Wrap(err, "store selection")
	}
	return tokens, nil
}

// Resolve returns the record behind token in the user's latest selection.
func (s *Selections) Resolve(ctx context.Context, userID int64, token string) (storage.Record, error) {
	data, err := s.client.Get(ctx, userKey(userID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return storage.Record{}, ErrSelectionExpired
	}
	if err != nil {
		return storage.Record{}, errors.Wrap(err, "load selection")
	}

	var snapshot map[string]storage.Record
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return storage.Record{}, errors.Wrap(err, "decode selection")
	}
	rec, ok := snapshot[token]
	if !ok {
		return storage.Record{}, ErrSelectionExpired
	}
	return rec, nil
}

// Reset drops every stored selection. Called at startup so that snapshots
// never outlive the process that issued them.
func (s *Selections) Reset(ctx context.Context) error {
	return s.client.DeleteByPrefix(ctx, KeyPrefix)
}

func userKey(userID int64) string {
	return cache.Key(strings.TrimSuffix(KeyPrefix, ":"), strconv.FormatInt(userID, 10))
}
