package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dan1650/plates-bot/internal/cache"
	"github.com/dan1650/plates-bot/internal/storage"
)

func records(ids ...int64) []storage.Record {
	out := make([]storage.Record, len(ids))
	for i, id := range ids {
		out[i] = storage.Record{RowID: id, Region: "B", Number: "1000", Make: "Toyota"}
	}
	return out
}

func TestSelections_RegisterResolve(t *testing.T) {
	s := NewSelections(cache.NewMemoryClient(100), 0)
	ctx := context.Background()

	tokens, err := s.Register(ctx, 42, records(10, 11, 12))
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{10: "10", 11: "11", 12: "12"}, tokens)

	rec, err := s.Resolve(ctx, 42, "11")
	require.NoError(t, err)
	assert.Equal(t, int64(11), rec.RowID)
	assert.Equal(t, "Toyota", rec.Make)
}

func TestSelections_OverwriteExpiresOldTokens(t *testing.T) {
	s := NewSelections(cache.NewMemoryClient(100), 0)
	ctx := context.Background()

	_, err := s.Register(ctx, 42, records(1, 2))
	require.NoError(t, err)
	_, err = s.Register(ctx, 42, records(3, 4))
	require.NoError(t, err)

	_, err = s.Resolve(ctx, 42, "1")
	assert.ErrorIs(t, err, ErrSelectionExpired)

	rec, err := s.Resolve(ctx, 42, "3")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.RowID)
}

func TestSelections_PerUser(t *testing.T) {
	s := NewSelections(cache.NewMemoryClient(100), 0)
	ctx := context.Background()

	_, err := s.Register(ctx, 1, records(100))
	require.NoError(t, err)

	_, err = s.Resolve(ctx, 2, "100")
	assert.ErrorIs(t, err, ErrSelectionExpired, "tokens are scoped to the user that searched")

	_, err = s.Resolve(ctx, 1, "100")
	assert.NoError(t, err)
}

func TestSelections_UnknownToken(t *testing.T) {
	s := NewSelections(cache.NewMemoryClient(100), 0)
	ctx := context.Background()

	_, err := s.Resolve(ctx, 7, "1")
	assert.ErrorIs(t, err, ErrSelectionExpired)

	_, err = s.Register(ctx, 7, records(1))
	require.NoError(t, err)
	_, err = s.Resolve(ctx, 7, "not-a-token")
	assert.ErrorIs(t, err, ErrSelectionExpired)
}

func TestSelections_Reset(t *testing.T) {
	client := cache.NewMemoryClient(100)
	s := NewSelections(client, 0)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "other:key", []byte("x"), 0))
	_, err := s.Register(ctx, 1, records(1))
	require.NoError(t, err)
	_, err = s.Register(ctx, 2, records(2))
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	_, err = s.Resolve(ctx, 1, "1")
	assert.ErrorIs(t, err, ErrSelectionExpired)
	_, err = client.Get(ctx, "other:key")
	assert.NoError(t, err, "keys outside the selection prefix survive")
}

func TestSelections_BoundedUsers(t *testing.T) {
	s := NewSelections(cache.NewMemoryClient(2), 0)
	ctx := context.Background()

	for uid := int64(1); uid <= 3; uid++ {
		_, err := s.Register(ctx, uid, records(uid))
		require.NoError(t, err)
	}

	_, err := s.Resolve(ctx, 1, "1")
	assert.ErrorIs(t, err, ErrSelectionExpired, "least recently used user is evicted")
	_, err = s.Resolve(ctx, 3, "3")
	assert.NoError(t, err)
}

type failingClient struct{ cache.Client }

func (failingClient) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("connection reset")
}

func (failingClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("connection reset")
}

func TestSelections_StoreErrors(t *testing.T) {
	s := NewSelections(failingClient{}, 0)
	ctx := context.Background()

	_, err := s.Register(ctx, 1, records(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store selection")

	_, err = s.Resolve(ctx, 1, "1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSelectionExpired)
}

func TestSelections_TTL(t *testing.T) {
	s := NewSelections(cache.NewMemoryClient(100), 20*time.Millisecond)
	ctx := context.Background()

	_, err := s.Register(ctx, 42, records(1, 2))
	require.NoError(t, err)
	_, err = s.Resolve(ctx, 42, "1")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, err = s.Resolve(ctx, 42, "1")
	assert.ErrorIs(t, err, ErrSelectionExpired)
}
