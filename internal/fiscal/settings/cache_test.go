package settings

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	value        Settings
	getCalls     int
	replaceCalls int
}

func (m *mockStore) Get(context.Context) (Settings, error) {
	m.getCalls++
	return m.value, nil
}

func (m *mockStore) ReplaceVATAccounts(_ context.Context, collected, deductible []int64) error {
	m.replaceCalls++
	m.value.VATCollectedAccounts = collected
	m.value.VATDeductibleAccounts = deductible
	return nil
}

func newCachedFixture(t *testing.T) (*Cached, *mockStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := &mockStore{value: Settings{
		StampDutyPerInvoice:   decimal.NewFromInt(1),
		VATCollectedAccounts:  []int64{10, 11},
		VATDeductibleAccounts: []int64{20},
	}}
	return NewCached(store, client, time.Minute), store
}

func TestCachedGetServesSnapshot(t *testing.T) {
	cached, store := newCachedFixture(t)
	ctx := context.Background()

	first, err := cached.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, store.getCalls)

	second, err := cached.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, store.getCalls, "second read must hit the cache")
	require.Equal(t, first.VATCollectedAccounts, second.VATCollectedAccounts)
	require.True(t, first.StampDutyPerInvoice.Equal(second.StampDutyPerInvoice))
}

func TestCachedReplaceInvalidates(t *testing.T) {
	cached, store := newCachedFixture(t)
	ctx := context.Background()

	_, err := cached.Get(ctx)
	require.NoError(t, err)

	require.NoError(t, cached.ReplaceVATAccounts(ctx, []int64{30}, []int64{40}))
	require.Equal(t, 1, store.replaceCalls)

	got, err := cached.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, store.getCalls, "invalidation must force a reload")
	require.Equal(t, []int64{30}, got.VATCollectedAccounts)
}

func TestCachedWithoutClient(t *testing.T) {
	store := &mockStore{value: Settings{StampDutyPerInvoice: decimal.NewFromInt(1)}}
	cached := NewCached(store, nil, 0)

	_, err := cached.Get(context.Background())
	require.NoError(t, err)
	_, err = cached.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, store.getCalls)
}
