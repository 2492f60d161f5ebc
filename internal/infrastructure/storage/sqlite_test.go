package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Dhiraj-Nishad/tradingbotbydhiraj/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Sessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	empty, err := store.LatestSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sess := &domain.HedgeSession{
		ID:         "s-1",
		Exchange:   "binance",
		Symbol:     "BTCUSDT",
		AmountUSDT: 100,
		Leverage:   5,
		State:      domain.StateOpening,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, store.SaveSession(ctx, sess))

	sess.Quantity = 0.001
	sess.LongEntry = 65000
	sess.State = domain.StateStopped
	sess.Trigger = &domain.Trigger{Side: domain.SideLong, StopPrice: 61750}
	sess.UpdatedAt = created.Add(time.Minute)
	require.NoError(t, store.SaveSession(ctx, sess))

	got, err := store.LatestSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s-1", got.ID)
	assert.Equal(t, domain.StateStopped, got.State)
	assert.Equal(t, 0.001, got.Quantity)
	assert.Equal(t, 65000.0, got.LongEntry)
	require.NotNil(t, got.Trigger)
	assert.Equal(t, domain.SideLong, got.Trigger.Side)
	assert.Equal(t, 61750.0, got.Trigger.StopPrice)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.True(t, sess.UpdatedAt.Equal(got.UpdatedAt))
}

func TestSQLiteStore_Orders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for i, role := range []domain.OrderRole{domain.RoleEntry, domain.RoleEntry, domain.RoleTakeProfit} {
		require.NoError(t, store.SaveOrder(ctx, "s-1", &domain.Order{
			OrderID:      []string{"1", "2", "3"}[i],
			Exchange:     "binance",
			Symbol:       "BTCUSDT",
			Role:         role,
			Side:         domain.OrderSideBuy,
			PositionSide: domain.SideLong,
			Type:         domain.OrderTypeMarket,
			Quantity:     0.001,
			AvgPrice:     65000,
			Status:       "FILLED",
			CreatedAt:    now,
		}))
	}

	orders, err := store.ListOrders(ctx, 2)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "3", orders[0].OrderID)
	assert.Equal(t, domain.RoleTakeProfit, orders[0].Role)
	assert.Equal(t, "2", orders[1].OrderID)
	assert.Equal(t, domain.SideLong, orders[1].PositionSide)
	assert.Equal(t, 65000.0, orders[1].AvgPrice)
	assert.True(t, now.Equal(orders[1].CreatedAt))
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveOrder(ctx, "s-1", &domain.Order{OrderID: "9", CreatedAt: time.Now()}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	orders, err := store.ListOrders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "9", orders[0].OrderID)
}

func TestSQLiteStore_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "hedgebot.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveSession(context.Background(), &domain.HedgeSession{
		ID: "s-1", Exchange: "binance", Symbol: "BTCUSDT", State: domain.StateOpening,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))
	assert.FileExists(t, path)
}
