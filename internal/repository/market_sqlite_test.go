package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wfmarket-sync/internal/model"
)

func newTestStore(t *testing.T) *SQLiteMarketRepository {
	t.Helper()
	repo, err := NewSQLiteMarketRepository(filepath.Join(t.TempDir(), "market.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func strp(s string) *string { return &s }

func TestEnsureSchema_Idempotent(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx))

	var name string
	err := repo.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_orders_item_id'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_orders_item_id", name)
}

func TestUpsertItems_OverwritesByID(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, repo.UpsertItems(ctx, []model.Item{
		{ID: "1", URLName: "a", ItemName: "A", LastSeen: first},
	}))
	require.NoError(t, repo.UpsertItems(ctx, []model.Item{
		{ID: "1", URLName: "a", ItemName: "A2", Thumb: strp("t.png"), LastSeen: second},
	}))

	items, err := repo.ListItems(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "A2", items[0].ItemName)
	require.NotNil(t, items[0].Thumb)
	assert.Equal(t, "t.png", *items[0].Thumb)
	assert.True(t, second.Equal(items[0].LastSeen))
}

func TestUpsertItems_Empty(t *testing.T) {
	repo := newTestStore(t)
	assert.NoError(t, repo.UpsertItems(context.Background(), nil))
}

func TestUpsertOrders_StoresUnderItemAndOverwrites(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	rank := 3

	require.NoError(t, repo.UpsertItems(ctx, []model.Item{{ID: "1", URLName: "a", ItemName: "A"}}))
	require.NoError(t, repo.UpsertOrders(ctx, "1", []model.Order{
		{OrderID: "o1", ItemID: "other", OrderType: model.OrderTypeSell, Platinum: 50, Quantity: 1, UserID: model.UnknownUserID},
		{OrderID: "o2", OrderType: model.OrderTypeBuy, Platinum: 20, Quantity: 2, UserID: "u1",
			UserStatus: strp("ingame"), ModRank: &rank, Region: strp("en"), Platform: strp("pc"),
			CreatedAt: strp("2024-01-01T00:00:00.000+00:00")},
	}))
	require.NoError(t, repo.UpsertOrders(ctx, "1", []model.Order{
		{OrderID: "o1", OrderType: model.OrderTypeSell, Platinum: 45, Quantity: 1, UserID: model.UnknownUserID},
	}))

	orders, err := repo.ListOrdersByItem(ctx, "1", "")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	buy, sell := orders[0], orders[1]
	assert.Equal(t, "o2", buy.OrderID)
	assert.Equal(t, "1", buy.ItemID)
	require.NotNil(t, buy.ModRank)
	assert.Equal(t, 3, *buy.ModRank)
	assert.Equal(t, "ingame", *buy.UserStatus)
	assert.Nil(t, buy.LastUpdate)

	assert.Equal(t, "o1", sell.OrderID)
	assert.Equal(t, "1", sell.ItemID)
	assert.Equal(t, int64(45), sell.Platinum)
	assert.Equal(t, model.UnknownUserID, sell.UserID)
	assert.Nil(t, sell.ModRank)

	sells, err := repo.ListOrdersByItem(ctx, "1", model.OrderTypeSell)
	require.NoError(t, err)
	require.Len(t, sells, 1)
	assert.Equal(t, "o1", sells[0].OrderID)
}

func TestUpsertOrders_ForeignKeyEnforced(t *testing.T) {
	repo := newTestStore(t)

	err := repo.UpsertOrders(context.Background(), "missing", []model.Order{
		{OrderID: "o1", OrderType: model.OrderTypeSell, Platinum: 1, Quantity: 1, UserID: "u"},
	})
	assert.Error(t, err)

	stats, err := repo.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Orders)
}

func TestReadQueries(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()
	seen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertItems(ctx, []model.Item{
		{ID: "2", URLName: "b", ItemName: "Beta", LastSeen: seen},
		{ID: "1", URLName: "a", ItemName: "Alpha", LastSeen: seen},
		{ID: "3", URLName: "c", ItemName: "Gamma", LastSeen: seen},
	}))

	page, err := repo.ListItems(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Beta", page[0].ItemName)
	assert.Equal(t, "Gamma", page[1].ItemName)

	item, err := repo.GetItemByURLName(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "1", item.ID)

	missing, err := repo.GetItemByURLName(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Ping(ctx))

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", stats.Backend)
	assert.Equal(t, int64(3), stats.Items)
	assert.Equal(t, int64(0), stats.Orders)
	require.NotNil(t, stats.LastSeen)
	assert.True(t, seen.Equal(*stats.LastSeen))
}

func TestGetStats_EmptyStore(t *testing.T) {
	repo := newTestStore(t)

	stats, err := repo.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Items)
	assert.Nil(t, stats.LastSeen)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2", postgresDialect.rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = ?", sqliteDialect.rebind("a = ?"))
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open(Options{Type: "mongodb"})
	assert.Error(t, err)
}

func TestNewSQLiteMarketRepository_PathWithURIMetacharacters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a?b#50%.db")

	repo, err := NewSQLiteMarketRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.EnsureSchema(context.Background()))

	_, err = os.Stat(path)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "a"))
	assert.True(t, os.IsNotExist(err))
}

func TestSQLiteDSN(t *testing.T) {
	dsn := sqliteDSN("/data/a?b#c%d.db")
	assert.True(t, strings.HasPrefix(dsn, "file:/data/a%3fb%23c%25d.db?_pragma=foreign_keys(1)"), dsn)
}
