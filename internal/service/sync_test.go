package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wfmarket-sync/internal/cache"
	"wfmarket-sync/internal/config"
	"wfmarket-sync/internal/marketapi"
	"wfmarket-sync/internal/model"
	"wfmarket-sync/internal/repository"
)

// fakeAPI serves canned catalog and order book responses.
type fakeAPI struct {
	base       string
	resolveErr error
	items      []model.Item
	itemsErr   error
	orders     map[string][]model.Order
	orderErrs  map[string]error
	fetched    []string
}

func (f *fakeAPI) ResolveBase(ctx context.Context, nominal string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	if f.base != "" {
		return f.base, nil
	}
	return marketapi.NormalizeBase(nominal), nil
}

func (f *fakeAPI) FetchItems(ctx context.Context, base string) ([]model.Item, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	out := make([]model.Item, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeAPI) FetchOrders(ctx context.Context, base, urlName string) ([]model.Order, error) {
	f.fetched = append(f.fetched, urlName)
	if err := f.orderErrs[urlName]; err != nil {
		return nil, err
	}
	return f.orders[urlName], nil
}

// fakeRepo records calls in memory.
type fakeRepo struct {
	schemaErr   error
	itemsErr    error
	upsertCalls int
	items       []model.Item
	orders      map[string][]model.Order
}

func (r *fakeRepo) EnsureSchema(ctx context.Context) error { return r.schemaErr }

func (r *fakeRepo) UpsertItems(ctx context.Context, items []model.Item) error {
	r.upsertCalls++
	if r.itemsErr != nil {
		return r.itemsErr
	}
	r.items = append(r.items, items...)
	return nil
}

func (r *fakeRepo) UpsertOrders(ctx context.Context, itemID string, orders []model.Order) error {
	if r.orders == nil {
		r.orders = make(map[string][]model.Order)
	}
	r.orders[itemID] = orders
	return nil
}

func (r *fakeRepo) Close() error { return nil }

func threeItems() []model.Item {
	return []model.Item{
		{ID: "1", URLName: "a", ItemName: "A"},
		{ID: "2", URLName: "b", ItemName: "B"},
		{ID: "3", URLName: "c", ItemName: "C"},
	}
}

func sell(id string, plat int64) model.Order {
	return model.Order{OrderID: id, OrderType: model.OrderTypeSell, Platinum: plat, Quantity: 1, UserID: model.UnknownUserID}
}

const mockCatalog = `{"payload":{"items":[{"id":"1","url_name":"abc","item_name":"Abc","thumb":null}]}}`

const mockOrders = `{"payload":{"orders":[{"id":"o1","order_type":"sell","platinum":50,"quantity":1,"user":{"id":"u1","status":"ingame"}}]}}`

func newMarketServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/items":
			fmt.Fprint(w, mockCatalog)
		case "/items/abc/orders":
			fmt.Fprint(w, mockOrders)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSyncService_EndToEndFallbackBase(t *testing.T) {
	srv := newMarketServer(t)

	repo, err := repository.NewSQLiteMarketRepository(filepath.Join(t.TempDir(), "market.sqlite3"))
	require.NoError(t, err)
	defer repo.Close()

	reports := cache.NewMemoryCache()
	defer reports.Close()

	svc := NewSyncService(marketapi.NewClient(), repo, reports, SyncOptions{
		NominalBase: srv.URL + "/v1",
		Limit:       1,
	})

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(StateDone), report.State)
	assert.Equal(t, srv.URL, report.ResolvedBase)
	assert.Equal(t, 1, report.ItemsFetched)
	assert.Equal(t, 1, report.ItemsSynced)
	assert.Equal(t, 1, report.OrdersPersisted)

	ctx := context.Background()
	items, err := repo.ListItems(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)

	orders, err := repo.ListOrdersByItem(ctx, "1", "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "sell", orders[0].OrderType)
	assert.Equal(t, int64(50), orders[0].Platinum)
	assert.Equal(t, "1", orders[0].ItemID)

	// A second pass over the same data leaves the row counts unchanged.
	_, err = svc.Run(ctx)
	require.NoError(t, err)

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Items)
	assert.Equal(t, int64(1), stats.Orders)
}

func TestSyncService_LimitBoundsOrderFetches(t *testing.T) {
	api := &fakeAPI{items: threeItems()}
	repo := &fakeRepo{}

	svc := NewSyncService(api, repo, nil, SyncOptions{NominalBase: "https://x.test/v1", Limit: 2})
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, api.fetched)
	assert.Len(t, repo.items, 3)
	assert.Equal(t, 2, report.ItemsSynced)
}

func TestSyncService_NoLimitSyncsWholeCatalog(t *testing.T) {
	api := &fakeAPI{items: threeItems()}
	repo := &fakeRepo{}

	svc := NewSyncService(api, repo, nil, SyncOptions{NominalBase: "https://x.test/v1"})
	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, api.fetched)
}

func TestSyncService_SharedLastSeenAndItemIDs(t *testing.T) {
	api := &fakeAPI{
		items:  threeItems(),
		orders: map[string][]model.Order{"a": {sell("o1", 10), sell("o2", 12)}},
	}
	repo := &fakeRepo{}

	svc := NewSyncService(api, repo, nil, SyncOptions{NominalBase: "https://x.test/v1", Limit: 1})
	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, repo.items, 3)
	seen := repo.items[0].LastSeen
	assert.False(t, seen.IsZero())
	for _, it := range repo.items {
		assert.True(t, seen.Equal(it.LastSeen))
	}
	for _, o := range repo.orders["1"] {
		assert.Equal(t, "1", o.ItemID)
	}
}

func TestSyncService_EmptyCatalogAbortsBeforePersisting(t *testing.T) {
	api := &fakeAPI{itemsErr: &marketapi.EmptyCatalogError{URL: "https://x.test/items"}}
	repo := &fakeRepo{}

	svc := NewSyncService(api, repo, nil, SyncOptions{NominalBase: "https://x.test"})
	report, err := svc.Run(context.Background())
	require.Error(t, err)

	var syncErr *SyncError
	require.True(t, errors.As(err, &syncErr))
	assert.Equal(t, StateBaseResolved, syncErr.State)

	var empty *marketapi.EmptyCatalogError
	assert.True(t, errors.As(err, &empty))
	assert.Equal(t, 0, repo.upsertCalls)
	assert.Equal(t, string(StateAborted), report.State)
}

func TestSyncService_EmptyCatalogAllowed(t *testing.T) {
	api := &fakeAPI{itemsErr: &marketapi.EmptyCatalogError{URL: "https://x.test/items"}}
	repo := &fakeRepo{}

	svc := NewSyncService(api, repo, nil, SyncOptions{NominalBase: "https://x.test", AllowEmptyCatalog: true})
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, string(StateDone), report.State)
	assert.Equal(t, 0, report.ItemsFetched)
	assert.Empty(t, api.fetched)
}

func TestSyncService_AbortStates(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		api       *fakeAPI
		repo      *fakeRepo
		wantState State
		wantStep  string
	}{
		{"schema", &fakeAPI{}, &fakeRepo{schemaErr: boom}, StateIdle, "ensure schema"},
		{"resolve", &fakeAPI{resolveErr: boom}, &fakeRepo{}, StateSchemaReady, "resolve base"},
		{"catalog", &fakeAPI{itemsErr: boom}, &fakeRepo{}, StateBaseResolved, "fetch catalog"},
		{"items", &fakeAPI{items: threeItems()}, &fakeRepo{itemsErr: boom}, StateCatalogFetched, "persist items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSyncService(tt.api, tt.repo, nil, SyncOptions{NominalBase: "https://x.test/v1"})
			_, err := svc.Run(context.Background())

			var syncErr *SyncError
			require.True(t, errors.As(err, &syncErr))
			assert.Equal(t, tt.wantState, syncErr.State)
			assert.Equal(t, tt.wantStep, syncErr.Step)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestSyncService_AbortPolicyStopsAtFirstFailure(t *testing.T) {
	api := &fakeAPI{
		items:     threeItems(),
		orders:    map[string][]model.Order{"a": {sell("o1", 10)}, "c": {sell("o3", 30)}},
		orderErrs: map[string]error{"b": errors.New("http 500")},
	}
	repo := &fakeRepo{}

	svc := NewSyncService(api, repo, nil, SyncOptions{NominalBase: "https://x.test/v1", FailurePolicy: config.FailurePolicyAbort})
	report, err := svc.Run(context.Background())

	var syncErr *SyncError
	require.True(t, errors.As(err, &syncErr))
	assert.Equal(t, "fetch orders for b", syncErr.Step)
	assert.Equal(t, []string{"a", "b"}, api.fetched)

	// Items and the first item's orders stay committed.
	assert.Len(t, repo.items, 3)
	assert.Len(t, repo.orders["1"], 1)
	assert.NotContains(t, repo.orders, "3")
	assert.Equal(t, string(StateAborted), report.State)
}

func TestSyncService_ContinuePolicyRecordsFailures(t *testing.T) {
	api := &fakeAPI{
		items:     threeItems(),
		orders:    map[string][]model.Order{"a": {sell("o1", 10)}, "c": {sell("o3", 30)}},
		orderErrs: map[string]error{"b": errors.New("http 500")},
	}
	repo := &fakeRepo{}

	svc := NewSyncService(api, repo, nil, SyncOptions{NominalBase: "https://x.test/v1", FailurePolicy: config.FailurePolicyContinue})
	report, err := svc.Run(context.Background())

	var partial *PartialSyncError
	require.True(t, errors.As(err, &partial))
	require.Len(t, partial.Failures, 1)
	assert.Equal(t, "b", partial.Failures[0].URLName)
	assert.Equal(t, 3, partial.Attempted)
	assert.Contains(t, err.Error(), "1 of 3 items failed")

	assert.Len(t, repo.orders["3"], 1)
	assert.Equal(t, 2, report.ItemsSynced)
	assert.Equal(t, 2, report.OrdersPersisted)
	assert.Len(t, report.Failures, 1)
}

func TestSyncService_SavesReport(t *testing.T) {
	reports := cache.NewMemoryCache()
	defer reports.Close()

	api := &fakeAPI{items: threeItems()}
	svc := NewSyncService(api, &fakeRepo{}, reports, SyncOptions{NominalBase: "https://x.test/v1", Limit: 1})
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{LastReportKey, RunReportKey(report.RunID)} {
		data, err := reports.Get(ctx, key)
		require.NoError(t, err)

		var saved model.SyncReport
		require.NoError(t, json.Unmarshal(data, &saved))
		assert.Equal(t, report.RunID, saved.RunID)
		assert.Equal(t, string(StateDone), saved.State)
	}
}

func TestSyncService_SavesReportOnAbort(t *testing.T) {
	reports := cache.NewMemoryCache()
	defer reports.Close()

	api := &fakeAPI{resolveErr: errors.New("unreachable")}
	svc := NewSyncService(api, &fakeRepo{}, reports, SyncOptions{NominalBase: "https://x.test/v1"})
	_, err := svc.Run(context.Background())
	require.Error(t, err)

	got, err := NewMarketService(nil, reports).LastReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(StateAborted), got.State)
	assert.Contains(t, got.Error, "unreachable")
}
