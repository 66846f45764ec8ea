package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"wfmarket-sync/internal/cache"
	"wfmarket-sync/internal/config"
	"wfmarket-sync/internal/marketapi"
	"wfmarket-sync/internal/model"
	"wfmarket-sync/internal/repository"
	"wfmarket-sync/pkg/uid"
)

// State is a step of a sync pass.
type State string

const (
	StateIdle            State = "idle"
	StateSchemaReady     State = "schema_ready"
	StateBaseResolved    State = "base_resolved"
	StateCatalogFetched  State = "catalog_fetched"
	StateItemsPersisted  State = "items_persisted"
	StateOrdersFetched   State = "orders_fetched"
	StateOrdersPersisted State = "orders_persisted"
	StateDone            State = "done"
	StateAborted         State = "aborted"
)

// Report cache keys.
const (
	LastReportKey   = "sync:last"
	runReportPrefix = "sync:run:"
)

// RunReportKey returns the cache key of a single run's report.
func RunReportKey(runID string) string {
	return runReportPrefix + runID
}

// MarketAPI is the part of the marketplace client the sync depends on.
type MarketAPI interface {
	ResolveBase(ctx context.Context, nominal string) (string, error)
	FetchItems(ctx context.Context, base string) ([]model.Item, error)
	FetchOrders(ctx context.Context, base, urlName string) ([]model.Order, error)
}

// SyncError aborts a run. State is the last state reached and Step names
// the operation that failed.
type SyncError struct {
	State State
	Step  string
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync aborted after %s: %s: %v", e.State, e.Step, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// PartialSyncError ends a run under the continue policy when at least one
// item's order book could not be synced.
type PartialSyncError struct {
	Attempted int
	Failures  []model.ItemFailure
}

func (e *PartialSyncError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d items failed to sync", len(e.Failures), e.Attempted)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  %s (%s): %s", f.URLName, f.ItemID, f.Error)
	}
	return b.String()
}

// SyncOptions configures one pass.
type SyncOptions struct {
	NominalBase       string
	Limit             int // 0 syncs order books for the whole catalog
	FailurePolicy     string
	AllowEmptyCatalog bool
	ReportTTL         time.Duration
}

// SyncService runs catalog and order book syncs against a market repository.
type SyncService struct {
	api     MarketAPI
	repo    repository.MarketRepository
	reports cache.Cache
	opts    SyncOptions
	now     func() time.Time
}

// NewSyncService creates a sync service. reports may be nil, in which case
// run reports are only logged.
func NewSyncService(api MarketAPI, repo repository.MarketRepository, reports cache.Cache, opts SyncOptions) *SyncService {
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = config.FailurePolicyAbort
	}
	return &SyncService{
		api:     api,
		repo:    repo,
		reports: reports,
		opts:    opts,
		now:     time.Now,
	}
}

// Run executes one full pass. The returned report is never nil and is
// final whether or not the run succeeded.
func (s *SyncService) Run(ctx context.Context) (*model.SyncReport, error) {
	report := &model.SyncReport{
		RunID:       uid.New(),
		NominalBase: s.opts.NominalBase,
		State:       string(StateIdle),
		StartedAt:   s.now(),
	}

	log.Printf("[SyncService] Run %s started: base=%s limit=%d policy=%s",
		report.RunID, s.opts.NominalBase, s.opts.Limit, s.opts.FailurePolicy)

	err := s.run(ctx, report)
	report.FinishedAt = s.now()

	var partial *PartialSyncError
	switch {
	case err == nil:
		report.State = string(StateDone)
	case errors.As(err, &partial):
		report.State = string(StateDone)
		report.Error = err.Error()
	default:
		report.State = string(StateAborted)
		report.Error = err.Error()
	}

	log.Printf("[SyncService] Run %s finished: state=%s items=%d synced=%d orders=%d failures=%d took=%v",
		report.RunID, report.State, report.ItemsFetched, report.ItemsSynced,
		report.OrdersPersisted, len(report.Failures), report.Duration())

	s.saveReport(report)
	return report, err
}

func (s *SyncService) run(ctx context.Context, report *model.SyncReport) error {
	state := StateIdle
	advance := func(next State) {
		state = next
		report.State = string(next)
	}
	abort := func(step string, err error) error {
		return &SyncError{State: state, Step: step, Err: err}
	}

	if err := s.repo.EnsureSchema(ctx); err != nil {
		return abort("ensure schema", err)
	}
	advance(StateSchemaReady)

	base, err := s.api.ResolveBase(ctx, s.opts.NominalBase)
	if err != nil {
		return abort("resolve base", err)
	}
	report.ResolvedBase = base
	if base != marketapi.NormalizeBase(s.opts.NominalBase) {
		log.Printf("[SyncService] Using fallback base %s instead of %s", base, s.opts.NominalBase)
	}
	advance(StateBaseResolved)

	items, err := s.api.FetchItems(ctx, base)
	if err != nil {
		var empty *marketapi.EmptyCatalogError
		if !errors.As(err, &empty) || !s.opts.AllowEmptyCatalog {
			return abort("fetch catalog", err)
		}
		log.Printf("[SyncService] Catalog at %s is empty, nothing to sync", empty.URL)
		items = nil
	}
	report.ItemsFetched = len(items)
	advance(StateCatalogFetched)

	seen := s.now()
	for i := range items {
		items[i].LastSeen = seen
	}
	if err := s.repo.UpsertItems(ctx, items); err != nil {
		return abort("persist items", err)
	}
	advance(StateItemsPersisted)
	log.Printf("[SyncService] Persisted %d items", len(items))

	prefix := items
	if s.opts.Limit > 0 && s.opts.Limit < len(prefix) {
		prefix = prefix[:s.opts.Limit]
	}

	for _, item := range prefix {
		step, n, err := s.syncItem(ctx, base, item, advance)
		if err == nil {
			report.ItemsSynced++
			report.OrdersPersisted += n
			continue
		}

		if s.opts.FailurePolicy != config.FailurePolicyContinue || ctx.Err() != nil {
			return abort(step, err)
		}
		log.Printf("[SyncService] %s failed, continuing: %v", step, err)
		report.Failures = append(report.Failures, model.ItemFailure{
			ItemID:  item.ID,
			URLName: item.URLName,
			Error:   err.Error(),
		})
	}

	if len(report.Failures) > 0 {
		return &PartialSyncError{Attempted: len(prefix), Failures: report.Failures}
	}
	return nil
}

// syncItem fetches and persists one item's order book. It returns the
// failing step name on error and the number of orders persisted on success.
func (s *SyncService) syncItem(ctx context.Context, base string, item model.Item, advance func(State)) (string, int, error) {
	orders, err := s.api.FetchOrders(ctx, base, item.URLName)
	if err != nil {
		return "fetch orders for " + item.URLName, 0, err
	}
	advance(StateOrdersFetched)

	for i := range orders {
		orders[i].ItemID = item.ID
	}
	if err := s.repo.UpsertOrders(ctx, item.ID, orders); err != nil {
		return "persist orders for " + item.URLName, 0, err
	}
	advance(StateOrdersPersisted)
	return "", len(orders), nil
}

// saveReport writes the report to the report cache. Failures are logged only.
func (s *SyncService) saveReport(report *model.SyncReport) {
	if s.reports == nil {
		return
	}

	data, err := json.Marshal(report)
	if err != nil {
		log.Printf("[SyncService] Failed to encode report %s: %v", report.RunID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, key := range []string{LastReportKey, RunReportKey(report.RunID)} {
		if err := s.reports.Set(ctx, key, data, s.opts.ReportTTL); err != nil {
			log.Printf("[SyncService] Failed to save report %s: %v", report.RunID, err)
			return
		}
	}
}
