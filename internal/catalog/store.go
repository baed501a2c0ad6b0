package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"finhealth/internal/engine"
	"finhealth/internal/observability"
)

// ErrNoSource is returned by Reload on a store built without a source
var ErrNoSource = errors.New("catalog store has no source")

// Store publishes catalog snapshots. Readers take one snapshot per request and keep using it,
// so a reload never changes a pass already in progress. An invalid catalog is never published.
type Store struct {
	current atomic.Pointer[engine.Snapshot]
	source  Source
	logger  *observability.Logger
	metrics *observability.Metrics

	reloadMu   sync.Mutex
	loadedAt   atomic.Int64
	listenerMu sync.RWMutex
	listeners  []func(*engine.Snapshot)
}

// NewStore starts from an empty snapshot; call Reload before serving
func NewStore(source Source, logger *observability.Logger, metrics *observability.Metrics) *Store {
	if logger == nil {
		logger = observability.NopLogger()
	}
	s := &Store{
		source:  source,
		logger:  logger.Component("catalog"),
		metrics: metrics,
	}
	s.current.Store(engine.EmptySnapshot())
	return s
}

// Snapshot returns the current snapshot
func (s *Store) Snapshot() *engine.Snapshot {
	return s.current.Load()
}

// LoadedAt is when the current snapshot was published; zero before the first reload
func (s *Store) LoadedAt() time.Time {
	ns := s.loadedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// OnChange registers fn to run after every published snapshot
func (s *Store) OnChange(fn func(*engine.Snapshot)) {
	s.listenerMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenerMu.Unlock()
}

// Reload loads the catalog from the source, validates it and swaps it in.
// It reports whether a new version was published.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	if s.source == nil {
		return false, ErrNoSource
	}
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	data, err := s.source.Load(ctx)
	if err != nil {
		s.metrics.ObserveCatalogReload(observability.ReloadFailed, "")
		s.logger.Error("catalog load failed", "source", s.source.Name(), "error", err)
		return false, fmt.Errorf("load catalog from %s: %w", s.source.Name(), err)
	}
	if err := engine.ValidateCatalog(data); err != nil {
		s.metrics.ObserveCatalogReload(observability.ReloadRejected, "")
		s.logger.Warn("catalog rejected", "source", s.source.Name(), "error", err)
		return false, err
	}

	next := engine.NewSnapshot(data)
	if next.Version() == s.Snapshot().Version() {
		s.metrics.ObserveCatalogReload(observability.ReloadUnchanged, next.Version())
		s.logger.Debug("catalog unchanged", "version", next.Version())
		return false, nil
	}

	s.publish(next)
	s.metrics.ObserveCatalogReload(observability.ReloadApplied, next.Version())
	s.logger.Info("catalog published", append([]any{"source", s.source.Name(), "version", next.Version()}, statsArgs(next)...)...)
	return true, nil
}

func (s *Store) publish(next *engine.Snapshot) {
	s.current.Store(next)
	s.loadedAt.Store(time.Now().UnixNano())

	s.listenerMu.RLock()
	listeners := make([]func(*engine.Snapshot), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(next)
	}
}

func statsArgs(snap *engine.Snapshot) []any {
	var args []any
	for k, v := range snap.Stats() {
		args = append(args, k, v)
	}
	return args
}
