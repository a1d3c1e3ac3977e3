package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/liftlog/internal/analytics"
	"github.com/2beens/liftlog/internal/exercises"
	"github.com/2beens/liftlog/internal/snapshot"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
)

const (
	megabyte         = 1024 * 1024
	viewCacheExpire  = 10 * 60 // seconds
	watcherQueueSize = 1
)

var _ snapshot.Subscriber = (*Store)(nil)

type snapshotLoader interface {
	Snapshot(ctx context.Context, owner string) ([]exercises.Record, error)
}

// Store keeps the latest dashboard view per owner. Views are replaced whenever the
// feed pushes a new snapshot and are loaded lazily for owners not seen since startup.
// Every push bumps the owner's generation; a lazily loaded view, or its cached JSON,
// is only kept while no newer push has arrived.
type Store struct {
	mutex       sync.RWMutex
	views       map[string]View
	generations map[string]uint64
	watchers    map[string]map[chan View]struct{}

	cache   *freecache.Cache
	loader  snapshotLoader
	metrics *metrics.Manager
	now     func() time.Time
}

func NewStore(
	loader snapshotLoader,
	metricsManager *metrics.Manager,
	cacheSizeMB int,
	now func() time.Time,
) *Store {
	if now == nil {
		now = time.Now
	}
	if cacheSizeMB <= 0 {
		cacheSizeMB = 1
	}
	return &Store{
		views:       make(map[string]View),
		generations: make(map[string]uint64),
		watchers:    make(map[string]map[chan View]struct{}),
		cache:       freecache.NewCache(cacheSizeMB * megabyte),
		loader:      loader,
		metrics:     metricsManager,
		now:         now,
	}
}

// OnSnapshot recomputes the owner's view from a fresh snapshot and notifies watchers.
func (s *Store) OnSnapshot(owner string, records []exercises.Record) {
	s.mutex.Lock()
	s.generations[owner]++
	generation := s.generations[owner]
	s.mutex.Unlock()

	view := s.compute(owner, records)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.storeLocked(owner, generation, view) {
		// a newer snapshot already replaced the view
		return
	}
	for ch := range s.watchers[owner] {
		sendLatest(ch, view)
	}
}

func (s *Store) compute(owner string, records []exercises.Record) View {
	start := time.Now()
	view := Compute(owner, records, s.now())
	s.metrics.HistogramRecomputeDuration.Observe(time.Since(start).Seconds())
	log.Tracef("dashboard view recomputed for %s: %d records", owner, len(records))
	return view
}

// storeLocked keeps view if generation is still the owner's latest. The mutex must be held.
func (s *Store) storeLocked(owner string, generation uint64, view View) bool {
	if s.generations[owner] != generation {
		return false
	}
	s.views[owner] = view
	s.evict(owner, view.ComputedAt)
	return true
}

// View returns the current view of the owner. A view computed on an earlier calendar
// day is reloaded, since streaks and recent counts depend on the current date.
func (s *Store) View(ctx context.Context, owner string) (View, error) {
	view, _, err := s.view(ctx, owner)
	return view, err
}

func (s *Store) view(ctx context.Context, owner string) (View, uint64, error) {
	s.mutex.RLock()
	view, ok := s.views[owner]
	generation := s.generations[owner]
	s.mutex.RUnlock()

	now := s.now()
	if ok && analytics.DateKey(view.ComputedAt, now.Location()) == analytics.DateKey(now, now.Location()) {
		return view, generation, nil
	}

	records, err := s.loader.Snapshot(ctx, owner)
	if err != nil {
		return View{}, 0, fmt.Errorf("load snapshot: %w", err)
	}
	loaded := s.compute(owner, records)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.storeLocked(owner, generation, loaded) {
		return loaded, generation, nil
	}

	// pushed while loading; the pushed view is newer than what was loaded
	if pushed, ok := s.views[owner]; ok {
		return pushed, s.generations[owner], nil
	}
	return loaded, generation, nil
}

// JSON returns the marshalled view narrowed to category, served from cache when possible.
func (s *Store) JSON(ctx context.Context, owner string, category exercises.Category) ([]byte, error) {
	key := cacheKey(owner, category, s.now())
	if viewBytes, err := s.cache.Get(key); err == nil {
		log.Tracef("dashboard view for %s [%s] found in cache", owner, category)
		return viewBytes, nil
	}

	view, generation, err := s.view(ctx, owner)
	if err != nil {
		return nil, err
	}

	viewBytes, err := json.Marshal(view.ForCategory(category))
	if err != nil {
		return nil, fmt.Errorf("marshal view: %w", err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.generations[owner] != generation {
		return viewBytes, nil
	}
	if err := s.cache.Set(key, viewBytes, viewCacheExpire); err != nil {
		if errors.Is(err, freecache.ErrLargeEntry) {
			// served from the in-memory view without caching
			log.Tracef("dashboard view for %s [%s] too large to cache: %d bytes", owner, category, len(viewBytes))
		} else {
			log.Errorf("failed to cache dashboard view for %s: %s", owner, err)
		}
	}

	return viewBytes, nil
}

// Watch returns a channel receiving every view recomputed for owner from now on.
// Slow readers only get the newest view. cancel must be called to release the watcher.
func (s *Store) Watch(owner string) (<-chan View, func()) {
	ch := make(chan View, watcherQueueSize)

	s.mutex.Lock()
	if s.watchers[owner] == nil {
		s.watchers[owner] = make(map[chan View]struct{})
	}
	s.watchers[owner][ch] = struct{}{}
	s.mutex.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mutex.Lock()
			defer s.mutex.Unlock()
			if set := s.watchers[owner]; set != nil {
				delete(set, ch)
				if len(set) == 0 {
					delete(s.watchers, owner)
				}
			}
		})
	}
	return ch, cancel
}

func (s *Store) evict(owner string, at time.Time) {
	s.cache.Del(cacheKey(owner, "", at))
	for _, c := range exercises.Categories() {
		s.cache.Del(cacheKey(owner, c, at))
	}
}

func cacheKey(owner string, category exercises.Category, at time.Time) []byte {
	return []byte(fmt.Sprintf("%s::%s::%s", owner, category, analytics.DateKey(at, at.Location())))
}

// sendLatest queues view, replacing a view the watcher has not picked up yet.
func sendLatest(ch chan View, view View) {
	for {
		select {
		case ch <- view:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
