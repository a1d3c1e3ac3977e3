package snapshot

import (
	"context"
	"sync"

	"github.com/2beens/liftlog/internal/exercises"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// Subscriber is notified with the complete record set of an owner every time it changes.
// The records slice is shared between subscribers and must not be modified.
type Subscriber interface {
	OnSnapshot(owner string, records []exercises.Record)
}

type SubscriberFunc func(owner string, records []exercises.Record)

func (f SubscriberFunc) OnSnapshot(owner string, records []exercises.Record) {
	f(owner, records)
}

type subscription struct {
	id    uint64
	owner string // empty for subscriptions to all owners
	sub   Subscriber
}

// Feed fans record snapshots out to subscribers. Delivery is synchronous and in
// subscription order, so a subscriber has seen a snapshot once Publish returns.
type Feed struct {
	mutex         sync.RWMutex
	nextID        uint64
	subscriptions []subscription
	metrics       *metrics.Manager
}

func NewFeed(metricsManager *metrics.Manager) *Feed {
	return &Feed{
		metrics: metricsManager,
	}
}

// Subscribe registers sub for snapshots of a single owner.
func (f *Feed) Subscribe(owner string, sub Subscriber) (unsubscribe func()) {
	return f.add(owner, sub)
}

// SubscribeAll registers sub for snapshots of every owner.
func (f *Feed) SubscribeAll(sub Subscriber) (unsubscribe func()) {
	return f.add("", sub)
}

func (f *Feed) add(owner string, sub Subscriber) func() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.nextID++
	id := f.nextID
	f.subscriptions = append(f.subscriptions, subscription{
		id:    id,
		owner: owner,
		sub:   sub,
	})
	f.metrics.GaugeSnapshotSubscribers.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.remove(id)
		})
	}
}

func (f *Feed) remove(id uint64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for i, s := range f.subscriptions {
		if s.id == id {
			f.subscriptions = append(f.subscriptions[:i], f.subscriptions[i+1:]...)
			f.metrics.GaugeSnapshotSubscribers.Dec()
			return
		}
	}
}

// Publish delivers a copy of records to all subscribers of owner.
func (f *Feed) Publish(ctx context.Context, owner string, records []exercises.Record) {
	_, span := tracing.GlobalTracer.Start(ctx, "snapshot.feed.publish")
	defer span.End()

	snapshot := make([]exercises.Record, len(records))
	copy(snapshot, records)

	f.mutex.RLock()
	targets := make([]Subscriber, 0, len(f.subscriptions))
	for _, s := range f.subscriptions {
		if s.owner == "" || s.owner == owner {
			targets = append(targets, s.sub)
		}
	}
	f.mutex.RUnlock()

	span.SetAttributes(
		attribute.Int("records.count", len(snapshot)),
		attribute.Int("subscribers.count", len(targets)),
	)

	// subscribers run outside the lock so they may unsubscribe themselves
	for _, sub := range targets {
		sub.OnSnapshot(owner, snapshot)
	}
	f.metrics.CounterSnapshotPushes.Inc()
}
