package application

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/metrics"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const broadcastQueueSize = 64

type broadcastEvent struct {
	status  *domain.Status
	feature string
}

// Broadcaster holds the current entitlement status and fans changes out to
// subscribers. Listeners run one at a time on a dedicated goroutine, in
// publish order, so a listener may call back into the engine.
type Broadcaster struct {
	clock   ports.Clock
	logger  zerolog.Logger
	metrics *metrics.Collector

	current atomic.Pointer[domain.Status]

	publishMu sync.Mutex
	queue     chan broadcastEvent
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]func(domain.Status)
	paywall   map[uint64]func(string)
	attached  map[string]func()
}

func NewBroadcaster(clock ports.Clock, logger zerolog.Logger, recorder *metrics.Collector) *Broadcaster {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	b := &Broadcaster{
		clock:     clock,
		logger:    logger.With().Str("component", "broadcaster").Logger(),
		metrics:   recorder,
		queue:     make(chan broadcastEvent, broadcastQueueSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		listeners: make(map[uint64]func(domain.Status)),
		paywall:   make(map[uint64]func(string)),
		attached:  make(map[string]func()),
	}
	go b.dispatch()

	return b
}

// Current returns the last published status with validity re-evaluated
// against the clock. Before the first publish it reports no entitlement.
func (b *Broadcaster) Current() domain.Status {
	now := b.clock.Now()
	status := b.current.Load()
	if status == nil {
		return domain.InvalidStatus(domain.SourceNone, now)
	}

	return status.At(now)
}

// Published reports whether any status has been published yet.
func (b *Broadcaster) Published() bool {
	return b.current.Load() != nil
}

func (b *Broadcaster) Publish(status domain.Status) {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	stored := status
	b.current.Store(&stored)
	b.metrics.ObserveBroadcast()
	b.enqueue(broadcastEvent{status: &stored})
}

// SignalPaywall asks paywall listeners to present the upgrade surface.
func (b *Broadcaster) SignalPaywall(feature string) {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	b.enqueue(broadcastEvent{feature: feature})
}

// Subscribe registers fn for every subsequent publish.
func (b *Broadcaster) Subscribe(fn func(domain.Status)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *Broadcaster) OnPaywall(fn func(feature string)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.paywall[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.paywall, id)
			b.mu.Unlock()
		})
	}
}

// AttachOnce runs attach the first time name is seen and keeps the returned
// detach function. It reports whether attach ran.
func (b *Broadcaster) AttachOnce(name string, attach func() (detach func())) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.attached[name]; ok {
		return false
	}

	detach := attach()
	if detach == nil {
		detach = func() {}
	}
	b.attached[name] = detach
	b.logger.Debug().Str("listener", name).Msg("provider listener attached")

	return true
}

func (b *Broadcaster) Attached(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.attached[name]
	return ok
}

// DetachAll releases every provider listener registered through AttachOnce.
func (b *Broadcaster) DetachAll() {
	b.mu.Lock()
	attached := b.attached
	b.attached = make(map[string]func())
	b.mu.Unlock()

	for name, detach := range attached {
		detach()
		b.logger.Debug().Str("listener", name).Msg("provider listener detached")
	}
}

// Close stops delivery. Events still queued are dropped.
func (b *Broadcaster) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		<-b.stopped
	})
}

func (b *Broadcaster) enqueue(event broadcastEvent) {
	select {
	case <-b.done:
		return
	default:
	}

	select {
	case b.queue <- event:
	case <-b.done:
	}
}

func (b *Broadcaster) dispatch() {
	defer close(b.stopped)

	for {
		select {
		case <-b.done:
			return
		case event := <-b.queue:
			b.deliver(event)
		}
	}
}

func (b *Broadcaster) deliver(event broadcastEvent) {
	if event.status != nil {
		for _, fn := range b.statusListeners() {
			fn(*event.status)
		}
		return
	}

	for _, fn := range b.paywallListeners() {
		fn(event.feature)
	}
}

func (b *Broadcaster) statusListeners() []func(domain.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]func(domain.Status), 0, len(b.listeners))
	for _, id := range sortedIDs(b.listeners) {
		out = append(out, b.listeners[id])
	}
	return out
}

func (b *Broadcaster) paywallListeners() []func(string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]func(string), 0, len(b.paywall))
	for _, id := range sortedIDs(b.paywall) {
		out = append(out, b.paywall[id])
	}
	return out
}

func sortedIDs[V any](m map[uint64]V) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
