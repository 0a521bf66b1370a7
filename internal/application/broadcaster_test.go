package application

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

func newTestBroadcaster(t *testing.T, clock *fixedClock) *Broadcaster {
	t.Helper()

	b := NewBroadcaster(clock, zerolog.Nop(), nil)
	t.Cleanup(b.Close)
	return b
}

func TestBroadcasterCurrentBeforePublish(t *testing.T) {
	t.Parallel()

	b := newTestBroadcaster(t, newFixedClock(testNow))

	current := b.Current()
	assert.False(t, current.Valid)
	assert.Equal(t, domain.SourceNone, current.Source)
	assert.False(t, b.Published())
}

func TestBroadcasterDeliversInPublishOrder(t *testing.T) {
	t.Parallel()

	b := newTestBroadcaster(t, newFixedClock(testNow))
	first := statusRecorder(b)
	second := statusRecorder(b)

	valid := domain.NewStatus(domain.SourceRemote, domain.TimePtr(testNow.Add(time.Hour)), "yearly", testNow)
	invalid := domain.InvalidStatus(domain.SourceNone, testNow)
	b.Publish(valid)
	b.Publish(invalid)

	for _, ch := range []<-chan domain.Status{first, second} {
		assert.True(t, receiveStatus(t, ch).Valid)
		assert.False(t, receiveStatus(t, ch).Valid)
	}
	assert.True(t, b.Current().Equivalent(invalid))
}

func TestBroadcasterCurrentRechecksExpiry(t *testing.T) {
	t.Parallel()

	clock := newFixedClock(testNow)
	b := newTestBroadcaster(t, clock)
	b.Publish(domain.NewStatus(domain.SourceStore, domain.TimePtr(testNow.Add(time.Hour)), "monthly", testNow))

	assert.True(t, b.Current().Valid)
	clock.Advance(2 * time.Hour)
	assert.False(t, b.Current().Valid)
}

func TestBroadcasterUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	b := newTestBroadcaster(t, newFixedClock(testNow))
	calls := make(chan domain.Status, 4)
	unsubscribe := b.Subscribe(func(status domain.Status) { calls <- status })
	keep := statusRecorder(b)

	unsubscribe()
	unsubscribe()
	b.Publish(domain.InvalidStatus(domain.SourceNone, testNow))

	receiveStatus(t, keep)
	assert.Empty(t, calls)
}

func TestBroadcasterListenerMaySubscribeDuringDelivery(t *testing.T) {
	t.Parallel()

	b := newTestBroadcaster(t, newFixedClock(testNow))
	nested := make(chan domain.Status, 4)
	b.Subscribe(func(domain.Status) {
		b.Subscribe(func(status domain.Status) { nested <- status })
		_ = b.Current()
	})

	b.Publish(domain.InvalidStatus(domain.SourceNone, testNow))
	b.Publish(domain.InvalidStatus(domain.SourceError, testNow))

	assert.Equal(t, domain.SourceError, receiveStatus(t, nested).Source)
}

func TestBroadcasterPaywallSignal(t *testing.T) {
	t.Parallel()

	b := newTestBroadcaster(t, newFixedClock(testNow))
	features := make(chan string, 1)
	b.OnPaywall(func(feature string) { features <- feature })

	b.SignalPaywall("workout_plans")

	select {
	case feature := <-features:
		assert.Equal(t, "workout_plans", feature)
	case <-time.After(2 * time.Second):
		t.Fatal("paywall not signalled")
	}
}

func TestBroadcasterAttachOnceIsIdempotent(t *testing.T) {
	t.Parallel()

	b := newTestBroadcaster(t, newFixedClock(testNow))
	attaches, detaches := 0, 0
	attach := func() func() {
		attaches++
		return func() { detaches++ }
	}

	assert.True(t, b.AttachOnce("store.purchase_updated", attach))
	assert.False(t, b.AttachOnce("store.purchase_updated", attach))
	assert.True(t, b.Attached("store.purchase_updated"))
	assert.Equal(t, 1, attaches)

	b.DetachAll()
	assert.Equal(t, 1, detaches)
	assert.False(t, b.Attached("store.purchase_updated"))

	require.True(t, b.AttachOnce("store.purchase_updated", attach))
	assert.Equal(t, 2, attaches)
}

func TestBroadcasterPublishAfterCloseUpdatesCurrentOnly(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(newFixedClock(testNow), zerolog.Nop(), nil)
	calls := make(chan domain.Status, 1)
	b.Subscribe(func(status domain.Status) { calls <- status })
	b.Close()
	b.Close()

	b.Publish(domain.InvalidStatus(domain.SourceError, testNow))

	assert.Equal(t, domain.SourceError, b.Current().Source)
	assertNoStatus(t, calls)
}
