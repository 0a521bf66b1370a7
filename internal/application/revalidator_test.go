package application

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/ports/mocks"
)

func TestRevalidatorRunOnceSkipsFreshStatus(t *testing.T) {
	t.Parallel()

	remote := mocks.NewMockRemoteEntitlementProvider(t)
	fx := newEngineFixture(t, remote, nil)
	fx.broadcaster.Publish(domain.NewStatus(domain.SourceRemote, nil, "yearly", testNow))
	revalidator := NewRevalidator(fx.engine, fx.broadcaster, time.Minute, fx.clock, zerolog.Nop())

	fx.clock.Advance(time.Hour)
	assert.False(t, revalidator.RunOnce(context.Background()))
}

func TestRevalidatorRunOnceValidatesStaleStatus(t *testing.T) {
	t.Parallel()

	remote := mocks.NewMockRemoteEntitlementProvider(t)
	fx := newEngineFixture(t, remote, nil)
	fx.broadcaster.Publish(domain.NewStatus(domain.SourceRemote, nil, "yearly", testNow))
	revalidator := NewRevalidator(fx.engine, fx.broadcaster, time.Minute, fx.clock, zerolog.Nop())

	remote.EXPECT().GetEntitlement(mockAnyContext()).Return(domain.RemoteEntitlement{Active: false}, nil).Once()

	fx.clock.Advance(25 * time.Hour)
	assert.True(t, revalidator.RunOnce(context.Background()))
	assert.False(t, fx.broadcaster.Current().Valid)
}

func TestRevalidatorStartStop(t *testing.T) {
	t.Parallel()

	fx := newEngineFixture(t, nil, nil)
	revalidator := NewRevalidator(fx.engine, fx.broadcaster, 0, fx.clock, zerolog.Nop())
	assert.Equal(t, DefaultRevalidationTick, revalidator.tick)

	require.NoError(t, revalidator.Start())
	assert.ErrorContains(t, revalidator.Start(), "already running")

	<-revalidator.Stop().Done()
	<-revalidator.Stop().Done()
}
