package menusuperv

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostpatch/hostpatch/internal/core/registry"
	"github.com/hostpatch/hostpatch/internal/core/waiter"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRefresher) ForceRefresh(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestWaiter(reg registry.Registry, critical registry.Query) *waiter.Waiter {
	return waiter.NewWaiter(reg, &waiter.Opts{
		Critical:     critical,
		QueryTimeout: 10 * time.Millisecond,
		RetryDelay:   5 * time.Millisecond,
		MaxAttempts:  2,
	})
}

func TestMenuSupervisor_WatchdogDisarmedWhenComponentPresent(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	critical := registry.ByName("menu")
	reg.Publish(registry.Component{Name: "menu"}, "")

	refresher := &fakeRefresher{}
	s := NewMenuSupervisor(newTestWaiter(reg, critical), reg, critical, refresher, &Opts{
		WatchdogDelay: 20 * time.Millisecond,
		FallbackDelay: 40 * time.Millisecond,
	})

	require.NoError(t, s.Run(context.Background()))

	// The fallback run still happened (and succeeded), but the watchdog
	// never escalated.
	assert.Equal(t, 0, refresher.count())
}

func TestMenuSupervisor_WatchdogEscalatesToRefresh(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	critical := registry.ByName("menu")

	refresher := &fakeRefresher{}
	s := NewMenuSupervisor(newTestWaiter(reg, critical), reg, critical, refresher, &Opts{
		WatchdogDelay: 10 * time.Millisecond,
		FallbackDelay: 20 * time.Millisecond,
	})

	require.NoError(t, s.Run(context.Background()))

	// Only the watchdog path forces a refresh; the fallback run fails
	// quietly.
	assert.Equal(t, 1, refresher.count())
}

func TestMenuSupervisor_LateArrivalDisarmsWatchdogButFallbackStays(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	critical := registry.ByName("menu")

	go func() {
		time.Sleep(15 * time.Millisecond)
		reg.Publish(registry.Component{Name: "menu"}, "")
	}()

	refresher := &fakeRefresher{}
	s := NewMenuSupervisor(newTestWaiter(reg, critical), reg, critical, refresher, &Opts{
		WatchdogDelay: 60 * time.Millisecond,
		FallbackDelay: 30 * time.Millisecond,
	})

	start := time.Now()
	require.NoError(t, s.Run(context.Background()))

	// Run returned before the watchdog would have fired on its own
	// schedule plus a waiter cycle.
	assert.Equal(t, 0, refresher.count())
	assert.Less(t, time.Since(start), 60*time.Millisecond+time.Second)
}

func TestMenuSupervisor_ContextCanceled(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	critical := registry.ByName("menu")

	refresher := &fakeRefresher{}
	s := NewMenuSupervisor(newTestWaiter(reg, critical), reg, critical, refresher, &Opts{
		WatchdogDelay: time.Hour,
		FallbackDelay: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop on context cancel")
	}
	assert.Equal(t, 0, refresher.count())
}

func TestMenuSupervisor_AppliesDefaults(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	critical := registry.ByName("menu")

	s := NewMenuSupervisor(newTestWaiter(reg, critical), reg, critical, &fakeRefresher{}, &Opts{})
	assert.Equal(t, DefaultWatchdogDelay, s.opts.WatchdogDelay)
	assert.Equal(t, DefaultFallbackDelay, s.opts.FallbackDelay)
}
