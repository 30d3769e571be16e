package syncpause

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFlags struct {
	mu     sync.Mutex
	values map[string]bool
	setErr error
}

func newFakeFlags() *fakeFlags {
	return &fakeFlags{values: map[string]bool{SettingsSyncFlag: true}}
}

func (f *fakeFlags) SetFlag(_ context.Context, name string, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[name] = value
	return nil
}

func (f *fakeFlags) Flag(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name], nil
}

// captureScheduler hands the scheduled callback to the test instead of
// arming a timer.
type captureScheduler struct {
	mu sync.Mutex
	d  time.Duration
	fn func()
}

func (s *captureScheduler) After(d time.Duration, _ string, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d = d
	s.fn = fn
	return func() {}
}

func TestPause_DisablesThenRestores(t *testing.T) {
	flags := newFakeFlags()
	sched := &captureScheduler{}

	require.NoError(t, Pause(context.Background(), flags, sched, 5*time.Second))

	v, err := flags.Flag(context.Background(), SettingsSyncFlag)
	require.NoError(t, err)
	assert.False(t, v)
	assert.Equal(t, 5*time.Second, sched.d)

	require.NotNil(t, sched.fn)
	sched.fn()

	v, err = flags.Flag(context.Background(), SettingsSyncFlag)
	require.NoError(t, err)
	assert.True(t, v)
}

func TestPause_RestoreOverridesIntermediateWrites(t *testing.T) {
	flags := newFakeFlags()
	sched := &captureScheduler{}

	require.NoError(t, Pause(context.Background(), flags, sched, time.Second))

	// Some other actor flips the flag during the window. The restore
	// still forces it back on.
	require.NoError(t, flags.SetFlag(context.Background(), SettingsSyncFlag, false))
	sched.fn()

	v, err := flags.Flag(context.Background(), SettingsSyncFlag)
	require.NoError(t, err)
	assert.True(t, v)
}

func TestPause_DefaultWindow(t *testing.T) {
	flags := newFakeFlags()
	sched := &captureScheduler{}

	require.NoError(t, Pause(context.Background(), flags, sched, 0))
	assert.Equal(t, DefaultWindow, sched.d)
}

func TestPause_SetFlagErrorPropagates(t *testing.T) {
	flags := newFakeFlags()
	flags.setErr = errors.New("host unreachable")
	sched := &captureScheduler{}

	err := Pause(context.Background(), flags, sched, time.Second)
	require.Error(t, err)
	assert.Nil(t, sched.fn)
}
