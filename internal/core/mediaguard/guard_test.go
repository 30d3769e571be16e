package mediaguard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDeviceBusy = errors.New("device busy")

// fakeDevices fails every call with the configured error and records the
// constraints it was called with.
type fakeDevices struct {
	sinkErr    error
	displayErr error

	userErrs  []error // consumed per call, nil entry means success
	userCalls []Constraints
	userOK    Stream
}

func (f *fakeDevices) SetSink(_ context.Context, _ string) error {
	return f.sinkErr
}

func (f *fakeDevices) GetDisplayMedia(_ context.Context, _ Constraints) (Stream, error) {
	if f.displayErr != nil {
		return Stream{}, f.displayErr
	}
	return Stream{ID: "display", Video: true}, nil
}

func (f *fakeDevices) GetUserMedia(_ context.Context, c Constraints) (Stream, error) {
	f.userCalls = append(f.userCalls, c)
	if len(f.userErrs) > 0 {
		err := f.userErrs[0]
		f.userErrs = f.userErrs[1:]
		if err != nil {
			return Stream{}, err
		}
	}
	return f.userOK, nil
}

func TestGuard_SetSinkSuppressed(t *testing.T) {
	inner := &fakeDevices{sinkErr: errDeviceBusy}
	g := NewGuard(inner, Policy{PreventCrash: true})

	require.NoError(t, g.SetSink(context.Background(), "speakers"))
}

func TestGuard_SetSinkPropagatesWhenDisabled(t *testing.T) {
	inner := &fakeDevices{sinkErr: errDeviceBusy}
	g := NewGuard(inner, Policy{PreventCrash: false})

	err := g.SetSink(context.Background(), "speakers")
	require.ErrorIs(t, err, errDeviceBusy)
}

func TestGuard_DisplayMediaFallsBackToEmptyStream(t *testing.T) {
	inner := &fakeDevices{displayErr: errDeviceBusy}
	g := NewGuard(inner, Policy{PreventCrash: true})

	s, err := g.GetDisplayMedia(context.Background(), Constraints{Video: true})
	require.NoError(t, err)
	assert.Equal(t, Stream{}, s)
}

func TestGuard_UserMediaRetriesAudioOnly(t *testing.T) {
	inner := &fakeDevices{
		userErrs: []error{errDeviceBusy, nil},
		userOK:   Stream{ID: "mic", Audio: true},
	}
	g := NewGuard(inner, Policy{PreventCrash: true})

	s, err := g.GetUserMedia(context.Background(), Constraints{Audio: true, Video: true})
	require.NoError(t, err)
	assert.Equal(t, "mic", s.ID)

	require.Len(t, inner.userCalls, 2)
	assert.Equal(t, Constraints{Audio: true, Video: true}, inner.userCalls[0])
	assert.Equal(t, Constraints{Audio: true, Video: false}, inner.userCalls[1])
}

func TestGuard_UserMediaRetryFailureFallsBack(t *testing.T) {
	inner := &fakeDevices{userErrs: []error{errDeviceBusy, errDeviceBusy}}
	g := NewGuard(inner, Policy{PreventCrash: true})

	s, err := g.GetUserMedia(context.Background(), Constraints{Video: true})
	require.NoError(t, err)
	assert.Equal(t, Stream{}, s)
	assert.Len(t, inner.userCalls, 2)
}

func TestGuard_UserMediaAudioOnlyDoesNotRetry(t *testing.T) {
	inner := &fakeDevices{userErrs: []error{errDeviceBusy}}
	g := NewGuard(inner, Policy{PreventCrash: true})

	s, err := g.GetUserMedia(context.Background(), Constraints{Audio: true})
	require.NoError(t, err)
	assert.Equal(t, Stream{}, s)
	assert.Len(t, inner.userCalls, 1)
}

func TestGuard_UserMediaPropagatesWhenDisabled(t *testing.T) {
	inner := &fakeDevices{userErrs: []error{errDeviceBusy}}
	g := NewGuard(inner, Policy{PreventCrash: false})

	_, err := g.GetUserMedia(context.Background(), Constraints{Video: true})
	require.ErrorIs(t, err, errDeviceBusy)

	// No retry when the policy is off.
	assert.Len(t, inner.userCalls, 1)
}

func TestGuard_PassThroughOnSuccess(t *testing.T) {
	inner := &fakeDevices{userOK: Stream{ID: "cam", Audio: true, Video: true}}
	g := NewGuard(inner, Policy{PreventCrash: true})

	s, err := g.GetUserMedia(context.Background(), Constraints{Audio: true, Video: true})
	require.NoError(t, err)
	assert.Equal(t, "cam", s.ID)
	assert.Len(t, inner.userCalls, 1)
}
