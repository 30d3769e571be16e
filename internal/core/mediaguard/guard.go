package mediaguard

import (
	"context"
	"log/slog"

	"github.com/hostpatch/hostpatch/internal/opt/metrics"
)

// Constraints mirrors the host's media request constraints.
type Constraints struct {
	Audio bool `json:"audio"`
	Video bool `json:"video"`
}

// Stream describes a media stream handle returned by the host. The zero
// value is the policy-defined empty result.
type Stream struct {
	ID    string `json:"id,omitempty"`
	Audio bool   `json:"audio"`
	Video bool   `json:"video"`
}

// MediaDevices is the host's media-device surface: sink selection,
// display capture and user media.
type MediaDevices interface {
	SetSink(ctx context.Context, deviceID string) error
	GetDisplayMedia(ctx context.Context, constraints Constraints) (Stream, error)
	GetUserMedia(ctx context.Context, constraints Constraints) (Stream, error)
}

type Policy struct {
	// PreventCrash suppresses errors from the underlying calls and
	// substitutes a safe fallback result. When false, errors propagate
	// unchanged.
	PreventCrash bool

	// LogSuppressed additionally logs the details of suppressed errors.
	LogSuppressed bool
}

// Guard is a wrap-and-delegate decorator over MediaDevices. It holds no
// state and performs no retries, except the single reduced-constraint retry
// for user media when video was requested.
type Guard struct {
	l      *slog.Logger
	inner  MediaDevices
	policy Policy
}

var _ MediaDevices = &Guard{}

func NewGuard(inner MediaDevices, policy Policy) *Guard {
	return &Guard{
		l:      slog.With(slog.String("component", "media-guard")),
		inner:  inner,
		policy: policy,
	}
}

func (g *Guard) log() *slog.Logger {
	if g.l != nil {
		return g.l
	}
	return slog.With(slog.String("component", "media-guard"))
}

func (g *Guard) SetSink(ctx context.Context, deviceID string) error {
	err := g.inner.SetSink(ctx, deviceID)
	if err == nil {
		return nil
	}
	if !g.policy.PreventCrash {
		return err
	}
	g.suppress("set-sink", err)
	return nil
}

func (g *Guard) GetDisplayMedia(ctx context.Context, constraints Constraints) (Stream, error) {
	s, err := g.inner.GetDisplayMedia(ctx, constraints)
	if err == nil {
		return s, nil
	}
	if !g.policy.PreventCrash {
		return Stream{}, err
	}
	g.suppress("display-media", err)
	return Stream{}, nil
}

func (g *Guard) GetUserMedia(ctx context.Context, constraints Constraints) (Stream, error) {
	s, err := g.inner.GetUserMedia(ctx, constraints)
	if err == nil {
		return s, nil
	}
	if !g.policy.PreventCrash {
		return Stream{}, err
	}
	g.suppress("user-media", err)

	// The video track is the usual culprit: retry once with audio only.
	if constraints.Video {
		s, retryErr := g.inner.GetUserMedia(ctx, Constraints{Audio: constraints.Audio})
		if retryErr == nil {
			return s, nil
		}
		g.suppress("user-media-retry", retryErr)
	}
	return Stream{}, nil
}

func (g *Guard) suppress(call string, err error) {
	metrics.PatchMetricsCollector.IncMediaSuppressed(call)
	if g.policy.LogSuppressed {
		g.log().Warn("media call failed, suppressed by policy",
			slog.String("call", call),
			slog.Any("err", err),
		)
	}
}
