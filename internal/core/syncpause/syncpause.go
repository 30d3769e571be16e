package syncpause

import (
	"context"
	"log/slog"
	"time"

	"github.com/hostpatch/hostpatch/internal/core/sched"
)

// SettingsSyncFlag is the host feature flag that drives cloud settings
// synchronization.
const SettingsSyncFlag = "cloud.settingsSync"

const DefaultWindow = 5 * time.Second

// Flags is the host's live feature-flag store.
type Flags interface {
	SetFlag(ctx context.Context, name string, value bool) error
	Flag(ctx context.Context, name string) (bool, error)
}

// Pause disables settings sync for the duration of the window, then
// restores it unconditionally. The restore is not conditioned on startup
// having finished, and overrides intervening writes to the flag.
func Pause(ctx context.Context, flags Flags, s sched.Scheduler, window time.Duration) error {
	if window <= 0 {
		window = DefaultWindow
	}
	l := slog.With(slog.String("component", "sync-pause"))

	if err := flags.SetFlag(ctx, SettingsSyncFlag, false); err != nil {
		return err
	}
	l.Info("settings sync paused", slog.Duration("window", window))

	s.After(window, "sync-restore", func() {
		if err := flags.SetFlag(context.Background(), SettingsSyncFlag, true); err != nil {
			l.Error("failed to restore settings sync", slog.Any("err", err))
			return
		}
		l.Info("settings sync restored")
	})
	return nil
}
