package cmdutils

import (
	"log/slog"
	"time"
)

func ParseDurationOrDefault(d string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(d)
	if err == nil {
		return duration
	}
	slog.Error("cannot parse duration", slog.String("d", d), slog.Any("err", err))
	return fallback
}
