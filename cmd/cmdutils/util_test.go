package cmdutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDurationOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback time.Duration
		expected time.Duration
	}{
		{name: "valid duration", input: "3s", fallback: time.Second, expected: 3 * time.Second},
		{name: "valid fractional", input: "100ms", fallback: time.Second, expected: 100 * time.Millisecond},
		{name: "empty falls back", input: "", fallback: 2 * time.Second, expected: 2 * time.Second},
		{name: "garbage falls back", input: "later", fallback: 5 * time.Second, expected: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseDurationOrDefault(tt.input, tt.fallback))
		})
	}
}
