package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvsWithPrefix(t *testing.T) {
	// Set test environment variables
	t.Setenv("HOSTPATCH_FOO", "foo-val")
	t.Setenv("HOSTPATCH_BAR", "bar-val")
	t.Setenv("OTHER_BAZ", "should-not-expand")

	tests := []struct {
		name     string
		input    string
		prefix   string
		expected string
	}{
		{
			name:     "expand single matching var",
			input:    "value=${HOSTPATCH_FOO}",
			prefix:   "HOSTPATCH_",
			expected: "value=foo-val",
		},
		{
			name:     "expand multiple matching vars",
			input:    "one=${HOSTPATCH_FOO}, two=${HOSTPATCH_BAR}",
			prefix:   "HOSTPATCH_",
			expected: "one=foo-val, two=bar-val",
		},
		{
			name:     "ignore unmatched var (wrong prefix)",
			input:    "value=${OTHER_BAZ}",
			prefix:   "HOSTPATCH_",
			expected: "value=${OTHER_BAZ}",
		},
		{
			name:     "mixed matched and unmatched vars",
			input:    "a=${HOSTPATCH_FOO}, b=${OTHER_BAZ}",
			prefix:   "HOSTPATCH_",
			expected: "a=foo-val, b=${OTHER_BAZ}",
		},
		{
			name:     "undefined env var with correct prefix",
			input:    "value=${HOSTPATCH_UNKNOWN}",
			prefix:   "HOSTPATCH_",
			expected: "value=",
		},
		{
			name:     "no vars at all",
			input:    "plain text",
			prefix:   "HOSTPATCH_",
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvsWithPrefix(tt.input, tt.prefix))
		})
	}
}

func TestConfigStringHidesSensitiveFields(t *testing.T) {
	c := &Config{}
	c.Host.Token = "super-secret"
	c.Main.AuthToken = "another-secret"

	rendered := c.String()
	require.NotContains(t, rendered, "super-secret")
	require.NotContains(t, rendered, "another-secret")
	assert.Contains(t, rendered, "*****")
}
