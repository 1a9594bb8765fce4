package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-a", "127.0.0.1:9090", "-i", "10", "-d", "/data", "-r", "60", "-w", "2", "-m", ":9101"},
			expected: &Config{
				ServerEndpointAddr:  "127.0.0.1:9090",
				OnlineCheckInterval: 10 * time.Second,
				DataDir:             "/data",
				UserRefreshInterval: time.Minute,
				Workers:             2,
				MetricsAddr:         ":9101",
			},
		},
		{
			name:     "unrelated flags are ignored",
			args:     []string{"cmd", "-c", "cfg.json", "-x", "-a", "h:1"},
			expected: &Config{ServerEndpointAddr: "h:1"},
		},
		{name: "incorrect check interval", args: []string{"cmd", "-a", "127.0.0.1:9090", "-i", "abc"}, expectPanic: true},
		{name: "incorrect workers", args: []string{"cmd", "-w", "many"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
