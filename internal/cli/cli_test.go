package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("positional network path", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"network.hcl"}, &out)
		require.NoError(t, err)
		assert.False(t, exit)
		assert.Equal(t, "network.hcl", cfg.NetworkPath)
		assert.Equal(t, 1, cfg.Devices)
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "none", cfg.TraceLevel)
	})

	t.Run("network flag wins over positional", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"--network", "a.hcl", "b.hcl"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "a.hcl", cfg.NetworkPath)
	})

	t.Run("shorthand flag", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-n", "a.hcl"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "a.hcl", cfg.NetworkPath)
	})

	t.Run("all options", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{
			"--devices", "3",
			"--workers", "8",
			"--log-format", "text",
			"--log-level", "debug",
			"--trace", "runtime",
			"net.hcl",
		}, &out)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Devices)
		assert.Equal(t, 8, cfg.Workers)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "runtime", cfg.TraceLevel)
	})

	t.Run("no path prints usage and exits cleanly", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse(nil, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("invalid log format", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"--log-format", "xml", "net.hcl"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("invalid log level", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"--log-level", "loud", "net.hcl"}, &out)
		assert.ErrorContains(t, err, "invalid log-level")
	})

	t.Run("invalid trace level", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"--trace", "full", "net.hcl"}, &out)
		assert.ErrorContains(t, err, "invalid trace")
	})
}
