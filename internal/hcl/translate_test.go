package hcl

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tensorgridgo/internal/config"
	"github.com/vk/tensorgridgo/internal/ctxlog"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func writeNetwork(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "network.hcl")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

const diamondNetwork = `
network "diamond" {}

function "a" {
  kernel = "double"

  symbol "x" {
    category = "placeholder"
    dims     = [2]
  }

  feed "x" {
    value = [1, 2]
  }
}

function "b" {
  kernel  = "identity"
  devices = [0, 1]

  symbol "x" {
    dims = [2]
  }
}

function "c" {
  kernel     = "identity"
  depends_on = ["a", "b"]

  symbol "x" {
    dims = [2]
  }

  symbol "w" {
    category = "constant"
    dims     = [2]
  }
}
`

func TestLoadTranslatesNetwork(t *testing.T) {
	path := writeNetwork(t, diamondNetwork)

	model, err := NewLoader().Load(testContext(), path)
	require.NoError(t, err)

	assert.Equal(t, "diamond", model.Name)
	require.Len(t, model.Functions, 3)

	a := model.Functions[0]
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, "double", a.Kernel)
	assert.Equal(t, []int{0}, a.Devices, "devices default to device 0")
	require.Contains(t, a.Feeds, "x")
	assert.Equal(t, []float32{1, 2}, a.Feeds["x"].Float32s())

	b := model.Functions[1]
	assert.Equal(t, []int{0, 1}, b.Devices)
	assert.Equal(t, config.CategoryPlaceholder, b.Symbols["x"].Category,
		"symbol category defaults to placeholder")

	c := model.Functions[2]
	assert.Equal(t, []string{"a", "b"}, c.DependsOn)
	assert.Equal(t, config.CategoryConstant, c.Symbols["w"].Category)
	assert.Equal(t, []int{2}, c.Symbols["x"].Dims)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(`
function "a" {
  kernel = "identity"
  symbol "x" { dims = [1] }
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.hcl"), []byte(`
function "b" {
  kernel     = "identity"
  depends_on = ["a"]
  symbol "x" { dims = [1] }
}
`), 0o644))

	model, err := NewLoader().Load(testContext(), dir)
	require.NoError(t, err)
	assert.Len(t, model.Functions, 2)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		_, err := NewLoader().Load(testContext(), filepath.Join(t.TempDir(), "absent.hcl"))
		assert.ErrorContains(t, err, "cannot read network path")
	})

	t.Run("duplicate function", func(t *testing.T) {
		path := writeNetwork(t, `
function "a" { kernel = "identity" }
function "a" { kernel = "identity" }
`)
		_, err := NewLoader().Load(testContext(), path)
		assert.ErrorContains(t, err, "duplicate function")
	})

	t.Run("unknown dependency", func(t *testing.T) {
		path := writeNetwork(t, `
function "a" {
  kernel     = "identity"
  depends_on = ["ghost"]
}
`)
		_, err := NewLoader().Load(testContext(), path)
		assert.ErrorContains(t, err, "unknown function")
	})

	t.Run("invalid symbol category", func(t *testing.T) {
		path := writeNetwork(t, `
function "a" {
  kernel = "identity"
  symbol "x" { category = "weight" }
}
`)
		_, err := NewLoader().Load(testContext(), path)
		assert.ErrorContains(t, err, "unknown category")
	})

	t.Run("feed for undeclared symbol", func(t *testing.T) {
		path := writeNetwork(t, `
function "a" {
  kernel = "identity"
  feed "ghost" { value = [1] }
}
`)
		_, err := NewLoader().Load(testContext(), path)
		assert.ErrorContains(t, err, "undeclared symbol")
	})

	t.Run("feed shape mismatch", func(t *testing.T) {
		path := writeNetwork(t, `
function "a" {
  kernel = "identity"
  symbol "x" { dims = [3] }
  feed "x" { value = [1, 2] }
}
`)
		_, err := NewLoader().Load(testContext(), path)
		assert.ErrorContains(t, err, "do not fit shape")
	})

	t.Run("empty devices list", func(t *testing.T) {
		path := writeNetwork(t, `
function "a" {
  kernel  = "identity"
  devices = []
}
`)
		_, err := NewLoader().Load(testContext(), path)
		assert.ErrorContains(t, err, "devices must not be empty")
	})
}
