package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOverlaysDefaults(t *testing.T) {
	doc := `
window:
  title: bunny
render:
  frameLimit: 144
assets:
  preload:
    bunny: models/bunny.obj
debug:
  renderQueue: true
`
	c, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "bunny", c.Window.Title)
	assert.Equal(t, 1280, c.Window.Width)
	assert.Equal(t, 144.0, c.Render.FrameLimit)
	assert.True(t, c.Render.VSync)
	assert.Equal(t, "models/bunny.obj", c.Assets.Preload["bunny"])
	assert.Equal(t, 4, c.Assets.Workers)
	assert.Equal(t, int32(-1), c.RenderQueueThreshold())
}

func TestDecodeEmptyDocument(t *testing.T) {
	c, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, int32(0), c.RenderQueueThreshold())
}

func TestDecodeRejectsInvalid(t *testing.T) {
	_, err := Decode(strings.NewReader("window:\n  width: 0\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Decode(strings.NewReader("assets:\n  workers: -2\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)
}
