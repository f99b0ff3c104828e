package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/cmx-go/engine/device/devicetest"
	"github.com/Carmen-Shannon/cmx-go/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const triangle = `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`

const quad = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestManager(t *testing.T, dev *devicetest.Device, options ...ManagerBuilderOption) (Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	options = append([]ManagerBuilderOption{WithLogger(zap.New(core))}, options...)
	return NewManager(dev, options...), logs
}

func TestPreloadParsesAndUploads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tri.obj", triangle)
	writeFile(t, dir, "quad.obj", quad)

	dev := devicetest.New()
	m, logs := newTestManager(t, dev, WithRoot(dir), WithWorkers(2), WithAssets(map[string]string{
		"tri":  "tri.obj",
		"quad": "quad.obj",
	}))

	require.NoError(t, m.Preload())
	assert.Equal(t, []string{"quad", "tri"}, m.Loaded())
	assert.Len(t, dev.Live(), 4)

	entry := logs.FilterMessage("assets preloaded").All()
	require.Len(t, entry, 1)
	assert.EqualValues(t, 2, entry[0].ContextMap()["loaded"])

	// nothing left to do
	require.NoError(t, m.Preload())
	assert.Len(t, dev.Buffers, 8)
}

func TestPreloadKeepsSuccessfulAssets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tri.obj", triangle)
	writeFile(t, dir, "bad.obj", "v 0 0\nf 1 2 3\n")

	m, _ := newTestManager(t, devicetest.New(), WithRoot(dir))
	m.Register("tri", "tri.obj")
	m.Register("bad", "bad.obj")
	m.Register("gone", filepath.Join(dir, "missing.obj"))

	err := m.Preload()
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMeshParse)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, []string{"tri"}, m.Loaded())
}

func TestModelHandsOutReferences(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tri.obj", triangle)

	dev := devicetest.New()
	m, _ := newTestManager(t, dev, WithRoot(dir))
	m.Register("tri", "tri.obj")

	a, err := m.Model("tri")
	require.NoError(t, err)
	b, err := m.Model("tri")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, "tri", a.Name())

	require.NoError(t, a.Release())
	require.NoError(t, m.Release())
	assert.Len(t, dev.Live(), 2)

	require.NoError(t, b.Release())
	assert.Empty(t, dev.Live())
	assert.Empty(t, m.Loaded())
}

func TestModelUnknownAsset(t *testing.T) {
	m, _ := newTestManager(t, devicetest.New())
	_, err := m.Model("dragon")
	assert.ErrorIs(t, err, ErrUnknownAsset)
}
