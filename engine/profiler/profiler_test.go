package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTickLogsOncePerInterval(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	clock := time.Unix(0, 0)
	p := NewProfiler(WithLogger(zap.New(core)), WithInterval(time.Second))
	p.now = func() time.Time { return clock }
	p.lastTime = clock

	for range 29 {
		clock = clock.Add(20 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	clock = clock.Add(500 * time.Millisecond)
	assert.True(t, p.Tick())

	entries := logs.FilterMessage("frame stats").All()
	require.Len(t, entries, 1)
	assert.InDelta(t, 27.78, entries[0].ContextMap()["fps"], 0.01)

	clock = clock.Add(100 * time.Millisecond)
	assert.False(t, p.Tick())
}
