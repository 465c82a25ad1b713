package monitoring

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoroutineMonitor_TracksPeakAndComponents(t *testing.T) {
	gm := NewGoroutineMonitor(Options{}, zerolog.Nop())
	base := gm.GetMetrics().Baseline

	gm.RegisterComponent("game_runners", 3)
	gm.check(base+10, time.Now())
	gm.check(base+4, time.Now())

	m := gm.GetMetrics()
	assert.Equal(t, base+4, m.Current)
	assert.Equal(t, base+10, m.Peak)
	assert.Equal(t, 4, m.Growth)
	assert.Equal(t, map[string]int{"game_runners": 3}, m.ComponentCounts)

	// the returned map is a copy
	m.ComponentCounts["game_runners"] = 99
	assert.Equal(t, 3, gm.GetMetrics().ComponentCounts["game_runners"])
}

func TestGoroutineMonitor_AlertCooldown(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.WarnLevel)
	gm := NewGoroutineMonitor(Options{AlertThreshold: 5, AlertCooldown: time.Minute}, logger)

	now := time.Now()
	gm.check(10, now)
	gm.check(10, now.Add(10*time.Second))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("possible leak")))

	gm.check(10, now.Add(2*time.Minute))
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("possible leak")))

	gm.check(4, now.Add(10*time.Minute))
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("possible leak")))
}

func TestGoroutineMonitor_StartStop(t *testing.T) {
	gm := NewGoroutineMonitor(Options{CheckInterval: time.Millisecond}, zerolog.Nop())
	gm.Start()
	require.Eventually(t, func() bool {
		return gm.GetMetrics().Current > 0
	}, time.Second, time.Millisecond)
	gm.Stop()
	gm.Stop()
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, 30*time.Second, o.CheckInterval)
	assert.Equal(t, 1000, o.AlertThreshold)
	assert.Equal(t, 5*time.Minute, o.AlertCooldown)

	custom := Options{CheckInterval: time.Second}.withDefaults()
	assert.Equal(t, time.Second, custom.CheckInterval)
}
