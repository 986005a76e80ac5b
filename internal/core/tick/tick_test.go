package tick

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	c := NewCounter(10)
	assert.Equal(t, Tick(10), c.Now())
	assert.Equal(t, Tick(13), c.Advance(3))
	c.Set(100)
	assert.Equal(t, Tick(100), c.Now())
}

func TestTickerAdvances(t *testing.T) {
	c := NewCounter(0)
	tk := NewTicker(c, time.Millisecond)
	tk.Start()
	defer tk.Stop()

	require.Eventually(t, func() bool {
		return c.Now() >= 3
	}, time.Second, time.Millisecond)
}

func TestTickerStopIsIdempotent(t *testing.T) {
	tk := NewTicker(NewCounter(0), time.Millisecond)
	tk.Start()
	tk.Start() // no-op while running
	tk.Stop()
	tk.Stop() // no-op when stopped
}
