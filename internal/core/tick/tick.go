// Package tick provides the logical clock the sale lifecycle runs on.
// A Tick is a monotonically increasing height; escrow windows are expressed
// in ticks, never wall-clock time.
package tick

import (
	"sync"
	"sync/atomic"
	"time"
)

// Tick is a logical block height.
type Tick uint64

// Source yields the current tick. Implementations must be monotonic.
type Source interface {
	Now() Tick
}

// Counter is a manually advanced Source. It backs standalone mode and every
// deterministic test.
type Counter struct {
	v atomic.Uint64
}

// NewCounter returns a Counter starting at start.
func NewCounter(start Tick) *Counter {
	c := &Counter{}
	c.v.Store(uint64(start))
	return c
}

// Now returns the current tick.
func (c *Counter) Now() Tick {
	return Tick(c.v.Load())
}

// Advance moves the counter forward by n ticks and returns the new value.
func (c *Counter) Advance(n Tick) Tick {
	return Tick(c.v.Add(uint64(n)))
}

// Set jumps the counter to t. Setting backwards breaks monotonicity and is
// only legitimate when restoring persisted state at startup.
func (c *Counter) Set(t Tick) {
	c.v.Store(uint64(t))
}

// Ticker advances a Counter once per wall-clock interval. It is the
// production tick source for a daemon that is not following an external
// chain.
type Ticker struct {
	counter  *Counter
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewTicker wraps counter with a wall-clock advance every interval.
func NewTicker(counter *Counter, interval time.Duration) *Ticker {
	return &Ticker{counter: counter, interval: interval}
}

// Now returns the current tick.
func (t *Ticker) Now() Tick {
	return t.counter.Now()
}

// Start begins advancing the counter. It is a no-op if already running.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.stop, t.done)
}

func (t *Ticker) run(stop, done chan struct{}) {
	defer close(done)
	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	for {
		select {
		case <-tk.C:
			t.counter.Advance(1)
		case <-stop:
			return
		}
	}
}

// Stop halts the ticker and waits for the advance loop to exit.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	<-t.done
	t.stop = nil
	t.done = nil
}
