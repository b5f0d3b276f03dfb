package core

import "time"

// Clock measures wall time between Start and the last Update.
type Clock struct {
	now     func() time.Time
	start   time.Time
	elapsed time.Duration
	running bool
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Update refreshes the elapsed time. Has no effect on stopped clocks.
func (c *Clock) Update() {
	if c.running {
		c.elapsed = c.now().Sub(c.start)
	}
}

// Start resets elapsed time and starts the clock.
func (c *Clock) Start() {
	c.start = c.now()
	c.elapsed = 0
	c.running = true
}

// Stop does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

// Elapsed returns the elapsed time in seconds.
func (c *Clock) Elapsed() float64 {
	return c.elapsed.Seconds()
}
