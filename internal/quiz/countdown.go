package quiz

import (
	"fmt"
	"sync"
	"time"
)

// DefaultDuration is how long a quiz session runs.
const DefaultDuration = 12 * time.Minute

// Scheduler runs fn every interval until the returned stop function is called.
// stop must be safe to call more than once and from inside fn.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func())
}

// TickerScheduler delivers ticks from a time.Ticker on its own goroutine.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	quit := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				select {
				case <-quit:
					return
				default:
				}
				fn()
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(quit)
		})
	}
}

// Countdown tracks whole seconds left in a session. It only ever counts down.
type Countdown struct {
	total     int
	remaining int
	stop      func()
	stopped   bool
}

// NewCountdown counts down from total, rounded down to whole seconds.
func NewCountdown(total time.Duration) *Countdown {
	secs := int(total / time.Second)
	return &Countdown{total: secs, remaining: secs}
}

// Start schedules fn once per interval. A countdown is started at most once.
func (c *Countdown) Start(s Scheduler, interval time.Duration, fn func()) {
	if c.stop != nil || c.stopped {
		return
	}
	c.stop = s.Every(interval, fn)
}

// Tick takes one second off and reports whether time has run out.
func (c *Countdown) Tick() (expired bool) {
	c.remaining--
	return c.remaining < 0
}

// Stop cancels the schedule. Only the first call has an effect.
func (c *Countdown) Stop() {
	if c.stopped {
		return
	}
	c.stopped = true
	if c.stop != nil {
		c.stop()
	}
}

// Running reports whether a schedule was started and not yet stopped.
func (c *Countdown) Running() bool { return c.stop != nil && !c.stopped }

// Remaining is the whole seconds left; it goes to -1 on expiry.
func (c *Countdown) Remaining() int { return c.remaining }

// Clock formats the remaining time as mm:ss.
func (c *Countdown) Clock() string {
	return FormatClock(c.remaining)
}

// Elapsed is the fraction of the session already used, in [0,1].
func (c *Countdown) Elapsed() float64 {
	if c.total <= 0 {
		return 1
	}
	f := float64(c.total-c.remaining) / float64(c.total)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// FormatClock renders seconds as zero-padded mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
