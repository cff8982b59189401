// Package throttle rate-limits informational log lines the way the
// original ROS node's ROS_INFO_THROTTLE macro did: a message is only
// actually emitted once per period no matter how often it's requested
// (e.g. once per tick while a transition is waiting on the walker to stop).
package throttle

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPeriod matches the original source's THROTTLE_PERIOD.
const DefaultPeriod = 2 * time.Second

// Throttle wraps a logrus.Entry and rate-limits Infof calls, keyed by their
// format string, to at most one emission per Period.
type Throttle struct {
	entry  *logrus.Entry
	Period time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// New builds a Throttle logging through entry.
func New(entry *logrus.Entry, period time.Duration) *Throttle {
	return &Throttle{entry: entry, Period: period, last: make(map[string]time.Time)}
}

// Infof logs format/args at most once per Period, keyed by format.
func (t *Throttle) Infof(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if prev, ok := t.last[format]; ok && now.Sub(prev) < t.Period {
		return
	}
	t.last[format] = now
	t.entry.Infof(format, args...)
}
