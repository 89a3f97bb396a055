// Package timing implements the one process-wide mutable state in
// raytran: a name->cumulative-seconds registry, guarded by a mutex, used
// to profile the relative cost of the formod/jacobian/retrieval phases without
// threading a timing context through every call. Everything else in
// raytran (Atm, Obs, Ctl, Tbl) is an explicit value owned by its caller;
// this is the sole exception.
package timing

import (
	"sync"
	"time"
)

var (
	mu    sync.Mutex
	total = map[string]time.Duration{}
	count = map[string]int64{}
)

// Start begins timing a named section; call the returned func when done.
func Start(name string) func() {
	t0 := time.Now()
	return func() {
		d := time.Since(t0)
		mu.Lock()
		total[name] += d
		count[name]++
		mu.Unlock()
	}
}

// Snapshot returns a copy of the cumulative seconds and call counts per
// named section.
func Snapshot() (seconds map[string]float64, calls map[string]int64) {
	mu.Lock()
	defer mu.Unlock()
	seconds = make(map[string]float64, len(total))
	calls = make(map[string]int64, len(count))
	for k, v := range total {
		seconds[k] = v.Seconds()
	}
	for k, v := range count {
		calls[k] = v
	}
	return seconds, calls
}

// Reset clears the registry; intended for test isolation between cases
// that assert on Snapshot.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	total = map[string]time.Duration{}
	count = map[string]int64{}
}
