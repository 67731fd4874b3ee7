package router

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Rotation owns the provider priority order and the primary's success
// counter. Only successes at position 0 count. After threshold consecutive
// primary successes the primary moves to the back of the order and the new
// primary starts from zero. Failures never touch counters.
//
// A Rotation is safe for concurrent use; its lock is never held across I/O.
type Rotation struct {
	mu        sync.Mutex
	order     []string
	counts    map[string]int
	threshold int
}

// NewRotation creates a rotation over names in their initial priority order
func NewRotation(names []string, threshold int) (*Rotation, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("rotation needs at least one provider")
	}
	if threshold < 1 {
		return nil, fmt.Errorf("rotation threshold must be at least 1, got %d", threshold)
	}

	counts := make(map[string]int, len(names))
	for _, name := range names {
		if _, dup := counts[name]; dup {
			return nil, fmt.Errorf("duplicate provider %q in rotation", name)
		}
		counts[name] = 0
	}

	return &Rotation{
		order:     append([]string(nil), names...),
		counts:    counts,
		threshold: threshold,
	}, nil
}

// Order returns a snapshot of the current priority order
func (r *Rotation) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// RecordSuccess counts a success for name when it is the primary and demotes
// it to the tail once it reaches the threshold. Fallback successes are not
// counted. It reports whether a rotation happened.
func (r *Rotation) RecordSuccess(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.order[0] != name {
		return false
	}

	count := r.counts[name] + 1
	if count < r.threshold {
		r.counts[name] = count
		return false
	}

	r.counts[name] = 0
	r.order = append(r.order[1:], name)
	r.counts[r.order[0]] = 0
	return true
}

// Count returns the consecutive success count for name
func (r *Rotation) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

// Threshold returns the number of successes that triggers a rotation
func (r *Rotation) Threshold() int {
	return r.threshold
}

// DrawThreshold picks a threshold uniformly from [min, max].
// A zero seed draws from a time-seeded source.
func DrawThreshold(seed uint64, min, max int) (int, error) {
	if min < 1 || max < min {
		return 0, fmt.Errorf("invalid rotation range [%d, %d]", min, max)
	}

	var rng *rand.Rand
	if seed == 0 {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	} else {
		rng = rand.New(rand.NewPCG(seed, seed))
	}
	return min + rng.IntN(max-min+1), nil
}
