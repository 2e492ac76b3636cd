package util

import (
	"sync"
	"sync/atomic"
)

// Progress is a monotonic completed/total counter safe for concurrent use.
// It is advisory only; nothing should branch on it for correctness.
type Progress struct {
	total  int64
	done   atomic.Int64
	notify func(done, total int)

	// mu orders notifications so observers see counts in increasing order.
	mu sync.Mutex
}

// NewProgress returns a counter for total units of work. notify, if set, is
// called after every increment with the new count.
func NewProgress(total int, notify func(done, total int)) *Progress {
	return &Progress{total: int64(total), notify: notify}
}

// Inc marks one unit as finished and returns the new count.
func (p *Progress) Inc() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	done := p.done.Add(1)
	if p.notify != nil {
		p.notify(int(done), int(p.total))
	}
	return int(done)
}

// Done returns the number of finished units.
func (p *Progress) Done() int {
	return int(p.done.Load())
}

// Total returns the number of expected units.
func (p *Progress) Total() int {
	return int(p.total)
}

// Percentage returns completion in [0,100].
func (p *Progress) Percentage() int32 {
	if p.total <= 0 {
		return 100
	}
	done := min(p.done.Load(), p.total)
	return int32(done * 100 / p.total)
}
