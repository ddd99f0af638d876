// Package pool tracks a fixed set of backends and their in-flight request counts.
package pool

import (
	"errors"
	"sync/atomic"
)

// ErrNoBackendAvailable is returned when the pool has no backends to select from.
var ErrNoBackendAvailable = errors.New("no backend available")

// backend is a base address with its in-flight request counter.
type backend struct {
	addr   string
	active atomic.Int64
}

// Pool is an ordered, fixed set of backends. Selection picks the backend with
// the fewest in-flight requests; ties go to the earliest-registered backend.
type Pool struct {
	backends []*backend
	byAddr   map[string]*backend
}

// New creates a Pool from the given base addresses, preserving order.
// An empty address list is allowed; selection then fails with ErrNoBackendAvailable.
func New(addrs []string) *Pool {
	p := &Pool{
		backends: make([]*backend, 0, len(addrs)),
		byAddr:   make(map[string]*backend, len(addrs)),
	}
	for _, addr := range addrs {
		if _, dup := p.byAddr[addr]; dup {
			continue
		}
		b := &backend{addr: addr}
		p.backends = append(p.backends, b)
		p.byAddr[addr] = b
	}
	return p
}

// SelectLeastLoaded returns the address of the backend with the smallest
// in-flight count. Counters may move between selection and Acquire; load
// balancing here is best-effort, not a strict scheduling guarantee.
func (p *Pool) SelectLeastLoaded() (string, error) {
	if len(p.backends) == 0 {
		return "", ErrNoBackendAvailable
	}

	best := p.backends[0]
	bestActive := best.active.Load()
	for _, b := range p.backends[1:] {
		if active := b.active.Load(); active < bestActive {
			best = b
			bestActive = active
		}
	}
	return best.addr, nil
}

// Acquire increments the in-flight counter for addr. Unknown addresses are ignored.
func (p *Pool) Acquire(addr string) {
	if b, ok := p.byAddr[addr]; ok {
		b.active.Add(1)
	}
}

// Release decrements the in-flight counter for addr. Every Acquire must be
// paired with exactly one Release on every exit path of a forwarded call;
// the counter is clamped so it never goes negative.
func (p *Pool) Release(addr string) {
	b, ok := p.byAddr[addr]
	if !ok {
		return
	}
	if b.active.Add(-1) < 0 {
		b.active.Store(0)
	}
}

// Loads returns a snapshot of in-flight counts per backend address.
func (p *Pool) Loads() map[string]int64 {
	loads := make(map[string]int64, len(p.backends))
	for _, b := range p.backends {
		loads[b.addr] = b.active.Load()
	}
	return loads
}

// Addrs returns the backend addresses in registration order.
func (p *Pool) Addrs() []string {
	addrs := make([]string, len(p.backends))
	for i, b := range p.backends {
		addrs[i] = b.addr
	}
	return addrs
}

// Size returns the number of backends in the pool.
func (p *Pool) Size() int {
	return len(p.backends)
}
