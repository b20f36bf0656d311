// sim/resource.go
package sim

import "fmt"

// Priority tiers. Lower numbers are served first. Two tiers exist
// system-wide: porter-side turnover and coverage seizures run at the
// critical tier so they preempt routine transport requests, and inpatients
// outrank outpatients for magnet access. Ties within a tier break by
// request order.
const (
	TierCritical = 0
	TierRoutine  = 1

	TierInpatient  = 0
	TierOutpatient = 1
)

// Ticket is a pending claim on one unit of a Resource, ordered in the wait
// queue by (priority, request order).
type Ticket struct {
	res       *Resource
	priority  int
	seq       uint64
	proc      *Proc // set while the owner is parked on this ticket
	granted   bool
	released  bool
	abandoned bool
}

// Granted reports whether the ticket currently holds a unit.
func (t *Ticket) Granted() bool { return t.granted && !t.released }

// Resource is a capacity-N shared resource with a priority wait queue.
// Invariant: holders never exceeds capacity. The wait queue is owned by the
// resource itself; there is no global ordering list.
type Resource struct {
	k        *Kernel
	name     string
	capacity int
	holders  int
	waiters  []*Ticket
}

// NewResource creates a resource. A non-positive capacity is a configuration
// error: the run must never start with it.
func NewResource(k *Kernel, name string, capacity int) (*Resource, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("resource %q: capacity must be positive, got %d", name, capacity)
	}
	return &Resource{k: k, name: name, capacity: capacity}, nil
}

// mustResource is the setup-time helper: configuration has already been
// validated, so a bad capacity here is an internal error.
func mustResource(k *Kernel, name string, capacity int) *Resource {
	r, err := NewResource(k, name, capacity)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Resource) Name() string   { return r.name }
func (r *Resource) Capacity() int  { return r.capacity }
func (r *Resource) Holders() int   { return r.holders }
func (r *Resource) QueueLen() int  { return len(r.waiters) }

// Idle reports whether a unit could be granted immediately.
func (r *Resource) Idle() bool { return r.holders < r.capacity && len(r.waiters) == 0 }

// Request files a claim for one unit at the given priority. The ticket is
// granted immediately when a unit is free and nothing waits ahead of it;
// otherwise it joins the queue. Request never suspends — pair it with
// Ticket.Wait, or use Acquire.
func (r *Resource) Request(priority int) *Ticket {
	t := &Ticket{res: r, priority: priority, seq: r.k.nextSeq()}
	if r.holders < r.capacity && len(r.waiters) == 0 {
		r.grant(t)
		return t
	}
	r.insert(t)
	return t
}

// Acquire requests a unit and parks the process until the grant arrives.
func (r *Resource) Acquire(p *Proc, priority int) *Ticket {
	t := r.Request(priority)
	t.Wait(p)
	return t
}

// insert places t into the wait queue keeping (priority, seq) order.
func (r *Resource) insert(t *Ticket) {
	i := len(r.waiters)
	for i > 0 {
		w := r.waiters[i-1]
		if w.priority < t.priority || (w.priority == t.priority && w.seq < t.seq) {
			break
		}
		i--
	}
	r.waiters = append(r.waiters, nil)
	copy(r.waiters[i+1:], r.waiters[i:])
	r.waiters[i] = t
}

func (r *Resource) grant(t *Ticket) {
	t.granted = true
	r.holders++
	if r.holders > r.capacity {
		panic(fmt.Sprintf("resource %q: holders %d exceed capacity %d", r.name, r.holders, r.capacity))
	}
	if t.proc != nil {
		owner := t.proc
		t.proc = nil
		r.k.schedule(r.k.clock, r.name+" grant", owner.handoff)
	}
}

// offer hands a freed unit to the best-placed waiter, if any.
func (r *Resource) offer() {
	if r.holders >= r.capacity || len(r.waiters) == 0 {
		return
	}
	next := r.waiters[0]
	r.waiters = r.waiters[1:]
	r.grant(next)
}

// Wait parks the owning process until the ticket is granted.
func (t *Ticket) Wait(p *Proc) {
	if t.granted {
		return
	}
	if t.abandoned {
		panic(fmt.Sprintf("resource %q: wait on abandoned ticket", t.res.name))
	}
	t.proc = p
	p.park()
}

// Release returns the held unit and immediately offers it to the next queued
// ticket. Releasing a ticket twice, or one that was never granted, is an
// internal invariant violation: it would silently skew capacity for the rest
// of the run.
func (t *Ticket) Release() {
	if !t.granted {
		panic(fmt.Sprintf("resource %q: release of ungranted ticket", t.res.name))
	}
	if t.released {
		panic(fmt.Sprintf("resource %q: double release", t.res.name))
	}
	t.released = true
	t.res.holders--
	t.res.offer()
}

// Abandon removes a still-queued ticket from the wait queue. Abandoning a
// granted ticket releases it instead, so scoped cleanup can always call
// Abandon on every exit path.
func (t *Ticket) Abandon() {
	if t.granted {
		if !t.released {
			t.Release()
		}
		return
	}
	if t.abandoned {
		return
	}
	t.abandoned = true
	r := t.res
	for i, w := range r.waiters {
		if w == t {
			r.waiters = append(r.waiters[:i], r.waiters[i+1:]...)
			return
		}
	}
}
