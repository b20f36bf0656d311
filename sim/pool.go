// sim/pool.go
package sim

import "fmt"

// MagnetStatus is the operational status tag exposed to snapshots.
type MagnetStatus string

const (
	MagnetClean MagnetStatus = "clean"
	MagnetBusy  MagnetStatus = "busy"
	MagnetDirty MagnetStatus = "dirty"
)

// Magnet is one interchangeable imaging instance. LastProtocol records the
// protocol of the patient most recently turned over on this magnet; the
// quick-changeover rule compares it against the upcoming patient's protocol.
// Metadata is mutated only by the current holder and must be final before
// the instance is checked back in.
type Magnet struct {
	ID           string
	LastProtocol string
	Status       MagnetStatus
}

type poolWaiter struct {
	proc *Proc
	got  *Magnet
}

// MagnetPool is a bounded buffer of interchangeable magnet instances.
// Waiters are served strictly FIFO regardless of which instance comes back.
type MagnetPool struct {
	k       *Kernel
	free    []*Magnet
	units   []*Magnet
	total   int
	waiters []*poolWaiter
}

// NewMagnetPool creates a pool pre-loaded with the given instances.
func NewMagnetPool(k *Kernel, magnets ...*Magnet) (*MagnetPool, error) {
	if len(magnets) == 0 {
		return nil, fmt.Errorf("magnet pool: at least one instance required")
	}
	free := make([]*Magnet, len(magnets))
	copy(free, magnets)
	units := make([]*Magnet, len(magnets))
	copy(units, magnets)
	return &MagnetPool{k: k, free: free, units: units, total: len(magnets)}, nil
}

// Units returns every instance in construction order, checked out or not.
func (mp *MagnetPool) Units() []*Magnet { return mp.units }

// Free returns the number of checked-in instances.
func (mp *MagnetPool) Free() int { return len(mp.free) }

// Total returns the pool size.
func (mp *MagnetPool) Total() int { return mp.total }

// Acquire checks out any available instance, parking the process until one
// comes back if none is free.
func (mp *MagnetPool) Acquire(p *Proc) *Magnet {
	if len(mp.free) > 0 {
		m := mp.free[0]
		mp.free = mp.free[1:]
		return m
	}
	w := &poolWaiter{proc: p}
	mp.waiters = append(mp.waiters, w)
	p.park()
	return w.got
}

// Release checks an instance back in. The oldest waiter, if any, receives it
// directly; metadata on m must already be final.
func (mp *MagnetPool) Release(m *Magnet) {
	if m == nil {
		panic("magnet pool: release of nil instance")
	}
	if len(mp.free) >= mp.total {
		panic(fmt.Sprintf("magnet pool: release would exceed pool size %d", mp.total))
	}
	if len(mp.waiters) > 0 {
		w := mp.waiters[0]
		mp.waiters = mp.waiters[1:]
		w.got = m
		mp.k.schedule(mp.k.clock, "magnet "+m.ID+" handoff", w.proc.handoff)
		return
	}
	mp.free = append(mp.free, m)
}
