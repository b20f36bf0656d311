package sim

// Signal is a one-shot rendezvous primitive. A process waiting on another
// actor's condition ("room vacated", "backup in position") parks on the
// signal and is woken exactly when Fire is called — never by polling.
// Waiters arriving after the fire proceed immediately; firing twice is a
// no-op.
type Signal struct {
	k       *Kernel
	name    string
	fired   bool
	waiters []*Proc
}

// NewSignal creates an unfired signal.
func NewSignal(k *Kernel, name string) *Signal {
	return &Signal{k: k, name: name}
}

// Fired reports whether the signal has been fired.
func (s *Signal) Fired() bool { return s.fired }

// Wait parks the process until the signal fires.
func (s *Signal) Wait(p *Proc) {
	if s.fired {
		return
	}
	s.waiters = append(s.waiters, p)
	p.park()
}

// Fire wakes all current waiters in the order they arrived.
func (s *Signal) Fire() {
	if s.fired {
		return
	}
	s.fired = true
	for _, p := range s.waiters {
		s.k.schedule(s.k.clock, s.name+" signal", p.handoff)
	}
	s.waiters = nil
}
