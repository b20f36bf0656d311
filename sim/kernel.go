// sim/kernel.go
package sim

import (
	"container/heap"

	"github.com/sirupsen/logrus"
)

// wakeup is a pending kernel event: at `time`, run `fire`. seq is assigned at
// registration time so that events scheduled for the same instant fire in
// registration order — the deterministic tie-break.
type wakeup struct {
	time  int64
	seq   uint64
	label string
	fire  func()
}

// wakeupHeap implements heap.Interface and orders wakeups by (time, seq).
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type wakeupHeap []*wakeup

func (h wakeupHeap) Len() int { return len(h) }
func (h wakeupHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}
func (h wakeupHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *wakeupHeap) Push(x any) {
	*h = append(*h, x.(*wakeup))
}

func (h *wakeupHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}

// Kernel maintains virtual time and the set of suspended processes.
//
// Execution model: cooperative. Exactly one process runs at any moment; the
// kernel resumes a process and blocks until that process parks again (on a
// timed delay, a resource ticket, a pool slot, or a signal) or returns. Time
// advances only between events, never while a process is running, so no two
// processes ever touch shared state concurrently and no locking is needed.
type Kernel struct {
	clock  int64
	seq    uint64
	events wakeupHeap
	// parked is the rendezvous through which a running process hands control
	// back to the kernel.
	parked chan struct{}
	procs  int
}

// NewKernel creates a kernel at virtual time zero with no pending events.
func NewKernel() *Kernel {
	return &Kernel{parked: make(chan struct{})}
}

// Now returns the current virtual time in ticks.
func (k *Kernel) Now() int64 { return k.clock }

// Pending returns the number of scheduled wakeups.
func (k *Kernel) Pending() int { return k.events.Len() }

// Procs returns the number of live processes (running or suspended).
func (k *Kernel) Procs() int { return k.procs }

func (k *Kernel) nextSeq() uint64 {
	k.seq++
	return k.seq
}

// schedule registers fire to run at virtual time `at`. Times in the past are
// clamped to the current instant.
func (k *Kernel) schedule(at int64, label string, fire func()) {
	if at < k.clock {
		at = k.clock
	}
	heap.Push(&k.events, &wakeup{time: at, seq: k.nextSeq(), label: label, fire: fire})
}

// Proc is the handle a simulated process carries across its suspension
// points. All workflow state lives on the stack of the process goroutine or
// in the explicit structs it holds — never in kernel globals.
type Proc struct {
	k      *Kernel
	name   string
	resume chan struct{}
}

// Name returns the process name used in event logs.
func (p *Proc) Name() string { return p.name }

// Now returns the current virtual time.
func (p *Proc) Now() int64 { return p.k.clock }

// Kernel returns the owning kernel.
func (p *Proc) Kernel() *Kernel { return p.k }

// park suspends the calling process until the kernel resumes it.
// The wake condition MUST be registered before calling park.
func (p *Proc) park() {
	p.k.parked <- struct{}{}
	<-p.resume
}

// handoff transfers control to this process and blocks the kernel until the
// process suspends again or finishes. Called only from the event loop.
func (p *Proc) handoff() {
	p.resume <- struct{}{}
	<-p.k.parked
}

// Delay suspends the process for d ticks. Negative durations are clamped to
// zero so that a mis-sampled timeout can never run the clock backwards.
func (p *Proc) Delay(d int64) {
	if d < 0 {
		d = 0
	}
	p.k.schedule(p.k.clock+d, p.name, p.handoff)
	p.park()
}

// Spawn registers fn as a new process that starts at the current instant,
// after all already-registered events for this instant have fired.
func (k *Kernel) Spawn(name string, fn func(*Proc)) {
	p := &Proc{k: k, name: name, resume: make(chan struct{})}
	k.procs++
	go func() {
		<-p.resume
		fn(p)
		k.procs--
		k.parked <- struct{}{}
	}()
	k.schedule(k.clock, name+" start", p.handoff)
}

// Run drains the event heap, advancing virtual time to each event in turn.
// It stops when no events remain or when the next event lies beyond `until`
// (the safety ceiling); events past the ceiling stay queued so the caller
// can detect a truncated run.
//
// Processes still parked when Run returns (break timers scheduled past the
// ceiling, waiters on a resource that never frees) stay blocked on their
// resume channels for the life of the Go process — each run pins its
// leftover goroutines. Harmless for a run-once CLI; embedders constructing
// many facilities in one process should size the ceiling so runs drain, or
// accept the residue.
func (k *Kernel) Run(until int64) {
	for k.events.Len() > 0 {
		if k.events[0].time > until {
			break
		}
		ev := heap.Pop(&k.events).(*wakeup)
		k.clock = ev.time
		logrus.Debugf("[tick %07d] %s", k.clock, ev.label)
		ev.fire()
	}
}
