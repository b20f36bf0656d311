// Package sim provides the discrete-event simulation engine for an MRI
// imaging facility.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - kernel.go: The virtual clock, the (time, seq) event heap, and the
//     cooperative process model (Spawn, Delay, park/handoff)
//   - resource.go: Priority-queued capacity-N resources and their tickets
//   - facility.go: How the resources are wired together and Run drives a
//     shift
//
// Then follow a patient: admission.go generates arrivals and applies the
// gatekeeper, workflow.go is the outpatient path, inpatient.go the ward
// path, turnover.go the room restoration fork, breaks.go the staff break
// choreography.
//
// # Execution model
//
// Each patient, staff break cycle, and turnover is its own goroutine, but
// exactly one runs at a time: a process hands control to the kernel at every
// suspension point (Delay, Ticket.Wait, MagnetPool.Acquire, Signal.Wait) and
// the kernel resumes exactly one process per event. Time advances only
// between events. Events at the same tick fire in registration order, so a
// run is a pure function of its Config.
//
// # Key types
//
//   - Resource / Ticket: capacity-N seat with a (priority, arrival) queue
//   - MagnetPool / Magnet: interchangeable instances with per-unit metadata
//   - Signal: one-shot rendezvous for handoffs and room-vacated events
//   - Collector: observation sink; see sim/eventlog for the SQLite one
//
// Sub-packages hold the pieces that do not need the kernel: sim/dist is the
// duration distributions, sim/trace the pure-data result records, and
// sim/eventlog the SQLite transition log.
package sim
