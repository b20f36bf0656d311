// Implements the outpatient journey from the front desk to the exit, stage by stage.

package sim

import "fmt"

// escortToChange walks an outpatient from the desk to the change rooms. Who
// escorts is decided once, when the patient is ready to move; the decision
// is not revisited if staffing changes mid-walk.
func (f *Facility) escortToChange(p *Proc, pt *Patient) {
	walk := f.sample(f.samplers.transport)
	pt.Body.MoveTo(locChangeRooms, p.Now())
	switch {
	case f.porter.Idle() && !f.coord.PorterOnBreak() && !f.coord.DeskCoveredByPorter():
		t := f.porter.Acquire(p, TierRoutine)
		p.Delay(walk)
		t.Release()
	case f.adminDesk.Idle():
		// Whoever mans the desk walks the patient over when nobody is
		// waiting to register. The seat is held so arrivals queue rather
		// than find the desk empty.
		t := f.adminDesk.Acquire(p, TierRoutine)
		p.Delay(walk)
		t.Release()
	case f.backupTechs.Idle():
		t := f.backupTechs.Acquire(p, TierRoutine)
		p.Delay(walk)
		t.Release()
	default:
		t := f.porter.Acquire(p, TierRoutine)
		p.Delay(walk)
		t.Release()
	}
}

// outpatientFlow is the full outpatient path: register, change, wait, prep,
// scan, change back. Each suspension point is a sampled delay or a resource
// wait; the patient struct carries the timestamps.
func (f *Facility) outpatientFlow(p *Proc, pt *Patient) {
	if pt.Late {
		p.Delay(pt.LateOffset)
		f.lateArrivals++
		f.collector.CountEvent(p.Now(), "late_arrival")
	}

	// Registration. The desk seat models the service channel: during an
	// admin break a porter mans the same seat, so capacity is unchanged.
	pt.Body.MoveTo(locDesk, p.Now())
	desk := f.adminDesk.Acquire(p, TierRoutine)
	p.Delay(f.sample(f.samplers.registration))
	desk.Release()
	f.transition(pt, StateRegistered)

	f.escortToChange(p, pt)
	room := f.changeRooms.Acquire(p, TierRoutine)
	f.transition(pt, StateChanging)
	p.Delay(f.sample(f.samplers.changing))
	room.Release()

	f.transition(pt, StateWaiting)
	pt.Body.MoveTo(locWaiting, p.Now())
	if f.clinicalRNG.Float64() < f.cfg.Probabilities.Washroom {
		wc := f.washrooms.Acquire(p, TierRoutine)
		p.Delay(f.sample(f.samplers.washroom))
		wc.Release()
	}

	// Safety screening and IV setup happen in a prep bay. The IV is a
	// backup tech's job; a difficult one just takes longer.
	bay := f.prepBays.Acquire(p, TierRoutine)
	pt.Body.MoveTo(locPrep, p.Now())
	p.Delay(f.sample(f.samplers.screening))
	if pt.NeedsIV {
		sampler := f.samplers.ivSetup
		if pt.DifficultIV {
			sampler = f.samplers.ivDifficult
		}
		tech := f.backupTechs.Acquire(p, TierRoutine)
		p.Delay(f.sample(sampler))
		tech.Release()
	}
	bay.Release()
	f.transition(pt, StatePrepped)

	access := f.magnetAccess.Acquire(p, TierOutpatient)
	m := f.magnets.Acquire(p)
	m.Status = MagnetBusy
	f.transition(pt, StateScanning)
	pt.Body.MoveTo(locMagnetBay, p.Now())

	tech := f.scanTechs.Acquire(p, TierRoutine)
	f.scanPhases(p, pt, m, true)
	tech.Release()

	// The patient walks out; the room stays claimed until turnover has
	// restored it, so the fork hands the magnet and the access slot to
	// the turnover process.
	f.transition(pt, StateExiting)
	vacated := NewSignal(f.k, fmt.Sprintf("magnet %s vacated", m.ID))
	f.startTurnover(pt.Protocol, m, access, vacated)
	pt.Body.MoveTo(locChangeRooms, p.Now())
	p.Delay(f.sample(f.samplers.transport))
	vacated.Fire()

	room = f.changeRooms.Acquire(p, TierRoutine)
	p.Delay(f.sample(f.samplers.changing))
	room.Release()
	pt.Body.MoveTo(locExit, p.Now())
	f.complete(pt)
}

// scanPhases runs the in-room phases and attributes each span of magnet time
// to its occupancy category. Only the scan itself is value-added.
func (f *Facility) scanPhases(p *Proc, pt *Patient, m *Magnet, handover bool) {
	span := func(category string, d int64) {
		p.Delay(d)
		f.collector.Occupancy(p.Now(), m.ID, category, d)
	}
	if handover {
		span(OccHandover, f.sample(f.samplers.handover))
	}
	span(OccSetup, f.sample(f.samplers.scanSetup))
	span(OccScan, f.sample(f.samplers.scanByProto[pt.Protocol]))
	span(OccExit, f.sample(f.samplers.scanExit))
}

func (f *Facility) complete(pt *Patient) {
	f.transition(pt, StateCompleted)
	f.completed++
	delete(f.active, pt.ID)
	f.collector.PatientCompleted(f.k.Now(), pt)
}
