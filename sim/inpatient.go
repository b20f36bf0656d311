// sim/inpatient.go
package sim

import "fmt"

// inpatientFlow is the ward path. Inpatients arrive on a bed, are prepped in
// the holding room instead of changing, outrank outpatients for magnet
// access, and are portered both ways.
func (f *Facility) inpatientFlow(p *Proc, pt *Patient) {
	slot := f.holdingRoom.Acquire(p, TierRoutine)
	pt.Body.MoveTo(locHolding, p.Now())
	f.transition(pt, StateRegistered)
	p.Delay(f.sample(f.samplers.holdingPrep))
	if pt.NeedsIV {
		sampler := f.samplers.ivSetup
		if pt.DifficultIV {
			sampler = f.samplers.ivDifficult
		}
		tech := f.backupTechs.Acquire(p, TierRoutine)
		p.Delay(f.sample(sampler))
		tech.Release()
	}
	f.transition(pt, StatePrepped)

	access := f.magnetAccess.Acquire(p, TierInpatient)
	m := f.magnets.Acquire(p)
	m.Status = MagnetBusy

	// Portered to the magnet. The bed leaves the holding room with the
	// patient, freeing the slot for the next ward case.
	porter := f.porter.Acquire(p, TierCritical)
	slot.Release()
	pt.Body.MoveTo(locMagnetBay, p.Now())
	p.Delay(f.sample(f.samplers.transport))
	porter.Release()

	f.transition(pt, StateScanning)
	tech := f.scanTechs.Acquire(p, TierRoutine)
	p.Delay(f.sample(f.samplers.bedTransfer))
	f.collector.Occupancy(p.Now(), m.ID, OccHandover, p.Now()-pt.Stages[StateScanning])
	f.scanPhases(p, pt, m, false)
	tech.Release()

	f.transition(pt, StateExiting)
	vacated := NewSignal(f.k, fmt.Sprintf("magnet %s vacated", m.ID))
	f.startTurnover(pt.Protocol, m, access, vacated)

	porter = f.porter.Acquire(p, TierCritical)
	pt.Body.MoveTo(locExit, p.Now())
	p.Delay(f.sample(f.samplers.transport))
	vacated.Fire()
	porter.Release()
	f.complete(pt)
}
