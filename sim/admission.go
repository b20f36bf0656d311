// sim/admission.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// QueueBurden estimates, in minutes, how long the current backlog will take
// to clear: patients in the system times the average cycle time, divided by
// the number of parallel imaging channels.
func QueueBurden(inSystem int, avgCycleMinutes float64, channels int) float64 {
	if channels <= 0 {
		channels = 1
	}
	return float64(inSystem) * avgCycleMinutes / float64(channels)
}

// gateCheck returns a non-empty closure reason when the next arrival must be
// turned away. Once closed, the gate never reopens.
func (f *Facility) gateCheck() string {
	remaining := TicksToMinutes(f.shiftTicks - f.k.Now())
	if remaining <= 0 {
		return "shift ended"
	}
	burden := QueueBurden(f.InSystem(), f.cfg.AvgCycleMinutes, f.magnets.Total())
	if burden > remaining {
		return fmt.Sprintf("projected backlog %.0f min exceeds %.0f min remaining", burden, remaining)
	}
	if f.InSystem() > 0 && remaining < f.cfg.MinCaseBufferMinutes {
		return fmt.Sprintf("%.0f min remaining is inside the %.0f min case buffer", remaining, f.cfg.MinCaseBufferMinutes)
	}
	return ""
}

// pickProtocol selects a scan protocol by configured weight.
func (f *Facility) pickProtocol() string {
	roll := f.admissionRNG.Float64() * f.protoTotalWeight
	for _, spec := range f.cfg.Protocols {
		roll -= spec.Weight
		if roll < 0 {
			return spec.Name
		}
	}
	return f.cfg.Protocols[len(f.cfg.Protocols)-1].Name
}

// admissionLoop generates arrivals until the gatekeeper closes. All clinical
// attributes are rolled here, at admission, so a patient's path is fixed the
// moment it enters the system.
func (f *Facility) admissionLoop(p *Proc) {
	for {
		iat := MinutesToTicks(f.samplers.interArrival.Sample(f.admissionRNG))
		p.Delay(iat)

		if f.GateClosed() {
			return
		}
		if reason := f.gateCheck(); reason != "" {
			f.closeGate(reason)
			return
		}

		if f.admissionRNG.Float64() < f.cfg.Probabilities.NoShow {
			f.recordNoShow()
			continue
		}

		class := ClassOutpatient
		if f.admissionRNG.Float64() < f.cfg.Probabilities.Inpatient {
			class = ClassInpatient
		}
		protocol := f.pickProtocol()

		f.nextPatientID++
		pt := newPatient(f.nextPatientID, class, protocol, p.Now(), NewBody(f.cfg.Animated, locEntrance))
		if f.admissionRNG.Float64() < f.cfg.Probabilities.NeedsIV {
			pt.NeedsIV = true
			pt.DifficultIV = f.admissionRNG.Float64() < f.cfg.Probabilities.DifficultIV
		}
		if class == ClassOutpatient && f.admissionRNG.Float64() < f.cfg.Probabilities.Late {
			pt.Late = true
			pt.LateOffset = MinutesToTicks(f.samplers.lateOffset.Sample(f.admissionRNG))
		}

		f.admitted++
		f.active[pt.ID] = pt
		name := fmt.Sprintf("patient %d", pt.ID)
		switch class {
		case ClassInpatient:
			f.k.Spawn(name, func(pp *Proc) { f.inpatientFlow(pp, pt) })
		default:
			f.k.Spawn(name, func(pp *Proc) { f.outpatientFlow(pp, pt) })
		}
	}
}

// recordNoShow books the missed appointment's cost: the slot was reserved,
// so a magnet-access slot is held for the penalty window even though no
// patient ever materialises.
func (f *Facility) recordNoShow() {
	f.noShows++
	now := f.k.Now()
	f.collector.CountEvent(now, "no_show")
	logrus.Debugf("[tick %07d] no-show, holding a magnet slot for %.0f min", now, f.cfg.NoShowPenaltyMinutes)
	penalty := MinutesToTicks(f.cfg.NoShowPenaltyMinutes)
	f.k.Spawn("no-show hold", func(p *Proc) {
		t := f.magnetAccess.Acquire(p, TierOutpatient)
		p.Delay(penalty)
		t.Release()
	})
}
