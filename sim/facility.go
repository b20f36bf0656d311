// sim/facility.go
package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/clinic-sim/clinic-sim/sim/dist"
)

// Floor-plan landmarks, metres from the entrance. Only bodies care about
// these; process timing comes from the sampled delays.
var (
	locEntrance    = Point{0, 0}
	locDesk        = Point{8, 0}
	locChangeRooms = Point{14, 4}
	locPrep        = Point{20, 4}
	locWaiting     = Point{16, 0}
	locHolding     = Point{20, -4}
	locMagnetBay   = Point{28, 0}
	locExit        = Point{4, 6}
	locBreakRoom   = Point{10, 10}
)

// Facility wires the resources, staff, and processes of one run together.
// It is single-run: construct, Run once, then read the result and the
// collector.
type Facility struct {
	k         *Kernel
	cfg       Config
	samplers  *samplerSet
	collector Collector

	// RNG streams, partitioned by concern so that adding draws to one
	// subsystem does not perturb the others.
	admissionRNG *rand.Rand
	clinicalRNG  *rand.Rand
	durationRNG  *rand.Rand

	adminDesk    *Resource
	porter       *Resource
	backupTechs  *Resource
	scanTechs    *Resource
	magnetAccess *Resource
	changeRooms  *Resource
	washrooms    *Resource
	prepBays     *Resource
	holdingRoom  *Resource

	magnets *MagnetPool
	staff   []*Staff
	coord   *Coordinator

	shiftTicks       int64
	overtimeCapTicks int64

	nextPatientID int
	admitted      int
	completed     int
	noShows       int
	lateArrivals  int
	active        map[int]*Patient

	gateClosedAt int64
	gateReason   string

	protoTotalWeight float64
}

// Result reports how a run ended.
type Result struct {
	EndedAt      int64
	Admitted     int
	Completed    int
	InSystem     int
	NoShows      int
	LateArrivals int
	GateClosedAt int64
	GateReason   string
	// Truncated means the overtime ceiling cut the run off with patients
	// still in flight.
	Truncated bool
}

// NewFacility validates the configuration and builds the resource graph.
func NewFacility(cfg Config, collector Collector) (*Facility, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	samplers, err := newSamplerSet(&cfg)
	if err != nil {
		return nil, err
	}
	if collector == nil {
		collector = NopCollector{}
	}

	k := NewKernel()
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	f := &Facility{
		k:                k,
		cfg:              cfg,
		samplers:         samplers,
		collector:        collector,
		admissionRNG:     rng.ForSubsystem(SubsystemAdmission),
		clinicalRNG:      rng.ForSubsystem(SubsystemClinical),
		durationRNG:      rng.ForSubsystem(SubsystemDurations),
		shiftTicks:       MinutesToTicks(cfg.ShiftMinutes),
		overtimeCapTicks: MinutesToTicks(cfg.OvertimeCapMinutes),
		active:           make(map[int]*Patient),
		gateClosedAt:     -1,
	}

	f.adminDesk = mustResource(k, "admin desk", cfg.Capacities.AdminDesks)
	f.porter = mustResource(k, "porter", cfg.Capacities.Porters)
	f.backupTechs = mustResource(k, "backup techs", cfg.Capacities.BackupTechs)
	f.scanTechs = mustResource(k, "scan techs", cfg.Capacities.ScanTechs)
	f.changeRooms = mustResource(k, "change rooms", cfg.Capacities.ChangeRooms)
	f.washrooms = mustResource(k, "washrooms", cfg.Capacities.Washrooms)
	f.prepBays = mustResource(k, "prep bays", cfg.Capacities.PrepBays)
	f.holdingRoom = mustResource(k, "holding room", cfg.Capacities.HoldingSlots)
	// One access slot per magnet: holding a slot is the right to occupy a
	// magnet next, priority-ordered; the pool hands out the concrete unit.
	f.magnetAccess = mustResource(k, "magnet access", len(cfg.MagnetIDs))

	units := make([]*Magnet, len(cfg.MagnetIDs))
	for i, id := range cfg.MagnetIDs {
		units[i] = &Magnet{ID: id, Status: MagnetClean}
	}
	f.magnets, err = NewMagnetPool(k, units...)
	if err != nil {
		return nil, err
	}

	for _, spec := range cfg.Protocols {
		f.protoTotalWeight += spec.Weight
	}

	f.staff = buildRoster(&cfg)
	f.coord = newCoordinator(f)
	return f, nil
}

func buildRoster(cfg *Config) []*Staff {
	var roster []*Staff
	add := func(role StaffRole, n int, home Point) {
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("%s-%d", role, i+1)
			roster = append(roster, newStaff(name, role, i, NewBody(cfg.Animated, home)))
		}
	}
	add(RoleAdmin, cfg.Capacities.AdminDesks, locDesk)
	add(RolePorter, cfg.Capacities.Porters, locDesk)
	add(RoleBackup, cfg.Capacities.BackupTechs, locPrep)
	add(RoleScan, cfg.Capacities.ScanTechs, locMagnetBay)
	return roster
}

// Kernel exposes the kernel for tests and external drivers.
func (f *Facility) Kernel() *Kernel { return f.k }

// Config returns the run configuration.
func (f *Facility) Config() Config { return f.cfg }

// InSystem is the number of admitted patients not yet completed. No-shows
// never enter the system, so they are excluded by construction.
func (f *Facility) InSystem() int { return f.admitted - f.completed }

// GateClosed reports whether admissions have stopped.
func (f *Facility) GateClosed() bool { return f.gateClosedAt >= 0 }

func (f *Facility) closeGate(reason string) {
	if f.GateClosed() {
		return
	}
	f.gateClosedAt = f.k.Now()
	f.gateReason = reason
	f.collector.CountEvent(f.k.Now(), "gate_closed")
	logrus.Infof("[tick %07d] gate closed: %s (in system: %d)", f.k.Now(), reason, f.InSystem())
}

func (f *Facility) transition(p *Patient, to PatientState) {
	now := f.k.Now()
	from := p.enter(to, now)
	f.collector.StateTransition(now, p, from, to)
	logrus.Debugf("[tick %07d] patient %d: %s -> %s", now, p.ID, from, to)
}

// sample draws a duration in minutes from the shared duration stream and
// converts it to ticks.
func (f *Facility) sample(s dist.Sampler) int64 {
	return MinutesToTicks(s.Sample(f.durationRNG))
}

// Run executes the simulation and blocks until the event heap drains or the
// overtime ceiling is reached. It may be called once.
func (f *Facility) Run() Result {
	f.k.Spawn("admissions", f.admissionLoop)
	f.coord.start()
	// The gate closes at shift end no matter when the next arrival would
	// have come in.
	f.k.Spawn("gate timer", func(p *Proc) {
		p.Delay(f.shiftTicks)
		if !f.GateClosed() {
			f.closeGate("shift ended")
		}
	})

	ceiling := f.shiftTicks + f.overtimeCapTicks
	f.k.Run(ceiling)

	res := Result{
		EndedAt:      f.k.Now(),
		Admitted:     f.admitted,
		Completed:    f.completed,
		InSystem:     f.InSystem(),
		NoShows:      f.noShows,
		LateArrivals: f.lateArrivals,
		GateClosedAt: f.gateClosedAt,
		GateReason:   f.gateReason,
		// Break timers parked past the ceiling are benign; only patients
		// still in flight mean the ceiling cut the run short.
		Truncated: f.InSystem() > 0,
	}
	if res.Truncated {
		logrus.Warnf("[tick %07d] run truncated at overtime ceiling with %d patients in system",
			res.EndedAt, res.InSystem)
	} else {
		logrus.Infof("[tick %07d] run complete: %d admitted, %d completed, %d no-shows",
			res.EndedAt, res.Admitted, res.Completed, res.NoShows)
	}
	return res
}
