// sim/config.go
package sim

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clinic-sim/clinic-sim/sim/dist"
)

// One tick is one second of virtual time. Process times are configured and
// sampled in minutes and converted at the suspension point.
const TicksPerMinute = 60

// MinutesToTicks converts a duration in minutes to ticks, clamping negative
// values to zero.
func MinutesToTicks(m float64) int64 {
	if m < 0 || math.IsNaN(m) {
		return 0
	}
	return int64(math.Round(m * TicksPerMinute))
}

// TicksToMinutes converts ticks back to minutes for reporting.
func TicksToMinutes(t int64) float64 {
	return float64(t) / TicksPerMinute
}

// Capacities fixes the physical and staffing capacity of the facility.
type Capacities struct {
	Porters      int `yaml:"porters"`
	AdminDesks   int `yaml:"admin_desks"`
	BackupTechs  int `yaml:"backup_techs"`
	ScanTechs    int `yaml:"scan_techs"`
	ChangeRooms  int `yaml:"change_rooms"`
	Washrooms    int `yaml:"washrooms"`
	PrepBays     int `yaml:"prep_bays"`
	HoldingSlots int `yaml:"holding_slots"`
}

// Probabilities holds the per-arrival and per-patient branch probabilities.
type Probabilities struct {
	NeedsIV     float64 `yaml:"needs_iv"`
	DifficultIV float64 `yaml:"difficult_iv"` // conditional on NeedsIV
	Washroom    float64 `yaml:"washroom"`
	NoShow      float64 `yaml:"no_show"`
	Late        float64 `yaml:"late"`
	Inpatient   float64 `yaml:"inpatient"`
}

// Durations holds one distribution spec per process step, in minutes.
type Durations struct {
	Registration dist.Spec `yaml:"registration"`
	Transport    dist.Spec `yaml:"transport"`
	Changing     dist.Spec `yaml:"changing"`
	Washroom     dist.Spec `yaml:"washroom"`
	IVSetup      dist.Spec `yaml:"iv_setup"`
	IVDifficult  dist.Spec `yaml:"iv_difficult"`
	Screening    dist.Spec `yaml:"screening"`
	HoldingPrep  dist.Spec `yaml:"holding_prep"`
	BedTransfer  dist.Spec `yaml:"bed_transfer"`
	Handover     dist.Spec `yaml:"handover"`
	ScanSetup    dist.Spec `yaml:"scan_setup"`
	ScanExit     dist.Spec `yaml:"scan_exit"`
	TurnoverFast dist.Spec `yaml:"turnover_fast"`
	TurnoverSlow dist.Spec `yaml:"turnover_slow"`
	Reconfig     dist.Spec `yaml:"reconfig"`
	LateOffset   dist.Spec `yaml:"late_offset"`
}

// ProtocolSpec is one scan protocol with its selection weight and scan-time
// distribution. The protocol name is what the quick-changeover rule compares.
type ProtocolSpec struct {
	Name   string    `yaml:"name"`
	Weight float64   `yaml:"weight"`
	Scan   dist.Spec `yaml:"scan"`
}

// BreakPlan configures the staff break choreography.
type BreakPlan struct {
	// InitialOffsetMinutes staggers roles so same-role staff never break
	// back to back at shift start.
	InitialOffsetMinutes map[StaffRole]float64 `yaml:"initial_offset_minutes"`
	StaggerMinutes       float64               `yaml:"stagger_minutes"`
	BlocksMinutes        []float64             `yaml:"blocks_minutes"`
	InterBreakMinutes    float64               `yaml:"inter_break_minutes"`
	// HandoffMinutes is the simultaneous-presence delay during which both
	// the outgoing tech and the covering backup are at the console.
	HandoffMinutes float64 `yaml:"handoff_minutes"`
	// CoverageTravelMinutes is how long the covering staff member takes to
	// get in position.
	CoverageTravelMinutes float64 `yaml:"coverage_travel_minutes"`
}

// Config is the immutable parameter set for one run, supplied in full before
// the run starts.
type Config struct {
	Seed                    int64          `yaml:"seed"`
	ShiftMinutes            float64        `yaml:"shift_minutes"`
	WarmupMinutes           float64        `yaml:"warmup_minutes"`
	OvertimeCapMinutes      float64        `yaml:"overtime_cap_minutes"`
	MeanInterArrivalMinutes float64        `yaml:"mean_inter_arrival_minutes"`
	AvgCycleMinutes         float64        `yaml:"avg_cycle_minutes"`
	MinCaseBufferMinutes    float64        `yaml:"min_case_buffer_minutes"`
	NoShowPenaltyMinutes    float64        `yaml:"no_show_penalty_minutes"`
	MagnetIDs               []string       `yaml:"magnet_ids"`
	Capacities              Capacities     `yaml:"capacities"`
	Probabilities           Probabilities  `yaml:"probabilities"`
	Durations               Durations      `yaml:"durations"`
	Protocols               []ProtocolSpec `yaml:"protocols"`
	Breaks                  BreakPlan      `yaml:"breaks"`
	// Animated selects position-interpolating entity bodies for renderers.
	// Headless runs leave it false and bodies teleport.
	Animated bool `yaml:"animated"`
}

// DefaultConfig returns the empirically-fitted baseline scenario.
// Triangular parameters follow the measured (min, mode, max) process times.
func DefaultConfig() Config {
	return Config{
		Seed:                    42,
		ShiftMinutes:            720,
		WarmupMinutes:           60,
		OvertimeCapMinutes:      300,
		MeanInterArrivalMinutes: 15,
		AvgCycleMinutes:         45,
		MinCaseBufferMinutes:    45,
		NoShowPenaltyMinutes:    15,
		MagnetIDs:               []string{"3T", "1.5T"},
		Capacities: Capacities{
			Porters:      1,
			AdminDesks:   1,
			BackupTechs:  2,
			ScanTechs:    2,
			ChangeRooms:  3,
			Washrooms:    2,
			PrepBays:     2,
			HoldingSlots: 2,
		},
		Probabilities: Probabilities{
			NeedsIV:     0.33,
			DifficultIV: 0.01,
			Washroom:    0.20,
			NoShow:      0.05,
			Late:        0.15,
			Inpatient:   0.15,
		},
		Durations: Durations{
			Registration: dist.Triangular(1.5, 3.0, 5.5),
			Transport:    dist.Triangular(1.0, 2.0, 4.0),
			Changing:     dist.Triangular(92.0/60, 190.0/60, 347.0/60),
			Washroom:     dist.Triangular(2.0, 4.0, 7.0),
			IVSetup:      dist.Triangular(92.0/60, 153.0/60, 245.0/60),
			IVDifficult:  dist.Triangular(5.0, 8.0, 12.0),
			Screening:    dist.Triangular(125.0/60, 191.0/60, 309.0/60),
			HoldingPrep:  dist.Triangular(8.0, 12.0, 18.0),
			BedTransfer:  dist.Triangular(2.0, 3.0, 5.0),
			Handover:     dist.Constant(2.0),
			ScanSetup:    dist.Triangular(1.5, 2.5, 4.0),
			ScanExit:     dist.Triangular(1.0, 2.0, 3.5),
			TurnoverFast: dist.Triangular(0.8, 1.0, 1.5),
			TurnoverSlow: dist.Triangular(4.0, 5.0, 7.0),
			Reconfig:     dist.Triangular(3.0, 4.0, 6.0),
			LateOffset:   dist.Normal(8.0, 4.0),
		},
		Protocols: []ProtocolSpec{
			{Name: "prostate", Weight: 0.40, Scan: dist.Normal(22.0, 5.0)},
			{Name: "brain", Weight: 0.35, Scan: dist.Triangular(18.0, 25.0, 35.0)},
			{Name: "msk", Weight: 0.25, Scan: dist.Triangular(12.0, 17.0, 26.0)},
		},
		Breaks: BreakPlan{
			InitialOffsetMinutes: map[StaffRole]float64{
				RoleAdmin:  30,
				RoleBackup: 60,
				RoleScan:   90,
				RolePorter: 120,
			},
			StaggerMinutes:        20,
			BlocksMinutes:         []float64{30, 15, 30, 15},
			InterBreakMinutes:     150,
			HandoffMinutes:        2.0,
			CoverageTravelMinutes: 1.0,
		},
	}
}

// LoadConfig reads a scenario file and overlays it on the built-in
// defaults: keys absent from the file keep their default values. The
// result still needs Validate.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read scenario file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse scenario file %s: %w", path, err)
	}
	return cfg, nil
}

func probCheck(name string, p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("probability %s must be in [0,1], got %v", name, p)
	}
	return nil
}

func capCheck(name string, c int) error {
	if c <= 0 {
		return fmt.Errorf("capacity %s must be positive, got %d", name, c)
	}
	return nil
}

// Validate checks the configuration. Any error here is fatal at setup: the
// run never starts.
func (c *Config) Validate() error {
	if c.ShiftMinutes <= 0 {
		return fmt.Errorf("shift_minutes must be positive, got %v", c.ShiftMinutes)
	}
	if c.WarmupMinutes < 0 || c.WarmupMinutes >= c.ShiftMinutes {
		return fmt.Errorf("warmup_minutes must be in [0, shift), got %v", c.WarmupMinutes)
	}
	if c.OvertimeCapMinutes < 0 {
		return fmt.Errorf("overtime_cap_minutes must be non-negative, got %v", c.OvertimeCapMinutes)
	}
	if c.MeanInterArrivalMinutes <= 0 {
		return fmt.Errorf("mean_inter_arrival_minutes must be positive, got %v", c.MeanInterArrivalMinutes)
	}
	if c.AvgCycleMinutes <= 0 {
		return fmt.Errorf("avg_cycle_minutes must be positive, got %v", c.AvgCycleMinutes)
	}
	if c.MinCaseBufferMinutes < 0 {
		return fmt.Errorf("min_case_buffer_minutes must be non-negative, got %v", c.MinCaseBufferMinutes)
	}
	if c.NoShowPenaltyMinutes < 0 {
		return fmt.Errorf("no_show_penalty_minutes must be non-negative, got %v", c.NoShowPenaltyMinutes)
	}
	if len(c.MagnetIDs) == 0 {
		return fmt.Errorf("at least one magnet instance required")
	}
	seen := map[string]bool{}
	for _, id := range c.MagnetIDs {
		if id == "" {
			return fmt.Errorf("magnet id must not be empty")
		}
		if seen[id] {
			return fmt.Errorf("duplicate magnet id %q", id)
		}
		seen[id] = true
	}
	for _, check := range []error{
		capCheck("porters", c.Capacities.Porters),
		capCheck("admin_desks", c.Capacities.AdminDesks),
		capCheck("backup_techs", c.Capacities.BackupTechs),
		capCheck("scan_techs", c.Capacities.ScanTechs),
		capCheck("change_rooms", c.Capacities.ChangeRooms),
		capCheck("washrooms", c.Capacities.Washrooms),
		capCheck("prep_bays", c.Capacities.PrepBays),
		capCheck("holding_slots", c.Capacities.HoldingSlots),
	} {
		if check != nil {
			return check
		}
	}
	for _, check := range []error{
		probCheck("needs_iv", c.Probabilities.NeedsIV),
		probCheck("difficult_iv", c.Probabilities.DifficultIV),
		probCheck("washroom", c.Probabilities.Washroom),
		probCheck("no_show", c.Probabilities.NoShow),
		probCheck("late", c.Probabilities.Late),
		probCheck("inpatient", c.Probabilities.Inpatient),
	} {
		if check != nil {
			return check
		}
	}
	if len(c.Protocols) == 0 {
		return fmt.Errorf("at least one scan protocol required")
	}
	totalWeight := 0.0
	for _, proto := range c.Protocols {
		if proto.Name == "" {
			return fmt.Errorf("protocol name must not be empty")
		}
		if proto.Weight <= 0 {
			return fmt.Errorf("protocol %q: weight must be positive, got %v", proto.Name, proto.Weight)
		}
		totalWeight += proto.Weight
		if _, err := dist.New(proto.Scan); err != nil {
			return fmt.Errorf("protocol %q scan distribution: %w", proto.Name, err)
		}
	}
	if totalWeight <= 0 {
		return fmt.Errorf("protocol weights must sum to a positive value")
	}
	if len(c.Breaks.BlocksMinutes) == 0 {
		return fmt.Errorf("break plan requires at least one block")
	}
	for _, b := range c.Breaks.BlocksMinutes {
		if b <= 0 {
			return fmt.Errorf("break block duration must be positive, got %v", b)
		}
	}
	if _, err := newSamplerSet(c); err != nil {
		return err
	}
	return nil
}

// samplerSet holds the compiled Sampler for each configured distribution.
type samplerSet struct {
	registration dist.Sampler
	transport    dist.Sampler
	changing     dist.Sampler
	washroom     dist.Sampler
	ivSetup      dist.Sampler
	ivDifficult  dist.Sampler
	screening    dist.Sampler
	holdingPrep  dist.Sampler
	bedTransfer  dist.Sampler
	handover     dist.Sampler
	scanSetup    dist.Sampler
	scanExit     dist.Sampler
	turnoverFast dist.Sampler
	turnoverSlow dist.Sampler
	reconfig     dist.Sampler
	lateOffset   dist.Sampler
	interArrival dist.Sampler
	scanByProto  map[string]dist.Sampler
}

func newSamplerSet(c *Config) (*samplerSet, error) {
	build := func(name string, spec dist.Spec) (dist.Sampler, error) {
		s, err := dist.New(spec)
		if err != nil {
			return nil, fmt.Errorf("duration %s: %w", name, err)
		}
		return s, nil
	}
	var (
		set samplerSet
		err error
	)
	if set.registration, err = build("registration", c.Durations.Registration); err != nil {
		return nil, err
	}
	if set.transport, err = build("transport", c.Durations.Transport); err != nil {
		return nil, err
	}
	if set.changing, err = build("changing", c.Durations.Changing); err != nil {
		return nil, err
	}
	if set.washroom, err = build("washroom", c.Durations.Washroom); err != nil {
		return nil, err
	}
	if set.ivSetup, err = build("iv_setup", c.Durations.IVSetup); err != nil {
		return nil, err
	}
	if set.ivDifficult, err = build("iv_difficult", c.Durations.IVDifficult); err != nil {
		return nil, err
	}
	if set.screening, err = build("screening", c.Durations.Screening); err != nil {
		return nil, err
	}
	if set.holdingPrep, err = build("holding_prep", c.Durations.HoldingPrep); err != nil {
		return nil, err
	}
	if set.bedTransfer, err = build("bed_transfer", c.Durations.BedTransfer); err != nil {
		return nil, err
	}
	if set.handover, err = build("handover", c.Durations.Handover); err != nil {
		return nil, err
	}
	if set.scanSetup, err = build("scan_setup", c.Durations.ScanSetup); err != nil {
		return nil, err
	}
	if set.scanExit, err = build("scan_exit", c.Durations.ScanExit); err != nil {
		return nil, err
	}
	if set.turnoverFast, err = build("turnover_fast", c.Durations.TurnoverFast); err != nil {
		return nil, err
	}
	if set.turnoverSlow, err = build("turnover_slow", c.Durations.TurnoverSlow); err != nil {
		return nil, err
	}
	if set.reconfig, err = build("reconfig", c.Durations.Reconfig); err != nil {
		return nil, err
	}
	if set.lateOffset, err = build("late_offset", c.Durations.LateOffset); err != nil {
		return nil, err
	}
	if set.interArrival, err = dist.New(dist.Exponential(c.MeanInterArrivalMinutes)); err != nil {
		return nil, fmt.Errorf("inter-arrival: %w", err)
	}
	set.scanByProto = make(map[string]dist.Sampler, len(c.Protocols))
	for _, proto := range c.Protocols {
		s, err := dist.New(proto.Scan)
		if err != nil {
			return nil, fmt.Errorf("protocol %q scan distribution: %w", proto.Name, err)
		}
		set.scanByProto[proto.Name] = s
	}
	return &set, nil
}
