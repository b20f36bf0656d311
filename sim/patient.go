// Defines the Patient struct that models an individual exam visit in the simulation.

package sim

// PatientClass distinguishes the two admission paths through the facility.
type PatientClass string

const (
	ClassOutpatient PatientClass = "outpatient"
	ClassInpatient  PatientClass = "inpatient"
)

// PatientState is the lifecycle stage a patient is currently in. Transitions
// are strictly forward; a patient never revisits a state.
type PatientState string

const (
	StateArriving   PatientState = "arriving"
	StateRegistered PatientState = "registered"
	StateChanging   PatientState = "changing"
	StateWaiting    PatientState = "waiting"
	StatePrepped    PatientState = "prepped"
	StateScanning   PatientState = "scanning"
	StateExiting    PatientState = "exiting"
	StateCompleted  PatientState = "completed"
)

// Patient is one case moving through the facility. All clinical attributes
// are rolled once at admission so a run is reproducible from the seed alone.
type Patient struct {
	ID       int
	Class    PatientClass
	Protocol string

	NeedsIV     bool
	DifficultIV bool
	Late        bool
	LateOffset  int64 // ticks added to the scheduled arrival

	State       PatientState
	ArrivalTime int64
	// Stages records the tick at which each state was entered, for
	// per-stage dwell-time reporting.
	Stages map[PatientState]int64

	Body Body
}

func newPatient(id int, class PatientClass, protocol string, at int64, body Body) *Patient {
	return &Patient{
		ID:          id,
		Class:       class,
		Protocol:    protocol,
		State:       StateArriving,
		ArrivalTime: at,
		Stages:      map[PatientState]int64{StateArriving: at},
		Body:        body,
	}
}

// enter advances the patient to the next lifecycle state and stamps it.
func (p *Patient) enter(state PatientState, at int64) PatientState {
	prev := p.State
	p.State = state
	p.Stages[state] = at
	return prev
}

// StageDwell returns ticks spent between entering from and entering to, or
// zero when either stamp is missing.
func (p *Patient) StageDwell(from, to PatientState) int64 {
	a, okA := p.Stages[from]
	b, okB := p.Stages[to]
	if !okA || !okB || b < a {
		return 0
	}
	return b - a
}
