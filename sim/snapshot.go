// sim/snapshot.go
package sim

import "sort"

// PatientSnapshot is one patient's externally visible state.
type PatientSnapshot struct {
	ID          int
	Class       PatientClass
	Protocol    string
	State       PatientState
	Position    Point
	WaitedTicks int64
}

// MagnetSnapshot is one magnet unit's externally visible state.
type MagnetSnapshot struct {
	ID           string
	Status       MagnetStatus
	LastProtocol string
}

// StaffSnapshot is one staff member's externally visible state.
type StaffSnapshot struct {
	Name     string
	Role     StaffRole
	OnBreak  bool
	Covering StaffRole
	Position Point
}

// Snapshot is a point-in-time copy of the observable facility state, for
// renderers and debugging. It shares no memory with the live run.
type Snapshot struct {
	Tick       int64
	Admitted   int
	Completed  int
	InSystem   int
	NoShows    int
	GateClosed bool
	Patients   []PatientSnapshot
	Magnets    []MagnetSnapshot
	Staff      []StaffSnapshot
}

// Snapshot copies the current state. It never suspends and is safe to call
// between kernel events; callers driving the kernel step by step can take
// one per frame.
func (f *Facility) Snapshot() Snapshot {
	now := f.k.Now()
	s := Snapshot{
		Tick:       now,
		Admitted:   f.admitted,
		Completed:  f.completed,
		InSystem:   f.InSystem(),
		NoShows:    f.noShows,
		GateClosed: f.GateClosed(),
	}
	for _, pt := range f.active {
		s.Patients = append(s.Patients, PatientSnapshot{
			ID:          pt.ID,
			Class:       pt.Class,
			Protocol:    pt.Protocol,
			State:       pt.State,
			Position:    pt.Body.At(now),
			WaitedTicks: now - pt.ArrivalTime,
		})
	}
	sort.Slice(s.Patients, func(i, j int) bool { return s.Patients[i].ID < s.Patients[j].ID })
	for _, m := range f.magnets.Units() {
		s.Magnets = append(s.Magnets, MagnetSnapshot{
			ID:           m.ID,
			Status:       m.Status,
			LastProtocol: m.LastProtocol,
		})
	}
	for _, st := range f.staff {
		s.Staff = append(s.Staff, StaffSnapshot{
			Name:     st.Name,
			Role:     st.Role,
			OnBreak:  st.OnBreak,
			Covering: st.Covering,
			Position: st.Body.At(now),
		})
	}
	return s
}
