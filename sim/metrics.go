// sim/metrics.go
package sim

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/clinic-sim/clinic-sim/sim/trace"
)

// Magnet occupancy categories. Scan time is the value-added portion; every
// other category is overhead the magnet spends not imaging.
const (
	OccHandover = "handover"
	OccSetup    = "setup"
	OccScan     = "scan"
	OccExit     = "exit"
	OccTurnover = "turnover"
)

// Collector receives simulation observations as they happen. Implementations
// must not suspend: they are called from running processes and the kernel
// event loop.
type Collector interface {
	// StateTransition fires on every patient lifecycle change.
	StateTransition(tick int64, p *Patient, from, to PatientState)
	// Occupancy attributes a span of magnet time to a category.
	Occupancy(tick int64, magnetID, category string, ticks int64)
	// PatientCompleted fires once per patient leaving the system.
	PatientCompleted(tick int64, p *Patient)
	// CountEvent increments a named counter (no-shows, late arrivals,
	// gate closures).
	CountEvent(tick int64, name string)
}

// NopCollector discards everything. Useful for tests that only assert on
// facility state.
type NopCollector struct{}

func (NopCollector) StateTransition(int64, *Patient, PatientState, PatientState) {}
func (NopCollector) Occupancy(int64, string, string, int64)                      {}
func (NopCollector) PatientCompleted(int64, *Patient)                            {}
func (NopCollector) CountEvent(int64, string)                                    {}

// MultiCollector fans observations out to several collectors in order.
type MultiCollector []Collector

func (m MultiCollector) StateTransition(tick int64, p *Patient, from, to PatientState) {
	for _, c := range m {
		c.StateTransition(tick, p, from, to)
	}
}

func (m MultiCollector) Occupancy(tick int64, magnetID, category string, ticks int64) {
	for _, c := range m {
		c.Occupancy(tick, magnetID, category, ticks)
	}
}

func (m MultiCollector) PatientCompleted(tick int64, p *Patient) {
	for _, c := range m {
		c.PatientCompleted(tick, p)
	}
}

func (m MultiCollector) CountEvent(tick int64, name string) {
	for _, c := range m {
		c.CountEvent(tick, name)
	}
}

// Metrics accumulates run statistics in memory. Observations before the
// warmup cutoff are dropped so steady-state numbers are not polluted by the
// empty-facility ramp.
type Metrics struct {
	warmupTicks int64

	// time-in-system per completed patient, minutes
	cycleTimes     []float64
	cycleByClass   map[PatientClass][]float64
	stageDwellMins map[PatientState][]float64

	occupancy map[string]map[string]int64 // magnetID -> category -> ticks
	counters  map[string]int64
	completed int
}

// NewMetrics creates a collector that ignores observations before
// warmupTicks.
func NewMetrics(warmupTicks int64) *Metrics {
	return &Metrics{
		warmupTicks:    warmupTicks,
		cycleByClass:   make(map[PatientClass][]float64),
		stageDwellMins: make(map[PatientState][]float64),
		occupancy:      make(map[string]map[string]int64),
		counters:       make(map[string]int64),
	}
}

func (m *Metrics) StateTransition(tick int64, p *Patient, from, to PatientState) {}

func (m *Metrics) Occupancy(tick int64, magnetID, category string, ticks int64) {
	if tick < m.warmupTicks {
		return
	}
	byCat := m.occupancy[magnetID]
	if byCat == nil {
		byCat = make(map[string]int64)
		m.occupancy[magnetID] = byCat
	}
	byCat[category] += ticks
}

// stateOrder is the canonical lifecycle order. Two states are routinely
// stamped at the same tick (a free magnet makes prepped and scanning
// coincide), and dwell attribution must not depend on map iteration order.
var stateOrder = []PatientState{
	StateArriving, StateRegistered, StateChanging, StateWaiting,
	StatePrepped, StateScanning, StateExiting, StateCompleted,
}

func (m *Metrics) PatientCompleted(tick int64, p *Patient) {
	if tick < m.warmupTicks {
		return
	}
	m.completed++
	cycle := TicksToMinutes(tick - p.ArrivalTime)
	m.cycleTimes = append(m.cycleTimes, cycle)
	m.cycleByClass[p.Class] = append(m.cycleByClass[p.Class], cycle)

	stamps := make([]PatientState, 0, len(p.Stages))
	for _, s := range stateOrder {
		if _, ok := p.Stages[s]; ok {
			stamps = append(stamps, s)
		}
	}
	sort.SliceStable(stamps, func(i, j int) bool { return p.Stages[stamps[i]] < p.Stages[stamps[j]] })
	for i := 0; i+1 < len(stamps); i++ {
		dwell := p.Stages[stamps[i+1]] - p.Stages[stamps[i]]
		m.stageDwellMins[stamps[i]] = append(m.stageDwellMins[stamps[i]], TicksToMinutes(dwell))
	}
}

func (m *Metrics) CountEvent(tick int64, name string) {
	if tick < m.warmupTicks {
		return
	}
	m.counters[name]++
}

// Counter returns a named counter's value.
func (m *Metrics) Counter(name string) int64 { return m.counters[name] }

// Completed returns the number of post-warmup completions observed.
func (m *Metrics) Completed() int { return m.completed }

func summarize(samples []float64) trace.Distribution {
	if len(samples) == 0 {
		return trace.Distribution{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return trace.Distribution{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

// Summary reduces the accumulated samples to the run summary record.
func (m *Metrics) Summary() trace.RunSummary {
	s := trace.RunSummary{
		Completed:  m.completed,
		CycleTime:  summarize(m.cycleTimes),
		ByClass:    make(map[string]trace.Distribution, len(m.cycleByClass)),
		StageDwell: make(map[string]trace.Distribution, len(m.stageDwellMins)),
		Magnets:    make(map[string]trace.MagnetUse, len(m.occupancy)),
		Counters:   make(map[string]int64, len(m.counters)),
	}
	for class, samples := range m.cycleByClass {
		s.ByClass[string(class)] = summarize(samples)
	}
	for state, samples := range m.stageDwellMins {
		s.StageDwell[string(state)] = summarize(samples)
	}
	for id, byCat := range m.occupancy {
		use := trace.MagnetUse{Categories: make(map[string]float64, len(byCat))}
		for cat, ticks := range byCat {
			mins := TicksToMinutes(ticks)
			use.Categories[cat] = mins
			if cat == OccScan {
				use.ValueAddedMinutes += mins
			} else {
				use.OverheadMinutes += mins
			}
		}
		s.Magnets[id] = use
	}
	for name, v := range m.counters {
		s.Counters[name] = v
	}
	return s
}

// Print writes a human-readable report.
func (m *Metrics) Print(w io.Writer) {
	s := m.Summary()
	fmt.Fprintf(w, "completed patients: %d\n", s.Completed)
	printDist(w, "cycle time (min)", s.CycleTime)
	classes := sortedKeys(s.ByClass)
	for _, class := range classes {
		printDist(w, "  "+class, s.ByClass[class])
	}
	fmt.Fprintln(w, "magnet utilisation (min):")
	for _, id := range sortedKeys(s.Magnets) {
		use := s.Magnets[id]
		fmt.Fprintf(w, "  %-6s value-added %.1f, overhead %.1f\n", id, use.ValueAddedMinutes, use.OverheadMinutes)
	}
	for _, name := range sortedKeys(s.Counters) {
		fmt.Fprintf(w, "%s: %d\n", name, s.Counters[name])
	}
}

func printDist(w io.Writer, label string, d trace.Distribution) {
	if d.Count == 0 {
		return
	}
	fmt.Fprintf(w, "%s: n=%d mean=%.1f median=%.1f p90=%.1f max=%.1f\n",
		label, d.Count, d.Mean, d.Median, d.P90, d.Max)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
