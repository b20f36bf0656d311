// sim/trace/trace.go

// Package trace holds the pure-data records emitted by a run: transition
// rows for the event log and the aggregated run summary. It imports nothing
// from the simulation so storage backends and renderers can depend on it
// without pulling in the kernel.
package trace

// TransitionRecord is one patient lifecycle change.
type TransitionRecord struct {
	Tick      int64  `json:"tick"`
	PatientID int    `json:"patient_id"`
	Class     string `json:"class"`
	Protocol  string `json:"protocol"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// OccupancyRecord attributes a span of magnet time to a category.
type OccupancyRecord struct {
	Tick     int64  `json:"tick"`
	MagnetID string `json:"magnet_id"`
	Category string `json:"category"`
	Ticks    int64  `json:"ticks"`
}

// Distribution is the five-number reduction of a sample set, in minutes.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
}

// MagnetUse splits one magnet's occupied time into value-added scanning and
// everything else.
type MagnetUse struct {
	ValueAddedMinutes float64            `json:"value_added_minutes"`
	OverheadMinutes   float64            `json:"overhead_minutes"`
	Categories        map[string]float64 `json:"categories"`
}

// RunSummary is the aggregate result of one run.
type RunSummary struct {
	Completed  int                     `json:"completed"`
	CycleTime  Distribution            `json:"cycle_time"`
	ByClass    map[string]Distribution `json:"by_class"`
	StageDwell map[string]Distribution `json:"stage_dwell"`
	Magnets    map[string]MagnetUse    `json:"magnets"`
	Counters   map[string]int64        `json:"counters"`
}
