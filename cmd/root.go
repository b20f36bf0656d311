package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/clinic-sim/clinic-sim/sim"
	"github.com/clinic-sim/clinic-sim/sim/eventlog"
)

var (
	// CLI flags for the run scenario
	seed            int64   // Master seed; every random stream derives from it
	shiftMinutes    float64 // Scheduled shift length
	warmupMinutes   float64 // Observations before this are dropped from metrics
	overtimeMinutes float64 // Overtime safety ceiling past shift end
	rate            float64 // Mean inter-arrival time (minutes)
	avgCycle        float64 // Average cycle time assumed by the gatekeeper
	minCaseBuffer   float64 // Minimum minutes left to take a non-first case
	noShowPenalty   float64 // Minutes a no-show ties up a magnet slot
	logLevel        string  // Log verbosity level
	configPath      string  // Optional YAML scenario overlaid on the defaults
	transitionsDB   string  // Optional SQLite event log path
	animated        bool    // Interpolating bodies for renderers

	// CLI flags for capacities
	porters      int
	changeRooms  int
	washrooms    int
	prepBays     int
	backupTechs  int
	scanTechs    int
	holdingSlots int

	// CLI flags for probabilities
	probIV          float64
	probDifficultIV float64
	probWashroom    float64
	probNoShow      float64
	probLate        float64
	probInpatient   float64
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "clinic-sim",
	Short: "Discrete-event simulator for an MRI imaging facility",
}

// applyFlagOverrides copies every flag the user set explicitly over the
// scenario values, so a scenario file and spot overrides compose.
func applyFlagOverrides(cmd *cobra.Command, cfg *sim.Config) {
	set := cmd.Flags().Changed
	if set("seed") {
		cfg.Seed = seed
	}
	if set("shift-minutes") {
		cfg.ShiftMinutes = shiftMinutes
	}
	if set("warmup-minutes") {
		cfg.WarmupMinutes = warmupMinutes
	}
	if set("overtime-cap-minutes") {
		cfg.OvertimeCapMinutes = overtimeMinutes
	}
	if set("rate") {
		cfg.MeanInterArrivalMinutes = rate
	}
	if set("avg-cycle-minutes") {
		cfg.AvgCycleMinutes = avgCycle
	}
	if set("min-case-buffer-minutes") {
		cfg.MinCaseBufferMinutes = minCaseBuffer
	}
	if set("no-show-penalty-minutes") {
		cfg.NoShowPenaltyMinutes = noShowPenalty
	}
	if set("animated") {
		cfg.Animated = animated
	}

	if set("porters") {
		cfg.Capacities.Porters = porters
	}
	if set("change-rooms") {
		cfg.Capacities.ChangeRooms = changeRooms
	}
	if set("washrooms") {
		cfg.Capacities.Washrooms = washrooms
	}
	if set("prep-bays") {
		cfg.Capacities.PrepBays = prepBays
	}
	if set("backup-techs") {
		cfg.Capacities.BackupTechs = backupTechs
	}
	if set("scan-techs") {
		cfg.Capacities.ScanTechs = scanTechs
	}
	if set("holding-slots") {
		cfg.Capacities.HoldingSlots = holdingSlots
	}

	if set("prob-iv") {
		cfg.Probabilities.NeedsIV = probIV
	}
	if set("prob-difficult-iv") {
		cfg.Probabilities.DifficultIV = probDifficultIV
	}
	if set("prob-washroom") {
		cfg.Probabilities.Washroom = probWashroom
	}
	if set("prob-no-show") {
		cfg.Probabilities.NoShow = probNoShow
	}
	if set("prob-late") {
		cfg.Probabilities.Late = probLate
	}
	if set("prob-inpatient") {
		cfg.Probabilities.Inpatient = probInpatient
	}
}

// runCmd executes one simulated shift using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulated shift",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := sim.DefaultConfig()
		if configPath != "" {
			cfg, err = sim.LoadConfig(configPath)
			if err != nil {
				logrus.Fatalf("Unable to load scenario: %v", err)
			}
		}
		applyFlagOverrides(cmd, &cfg)

		metrics := sim.NewMetrics(sim.MinutesToTicks(cfg.WarmupMinutes))
		collector := sim.Collector(metrics)
		if transitionsDB != "" {
			store, err := eventlog.Open(transitionsDB)
			if err != nil {
				logrus.Fatalf("Unable to open event log: %v", err)
			}
			defer store.Close()
			runID, err := store.StartRun(cfg.Seed)
			if err != nil {
				logrus.Fatalf("Unable to register run: %v", err)
			}
			logrus.Infof("Logging transitions to %s, run %s", transitionsDB, runID)
			collector = sim.MultiCollector{metrics, store.NewCollector(runID)}
		}

		facility, err := sim.NewFacility(cfg, collector)
		if err != nil {
			logrus.Fatalf("Unable to set up facility: %v", err)
		}

		logrus.Infof("Starting shift: seed=%d, shift=%.0fmin, magnets=%v",
			cfg.Seed, cfg.ShiftMinutes, cfg.MagnetIDs)
		startTime := time.Now()

		result := facility.Run()
		metrics.Print(os.Stdout)

		if result.Truncated {
			logrus.Warnf("Run truncated at the overtime ceiling with %d patients in system", result.InSystem)
		}
		logrus.Infof("Simulation complete in %v (virtual end tick %d).", time.Since(startTime), result.EndedAt)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for all random streams")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Shift timing and gatekeeper
	runCmd.Flags().Float64Var(&shiftMinutes, "shift-minutes", 720, "Scheduled shift length in minutes")
	runCmd.Flags().Float64Var(&warmupMinutes, "warmup-minutes", 60, "Warmup minutes excluded from metrics")
	runCmd.Flags().Float64Var(&overtimeMinutes, "overtime-cap-minutes", 300, "Overtime ceiling past shift end, in minutes")
	runCmd.Flags().Float64Var(&rate, "rate", 15, "Mean inter-arrival time in minutes")
	runCmd.Flags().Float64Var(&avgCycle, "avg-cycle-minutes", 45, "Average cycle time assumed by the gatekeeper")
	runCmd.Flags().Float64Var(&minCaseBuffer, "min-case-buffer-minutes", 45, "Minimum minutes remaining to admit into a busy facility")
	runCmd.Flags().Float64Var(&noShowPenalty, "no-show-penalty-minutes", 15, "Minutes a no-show ties up a magnet slot")

	// Capacities
	runCmd.Flags().IntVar(&porters, "porters", 1, "Number of porters")
	runCmd.Flags().IntVar(&changeRooms, "change-rooms", 3, "Number of change rooms")
	runCmd.Flags().IntVar(&washrooms, "washrooms", 2, "Number of washrooms")
	runCmd.Flags().IntVar(&prepBays, "prep-bays", 2, "Number of prep bays")
	runCmd.Flags().IntVar(&backupTechs, "backup-techs", 2, "Number of backup technologists")
	runCmd.Flags().IntVar(&scanTechs, "scan-techs", 2, "Number of scan technologists")
	runCmd.Flags().IntVar(&holdingSlots, "holding-slots", 2, "Number of inpatient holding slots")

	// Probabilities
	runCmd.Flags().Float64Var(&probIV, "prob-iv", 0.33, "Probability a patient needs an IV")
	runCmd.Flags().Float64Var(&probDifficultIV, "prob-difficult-iv", 0.01, "Probability an IV start is difficult, given an IV")
	runCmd.Flags().Float64Var(&probWashroom, "prob-washroom", 0.20, "Probability of a washroom excursion while waiting")
	runCmd.Flags().Float64Var(&probNoShow, "prob-no-show", 0.05, "Probability an appointment is a no-show")
	runCmd.Flags().Float64Var(&probLate, "prob-late", 0.15, "Probability an outpatient arrives late")
	runCmd.Flags().Float64Var(&probInpatient, "prob-inpatient", 0.15, "Probability an arrival is an inpatient")

	// Scenario and outputs
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML scenario file overlaid on the built-in defaults")
	runCmd.Flags().StringVar(&transitionsDB, "transitions-db", "", "SQLite file receiving per-run transition rows")
	runCmd.Flags().BoolVar(&animated, "animated", false, "Interpolate entity positions for renderers")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
