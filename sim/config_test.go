package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinic-sim/clinic-sim/sim/dist"
)

func TestMinutesToTicks(t *testing.T) {
	assert.Equal(t, int64(60), MinutesToTicks(1))
	assert.Equal(t, int64(90), MinutesToTicks(1.5))
	assert.Equal(t, int64(0), MinutesToTicks(0))
	// negative samples clamp to zero rather than running time backwards
	assert.Equal(t, int64(0), MinutesToTicks(-3))
	assert.Equal(t, 1.5, TicksToMinutes(90))
}

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero shift", func(c *Config) { c.ShiftMinutes = 0 }},
		{"warmup past shift", func(c *Config) { c.WarmupMinutes = c.ShiftMinutes }},
		{"negative overtime", func(c *Config) { c.OvertimeCapMinutes = -1 }},
		{"zero arrival rate", func(c *Config) { c.MeanInterArrivalMinutes = 0 }},
		{"no magnets", func(c *Config) { c.MagnetIDs = nil }},
		{"duplicate magnet", func(c *Config) { c.MagnetIDs = []string{"3T", "3T"} }},
		{"zero porters", func(c *Config) { c.Capacities.Porters = 0 }},
		{"probability above one", func(c *Config) { c.Probabilities.NoShow = 1.5 }},
		{"negative probability", func(c *Config) { c.Probabilities.Late = -0.1 }},
		{"no protocols", func(c *Config) { c.Protocols = nil }},
		{"zero-weight protocol", func(c *Config) { c.Protocols[0].Weight = 0 }},
		{"bad scan distribution", func(c *Config) { c.Protocols[0].Scan = dist.Exponential(-1) }},
		{"bad duration", func(c *Config) { c.Durations.Screening = dist.Triangular(5, 2, 1) }},
		{"no break blocks", func(c *Config) { c.Breaks.BlocksMinutes = nil }},
		{"zero-length break block", func(c *Config) { c.Breaks.BlocksMinutes = []float64{0} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestLoadConfig verifies a scenario file overrides the defaults it names
// and leaves everything else alone.
func TestLoadConfig(t *testing.T) {
	scenario := `
seed: 99
shift_minutes: 480
probabilities:
  no_show: 0.1
durations:
  handover:
    type: constant
    params:
      value: 3
`
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenario), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, 480.0, cfg.ShiftMinutes)
	assert.Equal(t, 0.1, cfg.Probabilities.NoShow)
	assert.Equal(t, "constant", cfg.Durations.Handover.Type)
	// untouched defaults survive
	assert.Equal(t, 3, cfg.Capacities.ChangeRooms)
	assert.Len(t, cfg.Protocols, 3)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
