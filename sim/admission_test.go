package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueueBurden verifies the backlog estimate.
func TestQueueBurden(t *testing.T) {
	// 5 patients at 45 min each across 2 magnets: 112.5 minutes of work.
	assert.InDelta(t, 112.5, QueueBurden(5, 45, 2), 1e-9)
	assert.Equal(t, 0.0, QueueBurden(0, 45, 2))
	// A zero channel count must not divide by zero.
	assert.Equal(t, 90.0, QueueBurden(2, 45, 0))
}

// TestGateCheck_ClosesOnProjectedBacklog verifies the gate refuses arrivals
// whose backlog cannot clear before shift end.
func TestGateCheck_ClosesOnProjectedBacklog(t *testing.T) {
	f, err := NewFacility(DefaultConfig(), nil)
	require.NoError(t, err)

	// 60 minutes left, 5 patients in the system: burden 112.5 > 60.
	f.k.clock = f.shiftTicks - MinutesToTicks(60)
	f.admitted = 5
	assert.Contains(t, f.gateCheck(), "backlog")
}

// TestGateCheck_ClosesInsideCaseBuffer verifies a non-empty facility stops
// admitting inside the minimum case buffer even when the backlog is small.
func TestGateCheck_ClosesInsideCaseBuffer(t *testing.T) {
	f, err := NewFacility(DefaultConfig(), nil)
	require.NoError(t, err)

	// 30 minutes left is inside the 45-minute buffer; one patient in
	// system, burden only 22.5.
	f.k.clock = f.shiftTicks - MinutesToTicks(30)
	f.admitted = 1
	assert.Contains(t, f.gateCheck(), "case buffer")

	// An empty facility can still take a walk-in.
	f.admitted = 0
	assert.Empty(t, f.gateCheck())
}

// TestGateCheck_ShiftEnd verifies the hard close at shift end.
func TestGateCheck_ShiftEnd(t *testing.T) {
	f, err := NewFacility(DefaultConfig(), nil)
	require.NoError(t, err)

	f.k.clock = f.shiftTicks
	assert.Equal(t, "shift ended", f.gateCheck())
}

// TestGateCheck_OpenEarly verifies the gate stays open with plenty of shift
// left.
func TestGateCheck_OpenEarly(t *testing.T) {
	f, err := NewFacility(DefaultConfig(), nil)
	require.NoError(t, err)

	f.admitted = 3
	assert.Empty(t, f.gateCheck())
}

// TestCloseGate_IsPermanent verifies the first closure wins: the gate never
// reopens and never changes its mind about why it closed.
func TestCloseGate_IsPermanent(t *testing.T) {
	f, err := NewFacility(DefaultConfig(), nil)
	require.NoError(t, err)

	f.k.clock = MinutesToTicks(100)
	f.closeGate("first reason")
	closedAt := f.gateClosedAt

	f.k.clock = MinutesToTicks(200)
	f.closeGate("second reason")

	assert.True(t, f.GateClosed())
	assert.Equal(t, closedAt, f.gateClosedAt)
	assert.Equal(t, "first reason", f.gateReason)
}

// TestRecordNoShow verifies a no-show creates no patient but ties up one
// magnet-access slot for exactly the penalty window.
func TestRecordNoShow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NoShowPenaltyMinutes = 15
	f, err := NewFacility(cfg, nil)
	require.NoError(t, err)

	f.recordNoShow()
	penalty := MinutesToTicks(15)

	var midHolders, afterHolders int
	f.k.Spawn("observer", func(p *Proc) {
		p.Delay(penalty / 2)
		midHolders = f.magnetAccess.Holders()
		p.Delay(penalty)
		afterHolders = f.magnetAccess.Holders()
	})
	f.k.Run(10 * penalty)

	assert.Equal(t, 1, f.noShows)
	assert.Equal(t, 0, f.admitted)
	assert.Empty(t, f.active)
	assert.Equal(t, 1, midHolders)
	assert.Equal(t, 0, afterHolders)
}
