package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMagnetPool_RequiresInstances(t *testing.T) {
	_, err := NewMagnetPool(NewKernel())
	require.Error(t, err)
}

// TestMagnetPool_FIFOAcrossInstances verifies waiters are served strictly in
// arrival order no matter which instance comes back first.
func TestMagnetPool_FIFOAcrossInstances(t *testing.T) {
	k := NewKernel()
	a := &Magnet{ID: "3T", Status: MagnetClean}
	b := &Magnet{ID: "1.5T", Status: MagnetClean}
	pool, err := NewMagnetPool(k, a, b)
	require.NoError(t, err)

	got := map[string]string{}
	use := func(name string, startAt, hold int64) {
		k.Spawn(name, func(p *Proc) {
			p.Delay(startAt)
			m := pool.Acquire(p)
			got[name] = m.ID
			p.Delay(hold)
			pool.Release(m)
		})
	}
	use("p1", 0, 100) // takes 3T until t=100
	use("p2", 0, 30)  // takes 1.5T until t=30
	use("p3", 10, 10) // waits; first in line
	use("p4", 20, 10) // waits; second in line

	k.Run(1000)

	assert.Equal(t, "3T", got["p1"])
	assert.Equal(t, "1.5T", got["p2"])
	// p2's instance frees first, so p3 gets 1.5T at t=30 and p4 follows.
	assert.Equal(t, "1.5T", got["p3"])
	assert.Equal(t, "1.5T", got["p4"])
	assert.Equal(t, 2, pool.Free())
}

// TestMagnetPool_MetadataSurvivesCheckin verifies per-instance metadata set
// by a holder is what the next holder observes.
func TestMagnetPool_MetadataSurvivesCheckin(t *testing.T) {
	k := NewKernel()
	m := &Magnet{ID: "3T", Status: MagnetClean}
	pool, err := NewMagnetPool(k, m)
	require.NoError(t, err)

	var seen string
	k.Spawn("first", func(p *Proc) {
		got := pool.Acquire(p)
		got.LastProtocol = "brain"
		got.Status = MagnetClean
		p.Delay(10)
		pool.Release(got)
	})
	k.Spawn("second", func(p *Proc) {
		p.Delay(5)
		got := pool.Acquire(p)
		seen = got.LastProtocol
		pool.Release(got)
	})

	k.Run(1000)

	assert.Equal(t, "brain", seen)
}

// TestMagnetPool_ReleaseInvariants verifies nil and surplus releases panic.
func TestMagnetPool_ReleaseInvariants(t *testing.T) {
	k := NewKernel()
	m := &Magnet{ID: "3T"}
	pool, err := NewMagnetPool(k, m)
	require.NoError(t, err)

	assert.Panics(t, func() { pool.Release(nil) })
	assert.Panics(t, func() { pool.Release(m) }) // never checked out
}
