package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResource_RejectsBadCapacity(t *testing.T) {
	k := NewKernel()
	_, err := NewResource(k, "bad", 0)
	require.Error(t, err)
	_, err = NewResource(k, "bad", -1)
	require.Error(t, err)
}

// TestResource_ImmediateGrant verifies a request against a free resource is
// granted without suspending.
func TestResource_ImmediateGrant(t *testing.T) {
	k := NewKernel()
	r := mustResource(k, "desk", 1)

	tkt := r.Request(TierRoutine)

	assert.True(t, tkt.Granted())
	assert.Equal(t, 1, r.Holders())
	assert.Equal(t, 0, r.QueueLen())
}

// TestResource_FIFOWithinTier verifies same-priority waiters are served in
// request order.
func TestResource_FIFOWithinTier(t *testing.T) {
	k := NewKernel()
	r := mustResource(k, "porter", 1)
	var served []string

	use := func(name string, startAt int64, hold int64) {
		k.Spawn(name, func(p *Proc) {
			p.Delay(startAt)
			tkt := r.Acquire(p, TierRoutine)
			served = append(served, name)
			p.Delay(hold)
			tkt.Release()
		})
	}
	use("a", 0, 50)
	use("b", 5, 10)
	use("c", 10, 10)

	k.Run(1000)

	assert.Equal(t, []string{"a", "b", "c"}, served)
}

// TestResource_PriorityAcrossTiers verifies a critical request filed after a
// routine one is still served first once a unit frees up.
func TestResource_PriorityAcrossTiers(t *testing.T) {
	k := NewKernel()
	r := mustResource(k, "porter", 1)
	var served []string
	var grantTick []int64

	use := func(name string, startAt int64, tier int, hold int64) {
		k.Spawn(name, func(p *Proc) {
			p.Delay(startAt)
			tkt := r.Acquire(p, tier)
			served = append(served, name)
			grantTick = append(grantTick, p.Now())
			p.Delay(hold)
			tkt.Release()
		})
	}
	// holder from t=0 to t=20, routine waiter at t=5, critical waiter at t=10
	use("holder", 0, TierRoutine, 20)
	use("routine", 5, TierRoutine, 10)
	use("critical", 10, TierCritical, 10)

	k.Run(1000)

	require.Equal(t, []string{"holder", "routine", "critical"}[0], served[0])
	assert.Equal(t, []string{"holder", "critical", "routine"}, served)
	assert.Equal(t, []int64{0, 20, 30}, grantTick)
	assert.Equal(t, 0, r.Holders())
}

// TestResource_NoQueueJumping verifies a fresh request does not overtake an
// existing waiter even when a unit is technically free at that instant.
func TestResource_NoQueueJumping(t *testing.T) {
	k := NewKernel()
	r := mustResource(k, "bay", 1)

	first := r.Request(TierRoutine)
	waiting := r.Request(TierRoutine)
	require.True(t, first.Granted())
	require.False(t, waiting.Granted())

	first.Release()
	// The freed unit went to the queued ticket; a new request must queue.
	assert.True(t, waiting.Granted())
	late := r.Request(TierRoutine)
	assert.False(t, late.Granted())
	assert.Equal(t, 1, r.QueueLen())
}

// TestTicket_ReleaseInvariants verifies the double-release and
// ungranted-release panics.
func TestTicket_ReleaseInvariants(t *testing.T) {
	k := NewKernel()
	r := mustResource(k, "desk", 1)

	tkt := r.Request(TierRoutine)
	tkt.Release()
	assert.Panics(t, func() { tkt.Release() })

	queuedBehind := r.Request(TierRoutine) // grabs the free unit
	_ = queuedBehind
	waiting := r.Request(TierRoutine)
	assert.Panics(t, func() { waiting.Release() })
}

// TestTicket_Abandon verifies abandoning a queued ticket removes it from the
// queue and abandoning a granted one releases the unit.
func TestTicket_Abandon(t *testing.T) {
	k := NewKernel()
	r := mustResource(k, "bay", 1)

	holder := r.Request(TierRoutine)
	queued := r.Request(TierRoutine)
	require.False(t, queued.Granted())

	queued.Abandon()
	assert.Equal(t, 0, r.QueueLen())

	holder.Abandon() // granted: behaves like Release
	assert.Equal(t, 0, r.Holders())
	assert.True(t, r.Idle())
}
