package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHeadlessBody_Teleports verifies headless moves complete instantly.
func TestHeadlessBody_Teleports(t *testing.T) {
	b := NewBody(false, Point{0, 0})

	b.MoveTo(Point{100, 0}, 50)

	assert.Equal(t, Point{100, 0}, b.At(50))
	assert.True(t, b.InPosition(50))
}

// TestKineticBody_Interpolates verifies an animated body is mid-route while
// travelling and lands exactly on the destination.
func TestKineticBody_Interpolates(t *testing.T) {
	b := NewBody(true, Point{0, 0})

	// 120 metres at 1.2 m/tick: 100 ticks of travel
	b.MoveTo(Point{120, 0}, 0)

	assert.False(t, b.InPosition(10))
	mid := b.At(50)
	assert.InDelta(t, 60.0, mid.X, 1e-9)
	assert.Equal(t, Point{120, 0}, b.At(100))
	assert.True(t, b.InPosition(100))
	// position holds after arrival
	assert.Equal(t, Point{120, 0}, b.At(500))
}

// TestKineticBody_RedirectMidRoute verifies a new destination starts from
// the in-flight position, not the original origin.
func TestKineticBody_RedirectMidRoute(t *testing.T) {
	b := NewBody(true, Point{0, 0})
	b.MoveTo(Point{120, 0}, 0)

	// redirect at tick 50, 60 metres in
	b.MoveTo(Point{60, 80}, 50)

	start := b.At(50)
	assert.InDelta(t, 60.0, start.X, 1e-9)
	// 80 metres to go from (60,0): arrives ~67 ticks later
	assert.True(t, b.InPosition(117))
	assert.Equal(t, Point{60, 80}, b.At(200))
}
