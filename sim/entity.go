// sim/entity.go
package sim

import "math"

// Point is a 2D floor-plan position in metres.
type Point struct {
	X, Y float64
}

func (p Point) distanceTo(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Body is the physical presence of a patient or staff member on the floor
// plan. The workflow only ever asks a body to move and whether it has
// arrived; how it gets there is a rendering concern.
type Body interface {
	// MoveTo sets a new destination, starting from wherever the body is
	// at the given tick.
	MoveTo(dest Point, at int64)
	// At returns the body's position at the given tick.
	At(tick int64) Point
	// InPosition reports whether the body has reached its destination.
	InPosition(tick int64) bool
}

// NewBody returns a kinetic body for animated runs and a headless one
// otherwise.
func NewBody(animated bool, start Point) Body {
	if animated {
		return &KineticBody{pos: start, dest: start, speedPerTick: walkSpeedPerTick}
	}
	return &HeadlessBody{pos: start}
}

// HeadlessBody teleports. Every move completes instantly, so headless runs
// never wait on travel beyond the sampled transport delays.
type HeadlessBody struct {
	pos Point
}

func (b *HeadlessBody) MoveTo(dest Point, _ int64) { b.pos = dest }
func (b *HeadlessBody) At(_ int64) Point           { return b.pos }
func (b *HeadlessBody) InPosition(_ int64) bool    { return true }

// Walking pace, metres per tick (about 1.2 m/s).
const walkSpeedPerTick = 1.2

// KineticBody interpolates linearly between its start and destination so a
// renderer can draw smooth movement. Simulation semantics do not depend on
// it: the workflow still times travel with sampled delays.
type KineticBody struct {
	pos          Point
	dest         Point
	departedAt   int64
	speedPerTick float64
}

func (b *KineticBody) MoveTo(dest Point, at int64) {
	b.pos = b.At(at)
	b.dest = dest
	b.departedAt = at
}

func (b *KineticBody) At(tick int64) Point {
	total := b.pos.distanceTo(b.dest)
	if total == 0 {
		return b.dest
	}
	travelled := float64(tick-b.departedAt) * b.speedPerTick
	if travelled >= total {
		return b.dest
	}
	f := travelled / total
	return Point{
		X: b.pos.X + (b.dest.X-b.pos.X)*f,
		Y: b.pos.Y + (b.dest.Y-b.pos.Y)*f,
	}
}

func (b *KineticBody) InPosition(tick int64) bool {
	at := b.At(tick)
	return at == b.dest
}
