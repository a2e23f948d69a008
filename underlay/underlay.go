package underlay

import (
	"math"

	"github.com/wiberlin/isds-bitcoin-prototype/interfaces"
)

// The underlay is the abstract physical layer beneath the protocols:
// positions in a 2D plane, straight-line message trajectories and the flight
// times they induce.

const (
	// FlightPerSecond is how far a message travels per virtual second.
	FlightPerSecond = 100.0

	// NetMaxX and NetMaxY bound the underlay plane; BufferZone keeps
	// randomly placed nodes away from the borders.
	NetMaxX    = 800.0
	NetMaxY    = 600.0
	BufferZone = 10.0
)

// NodeID marks an entity as a node and names it for logs and rendering.
type NodeID struct {
	Name string
}

// Position is a node's immutable 2D coordinate in the underlay plane.
type Position struct {
	X, Y float64
}

func Distance(a, b Position) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// FlightDuration is the virtual time a message needs between two positions.
func FlightDuration(a, b Position) interfaces.SimSeconds {
	return interfaces.SimSeconds(Distance(a, b) / FlightPerSecond)
}

// Line is the straight-line trajectory of an in-flight message.
type Line struct {
	Start, End Position
}

// PositionAt interpolates along the line; f is clamped to [0, 1].
func (l Line) PositionAt(f float64) Position {
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	return Position{
		X: l.Start.X + (l.End.X-l.Start.X)*f,
		Y: l.Start.Y + (l.End.Y-l.Start.Y)*f,
	}
}

// TimeSpan is the [Start, End) virtual-time interval of an in-flight
// message.
type TimeSpan struct {
	Start, End interfaces.SimSeconds
}

// Progress reports the fractional progress at the query time, clamped to
// [0, 1].
func (ts TimeSpan) Progress(now interfaces.SimSeconds) float64 {
	if ts.End <= ts.Start {
		return 1
	}
	f := float64((now - ts.Start) / (ts.End - ts.Start))
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
