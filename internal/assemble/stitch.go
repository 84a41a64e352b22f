package assemble

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Stitch joins the left and right boundaries of a lane into one closed ring.
//
// The centerline's first point picks each boundary's direction: left is
// appended forward when its first point is strictly closer than its last,
// reversed otherwise; right is appended reversed when its first point is
// strictly closer, forward otherwise. The ring is closed with its first point.
// Distances are planar on lng/lat. Inputs are never modified.
// Returns nil if any input is empty.
func Stitch(left, right, center orb.LineString) orb.Ring {
	if len(left) == 0 || len(right) == 0 || len(center) == 0 {
		return nil
	}

	c0 := center[0]
	ring := make(orb.Ring, 0, len(left)+len(right)+1)

	if planar.Distance(c0, left[0]) < planar.Distance(c0, left[len(left)-1]) {
		ring = append(ring, left...)
	} else {
		ring = appendReversed(ring, left)
	}

	if planar.Distance(c0, right[0]) < planar.Distance(c0, right[len(right)-1]) {
		ring = appendReversed(ring, right)
	} else {
		ring = append(ring, right...)
	}

	return append(ring, ring[0])
}

func appendReversed(dst orb.Ring, ls orb.LineString) orb.Ring {
	for i := len(ls) - 1; i >= 0; i-- {
		dst = append(dst, ls[i])
	}
	return dst
}
