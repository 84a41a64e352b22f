package assemble

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
)

func TestStitch(t *testing.T) {
	tests := []struct {
		name                string
		left, right, center orb.LineString
		want                orb.Ring
	}{
		{
			name:   "both boundaries run with the centerline",
			left:   orb.LineString{{0, 2}, {4, 2}},
			right:  orb.LineString{{0, 0}, {4, 0}},
			center: orb.LineString{{0, 1}, {4, 1}},
			want:   orb.Ring{{0, 2}, {4, 2}, {4, 0}, {0, 0}, {0, 2}},
		},
		{
			name:   "left runs against the centerline",
			left:   orb.LineString{{4, 2}, {0, 2}},
			right:  orb.LineString{{0, 0}, {4, 0}},
			center: orb.LineString{{0, 1}, {4, 1}},
			want:   orb.Ring{{0, 2}, {4, 2}, {4, 0}, {0, 0}, {0, 2}},
		},
		{
			name:   "right runs against the centerline",
			left:   orb.LineString{{0, 2}, {4, 2}},
			right:  orb.LineString{{4, 0}, {0, 0}},
			center: orb.LineString{{0, 1}, {4, 1}},
			want:   orb.Ring{{0, 2}, {4, 2}, {4, 0}, {0, 0}, {0, 2}},
		},
		{
			name:   "ties take the else branch",
			left:   orb.LineString{{0, 2}, {0, 0}},
			right:  orb.LineString{{1, 1}, {-1, 1}},
			center: orb.LineString{{0, 1}},
			want:   orb.Ring{{0, 0}, {0, 2}, {1, 1}, {-1, 1}, {0, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Stitch(tt.left, tt.right, tt.center)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Stitch() mismatch (-want +got):\n%s", diff)
			}
			if len(got) != len(tt.left)+len(tt.right)+1 {
				t.Errorf("len = %d, want %d", len(got), len(tt.left)+len(tt.right)+1)
			}
			if got[0] != got[len(got)-1] {
				t.Errorf("ring not closed: %v", got)
			}
		})
	}
}

func TestStitchDoesNotModifyInputs(t *testing.T) {
	left := orb.LineString{{4, 2}, {0, 2}}
	right := orb.LineString{{0, 0}, {4, 0}}
	center := orb.LineString{{0, 1}, {4, 1}}

	Stitch(left, right, center)

	if left[0] != (orb.Point{4, 2}) || right[0] != (orb.Point{0, 0}) {
		t.Errorf("inputs modified: left=%v right=%v", left, right)
	}
}

func TestStitchEmpty(t *testing.T) {
	line := orb.LineString{{0, 0}, {1, 1}}
	if got := Stitch(nil, line, line); got != nil {
		t.Errorf("Stitch() with empty left = %v, want nil", got)
	}
	if got := Stitch(line, line, orb.LineString{}); got != nil {
		t.Errorf("Stitch() with empty center = %v, want nil", got)
	}
}
