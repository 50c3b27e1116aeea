package geom_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/profileplot/pkg/geom"
	"github.com/vanderheijden86/profileplot/pkg/model"
)

func pt(x, y float64) model.Point { return model.Point{X: x, Y: y} }

func TestCCWOrientation(t *testing.T) {
	// (0,0) -> (1,0) -> (0,1) turns left.
	if !geom.CCW(pt(0, 0), pt(1, 0), pt(0, 1)) {
		t.Error("left turn should be CCW")
	}
	// Mirrored triple turns right.
	if geom.CCW(pt(0, 0), pt(1, 0), pt(0, -1)) {
		t.Error("right turn should not be CCW")
	}
}

func TestCCWCollinearIsFalse(t *testing.T) {
	if geom.CCW(pt(0, 0), pt(1, 1), pt(2, 2)) {
		t.Error("collinear points must not be CCW")
	}
	if geom.CCW(pt(3, 3), pt(3, 3), pt(3, 3)) {
		t.Error("coincident points must not be CCW")
	}
}

func TestSegmentsIntersectCrossing(t *testing.T) {
	if !geom.SegmentsIntersect(pt(0, 0), pt(2, 2), pt(0, 2), pt(2, 0)) {
		t.Error("crossing diagonals should intersect")
	}
}

func TestSegmentsIntersectDisjoint(t *testing.T) {
	if geom.SegmentsIntersect(pt(0, 0), pt(1, 0), pt(0, 2), pt(1, 2)) {
		t.Error("parallel horizontal segments should not intersect")
	}
	if geom.SegmentsIntersect(pt(0, 0), pt(1, 1), pt(5, 5), pt(6, 6)) {
		t.Error("collinear disjoint segments should not intersect")
	}
}

func TestSegmentsIntersectSharedEndpoint(t *testing.T) {
	// Touching at an endpoint is degenerate and reports no intersection.
	if geom.SegmentsIntersect(pt(0, 0), pt(1, 1), pt(1, 1), pt(2, 0)) {
		t.Error("shared endpoint should not count as an intersection")
	}
}

func TestPolylineIntersects(t *testing.T) {
	// The tent profile (1,0)-(2,5)-(3,0) and a vertical cut through it.
	tent := []model.Point{pt(1, 0), pt(2, 5), pt(3, 0)}

	if !geom.PolylineIntersects(pt(1.5, 10), pt(1.5, -10), tent) {
		t.Error("vertical cut at x=1.5 should cross the tent")
	}
	if geom.PolylineIntersects(pt(10, 10), pt(10, -10), tent) {
		t.Error("vertical cut at x=10 should miss the tent")
	}
}

func TestPolylineIntersectsDegenerate(t *testing.T) {
	cut1, cut2 := pt(0, -1), pt(0, 1)
	if geom.PolylineIntersects(cut1, cut2, nil) {
		t.Error("empty polyline cannot be crossed")
	}
	if geom.PolylineIntersects(cut1, cut2, []model.Point{pt(0, 0)}) {
		t.Error("single-point polyline cannot be crossed")
	}
}

func TestSegmentsIntersectSymmetric(t *testing.T) {
	coord := rapid.Float64Range(-100, 100)
	rapid.Check(t, func(t *rapid.T) {
		a := pt(coord.Draw(t, "ax"), coord.Draw(t, "ay"))
		b := pt(coord.Draw(t, "bx"), coord.Draw(t, "by"))
		c := pt(coord.Draw(t, "cx"), coord.Draw(t, "cy"))
		d := pt(coord.Draw(t, "dx"), coord.Draw(t, "dy"))

		if geom.SegmentsIntersect(a, b, c, d) != geom.SegmentsIntersect(c, d, a, b) {
			t.Fatal("intersection must not depend on argument order")
		}
		if geom.SegmentsIntersect(a, b, c, d) != geom.SegmentsIntersect(b, a, c, d) {
			t.Fatal("intersection must not depend on segment direction")
		}
	})
}

func TestSegmentsIntersectDisjointBoxes(t *testing.T) {
	coord := rapid.Float64Range(0, 10)
	rapid.Check(t, func(t *rapid.T) {
		// One segment in x<10, the other shifted well past it.
		a := pt(coord.Draw(t, "ax"), coord.Draw(t, "ay"))
		b := pt(coord.Draw(t, "bx"), coord.Draw(t, "by"))
		c := pt(coord.Draw(t, "cx")+100, coord.Draw(t, "cy"))
		d := pt(coord.Draw(t, "dx")+100, coord.Draw(t, "dy"))

		if geom.SegmentsIntersect(a, b, c, d) {
			t.Fatal("segments in disjoint x ranges cannot intersect")
		}
	})
}
