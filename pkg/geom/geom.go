// Package geom implements the small computational-geometry kernel behind
// cutting-line selection: an orientation predicate, segment-segment
// intersection, and a polyline hit-test. All functions are pure and never
// fail for numeric input; NaN coordinates propagate through the
// comparisons and report no intersection.
package geom

import "github.com/vanderheijden86/profileplot/pkg/model"

// CCW reports whether the points a, b, c are listed in counterclockwise
// order. Degenerate cases (collinear points, exact coordinate equality)
// report false; this is an intentional simplification, not a robust
// predicate.
func CCW(a, b, c model.Point) bool {
	return (c.Y-a.Y)*(b.X-a.X) > (b.Y-a.Y)*(c.X-a.X)
}

// SegmentsIntersect reports whether segment (a,b) crosses segment (c,d),
// using the standard CCW sign-change test.
func SegmentsIntersect(a, b, c, d model.Point) bool {
	return CCW(a, c, d) != CCW(b, c, d) && CCW(a, b, c) != CCW(a, b, d)
}

// PolylineIntersects reports whether the cutting segment (p1,p2) crosses
// any consecutive-pair segment of the polyline. Short-circuits on the
// first hit. Polylines with fewer than two points cannot be crossed.
func PolylineIntersects(p1, p2 model.Point, polyline []model.Point) bool {
	for i := 0; i+1 < len(polyline); i++ {
		if SegmentsIntersect(p1, p2, polyline[i], polyline[i+1]) {
			return true
		}
	}
	return false
}
