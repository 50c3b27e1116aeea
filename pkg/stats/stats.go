// Package stats computes per-group aggregate curves: column-wise mean,
// min/max range, and quartile-derived error-bar extents. All statistics
// are NaN-aware: NaN entries in a column are ignored, and a column whose
// entries are all NaN yields NaN, which downstream renderers treat as
// "no drawable point". Aggregates are recomputed wholesale on membership
// or data changes, never incrementally, and never mutated after creation.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/profileplot/pkg/model"
)

// GroupAggregate holds the derived curves for one group. Every slice has
// length M (the column count of the loaded table).
type GroupAggregate struct {
	Mean     []float64 `json:"mean"`
	RangeMin []float64 `json:"range_min"`
	RangeMax []float64 `json:"range_max"`

	// Quartiles, linear-interpolation percentile method. Median is kept
	// as a sanity check only; rendering uses Q1/Q3 via the error bars.
	Q1     []float64 `json:"q1"`
	Median []float64 `json:"median"`
	Q3     []float64 `json:"q3"`

	// ErrorBottom = max(0, mean-q1), ErrorTop = max(0, q3-mean).
	ErrorBottom []float64 `json:"error_bottom"`
	ErrorTop    []float64 `json:"error_top"`

	// N is the number of member profiles the aggregate was computed from.
	N int `json:"n"`
}

// Compute derives the aggregate for one group's profiles over m columns.
// ok is false for an empty group: an empty group is valid, it simply
// produces no aggregate and renders nothing.
func Compute(profiles []model.Profile, m int) (GroupAggregate, bool) {
	if len(profiles) == 0 {
		return GroupAggregate{}, false
	}

	agg := GroupAggregate{
		Mean:        make([]float64, m),
		RangeMin:    make([]float64, m),
		RangeMax:    make([]float64, m),
		Q1:          make([]float64, m),
		Median:      make([]float64, m),
		Q3:          make([]float64, m),
		ErrorBottom: make([]float64, m),
		ErrorTop:    make([]float64, m),
		N:           len(profiles),
	}

	col := make([]float64, 0, len(profiles))
	for j := 0; j < m; j++ {
		col = col[:0]
		for _, p := range profiles {
			if j < len(p.Values) && !math.IsNaN(p.Values[j]) {
				col = append(col, p.Values[j])
			}
		}
		if len(col) == 0 {
			nan := math.NaN()
			agg.Mean[j] = nan
			agg.RangeMin[j] = nan
			agg.RangeMax[j] = nan
			agg.Q1[j] = nan
			agg.Median[j] = nan
			agg.Q3[j] = nan
			agg.ErrorBottom[j] = nan
			agg.ErrorTop[j] = nan
			continue
		}

		agg.Mean[j] = stat.Mean(col, nil)

		sort.Float64s(col)
		agg.RangeMin[j] = col[0]
		agg.RangeMax[j] = col[len(col)-1]
		agg.Q1[j] = percentile(col, 0.25)
		agg.Median[j] = percentile(col, 0.50)
		agg.Q3[j] = percentile(col, 0.75)

		agg.ErrorBottom[j] = clampNonNeg(agg.Mean[j] - agg.Q1[j])
		agg.ErrorTop[j] = clampNonNeg(agg.Q3[j] - agg.Mean[j])
	}
	return agg, true
}

// percentile computes the p-quantile of a sorted, NaN-free column by
// linear interpolation between the two closest order statistics: the
// rank is h = p*(n-1) and the result interpolates sorted[floor(h)] and
// sorted[floor(h)+1]. This is the "linear" method of np.percentile and
// R's type 7, which differs from the quantile definitions gonum's
// stat.Quantile offers.
func percentile(sorted []float64, p float64) float64 {
	h := p * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// clampNonNeg clamps v to zero from below; NaN stays NaN.
func clampNonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// MeanPolyline returns the mean curve as points over X ticks 1..M,
// matching the shape profiles use for hit-testing and rendering.
func (a GroupAggregate) MeanPolyline() []model.Point {
	pts := make([]model.Point, len(a.Mean))
	for i, v := range a.Mean {
		pts[i] = model.Point{X: float64(i + 1), Y: v}
	}
	return pts
}
