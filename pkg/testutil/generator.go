// Package testutil provides deterministic dataset generators and
// assertion helpers for profileplot tests. All generators are seeded for
// reproducible output.
package testutil

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/vanderheijden86/profileplot/pkg/model"
)

// GenerateOptions controls table generation.
type GenerateOptions struct {
	Profiles int
	Columns  int
	Groups   int     // 0 means ungrouped
	NaNRate  float64 // fraction of cells replaced with NaN
	Seed     int64
}

// GenerateTable builds a deterministic table of sine-ish profiles. Group
// keys round-robin over the group count.
func GenerateTable(opts GenerateOptions) *model.Table {
	rng := rand.New(rand.NewSource(opts.Seed))
	t := &model.Table{}
	for j := 0; j < opts.Columns; j++ {
		t.Columns = append(t.Columns, fmt.Sprintf("t%d", j+1))
	}
	if opts.Groups > 0 {
		t.GroupVar = "group"
		for g := 0; g < opts.Groups; g++ {
			t.GroupNames = append(t.GroupNames, fmt.Sprintf("g%d", g))
		}
	}
	for i := 0; i < opts.Profiles; i++ {
		p := model.Profile{
			Index: i,
			RowID: fmt.Sprintf("row-%d", i),
			Group: model.NoGroup,
		}
		if opts.Groups > 0 {
			p.Group = i % opts.Groups
		}
		phase := rng.Float64() * math.Pi
		amp := 1 + rng.Float64()*2
		for j := 0; j < opts.Columns; j++ {
			v := amp * math.Sin(phase+float64(j)/3)
			if opts.NaNRate > 0 && rng.Float64() < opts.NaNRate {
				v = math.NaN()
			}
			p.Values = append(p.Values, v)
		}
		if p.Values == nil {
			p.Values = []float64{}
		}
		t.Rows = append(t.Rows, p)
	}
	return t
}

// FlatProfile builds a profile whose values are all v, handy for exact
// aggregate assertions.
func FlatProfile(index int, v float64, m int) model.Profile {
	p := model.Profile{
		Index:  index,
		RowID:  fmt.Sprintf("row-%d", index),
		Group:  model.NoGroup,
		Values: make([]float64, m),
	}
	for j := range p.Values {
		p.Values[j] = v
	}
	return p
}

// TableOf builds a table from raw value rows; NaN cells pass through.
func TableOf(rows [][]float64) *model.Table {
	t := &model.Table{}
	m := 0
	for _, r := range rows {
		if len(r) > m {
			m = len(r)
		}
	}
	for j := 0; j < m; j++ {
		t.Columns = append(t.Columns, fmt.Sprintf("v%d", j+1))
	}
	for i, r := range rows {
		values := append([]float64(nil), r...)
		for len(values) < m {
			values = append(values, math.NaN())
		}
		t.Rows = append(t.Rows, model.Profile{
			Index:  i,
			RowID:  fmt.Sprintf("row-%d", i),
			Group:  model.NoGroup,
			Values: values,
		})
	}
	return t
}
