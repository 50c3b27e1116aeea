// Package visibility derives, from the settled engine state, what a
// rendering collaborator should show: which individual profiles are
// visible and at which emphasis tier, and which per-group curves (mean,
// range band, error bars) are drawn. Compute is a pure function producing
// an immutable style assignment; it performs no I/O and mutates nothing.
package visibility

import "github.com/vanderheijden86/profileplot/pkg/selection"

// DisplayMode controls which derived views are visible.
type DisplayMode int

const (
	RangeWithMean DisplayMode = iota
	Instances
	Mean
	InstancesWithMean

	NumDisplayModes // keep last, used for cycling
)

// String returns the mode's display label.
func (m DisplayMode) String() string {
	switch m {
	case RangeWithMean:
		return "range with mean"
	case Instances:
		return "instances"
	case Mean:
		return "mean"
	case InstancesWithMean:
		return "instances with mean"
	default:
		return "unknown"
	}
}

// ParseDisplayMode maps a config/flag string to a DisplayMode.
func ParseDisplayMode(s string) (DisplayMode, bool) {
	switch s {
	case "range", "range-with-mean":
		return RangeWithMean, true
	case "instances", "lines":
		return Instances, true
	case "mean":
		return Mean, true
	case "instances-with-mean", "lines-with-mean":
		return InstancesWithMean, true
	default:
		return RangeWithMean, false
	}
}

// Emphasis records why a profile is highlighted.
type Emphasis int

const (
	EmphasisNone Emphasis = iota
	EmphasisSelected
	EmphasisInSubset
	EmphasisBoth
)

// Tier is the three-level styling assignment renderers apply: Plain when
// nothing is highlighted anywhere, Emphasized for selected/in-subset
// profiles, Dimmed for the rest once any selection or subset exists so
// that unselected profiles visually recede. Exact widths and opacities
// are a renderer concern.
type Tier int

const (
	TierPlain Tier = iota
	TierEmphasized
	TierDimmed
)

// ProfileStyle is the per-profile visibility assignment.
type ProfileStyle struct {
	Visible  bool
	Emphasis Emphasis
	Tier     Tier
}

// GroupStyle is the per-group curve visibility assignment.
type GroupStyle struct {
	MeanVisible  bool
	RangeVisible bool
	ErrorVisible bool
}

// Snapshot is the full style assignment for one settled state.
type Snapshot struct {
	Mode          DisplayMode
	ShowErrorBars bool
	Profiles      []ProfileStyle // indexed by profile index
	Groups        map[int]GroupStyle
}

// Compute derives the style assignment. inSubset is indexed by profile
// index; groupKeys lists the group buckets that exist (empty ones
// included, they simply have no drawable aggregate).
func Compute(mode DisplayMode, showErrorBars bool, sel selection.Set, inSubset []bool, n int, groupKeys []int) Snapshot {
	snap := Snapshot{
		Mode:          mode,
		ShowErrorBars: showErrorBars,
		Profiles:      make([]ProfileStyle, n),
		Groups:        make(map[int]GroupStyle, len(groupKeys)),
	}

	gs := GroupStyle{
		MeanVisible:  mode == Mean || mode == InstancesWithMean || mode == RangeWithMean,
		RangeVisible: mode == RangeWithMean,
		ErrorVisible: showErrorBars,
	}
	for _, key := range groupKeys {
		snap.Groups[key] = gs
	}

	anyHighlight := len(sel) > 0 || anyTrue(inSubset)
	showInstances := mode == Instances || mode == InstancesWithMean

	for i := 0; i < n; i++ {
		selected := sel[i]
		subset := i < len(inSubset) && inSubset[i]

		style := ProfileStyle{Emphasis: EmphasisNone, Tier: TierPlain}
		switch {
		case selected && subset:
			style.Emphasis = EmphasisBoth
		case selected:
			style.Emphasis = EmphasisSelected
		case subset:
			style.Emphasis = EmphasisInSubset
		}

		if selected || subset {
			style.Tier = TierEmphasized
		} else if anyHighlight {
			style.Tier = TierDimmed
		}

		style.Visible = showInstances ||
			(mode == RangeWithMean && (selected || subset))
		snap.Profiles[i] = style
	}
	return snap
}

func anyTrue(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}
