package analysis

import (
	"math"
	"sort"
	"time"

	"grid-backtest/internal/model"
)

// Profile summarizes how a series moved, independent of any grid.
// It is what you look at when choosing step, take-profit and guard width.
type Profile struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`

	First float64 `json:"first"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P05   float64 `json:"p05"`
	P95   float64 `json:"p95"`

	// SpreadPct is (P95-P05) as a percent of Mean.
	SpreadPct float64 `json:"spread_pct"`
	// MaxExcursionPct is the largest distance of any high or low from the
	// first close, in percent. A guard narrower than this breaks out.
	MaxExcursionPct float64 `json:"max_excursion_pct"`
	// Crossings counts closes on the other side of the mean from the previous
	// close; a rough measure of how much the series chops.
	Crossings int `json:"crossings"`
}

func ComputeProfile(bars []model.Bar) Profile {
	p := Profile{}
	if len(bars) == 0 {
		return p
	}
	sorted := model.SortBars(bars)
	p.Count = len(sorted)
	p.Start, p.End = model.Span(sorted)
	p.First = sorted[0].Close

	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	vals := make([]float64, 0, len(sorted))
	for _, b := range sorted {
		vals = append(vals, b.Close)
		sum += b.Close
		minv = math.Min(minv, b.Low)
		maxv = math.Max(maxv, b.High)
		if p.First > 0 {
			up := (b.High/p.First - 1) * 100
			down := (1 - b.Low/p.First) * 100
			p.MaxExcursionPct = math.Max(p.MaxExcursionPct, math.Max(up, down))
		}
	}
	p.Min = minv
	p.Max = maxv
	p.Mean = sum / float64(len(vals))

	for i := 1; i < len(sorted); i++ {
		if (sorted[i-1].Close-p.Mean)*(sorted[i].Close-p.Mean) < 0 {
			p.Crossings++
		}
	}

	sort.Float64s(vals)
	p.P05 = percentileSorted(vals, 0.05)
	p.P95 = percentileSorted(vals, 0.95)
	if p.Mean != 0 {
		p.SpreadPct = (p.P95 - p.P05) / p.Mean * 100
	}
	return p
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
