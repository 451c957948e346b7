package grid

import (
	"fmt"
	"math"

	"grid-backtest/internal/model"
)

// Build derives a symmetric ladder around mid.
//
// Long entries step down from mid and take profit above the entry; short
// entries step up and take profit below. Both sides are ordered nearest to mid
// first. Build has no side effects and is safe to call for every regrid.
func Build(mid float64, p Params) (*Ladder, error) {
	if !(mid > 0) || math.IsInf(mid, 0) {
		return nil, fmt.Errorf("%w: mid must be > 0 (got %g)", model.ErrInvalidParameter, mid)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	step := p.StepPct / 100.0
	tp := p.TpPct / 100.0

	l := &Ladder{
		Mid:    mid,
		Longs:  make([]PriceLevel, 0, p.Levels),
		Shorts: make([]PriceLevel, 0, p.Levels),
	}
	for i := 1; i <= p.Levels; i++ {
		down := mid * (1 - float64(i)*step)
		l.Longs = append(l.Longs, PriceLevel{
			Index:      i - 1,
			Side:       model.SideLong,
			Entry:      down,
			TakeProfit: down * (1 + tp),
		})

		up := mid * (1 + float64(i)*step)
		l.Shorts = append(l.Shorts, PriceLevel{
			Index:      i - 1,
			Side:       model.SideShort,
			Entry:      up,
			TakeProfit: up * (1 - tp),
		})
	}
	return l, nil
}
