package grid

import (
	"fmt"

	"grid-backtest/internal/model"
)

// Params defines the shape of a both-sides ladder.
// Units:
// - StepPct: percent distance between consecutive entries, measured from the midpoint
// - TpPct: percent distance from an entry to its take-profit
type Params struct {
	Levels  int     `json:"levels" yaml:"levels"`
	StepPct float64 `json:"step_pct" yaml:"step_pct"`
	TpPct   float64 `json:"tp_pct" yaml:"tp_pct"`
}

func (p Params) Validate() error {
	if p.Levels < 1 {
		return fmt.Errorf("%w: levels must be >= 1", model.ErrInvalidParameter)
	}
	if p.StepPct <= 0 {
		return fmt.Errorf("%w: step_pct must be > 0", model.ErrInvalidParameter)
	}
	if p.TpPct <= 0 {
		return fmt.Errorf("%w: tp_pct must be > 0", model.ErrInvalidParameter)
	}
	// The deepest long entry is mid*(1-levels*step/100) and must stay positive.
	if float64(p.Levels)*p.StepPct >= 100 {
		return fmt.Errorf("%w: levels*step_pct must be < 100 (got %d*%g)", model.ErrInvalidParameter, p.Levels, p.StepPct)
	}
	return nil
}
