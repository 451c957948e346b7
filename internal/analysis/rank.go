package analysis

import (
	"fmt"
	"sort"

	"grid-backtest/internal/backtest"
	"grid-backtest/internal/model"
)

// Ranked is the outcome of one parameter combination.
type Ranked struct {
	Config      backtest.Config `json:"config"`
	Sessions    int             `json:"sessions"`
	Breakouts   int             `json:"breakouts"`
	CyclesLong  int             `json:"cycles_long"`
	CyclesShort int             `json:"cycles_short"`
	TotalPnl    float64         `json:"total_pnl"`
	Bars        int             `json:"bars"`
}

func (r Ranked) Cycles() int { return r.CyclesLong + r.CyclesShort }

// Sweep runs base once per (step, tp) pair and ranks the outcomes by TotalPnl,
// then by completed cycles, both descending. An empty steps or tps list keeps
// the value from base. With autoRegrid every run is a session sequence;
// otherwise a single session.
func Sweep(bars []model.Bar, base backtest.Config, steps, tps []float64, autoRegrid bool) ([]Ranked, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars to sweep", model.ErrEmptyInput)
	}
	if len(steps) == 0 {
		steps = []float64{base.Grid.StepPct}
	}
	if len(tps) == 0 {
		tps = []float64{base.Grid.TpPct}
	}

	sorted := model.SortBars(bars)
	engine := backtest.New()
	out := make([]Ranked, 0, len(steps)*len(tps))
	for _, step := range steps {
		for _, tp := range tps {
			cfg := base
			cfg.Grid.StepPct = step
			cfg.Grid.TpPct = tp
			r, err := runOne(engine, sorted, cfg, autoRegrid)
			if err != nil {
				return nil, fmt.Errorf("step=%g tp=%g: %w", step, tp, err)
			}
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalPnl != out[j].TotalPnl {
			return out[i].TotalPnl > out[j].TotalPnl
		}
		return out[i].Cycles() > out[j].Cycles()
	})
	return out, nil
}

func runOne(engine *backtest.Engine, bars []model.Bar, cfg backtest.Config, autoRegrid bool) (Ranked, error) {
	r := Ranked{Config: cfg}
	if autoRegrid {
		agg, err := engine.RunSequence(bars, cfg)
		if err != nil {
			return r, err
		}
		r.Sessions = agg.Sessions
		r.Breakouts = agg.Breakouts
		r.CyclesLong = agg.CyclesLong
		r.CyclesShort = agg.CyclesShort
		r.TotalPnl = agg.TotalPnl
		r.Bars = agg.Bars
		return r, nil
	}
	res, err := engine.RunSession(bars, cfg)
	if err != nil {
		return r, err
	}
	r.Sessions = 1
	if res.StoppedByBreakout {
		r.Breakouts = 1
	}
	r.CyclesLong = res.CyclesLong
	r.CyclesShort = res.CyclesShort
	r.TotalPnl = res.TotalPnl
	r.Bars = res.Bars
	return r, nil
}
