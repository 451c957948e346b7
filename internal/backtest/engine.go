package backtest

import (
	"fmt"

	"grid-backtest/internal/grid"
	"grid-backtest/internal/model"
)

type Engine struct{}

func New() *Engine { return &Engine{} }

// Run simulates one session of ladder against bars.
//
// The guard band is fixed from the first bar's close. Each bar is handled in
// three passes: breakout check, opens, closes. A breakout bar ends the session
// and records no fills. A level that opens on a bar can only close on a later
// bar, and a level that closed is never re-armed.
//
// Run mutates the states of ladder; a ladder must not be shared between
// concurrent runs.
func (e *Engine) Run(ladder *grid.Ladder, bars []model.Bar, guard Guard, qty float64) (*Result, error) {
	if ladder == nil {
		return nil, fmt.Errorf("%w: ladder is nil", model.ErrInvalidParameter)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars to simulate", model.ErrEmptyInput)
	}

	sorted := model.SortBars(bars)
	bounds := guard.Bounds(sorted[0].Close)

	res := &Result{
		BreakoutIndex: -1,
		Mid:           ladder.Mid,
		Qty:           qty,
		Bounds:        bounds,
		Start:         sorted[0].Time,
		Ladder:        ladder,
	}
	s := newSession(ladder, qty, res)

	last := sorted[0]
	for idx, bar := range sorted {
		res.Bars++
		last = bar

		if bounds.Breached(bar) {
			res.StoppedByBreakout = true
			res.BreakoutIndex = idx
			res.BreakoutTime = bar.Time
			break
		}

		s.open(idx, bar)
		s.close(idx, bar)
	}

	res.End = last.Time
	s.finish(last.Close)
	return res, nil
}

// RunSession centers a fresh ladder on the first close of bars and runs it.
func (e *Engine) RunSession(bars []model.Bar, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars to simulate", model.ErrEmptyInput)
	}

	sorted := model.SortBars(bars)
	mid := sorted[0].Close
	ladder, err := grid.Build(mid, cfg.Grid)
	if err != nil {
		return nil, fmt.Errorf("build grid at mid %g: %w", mid, err)
	}
	return e.Run(ladder, sorted, cfg.Guard, cfg.Sizing.Quantity(mid))
}

// session carries the mutable bookkeeping of a single Run.
type session struct {
	ladder *grid.Ladder
	qty    float64
	res    *Result

	// bar index at which each level opened during this run, -1 otherwise
	openedLong  []int
	openedShort []int
}

func newSession(ladder *grid.Ladder, qty float64, res *Result) *session {
	s := &session{
		ladder:      ladder,
		qty:         qty,
		res:         res,
		openedLong:  make([]int, len(ladder.Longs)),
		openedShort: make([]int, len(ladder.Shorts)),
	}
	for i := range s.openedLong {
		s.openedLong[i] = -1
	}
	for i := range s.openedShort {
		s.openedShort[i] = -1
	}
	return s
}

func (s *session) open(idx int, bar model.Bar) {
	for i := range s.ladder.Longs {
		lvl := &s.ladder.Longs[i]
		if lvl.State == grid.StateIdle && bar.Low <= lvl.Entry {
			lvl.State = grid.StateOpen
			s.openedLong[i] = idx
			s.record(idx, bar, lvl, EventOpen, lvl.Entry, 0)
		}
	}
	for i := range s.ladder.Shorts {
		lvl := &s.ladder.Shorts[i]
		if lvl.State == grid.StateIdle && bar.High >= lvl.Entry {
			lvl.State = grid.StateOpen
			s.openedShort[i] = idx
			s.record(idx, bar, lvl, EventOpen, lvl.Entry, 0)
		}
	}
}

func (s *session) close(idx int, bar model.Bar) {
	for i := range s.ladder.Longs {
		lvl := &s.ladder.Longs[i]
		if lvl.State != grid.StateOpen || s.openedLong[i] == idx {
			continue
		}
		if bar.High >= lvl.TakeProfit {
			pnl := s.qty * (lvl.TakeProfit - lvl.Entry)
			s.res.PnlLong += pnl
			s.res.CyclesLong++
			lvl.State = grid.StateDone
			s.record(idx, bar, lvl, EventClose, lvl.TakeProfit, pnl)
		}
	}
	for i := range s.ladder.Shorts {
		lvl := &s.ladder.Shorts[i]
		if lvl.State != grid.StateOpen || s.openedShort[i] == idx {
			continue
		}
		if bar.Low <= lvl.TakeProfit {
			pnl := s.qty * (lvl.Entry - lvl.TakeProfit)
			s.res.PnlShort += pnl
			s.res.CyclesShort++
			lvl.State = grid.StateDone
			s.record(idx, bar, lvl, EventClose, lvl.TakeProfit, pnl)
		}
	}
}

func (s *session) record(idx int, bar model.Bar, lvl *grid.PriceLevel, kind EventKind, price, pnl float64) {
	s.res.Events = append(s.res.Events, Event{
		Bar:   idx,
		Time:  bar.Time,
		Side:  lvl.Side,
		Level: lvl.Index,
		Kind:  kind,
		Price: price,
		PnL:   pnl,
	})
}

// finish fills the derived fields once the bar loop is over.
func (s *session) finish(lastClose float64) {
	r := s.res
	r.TotalPnl = r.PnlLong + r.PnlShort

	opened := 0
	for _, lvl := range s.ladder.Longs {
		if lvl.State != grid.StateIdle {
			opened++
		}
		if lvl.State == grid.StateOpen {
			r.OpenLong++
			r.UnrealizedPnl += s.qty * (lastClose - lvl.Entry)
		}
	}
	for _, lvl := range s.ladder.Shorts {
		if lvl.State != grid.StateIdle {
			opened++
		}
		if lvl.State == grid.StateOpen {
			r.OpenShort++
			r.UnrealizedPnl += s.qty * (lvl.Entry - lastClose)
		}
	}
	if opened > 0 {
		r.WinRate = 100.0 * float64(r.Cycles()) / float64(opened)
	}
}
