package backtest

import (
	"time"

	"grid-backtest/internal/grid"
	"grid-backtest/internal/model"
)

// EventKind distinguishes the two transitions a level can make.
type EventKind string

const (
	EventOpen  EventKind = "OPEN"
	EventClose EventKind = "CLOSE"
)

// Event is one row of per-fill output.
// This is the primary artifact for "what happened" in a session.
type Event struct {
	Bar   int        `json:"bar"`
	Time  time.Time  `json:"time"`
	Side  model.Side `json:"side"`
	Level int        `json:"level"`
	Kind  EventKind  `json:"kind"`
	Price float64    `json:"price"`
	PnL   float64    `json:"pnl"`
}

// Result summarizes one session.
type Result struct {
	CyclesLong  int     `json:"cycles_long"`
	CyclesShort int     `json:"cycles_short"`
	PnlLong     float64 `json:"pnl_long"`
	PnlShort    float64 `json:"pnl_short"`
	TotalPnl    float64 `json:"total_pnl"`

	// WinRate is the percentage of levels that opened and went on to close.
	WinRate float64 `json:"winrate"`

	// Bars counts every bar iterated, the breakout bar included.
	Bars              int  `json:"bars"`
	StoppedByBreakout bool `json:"stopped_by_breakout"`
	// BreakoutIndex is the position of the breakout bar in the sorted input, or -1.
	BreakoutIndex int       `json:"breakout_index"`
	BreakoutTime  time.Time `json:"breakout_time,omitempty"`

	Mid    float64 `json:"mid"`
	Qty    float64 `json:"qty"`
	Bounds Bounds  `json:"bounds"`

	// Levels still holding inventory when the session ended, and their
	// mark-to-market at the last processed close. Not part of TotalPnl.
	OpenLong      int     `json:"open_long"`
	OpenShort     int     `json:"open_short"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`

	// Offset is the index of the session's first bar in the full series
	// when the session is part of a sequence.
	Offset int       `json:"offset"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`

	Events []Event      `json:"events,omitempty"`
	Ladder *grid.Ladder `json:"-"`
}

// Cycles is the number of completed open/close round trips.
func (r *Result) Cycles() int {
	return r.CyclesLong + r.CyclesShort
}

// Aggregate is the running total across auto-regrid sessions.
type Aggregate struct {
	Sessions    int     `json:"sessions"`
	Breakouts   int     `json:"breakouts"`
	CyclesLong  int     `json:"cycles_long"`
	CyclesShort int     `json:"cycles_short"`
	PnlLong     float64 `json:"pnl_long"`
	PnlShort    float64 `json:"pnl_short"`
	TotalPnl    float64 `json:"total_pnl"`
	Bars        int     `json:"bars"`

	Results []*Result `json:"results,omitempty"`
}

// NewAggregate totals already completed sessions.
func NewAggregate(results ...*Result) *Aggregate {
	a := &Aggregate{}
	for _, r := range results {
		a.add(r)
	}
	return a
}

func (a *Aggregate) add(r *Result) {
	a.Sessions++
	if r.StoppedByBreakout {
		a.Breakouts++
	}
	a.CyclesLong += r.CyclesLong
	a.CyclesShort += r.CyclesShort
	a.PnlLong += r.PnlLong
	a.PnlShort += r.PnlShort
	a.TotalPnl = a.PnlLong + a.PnlShort
	a.Bars += r.Bars
	a.Results = append(a.Results, r)
}

// Cycles is the number of completed round trips across all sessions.
func (a *Aggregate) Cycles() int {
	return a.CyclesLong + a.CyclesShort
}
