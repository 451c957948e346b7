package grid

import "grid-backtest/internal/model"

// State is the lifecycle of a single level within one session.
type State int

const (
	// StateIdle: resting entry, not yet touched.
	StateIdle State = iota
	// StateOpen: entry filled, take-profit resting.
	StateOpen
	// StateDone: take-profit filled. A done level never re-arms.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateOpen:
		return "OPEN"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// PriceLevel is one rung of the ladder.
type PriceLevel struct {
	Index      int        `json:"index"` // 0 = nearest to mid
	Side       model.Side `json:"side"`
	Entry      float64    `json:"entry"`
	TakeProfit float64    `json:"take_profit"`
	State      State      `json:"state"`
}

// Gain is the per-unit profit realized when the level completes a cycle.
func (l PriceLevel) Gain() float64 {
	if l.Side == model.SideShort {
		return l.Entry - l.TakeProfit
	}
	return l.TakeProfit - l.Entry
}

// Ladder holds both sides of the grid built around one midpoint.
// Prices are fixed at construction; only level states change, and only
// inside the single session that owns the ladder.
type Ladder struct {
	Mid    float64      `json:"mid"`
	Longs  []PriceLevel `json:"longs"`
	Shorts []PriceLevel `json:"shorts"`
}

// Clone returns an independent copy, states included.
func (l *Ladder) Clone() *Ladder {
	if l == nil {
		return nil
	}
	out := &Ladder{
		Mid:    l.Mid,
		Longs:  make([]PriceLevel, len(l.Longs)),
		Shorts: make([]PriceLevel, len(l.Shorts)),
	}
	copy(out.Longs, l.Longs)
	copy(out.Shorts, l.Shorts)
	return out
}

// Levels is the number of rungs per side.
func (l *Ladder) Levels() int {
	return len(l.Longs)
}

// StateCounts tallies level states across both sides.
type StateCounts struct {
	Idle int `json:"idle"`
	Open int `json:"open"`
	Done int `json:"done"`
}

func (l *Ladder) Counts() StateCounts {
	var c StateCounts
	for _, side := range [][]PriceLevel{l.Longs, l.Shorts} {
		for _, lvl := range side {
			switch lvl.State {
			case StateIdle:
				c.Idle++
			case StateOpen:
				c.Open++
			case StateDone:
				c.Done++
			}
		}
	}
	return c
}
