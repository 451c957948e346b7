package backtest

import (
	"fmt"

	"grid-backtest/internal/model"
)

// RunSequence replays bars as a chain of sessions, regridding after every
// breakout.
//
// Each session is centered on the close of its first bar and runs until a
// breakout or the end of data. The next session starts on the bar right after
// the breakout bar. The sequence ends when a session reaches the end of data.
func (e *Engine) RunSequence(bars []model.Bar, cfg Config) (*Aggregate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars to simulate", model.ErrEmptyInput)
	}

	sorted := model.SortBars(bars)
	agg := &Aggregate{}

	for i := 0; i < len(sorted); {
		res, err := e.RunSession(sorted[i:], cfg)
		if err != nil {
			return nil, fmt.Errorf("session %d at bar %d: %w", agg.Sessions+1, i, err)
		}
		res.Offset = i
		agg.add(res)

		if !res.StoppedByBreakout {
			break
		}
		// Never stall, even if the breakout index is somehow missing.
		advance := res.BreakoutIndex + 1
		if advance < 1 {
			advance = 1
		}
		i += advance
	}
	return agg, nil
}
