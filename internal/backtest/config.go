package backtest

import (
	"fmt"

	"grid-backtest/internal/grid"
	"grid-backtest/internal/model"
)

// Guard is the breakout band, in percent of the session midpoint.
type Guard struct {
	LowPct  float64 `json:"low_pct"`
	HighPct float64 `json:"high_pct"`
}

// SymmetricGuard uses the same percentage on both sides of mid.
func SymmetricGuard(maxRangePct float64) Guard {
	return Guard{LowPct: maxRangePct, HighPct: maxRangePct}
}

func (g Guard) Validate() error {
	if g.LowPct <= 0 || g.HighPct <= 0 {
		return fmt.Errorf("%w: guard low_pct/high_pct must be > 0", model.ErrInvalidParameter)
	}
	if g.LowPct >= 100 {
		return fmt.Errorf("%w: guard low_pct must be < 100", model.ErrInvalidParameter)
	}
	return nil
}

// Bounds fixes the band around mid for one session.
func (g Guard) Bounds(mid float64) Bounds {
	return Bounds{
		Low:  mid * (1 - g.LowPct/100.0),
		High: mid * (1 + g.HighPct/100.0),
	}
}

// Bounds is the absolute price band derived from a Guard.
type Bounds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Breached reports whether any part of the bar left the band.
func (b Bounds) Breached(bar model.Bar) bool {
	return bar.Low < b.Low || bar.High > b.High
}

// Sizing converts the quote notional per order into a base quantity.
type Sizing struct {
	OrderNotional     float64 `json:"order_usdt"`
	EffectiveExposure float64 `json:"effective_exposure"`
}

func (s Sizing) Validate() error {
	if s.OrderNotional <= 0 {
		return fmt.Errorf("%w: order_usdt must be > 0", model.ErrInvalidParameter)
	}
	if s.EffectiveExposure <= 0 {
		return fmt.Errorf("%w: effective_exposure must be > 0", model.ErrInvalidParameter)
	}
	return nil
}

// Quantity is the constant per-level base quantity for a session centered on mid.
func (s Sizing) Quantity(mid float64) float64 {
	return (s.OrderNotional * s.EffectiveExposure) / mid
}

// Config is everything one session needs besides the bars.
type Config struct {
	Grid   grid.Params `json:"grid"`
	Guard  Guard       `json:"guard"`
	Sizing Sizing      `json:"sizing"`
}

func (c Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if err := c.Guard.Validate(); err != nil {
		return err
	}
	return c.Sizing.Validate()
}
