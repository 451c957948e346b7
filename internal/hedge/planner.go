// Package hedge sizes the futures short that offsets a spot holding.
package hedge

import (
	"fmt"
	"strings"

	"grid-backtest/internal/model"

	"github.com/shopspring/decimal"
)

// Input describes the current exposure of one symbol.
type Input struct {
	Symbol string `json:"symbol"`
	// SpotQty is the base quantity held on spot.
	SpotQty float64 `json:"spot_qty"`
	// CurrentShort is the open futures short, positive for a short position.
	CurrentShort float64 `json:"current_short"`
	// Ratio is the fraction of SpotQty to keep hedged.
	Ratio float64 `json:"ratio"`
	// LotSize is the futures quantity step. Zero disables lot rounding.
	LotSize float64 `json:"lot_size"`
}

func (in Input) Validate() error {
	if in.SpotQty < 0 {
		return fmt.Errorf("%w: spot_qty must be >= 0", model.ErrInvalidParameter)
	}
	if in.Ratio < 0 {
		return fmt.Errorf("%w: ratio must be >= 0", model.ErrInvalidParameter)
	}
	if in.LotSize < 0 {
		return fmt.Errorf("%w: lot_size must be >= 0", model.ErrInvalidParameter)
	}
	return nil
}

// Order is the market order that brings the short to its target.
type Order struct {
	Symbol   string          `json:"symbol"`
	Side     model.OrderSide `json:"side,omitempty"`
	Qty      float64         `json:"qty"`
	Target   float64         `json:"target"`
	Diff     float64         `json:"diff"`
	NoChange bool            `json:"no_change"`
}

func (o Order) String() string {
	if o.NoChange {
		return fmt.Sprintf("%s: no change (short %.6g on target)", o.Symbol, o.Target)
	}
	return fmt.Sprintf("%s: %s %s", o.Symbol, o.Side, decimal.NewFromFloat(o.Qty).String())
}

// MinContract is the smallest futures order accepted for symbol.
func MinContract(symbol string, lot float64) float64 {
	s := strings.ToUpper(symbol)
	switch {
	case strings.Contains(s, "ETH"):
		return 0.01
	case strings.Contains(s, "BTC"):
		return 0.001
	}
	if lot > 1e-4 {
		return lot
	}
	return 1e-4
}

// Plan computes the order for in. It never places anything.
//
// The target short is Ratio*SpotQty. The gap to CurrentShort is floored to
// whole lots; a non-zero gap smaller than the symbol's minimum contract is
// bumped up to that minimum. A positive gap sells, a negative one buys back.
func Plan(in Input) (Order, error) {
	if err := in.Validate(); err != nil {
		return Order{}, err
	}
	target := decimal.NewFromFloat(in.Ratio).Mul(decimal.NewFromFloat(in.SpotQty))
	diff := target.Sub(decimal.NewFromFloat(in.CurrentShort))

	out := Order{
		Symbol: in.Symbol,
		Target: target.InexactFloat64(),
		Diff:   diff.InexactFloat64(),
	}
	if diff.IsZero() {
		out.NoChange = true
		return out, nil
	}

	units := diff.Abs()
	lot := decimal.NewFromFloat(in.LotSize)
	if lot.IsPositive() {
		units = units.Div(lot).Floor().Mul(lot)
	}
	if minC := decimal.NewFromFloat(MinContract(in.Symbol, in.LotSize)); units.LessThan(minC) {
		units = minC
	}

	out.Qty = units.InexactFloat64()
	out.Side = model.OrderBuy
	if diff.IsPositive() {
		out.Side = model.OrderSell
	}
	return out, nil
}
