package venue

import (
	"context"
	"errors"
	"fmt"

	"grid-backtest/internal/model"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

// ErrUnknownSymbol is returned when exchange info has no entry for a symbol.
var ErrUnknownSymbol = errors.New("symbol not found in exchange info")

// Filters are the per-symbol trading constraints of the exchange.
// A zero TickSize or StepSize disables the corresponding rounding.
type Filters struct {
	TickSize    decimal.Decimal `json:"tick_size"`
	StepSize    decimal.Decimal `json:"step_size"`
	MinQty      decimal.Decimal `json:"min_qty"`
	MinNotional decimal.Decimal `json:"min_notional"`
}

func NewFilters(tick, step, minQty, minNotional float64) Filters {
	return Filters{
		TickSize:    decimal.NewFromFloat(tick),
		StepSize:    decimal.NewFromFloat(step),
		MinQty:      decimal.NewFromFloat(minQty),
		MinNotional: decimal.NewFromFloat(minNotional),
	}
}

// RoundPrice snaps p to the tick grid. Buys round down and sells round up.
func (f Filters) RoundPrice(p float64, side model.OrderSide) float64 {
	if !f.TickSize.IsPositive() {
		return p
	}
	mode := floorMode
	if side == model.OrderSell {
		mode = ceilMode
	}
	return quantize(decimal.NewFromFloat(p), f.TickSize, mode).InexactFloat64()
}

// RoundQty floors q to the lot step, lifts it to MinQty, then to the smallest
// step multiple whose notional at price reaches MinNotional.
func (f Filters) RoundQty(q, price float64) float64 {
	qty := decimal.NewFromFloat(q)
	if f.StepSize.IsPositive() {
		qty = quantize(qty, f.StepSize, floorMode)
	}
	if qty.LessThan(f.MinQty) {
		qty = f.MinQty
	}
	if f.MinNotional.IsPositive() && price > 0 {
		byNotional := f.MinNotional.Div(decimal.NewFromFloat(price))
		if f.StepSize.IsPositive() {
			byNotional = quantize(byNotional, f.StepSize, ceilMode)
		}
		if qty.LessThan(byNotional) {
			qty = byNotional
		}
	}
	return qty.InexactFloat64()
}

type roundMode int

const (
	floorMode roundMode = iota
	ceilMode
)

func quantize(v, step decimal.Decimal, mode roundMode) decimal.Decimal {
	units := v.Div(step)
	if mode == ceilMode {
		units = units.Ceil()
	} else {
		units = units.Floor()
	}
	return units.Mul(step)
}

// ExchangeInfoClient is the slice of the futures client FetchFilters needs.
type ExchangeInfoClient interface {
	NewExchangeInfoService() *futures.ExchangeInfoService
}

// FetchFilters reads PRICE_FILTER, LOT_SIZE and MIN_NOTIONAL for symbol.
func FetchFilters(ctx context.Context, client ExchangeInfoClient, symbol string) (Filters, error) {
	info, err := client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return Filters{}, fmt.Errorf("exchange info: %w", err)
	}
	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		return ParseFilters(s.Filters)
	}
	return Filters{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
}

// ParseFilters decodes the raw filter maps of one exchange info symbol.
func ParseFilters(raw []map[string]interface{}) (Filters, error) {
	var f Filters
	var err error
	for _, m := range raw {
		switch m["filterType"] {
		case "PRICE_FILTER":
			if f.TickSize, err = decimalField(m, "tickSize"); err != nil {
				return Filters{}, err
			}
		case "LOT_SIZE":
			if f.StepSize, err = decimalField(m, "stepSize"); err != nil {
				return Filters{}, err
			}
			if f.MinQty, err = decimalField(m, "minQty"); err != nil {
				return Filters{}, err
			}
		case "MIN_NOTIONAL":
			if f.MinNotional, err = decimalField(m, "notional"); err != nil {
				return Filters{}, err
			}
		}
	}
	if !f.TickSize.IsPositive() || !f.StepSize.IsPositive() {
		return Filters{}, fmt.Errorf("%w: exchange info lacks PRICE_FILTER or LOT_SIZE", model.ErrInvalidParameter)
	}
	return f, nil
}

func decimalField(m map[string]interface{}, key string) (decimal.Decimal, error) {
	switch v := m[key].(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("filter %s=%q: %w", key, v, err)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case nil:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("filter %s has unexpected type %T", key, v)
	}
}
