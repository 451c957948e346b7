package venue

import (
	"grid-backtest/internal/grid"
	"grid-backtest/internal/model"
)

// IntentKind tells the entry order of a level from its take-profit.
type IntentKind string

const (
	IntentEntry      IntentKind = "ENTRY"
	IntentTakeProfit IntentKind = "TAKE_PROFIT"
)

// OrderIntent is a limit order the ladder would rest on the book.
// Nothing here submits orders.
type OrderIntent struct {
	Symbol     string          `json:"symbol"`
	Side       model.OrderSide `json:"side"`
	Price      float64         `json:"price"`
	Qty        float64         `json:"qty"`
	ReduceOnly bool            `json:"reduce_only"`
	Kind       IntentKind      `json:"kind"`
	LevelSide  model.Side      `json:"level_side"`
	Level      int             `json:"level"`
}

// LadderOrders lays out two orders per level: the entry and a reduce-only
// take-profit on the opposite side. Prices are rounded to the tick grid and
// the size to the lot step, with minimum quantity and notional applied at the
// ladder midpoint.
func LadderOrders(symbol string, ladder *grid.Ladder, qty float64, f Filters) []OrderIntent {
	if ladder == nil {
		return nil
	}
	size := f.RoundQty(qty, ladder.Mid)
	out := make([]OrderIntent, 0, 2*(len(ladder.Longs)+len(ladder.Shorts)))
	for _, side := range [][]grid.PriceLevel{ladder.Longs, ladder.Shorts} {
		for _, lvl := range side {
			entry, exit := lvl.Side.EntrySide(), lvl.Side.ExitSide()
			out = append(out,
				OrderIntent{
					Symbol:    symbol,
					Side:      entry,
					Price:     f.RoundPrice(lvl.Entry, entry),
					Qty:       size,
					Kind:      IntentEntry,
					LevelSide: lvl.Side,
					Level:     lvl.Index,
				},
				OrderIntent{
					Symbol:     symbol,
					Side:       exit,
					Price:      f.RoundPrice(lvl.TakeProfit, exit),
					Qty:        size,
					ReduceOnly: true,
					Kind:       IntentTakeProfit,
					LevelSide:  lvl.Side,
					Level:      lvl.Index,
				},
			)
		}
	}
	return out
}
