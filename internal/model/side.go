package model

// Side is the direction of a grid level.
// Keep these values stable; they are intended for CSV output.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// OrderSide is the exchange-facing order direction.
type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

// EntrySide is the order side that opens a level on this side.
func (s Side) EntrySide() OrderSide {
	if s == SideShort {
		return OrderSell
	}
	return OrderBuy
}

// ExitSide is the order side of the take-profit that closes the level.
func (s Side) ExitSide() OrderSide {
	if s == SideShort {
		return OrderBuy
	}
	return OrderSell
}
