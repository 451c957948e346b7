package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortBarsIsStable(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []Bar{
		{Time: t0.Add(2 * time.Minute), Close: 3},
		{Time: t0, Close: 1},
		{Time: t0.Add(time.Minute), Close: 2},
		{Time: t0.Add(time.Minute), Close: 22},
	}

	out := SortBars(in)

	assert.Equal(t, []float64{1, 2, 22, 3}, closes(out))
	assert.Equal(t, 3.0, in[0].Close, "input must not be reordered")

	start, end := Span(out)
	assert.Equal(t, t0, start)
	assert.Equal(t, t0.Add(2*time.Minute), end)
}

func TestSpanEmpty(t *testing.T) {
	start, end := Span(nil)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())
}

func TestSideOrderSides(t *testing.T) {
	assert.Equal(t, OrderBuy, SideLong.EntrySide())
	assert.Equal(t, OrderSell, SideLong.ExitSide())
	assert.Equal(t, OrderSell, SideShort.EntrySide())
	assert.Equal(t, OrderBuy, SideShort.ExitSide())
}

func closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func TestSortBarsSortedInputUnchanged(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []Bar{{Time: t0, Close: 1}, {Time: t0.Add(time.Minute), Close: 2}}
	assert.Equal(t, in, SortBars(in))
	assert.Empty(t, SortBars(nil))
}

func TestBarValidate(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ok := Bar{Time: t0, Open: 100, High: 101, Low: 99, Close: 100.5}
	assert.NoError(t, ok.Validate())
	assert.NoError(t, Bar{Time: t0, Open: 5, High: 5, Low: 5, Close: 5}.Validate(), "flat bar")

	cases := map[string]func(b *Bar){
		"NaN close":      func(b *Bar) { b.Close = math.NaN() },
		"NaN high":       func(b *Bar) { b.High = math.NaN() },
		"infinite open":  func(b *Bar) { b.Open = math.Inf(1) },
		"NaN volume":     func(b *Bar) { b.Volume = math.NaN() },
		"zero low":       func(b *Bar) { b.Low = 0 },
		"negative close": func(b *Bar) { b.Close = -1 },
		"low above high": func(b *Bar) { b.Low, b.High = 102, 98 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			b := ok
			mutate(&b)
			assert.ErrorIs(t, b.Validate(), ErrInvalidParameter)
		})
	}
}

func TestValidateBarsReportsPosition(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []Bar{
		{Time: t0, Open: 1, High: 1, Low: 1, Close: 1},
		{Time: t0.Add(time.Minute), Open: 1, High: 0.5, Low: 2, Close: 1},
	}
	err := ValidateBars(bars)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Contains(t, err.Error(), "bar 1")
	assert.NoError(t, ValidateBars(bars[:1]))
	assert.NoError(t, ValidateBars(nil))
}
