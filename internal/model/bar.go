package model

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Bar is one OHLC candle. Time is the open time of the candle.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume,omitempty"`
}

// Validate rejects bars the simulator cannot price: non-finite fields,
// non-positive prices and a low above the high.
func (b Bar) Validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bar %s has a non-finite field", ErrInvalidParameter, b.Time.Format(time.RFC3339))
		}
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("%w: bar %s has a non-positive price", ErrInvalidParameter, b.Time.Format(time.RFC3339))
	}
	if b.Low > b.High {
		return fmt.Errorf("%w: bar %s has low %g above high %g", ErrInvalidParameter, b.Time.Format(time.RFC3339), b.Low, b.High)
	}
	return nil
}

// ValidateBars returns the first invalid bar's error, tagged with its position.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bar %d: %w", i, err)
		}
	}
	return nil
}

// SortBars returns bars ordered by ascending Time. Bars sharing a timestamp
// keep their input order. An already ordered input is returned as is, so
// callers must treat the result as read-only.
func SortBars(bars []Bar) []Bar {
	if sort.SliceIsSorted(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) }) {
		return bars
	}
	out := make([]Bar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Span returns the first and last bar times of an already sorted series.
func Span(bars []Bar) (start, end time.Time) {
	if len(bars) == 0 {
		return time.Time{}, time.Time{}
	}
	return bars[0].Time, bars[len(bars)-1].Time
}
