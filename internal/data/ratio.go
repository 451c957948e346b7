package data

import (
	"context"
	"fmt"
	"time"

	"grid-backtest/internal/model"
)

// RatioSource prices Base in units of Quote, e.g. BTCUSDT/ETHUSDT.
//
// Both legs are fetched with the same interval and window and inner-joined on
// open time. Each output bar is flat: Open, High, Low and Close all equal the
// ratio of the two closes.
type RatioSource struct {
	Source Source
	Base   string
	Quote  string
}

func NewRatioSource(src Source, base, quote string) *RatioSource {
	return &RatioSource{Source: src, Base: base, Quote: quote}
}

// Symbol is the synthetic name of the pair, e.g. "BTCUSDT/ETHUSDT".
func (r *RatioSource) Symbol() string {
	return r.Base + "/" + r.Quote
}

// Bars ignores q.Symbol and uses Base and Quote instead.
func (r *RatioSource) Bars(ctx context.Context, q Query) ([]model.Bar, error) {
	if r.Source == nil {
		return nil, fmt.Errorf("%w: ratio source has no underlying source", model.ErrInvalidParameter)
	}
	bq, qq := q, q
	bq.Symbol, qq.Symbol = r.Base, r.Quote

	base, err := r.Source.Bars(ctx, bq)
	if err != nil {
		return nil, fmt.Errorf("ratio base %s: %w", r.Base, err)
	}
	quote, err := r.Source.Bars(ctx, qq)
	if err != nil {
		return nil, fmt.Errorf("ratio quote %s: %w", r.Quote, err)
	}
	out := JoinRatio(base, quote)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no overlapping bars for %s", model.ErrEmptyInput, r.Symbol())
	}
	return out, nil
}

// JoinRatio inner-joins two series on bar time. Duplicate timestamps keep the
// first bar seen; a non-positive quote close drops the row.
func JoinRatio(base, quote []model.Bar) []model.Bar {
	quoteClose := make(map[time.Time]float64, len(quote))
	for _, b := range quote {
		key := b.Time.UTC()
		if _, dup := quoteClose[key]; !dup {
			quoteClose[key] = b.Close
		}
	}
	seen := make(map[time.Time]bool, len(base))
	out := make([]model.Bar, 0, len(base))
	for _, b := range base {
		key := b.Time.UTC()
		qc, ok := quoteClose[key]
		if !ok || seen[key] || qc <= 0 {
			continue
		}
		seen[key] = true
		ratio := b.Close / qc
		out = append(out, model.Bar{Time: key, Open: ratio, High: ratio, Low: ratio, Close: ratio})
	}
	return model.SortBars(out)
}
