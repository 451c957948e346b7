package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"grid-backtest/internal/model"
)

// Source yields historical bars for a query.
type Source interface {
	Bars(ctx context.Context, q Query) ([]model.Bar, error)
}

// Query selects one symbol and interval over [Start, End].
// A zero End means "up to now".
type Query struct {
	Symbol   string
	Interval string
	Start    time.Time
	End      time.Time
}

func (q Query) Validate() error {
	if strings.TrimSpace(q.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", model.ErrInvalidParameter)
	}
	if strings.TrimSpace(q.Interval) == "" {
		return fmt.Errorf("%w: interval is required", model.ErrInvalidParameter)
	}
	if q.Start.IsZero() {
		return fmt.Errorf("%w: start is required", model.ErrInvalidParameter)
	}
	if !q.End.IsZero() && q.Start.After(q.End) {
		return fmt.Errorf("%w: start must be before end", model.ErrInvalidParameter)
	}
	return nil
}

func (q Query) String() string {
	return fmt.Sprintf("%s %s %s->%s", q.Symbol, q.Interval, formatDate(q.Start), formatDate(q.End))
}

// ParseDate accepts "YYYY-MM-DD" or RFC3339 and returns a UTC time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q (expected YYYY-MM-DD)", model.ErrInvalidParameter, s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "now"
	}
	return t.UTC().Format("2006-01-02T15:04")
}
