package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"grid-backtest/internal/model"
)

// LoadBarsCSV reads a candle CSV with a header row. Recognized columns:
// time|timestamp|open_time, open, high, low, close, volume|vol (any case).
// Missing high/low fall back to close, missing open falls back to close.
// Rows without a parsable time or close, and rows failing Bar.Validate
// (NaN, non-positive prices, low above high), are skipped.
func LoadBarsCSV(path string) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	bars, err := ReadBarsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadBarsCSV is LoadBarsCSV over a reader.
func ReadBarsCSV(r io.Reader) ([]model.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: csv has no header", model.ErrEmptyInput)
	}
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var out []model.Bar
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(cols))
		for j, k := range cols {
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		tt, err := parseTimeFlexible(first(row, "time", "timestamp", "open_time"))
		if err != nil {
			continue
		}
		c, err := strconv.ParseFloat(first(row, "close", "c"), 64)
		if err != nil {
			continue
		}
		bar := model.Bar{
			Time:   tt,
			Open:   floatOr(first(row, "open", "o"), c),
			High:   floatOr(first(row, "high", "h"), c),
			Low:    floatOr(first(row, "low", "l"), c),
			Close:  c,
			Volume: floatOr(first(row, "volume", "vol"), 0),
		}
		if bar.Validate() != nil {
			continue
		}
		out = append(out, bar)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: csv has no usable rows", model.ErrEmptyInput)
	}
	return model.SortBars(out), nil
}

// WriteBarsCSV writes bars in the layout LoadBarsCSV reads.
func WriteBarsCSV(path string, bars []model.Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		row := []string{
			b.Time.UTC().Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// parseTimeFlexible supports RFC3339, "YYYY-MM-DD HH:MM:SS", and UNIX
// seconds or milliseconds.
func parseTimeFlexible(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty time")
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return ts.UTC(), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n >= 10_000_000_000 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time: %s", s)
}

// first returns the first non-empty value for keys in m.
func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

func floatOr(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}
