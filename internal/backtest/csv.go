package backtest

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// WriteEventsCSV writes the fill ledger of one or more sessions.
func WriteEventsCSV(path string, results []*Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"session",
		"bar",
		"time",
		"side",
		"level",
		"kind",
		"price",
		"pnl",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for s, r := range results {
		for _, ev := range r.Events {
			row := []string{
				strconv.Itoa(s + 1),
				strconv.Itoa(r.Offset + ev.Bar),
				fmtTime(ev.Time),
				string(ev.Side),
				strconv.Itoa(ev.Level),
				string(ev.Kind),
				fmtFloat(ev.Price),
				fmtFloat(ev.PnL),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// WriteSessionsCSV writes one summary row per session.
func WriteSessionsCSV(path string, results []*Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"session",
		"offset",
		"start",
		"end",
		"bars",
		"mid",
		"qty",
		"guard_low",
		"guard_high",
		"cycles_long",
		"cycles_short",
		"pnl_long",
		"pnl_short",
		"total_pnl",
		"open_long",
		"open_short",
		"unrealized_pnl",
		"stopped_by_breakout",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for s, r := range results {
		row := []string{
			strconv.Itoa(s + 1),
			strconv.Itoa(r.Offset),
			fmtTime(r.Start),
			fmtTime(r.End),
			strconv.Itoa(r.Bars),
			fmtFloat(r.Mid),
			fmtFloat(r.Qty),
			fmtFloat(r.Bounds.Low),
			fmtFloat(r.Bounds.High),
			strconv.Itoa(r.CyclesLong),
			strconv.Itoa(r.CyclesShort),
			fmtFloat(r.PnlLong),
			fmtFloat(r.PnlShort),
			fmtFloat(r.TotalPnl),
			strconv.Itoa(r.OpenLong),
			strconv.Itoa(r.OpenShort),
			fmtFloat(r.UnrealizedPnl),
			strconv.FormatBool(r.StoppedByBreakout),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
