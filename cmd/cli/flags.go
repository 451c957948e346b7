package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"grid-backtest/internal/config"
	"grid-backtest/internal/data"
	"grid-backtest/internal/logger"
	"grid-backtest/internal/model"
)

// runFlags are shared by every subcommand that loads bars and runs a grid.
// Flags left unset keep the value from --config (or the defaults).
type runFlags struct {
	fs *flag.FlagSet

	configPath *string
	dataPath   *string
	symbol     *string
	interval   *string
	start      *string
	end        *string

	levels      *int
	stepPct     *float64
	tpPct       *float64
	orderUSDT   *float64
	maxRangePct *float64
	exposure    *float64
}

func newRunFlags(name string) *runFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	d := config.Default()
	return &runFlags{
		fs:          fs,
		configPath:  fs.String("config", "", "Path to YAML config"),
		dataPath:    fs.String("data", "", "Read bars from a CSV or JSON file instead of Binance"),
		symbol:      fs.String("symbol", d.Symbol, "Futures symbol"),
		interval:    fs.String("interval", d.Data.Interval, "Kline interval"),
		start:       fs.String("start", "", "Start date, e.g. 2025-01-01"),
		end:         fs.String("end", "", "End date, e.g. 2025-06-01 (default: now)"),
		levels:      fs.Int("levels", d.Grid.Levels, "Levels per side"),
		stepPct:     fs.Float64("step-pct", d.Grid.StepPct, "Spacing between entries, % of mid"),
		tpPct:       fs.Float64("tp-pct", d.Grid.TpPct, "Take-profit distance, % of entry"),
		orderUSDT:   fs.Float64("order-usdt", d.Sizing.OrderUSDT, "Quote notional per level"),
		maxRangePct: fs.Float64("max-range-pct", d.Guard.MaxRangePct, "Breakout band around mid, %"),
		exposure:    fs.Float64("effective-exposure", d.Sizing.EffectiveExposure, "Multiplier on order-usdt"),
	}
}

// load parses args, reads the config file and applies the flags that were
// set explicitly. The logger is initialized from the result.
func (f *runFlags) load(args []string) *config.Config {
	_ = f.fs.Parse(args)

	cfg, err := config.LoadUnchecked(*f.configPath)
	exitOnErr(err)

	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "symbol":
			cfg.Symbol = strings.ToUpper(*f.symbol)
		case "interval":
			cfg.Data.Interval = *f.interval
		case "data":
			cfg.Data.CSV = *f.dataPath
		case "levels":
			cfg.Grid.Levels = *f.levels
		case "step-pct":
			cfg.Grid.StepPct = *f.stepPct
		case "tp-pct":
			cfg.Grid.TpPct = *f.tpPct
		case "order-usdt":
			cfg.Sizing.OrderUSDT = *f.orderUSDT
		case "effective-exposure":
			cfg.Sizing.EffectiveExposure = *f.exposure
		case "max-range-pct":
			cfg.Guard = config.GuardConfig{MaxRangePct: *f.maxRangePct}
		}
	})
	exitOnErr(cfg.Validate())
	exitOnErr(logger.Init(cfg.Log))
	return cfg
}

// query is the Binance window described by the flags.
func (f *runFlags) query(cfg *config.Config) data.Query {
	if *f.start == "" {
		exitOnErr(fmt.Errorf("%w: --start is required unless --data is given", model.ErrInvalidParameter))
	}
	q := data.Query{Symbol: cfg.Symbol, Interval: cfg.Data.Interval}
	var err error
	q.Start, err = data.ParseDate(*f.start)
	exitOnErr(err)
	if *f.end != "" {
		q.End, err = data.ParseDate(*f.end)
		exitOnErr(err)
	}
	return q
}

// bars reads the data file when one is configured, otherwise fetches from src.
func (f *runFlags) bars(ctx context.Context, cfg *config.Config, src data.Source) []model.Bar {
	if cfg.Data.CSV != "" {
		bars, err := data.LoadBars(cfg.Data.CSV)
		exitOnErr(err)
		logger.Infof("Loaded %d bars from %s", len(bars), cfg.Data.CSV)
		return bars
	}
	bars, err := src.Bars(ctx, f.query(cfg))
	exitOnErr(err)
	return bars
}

func binance(cfg *config.Config) *data.BinanceSource {
	return data.NewBinanceSource(cfg.Data.BinanceBaseURL)
}

func splitFloats(s string) []float64 {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			exitOnErr(fmt.Errorf("%w: %q is not a number", model.ErrInvalidParameter, p))
		}
		out = append(out, v)
	}
	return out
}

func exitOnErr(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
