package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"grid-backtest/internal/api/models"
	"grid-backtest/internal/backtest"
	"grid-backtest/internal/config"
	"grid-backtest/internal/data"
	"grid-backtest/internal/grid"
	"grid-backtest/internal/model"
)

// Data source types accepted in DataSourceConfig.Type.
const (
	SourceBinance = "binance"
	SourceRatio   = "ratio"
	SourceInline  = "inline"
)

// inputs turns request fragments into bars and engine configs, falling back
// to the server configuration for anything the request leaves out.
type inputs struct {
	source   data.Source
	defaults config.Config
}

// series is the loaded bars plus what they describe.
type series struct {
	Bars     []model.Bar
	Symbol   string
	Interval string
}

func (in inputs) loadBars(ctx context.Context, ds models.DataSourceConfig) (*series, error) {
	interval := ds.Interval
	if interval == "" {
		interval = in.defaults.Data.Interval
	}
	symbol := strings.ToUpper(strings.TrimSpace(ds.Symbol))
	if symbol == "" {
		symbol = in.defaults.Symbol
	}

	switch ds.Type {
	case SourceInline:
		if len(ds.Bars) == 0 {
			return nil, fmt.Errorf("%w: inline data source has no bars", model.ErrEmptyInput)
		}
		if err := model.ValidateBars(ds.Bars); err != nil {
			return nil, err
		}
		return &series{Bars: model.SortBars(ds.Bars), Symbol: symbol, Interval: interval}, nil

	case SourceBinance, SourceRatio:
		if in.source == nil {
			return nil, fmt.Errorf("%w: no market data source configured", model.ErrInvalidParameter)
		}
		q, err := buildQuery(symbol, interval, ds.StartDate, ds.EndDate)
		if err != nil {
			return nil, err
		}
		if ds.Type == SourceBinance {
			bars, err := in.source.Bars(ctx, q)
			if err != nil {
				return nil, err
			}
			return &series{Bars: bars, Symbol: symbol, Interval: interval}, nil
		}
		quote := strings.ToUpper(strings.TrimSpace(ds.Quote))
		if quote == "" {
			return nil, fmt.Errorf("%w: ratio data source needs quote", model.ErrInvalidParameter)
		}
		ratio := data.NewRatioSource(in.source, symbol, quote)
		bars, err := ratio.Bars(ctx, q)
		if err != nil {
			return nil, err
		}
		return &series{Bars: bars, Symbol: ratio.Symbol(), Interval: interval}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported data source type %q", model.ErrInvalidParameter, ds.Type)
	}
}

func buildQuery(symbol, interval, start, end string) (data.Query, error) {
	q := data.Query{Symbol: symbol, Interval: interval}
	if start == "" {
		return q, fmt.Errorf("%w: start_date is required", model.ErrInvalidParameter)
	}
	var err error
	if q.Start, err = data.ParseDate(start); err != nil {
		return q, err
	}
	if end != "" {
		if q.End, err = data.ParseDate(end); err != nil {
			return q, err
		}
	}
	return q, q.Validate()
}

// engineConfig resolves a request config: server defaults, then the named
// preset, then the request's own non-zero fields.
func (in inputs) engineConfig(req models.BacktestConfig) (backtest.Config, error) {
	base := in.defaults.ToBacktest()
	if req.Preset != "" {
		preset, err := loadPreset(in.defaults.API.PresetDir, req.Preset)
		if err != nil {
			return backtest.Config{}, err
		}
		base = config.Merge(base, preset.ToBacktest())
	}
	cfg := config.Merge(base, overrides(req))
	if err := cfg.Validate(); err != nil {
		return backtest.Config{}, err
	}
	return cfg, nil
}

func overrides(req models.BacktestConfig) backtest.Config {
	guard := config.GuardConfig{
		MaxRangePct: req.Guard.MaxRangePct,
		LowPct:      req.Guard.LowPct,
		HighPct:     req.Guard.HighPct,
	}
	return backtest.Config{
		Grid: grid.Params{
			Levels:  req.Grid.Levels,
			StepPct: req.Grid.StepPct,
			TpPct:   req.Grid.TpPct,
		},
		Guard: guard.Resolve(),
		Sizing: backtest.Sizing{
			OrderNotional:     req.Sizing.OrderUSDT,
			EffectiveExposure: req.Sizing.EffectiveExposure,
		},
	}
}

// loadPreset reads <dir>/<id>.yaml as an overlay: only the fields the file
// sets are non-zero. IDs are bare file names.
func loadPreset(dir, id string) (*config.Config, error) {
	if id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return nil, fmt.Errorf("%w: invalid preset %q", model.ErrInvalidParameter, id)
	}
	path := filepath.Join(dir, id+".yaml")
	cfg, err := config.LoadOverlay(path)
	if err != nil {
		return nil, fmt.Errorf("%w: preset %q: %v", model.ErrInvalidParameter, id, err)
	}
	return cfg, nil
}

func limitBars(bars []model.Bar, n int) []model.Bar {
	if n > 0 && n < len(bars) {
		return bars[:n]
	}
	return bars
}
