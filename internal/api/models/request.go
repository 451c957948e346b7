package models

import "grid-backtest/internal/model"

// BacktestRequest represents the request body for running a backtest
type BacktestRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	Config     BacktestConfig   `json:"config"`
	Options    BacktestOptions  `json:"options,omitempty"`
}

// DataSourceConfig defines how to obtain the bars
type DataSourceConfig struct {
	Type      string      `json:"type" binding:"required"` // "binance", "ratio" or "inline"
	Symbol    string      `json:"symbol,omitempty"`
	Quote     string      `json:"quote,omitempty"` // ratio only: denominator symbol
	Interval  string      `json:"interval,omitempty"`
	StartDate string      `json:"start_date,omitempty"` // YYYY-MM-DD or RFC3339
	EndDate   string      `json:"end_date,omitempty"`
	Bars      []model.Bar `json:"bars,omitempty"` // inline only
}

// BacktestConfig overrides the server defaults. Zero fields keep the default.
type BacktestConfig struct {
	Preset string       `json:"preset,omitempty"`
	Grid   GridConfig   `json:"grid,omitempty"`
	Guard  GuardConfig  `json:"guard,omitempty"`
	Sizing SizingConfig `json:"sizing,omitempty"`
}

// GridConfig defines the ladder shape
type GridConfig struct {
	Levels  int     `json:"levels,omitempty"`
	StepPct float64 `json:"step_pct,omitempty"`
	TpPct   float64 `json:"tp_pct,omitempty"`
}

// GuardConfig defines the breakout band. MaxRangePct fills both sides.
type GuardConfig struct {
	MaxRangePct float64 `json:"max_range_pct,omitempty"`
	LowPct      float64 `json:"low_pct,omitempty"`
	HighPct     float64 `json:"high_pct,omitempty"`
}

// SizingConfig defines the per-level order size
type SizingConfig struct {
	OrderUSDT         float64 `json:"order_usdt,omitempty"`
	EffectiveExposure float64 `json:"effective_exposure,omitempty"`
}

// BacktestOptions contains optional backtest parameters
type BacktestOptions struct {
	AutoRegrid    bool `json:"auto_regrid,omitempty"`
	LimitBars     int  `json:"limit_bars,omitempty"`     // 0 = all
	IncludeEvents bool `json:"include_events,omitempty"` // default: false
}

// CompareBacktestRequest represents a request to compare multiple backtests
type CompareBacktestRequest struct {
	DataSource DataSourceConfig    `json:"data_source" binding:"required"`
	BaseConfig BacktestConfig      `json:"base_config"`
	Variations []BacktestVariation `json:"variations" binding:"required,min=1"`
	Options    BacktestOptions     `json:"options,omitempty"`
}

// BacktestVariation defines a variation to test
type BacktestVariation struct {
	Name   string         `json:"name" binding:"required"`
	Config BacktestConfig `json:"config"`
}

// RankRequest represents a request to sweep step/take-profit combinations
type RankRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	BaseConfig BacktestConfig   `json:"base_config"`
	StepPcts   []float64        `json:"step_pcts"`
	TpPcts     []float64        `json:"tp_pcts"`
	AutoRegrid bool             `json:"auto_regrid,omitempty"`
	Limit      int              `json:"limit,omitempty"` // default: 10
}

// GridRequest asks for the ladder around a midpoint
type GridRequest struct {
	Symbol  string         `json:"symbol,omitempty"`
	Mid     float64        `json:"mid" binding:"required"`
	Grid    GridConfig     `json:"grid,omitempty"`
	Sizing  SizingConfig   `json:"sizing,omitempty"`
	Filters *FiltersConfig `json:"filters,omitempty"` // set to get rounded order intents
}

// FiltersConfig carries the venue's price and lot filters
type FiltersConfig struct {
	TickSize    float64 `json:"tick_size"`
	StepSize    float64 `json:"step_size"`
	MinQty      float64 `json:"min_qty,omitempty"`
	MinNotional float64 `json:"min_notional,omitempty"`
}

// HedgeRequest describes the spot holding to offset
type HedgeRequest struct {
	Symbol       string   `json:"symbol" binding:"required"`
	SpotQty      float64  `json:"spot_qty"`
	CurrentShort float64  `json:"current_short"`
	Ratio        *float64 `json:"ratio,omitempty"`    // default: server hedge ratio
	LotSize      *float64 `json:"lot_size,omitempty"` // default: server lot size
}
