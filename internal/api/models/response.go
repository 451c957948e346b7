package models

import (
	"time"

	"grid-backtest/internal/analysis"
	"grid-backtest/internal/backtest"
	"grid-backtest/internal/grid"
	"grid-backtest/internal/venue"
)

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	ID       string           `json:"id,omitempty"`
	Status   string           `json:"status"`
	Mode     string           `json:"mode"`
	Symbol   string           `json:"symbol,omitempty"`
	Interval string           `json:"interval,omitempty"`
	Config   backtest.Config  `json:"config"`
	Summary  BacktestSummary  `json:"summary"`
	Sessions []SessionSummary `json:"sessions"`
	Events   []LedgerRow      `json:"events,omitempty"`
}

// BacktestSummary contains aggregated backtest results
type BacktestSummary struct {
	Sessions       int        `json:"sessions"`
	Breakouts      int        `json:"breakouts"`
	CyclesLong     int        `json:"cycles_long"`
	CyclesShort    int        `json:"cycles_short"`
	Cycles         int        `json:"cycles"`
	PnlLong        float64    `json:"pnl_long"`
	PnlShort       float64    `json:"pnl_short"`
	TotalPnl       float64    `json:"total_pnl"`
	UnrealizedPnl  float64    `json:"unrealized_pnl"` // from the last session only
	TotalBars      int        `json:"total_bars"`
	BacktestWindow TimeWindow `json:"backtest_window"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SessionSummary is one grid session
type SessionSummary struct {
	Index             int             `json:"index"`
	Offset            int             `json:"offset"`
	Window            TimeWindow      `json:"window"`
	Bars              int             `json:"bars"`
	Mid               float64         `json:"mid"`
	Qty               float64         `json:"qty"`
	Bounds            backtest.Bounds `json:"bounds"`
	CyclesLong        int             `json:"cycles_long"`
	CyclesShort       int             `json:"cycles_short"`
	PnlLong           float64         `json:"pnl_long"`
	PnlShort          float64         `json:"pnl_short"`
	TotalPnl          float64         `json:"total_pnl"`
	WinRate           float64         `json:"winrate"`
	OpenLong          int             `json:"open_long"`
	OpenShort         int             `json:"open_short"`
	UnrealizedPnl     float64         `json:"unrealized_pnl"`
	StoppedByBreakout bool            `json:"stopped_by_breakout"`
	BreakoutTime      *time.Time      `json:"breakout_time,omitempty"`
}

// LedgerRow is one fill. Bar is the index into the full series.
type LedgerRow struct {
	Session int                `json:"session"`
	Bar     int                `json:"bar"`
	Time    time.Time          `json:"time"`
	Side    string             `json:"side"`
	Level   int                `json:"level"`
	Kind    backtest.EventKind `json:"kind"`
	Price   float64            `json:"price"`
	PnL     float64            `json:"pnl"`
}

// CompareBacktestResponse represents the response from a comparison
type CompareBacktestResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name    string          `json:"name"`
	Config  backtest.Config `json:"config"`
	Summary BacktestSummary `json:"summary"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

// RankResponse represents the response from a parameter sweep
type RankResponse struct {
	Rankings []Ranking        `json:"rankings"`
	Profile  analysis.Profile `json:"profile"`
}

// Ranking represents one ranked parameter combination
type Ranking struct {
	Rank        int     `json:"rank"`
	StepPct     float64 `json:"step_pct"`
	TpPct       float64 `json:"tp_pct"`
	Sessions    int     `json:"sessions"`
	Breakouts   int     `json:"breakouts"`
	CyclesLong  int     `json:"cycles_long"`
	CyclesShort int     `json:"cycles_short"`
	TotalPnl    float64 `json:"total_pnl"`
	Bars        int     `json:"bars"`
}

// GridResponse is a ladder preview
type GridResponse struct {
	Symbol string              `json:"symbol,omitempty"`
	Ladder *grid.Ladder        `json:"ladder"`
	Qty    float64             `json:"qty"`
	Orders []venue.OrderIntent `json:"orders,omitempty"`
}

// PresetInfo represents information about a config preset
type PresetInfo struct {
	ID     string          `json:"id"`
	Symbol string          `json:"symbol"`
	File   string          `json:"file"`
	Config backtest.Config `json:"config"`
}

// ParameterInfo describes a tunable parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "bool"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// SourceInfo represents a supported data source type
type SourceInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
