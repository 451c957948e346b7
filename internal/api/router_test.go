package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"grid-backtest/internal/api/models"
	"grid-backtest/internal/config"
	"grid-backtest/internal/data"
	"grid-backtest/internal/metrics"
	"grid-backtest/internal/model"
	"grid-backtest/internal/store"

	"github.com/adshao/go-binance/v2/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	bars    map[string][]model.Bar
	err     error
	queries []data.Query
}

func (f *fakeSource) Bars(_ context.Context, q data.Query) ([]model.Bar, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	bars, ok := f.bars[q.Symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no bars for %s", model.ErrEmptyInput, q.Symbol)
	}
	return bars, nil
}

// bars builds one-minute bars from (low, high, close) triples.
func bars(rows ...[3]float64) []model.Bar {
	out := make([]model.Bar, len(rows))
	for i, r := range rows {
		out[i] = model.Bar{
			Time:  t0.Add(time.Duration(i) * time.Minute),
			Open:  r[2],
			High:  r[1],
			Low:   r[0],
			Close: r[2],
		}
	}
	return out
}

// oneLongCycle opens the first long level on bar 1 and closes it on bar 2
// for a grid of one level, 1% step and 1% take-profit.
func oneLongCycle() []model.Bar {
	return bars(
		[3]float64{100, 100, 100},
		[3]float64{98.5, 100, 99},
		[3]float64{99, 100.5, 100},
	)
}

func oneLevel() models.BacktestConfig {
	return models.BacktestConfig{
		Grid:   models.GridConfig{Levels: 1, StepPct: 1, TpPct: 1},
		Guard:  models.GuardConfig{MaxRangePct: 5},
		Sizing: models.SizingConfig{OrderUSDT: 100, EffectiveExposure: 1},
	}
}

type testServer struct {
	router  *gin.Engine
	source  *fakeSource
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	runs, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = runs.Close() })

	cfg := config.Default()
	cfg.API.PresetDir = t.TempDir()
	src := &fakeSource{bars: map[string][]model.Bar{}}
	m := metrics.New()
	return &testServer{
		router:  NewRouter(Deps{Config: cfg, Source: src, Runs: runs, Metrics: m}),
		source:  src,
		metrics: m,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	decode(t, rec, &resp)
	return resp.Error.Code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRunBacktestInlineStoresRun(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/backtest", models.BacktestRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Symbol: "btcusdt", Bars: oneLongCycle()},
		Config:     oneLevel(),
		Options:    models.BacktestOptions{IncludeEvents: true},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.BacktestResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, store.ModeSingle, resp.Mode)
	assert.Equal(t, "BTCUSDT", resp.Symbol)
	assert.Equal(t, 1, resp.Summary.Sessions)
	assert.Equal(t, 1, resp.Summary.CyclesLong)
	assert.Equal(t, 0, resp.Summary.CyclesShort)
	assert.InDelta(t, 0.99, resp.Summary.TotalPnl, 1e-9)
	assert.Equal(t, 3, resp.Summary.TotalBars)
	assert.Equal(t, t0, resp.Summary.BacktestWindow.Start)
	require.Len(t, resp.Sessions, 1)
	assert.InDelta(t, 100.0, resp.Sessions[0].WinRate, 1e-9)
	assert.Nil(t, resp.Sessions[0].BreakoutTime)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, 1, resp.Events[0].Bar)
	assert.Equal(t, 2, resp.Events[1].Bar)

	rec = s.do(t, http.MethodGet, "/api/v1/backtest/"+resp.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stored models.BacktestResponse
	decode(t, rec, &stored)
	assert.Equal(t, resp.ID, stored.ID)
	assert.Equal(t, resp.Summary, stored.Summary)
	assert.Len(t, stored.Events, 2)

	rec = s.do(t, http.MethodGet, "/api/v1/backtests?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Runs  []store.Run `json:"runs"`
		Count int         `json:"count"`
	}
	decode(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, resp.ID, list.Runs[0].ID)
	assert.Equal(t, 1, list.Runs[0].CyclesLong)
	assert.Empty(t, list.Runs[0].Payload)

	body := s.do(t, http.MethodGet, "/metrics", nil).Body.String()
	assert.Contains(t, body, `grid_backtests_total{mode="single"} 1`)
	assert.Contains(t, body, `grid_cycles_total{side="long"} 1`)
}

func TestRunBacktestAutoRegrid(t *testing.T) {
	s := newTestServer(t)
	series := bars(
		[3]float64{100, 100, 100},
		[3]float64{100, 110, 110}, // leaves the 5% band
		[3]float64{110, 110, 110},
		[3]float64{110, 110, 110},
	)
	rec := s.do(t, http.MethodPost, "/api/v1/backtest", models.BacktestRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Bars: series},
		Config:     oneLevel(),
		Options:    models.BacktestOptions{AutoRegrid: true},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.BacktestResponse
	decode(t, rec, &resp)
	assert.Equal(t, store.ModeRegrid, resp.Mode)
	assert.Equal(t, "BTCUSDT", resp.Symbol)
	assert.Equal(t, 2, resp.Summary.Sessions)
	assert.Equal(t, 1, resp.Summary.Breakouts)
	assert.Equal(t, 4, resp.Summary.TotalBars)
	require.Len(t, resp.Sessions, 2)
	assert.True(t, resp.Sessions[0].StoppedByBreakout)
	require.NotNil(t, resp.Sessions[0].BreakoutTime)
	assert.Equal(t, t0.Add(time.Minute), *resp.Sessions[0].BreakoutTime)
	assert.Equal(t, 2, resp.Sessions[1].Offset)
	assert.InDelta(t, 110.0, resp.Sessions[1].Mid, 1e-9)
	assert.False(t, resp.Sessions[1].StoppedByBreakout)
	assert.Empty(t, resp.Events)
}

func TestRunBacktestFromSources(t *testing.T) {
	s := newTestServer(t)
	s.source.bars["BTCUSDT"] = oneLongCycle()
	s.source.bars["ETHUSDT"] = bars(
		[3]float64{1, 1, 1},
		[3]float64{1, 1, 1},
		[3]float64{1, 1, 1},
	)

	rec := s.do(t, http.MethodPost, "/api/v1/backtest", models.BacktestRequest{
		DataSource: models.DataSourceConfig{Type: "binance", StartDate: "2025-01-01", EndDate: "2025-01-02"},
		Config:     oneLevel(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, s.source.queries, 1)
	q := s.source.queries[0]
	assert.Equal(t, "BTCUSDT", q.Symbol)
	assert.Equal(t, "1m", q.Interval)
	assert.Equal(t, t0, q.Start)
	assert.Equal(t, t0.Add(24*time.Hour), q.End)

	rec = s.do(t, http.MethodPost, "/api/v1/backtest", models.BacktestRequest{
		DataSource: models.DataSourceConfig{Type: "ratio", Symbol: "BTCUSDT", Quote: "ethusdt", StartDate: "2025-01-01"},
		Config:     oneLevel(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.BacktestResponse
	decode(t, rec, &resp)
	assert.Equal(t, "BTCUSDT/ETHUSDT", resp.Symbol)
	assert.Equal(t, 3, resp.Summary.TotalBars)
	// Ratio bars are flat closes, so the long opens at 99 and closes at 100.
	assert.Equal(t, 1, resp.Summary.CyclesLong)
}

func TestRunBacktestErrors(t *testing.T) {
	s := newTestServer(t)
	inline := models.DataSourceConfig{Type: "inline", Bars: oneLongCycle()}
	badLevels := oneLevel()
	badLevels.Grid.Levels = -1

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"malformed json", `{"data_source":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing data source", `{}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"invalid levels", models.BacktestRequest{DataSource: inline, Config: badLevels}, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"empty inline", models.BacktestRequest{DataSource: models.DataSourceConfig{Type: "inline"}}, http.StatusBadRequest, "EMPTY_INPUT"},
		{"inverted inline bar", models.BacktestRequest{DataSource: models.DataSourceConfig{Type: "inline", Bars: bars([3]float64{100, 100, 100}, [3]float64{101, 99, 100})}, Config: oneLevel()}, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"non-positive inline bar", models.BacktestRequest{DataSource: models.DataSourceConfig{Type: "inline", Bars: bars([3]float64{0, 0, 0})}, Config: oneLevel()}, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"unknown type", models.BacktestRequest{DataSource: models.DataSourceConfig{Type: "csv"}}, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"missing start", models.BacktestRequest{DataSource: models.DataSourceConfig{Type: "binance"}}, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"bad date", models.BacktestRequest{DataSource: models.DataSourceConfig{Type: "binance", StartDate: "yesterday"}}, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"ratio without quote", models.BacktestRequest{DataSource: models.DataSourceConfig{Type: "ratio", StartDate: "2025-01-01"}}, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"no bars upstream", models.BacktestRequest{DataSource: models.DataSourceConfig{Type: "binance", Symbol: "XRPUSDT", StartDate: "2025-01-01"}}, http.StatusBadRequest, "EMPTY_INPUT"},
		{"preset traversal", models.BacktestRequest{DataSource: inline, Config: models.BacktestConfig{Preset: "../etc"}}, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"missing preset", models.BacktestRequest{DataSource: inline, Config: models.BacktestConfig{Preset: "nope"}}, http.StatusBadRequest, "INVALID_PARAMETER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/backtest", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestRunBacktestUpstreamError(t *testing.T) {
	s := newTestServer(t)
	s.source.err = fmt.Errorf("fetch klines: %w", &common.APIError{Code: -1121, Message: "Invalid symbol."})

	rec := s.do(t, http.MethodPost, "/api/v1/backtest", models.BacktestRequest{
		DataSource: models.DataSourceConfig{Type: "binance", StartDate: "2025-01-01"},
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp models.ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, "UPSTREAM_ERROR", resp.Error.Code)
	assert.EqualValues(t, -1121, resp.Error.Details["binance_code"])
}

func TestGetBacktestNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/backtest/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestBacktestsWithoutStore(t *testing.T) {
	router := NewRouter(Deps{Config: config.Default()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/backtest/abc", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/backtests", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"runs":[],"count":0}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompareBacktests(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/backtest/compare", models.CompareBacktestRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Bars: oneLongCycle()},
		BaseConfig: oneLevel(),
		Variations: []models.BacktestVariation{
			{Name: "base"},
			{Name: "wide", Config: models.BacktestConfig{Grid: models.GridConfig{StepPct: 2}}},
			{Name: "broken", Config: models.BacktestConfig{Grid: models.GridConfig{Levels: -1}}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.CompareBacktestResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Comparison, 3)

	assert.Equal(t, "base", resp.Comparison[0].Name)
	assert.Nil(t, resp.Comparison[0].Error)
	assert.Equal(t, 1, resp.Comparison[0].Summary.CyclesLong)

	// A 2% step puts the long entry at 98, below every low.
	assert.Equal(t, 2.0, resp.Comparison[1].Config.Grid.StepPct)
	assert.Equal(t, 0, resp.Comparison[1].Summary.Cycles)

	require.NotNil(t, resp.Comparison[2].Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Comparison[2].Error.Code)
}

func TestRankParameters(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/rank", models.RankRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Bars: oneLongCycle()},
		BaseConfig: oneLevel(),
		StepPcts:   []float64{2, 1},
		TpPcts:     []float64{1},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.RankResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Rankings, 2)
	assert.Equal(t, 1, resp.Rankings[0].Rank)
	assert.Equal(t, 1.0, resp.Rankings[0].StepPct)
	assert.InDelta(t, 0.99, resp.Rankings[0].TotalPnl, 1e-9)
	assert.Equal(t, 2.0, resp.Rankings[1].StepPct)
	assert.Equal(t, 3, resp.Profile.Count)
	assert.InDelta(t, 100.0, resp.Profile.First, 1e-9)

	rec = s.do(t, http.MethodPost, "/api/v1/rank", models.RankRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Bars: oneLongCycle()},
		BaseConfig: oneLevel(),
		StepPcts:   []float64{-1},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", errorCode(t, rec))
}

func TestBuildGrid(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/grid", models.GridRequest{
		Symbol:  "ETHUSDT",
		Mid:     100,
		Grid:    models.GridConfig{Levels: 2, StepPct: 1, TpPct: 0.5},
		Sizing:  models.SizingConfig{OrderUSDT: 50, EffectiveExposure: 1},
		Filters: &models.FiltersConfig{TickSize: 0.01, StepSize: 0.001},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.GridResponse
	decode(t, rec, &resp)
	assert.Equal(t, "ETHUSDT", resp.Symbol)
	require.NotNil(t, resp.Ladder)
	assert.Len(t, resp.Ladder.Longs, 2)
	assert.Len(t, resp.Ladder.Shorts, 2)
	assert.InDelta(t, 99.0, resp.Ladder.Longs[0].Entry, 1e-9)
	assert.InDelta(t, 102.0, resp.Ladder.Shorts[1].Entry, 1e-9)
	assert.InDelta(t, 0.5, resp.Qty, 1e-12)
	assert.Len(t, resp.Orders, 8)

	rec = s.do(t, http.MethodPost, "/api/v1/grid", models.GridRequest{Mid: -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/api/v1/grid", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, rec))
}

func TestPlanHedge(t *testing.T) {
	s := newTestServer(t)
	lot := 0.01
	rec := s.do(t, http.MethodPost, "/api/v1/hedge/plan", models.HedgeRequest{
		Symbol:  "ETHUSDT",
		SpotQty: 1,
		LotSize: &lot,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Order struct {
			Side string  `json:"side"`
			Qty  float64 `json:"qty"`
		} `json:"order"`
		Summary string `json:"summary"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "SELL", resp.Order.Side)
	assert.InDelta(t, 0.6, resp.Order.Qty, 1e-12)
	assert.Equal(t, "ETHUSDT: SELL 0.6", resp.Summary)

	negative := -1.0
	rec = s.do(t, http.MethodPost, "/api/v1/hedge/plan", models.HedgeRequest{Symbol: "ETHUSDT", SpotQty: 1, Ratio: &negative})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", errorCode(t, rec))
}

func TestPresets(t *testing.T) {
	dir := t.TempDir()
	yaml := "symbol: ETHUSDT\ngrid:\n  levels: 1\n  step_pct: 1\n  tp_pct: 1\nguard:\n  max_range_pct: 5\nsizing:\n  order_usdt: 100\n  effective_exposure: 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "eth_tight.yaml"), []byte(yaml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("grid: [unclosed"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	cfg := config.Default()
	cfg.API.PresetDir = dir
	router := NewRouter(Deps{Config: cfg})
	s := &testServer{router: router}

	rec := s.do(t, http.MethodGet, "/api/v1/presets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Presets []models.PresetInfo `json:"presets"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Presets, 1)
	assert.Equal(t, "eth_tight", list.Presets[0].ID)
	assert.Equal(t, "ETHUSDT", list.Presets[0].Symbol)
	assert.Equal(t, 1, list.Presets[0].Config.Grid.Levels)
	assert.Equal(t, 5.0, list.Presets[0].Config.Guard.HighPct)

	rec = s.do(t, http.MethodPost, "/api/v1/backtest", models.BacktestRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Bars: oneLongCycle()},
		Config:     models.BacktestConfig{Preset: "eth_tight"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.BacktestResponse
	decode(t, rec, &resp)
	assert.Equal(t, 1, resp.Config.Grid.Levels)
	assert.Equal(t, 1, resp.Summary.CyclesLong)
}

func TestPresetOverlaysServerConfig(t *testing.T) {
	t.Setenv("GRID_LEVELS", "7")
	t.Setenv("ORDER_USDT", "1")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fine.yaml"), []byte("grid:\n  step_pct: 0.1\n"), 0o644))

	cfg := config.Default()
	cfg.API.PresetDir = dir
	cfg.Grid.Levels = 30
	cfg.Sizing.OrderUSDT = 500
	s := &testServer{router: NewRouter(Deps{Config: cfg})}

	rec := s.do(t, http.MethodPost, "/api/v1/backtest", models.BacktestRequest{
		DataSource: models.DataSourceConfig{Type: "inline", Bars: oneLongCycle()},
		Config:     models.BacktestConfig{Preset: "fine", Grid: models.GridConfig{TpPct: 0.5}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.BacktestResponse
	decode(t, rec, &resp)
	assert.Equal(t, 30, resp.Config.Grid.Levels, "server value kept")
	assert.Equal(t, 0.1, resp.Config.Grid.StepPct, "preset value applied")
	assert.Equal(t, 0.5, resp.Config.Grid.TpPct, "request value wins")
	assert.Equal(t, 500.0, resp.Config.Sizing.OrderNotional)
	assert.Equal(t, 1.2, resp.Config.Sizing.EffectiveExposure)

	rec = s.do(t, http.MethodGet, "/api/v1/presets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Presets []models.PresetInfo `json:"presets"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Presets, 1)
	assert.Equal(t, "BTCUSDT", list.Presets[0].Symbol)
	assert.Equal(t, 30, list.Presets[0].Config.Grid.Levels)
	assert.Equal(t, 0.1, list.Presets[0].Config.Grid.StepPct)
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t)

	var params struct {
		Parameters []models.ParameterInfo `json:"parameters"`
	}
	rec := s.do(t, http.MethodGet, "/api/v1/parameters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &params)
	require.NotEmpty(t, params.Parameters)
	assert.Equal(t, "grid.levels", params.Parameters[0].Name)
	assert.EqualValues(t, 20, params.Parameters[0].Default)

	var sources struct {
		Sources []models.SourceInfo `json:"sources"`
	}
	rec = s.do(t, http.MethodGet, "/api/v1/sources", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &sources)
	assert.Len(t, sources.Sources, 3)

	var intervals struct {
		Intervals []string `json:"intervals"`
		Count     int      `json:"count"`
	}
	rec = s.do(t, http.MethodGet, "/api/v1/intervals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &intervals)
	assert.Contains(t, intervals.Intervals, "1m")
	assert.Equal(t, len(intervals.Intervals), intervals.Count)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/backtest", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
