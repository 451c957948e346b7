package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"grid-backtest/internal/api/models"
	"grid-backtest/internal/backtest"
	"grid-backtest/internal/config"
	"grid-backtest/internal/data"
	"grid-backtest/internal/logger"
	"grid-backtest/internal/metrics"
	"grid-backtest/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	inputs
	engine  *backtest.Engine
	runs    *store.Store
	metrics *metrics.Metrics
}

// NewBacktestHandler creates a new backtest handler. runs and m may be nil,
// in which case results are not stored or counted.
func NewBacktestHandler(source data.Source, cfg config.Config, runs *store.Store, m *metrics.Metrics) *BacktestHandler {
	return &BacktestHandler{
		inputs:  inputs{source: source, defaults: cfg},
		engine:  backtest.New(),
		runs:    runs,
		metrics: m,
	}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	cfg, err := h.engineConfig(req.Config)
	if err != nil {
		respondError(c, err)
		return
	}

	s, err := h.loadBars(c.Request.Context(), req.DataSource)
	if err != nil {
		respondError(c, err)
		return
	}
	s.Bars = limitBars(s.Bars, req.Options.LimitBars)

	agg, mode, err := h.run(s, cfg, req.Options.AutoRegrid)
	if err != nil {
		respondError(c, err)
		return
	}

	response := buildResponse(s, cfg, mode, agg, req.Options.IncludeEvents)
	if h.runs != nil {
		id, err := h.save(c, s, cfg, mode, agg, response)
		if err != nil {
			respondError(c, err)
			return
		}
		response.ID = id
	}

	logger.WithFields(logrus.Fields{
		"id":       response.ID,
		"symbol":   s.Symbol,
		"mode":     mode,
		"sessions": agg.Sessions,
		"cycles":   agg.Cycles(),
	}).Infof("backtest completed: pnl=%.6f bars=%d", agg.TotalPnl, agg.Bars)

	c.JSON(http.StatusOK, response)
}

// GetBacktest handles GET /api/v1/backtest/:id
func (h *BacktestHandler) GetBacktest(c *gin.Context) {
	if h.runs == nil {
		abort(c, http.StatusServiceUnavailable, CodeUnavailable, "run history is not enabled")
		return
	}
	run, err := h.runs.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var response models.BacktestResponse
	if err := json.Unmarshal(run.Payload, &response); err != nil {
		respondError(c, err)
		return
	}
	response.ID = run.ID
	c.JSON(http.StatusOK, response)
}

// ListBacktests handles GET /api/v1/backtests
func (h *BacktestHandler) ListBacktests(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []*store.Run{}, "count": 0})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, "limit must be a non-negative integer")
		return
	}
	runs, err := h.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// CompareBacktests handles POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req models.CompareBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	// Fetch data once
	s, err := h.loadBars(c.Request.Context(), req.DataSource)
	if err != nil {
		respondError(c, err)
		return
	}
	s.Bars = limitBars(s.Bars, req.Options.LimitBars)

	comparison := make([]models.ComparisonResult, 0, len(req.Variations))
	for _, variation := range req.Variations {
		result := models.ComparisonResult{Name: variation.Name}

		// Invalid variations are reported in place rather than failing the request
		agg, cfg, err := h.runVariation(s, mergeRequestConfig(req.BaseConfig, variation.Config), req.Options.AutoRegrid)
		if err != nil {
			_, detail := classify(err)
			result.Error = &detail
		} else {
			result.Config = cfg
			result.Summary = buildSummary(agg)
		}
		comparison = append(comparison, result)
	}

	c.JSON(http.StatusOK, models.CompareBacktestResponse{
		Comparison: comparison,
	})
}

// Helper methods

func (h *BacktestHandler) runVariation(s *series, req models.BacktestConfig, autoRegrid bool) (*backtest.Aggregate, backtest.Config, error) {
	cfg, err := h.engineConfig(req)
	if err != nil {
		return nil, cfg, err
	}
	agg, _, err := h.run(s, cfg, autoRegrid)
	return agg, cfg, err
}

func (h *BacktestHandler) run(s *series, cfg backtest.Config, autoRegrid bool) (*backtest.Aggregate, string, error) {
	started := time.Now()
	if autoRegrid {
		agg, err := h.engine.RunSequence(s.Bars, cfg)
		if err != nil {
			return nil, "", err
		}
		h.metrics.ObserveSequence(agg, time.Since(started))
		return agg, store.ModeRegrid, nil
	}

	res, err := h.engine.RunSession(s.Bars, cfg)
	if err != nil {
		return nil, "", err
	}
	h.metrics.ObserveSession(res, time.Since(started))
	return backtest.NewAggregate(res), store.ModeSingle, nil
}

func (h *BacktestHandler) save(c *gin.Context, s *series, cfg backtest.Config, mode string, agg *backtest.Aggregate, response models.BacktestResponse) (string, error) {
	payload, err := json.Marshal(response)
	if err != nil {
		return "", err
	}
	run := &store.Run{
		Symbol:      s.Symbol,
		Interval:    s.Interval,
		Mode:        mode,
		Start:       response.Summary.BacktestWindow.Start,
		End:         response.Summary.BacktestWindow.End,
		Config:      cfg,
		Sessions:    agg.Sessions,
		Breakouts:   agg.Breakouts,
		CyclesLong:  agg.CyclesLong,
		CyclesShort: agg.CyclesShort,
		TotalPnl:    agg.TotalPnl,
		Bars:        agg.Bars,
		Payload:     payload,
	}
	if err := h.runs.SaveRun(c.Request.Context(), run); err != nil {
		return "", err
	}
	return run.ID, nil
}

// mergeRequestConfig overlays the non-zero fields of override onto base.
func mergeRequestConfig(base, override models.BacktestConfig) models.BacktestConfig {
	merged := base
	if override.Preset != "" {
		merged.Preset = override.Preset
	}
	if override.Grid.Levels != 0 {
		merged.Grid.Levels = override.Grid.Levels
	}
	if override.Grid.StepPct != 0 {
		merged.Grid.StepPct = override.Grid.StepPct
	}
	if override.Grid.TpPct != 0 {
		merged.Grid.TpPct = override.Grid.TpPct
	}
	if override.Guard.MaxRangePct != 0 {
		merged.Guard = override.Guard
	} else {
		if override.Guard.LowPct != 0 {
			merged.Guard.LowPct = override.Guard.LowPct
		}
		if override.Guard.HighPct != 0 {
			merged.Guard.HighPct = override.Guard.HighPct
		}
	}
	if override.Sizing.OrderUSDT != 0 {
		merged.Sizing.OrderUSDT = override.Sizing.OrderUSDT
	}
	if override.Sizing.EffectiveExposure != 0 {
		merged.Sizing.EffectiveExposure = override.Sizing.EffectiveExposure
	}
	return merged
}

func buildResponse(s *series, cfg backtest.Config, mode string, agg *backtest.Aggregate, includeEvents bool) models.BacktestResponse {
	response := models.BacktestResponse{
		Status:   "completed",
		Mode:     mode,
		Symbol:   s.Symbol,
		Interval: s.Interval,
		Config:   cfg,
		Summary:  buildSummary(agg),
		Sessions: make([]models.SessionSummary, len(agg.Results)),
	}
	for i, r := range agg.Results {
		response.Sessions[i] = buildSession(i+1, r)
		if includeEvents {
			for _, ev := range r.Events {
				response.Events = append(response.Events, models.LedgerRow{
					Session: i + 1,
					Bar:     r.Offset + ev.Bar,
					Time:    ev.Time,
					Side:    string(ev.Side),
					Level:   ev.Level,
					Kind:    ev.Kind,
					Price:   ev.Price,
					PnL:     ev.PnL,
				})
			}
		}
	}
	return response
}

func buildSummary(agg *backtest.Aggregate) models.BacktestSummary {
	summary := models.BacktestSummary{
		Sessions:    agg.Sessions,
		Breakouts:   agg.Breakouts,
		CyclesLong:  agg.CyclesLong,
		CyclesShort: agg.CyclesShort,
		Cycles:      agg.Cycles(),
		PnlLong:     agg.PnlLong,
		PnlShort:    agg.PnlShort,
		TotalPnl:    agg.TotalPnl,
		TotalBars:   agg.Bars,
	}
	if n := len(agg.Results); n > 0 {
		last := agg.Results[n-1]
		summary.UnrealizedPnl = last.UnrealizedPnl
		summary.BacktestWindow = models.TimeWindow{Start: agg.Results[0].Start, End: last.End}
	}
	return summary
}

func buildSession(index int, r *backtest.Result) models.SessionSummary {
	session := models.SessionSummary{
		Index:             index,
		Offset:            r.Offset,
		Window:            models.TimeWindow{Start: r.Start, End: r.End},
		Bars:              r.Bars,
		Mid:               r.Mid,
		Qty:               r.Qty,
		Bounds:            r.Bounds,
		CyclesLong:        r.CyclesLong,
		CyclesShort:       r.CyclesShort,
		PnlLong:           r.PnlLong,
		PnlShort:          r.PnlShort,
		TotalPnl:          r.TotalPnl,
		WinRate:           r.WinRate,
		OpenLong:          r.OpenLong,
		OpenShort:         r.OpenShort,
		UnrealizedPnl:     r.UnrealizedPnl,
		StoppedByBreakout: r.StoppedByBreakout,
	}
	if r.StoppedByBreakout {
		t := r.BreakoutTime
		session.BreakoutTime = &t
	}
	return session
}
