package handlers

import (
	"net/http"

	"grid-backtest/internal/analysis"
	"grid-backtest/internal/api/models"
	"grid-backtest/internal/config"
	"grid-backtest/internal/data"
	"grid-backtest/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RankHandler handles ranking-related requests
type RankHandler struct {
	inputs
}

// NewRankHandler creates a new rank handler
func NewRankHandler(source data.Source, cfg config.Config) *RankHandler {
	return &RankHandler{inputs: inputs{source: source, defaults: cfg}}
}

// RankParameters handles POST /api/v1/rank
func (h *RankHandler) RankParameters(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	base, err := h.engineConfig(req.BaseConfig)
	if err != nil {
		respondError(c, err)
		return
	}

	s, err := h.loadBars(c.Request.Context(), req.DataSource)
	if err != nil {
		respondError(c, err)
		return
	}

	ranked, err := analysis.Sweep(s.Bars, base, req.StepPcts, req.TpPcts, req.AutoRegrid)
	if err != nil {
		respondError(c, err)
		return
	}

	// Apply limit
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	ranked = ranked[:limit]

	rankings := make([]models.Ranking, len(ranked))
	for i, r := range ranked {
		rankings[i] = models.Ranking{
			Rank:        i + 1,
			StepPct:     r.Config.Grid.StepPct,
			TpPct:       r.Config.Grid.TpPct,
			Sessions:    r.Sessions,
			Breakouts:   r.Breakouts,
			CyclesLong:  r.CyclesLong,
			CyclesShort: r.CyclesShort,
			TotalPnl:    r.TotalPnl,
			Bars:        r.Bars,
		}
	}

	logger.WithFields(logrus.Fields{
		"symbol": s.Symbol,
		"combos": len(req.StepPcts) * len(req.TpPcts),
	}).Info("parameter sweep completed")

	c.JSON(http.StatusOK, models.RankResponse{
		Rankings: rankings,
		Profile:  analysis.ComputeProfile(s.Bars),
	})
}
