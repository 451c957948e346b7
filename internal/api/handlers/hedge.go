package handlers

import (
	"net/http"

	"grid-backtest/internal/api/models"
	"grid-backtest/internal/config"
	"grid-backtest/internal/hedge"

	"github.com/gin-gonic/gin"
)

// HedgeHandler sizes futures hedges
type HedgeHandler struct {
	defaults config.HedgeConfig
}

// NewHedgeHandler creates a new hedge handler
func NewHedgeHandler(cfg config.HedgeConfig) *HedgeHandler {
	return &HedgeHandler{defaults: cfg}
}

// PlanHedge handles POST /api/v1/hedge/plan
func (h *HedgeHandler) PlanHedge(c *gin.Context) {
	var req models.HedgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	in := hedge.Input{
		Symbol:       req.Symbol,
		SpotQty:      req.SpotQty,
		CurrentShort: req.CurrentShort,
		Ratio:        h.defaults.Ratio,
		LotSize:      h.defaults.LotSize,
	}
	if req.Ratio != nil {
		in.Ratio = *req.Ratio
	}
	if req.LotSize != nil {
		in.LotSize = *req.LotSize
	}

	order, err := hedge.Plan(in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":   order,
		"summary": order.String(),
	})
}
