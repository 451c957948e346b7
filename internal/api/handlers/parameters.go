package handlers

import (
	"net/http"

	"grid-backtest/internal/api/models"
	"grid-backtest/internal/config"

	"github.com/gin-gonic/gin"
)

// ParameterHandler describes the tunable backtest parameters
type ParameterHandler struct {
	defaults config.Config
}

// NewParameterHandler creates a new parameter handler
func NewParameterHandler(cfg config.Config) *ParameterHandler {
	return &ParameterHandler{defaults: cfg}
}

// ListParameters handles GET /api/v1/parameters
func (h *ParameterHandler) ListParameters(c *gin.Context) {
	d := h.defaults
	parameters := []models.ParameterInfo{
		{
			Name:        "grid.levels",
			Type:        "int",
			Description: "Number of levels on each side of the midpoint",
			Default:     d.Grid.Levels,
		},
		{
			Name:        "grid.step_pct",
			Type:        "float",
			Description: "Distance between consecutive entries, in percent of the midpoint",
			Default:     d.Grid.StepPct,
		},
		{
			Name:        "grid.tp_pct",
			Type:        "float",
			Description: "Distance from an entry to its take-profit, in percent of the entry",
			Default:     d.Grid.TpPct,
		},
		{
			Name:        "guard.max_range_pct",
			Type:        "float",
			Description: "Breakout band around the midpoint, both sides, in percent",
			Default:     d.Guard.MaxRangePct,
		},
		{
			Name:        "guard.low_pct",
			Type:        "float",
			Description: "Lower breakout band in percent (overrides max_range_pct)",
		},
		{
			Name:        "guard.high_pct",
			Type:        "float",
			Description: "Upper breakout band in percent (overrides max_range_pct)",
		},
		{
			Name:        "sizing.order_usdt",
			Type:        "float",
			Description: "Quote notional per level",
			Default:     d.Sizing.OrderUSDT,
		},
		{
			Name:        "sizing.effective_exposure",
			Type:        "float",
			Description: "Multiplier applied to order_usdt when sizing in base units",
			Default:     d.Sizing.EffectiveExposure,
		},
		{
			Name:        "options.auto_regrid",
			Type:        "bool",
			Description: "Rebuild the grid at the bar after each breakout and continue",
			Default:     d.AutoRegrid,
		},
	}

	c.JSON(http.StatusOK, gin.H{"parameters": parameters})
}
