package handlers

import (
	"net/http"

	"grid-backtest/internal/api/models"
	"grid-backtest/internal/config"
	"grid-backtest/internal/grid"
	"grid-backtest/internal/venue"

	"github.com/gin-gonic/gin"
)

// GridHandler previews ladders without running a backtest
type GridHandler struct {
	defaults config.Config
}

// NewGridHandler creates a new grid handler
func NewGridHandler(cfg config.Config) *GridHandler {
	return &GridHandler{defaults: cfg}
}

// BuildGrid handles POST /api/v1/grid
func (h *GridHandler) BuildGrid(c *gin.Context) {
	var req models.GridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	cfg := config.Merge(h.defaults.ToBacktest(), overrides(models.BacktestConfig{
		Grid:   req.Grid,
		Sizing: req.Sizing,
	}))
	if err := cfg.Sizing.Validate(); err != nil {
		respondError(c, err)
		return
	}

	ladder, err := grid.Build(req.Mid, cfg.Grid)
	if err != nil {
		respondError(c, err)
		return
	}

	symbol := req.Symbol
	if symbol == "" {
		symbol = h.defaults.Symbol
	}
	response := models.GridResponse{
		Symbol: symbol,
		Ladder: ladder,
		Qty:    cfg.Sizing.Quantity(req.Mid),
	}
	if req.Filters != nil {
		f := req.Filters
		filters := venue.NewFilters(f.TickSize, f.StepSize, f.MinQty, f.MinNotional)
		response.Orders = venue.LadderOrders(symbol, ladder, response.Qty, filters)
	}

	c.JSON(http.StatusOK, response)
}
