package handlers

import (
	"net/http"

	"grid-backtest/internal/api/models"

	"github.com/gin-gonic/gin"
)

// Intervals are the kline intervals the futures API serves.
var Intervals = []string{
	"1m", "3m", "5m", "15m", "30m",
	"1h", "2h", "4h", "6h", "8h", "12h",
	"1d", "3d", "1w", "1M",
}

// ListSources handles GET /api/v1/sources
func ListSources(c *gin.Context) {
	sources := []models.SourceInfo{
		{
			Type:        SourceBinance,
			Description: "Binance USD-M futures klines for symbol over start_date..end_date",
		},
		{
			Type:        SourceRatio,
			Description: "Close of symbol divided by close of quote, joined on bar time",
		},
		{
			Type:        SourceInline,
			Description: "Bars supplied in the request body",
		},
	}

	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

// ListIntervals handles GET /api/v1/intervals
func ListIntervals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"intervals": Intervals,
		"count":     len(Intervals),
	})
}
