// Package api wires the HTTP handlers onto a gin engine.
package api

import (
	"net/http"
	"os"
	"strings"

	"grid-backtest/internal/api/handlers"
	"grid-backtest/internal/api/middleware"
	"grid-backtest/internal/config"
	"grid-backtest/internal/data"
	"grid-backtest/internal/logger"
	"grid-backtest/internal/metrics"
	"grid-backtest/internal/store"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators shared by the handlers. Runs and Metrics are
// optional; Source may be nil when only inline data is served.
type Deps struct {
	Config    config.Config
	Source    data.Source
	Runs      *store.Store
	Metrics   *metrics.Metrics
	StaticDir string
}

// NewRouter builds the engine with middleware and all routes.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()

	// Apply middleware
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(d.Config.API.AllowedOrigins...))
	router.Use(middleware.Logger())

	// Initialize handlers
	backtestHandler := handlers.NewBacktestHandler(d.Source, d.Config, d.Runs, d.Metrics)
	rankHandler := handlers.NewRankHandler(d.Source, d.Config)
	gridHandler := handlers.NewGridHandler(d.Config)
	hedgeHandler := handlers.NewHedgeHandler(d.Config.Hedge)
	presetHandler := handlers.NewPresetHandler(d.Config)
	parameterHandler := handlers.NewParameterHandler(d.Config)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/backtest", backtestHandler.RunBacktest)
		v1.GET("/backtest/:id", backtestHandler.GetBacktest)
		v1.POST("/backtest/compare", backtestHandler.CompareBacktests)
		v1.GET("/backtests", backtestHandler.ListBacktests)

		v1.POST("/rank", rankHandler.RankParameters)
		v1.POST("/grid", gridHandler.BuildGrid)
		v1.POST("/hedge/plan", hedgeHandler.PlanHedge)

		v1.GET("/presets", presetHandler.ListPresets)
		v1.GET("/parameters", parameterHandler.ListParameters)
		v1.GET("/sources", handlers.ListSources)
		v1.GET("/intervals", handlers.ListIntervals)
	}

	serveStatic(router, d.StaticDir)
	return router
}

// serveStatic serves a built frontend from dir, with index.html as the
// fallback for every non-API path.
func serveStatic(router *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		logger.Infof("Static directory %s not found, skipping static file serving", dir)
		return
	}
	router.Static("/assets", dir+"/assets")
	router.StaticFile("/favicon.ico", dir+"/favicon.ico")
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": handlers.CodeNotFound, "message": "Not found"}})
			return
		}
		c.File(dir + "/index.html")
	})
	logger.Infof("Serving static files from %s", dir)
}
