package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"grid-backtest/internal/api/models"
	"grid-backtest/internal/config"
	"grid-backtest/internal/logger"

	"github.com/gin-gonic/gin"
)

// PresetHandler lists the named configs in the preset directory
type PresetHandler struct {
	presetDir string
	defaults  config.Config
}

// NewPresetHandler creates a new preset handler over cfg.API.PresetDir.
// Listed configs are the presets laid over cfg.
func NewPresetHandler(cfg config.Config) *PresetHandler {
	dir := cfg.API.PresetDir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	logger.WithField("dir", dir).Debugf("PresetHandler: using preset directory")
	return &PresetHandler{presetDir: dir, defaults: cfg}
}

// PresetDir returns the resolved preset directory
func (h *PresetHandler) PresetDir() string {
	return h.presetDir
}

// ListPresets handles GET /api/v1/presets
func (h *PresetHandler) ListPresets(c *gin.Context) {
	presets := []models.PresetInfo{}

	entries, err := os.ReadDir(h.presetDir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WithError(err).Warnf("PresetHandler: failed to read %s", h.presetDir)
		}
		c.JSON(http.StatusOK, gin.H{"presets": presets})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".yaml")
		preset, err := loadPreset(h.presetDir, id)
		if err != nil {
			logger.WithError(err).Warnf("PresetHandler: skipping %s", entry.Name())
			continue
		}
		merged := config.Merge(h.defaults.ToBacktest(), preset.ToBacktest())
		if err := merged.Validate(); err != nil {
			logger.WithError(err).Warnf("PresetHandler: skipping %s", entry.Name())
			continue
		}
		symbol := preset.Symbol
		if symbol == "" {
			symbol = h.defaults.Symbol
		}
		presets = append(presets, models.PresetInfo{
			ID:     id,
			Symbol: symbol,
			File:   filepath.Join(h.presetDir, entry.Name()),
			Config: merged,
		})
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].ID < presets[j].ID })

	c.JSON(http.StatusOK, gin.H{"presets": presets})
}
