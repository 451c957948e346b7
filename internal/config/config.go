package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"grid-backtest/internal/backtest"
	"grid-backtest/internal/grid"
	"grid-backtest/internal/logger"
	"grid-backtest/internal/model"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Symbol string       `yaml:"symbol"`
	Grid   grid.Params  `yaml:"grid"`
	Sizing SizingConfig `yaml:"sizing"`
	Guard  GuardConfig  `yaml:"guard"`
	// AutoRegrid replays the data as a chain of sessions instead of a single one.
	AutoRegrid bool          `yaml:"auto_regrid"`
	Data       DataConfig    `yaml:"data"`
	Hedge      HedgeConfig   `yaml:"hedge"`
	Log        logger.Config `yaml:"log"`
	API        APIConfig     `yaml:"api"`
}

type SizingConfig struct {
	OrderUSDT         float64 `yaml:"order_usdt"`
	EffectiveExposure float64 `yaml:"effective_exposure"`
}

// GuardConfig is the breakout band. MaxRangePct fills whichever side is not
// set explicitly.
type GuardConfig struct {
	MaxRangePct float64 `yaml:"max_range_pct"`
	LowPct      float64 `yaml:"low_pct"`
	HighPct     float64 `yaml:"high_pct"`
}

type DataConfig struct {
	Interval       string        `yaml:"interval"`
	CSV            string        `yaml:"csv"`
	BinanceBaseURL string        `yaml:"binance_base_url"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

type HedgeConfig struct {
	Ratio   float64 `yaml:"ratio"`
	LotSize float64 `yaml:"lot_size"`
}

type APIConfig struct {
	Addr           string   `yaml:"addr"`
	DBPath         string   `yaml:"db_path"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// PresetDir holds named YAML configs listed by the presets endpoint.
	PresetDir string `yaml:"preset_dir"`
}

// Default mirrors the flag defaults of the command line tools.
func Default() Config {
	return Config{
		Symbol: "BTCUSDT",
		Grid:   grid.Params{Levels: 20, StepPct: 0.25, TpPct: 0.20},
		Sizing: SizingConfig{OrderUSDT: 20, EffectiveExposure: 1.2},
		Guard:  GuardConfig{MaxRangePct: 4},
		Data:   DataConfig{Interval: "1m", CacheTTL: 10 * time.Minute},
		Hedge:  HedgeConfig{Ratio: 0.6, LotSize: 0.001},
		Log:    logger.Config{Level: "info"},
		API: APIConfig{
			Addr:           ":8080",
			DBPath:         "data/runs.db",
			AllowedOrigins: []string{"*"},
			PresetDir:      "configs",
		},
	}
}

// Load reads path (may be empty), applies the environment and validates.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked starts from Default, overlays the YAML file at path (if any)
// and then the environment, but does not validate.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := LoadEnvFile(); err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadOverlay reads the YAML at path onto a zero Config. No defaults and no
// environment are applied, so only the fields the file sets are non-zero and
// Merge can lay it over another config. Presets are read this way.
func LoadOverlay(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}

// LoadEnvFile reads .env (or the given files) into the process environment.
// Missing files are ignored; variables already set are kept.
func LoadEnvFile(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays the supported environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *float64) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", model.ErrInvalidParameter, key, v)
		}
		*dst = f
		return nil
	}

	str("SYMBOL", &c.Symbol)
	str("LOG_LEVEL", &c.Log.Level)
	if v, ok := lookup("GRID_LEVELS"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: GRID_LEVELS=%q is not an integer", model.ErrInvalidParameter, v)
		}
		c.Grid.Levels = n
	}
	for key, dst := range map[string]*float64{
		"STEP_PCT":           &c.Grid.StepPct,
		"TP_PCT":             &c.Grid.TpPct,
		"ORDER_USDT":         &c.Sizing.OrderUSDT,
		"EFFECTIVE_EXPOSURE": &c.Sizing.EffectiveExposure,
		"MAX_RANGE_PCT":      &c.Guard.MaxRangePct,
		"HEDGE_RATIO":        &c.Hedge.Ratio,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", model.ErrInvalidParameter)
	}
	if c.Data.Interval == "" {
		return fmt.Errorf("%w: data.interval is required", model.ErrInvalidParameter)
	}
	if c.Hedge.Ratio < 0 {
		return fmt.Errorf("%w: hedge.ratio must be >= 0", model.ErrInvalidParameter)
	}
	if err := c.ToBacktest().Validate(); err != nil {
		return fmt.Errorf("backtest config invalid: %w", err)
	}
	return nil
}

// Resolve returns the effective guard percentages.
func (g GuardConfig) Resolve() backtest.Guard {
	out := backtest.Guard{LowPct: g.LowPct, HighPct: g.HighPct}
	if out.LowPct == 0 {
		out.LowPct = g.MaxRangePct
	}
	if out.HighPct == 0 {
		out.HighPct = g.MaxRangePct
	}
	return out
}

// ToBacktest builds the engine configuration.
func (c *Config) ToBacktest() backtest.Config {
	return backtest.Config{
		Grid:  c.Grid,
		Guard: c.Guard.Resolve(),
		Sizing: backtest.Sizing{
			OrderNotional:     c.Sizing.OrderUSDT,
			EffectiveExposure: c.Sizing.EffectiveExposure,
		},
	}
}

// Merge overlays the non-zero engine fields of override onto base.
// Used for parameter variations in compare and sweep requests.
func Merge(base, override backtest.Config) backtest.Config {
	out := base
	if override.Grid.Levels != 0 {
		out.Grid.Levels = override.Grid.Levels
	}
	if override.Grid.StepPct != 0 {
		out.Grid.StepPct = override.Grid.StepPct
	}
	if override.Grid.TpPct != 0 {
		out.Grid.TpPct = override.Grid.TpPct
	}
	if override.Guard.LowPct != 0 {
		out.Guard.LowPct = override.Guard.LowPct
	}
	if override.Guard.HighPct != 0 {
		out.Guard.HighPct = override.Guard.HighPct
	}
	if override.Sizing.OrderNotional != 0 {
		out.Sizing.OrderNotional = override.Sizing.OrderNotional
	}
	if override.Sizing.EffectiveExposure != 0 {
		out.Sizing.EffectiveExposure = override.Sizing.EffectiveExposure
	}
	return out
}
