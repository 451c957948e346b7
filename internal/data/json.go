package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"grid-backtest/internal/model"
)

// LoadBarsJSON reads a JSON array of bars. Any invalid bar fails the load.
func LoadBarsJSON(path string) ([]model.Bar, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bars []model.Bar
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s has no bars", model.ErrEmptyInput, path)
	}
	if err := model.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model.SortBars(bars), nil
}

func WriteBarsJSON(path string, bars []model.Bar) error {
	raw, err := json.MarshalIndent(bars, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// LoadBars picks the reader by file extension (.json, otherwise CSV).
func LoadBars(path string) ([]model.Bar, error) {
	if isJSON(path) {
		return LoadBarsJSON(path)
	}
	return LoadBarsCSV(path)
}

// WriteBars picks the writer by file extension and creates parent directories.
func WriteBars(path string, bars []model.Bar) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if isJSON(path) {
		return WriteBarsJSON(path, bars)
	}
	return WriteBarsCSV(path, bars)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
