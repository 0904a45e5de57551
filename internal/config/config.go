/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	DataDir string `yaml:"data_dir"` // root of the per-board directories
}

// CanvasConfig tunes the interactive board view.
type CanvasConfig struct {
	DrawIntervalMs int     `yaml:"draw_interval_ms"`
	Scale          float64 `yaml:"scale"` // device pixels per board unit (dip)
	HandleSizeDip  int     `yaml:"handle_size_dip"`
	TouchSlopDip   int     `yaml:"touch_slop_dip"`
	GridSize       int     `yaml:"grid_size"`
	GridInterval   int     `yaml:"grid_interval"`
}

type CatalogConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "postgres"
	DSN    string `yaml:"dsn"`
	// The postgres password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Catalog       CatalogConfig `yaml:"catalog"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{DataDir: ""},
		Canvas: CanvasConfig{
			DrawIntervalMs: 5,
			Scale:          1,
			HandleSizeDip:  12,
			TouchSlopDip:   8,
			GridSize:       10,
			GridInterval:   5,
		},
		Catalog: CatalogConfig{Driver: "sqlite", DSN: ""},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvDataDir      = "BD_DATA_DIR"
	EnvDrawInterval = "BD_DRAW_INTERVAL_MS"
	EnvScale        = "BD_SCALE"
	EnvTouchSlop    = "BD_TOUCH_SLOP_DIP"
	EnvCatalogDrv   = "BD_CATALOG_DRIVER"
	EnvCatalogDSN   = "BD_CATALOG_DSN"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "BD_LOG_LEVEL"
	EnvLogFormat = "BD_LOG_FORMAT"
	EnvLogSource = "BD_LOG_SOURCE"
	EnvLogFile   = "BD_LOG_FILE"
)

// ConfigDir returns the per-user configuration directory of the application.
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "BoardDesigner")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "BoardDesigner")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "boarddesigner")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "boarddesigner")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// The catalog password is loaded from the keyring and returned separately.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	if cfg.General.DataDir == "" {
		if dir, err := ConfigDir(); err == nil {
			cfg.General.DataDir = filepath.Join(dir, "boards")
		}
	}
	var secret string
	if cfg.Catalog.Driver == "postgres" {
		secret, _ = secretStore.Get(keyringService, keyringCatalog)
	}
	return cfg, secret, nil
}

// Save writes the user config YAML and persists the catalog password into the OS keyring (if non-empty).
func Save(cfg AppConfig, secret string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if secret != "" {
		if err := secretStore.Set(keyringService, keyringCatalog, secret); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if strings.TrimSpace(src.General.DataDir) != "" {
		dst.General.DataDir = strings.TrimSpace(src.General.DataDir)
	}
	// canvas: zero means "not set in file"
	if src.Canvas.DrawIntervalMs > 0 {
		dst.Canvas.DrawIntervalMs = src.Canvas.DrawIntervalMs
	}
	if src.Canvas.Scale > 0 {
		dst.Canvas.Scale = src.Canvas.Scale
	}
	if src.Canvas.HandleSizeDip > 0 {
		dst.Canvas.HandleSizeDip = src.Canvas.HandleSizeDip
	}
	if src.Canvas.TouchSlopDip > 0 {
		dst.Canvas.TouchSlopDip = src.Canvas.TouchSlopDip
	}
	if src.Canvas.GridSize > 0 {
		dst.Canvas.GridSize = src.Canvas.GridSize
	}
	if src.Canvas.GridInterval > 0 {
		dst.Canvas.GridInterval = src.Canvas.GridInterval
	}
	if d := strings.ToLower(strings.TrimSpace(src.Catalog.Driver)); d != "" {
		dst.Catalog.Driver = d
	}
	if strings.TrimSpace(src.Catalog.DSN) != "" {
		dst.Catalog.DSN = strings.TrimSpace(src.Catalog.DSN)
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.General.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDrawInterval)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Canvas.DrawIntervalMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvScale)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Canvas.Scale = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTouchSlop)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Canvas.TouchSlopDip = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogDrv)); v != "" {
		cfg.Catalog.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogDSN)); v != "" {
		cfg.Catalog.DSN = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"general.data_dir":        EnvDataDir,
		"canvas.draw_interval_ms": EnvDrawInterval,
		"canvas.scale":            EnvScale,
		"canvas.touch_slop_dip":   EnvTouchSlop,
		"catalog.driver":          EnvCatalogDrv,
		"catalog.dsn":             EnvCatalogDSN,
		"logging.level":           EnvLogLevel,
		"logging.format":          EnvLogFormat,
		"logging.source":          EnvLogSource,
		"logging.file":            EnvLogFile,
	}
	env, ok := names[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// DrawInterval returns the draw loop cadence, falling back to the default for non-positive values.
func (c CanvasConfig) DrawInterval() time.Duration {
	if c.DrawIntervalMs <= 0 {
		return time.Duration(Defaults().Canvas.DrawIntervalMs) * time.Millisecond
	}
	return time.Duration(c.DrawIntervalMs) * time.Millisecond
}
