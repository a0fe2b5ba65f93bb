// Package config loads the CLI's .promptline.yaml configuration with
// explicit priority order: CLI flags > environment > config file >
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AppConfig is the promptline CLI configuration.
type AppConfig struct {
	ActiveTheme   string `yaml:"active_theme"`
	ColorMode     string `yaml:"color_mode"` // auto, always, never
	GitTimeoutMS  int    `yaml:"git_timeout_ms"`
	NewlinePrompt bool   `yaml:"newline_before_prompt"`
	Debug         bool   `yaml:"debug"`
}

// Defaults.
const (
	DefaultActiveTheme  = "default"
	DefaultColorMode    = "auto"
	DefaultGitTimeoutMS = 3000
)

// Load reads the configuration, merging the file (when present) over
// defaults and the environment over the file.
func Load() *AppConfig {
	cfg := &AppConfig{
		ActiveTheme:  DefaultActiveTheme,
		ColorMode:    DefaultColorMode,
		GitTimeoutMS: DefaultGitTimeoutMS,
	}

	debug := os.Getenv("PROMPTLINE_DEBUG") != ""

	path := configPath()
	if path == "" {
		if debug {
			fmt.Fprintln(os.Stderr, "[promptline] no config file found, using defaults")
		}
	} else if data, err := os.ReadFile(path); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: reading config %s: %v. Using defaults.\n", path, err)
		}
	} else {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: parsing config %s: %v. Using defaults.\n", path, err)
		} else {
			merge(cfg, &fileCfg)
			if debug {
				fmt.Fprintf(os.Stderr, "[promptline] loaded config from %s\n", path)
			}
		}
	}

	// Environment overrides.
	if theme := os.Getenv("PROMPTLINE_THEME"); theme != "" {
		cfg.ActiveTheme = theme
	}
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		cfg.ColorMode = "never"
	}
	if os.Getenv("PROMPTLINE_DEBUG") != "" {
		cfg.Debug = true
	}

	return cfg
}

func merge(dst, src *AppConfig) {
	if src.ActiveTheme != "" {
		dst.ActiveTheme = src.ActiveTheme
	}
	if src.ColorMode != "" {
		dst.ColorMode = src.ColorMode
	}
	if src.GitTimeoutMS > 0 {
		dst.GitTimeoutMS = src.GitTimeoutMS
	}
	dst.NewlinePrompt = src.NewlinePrompt
	dst.Debug = src.Debug
}

// configPath finds .promptline.yaml: local directory first, then the
// user config directory.
func configPath() string {
	local := ".promptline.yaml"
	if _, err := os.Stat(local); err == nil {
		return local
	}

	configHome, err := os.UserConfigDir()
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	xdgPath := filepath.Join(configHome, "promptline", ".promptline.yaml")
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}
	return ""
}
