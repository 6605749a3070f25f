// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the epddemo configuration from YAML or TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Panel names accepted in Config.Panel.
const (
	PanelGDEH0154D67 = "gdeh0154d67"
	PanelGDEW029T5   = "gdew029t5"
)

// GPIO drivers accepted in Config.GPIO.
const (
	GPIOPeriph = "periph"
	GPIORPIO   = "rpio"
)

// PinsConfig names the GPIO lines of the panel module. Empty names select
// the Waveshare HAT wiring.
type PinsConfig struct {
	DC   string `yaml:"dc,omitempty" toml:"dc,omitempty"`
	CS   string `yaml:"cs,omitempty" toml:"cs,omitempty"`
	RST  string `yaml:"rst,omitempty" toml:"rst,omitempty"`
	Busy string `yaml:"busy,omitempty" toml:"busy,omitempty"`
}

// Config is the top-level demo configuration.
type Config struct {
	// Panel selects the driver, see the Panel constants.
	Panel string `yaml:"panel" toml:"panel"`

	// SPI is the SPI port name passed to spireg.Open; empty selects the
	// first port.
	SPI string `yaml:"spi" toml:"spi"`

	// SpeedHz is the SPI clock.
	SpeedHz int64 `yaml:"speed_hz" toml:"speed_hz"`

	// GPIO selects the GPIO driver: "periph" or "rpio" (go-rpio over
	// /dev/gpiomem).
	GPIO string `yaml:"gpio" toml:"gpio"`

	Pins PinsConfig `yaml:"pins" toml:"pins"`

	// BusyTimeout bounds every wait for the busy line, e.g. "30s". Empty
	// waits forever.
	BusyTimeout string `yaml:"busy_timeout" toml:"busy_timeout"`

	// Title is rendered on the first screen.
	Title string `yaml:"title" toml:"title"`

	// Image, when set, is shown after the title screen.
	Image string `yaml:"image" toml:"image"`

	// Dither selects the image ditherer: "floyd-steinberg" or "threshold".
	Dither string `yaml:"dither" toml:"dither"`

	// ClockCron schedules partial clock refreshes.
	ClockCron string `yaml:"clock_cron" toml:"clock_cron"`

	// FullRefreshEvery forces a full refresh after that many partial ones.
	FullRefreshEvery int `yaml:"full_refresh_every" toml:"full_refresh_every"`

	// HTTP is the listen address of the live preview, e.g. ":8080". Empty
	// disables it.
	HTTP string `yaml:"http,omitempty" toml:"http,omitempty"`

	// Timezone is the IANA zone used by the clock.
	Timezone string `yaml:"timezone" toml:"timezone"`
}

// Default returns an in-memory default configuration.
func Default() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing or invalid values with defaults.
func (c *Config) Normalize() {
	switch c.Panel {
	case PanelGDEH0154D67, PanelGDEW029T5:
	default:
		c.Panel = PanelGDEH0154D67
	}
	switch c.GPIO {
	case GPIOPeriph, GPIORPIO:
	default:
		c.GPIO = GPIOPeriph
	}
	if c.SpeedHz <= 0 {
		c.SpeedHz = 4_000_000
	}
	if c.Title == "" {
		c.Title = "periph e-paper"
	}
	switch c.Dither {
	case "floyd-steinberg", "threshold":
	default:
		c.Dither = "floyd-steinberg"
	}
	if c.ClockCron == "" {
		c.ClockCron = "* * * * *"
	}
	if c.FullRefreshEvery <= 0 {
		c.FullRefreshEvery = 10
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

// Timeout parses BusyTimeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.BusyTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.BusyTimeout)
	if err != nil {
		return 0, fmt.Errorf("config: busy_timeout: %w", err)
	}
	return d, nil
}

// Location loads Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone: %w", err)
	}
	return loc, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load loads the configuration at path. Files ending in .toml are TOML, all
// others YAML. A missing file is created with the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	cfg.Normalize()

	return &cfg, nil
}

func marshal(path string, cfg *Config) ([]byte, error) {
	if !isTOML(path) {
		return yaml.Marshal(cfg)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes cfg to path atomically through a temporary file with 0600
// permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := marshal(path, cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".epddemo-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
