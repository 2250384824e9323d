// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the settings of the bounce demo from a YAML file.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/GermanBionicSystems/tft/st7789v"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
)

type SPI struct {
	Port    string `yaml:"port"`     // e.g. SPI0.0 or /dev/spidev0.0
	SpeedHz int64  `yaml:"speed_hz"` // e.g. 16000000
}

type Pins struct {
	Reset     string `yaml:"reset"`
	DC        string `yaml:"dc"`
	Backlight string `yaml:"backlight"`
}

type Panel struct {
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	Rotation int `yaml:"rotation"` // 0, 90, 180 or 270
}

type Ball struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Radius  float64 `yaml:"radius"`
	SpeedX  float64 `yaml:"speed_x"` // pixels per second
	SpeedY  float64 `yaml:"speed_y"`
	Fill    string  `yaml:"fill"` // #rrggbb
	Outline string  `yaml:"outline"`
}

type Overlay struct {
	Enabled  bool          `yaml:"enabled"`
	Font     string        `yaml:"font"` // TrueType file; the built-in font is used when empty
	Size     float64       `yaml:"size"`
	Color    string        `yaml:"color"`
	Interval time.Duration `yaml:"interval"`
	Padding  int           `yaml:"padding"`
}

type Config struct {
	SPI     SPI     `yaml:"spi"`
	Pins    Pins    `yaml:"pins"`
	Panel   Panel   `yaml:"panel"`
	FPS     float64 `yaml:"fps"`
	Ball    Ball    `yaml:"ball"`
	Overlay Overlay `yaml:"overlay"`
	// Sim runs on a simulated panel printed on the terminal.
	Sim bool `yaml:"sim"`
}

// Default returns the settings of the reference wiring.
func Default() *Config {
	return &Config{
		SPI:   SPI{Port: "SPI0.0", SpeedHz: 16000000},
		Pins:  Pins{Reset: "GPIO19", DC: "GPIO18", Backlight: "GPIO20"},
		Panel: Panel{Width: 240, Height: 320, Rotation: 90},
		FPS:   30,
		Ball: Ball{
			X:       50,
			Y:       50,
			Radius:  20,
			SpeedX:  300,
			SpeedY:  200,
			Fill:    "#ffff00",
			Outline: "#ffffff",
		},
		Overlay: Overlay{
			Enabled:  true,
			Size:     50,
			Color:    "#ffffff",
			Interval: 200 * time.Millisecond,
			Padding:  5,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate checks that the settings can be used.
func (c *Config) Validate() error {
	var errs []error
	if c.SPI.SpeedHz <= 0 {
		errs = append(errs, fmt.Errorf("spi.speed_hz must be positive, got %d", c.SPI.SpeedHz))
	}
	if c.Panel.Width <= 0 || c.Panel.Height <= 0 {
		errs = append(errs, fmt.Errorf("panel size must be positive, got %dx%d", c.Panel.Width, c.Panel.Height))
	}
	switch c.Panel.Rotation {
	case 0, 90, 180, 270:
	default:
		errs = append(errs, fmt.Errorf("panel.rotation must be 0, 90, 180 or 270, got %d", c.Panel.Rotation))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %g", c.FPS))
	}
	if c.Ball.Radius <= 0 {
		errs = append(errs, fmt.Errorf("ball.radius must be positive, got %g", c.Ball.Radius))
	}
	for _, s := range []struct{ key, v string }{
		{"ball.fill", c.Ball.Fill},
		{"ball.outline", c.Ball.Outline},
		{"overlay.color", c.Overlay.Color},
	} {
		if _, err := ParseColor(s.v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.key, err))
		}
	}
	if c.Overlay.Enabled && c.Overlay.Interval <= 0 {
		errs = append(errs, fmt.Errorf("overlay.interval must be positive, got %s", c.Overlay.Interval))
	}
	return errors.Join(errs...)
}

// PanelOpts returns the driver options.
func (c *Config) PanelOpts() *st7789v.Opts {
	return &st7789v.Opts{
		W:        c.Panel.Width,
		H:        c.Panel.Height,
		Rotation: st7789v.Rotation(c.Panel.Rotation),
		Freq:     physic.Frequency(c.SPI.SpeedHz) * physic.Hertz,
	}
}

// PanelPins returns the GPIO names for st7789v.Open.
func (c *Config) PanelPins() st7789v.Pins {
	return st7789v.Pins{Reset: c.Pins.Reset, DC: c.Pins.DC, Backlight: c.Pins.Backlight}
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, nil
}
