// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// bounce animates a ball and a frame rate counter on a ST7789V panel.
//
// Only the area around the ball is sent on each frame. Use -sim to run it on
// a panel simulated on the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/tft/config"
	"github.com/GermanBionicSystems/tft/overlay"
	"github.com/GermanBionicSystems/tft/render"
	"github.com/GermanBionicSystems/tft/scheduler"
	"github.com/GermanBionicSystems/tft/sprite"
	"github.com/GermanBionicSystems/tft/st7789v"
	"github.com/GermanBionicSystems/tft/tftsim"
	"github.com/fogleman/gg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"
)

func mainImpl() error {
	configPath := flag.String("config", "bounce.yaml", "path to the YAML configuration")
	writeConfig := flag.Bool("write-config", false, "write the default configuration to -config and exit")
	sim := flag.Bool("sim", false, "use a panel simulated on the terminal")
	fps := flag.Float64("fps", 0, "frame rate cap, overrides the configuration")
	verbose := flag.Bool("v", false, "log every frame")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *writeConfig {
		return config.Save(*configPath, config.Default())
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		log.Warn().Str("path", *configPath).Msg("config not found; using defaults")
		cfg = config.Default()
	}
	if *fps > 0 {
		cfg.FPS = *fps
	}
	if *sim {
		cfg.Sim = true
	}

	dev, err := openPanel(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			log.Error().Err(err).Msg("close")
		}
	}()
	log.Info().Stringer("panel", dev).Msg("panel ready")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := render.New(dev, gradient(dev.Bounds().Size()))
	if err := r.DrawBackground(); err != nil {
		return err
	}
	s := scheduler.New(r, &scheduler.Opts{FPS: cfg.FPS, Logger: &log.Logger})
	ball, err := newBall(cfg)
	if err != nil {
		return err
	}
	s.AddSprite(ball)
	if cfg.Overlay.Enabled {
		o, err := newOverlay(cfg)
		if err != nil {
			return err
		}
		s.AddOverlay(o)
	}

	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Int64("frames", s.Frames()).Msg("interrupted")
	return nil
}

func openPanel(cfg *config.Config) (*st7789v.Dev, error) {
	if cfg.Sim {
		p := tftsim.New(&tftsim.Opts{W: cfg.Panel.Width, H: cfg.Panel.Height, Preview: true})
		return st7789v.New(p, p.RST, p.DC, p.BL, cfg.PanelOpts())
	}
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	return st7789v.Open(cfg.SPI.Port, cfg.PanelPins(), cfg.PanelOpts())
}

// gradient returns the background: each row has the color
// (y, 2y, 3y) modulo 256.
func gradient(size image.Point) image.Image {
	dc := gg.NewContext(size.X, size.Y)
	for y := 0; y < size.Y; y++ {
		dc.SetRGB255(y%256, 2*y%256, 3*y%256)
		dc.DrawRectangle(0, float64(y), float64(size.X), 1)
		dc.Fill()
	}
	return dc.Image()
}

func newBall(cfg *config.Config) (*sprite.Ball, error) {
	fill, err := config.ParseColor(cfg.Ball.Fill)
	if err != nil {
		return nil, err
	}
	outline, err := config.ParseColor(cfg.Ball.Outline)
	if err != nil {
		return nil, err
	}
	return &sprite.Ball{
		X:       cfg.Ball.X,
		Y:       cfg.Ball.Y,
		R:       cfg.Ball.Radius,
		VX:      cfg.Ball.SpeedX,
		VY:      cfg.Ball.SpeedY,
		Fill:    fill,
		Outline: outline,
	}, nil
}

func newOverlay(cfg *config.Config) (*overlay.FPS, error) {
	c, err := config.ParseColor(cfg.Overlay.Color)
	if err != nil {
		return nil, err
	}
	opts := overlay.DefaultOpts
	opts.Color = c
	opts.Padding = cfg.Overlay.Padding
	opts.Interval = cfg.Overlay.Interval
	if cfg.Overlay.Font != "" {
		face, err := overlay.LoadFace(cfg.Overlay.Font, cfg.Overlay.Size)
		if err != nil {
			log.Warn().Err(err).Msg("using the built-in font")
		}
		opts.Face = face
	}
	return overlay.NewFPS(&opts, time.Now()), nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "bounce: %s.\n", err)
		os.Exit(1)
	}
}
