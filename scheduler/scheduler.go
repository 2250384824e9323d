// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package scheduler runs the frame loop of an animation: it advances the
// moving content by the real elapsed time, redraws what changed and sleeps
// to cap the frame rate.
//
// Motion is based on the measured delta time, so the speed of the content
// does not depend on the frame rate actually achieved. There is no upper
// bound on the delta time: after a stall the content jumps in one step.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/GermanBionicSystems/tft/render"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// DefaultFPS is the frame rate cap used when Opts.FPS is not set.
const DefaultFPS = 30

// ErrStopped is returned by Run once the scheduler has stopped.
var ErrStopped = errors.New("scheduler: stopped")

// State is the life cycle of a Scheduler.
type State int32

// Scheduler states. Stopped is terminal.
const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Mover is content that moves by itself over time.
type Mover interface {
	render.Entity
	// Update advances the content by dt. bounds is the panel area.
	Update(dt time.Duration, bounds image.Rectangle)
}

// Overlay is content redrawn at a fixed place when it changes.
type Overlay interface {
	render.Painter
	Bounds() image.Rectangle
	// Tick is called once per frame and returns true when the content
	// changed.
	Tick(now time.Time) bool
}

// Opts represents the options of the Scheduler.
type Opts struct {
	// FPS is the frame rate cap. Defaults to DefaultFPS.
	FPS float64
	// Clock defaults to the real clock.
	Clock clockwork.Clock
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

// Scheduler drives a render.Renderer at a capped frame rate.
//
// It is not safe for concurrent use, except State and Frames.
type Scheduler struct {
	r        *render.Renderer
	clock    clockwork.Clock
	log      zerolog.Logger
	interval time.Duration

	movers   []Mover
	sprites  []*render.Sprite
	overlays []Overlay

	state  atomic.Int32
	frames atomic.Int64
	last   time.Time
}

// New returns a Scheduler drawing with r.
func New(r *render.Renderer, opts *Opts) *Scheduler {
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	log := zerolog.Nop()
	if o.Logger != nil {
		log = *o.Logger
	}
	return &Scheduler{
		r:        r,
		clock:    o.Clock,
		log:      log,
		interval: time.Duration(float64(time.Second) / o.FPS),
	}
}

func (s *Scheduler) String() string {
	return fmt.Sprintf("Scheduler{%s, %s, %d frames}", s.interval, s.State(), s.Frames())
}

// AddSprite adds content moved and redrawn on every frame.
func (s *Scheduler) AddSprite(m Mover) {
	s.movers = append(s.movers, m)
	s.sprites = append(s.sprites, s.r.Sprite(m))
}

// AddOverlay adds content drawn over the sprites when it changes.
func (s *Scheduler) AddOverlay(o Overlay) {
	s.overlays = append(s.overlays, o)
}

// Interval returns the minimum duration of a frame.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// State returns the current state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Frames returns the number of frames drawn.
func (s *Scheduler) Frames() int64 {
	return s.frames.Load()
}

// Step draws one frame started at now.
//
// The first frame has a zero delta time.
func (s *Scheduler) Step(now time.Time) error {
	var dt time.Duration
	if !s.last.IsZero() {
		dt = now.Sub(s.last)
	}
	s.last = now
	bounds := s.r.Bounds()
	for i, m := range s.movers {
		m.Update(dt, bounds)
		if err := s.r.DrawSprite(s.sprites[i]); err != nil {
			return err
		}
	}
	for _, o := range s.overlays {
		if !o.Tick(now) {
			continue
		}
		if err := s.r.DrawRegion(o.Bounds(), o); err != nil {
			return err
		}
	}
	n := s.frames.Add(1)
	if e := s.log.Debug(); e.Enabled() {
		st := s.r.Stats()
		e.Int64("frame", n).Dur("dt", dt).Str("region", st.Last.String()).Int("bytes", st.Bytes).Msg("frame")
	}
	return nil
}

// Run draws frames until ctx is canceled or drawing fails.
//
// Cancellation is checked between frames and while sleeping, never in the
// middle of a transfer. It returns ctx.Err() on cancellation. The scheduler
// is Stopped afterward and cannot be run again.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return ErrStopped
	}
	defer s.state.Store(int32(Stopped))
	s.log.Info().Dur("interval", s.interval).Int("sprites", len(s.movers)).Int("overlays", len(s.overlays)).Msg("scheduler started")
	if s.last.IsZero() {
		s.last = s.clock.Now()
	}
	for {
		if err := ctx.Err(); err != nil {
			s.log.Info().Int64("frames", s.Frames()).Msg("scheduler stopped")
			return err
		}
		start := s.clock.Now()
		if err := s.Step(start); err != nil {
			s.log.Error().Err(err).Int64("frame", s.Frames()+1).Msg("frame failed")
			return err
		}
		if d := Pause(s.interval, s.clock.Since(start)); d > 0 {
			select {
			case <-ctx.Done():
			case <-s.clock.After(d):
			}
		}
	}
}

// Pause returns how long to sleep after a frame that took elapsed to keep
// frames interval apart. It is never negative.
func Pause(interval, elapsed time.Duration) time.Duration {
	return max(interval-elapsed, 0)
}
