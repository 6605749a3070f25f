// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// epddemo runs the Good Display demo sequence on a GDEH0154D67 or GDEW029T5
// module, then keeps the panel updated as a clock.
//
// With -sim no hardware is touched: the controller is simulated and every
// frame is printed to the terminal. -http serves the frames as a live image
// stream in both modes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/epaper/epdview"
	"github.com/GermanBionicSystems/epaper/internal/config"
	"github.com/GermanBionicSystems/epaper/internal/render"
	"github.com/GermanBionicSystems/epaper/internal/rpiopin"
	"github.com/GermanBionicSystems/epaper/screen2d"
)

type flagConfig struct {
	configPath string
	panel      string
	image      string
	http       string
	sim        bool
	once       bool
	verbose    bool
}

func parseFlags() flagConfig {
	var f flagConfig

	flag.StringVar(&f.configPath, "config", "epddemo.yaml", "Path to the YAML or TOML config file")
	flag.StringVar(&f.panel, "panel", "", "Panel model, gdeh0154d67 or gdew029t5 (overrides config)")
	flag.StringVar(&f.http, "http", "", "Serve a live preview of the panel on this address, e.g. :8080 (overrides config)")
	flag.StringVar(&f.image, "image", "", "Image shown after the title screen (overrides config)")
	flag.BoolVar(&f.sim, "sim", false, "Simulate the panel and print frames to the terminal")
	flag.BoolVar(&f.once, "once", false, "Run the demo sequence and exit")
	flag.BoolVar(&f.verbose, "v", false, "Verbose logging")

	flag.Parse()

	return f
}

func main() {
	f := parseFlags()

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := mainImpl(f, logger); err != nil {
		logger.Error("epddemo failed", "err", err)
		os.Exit(1)
	}
}

func mainImpl(f flagConfig, logger *slog.Logger) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if f.panel != "" {
		cfg.Panel = f.panel
	}
	if f.image != "" {
		cfg.Image = f.image
	}
	if f.http != "" {
		cfg.HTTP = f.http
	}
	if cfg.Panel != config.PanelGDEH0154D67 && cfg.Panel != config.PanelGDEW029T5 {
		return fmt.Errorf("unknown panel %q", cfg.Panel)
	}

	logger.Info("effective config",
		"config_path", f.configPath,
		"panel", cfg.Panel,
		"speed_hz", cfg.SpeedHz,
		"gpio", cfg.GPIO,
		"busy_timeout", cfg.BusyTimeout,
		"clock_cron", cfg.ClockCron,
		"full_refresh_every", cfg.FullRefreshEvery,
		"sim", f.sim,
		"once", f.once,
	)

	width, height := panelSize(cfg.Panel)
	var pv previews

	var w *wiring
	if f.sim {
		out := screen2d.New(&screen2d.Opts{Width: width, Height: height, Step: 2})
		defer out.Halt()
		pv = append(pv, out)
		w = simulated(cfg.Panel, width, height)
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		port, err := spireg.Open(cfg.SPI)
		if err != nil {
			return err
		}
		defer port.Close()

		w = &wiring{port: port}
		if cfg.GPIO == config.GPIORPIO {
			if err := rpiopin.Open(); err != nil {
				return fmt.Errorf("rpio: %w", err)
			}
			defer rpiopin.Close()
			err = rpioPins(w, cfg.Pins)
		} else {
			err = pinsByName(w, cfg.Pins)
		}
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTP != "" {
		view := epdview.New(&epdview.Options{Width: width, Height: height, Scale: 2, Logger: logger})
		pv = append(pv, view)

		srv := &http.Server{Addr: cfg.HTTP, Handler: view}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("preview server failed", "addr", cfg.HTTP, "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			view.Halt()
			srv.Shutdown(shutdownCtx)
		}()
		logger.Info("serving preview", "addr", cfg.HTTP)
	}
	if len(pv) > 0 {
		w.preview = pv
	}

	p, err := openPanel(cfg, w)
	if err != nil {
		return err
	}
	logger.Info("panel ready", "dev", p.String())

	frames, err := demoFrames(cfg, p.Bounds())
	if err != nil {
		return err
	}

	start := time.Now()
	if err := p.demo(frames); err != nil {
		return fmt.Errorf("demo: %w", err)
	}
	logger.Info("demo done", "frames", len(frames), "elapsed", time.Since(start).Round(time.Millisecond))

	if f.once {
		return nil
	}

	return runClock(ctx, cfg, p, logger)
}

// demoFrames renders the title screen and the optional image.
func demoFrames(cfg *config.Config, b image.Rectangle) ([][]byte, error) {
	w, h := b.Dx(), b.Dy()

	title, err := render.Title(w, h, cfg.Title, cfg.Panel)
	if err != nil {
		return nil, err
	}
	frames := [][]byte{render.Frame(title, w, h)}

	if cfg.Image != "" {
		img, err := render.LoadImage(cfg.Image, w, h, render.Dither(cfg.Dither))
		if err != nil {
			return nil, err
		}
		frames = append(frames, render.Frame(img, w, h))
	}

	return frames, nil
}

// runClock redraws the time on every cron tick until ctx is canceled, then
// puts the panel to sleep.
func runClock(ctx context.Context, cfg *config.Config, p panel, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ticks := make(chan time.Time, 1)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))),
	)
	if _, err := c.AddFunc(cfg.ClockCron, func() {
		select {
		case ticks <- time.Now().In(loc):
		default:
			logger.Warn("clock update skipped, panel busy")
		}
	}); err != nil {
		return fmt.Errorf("clock_cron %q: %w", cfg.ClockCron, err)
	}
	c.Start()
	defer c.Stop()

	b := p.Bounds()
	clk := clock{fullEvery: cfg.FullRefreshEvery}

	update := func(now time.Time, partial bool) error {
		img, err := render.Clock(b.Dx(), b.Dy(), now)
		if err != nil {
			return err
		}
		start := time.Now()
		if err := p.show(render.Frame(img, b.Dx(), b.Dy()), partial); err != nil {
			return err
		}
		logger.Debug("clock updated", "time", now.Format("15:04"), "partial", partial, "elapsed", time.Since(start).Round(time.Millisecond))
		return nil
	}

	if err := update(time.Now().In(loc), false); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("signal received, shutting down")
			return p.sleep()
		case now := <-ticks:
			if err := update(now, clk.next()); err != nil {
				return err
			}
		}
	}
}
