package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/lixenwraith/radarterm/audio"
	"github.com/lixenwraith/radarterm/clock"
	"github.com/lixenwraith/radarterm/config"
	"github.com/lixenwraith/radarterm/network"
	"github.com/lixenwraith/radarterm/status"
	"github.com/lixenwraith/radarterm/terminal"
)

func main() {
	// Panic Recovery: Ensure terminal is reset even if the client crashes
	defer func() {
		if r := recover(); r != nil {
			terminal.EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\n\x1b[31mRADARTERM CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "radarterm: %v\n", err)
		os.Exit(2)
	}

	if logFile := setupLogging(cfg.Client.Debug); logFile != nil {
		defer logFile.Close()
	}

	term, err := terminal.New()
	if err == nil {
		err = term.Init()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}
	defer term.Fini()

	metrics := status.NewRegistry()

	sound := audio.NewSoundManager(cfg.AudioConfig())
	if err := sound.Initialize(); err != nil && !errors.Is(err, audio.ErrDisabled) {
		log.Printf("[main] audio unavailable: %v (continuing without audio)", err)
	}
	defer sound.Cleanup()

	a := newApp(term, clock.NewReal(), metrics, sound, appConfig{
		settings: cfg.RenderSettings(),
		options:  cfg.SessionOptions(),
		mapDir:   cfg.Maps.ImageDir,
		showGrid: cfg.Radar.ShowGrid,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := network.NewClient(cfg.NetworkConfig(), metrics)
	go func() {
		if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[main] network stopped: %v", err)
		}
	}()

	eventChan := make(chan terminal.Event, 256)
	// Input polling uses raw goroutine as it interacts directly with terminal
	go func() {
		defer func() {
			if r := recover(); r != nil {
				terminal.EmergencyReset(os.Stdout)
				fmt.Fprintf(os.Stderr, "\r\n\x1b[31mEVENT POLLER CRASHED: %v\x1b[0m\r\n", r)
				fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
				os.Exit(1)
			}
		}()

		for {
			ev := term.PollEvent()
			if ev.Type == terminal.EventClosed || ev.Type == terminal.EventError {
				close(eventChan)
				return
			}
			eventChan <- ev
		}
	}()

	log.Printf("[main] connecting to %s at %d fps", cfg.Network.Address, cfg.Client.FPS)
	run(a, client.Frames(), eventChan, cfg.FrameInterval())

	cancel()
	select {
	case <-client.Done():
	case <-time.After(time.Second):
		log.Printf("[main] network shutdown timed out")
	}
	metrics.Dump(log.Writer())
}

// run is the single-threaded event loop: frames, input and the render ticker interleave between whole passes
func run(a *app, frames <-chan network.Frame, events <-chan terminal.Event, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.tick()
	for {
		select {
		case f := <-frames:
			a.handleFrame(f)

		case ev, ok := <-events:
			if !ok || !a.handleEvent(ev) {
				return
			}

		case <-ticker.C:
			a.tick()
		}
	}
}
