package main

import (
	"context"
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-boids-engine/internal/host"
	"github.com/lao-tseu-is-alive/go-boids-engine/internal/viewer"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/simulation"
	golog "github.com/tochemey/goakt/v3/log"
)

const (
	screenWidth  = 1024
	screenHeight = 768
)

func main() {
	configPath := flag.String("config", "", "JSON or TOML configuration file (built-in defaults when empty)")
	flag.Parse()

	ctx := context.Background()
	logger := golog.DefaultLogger

	cfg := simulation.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if cfg.Dimension != 2 {
		log.Fatalf("the viewer only shows 2D simulations, got dimension %d", cfg.Dimension)
	}
	if cfg.Bounds == nil {
		// Screen Edges (Soft turn)
		cfg.Bounds = &simulation.BoundsConfig{
			Min:    []float64{0, 0},
			Max:    []float64{screenWidth, screenHeight},
			Margin: 100,
			Turn:   0.2,
		}
	}

	avg := simulation.NewAverage(0)
	world, err := simulation.BuildWorld[geometry.Vector2D](cfg, logger, avg)
	if err != nil {
		log.Fatal(err)
	}
	h, err := host.Start(ctx, world, host.Options{Every: cfg.ProcessEvery, Timestep: cfg.Timestep, Logger: logger})
	if err != nil {
		log.Fatal(err)
	}
	defer h.Stop(ctx)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Boids")
	if err := ebiten.RunGame(viewer.New(ctx, world, h, avg, logger, screenWidth, screenHeight)); err != nil {
		log.Fatal(err)
	}
}
