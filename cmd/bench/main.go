// Command bench runs a configuration headless for a fixed number of ticks,
// logs tick timings and optionally records every snapshot.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"sort"
	"time"

	metrics "github.com/hashicorp/go-metrics"
	"github.com/lao-tseu-is-alive/go-boids-engine/internal/record"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/simulation"
	golog "github.com/tochemey/goakt/v3/log"
)

type options struct {
	ticks   int
	workers int
	record  string
}

func main() {
	configPath := flag.String("config", "", "JSON or TOML configuration file (built-in defaults when empty)")
	ticks := flag.Int("ticks", 600, "number of world ticks to run")
	workers := flag.Int("workers", -1, "worker pool size, overrides the configuration when >= 0")
	recordPath := flag.String("record", "", "write every snapshot to this file")
	flag.Parse()

	cfg := simulation.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	cfg.Stats = true

	opts := options{ticks: *ticks, record: *recordPath}
	var err error
	switch cfg.Dimension {
	case 3:
		err = run[geometry.Vector3D](cfg, opts)
	default:
		err = run[geometry.Vector2D](cfg, opts)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run[V geometry.Vector[V]](cfg *simulation.Config, opts options) error {
	ctx := context.Background()
	logger := golog.DefaultLogger

	inm := metrics.NewInmemSink(time.Hour, time.Hour)
	world, err := simulation.BuildWorld[V](cfg, logger, simulation.NewMetricsSink(inm))
	if err != nil {
		return err
	}

	var rec *record.Writer[V]
	if opts.record != "" {
		f, err := os.Create(opts.record)
		if err != nil {
			return err
		}
		defer f.Close()
		bw := bufio.NewWriter(f)
		defer bw.Flush()
		rec = record.NewWriter[V](bw)
	}
	write := func() error {
		if rec == nil {
			return nil
		}
		for _, f := range world.Flocks() {
			if err := rec.Write(f.Snapshot()); err != nil {
				return err
			}
		}
		return nil
	}

	logger.Infof("running %d ticks of %d flocks on %d workers", opts.ticks, len(world.Flocks()), world.Scheduler().Workers())
	if err := write(); err != nil {
		return err
	}
	start := time.Now()
	for i := 0; i < opts.ticks; i++ {
		if err := world.Tick(ctx, cfg.Timestep); err != nil {
			return err
		}
		if err := write(); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	logger.Infof("done in %v (%.3fms per world tick)", elapsed, float64(elapsed.Microseconds())/1000/float64(max(opts.ticks, 1)))
	for _, iv := range inm.Data() {
		keys := make([]string, 0, len(iv.Samples))
		for k := range iv.Samples {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s := iv.Samples[k]
			logger.Infof("%s: count=%d mean=%.3fms max=%.3fms", k, s.Count, s.AggregateSample.Mean(), s.Max)
		}
	}
	if rec != nil {
		logger.Infof("recorded %d snapshots to %s", rec.Count(), opts.record)
	}
	return nil
}
