package simulation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"github.com/santhosh-tekuri/jsonschema/v5"
	golog "github.com/tochemey/goakt/v3/log"
	"go.uber.org/multierr"
)

//go:embed boids.schema.json
var configSchema string

// Neighbor query strategies.
const (
	NeighborsAllPairs = "all-pairs"
	NeighborsGrid     = "grid"
)

// Config describes a whole simulation: scheduler, parameter sets and flocks.
type Config struct {
	Dimension    int     `json:"dimension" toml:"dimension"`
	Workers      int     `json:"workers" toml:"workers"`            // 0: GOMAXPROCS
	ChunkSize    int     `json:"chunkSize" toml:"chunk_size"`       // 0: DefaultChunkSize
	Timestep     float64 `json:"timestep" toml:"timestep"`          // seconds
	ProcessEvery int     `json:"processEvery" toml:"process_every"` // tick on every Nth host frame

	Neighbors string  `json:"neighbors" toml:"neighbors"`
	CellSize  float64 `json:"cellSize" toml:"cell_size"` // grid only, 0: widest radius

	Stats bool   `json:"stats" toml:"stats"`
	Seed  uint64 `json:"seed" toml:"seed"`

	// Bounds, when set, adds a soft turn rule keeping every flock in a box.
	Bounds *BoundsConfig `json:"bounds" toml:"bounds"`

	// Params are the named parameter sets flocks refer to.
	Params map[string]*behavior.Params `json:"params" toml:"params"`
	Flocks []FlockConfig               `json:"flocks" toml:"flocks"`
}

// FlockConfig describes one flock to spawn.
type FlockConfig struct {
	Name   string    `json:"name" toml:"name"`
	Count  int       `json:"count" toml:"count"`
	Params string    `json:"params" toml:"params"` // key in Config.Params, "default" when empty
	Center []float64 `json:"center" toml:"center"`
	Extent float64   `json:"extent" toml:"extent"` // half-size of the spawn box
	Speed  float64   `json:"speed" toml:"speed"`   // initial speed, random heading
	Target []float64 `json:"target" toml:"target"`

	Disabled bool `json:"disabled" toml:"disabled"`
}

// BoundsConfig describes the box of the soft turn rule.
type BoundsConfig struct {
	Min    []float64 `json:"min" toml:"min"`
	Max    []float64 `json:"max" toml:"max"`
	Margin float64   `json:"margin" toml:"margin"`
	Turn   float64   `json:"turn" toml:"turn"`
}

// DefaultParamsName is the parameter set used by flocks that name none.
const DefaultParamsName = "default"

// DefaultConfig returns a two-flock 2D setup.
func DefaultConfig() *Config {
	return &Config{
		Dimension:    2,
		Timestep:     1,
		ProcessEvery: 1,
		Neighbors:    NeighborsAllPairs,
		Seed:         1,
		Params:       map[string]*behavior.Params{DefaultParamsName: behavior.DefaultParams()},
		Flocks: []FlockConfig{
			{Name: "left", Count: 250, Center: []float64{300, 400}, Extent: 150, Speed: 2},
			{Name: "right", Count: 250, Center: []float64{700, 400}, Extent: 150, Speed: 2},
		},
	}
}

// LoadConfig reads a JSON or TOML configuration over DefaultConfig.
// JSON files are validated against the embedded JSON Schema first; both
// formats are then checked with Validate. Named parameter sets are merged
// with the defaults by name and must list every field.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := DefaultConfig()
	// A file listing flocks replaces the default ones entirely.
	defaults := cfg.Flocks
	cfg.Flocks = nil

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := cfg.decodeJSON(b); err != nil {
			return nil, err
		}
	case ".toml":
		if _, err := toml.Decode(string(b), cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, filepath.Ext(path))
	}
	if cfg.Flocks == nil {
		cfg.Flocks = defaults
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeJSON(b []byte) error {
	// 1. Compile Schema
	sch, err := jsonschema.CompileString("boids.schema.json", configSchema)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Validate
	var v interface{}
	if err := json.NewDecoder(bytes.NewReader(b)).Decode(&v); err != nil {
		return fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	// 3. Unmarshal into Struct
	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// Validate checks the semantic rules the schema cannot express and reports
// every violation at once.
func (c *Config) Validate() error {
	var err error
	fail := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Dimension != 2 && c.Dimension != 3 {
		fail("dimension = %d, want 2 or 3", c.Dimension)
	}
	if c.Workers < 0 {
		fail("workers = %d, want >= 0", c.Workers)
	}
	if c.ChunkSize < 0 {
		fail("chunk size = %d, want >= 0", c.ChunkSize)
	}
	if math.IsNaN(c.Timestep) || math.IsInf(c.Timestep, 0) || c.Timestep <= 0 {
		fail("timestep = %v, want > 0", c.Timestep)
	}
	if c.ProcessEvery < 0 {
		fail("process every = %d, want >= 0", c.ProcessEvery)
	}
	if c.Neighbors != NeighborsAllPairs && c.Neighbors != NeighborsGrid {
		fail("neighbors = %q, want %q or %q", c.Neighbors, NeighborsAllPairs, NeighborsGrid)
	}
	if c.CellSize < 0 {
		fail("cell size = %v, want >= 0", c.CellSize)
	}
	if b := c.Bounds; b != nil {
		if len(b.Min) != c.Dimension || len(b.Max) != c.Dimension {
			fail("bounds: min and max need %d components", c.Dimension)
		} else {
			for a := range b.Min {
				if b.Min[a] >= b.Max[a] {
					fail("bounds: min[%d] = %v is not below max[%d] = %v", a, b.Min[a], a, b.Max[a])
				}
			}
		}
		if b.Margin < 0 || b.Turn < 0 {
			fail("bounds: margin and turn must be >= 0")
		}
	}
	for name, p := range c.Params {
		if e := p.Validate(); e != nil {
			for _, fe := range multierr.Errors(e) {
				err = multierr.Append(err, fmt.Errorf("params %q: %w", name, fe))
			}
		}
	}
	for i, f := range c.Flocks {
		if f.Name == "" {
			fail("flocks[%d]: empty name", i)
		}
		if f.Count < 0 {
			fail("flock %q: count = %d, want >= 0", f.Name, f.Count)
		}
		if _, ok := c.Params[f.paramsName()]; !ok {
			fail("flock %q: unknown params %q", f.Name, f.paramsName())
		}
		if f.Center != nil && len(f.Center) != c.Dimension {
			fail("flock %q: center has %d components, want %d", f.Name, len(f.Center), c.Dimension)
		}
		if f.Target != nil && len(f.Target) != c.Dimension {
			fail("flock %q: target has %d components, want %d", f.Name, len(f.Target), c.Dimension)
		}
		if f.Extent < 0 || f.Speed < 0 {
			fail("flock %q: extent and speed must be >= 0", f.Name)
		}
	}
	return err
}

func (f FlockConfig) paramsName() string {
	if f.Params == "" {
		return DefaultParamsName
	}
	return f.Params
}

// NewSchedulerFromConfig builds the scheduler described by c with the given
// stats sink. c must be valid.
func NewSchedulerFromConfig[V geometry.Vector[V]](c *Config, stats StatsSink) *Scheduler[V] {
	var query NeighborQuery[V] = AllPairs[V]{}
	if c.Neighbors == NeighborsGrid {
		query = NewGrid[V](c.CellSize)
	}
	var rules []behavior.Rule[V]
	if b := c.Bounds; b != nil {
		rules = append(rules, behavior.Bounds[V]{
			Min:    geometry.FromAxes[V](b.Min...),
			Max:    geometry.FromAxes[V](b.Max...),
			Margin: b.Margin,
			Turn:   b.Turn,
		})
	}
	return NewScheduler(Options{Workers: c.Workers, ChunkSize: c.ChunkSize, Stats: stats}, query, rules...)
}

// BuildWorld validates c, then creates the scheduler and spawns every flock
// with reproducible positions derived from c.Seed. The dimension of V must
// match c.Dimension. Statistics are logged through logger when c.Stats is set,
// together with any extra sinks.
func BuildWorld[V geometry.Vector[V]](c *Config, logger golog.Logger, sinks ...StatsSink) (*World[V], error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var zero V
	if zero.Dim() != c.Dimension {
		return nil, fmt.Errorf("%w: %w: config has %d, vectors have %d", ErrInvalidConfig, ErrDimensionMismatch, c.Dimension, zero.Dim())
	}
	if logger == nil {
		logger = golog.DiscardLogger
	}
	if c.Stats {
		sinks = append(sinks, NewLogSink(logger, 0))
	}
	var stats StatsSink
	switch len(sinks) {
	case 0:
	case 1:
		stats = sinks[0]
	default:
		stats = MultiSink(sinks)
	}

	w := NewWorld(NewSchedulerFromConfig[V](c, stats), logger)
	for i, fc := range c.Flocks {
		f, err := spawnFlock[V](fc, c.Params[fc.paramsName()], rand.New(rand.NewPCG(c.Seed, uint64(i))))
		if err != nil {
			return nil, err
		}
		w.AddFlock(f)
	}
	return w, nil
}

func spawnFlock[V geometry.Vector[V]](fc FlockConfig, p *behavior.Params, rng *rand.Rand) (*Flock[V], error) {
	f := NewFlock[V](fc.Name)
	center := geometry.FromAxes[V](fc.Center...)
	for n := 0; n < fc.Count; n++ {
		var pos, heading V
		for a := 0; a < pos.Dim(); a++ {
			pos = pos.WithAxis(a, center.Axis(a)+(rng.Float64()*2-1)*fc.Extent)
			heading = heading.WithAxis(a, rng.NormFloat64())
		}
		if _, err := f.Add(pos, heading.Normalize().Mul(fc.Speed), p); err != nil {
			return nil, err
		}
	}
	if fc.Target != nil {
		f.SetTarget(geometry.FromAxes[V](fc.Target...))
	}
	f.SetEnabled(!fc.Disabled)
	f.Commit()
	return f, nil
}
