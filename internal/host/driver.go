package host

import (
	"context"
	"fmt"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Frame reports what the driver did with one host frame.
type Frame struct {
	Seq     uint64        // host frame number, from 1
	Ticked  bool          // whether the world was ticked on this frame
	Ticks   uint64        // world ticks so far
	Dt      float64       // timestep of the tick, seconds
	Elapsed time.Duration // wall time of the tick
	Err     error
}

// Driver is the actor turning host frames into world ticks.
//
// Messages:
//   - *durationpb.Duration: one host frame that lasted the given duration.
//   - *wrapperspb.BoolValue: pause (false) or resume (true) ticking.
//   - *wrapperspb.UInt32Value: tick every N frames from now on.
//
// Only every N-th frame runs a tick. With a fixed timestep the tick uses it,
// otherwise it uses the sum of the frame durations since the last tick, and
// the tick is put off while that sum is still zero.
type Driver[V geometry.Vector[V]] struct {
	world    *simulation.World[V]
	every    uint64
	timestep float64
	frames   chan<- Frame

	seq     uint64
	pending time.Duration
	paused  bool
}

// NewDriver returns a driver ticking world every `every` frames (1 if 0)
// with a fixed timestep in seconds (0 to follow the host frames). Frames are
// reported on frames without blocking; nil disables reporting.
func NewDriver[V geometry.Vector[V]](world *simulation.World[V], every int, timestep float64, frames chan<- Frame) *Driver[V] {
	if every <= 0 {
		every = 1
	}
	return &Driver[V]{world: world, every: uint64(every), timestep: timestep, frames: frames}
}

func (d *Driver[V]) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("Driver starting with %d flocks, ticking every %d frames", len(d.world.Flocks()), d.every)
	return nil
}

func (d *Driver[V]) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Info("Driver Started.")

	case *durationpb.Duration:
		d.frame(ctx, msg.AsDuration())

	case *wrapperspb.BoolValue:
		d.paused = !msg.GetValue()
		ctx.Logger().Infof("Driver paused=%v", d.paused)

	case *wrapperspb.UInt32Value:
		d.every = max(uint64(msg.GetValue()), 1)
		ctx.Logger().Infof("Driver now ticks every %d frames", d.every)

	default:
		ctx.Unhandled()
	}
}

func (d *Driver[V]) frame(ctx *actor.ReceiveContext, elapsed time.Duration) {
	d.seq++
	f := Frame{Seq: d.seq}
	if d.paused {
		f.Ticks = d.world.Ticks()
		d.report(f)
		return
	}
	d.pending += elapsed
	if d.seq%d.every != 0 {
		f.Ticks = d.world.Ticks()
		d.report(f)
		return
	}

	dt := d.timestep
	if dt <= 0 {
		if d.pending <= 0 {
			// no time has passed yet: keep waiting for a frame that lasted
			f.Ticks = d.world.Ticks()
			d.report(f)
			return
		}
		dt = d.pending.Seconds()
	}
	d.pending = 0

	start := time.Now()
	err := d.world.Tick(ctx.Context(), dt)
	f.Ticked = true
	f.Dt = dt
	f.Elapsed = time.Since(start)
	f.Ticks = d.world.Ticks()
	if err != nil {
		// The host decides whether to keep going; the next frame retries.
		ctx.Logger().Errorf("frame %d: %v", d.seq, err)
		f.Err = err
	}
	d.report(f)
}

func (d *Driver[V]) report(f Frame) {
	if d.frames == nil {
		return
	}
	// Non-blocking send to avoid slowing down simulation if the host is slow
	select {
	case d.frames <- f:
	default:
	}
}

func (d *Driver[V]) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("Driver is shutdown after %d frames", d.seq)
	return nil
}

// Host owns the actor system running a Driver.
type Host[V geometry.Vector[V]] struct {
	ctx    context.Context
	system actor.ActorSystem
	pid    *actor.PID
	frames chan Frame
}

// Options configures Start.
type Options struct {
	Every    int     // tick every N frames
	Timestep float64 // fixed timestep in seconds, 0 to follow the frames
	Buffer   int     // capacity of the frame channel, 0 for 64
	Logger   golog.Logger
}

// Start creates an actor system and spawns a Driver for world in it.
func Start[V geometry.Vector[V]](ctx context.Context, world *simulation.World[V], opts Options) (*Host[V], error) {
	if opts.Logger == nil {
		opts.Logger = golog.DiscardLogger
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	system, err := actor.NewActorSystem("BoidsHost",
		actor.WithLogger(opts.Logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}

	frames := make(chan Frame, opts.Buffer)
	pid, err := system.Spawn(ctx, "driver", NewDriver(world, opts.Every, opts.Timestep, frames))
	if err != nil {
		_ = system.Stop(ctx)
		return nil, fmt.Errorf("failed to spawn driver: %w", err)
	}
	return &Host[V]{ctx: ctx, system: system, pid: pid, frames: frames}, nil
}

// Frames reports every processed host frame.
func (h *Host[V]) Frames() <-chan Frame { return h.frames }

// Frame sends one host frame of the given duration to the driver.
func (h *Host[V]) Frame(elapsed time.Duration) error {
	return actor.Tell(h.ctx, h.pid, durationpb.New(elapsed))
}

// SetPaused pauses or resumes ticking.
func (h *Host[V]) SetPaused(paused bool) error {
	return actor.Tell(h.ctx, h.pid, wrapperspb.Bool(!paused))
}

// SetEvery changes how many frames separate two ticks.
func (h *Host[V]) SetEvery(every int) error {
	return actor.Tell(h.ctx, h.pid, wrapperspb.UInt32(uint32(max(every, 1))))
}

// Stop shuts the actor system down.
func (h *Host[V]) Stop(ctx context.Context) error {
	return h.system.Stop(ctx)
}
