// Package viewer is an ebiten window acting as a 2D host for the simulation:
// it sends one frame per ebiten update to the host Driver, draws the last
// published snapshot of every flock and edits parameters live.
//
// Controls: left click sets the selected flock's target, C clears it, Tab
// selects the next flock, E enables or disables it, Space pauses.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-boids-engine/internal/host"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/simulation"
	golog "github.com/tochemey/goakt/v3/log"
)

type vec = geometry.Vector2D

var whiteImage = ebiten.NewImage(3, 3)

func init() {
	whiteImage.Fill(color.White)
}

var palette = []color.RGBA{
	{R: 100, G: 200, B: 255, A: 255},
	{R: 255, G: 120, B: 80, A: 255},
	{R: 140, G: 230, B: 120, A: 255},
	{R: 230, G: 200, B: 90, A: 255},
	{R: 200, G: 130, B: 255, A: 255},
}

// binding ties a slider to one field of behavior.Params.
type binding struct {
	slider *Slider
	field  func(p *behavior.Params) *float64
}

type Game struct {
	ctx    context.Context
	host   *host.Host[vec]
	logger golog.Logger
	avg    *simulation.Average

	flocks   []*simulation.Flock[vec]
	params   []*behavior.Params // current set of each flock
	selected int
	paused   bool
	last     host.Frame

	panel    *Panel
	bindings []binding
	showPerc *Checkbox

	width, height int

	// batched triangles, reused across frames
	vertices []ebiten.Vertex
	indices  []uint16

	updateAvg float64 // Rolling average in ms
	drawAvg   float64
}

// New returns a viewer for the flocks of world driven by h. avg, when not
// nil, must be a stats sink of the world's scheduler.
func New(ctx context.Context, world *simulation.World[vec], h *host.Host[vec], avg *simulation.Average, logger golog.Logger, width, height int) *Game {
	if logger == nil {
		logger = golog.DiscardLogger
	}
	g := &Game{
		ctx:    ctx,
		host:   h,
		logger: logger,
		avg:    avg,
		flocks: world.Flocks(),
		width:  width,
		height: height,
	}
	for _, f := range g.flocks {
		p := behavior.DefaultParams()
		if snap := f.Snapshot(); snap.Len() > 0 {
			p = snap.Agents[0].Params
		}
		g.params = append(g.params, p)
	}

	g.panel = NewPanel(10, 10, 240, float64(height)-20, "Parameters")
	g.panel.AddSection("Radii")
	g.bind("Separation radius", 1, 150, func(p *behavior.Params) *float64 { return &p.SeparationRadius })
	g.bind("Alignment radius", 1, 200, func(p *behavior.Params) *float64 { return &p.AlignmentRadius })
	g.bind("Cohesion radius", 1, 200, func(p *behavior.Params) *float64 { return &p.CohesionRadius })
	g.panel.AddSection("Weights")
	g.bind("Separation", 0, 5, func(p *behavior.Params) *float64 { return &p.SeparationWeight })
	g.bind("Alignment", 0, 5, func(p *behavior.Params) *float64 { return &p.AlignmentWeight })
	g.bind("Cohesion", 0, 5, func(p *behavior.Params) *float64 { return &p.CohesionWeight })
	g.bind("Target", 0, 5, func(p *behavior.Params) *float64 { return &p.TargetWeight })
	g.panel.AddSection("Limits")
	g.bind("Max speed", 0.1, 20, func(p *behavior.Params) *float64 { return &p.MaxSpeed })
	g.bind("Max force", 0.01, 5, func(p *behavior.Params) *float64 { return &p.MaxForce })
	g.panel.AddSection("Visualization")
	g.showPerc = g.panel.AddCheckbox("Show radii of first boid", false)
	g.panel.AddButton("Reset parameters", g.resetSliders)
	g.loadSliders()
	return g
}

func (g *Game) bind(label string, min, max float64, field func(p *behavior.Params) *float64) {
	g.bindings = append(g.bindings, binding{slider: g.panel.AddSlider(label, min, max, 0), field: field})
}

// loadSliders shows the parameters of the selected flock.
func (g *Game) loadSliders() {
	if len(g.params) == 0 {
		return
	}
	p := g.params[g.selected]
	for _, b := range g.bindings {
		b.slider.Set(*b.field(p))
	}
}

// resetSliders shows the default parameters; the panel reports the click as
// a change so they get applied.
func (g *Game) resetSliders() {
	p := behavior.DefaultParams()
	for _, b := range g.bindings {
		b.slider.Set(*b.field(p))
	}
}

// applySliders queues a new parameter set for the selected flock.
func (g *Game) applySliders() {
	if len(g.flocks) == 0 {
		return
	}
	cur := g.params[g.selected]
	next := cur.Clone()
	for _, b := range g.bindings {
		*b.field(next) = b.slider.Value
	}
	if err := g.flocks[g.selected].ReplaceParams(cur, next); err != nil {
		g.logger.Errorf("rejected parameters: %v", err)
		return
	}
	g.params[g.selected] = next
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	// 1. Input
	if g.panel.Update() {
		g.applySliders()
	}
	g.handleKeys()

	// 2. Retrieve the latest frame reports (non-blocking)
Drain:
	for {
		select {
		case f := <-g.host.Frames():
			g.last = f
		default:
			break Drain
		}
	}

	// 3. Trigger the next simulation step
	tps := ebiten.TPS()
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	return g.host.Frame(time.Second / time.Duration(tps))
}

func (g *Game) handleKeys() {
	if len(g.flocks) == 0 {
		return
	}
	f := g.flocks[g.selected]
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.selected = (g.selected + 1) % len(g.flocks)
		g.loadSliders()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		f.SetEnabled(!f.Enabled())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		f.ClearTarget()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
		if err := g.host.SetPaused(g.paused); err != nil {
			g.logger.Errorf("pause: %v", err)
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if mx, my := ebiten.CursorPosition(); !g.panel.Contains(mx, my) {
			f.SetTarget(geometry.NewVector(float64(mx), float64(my)))
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(color.RGBA{R: 10, G: 10, B: 30, A: 255})

	for i, f := range g.flocks {
		clr := palette[i%len(palette)]
		if !f.Enabled() {
			clr.A = 90
		}
		snap := f.Snapshot()
		for _, a := range snap.Agents {
			g.appendBoid(screen, a.Position, a.Velocity, clr)
		}
		if t, ok := f.Target(); ok {
			vector.StrokeCircle(screen, float32(t.X), float32(t.Y), 8, 2, clr, true)
		}
		if g.showPerc.Value && i == g.selected && snap.Len() > 0 {
			a := snap.Agents[0]
			for _, r := range []float64{a.Params.SeparationRadius, a.Params.CohesionRadius} {
				vector.StrokeCircle(screen, float32(a.Position.X), float32(a.Position.Y), float32(r), 1, color.RGBA{R: 255, G: 255, B: 255, A: 80}, true)
			}
		}
		g.flushBoids(screen)
	}

	g.panel.Draw(screen)
	g.drawStats(screen)
}

// maxBatch is the number of vertices one DrawTriangles call can index.
const maxBatch = math.MaxUint16 / 3 * 3

// appendBoid adds a triangle pointing along vel at pos, flushing the batch
// first when it is full.
func (g *Game) appendBoid(screen *ebiten.Image, pos, vel vec, clr color.RGBA) {
	if len(g.vertices)+3 > maxBatch {
		g.flushBoids(screen)
	}
	angle := math.Atan2(vel.Y, vel.X)
	r, gg, b, a := float32(clr.R)/255, float32(clr.G)/255, float32(clr.B)/255, float32(clr.A)/255
	base := uint16(len(g.vertices))
	for _, corner := range [3]struct{ da, length float64 }{{0, 6}, {2.5, 5}, {-2.5, 5}} {
		g.vertices = append(g.vertices, ebiten.Vertex{
			DstX:   float32(pos.X + math.Cos(angle+corner.da)*corner.length),
			DstY:   float32(pos.Y + math.Sin(angle+corner.da)*corner.length),
			SrcX:   1,
			SrcY:   1,
			ColorR: r, ColorG: gg, ColorB: b, ColorA: a,
		})
	}
	g.indices = append(g.indices, base, base+1, base+2)
}

func (g *Game) flushBoids(screen *ebiten.Image) {
	if len(g.vertices) > 0 {
		screen.DrawTriangles(g.vertices, g.indices, whiteImage, &ebiten.DrawTrianglesOptions{})
	}
	g.vertices, g.indices = g.vertices[:0], g.indices[:0]
}

func (g *Game) drawStats(screen *ebiten.Image) {
	name, enabled := "-", false
	if len(g.flocks) > 0 {
		name, enabled = g.flocks[g.selected].Name(), g.flocks[g.selected].Enabled()
	}
	msg := fmt.Sprintf("FPS: %.1f  TPS: %.1f\nUpdate: %.2fms  Draw: %.2fms\nTicks: %d  Paused: %v\nFlock: %s (enabled: %v)",
		ebiten.ActualFPS(), ebiten.ActualTPS(), g.updateAvg, g.drawAvg, g.last.Ticks, g.paused, name, enabled)
	if g.avg != nil {
		steering, integration, total, agents := g.avg.Millis()
		msg += fmt.Sprintf("\nTick: %.2fms (steer %.2f, integrate %.2f)\nAgents: %d", total, steering, integration, agents)
	}
	if g.last.Err != nil {
		msg += "\nLast tick failed: " + g.last.Err.Error()
	}
	ebitenutil.DebugPrintAt(screen, msg, g.width-300, 10)
}

func (g *Game) Layout(w, h int) (int, int) { return g.width, g.height }
