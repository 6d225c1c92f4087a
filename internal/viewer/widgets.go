package viewer

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider is a horizontal bar editing a float in [Min, Max].
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	X, Y     float64
	W, H     float64
}

// NewSlider creates a new slider instance
func NewSlider(x, y, w float64, label string, min, max, value float64) *Slider {
	return &Slider{Label: label, Value: value, Min: min, Max: max, X: x, Y: y, W: w, H: 12}
}

// Update follows the mouse while the left button is held over the bar and
// reports whether the value changed.
func (s *Slider) Update() bool {
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		return false
	}
	mx, my := ebiten.CursorPosition()
	if float64(mx) < s.X || float64(mx) > s.X+s.W || float64(my) < s.Y || float64(my) > s.Y+s.H {
		return false
	}
	// Calculate value based on horizontal position
	p := (float64(mx) - s.X) / s.W
	v := min(max(s.Min+p*(s.Max-s.Min), s.Min), s.Max)
	if v == s.Value {
		return false
	}
	s.Value = v
	return true
}

// Set moves the slider without reporting a change.
func (s *Slider) Set(v float64) { s.Value = min(max(v, s.Min), s.Max) }

func (s *Slider) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H), color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)
	ratio := (s.Value - s.Min) / (s.Max - s.Min)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W*ratio), float32(s.H), color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
}

func (s *Slider) height() float64 { return s.H + 25 }
func (s *Slider) place(y float64) { s.Y = y }

func (s *Slider) caption() string { return fmt.Sprintf("%s: %.2f", s.Label, s.Value) }

// Checkbox is a simple UI widget for boolean values
type Checkbox struct {
	Label string
	Value bool
	X, Y  float64
	Size  float64
}

// NewCheckbox creates a new checkbox instance
func NewCheckbox(x, y float64, label string, value bool) *Checkbox {
	return &Checkbox{Label: label, Value: value, X: x, Y: y, Size: 16}
}

// Update toggles the box on click and reports whether it changed.
func (c *Checkbox) Update() bool {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return false
	}
	mx, my := ebiten.CursorPosition()
	if float64(mx) < c.X || float64(mx) > c.X+c.Size || float64(my) < c.Y || float64(my) > c.Y+c.Size {
		return false
	}
	c.Value = !c.Value
	return true
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	vector.StrokeRect(screen,
		float32(c.X), float32(c.Y),
		float32(c.Size), float32(c.Size),
		2,
		color.RGBA{R: 200, G: 200, B: 200, A: 255},
		true)
	if c.Value {
		vector.FillRect(screen,
			float32(c.X+2), float32(c.Y+2),
			float32(c.Size-4), float32(c.Size-4),
			color.RGBA{R: 100, G: 200, B: 100, A: 255},
			true)
	}
}

func (c *Checkbox) height() float64 { return c.Size + 20 }
func (c *Checkbox) place(y float64) { c.Y = y }
func (c *Checkbox) caption() string { return c.Label }

// Button runs OnClick once per press.
type Button struct {
	Label   string
	X, Y    float64
	W, H    float64
	OnClick func()

	pressed bool

	BGColor    color.RGBA
	HoverColor color.RGBA
}

// NewButton creates a new button instance
func NewButton(x, y, w float64, label string, onClick func()) *Button {
	return &Button{
		Label: label, X: x, Y: y, W: w, H: 20, OnClick: onClick,
		BGColor:    color.RGBA{R: 80, G: 120, B: 180, A: 255},
		HoverColor: color.RGBA{R: 100, G: 150, B: 220, A: 255},
	}
}

func (b *Button) over() bool {
	mx, my := ebiten.CursorPosition()
	return float64(mx) >= b.X && float64(mx) <= b.X+b.W && float64(my) >= b.Y && float64(my) <= b.Y+b.H
}

// Update reports true on the frame the button is pressed.
func (b *Button) Update() bool {
	if !b.over() || !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		b.pressed = false
		return false
	}
	if b.pressed {
		return false
	}
	b.pressed = true
	if b.OnClick != nil {
		b.OnClick()
	}
	return true
}

func (b *Button) Draw(screen *ebiten.Image) {
	bg := b.BGColor
	if b.over() {
		bg = b.HoverColor
	}
	vector.FillRect(screen, float32(b.X), float32(b.Y), float32(b.W), float32(b.H), bg, true)
	vector.StrokeRect(screen, float32(b.X), float32(b.Y), float32(b.W), float32(b.H), 2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, b.Label, int(b.X+6), int(b.Y+3))
}

func (b *Button) height() float64 { return b.H + 10 }
func (b *Button) place(y float64) { b.Y = y - 15 }
func (b *Button) caption() string { return "" }
