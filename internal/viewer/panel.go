package viewer

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

type widget interface {
	Update() bool
	Draw(screen *ebiten.Image)
	height() float64
	place(y float64)
	caption() string
}

type section struct {
	title      string
	start, end int // widget indices
}

// Panel is a scrollable column of widgets grouped in sections.
type Panel struct {
	X, Y          float64
	Width, Height float64
	Title         string
	Scroll        float64

	widgets  []widget
	sections []section

	bg, border color.RGBA
}

// NewPanel creates an empty panel.
func NewPanel(x, y, width, height float64, title string) *Panel {
	return &Panel{
		X: x, Y: y, Width: width, Height: height, Title: title,
		bg:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		border: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection starts a new section; following widgets belong to it.
func (p *Panel) AddSection(title string) {
	p.closeSection()
	p.sections = append(p.sections, section{title: title, start: len(p.widgets), end: -1})
}

func (p *Panel) closeSection() {
	if n := len(p.sections); n > 0 && p.sections[n-1].end < 0 {
		p.sections[n-1].end = len(p.widgets)
	}
}

// AddSlider appends a slider to the current section.
func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+10, 0, p.Width-20, label, min, max, value)
	p.widgets = append(p.widgets, s)
	return s
}

// AddCheckbox appends a checkbox to the current section.
func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+10, 0, label, value)
	p.widgets = append(p.widgets, c)
	return c
}

// AddButton appends a button to the current section. A click counts as a
// change in Update.
func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+10, 0, p.Width-20, label, onClick)
	p.widgets = append(p.widgets, b)
	return b
}

// Contains reports whether the screen point is over the panel.
func (p *Panel) Contains(x, y int) bool {
	return float64(x) >= p.X && float64(x) <= p.X+p.Width && float64(y) >= p.Y && float64(y) <= p.Y+p.Height
}

// Update handles scrolling and input and reports whether any widget changed.
func (p *Panel) Update() bool {
	p.closeSection()
	p.layout()

	if mx, my := ebiten.CursorPosition(); p.Contains(mx, my) {
		if _, dy := ebiten.Wheel(); dy != 0 {
			p.Scroll = min(max(p.Scroll-dy*20, 0), max(p.contentHeight()-p.Height+40, 0))
		}
	}

	changed := false
	for _, w := range p.widgets {
		if p.visible(w) && w.Update() {
			changed = true
		}
	}
	return changed
}

// layout places every widget for the current scroll offset.
func (p *Panel) layout() {
	y := p.Y + 30 - p.Scroll
	for _, s := range p.sections {
		y += 25
		for _, w := range p.widgets[s.start:s.end] {
			w.place(y + 15)
			y += w.height()
		}
	}
}

func (p *Panel) visible(w widget) bool {
	var y float64
	switch w := w.(type) {
	case *Slider:
		y = w.Y
	case *Checkbox:
		y = w.Y
	case *Button:
		y = w.Y
	}
	return y >= p.Y+25 && y <= p.Y+p.Height-10
}

func (p *Panel) contentHeight() float64 {
	h := 30 + float64(len(p.sections))*25
	for _, w := range p.widgets {
		h += w.height()
	}
	return h
}

// Draw renders the panel and its visible widgets.
func (p *Panel) Draw(screen *ebiten.Image) {
	p.closeSection()
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), p.bg, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height), 2, p.border, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	y := p.Y + 30 - p.Scroll
	for _, s := range p.sections {
		if y >= p.Y+25 && y <= p.Y+p.Height-20 {
			vector.FillRect(screen, float32(p.X+5), float32(y), float32(p.Width-10), 20, color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
			ebitenutil.DebugPrintAt(screen, s.title, int(p.X+10), int(y+3))
		}
		y += 25
		for _, w := range p.widgets[s.start:s.end] {
			if p.visible(w) {
				ebitenutil.DebugPrintAt(screen, w.caption(), int(p.X+10), int(y))
				w.Draw(screen)
			}
			y += w.height()
		}
	}
}
