package simulation

import (
	"iter"
	"math"
	"slices"
	"sync"

	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
)

type gridKey struct {
	x, y, z int64
}

// maxCell bounds cell coordinates so that stepping through a range never
// overflows. Positions beyond it are kept outside the cells.
const maxCell = 1 << 48

type Grid[V geometry.Vector[V]] struct {
	// CellSize is the edge of a cell. Zero means "the widest radius of the
	// tick", which keeps a query within the 3x3(x3) block around its cell.
	CellSize float64

	pool sync.Pool
}

// NewGrid returns a Grid with the given cell size (0 for automatic).
func NewGrid[V geometry.Vector[V]](cellSize float64) *Grid[V] {
	return &Grid[V]{CellSize: cellSize}
}

// Prepare implements NeighborQuery.
func (g *Grid[V]) Prepare(snap *Snapshot[V], maxRadius float64) Neighborhood {
	cellSize := g.CellSize
	if cellSize <= 0 {
		cellSize = maxRadius
	}
	// Clamp to avoid tiny grids or div by zero
	cellSize = math.Max(cellSize, 1e-6)

	h := &gridHood[V]{
		grid:     g,
		agents:   snap.Agents,
		cellSize: cellSize,
		cells:    make(map[gridKey][]int32),
	}
	for i, a := range snap.Agents {
		k, ok := h.key(a.Position)
		if !ok {
			h.strays = append(h.strays, int32(i))
			continue
		}
		h.cells[k] = append(h.cells[k], int32(i))
	}
	return h
}

func (g *Grid[V]) buffer() *[]int32 {
	if b, ok := g.pool.Get().(*[]int32); ok {
		*b = (*b)[:0]
		return b
	}
	b := make([]int32, 0, 128)
	return &b
}

type gridHood[V geometry.Vector[V]] struct {
	grid     *Grid[V]
	agents   []Agent[V]
	cellSize float64
	cells    map[gridKey][]int32
	strays   []int32 // agents with no representable cell
}

func (h *gridHood[V]) cell(x float64) (int64, bool) {
	c := math.Floor(x / h.cellSize)
	if math.IsNaN(c) || c < -maxCell || c > maxCell {
		return 0, false
	}
	return int64(c), true
}

func (h *gridHood[V]) key(p V) (gridKey, bool) {
	var k gridKey
	var okX, okY, okZ bool
	k.x, okX = h.cell(p.Axis(0))
	k.y, okY = h.cell(p.Axis(1))
	okZ = true
	if p.Dim() > 2 {
		k.z, okZ = h.cell(p.Axis(2))
	}
	return k, okX && okY && okZ
}

// span returns the cell range covered by a query, or false when a full scan
// is cheaper or the range cannot be represented.
func (h *gridHood[V]) span(me V, radius float64) (lo, hi gridKey, ok bool) {
	if math.IsNaN(radius) || math.IsInf(radius, 0) {
		return lo, hi, false
	}
	lo, okLo := h.key(me.Sub(fill(me, radius)))
	hi, okHi := h.key(me.Add(fill(me, radius)))
	if !okLo || !okHi {
		return lo, hi, false
	}
	limit := max(int64(len(h.agents)), 27)
	cells := int64(1)
	for _, d := range [3]int64{hi.x - lo.x + 1, hi.y - lo.y + 1, hi.z - lo.z + 1} {
		if d > limit {
			return lo, hi, false
		}
		if cells *= d; cells > limit {
			return lo, hi, false
		}
	}
	return lo, hi, true
}

func (h *gridHood[V]) Neighbors(i int, radius float64) iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		me := h.agents[i].Position
		radiusSq := radius * radius
		visit := func(j int) bool {
			if j == i {
				return true
			}
			distSq := me.DistanceSquaredTo(h.agents[j].Position)
			if distSq > radiusSq {
				return true
			}
			return yield(j, distSq)
		}

		lo, hi, ok := h.span(me, radius)
		if !ok {
			for j := range h.agents {
				if !visit(j) {
					return
				}
			}
			return
		}

		buf := h.grid.buffer()
		defer h.grid.pool.Put(buf)

		// Only scan necessary cells
		for x := lo.x; x <= hi.x; x++ {
			for y := lo.y; y <= hi.y; y++ {
				for z := lo.z; z <= hi.z; z++ {
					*buf = append(*buf, h.cells[gridKey{x, y, z}]...)
				}
			}
		}
		*buf = append(*buf, h.strays...)
		slices.Sort(*buf)

		for _, j := range *buf {
			if !visit(int(j)) {
				return
			}
		}
	}
}

// fill returns a vector of the same dimension as like with every component set to x.
func fill[V geometry.Vector[V]](like V, x float64) V {
	var v V
	for a := 0; a < like.Dim(); a++ {
		v = v.WithAxis(a, x)
	}
	return v
}
