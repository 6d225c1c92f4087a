package simulation

import (
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-engine/pkg/geometry"
)

func TestGrid_Prepare(t *testing.T) {
	// 1. Setup: cell size 100
	p := behavior.DefaultParams()
	snap, _ := NewSnapshot(uuid.New(), p, []vec{
		{X: 50, Y: 50},   // 0,0
		{X: 150, Y: 50},  // 1,0
		{X: 50, Y: 150},  // 0,1
		{X: 250, Y: 250}, // 2,2
		{X: -10, Y: 5},   // -1,0
	}, make([]vec, 5))

	// 2. Execute
	h := NewGrid[vec](100).Prepare(snap, p.MaxRadius()).(*gridHood[vec])

	// 3. Verify
	want := map[gridKey][]int32{
		{x: 0, y: 0}:  {0},
		{x: 1, y: 0}:  {1},
		{x: 0, y: 1}:  {2},
		{x: 2, y: 2}:  {3},
		{x: -1, y: 0}: {4},
	}
	if len(h.cells) != len(want) {
		t.Fatalf("Expected %d cells, got %d: %v", len(want), len(h.cells), slices.Collect(maps.Keys(h.cells)))
	}
	for k, ids := range want {
		if got := h.cells[k]; !slices.Equal(got, ids) {
			t.Errorf("Expected %v in cell %v, got %v", ids, k, got)
		}
	}
}

func TestGrid_AutomaticCellSize(t *testing.T) {
	p := behavior.DefaultParams()
	snap, _ := NewSnapshot(uuid.New(), p, []vec{{X: 49, Y: 0}, {X: 51, Y: 0}}, make([]vec, 2))
	h := NewGrid[vec](0).Prepare(snap, 50).(*gridHood[vec])
	if h.cellSize != 50 {
		t.Fatalf("Expected cell size 50, got %v", h.cellSize)
	}
	if _, ok := h.cells[gridKey{x: 1}]; !ok {
		t.Errorf("Expected agent 1 in cell 1,0")
	}
}

func collect(h Neighborhood, i int, radius float64) (ids []int, dists []float64) {
	for j, d := range h.Neighbors(i, radius) {
		ids = append(ids, j)
		dists = append(dists, d)
	}
	return ids, dists
}

func TestGrid_MatchesAllPairs(t *testing.T) {
	p := behavior.DefaultParams()
	snap := randomSnapshot(t, 400, 9, 300, p)
	// a few agents exactly on a cell edge and on each other
	snap.Agents[0].Position = vec{X: 50, Y: 50}
	snap.Agents[1].Position = vec{X: 50, Y: 50}
	snap.Agents[2].Position = vec{X: 100, Y: 50}

	naive := AllPairs[vec]{}.Prepare(snap, p.MaxRadius())
	for _, cellSize := range []float64{0, 10, 33.3, 500} {
		grid := NewGrid[vec](cellSize).Prepare(snap, p.MaxRadius())
		for _, radius := range []float64{p.SeparationRadius, p.CohesionRadius} {
			for i := range snap.Agents {
				wantIDs, wantD := collect(naive, i, radius)
				gotIDs, gotD := collect(grid, i, radius)
				if !slices.Equal(wantIDs, gotIDs) || !slices.Equal(wantD, gotD) {
					t.Fatalf("cell %v radius %v agent %d: expected %v, got %v", cellSize, radius, i, wantIDs, gotIDs)
				}
			}
		}
	}
}

func TestGrid_HugeCoordinates(t *testing.T) {
	far := 5 * float64(math.MaxInt32)
	tests := []struct {
		name     string
		cellSize float64
		pos      []vec
	}{
		{"Past 32-bit cells", 0, []vec{{X: far - 1}, {X: far + 1}, {X: far + 20}, {}}},
		{"Tiny cells", 1e-6, []vec{{X: 1e5, Y: 1e5}, {X: 1e5 + 3, Y: 1e5}, {X: 1e5, Y: 1e5 - 4}, {X: 0, Y: 0}}},
		{"Beyond every cell", 0, []vec{{X: 1e300}, {X: 1e300}, {X: 0, Y: 0}, {X: 3, Y: 0}}},
		{"Negative side", 0, []vec{{X: -far, Y: -far}, {X: -far + 2, Y: -far}, {X: 1e200, Y: -1e200}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := unitParams()
			snap, _ := NewSnapshot(uuid.New(), p, tt.pos, make([]vec, len(tt.pos)))
			naive := AllPairs[vec]{}.Prepare(snap, 5)
			grid := NewGrid[vec](tt.cellSize).Prepare(snap, 5)
			found := 0
			for i := range tt.pos {
				wantIDs, wantD := collect(naive, i, 5)
				gotIDs, gotD := collect(grid, i, 5)
				if !slices.Equal(wantIDs, gotIDs) || !slices.Equal(wantD, gotD) {
					t.Fatalf("agent %d: expected %v at %v, got %v at %v", i, wantIDs, wantD, gotIDs, gotD)
				}
				found += len(gotIDs)
			}
			if found == 0 {
				t.Error("Expected the close pair to see each other")
			}
		})
	}
}

func TestNeighbors_ExcludesSelfAndUsesInclusiveRadius(t *testing.T) {
	p := unitParams()
	snap, _ := NewSnapshot(uuid.New(), p, []vec{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5.0001, Y: 0}}, make([]vec, 3))
	for name, q := range map[string]NeighborQuery[vec]{"AllPairs": AllPairs[vec]{}, "Grid": NewGrid[vec](0)} {
		ids, dists := collect(q.Prepare(snap, 5), 0, 5)
		if !slices.Equal(ids, []int{1}) || !slices.Equal(dists, []float64{25}) {
			t.Errorf("%s: expected [1] at 25, got %v at %v", name, ids, dists)
		}
	}
}

func TestNeighbors_EarlyStop(t *testing.T) {
	snap := randomSnapshot(t, 50, 2, 10, unitParams())
	for name, q := range map[string]NeighborQuery[vec]{"AllPairs": AllPairs[vec]{}, "Grid": NewGrid[vec](0)} {
		n := 0
		for range q.Prepare(snap, 5).Neighbors(0, 100) {
			n++
			if n == 3 {
				break
			}
		}
		if n != 3 {
			t.Errorf("%s: expected to stop after 3, got %d", name, n)
		}
	}
}

func TestGrid_3D(t *testing.T) {
	type v3 = geometry.Vector3D
	p := behavior.DefaultParams()
	rng := rand.New(rand.NewPCG(4, 4))
	pos := make([]v3, 300)
	for i := range pos {
		pos[i] = geometry.NewVector3D(rng.Float64()*200, rng.Float64()*200, rng.Float64()*200)
	}
	snap, _ := NewSnapshot(uuid.New(), p, pos, make([]v3, len(pos)))
	naive := AllPairs[v3]{}.Prepare(snap, p.MaxRadius())
	grid := NewGrid[v3](0).Prepare(snap, p.MaxRadius())
	found := 0
	for i := range pos {
		wantIDs, _ := collect(naive, i, p.CohesionRadius)
		gotIDs, _ := collect(grid, i, p.CohesionRadius)
		if !slices.Equal(wantIDs, gotIDs) {
			t.Fatalf("agent %d: expected %v, got %v", i, wantIDs, gotIDs)
		}
		found += len(gotIDs)
	}
	if found == 0 {
		t.Error("Expected some neighbors in 3D")
	}
}
