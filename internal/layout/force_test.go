package layout

import (
	"math"
	"testing"
)

func buildTriangleWorld(t *testing.T) *World {
	t.Helper()
	doc := &InputDocument{
		Items: map[string]itemDoc{"1": newItemDoc(0), "2": newItemDoc(0), "3": newItemDoc(0)},
		Picks: map[string][]int64{"g": {1, 2, 3}},
	}
	w, err := BuildWorld(doc, 2, nil)
	if err != nil {
		t.Fatalf("BuildWorld: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

func TestForceStepRecentersBarycenter(t *testing.T) {
	w := buildTriangleWorld(t)

	for step := 0; step < 50; step++ {
		w.ForceStep()

		var bx, by float64
		for _, v := range w.Vertices {
			if !v.Enabled() {
				continue
			}
			bx += v.Weight * v.Pos.X
			by += v.Weight * v.Pos.Y
		}
		if math.Abs(bx) > 1e-6*float64(w.N) || math.Abs(by) > 1e-6*float64(w.N) {
			t.Fatalf("step %d: barycenter = (%v, %v), want ~0", step, bx, by)
		}
	}
}

func TestForceStepCoolingSchedule(t *testing.T) {
	w := buildTriangleWorld(t)

	for k := 1; k <= 10; k++ {
		w.ForceStep()
		wantMaxMove := initialMaxMove * math.Pow(cooling, float64(k))
		wantRepCap := initialRepulsionCap * math.Pow(repulsionGrowth, float64(k))
		if math.Abs(w.MaxMove-wantMaxMove) > 1e-9 {
			t.Errorf("after %d steps MaxMove = %v, want %v", k, w.MaxMove, wantMaxMove)
		}
		if math.Abs(w.RepulsionCap-wantRepCap) > 1e-9 {
			t.Errorf("after %d steps RepulsionCap = %v, want %v", k, w.RepulsionCap, wantRepCap)
		}
	}
}

func TestForceStepAllDisabledIsNoop(t *testing.T) {
	w := buildTriangleWorld(t)
	for i := range w.Vertices {
		w.Vertices[i].Weight = 0
	}
	before := make([]pairPos, len(w.Vertices))
	for i, v := range w.Vertices {
		before[i] = v.Pos
	}

	w.ForceStep()

	for i, v := range w.Vertices {
		if v.Pos != before[i] {
			t.Errorf("vertex %d moved from %+v to %+v with all vertices disabled", i, before[i], v.Pos)
		}
	}
}

func TestForceStepConvergesTwoVerticesToExactRelax(t *testing.T) {
	doc := &InputDocument{
		Items: map[string]itemDoc{"1": newItemDoc(0), "2": newItemDoc(0)},
		Picks: map[string][]int64{"g": {1, 2}},
	}
	w, err := BuildWorld(doc, 2, nil)
	if err != nil {
		t.Fatalf("BuildWorld: %v", err)
	}
	defer w.Close()

	for i := 0; i < 1000; i++ {
		w.ForceStep()
	}
	if _, err := w.Sparsify(nil); err != nil {
		t.Fatalf("Sparsify: %v", err)
	}

	i1, _ := w.DenseIndex(1)
	i2, _ := w.DenseIndex(2)
	v1, v2 := w.Vertices[i1], w.Vertices[i2]
	dist := math.Hypot(v1.Pos.X-v2.Pos.X, v1.Pos.Y-v2.Pos.Y)
	wantDist := v1.Radius + v2.Radius + relaxExtra

	if math.Abs(dist-wantDist) > 1e-6 {
		t.Errorf("distance = %v, want %v", dist, wantDist)
	}

	midX := (v1.Pos.X + v2.Pos.X) / 2
	midY := (v1.Pos.Y + v2.Pos.Y) / 2
	if math.Abs(midX) > 1e-3 || math.Abs(midY) > 1e-3 {
		t.Errorf("midpoint = (%v, %v), want ~origin", midX, midY)
	}
}

func TestForceStepConvergesTriangleToEquilateral(t *testing.T) {
	w := buildTriangleWorld(t)
	for i := 0; i < 1000; i++ {
		w.ForceStep()
	}
	if _, err := w.Sparsify(nil); err != nil {
		t.Fatalf("Sparsify: %v", err)
	}

	d01 := math.Hypot(w.Vertices[0].Pos.X-w.Vertices[1].Pos.X, w.Vertices[0].Pos.Y-w.Vertices[1].Pos.Y)
	d12 := math.Hypot(w.Vertices[1].Pos.X-w.Vertices[2].Pos.X, w.Vertices[1].Pos.Y-w.Vertices[2].Pos.Y)
	d20 := math.Hypot(w.Vertices[2].Pos.X-w.Vertices[0].Pos.X, w.Vertices[2].Pos.Y-w.Vertices[0].Pos.Y)

	if math.Abs(d01-d12) > 1e-3 || math.Abs(d12-d20) > 1e-3 {
		t.Errorf("triangle not equilateral: %v %v %v", d01, d12, d20)
	}

	var bx, by float64
	for _, v := range w.Vertices {
		bx += v.Weight * v.Pos.X
		by += v.Weight * v.Pos.Y
	}
	if math.Abs(bx) > 1e-3 || math.Abs(by) > 1e-3 {
		t.Errorf("barycenter = (%v, %v), want ~origin", bx, by)
	}
}
