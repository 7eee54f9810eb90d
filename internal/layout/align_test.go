package layout

import (
	"math"
	"testing"
)

func TestMakeTransformIdentityAtZero(t *testing.T) {
	m := makeTransform(0, false)
	x, y := m.Apply(3, 4)
	if math.Abs(x-3) > 1e-9 || math.Abs(y-4) > 1e-9 {
		t.Errorf("Apply(3,4) at theta=0 = (%v, %v), want (3, 4)", x, y)
	}
}

func TestMakeTransformMirrorIsImproperOrthogonal(t *testing.T) {
	// The mirror branch is [[-sin,cos],[cos,sin]], not the standard
	// reflection-times-rotation form — preserved verbatim per spec.md §9.
	theta := 0.37
	m := makeTransform(theta, true)
	wantA, wantB := -math.Sin(theta), math.Cos(theta)
	wantC, wantD := math.Cos(theta), math.Sin(theta)
	if m.A != wantA || m.B != wantB || m.C != wantC || m.D != wantD {
		t.Errorf("mirror transform = %+v, want A=%v B=%v C=%v D=%v", m, wantA, wantB, wantC, wantD)
	}
}

func TestScoreCandidateSkipsDisabledReferenceVertices(t *testing.T) {
	w := buildTriangleWorld(t)
	ref := make([]Vertex, w.N)
	for i := range ref {
		ref[i] = Vertex{Pos: pairPos{X: 1000, Y: 1000}, Weight: 0} // disabled in reference
	}
	shared := &alignShared{world: w, ref: ref}
	c := candidate{theta: 0, mirror: false}
	scoreCandidate(shared, &c)
	if c.badness != 0 {
		t.Errorf("badness = %v, want 0 when every reference vertex is disabled", c.badness)
	}
}

func TestAlignToReferenceRecoversKnownRotation(t *testing.T) {
	w := buildTriangleWorld(t)
	for i := 0; i < 200; i++ {
		w.ForceStep()
	}

	const theta = math.Pi / 3
	rotate := makeTransform(theta, false)
	ref := make([]Vertex, w.N)
	for i, v := range w.Vertices {
		x, y := rotate.Apply(v.Pos.X, v.Pos.Y)
		ref[i] = Vertex{Pos: pairPos{X: x, Y: y}, Weight: v.Weight, Radius: v.Radius}
	}

	_, badness := w.AlignToReference(ref)

	var total float64
	for _, v := range w.Vertices {
		total += v.Weight
	}
	if badness > 0.05*total {
		t.Errorf("alignment badness = %v too high relative to total weight %v", badness, total)
	}

	for i, v := range w.Vertices {
		dx := v.Pos.X - ref[i].Pos.X
		dy := v.Pos.Y - ref[i].Pos.Y
		if math.Hypot(dx, dy) > 1.0 {
			t.Errorf("vertex %d at %+v, reference at %+v, too far apart after alignment", i, v.Pos, ref[i].Pos)
		}
	}
}
