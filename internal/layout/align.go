package layout

import (
	"math"

	"github.com/kpahula/forcelayout/internal/dispatch"
)

// Transform is a 2×2 rigid transform: rotation, optionally composed
// with the mirror described in spec.md §4.4. The mirror matrix
// ([[-sin,cos],[cos,sin]]) is an improper orthogonal matrix (a
// reflection composed with a rotation) — spec.md §9 asks for it to be
// preserved verbatim since changing its form shifts which θ minimizes
// the score.
type Transform struct {
	A, B, C, D float64
}

func makeTransform(theta float64, mirror bool) Transform {
	s, c := math.Sin(theta), math.Cos(theta)
	if !mirror {
		return Transform{A: c, B: -s, C: s, D: c}
	}
	return Transform{A: -s, B: c, C: c, D: s}
}

// Apply returns M·(x, y).
func (m Transform) Apply(x, y float64) (float64, float64) {
	return x*m.A + y*m.B, x*m.C + y*m.D
}

type candidate struct {
	theta   float64
	mirror  bool
	k       int // coarse-pass rotation index, used to anchor the fine-pass base angle
	badness float64
}

type alignShared struct {
	world *World
	ref   []Vertex
}

// AlignToReference searches rotations and one mirror for the rigid
// transform that best matches the world's current layout against ref,
// applies the best transform in place, and returns it together with
// its score. Grounded on original_source/adjust.c's compare_world /
// work_adjust: a coarse 4000-candidate pass (2000 rotations × 2
// mirror states) followed by a fine 4000-candidate pass refining
// around the coarse winner.
func (w *World) AlignToReference(ref []Vertex) (Transform, float64) {
	shared := &alignShared{world: w, ref: ref}

	coarse := make([]candidate, compareSteps)
	half := compareSteps / 2
	for k := 0; k < half; k++ {
		theta := float64(k) * 2 * math.Pi / float64(half)
		coarse[k] = candidate{theta: theta, mirror: false, k: k}
		coarse[k+half] = candidate{theta: theta, mirror: true, k: k}
	}
	evaluateCandidates(w.Pool, shared, coarse)
	best := bestCandidate(coarse)

	fine := make([]candidate, compareSteps)
	base := float64(best.k) * 2 * math.Pi / float64(half)
	step := 2 * math.Pi / float64(half*half)
	for j := -half; j < half; j++ {
		fine[j+half] = candidate{theta: base + float64(j)*step, mirror: best.mirror}
	}
	evaluateCandidates(w.Pool, shared, fine)
	bestFine := bestCandidate(fine)

	overall := best
	if bestFine.badness < overall.badness {
		overall = bestFine
	}

	transform := makeTransform(overall.theta, overall.mirror)
	for i := range w.Vertices {
		x, y := transform.Apply(w.Vertices[i].Pos.X, w.Vertices[i].Pos.Y)
		w.Vertices[i].Pos = pairPos{X: x, Y: y}
	}
	return transform, overall.badness
}

func bestCandidate(cands []candidate) candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.badness < best.badness {
			best = c
		}
	}
	return best
}

func evaluateCandidates(pool *dispatch.Pool, shared *alignShared, cands []candidate) {
	tasks := make([]*candidate, len(cands))
	for i := range cands {
		tasks[i] = &cands[i]
	}
	dispatch.Submit(pool, dispatch.Phase[*alignShared, *candidate]{
		Work: scoreCandidate,
	}, shared, tasks)
}

func scoreCandidate(shared *alignShared, c *candidate) {
	transform := makeTransform(c.theta, c.mirror)
	world := shared.world
	var badness float64
	for i, v1 := range world.Vertices {
		v2 := shared.ref[i]
		if v2.Weight <= 0 || math.IsInf(v1.Weight, 0) || math.IsInf(v2.Weight, 0) {
			continue
		}
		x, y := transform.Apply(v1.Pos.X, v1.Pos.Y)
		badness += math.Hypot(x-v2.Pos.X, y-v2.Pos.Y) * v1.Weight
	}
	c.badness = badness
}
