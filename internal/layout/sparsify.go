package layout

import (
	"fmt"
	"math"

	"github.com/kpahula/forcelayout/internal/dispatch"
)

// Sparsify removes residual overlaps left by the force loop: one bulk
// scale pass followed by repeated nudging until no enabled pair
// overlaps. It returns the number of iterative passes it took.
//
// original_source/world.c's main loop is `do { … } while (energy >
// 0);` with no bound; spec.md §9 flags this as relying on
// floating-point accumulation to terminate. This adds an explicit cap
// (maxSparsifyIterations) and returns an error if convergence isn't
// reached, rather than spinning forever.
func (w *World) Sparsify(onStep func(iteration int, overlap float64)) (int, error) {
	w.bulkScale()

	for i := 1; i <= maxSparsifyIterations; i++ {
		overlap := w.sparsifyStep()
		if onStep != nil {
			onStep(i, overlap)
		}
		if overlap == 0 {
			return i, nil
		}
	}
	return maxSparsifyIterations, fmt.Errorf("forcelayout: sparsify did not converge within %d iterations", maxSparsifyIterations)
}

// bulkScale walks the strict upper triangle of overlapping enabled
// pairs once and scales every vertex position by a single factor
// derived from how badly, on average, overlapping pairs intrude on
// each other's radius. Grounded on original_source/sparsify.c's
// sparsify_world, which runs this on the calling thread rather than
// through the worker pool.
func (w *World) bulkScale() {
	var totalOverlap float64
	var counter float64

	for i := 0; i < w.N; i++ {
		v1 := w.Vertices[i]
		if !v1.Enabled() {
			continue
		}
		for j := i + 1; j < w.N; j++ {
			v2 := w.Vertices[j]
			if !v2.Enabled() {
				continue
			}
			dist := math.Hypot(v1.Pos.X-v2.Pos.X, v1.Pos.Y-v2.Pos.Y)
			relax := v1.Radius + v2.Radius + relaxExtra
			if dist >= relax {
				continue
			}
			counter += v1.Weight + v2.Weight
			totalOverlap += v2.Weight*overlapScore(dist, v1, v2) + v1.Weight*overlapScore(dist, v2, v1)
		}
	}

	if counter == 0 {
		return
	}
	factor := totalOverlap / counter
	for i := range w.Vertices {
		w.Vertices[i].Pos.X *= factor
		w.Vertices[i].Pos.Y *= factor
	}
}

// overlapScore is the asymmetric overlap measure from spec.md §4.3:
// how much b intrudes into a's disc, scaled by how far past a's own
// radius the pair already sits, capped at 3.
func overlapScore(dist float64, a, b Vertex) float64 {
	denom := dist - a.Radius
	if denom < 0 {
		return 3
	}
	score := (b.Radius + relaxExtra) / denom
	if score > 3 {
		return 3
	}
	return score
}

// sparsifyStep runs one iterative nudge pass across the pool and
// reports the total overlap remaining (0 once every enabled pair is
// at least relax apart).
func (w *World) sparsifyStep() float64 {
	tasks := make([]*partition, len(w.partitions))
	for i := range w.partitions {
		tasks[i] = &w.partitions[i]
	}
	dispatch.Submit(w.Pool, dispatch.Phase[*World, *partition]{
		Work: sparsifyWork,
	}, w, tasks)

	var total float64
	for i := range w.partitions {
		p := &w.partitions[i]
		total += p.overlap
		for idx := p.start; idx < p.end; idx++ {
			w.Vertices[idx].Pos = w.scratchPos[idx]
		}
	}
	return total
}

func sparsifyWork(w *World, p *partition) {
	p.overlap = 0
	for i := p.start; i < p.end; i++ {
		v1 := w.Vertices[i]
		if !v1.Enabled() {
			w.scratchPos[i] = v1.Pos
			continue
		}

		var forceX, forceY float64
		for j := range w.Vertices {
			if j == i {
				continue
			}
			v2 := w.Vertices[j]
			if !v2.Enabled() {
				continue
			}

			relax := v1.Radius + v2.Radius + relaxExtra/2
			taxiDist := math.Abs(v1.Pos.X-v2.Pos.X) + math.Abs(v1.Pos.Y-v2.Pos.Y)
			if relax*2 < taxiDist {
				continue
			}

			dist := math.Hypot(v1.Pos.X-v2.Pos.X, v1.Pos.Y-v2.Pos.Y)
			if dist >= relax {
				continue
			}

			p.overlap += relax - dist
			nudge := -(relax + relaxExtra - dist) / 2
			if v1.Weight > v2.Weight {
				nudge *= v2.Weight / v1.Weight
			}
			normX := (v2.Pos.X - v1.Pos.X) / dist
			normY := (v2.Pos.Y - v1.Pos.Y) / dist
			forceX += nudge * normX
			forceY += nudge * normY
		}

		w.scratchPos[i] = pairPos{X: v1.Pos.X + forceX, Y: v1.Pos.Y + forceY}
	}
}
