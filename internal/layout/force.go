package layout

import (
	"math"

	"github.com/kpahula/forcelayout/internal/dispatch"
)

// ForceStep runs one iteration of the force-directed simulation:
// compute a net displacement for every enabled vertex, write new
// positions into scratch, then subtract the weighted barycenter from
// every enabled vertex's position so the layout stays centered at the
// origin; disabled vertices keep their position. See
// spec.md §4.2; grounded on original_source/force.c's work_map/
// world_step.
//
// It returns the summed pre-cap force magnitude ("energy"), reported
// for diagnostics only.
func (w *World) ForceStep() float64 {
	tasks := make([]*partition, len(w.partitions))
	for i := range w.partitions {
		tasks[i] = &w.partitions[i]
	}
	dispatch.Submit(w.Pool, dispatch.Phase[*World, *partition]{
		Work: forceWork,
	}, w, tasks)

	var energy, bx, by float64
	for i := range w.partitions {
		p := &w.partitions[i]
		energy += p.energy
		bx += p.bx
		by += p.by
	}
	bx *= w.worldWeightInv
	by *= w.worldWeightInv

	for i := range w.Vertices {
		if !w.Vertices[i].Enabled() {
			continue
		}
		pos := w.scratchPos[i]
		w.Vertices[i].Pos = pairPos{X: pos.X - bx, Y: pos.Y - by}
	}

	w.MaxMove *= cooling
	w.RepulsionCap *= repulsionGrowth

	return energy
}

func forceWork(w *World, p *partition) {
	p.energy = 0
	p.bx, p.by = 0, 0
	for i := p.start; i < p.end; i++ {
		v := &w.Vertices[i]
		if !v.Enabled() {
			w.scratchPos[i] = v.Pos
			continue
		}
		newPos, e := computeVertexForce(w, i)
		w.scratchPos[i] = newPos
		p.energy += e
		p.bx += v.Weight * newPos.X
		p.by += v.Weight * newPos.Y
	}
}

// computeVertexForce computes vertex i's net displacement against
// every other enabled vertex: an attractive/repulsive spring term
// along existing edges plus an unconditional, capped repulsion term.
// The combined force is capped to maxMove; the returned energy is the
// pre-cap magnitude.
func computeVertexForce(w *World, i int) (pairPos, float64) {
	v1 := &w.Vertices[i]
	row := w.Edges[i]
	var forceX, forceY float64

	for j, v2 := range w.Vertices {
		if j == i || v2.Weight <= 0 {
			continue
		}

		relax := v1.Radius + v2.Radius + relaxExtra
		dist := math.Hypot(v1.Pos.X-v2.Pos.X, v1.Pos.Y-v2.Pos.Y)

		var e float64
		if edgeWeight := row[j]; edgeWeight > 0 {
			e = edgeWeight / v2.Weight * math.Pow(dist-relax, 2) / (v2.Weight + relax)
			if dist < relax {
				e = -e
			}
		}

		rep := math.Pow(v2.Weight+relax, 2) / dist
		if cap := w.RepulsionCap * v2.Weight; rep > cap {
			rep = cap
		}
		rep -= 0.01
		e -= rep

		normX := (v2.Pos.X - v1.Pos.X) / dist
		normY := (v2.Pos.Y - v1.Pos.Y) / dist
		e /= v1.Weight
		forceX += e * normX
		forceY += e * normY
	}

	energy := math.Hypot(forceX, forceY)
	if energy > w.MaxMove {
		scale := w.MaxMove / energy
		forceX *= scale
		forceY *= scale
	}

	return pairPos{X: v1.Pos.X + forceX, Y: v1.Pos.Y + forceY}, energy
}
