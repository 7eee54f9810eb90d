package layout

import (
	"fmt"
	"math"
	"sort"

	"github.com/kpahula/forcelayout/internal/dispatch"
)

// Vertex is one node of the graph: its current position, derived
// radius and weight. A weight of -Inf marks the vertex as disabled
// (excluded from the connected component of the heaviest vertex); a
// weight of 0 is also disabled. See spec.md §3.
type Vertex struct {
	Pos    pairPos
	Radius float64
	Weight float64
}

// Enabled reports whether v participates in force, overlap and
// alignment computation.
func (v Vertex) Enabled() bool {
	return v.Weight > 0
}

func radiusOf(weight float64) float64 {
	return math.Sqrt(weight) / math.Pi
}

// partition is a contiguous, half-open range of vertex indices owned
// by one task for the duration of a single phase. The scratch fields
// are written only by the task that owns this partition during that
// phase and read by the dispatcher after the barrier — see spec.md §5.
type partition struct {
	start, end int

	// scratch, force step
	energy float64
	bx, by float64

	// scratch, iterative sparsify step
	overlap float64
}

// World owns the vertices, the dense edge matrix, the tunable
// simulation parameters and the partitioning used by every phase.
type World struct {
	Vertices []Vertex
	Edges    [][]float64 // dense N×N, Edges[i][j] == Edges[j][i]
	N        int

	externalID []int         // dense index -> external id
	indexOf    map[int]int   // external id -> dense index
	maxID      int

	MaxMove        float64
	RepulsionCap   float64
	worldWeightInv float64

	partitions []partition
	scratchPos []pairPos

	Pool *dispatch.Pool
}

// BuildWorld constructs a World from a parsed input document. threads
// configures the worker pool (0 = auto-detect, capped at maxThreads).
// initialPositions, if non-nil, is applied after the concentric-ring
// seeding and before edges are built — overriding the position and
// weight of every matching vertex — exactly where original_source's
// world.c calls load_world_positions, which matters because the
// heaviest-vertex selection used for the connected-component closure
// below is computed from the un-overridden item weights, not from
// whatever -p supplies.
func BuildWorld(doc *InputDocument, threads int, initialPositions *PositionDocument) (*World, error) {
	n := len(doc.Items)
	if n == 0 {
		return nil, fmt.Errorf("forcelayout: input graph has no items")
	}

	keys := make([]string, 0, n)
	for k := range doc.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys) // lexicographic on the string form, per spec.md §3

	w := &World{
		N:            n,
		Vertices:     make([]Vertex, n),
		externalID:   make([]int, n),
		indexOf:      make(map[int]int, n),
		MaxMove:      initialMaxMove,
		RepulsionCap: initialRepulsionCap,
	}

	heaviestWeight := 0.0
	heaviestExternalID := -1

	for i, key := range keys {
		id, err := parseID(key)
		if err != nil {
			return nil, fmt.Errorf("forcelayout: invalid item id %q: %w", key, err)
		}
		if id > w.maxID {
			w.maxID = id
		}

		weight := 1 + float64(doc.Items[key].Weight)
		if weight > heaviestWeight {
			heaviestWeight = weight
			heaviestExternalID = id
		}

		mult := i % 16
		theta := 2 * math.Pi * float64(i) / float64(n)
		w.Vertices[i] = Vertex{
			Pos:    pairPos{X: float64(mult+8) * 10 * math.Sin(theta), Y: float64(mult+8) * 10 * math.Cos(theta)},
			Radius: radiusOf(weight),
			Weight: weight,
		}
		w.externalID[i] = id
		w.indexOf[id] = i
	}

	if heaviestExternalID < 0 {
		return nil, fmt.Errorf("forcelayout: no vertex has positive weight")
	}

	if initialPositions != nil {
		applyPositionDocument(w, initialPositions, w.Vertices)
	}

	w.Edges = make([][]float64, n)
	for i := range w.Edges {
		w.Edges[i] = make([]float64, n)
	}

	for _, pick := range doc.Picks {
		for i := 0; i < len(pick); i++ {
			refI, ok := w.indexOf[int(pick[i])]
			if !ok {
				continue
			}
			for j := i + 1; j < len(pick); j++ {
				refJ, ok := w.indexOf[int(pick[j])]
				if !ok {
					continue
				}
				w.Edges[refI][refJ]++
				w.Edges[refJ][refI]++
			}
		}
	}

	heaviestIndex := w.indexOf[heaviestExternalID]
	closure := connectedClosure(w.Edges, heaviestIndex)
	for i := 0; i < n; i++ {
		if !closure[i] && w.Vertices[i].Weight > 0 {
			w.Vertices[i].Weight = math.Inf(-1)
		}
	}

	w.worldWeightInv = 0
	for i := 0; i < n; i++ {
		if !math.IsInf(w.Vertices[i].Weight, -1) {
			w.worldWeightInv += w.Vertices[i].Weight
		}
	}
	if w.worldWeightInv == 0 {
		return nil, fmt.Errorf("forcelayout: total enabled vertex weight is zero")
	}
	w.worldWeightInv = 1 / w.worldWeightInv

	w.partitions = computePartitions(n)
	w.scratchPos = make([]pairPos, n)
	w.Pool = dispatch.New(threads, maxThreads)

	return w, nil
}

// connectedClosure performs a depth-first walk of the positive-weight
// edge graph starting at root, using an explicit stack rather than
// recursion — spec.md §9 flags the original's recursive
// count_edge_closure as a stack-overflow risk on large graphs.
func connectedClosure(edges [][]float64, root int) []bool {
	n := len(edges)
	visited := make([]bool, n)
	stack := []int{root}
	visited[root] = true
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		row := edges[i]
		for j := 0; j < n; j++ {
			if j == i || visited[j] {
				continue
			}
			if row[j] > 0 {
				visited[j] = true
				stack = append(stack, j)
			}
		}
	}
	return visited
}

// computePartitions slices [0, n) into contiguous ranges sized so a
// partition's bookkeeping plus its share of position scratch stays
// near partitionTargetBytes — a cache-footprint knob, not a page size
// (spec.md §9). headerBytes approximates a partition's own fixed-size
// fields; 16 is sizeof(pairPos) (two float64s).
func computePartitions(n int) []partition {
	const headerBytes = 32
	itemsPerPartition := (partitionTargetBytes - headerBytes) / 16
	if itemsPerPartition < 1 {
		itemsPerPartition = 1
	}

	var parts []partition
	for start := 0; start < n; start += itemsPerPartition {
		end := start + itemsPerPartition
		if end > n {
			end = n
		}
		parts = append(parts, partition{start: start, end: end})
	}
	return parts
}

func parseID(s string) (int, error) {
	var id int
	_, err := fmt.Sscanf(s, "%d", &id)
	return id, err
}

// ExternalID returns the external id for a dense index.
func (w *World) ExternalID(denseIndex int) int {
	return w.externalID[denseIndex]
}

// DenseIndex returns the dense index for an external id and whether it
// exists in this world.
func (w *World) DenseIndex(externalID int) (int, bool) {
	i, ok := w.indexOf[externalID]
	return i, ok
}

// Close releases the world's worker pool.
func (w *World) Close() {
	w.Pool.Close()
}
