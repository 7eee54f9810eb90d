package layout

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// json is the jsoniter instance used throughout this package, kept
// compatible with encoding/json's struct-tag behavior. Grounded on
// nmxmxh-master-ovasabi/pkg/json/json.go, which wraps the same
// jsoniter config behind package-level Marshal/Unmarshal vars; the
// teacher repo has no JSON concern of its own to imitate.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// itemDoc is one entry of the input document's "items" map.
type itemDoc struct {
	Weight int64 `json:"weight"`
}

// InputDocument is the graph description read from disk: a map from
// stringified external id to its base weight, and a set of "pick"
// groups, each of which contributes +1 to the edge weight between
// every unordered pair of its members. See spec.md §6.
type InputDocument struct {
	Items map[string]itemDoc `json:"items"`
	Picks map[string][]int64 `json:"picks"`
}

// LoadInputDocument reads and parses a graph description file.
func LoadInputDocument(path string) (*InputDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("forcelayout: reading input %s: %w", path, err)
	}
	var doc InputDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("forcelayout: parsing input %s: %w", path, err)
	}
	if doc.Items == nil {
		return nil, fmt.Errorf("forcelayout: input %s has no \"items\" object", path)
	}
	return &doc, nil
}

// positionEntry is one entry of the output/reference document schema:
// a simulated vertex's final position, radius and weight.
type positionEntry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Weight float64 `json:"weight"`
}

// PositionDocument is the schema shared by the output document and
// the reference/initial-position documents (spec.md §6): a map from
// stringified external id to its position, radius and weight.
type PositionDocument map[string]positionEntry

// LoadPositionDocument reads a position document (used for both -p
// initial positions and -r alignment reference — original_source's
// load_world_positions is the single function behind both call sites).
func LoadPositionDocument(path string) (*PositionDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("forcelayout: reading position document %s: %w", path, err)
	}
	var doc PositionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("forcelayout: parsing position document %s: %w", path, err)
	}
	return &doc, nil
}

// PositionLoadResult is what LoadPositionDocumentAsync delivers.
type PositionLoadResult struct {
	Doc *PositionDocument
	Err error
}

// LoadPositionDocumentAsync loads a position document on a dedicated
// goroutine, so disk I/O overlaps whatever the caller does next — the
// main driver submits this right after building the world and joins
// it only after sparsify has completed. original_source/world.c does
// the same with a pthread spawned right after init_world and joined
// with pthread_join after the sparsify loop (spec.md §4.4).
func LoadPositionDocumentAsync(path string) <-chan PositionLoadResult {
	result := make(chan PositionLoadResult, 1)
	go func() {
		doc, err := LoadPositionDocument(path)
		result <- PositionLoadResult{Doc: doc, Err: err}
	}()
	return result
}

// applyPositionDocument overlays doc onto dst, a slice parallel to
// w.Vertices (dense-indexed). Entries whose external id is unknown to
// w, or whose id exceeds the id space seen at construction, are
// ignored — matching load_world_positions's `rid != 0` / `keyval >
// maxid` guards.
func applyPositionDocument(w *World, doc *PositionDocument, dst []Vertex) {
	for key, entry := range *doc {
		id, err := parseID(key)
		if err != nil {
			continue
		}
		if w.maxID > 0 && id > w.maxID {
			continue
		}
		idx, ok := w.indexOf[id]
		if !ok {
			continue
		}
		dst[idx] = Vertex{
			Pos:    pairPos{X: entry.X, Y: entry.Y},
			Weight: entry.Weight,
			Radius: radiusOf(entry.Weight),
		}
	}
}

// LoadReferenceVertices loads a reference/position document into a
// fresh dense-indexed vertex slice, independent of w.Vertices, for use
// by alignment. Vertices not present in doc keep their zero value
// (Weight 0, i.e. disabled — spec.md §4.4: only vertices present in
// doc and with positive weight in both layouts contribute to the
// score).
func (w *World) LoadReferenceVertices(doc *PositionDocument) []Vertex {
	ref := make([]Vertex, w.N)
	applyPositionDocument(w, doc, ref)
	return ref
}

// DumpOutputDocument renders the world's current state as an output
// document: every vertex whose simulated weight is positive, keyed by
// its external id. Disabled vertices are omitted (spec.md §6).
func (w *World) DumpOutputDocument() PositionDocument {
	out := make(PositionDocument, w.N)
	for i, v := range w.Vertices {
		if v.Weight <= 0 {
			continue
		}
		out[fmt.Sprintf("%d", w.externalID[i])] = positionEntry{
			X:      v.Pos.X,
			Y:      v.Pos.Y,
			Radius: v.Radius,
			Weight: v.Weight,
		}
	}
	return out
}

// WriteOutputDocument marshals and writes the current world state to path.
func (w *World) WriteOutputDocument(path string) error {
	data, err := json.MarshalIndent(w.DumpOutputDocument(), "", "  ")
	if err != nil {
		return fmt.Errorf("forcelayout: encoding output: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("forcelayout: writing output %s: %w", path, err)
	}
	return nil
}
