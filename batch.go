package glass

import (
	"cmp"
	"slices"
)

// Batch is a group of visible shapes sharing (zIndex, tint), small enough to
// fit one shader's fixed-size uniform arrays.
type Batch struct {
	Shapes []Shape
	ZIndex int
	Tint   RGB
}

// BatchResult is the per-frame batching outcome.
type BatchResult struct {
	Batches     []Batch
	MaxPerBatch int
}

// Topology is the part of a batching result that decides the shape of the
// render graph. Programs and framebuffers are rebuilt only when it changes.
type Topology struct {
	Batches   int
	MaxShapes int
}

// Topology returns the render-graph key for this result.
func (r BatchResult) Topology() Topology {
	return Topology{Batches: len(r.Batches), MaxShapes: r.MaxPerBatch}
}

// ShapeCount returns the total number of shapes across all batches.
func (r BatchResult) ShapeCount() int {
	n := 0
	for _, b := range r.Batches {
		n += len(b.Shapes)
	}
	return n
}

type batchKey struct {
	z    int
	tint RGB
}

// Batch groups visible shapes by (zIndex, tint), splits groups larger than
// maxPerBatch, and orders the result by ascending zIndex. Groups at equal
// zIndex keep the order in which their key first appeared.
//
// Two batches at the same zIndex with different tints are separate draw
// calls and do not SDF-merge with each other.
func (s *ShapeStore) Batch(maxPerBatch int) BatchResult {
	if maxPerBatch < 1 {
		maxPerBatch = 1
	}

	var keys []batchKey
	groups := make(map[batchKey][]Shape)
	for _, sh := range s.shapes {
		if !sh.Visible {
			continue
		}
		k := batchKey{z: sh.ZIndex, tint: sh.Tint}
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], sh)
	}

	var batches []Batch
	for _, k := range keys {
		for chunk := range slices.Chunk(groups[k], maxPerBatch) {
			batches = append(batches, Batch{Shapes: chunk, ZIndex: k.z, Tint: k.tint})
		}
	}

	slices.SortStableFunc(batches, func(a, b Batch) int {
		return cmp.Compare(a.ZIndex, b.ZIndex)
	})

	return BatchResult{Batches: batches, MaxPerBatch: maxPerBatch}
}

// Fields resolves the distance fields of every shape in the batch.
func (b Batch) Fields() []ShapeField {
	out := make([]ShapeField, len(b.Shapes))
	for i, sh := range b.Shapes {
		out[i] = FieldFromShape(sh)
	}
	return out
}
