package glass

import (
	"cmp"
	"slices"
	"strconv"
)

// ShapeStore owns the authoritative set of shapes.
//
// Stored order is insertion order; depth ordering is applied by HitTest and
// Batch, never stored. All methods run on the frame tick and are not safe for
// concurrent use.
type ShapeStore struct {
	shapes   []Shape
	index    map[string]int
	selected string
	nextID   uint64
}

// NewShapeStore creates an empty store.
func NewShapeStore() *ShapeStore {
	return &ShapeStore{index: make(map[string]int)}
}

// Len returns the number of stored shapes, visible or not.
func (s *ShapeStore) Len() int {
	return len(s.shapes)
}

// Add inserts a shape built from the patch with defaults applied and returns
// its id. An empty patch id gets a generated one. Returns "" if the id is
// already taken.
func (s *ShapeStore) Add(p ShapePatch) string {
	sh := defaultShape()
	p.apply(&sh)
	sh.ID = p.ID
	if sh.ID == "" {
		sh.ID = s.generateID()
	}
	if _, exists := s.index[sh.ID]; exists {
		storeLogger().Debug("add rejected, duplicate id", "id", sh.ID)
		return ""
	}
	s.index[sh.ID] = len(s.shapes)
	s.shapes = append(s.shapes, sh)
	return sh.ID
}

func (s *ShapeStore) generateID() string {
	for {
		s.nextID++
		id := "shape_" + strconv.FormatUint(s.nextID, 10)
		if _, exists := s.index[id]; !exists {
			return id
		}
	}
}

// Remove deletes a shape. Returns false if the id is unknown.
func (s *ShapeStore) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		storeLogger().Debug("remove of unknown shape", "id", id)
		return false
	}
	s.shapes = slices.Delete(s.shapes, i, i+1)
	delete(s.index, id)
	for j := i; j < len(s.shapes); j++ {
		s.index[s.shapes[j].ID] = j
	}
	if s.selected == id {
		s.selected = ""
	}
	return true
}

// Get returns a copy of the shape with the given id.
func (s *ShapeStore) Get(id string) (Shape, bool) {
	i, ok := s.index[id]
	if !ok {
		return Shape{}, false
	}
	return s.shapes[i], true
}

// All returns a copy of every shape in insertion order.
func (s *ShapeStore) All() []Shape {
	return slices.Clone(s.shapes)
}

// Visible returns a copy of the visible shapes in insertion order.
func (s *ShapeStore) Visible() []Shape {
	out := make([]Shape, 0, len(s.shapes))
	for _, sh := range s.shapes {
		if sh.Visible {
			out = append(out, sh)
		}
	}
	return out
}

// Update shallow-merges the patch into an existing shape. Returns false if
// the id is unknown.
func (s *ShapeStore) Update(id string, p ShapePatch) bool {
	i, ok := s.index[id]
	if !ok {
		storeLogger().Debug("update of unknown shape", "id", id)
		return false
	}
	p.apply(&s.shapes[i])
	return true
}

// SetPosition moves a shape.
func (s *ShapeStore) SetPosition(id string, pos Vec2) bool {
	return s.Update(id, ShapePatch{Position: &pos})
}

// SetZIndex changes a shape's depth group. The store does not clamp; the
// interaction layer keeps values non-negative.
func (s *ShapeStore) SetZIndex(id string, z int) bool {
	return s.Update(id, ShapePatch{ZIndex: &z})
}

// SetVisible shows or hides a shape.
func (s *ShapeStore) SetVisible(id string, visible bool) bool {
	return s.Update(id, ShapePatch{Visible: &visible})
}

// Replace swaps the whole shape set, as on a dataset reload. Shapes with
// duplicate ids after the first are dropped.
func (s *ShapeStore) Replace(shapes []Shape) {
	s.shapes = make([]Shape, 0, len(shapes))
	s.index = make(map[string]int, len(shapes))
	s.selected = ""
	for _, sh := range shapes {
		if sh.ID == "" {
			sh.ID = s.generateID()
		}
		if _, dup := s.index[sh.ID]; dup {
			storeLogger().Warn("dataset contains duplicate id, dropped", "id", sh.ID)
			continue
		}
		s.index[sh.ID] = len(s.shapes)
		s.shapes = append(s.shapes, sh)
	}
}

// Select marks a shape for keyboard inspection. An empty id clears the
// selection. Returns false if the id is unknown.
func (s *ShapeStore) Select(id string) bool {
	if id == "" {
		s.selected = ""
		return true
	}
	if _, ok := s.index[id]; !ok {
		return false
	}
	s.selected = id
	return true
}

// Selected returns the selected shape id, or "" when nothing is selected.
func (s *ShapeStore) Selected() string {
	if _, ok := s.index[s.selected]; !ok {
		return ""
	}
	return s.selected
}

// SelectIndex selects the i-th shape in insertion order.
func (s *ShapeStore) SelectIndex(i int) bool {
	if i < 0 || i >= len(s.shapes) {
		return false
	}
	s.selected = s.shapes[i].ID
	return true
}

// CycleSelection advances the selection to the next shape in insertion
// order, wrapping around, and skipping the hover bubble.
func (s *ShapeStore) CycleSelection() string {
	n := len(s.shapes)
	if n == 0 {
		s.selected = ""
		return ""
	}
	start := -1
	if i, ok := s.index[s.selected]; ok {
		start = i
	}
	for step := 1; step <= n; step++ {
		sh := s.shapes[(start+step+n)%n]
		if sh.ID != HoverShapeID {
			s.selected = sh.ID
			return sh.ID
		}
	}
	return s.Selected()
}

// byDepth returns the visible shapes stably sorted by ascending zIndex.
func (s *ShapeStore) byDepth() []Shape {
	vis := s.Visible()
	slices.SortStableFunc(vis, func(a, b Shape) int {
		return cmp.Compare(a.ZIndex, b.ZIndex)
	})
	return vis
}

// HitTest returns the frontmost visible shape whose bounding box contains
// the world point. Bounding boxes are used instead of exact SDF containment,
// so rounded corners register hits slightly outside the drawn outline.
func (s *ShapeStore) HitTest(world Vec2) (string, bool) {
	sorted := s.byDepth()
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Bounds().Contains(world) {
			return sorted[i].ID, true
		}
	}
	return "", false
}

// Group returns the visible shapes sharing the given zIndex.
func (s *ShapeStore) Group(z int) []Shape {
	var out []Shape
	for _, sh := range s.shapes {
		if sh.Visible && sh.ZIndex == z {
			out = append(out, sh)
		}
	}
	return out
}

// MaxZIndex returns the largest zIndex among visible shapes, or 0.
func (s *ShapeStore) MaxZIndex() int {
	maxZ := 0
	for _, sh := range s.shapes {
		if sh.Visible && sh.ZIndex > maxZ {
			maxZ = sh.ZIndex
		}
	}
	return maxZ
}
