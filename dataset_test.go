package glass

import (
	"strings"
	"testing"
)

const sampleDataset = `[
  {"id": "first", "position": {"x": 10, "y": -20}, "size": {"height": 120}, "zIndex": 1, "tint": [255, 128, 0]},
  {"id": "second", "position": {"x": 0, "y": 0}, "size": {"height": 80}, "zIndex": 0, "tint": [0, 0, 255]},
  {"id": "first", "position": {"x": 5, "y": 5}, "size": {"height": 10}, "zIndex": 3, "tint": [0, 0, 0]}
]`

func TestDataset_EndToEnd(t *testing.T) {
	records, err := DecodeDataset(strings.NewReader(sampleDataset))
	if err != nil {
		t.Fatalf("Expected records, got %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	ScaleDataset(records, 2)
	if records[0].Position.X != 20 || records[0].Position.Y != -40 || records[0].Size.Height != 240 {
		t.Errorf("Expected scaled record, got %+v", records[0])
	}

	shapes := ShapesFromDataset(records, 150)
	first := shapes[0]
	if first.Size != (Size{Width: 150, Height: 240}) || first.ZIndex != 1 || first.Tint != (RGB{R: 255, G: 128}) {
		t.Errorf("Expected converted shape, got %+v", first)
	}
	if first.Radius != 80 || first.Roundness != 5 || !first.Visible || !first.Draggable {
		t.Errorf("Expected shape defaults, got %+v", first)
	}

	s := NewShapeStore()
	s.Replace(shapes)
	if s.Len() != 2 {
		t.Errorf("Expected the duplicate id dropped, got %d shapes", s.Len())
	}
	if sh, _ := s.Get("first"); sh.ZIndex != 1 {
		t.Errorf("Expected the first record kept, got z %d", sh.ZIndex)
	}
}

func TestDecodeDataset_Invalid(t *testing.T) {
	if _, err := DecodeDataset(strings.NewReader(`{"id": "not an array"}`)); err == nil {
		t.Error("Expected an error for a non-array document")
	}
}

func TestDataset_TouchingShapesMergeIntoOneBlob(t *testing.T) {
	const doc = `[
  {"id": "a", "position": {"x": -100, "y": 0}, "size": {"height": 200}, "zIndex": 0, "tint": [255, 0, 0]},
  {"id": "b", "position": {"x": 100, "y": 0}, "size": {"height": 200}, "zIndex": 0, "tint": [255, 0, 0]}
]`
	records, err := DecodeDataset(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Expected records, got %v", err)
	}
	s := NewShapeStore()
	s.Replace(ShapesFromDataset(records, 200))

	result := s.Batch(DefaultControls().MaxShapesPerBatch)
	if len(result.Batches) != 1 || len(result.Batches[0].Shapes) != 2 {
		t.Fatalf("Expected both shapes in one batch, got %+v", result.Batches)
	}

	fc := FrameContext{Controls: DefaultControls(), Resolution: Vec2{X: 800, Y: 600}, DPR: 1}
	fields := result.Batches[0].Fields()
	mid := Vec2{}
	for _, f := range fields {
		if d := f.Distance(mid); !near(d, 0, 0.01) {
			t.Errorf("Expected the shapes to touch at the midpoint, got %v", d)
		}
	}
	if d := MergedDistance(mid, fields, fc.MergeK()); d >= 0 {
		t.Errorf("Expected the midpoint inside the merged blob, got %v", d)
	}
}
