package glass

import (
	"encoding/json"
	"fmt"
	"io"
)

// DatasetRecord is one shape in a dataset file. Width and tint alpha are not
// part of the record; they come from the live controls.
type DatasetRecord struct {
	ID       string `json:"id"`
	Position struct {
		X float32 `json:"x"`
		Y float32 `json:"y"`
	} `json:"position"`
	Size struct {
		Height float32 `json:"height"`
	} `json:"size"`
	ZIndex int      `json:"zIndex"`
	Tint   [3]uint8 `json:"tint"`
}

// DecodeDataset reads a JSON array of records.
func DecodeDataset(r io.Reader) ([]DatasetRecord, error) {
	var records []DatasetRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return records, nil
}

// ShapesFromDataset converts records into shapes with the given global
// width. Positions and heights are used as given; any device pixel ratio
// scaling is the caller's job.
func ShapesFromDataset(records []DatasetRecord, width float32) []Shape {
	shapes := make([]Shape, 0, len(records))
	for _, rec := range records {
		sh := defaultShape()
		sh.ID = rec.ID
		sh.Position = Vec2{X: rec.Position.X, Y: rec.Position.Y}
		sh.Size = Size{Width: width, Height: rec.Size.Height}
		sh.ZIndex = rec.ZIndex
		sh.Tint = RGB{R: rec.Tint[0], G: rec.Tint[1], B: rec.Tint[2]}
		shapes = append(shapes, sh)
	}
	return shapes
}

// ScaleDataset multiplies positions and heights by dpr in place.
func ScaleDataset(records []DatasetRecord, dpr float32) {
	for i := range records {
		records[i].Position.X *= dpr
		records[i].Position.Y *= dpr
		records[i].Size.Height *= dpr
	}
}
