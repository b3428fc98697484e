package glass

// HoverShapeID is reserved for the ephemeral interaction bubble.
const HoverShapeID = "hover_shape"

// Shape defaults applied by ShapeStore.Add.
const (
	DefaultShapeWidth     float32 = 200
	DefaultShapeHeight    float32 = 200
	DefaultShapeRadius    float32 = 80
	DefaultShapeRoundness float32 = 5
)

// Shape is a rounded glass panel.
type Shape struct {
	ID        string
	Position  Vec2    // world-space center
	Size      Size    // world-space extent
	Radius    float32 // corner rounding, percent of min(width,height)/2
	Roundness float32 // superellipse exponent
	Visible   bool
	Draggable bool
	ZIndex    int // depth and merge group key
	Tint      RGB
}

// Bounds returns the world-space bounding box of the shape.
func (s Shape) Bounds() Bounds {
	return Bounds{Center: s.Position, Size: s.Size}
}

// ShapePatch is a partial shape. Nil fields are left untouched by Update and
// take their defaults in Add.
type ShapePatch struct {
	ID        string
	Position  *Vec2
	Size      *Size
	Radius    *float32
	Roundness *float32
	Visible   *bool
	Draggable *bool
	ZIndex    *int
	Tint      *RGB
}

// Ptr returns a pointer to v. Convenient for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// defaultShape returns a shape with every default applied.
func defaultShape() Shape {
	return Shape{
		Size:      Size{Width: DefaultShapeWidth, Height: DefaultShapeHeight},
		Radius:    DefaultShapeRadius,
		Roundness: DefaultShapeRoundness,
		Visible:   true,
		Draggable: true,
		Tint:      White,
	}
}

// apply shallow-merges the non-nil patch fields into s. The id is never
// changed by a patch.
func (p ShapePatch) apply(s *Shape) {
	if p.Position != nil {
		s.Position = *p.Position
	}
	if p.Size != nil {
		s.Size = *p.Size
	}
	if p.Radius != nil {
		s.Radius = *p.Radius
	}
	if p.Roundness != nil {
		s.Roundness = *p.Roundness
	}
	if p.Visible != nil {
		s.Visible = *p.Visible
	}
	if p.Draggable != nil {
		s.Draggable = *p.Draggable
	}
	if p.ZIndex != nil {
		s.ZIndex = *p.ZIndex
	}
	if p.Tint != nil {
		s.Tint = *p.Tint
	}
}
