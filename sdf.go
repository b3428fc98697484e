package glass

import "github.com/chewxy/math32"

// SuperellipseCornerDistance returns the distance from p to a superellipse
// corner of radius r and exponent n, with p measured from the corner center.
// n == 2 is a circular corner; larger n gives squarer corners.
func SuperellipseCornerDistance(p Vec2, n, r float32) float32 {
	a := p.Abs()
	return math32.Pow(math32.Pow(a.X, n)+math32.Pow(a.Y, n), 1/n) - r
}

// RoundedShapeDistance returns the signed distance from p (relative to the
// shape center) to a rounded superellipse with the given half extents.
// Negative values are inside.
func RoundedShapeDistance(p, halfSize Vec2, radius, n float32) float32 {
	radius = clampf(radius, 0, math32.Min(halfSize.X, halfSize.Y))
	q := p.Abs().Sub(halfSize)

	// Corner region on both axes: superellipse around the corner center.
	if q.X > -radius && q.Y > -radius {
		c := Vec2{X: q.X + radius, Y: q.Y + radius}
		return SuperellipseCornerDistance(c, n, radius)
	}

	outside := Vec2{X: math32.Max(q.X, 0), Y: math32.Max(q.Y, 0)}.Len()
	inside := math32.Min(math32.Max(q.X, q.Y), 0)
	return outside + inside
}

// SmoothMin blends two distances so that shapes closer than k fuse into one
// blob. k <= 0 degenerates to a hard min.
func SmoothMin(a, b, k float32) float32 {
	m := math32.Min(a, b)
	if k <= 0 {
		return m
	}
	h := clampf(k-math32.Abs(a-b), 0, k) / k
	return m - h*h*k/4
}

// ShapeField is the resolved distance field of a single shape.
type ShapeField struct {
	Center    Vec2
	Half      Vec2
	Radius    float32 // absolute corner radius
	Roundness float32 // superellipse exponent
}

// FieldFromShape resolves a shape's percentage radius into an absolute one.
func FieldFromShape(s Shape) ShapeField {
	half := s.Size.Half()
	return ShapeField{
		Center:    s.Position,
		Half:      half,
		Radius:    s.Radius / 100 * math32.Min(half.X, half.Y),
		Roundness: s.Roundness,
	}
}

// Distance returns the signed distance from p to this shape.
func (f ShapeField) Distance(p Vec2) float32 {
	return RoundedShapeDistance(p.Sub(f.Center), f.Half, f.Radius, f.Roundness)
}

// MergedDistance folds SmoothMin left to right over one depth group.
// An empty group is infinitely far away.
func MergedDistance(p Vec2, fields []ShapeField, k float32) float32 {
	if len(fields) == 0 {
		return math32.Inf(1)
	}
	d := fields[0].Distance(p)
	for _, f := range fields[1:] {
		d = SmoothMin(d, f.Distance(p), k)
	}
	return d
}

// EstimateNormal returns the normalized central-difference gradient of field
// at p, sampled one unit away on each axis.
func EstimateNormal(field func(Vec2) float32, p Vec2) Vec2 {
	dx := field(Vec2{X: p.X + 1, Y: p.Y}) - field(Vec2{X: p.X - 1, Y: p.Y})
	dy := field(Vec2{X: p.X, Y: p.Y + 1}) - field(Vec2{X: p.X, Y: p.Y - 1})
	return Vec2{X: dx, Y: dy}.Normalize()
}

// GlareAngle is the angle of the surface normal used by the glare term.
func GlareAngle(normal Vec2) float32 {
	return math32.Atan2(normal.Y, normal.X)
}
