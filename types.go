package glass

import "github.com/chewxy/math32"

// Vec2 represents a 2D vector for positions, sizes and offsets.
type Vec2 struct {
	X, Y float32
}

// Add returns the sum of two vectors.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns the difference of two vectors.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul returns the vector scaled by a scalar.
func (v Vec2) Mul(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Abs returns the component-wise absolute value.
func (v Vec2) Abs() Vec2 {
	return Vec2{X: math32.Abs(v.X), Y: math32.Abs(v.Y)}
}

// Len returns the Euclidean length.
func (v Vec2) Len() float32 {
	return math32.Hypot(v.X, v.Y)
}

// Normalize returns the unit vector, or the zero vector for zero input.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Size is a width/height pair in world units.
type Size struct {
	Width, Height float32
}

// Half returns the half extents as a vector.
func (s Size) Half() Vec2 {
	return Vec2{X: s.Width / 2, Y: s.Height / 2}
}

// Bounds is an axis-aligned box given by center and size, in world space.
type Bounds struct {
	Center Vec2
	Size   Size
}

// Contains returns true if the point lies inside or on the box.
func (b Bounds) Contains(p Vec2) bool {
	d := p.Sub(b.Center).Abs()
	h := b.Size.Half()
	return d.X <= h.X && d.Y <= h.Y
}

// RGB is an 8-bit per channel color. Alpha is a global control.
type RGB struct {
	R, G, B uint8
}

// White is the default shape tint.
var White = RGB{R: 255, G: 255, B: 255}

// Floats returns the color as normalized [0,1] components.
func (c RGB) Floats() [3]float32 {
	return [3]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}

// RGBA is a linear float color used by the shading model.
type RGBA struct {
	R, G, B, A float32
}

// Mix linearly interpolates between two colors.
func (c RGBA) Mix(other RGBA, t float32) RGBA {
	return RGBA{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// clampf clamps a float32 value to a range.
func clampf(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// smoothstep is the GLSL Hermite smoothstep.
func smoothstep(edge0, edge1, x float32) float32 {
	t := clampf((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}
