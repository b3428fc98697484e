package glass

import "github.com/chewxy/math32"

// Camera maps between world space (Y up) and screen pixels (Y down) with an
// orthographic pan/zoom.
type Camera struct {
	position       Vec2
	zoom           float32
	viewportWidth  float32
	viewportHeight float32

	dirty      bool
	projection [16]float32
	view       [16]float32
}

// NewCamera creates a camera centered on the world origin at zoom 1.
func NewCamera(viewportWidth, viewportHeight float32) *Camera {
	return &Camera{
		zoom:           1,
		viewportWidth:  viewportWidth,
		viewportHeight: viewportHeight,
		dirty:          true,
	}
}

// SetViewportSize updates the viewport in pixels.
func (c *Camera) SetViewportSize(w, h float32) {
	if w == c.viewportWidth && h == c.viewportHeight {
		return
	}
	c.viewportWidth, c.viewportHeight = w, h
	c.dirty = true
}

// SetCenter moves the world-space look-at point.
func (c *Camera) SetCenter(x, y float32) {
	c.position = Vec2{X: x, Y: y}
	c.dirty = true
}

// SetZoom sets world-units-to-pixels scale. Non-positive values are ignored.
func (c *Camera) SetZoom(z float32) {
	if z <= 0 || math32.IsNaN(z) {
		return
	}
	c.zoom = z
	c.dirty = true
}

// Center returns the world-space look-at point.
func (c *Camera) Center() Vec2 { return c.position }

// Zoom returns the current zoom.
func (c *Camera) Zoom() float32 { return c.zoom }

// ViewportSize returns the viewport size in pixels.
func (c *Camera) ViewportSize() (w, h float32) {
	return c.viewportWidth, c.viewportHeight
}

// Projection returns the column-major orthographic projection matrix.
func (c *Camera) Projection() [16]float32 {
	c.update()
	return c.projection
}

// View returns the column-major view matrix (a translation by -center).
func (c *Camera) View() [16]float32 {
	c.update()
	return c.view
}

func (c *Camera) update() {
	if !c.dirty {
		return
	}
	hw := c.viewportWidth / (2 * c.zoom)
	hh := c.viewportHeight / (2 * c.zoom)
	c.projection = orthoMatrix(-hw, hw, -hh, hh, -1, 1)
	c.view = translationMatrix(-c.position.X, -c.position.Y)
	c.dirty = false
}

// WorldToScreen converts a world point to screen pixels (origin top-left,
// Y down).
func (c *Camera) WorldToScreen(x, y float32) Vec2 {
	c.update()
	clip := transformPoint(mulMatrix(c.projection, c.view), x, y)
	ndcX, ndcY := clip[0]/clip[3], clip[1]/clip[3]
	return Vec2{
		X: (ndcX + 1) / 2 * c.viewportWidth,
		Y: (1 - ndcY) / 2 * c.viewportHeight,
	}
}

// ScreenToWorld converts screen pixels to a world point. It is the exact
// inverse of WorldToScreen for a non-empty viewport.
func (c *Camera) ScreenToWorld(x, y float32) Vec2 {
	if c.viewportWidth == 0 || c.viewportHeight == 0 {
		return c.position
	}
	ndcX := x/c.viewportWidth*2 - 1
	ndcY := 1 - y/c.viewportHeight*2
	hw := c.viewportWidth / (2 * c.zoom)
	hh := c.viewportHeight / (2 * c.zoom)
	return Vec2{X: ndcX*hw + c.position.X, Y: ndcY*hh + c.position.Y}
}

// ScreenDeltaToWorld converts a pointer delta in pixels into world units.
func (c *Camera) ScreenDeltaToWorld(d Vec2) Vec2 {
	return Vec2{X: d.X / c.zoom, Y: -d.Y / c.zoom}
}

// FitToView centers the camera on the bounding box of nodes grown by padding
// on every side, and zooms so the box fits. Auto-fit never zooms in past 1.
// Returns false when there is nothing to fit.
func (c *Camera) FitToView(nodes []Bounds, padding float32) bool {
	if len(nodes) == 0 {
		return false
	}
	minX, minY := math32.Inf(1), math32.Inf(1)
	maxX, maxY := math32.Inf(-1), math32.Inf(-1)
	for _, n := range nodes {
		h := n.Size.Half()
		minX = math32.Min(minX, n.Center.X-h.X)
		maxX = math32.Max(maxX, n.Center.X+h.X)
		minY = math32.Min(minY, n.Center.Y-h.Y)
		maxY = math32.Max(maxY, n.Center.Y+h.Y)
	}
	minX -= padding
	minY -= padding
	maxX += padding
	maxY += padding

	boxW := math32.Max(maxX-minX, 1e-3)
	boxH := math32.Max(maxY-minY, 1e-3)
	c.SetCenter((minX+maxX)/2, (minY+maxY)/2)
	zoom := math32.Min(c.viewportWidth/boxW, c.viewportHeight/boxH)
	c.SetZoom(math32.Min(zoom, 1))
	return true
}

// ShaderPosition converts a screen-space shape center into the value pushed
// to the shape position uniforms. Y moves to a bottom-left origin to match
// gl_FragCoord, and X is negated. The shaders negate X back when forming the
// local vector, so both sides must change together.
func ShaderPosition(screen Vec2, viewportHeight float32) Vec2 {
	return Vec2{X: -screen.X, Y: viewportHeight - screen.Y}
}

// ScreenFromShaderPosition inverts ShaderPosition.
func ScreenFromShaderPosition(p Vec2, viewportHeight float32) Vec2 {
	return Vec2{X: -p.X, Y: viewportHeight - p.Y}
}

// orthoMatrix creates an orthographic projection matrix.
func orthoMatrix(left, right, bottom, top, near, far float32) [16]float32 {
	return [16]float32{
		2 / (right - left), 0, 0, 0,
		0, 2 / (top - bottom), 0, 0,
		0, 0, -2 / (far - near), 0,
		-(right + left) / (right - left), -(top + bottom) / (top - bottom), -(far + near) / (far - near), 1,
	}
}

// translationMatrix creates a column-major 2D translation.
func translationMatrix(x, y float32) [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, 0, 1,
	}
}

// mulMatrix returns a*b for column-major 4x4 matrices.
func mulMatrix(a, b [16]float32) [16]float32 {
	var out [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// transformPoint applies m to (x, y, 0, 1).
func transformPoint(m [16]float32, x, y float32) [4]float32 {
	return [4]float32{
		m[0]*x + m[4]*y + m[12],
		m[1]*x + m[5]*y + m[13],
		m[2]*x + m[6]*y + m[14],
		m[3]*x + m[7]*y + m[15],
	}
}
