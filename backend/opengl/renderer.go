// Package opengl provides an OpenGL 4.1 backend for the glass package.
package opengl

import (
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	xdraw "golang.org/x/image/draw"

	"github.com/go-theft-auto/glass"
)

func logger() *slog.Logger {
	return glass.Logger().With("backend", "opengl")
}

// Backend implements glass.Backend on an OpenGL 4.1 core context. All calls
// must come from the thread that owns the context.
type Backend struct {
	vao      uint32
	version  string
	renderer string
}

// NewBackend probes the current context and creates the shared state. gl.Init
// must already have succeeded. It returns glass.ErrCapability when the
// context is older than 4.1.
func NewBackend() (*Backend, error) {
	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major < 4 || (major == 4 && minor < 1) {
		return nil, fmt.Errorf("%w: OpenGL %d.%d, need 4.1", glass.ErrCapability, major, minor)
	}

	b := &Backend{
		version:  gl.GoStr(gl.GetString(gl.VERSION)),
		renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
	}
	// The full-screen triangle has no attributes, but core profile still
	// needs a bound VAO to draw.
	gl.GenVertexArrays(1, &b.vao)
	logger().Info("OpenGL backend ready", "version", b.version, "renderer", b.renderer)
	return b, nil
}

// Name implements glass.Backend.
func (b *Backend) Name() string { return "opengl" }

// NewProgram implements glass.Backend.
func (b *Backend) NewProgram(spec glass.ShaderSpec) (glass.Program, error) {
	return NewProgram(spec)
}

// NewTarget implements glass.Backend.
func (b *Backend) NewTarget(width, height int, depth bool) (glass.Target, error) {
	return NewFramebuffer(width, height, depth)
}

// NewTexture uploads img as an RGBA8 texture. Rows are flipped so texture
// coordinates share gl_FragCoord's bottom-left origin.
func (b *Backend) NewTexture(img image.Image) (glass.Texture, error) {
	rgba := flippedRGBA(img)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty texture image %dx%d", w, h)
	}
	t := &Texture{width: w, height: h}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	setSampling(gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return t, nil
}

// UpdateTexture replaces the contents of a texture of the same size.
func (b *Backend) UpdateTexture(tex glass.Texture, img image.Image) error {
	t, ok := tex.(*Texture)
	if !ok || t.id == 0 {
		return fmt.Errorf("update texture: not a live OpenGL texture (%T)", tex)
	}
	rgba := flippedRGBA(img)
	if rgba.Rect.Dx() != t.width || rgba.Rect.Dy() != t.height {
		return fmt.Errorf("update texture: size %dx%d, texture is %dx%d", rgba.Rect.Dx(), rgba.Rect.Dy(), t.width, t.height)
	}
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(t.width), int32(t.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// DeleteTexture releases a texture from NewTexture.
func (b *Backend) DeleteTexture(tex glass.Texture) {
	if t, ok := tex.(*Texture); ok {
		t.delete()
	}
}

// flippedRGBA converts img to tightly packed RGBA with the bottom row first.
func flippedRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	src := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(src, src.Rect, img, bounds.Min, xdraw.Src)

	out := image.NewRGBA(src.Rect)
	h := src.Rect.Dy()
	for y := range h {
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], src.Pix[(h-1-y)*src.Stride:(h-y)*src.Stride])
	}
	return out
}

// Draw runs prog over the viewport into target, or the default framebuffer
// when target is nil. Blending is off; each shader composites explicitly.
func (b *Backend) Draw(prog glass.Program, target glass.Target, opts glass.DrawOptions) error {
	p, ok := prog.(*Program)
	if !ok || p.id == 0 {
		return fmt.Errorf("draw: not a live OpenGL program (%T)", prog)
	}
	var fbo uint32
	if target != nil {
		f, ok := target.(*Framebuffer)
		if !ok || f.fbo == 0 {
			return fmt.Errorf("draw: not a live OpenGL framebuffer (%T)", target)
		}
		fbo = f.fbo
	}

	// Save GL state
	var lastProgram, lastFBO, lastVAO int32
	var lastViewport [4]int32
	gl.GetIntegerv(gl.CURRENT_PROGRAM, &lastProgram)
	gl.GetIntegerv(gl.DRAW_FRAMEBUFFER_BINDING, &lastFBO)
	gl.GetIntegerv(gl.VERTEX_ARRAY_BINDING, &lastVAO)
	gl.GetIntegerv(gl.VIEWPORT, &lastViewport[0])
	blendEnabled := gl.IsEnabled(gl.BLEND)
	depthEnabled := gl.IsEnabled(gl.DEPTH_TEST)
	cullEnabled := gl.IsEnabled(gl.CULL_FACE)

	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.Viewport(0, 0, int32(opts.Width), int32(opts.Height))
	gl.Disable(gl.BLEND)
	gl.Disable(gl.CULL_FACE)
	gl.ClearColor(0, 0, 0, 0)
	if opts.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
		gl.ClearDepth(1)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	} else {
		gl.Disable(gl.DEPTH_TEST)
		gl.Clear(gl.COLOR_BUFFER_BIT)
	}

	p.use()
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	// Restore GL state
	gl.BindVertexArray(uint32(lastVAO))
	gl.UseProgram(uint32(lastProgram))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(lastFBO))
	gl.Viewport(lastViewport[0], lastViewport[1], lastViewport[2], lastViewport[3])
	setEnabled(gl.BLEND, blendEnabled)
	setEnabled(gl.DEPTH_TEST, depthEnabled)
	setEnabled(gl.CULL_FACE, cullEnabled)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("draw %s: GL error 0x%x", p.name, code)
	}
	return nil
}

func setEnabled(capability uint32, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

// Info returns the GL version and renderer strings.
func (b *Backend) Info() string {
	return strings.TrimSpace(b.version + " " + b.renderer)
}

// Delete releases the shared vertex array.
func (b *Backend) Delete() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
}
