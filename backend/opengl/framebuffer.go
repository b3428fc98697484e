package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/go-theft-auto/glass"
)

// Texture is a 2D GL texture.
type Texture struct {
	id            uint32
	width, height int
}

// ID returns the GL texture name.
func (t *Texture) ID() uint32 { return t.id }

// Size returns the texture size in pixels.
func (t *Texture) Size() (width, height int) { return t.width, t.height }

func (t *Texture) delete() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

// Framebuffer is an offscreen target with an RGBA16F colour texture and an
// optional 24-bit depth texture.
type Framebuffer struct {
	fbo   uint32
	color *Texture
	depth *Texture
}

// NewFramebuffer allocates a framebuffer. It returns glass.ErrCapability if
// the driver cannot complete it, which is how missing float or depth
// texture support shows up.
func NewFramebuffer(width, height int, depth bool) (*Framebuffer, error) {
	f := &Framebuffer{color: &Texture{}}
	gl.GenFramebuffers(1, &f.fbo)
	gl.GenTextures(1, &f.color.id)
	if depth {
		f.depth = &Texture{}
		gl.GenTextures(1, &f.depth.id)
	}

	f.allocate(width, height)

	gl.BindFramebuffer(gl.FRAMEBUFFER, f.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, f.color.id, 0)
	if f.depth != nil {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, f.depth.id, 0)
	}
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		f.Dispose()
		return nil, fmt.Errorf("%w: framebuffer incomplete (0x%x, depth=%v)", glass.ErrCapability, status, depth)
	}
	return f, nil
}

// allocate (re)specifies texture storage on the existing handles.
func (f *Framebuffer) allocate(width, height int) {
	width, height = max(width, 1), max(height, 1)

	gl.BindTexture(gl.TEXTURE_2D, f.color.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA16F, int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, nil)
	setSampling(gl.LINEAR)
	f.color.width, f.color.height = width, height

	if f.depth != nil {
		gl.BindTexture(gl.TEXTURE_2D, f.depth.id)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, int32(width), int32(height), 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
		setSampling(gl.NEAREST)
		f.depth.width, f.depth.height = width, height
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func setSampling(filter int32) {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
}

// Texture returns the colour attachment.
func (f *Framebuffer) Texture() glass.Texture { return f.color }

// DepthTexture returns the depth attachment, or nil.
func (f *Framebuffer) DepthTexture() glass.Texture {
	if f.depth == nil {
		return nil
	}
	return f.depth
}

// Size returns the attachment size.
func (f *Framebuffer) Size() (width, height int) { return f.color.Size() }

// Resize reallocates storage on the same texture handles.
func (f *Framebuffer) Resize(width, height int) error {
	if f.fbo == 0 {
		return glass.ErrDisposed
	}
	if w, h := f.Size(); w == width && h == height {
		return nil
	}
	f.allocate(width, height)
	return nil
}

// Dispose deletes the framebuffer and its textures. Safe to call more than
// once.
func (f *Framebuffer) Dispose() {
	f.color.delete()
	if f.depth != nil {
		f.depth.delete()
	}
	if f.fbo != 0 {
		gl.DeleteFramebuffers(1, &f.fbo)
		f.fbo = 0
	}
}
