package glass

import (
	"errors"
	"image"
)

// Errors returned by backends and the render graph.
var (
	// ErrCapability means the backend lacks a feature a plan needs, such as
	// float render targets or depth textures.
	ErrCapability        = errors.New("backend capability missing")
	ErrUnsupportedShader = errors.New("unsupported shader")
	ErrShaderCompile     = errors.New("shader compilation failed")
	ErrShaderLink        = errors.New("shader link failed")
	ErrUniformType       = errors.New("uniform type mismatch")
	ErrUnknownUniform    = errors.New("unknown uniform")
	ErrUnknownPass       = errors.New("unknown pass")
	ErrInvalidGraph      = errors.New("invalid render graph")
	ErrMissingInput      = errors.New("pass input unavailable")
	ErrDisposed          = errors.New("already disposed")
)

// Program is a compiled shader with a uniform schema.
type Program interface {
	Name() string
	Schema() UniformSchema
	// SetUniform stores a value for the next draw. Names outside the schema
	// return ErrUnknownUniform and wrong Go types ErrUniformType.
	SetUniform(name string, v any) error
	Dispose()
}

// Target is an offscreen render target.
type Target interface {
	Texture() Texture
	// DepthTexture returns nil for targets created without depth.
	DepthTexture() Texture
	Resize(width, height int) error
	Size() (width, height int)
	Dispose()
}

// DrawOptions describes one full-screen draw.
type DrawOptions struct {
	Width, Height int  // viewport
	DepthTest     bool // write and test the target's depth attachment
}

// Backend creates GPU (or CPU) resources and issues full-screen draws.
type Backend interface {
	Name() string
	NewProgram(spec ShaderSpec) (Program, error)
	NewTarget(width, height int, depth bool) (Target, error)
	// NewTexture uploads an image for sampling.
	NewTexture(img image.Image) (Texture, error)
	// UpdateTexture replaces the contents of a texture from NewTexture.
	UpdateTexture(tex Texture, img image.Image) error
	DeleteTexture(tex Texture)
	// Draw runs prog once over the viewport into target, or the default
	// framebuffer when target is nil.
	Draw(prog Program, target Target, opts DrawOptions) error
}
