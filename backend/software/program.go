package software

import (
	"fmt"

	"github.com/go-theft-auto/glass"
)

// fragmentFunc returns the colour of the fragment at frag (pixel centre,
// bottom-left origin).
type fragmentFunc func(frag glass.Vec2) glass.RGBA

// shaderFunc resolves the uniforms of one draw into a fragment function.
type shaderFunc func(u glass.Uniforms) (fragmentFunc, error)

var shaders = map[string]shaderFunc{
	glass.ShaderBackground:  backgroundShader,
	glass.ShaderPassthrough: passthroughShader,
	glass.ShaderBatch:       batchShader,
}

// Program is a Go fragment shader with the same uniform schema as its GL
// counterpart.
type Program struct {
	spec     glass.ShaderSpec
	schema   glass.UniformSchema
	shader   shaderFunc
	values   glass.Uniforms
	disposed bool
}

// NewProgram implements glass.Backend. Shaders without a Go version return
// glass.ErrUnsupportedShader.
func (b *Backend) NewProgram(spec glass.ShaderSpec) (glass.Program, error) {
	schema, err := spec.Schema()
	if err != nil {
		return nil, err
	}
	shader, ok := shaders[spec.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no software implementation", glass.ErrUnsupportedShader, spec.Name)
	}
	return &Program{
		spec:   spec,
		schema: schema,
		shader: shader,
		values: make(glass.Uniforms, len(schema)),
	}, nil
}

// Name returns the shader name.
func (p *Program) Name() string { return p.spec.Name }

// Schema returns the uniform schema.
func (p *Program) Schema() glass.UniformSchema { return p.schema }

// SetUniform stores v for the next draw.
func (p *Program) SetUniform(name string, v any) error {
	if p.disposed {
		return glass.ErrDisposed
	}
	spec, ok := p.schema[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", glass.ErrUnknownUniform, p.spec.Name, name)
	}
	if err := glass.CheckUniform(name, spec, v); err != nil {
		return err
	}
	if spec.Type == glass.UniformSampler2D {
		if _, ok := v.(*Texture); !ok {
			return fmt.Errorf("%w: %s needs a software texture, got %T", glass.ErrUniformType, name, v)
		}
	}
	p.values[name] = v
	return nil
}

// Dispose releases the stored uniforms. Safe to call more than once.
func (p *Program) Dispose() {
	p.disposed = true
	clear(p.values)
}

func (p *Program) prepare() (fragmentFunc, error) {
	return p.shader(p.values)
}
