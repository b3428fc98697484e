package opengl

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/go-theft-auto/glass"
)

// activeUniform is a uniform reported by the linked program.
type activeUniform struct {
	size  int32
	xtype uint32
}

// Program is a linked shader program with an explicit uniform schema.
type Program struct {
	name      string
	id        uint32
	schema    glass.UniformSchema
	locations map[string]int32
	units     map[string]int32 // sampler uniform -> texture unit
	bound     map[int32]*Texture
}

// NewProgram compiles the fragment shader for spec with the full-screen
// vertex shader, links them and checks the link result against the
// shader's uniform schema.
func NewProgram(spec glass.ShaderSpec) (*Program, error) {
	schema, err := spec.Schema()
	if err != nil {
		return nil, err
	}
	src, err := fragmentSource(spec)
	if err != nil {
		return nil, err
	}
	id, err := createShaderProgram(vertexShaderSource, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}

	p := &Program{
		name:      spec.Name,
		id:        id,
		schema:    schema,
		locations: make(map[string]int32, len(schema)),
		units:     make(map[string]int32),
		bound:     make(map[int32]*Texture),
	}
	if err := p.bindSchema(activeUniforms(id)); err != nil {
		p.Dispose()
		return nil, err
	}
	return p, nil
}

// activeUniforms lists the uniforms the linker kept, keyed without the "[0]"
// suffix GL reports for arrays.
func activeUniforms(id uint32) map[string]activeUniform {
	var count, maxLen int32
	gl.GetProgramiv(id, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(id, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)
	buf := make([]byte, maxLen+1)

	active := make(map[string]activeUniform, count)
	for i := uint32(0); i < uint32(count); i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(id, i, int32(len(buf)), &length, &size, &xtype, &buf[0])
		name := strings.TrimSuffix(string(buf[:length]), "[0]")
		active[name] = activeUniform{size: size, xtype: xtype}
	}
	return active
}

func glType(t glass.UniformType) uint32 {
	switch t {
	case glass.UniformFloat:
		return gl.FLOAT
	case glass.UniformVec2:
		return gl.FLOAT_VEC2
	case glass.UniformVec3:
		return gl.FLOAT_VEC3
	case glass.UniformVec4:
		return gl.FLOAT_VEC4
	case glass.UniformInt:
		return gl.INT
	case glass.UniformBool:
		return gl.BOOL
	case glass.UniformMat4:
		return gl.FLOAT_MAT4
	case glass.UniformSampler2D:
		return gl.SAMPLER_2D
	default:
		return 0
	}
}

// bindSchema resolves locations and assigns texture units. Schema entries
// the linker dropped are only logged; a GLSL type that disagrees with the
// schema is an error.
func (p *Program) bindSchema(active map[string]activeUniform) error {
	gl.UseProgram(p.id)
	defer gl.UseProgram(0)

	var unit int32
	for _, name := range slices.Sorted(maps.Keys(p.schema)) {
		spec := p.schema[name]
		au, ok := active[name]
		if !ok {
			logger().Debug("uniform not active", "program", p.name, "uniform", name)
			p.locations[name] = -1
		} else {
			if want := glType(spec.Type); au.xtype != want {
				return fmt.Errorf("%w: %s.%s is %s in the schema, GL type 0x%x", glass.ErrUniformType, p.name, name, spec.Type, au.xtype)
			}
			p.locations[name] = gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
		}
		if spec.Type == glass.UniformSampler2D {
			p.units[name] = unit
			if loc := p.locations[name]; loc >= 0 {
				gl.Uniform1i(loc, unit)
			}
			unit++
		}
	}
	for name := range active {
		if _, ok := p.schema[name]; !ok && !strings.HasPrefix(name, "gl_") {
			logger().Debug("uniform outside schema", "program", p.name, "uniform", name)
		}
	}
	return nil
}

// Name returns the shader name.
func (p *Program) Name() string { return p.name }

// Schema returns the uniform schema.
func (p *Program) Schema() glass.UniformSchema { return p.schema }

// SetUniform uploads v to the named uniform, dispatching on the schema type.
// Samplers are recorded and bound to their unit at draw time.
func (p *Program) SetUniform(name string, v any) error {
	if p.id == 0 {
		return glass.ErrDisposed
	}
	spec, ok := p.schema[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", glass.ErrUnknownUniform, p.name, name)
	}
	if err := glass.CheckUniform(name, spec, v); err != nil {
		return err
	}

	if spec.Type == glass.UniformSampler2D {
		tex, ok := v.(*Texture)
		if !ok {
			return fmt.Errorf("%w: %s needs an OpenGL texture, got %T", glass.ErrUniformType, name, v)
		}
		p.bound[p.units[name]] = tex
		return nil
	}

	loc := p.locations[name]
	if loc < 0 {
		return nil
	}
	gl.UseProgram(p.id)
	switch spec.Type {
	case glass.UniformInt:
		switch val := v.(type) {
		case int:
			gl.Uniform1i(loc, int32(val))
		case int32:
			gl.Uniform1i(loc, val)
		}
	case glass.UniformBool:
		var b int32
		if v.(bool) {
			b = 1
		}
		gl.Uniform1i(loc, b)
	case glass.UniformMat4:
		m := v.([16]float32)
		gl.UniformMatrix4fv(loc, 1, false, &m[0])
	default:
		vals := glass.FlattenFloats(v)
		if len(vals) == 0 {
			return nil
		}
		switch spec.Type {
		case glass.UniformFloat:
			gl.Uniform1fv(loc, int32(len(vals)), &vals[0])
		case glass.UniformVec2:
			gl.Uniform2fv(loc, int32(len(vals)/2), &vals[0])
		case glass.UniformVec3:
			gl.Uniform3fv(loc, int32(len(vals)/3), &vals[0])
		case glass.UniformVec4:
			gl.Uniform4fv(loc, int32(len(vals)/4), &vals[0])
		}
	}
	return nil
}

// use makes the program current and binds its sampler textures.
func (p *Program) use() {
	gl.UseProgram(p.id)
	for unit, tex := range p.bound {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

// Dispose deletes the program. Safe to call more than once.
func (p *Program) Dispose() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
	clear(p.bound)
}

// createShaderProgram compiles and links a shader program. Compile and link
// failures carry the GL info log verbatim.
func createShaderProgram(vertexSource, fragmentSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	defer gl.DeleteShader(vertexShader)

	fragmentShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetProgramInfoLog(program, logLength, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("%w: %s", glass.ErrShaderLink, strings.TrimRight(string(log), "\x00"))
	}

	gl.DetachShader(program, vertexShader)
	gl.DetachShader(program, fragmentShader)
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	if !strings.HasSuffix(source, "\x00") {
		source += "\x00"
	}
	csource, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(shader, logLength, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%w: %s", glass.ErrShaderCompile, strings.TrimRight(string(log), "\x00"))
	}
	return shader, nil
}
