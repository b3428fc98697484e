package glass

import (
	"errors"
	"fmt"
	"image"
	"maps"
)

// mockTexture is a texture that remembers the last image uploaded to it.
type mockTexture struct {
	w, h    int
	img     image.Image
	uploads int
}

func (t *mockTexture) Size() (int, int) { return t.w, t.h }

type mockTarget struct {
	tex, depth *mockTexture
	resizes    int
	disposed   bool
}

func (t *mockTarget) Texture() Texture { return t.tex }

func (t *mockTarget) DepthTexture() Texture {
	if t.depth == nil {
		return nil
	}
	return t.depth
}

func (t *mockTarget) Resize(w, h int) error {
	if t.disposed {
		return ErrDisposed
	}
	t.resizes++
	t.tex.w, t.tex.h = w, h
	if t.depth != nil {
		t.depth.w, t.depth.h = w, h
	}
	return nil
}

func (t *mockTarget) Size() (int, int) { return t.tex.w, t.tex.h }

func (t *mockTarget) Dispose() { t.disposed = true }

type mockProgram struct {
	spec     ShaderSpec
	schema   UniformSchema
	values   Uniforms
	disposed bool
}

func (p *mockProgram) Name() string          { return p.spec.Name }
func (p *mockProgram) Schema() UniformSchema { return p.schema }

func (p *mockProgram) SetUniform(name string, v any) error {
	spec, ok := p.schema[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUniform, name)
	}
	if err := CheckUniform(name, spec, v); err != nil {
		return err
	}
	p.values[name] = v
	return nil
}

func (p *mockProgram) Dispose() { p.disposed = true }

// mockDraw is one recorded Draw call with a snapshot of the uniforms.
type mockDraw struct {
	prog   *mockProgram
	target Target
	opts   DrawOptions
	values Uniforms
}

// mockBackend is a test backend that records resources and draws but
// doesn't render anything.
type mockBackend struct {
	noDepth     bool            // NewTarget with depth returns ErrCapability
	unsupported map[string]bool // shader names NewProgram rejects
	failDraw    map[string]bool // shader names whose draws fail

	programs []*mockProgram
	targets  []*mockTarget
	draws    []mockDraw
	textures []*mockTexture
	deleted  int
}

var errMockDraw = errors.New("mock draw failed")

func (b *mockBackend) Name() string { return "mock" }

func (b *mockBackend) NewProgram(spec ShaderSpec) (Program, error) {
	if b.unsupported[spec.Name] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedShader, spec.Name)
	}
	schema, err := spec.Schema()
	if err != nil {
		return nil, err
	}
	p := &mockProgram{spec: spec, schema: schema, values: make(Uniforms)}
	b.programs = append(b.programs, p)
	return p, nil
}

func (b *mockBackend) NewTarget(w, h int, depth bool) (Target, error) {
	if depth && b.noDepth {
		return nil, fmt.Errorf("%w: depth textures", ErrCapability)
	}
	t := &mockTarget{tex: &mockTexture{w: w, h: h}}
	if depth {
		t.depth = &mockTexture{w: w, h: h}
	}
	b.targets = append(b.targets, t)
	return t, nil
}

func (b *mockBackend) NewTexture(img image.Image) (Texture, error) {
	r := img.Bounds()
	t := &mockTexture{w: r.Dx(), h: r.Dy(), img: img, uploads: 1}
	b.textures = append(b.textures, t)
	return t, nil
}

func (b *mockBackend) UpdateTexture(tex Texture, img image.Image) error {
	t := tex.(*mockTexture)
	t.img = img
	t.uploads++
	return nil
}

func (b *mockBackend) DeleteTexture(Texture) { b.deleted++ }

func (b *mockBackend) Draw(prog Program, target Target, opts DrawOptions) error {
	p := prog.(*mockProgram)
	if b.failDraw[p.spec.Name] {
		return errMockDraw
	}
	b.draws = append(b.draws, mockDraw{prog: p, target: target, opts: opts, values: maps.Clone(p.values)})
	return nil
}

// screenDraws returns the recorded draws that wrote to the screen.
func (b *mockBackend) screenDraws() []mockDraw {
	var out []mockDraw
	for _, d := range b.draws {
		if d.target == nil {
			out = append(out, d)
		}
	}
	return out
}
