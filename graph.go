package glass

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// depthSuffix selects a pass's depth attachment in RenderPassConfig.Inputs.
const depthSuffix = ".depth"

// DepthOf returns the input reference for pass's depth attachment.
func DepthOf(pass string) string {
	return pass + depthSuffix
}

// RenderPassConfig declares one pass of a render graph.
type RenderPassConfig struct {
	Name   string
	Shader ShaderSpec
	// Inputs maps a sampler uniform to the pass whose output it reads. Use
	// DepthOf to read a depth attachment instead of the colour output.
	Inputs         map[string]string
	OutputToScreen bool
	Depth          bool // allocate a depth attachment and depth-test draws
	Uniforms       Uniforms
}

// RenderPass is a built pass: a program plus its own target, unless the pass
// writes to the screen.
type RenderPass struct {
	Config  RenderPassConfig
	Program Program
	Target  Target
}

// PassError is a failure of a single pass during Render.
type PassError struct {
	Pass string
	Err  error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("pass %q: %v", e.Pass, e.Err)
}

func (e *PassError) Unwrap() error { return e.Err }

// PassErrors collects the pass failures of one Render call.
type PassErrors struct {
	Errs []*PassError
}

func (e *PassErrors) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, pe := range e.Errs {
		msgs[i] = pe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes every pass error to errors.Is and errors.As.
func (e *PassErrors) Unwrap() []error {
	out := make([]error, len(e.Errs))
	for i, pe := range e.Errs {
		out[i] = pe
	}
	return out
}

// Failed returns true if the named pass failed.
func (e *PassErrors) Failed(pass string) bool {
	return slices.ContainsFunc(e.Errs, func(pe *PassError) bool { return pe.Pass == pass })
}

// RenderGraph is an ordered list of passes where each pass may sample the
// outputs of passes declared before it.
type RenderGraph struct {
	backend  Backend
	passes   []*RenderPass
	index    map[string]int
	width    int
	height   int
	disposed bool
}

// NewRenderGraph validates configs and builds every pass.
func NewRenderGraph(backend Backend, configs []RenderPassConfig, width, height int) (*RenderGraph, error) {
	g := &RenderGraph{backend: backend, width: width, height: height}
	if err := g.build(configs); err != nil {
		return nil, err
	}
	return g, nil
}

// ValidatePasses checks names, input references and screen outputs.
func ValidatePasses(configs []RenderPassConfig) error {
	seen := make(map[string]RenderPassConfig, len(configs))
	for _, cfg := range configs {
		if cfg.Name == "" {
			return fmt.Errorf("%w: pass without a name", ErrInvalidGraph)
		}
		if _, dup := seen[cfg.Name]; dup {
			return fmt.Errorf("%w: duplicate pass %q", ErrInvalidGraph, cfg.Name)
		}
		if cfg.OutputToScreen && cfg.Depth {
			return fmt.Errorf("%w: pass %q writes to the screen and cannot own a depth attachment", ErrInvalidGraph, cfg.Name)
		}
		for _, uniform := range slices.Sorted(maps.Keys(cfg.Inputs)) {
			ref := cfg.Inputs[uniform]
			src, depth := splitInput(ref)
			up, ok := seen[src]
			switch {
			case !ok && src == cfg.Name:
				return fmt.Errorf("%w: pass %q reads itself through %s", ErrInvalidGraph, cfg.Name, uniform)
			case !ok:
				return fmt.Errorf("%w: pass %q input %s references %q, which is not an earlier pass", ErrInvalidGraph, cfg.Name, uniform, src)
			case up.OutputToScreen:
				return fmt.Errorf("%w: pass %q input %s reads screen pass %q", ErrInvalidGraph, cfg.Name, uniform, src)
			case depth && !up.Depth:
				return fmt.Errorf("%w: pass %q input %s reads depth of %q, which has none", ErrInvalidGraph, cfg.Name, uniform, src)
			}
		}
		seen[cfg.Name] = cfg
	}
	return nil
}

func splitInput(ref string) (pass string, depth bool) {
	if p, ok := strings.CutSuffix(ref, depthSuffix); ok {
		return p, true
	}
	return ref, false
}

func (g *RenderGraph) build(configs []RenderPassConfig) error {
	if err := ValidatePasses(configs); err != nil {
		return err
	}
	passes := make([]*RenderPass, 0, len(configs))
	index := make(map[string]int, len(configs))
	for _, cfg := range configs {
		p, err := g.buildPass(cfg)
		if err != nil {
			for _, built := range passes {
				built.dispose()
			}
			return fmt.Errorf("pass %q: %w", cfg.Name, err)
		}
		index[cfg.Name] = len(passes)
		passes = append(passes, p)
	}
	g.passes = passes
	g.index = index
	graphLogger().Debug("render graph built", "passes", len(passes), "width", g.width, "height", g.height)
	return nil
}

func (g *RenderGraph) buildPass(cfg RenderPassConfig) (*RenderPass, error) {
	prog, err := g.backend.NewProgram(cfg.Shader)
	if err != nil {
		return nil, err
	}
	p := &RenderPass{Config: cfg, Program: prog}
	if !cfg.OutputToScreen {
		target, err := g.backend.NewTarget(g.width, g.height, cfg.Depth)
		if err != nil {
			prog.Dispose()
			return nil, err
		}
		p.Target = target
	}
	return p, nil
}

func (p *RenderPass) dispose() {
	if p.Program != nil {
		p.Program.Dispose()
		p.Program = nil
	}
	if p.Target != nil {
		p.Target.Dispose()
		p.Target = nil
	}
}

// Render draws every pass in declaration order. Uniforms are merged as
// global < pass config < perPass[name]; names outside a pass's schema are
// ignored. A failing pass is logged and collected, and passes reading its
// output fail with ErrMissingInput while the others still run.
func (g *RenderGraph) Render(global Uniforms, perPass map[string]Uniforms) error {
	if g.disposed {
		return ErrDisposed
	}
	var errs PassErrors
	for _, p := range g.passes {
		if err := g.renderPass(p, global, perPass[p.Config.Name], &errs); err != nil {
			graphLogger().Error("pass failed", "pass", p.Config.Name, "error", err)
			errs.Errs = append(errs.Errs, &PassError{Pass: p.Config.Name, Err: err})
		}
	}
	if len(errs.Errs) > 0 {
		return &errs
	}
	return nil
}

func (g *RenderGraph) renderPass(p *RenderPass, global, override Uniforms, failed *PassErrors) error {
	schema := p.Program.Schema()
	set := func(name string, v any) error {
		if _, ok := schema[name]; !ok {
			return nil
		}
		return p.Program.SetUniform(name, v)
	}

	for _, uniform := range slices.Sorted(maps.Keys(p.Config.Inputs)) {
		src, depth := splitInput(p.Config.Inputs[uniform])
		tex, err := g.inputTexture(src, depth, failed)
		if err != nil {
			return fmt.Errorf("%s: %w", uniform, err)
		}
		if err := p.Program.SetUniform(uniform, tex); err != nil {
			return err
		}
	}

	merged := Merge(global, p.Config.Uniforms, override)
	for _, name := range slices.Sorted(maps.Keys(merged)) {
		if _, isInput := p.Config.Inputs[name]; isInput {
			continue
		}
		if err := set(name, merged[name]); err != nil {
			return err
		}
	}

	return g.backend.Draw(p.Program, p.Target, DrawOptions{
		Width:     g.width,
		Height:    g.height,
		DepthTest: p.Config.Depth,
	})
}

func (g *RenderGraph) inputTexture(src string, depth bool, failed *PassErrors) (Texture, error) {
	i, ok := g.index[src]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPass, src)
	}
	if failed.Failed(src) {
		return nil, fmt.Errorf("%w: upstream %q failed", ErrMissingInput, src)
	}
	up := g.passes[i]
	if up.Target == nil {
		return nil, fmt.Errorf("%w: %q has no target", ErrMissingInput, src)
	}
	tex := up.Target.Texture()
	if depth {
		tex = up.Target.DepthTexture()
	}
	if tex == nil {
		return nil, fmt.Errorf("%w: %q produced no texture", ErrMissingInput, src)
	}
	return tex, nil
}

// RebuildPasses disposes every pass and builds configs in their place. On
// error the graph is left empty.
func (g *RenderGraph) RebuildPasses(configs []RenderPassConfig) error {
	if g.disposed {
		return ErrDisposed
	}
	if err := ValidatePasses(configs); err != nil {
		return err
	}
	g.disposePasses()
	return g.build(configs)
}

// Resize reallocates every owned target. Equal sizes are a no-op.
func (g *RenderGraph) Resize(width, height int) error {
	if g.disposed {
		return ErrDisposed
	}
	if width == g.width && height == g.height {
		return nil
	}
	g.width, g.height = width, height
	var errs []error
	for _, p := range g.passes {
		if p.Target == nil {
			continue
		}
		if err := p.Target.Resize(width, height); err != nil {
			errs = append(errs, fmt.Errorf("pass %q: %w", p.Config.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Size returns the current target size.
func (g *RenderGraph) Size() (width, height int) {
	return g.width, g.height
}

// Len returns the number of passes.
func (g *RenderGraph) Len() int {
	return len(g.passes)
}

// PassNames returns pass names in declaration order.
func (g *RenderGraph) PassNames() []string {
	names := make([]string, len(g.passes))
	for i, p := range g.passes {
		names[i] = p.Config.Name
	}
	return names
}

// Pass returns the named pass.
func (g *RenderGraph) Pass(name string) (*RenderPass, error) {
	i, ok := g.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPass, name)
	}
	return g.passes[i], nil
}

func (g *RenderGraph) disposePasses() {
	for _, p := range g.passes {
		p.dispose()
	}
	g.passes = nil
	g.index = nil
}

// Dispose releases every program and target. Safe to call more than once.
func (g *RenderGraph) Dispose() {
	if g.disposed {
		return
	}
	g.disposePasses()
	g.disposed = true
}
