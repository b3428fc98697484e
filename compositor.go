package glass

import (
	"errors"
	"fmt"
	"time"
)

// DepthPeelMaxShapes is the shape array size of the peel shaders. Peels see
// every visible shape at once, so the array is not tied to the batch cap.
const DepthPeelMaxShapes = 64

// planKey identifies the render graph a frame needs. A new key means
// programs and targets are rebuilt.
type planKey struct {
	strategy Strategy
	topology Topology
}

// Compositor drives one frame: it batches the store, keeps the render graph
// matching the batch topology, pushes uniforms, renders, and feeds the
// frame time to the quality controller.
type Compositor struct {
	backend    Backend
	store      *ShapeStore
	camera     *Camera
	controls   Controls
	quality    *QualityController
	background *BackgroundManager
	bgOpts     []BackgroundOption

	graph    *RenderGraph
	key      planKey
	active   Strategy
	fellBack bool
	rebuilds int
	// overCap is set while depth peeling has more visible shapes than a
	// peel pass can hold, so the warning is logged once per episode.
	overCap bool

	width, height int
	dpr           float32

	clock     func() time.Time
	start     time.Time
	lastFrame time.Time

	disposed bool
}

// CompositorOption configures a Compositor.
type CompositorOption func(*Compositor)

// WithControls sets the initial control snapshot.
func WithControls(c Controls) CompositorOption {
	return func(comp *Compositor) {
		comp.controls = c
	}
}

// WithDPR sets the device pixel ratio.
func WithDPR(dpr float32) CompositorOption {
	return func(comp *Compositor) {
		if dpr > 0 {
			comp.dpr = dpr
		}
	}
}

// WithClock replaces time.Now for frame timing.
func WithClock(now func() time.Time) CompositorOption {
	return func(comp *Compositor) {
		comp.clock = now
	}
}

// WithBackgroundOptions passes options to the background manager.
func WithBackgroundOptions(opts ...BackgroundOption) CompositorOption {
	return func(comp *Compositor) {
		comp.bgOpts = append(comp.bgOpts, opts...)
	}
}

// NewCompositor creates a compositor rendering store through camera at
// width x height device pixels, and builds the initial render graph.
func NewCompositor(backend Backend, store *ShapeStore, camera *Camera, width, height int, opts ...CompositorOption) (*Compositor, error) {
	c := &Compositor{
		backend:  backend,
		store:    store,
		camera:   camera,
		controls: DefaultControls(),
		width:    width,
		height:   height,
		dpr:      1,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.controls.Validate(); err != nil {
		return nil, err
	}
	c.start = c.clock()
	c.camera.SetViewportSize(float32(width), float32(height))
	c.quality = NewQualityController(c.controls)
	c.background = NewBackgroundManager(backend, width, height, c.bgOpts...)
	if err := c.background.Set(c.controls.Background, c.controls.BackgroundURL); err != nil {
		c.background.Dispose()
		return nil, fmt.Errorf("background: %w", err)
	}
	if err := c.ensureGraph(c.store.Batch(c.controls.MaxShapesPerBatch)); err != nil {
		c.background.Dispose()
		return nil, err
	}
	compositorLogger().Info("compositor ready", "backend", backend.Name(), "strategy", c.active, "width", width, "height", height)
	return c, nil
}

// Controls returns the current control snapshot.
func (c *Compositor) Controls() Controls { return c.controls }

// Quality returns the adaptive quality controller.
func (c *Compositor) Quality() *QualityController { return c.quality }

// Background returns the background manager.
func (c *Compositor) Background() *BackgroundManager { return c.background }

// Graph returns the current render graph.
func (c *Compositor) Graph() *RenderGraph { return c.graph }

// Strategy returns the strategy actually in use, which differs from the
// requested one after a fallback.
func (c *Compositor) Strategy() Strategy { return c.active }

// Rebuilds returns how many times the render graph has been (re)built.
func (c *Compositor) Rebuilds() int { return c.rebuilds }

// SetControls replaces the control snapshot. Background and pipeline changes
// take effect immediately; the graph is rebuilt on the next frame if its
// plan changed.
func (c *Compositor) SetControls(ctrl Controls) error {
	if c.disposed {
		return ErrDisposed
	}
	if err := ctrl.Validate(); err != nil {
		return err
	}
	prev := c.controls
	c.controls = ctrl
	if ctrl.Strategy != prev.Strategy {
		c.fellBack = false
	}
	if ctrl.PerformanceMode != prev.PerformanceMode {
		c.quality.SetMode(ctrl.PerformanceMode)
	}
	if ctrl.Background != prev.Background || ctrl.BackgroundURL != prev.BackgroundURL {
		if err := c.background.Set(ctrl.Background, ctrl.BackgroundURL); err != nil {
			return fmt.Errorf("background: %w", err)
		}
	}
	return nil
}

// Resize updates the viewport, every render target and the resolution
// uniforms. It returns false without touching the GPU when nothing changed.
func (c *Compositor) Resize(width, height int, dpr float32) (bool, error) {
	if c.disposed {
		return false, ErrDisposed
	}
	if dpr <= 0 {
		dpr = c.dpr
	}
	if width == c.width && height == c.height && dpr == c.dpr {
		return false, nil
	}
	c.width, c.height, c.dpr = width, height, dpr
	c.camera.SetViewportSize(float32(width), float32(height))
	var errs []error
	if c.graph != nil {
		errs = append(errs, c.graph.Resize(width, height))
	}
	errs = append(errs, c.background.Resize(width, height))
	compositorLogger().Debug("resized", "width", width, "height", height, "dpr", dpr)
	return true, errors.Join(errs...)
}

func (c *Compositor) wantKey(result BatchResult) planKey {
	if c.controls.Strategy == StrategyDepthPeel && !c.fellBack {
		return planKey{
			strategy: StrategyDepthPeel,
			topology: Topology{Batches: c.controls.PeelCount, MaxShapes: DepthPeelMaxShapes},
		}
	}
	return planKey{strategy: StrategyBatched, topology: result.Topology()}
}

func planFor(key planKey) []RenderPassConfig {
	if key.strategy == StrategyDepthPeel {
		return DepthPeelPasses(key.topology.Batches, key.topology.MaxShapes)
	}
	return BatchedPasses(key.topology.Batches, key.topology.MaxShapes)
}

// ensureGraph rebuilds the render graph when the plan key changed. A depth
// peel plan the backend cannot run falls back to batched alpha.
func (c *Compositor) ensureGraph(result BatchResult) error {
	key := c.wantKey(result)
	if c.graph != nil && c.graph.Len() > 0 && key == c.key {
		return nil
	}
	err := c.build(key)
	if err != nil && key.strategy == StrategyDepthPeel &&
		(errors.Is(err, ErrCapability) || errors.Is(err, ErrUnsupportedShader)) {
		compositorLogger().Warn("depth peeling unavailable, falling back to batched alpha", "error", err)
		c.fellBack = true
		key = c.wantKey(result)
		err = c.build(key)
	}
	if err != nil {
		return fmt.Errorf("build %s plan: %w", key.strategy, err)
	}
	c.key = key
	c.active = key.strategy
	return nil
}

func (c *Compositor) build(key planKey) error {
	configs := planFor(key)
	c.rebuilds++
	compositorLogger().Debug("building render graph", "strategy", key.strategy, "batches", key.topology.Batches, "maxShapes", key.topology.MaxShapes)
	if c.graph == nil {
		g, err := NewRenderGraph(c.backend, configs, c.width, c.height)
		if err != nil {
			return err
		}
		c.graph = g
		return nil
	}
	return c.graph.RebuildPasses(configs)
}

// FrameContext returns the context the next frame will render with.
func (c *Compositor) FrameContext() FrameContext {
	return FrameContext{
		Controls:        c.controls,
		Quality:         c.quality.Settings(),
		Resolution:      Vec2{X: float32(c.width), Y: float32(c.height)},
		DPR:             c.dpr,
		Time:            c.clock().Sub(c.start),
		Background:      c.background.Texture(),
		BackgroundReady: c.background.Texture() != nil,
	}
}

// Frame renders one frame. Pass failures are returned as *PassErrors after
// every other pass has run.
func (c *Compositor) Frame() error {
	if c.disposed {
		return ErrDisposed
	}
	now := c.clock()
	if !c.lastFrame.IsZero() {
		if settings, changed := c.quality.Observe(now.Sub(c.lastFrame)); changed {
			compositorLogger().Info("quality changed", "fps", c.quality.LastFPS(),
				"alphaThreshold", settings.AlphaThreshold, "dither", settings.DitherType)
		}
	}
	c.lastFrame = now

	if err := c.background.Poll(now.Sub(c.start)); err != nil {
		compositorLogger().Error("background poll failed", "error", err)
	}

	result := c.store.Batch(c.controls.MaxShapesPerBatch)
	if err := c.ensureGraph(result); err != nil {
		return err
	}

	fc := c.FrameContext()
	return c.graph.Render(fc.GlobalUniforms(), c.passUniforms(result))
}

// passUniforms builds the per-pass overrides for the active plan.
func (c *Compositor) passUniforms(result BatchResult) map[string]Uniforms {
	visible := c.store.byDepth()
	perPass := map[string]Uniforms{
		PassBackground: ShapeUniforms(visible, c.camera, MaxShadowShapes),
	}
	switch c.key.strategy {
	case StrategyDepthPeel:
		if len(visible) > DepthPeelMaxShapes {
			if !c.overCap {
				compositorLogger().Warn("too many shapes for depth peeling, frontmost shapes dropped",
					"visible", len(visible), "max", DepthPeelMaxShapes)
			}
			c.overCap = true
		} else {
			c.overCap = false
		}
		shared := PeelUniforms(visible, c.camera, DepthPeelMaxShapes, c.controls.TintAlpha)
		for i := range c.key.topology.Batches {
			perPass[PeelPassName(i)] = shared
		}
	default:
		for i, b := range result.Batches {
			perPass[BatchPassName(i)] = BatchUniforms(b, c.camera, result.MaxPerBatch, c.controls.TintAlpha)
		}
	}
	return perPass
}

// Dispose releases the graph and the background. Safe to call more than
// once.
func (c *Compositor) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	if c.graph != nil {
		c.graph.Dispose()
	}
	c.background.Dispose()
}
