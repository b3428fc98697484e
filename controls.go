package glass

import (
	"errors"
	"fmt"
)

// BackgroundType selects what the background pass rasterizes.
type BackgroundType int

const (
	BackgroundChecker BackgroundType = iota
	BackgroundStripes
	BackgroundGrid
	BackgroundImage
	BackgroundVideo
)

// String returns the control-surface name of the background type.
func (b BackgroundType) String() string {
	switch b {
	case BackgroundChecker:
		return "checker"
	case BackgroundStripes:
		return "stripes"
	case BackgroundGrid:
		return "grid"
	case BackgroundImage:
		return "image"
	case BackgroundVideo:
		return "video"
	default:
		return fmt.Sprintf("BackgroundType(%d)", int(b))
	}
}

// Procedural returns true for pattern backgrounds that need no asset.
func (b BackgroundType) Procedural() bool {
	return b == BackgroundChecker || b == BackgroundStripes || b == BackgroundGrid
}

// DitherType selects the dithering pattern used against banding.
type DitherType int

const (
	DitherNone DitherType = iota
	DitherBayer
	DitherBlueNoise
)

// PerformanceMode selects how quality parameters are chosen.
type PerformanceMode int

const (
	PerformanceAuto PerformanceMode = iota
	PerformanceQuality
	PerformanceSpeed
)

// Strategy selects the transparency compositing strategy.
type Strategy int

const (
	// StrategyBatched chains one alpha pass per batch back to front.
	StrategyBatched Strategy = iota
	// StrategyDepthPeel runs a fixed number of peel passes and a composite.
	// Exact per-fragment depth order at the cost of PeelCount full-screen
	// shading passes regardless of shape density.
	StrategyDepthPeel
)

// String returns the strategy name used in logs.
func (s Strategy) String() string {
	switch s {
	case StrategyBatched:
		return "batched"
	case StrategyDepthPeel:
		return "depth-peel"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// DebugStep limits shading to one stage for inspection.
type DebugStep int

const (
	DebugFull DebugStep = iota
	DebugMask
	DebugNormals
	DebugRefraction
	DebugFresnel
	DebugGlare
)

// Controls is the flat control snapshot read by the core each frame. The
// core never mutates it.
type Controls struct {
	// Refraction
	RefThickness  float32 // rim width in CSS pixels
	RefFactor     float32 // index of refraction
	RefDispersion float32

	// Fresnel
	FresnelRange    float32
	FresnelHardness float32 // percent
	FresnelFactor   float32 // percent

	// Glare
	GlareRange          float32
	GlareHardness       float32 // percent
	GlareFactor         float32 // percent
	GlareConvergence    float32 // percent
	GlareOppositeFactor float32 // percent
	GlareAngle          float32 // degrees

	// Blob merging, as a fraction of the viewport height.
	MergeRatio float32

	// Drop shadow
	ShadowExpand   float32
	ShadowFactor   float32 // percent
	ShadowPosition Vec2

	// Shapes
	ShapeWidth float32 // global width injected into dataset shapes
	TintAlpha  float32 // global tint alpha, 0..1

	// Background
	Background    BackgroundType
	BackgroundURL string

	// Pipeline
	MaxShapesPerBatch int
	Strategy          Strategy
	PeelCount         int

	// Quality
	PerformanceMode PerformanceMode
	DitherType      DitherType
	DitherStrength  float32
	AlphaThreshold  float32

	DebugStep DebugStep
}

// DefaultControls returns the shipped control values.
func DefaultControls() Controls {
	return Controls{
		RefThickness:  20,
		RefFactor:     1.4,
		RefDispersion: 7,

		FresnelRange:    30,
		FresnelHardness: 20,
		FresnelFactor:   20,

		GlareRange:          30,
		GlareHardness:       20,
		GlareFactor:         90,
		GlareConvergence:    50,
		GlareOppositeFactor: 80,
		GlareAngle:          -45,

		MergeRatio: 0.05,

		ShadowExpand:   25,
		ShadowFactor:   15,
		ShadowPosition: Vec2{X: 0, Y: -10},

		ShapeWidth: 200,
		TintAlpha:  0.2,

		Background: BackgroundChecker,

		MaxShapesPerBatch: 20,
		Strategy:          StrategyBatched,
		PeelCount:         8,

		PerformanceMode: PerformanceAuto,
		DitherType:      DitherBlueNoise,
		DitherStrength:  1,
		AlphaThreshold:  0.01,
	}
}

// ErrInvalidControls is wrapped by every Validate failure.
var ErrInvalidControls = errors.New("invalid controls")

// Validate rejects values the shading model cannot work with.
func (c Controls) Validate() error {
	switch {
	case c.RefThickness <= 0:
		return fmt.Errorf("%w: refraction thickness must be positive, got %v", ErrInvalidControls, c.RefThickness)
	case c.RefFactor < 1:
		return fmt.Errorf("%w: refraction factor (IOR) must be >= 1, got %v", ErrInvalidControls, c.RefFactor)
	case c.FresnelRange <= 0:
		return fmt.Errorf("%w: fresnel range must be positive, got %v", ErrInvalidControls, c.FresnelRange)
	case c.GlareRange <= 0:
		return fmt.Errorf("%w: glare range must be positive, got %v", ErrInvalidControls, c.GlareRange)
	case c.MergeRatio < 0:
		return fmt.Errorf("%w: merge ratio must be >= 0, got %v", ErrInvalidControls, c.MergeRatio)
	case c.TintAlpha < 0 || c.TintAlpha > 1:
		return fmt.Errorf("%w: tint alpha must be within [0,1], got %v", ErrInvalidControls, c.TintAlpha)
	case c.MaxShapesPerBatch < 1:
		return fmt.Errorf("%w: max shapes per batch must be >= 1, got %d", ErrInvalidControls, c.MaxShapesPerBatch)
	case c.Strategy == StrategyDepthPeel && c.PeelCount < 1:
		return fmt.Errorf("%w: peel count must be >= 1, got %d", ErrInvalidControls, c.PeelCount)
	case (c.Background == BackgroundImage || c.Background == BackgroundVideo) && c.BackgroundURL == "":
		return fmt.Errorf("%w: %s background needs a URL", ErrInvalidControls, c.Background)
	}
	return nil
}
