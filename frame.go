package glass

import "time"

// FrameContext is everything the passes of one frame read. It is built once
// per frame from the control snapshot and never mutated afterwards.
type FrameContext struct {
	Controls   Controls
	Quality    QualitySettings
	Resolution Vec2 // device pixels
	DPR        float32
	Time       time.Duration // since compositor start

	Background      Texture // nil until a texture background is ready
	BackgroundReady bool
}

// MergeK returns the smooth-min radius in device pixels.
func (f FrameContext) MergeK() float32 {
	return f.Controls.MergeRatio * f.Resolution.Y
}

// ShadeParams returns the CPU shading parameters for this frame.
func (f FrameContext) ShadeParams() ShadeParams {
	p := ShadeParamsFromControls(f.Controls, f.Resolution, f.DPR)
	p.AlphaThreshold = f.Quality.AlphaThreshold
	return p
}

// GlobalUniforms returns the uniforms every pass may read. Passes ignore
// names outside their schema.
func (f FrameContext) GlobalUniforms() Uniforms {
	p := f.ShadeParams()
	u := Uniforms{
		UniformResolution: f.Resolution,
		UniformDPR:        p.DPR,
		UniformTime:       float32(f.Time.Seconds()),
		UniformMergeK:     f.MergeK(),

		"u_refThickness":        p.Thickness,
		"u_refFactor":           p.IOR,
		"u_refDispersion":       p.Dispersion,
		"u_fresnelRange":        p.FresnelRange,
		"u_fresnelHardness":     p.FresnelHardness,
		"u_fresnelFactor":       p.FresnelFactor,
		"u_glareRange":          p.Glare.Range,
		"u_glareHardness":       p.Glare.Hardness,
		"u_glareFactor":         p.Glare.Factor,
		"u_glareConvergence":    p.Glare.Convergence,
		"u_glareOppositeFactor": p.Glare.OppositeFactor,
		"u_glareAngle":          p.Glare.Angle,
		"u_debugStep":           int(p.Debug),

		"u_alphaThreshold": f.Quality.AlphaThreshold,
		"u_ditherType":     int(f.Quality.DitherType),
		"u_ditherStrength": f.Quality.DitherStrength,

		"u_bgTextureReady": f.BackgroundReady && f.Background != nil,
		"u_shadowExpand":   p.ShadowExpand,
		"u_shadowFactor":   p.ShadowFactor,
		"u_shadowPosition": p.ShadowPosition,
	}
	if f.Background != nil {
		u["u_bgTexture"] = f.Background
	}
	return u
}
