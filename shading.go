package glass

import (
	"slices"

	"github.com/chewxy/math32"
)

// BoundaryEpsilon is the half-width, in normalized distance, of the band
// where shaded glass blends into the pass-through layer.
const BoundaryEpsilon float32 = 0.0005

// refractionScale converts the edge factor into an offset as a fraction of
// the vertical resolution.
const refractionScale float32 = 0.05

// Sampler reads a color at a fragment coordinate (pixels, bottom-left
// origin, like gl_FragCoord).
type Sampler interface {
	Sample(frag Vec2) RGBA
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(frag Vec2) RGBA

// Sample implements Sampler.
func (f SamplerFunc) Sample(frag Vec2) RGBA { return f(frag) }

// GlareParams are the glare controls as fractions and radians.
type GlareParams struct {
	Range          float32
	Hardness       float32
	Factor         float32
	Convergence    float32
	OppositeFactor float32
	Angle          float32
}

// ShadeParams is the per-frame parameter set of the shading model. Percent
// controls are converted to fractions and degrees to radians.
type ShadeParams struct {
	Resolution Vec2 // device pixels
	DPR        float32

	Thickness  float32
	IOR        float32
	Dispersion float32

	FresnelRange    float32
	FresnelHardness float32
	FresnelFactor   float32

	Glare GlareParams

	TintAlpha      float32
	AlphaThreshold float32 // coverage below this passes the layer through

	ShadowExpand   float32
	ShadowFactor   float32
	ShadowPosition Vec2

	Debug DebugStep
}

// ShadeParamsFromControls resolves a control snapshot for one frame.
func ShadeParamsFromControls(c Controls, resolution Vec2, dpr float32) ShadeParams {
	if dpr <= 0 {
		dpr = 1
	}
	return ShadeParams{
		Resolution:      resolution,
		DPR:             dpr,
		Thickness:       c.RefThickness,
		IOR:             c.RefFactor,
		Dispersion:      c.RefDispersion,
		FresnelRange:    c.FresnelRange,
		FresnelHardness: c.FresnelHardness / 100,
		FresnelFactor:   c.FresnelFactor / 100,
		Glare: GlareParams{
			Range:          c.GlareRange,
			Hardness:       c.GlareHardness / 100,
			Factor:         c.GlareFactor / 100,
			Convergence:    c.GlareConvergence / 100,
			OppositeFactor: c.GlareOppositeFactor / 100,
			Angle:          c.GlareAngle * math32.Pi / 180,
		},
		TintAlpha:      c.TintAlpha,
		AlphaThreshold: c.AlphaThreshold,
		ShadowExpand:   c.ShadowExpand,
		ShadowFactor:   c.ShadowFactor / 100,
		ShadowPosition: c.ShadowPosition,
		Debug:          c.DebugStep,
	}
}

// RefractionEdgeFactor is the thin-rim refraction strength at depth nd (CSS
// pixels into the glass). It is zero once nd reaches the rim thickness.
func RefractionEdgeFactor(nd, thickness, ior float32) float32 {
	if nd >= thickness || thickness <= 0 {
		return 0
	}
	ratio := clampf(1-nd/thickness, 0, 1)
	thetaI := math32.Asin(ratio * ratio)
	thetaT := math32.Asin(math32.Sin(thetaI) / ior)
	return -math32.Tan(thetaT - thetaI)
}

// distanceFalloff is the shared Fresnel/glare geometry term. dCSS is the
// signed distance in CSS pixels (negative inside).
func distanceFalloff(dCSS, rng, hardness float32) float32 {
	base := 1 + dCSS/1500*math32.Pow(500/rng, 2) + hardness
	if base <= 0 {
		return 0
	}
	return clampf(math32.Pow(base, 5), 0, 1)
}

// FresnelTerm returns the rim highlight strength in [0,1].
func FresnelTerm(dCSS, rng, hardness float32) float32 {
	return distanceFalloff(dCSS, rng, hardness)
}

// GlareTerm returns the angle-dependent glare strength in [0,1]. The side
// facing the glare angle gets the full term, the opposite side is dimmed by
// OppositeFactor, and Convergence narrows the lit arc.
func GlareTerm(dCSS float32, normal Vec2, p GlareParams) float32 {
	geom := distanceFalloff(dCSS, p.Range, p.Hardness)
	if geom == 0 || (normal == Vec2{}) {
		return 0
	}
	align := math32.Cos(GlareAngle(normal) - p.Angle)
	weight := align
	if align < 0 {
		weight = -align * p.OppositeFactor
	}
	weight = math32.Pow(weight, 1+p.Convergence*4)
	return clampf(geom*weight, 0, 1)
}

// ShadowTerm is the drop-shadow darkening for one shape at distance d (CSS
// pixels). Shadows of several shapes combine with max, not SmoothMin.
func ShadowTerm(dCSS, expand, factor float32) float32 {
	if expand <= 0 {
		if dCSS <= 0 {
			return factor
		}
		return 0
	}
	return factor * math32.Exp(-math32.Max(dCSS, 0)/expand)
}

// ShadeBackground darkens a background color with the drop shadows of
// fields at frag. Shadows are sampled at frag minus the shadow offset (CSS
// pixels, Y up) and combined with max.
func ShadeBackground(bg RGBA, frag Vec2, fields []ShapeField, p ShadeParams) RGBA {
	at := frag.Sub(p.ShadowPosition.Mul(p.DPR))
	var shadow float32
	for _, f := range fields {
		shadow = math32.Max(shadow, ShadowTerm(f.Distance(at)/p.DPR, p.ShadowExpand, p.ShadowFactor))
	}
	k := 1 - clampf(shadow, 0, 1)
	return RGBA{R: bg.R * k, G: bg.G * k, B: bg.B * k, A: 1}
}

// FragmentInput is what the batch shader knows about one fragment.
type FragmentInput struct {
	Frag   Vec2    // pixel coordinate, bottom-left origin
	D      float32 // merged signed distance in device pixels
	Normal Vec2
	Tint   RGBA
}

// ShadeFragment runs the glass model for one fragment. upstream is the
// previous layer (background plus earlier batches).
func ShadeFragment(in FragmentInput, p ShadeParams, upstream Sampler) RGBA {
	under := upstream.Sample(in.Frag)
	dNorm := in.D / p.Resolution.Y
	mask := 1 - smoothstep(-BoundaryEpsilon, BoundaryEpsilon, dNorm)
	if dNorm > BoundaryEpsilon || mask < p.AlphaThreshold {
		return under
	}

	dCSS := in.D / p.DPR
	nd := -dCSS

	switch p.Debug {
	case DebugMask:
		return RGBA{R: 1, G: 1, B: 1, A: 1}
	case DebugNormals:
		return RGBA{R: in.Normal.X*0.5 + 0.5, G: in.Normal.Y*0.5 + 0.5, B: 0.5, A: 1}
	case DebugFresnel:
		f := FresnelTerm(dCSS, p.FresnelRange, p.FresnelHardness)
		return RGBA{R: f, G: f, B: f, A: 1}
	case DebugGlare:
		g := GlareTerm(dCSS, in.Normal, p.Glare)
		return RGBA{R: g, G: g, B: g, A: 1}
	}

	tintStrength := in.Tint.A * 0.8
	edge := RefractionEdgeFactor(nd, p.Thickness, p.IOR)

	var col RGBA
	if edge == 0 {
		col = under.Mix(in.Tint, tintStrength)
	} else {
		offset := in.Normal.Mul(-edge * refractionScale * p.Resolution.Y)
		spread := 0.02 * p.Dispersion
		r := upstream.Sample(in.Frag.Add(offset.Mul(1 - spread)))
		g := upstream.Sample(in.Frag.Add(offset))
		b := upstream.Sample(in.Frag.Add(offset.Mul(1 + spread)))
		col = RGBA{R: r.R, G: g.G, B: b.B, A: 1}.Mix(in.Tint, tintStrength)
	}
	col.A = 1

	if p.Debug != DebugRefraction {
		fresnel := FresnelTerm(dCSS, p.FresnelRange, p.FresnelHardness)
		col = LightenLCH(col, fresnel*p.FresnelFactor)

		glare := GlareTerm(dCSS, in.Normal, p.Glare)
		col = BoostLCH(col, glare*p.Glare.Factor, glare*p.Glare.Factor*0.5)
	}

	return col.Mix(under, smoothstep(-BoundaryEpsilon, BoundaryEpsilon, dNorm))
}

// NormalizeDepth maps a zIndex within [minZ, maxZ] into (0,1) for
// depth-peel comparisons. Zero is the sentinel meaning nothing has been
// peeled yet, so every zIndex in range lands strictly above it.
func NormalizeDepth(z, minZ, maxZ int) float32 {
	if maxZ < minZ {
		minZ, maxZ = maxZ, minZ
	}
	z = min(max(z, minZ), maxZ)
	return float32(float64(z-minZ+1) / float64(maxZ-minZ+2))
}

// PeelOrder returns the zIndex each peel extracts at a fragment covered by
// shapes with the given zIndices: peel i takes the lowest zIndex strictly
// deeper than peel i-1. Peels beyond the distinct depths are omitted.
func PeelOrder(zs []int, peels int) []int {
	sorted := slices.Clone(zs)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	if len(sorted) > peels {
		sorted = sorted[:peels]
	}
	return sorted
}

// CompositePeels blends peel colors back to front over bg. Where no peel
// contributed any alpha the sharp background is returned unchanged.
func CompositePeels(bg RGBA, peels []RGBA) RGBA {
	var total float32
	for _, p := range peels {
		total += p.A
	}
	if total < 1e-4 {
		return bg
	}
	out := bg
	for _, p := range peels {
		out = out.Mix(RGBA{R: p.R, G: p.G, B: p.B, A: 1}, p.A)
	}
	out.A = 1
	return out
}
