package software

import (
	"fmt"

	"github.com/go-theft-auto/glass"
)

var grey = glass.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1}

func backgroundShader(u glass.Uniforms) (fragmentFunc, error) {
	p := shadeParams(u)
	fields := shapeFields(u)

	base := glass.SamplerFunc(func(glass.Vec2) glass.RGBA { return grey })
	if ready, _ := u["u_bgTextureReady"].(bool); ready {
		if tex, ok := u["u_bgTexture"].(*Texture); ok && tex.pix != nil {
			base = tex.sampler(p.Resolution).Sample
		}
	}
	return func(frag glass.Vec2) glass.RGBA {
		return glass.ShadeBackground(base(frag), frag, fields, p)
	}, nil
}

func passthroughShader(u glass.Uniforms) (fragmentFunc, error) {
	bg, err := sampler(u, glass.UniformBG)
	if err != nil {
		return nil, err
	}
	return bg.Sample, nil
}

func batchShader(u glass.Uniforms) (fragmentFunc, error) {
	upstream, err := sampler(u, glass.UniformPreviousLayer)
	if err != nil {
		return nil, err
	}
	fields := shapeFields(u)
	if len(fields) == 0 {
		return upstream.Sample, nil
	}

	p := shadeParams(u)
	k := scalar(u, glass.UniformMergeK)
	tint := color(u, glass.UniformTint)
	field := func(q glass.Vec2) float32 {
		return glass.MergedDistance(q, fields, k)
	}
	return func(frag glass.Vec2) glass.RGBA {
		d := field(frag)
		if d/p.Resolution.Y > glass.BoundaryEpsilon {
			return upstream.Sample(frag)
		}
		return glass.ShadeFragment(glass.FragmentInput{
			Frag:   frag,
			D:      d,
			Normal: glass.EstimateNormal(field, frag),
			Tint:   tint,
		}, p, upstream)
	}, nil
}

// sampler returns the bound texture of a sampler uniform.
func sampler(u glass.Uniforms, name string) (glass.Sampler, error) {
	tex, ok := u[name].(*Texture)
	if !ok || tex.pix == nil {
		return nil, fmt.Errorf("%w: %s not bound", glass.ErrMissingInput, name)
	}
	return tex.sampler(vec2(u, glass.UniformResolution)), nil
}

// shapeFields rebuilds the distance fields from the shape arrays. Positions
// arrive in shader form with X negated.
func shapeFields(u glass.Uniforms) []glass.ShapeField {
	positions := glass.FlattenFloats(u[glass.UniformShapePositions])
	sizes := glass.FlattenFloats(u[glass.UniformShapeSizes])
	radii := glass.FlattenFloats(u[glass.UniformShapeRadii])
	roundness := glass.FlattenFloats(u[glass.UniformShapeRoundness])

	n := min(integer(u, glass.UniformShapeCount), len(positions)/2, len(sizes)/2, len(radii), len(roundness))
	fields := make([]glass.ShapeField, 0, max(n, 0))
	for i := range max(n, 0) {
		fields = append(fields, glass.ShapeField{
			Center:    glass.Vec2{X: -positions[2*i], Y: positions[2*i+1]},
			Half:      glass.Vec2{X: sizes[2*i] / 2, Y: sizes[2*i+1] / 2},
			Radius:    radii[i],
			Roundness: roundness[i],
		})
	}
	return fields
}

// shadeParams reads back what FrameContext.GlobalUniforms wrote.
func shadeParams(u glass.Uniforms) glass.ShadeParams {
	dpr := scalar(u, glass.UniformDPR)
	if dpr <= 0 {
		dpr = 1
	}
	return glass.ShadeParams{
		Resolution:      vec2(u, glass.UniformResolution),
		DPR:             dpr,
		Thickness:       scalar(u, "u_refThickness"),
		IOR:             scalar(u, "u_refFactor"),
		Dispersion:      scalar(u, "u_refDispersion"),
		FresnelRange:    scalar(u, "u_fresnelRange"),
		FresnelHardness: scalar(u, "u_fresnelHardness"),
		FresnelFactor:   scalar(u, "u_fresnelFactor"),
		Glare: glass.GlareParams{
			Range:          scalar(u, "u_glareRange"),
			Hardness:       scalar(u, "u_glareHardness"),
			Factor:         scalar(u, "u_glareFactor"),
			Convergence:    scalar(u, "u_glareConvergence"),
			OppositeFactor: scalar(u, "u_glareOppositeFactor"),
			Angle:          scalar(u, "u_glareAngle"),
		},
		AlphaThreshold: scalar(u, "u_alphaThreshold"),
		ShadowExpand:   scalar(u, "u_shadowExpand"),
		ShadowFactor:   scalar(u, "u_shadowFactor"),
		ShadowPosition: vec2(u, "u_shadowPosition"),
		Debug:          glass.DebugStep(integer(u, "u_debugStep")),
	}
}

func scalar(u glass.Uniforms, name string) float32 {
	if f := glass.FlattenFloats(u[name]); len(f) > 0 {
		return f[0]
	}
	return 0
}

func vec2(u glass.Uniforms, name string) glass.Vec2 {
	if f := glass.FlattenFloats(u[name]); len(f) >= 2 {
		return glass.Vec2{X: f[0], Y: f[1]}
	}
	return glass.Vec2{}
}

func color(u glass.Uniforms, name string) glass.RGBA {
	if f := glass.FlattenFloats(u[name]); len(f) >= 4 {
		return glass.RGBA{R: f[0], G: f[1], B: f[2], A: f[3]}
	}
	return glass.RGBA{}
}

func integer(u glass.Uniforms, name string) int {
	switch v := u[name].(type) {
	case int:
		return v
	case int32:
		return int(v)
	}
	return 0
}
