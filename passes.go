package glass

import "fmt"

// Fixed pass names.
const (
	PassBackground    = "bgPass"
	PassPassthrough   = "passthroughPass"
	PassPeelComposite = "peelComposite"
)

// BatchPassName returns the name of the alpha pass for batch i.
func BatchPassName(i int) string {
	return fmt.Sprintf("alphaBatch_%d", i)
}

// PeelPassName returns the name of peel pass i.
func PeelPassName(i int) string {
	return fmt.Sprintf("peel_%d", i)
}

// BatchedPasses plans the batched-alpha strategy: the background, then one
// pass per batch compositing over the previous layer, the last one writing
// to the screen. With no batches the background is copied to the screen.
func BatchedPasses(batchCount, maxShapes int) []RenderPassConfig {
	configs := []RenderPassConfig{backgroundPass()}
	if batchCount <= 0 {
		return append(configs, RenderPassConfig{
			Name:           PassPassthrough,
			Shader:         ShaderSpec{Name: ShaderPassthrough},
			Inputs:         map[string]string{UniformBG: PassBackground},
			OutputToScreen: true,
		})
	}
	prev := PassBackground
	for i := range batchCount {
		name := BatchPassName(i)
		configs = append(configs, RenderPassConfig{
			Name:   name,
			Shader: ShaderSpec{Name: ShaderBatch, MaxShapes: maxShapes},
			Inputs: map[string]string{
				UniformBG:            PassBackground,
				UniformPreviousLayer: prev,
			},
			OutputToScreen: i == batchCount-1,
		})
		prev = name
	}
	return configs
}

// DepthPeelPasses plans the depth-peel strategy: the background, peels
// passes that each extract the next layer behind the previous peel's depth,
// and a composite blending every peel over the background to the screen.
func DepthPeelPasses(peels, maxShapes int) []RenderPassConfig {
	peels = max(peels, 1)
	configs := []RenderPassConfig{backgroundPass()}
	composite := RenderPassConfig{
		Name:           PassPeelComposite,
		Shader:         ShaderSpec{Name: ShaderPeelComposite, Peels: peels},
		Inputs:         map[string]string{UniformBG: PassBackground},
		OutputToScreen: true,
	}
	for i := range peels {
		name := PeelPassName(i)
		inputs := map[string]string{UniformBG: PassBackground}
		if i > 0 {
			inputs[UniformPrevDepth] = DepthOf(PeelPassName(i - 1))
		}
		configs = append(configs, RenderPassConfig{
			Name:     name,
			Shader:   ShaderSpec{Name: ShaderPeel, MaxShapes: maxShapes},
			Inputs:   inputs,
			Depth:    true,
			Uniforms: Uniforms{UniformPeelIndex: i},
		})
		composite.Inputs[PeelInputUniform(i)] = name
	}
	return append(configs, composite)
}

func backgroundPass() RenderPassConfig {
	return RenderPassConfig{
		Name:   PassBackground,
		Shader: ShaderSpec{Name: ShaderBackground, MaxShapes: MaxShadowShapes},
	}
}

// ShapeUniforms packs shapes into the shader shape arrays. Positions follow
// the shader position contract, sizes and radii are in device pixels.
// Shapes beyond capacity are dropped.
func ShapeUniforms(shapes []Shape, cam *Camera, capacity int) Uniforms {
	n := min(len(shapes), capacity)
	_, vpH := cam.ViewportSize()
	zoom := cam.Zoom()

	positions := make([]Vec2, n)
	sizes := make([]Vec2, n)
	radii := make([]float32, n)
	roundness := make([]float32, n)
	for i, s := range shapes[:n] {
		screen := cam.WorldToScreen(s.Position.X, s.Position.Y)
		positions[i] = ShaderPosition(screen, vpH)
		sizes[i] = Vec2{X: s.Size.Width * zoom, Y: s.Size.Height * zoom}
		radii[i] = FieldFromShape(s).Radius * zoom
		roundness[i] = s.Roundness
	}
	return Uniforms{
		UniformShapeCount:     n,
		UniformShapePositions: positions,
		UniformShapeSizes:     sizes,
		UniformShapeRadii:     radii,
		UniformShapeRoundness: roundness,
	}
}

// BatchUniforms returns the per-pass uniforms of one alpha batch.
func BatchUniforms(b Batch, cam *Camera, capacity int, tintAlpha float32) Uniforms {
	u := ShapeUniforms(b.Shapes, cam, capacity)
	u[UniformTint] = tintColor(b.Tint, tintAlpha)
	return u
}

// PeelUniforms returns the uniforms shared by every peel pass. Each shape
// carries its own tint and normalized depth since a peel sees every depth.
func PeelUniforms(shapes []Shape, cam *Camera, capacity int, tintAlpha float32) Uniforms {
	u := ShapeUniforms(shapes, cam, capacity)
	n := u[UniformShapeCount].(int)
	var minZ, maxZ int
	for i, s := range shapes[:n] {
		if i == 0 {
			minZ, maxZ = s.ZIndex, s.ZIndex
			continue
		}
		minZ = min(minZ, s.ZIndex)
		maxZ = max(maxZ, s.ZIndex)
	}
	depths := make([]float32, n)
	tints := make([]RGBA, n)
	for i, s := range shapes[:n] {
		depths[i] = NormalizeDepth(s.ZIndex, minZ, maxZ)
		tints[i] = tintColor(s.Tint, tintAlpha)
	}
	u[UniformShapeDepths] = depths
	u[UniformShapeTints] = tints
	return u
}

func tintColor(c RGB, alpha float32) RGBA {
	f := c.Floats()
	return RGBA{R: f[0], G: f[1], B: f[2], A: alpha}
}
