package glass

import (
	"slices"
	"testing"
)

func TestBatchedPasses_Empty(t *testing.T) {
	configs := BatchedPasses(0, 20)
	if err := ValidatePasses(configs); err != nil {
		t.Fatalf("Expected valid plan, got %v", err)
	}
	if len(configs) != 2 || configs[0].Name != PassBackground || configs[1].Name != PassPassthrough {
		t.Fatalf("Expected [bgPass passthroughPass], got %d passes", len(configs))
	}
	if !configs[1].OutputToScreen || configs[1].Inputs[UniformBG] != PassBackground {
		t.Errorf("Expected passthrough to copy the background to the screen, got %+v", configs[1])
	}
}

func TestBatchedPasses_Chain(t *testing.T) {
	configs := BatchedPasses(3, 20)
	if err := ValidatePasses(configs); err != nil {
		t.Fatalf("Expected valid plan, got %v", err)
	}
	if len(configs) != 4 {
		t.Fatalf("Expected 4 passes, got %d", len(configs))
	}
	prev := PassBackground
	for i, cfg := range configs[1:] {
		if cfg.Name != BatchPassName(i) {
			t.Errorf("Expected %s, got %s", BatchPassName(i), cfg.Name)
		}
		if cfg.Shader != (ShaderSpec{Name: ShaderBatch, MaxShapes: 20}) {
			t.Errorf("Expected batch shader with 20 shapes, got %+v", cfg.Shader)
		}
		if cfg.Inputs[UniformPreviousLayer] != prev || cfg.Inputs[UniformBG] != PassBackground {
			t.Errorf("%s: Expected previous layer %s, got %v", cfg.Name, prev, cfg.Inputs)
		}
		if cfg.OutputToScreen != (i == 2) {
			t.Errorf("%s: Expected only the last batch on screen", cfg.Name)
		}
		prev = cfg.Name
	}
}

func TestDepthPeelPasses(t *testing.T) {
	configs := DepthPeelPasses(3, DepthPeelMaxShapes)
	if err := ValidatePasses(configs); err != nil {
		t.Fatalf("Expected valid plan, got %v", err)
	}
	names := make([]string, len(configs))
	for i, c := range configs {
		names[i] = c.Name
	}
	want := []string{PassBackground, "peel_0", "peel_1", "peel_2", PassPeelComposite}
	if !slices.Equal(names, want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}

	if _, ok := configs[1].Inputs[UniformPrevDepth]; ok {
		t.Error("Expected the first peel without a previous depth")
	}
	for i := 1; i <= 3; i++ {
		if !configs[i].Depth || configs[i].Uniforms[UniformPeelIndex] != i-1 {
			t.Errorf("%s: Expected depth and peel index %d, got %+v", configs[i].Name, i-1, configs[i])
		}
	}
	if got := configs[3].Inputs[UniformPrevDepth]; got != DepthOf("peel_1") {
		t.Errorf("Expected peel_2 to read peel_1 depth, got %q", got)
	}

	composite := configs[4]
	if composite.Shader.Peels != 3 || !composite.OutputToScreen {
		t.Errorf("Expected a 3-input composite on screen, got %+v", composite)
	}
	for i := range 3 {
		if composite.Inputs[PeelInputUniform(i)] != PeelPassName(i) {
			t.Errorf("Expected %s from %s, got %v", PeelInputUniform(i), PeelPassName(i), composite.Inputs)
		}
	}

	if got := DepthPeelPasses(0, 4); len(got) != 3 {
		t.Errorf("Expected at least one peel, got %d passes", len(got))
	}
}

func TestShapeUniforms(t *testing.T) {
	cam := NewCamera(800, 600)
	cam.SetZoom(2)
	shapes := []Shape{
		{ID: "a", Position: Vec2{X: 10, Y: 20}, Size: Size{Width: 100, Height: 50}, Radius: 50, Roundness: 3},
		{ID: "b", Size: Size{Width: 10, Height: 10}},
	}

	u := ShapeUniforms(shapes, cam, 1)
	if u[UniformShapeCount] != 1 {
		t.Fatalf("Expected capacity to cap the count at 1, got %v", u[UniformShapeCount])
	}
	// Screen (420, 260) in an 600px tall viewport.
	if got := u[UniformShapePositions].([]Vec2)[0]; got != (Vec2{X: -420, Y: 340}) {
		t.Errorf("Expected shader position (-420, 340), got %v", got)
	}
	if got := u[UniformShapeSizes].([]Vec2)[0]; got != (Vec2{X: 200, Y: 100}) {
		t.Errorf("Expected zoomed size (200, 100), got %v", got)
	}
	if got := u[UniformShapeRadii].([]float32)[0]; got != 25 {
		t.Errorf("Expected radius 25, got %v", got)
	}
	if got := u[UniformShapeRoundness].([]float32)[0]; got != 3 {
		t.Errorf("Expected roundness 3, got %v", got)
	}

	schema, _ := ShaderSpec{Name: ShaderBatch, MaxShapes: 1}.Schema()
	for name, v := range u {
		if err := CheckUniform(name, schema[name], v); err != nil {
			t.Errorf("Expected %s to fit the batch schema, got %v", name, err)
		}
	}
}

func TestBatchAndPeelUniforms(t *testing.T) {
	cam := NewCamera(100, 100)
	red := RGB{R: 255}
	b := Batch{ZIndex: 1, Tint: red, Shapes: []Shape{{Size: Size{Width: 10, Height: 10}}}}
	u := BatchUniforms(b, cam, 4, 0.3)
	if got := u[UniformTint]; got != (RGBA{R: 1, A: 0.3}) {
		t.Errorf("Expected tint (1,0,0,0.3), got %v", got)
	}

	shapes := []Shape{{ZIndex: 0, Tint: White}, {ZIndex: 2, Tint: red}}
	u = PeelUniforms(shapes, cam, 4, 0.5)
	depths := u[UniformShapeDepths].([]float32)
	if !near(depths[0], 0.25, epsilon) || !near(depths[1], 0.75, epsilon) {
		t.Errorf("Expected depths [0.25 0.75], got %v", depths)
	}
	tints := u[UniformShapeTints].([]RGBA)
	if tints[1] != (RGBA{R: 1, A: 0.5}) {
		t.Errorf("Expected per-shape tint, got %v", tints[1])
	}
	// Negative zIndex must stay above the "nothing peeled" sentinel.
	u = PeelUniforms([]Shape{{ZIndex: -2}, {ZIndex: 1}}, cam, 4, 0.5)
	depths = u[UniformShapeDepths].([]float32)
	if !near(depths[0], 0.2, epsilon) || !near(depths[1], 0.8, epsilon) {
		t.Errorf("Expected depths [0.2 0.8], got %v", depths)
	}
	if depths[0] <= 0 {
		t.Errorf("Expected a positive depth for zIndex -2, got %v", depths[0])
	}
}
