package glass

import (
	"errors"
	"slices"
	"testing"
)

func TestShaderSpec_Schema(t *testing.T) {
	tests := []struct {
		spec ShaderSpec
		has  []string
	}{
		{ShaderSpec{Name: ShaderBackground, MaxShapes: 4}, []string{"u_bgTexture", "u_bgTextureReady", "u_shadowPosition", UniformShapePositions}},
		{ShaderSpec{Name: ShaderBatch, MaxShapes: 4}, []string{UniformBG, UniformPreviousLayer, UniformTint, UniformMergeK, "u_glareAngle"}},
		{ShaderSpec{Name: ShaderPassthrough}, []string{UniformBG, UniformResolution}},
		{ShaderSpec{Name: ShaderPeel, MaxShapes: 4}, []string{UniformPrevDepth, UniformShapeDepths, UniformShapeTints, UniformPeelIndex}},
		{ShaderSpec{Name: ShaderPeelComposite, Peels: 3}, []string{"u_peel0", "u_peel2", UniformBG}},
	}
	for _, tt := range tests {
		t.Run(tt.spec.Name, func(t *testing.T) {
			schema, err := tt.spec.Schema()
			if err != nil {
				t.Fatalf("Expected schema, got %v", err)
			}
			for _, name := range tt.has {
				if _, ok := schema[name]; !ok {
					t.Errorf("Expected %s in schema", name)
				}
			}
		})
	}

	schema, _ := ShaderSpec{Name: ShaderBatch, MaxShapes: 7}.Schema()
	if got := schema[UniformShapeRadii]; got != (UniformSpec{Type: UniformFloat, Len: 7}) || !got.IsArray() {
		t.Errorf("Expected a float[7] array, got %+v", got)
	}

	bad := []ShaderSpec{
		{Name: "bloom"},
		{Name: ShaderBatch},
		{Name: ShaderBackground},
		{Name: ShaderPeel},
		{Name: ShaderPeelComposite},
	}
	for _, spec := range bad {
		if _, err := spec.Schema(); !errors.Is(err, ErrUnsupportedShader) {
			t.Errorf("%+v: Expected ErrUnsupportedShader, got %v", spec, err)
		}
	}
}

func TestCheckUniform(t *testing.T) {
	tex := &mockTexture{w: 1, h: 1}
	ok := []struct {
		spec UniformSpec
		v    any
	}{
		{UniformSpec{Type: UniformFloat}, float32(1)},
		{UniformSpec{Type: UniformFloat, Len: 3}, []float32{1, 2}},
		{UniformSpec{Type: UniformVec2}, Vec2{}},
		{UniformSpec{Type: UniformVec2}, [2]float32{}},
		{UniformSpec{Type: UniformVec2, Len: 2}, []Vec2{{}, {}}},
		{UniformSpec{Type: UniformVec3}, [3]float32{}},
		{UniformSpec{Type: UniformVec4}, RGBA{}},
		{UniformSpec{Type: UniformVec4, Len: 2}, []RGBA{{}}},
		{UniformSpec{Type: UniformInt}, 3},
		{UniformSpec{Type: UniformInt}, int32(3)},
		{UniformSpec{Type: UniformBool}, true},
		{UniformSpec{Type: UniformMat4}, [16]float32{}},
		{UniformSpec{Type: UniformSampler2D}, tex},
	}
	for _, tt := range ok {
		if err := CheckUniform("u", tt.spec, tt.v); err != nil {
			t.Errorf("%s with %T: Expected ok, got %v", tt.spec.Type, tt.v, err)
		}
	}

	bad := []struct {
		spec UniformSpec
		v    any
	}{
		{UniformSpec{Type: UniformFloat}, 1.0},
		{UniformSpec{Type: UniformFloat, Len: 2}, []float32{1, 2, 3}},
		{UniformSpec{Type: UniformVec2}, []float32{1, 2}},
		{UniformSpec{Type: UniformInt}, float32(1)},
		{UniformSpec{Type: UniformBool}, 1},
		{UniformSpec{Type: UniformSampler2D}, nil},
	}
	for _, tt := range bad {
		if err := CheckUniform("u", tt.spec, tt.v); !errors.Is(err, ErrUniformType) {
			t.Errorf("%s with %T: Expected ErrUniformType, got %v", tt.spec.Type, tt.v, err)
		}
	}
}

func TestMerge(t *testing.T) {
	a := Uniforms{"x": 1, "y": 1}
	b := Uniforms{"y": 2}
	got := Merge(a, nil, b)
	if got["x"] != 1 || got["y"] != 2 {
		t.Errorf("Expected later sets to win, got %v", got)
	}
	if a["y"] != 1 {
		t.Error("Expected inputs untouched")
	}
}

func TestFlattenFloats(t *testing.T) {
	tests := []struct {
		v    any
		want []float32
	}{
		{float32(2), []float32{2}},
		{Vec2{X: 1, Y: 2}, []float32{1, 2}},
		{[]Vec2{{X: 1, Y: 2}, {X: 3, Y: 4}}, []float32{1, 2, 3, 4}},
		{RGBA{R: 1, G: 2, B: 3, A: 4}, []float32{1, 2, 3, 4}},
		{[]RGBA{{A: 1}}, []float32{0, 0, 0, 1}},
		{[][3]float32{{1, 2, 3}}, []float32{1, 2, 3}},
		{"nope", nil},
	}
	for _, tt := range tests {
		if got := FlattenFloats(tt.v); !slices.Equal(got, tt.want) {
			t.Errorf("%T: Expected %v, got %v", tt.v, tt.want, got)
		}
	}
}

func TestUniformTypeString(t *testing.T) {
	if UniformSampler2D.String() != "sampler2D" || UniformVec4.String() != "vec4" {
		t.Error("Expected GLSL spellings")
	}
	if got := UniformType(99).String(); got != "UniformType(99)" {
		t.Errorf("Expected UniformType(99), got %s", got)
	}
}
