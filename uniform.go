package glass

import (
	"fmt"
	"maps"
	"strconv"
)

// UniformType is the GLSL type of a uniform in a shader schema.
type UniformType int

const (
	UniformFloat UniformType = iota
	UniformVec2
	UniformVec3
	UniformVec4
	UniformInt
	UniformBool
	UniformMat4
	UniformSampler2D
)

// String returns the GLSL spelling of the type.
func (t UniformType) String() string {
	switch t {
	case UniformFloat:
		return "float"
	case UniformVec2:
		return "vec2"
	case UniformVec3:
		return "vec3"
	case UniformVec4:
		return "vec4"
	case UniformInt:
		return "int"
	case UniformBool:
		return "bool"
	case UniformMat4:
		return "mat4"
	case UniformSampler2D:
		return "sampler2D"
	default:
		return fmt.Sprintf("UniformType(%d)", int(t))
	}
}

// UniformSpec describes one uniform. Len > 1 marks an array.
type UniformSpec struct {
	Type UniformType
	Len  int
}

// IsArray returns true for array uniforms.
func (s UniformSpec) IsArray() bool { return s.Len > 1 }

// UniformSchema is the explicit uniform contract of a shader, keyed by the
// GLSL name without any "[0]" suffix.
type UniformSchema map[string]UniformSpec

// Uniforms is a set of uniform values keyed by name.
//
// Accepted Go types per UniformType:
//
//	float      float32, or []float32 for arrays
//	vec2       Vec2 or [2]float32, or []Vec2 for arrays
//	vec3       [3]float32, or [][3]float32 for arrays
//	vec4       RGBA or [4]float32, or []RGBA / [][4]float32 for arrays
//	int        int or int32
//	bool       bool
//	mat4       [16]float32, column-major
//	sampler2D  Texture
type Uniforms map[string]any

// Merge returns a new set with later sets overriding earlier ones.
func Merge(sets ...Uniforms) Uniforms {
	out := make(Uniforms)
	for _, s := range sets {
		maps.Copy(out, s)
	}
	return out
}

// Texture is a backend texture handle.
type Texture interface {
	Size() (width, height int)
}

// Shader names understood by every backend that can run a plan.
const (
	ShaderBackground    = "bg"
	ShaderBatch         = "alphaBatch"
	ShaderPassthrough   = "passthrough"
	ShaderPeel          = "peel"
	ShaderPeelComposite = "peelComposite"
)

// MaxShadowShapes bounds how many shapes the background pass draws drop
// shadows for.
const MaxShadowShapes = 64

// ShaderSpec identifies a fragment shader and its compile-time array sizes.
type ShaderSpec struct {
	Name      string
	MaxShapes int // shape uniform array length
	Peels     int // peel inputs of the composite shader
}

// Uniform names shared between the orchestration layer and the shaders.
const (
	UniformResolution = "u_resolution"
	UniformDPR        = "u_dpr"
	UniformTime       = "u_time"

	UniformBG            = "u_bg"
	UniformPreviousLayer = "u_previousLayer"
	UniformPrevDepth     = "u_prevDepth"

	UniformShapeCount     = "u_shapeCount"
	UniformShapePositions = "u_shapePositions"
	UniformShapeSizes     = "u_shapeSizes"
	UniformShapeRadii     = "u_shapeRadii"
	UniformShapeRoundness = "u_shapeRoundness"
	UniformShapeDepths    = "u_shapeDepths"
	UniformShapeTints     = "u_shapeTints"
	UniformTint           = "u_tint"
	UniformPeelIndex      = "u_peelIndex"
	UniformMergeK         = "u_mergeK"
)

// PeelInputUniform returns the sampler name the composite reads peel i from.
func PeelInputUniform(i int) string {
	return "u_peel" + strconv.Itoa(i)
}

func shadingSchema() UniformSchema {
	return UniformSchema{
		"u_refThickness":        {Type: UniformFloat},
		"u_refFactor":           {Type: UniformFloat},
		"u_refDispersion":       {Type: UniformFloat},
		"u_fresnelRange":        {Type: UniformFloat},
		"u_fresnelHardness":     {Type: UniformFloat},
		"u_fresnelFactor":       {Type: UniformFloat},
		"u_glareRange":          {Type: UniformFloat},
		"u_glareHardness":       {Type: UniformFloat},
		"u_glareFactor":         {Type: UniformFloat},
		"u_glareConvergence":    {Type: UniformFloat},
		"u_glareOppositeFactor": {Type: UniformFloat},
		"u_glareAngle":          {Type: UniformFloat},
		"u_alphaThreshold":      {Type: UniformFloat},
		"u_ditherType":          {Type: UniformInt},
		"u_ditherStrength":      {Type: UniformFloat},
		"u_debugStep":           {Type: UniformInt},
		UniformMergeK:           {Type: UniformFloat},
	}
}

func shapeSchema(n int) UniformSchema {
	return UniformSchema{
		UniformShapeCount:     {Type: UniformInt},
		UniformShapePositions: {Type: UniformVec2, Len: n},
		UniformShapeSizes:     {Type: UniformVec2, Len: n},
		UniformShapeRadii:     {Type: UniformFloat, Len: n},
		UniformShapeRoundness: {Type: UniformFloat, Len: n},
	}
}

// Schema returns the uniform contract of the shader.
func (s ShaderSpec) Schema() (UniformSchema, error) {
	common := UniformSchema{
		UniformResolution: {Type: UniformVec2},
		UniformDPR:        {Type: UniformFloat},
		UniformTime:       {Type: UniformFloat},
	}
	switch s.Name {
	case ShaderBackground:
		if s.MaxShapes < 1 {
			return nil, fmt.Errorf("%w: %s needs MaxShapes >= 1", ErrUnsupportedShader, s.Name)
		}
		return Merged(common, shapeSchema(s.MaxShapes), UniformSchema{
			"u_bgTexture":      {Type: UniformSampler2D},
			"u_bgTextureReady": {Type: UniformBool},
			"u_shadowExpand":   {Type: UniformFloat},
			"u_shadowFactor":   {Type: UniformFloat},
			"u_shadowPosition": {Type: UniformVec2},
		}), nil
	case ShaderBatch:
		if s.MaxShapes < 1 {
			return nil, fmt.Errorf("%w: %s needs MaxShapes >= 1", ErrUnsupportedShader, s.Name)
		}
		return Merged(common, shadingSchema(), shapeSchema(s.MaxShapes), UniformSchema{
			UniformBG:            {Type: UniformSampler2D},
			UniformPreviousLayer: {Type: UniformSampler2D},
			UniformTint:          {Type: UniformVec4},
		}), nil
	case ShaderPassthrough:
		return Merged(common, UniformSchema{
			UniformBG: {Type: UniformSampler2D},
		}), nil
	case ShaderPeel:
		if s.MaxShapes < 1 {
			return nil, fmt.Errorf("%w: %s needs MaxShapes >= 1", ErrUnsupportedShader, s.Name)
		}
		return Merged(common, shadingSchema(), shapeSchema(s.MaxShapes), UniformSchema{
			UniformBG:          {Type: UniformSampler2D},
			UniformPrevDepth:   {Type: UniformSampler2D},
			UniformShapeDepths: {Type: UniformFloat, Len: s.MaxShapes},
			UniformShapeTints:  {Type: UniformVec4, Len: s.MaxShapes},
			UniformPeelIndex:   {Type: UniformInt},
		}), nil
	case ShaderPeelComposite:
		if s.Peels < 1 {
			return nil, fmt.Errorf("%w: %s needs Peels >= 1", ErrUnsupportedShader, s.Name)
		}
		schema := Merged(common, UniformSchema{UniformBG: {Type: UniformSampler2D}})
		for i := range s.Peels {
			schema[PeelInputUniform(i)] = UniformSpec{Type: UniformSampler2D}
		}
		return schema, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedShader, s.Name)
	}
}

// Merged returns the union of schemas.
func Merged(schemas ...UniformSchema) UniformSchema {
	out := make(UniformSchema)
	for _, s := range schemas {
		maps.Copy(out, s)
	}
	return out
}

// CheckUniform reports whether v is an acceptable value for spec. Arrays
// accept any slice length up to spec.Len.
func CheckUniform(name string, spec UniformSpec, v any) error {
	n := -1
	ok := false
	switch spec.Type {
	case UniformFloat:
		switch val := v.(type) {
		case float32:
			ok = true
		case []float32:
			ok, n = true, len(val)
		}
	case UniformVec2:
		switch val := v.(type) {
		case Vec2, [2]float32:
			ok = true
		case []Vec2:
			ok, n = true, len(val)
		}
	case UniformVec3:
		switch val := v.(type) {
		case [3]float32:
			ok = true
		case [][3]float32:
			ok, n = true, len(val)
		}
	case UniformVec4:
		switch val := v.(type) {
		case RGBA, [4]float32:
			ok = true
		case []RGBA:
			ok, n = true, len(val)
		case [][4]float32:
			ok, n = true, len(val)
		}
	case UniformInt:
		switch v.(type) {
		case int, int32:
			ok = true
		}
	case UniformBool:
		_, ok = v.(bool)
	case UniformMat4:
		_, ok = v.([16]float32)
	case UniformSampler2D:
		_, ok = v.(Texture)
	}
	if !ok {
		return fmt.Errorf("%w: %s is %s, got %T", ErrUniformType, name, spec.Type, v)
	}
	if n > max(spec.Len, 1) {
		return fmt.Errorf("%w: %s holds %d elements, got %d", ErrUniformType, name, max(spec.Len, 1), n)
	}
	return nil
}

// FlattenFloats returns the float components of a non-sampler uniform
// value. Ints and bools are not handled.
func FlattenFloats(v any) []float32 {
	switch val := v.(type) {
	case float32:
		return []float32{val}
	case []float32:
		return val
	case Vec2:
		return []float32{val.X, val.Y}
	case [2]float32:
		return val[:]
	case []Vec2:
		out := make([]float32, 0, 2*len(val))
		for _, p := range val {
			out = append(out, p.X, p.Y)
		}
		return out
	case [3]float32:
		return val[:]
	case [][3]float32:
		out := make([]float32, 0, 3*len(val))
		for _, p := range val {
			out = append(out, p[:]...)
		}
		return out
	case RGBA:
		return []float32{val.R, val.G, val.B, val.A}
	case [4]float32:
		return val[:]
	case []RGBA:
		out := make([]float32, 0, 4*len(val))
		for _, c := range val {
			out = append(out, c.R, c.G, c.B, c.A)
		}
		return out
	case [][4]float32:
		out := make([]float32, 0, 4*len(val))
		for _, p := range val {
			out = append(out, p[:]...)
		}
		return out
	case [16]float32:
		return val[:]
	}
	return nil
}
