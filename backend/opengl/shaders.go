package opengl

import (
	"fmt"
	"strings"

	"github.com/go-theft-auto/glass"
)

// vertexShaderSource draws one oversized triangle covering the viewport.
// No vertex buffers are needed.
const vertexShaderSource = `
#version 410 core
void main() {
    vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
`

const commonHeader = `
out vec4 fragColor;

uniform vec2 u_resolution;
uniform float u_dpr;
uniform float u_time;

const float EPS = 0.0005;
`

// shapeSnippet declares the shape arrays and the distance functions. Shape
// positions arrive with X negated; shapeCenter undoes it.
const shapeSnippet = `
uniform int u_shapeCount;
uniform vec2 u_shapePositions[MAX_SHAPES];
uniform vec2 u_shapeSizes[MAX_SHAPES];
uniform float u_shapeRadii[MAX_SHAPES];
uniform float u_shapeRoundness[MAX_SHAPES];

float superellipseCorner(vec2 p, float n, float r) {
    p = abs(p);
    return pow(pow(p.x, n) + pow(p.y, n), 1.0 / n) - r;
}

float roundedShape(vec2 p, vec2 halfSize, float radius, float n) {
    radius = clamp(radius, 0.0, min(halfSize.x, halfSize.y));
    vec2 q = abs(p) - halfSize;
    if (q.x > -radius && q.y > -radius) {
        return superellipseCorner(q + radius, n, radius);
    }
    return length(max(q, 0.0)) + min(max(q.x, q.y), 0.0);
}

vec2 shapeCenter(int i) {
    return vec2(-u_shapePositions[i].x, u_shapePositions[i].y);
}

float shapeSDF(vec2 p, int i) {
    return roundedShape(p - shapeCenter(i), u_shapeSizes[i] * 0.5, u_shapeRadii[i], u_shapeRoundness[i]);
}

float smin(float a, float b, float k) {
    float m = min(a, b);
    if (k <= 0.0) {
        return m;
    }
    float h = clamp(k - abs(a - b), 0.0, k) / k;
    return m - h * h * k * 0.25;
}
`

// shadingSnippet is the glass model shared by the batch and peel shaders.
const shadingSnippet = `
uniform float u_refThickness;
uniform float u_refFactor;
uniform float u_refDispersion;
uniform float u_fresnelRange;
uniform float u_fresnelHardness;
uniform float u_fresnelFactor;
uniform float u_glareRange;
uniform float u_glareHardness;
uniform float u_glareFactor;
uniform float u_glareConvergence;
uniform float u_glareOppositeFactor;
uniform float u_glareAngle;
uniform float u_alphaThreshold;
uniform int u_ditherType;
uniform float u_ditherStrength;
uniform int u_debugStep;
uniform float u_mergeK;

const int DEBUG_MASK = 1;
const int DEBUG_NORMALS = 2;
const int DEBUG_REFRACTION = 3;
const int DEBUG_FRESNEL = 4;
const int DEBUG_GLARE = 5;

float refractionEdge(float nd) {
    if (nd >= u_refThickness || u_refThickness <= 0.0) {
        return 0.0;
    }
    float ratio = clamp(1.0 - nd / u_refThickness, 0.0, 1.0);
    float thetaI = asin(ratio * ratio);
    float thetaT = asin(sin(thetaI) / u_refFactor);
    return -tan(thetaT - thetaI);
}

float falloff(float dCss, float range, float hardness) {
    float base = 1.0 + dCss / 1500.0 * pow(500.0 / range, 2.0) + hardness;
    if (base <= 0.0) {
        return 0.0;
    }
    return clamp(pow(base, 5.0), 0.0, 1.0);
}

float glareTerm(float dCss, vec2 n) {
    float geom = falloff(dCss, u_glareRange, u_glareHardness);
    if (geom == 0.0 || n == vec2(0.0)) {
        return 0.0;
    }
    float align = cos(atan(n.y, n.x) - u_glareAngle);
    float weight = align < 0.0 ? -align * u_glareOppositeFactor : align;
    weight = pow(weight, 1.0 + u_glareConvergence * 4.0);
    return clamp(geom * weight, 0.0, 1.0);
}

// CIE LCh(ab), D65, L in [0,1].
float srgbToLinear(float c) {
    return c <= 0.04045 ? c / 12.92 : pow((c + 0.055) / 1.055, 2.4);
}

float linearToSrgb(float c) {
    return c <= 0.0031308 ? 12.92 * c : 1.055 * pow(c, 1.0 / 2.4) - 0.055;
}

float labF(float t) {
    return t > 216.0 / 24389.0 ? pow(t, 1.0 / 3.0) : t / 3.0 * 841.0 / 36.0 + 4.0 / 29.0;
}

float labFInv(float t) {
    return t > 6.0 / 29.0 ? t * t * t : 3.0 * 36.0 / 841.0 * (t - 4.0 / 29.0);
}

const vec3 D65 = vec3(0.95047, 1.0, 1.08883);

vec3 rgbToLch(vec3 c) {
    vec3 lin = vec3(srgbToLinear(c.r), srgbToLinear(c.g), srgbToLinear(c.b));
    vec3 xyz = mat3(
        0.4124564, 0.2126729, 0.0193339,
        0.3575761, 0.7151522, 0.1191920,
        0.1804375, 0.0721750, 0.9503041) * lin;
    float fx = labF(xyz.x / D65.x);
    float fy = labF(xyz.y / D65.y);
    float fz = labF(xyz.z / D65.z);
    float l = 1.16 * fy - 0.16;
    float a = 5.0 * (fx - fy);
    float b = 2.0 * (fy - fz);
    return vec3(l, length(vec2(a, b)), atan(b, a));
}

vec3 lchToRgb(vec3 lch) {
    float a = lch.y * cos(lch.z);
    float b = lch.y * sin(lch.z);
    float fy = (lch.x + 0.16) / 1.16;
    vec3 xyz = D65 * vec3(labFInv(fy + a / 5.0), labFInv(fy), labFInv(fy - b / 2.0));
    vec3 lin = mat3(
        3.2404542, -0.9692660, 0.0556434,
        -1.5371385, 1.8760108, -0.2040259,
        -0.4985314, 0.0415560, 1.0572252) * xyz;
    lin = clamp(lin, 0.0, 1.0);
    return vec3(linearToSrgb(lin.r), linearToSrgb(lin.g), linearToSrgb(lin.b));
}

vec3 lightenLch(vec3 c, float amount) {
    amount = clamp(amount, 0.0, 1.0);
    if (amount == 0.0) {
        return c;
    }
    vec3 lch = rgbToLch(c);
    lch.x += (1.0 - lch.x) * amount;
    return lchToRgb(lch);
}

vec3 boostLch(vec3 c, float light, float chroma) {
    light = clamp(light, 0.0, 1.0);
    if (light == 0.0 && chroma == 0.0) {
        return c;
    }
    vec3 lch = rgbToLch(c);
    lch.x += (1.0 - lch.x) * light;
    lch.y *= 1.0 + chroma;
    return lchToRgb(lch);
}

const float BAYER4[16] = float[16](
    0.0, 8.0, 2.0, 10.0,
    12.0, 4.0, 14.0, 6.0,
    3.0, 11.0, 1.0, 9.0,
    15.0, 7.0, 13.0, 5.0);

float dither(vec2 frag) {
    float v;
    if (u_ditherType == 1) {
        ivec2 p = ivec2(mod(frag, 4.0));
        v = BAYER4[p.y * 4 + p.x] / 16.0;
    } else if (u_ditherType == 2) {
        // Interleaved gradient noise stands in for a blue-noise texture.
        v = fract(52.9829189 * fract(dot(frag, vec2(0.06711056, 0.00583715))));
    } else {
        return 0.0;
    }
    return (v - 0.5) / 255.0 * u_ditherStrength;
}

// shadeGlass runs the glass model for one fragment. layer is the texture
// refraction samples from. Returns false when the fragment is outside.
bool shadeGlass(vec2 frag, float d, vec2 n, vec4 tint, sampler2D layer, out vec4 outColor) {
    vec4 under = texture(layer, frag / u_resolution);
    float dNorm = d / u_resolution.y;
    float mask = 1.0 - smoothstep(-EPS, EPS, dNorm);
    if (dNorm > EPS || mask < u_alphaThreshold) {
        outColor = under;
        return false;
    }
    float dCss = d / u_dpr;

    if (u_debugStep == DEBUG_MASK) {
        outColor = vec4(1.0);
        return true;
    }
    if (u_debugStep == DEBUG_NORMALS) {
        outColor = vec4(n * 0.5 + 0.5, 0.5, 1.0);
        return true;
    }
    if (u_debugStep == DEBUG_FRESNEL) {
        outColor = vec4(vec3(falloff(dCss, u_fresnelRange, u_fresnelHardness)), 1.0);
        return true;
    }
    if (u_debugStep == DEBUG_GLARE) {
        outColor = vec4(vec3(glareTerm(dCss, n)), 1.0);
        return true;
    }

    float tintStrength = tint.a * 0.8;
    float edge = refractionEdge(-dCss);
    vec3 col;
    if (edge == 0.0) {
        col = mix(under.rgb, tint.rgb, tintStrength);
    } else {
        vec2 offset = -n * edge * 0.05 * u_resolution.y;
        float spread = 0.02 * u_refDispersion;
        float r = texture(layer, (frag + offset * (1.0 - spread)) / u_resolution).r;
        float g = texture(layer, (frag + offset) / u_resolution).g;
        float b = texture(layer, (frag + offset * (1.0 + spread)) / u_resolution).b;
        col = mix(vec3(r, g, b), tint.rgb, tintStrength);
    }

    if (u_debugStep != DEBUG_REFRACTION) {
        col = lightenLch(col, falloff(dCss, u_fresnelRange, u_fresnelHardness) * u_fresnelFactor);
        float glare = glareTerm(dCss, n);
        col = boostLch(col, glare * u_glareFactor, glare * u_glareFactor * 0.5);
    }

    col = mix(col, under.rgb, smoothstep(-EPS, EPS, dNorm));
    col += dither(frag);
    outColor = vec4(col, mask);
    return true;
}
`

const backgroundFragment = `
uniform sampler2D u_bgTexture;
uniform bool u_bgTextureReady;
uniform float u_shadowExpand;
uniform float u_shadowFactor;
uniform vec2 u_shadowPosition;

float shadowTerm(float dCss) {
    if (u_shadowExpand <= 0.0) {
        return dCss <= 0.0 ? u_shadowFactor : 0.0;
    }
    return u_shadowFactor * exp(-max(dCss, 0.0) / u_shadowExpand);
}

void main() {
    vec2 frag = gl_FragCoord.xy;
    vec3 col = u_bgTextureReady ? texture(u_bgTexture, frag / u_resolution).rgb : vec3(0.5);

    vec2 p = frag - u_shadowPosition * u_dpr;
    float shadow = 0.0;
    for (int i = 0; i < MAX_SHAPES; i++) {
        if (i >= u_shapeCount) {
            break;
        }
        shadow = max(shadow, shadowTerm(shapeSDF(p, i) / u_dpr));
    }
    fragColor = vec4(col * (1.0 - clamp(shadow, 0.0, 1.0)), 1.0);
}
`

const passthroughFragment = `
uniform sampler2D u_bg;

void main() {
    fragColor = texture(u_bg, gl_FragCoord.xy / u_resolution);
}
`

const batchFragment = `
uniform sampler2D u_bg;
uniform sampler2D u_previousLayer;
uniform vec4 u_tint;

float sceneSDF(vec2 p) {
    float d = 1e10;
    for (int i = 0; i < MAX_SHAPES; i++) {
        if (i >= u_shapeCount) {
            break;
        }
        float di = shapeSDF(p, i);
        d = i == 0 ? di : smin(d, di, u_mergeK);
    }
    return d;
}

vec2 sceneNormal(vec2 p) {
    vec2 g = vec2(
        sceneSDF(p + vec2(1.0, 0.0)) - sceneSDF(p - vec2(1.0, 0.0)),
        sceneSDF(p + vec2(0.0, 1.0)) - sceneSDF(p - vec2(0.0, 1.0)));
    return length(g) > 0.0 ? normalize(g) : vec2(0.0);
}

void main() {
    vec2 frag = gl_FragCoord.xy;
    if (u_shapeCount == 0) {
        fragColor = texture(u_previousLayer, frag / u_resolution);
        return;
    }
    float d = sceneSDF(frag);
    vec4 col;
    if (shadeGlass(frag, d, sceneNormal(frag), u_tint, u_previousLayer, col)) {
        col.a = 1.0;
    }
    fragColor = col;
}
`

// peelFragment extracts, per fragment, the nearest depth group strictly
// behind the previous peel and shades it against the background.
const peelFragment = `
uniform sampler2D u_bg;
uniform sampler2D u_prevDepth;
uniform int u_peelIndex;
uniform float u_shapeDepths[MAX_SHAPES];
uniform vec4 u_shapeTints[MAX_SHAPES];

float groupSDF(vec2 p, float z, out int nearest) {
    float d = 1e10;
    float best = 1e10;
    bool first = true;
    nearest = -1;
    for (int i = 0; i < MAX_SHAPES; i++) {
        if (i >= u_shapeCount) {
            break;
        }
        if (abs(u_shapeDepths[i] - z) > 1e-6) {
            continue;
        }
        float di = shapeSDF(p, i);
        if (di < best) {
            best = di;
            nearest = i;
        }
        d = first ? di : smin(d, di, u_mergeK);
        first = false;
    }
    return d;
}

void main() {
    vec2 frag = gl_FragCoord.xy;
    float prev = u_peelIndex == 0 ? 0.0 : texture(u_prevDepth, frag / u_resolution).r;

    float depth = 2.0;
    float d = 1e10;
    int nearest = -1;
    for (int i = 0; i < MAX_SHAPES; i++) {
        if (i >= u_shapeCount) {
            break;
        }
        float z = u_shapeDepths[i];
        if (z <= prev + 1e-6 || z >= depth) {
            continue;
        }
        int n;
        float dz = groupSDF(frag, z, n);
        if (dz / u_resolution.y <= EPS) {
            depth = z;
            d = dz;
            nearest = n;
        }
    }
    if (nearest < 0) {
        discard;
    }

    int ignored;
    vec2 g = vec2(
        groupSDF(frag + vec2(1.0, 0.0), depth, ignored) - groupSDF(frag - vec2(1.0, 0.0), depth, ignored),
        groupSDF(frag + vec2(0.0, 1.0), depth, ignored) - groupSDF(frag - vec2(0.0, 1.0), depth, ignored));
    vec2 n = length(g) > 0.0 ? normalize(g) : vec2(0.0);

    vec4 col;
    if (!shadeGlass(frag, d, n, u_shapeTints[nearest], u_bg, col)) {
        discard;
    }
    fragColor = col;
    gl_FragDepth = depth;
}
`

// compositeFragment returns the composite shader for peels layers. Peels
// blend back to front; where none contributed the background shows through.
func compositeFragment(peels int) string {
	var b strings.Builder
	b.WriteString("uniform sampler2D u_bg;\n")
	for i := range peels {
		fmt.Fprintf(&b, "uniform sampler2D %s;\n", glass.PeelInputUniform(i))
	}
	b.WriteString(`
void main() {
    vec2 uv = gl_FragCoord.xy / u_resolution;
    vec3 bg = texture(u_bg, uv).rgb;
    vec3 col = bg;
    float total = 0.0;
    vec4 p;
`)
	for i := range peels {
		fmt.Fprintf(&b, "    p = texture(%s, uv);\n    col = mix(col, p.rgb, p.a);\n    total += p.a;\n", glass.PeelInputUniform(i))
	}
	b.WriteString(`    fragColor = vec4(total < 1e-4 ? bg : col, 1.0);
}
`)
	return b.String()
}

// fragmentSource assembles the fragment shader for spec.
func fragmentSource(spec glass.ShaderSpec) (string, error) {
	header := "#version 410 core\n"
	if spec.MaxShapes > 0 {
		header += fmt.Sprintf("#define MAX_SHAPES %d\n", spec.MaxShapes)
	}
	header += commonHeader

	switch spec.Name {
	case glass.ShaderBackground:
		return header + shapeSnippet + backgroundFragment, nil
	case glass.ShaderPassthrough:
		return header + passthroughFragment, nil
	case glass.ShaderBatch:
		return header + shapeSnippet + shadingSnippet + batchFragment, nil
	case glass.ShaderPeel:
		return header + shapeSnippet + shadingSnippet + peelFragment, nil
	case glass.ShaderPeelComposite:
		return header + compositeFragment(spec.Peels), nil
	default:
		return "", fmt.Errorf("%w: %q", glass.ErrUnsupportedShader, spec.Name)
	}
}
