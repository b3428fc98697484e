package glass

import (
	"testing"

	"github.com/chewxy/math32"
)

func testShadeParams() ShadeParams {
	return ShadeParams{
		Resolution:   Vec2{X: 1000, Y: 1000},
		DPR:          1,
		Thickness:    20,
		IOR:          1.4,
		FresnelRange: 30,
		Glare:        GlareParams{Range: 30},
	}
}

func flatSampler(c RGBA) Sampler {
	return SamplerFunc(func(Vec2) RGBA { return c })
}

// rampSampler brightens to the right, so a sample taken further left is
// darker.
var rampSampler = SamplerFunc(func(frag Vec2) RGBA {
	v := frag.X / 1000
	return RGBA{R: v, G: v, B: v, A: 1}
})

func TestRefractionEdgeFactor(t *testing.T) {
	if got := RefractionEdgeFactor(20, 20, 1.4); got != 0 {
		t.Errorf("Expected 0 at the rim thickness, got %v", got)
	}
	if got := RefractionEdgeFactor(50, 20, 1.4); got != 0 {
		t.Errorf("Expected 0 beyond the rim, got %v", got)
	}
	if got := RefractionEdgeFactor(5, 20, 1); !near(got, 0, epsilon) {
		t.Errorf("Expected no refraction at IOR 1, got %v", got)
	}
	weak := RefractionEdgeFactor(5, 20, 1.2)
	strong := RefractionEdgeFactor(5, 20, 1.8)
	if weak <= 0 || strong <= weak {
		t.Errorf("Expected 0 < weak < strong, got %v and %v", weak, strong)
	}
	if RefractionEdgeFactor(2, 20, 1.4) <= RefractionEdgeFactor(15, 20, 1.4) {
		t.Error("Expected refraction to grow toward the outer edge")
	}
}

func TestFresnelTerm(t *testing.T) {
	if got := FresnelTerm(0, 30, 0); !near(got, 1, epsilon) {
		t.Errorf("Expected 1 on the boundary, got %v", got)
	}
	if got := FresnelTerm(-1000, 30, 0.2); got != 0 {
		t.Errorf("Expected 0 deep inside, got %v", got)
	}
	prev := float32(-1)
	for d := float32(-40); d <= 0; d += 5 {
		f := FresnelTerm(d, 30, 0.2)
		if f < prev {
			t.Errorf("Expected fresnel to grow toward the edge, got %v after %v at d=%v", f, prev, d)
		}
		prev = f
	}
}

func TestGlareTerm(t *testing.T) {
	p := GlareParams{Range: 30, Convergence: 0.5, OppositeFactor: 0.8}
	geom := FresnelTerm(-2, 30, 0)

	aligned := GlareTerm(-2, Vec2{X: 1}, p)
	if !near(aligned, geom, epsilon) {
		t.Errorf("Expected aligned glare %v, got %v", geom, aligned)
	}

	opposite := GlareTerm(-2, Vec2{X: -1}, p)
	want := geom * math32.Pow(0.8, 3)
	if !near(opposite, want, epsilon) {
		t.Errorf("Expected opposite glare %v, got %v", want, opposite)
	}

	side := GlareTerm(-2, Vec2{Y: 1}, p)
	if side > 1e-3 {
		t.Errorf("Expected no glare perpendicular to the angle, got %v", side)
	}

	if got := GlareTerm(-2, Vec2{}, p); got != 0 {
		t.Errorf("Expected no glare without a normal, got %v", got)
	}

	p.Angle = math32.Pi / 2
	if got := GlareTerm(-2, Vec2{Y: 1}, p); !near(got, geom, epsilon) {
		t.Errorf("Expected rotated glare %v, got %v", geom, got)
	}
}

func TestShadowTerm(t *testing.T) {
	if got := ShadowTerm(-3, 10, 0.4); got != 0.4 {
		t.Errorf("Expected full shadow inside, got %v", got)
	}
	if got := ShadowTerm(10, 10, 0.4); !near(got, 0.4*math32.Exp(-1), epsilon) {
		t.Errorf("Expected exponential falloff, got %v", got)
	}
	if got := ShadowTerm(1, 0, 0.4); got != 0 {
		t.Errorf("Expected hard shadow edge without expansion, got %v", got)
	}
}

func TestShadeBackground(t *testing.T) {
	p := testShadeParams()
	p.ShadowFactor = 0.5
	p.ShadowExpand = 25
	bg := RGBA{R: 0.8, G: 0.6, B: 0.4, A: 1}

	if got := ShadeBackground(bg, Vec2{X: 500, Y: 500}, nil, p); got != bg {
		t.Errorf("Expected background unchanged without shapes, got %v", got)
	}

	field := ShapeField{Center: Vec2{X: 500, Y: 500}, Half: Vec2{X: 50, Y: 50}, Roundness: 2}
	got := ShadeBackground(bg, Vec2{X: 500, Y: 500}, []ShapeField{field}, p)
	if !near(got.R, 0.4, epsilon) || !near(got.G, 0.3, epsilon) || !near(got.B, 0.2, epsilon) || got.A != 1 {
		t.Errorf("Expected background halved under the shape, got %v", got)
	}

	// The shadow offset moves the sample point: with the shadow 200px
	// down, the fragment 200px below the shape is fully shadowed.
	p.ShadowPosition = Vec2{Y: -200}
	got = ShadeBackground(bg, Vec2{X: 500, Y: 300}, []ShapeField{field}, p)
	if !near(got.R, 0.4, epsilon) {
		t.Errorf("Expected offset shadow under the fragment, got %v", got)
	}
}

func TestShadeFragment_OutsidePassesThrough(t *testing.T) {
	under := RGBA{R: 0.1, G: 0.2, B: 0.3, A: 1}
	in := FragmentInput{Frag: Vec2{X: 10, Y: 10}, D: 50, Normal: Vec2{X: 1}, Tint: RGBA{R: 1, A: 1}}
	if got := ShadeFragment(in, testShadeParams(), flatSampler(under)); got != under {
		t.Errorf("Expected pass-through %v, got %v", under, got)
	}
}

func TestShadeFragment_AlphaThreshold(t *testing.T) {
	under := RGBA{R: 0.1, G: 0.2, B: 0.3, A: 1}
	in := FragmentInput{Frag: Vec2{X: 10, Y: 10}, D: 0.4, Normal: Vec2{X: 1}, Tint: RGBA{R: 1, A: 1}}
	p := testShadeParams()

	p.AlphaThreshold = 0.1
	if got := ShadeFragment(in, p, flatSampler(under)); got != under {
		t.Errorf("Expected faint coverage to pass through, got %v", got)
	}
	p.AlphaThreshold = 0.001
	if got := ShadeFragment(in, p, flatSampler(under)); got == under {
		t.Error("Expected coverage above the threshold to be shaded")
	}
}

func TestShadeFragment_InteriorTint(t *testing.T) {
	under := RGBA{R: 0.2, G: 0.2, B: 0.2, A: 1}
	tint := RGBA{R: 1, G: 0, B: 0, A: 0.5}
	in := FragmentInput{Frag: Vec2{X: 500, Y: 500}, D: -100, Normal: Vec2{X: 1}, Tint: tint}

	got := ShadeFragment(in, testShadeParams(), flatSampler(under))
	want := under.Mix(tint, 0.4)
	want.A = 1
	if !near(got.R, want.R, epsilon) || !near(got.G, want.G, epsilon) || !near(got.B, want.B, epsilon) || got.A != 1 {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestShadeFragment_Dispersion(t *testing.T) {
	p := testShadeParams()
	p.Dispersion = 7
	in := FragmentInput{Frag: Vec2{X: 500, Y: 500}, D: -5, Normal: Vec2{X: 1}}

	got := ShadeFragment(in, p, rampSampler)
	center := rampSampler(in.Frag)
	if !(got.R > got.G && got.G > got.B) {
		t.Errorf("Expected R > G > B from dispersed offsets, got %v", got)
	}
	if got.G >= center.G {
		t.Errorf("Expected refraction to sample against the normal, got %v vs %v", got.G, center.G)
	}

	p.Dispersion = 0
	got = ShadeFragment(in, p, rampSampler)
	if !near(got.R, got.G, epsilon) || !near(got.G, got.B, epsilon) {
		t.Errorf("Expected aligned channels without dispersion, got %v", got)
	}
}

func TestShadeFragment_DebugSteps(t *testing.T) {
	under := flatSampler(RGBA{R: 0.3, G: 0.3, B: 0.3, A: 1})
	in := FragmentInput{Frag: Vec2{X: 500, Y: 500}, D: -2, Normal: Vec2{X: 0, Y: -1}}
	p := testShadeParams()

	p.Debug = DebugMask
	if got := ShadeFragment(in, p, under); got != (RGBA{R: 1, G: 1, B: 1, A: 1}) {
		t.Errorf("Expected white mask, got %v", got)
	}

	p.Debug = DebugNormals
	if got := ShadeFragment(in, p, under); got != (RGBA{R: 0.5, G: 0, B: 0.5, A: 1}) {
		t.Errorf("Expected encoded normal (0.5, 0, 0.5), got %v", got)
	}

	p.Debug = DebugFresnel
	f := FresnelTerm(-2, p.FresnelRange, p.FresnelHardness)
	if got := ShadeFragment(in, p, under); !near(got.R, f, epsilon) || got.R != got.G || got.G != got.B {
		t.Errorf("Expected grey fresnel %v, got %v", f, got)
	}

	// Refraction only: Fresnel and glare are skipped, so full factors leave
	// the color unchanged.
	p.Debug = DebugRefraction
	p.FresnelFactor = 1
	p.Glare.Factor = 1
	refracted := ShadeFragment(in, p, under)
	p.Debug = DebugFull
	full := ShadeFragment(in, p, under)
	if full.R <= refracted.R {
		t.Errorf("Expected highlights to brighten the full result, got %v <= %v", full.R, refracted.R)
	}
}

func TestNormalizeDepth(t *testing.T) {
	if got := NormalizeDepth(0, 0, 3); !near(got, 0.2, epsilon) {
		t.Errorf("Expected 0.2, got %v", got)
	}
	prev := float32(0)
	for z := -3; z <= 5; z++ {
		d := NormalizeDepth(z, -3, 5)
		if d <= prev || d >= 1 {
			t.Errorf("Expected increasing depths in (0,1), got %v after %v", d, prev)
		}
		prev = d
	}
}

func TestPeelOrder(t *testing.T) {
	got := PeelOrder([]int{3, 1, 3, 0, 2}, 3)
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}
	if got := PeelOrder([]int{5, 5}, 4); len(got) != 1 || got[0] != 5 {
		t.Errorf("Expected [5], got %v", got)
	}
	if got := PeelOrder(nil, 4); len(got) != 0 {
		t.Errorf("Expected no peels, got %v", got)
	}
}

func TestCompositePeels(t *testing.T) {
	bg := RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1}
	if got := CompositePeels(bg, []RGBA{{}, {}}); got != bg {
		t.Errorf("Expected background where no peel contributed, got %v", got)
	}

	front := RGBA{R: 1, A: 1}
	if got := CompositePeels(bg, []RGBA{{G: 1, A: 0.5}, front}); got != (RGBA{R: 1, A: 1}) {
		t.Errorf("Expected opaque front peel to win, got %v", got)
	}

	got := CompositePeels(bg, []RGBA{{R: 1, A: 0.5}})
	if !near(got.R, 0.75, epsilon) || !near(got.G, 0.25, epsilon) || got.A != 1 {
		t.Errorf("Expected half blend (0.75, 0.25, 0.25), got %v", got)
	}
}

func TestShadeParamsFromControls(t *testing.T) {
	p := ShadeParamsFromControls(DefaultControls(), Vec2{X: 800, Y: 600}, 0)
	if p.DPR != 1 {
		t.Errorf("Expected DPR defaulted to 1, got %v", p.DPR)
	}
	if !near(p.FresnelHardness, 0.2, epsilon) || !near(p.Glare.Factor, 0.9, epsilon) || !near(p.ShadowFactor, 0.15, epsilon) {
		t.Errorf("Expected percent controls as fractions, got %+v", p)
	}
	if !near(p.Glare.Angle, -math32.Pi/4, epsilon) {
		t.Errorf("Expected -45 degrees as radians, got %v", p.Glare.Angle)
	}
}

func TestLCH(t *testing.T) {
	c := RGBA{R: 0.2, G: 0.4, B: 0.8, A: 0.7}
	h, ch, l := ToLCH(c)
	back := FromLCH(h, ch, l, c.A)
	if !near(back.R, c.R, epsilon) || !near(back.G, c.G, epsilon) || !near(back.B, c.B, epsilon) || back.A != c.A {
		t.Errorf("Expected round trip to %v, got %v", c, back)
	}

	if got := LightenLCH(c, 0); got != c {
		t.Errorf("Expected zero lighten to be identity, got %v", got)
	}
	if got := BoostLCH(c, 0, 0); got != c {
		t.Errorf("Expected zero boost to be identity, got %v", got)
	}

	lighter := LightenLCH(c, 0.2)
	h2, _, l2 := ToLCH(lighter)
	if l2 <= l {
		t.Errorf("Expected lightness to rise, got %v <= %v", l2, l)
	}
	if math32.Abs(h2-h) > 5 {
		t.Errorf("Expected hue kept near %v, got %v", h, h2)
	}
	if lighter.A != c.A {
		t.Errorf("Expected alpha kept, got %v", lighter.A)
	}

	white := LightenLCH(RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1}, 1)
	if !near(white.R, 1, 0.01) || !near(white.G, 1, 0.01) || !near(white.B, 1, 0.01) {
		t.Errorf("Expected grey lightened fully to white, got %v", white)
	}
}
