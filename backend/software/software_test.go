package software_test

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/go-theft-auto/glass"
	"github.com/go-theft-auto/glass/backend/software"
)

// foreignTexture is a texture from some other backend.
type foreignTexture struct{}

func (foreignTexture) Size() (int, int) { return 1, 1 }

func newScene(t *testing.T, ctrl glass.Controls) (*glass.ShapeStore, *glass.Compositor, *software.Backend) {
	t.Helper()
	b := software.NewBackend(software.WithWorkers(2))
	store := glass.NewShapeStore()
	store.Add(glass.ShapePatch{
		ID:       "top",
		Position: &glass.Vec2{Y: 50},
		Size:     &glass.Size{Width: 60, Height: 60},
	})
	c, err := glass.NewCompositor(b, store, glass.NewCamera(1, 1), 200, 200, glass.WithControls(ctrl))
	if err != nil {
		t.Fatalf("Expected compositor, got %v", err)
	}
	t.Cleanup(c.Dispose)
	return store, c, b
}

func TestBackend_MaskOrientation(t *testing.T) {
	ctrl := glass.DefaultControls()
	ctrl.DebugStep = glass.DebugMask
	_, c, b := newScene(t, ctrl)

	if b.Screen() != nil {
		t.Error("Expected no screen before the first frame")
	}
	if err := c.Frame(); err != nil {
		t.Fatalf("Expected frame, got %v", err)
	}
	screen := b.Screen()
	if screen == nil || screen.Bounds().Dx() != 200 || screen.Bounds().Dy() != 200 {
		t.Fatalf("Expected a 200x200 screen, got %v", screen)
	}

	// World Y up: a shape above the origin lands in the top half.
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if got := screen.RGBAAt(100, 50); got != white {
		t.Errorf("Expected mask white at (100, 50), got %v", got)
	}
	if got := screen.RGBAAt(100, 150); got == white {
		t.Error("Expected background below the origin")
	}
	if got := screen.RGBAAt(30, 50); got == white {
		t.Error("Expected background left of the shape")
	}
}

func TestBackend_GlassChangesThePixels(t *testing.T) {
	ctrl := glass.DefaultControls()
	ctrl.TintAlpha = 1
	store, c, b := newScene(t, ctrl)

	if err := c.Frame(); err != nil {
		t.Fatalf("Expected frame, got %v", err)
	}
	with := b.Screen().RGBAAt(100, 50)

	store.SetVisible("top", false)
	if err := c.Frame(); err != nil {
		t.Fatalf("Expected frame, got %v", err)
	}
	without := b.Screen().RGBAAt(100, 50)

	diff := int(with.R) - int(without.R)
	if diff < 0 {
		diff = -diff
	}
	if diff < 5 {
		t.Errorf("Expected the glass to change the pixel, got %v and %v", with, without)
	}
	if c.Graph().Len() != 2 {
		t.Errorf("Expected the pass-through plan with nothing visible, got %d passes", c.Graph().Len())
	}
}

func TestBackend_DepthPeelFallsBack(t *testing.T) {
	ctrl := glass.DefaultControls()
	ctrl.Strategy = glass.StrategyDepthPeel
	_, c, _ := newScene(t, ctrl)

	if c.Strategy() != glass.StrategyBatched {
		t.Errorf("Expected batched fallback, got %v", c.Strategy())
	}
	if err := c.Frame(); err != nil {
		t.Errorf("Expected the fallback plan to render, got %v", err)
	}
}

func TestBackend_Capabilities(t *testing.T) {
	b := software.NewBackend()

	if _, err := b.NewTarget(4, 4, true); !errors.Is(err, glass.ErrCapability) {
		t.Errorf("Expected ErrCapability for depth targets, got %v", err)
	}
	if _, err := b.NewProgram(glass.ShaderSpec{Name: glass.ShaderPeel, MaxShapes: 4}); !errors.Is(err, glass.ErrUnsupportedShader) {
		t.Errorf("Expected ErrUnsupportedShader for peel, got %v", err)
	}

	prog, err := b.NewProgram(glass.ShaderSpec{Name: glass.ShaderPassthrough})
	if err != nil {
		t.Fatalf("Expected passthrough program, got %v", err)
	}
	if err := b.Draw(prog, nil, glass.DrawOptions{Width: 4, Height: 4, DepthTest: true}); !errors.Is(err, glass.ErrCapability) {
		t.Errorf("Expected ErrCapability for depth testing, got %v", err)
	}
	if err := b.Draw(prog, nil, glass.DrawOptions{Width: 4, Height: 4}); !errors.Is(err, glass.ErrMissingInput) {
		t.Errorf("Expected ErrMissingInput without u_bg, got %v", err)
	}

	if err := prog.SetUniform("u_nope", float32(1)); !errors.Is(err, glass.ErrUnknownUniform) {
		t.Errorf("Expected ErrUnknownUniform, got %v", err)
	}
	if err := prog.SetUniform(glass.UniformBG, foreignTexture{}); !errors.Is(err, glass.ErrUniformType) {
		t.Errorf("Expected ErrUniformType for a foreign texture, got %v", err)
	}

	prog.Dispose()
	if err := prog.SetUniform(glass.UniformDPR, float32(1)); !errors.Is(err, glass.ErrDisposed) {
		t.Errorf("Expected ErrDisposed, got %v", err)
	}
}

func TestBackend_TextureOrigin(t *testing.T) {
	b := software.NewBackend()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})

	tex, err := b.NewTexture(img)
	if err != nil {
		t.Fatalf("Expected texture, got %v", err)
	}
	st := tex.(*software.Texture)
	// Row 0 is the bottom of the image.
	if got := st.At(0, 0); got.B != 1 || got.R != 0 {
		t.Errorf("Expected blue at the bottom-left texel, got %v", got)
	}
	if got := st.At(0, 5); got.R != 1 {
		t.Errorf("Expected clamped reads to hit the top row, got %v", got)
	}

	if err := b.UpdateTexture(tex, image.NewRGBA(image.Rect(0, 0, 3, 3))); err == nil {
		t.Error("Expected a size mismatch error")
	}
	b.DeleteTexture(tex)
	if w, h := tex.Size(); w != 0 || h != 0 {
		t.Errorf("Expected a deleted texture to be empty, got %dx%d", w, h)
	}
}

func TestTarget_Resize(t *testing.T) {
	b := software.NewBackend()
	tg, err := b.NewTarget(4, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	tex := tg.Texture()
	if err := tg.Resize(8, 2); err != nil {
		t.Fatal(err)
	}
	if w, h := tex.Size(); w != 8 || h != 2 {
		t.Errorf("Expected the texture handle to follow the resize, got %dx%d", w, h)
	}
	if tg.DepthTexture() != nil {
		t.Error("Expected no depth texture")
	}
	tg.Dispose()
	if err := tg.Resize(1, 1); !errors.Is(err, glass.ErrDisposed) {
		t.Errorf("Expected ErrDisposed, got %v", err)
	}
}
