// Package software is a CPU backend for the glass package built on gg
// pixmaps. It runs the background, pass-through and alpha batch shaders in
// Go; depth peeling needs depth targets it does not have, so the compositor
// falls back to batched alpha on it.
package software

import (
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"time"

	"github.com/gogpu/gg"
	"golang.org/x/sync/errgroup"

	"github.com/go-theft-auto/glass"
)

func logger() *slog.Logger {
	return glass.Logger().With("backend", "software")
}

// Texture is a pixmap with gl_FragCoord's bottom-left origin: row 0 is the
// bottom row.
type Texture struct {
	pix *gg.Pixmap
}

// Size returns the texture size in pixels.
func (t *Texture) Size() (width, height int) {
	if t.pix == nil {
		return 0, 0
	}
	return t.pix.Width(), t.pix.Height()
}

// Pixmap returns the backing pixmap.
func (t *Texture) Pixmap() *gg.Pixmap { return t.pix }

// At returns the texel at (x, y), clamped to the edge.
func (t *Texture) At(x, y int) glass.RGBA {
	w, h := t.Size()
	if w == 0 || h == 0 {
		return glass.RGBA{}
	}
	c := t.pix.GetPixel(min(max(x, 0), w-1), min(max(y, 0), h-1))
	return glass.RGBA{R: float32(c.R), G: float32(c.G), B: float32(c.B), A: float32(c.A)}
}

// sampler reads the texture the way the GL shaders do, with
// gl_FragCoord / u_resolution as the texture coordinate.
func (t *Texture) sampler(resolution glass.Vec2) glass.Sampler {
	w, h := t.Size()
	sx := float32(w) / max(resolution.X, 1)
	sy := float32(h) / max(resolution.Y, 1)
	return glass.SamplerFunc(func(frag glass.Vec2) glass.RGBA {
		return t.At(int(frag.X*sx), int(frag.Y*sy))
	})
}

func (t *Texture) fill(img image.Image) {
	b := img.Bounds()
	h := b.Dy()
	for y := range h {
		for x := range b.Dx() {
			t.pix.SetPixel(x, h-1-y, gg.FromColor(img.At(b.Min.X+x, b.Min.Y+y)))
		}
	}
}

// Target is an offscreen colour target. Depth is not supported.
type Target struct {
	tex *Texture
}

// Texture returns the colour texture. The handle stays the same across
// resizes.
func (t *Target) Texture() glass.Texture { return t.tex }

// DepthTexture always returns nil.
func (t *Target) DepthTexture() glass.Texture { return nil }

// Size returns the target size.
func (t *Target) Size() (width, height int) { return t.tex.Size() }

// Resize reallocates the pixmap when the size changes.
func (t *Target) Resize(width, height int) error {
	if t.tex.pix == nil {
		return glass.ErrDisposed
	}
	if w, h := t.Size(); w == width && h == height {
		return nil
	}
	t.tex.pix = gg.NewPixmap(max(width, 1), max(height, 1))
	return nil
}

// Dispose releases the pixmap. Safe to call more than once.
func (t *Target) Dispose() {
	t.tex.pix = nil
}

// Backend implements glass.Backend on the CPU.
type Backend struct {
	screen  *Texture
	workers int
}

// Option configures a Backend.
type Option func(*Backend)

// WithWorkers sets how many rows are shaded concurrently.
func WithWorkers(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.workers = n
		}
	}
}

// NewBackend creates a software backend. The default framebuffer is a
// pixmap readable through Screen.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		screen:  &Texture{},
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(b)
	}
	logger().Info("software backend ready", "workers", b.workers)
	return b
}

// Name implements glass.Backend.
func (b *Backend) Name() string { return "software" }

// NewTarget implements glass.Backend. Depth targets return
// glass.ErrCapability.
func (b *Backend) NewTarget(width, height int, depth bool) (glass.Target, error) {
	if depth {
		return nil, fmt.Errorf("%w: software targets have no depth attachment", glass.ErrCapability)
	}
	return &Target{tex: &Texture{pix: gg.NewPixmap(max(width, 1), max(height, 1))}}, nil
}

// NewTexture implements glass.Backend.
func (b *Backend) NewTexture(img image.Image) (glass.Texture, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty texture image %dx%d", w, h)
	}
	t := &Texture{pix: gg.NewPixmap(w, h)}
	t.fill(img)
	return t, nil
}

// UpdateTexture implements glass.Backend.
func (b *Backend) UpdateTexture(tex glass.Texture, img image.Image) error {
	t, ok := tex.(*Texture)
	if !ok || t.pix == nil {
		return fmt.Errorf("update texture: not a live software texture (%T)", tex)
	}
	w, h := t.Size()
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		return fmt.Errorf("update texture: size %dx%d, texture is %dx%d", img.Bounds().Dx(), img.Bounds().Dy(), w, h)
	}
	t.fill(img)
	return nil
}

// DeleteTexture implements glass.Backend.
func (b *Backend) DeleteTexture(tex glass.Texture) {
	if t, ok := tex.(*Texture); ok {
		t.pix = nil
	}
}

// Draw shades every pixel of the viewport, rows in parallel. A nil target
// draws to the screen pixmap, which follows the viewport size.
func (b *Backend) Draw(prog glass.Program, target glass.Target, opts glass.DrawOptions) error {
	p, ok := prog.(*Program)
	if !ok {
		return fmt.Errorf("draw: not a software program (%T)", prog)
	}
	if p.disposed {
		return fmt.Errorf("draw %s: %w", p.spec.Name, glass.ErrDisposed)
	}
	if opts.DepthTest {
		return fmt.Errorf("draw %s: %w: depth test", p.spec.Name, glass.ErrCapability)
	}

	var dst *gg.Pixmap
	if target == nil {
		if w, h := b.screen.Size(); w != opts.Width || h != opts.Height {
			b.screen.pix = gg.NewPixmap(max(opts.Width, 1), max(opts.Height, 1))
		}
		dst = b.screen.pix
	} else {
		t, ok := target.(*Target)
		if !ok || t.tex.pix == nil {
			return fmt.Errorf("draw %s: not a live software target (%T)", p.spec.Name, target)
		}
		dst = t.tex.pix
	}

	shade, err := p.prepare()
	if err != nil {
		return fmt.Errorf("draw %s: %w", p.spec.Name, err)
	}

	start := time.Now()
	w, h := min(opts.Width, dst.Width()), min(opts.Height, dst.Height())
	var g errgroup.Group
	g.SetLimit(b.workers)
	for y := range h {
		g.Go(func() error {
			for x := range w {
				c := shade(glass.Vec2{X: float32(x) + 0.5, Y: float32(y) + 0.5})
				dst.SetPixel(x, y, gg.RGBA{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if glass.Verbose() {
		logger().Debug("draw", "program", p.spec.Name, "width", w, "height", h, "elapsed", time.Since(start))
	}
	return nil
}

// Screen returns the last frame drawn to the default framebuffer, top row
// first, or nil before the first screen draw.
func (b *Backend) Screen() *image.RGBA {
	if b.screen.pix == nil {
		return nil
	}
	src := b.screen.pix.ToImage()
	out := image.NewRGBA(src.Rect)
	h := src.Rect.Dy()
	for y := range h {
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], src.Pix[(h-1-y)*src.Stride:(h-y)*src.Stride])
	}
	return out
}
