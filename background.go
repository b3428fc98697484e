package glass

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// BackgroundAsset is a decoded texture background. Still images have one
// frame; animated ones carry per-frame delays.
type BackgroundAsset struct {
	Frames []image.Image
	Delays []time.Duration
}

// Animated returns true when the asset has more than one frame.
func (a *BackgroundAsset) Animated() bool {
	return len(a.Frames) > 1
}

// BackgroundLoader fetches and decodes the asset at url. It runs on its own
// goroutine.
type BackgroundLoader func(ctx context.Context, url string) (*BackgroundAsset, error)

type backgroundResult struct {
	url   string
	asset *BackgroundAsset
	err   error
}

// BackgroundManager owns the background texture. Procedural patterns are
// rasterized synchronously; image and video assets load on a goroutine and
// are picked up by Poll on the frame tick. A placeholder is shown until the
// requested asset arrives, and results for URLs no longer requested are
// dropped.
type BackgroundManager struct {
	backend Backend
	loader  BackgroundLoader
	results chan backgroundResult
	ctx     context.Context
	cancel  context.CancelFunc

	kind          BackgroundType
	url           string
	width, height int

	texture Texture
	asset   *BackgroundAsset
	scaled  []image.Image
	ready   bool

	frame      int
	frameSince time.Duration
	lastPoll   time.Duration
	disposed   bool
}

// BackgroundOption configures a BackgroundManager.
type BackgroundOption func(*BackgroundManager)

// WithBackgroundLoader replaces the default file/HTTP loader.
func WithBackgroundLoader(l BackgroundLoader) BackgroundOption {
	return func(m *BackgroundManager) {
		m.loader = l
	}
}

// NewBackgroundManager creates a manager rendering at width x height. No
// texture exists until Set is called.
func NewBackgroundManager(backend Backend, width, height int, opts ...BackgroundOption) *BackgroundManager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &BackgroundManager{
		backend: backend,
		loader:  LoadBackground,
		results: make(chan backgroundResult, 4),
		ctx:     ctx,
		cancel:  cancel,
		kind:    -1,
		width:   width,
		height:  height,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set selects the background. Setting the current selection again is a
// no-op; a new URL supersedes any load still in flight.
func (m *BackgroundManager) Set(kind BackgroundType, url string) error {
	if m.disposed {
		return ErrDisposed
	}
	if kind.Procedural() {
		url = ""
	}
	if kind == m.kind && url == m.url {
		return nil
	}
	m.kind, m.url = kind, url
	m.asset, m.scaled, m.ready = nil, nil, false
	m.frame, m.frameSince = 0, m.lastPoll

	if kind.Procedural() {
		img, err := RenderPattern(kind, m.width, m.height)
		if err != nil {
			return err
		}
		m.ready = true
		return m.upload(img)
	}

	backgroundLogger().Info("loading background", "type", kind, "url", url)
	go m.load(url)
	img, err := RenderPlaceholder(m.width, m.height)
	if err != nil {
		return err
	}
	return m.upload(img)
}

func (m *BackgroundManager) load(url string) {
	asset, err := m.loader(m.ctx, url)
	select {
	case m.results <- backgroundResult{url: url, asset: asset, err: err}:
	case <-m.ctx.Done():
	}
}

// Poll consumes finished loads and advances animated backgrounds. now is the
// compositor clock.
func (m *BackgroundManager) Poll(now time.Duration) error {
	if m.disposed {
		return ErrDisposed
	}
	m.lastPoll = now
	for {
		select {
		case r := <-m.results:
			if err := m.accept(r, now); err != nil {
				return err
			}
		default:
			return m.advance(now)
		}
	}
}

func (m *BackgroundManager) accept(r backgroundResult, now time.Duration) error {
	if r.url != m.url || m.kind.Procedural() {
		backgroundLogger().Debug("dropping stale background", "url", r.url, "want", m.url)
		return nil
	}
	if r.err != nil {
		backgroundLogger().Warn("background load failed, keeping placeholder", "url", r.url, "error", r.err)
		return nil
	}
	if r.asset == nil || len(r.asset.Frames) == 0 {
		backgroundLogger().Warn("background has no frames", "url", r.url)
		return nil
	}
	m.asset = r.asset
	m.scaled = scaleFrames(r.asset.Frames, m.width, m.height)
	m.ready = true
	m.frame, m.frameSince = 0, now
	backgroundLogger().Info("background ready", "url", r.url, "frames", len(m.scaled))
	return m.upload(m.scaled[0])
}

// zeroFrameDelay replaces GIF frame delays of 10ms or less, matching how
// browsers play such files.
const zeroFrameDelay = 100 * time.Millisecond

func (m *BackgroundManager) advance(now time.Duration) error {
	if !m.ready || m.asset == nil || !m.asset.Animated() || m.kind != BackgroundVideo {
		return nil
	}
	next := m.frame
	elapsed := now - m.frameSince
	for {
		delay := m.asset.Delays[next]
		if delay <= 10*time.Millisecond {
			delay = zeroFrameDelay
		}
		if elapsed < delay {
			break
		}
		elapsed -= delay
		m.frameSince += delay
		next = (next + 1) % len(m.scaled)
	}
	if next == m.frame {
		return nil
	}
	m.frame = next
	return m.upload(m.scaled[next])
}

// Resize re-rasterizes or re-samples the background for a new viewport.
func (m *BackgroundManager) Resize(width, height int) error {
	if m.disposed {
		return ErrDisposed
	}
	if width == m.width && height == m.height {
		return nil
	}
	m.width, m.height = width, height
	switch {
	case m.kind.Procedural():
		img, err := RenderPattern(m.kind, width, height)
		if err != nil {
			return err
		}
		return m.upload(img)
	case m.asset != nil:
		m.scaled = scaleFrames(m.asset.Frames, width, height)
		return m.upload(m.scaled[m.frame])
	case m.texture != nil:
		img, err := RenderPlaceholder(width, height)
		if err != nil {
			return err
		}
		return m.upload(img)
	}
	return nil
}

func (m *BackgroundManager) upload(img image.Image) error {
	if m.texture != nil {
		if w, h := m.texture.Size(); w == img.Bounds().Dx() && h == img.Bounds().Dy() {
			return m.backend.UpdateTexture(m.texture, img)
		}
		m.backend.DeleteTexture(m.texture)
		m.texture = nil
	}
	tex, err := m.backend.NewTexture(img)
	if err != nil {
		return fmt.Errorf("upload background: %w", err)
	}
	m.texture = tex
	return nil
}

// Texture returns the current background texture: the selected pattern, the
// loaded asset, or the placeholder. Nil before the first Set.
func (m *BackgroundManager) Texture() Texture {
	return m.texture
}

// Ready returns true once the selected background (not the placeholder) is
// on the texture.
func (m *BackgroundManager) Ready() bool {
	return m.ready
}

// Dispose releases the texture and abandons pending loads.
func (m *BackgroundManager) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	m.cancel()
	if m.texture != nil {
		m.backend.DeleteTexture(m.texture)
		m.texture = nil
	}
}

// Pattern colors and sizes in pixels.
var (
	patternLight = gg.Hex("#e8e8e8")
	patternDark  = gg.Hex("#9a9a9a")
	patternInk   = gg.Hex("#4a4a4a")
)

const (
	checkerCell = 40
	stripeWidth = 24
	gridStep    = 50
)

// RenderPattern rasterizes a procedural background.
func RenderPattern(kind BackgroundType, width, height int) (image.Image, error) {
	width, height = max(width, 1), max(height, 1)
	dc := gg.NewContext(width, height)
	defer dc.Close()

	dc.ClearWithColor(patternLight)
	dc.SetColor(patternDark.Color())
	switch kind {
	case BackgroundChecker:
		for y := 0; y < height; y += checkerCell {
			for x := 0; x < width; x += checkerCell {
				if (x/checkerCell+y/checkerCell)%2 == 1 {
					dc.DrawRectangle(float64(x), float64(y), checkerCell, checkerCell)
				}
			}
		}
		if err := dc.Fill(); err != nil {
			return nil, err
		}
	case BackgroundStripes:
		// Diagonal stripes: rotate about the center and overdraw the corners.
		dc.RotateAbout(-0.785398, float64(width)/2, float64(height)/2)
		span := float64(width + height)
		for x := -span; x < span; x += 2 * stripeWidth {
			dc.DrawRectangle(x, -span, stripeWidth, 3*span)
		}
		if err := dc.Fill(); err != nil {
			return nil, err
		}
	case BackgroundGrid:
		dc.SetColor(patternInk.Color())
		dc.SetLineWidth(1)
		for x := 0; x <= width; x += gridStep {
			dc.DrawLine(float64(x)+0.5, 0, float64(x)+0.5, float64(height))
		}
		for y := 0; y <= height; y += gridStep {
			dc.DrawLine(0, float64(y)+0.5, float64(width), float64(y)+0.5)
		}
		if err := dc.Stroke(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s is not a procedural background", kind)
	}
	return dc.Image(), nil
}

// RenderPlaceholder rasterizes the "not ready" background shown while an
// asset loads.
func RenderPlaceholder(width, height int) (image.Image, error) {
	width, height = max(width, 1), max(height, 1)
	dc := gg.NewContext(width, height)
	defer dc.Close()

	dc.ClearWithColor(patternDark)
	dc.SetColor(patternLight.Color())
	dc.SetLineWidth(2)
	for x := -height; x < width; x += gridStep {
		dc.DrawLine(float64(x), float64(height), float64(x+height), 0)
	}
	if err := dc.Stroke(); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// scaleFrames resamples frames to cover width x height, cropping the
// overflow evenly.
func scaleFrames(frames []image.Image, width, height int) []image.Image {
	width, height = max(width, 1), max(height, 1)
	out := make([]image.Image, len(frames))
	for i, src := range frames {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, coverRect(src.Bounds(), width, height), xdraw.Src, nil)
		out[i] = dst
	}
	return out
}

// coverRect returns the centered region of src with the aspect of w x h.
func coverRect(src image.Rectangle, w, h int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 {
		return src
	}
	// Compare sw/sh against w/h without division.
	if sw*h > w*sh {
		cw := sh * w / h
		x0 := src.Min.X + (sw-cw)/2
		return image.Rect(x0, src.Min.Y, x0+cw, src.Max.Y)
	}
	ch := sw * h / w
	y0 := src.Min.Y + (sh-ch)/2
	return image.Rect(src.Min.X, y0, src.Max.X, y0+ch)
}

// LoadBackground reads url from disk, or over HTTP for http(s) URLs, and
// decodes it with DecodeBackground.
func LoadBackground(ctx context.Context, url string) (*BackgroundAsset, error) {
	var r io.ReadCloser
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch background: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch background: %s", resp.Status)
		}
		r = resp.Body
	} else {
		f, err := os.Open(url)
		if err != nil {
			return nil, fmt.Errorf("open background: %w", err)
		}
		r = f
	}
	defer r.Close()
	return DecodeBackground(r)
}

// DecodeBackground decodes a still image (PNG, JPEG, GIF, WebP, BMP) or an
// animated GIF into an asset.
func DecodeBackground(r io.Reader) (*BackgroundAsset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read background: %w", err)
	}
	if bytes.HasPrefix(data, []byte("GIF8")) {
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode gif: %w", err)
		}
		return gifAsset(g), nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}
	return &BackgroundAsset{Frames: []image.Image{img}, Delays: []time.Duration{0}}, nil
}

// gifAsset flattens GIF frames, which may only cover part of the canvas,
// into full frames.
func gifAsset(g *gif.GIF) *BackgroundAsset {
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() && len(g.Image) > 0 {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)
	asset := &BackgroundAsset{}
	for i, frame := range g.Image {
		var restore *image.RGBA
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalPrevious {
			restore = image.NewRGBA(bounds)
			xdraw.Draw(restore, bounds, canvas, bounds.Min, xdraw.Src)
		}
		xdraw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, xdraw.Over)

		snapshot := image.NewRGBA(bounds)
		xdraw.Draw(snapshot, bounds, canvas, bounds.Min, xdraw.Src)
		asset.Frames = append(asset.Frames, snapshot)
		delay := time.Duration(0)
		if i < len(g.Delay) {
			delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		asset.Delays = append(asset.Delays, delay)

		switch {
		case restore != nil:
			canvas = restore
		case i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground:
			xdraw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, xdraw.Src)
		}
	}
	return asset
}
