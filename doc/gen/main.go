// Command gen renders a sample scene with the software backend, once per
// background and debug step, and saves JPEG screenshots to doc/imgs/.
//
// Usage:
//
//	go run ./doc/gen/
package main

import (
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/go-theft-auto/glass"
	"github.com/go-theft-auto/glass/backend/software"
)

const (
	shotWidth  = 640
	shotHeight = 400
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// screenshot defines a single capture.
type screenshot struct {
	name    string // filename without extension
	setup   func(c *glass.Controls)
	camera  func(cam *glass.Camera)
	records []glass.DatasetRecord
}

func run() error {
	outDir := filepath.Join("doc", "imgs")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	shots := buildScreenshots()
	for _, s := range shots {
		if err := capture(s, outDir); err != nil {
			return fmt.Errorf("capture %s: %w", s.name, err)
		}
		fmt.Printf("  %s.jpg (%dx%d)\n", s.name, shotWidth, shotHeight)
	}

	fmt.Printf("\nGenerated %d screenshots in %s/\n", len(shots), outDir)
	return nil
}

func capture(s screenshot, outDir string) error {
	controls := glass.DefaultControls()
	controls.PerformanceMode = glass.PerformanceQuality
	if s.setup != nil {
		s.setup(&controls)
	}

	records := s.records
	if records == nil {
		records = sampleScene()
	}
	store := glass.NewShapeStore()
	store.Replace(glass.ShapesFromDataset(records, controls.ShapeWidth))

	camera := glass.NewCamera(shotWidth, shotHeight)
	if s.camera != nil {
		s.camera(camera)
	}

	backend := software.NewBackend()
	comp, err := glass.NewCompositor(backend, store, camera, shotWidth, shotHeight, glass.WithControls(controls))
	if err != nil {
		return err
	}
	defer comp.Dispose()

	if err := comp.Frame(); err != nil {
		return err
	}

	path := filepath.Join(outDir, s.name+".jpg")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, backend.Screen(), &jpeg.Options{Quality: 90})
}

// sampleScene is three panels on one layer that merge, plus a tinted panel
// above them.
func sampleScene() []glass.DatasetRecord {
	rec := func(id string, x, y, h float32, z int, tint [3]uint8) glass.DatasetRecord {
		r := glass.DatasetRecord{ID: id, ZIndex: z, Tint: tint}
		r.Position.X, r.Position.Y = x, y
		r.Size.Height = h
		return r
	}
	return []glass.DatasetRecord{
		rec("a", -150, 40, 160, 0, [3]uint8{255, 255, 255}),
		rec("b", 20, 60, 140, 0, [3]uint8{255, 255, 255}),
		rec("c", -60, -90, 120, 0, [3]uint8{255, 255, 255}),
		rec("d", 160, -60, 180, 1, [3]uint8{120, 180, 255}),
	}
}

func buildScreenshots() []screenshot {
	shots := []screenshot{
		{name: "checker", setup: func(c *glass.Controls) { c.Background = glass.BackgroundChecker }},
		{name: "stripes", setup: func(c *glass.Controls) { c.Background = glass.BackgroundStripes }},
		{name: "grid", setup: func(c *glass.Controls) { c.Background = glass.BackgroundGrid }},
		{name: "no_merge", setup: func(c *glass.Controls) { c.MergeRatio = 0 }},
		{name: "zoomed", camera: func(cam *glass.Camera) { cam.SetZoom(1.6) }},
		{name: "empty", records: []glass.DatasetRecord{}},
	}
	steps := []struct {
		name string
		step glass.DebugStep
	}{
		{"debug_mask", glass.DebugMask},
		{"debug_normals", glass.DebugNormals},
		{"debug_refraction", glass.DebugRefraction},
		{"debug_fresnel", glass.DebugFresnel},
		{"debug_glare", glass.DebugGlare},
	}
	for _, st := range steps {
		shots = append(shots, screenshot{
			name:  st.name,
			setup: func(c *glass.Controls) { c.DebugStep = st.step },
		})
	}
	return shots
}
