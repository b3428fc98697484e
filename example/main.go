// Example shows glass panels over a procedural background in a GLFW window.
//
// Prerequisites:
//
//	Install devbox: https://www.jetify.com/devbox
//	devbox shell                                   # Go + OpenGL/X11 headers
//	go run ./example/ -dataset shapes.json         # run this example
//	go run ./example/ -software -out frame.png     # headless CPU render
//
// Without a usable OpenGL 4.1 context the example falls back to the software
// backend and writes a single frame to -out.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/go-theft-auto/glass"
	"github.com/go-theft-auto/glass/backend/opengl"
	"github.com/go-theft-auto/glass/backend/software"
)

const windowTitle = "glass example"

func init() {
	// GLFW must run on the main thread.
	runtime.LockOSThread()
}

type options struct {
	dataset    string
	width      int
	height     int
	background string
	bgURL      string
	depthPeel  bool
	software   bool
	out        string
	verbose    bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err == nil {
		err = run(opts)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("example", flag.ContinueOnError)
	fs.StringVar(&o.dataset, "dataset", "", "JSON dataset of shapes (built-in scene when empty)")
	fs.IntVar(&o.width, "width", 1280, "window width")
	fs.IntVar(&o.height, "height", 800, "window height")
	fs.StringVar(&o.background, "bg", "checker", "background: checker, stripes, grid, image, video")
	fs.StringVar(&o.bgURL, "bg-url", "", "image or animated GIF for the image/video backgrounds")
	fs.BoolVar(&o.depthPeel, "depth-peel", false, "use depth peeling instead of batched alpha")
	fs.BoolVar(&o.software, "software", false, "render one frame on the CPU instead of opening a window")
	fs.StringVar(&o.out, "out", "frame.png", "output file for software renders")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func (o options) controls() (glass.Controls, error) {
	c := glass.DefaultControls()
	switch o.background {
	case "checker":
		c.Background = glass.BackgroundChecker
	case "stripes":
		c.Background = glass.BackgroundStripes
	case "grid":
		c.Background = glass.BackgroundGrid
	case "image":
		c.Background = glass.BackgroundImage
	case "video":
		c.Background = glass.BackgroundVideo
	default:
		return c, fmt.Errorf("unknown background %q", o.background)
	}
	c.BackgroundURL = o.bgURL
	if o.depthPeel {
		c.Strategy = glass.StrategyDepthPeel
	}
	return c, c.Validate()
}

func (o options) records(dpr float32) ([]glass.DatasetRecord, error) {
	if o.dataset == "" {
		records := defaultScene()
		glass.ScaleDataset(records, dpr)
		return records, nil
	}
	f, err := os.Open(o.dataset)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := glass.DecodeDataset(f)
	if err != nil {
		return nil, err
	}
	glass.ScaleDataset(records, dpr)
	return records, nil
}

func run(o options) error {
	glass.SetVerbose(o.verbose)
	controls, err := o.controls()
	if err != nil {
		return err
	}
	if o.software {
		return runSoftware(o, controls)
	}

	err = runWindow(o, controls)
	if errors.Is(err, glass.ErrCapability) {
		glass.Logger().Warn("OpenGL unavailable, rendering on the CPU", "error", err)
		return runSoftware(o, controls)
	}
	return err
}

func runSoftware(o options, controls glass.Controls) error {
	records, err := o.records(1)
	if err != nil {
		return err
	}
	store := glass.NewShapeStore()
	store.Replace(glass.ShapesFromDataset(records, controls.ShapeWidth))
	camera := glass.NewCamera(float32(o.width), float32(o.height))

	backend := software.NewBackend()
	comp, err := glass.NewCompositor(backend, store, camera, o.width, o.height, glass.WithControls(controls))
	if err != nil {
		return err
	}
	defer comp.Dispose()

	// Image backgrounds load asynchronously; give them a moment.
	deadline := time.Now().Add(2 * time.Second)
	for !comp.Background().Ready() && time.Now().Before(deadline) {
		if err := comp.Frame(); err != nil {
			return err
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err := comp.Frame(); err != nil {
		return err
	}

	f, err := os.Create(o.out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, backend.Screen()); err != nil {
		return fmt.Errorf("encode %s: %w", o.out, err)
	}
	fmt.Printf("wrote %s (%dx%d)\n", o.out, o.width, o.height)
	return nil
}

func runWindow(o options, controls glass.Controls) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w: %w", glass.ErrCapability, err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(o.width, o.height, windowTitle, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w: %w", glass.ErrCapability, err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1) // vsync

	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w: %w", glass.ErrCapability, err)
	}
	backend, err := opengl.NewBackend()
	if err != nil {
		return err
	}
	defer backend.Delete()

	fbW, fbH := window.GetFramebufferSize()
	dpr := devicePixelRatio(window)

	records, err := o.records(dpr)
	if err != nil {
		return err
	}
	store := glass.NewShapeStore()
	store.Replace(glass.ShapesFromDataset(records, controls.ShapeWidth*dpr))
	camera := glass.NewCamera(float32(fbW), float32(fbH))

	comp, err := glass.NewCompositor(backend, store, camera, fbW, fbH,
		glass.WithControls(controls), glass.WithDPR(dpr))
	if err != nil {
		return err
	}
	defer comp.Dispose()

	interaction := glass.NewInteraction(store, camera, glass.DefaultInteractionConfig())
	defer interaction.Close()

	input := opengl.NewGLFWInputAdapter(window)
	input.SetScale(dpr)

	// Main loop.
	for !window.ShouldClose() {
		state := input.Update()
		glfw.PollEvents()

		w, h := window.GetFramebufferSize()
		dpr = devicePixelRatio(window)
		input.SetScale(dpr)
		if _, err := comp.Resize(w, h, dpr); err != nil {
			return fmt.Errorf("resize: %w", err)
		}

		now := time.Now()
		interaction.HandleInput(state, now)
		interaction.Tick(now)

		if err := comp.Frame(); err != nil {
			var passErrs *glass.PassErrors
			if !errors.As(err, &passErrs) {
				return fmt.Errorf("frame: %w", err)
			}
			glass.Logger().Error("frame", "error", err)
		}

		window.SwapBuffers()
	}

	return nil
}

// devicePixelRatio is the framebuffer-to-window size ratio.
func devicePixelRatio(window *glfw.Window) float32 {
	fbW, _ := window.GetFramebufferSize()
	winW, _ := window.GetSize()
	if winW == 0 {
		return 1
	}
	return float32(fbW) / float32(winW)
}

// defaultScene is the built-in dataset: a cluster that merges on layer 0,
// a tinted pair on layer 1 and a lone panel on top.
func defaultScene() []glass.DatasetRecord {
	rec := func(id string, x, y, h float32, z int, tint [3]uint8) glass.DatasetRecord {
		r := glass.DatasetRecord{ID: id, ZIndex: z, Tint: tint}
		r.Position.X, r.Position.Y = x, y
		r.Size.Height = h
		return r
	}
	white := [3]uint8{255, 255, 255}
	blue := [3]uint8{120, 170, 255}
	return []glass.DatasetRecord{
		rec("cluster-1", -260, 120, 180, 0, white),
		rec("cluster-2", -90, 150, 160, 0, white),
		rec("cluster-3", -180, -40, 200, 0, white),
		rec("pair-1", 180, 60, 220, 1, blue),
		rec("pair-2", 320, -80, 140, 1, blue),
		rec("top", 0, -200, 120, 2, [3]uint8{255, 200, 140}),
	}
}
