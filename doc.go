/*
Package glass renders rounded glass panels as refractive, mutually merging
blobs over a dynamic background.

# Overview

Shapes live in a ShapeStore. Every frame the store batches visible shapes by
(zIndex, tint); shapes in one batch merge with a smooth minimum of their
signed distance fields, so panels at the same depth fuse like liquid. Batches
render back to front through a RenderGraph of full-screen passes, each
sampling the layer beneath it for refraction, Fresnel and glare.

Programs and render targets are only rebuilt when the batch topology changes.
Uniforms are pushed every frame.

# Quick Start

	backend, _ := opengl.NewBackend()
	store := glass.NewShapeStore()
	store.Replace(glass.ShapesFromDataset(records, 200))

	camera := glass.NewCamera(1920, 1080)
	comp, _ := glass.NewCompositor(backend, store, camera, 1920, 1080)
	defer comp.Dispose()

	interaction := glass.NewInteraction(store, camera, glass.DefaultInteractionConfig())

	for !window.ShouldClose() {
	    input.Reset()
	    glfw.PollEvents()

	    now := time.Now()
	    interaction.HandleInput(input, now)
	    interaction.Tick(now)

	    if err := comp.Frame(); err != nil {
	        log.Println(err)
	    }
	    window.SwapBuffers()
	}

# Coordinates

World space has Y up, screen space Y down; Camera converts between them.
Shape positions reach the shaders through ShaderPosition, which negates X and
moves Y to a bottom-left origin. The shaders undo the X negation.

# Strategies

StrategyBatched chains one alpha pass per batch. StrategyDepthPeel extracts
a fixed number of depth layers and composites them; backends without depth
textures fall back to batched alpha.

# Keyboard Shortcuts

	0-9     select shape by index
	+ / -   raise / lower the selected shape's zIndex (not below 0)
	Space   cycle selection
	F       fit the camera to all shapes
	Esc     clear selection

# Logging

Loggers are log/slog based. SetVerbose(true) enables debug output and
SetLogger routes everything through an application logger.
*/
package glass
