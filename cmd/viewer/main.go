package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"

	"stereo-viewer/assets"
	"stereo-viewer/config"
	"stereo-viewer/core"
	"stereo-viewer/input"
	"stereo-viewer/internal/opengl"
	"stereo-viewer/renderer"
	"stereo-viewer/scene"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("viewer failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(log)

	tracker := input.NewTracker()
	window, err := core.NewWindow(windowConfig(cfg), tracker)
	if err != nil {
		return err
	}
	defer window.Destroy()

	dev, err := opengl.NewDevice(log)
	if err != nil {
		return err
	}

	rigConfig := cfg.RigConfig()
	rigConfig.Width, rigConfig.Height = window.Width, window.Height
	rig, err := scene.NewRig(rigConfig)
	if err != nil {
		return err
	}
	rig.SetSpeeds(cfg.Stereo.MoveSpeed, cfg.Stereo.LookSpeed)

	shaders, err := renderer.LoadShaderSources(cfg.Assets.ShadersDir)
	if err != nil {
		return err
	}
	overlay := newTitleOverlay(window, rig)
	pipeline, err := renderer.NewPipeline(dev, rig, cfg.Params(), renderer.Options{
		Width:   window.Width,
		Height:  window.Height,
		Shaders: shaders,
		Overlay: overlay,
		Logger:  log,
	})
	if err != nil {
		return fmt.Errorf("render pipeline: %w", err)
	}
	defer pipeline.Destroy()

	catalog, err := assets.NewCatalog(cfg.Assets.ModelsDir, cfg.Assets.TexturesDir, log)
	if err != nil {
		return err
	}
	if cfg.Assets.Watch {
		if err := catalog.Watch(); err != nil {
			log.Warn("asset watching disabled", "err", err)
		}
	}
	defer catalog.Close()

	ctx, cancel := context.WithCancel(context.Background())
	loader := assets.NewLoader(assets.LoaderOptions{Dc: cfg.Stereo.Dc, Logger: log})
	defer func() {
		cancel()
		loader.Wait()
	}()

	sel := newSelection(catalog, cfg.Assets.InitialModel, cfg.Assets.InitialTexture)
	load := func() bool {
		model, texture, ok := sel.paths()
		if ok {
			loader.LoadAsync(ctx, model, texture)
		}
		return ok
	}
	if !load() {
		log.Warn("no model to load, showing placeholder", "dir", cfg.Assets.ModelsDir)
		upload(dev, pipeline, placeholder(cfg.Stereo.Dc), log)
	}

	controller := input.NewController(rig, pipeline.Params(), log)
	for !window.ShouldClose() {
		window.PollEvents()

		if w, h, ok := window.TakeResize(); ok && w > 0 && h > 0 {
			if err := rig.Resize(w, h); err != nil {
				log.Warn("rig resize failed", "err", err)
			}
			if err := pipeline.Resize(w, h); err != nil {
				return fmt.Errorf("resize: %w", err)
			}
		}

		frame := controller.Apply(tracker.Snapshot(pipeline.Params().KeyboardLayout))
		if frame.Quit {
			break
		}
		window.CaptureCursor(frame.CaptureCursor)
		if frame.CaptureCursor {
			overlay.Hide()
		}
		if frame.NextModel {
			sel.next(assets.KindModel)
			load()
		}
		if frame.NextTexture {
			sel.next(assets.KindTexture)
			load()
		}

		select {
		case res := <-loader.Results():
			upload(dev, pipeline, res, log)
		default:
		}

		pipeline.Render()
		window.SwapBuffers()
	}
	return nil
}

func windowConfig(cfg config.Config) core.WindowConfig {
	wc := core.DefaultWindowConfig()
	wc.Width = cfg.Window.Width
	wc.Height = cfg.Window.Height
	wc.Title = cfg.Window.Title
	wc.VSync = cfg.Window.VSync
	wc.Fullscreen = cfg.Window.Fullscreen
	wc.Joystick = cfg.Input.Joystick
	return wc
}

// placeholder is a checkered torus shown when the models directory is
// empty.
func placeholder(dc float32) assets.Result {
	mesh := scene.CreateTorus(1, 0.4, 48, 24)
	mesh.Fit(dc)
	tex := scene.NewCheckerTexture("checker", 256,
		color.RGBA{R: 220, G: 220, B: 220, A: 255},
		color.RGBA{R: 60, G: 60, B: 60, A: 255})
	return assets.Result{Model: mesh.Name, Mesh: mesh, Texture: tex}
}

// upload replaces the drawable with a finished load. Failed loads keep
// the previous drawable.
func upload(dev *opengl.Device, pipeline *renderer.Pipeline, res assets.Result, log *slog.Logger) {
	if res.Err != nil {
		return
	}
	d, err := renderer.NewDrawable(dev, res.Mesh, res.Texture)
	if err != nil {
		log.Error("upload failed", "model", res.Model, "err", err)
		return
	}
	pipeline.SetDrawable(d)
}
