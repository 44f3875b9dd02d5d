// Package config loads the viewer settings from an optional TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"stereo-viewer/renderer"
	"stereo-viewer/scene"
)

// ErrInvalid matches every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Window WindowConfig `toml:"window"`
	Stereo StereoConfig `toml:"stereo"`
	Assets AssetsConfig `toml:"assets"`
	Render RenderConfig `toml:"render"`
	Input  InputConfig  `toml:"input"`
	Log    LogConfig    `toml:"log"`
}

type WindowConfig struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Title      string `toml:"title"`
	Fullscreen bool   `toml:"fullscreen"`
	VSync      bool   `toml:"vsync"`
}

// StereoConfig sets up the camera rig. Distances are in metres.
type StereoConfig struct {
	Dioc      float32 `toml:"dioc"` // interocular distance
	Dc        float32 `toml:"dc"`   // viewer to screen
	L         float32 `toml:"l"`    // screen width
	MoveSpeed float32 `toml:"move_speed"`
	LookSpeed float32 `toml:"look_speed"`
}

type AssetsConfig struct {
	ModelsDir      string `toml:"models_dir"`
	TexturesDir    string `toml:"textures_dir"`
	ShadersDir     string `toml:"shaders_dir"`
	InitialModel   string `toml:"initial_model"`
	InitialTexture string `toml:"initial_texture"`
	Watch          bool   `toml:"watch"`
}

// RenderConfig holds the initial pipeline parameters.
type RenderConfig struct {
	LightIntensity  float32 `toml:"light_intensity"`
	LightRadius     float32 `toml:"light_radius"`
	SSAO            bool    `toml:"ssao"`
	SSAOBias        float32 `toml:"ssao_bias"`
	SSAORadius      float32 `toml:"ssao_radius"`
	SSAOScale       float32 `toml:"ssao_scale"`
	SSAOSamples     int     `toml:"ssao_samples"`
	BlurCoefficient float32 `toml:"blur_coefficient"`
	ViewMode        string  `toml:"view_mode"`
	ShowGUI         bool    `toml:"show_gui"`
}

type InputConfig struct {
	Layout   string `toml:"layout"`
	Joystick bool   `toml:"joystick"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func Default() Config {
	p := renderer.DefaultParams()
	return Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "Stereo Viewer",
			VSync:  true,
		},
		Stereo: StereoConfig{
			Dioc:      scene.DefaultDioc,
			Dc:        2,
			L:         4,
			MoveSpeed: 0.15,
			LookSpeed: 0.005,
		},
		Assets: AssetsConfig{
			ModelsDir:   "assets/models",
			TexturesDir: "assets/textures",
			Watch:       true,
		},
		Render: RenderConfig{
			LightIntensity:  p.LightIntensity,
			LightRadius:     p.LightRadius,
			SSAO:            p.SSAOEnabled,
			SSAOBias:        p.SSAOBias,
			SSAORadius:      p.SSAORadius,
			SSAOScale:       p.SSAOScale,
			SSAOSamples:     p.SSAOSamples,
			BlurCoefficient: p.BlurCoefficient,
			ViewMode:        p.ViewMode.String(),
			ShowGUI:         p.ShowGUI,
		},
		Input: InputConfig{
			Layout:   renderer.Azerty.String(),
			Joystick: true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over Default and validates the result. An empty path
// returns the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Decode merges TOML data into cfg.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: %s", ErrInvalid, strict.String())
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Encode renders cfg as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate reports every problem at once, wrapped in ErrInvalid.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Window.Width > 0 && c.Window.Height > 0, "window: size %dx%d", c.Window.Width, c.Window.Height)
	check(c.Stereo.Dioc >= 0, "stereo: dioc %v is negative", c.Stereo.Dioc)
	check(c.Stereo.Dc > 0, "stereo: dc %v must be positive", c.Stereo.Dc)
	check(c.Stereo.L > 0, "stereo: l %v must be positive", c.Stereo.L)
	check(c.Stereo.MoveSpeed >= 0 && c.Stereo.LookSpeed >= 0, "stereo: negative speed")

	r := c.Render
	check(inRange(r.LightIntensity, renderer.MaxLightIntensity), "render: light_intensity %v", r.LightIntensity)
	check(inRange(r.LightRadius, renderer.MaxLightRadius), "render: light_radius %v", r.LightRadius)
	check(inRange(r.SSAOBias, renderer.MaxSSAOBias), "render: ssao_bias %v", r.SSAOBias)
	check(inRange(r.SSAORadius, renderer.MaxSSAORadius), "render: ssao_radius %v", r.SSAORadius)
	check(inRange(r.SSAOScale, renderer.MaxSSAOScale), "render: ssao_scale %v", r.SSAOScale)
	check(r.SSAOSamples >= 0 && r.SSAOSamples <= renderer.MaxSSAOSamples, "render: ssao_samples %d", r.SSAOSamples)
	check(inRange(r.BlurCoefficient, renderer.MaxBlurCoefficient), "render: blur_coefficient %v", r.BlurCoefficient)
	if _, err := renderer.ParseViewMode(r.ViewMode); err != nil {
		errs = append(errs, fmt.Errorf("render: %w", err))
	}
	if _, err := renderer.ParseKeyboardLayout(c.Input.Layout); err != nil {
		errs = append(errs, fmt.Errorf("input: %w", err))
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func inRange(v, hi float32) bool { return v >= 0 && v <= hi }

// Params converts the render section. Call Validate first.
func (c Config) Params() renderer.Params {
	mode, _ := renderer.ParseViewMode(c.Render.ViewMode)
	layout, _ := renderer.ParseKeyboardLayout(c.Input.Layout)
	p := renderer.Params{
		LightIntensity:  c.Render.LightIntensity,
		LightRadius:     c.Render.LightRadius,
		SSAOEnabled:     c.Render.SSAO,
		SSAOBias:        c.Render.SSAOBias,
		SSAORadius:      c.Render.SSAORadius,
		SSAOScale:       c.Render.SSAOScale,
		SSAOSamples:     c.Render.SSAOSamples,
		BlurCoefficient: c.Render.BlurCoefficient,
		ViewMode:        mode,
		ShowGUI:         c.Render.ShowGUI,
		KeyboardLayout:  layout,
	}
	p.Clamp()
	return p
}

// RigConfig converts the stereo section for a window of the configured
// size.
func (c Config) RigConfig() scene.RigConfig {
	rc := scene.DefaultRigConfig(c.Window.Width, c.Window.Height)
	rc.Dioc = c.Stereo.Dioc
	rc.Dc = c.Stereo.Dc
	rc.L = c.Stereo.L
	return rc
}

// LogLevel parses the log section, defaulting to Info.
func (c Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
