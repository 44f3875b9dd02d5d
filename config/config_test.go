package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stereo-viewer/renderer"
	"stereo-viewer/scene"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viewer.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, renderer.DefaultParams(), cfg.Params())
	assert.Equal(t, scene.DefaultRigConfig(1280, 720), cfg.RigConfig())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[window]
width = 1920
height = 1080

[stereo]
dioc = 0.07

[render]
view_mode = "side-by-side"
ssao = false

[input]
layout = "qwerty"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, "Stereo Viewer", cfg.Window.Title, "unset keys keep defaults")
	assert.Equal(t, float32(2), cfg.Stereo.Dc)

	p := cfg.Params()
	assert.Equal(t, renderer.SideBySide, p.ViewMode)
	assert.False(t, p.SSAOEnabled)
	assert.Equal(t, renderer.Qwerty, p.KeyboardLayout)
	assert.Equal(t, float32(15.5), p.LightIntensity)

	rc := cfg.RigConfig()
	assert.Equal(t, float32(0.07), rc.Dioc)
	assert.Equal(t, 1920, rc.Width)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "[window]\nwidht = 3\n",
		"bad syntax":    "[window\n",
		"negative dc":   "[stereo]\ndc = -1\n",
		"zero width":    "[window]\nwidth = 0\n",
		"view mode":     "[render]\nview_mode = \"interlaced\"\n",
		"layout":        "[input]\nlayout = \"dvorak\"\n",
		"intensity":     "[render]\nlight_intensity = 51.0\n",
		"samples":       "[render]\nssao_samples = 65\n",
		"log level":     "[log]\nlevel = \"loud\"\n",
		"negative dioc": "[stereo]\ndioc = -0.01\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Stereo.L = 0
	cfg.Render.SSAORadius = 2
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "stereo: l")
	assert.ErrorContains(t, err, "ssao_radius")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Assets.InitialModel = "bunny.obj"
	data, err := cfg.Encode()
	require.NoError(t, err)

	got := Config{}
	require.NoError(t, Decode(data, &got))
	assert.Equal(t, cfg, got)
}
