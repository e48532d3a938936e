package pbrtracer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 60.0, cfg.Loop.TargetUPS)
	assert.Zero(t, cfg.Loop.TargetFPS)
	assert.Zero(t, cfg.Loop.MaxUpdatesPerIteration)
	assert.Equal(t, uint32(1000), cfg.Render.ResolutionWidth)
	assert.Equal(t, uint32(500), cfg.Render.ResolutionHeight)
	assert.Equal(t, uint32(16), cfg.Render.WorkgroupX)
	assert.Equal(t, "mailbox", cfg.Render.PresentMode)
	assert.Equal(t, "camera.json", cfg.Camera.PresetPath)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
[window]
title = "demo"
width = 800

[loop]
target_fps = 144.0
max_updates_per_iteration = 8

[render]
renderer = "debug"
filter = "nearest"

[shaders]
watch_dir = "shaders"

[logging]
stats_interval = 2.5
`))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 900, cfg.Window.Height, "unset keys keep their default")
	assert.Equal(t, 144.0, cfg.Loop.TargetFPS)
	assert.Equal(t, 60.0, cfg.Loop.TargetUPS)
	assert.Equal(t, 8, cfg.Loop.MaxUpdatesPerIteration)
	assert.Equal(t, "debug", cfg.Render.Renderer)
	assert.Equal(t, "nearest", cfg.Render.Filter)
	assert.Equal(t, "shaders", cfg.Shaders.WatchDir)
	assert.True(t, cfg.Shaders.Validate)
	assert.Equal(t, 2.5, cfg.Logging.StatsInterval)
}

func TestParseConfig_Errors(t *testing.T) {
	for name, src := range map[string]string{
		"unknown key":     "[window]\nfullscreen = true\n",
		"syntax":          "[window\n",
		"bad type":        "[window]\nwidth = \"wide\"\n",
		"no ups":          "[loop]\ntarget_ups = 0.0\n",
		"bad renderer":    "[render]\nrenderer = \"raster\"\n",
		"bad filter":      "[render]\nfilter = \"cubic\"\n",
		"bad present":     "[render]\npresent_mode = \"vsync\"\n",
		"empty workgroup": "[render]\nworkgroup_x = 0\n",
		"no workers":      "[tasks]\nworkers = 0\n",
		"negative stats":  "[logging]\nstats_interval = -1.0\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(dir, "pbrtracer.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\ndebug = true\n"), 0o644))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Logging.Debug)
}

func TestEngineConfig_ExpandPaths(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)

	cfg, err := ParseConfig([]byte("[shaders]\nwatch_dir = \"~/shaders\"\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "shaders"), cfg.Shaders.WatchDir)
	assert.Equal(t, "camera.json", cfg.Camera.PresetPath, "relative paths are kept")

	cfg.Camera.PresetPath = "~other/camera.json"
	assert.Error(t, cfg.ExpandPaths(), "other users' homes aren't supported")
}
