package pbrtracer

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// EngineConfig is the TOML configuration of the executable.
type EngineConfig struct {
	Window  WindowConfig  `toml:"window"`
	Loop    LoopConfig    `toml:"loop"`
	Render  RenderConfig  `toml:"render"`
	Shaders ShadersConfig `toml:"shaders"`
	Logging LoggingConfig `toml:"logging"`
	Tasks   TasksConfig   `toml:"tasks"`
	Camera  CameraConfig  `toml:"camera"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type LoopConfig struct {
	TargetUPS float64 `toml:"target_ups"`
	// TargetFPS of 0 renders once per iteration.
	TargetFPS float64 `toml:"target_fps"`
	// MaxUpdatesPerIteration of 0 catches up without limit.
	MaxUpdatesPerIteration int `toml:"max_updates_per_iteration"`
}

type RenderConfig struct {
	ResolutionWidth  uint32 `toml:"resolution_width"`
	ResolutionHeight uint32 `toml:"resolution_height"`
	WorkgroupX       uint32 `toml:"workgroup_x"`
	WorkgroupY       uint32 `toml:"workgroup_y"`
	Filter           string `toml:"filter"`
	PresentMode      string `toml:"present_mode"`
	Renderer         string `toml:"renderer"`
	Gamma            bool   `toml:"gamma"`
}

type ShadersConfig struct {
	// WatchDir overlays the embedded shaders with a directory watched for changes.
	WatchDir string `toml:"watch_dir"`
	Validate bool   `toml:"validate"`
}

type LoggingConfig struct {
	Prefix string `toml:"prefix"`
	Debug  bool   `toml:"debug"`
	// StatsInterval is in seconds. Zero disables the frame stats.
	StatsInterval float64 `toml:"stats_interval"`
}

type CameraConfig struct {
	// PresetPath is where F5 saves the camera pose and F9 restores it from.
	PresetPath string `toml:"preset_path"`
}

type TasksConfig struct {
	Workers int `toml:"workers"`
}

func DefaultConfig() EngineConfig {
	return EngineConfig{
		Window: WindowConfig{Title: "pbrtracer", Width: 1600, Height: 900},
		Loop:   LoopConfig{TargetUPS: 60},
		Render: RenderConfig{
			ResolutionWidth:  1000,
			ResolutionHeight: 500,
			WorkgroupX:       16,
			WorkgroupY:       16,
			Filter:           "linear",
			PresentMode:      "mailbox",
			Renderer:         "pathtracer",
		},
		Shaders: ShadersConfig{Validate: true},
		Logging: LoggingConfig{Prefix: "pbrtracer"},
		Tasks:   TasksConfig{Workers: 2},
		Camera:  CameraConfig{PresetPath: "camera.json"},
	}
}

// ParseConfig reads TOML over the defaults. Unknown keys are errors.
func ParseConfig(data []byte) (EngineConfig, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("invalid config: %s", strict.String())
		}
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.ExpandPaths(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ExpandPaths resolves a leading ~ in the configured paths.
func (c *EngineConfig) ExpandPaths() error {
	for _, p := range []*string{&c.Shaders.WatchDir, &c.Camera.PresetPath} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("invalid path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// LoadConfig reads the config file at path. A missing file yields the defaults.
func LoadConfig(path string) (EngineConfig, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("invalid config path: %w", err)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("couldn't read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

func (c EngineConfig) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	case c.Loop.TargetUPS <= 0:
		return fmt.Errorf("target_ups must be positive, got %v", c.Loop.TargetUPS)
	case c.Loop.TargetFPS < 0:
		return fmt.Errorf("target_fps must not be negative, got %v", c.Loop.TargetFPS)
	case c.Loop.MaxUpdatesPerIteration < 0:
		return fmt.Errorf("max_updates_per_iteration must not be negative, got %d", c.Loop.MaxUpdatesPerIteration)
	case c.Render.ResolutionWidth == 0 || c.Render.ResolutionHeight == 0:
		return fmt.Errorf("invalid render resolution %dx%d", c.Render.ResolutionWidth, c.Render.ResolutionHeight)
	case c.Render.WorkgroupX == 0 || c.Render.WorkgroupY == 0:
		return fmt.Errorf("invalid workgroup size %dx%d", c.Render.WorkgroupX, c.Render.WorkgroupY)
	case c.Tasks.Workers < 1:
		return fmt.Errorf("tasks.workers must be at least 1, got %d", c.Tasks.Workers)
	case c.Logging.StatsInterval < 0:
		return fmt.Errorf("stats_interval must not be negative, got %v", c.Logging.StatsInterval)
	}
	if _, err := FilterModeByName(c.Render.Filter); err != nil {
		return err
	}
	if _, err := PresentModePreference(c.Render.PresentMode); err != nil {
		return err
	}
	if _, err := RendererByName(c.Render.Renderer, c.Render.Gamma); err != nil {
		return err
	}
	return nil
}
