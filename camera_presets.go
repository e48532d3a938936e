package pbrtracer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraPreset is a saved camera pose.
type CameraPreset struct {
	Position mgl32.Vec3 `json:"position"`
	Yaw      float32    `json:"yaw"`
	Pitch    float32    `json:"pitch"`
	YFov     float32    `json:"yfov"`
}

var errNoCamera = errors.New("no camera to save")

// SaveCameraPreset writes the pose of the first camera to filename.
func SaveCameraPreset(cmd *Commands, filename string) error {
	var preset *CameraPreset
	MakeQuery1[CameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent) bool {
		preset = &CameraPreset{Position: cam.Position, Yaw: cam.Yaw, Pitch: cam.Pitch, YFov: cam.YFov}
		return false
	})
	if preset == nil {
		return errNoCamera
	}

	bytes, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, bytes, 0644)
}

// LoadCameraPreset moves every camera to the pose saved in filename. A zero
// YFov keeps the camera's own.
func LoadCameraPreset(cmd *Commands, filename string) error {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	var preset CameraPreset
	if err := json.Unmarshal(bytes, &preset); err != nil {
		return fmt.Errorf("invalid camera preset %s: %w", filename, err)
	}

	MakeQuery1[CameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent) bool {
		cam.Position = preset.Position
		cam.Yaw = preset.Yaw
		cam.Pitch = mgl32.Clamp(preset.Pitch, -maxPitch, maxPitch)
		if preset.YFov > 0 {
			cam.YFov = preset.YFov
		}
		MarkChanged[CameraComponent](cmd, eid)
		return true
	})
	return nil
}

// CameraPresetModule saves the camera pose to Path on F5 and restores it on F9.
type CameraPresetModule struct {
	Path string
}

func (m CameraPresetModule) Install(app *App, cmd *Commands) {
	path := m.Path
	if path == "" {
		path = "camera.json"
	}

	keys := AddEvent[KeyboardInputEvent](app)
	reader := &EventReader[KeyboardInputEvent]{}
	app.UseSystem(
		System(func(cmd *Commands) {
			batch := ReadKeyboard(reader, keys)
			log := cmd.app.Logger()
			if batch.HasPressed(KeyF5) {
				if err := SaveCameraPreset(cmd, path); err != nil {
					log.Errorf("Couldn't save camera preset: %v", err)
				} else {
					log.Infof("Saved camera preset to %s", path)
				}
			}
			if batch.HasPressed(KeyF9) {
				if err := LoadCameraPreset(cmd, path); err != nil {
					log.Errorf("Couldn't load camera preset: %v", err)
				} else {
					log.Infof("Loaded camera preset from %s", path)
				}
			}
		}).
			InStage(Update).
			RunAlways(),
	)
}
