package pbrtracer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// maxPitch keeps the camera from flipping over the poles.
const maxPitch = math32.Pi/2 - 0.0001

// CameraComponent places a perspective camera. Yaw and Pitch are in radians;
// zero yaw looks down -Z.
type CameraComponent struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32

	YFov  float32
	ZNear float32
	ZFar  float32
}

func DefaultCamera() CameraComponent {
	return CameraComponent{
		YFov:  mgl32.DegToRad(45),
		ZNear: 0.3,
		ZFar:  1000,
	}
}

func (c *CameraComponent) Forward() mgl32.Vec3 {
	return mgl32.Vec3{
		math32.Sin(c.Yaw) * math32.Cos(c.Pitch),
		math32.Sin(c.Pitch),
		-math32.Cos(c.Yaw) * math32.Cos(c.Pitch),
	}
}

// ForwardHorizontal is Forward projected on the XZ plane.
func (c *CameraComponent) ForwardHorizontal() mgl32.Vec3 {
	return mgl32.Vec3{math32.Sin(c.Yaw), 0, -math32.Cos(c.Yaw)}
}

func (c *CameraComponent) Right() mgl32.Vec3 {
	return mgl32.Vec3{math32.Cos(c.Yaw), 0, math32.Sin(c.Yaw)}
}

func (c *CameraComponent) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
}

func (c *CameraComponent) ProjectionMatrix(size ScreenSize) mgl32.Mat4 {
	aspect := float32(1)
	if size.H > 0 {
		aspect = float32(size.W) / float32(size.H)
	}
	return mgl32.Perspective(c.YFov, aspect, c.ZNear, c.ZFar)
}

// FlyingCameraComponent turns input into camera motion. Movement flags follow
// the held keys, mouse motion accumulates until the next update.
type FlyingCameraComponent struct {
	// Speed is in units per second, Sensitivity in radians per pixel.
	Speed       float32
	Sensitivity float32

	movingLeft     bool
	movingRight    bool
	movingForward  bool
	movingBackward bool
	movingUp       bool
	movingDown     bool

	yawAccu   float32
	pitchAccu float32
}

// SprintComponent accelerates the camera while shift is held, starting over
// from StartingSpeed on every press.
type SprintComponent struct {
	StartingSpeed float32
	Acceleration  float32

	sprinting   bool
	normalSpeed float32
}

// CameraModule spawns a flying camera. Its controls stop while PauseModule
// pauses the app.
type CameraModule struct {
	Camera CameraComponent
}

func (m CameraModule) Install(app *App, cmd *Commands) {
	camera := m.Camera
	if camera.YFov == 0 {
		camera = DefaultCamera()
	}

	cmd.AddEntity(
		camera,
		FlyingCameraComponent{Speed: 5, Sensitivity: mgl32.DegToRad(0.1)},
		SprintComponent{StartingSpeed: 1, Acceleration: 20},
	)
	app.FlushCommands()

	keys := AddEvent[KeyboardInputEvent](app)
	motion := AddEvent[MouseMotionEvent](app)

	keyReader := &EventReader[KeyboardInputEvent]{}
	motionReader := &EventReader[MouseMotionEvent]{}
	app.UseSystem(WhileRunning(app,
		System(func(cmd *Commands, w *Window, t *Time) {
			if !w.CursorAttached {
				return
			}
			batch := ReadKeyboard(keyReader, keys)
			delta := MotionDeltaSum(motionReader, motion)

			MakeQuery3[CameraComponent, FlyingCameraComponent, SprintComponent](cmd).Map(
				func(eid EntityId, cam *CameraComponent, fly *FlyingCameraComponent, sprint *SprintComponent) bool {
					fly.processKeyboard(batch)
					fly.yawAccu += float32(delta.X())
					fly.pitchAccu += float32(delta.Y())
					sprint.process(batch, fly, float32(t.DtU.Seconds()))
					fly.update(cam, float32(t.DtU.Seconds()))
					MarkChanged[CameraComponent](cmd, eid)
					return true
				})
		}).
			InStage(Update),
	))
}

func (fly *FlyingCameraComponent) processKeyboard(batch InputBatch[Key]) {
	for _, it := range batch.items {
		pressed := it.state.IsPressed()
		switch it.key {
		case KeyW, KeyUp:
			fly.movingForward = pressed
		case KeyS, KeyDown:
			fly.movingBackward = pressed
		case KeyA, KeyLeft:
			fly.movingLeft = pressed
		case KeyD, KeyRight:
			fly.movingRight = pressed
		case KeySpace:
			fly.movingUp = pressed
		case KeyControl:
			fly.movingDown = pressed
		}
	}
}

// process handles repeated presses or releases, which some platforms report
// twice in a row.
func (s *SprintComponent) process(batch InputBatch[Key], fly *FlyingCameraComponent, dt float32) {
	for _, state := range batch.States(KeyShift) {
		switch state {
		case Pressed:
			if !s.sprinting {
				s.sprinting = true
				s.normalSpeed = fly.Speed
				fly.Speed = s.StartingSpeed
			}
		case Released:
			if s.sprinting {
				s.sprinting = false
				fly.Speed = s.normalSpeed
			}
		}
	}

	if s.sprinting {
		fly.Speed += s.Acceleration * dt
	}
}

func (fly *FlyingCameraComponent) update(cam *CameraComponent, dt float32) {
	forward := cam.ForwardHorizontal()
	right := cam.Right()
	movement := fly.Speed * dt

	if fly.movingForward {
		cam.Position = cam.Position.Add(forward.Mul(movement))
	}
	if fly.movingBackward {
		cam.Position = cam.Position.Sub(forward.Mul(movement))
	}
	if fly.movingRight {
		cam.Position = cam.Position.Add(right.Mul(movement))
	}
	if fly.movingLeft {
		cam.Position = cam.Position.Sub(right.Mul(movement))
	}
	if fly.movingUp {
		cam.Position[1] += movement
	}
	if fly.movingDown {
		cam.Position[1] -= movement
	}

	// The accumulators may span several frames, so they are applied as is
	// rather than scaled by dt.
	cam.Yaw += fly.Sensitivity * fly.yawAccu
	cam.Pitch -= fly.Sensitivity * fly.pitchAccu
	fly.yawAccu = 0
	fly.pitchAccu = 0

	cam.Pitch = mgl32.Clamp(cam.Pitch, -maxPitch, maxPitch)
}
