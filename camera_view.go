package pbrtracer

import (
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/pbrtracer/gpu"
)

// CameraView is the camera uniform read by the renderers as `camera`.
type CameraView struct {
	ZNear float32
	ZFar  float32

	YFov        float32
	FocalLength float32

	ViewMat        mgl32.Mat4
	InverseViewMat mgl32.Mat4
	ProjMat        mgl32.Mat4
}

// NewCameraView derives the uniform of cam rendered at size. FocalLength is
// the distance in pixels from the eye to an image plane of that size.
func NewCameraView(cam *CameraComponent, size ScreenSize) CameraView {
	view := cam.ViewMatrix()
	return CameraView{
		ZNear:          cam.ZNear,
		ZFar:           cam.ZFar,
		YFov:           cam.YFov,
		FocalLength:    float32(size.H) / 2 / math32.Tan(cam.YFov/2),
		ViewMat:        view,
		InverseViewMat: view.Inv(),
		ProjMat:        cam.ProjectionMatrix(size),
	}
}

// RenderResolution is the size of the image the compute renderer produces,
// independent from the window size.
type RenderResolution struct {
	Size ScreenSize
}

// CameraViewBuffer is the uniform buffer the camera view is uploaded to.
type CameraViewBuffer struct {
	Buffer *wgpu.Buffer
}

// CameraViewModule attaches a CameraView to every camera and keeps it in sync
// after the camera moved. It needs CameraModule and GPUModule.
type CameraViewModule struct {
	Resolution ScreenSize
}

func (m CameraViewModule) Install(app *App, cmd *Commands) {
	res, ok := Resource[RenderResolution](app)
	if !ok {
		res = &RenderResolution{Size: m.Resolution}
		if res.Size.W == 0 || res.Size.H == 0 {
			res.Size = MustResource[RenderTarget](app).Size()
		}
		app.addResources(res)
	}

	g := MustResource[gpu.GPU](app)
	buf, err := gpu.CreateUniformBuffer[CameraView](g, "CameraView")
	if err != nil {
		panic(err)
	}
	app.addResources(&CameraViewBuffer{Buffer: buf})

	MakeQuery1[CameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent) bool {
		AttachBuffer(cmd, eid, NewCameraView(cam, res.Size), buf)
		return true
	})
	app.FlushCommands()

	app.UseSystem(
		System(updateCameraViews).
			InStage(PostUpdate).
			RunAlways(),
	)
}

func updateCameraViews(cmd *Commands, res *RenderResolution) {
	MakeQuery2[CameraComponent, CameraView](cmd).Map(func(eid EntityId, cam *CameraComponent, view *CameraView) bool {
		*view = NewCameraView(cam, res.Size)
		return true
	})
}
