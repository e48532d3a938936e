package pbrtracer

import (
	"reflect"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/pbrtracer/gpu"
)

// Uploader writes bytes to the start of a GPU buffer. *gpu.GPU implements it.
type Uploader interface {
	WriteBuffer(buf *wgpu.Buffer, data []byte) error
}

// UploadBuffer pairs a data component T with the buffer it is uploaded to.
type UploadBuffer[T any] struct {
	Buffer *wgpu.Buffer
}

// Uploads is the registry of auto-uploaded data types. Uploader is set by
// GPUModule; until then upload systems do nothing.
type Uploads struct {
	Uploader   Uploader
	registered map[reflect.Type]bool
}

func (u *Uploads) Registered(t reflect.Type) bool {
	return u.registered[t]
}

func uploads(app *App) *Uploads {
	if u, ok := Resource[Uploads](app); ok {
		return u
	}
	u := &Uploads{registered: make(map[reflect.Type]bool)}
	if g, ok := Resource[gpu.GPU](app); ok {
		u.Uploader = g
	}
	app.addResources(u)
	return u
}

// RegisterAutoUpload installs, once per T, a PreRender system writing every
// T component to the buffer of its UploadBuffer[T] on every frame. There is
// no dirty tracking: small uniforms are cheaper to resend than to diff.
func RegisterAutoUpload[T any](app *App) {
	u := uploads(app)
	t := reflect.TypeFor[T]()
	if u.registered[t] {
		return
	}
	u.registered[t] = true

	app.UseSystem(
		System(func(cmd *Commands, u *Uploads) {
			uploadAll[T](cmd, u)
		}).
			InStage(PreRender).
			RunAlways(),
	)
}

func uploadAll[T any](cmd *Commands, u *Uploads) {
	if u.Uploader == nil {
		return
	}
	MakeQuery2[T, UploadBuffer[T]](cmd).Map(func(eid EntityId, data *T, target *UploadBuffer[T]) bool {
		if target.Buffer == nil {
			return true
		}
		if err := u.Uploader.WriteBuffer(target.Buffer, gpu.Bytes(data)); err != nil {
			cmd.app.Logger().Errorf("Couldn't upload %s of entity %d: %v", gpu.ShaderTypeName[T](), eid, err)
		}
		return true
	})
}

// SpawnBuffer spawns an entity holding data and the buffer it is uploaded to
// on every frame.
func SpawnBuffer[T any](cmd *Commands, data T, buf *wgpu.Buffer) EntityId {
	RegisterAutoUpload[T](cmd.app)
	return cmd.AddEntity(data, UploadBuffer[T]{Buffer: buf})
}

// AttachBuffer adds data and its upload buffer to an existing entity.
func AttachBuffer[T any](cmd *Commands, eid EntityId, data T, buf *wgpu.Buffer) {
	RegisterAutoUpload[T](cmd.app)
	cmd.AddComponents(eid, data, UploadBuffer[T]{Buffer: buf})
}
