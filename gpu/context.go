// Package gpu wraps the webgpu device handles and describes GPU resources
// declaratively so that shader source and bind groups are derived from one place.
package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPU bundles the handles every resource creation needs.
type GPU struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
}

// New requests a high performance adapter able to present to surface and
// opens a device on it. surface may be nil for offscreen use.
func New(instance *wgpu.Instance, surface *wgpu.Surface) (*GPU, error) {
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't request compatible adapter: %w", err)
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		adapter.Release()
		return nil, fmt.Errorf("couldn't request device: %w", err)
	}

	return &GPU{
		Instance: instance,
		Adapter:  adapter,
		Device:   device,
		Queue:    device.GetQueue(),
	}, nil
}

// WriteBuffer uploads data at the start of buf.
func (g *GPU) WriteBuffer(buf *wgpu.Buffer, data []byte) error {
	return g.Queue.WriteBuffer(buf, 0, data)
}

func (g *GPU) Release() {
	g.Queue.Release()
	g.Device.Release()
	g.Adapter.Release()
	g.Instance.Release()
}
