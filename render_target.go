package pbrtracer

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/pbrtracer/gpu"
)

// RenderTarget is the window surface plus the per-frame state of the render
// pass chain: the acquired texture and the command buffers queued by inner passes.
type RenderTarget struct {
	Surface     *wgpu.Surface
	Config      wgpu.SurfaceConfiguration
	PresentMode wgpu.PresentMode

	CurrentTexture *wgpu.Texture
	CurrentView    *wgpu.TextureView
	CommandQueue   []*wgpu.CommandBuffer

	adapter     *wgpu.Adapter
	device      *wgpu.Device
	acquireWarn logThrottle
}

// PresentModePreference returns the present modes to try, in order, for a
// configured name. The empty name prefers Mailbox.
func PresentModePreference(name string) ([]wgpu.PresentMode, error) {
	switch strings.ToLower(name) {
	case "", "mailbox":
		return []wgpu.PresentMode{wgpu.PresentModeMailbox, wgpu.PresentModeImmediate, wgpu.PresentModeFifo}, nil
	case "immediate":
		return []wgpu.PresentMode{wgpu.PresentModeImmediate, wgpu.PresentModeMailbox, wgpu.PresentModeFifo}, nil
	case "fifo":
		return []wgpu.PresentMode{wgpu.PresentModeFifo}, nil
	}
	return nil, fmt.Errorf("unknown present mode %q", name)
}

// choosePresentMode picks the first preferred mode the surface supports.
// Fifo is always supported, so it is the fallback.
func choosePresentMode(preference, available []wgpu.PresentMode) wgpu.PresentMode {
	for _, mode := range preference {
		if slices.Contains(available, mode) {
			return mode
		}
	}
	return wgpu.PresentModeFifo
}

// chooseSurfaceFormat prefers an sRGB format so that the hardware applies
// gamma on write.
func chooseSurfaceFormat(available []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, format := range available {
		if format == wgpu.TextureFormatBGRA8UnormSrgb || format == wgpu.TextureFormatRGBA8UnormSrgb {
			return format
		}
	}
	return available[0]
}

func newRenderTarget(g *gpu.GPU, surface *wgpu.Surface, size ScreenSize, preference []wgpu.PresentMode) *RenderTarget {
	caps := surface.GetCapabilities(g.Adapter)
	if len(caps.Formats) == 0 {
		panic("surface is not compatible with the adapter")
	}

	rt := &RenderTarget{
		Surface: surface,
		Config: wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      chooseSurfaceFormat(caps.Formats),
			Width:       size.W,
			Height:      size.H,
			PresentMode: choosePresentMode(preference, caps.PresentModes),
			AlphaMode:   caps.AlphaModes[0],
		},
		adapter:     g.Adapter,
		device:      g.Device,
		acquireWarn: logThrottle{interval: time.Second},
	}
	rt.PresentMode = rt.Config.PresentMode
	rt.Surface.Configure(rt.adapter, rt.device, &rt.Config)
	return rt
}

func (rt *RenderTarget) Size() ScreenSize {
	return ScreenSize{W: rt.Config.Width, H: rt.Config.Height}
}

func (rt *RenderTarget) Format() wgpu.TextureFormat {
	return rt.Config.Format
}

// Resize reconfigures the surface. Empty sizes are ignored.
func (rt *RenderTarget) Resize(size ScreenSize) {
	if size.W == 0 || size.H == 0 {
		return
	}
	rt.Config.Width = size.W
	rt.Config.Height = size.H
	rt.Surface.Configure(rt.adapter, rt.device, &rt.Config)
}

// Push queues a command buffer for submission at the end of the frame.
func (rt *RenderTarget) Push(cmd *wgpu.CommandBuffer) {
	rt.CommandQueue = append(rt.CommandQueue, cmd)
}

// Valid reports whether a surface texture was acquired for this frame. Inner
// passes are skipped otherwise.
func (rt *RenderTarget) Valid() bool {
	return rt.CurrentView != nil
}

func (rt *RenderTarget) acquire(logger Logger) {
	tex, err := rt.Surface.GetCurrentTexture()
	if err != nil {
		if rt.acquireWarn.allow(time.Now()) {
			logger.Warnf("Couldn't acquire surface texture, skipping frame: %v", err)
		}
		return
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		if rt.acquireWarn.allow(time.Now()) {
			logger.Warnf("Couldn't create surface texture view, skipping frame: %v", err)
		}
		return
	}
	rt.CurrentTexture = tex
	rt.CurrentView = view
}

func (rt *RenderTarget) releaseFrame() {
	if rt.CurrentView != nil {
		rt.CurrentView.Release()
		rt.CurrentView = nil
	}
	if rt.CurrentTexture != nil {
		rt.CurrentTexture.Release()
		rt.CurrentTexture = nil
	}
}

func (rt *RenderTarget) Release() {
	rt.releaseFrame()
	rt.Surface.Release()
}
