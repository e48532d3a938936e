package shader

import (
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/gekko3d/pbrtracer/assets"
	"github.com/gekko3d/pbrtracer/gpu"
)

// CompiledShader is a shader module together with the bindings of the
// resources its source declares. Every build gets a new ID.
type CompiledShader struct {
	ID       uuid.UUID
	Label    string
	Source   string
	Module   *wgpu.ShaderModule
	Bindings []*gpu.Binding
	Elapsed  time.Duration
}

// Build composes the builder (see BuildSource) and compiles the result into a
// shader module on g. Resources are visible to stages. The builder is left empty.
func (b *Builder) Build(g *gpu.GPU, label string, a assets.Assets, stages wgpu.ShaderStage, start uint32) (*CompiledShader, error) {
	began := time.Now()
	validate := b.validate

	comp, err := b.BuildSource(DeviceBinder(g, stages), a, start)
	if err != nil {
		return nil, err
	}
	if validate {
		if err := Validate(comp.Source); err != nil {
			for _, binding := range comp.Bindings {
				binding.Release()
			}
			return nil, err
		}
	}

	id := uuid.New()
	module, err := g.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          ModuleLabel(label, id),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: comp.Source},
	})
	if err != nil {
		for _, binding := range comp.Bindings {
			binding.Release()
		}
		return nil, fmt.Errorf("couldn't create shader module %q: %w", label, err)
	}

	return &CompiledShader{
		ID:       id,
		Label:    label,
		Source:   comp.Source,
		Module:   module,
		Bindings: comp.Bindings,
		Elapsed:  time.Since(began),
	}, nil
}

// ModuleLabel is the label of the shader module built as id, so that modules
// rebuilt from the same builder can be told apart in driver messages.
func ModuleLabel(label string, id uuid.UUID) string {
	return fmt.Sprintf("%s %s", label, id)
}

// String names the shader by label and ID, e.g. in logs.
func (c *CompiledShader) String() string {
	return ModuleLabel(c.Label, c.ID)
}

// Layouts returns the bind group layouts of the shader's resources in group order.
func (c *CompiledShader) Layouts() []*wgpu.BindGroupLayout {
	layouts := make([]*wgpu.BindGroupLayout, len(c.Bindings))
	for i, b := range c.Bindings {
		layouts[i] = b.Layout
	}
	return layouts
}

// BindGroups returns the bind groups of the shader's resources in group order.
func (c *CompiledShader) BindGroups() []*wgpu.BindGroup {
	groups := make([]*wgpu.BindGroup, len(c.Bindings))
	for i, b := range c.Bindings {
		groups[i] = b.BindGroup
	}
	return groups
}

// BindGroupSetter is implemented by compute and render pass encoders.
type BindGroupSetter interface {
	SetBindGroup(groupIndex uint32, group *wgpu.BindGroup, dynamicOffsets []uint32)
}

// Apply sets every bind group of the shader on pass at its group index.
func (c *CompiledShader) Apply(pass BindGroupSetter) {
	for _, b := range c.Bindings {
		pass.SetBindGroup(b.Group, b.BindGroup, nil)
	}
}

func (c *CompiledShader) Release() {
	for _, b := range c.Bindings {
		b.Release()
	}
	if c.Module != nil {
		c.Module.Release()
	}
}
