package renderer

import (
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

// RenderableSet groups the meshes drawn with one pipeline. The pipeline is
// built once and survives swapchain rebuilds, the per-image resources of
// every mesh follow the swapchain.
type RenderableSet struct {
	Name     string
	Config   PipelineConfig
	Pipeline *Pipeline
	Objects  []*Mesh
}

func NewRenderableSet(name string, cfg PipelineConfig) *RenderableSet {
	return &RenderableSet{Name: name, Config: cfg}
}

func (s *RenderableSet) Layout() VertexLayout {
	return s.Config.Layout
}

func (s *RenderableSet) Add(meshes ...*Mesh) {
	s.Objects = append(s.Objects, meshes...)
}

func (s *RenderableSet) buildPipeline(device *LogicalDevice, renderPass *RenderPass, extent gpu.Extent2D) error {
	p, err := NewPipeline(device, renderPass, extent, s.Config)
	if err != nil {
		return errors.Wrapf(err, "renderable set '%s'", s.Name)
	}
	s.Pipeline = p
	return nil
}

func (s *RenderableSet) upload(alloc *Allocator) error {
	for _, m := range s.Objects {
		if m.VertexBuffer != nil {
			continue
		}
		if err := m.Upload(alloc); err != nil {
			return err
		}
	}
	return nil
}

func (s *RenderableSet) createImageResources(alloc *Allocator, imageCount int) error {
	for i, m := range s.Objects {
		if err := m.CreateImageResources(alloc, s.Pipeline, imageCount); err != nil {
			for _, done := range s.Objects[:i] {
				done.ReleaseImageResources()
			}
			return err
		}
	}
	return nil
}

func (s *RenderableSet) releaseImageResources() {
	for _, m := range s.Objects {
		m.ReleaseImageResources()
	}
}

func (s *RenderableSet) updateUniforms(image int, scene *SceneUniforms) error {
	for _, m := range s.Objects {
		if err := m.UpdateUniforms(image, scene); err != nil {
			return err
		}
	}
	return nil
}

func (s *RenderableSet) record(dev gpu.Device, cb gpu.CommandBuffer, extent gpu.Extent2D, image int) {
	if len(s.Objects) == 0 {
		return
	}
	s.Pipeline.Bind(cb, extent)
	for _, m := range s.Objects {
		m.Draw(dev, cb, s.Pipeline, image)
	}
}

// Destroy releases the meshes, then the pipeline.
func (s *RenderableSet) Destroy() {
	for i := len(s.Objects) - 1; i >= 0; i-- {
		s.Objects[i].Destroy()
	}
	s.Objects = nil
	if s.Pipeline != nil {
		s.Pipeline.Destroy()
		s.Pipeline = nil
	}
}
