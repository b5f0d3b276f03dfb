package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/math"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

// SceneUniforms holds the per-frame values shared by every object.
type SceneUniforms struct {
	View  mgl32.Mat4
	Proj  mgl32.Mat4
	Light metadata.LightUniformObject
}

// Mesh is a drawable object: geometry in device-local buffers, a model
// transform and, per swapchain image, a transform uniform buffer (plus a
// light uniform buffer for lit layouts) and the descriptor set binding them.
type Mesh struct {
	device gpu.Device

	ID        uuid.UUID
	Name      string
	Vertices  []metadata.Vertex
	Indices   []uint32
	Transform *math.Transform

	Texture     *Texture
	ownsTexture bool

	VertexBuffer *GpuBuffer
	IndexBuffer  *GpuBuffer

	uniforms       []*GpuBuffer
	lightUniforms  []*GpuBuffer
	descriptorPool gpu.DescriptorPool
	descriptorSets []gpu.DescriptorSet
}

func NewMesh(name string, data *metadata.MeshData) (*Mesh, error) {
	if data == nil || len(data.Vertices) == 0 || len(data.Indices) == 0 {
		return nil, errors.Wrapf(ErrEmptyMesh, "mesh '%s'", name)
	}
	return &Mesh{
		ID:        uuid.New(),
		Name:      name,
		Vertices:  data.Vertices,
		Indices:   data.Indices,
		Transform: math.NewTransform(),
	}, nil
}

// SetTexture attaches a texture. An owned texture is destroyed with the mesh,
// a shared one must outlive it.
func (m *Mesh) SetTexture(t *Texture, owned bool) {
	m.Texture = t
	m.ownsTexture = owned
}

func (m *Mesh) Translate(v mgl32.Vec3) {
	m.Transform.Translate(v)
}

// Rotate rotates by angle radians around axis.
func (m *Mesh) Rotate(angle float32, axis mgl32.Vec3) {
	m.Transform.Rotate(angle, axis)
}

func (m *Mesh) Scale(v mgl32.Vec3) {
	m.Transform.Scale(v)
}

// Upload copies the geometry into device-local vertex and index buffers.
func (m *Mesh) Upload(alloc *Allocator) error {
	m.device = alloc.device.Handle
	vb, err := alloc.CreateDeviceLocalBuffer(metadata.AsBytes(m.Vertices), gpu.BufferUsageVertexBuffer)
	if err != nil {
		return errors.Wrapf(err, "upload vertices of '%s'", m.Name)
	}
	ib, err := alloc.CreateDeviceLocalBuffer(metadata.AsBytes(m.Indices), gpu.BufferUsageIndexBuffer)
	if err != nil {
		vb.Destroy()
		return errors.Wrapf(err, "upload indices of '%s'", m.Name)
	}
	m.VertexBuffer = vb
	m.IndexBuffer = ib
	core.LogDebug("Mesh '%s' (%s) uploaded: %d vertices, %d indices.", m.Name, m.ID, len(m.Vertices), len(m.Indices))
	return nil
}

// CreateImageResources creates the uniform buffers, the descriptor pool and
// one descriptor set per swapchain image for the pipeline's layout.
func (m *Mesh) CreateImageResources(alloc *Allocator, pipeline *Pipeline, imageCount int) error {
	layout := pipeline.Layout
	if layout.Textured() && m.Texture == nil {
		return errors.Wrapf(ErrMissingTexture, "mesh '%s' with layout %s", m.Name, layout)
	}

	var td teardown
	defer td.run()
	td.push(m.ReleaseImageResources)

	for i := 0; i < imageCount; i++ {
		ubo, err := alloc.CreateHostBuffer(metadata.UniformBufferObjectSize, gpu.BufferUsageUniformBuffer)
		if err != nil {
			return errors.Wrap(err, "create uniform buffer")
		}
		m.uniforms = append(m.uniforms, ubo)
		if layout.Lit() {
			light, err := alloc.CreateHostBuffer(metadata.LightUniformObjectSize, gpu.BufferUsageUniformBuffer)
			if err != nil {
				return errors.Wrap(err, "create light uniform buffer")
			}
			m.lightUniforms = append(m.lightUniforms, light)
		}
	}

	dev := alloc.device.Handle
	m.device = dev
	pool, err := dev.CreateDescriptorPool(uint32(imageCount), layout.PoolSizes(uint32(imageCount)))
	if err != nil {
		return errors.Wrap(err, "create descriptor pool")
	}
	m.descriptorPool = pool

	layouts := make([]gpu.DescriptorSetLayout, imageCount)
	for i := range layouts {
		layouts[i] = pipeline.DescriptorSetLayout
	}
	sets, err := dev.AllocateDescriptorSets(pool, layouts)
	if err != nil {
		return errors.Wrap(err, "allocate descriptor sets")
	}
	m.descriptorSets = sets

	var writes []gpu.WriteDescriptorSet
	for i, set := range sets {
		writes = append(writes, gpu.WriteDescriptorSet{
			Set:     set,
			Binding: BindingTransform,
			Type:    gpu.DescriptorTypeUniformBuffer,
			Buffer:  &gpu.DescriptorBufferInfo{Buffer: m.uniforms[i].Handle, Range: metadata.UniformBufferObjectSize},
		})
		if b, ok := layout.LightBinding(); ok {
			writes = append(writes, gpu.WriteDescriptorSet{
				Set:     set,
				Binding: b,
				Type:    gpu.DescriptorTypeUniformBuffer,
				Buffer:  &gpu.DescriptorBufferInfo{Buffer: m.lightUniforms[i].Handle, Range: metadata.LightUniformObjectSize},
			})
		}
		if b, ok := layout.SamplerBinding(); ok {
			writes = append(writes, gpu.WriteDescriptorSet{
				Set:     set,
				Binding: b,
				Type:    gpu.DescriptorTypeCombinedImageSampler,
				Image: &gpu.DescriptorImageInfo{
					Sampler: m.Texture.Sampler,
					View:    m.Texture.Image.View,
					Layout:  gpu.ImageLayoutShaderReadOnlyOptimal,
				},
			})
		}
	}
	dev.UpdateDescriptorSets(writes)

	td.disarm()
	return nil
}

// ReleaseImageResources destroys everything CreateImageResources made.
func (m *Mesh) ReleaseImageResources() {
	if m.descriptorPool != nil {
		// Destroying the pool frees its sets.
		m.device.DestroyDescriptorPool(m.descriptorPool)
		m.descriptorPool = nil
	}
	m.descriptorSets = nil
	for _, b := range m.uniforms {
		b.Destroy()
	}
	m.uniforms = nil
	for _, b := range m.lightUniforms {
		b.Destroy()
	}
	m.lightUniforms = nil
}

// ImageResourceCounts returns the number of transform uniform buffers and
// descriptor sets currently held.
func (m *Mesh) ImageResourceCounts() (uniforms, sets int) {
	return len(m.uniforms), len(m.descriptorSets)
}

func (m *Mesh) DescriptorSet(image int) gpu.DescriptorSet {
	return m.descriptorSets[image]
}

// UpdateUniforms writes the transform block, and the light block when the
// layout has one, for the given swapchain image.
func (m *Mesh) UpdateUniforms(image int, scene *SceneUniforms) error {
	ubo := metadata.UniformBufferObject{
		Model: m.Transform.Matrix(),
		View:  scene.View,
		Proj:  scene.Proj,
	}
	if err := m.uniforms[image].Write(ubo.Bytes()); err != nil {
		return errors.Wrapf(err, "update uniforms of '%s'", m.Name)
	}
	if len(m.lightUniforms) > 0 {
		light := scene.Light
		if err := m.lightUniforms[image].Write(light.Bytes()); err != nil {
			return errors.Wrapf(err, "update light of '%s'", m.Name)
		}
	}
	return nil
}

// Draw records the indexed draw of the mesh using the set of image.
func (m *Mesh) Draw(dev gpu.Device, cb gpu.CommandBuffer, pipeline *Pipeline, image int) {
	dev.CmdBindVertexBuffer(cb, m.VertexBuffer.Handle, 0)
	dev.CmdBindIndexBuffer(cb, m.IndexBuffer.Handle, 0, gpu.IndexTypeUint32)
	dev.CmdBindDescriptorSet(cb, pipeline.PipelineLayout, m.descriptorSets[image])
	dev.CmdDrawIndexed(cb, uint32(len(m.Indices)), 1, 0, 0, 0)
}

func (m *Mesh) Destroy() {
	m.ReleaseImageResources()
	m.IndexBuffer.Destroy()
	m.IndexBuffer = nil
	m.VertexBuffer.Destroy()
	m.VertexBuffer = nil
	if m.ownsTexture {
		m.Texture.Destroy()
	}
	m.Texture = nil
}
