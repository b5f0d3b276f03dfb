package renderer

import (
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

// VertexLayout selects the vertex attributes a pipeline reads and the
// descriptor bindings its shaders expect.
type VertexLayout int

const (
	// VertexPosColor reads position and color, binds the transform block.
	VertexPosColor VertexLayout = iota
	// VertexPosColorTex adds texture coordinates and a sampled texture.
	VertexPosColorTex
	// VertexPosColorTexNormal adds normals and a directional light block.
	VertexPosColorTexNormal
)

func (l VertexLayout) String() string {
	switch l {
	case VertexPosColor:
		return "pos-color"
	case VertexPosColorTex:
		return "pos-color-tex"
	case VertexPosColorTexNormal:
		return "pos-color-tex-normal"
	}
	return "unknown"
}

func (l VertexLayout) Textured() bool {
	return l == VertexPosColorTex || l == VertexPosColorTexNormal
}

func (l VertexLayout) Lit() bool {
	return l == VertexPosColorTexNormal
}

// Binding slots of the descriptor set.
const (
	BindingTransform uint32 = 0
)

// LightBinding returns the binding of the light block, ok is false when the
// layout has none.
func (l VertexLayout) LightBinding() (uint32, bool) {
	if l.Lit() {
		return 1, true
	}
	return 0, false
}

// SamplerBinding returns the binding of the texture sampler, ok is false
// when the layout samples no texture.
func (l VertexLayout) SamplerBinding() (uint32, bool) {
	switch l {
	case VertexPosColorTex:
		return 1, true
	case VertexPosColorTexNormal:
		return 2, true
	}
	return 0, false
}

// Attributes lists the vertex attributes read from metadata.Vertex.
func (l VertexLayout) Attributes() []gpu.VertexAttribute {
	attrs := []gpu.VertexAttribute{
		{Location: 0, Format: gpu.FormatR32G32B32Sfloat, Offset: metadata.VertexOffsetPos},
		{Location: 1, Format: gpu.FormatR32G32B32Sfloat, Offset: metadata.VertexOffsetColor},
	}
	if l.Textured() {
		attrs = append(attrs, gpu.VertexAttribute{Location: 2, Format: gpu.FormatR32G32Sfloat, Offset: metadata.VertexOffsetTexCoord})
	}
	if l.Lit() {
		attrs = append(attrs, gpu.VertexAttribute{Location: 3, Format: gpu.FormatR32G32B32Sfloat, Offset: metadata.VertexOffsetNormal})
	}
	return attrs
}

func (l VertexLayout) DescriptorBindings() []gpu.DescriptorSetLayoutBinding {
	bindings := []gpu.DescriptorSetLayoutBinding{
		{Binding: BindingTransform, Type: gpu.DescriptorTypeUniformBuffer, Count: 1, Stages: gpu.ShaderStageVertex},
	}
	if b, ok := l.LightBinding(); ok {
		bindings = append(bindings, gpu.DescriptorSetLayoutBinding{
			Binding: b, Type: gpu.DescriptorTypeUniformBuffer, Count: 1, Stages: gpu.ShaderStageFragment,
		})
	}
	if b, ok := l.SamplerBinding(); ok {
		bindings = append(bindings, gpu.DescriptorSetLayoutBinding{
			Binding: b, Type: gpu.DescriptorTypeCombinedImageSampler, Count: 1, Stages: gpu.ShaderStageFragment,
		})
	}
	return bindings
}

// PoolSizes returns the descriptor counts needed for sets of this layout.
func (l VertexLayout) PoolSizes(sets uint32) []gpu.DescriptorPoolSize {
	counts := map[gpu.DescriptorType]uint32{}
	var order []gpu.DescriptorType
	for _, b := range l.DescriptorBindings() {
		if _, ok := counts[b.Type]; !ok {
			order = append(order, b.Type)
		}
		counts[b.Type] += b.Count * sets
	}
	sizes := make([]gpu.DescriptorPoolSize, 0, len(order))
	for _, t := range order {
		sizes = append(sizes, gpu.DescriptorPoolSize{Type: t, Count: counts[t]})
	}
	return sizes
}

type PipelineConfig struct {
	Layout VertexLayout
	// SPIR-V words of both stages, entry point "main".
	VertexShader   []uint32
	FragmentShader []uint32
	// Line polygons instead of filled ones.
	Wireframe      bool
}

// Pipeline is a graphics pipeline with its layout objects. Viewport and
// scissor are dynamic so it does not depend on the swapchain extent.
type Pipeline struct {
	device gpu.Device

	Layout              VertexLayout
	Handle              gpu.Pipeline
	PipelineLayout      gpu.PipelineLayout
	DescriptorSetLayout gpu.DescriptorSetLayout
}

func NewPipeline(device *LogicalDevice, renderPass *RenderPass, extent gpu.Extent2D, cfg PipelineConfig) (*Pipeline, error) {
	dev := device.Handle
	var td teardown
	defer td.run()

	setLayout, err := dev.CreateDescriptorSetLayout(cfg.Layout.DescriptorBindings())
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor set layout")
	}
	td.push(func() { dev.DestroyDescriptorSetLayout(setLayout) })

	pipelineLayout, err := dev.CreatePipelineLayout([]gpu.DescriptorSetLayout{setLayout})
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}
	td.push(func() { dev.DestroyPipelineLayout(pipelineLayout) })

	// Shader modules are only needed while the pipeline is created.
	vert, err := dev.CreateShaderModule(cfg.VertexShader)
	if err != nil {
		return nil, errors.Wrap(err, "create vertex shader module")
	}
	defer dev.DestroyShaderModule(vert)
	frag, err := dev.CreateShaderModule(cfg.FragmentShader)
	if err != nil {
		return nil, errors.Wrap(err, "create fragment shader module")
	}
	defer dev.DestroyShaderModule(frag)

	polygonMode := gpu.PolygonModeFill
	if cfg.Wireframe {
		polygonMode = gpu.PolygonModeLine
	}
	handle, err := dev.CreateGraphicsPipeline(gpu.GraphicsPipelineCreateInfo{
		VertexShader:     vert,
		FragmentShader:   frag,
		EntryPoint:       "main",
		VertexBindings:   []gpu.VertexBinding{{Binding: 0, Stride: metadata.VertexSize}},
		VertexAttributes: cfg.Layout.Attributes(),
		Layout:           pipelineLayout,
		RenderPass:       renderPass.Handle,
		Subpass:          0,
		Extent:           extent,
		PolygonMode:      polygonMode,
		CullMode:         gpu.CullModeBack,
		FrontFace:        gpu.FrontFaceCounterClockwise,
		DepthTest:        true,
		DepthWrite:       true,
		DepthCompare:     gpu.CompareOpLess,
	})
	if err != nil {
		core.LogError("failed to create graphics pipeline for layout %s", cfg.Layout)
		return nil, errors.Wrap(err, "create graphics pipeline")
	}

	td.disarm()
	core.LogDebug("Graphics pipeline created for layout %s.", cfg.Layout)
	return &Pipeline{
		device:              dev,
		Layout:              cfg.Layout,
		Handle:              handle,
		PipelineLayout:      pipelineLayout,
		DescriptorSetLayout: setLayout,
	}, nil
}

// Bind binds the pipeline and sets viewport and scissor to extent.
func (p *Pipeline) Bind(cb gpu.CommandBuffer, extent gpu.Extent2D) {
	p.device.CmdBindPipeline(cb, p.Handle)
	p.device.CmdSetViewport(cb, gpu.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	p.device.CmdSetScissor(cb, gpu.Rect2D{Extent: extent})
}

func (p *Pipeline) Destroy() {
	if p.Handle == nil {
		return
	}
	p.device.DestroyPipeline(p.Handle)
	p.device.DestroyPipelineLayout(p.PipelineLayout)
	p.device.DestroyDescriptorSetLayout(p.DescriptorSetLayout)
	p.Handle = nil
}
