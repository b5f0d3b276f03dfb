package gpu

// Enumerations keep the numeric values of their Vulkan counterparts.

type Format uint32

const (
	FormatUndefined          Format = 0
	FormatR8G8B8A8Unorm      Format = 37
	FormatR8G8B8A8Srgb       Format = 43
	FormatB8G8R8A8Unorm      Format = 44
	FormatB8G8R8A8Srgb       Format = 50
	FormatR32G32Sfloat       Format = 103
	FormatR32G32B32Sfloat    Format = 106
	FormatR32G32B32A32Sfloat Format = 109
	FormatD16Unorm           Format = 124
	FormatD32Sfloat          Format = 126
	FormatD24UnormS8Uint     Format = 129
	FormatD32SfloatS8Uint    Format = 130
)

// HasStencil reports whether a depth format carries a stencil component.
func (f Format) HasStencil() bool {
	return f == FormatD32SfloatS8Uint || f == FormatD24UnormS8Uint
}

type ColorSpace uint32

const ColorSpaceSrgbNonlinear ColorSpace = 0

type PresentMode uint32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo-relaxed"
	}
	return "unknown"
}

type ImageLayout uint32

const (
	ImageLayoutUndefined                     ImageLayout = 0
	ImageLayoutGeneral                       ImageLayout = 1
	ImageLayoutColorAttachmentOptimal        ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal ImageLayout = 3
	ImageLayoutShaderReadOnlyOptimal         ImageLayout = 5
	ImageLayoutTransferSrcOptimal            ImageLayout = 6
	ImageLayoutTransferDstOptimal            ImageLayout = 7
	ImageLayoutPresentSrc                    ImageLayout = 1000001002
)

type ImageTiling uint32

const (
	ImageTilingOptimal ImageTiling = 0
	ImageTilingLinear  ImageTiling = 1
)

type PhysicalDeviceType uint32

const (
	PhysicalDeviceTypeOther         PhysicalDeviceType = 0
	PhysicalDeviceTypeIntegratedGpu PhysicalDeviceType = 1
	PhysicalDeviceTypeDiscreteGpu   PhysicalDeviceType = 2
	PhysicalDeviceTypeVirtualGpu    PhysicalDeviceType = 3
	PhysicalDeviceTypeCpu           PhysicalDeviceType = 4
)

func (t PhysicalDeviceType) String() string {
	switch t {
	case PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "unknown"
}

type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 0x1
	QueueCompute  QueueFlags = 0x2
	QueueTransfer QueueFlags = 0x4
)

type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal  MemoryPropertyFlags = 0x1
	MemoryPropertyHostVisible  MemoryPropertyFlags = 0x2
	MemoryPropertyHostCoherent MemoryPropertyFlags = 0x4
	MemoryPropertyHostCached   MemoryPropertyFlags = 0x8
)

type BufferUsageFlags uint32

const (
	BufferUsageTransferSrc   BufferUsageFlags = 0x1
	BufferUsageTransferDst   BufferUsageFlags = 0x2
	BufferUsageUniformBuffer BufferUsageFlags = 0x10
	BufferUsageIndexBuffer   BufferUsageFlags = 0x40
	BufferUsageVertexBuffer  BufferUsageFlags = 0x80
)

type ImageUsageFlags uint32

const (
	ImageUsageTransferSrc            ImageUsageFlags = 0x1
	ImageUsageTransferDst            ImageUsageFlags = 0x2
	ImageUsageSampled                ImageUsageFlags = 0x4
	ImageUsageColorAttachment        ImageUsageFlags = 0x10
	ImageUsageDepthStencilAttachment ImageUsageFlags = 0x20
)

type ImageAspectFlags uint32

const (
	ImageAspectColor   ImageAspectFlags = 0x1
	ImageAspectDepth   ImageAspectFlags = 0x2
	ImageAspectStencil ImageAspectFlags = 0x4
)

type FormatFeatureFlags uint32

const (
	FormatFeatureSampledImage             FormatFeatureFlags = 0x1
	FormatFeatureColorAttachment          FormatFeatureFlags = 0x80
	FormatFeatureDepthStencilAttachment   FormatFeatureFlags = 0x200
	FormatFeatureSampledImageFilterLinear FormatFeatureFlags = 0x1000
)

type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipe             PipelineStageFlags = 0x1
	PipelineStageVertexShader          PipelineStageFlags = 0x8
	PipelineStageFragmentShader        PipelineStageFlags = 0x80
	PipelineStageEarlyFragmentTests    PipelineStageFlags = 0x100
	PipelineStageColorAttachmentOutput PipelineStageFlags = 0x400
	PipelineStageTransfer              PipelineStageFlags = 0x1000
	PipelineStageBottomOfPipe          PipelineStageFlags = 0x2000
)

type AccessFlags uint32

const (
	AccessNone                        AccessFlags = 0
	AccessShaderRead                  AccessFlags = 0x20
	AccessColorAttachmentRead         AccessFlags = 0x80
	AccessColorAttachmentWrite        AccessFlags = 0x100
	AccessDepthStencilAttachmentRead  AccessFlags = 0x200
	AccessDepthStencilAttachmentWrite AccessFlags = 0x400
	AccessTransferRead                AccessFlags = 0x800
	AccessTransferWrite               AccessFlags = 0x1000
)

type DescriptorType uint32

const (
	DescriptorTypeCombinedImageSampler DescriptorType = 1
	DescriptorTypeUniformBuffer        DescriptorType = 6
)

type ShaderStageFlags uint32

const (
	ShaderStageVertex   ShaderStageFlags = 0x1
	ShaderStageFragment ShaderStageFlags = 0x10
)

type IndexType uint32

const (
	IndexTypeUint16 IndexType = 0
	IndexTypeUint32 IndexType = 1
)

type CullMode uint32

const (
	CullModeNone  CullMode = 0
	CullModeFront CullMode = 1
	CullModeBack  CullMode = 2
)

type FrontFace uint32

const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

type PolygonMode uint32

const (
	PolygonModeFill PolygonMode = 0
	PolygonModeLine PolygonMode = 1
)

type CompareOp uint32

const (
	CompareOpNever       CompareOp = 0
	CompareOpLess        CompareOp = 1
	CompareOpLessOrEqual CompareOp = 3
	CompareOpAlways      CompareOp = 7
)

type Filter uint32

const (
	FilterNearest Filter = 0
	FilterLinear  Filter = 1
)

type SamplerAddressMode uint32

const (
	SamplerAddressModeRepeat      SamplerAddressMode = 0
	SamplerAddressModeClampToEdge SamplerAddressMode = 2
)

type SamplerMipmapMode uint32

const (
	SamplerMipmapModeNearest SamplerMipmapMode = 0
	SamplerMipmapModeLinear  SamplerMipmapMode = 1
)

// Plain structures.

type Extent2D struct {
	Width  uint32
	Height uint32
}

type Offset2D struct {
	X int32
	Y int32
}

type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

type SurfaceCapabilities struct {
	MinImageCount  uint32
	MaxImageCount  uint32
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
	// CurrentTransform is passed back untouched as the swapchain pre-transform.
	CurrentTransform uint32
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     uint32
}

type MemoryHeap struct {
	Size        uint64
	DeviceLocal bool
}

type MemoryProperties struct {
	Types []MemoryType
	Heaps []MemoryHeap
}

type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

type QueueFamily struct {
	Flags QueueFlags
	Count uint32
}

type PhysicalDeviceLimits struct {
	MaxImageDimension2D  uint32
	MaxSamplerAnisotropy float32
}

type PhysicalDeviceProperties struct {
	Name          string
	Type          PhysicalDeviceType
	APIVersion    uint32
	DriverVersion uint32
	VendorID      uint32
	DeviceID      uint32
	Limits        PhysicalDeviceLimits
}

type PhysicalDeviceFeatures struct {
	SamplerAnisotropy bool
}

type FormatProperties struct {
	LinearTilingFeatures  FormatFeatureFlags
	OptimalTilingFeatures FormatFeatureFlags
}

// Creation parameters.

type DeviceCreateInfo struct {
	// QueueFamilies lists unique family indices, one queue is created per family.
	QueueFamilies     []uint32
	Extensions        []string
	SamplerAnisotropy bool
}

type SwapchainCreateInfo struct {
	Surface       Surface
	MinImageCount uint32
	Format        Format
	ColorSpace    ColorSpace
	Extent        Extent2D
	ImageUsage    ImageUsageFlags
	// Images are shared concurrently when more than one family is listed.
	QueueFamilies []uint32
	PreTransform  uint32
	PresentMode   PresentMode
	OldSwapchain  Swapchain
}

type BufferCreateInfo struct {
	Size  uint64
	Usage BufferUsageFlags
}

type ImageCreateInfo struct {
	Width  uint32
	Height uint32
	Format Format
	Tiling ImageTiling
	Usage  ImageUsageFlags
}

type ImageViewCreateInfo struct {
	Image  Image
	Format Format
	Aspect ImageAspectFlags
}

type SamplerCreateInfo struct {
	MagFilter        Filter
	MinFilter        Filter
	AddressMode      SamplerAddressMode
	AnisotropyEnable bool
	MaxAnisotropy    float32
	MipmapMode       SamplerMipmapMode
}

// RenderPassCreateInfo describes the single-subpass pass used by the
// renderer: one color attachment that ends up presentable and an optional
// depth attachment.
type RenderPassCreateInfo struct {
	ColorFormat      Format
	ColorFinalLayout ImageLayout
	DepthFormat      Format
}

type FramebufferCreateInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Width       uint32
	Height      uint32
}

type DescriptorSetLayoutBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
	Stages  ShaderStageFlags
}

type DescriptorPoolSize struct {
	Type  DescriptorType
	Count uint32
}

type DescriptorBufferInfo struct {
	Buffer Buffer
	Offset uint64
	Range  uint64
}

type DescriptorImageInfo struct {
	Sampler Sampler
	View    ImageView
	Layout  ImageLayout
}

type WriteDescriptorSet struct {
	Set     DescriptorSet
	Binding uint32
	Type    DescriptorType
	Buffer  *DescriptorBufferInfo
	Image   *DescriptorImageInfo
}

type VertexBinding struct {
	Binding uint32
	Stride  uint32
}

type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

type GraphicsPipelineCreateInfo struct {
	VertexShader     ShaderModule
	FragmentShader   ShaderModule
	EntryPoint       string
	VertexBindings   []VertexBinding
	VertexAttributes []VertexAttribute
	Layout           PipelineLayout
	RenderPass       RenderPass
	Subpass          uint32
	// Viewport and scissor are always dynamic, Extent only seeds the
	// static values the create call requires.
	Extent           Extent2D
	PolygonMode      PolygonMode
	CullMode         CullMode
	FrontFace        FrontFace
	DepthTest        bool
	DepthWrite       bool
	DepthCompare     CompareOp
}

// Queue operations and recording.

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     uint32
}

type RenderPassBeginInfo struct {
	RenderPass   RenderPass
	Framebuffer  Framebuffer
	Area         Rect2D
	ClearColor   [4]float32
	ClearDepth   float32
	ClearStencil uint32
}

type ImageMemoryBarrier struct {
	Image     Image
	OldLayout ImageLayout
	NewLayout ImageLayout
	SrcAccess AccessFlags
	DstAccess AccessFlags
	Aspect    ImageAspectFlags
}
