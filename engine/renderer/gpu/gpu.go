// Package gpu is the Vulkan-shaped device API the renderer is written
// against. The vulkan package implements it on top of the real driver,
// gputest implements it in memory.
package gpu

// Opaque object handles. A backend stores whatever it needs in them, the
// renderer only passes them back. The zero value is the null handle.
type (
	Surface             interface{}
	Queue               interface{}
	Swapchain           interface{}
	Image               interface{}
	ImageView           interface{}
	Sampler             interface{}
	Buffer              interface{}
	DeviceMemory        interface{}
	ShaderModule        interface{}
	RenderPass          interface{}
	Framebuffer         interface{}
	DescriptorSetLayout interface{}
	DescriptorPool      interface{}
	DescriptorSet       interface{}
	PipelineLayout      interface{}
	Pipeline            interface{}
	CommandPool         interface{}
	CommandBuffer       interface{}
	Semaphore           interface{}
	Fence               interface{}
)

// Instance is the connection to the driver together with the presentation
// surface of the window it was created for.
type Instance interface {
	PhysicalDevices() ([]PhysicalDevice, error)
	Surface() Surface
	// Destroy releases the surface, any debug messenger and the instance.
	Destroy()
}

// PhysicalDevice answers capability queries. Values returned by it do not
// change during a session except for the surface queries.
type PhysicalDevice interface {
	Properties() PhysicalDeviceProperties
	Features() PhysicalDeviceFeatures
	QueueFamilies() []QueueFamily
	Extensions() ([]string, error)
	MemoryProperties() MemoryProperties
	FormatProperties(format Format) FormatProperties

	SurfaceSupport(family uint32, surface Surface) (bool, error)
	SurfaceCapabilities(surface Surface) (SurfaceCapabilities, error)
	SurfaceFormats(surface Surface) ([]SurfaceFormat, error)
	PresentModes(surface Surface) ([]PresentMode, error)

	CreateDevice(info DeviceCreateInfo) (Device, error)
}

// Device is a logical device. Every object it creates must be destroyed
// through it before Destroy is called.
type Device interface {
	Queue(family, index uint32) Queue
	QueueSubmit(queue Queue, submits []SubmitInfo, fence Fence) error
	QueuePresent(queue Queue, info PresentInfo) Result
	QueueWaitIdle(queue Queue) error
	WaitIdle() error

	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
	SwapchainImages(swapchain Swapchain) ([]Image, error)
	// AcquireNextImage returns Success, Suboptimal or an error Result; the
	// index is only valid for the first two.
	AcquireNextImage(swapchain Swapchain, timeout uint64, semaphore Semaphore, fence Fence) (uint32, Result)
	DestroySwapchain(swapchain Swapchain)

	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(semaphore Semaphore)
	CreateFence(signaled bool) (Fence, error)
	WaitForFence(fence Fence, timeout uint64) error
	ResetFence(fence Fence) error
	DestroyFence(fence Fence)

	CreateBuffer(info BufferCreateInfo) (Buffer, error)
	BufferMemoryRequirements(buffer Buffer) MemoryRequirements
	BindBufferMemory(buffer Buffer, memory DeviceMemory, offset uint64) error
	DestroyBuffer(buffer Buffer)

	CreateImage(info ImageCreateInfo) (Image, error)
	ImageMemoryRequirements(image Image) MemoryRequirements
	BindImageMemory(image Image, memory DeviceMemory, offset uint64) error
	DestroyImage(image Image)
	CreateImageView(info ImageViewCreateInfo) (ImageView, error)
	DestroyImageView(view ImageView)
	CreateSampler(info SamplerCreateInfo) (Sampler, error)
	DestroySampler(sampler Sampler)

	AllocateMemory(size uint64, memoryTypeIndex uint32) (DeviceMemory, error)
	// MapMemory exposes size bytes of host-visible memory starting at
	// offset. The slice is invalid after UnmapMemory.
	MapMemory(memory DeviceMemory, offset, size uint64) ([]byte, error)
	UnmapMemory(memory DeviceMemory)
	FreeMemory(memory DeviceMemory)

	CreateShaderModule(code []uint32) (ShaderModule, error)
	DestroyShaderModule(module ShaderModule)
	CreateRenderPass(info RenderPassCreateInfo) (RenderPass, error)
	DestroyRenderPass(renderPass RenderPass)
	CreateFramebuffer(info FramebufferCreateInfo) (Framebuffer, error)
	DestroyFramebuffer(framebuffer Framebuffer)

	CreateDescriptorSetLayout(bindings []DescriptorSetLayoutBinding) (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(layout DescriptorSetLayout)
	CreateDescriptorPool(maxSets uint32, sizes []DescriptorPoolSize) (DescriptorPool, error)
	// DestroyDescriptorPool also releases every set allocated from the pool.
	DestroyDescriptorPool(pool DescriptorPool)
	AllocateDescriptorSets(pool DescriptorPool, layouts []DescriptorSetLayout) ([]DescriptorSet, error)
	UpdateDescriptorSets(writes []WriteDescriptorSet)

	CreatePipelineLayout(setLayouts []DescriptorSetLayout) (PipelineLayout, error)
	DestroyPipelineLayout(layout PipelineLayout)
	CreateGraphicsPipeline(info GraphicsPipelineCreateInfo) (Pipeline, error)
	DestroyPipeline(pipeline Pipeline)

	CreateCommandPool(queueFamily uint32) (CommandPool, error)
	DestroyCommandPool(pool CommandPool)
	AllocateCommandBuffers(pool CommandPool, count uint32) ([]CommandBuffer, error)
	FreeCommandBuffers(pool CommandPool, buffers []CommandBuffer)
	BeginCommandBuffer(cb CommandBuffer, oneTimeSubmit bool) error
	EndCommandBuffer(cb CommandBuffer) error
	ResetCommandBuffer(cb CommandBuffer) error

	CmdBeginRenderPass(cb CommandBuffer, info RenderPassBeginInfo)
	CmdEndRenderPass(cb CommandBuffer)
	CmdSetViewport(cb CommandBuffer, viewport Viewport)
	CmdSetScissor(cb CommandBuffer, scissor Rect2D)
	CmdBindPipeline(cb CommandBuffer, pipeline Pipeline)
	CmdBindVertexBuffer(cb CommandBuffer, buffer Buffer, offset uint64)
	CmdBindIndexBuffer(cb CommandBuffer, buffer Buffer, offset uint64, indexType IndexType)
	CmdBindDescriptorSet(cb CommandBuffer, layout PipelineLayout, set DescriptorSet)
	CmdDrawIndexed(cb CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	CmdCopyBuffer(cb CommandBuffer, src, dst Buffer, size uint64)
	CmdCopyBufferToImage(cb CommandBuffer, src Buffer, dst Image, layout ImageLayout, width, height uint32)
	CmdPipelineBarrier(cb CommandBuffer, srcStage, dstStage PipelineStageFlags, barrier ImageMemoryBarrier)

	Destroy()
}

// InfiniteTimeout blocks a wait until the object signals.
const InfiniteTimeout = ^uint64(0)

// MaxUint32 is the surface extent value meaning "the swapchain decides".
const MaxUint32 = ^uint32(0)
