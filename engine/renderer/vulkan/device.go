package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

var (
	_ gpu.Instance       = (*Instance)(nil)
	_ gpu.PhysicalDevice = (*PhysicalDevice)(nil)
	_ gpu.Device         = (*Device)(nil)
)

/**
 * @brief A logical Vulkan device. Implements gpu.Device.
 */
type Device struct {
	Handle vk.Device
	queues *queueLocks
}

func (d *Device) Queue(family, index uint32) gpu.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(d.Handle, family, index, &queue)
	return queue
}

func (d *Device) QueueSubmit(queue gpu.Queue, submits []gpu.SubmitInfo, fence gpu.Fence) error {
	infos := make([]vk.SubmitInfo, len(submits))
	for i, s := range submits {
		stages := make([]vk.PipelineStageFlags, len(s.WaitStages))
		for j, stage := range s.WaitStages {
			stages[j] = vk.PipelineStageFlags(stage)
		}
		infos[i] = vk.SubmitInfo{
			SType:                vk.StructureTypeSubmitInfo,
			WaitSemaphoreCount:   uint32(len(s.WaitSemaphores)),
			PWaitSemaphores:      handles[vk.Semaphore](s.WaitSemaphores),
			PWaitDstStageMask:    stages,
			CommandBufferCount:   uint32(len(s.CommandBuffers)),
			PCommandBuffers:      handles[vk.CommandBuffer](s.CommandBuffers),
			SignalSemaphoreCount: uint32(len(s.SignalSemaphores)),
			PSignalSemaphores:    handles[vk.Semaphore](s.SignalSemaphores),
		}
	}
	q := handle[vk.Queue](queue)
	result := d.queues.safeCall(q, func() vk.Result {
		return vk.QueueSubmit(q, uint32(len(infos)), infos, handle[vk.Fence](fence))
	})
	return check("vkQueueSubmit", result)
}

func (d *Device) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) gpu.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(info.WaitSemaphores)),
		PWaitSemaphores:    handles[vk.Semaphore](info.WaitSemaphores),
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{handle[vk.Swapchain](info.Swapchain)},
		PImageIndices:      []uint32{info.ImageIndex},
	}
	q := handle[vk.Queue](queue)
	return gpu.Result(d.queues.safeCall(q, func() vk.Result {
		return vk.QueuePresent(q, &presentInfo)
	}))
}

func (d *Device) QueueWaitIdle(queue gpu.Queue) error {
	q := handle[vk.Queue](queue)
	return check("vkQueueWaitIdle", d.queues.safeCall(q, func() vk.Result {
		return vk.QueueWaitIdle(q)
	}))
}

func (d *Device) WaitIdle() error {
	return check("vkDeviceWaitIdle", vk.DeviceWaitIdle(d.Handle))
}

func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          handle[vk.Surface](info.Surface),
		MinImageCount:    info.MinImageCount,
		ImageFormat:      vk.Format(info.Format),
		ImageColorSpace:  vk.ColorSpace(info.ColorSpace),
		ImageExtent:      vk.Extent2D{Width: info.Extent.Width, Height: info.Extent.Height},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(info.ImageUsage),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     handle[vk.Swapchain](info.OldSwapchain),
	}
	if len(info.QueueFamilies) > 1 {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = uint32(len(info.QueueFamilies))
		createInfo.PQueueFamilyIndices = info.QueueFamilies
	}

	var swapchain vk.Swapchain
	if err := check("vkCreateSwapchainKHR", vk.CreateSwapchain(d.Handle, &createInfo, nil, &swapchain)); err != nil {
		return nil, err
	}
	return swapchain, nil
}

func (d *Device) SwapchainImages(swapchain gpu.Swapchain) ([]gpu.Image, error) {
	sc := handle[vk.Swapchain](swapchain)
	var count uint32
	if err := check("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(d.Handle, sc, &count, nil)); err != nil {
		return nil, err
	}
	images := make([]vk.Image, count)
	if err := check("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(d.Handle, sc, &count, images)); err != nil {
		return nil, err
	}
	out := make([]gpu.Image, count)
	for i := range out {
		out[i] = images[i]
	}
	return out, nil
}

func (d *Device) AcquireNextImage(swapchain gpu.Swapchain, timeout uint64, semaphore gpu.Semaphore, fence gpu.Fence) (uint32, gpu.Result) {
	var index uint32
	result := vk.AcquireNextImage(d.Handle, handle[vk.Swapchain](swapchain), timeout, handle[vk.Semaphore](semaphore), handle[vk.Fence](fence), &index)
	return index, gpu.Result(result)
}

func (d *Device) DestroySwapchain(swapchain gpu.Swapchain) {
	vk.DestroySwapchain(d.Handle, handle[vk.Swapchain](swapchain), nil)
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	createInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := check("vkCreateSemaphore", vk.CreateSemaphore(d.Handle, &createInfo, nil, &semaphore)); err != nil {
		return nil, err
	}
	return semaphore, nil
}

func (d *Device) DestroySemaphore(semaphore gpu.Semaphore) {
	vk.DestroySemaphore(d.Handle, handle[vk.Semaphore](semaphore), nil)
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	createInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		createInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := check("vkCreateFence", vk.CreateFence(d.Handle, &createInfo, nil, &fence)); err != nil {
		return nil, err
	}
	return fence, nil
}

func (d *Device) WaitForFence(fence gpu.Fence, timeout uint64) error {
	result := vk.WaitForFences(d.Handle, 1, []vk.Fence{handle[vk.Fence](fence)}, vk.True, timeout)
	if result == vk.Timeout {
		core.LogWarn("vk_fence_wait - Timed out")
	}
	return check("vkWaitForFences", result)
}

func (d *Device) ResetFence(fence gpu.Fence) error {
	return check("vkResetFences", vk.ResetFences(d.Handle, 1, []vk.Fence{handle[vk.Fence](fence)}))
}

func (d *Device) DestroyFence(fence gpu.Fence) {
	vk.DestroyFence(d.Handle, handle[vk.Fence](fence), nil)
}

func (d *Device) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(info.Size),
		Usage:       vk.BufferUsageFlags(info.Usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if err := check("vkCreateBuffer", vk.CreateBuffer(d.Handle, &createInfo, nil, &buffer)); err != nil {
		return nil, err
	}
	return buffer, nil
}

func (d *Device) BufferMemoryRequirements(buffer gpu.Buffer) gpu.MemoryRequirements {
	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.Handle, handle[vk.Buffer](buffer), &requirements)
	return memoryRequirements(requirements)
}

func memoryRequirements(r vk.MemoryRequirements) gpu.MemoryRequirements {
	r.Deref()
	return gpu.MemoryRequirements{
		Size:           uint64(r.Size),
		Alignment:      uint64(r.Alignment),
		MemoryTypeBits: r.MemoryTypeBits,
	}
}

func (d *Device) BindBufferMemory(buffer gpu.Buffer, memory gpu.DeviceMemory, offset uint64) error {
	return check("vkBindBufferMemory", vk.BindBufferMemory(d.Handle, handle[vk.Buffer](buffer), handle[vk.DeviceMemory](memory), vk.DeviceSize(offset)))
}

func (d *Device) DestroyBuffer(buffer gpu.Buffer) {
	vk.DestroyBuffer(d.Handle, handle[vk.Buffer](buffer), nil)
}

func (d *Device) CreateImage(info gpu.ImageCreateInfo) (gpu.Image, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  info.Width,
			Height: info.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        vk.Format(info.Format),
		Tiling:        vk.ImageTiling(info.Tiling),
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vk.ImageUsageFlags(info.Usage),
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}
	var image vk.Image
	if err := check("vkCreateImage", vk.CreateImage(d.Handle, &createInfo, nil, &image)); err != nil {
		return nil, err
	}
	return image, nil
}

func (d *Device) ImageMemoryRequirements(image gpu.Image) gpu.MemoryRequirements {
	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.Handle, handle[vk.Image](image), &requirements)
	return memoryRequirements(requirements)
}

func (d *Device) BindImageMemory(image gpu.Image, memory gpu.DeviceMemory, offset uint64) error {
	return check("vkBindImageMemory", vk.BindImageMemory(d.Handle, handle[vk.Image](image), handle[vk.DeviceMemory](memory), vk.DeviceSize(offset)))
}

func (d *Device) DestroyImage(image gpu.Image) {
	vk.DestroyImage(d.Handle, handle[vk.Image](image), nil)
}

func subresourceRange(aspect gpu.ImageAspectFlags) vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(aspect),
		BaseMipLevel:   0,
		LevelCount:     1,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
}

func (d *Device) CreateImageView(info gpu.ImageViewCreateInfo) (gpu.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:            vk.StructureTypeImageViewCreateInfo,
		Image:            handle[vk.Image](info.Image),
		ViewType:         vk.ImageViewType2d,
		Format:           vk.Format(info.Format),
		SubresourceRange: subresourceRange(info.Aspect),
	}
	var view vk.ImageView
	if err := check("vkCreateImageView", vk.CreateImageView(d.Handle, &viewInfo, nil, &view)); err != nil {
		return nil, err
	}
	return view, nil
}

func (d *Device) DestroyImageView(view gpu.ImageView) {
	vk.DestroyImageView(d.Handle, handle[vk.ImageView](view), nil)
}

func (d *Device) CreateSampler(info gpu.SamplerCreateInfo) (gpu.Sampler, error) {
	addressMode := vk.SamplerAddressMode(info.AddressMode)
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.Filter(info.MagFilter),
		MinFilter:               vk.Filter(info.MinFilter),
		MipmapMode:              vk.SamplerMipmapMode(info.MipmapMode),
		AddressModeU:            addressMode,
		AddressModeV:            addressMode,
		AddressModeW:            addressMode,
		MipLodBias:              0.0,
		AnisotropyEnable:        boolean(info.AnisotropyEnable),
		MaxAnisotropy:           info.MaxAnisotropy,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  0.0,
		MaxLod:                  0.0,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}
	var sampler vk.Sampler
	if err := check("vkCreateSampler", vk.CreateSampler(d.Handle, &samplerInfo, nil, &sampler)); err != nil {
		return nil, err
	}
	return sampler, nil
}

func (d *Device) DestroySampler(sampler gpu.Sampler) {
	vk.DestroySampler(d.Handle, handle[vk.Sampler](sampler), nil)
}

func (d *Device) AllocateMemory(size uint64, memoryTypeIndex uint32) (gpu.DeviceMemory, error) {
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: memoryTypeIndex,
	}
	var memory vk.DeviceMemory
	if err := check("vkAllocateMemory", vk.AllocateMemory(d.Handle, &allocateInfo, nil, &memory)); err != nil {
		return nil, err
	}
	return memory, nil
}

func (d *Device) MapMemory(memory gpu.DeviceMemory, offset, size uint64) ([]byte, error) {
	var data unsafe.Pointer
	if err := check("vkMapMemory", vk.MapMemory(d.Handle, handle[vk.DeviceMemory](memory), vk.DeviceSize(offset), vk.DeviceSize(size), 0, &data)); err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(data), size), nil
}

func (d *Device) UnmapMemory(memory gpu.DeviceMemory) {
	vk.UnmapMemory(d.Handle, handle[vk.DeviceMemory](memory))
}

func (d *Device) FreeMemory(memory gpu.DeviceMemory) {
	vk.FreeMemory(d.Handle, handle[vk.DeviceMemory](memory), nil)
}

func (d *Device) Destroy() {
	if d.Handle != nil {
		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(d.Handle, nil)
		d.Handle = nil
	}
}
