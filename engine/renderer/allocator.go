package renderer

import (
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

// FindMemoryType returns the lowest memory type index allowed by filter
// whose flags include every requested property.
func FindMemoryType(props gpu.MemoryProperties, filter uint32, flags gpu.MemoryPropertyFlags) (uint32, error) {
	for i, t := range props.Types {
		if i >= 32 {
			break
		}
		if filter&(1<<uint(i)) != 0 && t.PropertyFlags&flags == flags {
			return uint32(i), nil
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return 0, errors.Wrapf(ErrNoMemoryType, "filter 0b%b, flags 0x%x", filter, uint32(flags))
}

// GpuBuffer is a buffer together with the memory bound to it.
type GpuBuffer struct {
	device gpu.Device

	Handle     gpu.Buffer
	Memory     gpu.DeviceMemory
	Size       uint64
	Usage      gpu.BufferUsageFlags
	Properties gpu.MemoryPropertyFlags
}

// Write copies data to the start of a host-visible buffer.
func (b *GpuBuffer) Write(data []byte) error {
	mapped, err := b.device.MapMemory(b.Memory, 0, b.Size)
	if err != nil {
		return errors.Wrap(err, "map buffer memory")
	}
	copy(mapped, data)
	b.device.UnmapMemory(b.Memory)
	return nil
}

// Destroy is safe to call more than once.
func (b *GpuBuffer) Destroy() {
	if b == nil || b.Handle == nil {
		return
	}
	b.device.DestroyBuffer(b.Handle)
	b.device.FreeMemory(b.Memory)
	b.Handle = nil
	b.Memory = nil
}

type ImageInfo struct {
	Width      uint32
	Height     uint32
	Format     gpu.Format
	Tiling     gpu.ImageTiling
	Usage      gpu.ImageUsageFlags
	Properties gpu.MemoryPropertyFlags
	// Aspect of the view created with the image; zero skips the view.
	Aspect gpu.ImageAspectFlags
}

// GpuImage is an image, its memory and optionally a view.
type GpuImage struct {
	device gpu.Device

	Handle gpu.Image
	Memory gpu.DeviceMemory
	View   gpu.ImageView
	Format gpu.Format
	Width  uint32
	Height uint32
}

// Destroy releases the view, the image and its memory in that order. It is
// safe to call more than once.
func (i *GpuImage) Destroy() {
	if i == nil || i.Handle == nil {
		return
	}
	if i.View != nil {
		i.device.DestroyImageView(i.View)
		i.View = nil
	}
	i.device.DestroyImage(i.Handle)
	i.device.FreeMemory(i.Memory)
	i.Handle = nil
	i.Memory = nil
}

const maxSamplerAnisotropy float32 = 16

type layoutTransition struct {
	from gpu.ImageLayout
	to   gpu.ImageLayout
}

type transitionMasks struct {
	srcAccess gpu.AccessFlags
	dstAccess gpu.AccessFlags
	srcStage  gpu.PipelineStageFlags
	dstStage  gpu.PipelineStageFlags
}

var supportedTransitions = map[layoutTransition]transitionMasks{
	{gpu.ImageLayoutUndefined, gpu.ImageLayoutTransferDstOptimal}: {
		srcAccess: gpu.AccessNone,
		dstAccess: gpu.AccessTransferWrite,
		srcStage:  gpu.PipelineStageTopOfPipe,
		dstStage:  gpu.PipelineStageTransfer,
	},
	{gpu.ImageLayoutTransferDstOptimal, gpu.ImageLayoutShaderReadOnlyOptimal}: {
		srcAccess: gpu.AccessTransferWrite,
		dstAccess: gpu.AccessShaderRead,
		srcStage:  gpu.PipelineStageTransfer,
		dstStage:  gpu.PipelineStageFragmentShader,
	},
	{gpu.ImageLayoutUndefined, gpu.ImageLayoutDepthStencilAttachmentOptimal}: {
		srcAccess: gpu.AccessNone,
		dstAccess: gpu.AccessDepthStencilAttachmentRead | gpu.AccessDepthStencilAttachmentWrite,
		srcStage:  gpu.PipelineStageTopOfPipe,
		dstStage:  gpu.PipelineStageEarlyFragmentTests,
	},
}

// Allocator creates buffers and images on a logical device and uploads
// data to them through host-visible staging buffers.
type Allocator struct {
	device *LogicalDevice
}

func NewAllocator(device *LogicalDevice) *Allocator {
	return &Allocator{device: device}
}

func (a *Allocator) CreateBuffer(size uint64, usage gpu.BufferUsageFlags, properties gpu.MemoryPropertyFlags) (*GpuBuffer, error) {
	dev := a.device.Handle
	handle, err := dev.CreateBuffer(gpu.BufferCreateInfo{Size: size, Usage: usage})
	if err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}

	reqs := dev.BufferMemoryRequirements(handle)
	typeIndex, err := FindMemoryType(a.device.Physical.Memory, reqs.MemoryTypeBits, properties)
	if err != nil {
		dev.DestroyBuffer(handle)
		return nil, err
	}

	memory, err := dev.AllocateMemory(reqs.Size, typeIndex)
	if err != nil {
		dev.DestroyBuffer(handle)
		return nil, errors.Wrap(err, "allocate buffer memory")
	}
	if err := dev.BindBufferMemory(handle, memory, 0); err != nil {
		dev.DestroyBuffer(handle)
		dev.FreeMemory(memory)
		return nil, errors.Wrap(err, "bind buffer memory")
	}

	return &GpuBuffer{
		device:     dev,
		Handle:     handle,
		Memory:     memory,
		Size:       size,
		Usage:      usage,
		Properties: properties,
	}, nil
}

// CreateHostBuffer returns a host-visible, coherent buffer.
func (a *Allocator) CreateHostBuffer(size uint64, usage gpu.BufferUsageFlags) (*GpuBuffer, error) {
	return a.CreateBuffer(size, usage, gpu.MemoryPropertyHostVisible|gpu.MemoryPropertyHostCoherent)
}

// CreateDeviceLocalBuffer uploads data into a new device-local buffer with
// the given usage. The staging buffer is gone when this returns.
func (a *Allocator) CreateDeviceLocalBuffer(data []byte, usage gpu.BufferUsageFlags) (*GpuBuffer, error) {
	size := uint64(len(data))
	staging, err := a.CreateHostBuffer(size, gpu.BufferUsageTransferSrc)
	if err != nil {
		return nil, errors.Wrap(err, "create staging buffer")
	}
	defer staging.Destroy()

	if err := staging.Write(data); err != nil {
		return nil, err
	}

	buffer, err := a.CreateBuffer(size, usage|gpu.BufferUsageTransferDst, gpu.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}
	if err := a.CopyBuffer(staging, buffer, size); err != nil {
		buffer.Destroy()
		return nil, err
	}
	return buffer, nil
}

func (a *Allocator) CopyBuffer(src, dst *GpuBuffer, size uint64) error {
	return a.SingleUse(func(cb gpu.CommandBuffer) {
		a.device.Handle.CmdCopyBuffer(cb, src.Handle, dst.Handle, size)
	})
}

// SingleUse records fn into a temporary command buffer, submits it to the
// graphics queue and waits for the queue to drain.
func (a *Allocator) SingleUse(fn func(cb gpu.CommandBuffer)) error {
	dev := a.device.Handle
	buffers, err := dev.AllocateCommandBuffers(a.device.CommandPool, 1)
	if err != nil {
		return errors.Wrap(err, "allocate single use command buffer")
	}
	defer dev.FreeCommandBuffers(a.device.CommandPool, buffers)

	cb := buffers[0]
	if err := dev.BeginCommandBuffer(cb, true); err != nil {
		return errors.Wrap(err, "begin single use command buffer")
	}
	fn(cb)
	if err := dev.EndCommandBuffer(cb); err != nil {
		return errors.Wrap(err, "end single use command buffer")
	}

	submit := gpu.SubmitInfo{CommandBuffers: []gpu.CommandBuffer{cb}}
	if err := dev.QueueSubmit(a.device.GraphicsQueue, []gpu.SubmitInfo{submit}, nil); err != nil {
		return errors.Wrap(err, "submit single use command buffer")
	}
	if err := dev.QueueWaitIdle(a.device.GraphicsQueue); err != nil {
		return errors.Wrap(err, "wait for graphics queue")
	}
	return nil
}

func (a *Allocator) CreateImage(info ImageInfo) (*GpuImage, error) {
	dev := a.device.Handle
	handle, err := dev.CreateImage(gpu.ImageCreateInfo{
		Width:  info.Width,
		Height: info.Height,
		Format: info.Format,
		Tiling: info.Tiling,
		Usage:  info.Usage,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image")
	}

	reqs := dev.ImageMemoryRequirements(handle)
	typeIndex, err := FindMemoryType(a.device.Physical.Memory, reqs.MemoryTypeBits, info.Properties)
	if err != nil {
		dev.DestroyImage(handle)
		return nil, err
	}
	memory, err := dev.AllocateMemory(reqs.Size, typeIndex)
	if err != nil {
		dev.DestroyImage(handle)
		return nil, errors.Wrap(err, "allocate image memory")
	}
	if err := dev.BindImageMemory(handle, memory, 0); err != nil {
		dev.DestroyImage(handle)
		dev.FreeMemory(memory)
		return nil, errors.Wrap(err, "bind image memory")
	}

	img := &GpuImage{
		device: dev,
		Handle: handle,
		Memory: memory,
		Format: info.Format,
		Width:  info.Width,
		Height: info.Height,
	}
	if info.Aspect != 0 {
		view, err := CreateImageView(dev, handle, info.Format, info.Aspect)
		if err != nil {
			img.Destroy()
			return nil, err
		}
		img.View = view
	}
	return img, nil
}

func CreateImageView(dev gpu.Device, image gpu.Image, format gpu.Format, aspect gpu.ImageAspectFlags) (gpu.ImageView, error) {
	view, err := dev.CreateImageView(gpu.ImageViewCreateInfo{
		Image:  image,
		Format: format,
		Aspect: aspect,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image view")
	}
	return view, nil
}

// TransitionImageLayout records and submits a barrier moving image from
// one layout to the other. Unsupported pairs fail before any command
// buffer is allocated.
func (a *Allocator) TransitionImageLayout(image gpu.Image, format gpu.Format, from, to gpu.ImageLayout) error {
	masks, ok := supportedTransitions[layoutTransition{from, to}]
	if !ok {
		return errors.Wrapf(ErrUnsupportedTransition, "%d -> %d", from, to)
	}

	aspect := gpu.ImageAspectColor
	if to == gpu.ImageLayoutDepthStencilAttachmentOptimal {
		aspect = gpu.ImageAspectDepth
		if format.HasStencil() {
			aspect |= gpu.ImageAspectStencil
		}
	}

	return a.SingleUse(func(cb gpu.CommandBuffer) {
		a.device.Handle.CmdPipelineBarrier(cb, masks.srcStage, masks.dstStage, gpu.ImageMemoryBarrier{
			Image:     image,
			OldLayout: from,
			NewLayout: to,
			SrcAccess: masks.srcAccess,
			DstAccess: masks.dstAccess,
			Aspect:    aspect,
		})
	})
}

// UploadImage creates a sampled device-local image holding pixels, which
// must be tightly packed 4 bytes per texel. The image ends in the
// shader-read-only layout with a color view.
func (a *Allocator) UploadImage(pixels []byte, width, height uint32, format gpu.Format) (*GpuImage, error) {
	size := uint64(width) * uint64(height) * 4
	if uint64(len(pixels)) < size {
		return nil, errors.Errorf("image data holds %d bytes, %dx%d needs %d", len(pixels), width, height, size)
	}

	staging, err := a.CreateHostBuffer(size, gpu.BufferUsageTransferSrc)
	if err != nil {
		return nil, errors.Wrap(err, "create staging buffer")
	}
	defer staging.Destroy()
	if err := staging.Write(pixels[:size]); err != nil {
		return nil, err
	}

	img, err := a.CreateImage(ImageInfo{
		Width:      width,
		Height:     height,
		Format:     format,
		Tiling:     gpu.ImageTilingOptimal,
		Usage:      gpu.ImageUsageTransferDst | gpu.ImageUsageSampled,
		Properties: gpu.MemoryPropertyDeviceLocal,
	})
	if err != nil {
		return nil, err
	}

	if err := a.TransitionImageLayout(img.Handle, format, gpu.ImageLayoutUndefined, gpu.ImageLayoutTransferDstOptimal); err != nil {
		img.Destroy()
		return nil, err
	}
	err = a.SingleUse(func(cb gpu.CommandBuffer) {
		a.device.Handle.CmdCopyBufferToImage(cb, staging.Handle, img.Handle, gpu.ImageLayoutTransferDstOptimal, width, height)
	})
	if err != nil {
		img.Destroy()
		return nil, err
	}
	if err := a.TransitionImageLayout(img.Handle, format, gpu.ImageLayoutTransferDstOptimal, gpu.ImageLayoutShaderReadOnlyOptimal); err != nil {
		img.Destroy()
		return nil, err
	}

	view, err := CreateImageView(a.device.Handle, img.Handle, format, gpu.ImageAspectColor)
	if err != nil {
		img.Destroy()
		return nil, err
	}
	img.View = view
	return img, nil
}

// CreateTextureSampler returns a linear, repeating sampler. Anisotropy is 16
// clamped to the device limit when the feature is available.
func (a *Allocator) CreateTextureSampler() (gpu.Sampler, error) {
	physical := a.device.Physical
	info := gpu.SamplerCreateInfo{
		MagFilter:   gpu.FilterLinear,
		MinFilter:   gpu.FilterLinear,
		AddressMode: gpu.SamplerAddressModeRepeat,
		MipmapMode:  gpu.SamplerMipmapModeLinear,
	}
	if physical.Features.SamplerAnisotropy {
		info.AnisotropyEnable = true
		info.MaxAnisotropy = min(maxSamplerAnisotropy, physical.Properties.Limits.MaxSamplerAnisotropy)
	}
	sampler, err := a.device.Handle.CreateSampler(info)
	if err != nil {
		return nil, errors.Wrap(err, "create texture sampler")
	}
	return sampler, nil
}
