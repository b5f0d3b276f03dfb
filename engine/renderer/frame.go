package renderer

import (
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

// FrameSlot holds what one frame in flight needs. The fence starts signaled
// so the first wait on every slot returns at once.
type FrameSlot struct {
	ImageAvailable gpu.Semaphore
	RenderFinished gpu.Semaphore
	InFlight       gpu.Fence
	CommandBuffer  gpu.CommandBuffer
}

// FrameScheduler rotates through a fixed number of frame slots and tracks
// which slot last rendered into each swapchain image.
type FrameScheduler struct {
	device *LogicalDevice

	Slots   []*FrameSlot
	Current int

	// imagesInFlight maps a swapchain image index to the fence of the slot
	// rendering into it, nil when the image is free.
	imagesInFlight []gpu.Fence

	resizeGeneration uint64
	lastGeneration   uint64
}

func newFrameScheduler(device *LogicalDevice, slotCount, imageCount int) (*FrameScheduler, error) {
	f := &FrameScheduler{device: device}
	dev := device.Handle
	for i := 0; i < slotCount; i++ {
		slot := &FrameSlot{}
		f.Slots = append(f.Slots, slot)
		var err error
		if slot.ImageAvailable, err = dev.CreateSemaphore(); err != nil {
			f.destroy()
			return nil, errors.Wrap(err, "create image available semaphore")
		}
		if slot.RenderFinished, err = dev.CreateSemaphore(); err != nil {
			f.destroy()
			return nil, errors.Wrap(err, "create render finished semaphore")
		}
		if slot.InFlight, err = dev.CreateFence(true); err != nil {
			f.destroy()
			return nil, errors.Wrap(err, "create in flight fence")
		}
	}
	if err := f.allocateCommandBuffers(); err != nil {
		f.destroy()
		return nil, err
	}
	f.resetImages(imageCount)
	return f, nil
}

func (f *FrameScheduler) allocateCommandBuffers() error {
	buffers, err := f.device.Handle.AllocateCommandBuffers(f.device.CommandPool, uint32(len(f.Slots)))
	if err != nil {
		return errors.Wrap(err, "allocate frame command buffers")
	}
	for i, slot := range f.Slots {
		slot.CommandBuffer = buffers[i]
	}
	return nil
}

func (f *FrameScheduler) freeCommandBuffers() {
	var buffers []gpu.CommandBuffer
	for _, slot := range f.Slots {
		if slot.CommandBuffer != nil {
			buffers = append(buffers, slot.CommandBuffer)
			slot.CommandBuffer = nil
		}
	}
	if len(buffers) > 0 {
		f.device.Handle.FreeCommandBuffers(f.device.CommandPool, buffers)
	}
}

func (f *FrameScheduler) resetImages(imageCount int) {
	f.imagesInFlight = make([]gpu.Fence, imageCount)
}

// notifyResize is called for every WindowResized event.
func (f *FrameScheduler) notifyResize() {
	f.resizeGeneration++
}

// takeResize reports whether a resize arrived since the last call.
func (f *FrameScheduler) takeResize() bool {
	if f.resizeGeneration == f.lastGeneration {
		return false
	}
	f.lastGeneration = f.resizeGeneration
	return true
}

func (f *FrameScheduler) advance() {
	f.Current = (f.Current + 1) % len(f.Slots)
}

func (f *FrameScheduler) destroy() {
	f.freeCommandBuffers()
	dev := f.device.Handle
	for _, slot := range f.Slots {
		if slot.ImageAvailable != nil {
			dev.DestroySemaphore(slot.ImageAvailable)
		}
		if slot.RenderFinished != nil {
			dev.DestroySemaphore(slot.RenderFinished)
		}
		if slot.InFlight != nil {
			dev.DestroyFence(slot.InFlight)
		}
	}
	f.Slots = nil
	f.imagesInFlight = nil
}

// DrawFrame renders and presents one frame of every renderable set. A frame
// whose acquisition finds the swapchain out of date is skipped after the
// rebuild; any other failure is fatal.
func (r *Renderer) DrawFrame(scene *SceneUniforms) error {
	f := r.frames
	dev := r.Device.Handle
	slot := f.Slots[f.Current]

	if err := dev.WaitForFence(slot.InFlight, gpu.InfiniteTimeout); err != nil {
		return errors.Wrap(err, "wait for in flight fence")
	}

	imageIndex, res := dev.AcquireNextImage(r.Swapchain.Handle, gpu.InfiniteTimeout, slot.ImageAvailable, nil)
	rebuild := false
	switch res {
	case gpu.Success:
	case gpu.Suboptimal:
		rebuild = true
	case gpu.ErrorOutOfDate:
		core.LogDebug("%s while acquiring, rebuilding swapchain.", ErrSwapchainOutOfDate)
		return r.RebuildSwapchain()
	default:
		core.LogError("Failed to acquire swapchain image: %s", res.Text(true))
		return errors.Wrap(&gpu.Error{Op: "AcquireNextImage", Result: res}, "acquire swapchain image")
	}

	// Another slot may still be rendering into this image.
	if fence := f.imagesInFlight[imageIndex]; fence != nil {
		if err := dev.WaitForFence(fence, gpu.InfiniteTimeout); err != nil {
			return errors.Wrap(err, "wait for image fence")
		}
	}
	f.imagesInFlight[imageIndex] = slot.InFlight

	image := int(imageIndex)
	for _, set := range r.Sets {
		if err := set.updateUniforms(image, scene); err != nil {
			return err
		}
	}

	if err := r.recordFrame(slot.CommandBuffer, image); err != nil {
		return err
	}

	if err := dev.ResetFence(slot.InFlight); err != nil {
		return errors.Wrap(err, "reset in flight fence")
	}
	submit := gpu.SubmitInfo{
		WaitSemaphores:   []gpu.Semaphore{slot.ImageAvailable},
		WaitStages:       []gpu.PipelineStageFlags{gpu.PipelineStageColorAttachmentOutput},
		CommandBuffers:   []gpu.CommandBuffer{slot.CommandBuffer},
		SignalSemaphores: []gpu.Semaphore{slot.RenderFinished},
	}
	if err := dev.QueueSubmit(r.Device.GraphicsQueue, []gpu.SubmitInfo{submit}, slot.InFlight); err != nil {
		core.LogError("Failed to submit draw command buffer!")
		return errors.Wrap(err, "submit draw command buffer")
	}

	res = dev.QueuePresent(r.Device.PresentQueue, gpu.PresentInfo{
		WaitSemaphores: []gpu.Semaphore{slot.RenderFinished},
		Swapchain:      r.Swapchain.Handle,
		ImageIndex:     imageIndex,
	})
	resized := f.takeResize()
	f.advance()

	switch {
	case res == gpu.ErrorOutOfDate || res == gpu.Suboptimal || resized || rebuild:
		return r.RebuildSwapchain()
	case res != gpu.Success:
		core.LogError("Failed to present swap chain image: %s", res.Text(true))
		return errors.Wrap(&gpu.Error{Op: "QueuePresent", Result: res}, "present swapchain image")
	}
	return nil
}

func (r *Renderer) recordFrame(cb gpu.CommandBuffer, image int) error {
	dev := r.Device.Handle
	if err := dev.ResetCommandBuffer(cb); err != nil {
		return errors.Wrap(err, "reset command buffer")
	}
	if err := dev.BeginCommandBuffer(cb, false); err != nil {
		return errors.Wrap(err, "begin command buffer")
	}
	extent := r.Swapchain.Extent
	r.RenderPass.Begin(cb, r.Swapchain.Images[image].Framebuffer, extent)
	for _, set := range r.Sets {
		set.record(dev, cb, extent, image)
	}
	r.RenderPass.End(cb)
	if err := dev.EndCommandBuffer(cb); err != nil {
		return errors.Wrap(err, "end command buffer")
	}
	return nil
}
