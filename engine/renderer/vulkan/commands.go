package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

func (d *Device) CreateCommandPool(queueFamily uint32) (gpu.CommandPool, error) {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := check("vkCreateCommandPool", vk.CreateCommandPool(d.Handle, &poolCreateInfo, nil, &pool)); err != nil {
		return nil, err
	}
	return pool, nil
}

func (d *Device) DestroyCommandPool(pool gpu.CommandPool) {
	vk.DestroyCommandPool(d.Handle, handle[vk.CommandPool](pool), nil)
}

func (d *Device) AllocateCommandBuffers(pool gpu.CommandPool, count uint32) ([]gpu.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        handle[vk.CommandPool](pool),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	}
	buffers := make([]vk.CommandBuffer, count)
	if err := check("vkAllocateCommandBuffers", vk.AllocateCommandBuffers(d.Handle, &allocateInfo, buffers)); err != nil {
		return nil, err
	}
	out := make([]gpu.CommandBuffer, count)
	for i := range buffers {
		out[i] = buffers[i]
	}
	return out, nil
}

func (d *Device) FreeCommandBuffers(pool gpu.CommandPool, buffers []gpu.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	vk.FreeCommandBuffers(d.Handle, handle[vk.CommandPool](pool), uint32(len(buffers)), handles[vk.CommandBuffer](buffers))
}

func (d *Device) BeginCommandBuffer(cb gpu.CommandBuffer, oneTimeSubmit bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTimeSubmit {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	return check("vkBeginCommandBuffer", vk.BeginCommandBuffer(handle[vk.CommandBuffer](cb), &beginInfo))
}

func (d *Device) EndCommandBuffer(cb gpu.CommandBuffer) error {
	return check("vkEndCommandBuffer", vk.EndCommandBuffer(handle[vk.CommandBuffer](cb)))
}

func (d *Device) ResetCommandBuffer(cb gpu.CommandBuffer) error {
	return check("vkResetCommandBuffer", vk.ResetCommandBuffer(handle[vk.CommandBuffer](cb), 0))
}

func (d *Device) CmdBeginRenderPass(cb gpu.CommandBuffer, info gpu.RenderPassBeginInfo) {
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  handle[vk.RenderPass](info.RenderPass),
		Framebuffer: handle[vk.Framebuffer](info.Framebuffer),
		RenderArea:  rect(info.Area),
	}

	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(info.ClearColor[:])
	clearValues[1].SetDepthStencil(info.ClearDepth, info.ClearStencil)

	beginInfo.ClearValueCount = uint32(len(clearValues))
	beginInfo.PClearValues = clearValues

	vk.CmdBeginRenderPass(handle[vk.CommandBuffer](cb), &beginInfo, vk.SubpassContentsInline)
}

func rect(r gpu.Rect2D) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: r.Offset.X, Y: r.Offset.Y},
		Extent: vk.Extent2D{Width: r.Extent.Width, Height: r.Extent.Height},
	}
}

func (d *Device) CmdEndRenderPass(cb gpu.CommandBuffer) {
	vk.CmdEndRenderPass(handle[vk.CommandBuffer](cb))
}

func (d *Device) CmdSetViewport(cb gpu.CommandBuffer, viewport gpu.Viewport) {
	vk.CmdSetViewport(handle[vk.CommandBuffer](cb), 0, 1, []vk.Viewport{{
		X:        viewport.X,
		Y:        viewport.Y,
		Width:    viewport.Width,
		Height:   viewport.Height,
		MinDepth: viewport.MinDepth,
		MaxDepth: viewport.MaxDepth,
	}})
}

func (d *Device) CmdSetScissor(cb gpu.CommandBuffer, scissor gpu.Rect2D) {
	vk.CmdSetScissor(handle[vk.CommandBuffer](cb), 0, 1, []vk.Rect2D{rect(scissor)})
}

func (d *Device) CmdBindPipeline(cb gpu.CommandBuffer, pipeline gpu.Pipeline) {
	vk.CmdBindPipeline(handle[vk.CommandBuffer](cb), vk.PipelineBindPointGraphics, handle[vk.Pipeline](pipeline))
}

func (d *Device) CmdBindVertexBuffer(cb gpu.CommandBuffer, buffer gpu.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(handle[vk.CommandBuffer](cb), 0, 1, []vk.Buffer{handle[vk.Buffer](buffer)}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (d *Device) CmdBindIndexBuffer(cb gpu.CommandBuffer, buffer gpu.Buffer, offset uint64, indexType gpu.IndexType) {
	vk.CmdBindIndexBuffer(handle[vk.CommandBuffer](cb), handle[vk.Buffer](buffer), vk.DeviceSize(offset), vk.IndexType(indexType))
}

func (d *Device) CmdBindDescriptorSet(cb gpu.CommandBuffer, layout gpu.PipelineLayout, set gpu.DescriptorSet) {
	vk.CmdBindDescriptorSets(handle[vk.CommandBuffer](cb), vk.PipelineBindPointGraphics, handle[vk.PipelineLayout](layout), 0, 1, []vk.DescriptorSet{handle[vk.DescriptorSet](set)}, 0, nil)
}

func (d *Device) CmdDrawIndexed(cb gpu.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(handle[vk.CommandBuffer](cb), indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (d *Device) CmdCopyBuffer(cb gpu.CommandBuffer, src, dst gpu.Buffer, size uint64) {
	region := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(handle[vk.CommandBuffer](cb), handle[vk.Buffer](src), handle[vk.Buffer](dst), 1, []vk.BufferCopy{region})
}

func (d *Device) CmdCopyBufferToImage(cb gpu.CommandBuffer, src gpu.Buffer, dst gpu.Image, layout gpu.ImageLayout, width, height uint32) {
	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageExtent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(handle[vk.CommandBuffer](cb), handle[vk.Buffer](src), handle[vk.Image](dst), vk.ImageLayout(layout), 1, []vk.BufferImageCopy{region})
}

func (d *Device) CmdPipelineBarrier(cb gpu.CommandBuffer, srcStage, dstStage gpu.PipelineStageFlags, barrier gpu.ImageMemoryBarrier) {
	imageBarrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(barrier.SrcAccess),
		DstAccessMask:       vk.AccessFlags(barrier.DstAccess),
		OldLayout:           vk.ImageLayout(barrier.OldLayout),
		NewLayout:           vk.ImageLayout(barrier.NewLayout),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               handle[vk.Image](barrier.Image),
		SubresourceRange:    subresourceRange(barrier.Aspect),
	}
	vk.CmdPipelineBarrier(
		handle[vk.CommandBuffer](cb),
		vk.PipelineStageFlags(srcStage), vk.PipelineStageFlags(dstStage),
		0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{imageBarrier},
	)
}
