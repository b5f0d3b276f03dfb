package renderer

import (
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

// RenderPass is the single-subpass color+depth pass every framebuffer is
// built for. It depends only on the surface and depth formats and survives
// swapchain rebuilds.
type RenderPass struct {
	device gpu.Device

	Handle       gpu.RenderPass
	ClearColor   [4]float32
	ClearDepth   float32
	ClearStencil uint32
}

func NewRenderPass(device *LogicalDevice, colorFormat gpu.Format, clearColor [4]float32) (*RenderPass, error) {
	handle, err := device.Handle.CreateRenderPass(gpu.RenderPassCreateInfo{
		ColorFormat:      colorFormat,
		ColorFinalLayout: gpu.ImageLayoutPresentSrc,
		DepthFormat:      device.DepthFormat,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	return &RenderPass{
		device:     device.Handle,
		Handle:     handle,
		ClearColor: clearColor,
		ClearDepth: 1.0,
	}, nil
}

// Begin clears the whole framebuffer area.
func (rp *RenderPass) Begin(cb gpu.CommandBuffer, framebuffer gpu.Framebuffer, extent gpu.Extent2D) {
	rp.device.CmdBeginRenderPass(cb, gpu.RenderPassBeginInfo{
		RenderPass:   rp.Handle,
		Framebuffer:  framebuffer,
		Area:         gpu.Rect2D{Extent: extent},
		ClearColor:   rp.ClearColor,
		ClearDepth:   rp.ClearDepth,
		ClearStencil: rp.ClearStencil,
	})
}

func (rp *RenderPass) End(cb gpu.CommandBuffer) {
	rp.device.CmdEndRenderPass(cb)
}

func (rp *RenderPass) Destroy() {
	if rp.Handle != nil {
		rp.device.DestroyRenderPass(rp.Handle)
		rp.Handle = nil
	}
}
