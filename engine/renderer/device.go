package renderer

import (
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

// LogicalDevice owns the device handle, its queues and the graphics command
// pool. Queue handles are valid for the lifetime of the device.
type LogicalDevice struct {
	Physical *PhysicalDeviceCandidate
	Handle   gpu.Device

	GraphicsQueue  gpu.Queue
	PresentQueue   gpu.Queue
	GraphicsFamily uint32
	PresentFamily  uint32

	CommandPool gpu.CommandPool
	DepthFormat gpu.Format
}

// NewLogicalDevice creates one queue per distinct family of the candidate.
func NewLogicalDevice(physical *PhysicalDeviceCandidate, requireAnisotropy bool) (*LogicalDevice, error) {
	depthFormat, err := detectDepthFormat(physical.Handle)
	if err != nil {
		return nil, err
	}

	core.LogInfo("Creating logical device...")
	handle, err := physical.Handle.CreateDevice(gpu.DeviceCreateInfo{
		QueueFamilies:     physical.Queues.Unique(),
		Extensions:        physical.Extensions,
		SamplerAnisotropy: requireAnisotropy && physical.Features.SamplerAnisotropy,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create logical device")
	}
	core.LogInfo("Logical device created.")

	d := &LogicalDevice{
		Physical:       physical,
		Handle:         handle,
		GraphicsFamily: uint32(physical.Queues.Graphics),
		PresentFamily:  uint32(physical.Queues.Present),
		DepthFormat:    depthFormat,
	}
	d.GraphicsQueue = handle.Queue(d.GraphicsFamily, 0)
	d.PresentQueue = handle.Queue(d.PresentFamily, 0)
	core.LogInfo("Queues obtained.")

	pool, err := handle.CreateCommandPool(d.GraphicsFamily)
	if err != nil {
		handle.Destroy()
		return nil, errors.Wrap(err, "create graphics command pool")
	}
	d.CommandPool = pool
	core.LogInfo("Graphics command pool created.")
	return d, nil
}

// QueueFamilies returns the families swapchain images are shared between.
func (d *LogicalDevice) QueueFamilies() []uint32 {
	return d.Physical.Queues.Unique()
}

func (d *LogicalDevice) WaitIdle() error {
	return d.Handle.WaitIdle()
}

func (d *LogicalDevice) Destroy() {
	core.LogInfo("Destroying command pools...")
	if d.CommandPool != nil {
		d.Handle.DestroyCommandPool(d.CommandPool)
		d.CommandPool = nil
	}
	core.LogInfo("Destroying logical device...")
	d.Handle.Destroy()
}

var depthFormatCandidates = []gpu.Format{
	gpu.FormatD32Sfloat,
	gpu.FormatD32SfloatS8Uint,
	gpu.FormatD24UnormS8Uint,
}

func detectDepthFormat(device gpu.PhysicalDevice) (gpu.Format, error) {
	flags := gpu.FormatFeatureDepthStencilAttachment
	for _, candidate := range depthFormatCandidates {
		props := device.FormatProperties(candidate)
		// The depth image is always created with optimal tiling.
		if props.OptimalTilingFeatures&flags == flags {
			return candidate, nil
		}
	}
	core.LogError("Unable to find a supported depth format!")
	return gpu.FormatUndefined, ErrNoDepthFormat
}
