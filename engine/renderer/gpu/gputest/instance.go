package gputest

import (
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

// Instance is a fake gpu.Instance exposing a fixed list of devices.
type Instance struct {
	Devices   []*PhysicalDevice
	surface   *Object
	destroyed bool
}

func NewInstance(devices ...*PhysicalDevice) *Instance {
	return &Instance{
		Devices: devices,
		surface: &Object{Kind: "surface"},
	}
}

func (i *Instance) PhysicalDevices() ([]gpu.PhysicalDevice, error) {
	out := make([]gpu.PhysicalDevice, len(i.Devices))
	for n, d := range i.Devices {
		out[n] = d
	}
	return out, nil
}

func (i *Instance) Surface() gpu.Surface {
	return i.surface
}

func (i *Instance) Destroy() {
	i.destroyed = true
}

func (i *Instance) IsDestroyed() bool {
	return i.destroyed
}

// PhysicalDevice is a fake gpu.PhysicalDevice. Every field may be changed
// by tests before the device is used.
type PhysicalDevice struct {
	Props         gpu.PhysicalDeviceProperties
	Feats         gpu.PhysicalDeviceFeatures
	Families      []gpu.QueueFamily
	PresentFamily map[uint32]bool
	DeviceExts    []string
	Memory        gpu.MemoryProperties
	Formats       []gpu.SurfaceFormat
	Modes         []gpu.PresentMode
	DepthFormats  map[gpu.Format]bool
	Capabilities  gpu.SurfaceCapabilities

	// LinearDepthFormats support depth attachments with linear tiling only.
	LinearDepthFormats map[gpu.Format]bool

	// CapabilitiesFunc, when set, is consulted instead of Capabilities.
	CapabilitiesFunc func() gpu.SurfaceCapabilities

	// Created is the logical device returned by the last CreateDevice.
	Created     *Device
	CreateInfos []gpu.DeviceCreateInfo
}

// DefaultMemory is a typical discrete GPU table: device local, host
// visible+coherent, host visible+coherent+cached.
func DefaultMemory() gpu.MemoryProperties {
	return gpu.MemoryProperties{
		Types: []gpu.MemoryType{
			{PropertyFlags: gpu.MemoryPropertyDeviceLocal, HeapIndex: 0},
			{PropertyFlags: gpu.MemoryPropertyHostVisible | gpu.MemoryPropertyHostCoherent, HeapIndex: 1},
			{PropertyFlags: gpu.MemoryPropertyHostVisible | gpu.MemoryPropertyHostCoherent | gpu.MemoryPropertyHostCached, HeapIndex: 1},
		},
		Heaps: []gpu.MemoryHeap{
			{Size: 8 << 30, DeviceLocal: true},
			{Size: 16 << 30},
		},
	}
}

// NewPhysicalDevice returns a device meeting every renderer requirement
// with an 800x600 surface.
func NewPhysicalDevice(name string, kind gpu.PhysicalDeviceType) *PhysicalDevice {
	return &PhysicalDevice{
		Props: gpu.PhysicalDeviceProperties{
			Name:       name,
			Type:       kind,
			APIVersion: 1<<22 | 3<<12,
			Limits: gpu.PhysicalDeviceLimits{
				MaxImageDimension2D:  16384,
				MaxSamplerAnisotropy: 16,
			},
		},
		Feats:         gpu.PhysicalDeviceFeatures{SamplerAnisotropy: true},
		Families:      []gpu.QueueFamily{{Flags: gpu.QueueGraphics | gpu.QueueCompute | gpu.QueueTransfer, Count: 1}},
		PresentFamily: map[uint32]bool{0: true},
		DeviceExts:    []string{"VK_KHR_swapchain"},
		Memory:        DefaultMemory(),
		Formats: []gpu.SurfaceFormat{
			{Format: gpu.FormatB8G8R8A8Unorm, ColorSpace: gpu.ColorSpaceSrgbNonlinear},
			{Format: gpu.FormatB8G8R8A8Srgb, ColorSpace: gpu.ColorSpaceSrgbNonlinear},
		},
		Modes:        []gpu.PresentMode{gpu.PresentModeFifo, gpu.PresentModeMailbox},
		DepthFormats: map[gpu.Format]bool{gpu.FormatD32Sfloat: true},
		Capabilities: gpu.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  8,
			CurrentExtent:  gpu.Extent2D{Width: 800, Height: 600},
			MinImageExtent: gpu.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: gpu.Extent2D{Width: 4096, Height: 4096},
		},
	}
}

func (p *PhysicalDevice) Properties() gpu.PhysicalDeviceProperties {
	return p.Props
}

func (p *PhysicalDevice) Features() gpu.PhysicalDeviceFeatures {
	return p.Feats
}

func (p *PhysicalDevice) QueueFamilies() []gpu.QueueFamily {
	return p.Families
}

func (p *PhysicalDevice) Extensions() ([]string, error) {
	return p.DeviceExts, nil
}

func (p *PhysicalDevice) MemoryProperties() gpu.MemoryProperties {
	return p.Memory
}

func (p *PhysicalDevice) FormatProperties(format gpu.Format) gpu.FormatProperties {
	var props gpu.FormatProperties
	if p.DepthFormats[format] {
		props.OptimalTilingFeatures |= gpu.FormatFeatureDepthStencilAttachment
	}
	if p.LinearDepthFormats[format] {
		props.LinearTilingFeatures |= gpu.FormatFeatureDepthStencilAttachment
	}
	for _, f := range p.Formats {
		if f.Format == format {
			props.OptimalTilingFeatures |= gpu.FormatFeatureColorAttachment | gpu.FormatFeatureSampledImage
		}
	}
	if format == gpu.FormatR8G8B8A8Srgb {
		props.OptimalTilingFeatures |= gpu.FormatFeatureSampledImage | gpu.FormatFeatureSampledImageFilterLinear
	}
	return props
}

func (p *PhysicalDevice) SurfaceSupport(family uint32, surface gpu.Surface) (bool, error) {
	return p.PresentFamily[family], nil
}

func (p *PhysicalDevice) SurfaceCapabilities(surface gpu.Surface) (gpu.SurfaceCapabilities, error) {
	if p.CapabilitiesFunc != nil {
		return p.CapabilitiesFunc(), nil
	}
	return p.Capabilities, nil
}

func (p *PhysicalDevice) SurfaceFormats(surface gpu.Surface) ([]gpu.SurfaceFormat, error) {
	return p.Formats, nil
}

func (p *PhysicalDevice) PresentModes(surface gpu.Surface) ([]gpu.PresentMode, error) {
	return p.Modes, nil
}

func (p *PhysicalDevice) CreateDevice(info gpu.DeviceCreateInfo) (gpu.Device, error) {
	p.CreateInfos = append(p.CreateInfos, info)
	p.Created = NewDevice(p.Memory)
	return p.Created, nil
}
