package renderer

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

const (
	SwapchainExtensionName   = "VK_KHR_swapchain"
	PortabilitySubsetExtName = "VK_KHR_portability_subset"
)

// PhysicalDeviceRequirements lists what a GPU must offer to be picked.
type PhysicalDeviceRequirements struct {
	DeviceExtensionNames []string
	SamplerAnisotropy    bool
}

// DefaultRequirements returns the requirements for the given variants: the
// swapchain extension always, anisotropy as soon as one variant samples a
// texture.
func DefaultRequirements(layouts ...VertexLayout) PhysicalDeviceRequirements {
	req := PhysicalDeviceRequirements{
		DeviceExtensionNames: []string{SwapchainExtensionName},
	}
	for _, l := range layouts {
		if l.Textured() {
			req.SamplerAnisotropy = true
		}
	}
	return req
}

type QueueFamilyIndices struct {
	Graphics int32
	Present  int32
}

func (q QueueFamilyIndices) complete() bool {
	return q.Graphics >= 0 && q.Present >= 0
}

// Unique returns the distinct family indices, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Graphics == q.Present {
		return []uint32{uint32(q.Graphics)}
	}
	return []uint32{uint32(q.Graphics), uint32(q.Present)}
}

type SwapchainSupportInfo struct {
	Capabilities gpu.SurfaceCapabilities
	Formats      []gpu.SurfaceFormat
	PresentModes []gpu.PresentMode
}

// PhysicalDeviceCandidate is a GPU that passed the requirement checks,
// together with everything queried about it. It does not change once
// selected.
type PhysicalDeviceCandidate struct {
	Handle     gpu.PhysicalDevice
	Properties gpu.PhysicalDeviceProperties
	Features   gpu.PhysicalDeviceFeatures
	Memory     gpu.MemoryProperties
	Queues     QueueFamilyIndices
	Extensions []string
	Score      int
}

// SelectPhysicalDevice picks the highest scoring device meeting req. Ties
// go to the device enumerated first.
func SelectPhysicalDevice(instance gpu.Instance, surface gpu.Surface, req PhysicalDeviceRequirements) (*PhysicalDeviceCandidate, error) {
	devices, err := instance.PhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}
	if len(devices) == 0 {
		core.LogError("No devices which support Vulkan were found.")
		return nil, ErrNoSuitableGPU
	}

	var best *PhysicalDeviceCandidate
	for _, device := range devices {
		candidate, err := evaluatePhysicalDevice(device, surface, req)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			continue
		}
		if best == nil || candidate.Score > best.Score {
			best = candidate
		}
	}

	if best == nil || best.Score <= 0 {
		core.LogError("No physical devices were found which meet the requirements.")
		return nil, ErrNoSuitableGPU
	}
	logDeviceInfo(best)
	return best, nil
}

// evaluatePhysicalDevice returns nil when the device misses a requirement.
func evaluatePhysicalDevice(device gpu.PhysicalDevice, surface gpu.Surface, req PhysicalDeviceRequirements) (*PhysicalDeviceCandidate, error) {
	props := device.Properties()
	features := device.Features()

	queues, err := findQueueFamilies(device, surface)
	if err != nil {
		return nil, err
	}
	if !queues.complete() {
		core.LogInfo("Device '%s' lacks a graphics or present queue. Skipping.", props.Name)
		return nil, nil
	}

	available, err := device.Extensions()
	if err != nil {
		return nil, errors.Wrapf(err, "enumerate extensions of '%s'", props.Name)
	}
	for _, name := range req.DeviceExtensionNames {
		if !slices.Contains(available, name) {
			core.LogInfo("Device '%s' lacks required extension %s. Skipping.", props.Name, name)
			return nil, nil
		}
	}

	support, err := querySwapchainSupport(device, surface)
	if err != nil {
		return nil, err
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		core.LogInfo("Device '%s' offers no surface format or present mode. Skipping.", props.Name)
		return nil, nil
	}

	if req.SamplerAnisotropy && !features.SamplerAnisotropy {
		core.LogInfo("Device '%s' does not support samplerAnisotropy. Skipping.", props.Name)
		return nil, nil
	}

	extensions := append([]string(nil), req.DeviceExtensionNames...)
	if slices.Contains(available, PortabilitySubsetExtName) && !slices.Contains(extensions, PortabilitySubsetExtName) {
		extensions = append(extensions, PortabilitySubsetExtName)
	}

	return &PhysicalDeviceCandidate{
		Handle:     device,
		Properties: props,
		Features:   features,
		Memory:     device.MemoryProperties(),
		Queues:     queues,
		Extensions: extensions,
		Score:      scoreDevice(props),
	}, nil
}

func scoreDevice(props gpu.PhysicalDeviceProperties) int {
	switch props.Type {
	case gpu.PhysicalDeviceTypeDiscreteGpu:
		return 1000
	case gpu.PhysicalDeviceTypeIntegratedGpu:
		return 100
	}
	return 1
}

// findQueueFamilies prefers a single family able to both draw and present.
func findQueueFamilies(device gpu.PhysicalDevice, surface gpu.Surface) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{Graphics: -1, Present: -1}
	for i, family := range device.QueueFamilies() {
		if family.Count == 0 {
			continue
		}
		graphics := family.Flags&gpu.QueueGraphics != 0
		present, err := device.SurfaceSupport(uint32(i), surface)
		if err != nil {
			return indices, errors.Wrap(err, "query surface support")
		}
		if graphics && present {
			return QueueFamilyIndices{Graphics: int32(i), Present: int32(i)}, nil
		}
		if graphics && indices.Graphics < 0 {
			indices.Graphics = int32(i)
		}
		if present && indices.Present < 0 {
			indices.Present = int32(i)
		}
	}
	return indices, nil
}

func querySwapchainSupport(device gpu.PhysicalDevice, surface gpu.Surface) (SwapchainSupportInfo, error) {
	var info SwapchainSupportInfo
	var err error
	if info.Capabilities, err = device.SurfaceCapabilities(surface); err != nil {
		return info, errors.Wrap(err, "query surface capabilities")
	}
	if info.Formats, err = device.SurfaceFormats(surface); err != nil {
		return info, errors.Wrap(err, "query surface formats")
	}
	if info.PresentModes, err = device.PresentModes(surface); err != nil {
		return info, errors.Wrap(err, "query present modes")
	}
	return info, nil
}

// QuerySwapchainSupport queries the surface again; capabilities change with
// the window size.
func (c *PhysicalDeviceCandidate) QuerySwapchainSupport(surface gpu.Surface) (SwapchainSupportInfo, error) {
	return querySwapchainSupport(c.Handle, surface)
}

func logDeviceInfo(c *PhysicalDeviceCandidate) {
	p := c.Properties
	core.LogInfo("Selected device: '%s'.", p.Name)
	core.LogInfo("GPU type is %s.", p.Type)
	core.LogInfo("GPU Driver version: %d.%d.%d", p.DriverVersion>>22, (p.DriverVersion>>12)&0x3ff, p.DriverVersion&0xfff)
	core.LogInfo("Vulkan API version: %d.%d.%d", p.APIVersion>>22, (p.APIVersion>>12)&0x3ff, p.APIVersion&0xfff)
	for _, heap := range c.Memory.Heaps {
		gib := float64(heap.Size) / 1024.0 / 1024.0 / 1024.0
		if heap.DeviceLocal {
			core.LogInfo("Local GPU memory: %.2f GiB", gib)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", gib)
		}
	}
}
