package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

type PhysicalDevice struct {
	Handle vk.PhysicalDevice
}

func (p *PhysicalDevice) Properties() gpu.PhysicalDeviceProperties {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(p.Handle, &properties)
	properties.Deref()
	properties.Limits.Deref()

	return gpu.PhysicalDeviceProperties{
		Name:          vk.ToString(properties.DeviceName[:]),
		Type:          gpu.PhysicalDeviceType(properties.DeviceType),
		APIVersion:    properties.ApiVersion,
		DriverVersion: properties.DriverVersion,
		VendorID:      properties.VendorID,
		DeviceID:      properties.DeviceID,
		Limits: gpu.PhysicalDeviceLimits{
			MaxImageDimension2D:  properties.Limits.MaxImageDimension2D,
			MaxSamplerAnisotropy: properties.Limits.MaxSamplerAnisotropy,
		},
	}
}

func (p *PhysicalDevice) Features() gpu.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.Handle, &features)
	features.Deref()
	return gpu.PhysicalDeviceFeatures{
		SamplerAnisotropy: features.SamplerAnisotropy == vk.True,
	}
}

func (p *PhysicalDevice) QueueFamilies() []gpu.QueueFamily {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.Handle, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.Handle, &count, families)

	out := make([]gpu.QueueFamily, count)
	for i := range families[:count] {
		families[i].Deref()
		out[i] = gpu.QueueFamily{
			Flags: gpu.QueueFlags(families[i].QueueFlags),
			Count: families[i].QueueCount,
		}
	}
	return out
}

func (p *PhysicalDevice) Extensions() ([]string, error) {
	var count uint32
	if err := check("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(p.Handle, "", &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	available := make([]vk.ExtensionProperties, count)
	if err := check("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(p.Handle, "", &count, available)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range available[:count] {
		available[i].Deref()
		names = append(names, vk.ToString(available[i].ExtensionName[:]))
	}
	return names, nil
}

func (p *PhysicalDevice) MemoryProperties() gpu.MemoryProperties {
	var memory vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.Handle, &memory)
	memory.Deref()

	out := gpu.MemoryProperties{
		Types: make([]gpu.MemoryType, memory.MemoryTypeCount),
		Heaps: make([]gpu.MemoryHeap, memory.MemoryHeapCount),
	}
	for i := range out.Types {
		memory.MemoryTypes[i].Deref()
		out.Types[i] = gpu.MemoryType{
			PropertyFlags: gpu.MemoryPropertyFlags(memory.MemoryTypes[i].PropertyFlags),
			HeapIndex:     memory.MemoryTypes[i].HeapIndex,
		}
	}
	for i := range out.Heaps {
		memory.MemoryHeaps[i].Deref()
		out.Heaps[i] = gpu.MemoryHeap{
			Size:        uint64(memory.MemoryHeaps[i].Size),
			DeviceLocal: vk.MemoryHeapFlagBits(memory.MemoryHeaps[i].Flags)&vk.MemoryHeapDeviceLocalBit != 0,
		}
	}
	return out
}

func (p *PhysicalDevice) FormatProperties(format gpu.Format) gpu.FormatProperties {
	var properties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(p.Handle, vk.Format(format), &properties)
	properties.Deref()
	return gpu.FormatProperties{
		LinearTilingFeatures:  gpu.FormatFeatureFlags(properties.LinearTilingFeatures),
		OptimalTilingFeatures: gpu.FormatFeatureFlags(properties.OptimalTilingFeatures),
	}
}

func (p *PhysicalDevice) SurfaceSupport(family uint32, surface gpu.Surface) (bool, error) {
	var supported vk.Bool32
	if err := check("vkGetPhysicalDeviceSurfaceSupportKHR", vk.GetPhysicalDeviceSurfaceSupport(p.Handle, family, handle[vk.Surface](surface), &supported)); err != nil {
		return false, err
	}
	return supported == vk.True, nil
}

func (p *PhysicalDevice) SurfaceCapabilities(surface gpu.Surface) (gpu.SurfaceCapabilities, error) {
	var capabilities vk.SurfaceCapabilities
	if err := check("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", vk.GetPhysicalDeviceSurfaceCapabilities(p.Handle, handle[vk.Surface](surface), &capabilities)); err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()

	return gpu.SurfaceCapabilities{
		MinImageCount:    capabilities.MinImageCount,
		MaxImageCount:    capabilities.MaxImageCount,
		CurrentExtent:    extent(capabilities.CurrentExtent),
		MinImageExtent:   extent(capabilities.MinImageExtent),
		MaxImageExtent:   extent(capabilities.MaxImageExtent),
		CurrentTransform: uint32(capabilities.CurrentTransform),
	}, nil
}

func extent(e vk.Extent2D) gpu.Extent2D {
	return gpu.Extent2D{Width: e.Width, Height: e.Height}
}

func (p *PhysicalDevice) SurfaceFormats(surface gpu.Surface) ([]gpu.SurfaceFormat, error) {
	s := handle[vk.Surface](surface)
	var count uint32
	if err := check("vkGetPhysicalDeviceSurfaceFormatsKHR", vk.GetPhysicalDeviceSurfaceFormats(p.Handle, s, &count, nil)); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if count != 0 {
		if err := check("vkGetPhysicalDeviceSurfaceFormatsKHR", vk.GetPhysicalDeviceSurfaceFormats(p.Handle, s, &count, formats)); err != nil {
			return nil, err
		}
	}
	out := make([]gpu.SurfaceFormat, 0, count)
	for i := range formats[:count] {
		formats[i].Deref()
		out = append(out, gpu.SurfaceFormat{
			Format:     gpu.Format(formats[i].Format),
			ColorSpace: gpu.ColorSpace(formats[i].ColorSpace),
		})
	}
	return out, nil
}

func (p *PhysicalDevice) PresentModes(surface gpu.Surface) ([]gpu.PresentMode, error) {
	s := handle[vk.Surface](surface)
	var count uint32
	if err := check("vkGetPhysicalDeviceSurfacePresentModesKHR", vk.GetPhysicalDeviceSurfacePresentModes(p.Handle, s, &count, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if count != 0 {
		if err := check("vkGetPhysicalDeviceSurfacePresentModesKHR", vk.GetPhysicalDeviceSurfacePresentModes(p.Handle, s, &count, modes)); err != nil {
			return nil, err
		}
	}
	out := make([]gpu.PresentMode, 0, count)
	for _, m := range modes[:count] {
		out = append(out, gpu.PresentMode(m))
	}
	return out, nil
}

func (p *PhysicalDevice) CreateDevice(info gpu.DeviceCreateInfo) (gpu.Device, error) {
	core.LogInfo("Creating logical device...")

	// NOTE: one queue per unique family, shared indices get no extra queue.
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(info.QueueFamilies))
	for i, family := range info.QueueFamilies {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{
		SamplerAnisotropy: boolean(info.SamplerAnisotropy),
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(info.Extensions)),
		PpEnabledExtensionNames: safeStrings(info.Extensions),
	}

	var logical vk.Device
	if err := check("vkCreateDevice", vk.CreateDevice(p.Handle, &deviceCreateInfo, nil, &logical)); err != nil {
		return nil, err
	}
	core.LogInfo("Logical device created.")

	return &Device{
		Handle: logical,
		queues: newQueueLocks(),
	}, nil
}
