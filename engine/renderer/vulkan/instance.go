// Package vulkan implements the gpu interfaces on top of the Vulkan driver.
package vulkan

import (
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

const (
	validationLayerName      = "VK_LAYER_KHRONOS_validation"
	portabilityEnumeration   = "VK_KHR_portability_enumeration"
	physicalDeviceProperties = "VK_KHR_get_physical_device_properties2"
	// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
	enumeratePortabilityBit vk.InstanceCreateFlags = 0x1
)

// SurfaceWindow is the part of a glfw window the instance needs.
// *glfw.Window satisfies it.
type SurfaceWindow interface {
	GetRequiredInstanceExtensions() []string
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (surface uintptr, err error)
}

type InstanceConfig struct {
	ApplicationName string
	// EnableValidation turns on the Khronos validation layer and routes its
	// reports to the engine log.
	EnableValidation bool
}

/**
 * @brief The Vulkan instance together with the surface of the window it
 * was created for.
 */
type Instance struct {
	Handle  vk.Instance
	surface vk.Surface
	debug   vk.DebugReportCallback
}

func NewInstance(config InstanceConfig, window SurfaceWindow) (*Instance, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return nil, errors.New("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize vk")
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   safeString(config.ApplicationName),
		PEngineName:        safeString("vkscene"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	extensions := window.GetRequiredInstanceExtensions()
	if runtime.GOOS == "darwin" {
		extensions = append(extensions, portabilityEnumeration, physicalDeviceProperties)
		createInfo.Flags |= enumeratePortabilityBit
	}

	var layers []string
	validation := config.EnableValidation
	if validation {
		if !layerAvailable(validationLayerName) {
			core.LogWarn("Validation layer %s is missing, continuing without it.", validationLayerName)
			validation = false
		} else {
			layers = append(layers, validationLayerName)
			extensions = append(extensions, vk.ExtDebugReportExtensionName)
		}
	}

	core.LogInfo("Required extensions:")
	for _, name := range extensions {
		core.LogInfo(name)
	}

	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = safeStrings(extensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = safeStrings(layers)

	instance := &Instance{}
	if err := check("vkCreateInstance", vk.CreateInstance(&createInfo, nil, &instance.Handle)); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(instance.Handle); err != nil {
		vk.DestroyInstance(instance.Handle, nil)
		return nil, errors.Wrap(err, "failed to initialize the instance function table")
	}
	core.LogInfo("Vulkan Instance created.")

	if validation {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: debugCallback,
		}
		if err := check("vkCreateDebugReportCallbackEXT", vk.CreateDebugReportCallback(instance.Handle, &debugCreateInfo, nil, &instance.debug)); err != nil {
			instance.Destroy()
			return nil, err
		}
		core.LogDebug("Vulkan debugger created.")
	}

	surface, err := window.CreateWindowSurface(instance.Handle, nil)
	if err != nil {
		instance.Destroy()
		return nil, errors.Wrap(err, "vulkan surface creation failed")
	}
	instance.surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	return instance, nil
}

func layerAvailable(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return false
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		if vk.ToString(available[i].LayerName[:]) == name {
			return true
		}
	}
	return false
}

func (i *Instance) PhysicalDevices() ([]gpu.PhysicalDevice, error) {
	var count uint32
	if err := check("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(i.Handle, &count, nil)); err != nil {
		return nil, err
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := check("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(i.Handle, &count, devices)); err != nil {
		return nil, err
	}
	out := make([]gpu.PhysicalDevice, 0, count)
	for _, d := range devices[:count] {
		out = append(out, &PhysicalDevice{Handle: d})
	}
	return out, nil
}

func (i *Instance) Surface() gpu.Surface {
	return i.surface
}

func (i *Instance) Destroy() {
	if i.surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(i.Handle, i.surface, nil)
		i.surface = vk.NullSurface
	}
	if i.debug != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(i.Handle, i.debug, nil)
		i.debug = vk.NullDebugReportCallback
	}
	if i.Handle != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(i.Handle, nil)
		i.Handle = nil
	}
}

func debugCallback(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
