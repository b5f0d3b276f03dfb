package gpu

import "fmt"

// Result mirrors VkResult, numeric values included, so backends can convert
// with a plain cast.
type Result int32

const (
	Success                   Result = 0
	NotReady                  Result = 1
	Timeout                   Result = 2
	EventSet                  Result = 3
	EventReset                Result = 4
	Incomplete                Result = 5
	ErrorOutOfHostMemory      Result = -1
	ErrorOutOfDeviceMemory    Result = -2
	ErrorInitializationFailed Result = -3
	ErrorDeviceLost           Result = -4
	ErrorMemoryMapFailed      Result = -5
	ErrorLayerNotPresent      Result = -6
	ErrorExtensionNotPresent  Result = -7
	ErrorFeatureNotPresent    Result = -8
	ErrorIncompatibleDriver   Result = -9
	ErrorTooManyObjects       Result = -10
	ErrorFormatNotSupported   Result = -11
	ErrorFragmentedPool       Result = -12
	ErrorUnknown              Result = -13
	ErrorOutOfPoolMemory      Result = -1000069000
	ErrorSurfaceLost          Result = -1000000000
	ErrorNativeWindowInUse    Result = -1000000001
	Suboptimal                Result = 1000001003
	ErrorOutOfDate            Result = -1000001004
	ErrorIncompatibleDisplay  Result = -1000003001
	ErrorValidationFailed     Result = -1000011001
)

type resultText struct {
	name string
	desc string
}

// From: https://registry.khronos.org/vulkan/specs/1.3-extensions/man/html/VkResult.html
var resultTexts = map[Result]resultText{
	Success:                   {"VK_SUCCESS", "Command successfully completed"},
	NotReady:                  {"VK_NOT_READY", "A fence or query has not yet completed"},
	Timeout:                   {"VK_TIMEOUT", "A wait operation has not completed in the specified time"},
	EventSet:                  {"VK_EVENT_SET", "An event is signaled"},
	EventReset:                {"VK_EVENT_RESET", "An event is unsignaled"},
	Incomplete:                {"VK_INCOMPLETE", "A return array was too small for the result"},
	Suboptimal:                {"VK_SUBOPTIMAL_KHR", "A swapchain no longer matches the surface properties exactly, but can still be used to present to the surface successfully."},
	ErrorOutOfHostMemory:      {"VK_ERROR_OUT_OF_HOST_MEMORY", "A host memory allocation has failed."},
	ErrorOutOfDeviceMemory:    {"VK_ERROR_OUT_OF_DEVICE_MEMORY", "A device memory allocation has failed."},
	ErrorInitializationFailed: {"VK_ERROR_INITIALIZATION_FAILED", "Initialization of an object could not be completed for implementation-specific reasons."},
	ErrorDeviceLost:           {"VK_ERROR_DEVICE_LOST", "The logical or physical device has been lost."},
	ErrorMemoryMapFailed:      {"VK_ERROR_MEMORY_MAP_FAILED", "Mapping of a memory object has failed."},
	ErrorLayerNotPresent:      {"VK_ERROR_LAYER_NOT_PRESENT", "A requested layer is not present or could not be loaded."},
	ErrorExtensionNotPresent:  {"VK_ERROR_EXTENSION_NOT_PRESENT", "A requested extension is not supported."},
	ErrorFeatureNotPresent:    {"VK_ERROR_FEATURE_NOT_PRESENT", "A requested feature is not supported."},
	ErrorIncompatibleDriver:   {"VK_ERROR_INCOMPATIBLE_DRIVER", "The requested version of Vulkan is not supported by the driver or is otherwise incompatible."},
	ErrorTooManyObjects:       {"VK_ERROR_TOO_MANY_OBJECTS", "Too many objects of the type have already been created."},
	ErrorFormatNotSupported:   {"VK_ERROR_FORMAT_NOT_SUPPORTED", "A requested format is not supported on this device."},
	ErrorFragmentedPool:       {"VK_ERROR_FRAGMENTED_POOL", "A pool allocation has failed due to fragmentation of the pool's memory."},
	ErrorUnknown:              {"VK_ERROR_UNKNOWN", "An unknown error has occurred."},
	ErrorOutOfPoolMemory:      {"VK_ERROR_OUT_OF_POOL_MEMORY", "A pool memory allocation has failed."},
	ErrorSurfaceLost:          {"VK_ERROR_SURFACE_LOST_KHR", "A surface is no longer available."},
	ErrorNativeWindowInUse:    {"VK_ERROR_NATIVE_WINDOW_IN_USE_KHR", "The requested window is already in use by Vulkan or another API."},
	ErrorOutOfDate:            {"VK_ERROR_OUT_OF_DATE_KHR", "A surface has changed in such a way that it is no longer compatible with the swapchain."},
	ErrorIncompatibleDisplay:  {"VK_ERROR_INCOMPATIBLE_DISPLAY_KHR", "The display used by a swapchain does not use the same presentable image layout."},
	ErrorValidationFailed:     {"VK_ERROR_VALIDATION_FAILED_EXT", "A command failed because invalid usage was detected."},
}

func (r Result) String() string {
	return r.Text(false)
}

// Text returns the symbolic name of the result, followed by its description
// when extended is set.
func (r Result) Text(extended bool) string {
	t, ok := resultTexts[r]
	if !ok {
		return fmt.Sprintf("VkResult(%d)", int32(r))
	}
	if extended {
		return t.name + " " + t.desc
	}
	return t.name
}

// IsSuccess reports whether r is one of the non-error codes. Note that
// Suboptimal counts as success.
func (r Result) IsSuccess() bool {
	return r >= 0
}

// Error is returned by every backend call that fails with a Result.
type Error struct {
	Op     string
	Result Result
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Result.Text(true))
}

// Check turns a non-success result into an *Error.
func Check(op string, r Result) error {
	if r == Success {
		return nil
	}
	return &Error{Op: op, Result: r}
}
