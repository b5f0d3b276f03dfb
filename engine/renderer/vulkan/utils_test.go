package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

func TestSafeString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "\x00"},
		{"main", "main\x00"},
		{"main\x00", "main\x00"},
	}
	for _, tt := range tests {
		if got := safeString(tt.in); got != tt.want {
			t.Errorf("safeString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSafeStringsKeepsInput(t *testing.T) {
	in := []string{"VK_KHR_swapchain"}
	out := safeStrings(in)
	if in[0] != "VK_KHR_swapchain" || out[0] != "VK_KHR_swapchain\x00" {
		t.Errorf("in %q out %q", in, out)
	}
}

func TestCheck(t *testing.T) {
	if err := check("vkCreateFence", vk.Success); err != nil {
		t.Fatalf("success returned %v", err)
	}
	err := check("vkQueuePresentKHR", vk.ErrorOutOfDate)
	var gerr *gpu.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error %v is not a *gpu.Error", err)
	}
	if gerr.Op != "vkQueuePresentKHR" || gerr.Result != gpu.ErrorOutOfDate {
		t.Errorf("got %+v", gerr)
	}
}

func TestHandleOfNull(t *testing.T) {
	if got := handle[vk.Fence](nil); got != vk.NullFence {
		t.Errorf("nil fence = %v", got)
	}
	if got := handles[vk.Semaphore]([]gpu.Semaphore{}); got != nil {
		t.Errorf("empty list = %v", got)
	}
}
