package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

var end = "\x00"
var endChar byte = '\x00'

// safeString null terminates s for the C side.
func safeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}

// check converts a failed call into a *gpu.Error carrying the call name.
func check(op string, result vk.Result) error {
	if err := gpu.Check(op, gpu.Result(result)); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// handle unwraps an opaque gpu handle. The null handle maps to the zero
// value of T.
func handle[T any](h any) T {
	if v, ok := h.(T); ok {
		return v
	}
	var zero T
	return zero
}

func handles[T any, H any](in []H) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	for i := range in {
		out[i] = handle[T](in[i])
	}
	return out
}

func boolean(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
