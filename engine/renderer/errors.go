package renderer

import "github.com/pkg/errors"

var (
	ErrNoSuitableGPU         = errors.New("no suitable GPU")
	ErrNoMemoryType          = errors.New("failed to find suitable memory type")
	ErrUnsupportedTransition = errors.New("unsupported layout transition")
	ErrNoDepthFormat         = errors.New("failed to find a supported depth format")
	ErrSurfaceFormatChanged  = errors.New("surface format changed across swapchain rebuild")
	ErrWindowClosed          = errors.New("window closed")
	ErrEmptyMesh             = errors.New("mesh has no vertices or indices")
	ErrMissingTexture        = errors.New("textured layout needs a texture")
	ErrSwapchainOutOfDate    = errors.New("swapchain out of date")
)
