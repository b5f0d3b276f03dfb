package renderer

import (
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/math"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
)

type SwapchainState int

const (
	SwapchainUninitialized SwapchainState = iota
	SwapchainActive
	// SwapchainStale means the surface no longer matches and a rebuild is due.
	SwapchainStale
	SwapchainDestroyed
)

func (s SwapchainState) String() string {
	switch s {
	case SwapchainActive:
		return "active"
	case SwapchainStale:
		return "stale"
	case SwapchainDestroyed:
		return "destroyed"
	}
	return "uninitialized"
}

// SwapImage is one presentable image with the objects derived from it.
type SwapImage struct {
	Image       gpu.Image
	View        gpu.ImageView
	Framebuffer gpu.Framebuffer
}

// Swapchain owns the presentable images of the window surface, their
// views, the shared depth attachment and one framebuffer per image.
type Swapchain struct {
	device  *LogicalDevice
	alloc   *Allocator
	surface gpu.Surface
	window  Window

	State         SwapchainState
	Handle        gpu.Swapchain
	SurfaceFormat gpu.SurfaceFormat
	PresentMode   gpu.PresentMode
	Extent        gpu.Extent2D
	Images        []SwapImage
	Depth         *GpuImage
}

func NewSwapchain(device *LogicalDevice, alloc *Allocator, surface gpu.Surface, window Window) *Swapchain {
	return &Swapchain{
		device:  device,
		alloc:   alloc,
		surface: surface,
		window:  window,
	}
}

// ImageCount is the number of images the driver actually created.
func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

func (s *Swapchain) AspectRatio() float32 {
	if s.Extent.Height == 0 {
		return 1
	}
	return float32(s.Extent.Width) / float32(s.Extent.Height)
}

// Build creates the swapchain, its views and the depth attachment. While the
// window has no drawable area it blocks in Window.WaitEvents. A rebuild must
// keep the surface format chosen by the first build, the render pass and
// pipelines depend on it.
func (s *Swapchain) Build() error {
	support, extent, err := s.waitForDrawableArea()
	if err != nil {
		return err
	}

	format := chooseSurfaceFormat(support.Formats)
	if s.SurfaceFormat.Format != gpu.FormatUndefined && format != s.SurfaceFormat {
		core.LogError("Surface format changed from %d to %d.", s.SurfaceFormat.Format, format.Format)
		return errors.Wrapf(ErrSurfaceFormatChanged, "%d -> %d", s.SurfaceFormat.Format, format.Format)
	}

	presentMode := choosePresentMode(support.PresentModes)
	imageCount := chooseImageCount(support.Capabilities)

	var td teardown
	defer td.run()

	dev := s.device.Handle
	info := gpu.SwapchainCreateInfo{
		Surface:       s.surface,
		MinImageCount: imageCount,
		Format:        format.Format,
		ColorSpace:    format.ColorSpace,
		Extent:        extent,
		ImageUsage:    gpu.ImageUsageColorAttachment,
		PreTransform:  support.Capabilities.CurrentTransform,
		PresentMode:   presentMode,
	}
	if s.device.GraphicsFamily != s.device.PresentFamily {
		info.QueueFamilies = s.device.QueueFamilies()
	}
	handle, err := dev.CreateSwapchain(info)
	if err != nil {
		core.LogError("failed to create swapchain")
		return errors.Wrap(err, "create swapchain")
	}
	td.push(func() { dev.DestroySwapchain(handle) })

	images, err := dev.SwapchainImages(handle)
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}

	swapImages := make([]SwapImage, len(images))
	for i, img := range images {
		view, err := CreateImageView(dev, img, format.Format, gpu.ImageAspectColor)
		if err != nil {
			return err
		}
		td.push(func() { dev.DestroyImageView(view) })
		swapImages[i] = SwapImage{Image: img, View: view}
	}

	depth, err := s.alloc.CreateImage(ImageInfo{
		Width:      extent.Width,
		Height:     extent.Height,
		Format:     s.device.DepthFormat,
		Tiling:     gpu.ImageTilingOptimal,
		Usage:      gpu.ImageUsageDepthStencilAttachment,
		Properties: gpu.MemoryPropertyDeviceLocal,
		Aspect:     gpu.ImageAspectDepth,
	})
	if err != nil {
		return errors.Wrap(err, "create depth attachment")
	}
	td.push(depth.Destroy)
	if err := s.alloc.TransitionImageLayout(depth.Handle, depth.Format, gpu.ImageLayoutUndefined, gpu.ImageLayoutDepthStencilAttachmentOptimal); err != nil {
		return err
	}

	td.disarm()
	s.Handle = handle
	s.SurfaceFormat = format
	s.PresentMode = presentMode
	s.Extent = extent
	s.Images = swapImages
	s.Depth = depth
	s.State = SwapchainActive

	core.LogInfo("Swapchain created: %dx%d, %d images, %s.", extent.Width, extent.Height, len(swapImages), presentMode)
	return nil
}

// CreateFramebuffers creates one framebuffer per image: the image view as
// color attachment and the shared depth view.
func (s *Swapchain) CreateFramebuffers(renderPass gpu.RenderPass) error {
	dev := s.device.Handle
	for i := range s.Images {
		fb, err := dev.CreateFramebuffer(gpu.FramebufferCreateInfo{
			RenderPass:  renderPass,
			Attachments: []gpu.ImageView{s.Images[i].View, s.Depth.View},
			Width:       s.Extent.Width,
			Height:      s.Extent.Height,
		})
		if err != nil {
			s.destroyFramebuffers()
			return errors.Wrap(err, "create framebuffer")
		}
		s.Images[i].Framebuffer = fb
	}
	return nil
}

func (s *Swapchain) destroyFramebuffers() {
	for i := range s.Images {
		if s.Images[i].Framebuffer != nil {
			s.device.Handle.DestroyFramebuffer(s.Images[i].Framebuffer)
			s.Images[i].Framebuffer = nil
		}
	}
}

// Release destroys every swapchain-dependent object and marks the swapchain
// stale. The chosen surface format is kept for the next Build.
func (s *Swapchain) Release() {
	if s.State != SwapchainActive {
		return
	}
	dev := s.device.Handle
	s.destroyFramebuffers()
	s.Depth.Destroy()
	s.Depth = nil
	// The images themselves belong to the swapchain.
	for _, img := range s.Images {
		dev.DestroyImageView(img.View)
	}
	s.Images = nil
	dev.DestroySwapchain(s.Handle)
	s.Handle = nil
	s.State = SwapchainStale
}

func (s *Swapchain) Destroy() {
	s.Release()
	s.State = SwapchainDestroyed
}

// waitForDrawableArea blocks until both the window and the surface report a
// non-zero size and returns the fresh support info with the extent to use.
func (s *Swapchain) waitForDrawableArea() (SwapchainSupportInfo, gpu.Extent2D, error) {
	for {
		width, height := s.window.FramebufferSize()
		if width > 0 && height > 0 {
			support, err := s.device.Physical.QuerySwapchainSupport(s.surface)
			if err != nil {
				return support, gpu.Extent2D{}, err
			}
			extent := chooseExtent(support.Capabilities, width, height)
			if extent.Width > 0 && extent.Height > 0 {
				return support, extent, nil
			}
		}
		if s.window.ShouldClose() {
			return SwapchainSupportInfo{}, gpu.Extent2D{}, ErrWindowClosed
		}
		s.window.WaitEvents()
	}
}

func chooseSurfaceFormat(formats []gpu.SurfaceFormat) gpu.SurfaceFormat {
	for _, f := range formats {
		if f.Format == gpu.FormatB8G8R8A8Srgb && f.ColorSpace == gpu.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

func choosePresentMode(modes []gpu.PresentMode) gpu.PresentMode {
	for _, m := range modes {
		if m == gpu.PresentModeMailbox {
			return m
		}
	}
	return gpu.PresentModeFifo
}

// chooseExtent uses the surface extent unless the surface leaves the choice
// to the swapchain, then the window size clamped to the allowed range.
func chooseExtent(caps gpu.SurfaceCapabilities, width, height int) gpu.Extent2D {
	if caps.CurrentExtent.Width != gpu.MaxUint32 {
		return caps.CurrentExtent
	}
	return gpu.Extent2D{
		Width:  math.Clamp(uint32(width), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: math.Clamp(uint32(height), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseImageCount asks for one image above the minimum. A maximum of zero
// means unlimited.
func chooseImageCount(caps gpu.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}
