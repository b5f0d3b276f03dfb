package renderer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu/gputest"
)

func TestChooseExtent(t *testing.T) {
	caps := gpu.SurfaceCapabilities{
		MinImageExtent: gpu.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: gpu.Extent2D{Width: 1920, Height: 1080},
	}
	undefined := gpu.Extent2D{Width: gpu.MaxUint32, Height: gpu.MaxUint32}

	tests := []struct {
		name          string
		current       gpu.Extent2D
		width, height int
		want          gpu.Extent2D
	}{
		{"defined extent wins", gpu.Extent2D{Width: 800, Height: 600}, 1024, 768, gpu.Extent2D{Width: 800, Height: 600}},
		{"window size inside range", undefined, 1024, 768, gpu.Extent2D{Width: 1024, Height: 768}},
		{"clamped to max", undefined, 4000, 3000, gpu.Extent2D{Width: 1920, Height: 1080}},
		{"clamped to min", undefined, 10, 20, gpu.Extent2D{Width: 64, Height: 64}},
		{"mixed", undefined, 10, 5000, gpu.Extent2D{Width: 64, Height: 1080}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := caps
			c.CurrentExtent = tt.current
			got := chooseExtent(c, tt.width, tt.height)
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if tt.current.Width == gpu.MaxUint32 {
				if got.Width < c.MinImageExtent.Width || got.Width > c.MaxImageExtent.Width ||
					got.Height < c.MinImageExtent.Height || got.Height > c.MaxImageExtent.Height {
					t.Errorf("%v outside [%v, %v]", got, c.MinImageExtent, c.MaxImageExtent)
				}
			}
		})
	}
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max uint32
		want     uint32
	}{
		{2, 8, 3},
		{2, 0, 3},
		{3, 3, 3},
		{1, 2, 2},
	}
	for _, tt := range tests {
		got := chooseImageCount(gpu.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max})
		if got != tt.want {
			t.Errorf("min %d max %d: got %d, want %d", tt.min, tt.max, got, tt.want)
		}
	}
}

func TestChooseSurfaceFormatAndPresentMode(t *testing.T) {
	unorm := gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8Unorm, ColorSpace: gpu.ColorSpaceSrgbNonlinear}
	srgb := gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8Srgb, ColorSpace: gpu.ColorSpaceSrgbNonlinear}

	if got := chooseSurfaceFormat([]gpu.SurfaceFormat{unorm, srgb}); got != srgb {
		t.Errorf("got %v, want srgb", got)
	}
	if got := chooseSurfaceFormat([]gpu.SurfaceFormat{unorm}); got != unorm {
		t.Errorf("got %v, want first reported", got)
	}
	if got := choosePresentMode([]gpu.PresentMode{gpu.PresentModeFifo, gpu.PresentModeMailbox}); got != gpu.PresentModeMailbox {
		t.Errorf("got %v, want mailbox", got)
	}
	if got := choosePresentMode([]gpu.PresentMode{gpu.PresentModeImmediate}); got != gpu.PresentModeFifo {
		t.Errorf("got %v, want fifo", got)
	}
}

func TestSwapchainInitialBuild(t *testing.T) {
	f := newFixture(t, nil)
	sc := f.r.Swapchain

	if sc.State != SwapchainActive {
		t.Errorf("state = %s", sc.State)
	}
	if sc.ImageCount() != 3 {
		t.Errorf("image count = %d, want min+1 = 3", sc.ImageCount())
	}
	if sc.SurfaceFormat.Format != gpu.FormatB8G8R8A8Srgb || sc.PresentMode != gpu.PresentModeMailbox {
		t.Errorf("format %d, present mode %s", sc.SurfaceFormat.Format, sc.PresentMode)
	}
	if sc.Extent != (gpu.Extent2D{Width: 800, Height: 600}) {
		t.Errorf("extent = %v", sc.Extent)
	}
	for i, img := range sc.Images {
		if img.View == nil || img.Framebuffer == nil {
			t.Errorf("image %d lacks view or framebuffer", i)
		}
	}
	if sc.Depth == nil || sc.Depth.Format != gpu.FormatD32Sfloat {
		t.Errorf("depth attachment = %+v", sc.Depth)
	}
	f.checkProblems(t)
}

func TestSwapchainWaitsForDrawableArea(t *testing.T) {
	var phys *gputest.PhysicalDevice
	var creationsWhileZero int
	f := newFixture(t, func(p *gputest.PhysicalDevice, w *gputest.Window) {
		phys = p
		p.FollowWindow(w)
		w.SetSize(0, 0)
		w.OnWaitEvents = func(w *gputest.Window, calls int) {
			creationsWhileZero += phys.Created.CallCount("CreateSwapchain")
			if calls == 3 {
				w.SetSize(640, 480)
			}
		}
	})

	if creationsWhileZero != 0 {
		t.Errorf("CreateSwapchain called %d times while minimized", creationsWhileZero)
	}
	if f.window.WaitCalls() != 3 {
		t.Errorf("WaitEvents called %d times, want 3", f.window.WaitCalls())
	}
	if got := f.r.Swapchain.Extent; got != (gpu.Extent2D{Width: 640, Height: 480}) {
		t.Errorf("extent = %v, want 640x480", got)
	}
	if n := f.dev.CallCount("CreateSwapchain"); n != 1 {
		t.Errorf("CreateSwapchain called %d times, want 1", n)
	}
	f.checkProblems(t)
}

func TestRebuildWaitsWhileMinimized(t *testing.T) {
	f := newFixture(t, func(p *gputest.PhysicalDevice, w *gputest.Window) {
		p.FollowWindow(w)
	})
	f.addLitQuad(t)

	creationsBefore := f.dev.CallCount("CreateSwapchain")
	f.window.SetSize(0, 0)
	f.window.OnWaitEvents = func(w *gputest.Window, calls int) {
		if n := f.dev.CallCount("CreateSwapchain"); n != creationsBefore {
			t.Errorf("swapchain created while minimized (%d calls)", n-creationsBefore)
		}
		if calls == 2 {
			w.SetSize(1024, 768)
		}
	}
	core.Publish(f.bus, core.WindowResized{Width: 0, Height: 0})

	if err := f.r.DrawFrame(testScene()); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	if f.r.Rebuilds() != 1 {
		t.Errorf("rebuilds = %d, want 1", f.r.Rebuilds())
	}
	if got := f.r.Swapchain.Extent; got != (gpu.Extent2D{Width: 1024, Height: 768}) {
		t.Errorf("extent = %v", got)
	}
	f.checkProblems(t)
}

func TestRebuildRejectsFormatChange(t *testing.T) {
	f := newFixture(t, nil)
	f.phys.Formats = []gpu.SurfaceFormat{{Format: gpu.FormatB8G8R8A8Unorm, ColorSpace: gpu.ColorSpaceSrgbNonlinear}}

	err := f.r.RebuildSwapchain()
	if !errors.Is(err, ErrSurfaceFormatChanged) {
		t.Errorf("got %v, want ErrSurfaceFormatChanged", err)
	}
}

func TestSwapchainClosedWhileMinimized(t *testing.T) {
	f := newFixture(t, func(p *gputest.PhysicalDevice, w *gputest.Window) {
		p.FollowWindow(w)
	})
	f.window.SetSize(0, 0)
	f.window.OnWaitEvents = func(w *gputest.Window, calls int) {
		w.RequestClose()
	}
	if err := f.r.RebuildSwapchain(); !errors.Is(err, ErrWindowClosed) {
		t.Errorf("got %v, want ErrWindowClosed", err)
	}
}
