package renderer

import (
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

// Renderer owns the device and every object created on it. All methods must
// be called from the thread driving the window.
type Renderer struct {
	config core.RendererConfig
	events *core.EventBus
	window Window

	Instance   gpu.Instance
	Device     *LogicalDevice
	Allocator  *Allocator
	Swapchain  *Swapchain
	RenderPass *RenderPass
	Sets       []*RenderableSet
	Textures   []*Texture

	frames   *FrameScheduler
	rebuilds int

	unsubscribe func()
	td          teardown
}

// New selects a GPU, creates the logical device, the swapchain for the
// window, the render pass and the frame slots. On failure everything built
// so far, the instance included, is released.
func New(config core.RendererConfig, instance gpu.Instance, window Window, events *core.EventBus, req PhysicalDeviceRequirements) (*Renderer, error) {
	if err := config.Validate(); err != nil {
		instance.Destroy()
		return nil, err
	}
	r := &Renderer{
		config:   config,
		events:   events,
		window:   window,
		Instance: instance,
	}
	r.td.push(instance.Destroy)

	if err := r.initialize(req); err != nil {
		r.td.run()
		return nil, err
	}
	core.LogInfo("Vulkan renderer initialized successfully.")
	return r, nil
}

func (r *Renderer) initialize(req PhysicalDeviceRequirements) error {
	surface := r.Instance.Surface()
	physical, err := SelectPhysicalDevice(r.Instance, surface, req)
	if err != nil {
		return err
	}

	device, err := NewLogicalDevice(physical, req.SamplerAnisotropy)
	if err != nil {
		return err
	}
	r.Device = device
	r.td.push(device.Destroy)
	r.Allocator = NewAllocator(device)

	r.Swapchain = NewSwapchain(device, r.Allocator, surface, r.window)
	if err := r.Swapchain.Build(); err != nil {
		return err
	}
	r.td.push(r.Swapchain.Destroy)

	rp, err := NewRenderPass(device, r.Swapchain.SurfaceFormat.Format, r.config.ClearColor)
	if err != nil {
		return err
	}
	r.RenderPass = rp
	r.td.push(rp.Destroy)

	if err := r.Swapchain.CreateFramebuffers(rp.Handle); err != nil {
		return err
	}

	frames, err := newFrameScheduler(device, r.config.MaxFramesInFlight, r.Swapchain.ImageCount())
	if err != nil {
		return err
	}
	r.frames = frames
	r.td.push(frames.destroy)

	if r.events != nil {
		r.unsubscribe = core.Subscribe(r.events, func(e core.WindowResized) bool {
			core.LogDebug("Window resized to %dx%d.", e.Width, e.Height)
			r.frames.notifyResize()
			return false
		})
		r.td.push(r.unsubscribe)
	}
	return nil
}

// MaxFramesInFlight is the number of frame slots.
func (r *Renderer) MaxFramesInFlight() int {
	return len(r.frames.Slots)
}

// Rebuilds counts completed swapchain rebuilds.
func (r *Renderer) Rebuilds() int {
	return r.rebuilds
}

func (r *Renderer) AspectRatio() float32 {
	return r.Swapchain.AspectRatio()
}

// CreateTexture uploads a decoded image. The renderer owns the texture and
// destroys it after every mesh at shutdown, so it may be shared.
func (r *Renderer) CreateTexture(name string, data *metadata.ImageData) (*Texture, error) {
	t, err := NewTexture(r.Allocator, name, data)
	if err != nil {
		return nil, err
	}
	r.Textures = append(r.Textures, t)
	return t, nil
}

// AddRenderableSet uploads the meshes of set, builds its pipeline and the
// per-image resources of every mesh.
func (r *Renderer) AddRenderableSet(set *RenderableSet) error {
	if set.Config.Layout.Textured() && !r.Device.Physical.Features.SamplerAnisotropy {
		core.LogWarn("Renderable set '%s' samples textures without anisotropic filtering.", set.Name)
	}
	if err := set.upload(r.Allocator); err != nil {
		set.Destroy()
		return err
	}
	if err := set.buildPipeline(r.Device, r.RenderPass, r.Swapchain.Extent); err != nil {
		set.Destroy()
		return err
	}
	if err := set.createImageResources(r.Allocator, r.Swapchain.ImageCount()); err != nil {
		set.Destroy()
		return err
	}
	r.Sets = append(r.Sets, set)
	core.LogInfo("Renderable set '%s' added: %d objects, layout %s.", set.Name, len(set.Objects), set.Config.Layout)
	return nil
}

// RebuildSwapchain recreates every swapchain-dependent object. The render
// pass and the pipelines are kept. It blocks while the window has no
// drawable area.
func (r *Renderer) RebuildSwapchain() error {
	if err := r.Device.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait device idle")
	}

	r.frames.freeCommandBuffers()
	for _, set := range r.Sets {
		set.releaseImageResources()
	}
	r.Swapchain.Release()

	if err := r.Swapchain.Build(); err != nil {
		return err
	}
	if err := r.Swapchain.CreateFramebuffers(r.RenderPass.Handle); err != nil {
		return err
	}
	if err := r.frames.allocateCommandBuffers(); err != nil {
		return err
	}
	imageCount := r.Swapchain.ImageCount()
	for _, set := range r.Sets {
		if err := set.createImageResources(r.Allocator, imageCount); err != nil {
			return err
		}
	}
	r.frames.resetImages(imageCount)
	// A resize that arrived while rebuilding is already accounted for.
	r.frames.takeResize()

	r.rebuilds++
	core.LogDebug("Swapchain rebuilt (%d), extent %dx%d.", r.rebuilds, r.Swapchain.Extent.Width, r.Swapchain.Extent.Height)
	return nil
}

// Shutdown waits for the device to go idle and destroys everything in
// reverse order of creation.
func (r *Renderer) Shutdown() {
	core.LogInfo("Shutting down renderer...")
	if err := r.Device.WaitIdle(); err != nil {
		core.LogError("wait device idle on shutdown: %s", err)
	}
	for i := len(r.Sets) - 1; i >= 0; i-- {
		r.Sets[i].Destroy()
	}
	r.Sets = nil
	for i := len(r.Textures) - 1; i >= 0; i-- {
		r.Textures[i].Destroy()
	}
	r.Textures = nil
	r.td.run()
	core.LogInfo("Renderer shut down.")
}
