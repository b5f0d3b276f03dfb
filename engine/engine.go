package engine

import (
	"runtime"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/assets"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/platform"
	"github.com/spaghettifunk/vkscene/engine/renderer"
	"github.com/spaghettifunk/vkscene/engine/renderer/components"
	"github.com/spaghettifunk/vkscene/engine/renderer/vulkan"
	"github.com/spaghettifunk/vkscene/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const (
	// Seconds between two frame time reports.
	metricsInterval = 5.0
	jobQueueSize    = 64
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       core.RendererConfig
	isSuspended  bool

	// Set from any goroutine, read by the loop once per iteration.
	closeRequested atomic.Bool

	events       *core.EventBus
	input        *core.InputState
	platform     *platform.Platform
	assetManager *assets.AssetManager
	jobs         *systems.JobSystem
	renderer     *renderer.Renderer

	camera *components.Camera
	light  *components.DirectionalLight

	clock       *core.Clock
	metrics     *core.FrameMetrics
	lastTime    float64
	lastReport  float64
	unsubscribe []func()
}

func New(g *Game) (*Engine, error) {
	cfg, err := g.ApplicationConfig.RendererConfig()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.SetLogLevel(cfg.LogLevel)

	events := core.NewEventBus()
	input := core.NewInputState(events)

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		events:       events,
		input:        input,
		platform:     platform.New(events, input),
		camera:       components.NewCamera(),
		light:        components.NewDirectionalLight(),
		clock:        core.NewClock(),
		metrics:      core.NewFrameMetrics(),
	}, nil
}

// Initialize opens the window, brings up the renderer and lets the game
// build its scene.
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	app := e.gameInstance.ApplicationConfig

	if err := e.platform.Startup(e.config.ApplicationName, app.StartPosX, app.StartPosY,
		e.config.WindowWidth, e.config.WindowHeight); err != nil {
		return err
	}

	am, err := assets.NewAssetManager(e.config.ResourcesDir)
	if err != nil {
		return err
	}
	e.assetManager = am

	js, err := systems.NewJobSystem(max(1, runtime.NumCPU()/2), jobQueueSize)
	if err != nil {
		return err
	}
	e.jobs = js

	instance, err := vulkan.NewInstance(vulkan.InstanceConfig{
		ApplicationName:  e.config.ApplicationName,
		EnableValidation: e.config.EnableValidation,
	}, e.platform.Window)
	if err != nil {
		core.LogError("Failed to create the Vulkan instance: %s", err)
		return err
	}
	r, err := renderer.New(e.config, instance, e.platform, e.events, renderer.DefaultRequirements(app.Layouts...))
	if err != nil {
		core.LogError("Failed to initialize the renderer: %s", err)
		return err
	}
	e.renderer = r

	e.unsubscribe = append(e.unsubscribe,
		core.Subscribe(e.events, e.onKey),
		core.Subscribe(e.events, e.onQuit),
		core.Subscribe(e.events, e.onResized),
		e.camera.Attach(e.events),
	)

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		width, height := e.platform.FramebufferSize()
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives the frame loop until the window is closed. A window closed
// while the renderer waits for a drawable area ends the loop cleanly.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return errors.Wrap(core.ErrNotInitialized, "engine run")
	}
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for !e.platform.ShouldClose() {
		if e.closeRequested.Load() {
			core.LogInfo("Close requested, leaving the frame loop.")
			e.platform.RequestClose()
			break
		}
		if e.isSuspended {
			e.platform.WaitEvents()
			continue
		}
		e.platform.PollEvents()

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := platform.GetAbsoluteTime()

		// Finished jobs hand their results over before the game runs.
		e.jobs.Update()
		e.camera.Update(e.input)
		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("Game update failed, shutting down.")
				return err
			}
		}

		scene := &renderer.SceneUniforms{
			View:  e.camera.GetView(),
			Proj:  e.camera.Projection(e.renderer.AspectRatio()),
			Light: e.light.Uniform(),
		}
		if err := e.renderer.DrawFrame(scene); err != nil {
			if errors.Is(err, renderer.ErrWindowClosed) {
				core.LogInfo("Window closed while waiting for a drawable area.")
				break
			}
			core.LogError("Failed to draw frame: %s", err)
			return err
		}

		frameElapsedTime := platform.GetAbsoluteTime() - frameStartTime
		e.metrics.Update(frameElapsedTime)
		if currentTime-e.lastReport >= metricsInterval {
			core.LogDebug("Frame time %.3fms, %.0f FPS.", e.metrics.FrameTime(), e.metrics.FPS())
			e.lastReport = currentTime
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		e.input.Update()
		e.lastTime = currentTime
	}
	return nil
}

// Shutdown releases everything Initialize created, in reverse order. It
// copes with a partially initialized engine.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	var firstErr error
	if e.jobs != nil {
		firstErr = e.jobs.Shutdown()
		e.jobs = nil
	}
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for i := len(e.unsubscribe) - 1; i >= 0; i-- {
		e.unsubscribe[i]()
	}
	e.unsubscribe = nil

	if e.renderer != nil {
		e.renderer.Shutdown()
		e.renderer = nil
	}
	if e.assetManager != nil {
		if err := e.assetManager.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.assetManager = nil
	}
	if err := e.platform.Shutdown(); err != nil && firstErr == nil {
		firstErr = err
	}
	e.events.Clear()
	e.currentStage = EngineStageUninitialized
	return firstErr
}

// RequestClose ends Run at the start of its next iteration, after the frame
// in progress has been submitted. Safe to call from any goroutine.
func (e *Engine) RequestClose() {
	e.closeRequested.Store(true)
	e.platform.Wake()
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Renderer() *renderer.Renderer {
	return e.renderer
}

func (e *Engine) Assets() *assets.AssetManager {
	return e.assetManager
}

func (e *Engine) Jobs() *systems.JobSystem {
	return e.jobs
}

func (e *Engine) Camera() *components.Camera {
	return e.camera
}

func (e *Engine) Light() *components.DirectionalLight {
	return e.light
}

func (e *Engine) Input() *core.InputState {
	return e.input
}

// PipelineConfig loads the compiled <shader>.vert and <shader>.frag pair.
func (e *Engine) PipelineConfig(layout renderer.VertexLayout, shader string) (renderer.PipelineConfig, error) {
	if e.assetManager == nil {
		return renderer.PipelineConfig{}, errors.Wrapf(core.ErrNotInitialized, "pipeline %s", shader)
	}
	vert, err := e.assetManager.LoadShader(shader + ".vert")
	if err != nil {
		return renderer.PipelineConfig{}, err
	}
	frag, err := e.assetManager.LoadShader(shader + ".frag")
	if err != nil {
		return renderer.PipelineConfig{}, err
	}
	return renderer.PipelineConfig{
		Layout:         layout,
		VertexShader:   vert,
		FragmentShader: frag,
		Wireframe:      e.config.Wireframe,
	}, nil
}

func (e *Engine) onKey(ev core.KeyPressed) bool {
	if ev.Key == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.Publish(e.events, core.ApplicationQuit{})
		// Block anything else from processing this.
		return true
	}
	return false
}

func (e *Engine) onQuit(core.ApplicationQuit) bool {
	core.LogInfo("ApplicationQuit received, shutting down.")
	e.platform.RequestClose()
	return false
}

func (e *Engine) onResized(ev core.WindowResized) bool {
	// Handle minimization
	if ev.Width == 0 || ev.Height == 0 {
		if !e.isSuspended {
			core.LogInfo("Window minimized, suspending application.")
		}
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(ev.Width, ev.Height); err != nil {
			core.LogError(err.Error())
		}
	}
	return false
}
