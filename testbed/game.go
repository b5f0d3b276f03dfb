package testbed

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine"
	"github.com/spaghettifunk/vkscene/engine/assets"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
	"github.com/spaghettifunk/vkscene/engine/systems"
)

const (
	floorTexture = "floor.png"
	modelFile    = "model.obj"
	// Radians per second.
	modelSpin = 0.5
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	engine *engine.Engine

	texture   *renderer.Texture
	modelData *metadata.MeshData
	floor     *renderer.Mesh
	model     *renderer.Mesh
	err       error

	width  int
	height int
}

func NewTestGame(configPath string) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				StartPosX:  100,
				StartPosY:  100,
				ConfigPath: configPath,
				Layouts:    []renderer.VertexLayout{renderer.VertexPosColorTex, renderer.VertexPosColorTexNormal},
			},
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

// Initialize decodes the floor texture and the model on the job system.
// The scene is built on the render thread as the results come in: a
// textured 10x10 floor and, when the resources contain one, a lit model
// standing on it.
func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogInfo("initializing testbed...")
	state := g.state()
	state.engine = e

	if err := e.Jobs().Submit(systems.JobTask{
		Name: floorTexture,
		Run: func() (interface{}, error) {
			image, err := e.Assets().LoadImage(floorTexture, false)
			if errors.Is(err, assets.ErrAssetNotFound) {
				core.LogWarn("Texture %s not found, using a checkerboard.", floorTexture)
				return Checkerboard(256, 32), nil
			}
			return image, err
		},
		OnComplete: func(result interface{}) {
			g.fail(g.buildFloor(result.(*metadata.ImageData)))
		},
		OnFailure: g.fail,
	}); err != nil {
		return err
	}

	return e.Jobs().Submit(systems.JobTask{
		Name: modelFile,
		Run: func() (interface{}, error) {
			data, err := e.Assets().LoadMesh(modelFile)
			if errors.Is(err, assets.ErrAssetNotFound) {
				core.LogInfo("No %s in the resources, drawing the floor only.", modelFile)
				return (*metadata.MeshData)(nil), nil
			}
			return data, err
		},
		OnComplete: func(result interface{}) {
			if data := result.(*metadata.MeshData); data != nil {
				state.modelData = data
				g.fail(g.buildModel())
			}
		},
		OnFailure: g.fail,
	})
}

// fail keeps the first error, Update reports it.
func (g *TestGame) fail(err error) {
	if state := g.state(); err != nil && state.err == nil {
		state.err = err
	}
}

func (g *TestGame) buildFloor(image *metadata.ImageData) error {
	state := g.state()
	r := state.engine.Renderer()

	texture, err := r.CreateTexture(floorTexture, image)
	if err != nil {
		return err
	}
	state.texture = texture

	floor, err := renderer.NewMesh("floor", Quad())
	if err != nil {
		return err
	}
	floor.Scale(mgl32.Vec3{10, 1, 10})
	floor.SetTexture(texture, false)

	cfg, err := state.engine.PipelineConfig(renderer.VertexPosColorTex, "textured")
	if err != nil {
		return err
	}
	floorSet := renderer.NewRenderableSet("floor", cfg)
	floorSet.Add(floor)
	if err := r.AddRenderableSet(floorSet); err != nil {
		return err
	}
	state.floor = floor
	return g.buildModel()
}

// buildModel adds the model once both its geometry and the texture it
// shares with the floor are available.
func (g *TestGame) buildModel() error {
	state := g.state()
	if state.texture == nil || state.modelData == nil || state.model != nil {
		return nil
	}
	model, err := renderer.NewMesh("model", state.modelData)
	if err != nil {
		return err
	}
	model.Translate(mgl32.Vec3{0, 1, 0})
	model.SetTexture(state.texture, false)

	cfg, err := state.engine.PipelineConfig(renderer.VertexPosColorTexNormal, "lit")
	if err != nil {
		return err
	}
	modelSet := renderer.NewRenderableSet("model", cfg)
	modelSet.Add(model)
	if err := state.engine.Renderer().AddRenderableSet(modelSet); err != nil {
		return err
	}
	state.model = model
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()
	if state.err != nil {
		return state.err
	}
	if state.model != nil {
		state.model.Rotate(float32(modelSpin*deltaTime), mgl32.Vec3{0, 1, 0})
	}
	return nil
}

func (g *TestGame) OnResize(width int, height int) error {
	state := g.state()
	state.width = width
	state.height = height
	core.LogDebug("testbed resized to %dx%d", width, height)
	return nil
}

// Shutdown leaves the meshes and the texture to the renderer, which owns
// every set and texture added to it.
func (g *TestGame) Shutdown() error {
	state := g.state()
	state.floor = nil
	state.model = nil
	state.texture = nil
	state.modelData = nil
	core.LogInfo("testbed shut down")
	return nil
}

// Quad is a unit quad in the XZ plane, indices {0,1,2,1,3,2} wound
// counter-clockwise when seen from above.
func Quad() *metadata.MeshData {
	white := mgl32.Vec3{1, 1, 1}
	up := mgl32.Vec3{0, 1, 0}
	return &metadata.MeshData{
		Vertices: []metadata.Vertex{
			{Pos: mgl32.Vec3{-0.5, 0, 0.5}, Color: white, TexCoord: mgl32.Vec2{0, 1}, Normal: up},
			{Pos: mgl32.Vec3{0.5, 0, 0.5}, Color: white, TexCoord: mgl32.Vec2{1, 1}, Normal: up},
			{Pos: mgl32.Vec3{-0.5, 0, -0.5}, Color: white, TexCoord: mgl32.Vec2{0, 0}, Normal: up},
			{Pos: mgl32.Vec3{0.5, 0, -0.5}, Color: white, TexCoord: mgl32.Vec2{1, 0}, Normal: up},
		},
		Indices: []uint32{0, 1, 2, 1, 3, 2},
	}
}

// Checkerboard generates a size x size RGBA8 texture of cell x cell squares.
func Checkerboard(size, cell int) *metadata.ImageData {
	pixels := make([]uint8, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := uint8(64)
			if (x/cell+y/cell)%2 == 0 {
				v = 200
			}
			i := (y*size + x) * 4
			pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = v, v, v, 255
		}
	}
	return &metadata.ImageData{Width: uint32(size), Height: uint32(size), Pixels: pixels}
}
