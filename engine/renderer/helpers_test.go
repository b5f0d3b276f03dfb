package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu/gputest"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

var testShader = []uint32{0x07230203, 0x00010000, 0, 1, 0}

type fixture struct {
	r      *Renderer
	phys   *gputest.PhysicalDevice
	dev    *gputest.Device
	window *gputest.Window
	bus    *core.EventBus
}

// newFixture builds a renderer on a single fake discrete GPU with an
// 800x600 window. setup runs before the renderer is created.
func newFixture(t *testing.T, setup func(phys *gputest.PhysicalDevice, window *gputest.Window)) *fixture {
	t.Helper()
	phys := gputest.NewPhysicalDevice("fake discrete", gpu.PhysicalDeviceTypeDiscreteGpu)
	window := gputest.NewWindow(800, 600)
	if setup != nil {
		setup(phys, window)
	}
	bus := core.NewEventBus()
	r, err := New(core.DefaultConfig(), gputest.NewInstance(phys), window, bus, DefaultRequirements(VertexPosColorTexNormal))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{r: r, phys: phys, dev: phys.Created, window: window, bus: bus}
}

func (f *fixture) checkProblems(t *testing.T) {
	t.Helper()
	if p := f.dev.Problems(); len(p) > 0 {
		t.Errorf("device problems: %v", p)
	}
}

// quadData is a unit quad in the XZ plane drawn as two triangles.
func quadData() *metadata.MeshData {
	white := mgl32.Vec3{1, 1, 1}
	up := mgl32.Vec3{0, 1, 0}
	return &metadata.MeshData{
		Vertices: []metadata.Vertex{
			{Pos: mgl32.Vec3{-0.5, 0, -0.5}, Color: white, TexCoord: mgl32.Vec2{0, 0}, Normal: up},
			{Pos: mgl32.Vec3{0.5, 0, -0.5}, Color: white, TexCoord: mgl32.Vec2{1, 0}, Normal: up},
			{Pos: mgl32.Vec3{-0.5, 0, 0.5}, Color: white, TexCoord: mgl32.Vec2{0, 1}, Normal: up},
			{Pos: mgl32.Vec3{0.5, 0, 0.5}, Color: white, TexCoord: mgl32.Vec2{1, 1}, Normal: up},
		},
		Indices: []uint32{0, 1, 2, 1, 3, 2},
	}
}

func checkerImage(width, height uint32) *metadata.ImageData {
	pixels := make([]uint8, width*height*4)
	for i := range pixels {
		pixels[i] = uint8(i)
	}
	return &metadata.ImageData{Width: width, Height: height, Pixels: pixels}
}

// addLitQuad adds a renderable set with one textured, lit quad.
func (f *fixture) addLitQuad(t *testing.T) *Mesh {
	t.Helper()
	tex, err := f.r.CreateTexture("checker", checkerImage(4, 4))
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	mesh, err := NewMesh("floor", quadData())
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	mesh.SetTexture(tex, false)
	mesh.Scale(mgl32.Vec3{10, 1, 10})

	set := NewRenderableSet("lit", PipelineConfig{
		Layout:         VertexPosColorTexNormal,
		VertexShader:   testShader,
		FragmentShader: testShader,
	})
	set.Add(mesh)
	if err := f.r.AddRenderableSet(set); err != nil {
		t.Fatalf("AddRenderableSet: %v", err)
	}
	return mesh
}

func testScene() *SceneUniforms {
	return &SceneUniforms{
		View: mgl32.LookAtV(mgl32.Vec3{0, 5, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		Proj: mgl32.Ident4(),
	}
}

// drawSubmissions returns the submissions made with a fence, i.e. frames.
func drawSubmissions(dev *gputest.Device) []gputest.Submission {
	var out []gputest.Submission
	for _, s := range dev.Submissions() {
		if s.Fence != nil {
			out = append(out, s)
		}
	}
	return out
}

// newTestDevice selects the given physical device and creates a logical
// device on it without a swapchain.
func newTestDevice(t *testing.T, phys *gputest.PhysicalDevice) (*LogicalDevice, *gputest.Device) {
	t.Helper()
	instance := gputest.NewInstance(phys)
	candidate, err := SelectPhysicalDevice(instance, instance.Surface(), DefaultRequirements(VertexPosColor))
	if err != nil {
		t.Fatalf("SelectPhysicalDevice: %v", err)
	}
	device, err := NewLogicalDevice(candidate, false)
	if err != nil {
		t.Fatalf("NewLogicalDevice: %v", err)
	}
	return device, phys.Created
}
