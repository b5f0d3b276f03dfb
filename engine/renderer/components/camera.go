package components

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/math"
)

/** @brief Pitch limit in degrees, avoids flipping over the up axis. */
const pitchLimit float32 = 89.0

var worldUp = mgl32.Vec3{0, 1, 0}

/**
 * @brief A first person camera driven by yaw and pitch angles. Movement is
 * applied per frame, mouse look per cursor event.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position mgl32.Vec3
	/** @brief Rotation around the up axis, in degrees. */
	YawDegrees float32
	/** @brief Rotation above or below the horizon, in degrees. */
	PitchDegrees float32

	/** @brief Distance travelled per frame while a movement key is held. */
	Speed float32
	/** @brief Degrees turned per pixel of mouse movement. */
	Sensitivity float32

	/** @brief Vertical field of view in degrees. */
	FovY float32
	Near float32
	Far  float32

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: Do not read this directly, use GetView() instead.
	 */
	ViewMatrix mgl32.Mat4

	firstMouse bool
	lastX      float64
	lastY      float64
}

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

// Reset places the camera above the origin looking down at it.
func (c *Camera) Reset() {
	c.Position = mgl32.Vec3{0, 5, 5}
	c.YawDegrees = 0
	c.PitchDegrees = -pitchLimit
	c.Speed = 0.2
	c.Sensitivity = 0.1
	c.FovY = 45
	c.Near = 0.1
	c.Far = 999999
	c.firstMouse = true
	c.IsDirty = true
}

func (c *Camera) GetPosition() mgl32.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.Position = position
	c.IsDirty = true
}

// Direction is the unit vector the camera looks along.
func (c *Camera) Direction() mgl32.Vec3 {
	yaw := float64(math.DegToRad(c.YawDegrees))
	pitch := float64(math.DegToRad(c.PitchDegrees))
	return mgl32.Vec3{
		float32(stdmath.Cos(yaw) * stdmath.Cos(pitch)),
		float32(stdmath.Sin(pitch)),
		float32(stdmath.Sin(yaw) * stdmath.Cos(pitch)),
	}.Normalize()
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.Direction().Cross(worldUp).Normalize()
}

func (c *Camera) GetView() mgl32.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = mgl32.LookAtV(c.Position, c.Position.Add(c.Direction()), worldUp)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

// Projection returns the Vulkan clip space projection for the aspect ratio.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return math.PerspectiveZO(math.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

func (c *Camera) move(direction mgl32.Vec3, amount float32) {
	c.Position = c.Position.Add(direction.Mul(amount))
	c.IsDirty = true
}

func (c *Camera) MoveForward(amount float32) {
	c.move(c.Direction(), amount)
}

func (c *Camera) MoveBackward(amount float32) {
	c.move(c.Direction(), -amount)
}

func (c *Camera) MoveLeft(amount float32) {
	c.move(c.Right(), -amount)
}

func (c *Camera) MoveRight(amount float32) {
	c.move(c.Right(), amount)
}

func (c *Camera) MoveUp(amount float32) {
	c.move(worldUp, amount)
}

func (c *Camera) MoveDown(amount float32) {
	c.move(worldUp, -amount)
}

func (c *Camera) Yaw(amount float32) {
	c.YawDegrees += amount
	c.IsDirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.PitchDegrees = math.Clamp(c.PitchDegrees+amount, -pitchLimit, pitchLimit)
	c.IsDirty = true
}

// Update applies the movement keys held this frame.
func (c *Camera) Update(input *core.InputState) {
	if input.IsKeyDown(core.KEY_W) {
		c.MoveForward(c.Speed)
	}
	if input.IsKeyDown(core.KEY_S) {
		c.MoveBackward(c.Speed)
	}
	if input.IsKeyDown(core.KEY_A) {
		c.MoveLeft(c.Speed)
	}
	if input.IsKeyDown(core.KEY_D) {
		c.MoveRight(c.Speed)
	}
	if input.IsKeyDown(core.KEY_SPACE) {
		c.MoveUp(c.Speed)
	}
	if input.IsKeyDown(core.KEY_TAB) {
		c.MoveDown(c.Speed)
	}
}

// OnMouseMoved turns the camera by the cursor offset since the previous
// event. The first event only records the position.
func (c *Camera) OnMouseMoved(e core.MouseMoved) bool {
	if c.firstMouse {
		c.lastX, c.lastY = e.X, e.Y
		c.firstMouse = false
		return false
	}
	offsetX := float32(e.X-c.lastX) * c.Sensitivity
	// Window coordinates grow downwards.
	offsetY := float32(c.lastY-e.Y) * c.Sensitivity
	c.lastX, c.lastY = e.X, e.Y

	c.Yaw(offsetX)
	c.Pitch(offsetY)
	return false
}

// Attach subscribes the camera to cursor events.
func (c *Camera) Attach(bus *core.EventBus) (detach func()) {
	return core.Subscribe(bus, c.OnMouseMoved)
}
