package math

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform accumulates a model matrix. Every operation is applied on the
// right, so the last call acts first on the vertices.
type Transform struct {
	local mgl32.Mat4
}

func NewTransform() *Transform {
	return &Transform{local: mgl32.Ident4()}
}

func (t *Transform) Translate(v mgl32.Vec3) {
	t.local = t.local.Mul4(mgl32.Translate3D(v.X(), v.Y(), v.Z()))
}

// Rotate rotates by angle radians around axis.
func (t *Transform) Rotate(angle float32, axis mgl32.Vec3) {
	t.local = t.local.Mul4(mgl32.HomogRotate3D(angle, axis.Normalize()))
}

func (t *Transform) Scale(v mgl32.Vec3) {
	t.local = t.local.Mul4(mgl32.Scale3D(v.X(), v.Y(), v.Z()))
}

func (t *Transform) Reset() {
	t.local = mgl32.Ident4()
}

func (t *Transform) Matrix() mgl32.Mat4 {
	return t.local
}

// PerspectiveZO builds a right handed projection with a [0, 1] depth range
// and the Y axis pointing down, as Vulkan clip space expects.
func PerspectiveZO(fovy, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1.0 / stdmath.Tan(float64(fovy)/2.0))
	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = -f
	m[10] = far / (near - far)
	m[11] = -1
	m[14] = -(far * near) / (far - near)
	return m
}
