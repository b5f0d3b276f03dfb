package metadata

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

/**
 * @brief Transform block bound at binding 0, vertex stage.
 */
type UniformBufferObject struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

const UniformBufferObjectSize = uint64(unsafe.Sizeof(UniformBufferObject{}))

func (u *UniformBufferObject) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(u)), UniformBufferObjectSize)
}

/**
 * @brief Directional light block bound at binding 1, fragment stage.
 * The padding keeps Color on a 16 byte boundary as std140 requires.
 */
type LightUniformObject struct {
	AmbientIntensity float32
	DiffuseIntensity float32
	_                [2]float32
	Color            mgl32.Vec4
	Direction        mgl32.Vec4
}

const LightUniformObjectSize = uint64(unsafe.Sizeof(LightUniformObject{}))

func (l *LightUniformObject) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(l)), LightUniformObjectSize)
}
