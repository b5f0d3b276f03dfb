package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

/**
 * @brief A light infinitely far away, shining along Direction.
 */
type DirectionalLight struct {
	Direction        mgl32.Vec3
	Color            mgl32.Vec4
	AmbientIntensity float32
	DiffuseIntensity float32
}

func NewDirectionalLight() *DirectionalLight {
	return &DirectionalLight{
		Direction:        mgl32.Vec3{1, 1, 0},
		Color:            mgl32.Vec4{1, 1, 1, 1},
		AmbientIntensity: 0.4,
		DiffuseIntensity: 0.6,
	}
}

// Uniform returns the block bound to the lit pipeline.
func (l *DirectionalLight) Uniform() metadata.LightUniformObject {
	return metadata.LightUniformObject{
		AmbientIntensity: l.AmbientIntensity,
		DiffuseIntensity: l.DiffuseIntensity,
		Color:            l.Color,
		Direction:        l.Direction.Vec4(0),
	}
}
