package metadata

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

/**
 * @brief The vertex format shared by every pipeline variant. Variants
 * only differ in the attributes they read from it.
 */
type Vertex struct {
	Pos      mgl32.Vec3
	Color    mgl32.Vec3
	TexCoord mgl32.Vec2
	Normal   mgl32.Vec3
}

/** @brief Stride of a Vertex in a vertex buffer. */
const VertexSize = uint32(unsafe.Sizeof(Vertex{}))

/** @brief Byte offsets of the Vertex attributes. */
const (
	VertexOffsetPos      = uint32(unsafe.Offsetof(Vertex{}.Pos))
	VertexOffsetColor    = uint32(unsafe.Offsetof(Vertex{}.Color))
	VertexOffsetTexCoord = uint32(unsafe.Offsetof(Vertex{}.TexCoord))
	VertexOffsetNormal   = uint32(unsafe.Offsetof(Vertex{}.Normal))
)

/**
 * @brief Geometry produced by the model loader.
 */
type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

// AsBytes reinterprets a slice of plain values as raw bytes without copying.
func AsBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}
