package metadata

type ResourceType int

/** @brief Resource types known to the asset manager. */
const (
	/** @brief Unknown file, not indexed. */
	ResourceTypeNone ResourceType = iota
	/** @brief Precompiled SPIR-V shader stage. */
	ResourceTypeShader
	/** @brief Image decoded into RGBA8 pixels. */
	ResourceTypeImage
	/** @brief Wavefront OBJ model. */
	ResourceTypeMesh
	/** @brief Plain text, e.g. the renderer configuration. */
	ResourceTypeText
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeMesh:
		return "mesh"
	case ResourceTypeText:
		return "text"
	}
	return "none"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The type of the loader which handled this resource. */
	Type ResourceType
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/**
	 * @brief The resource data: []uint32 for shaders, *ImageData for images
	 * and *MeshData for meshes.
	 */
	Data interface{}
}
