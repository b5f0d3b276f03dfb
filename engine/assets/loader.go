package assets

import "github.com/spaghettifunk/vkscene/engine/renderer/metadata"

type Loader interface {
	// Load reads the file at path. params is loader specific and may be nil.
	Load(path string, name string, params interface{}) (*metadata.Resource, error)
	Unload(*metadata.Resource) error
}
