package assets

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/assets/loaders"
	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

var (
	ErrShaderNotFound = errors.New("shader not found")
	ErrAssetNotFound  = errors.New("asset not found")
	ErrNoLoader       = errors.New("no loader registered for resource type")
	ErrClosed         = errors.New("asset manager already closed")
)

// Subdirectories of the resources directory, per resource type.
var typeDirs = map[metadata.ResourceType]string{
	metadata.ResourceTypeShader: "shaders",
	metadata.ResourceTypeImage:  "textures",
	metadata.ResourceTypeMesh:   "models",
}

/**
 * @brief Indexes the files under the resources directory and loads them
 * on request. The index follows the directory through fsnotify, loaded
 * resources are never reloaded.
 */
type AssetManager struct {
	root    string
	assets  map[string]metadata.ResourceType
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	fsnotify *fsnotify.Watcher
	done     chan struct{}
	stopped  chan struct{}
	isClosed bool
}

func NewAssetManager(resourcesDir string) (*AssetManager, error) {
	root, err := filepath.Abs(resourcesDir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create the resources watcher")
	}

	am := &AssetManager{
		root:     root,
		assets:   make(map[string]metadata.ResourceType),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.ImageLoader{})
	am.registerLoader(metadata.ResourceTypeMesh, &loaders.ModelLoader{})

	if err := am.watchRecursive(root); err != nil {
		fsWatch.Close()
		return nil, errors.Wrapf(err, "failed to index %s", root)
	}
	go am.start()

	core.LogInfo("Indexed %d resources under %s.", am.Count(), root)
	return am, nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Count returns the number of indexed files.
func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Path resolves a resource name to the indexed file for that type, e.g.
// ("default.vert", ResourceTypeShader) -> <root>/shaders/default.vert.spv.
func (am *AssetManager) Path(name string, resourceType metadata.ResourceType) (string, error) {
	dir, ok := typeDirs[resourceType]
	if !ok {
		return "", errors.Wrapf(ErrNoLoader, "%s", resourceType)
	}
	file := name
	if resourceType == metadata.ResourceTypeShader {
		file += ".spv"
	}
	path := filepath.Join(am.root, dir, file)

	am.mutex.RLock()
	_, exists := am.assets[path]
	am.mutex.RUnlock()
	if !exists {
		if resourceType == metadata.ResourceTypeShader {
			return "", errors.Wrap(ErrShaderNotFound, path)
		}
		return "", errors.Wrap(ErrAssetNotFound, path)
	}
	return path, nil
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	path, err := am.Path(name, resourceType)
	if err != nil {
		return nil, err
	}
	loader, loaderExists := am.loaders[resourceType]
	if !loaderExists {
		return nil, errors.Wrapf(ErrNoLoader, "%s", resourceType)
	}
	res, err := loader.Load(path, name, params)
	if err != nil {
		core.LogError("Failed to load %s: %v", path, err)
		return nil, err
	}
	return res, nil
}

func (am *AssetManager) UnloadAsset(res *metadata.Resource) error {
	loader, ok := am.loaders[res.Type]
	if !ok {
		return errors.Wrapf(ErrNoLoader, "%s", res.Type)
	}
	return loader.Unload(res)
}

// LoadShader returns the SPIR-V words of a compiled shader stage.
func (am *AssetManager) LoadShader(name string) ([]uint32, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypeShader, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.([]uint32), nil
}

func (am *AssetManager) LoadImage(name string, flipY bool) (*metadata.ImageData, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypeImage, &metadata.ImageParams{FlipY: flipY})
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.ImageData), nil
}

func (am *AssetManager) LoadMesh(name string) (*metadata.MeshData, error) {
	res, err := am.LoadAsset(name, metadata.ResourceTypeMesh, nil)
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.MeshData), nil
}

// Shutdown stops the watcher. It is safe to call more than once.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		s, err := os.Stat(e.Name)
		if err != nil {
			return
		}
		if s.IsDir() {
			if e.Op&fsnotify.Create != 0 {
				if err := am.watchRecursive(e.Name); err != nil {
					core.LogWarn("Failed to watch %s: %v", e.Name, err)
				}
			}
			return
		}
		am.handleFileEvent(e.Name)
	}
	// Can't stat a removed path, so drop it from both the index and the
	// watch list without knowing whether it was a directory.
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		am.removeAsset(e.Name)
		_ = am.fsnotify.Remove(e.Name)
	}
}

// watchRecursive adds all directories under the given one to the watch
// list and indexes the files it finds.
func (am *AssetManager) watchRecursive(path string) error {
	am.mutex.RLock()
	closed := am.isClosed
	am.mutex.RUnlock()
	if closed {
		return ErrClosed
	}
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[path] = assetType
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func determineAssetType(path string) metadata.ResourceType {
	switch filepath.Ext(path) {
	case ".spv":
		return metadata.ResourceTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return metadata.ResourceTypeImage
	case ".obj":
		return metadata.ResourceTypeMesh
	case ".toml":
		return metadata.ResourceTypeText
	default:
		return metadata.ResourceTypeNone
	}
}
