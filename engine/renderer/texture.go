package renderer

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vkscene/engine/core"
	"github.com/spaghettifunk/vkscene/engine/renderer/gpu"
	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

// TextureFormat is the format decoded images are uploaded with.
const TextureFormat = gpu.FormatR8G8B8A8Srgb

// Texture is a sampled device-local image and its sampler.
type Texture struct {
	device gpu.Device

	ID      uuid.UUID
	Name    string
	Image   *GpuImage
	Sampler gpu.Sampler
}

func NewTexture(alloc *Allocator, name string, data *metadata.ImageData) (*Texture, error) {
	if data == nil || data.Width == 0 || data.Height == 0 {
		return nil, errors.Errorf("texture '%s' has no pixels", name)
	}
	img, err := alloc.UploadImage(data.Pixels, data.Width, data.Height, TextureFormat)
	if err != nil {
		return nil, errors.Wrapf(err, "upload texture '%s'", name)
	}
	sampler, err := alloc.CreateTextureSampler()
	if err != nil {
		img.Destroy()
		return nil, err
	}
	t := &Texture{
		device:  alloc.device.Handle,
		ID:      uuid.New(),
		Name:    name,
		Image:   img,
		Sampler: sampler,
	}
	core.LogDebug("Texture '%s' (%s) created, %dx%d.", name, t.ID, data.Width, data.Height)
	return t, nil
}

func (t *Texture) Destroy() {
	if t == nil || t.Image == nil {
		return
	}
	t.device.DestroySampler(t.Sampler)
	t.Sampler = nil
	t.Image.Destroy()
	t.Image = nil
}
