package loaders

import (
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/vkscene/engine/renderer/metadata"
)

type ImageLoader struct{}

// Load decodes any registered format into tightly packed RGBA8 pixels.
// params may be a *metadata.ImageParams.
func (il *ImageLoader) Load(path string, name string, params interface{}) (*metadata.Resource, error) {
	var flip bool
	if p, ok := params.(*metadata.ImageParams); ok && p != nil {
		flip = p.FlipY
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer file.Close()

	im, format, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode image %s", path)
	}

	data := DecodeRGBA(im, flip)
	return &metadata.Resource{
		Type:     metadata.ResourceTypeImage,
		Name:     name + "." + format,
		FullPath: path,
		DataSize: uint64(len(data.Pixels)),
		Data:     data,
	}, nil
}

func (il *ImageLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

// DecodeRGBA converts an image to RGBA8 with the origin at the top left,
// or at the bottom left when flip is set.
func DecodeRGBA(im image.Image, flip bool) *metadata.ImageData {
	bounds := im.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), im, bounds.Min, draw.Src)

	width, height := bounds.Dx(), bounds.Dy()
	rowSize := width * 4
	pixels := make([]uint8, rowSize*height)
	for y := 0; y < height; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+rowSize]
		dstRow := y
		if flip {
			dstRow = height - 1 - y
		}
		copy(pixels[dstRow*rowSize:], src)
	}

	return &metadata.ImageData{
		Width:  uint32(width),
		Height: uint32(height),
		Pixels: pixels,
	}
}
