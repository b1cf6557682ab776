// Package texture decodes image resources into scene textures.
package texture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/PrimozLavric/LogiPathTracer/asset"
	"github.com/PrimozLavric/LogiPathTracer/scene"
)

var ErrUnsupportedImage = errors.New("texture: unsupported image type")

// Number of leading bytes filetype needs to identify a payload.
const sniffLen = 261

var supported = map[string]bool{
	"png":  true,
	"jpg":  true,
	"bmp":  true,
	"tif":  true,
	"webp": true,
}

// Load decodes res into a texture without a sampler. 8-bit images become
// Rgba8 (or Luminance8 for grayscale) and 16-bit images are widened to
// float formats. Rows are flipped so that V=0 addresses the bottom row.
func Load(res *asset.Resource) (*scene.Texture, error) {
	r := bufio.NewReaderSize(res, sniffLen)
	head, _ := r.Peek(sniffLen)

	kind, err := filetype.Match(head)
	if err != nil || !supported[kind.Extension] {
		return nil, fmt.Errorf("%w: %s (detected %q)", ErrUnsupportedImage, res.Path(), kind.Extension)
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("texture: decoding %s: %w", res.Path(), err)
	}

	out, err := convert(img)
	if err != nil {
		return nil, fmt.Errorf("texture: %s: %w", res.Path(), err)
	}
	return &scene.Texture{Name: res.Path(), Image: out}, nil
}

func convert(img image.Image) (*scene.Image, error) {
	bounds := img.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())

	switch img.(type) {
	case *image.Gray:
		flipped := transform.FlipV(img)
		pixels := make([]byte, 0, width*height)
		for i := 0; i < len(flipped.Pix); i += 4 {
			pixels = append(pixels, flipped.Pix[i])
		}
		return scene.NewImage(width, height, scene.Luminance8, pixels)
	case *image.Gray16:
		return scene.NewImage(width, height, scene.Luminance32F, floatPixels(img, 1))
	case *image.RGBA64, *image.NRGBA64:
		return scene.NewImage(width, height, scene.Rgba32F, floatPixels(img, 4))
	}

	// Flip the normalized copy so the source image is left untouched.
	flipped := transform.FlipV(clone.AsRGBA(img))
	return scene.NewImage(width, height, scene.Rgba8, flipped.Pix)
}

// floatPixels reads img bottom row first into little-endian float32
// channels. Channels is 1 for luminance and 4 for RGBA.
func floatPixels(img image.Image, channels int) []byte {
	bounds := img.Bounds()
	out := make([]byte, 0, bounds.Dx()*bounds.Dy()*channels*4)
	put := func(v uint32) {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(v)/0xFFFF))
	}

	for y := bounds.Max.Y - 1; y >= bounds.Min.Y; y-- {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBA64Model.Convert(img.At(x, y)).(color.RGBA64)
			put(uint32(c.R))
			if channels == 4 {
				put(uint32(c.G))
				put(uint32(c.B))
				put(uint32(c.A))
			}
		}
	}
	return out
}
