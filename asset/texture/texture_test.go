package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PrimozLavric/LogiPathTracer/asset"
	"github.com/PrimozLavric/LogiPathTracer/scene"
)

func TestRgba8TextureIsFlipped(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})

	tex, err := Load(mockImage(t, img))
	if err != nil {
		t.Fatal(err)
	}

	if tex.Image.Width != 1 || tex.Image.Height != 2 {
		t.Fatalf("expected tex dims to be 1x2; got %dx%d", tex.Image.Width, tex.Image.Height)
	}
	if tex.Image.Format != scene.Rgba8 {
		t.Fatalf("expected tex format to be %s; got %s", scene.Rgba8, tex.Image.Format)
	}
	if tex.Sampler != nil {
		t.Fatal("expected decoded texture to have no sampler")
	}

	exp := []byte{0, 0, 255, 255, 255, 0, 0, 255}
	if !bytes.Equal(tex.Image.Pixels, exp) {
		t.Fatalf("expected bottom row first %v; got %v", exp, tex.Image.Pixels)
	}
}

func TestPalettedTextureIsExpanded(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{color.Black, color.White})
	img.SetColorIndex(1, 0, 1)

	tex, err := Load(mockImage(t, img))
	if err != nil {
		t.Fatal(err)
	}
	if tex.Image.Format != scene.Rgba8 || len(tex.Image.Pixels) != 8 {
		t.Fatalf("expected 2 rgba8 texels; got %s with %d bytes", tex.Image.Format, len(tex.Image.Pixels))
	}
	if tex.Image.Pixels[4] != 255 || tex.Image.Pixels[0] != 0 {
		t.Fatalf("expected black then white texels; got %v", tex.Image.Pixels)
	}
}

func TestGrayTexture(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(1, 1, color.Gray{Y: 200})

	tex, err := Load(mockImage(t, img))
	if err != nil {
		t.Fatal(err)
	}
	if tex.Image.Format != scene.Luminance8 {
		t.Fatalf("expected tex format to be %s; got %s", scene.Luminance8, tex.Image.Format)
	}
	if exp := []byte{0, 200, 0, 0}; !bytes.Equal(tex.Image.Pixels, exp) {
		t.Fatalf("expected pixels %v; got %v", exp, tex.Image.Pixels)
	}
}

func TestRgba64TextureIsWidened(t *testing.T) {
	img := image.NewRGBA64(image.Rect(0, 0, 1, 1))
	img.SetRGBA64(0, 0, color.RGBA64{R: 0xFFFF, A: 0xFFFF})

	tex, err := Load(mockImage(t, img))
	if err != nil {
		t.Fatal(err)
	}
	if tex.Image.Format != scene.Rgba32F {
		t.Fatalf("expected tex format to be %s; got %s", scene.Rgba32F, tex.Image.Format)
	}
	if expLen := 4 * 4; len(tex.Image.Pixels) != expLen {
		t.Fatalf("expected tex data len to be %d; got %d", expLen, len(tex.Image.Pixels))
	}
	if r := math.Float32frombits(binary.LittleEndian.Uint32(tex.Image.Pixels)); r != 1 {
		t.Fatalf("expected red channel 1.0; got %f", r)
	}
}

func TestUnsupportedPayload(t *testing.T) {
	res := asset.NewResourceFromStream("notes.txt", bytes.NewReader([]byte("not an image")))
	_, err := Load(res)
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage; got %v", err)
	}
}

func TestStreamHttpTexture(t *testing.T) {
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/texture.png" {
			png.Encode(w, image.NewRGBA(image.Rect(0, 0, 4, 4)))
			return
		}
		http.NotFound(w, r)
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	res, err := asset.NewResource(server.URL+"/texture.png", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	tex, err := Load(res)
	if err != nil {
		t.Fatal(err)
	}
	if tex.Image.Width != 4 || tex.Image.Height != 4 {
		t.Fatalf("expected tex dims to be 4x4; got %dx%d", tex.Image.Width, tex.Image.Height)
	}
}

func mockImage(t *testing.T, img image.Image) *asset.Resource {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return asset.NewResourceFromStream("test.png", &buf)
}
