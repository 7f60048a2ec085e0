package photo

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func gradientImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: uint8((x + y) * 255 / (width + height)),
				A: 255,
			})
		}
	}

	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	return buf.Bytes()
}

func TestCompressDownscalesLargePhotos(t *testing.T) {
	original := encodePNG(t, gradientImage(2000, 1500))

	compressed, err := Compress(original, 0)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("output is not a valid JPEG: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		t.Fatalf("output exceeds max dimension: %dx%d", bounds.Dx(), bounds.Dy())
	}

	// Aspect ratio is preserved (2000:1500 = 4:3).
	if bounds.Dx() != 1280 || bounds.Dy() != 960 {
		t.Fatalf("unexpected output size: %dx%d", bounds.Dx(), bounds.Dy())
	}

	if len(compressed) >= len(original) {
		t.Fatalf("compression grew the payload: %d -> %d", len(original), len(compressed))
	}
}

func TestCompressKeepsSmallPhotosSmall(t *testing.T) {
	original := encodePNG(t, gradientImage(320, 240))

	compressed, err := Compress(original, 0)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("output is not a valid JPEG: %v", err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 320 || bounds.Dy() != 240 {
		t.Fatalf("small photo must not be resized, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestCompressHonorsByteBudget(t *testing.T) {
	original := encodePNG(t, gradientImage(1600, 1200))

	compressed, err := Compress(original, 64<<10)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	// A smooth gradient compresses easily; the budget must be met.
	if len(compressed) > 64<<10 {
		t.Fatalf("budget exceeded: %d bytes", len(compressed))
	}
}

func TestCompressRejectsGarbage(t *testing.T) {
	if _, err := Compress([]byte("not an image"), 0); err == nil {
		t.Fatal("expected decode error")
	}
}
