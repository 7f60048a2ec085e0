// Package photo shrinks operator-uploaded photos before they are sent
// to the backend, mirroring the canvas-based compression the Mini-App
// performs in the browser.
package photo

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Uploads may arrive as PNG.
)

const (
	// MaxDimension caps the longer image side after downscaling.
	MaxDimension = 1280

	// DefaultMaxBytes is the payload budget used when callers pass 0.
	DefaultMaxBytes = 300 << 10

	startQuality = 85
	minQuality   = 40
	qualityStep  = 10
)

// Compress decodes a JPEG or PNG photo, downscales it so the longer side
// does not exceed MaxDimension, and re-encodes it as JPEG, stepping the
// quality down until the result fits maxBytes (or the quality floor is
// reached, in which case the smallest attempt is returned).
func Compress(data []byte, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}

	img = downscale(img, MaxDimension)

	var smallest []byte
	for quality := startQuality; quality >= minQuality; quality -= qualityStep {
		var buf bytes.Buffer
		if err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode photo: %w", err)
		}

		encoded := buf.Bytes()
		if len(encoded) <= maxBytes {
			return encoded, nil
		}

		if smallest == nil || len(encoded) < len(smallest) {
			smallest = encoded
		}
	}

	return smallest, nil
}

// downscale box-averages the image so its longer side is at most limit.
// Averaging whole source boxes keeps the result free of the aliasing a
// nearest-neighbor pick would produce.
func downscale(src image.Image, limit int) image.Image {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	longer := max(width, height)
	if longer <= limit {
		return src
	}

	outWidth := width * limit / longer
	outHeight := height * limit / longer
	if outWidth < 1 {
		outWidth = 1
	}
	if outHeight < 1 {
		outHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, outWidth, outHeight))

	for y := range outHeight {
		srcY0 := bounds.Min.Y + y*height/outHeight
		srcY1 := bounds.Min.Y + (y+1)*height/outHeight
		if srcY1 <= srcY0 {
			srcY1 = srcY0 + 1
		}

		for x := range outWidth {
			srcX0 := bounds.Min.X + x*width/outWidth
			srcX1 := bounds.Min.X + (x+1)*width/outWidth
			if srcX1 <= srcX0 {
				srcX1 = srcX0 + 1
			}

			var r, g, b, a uint64
			count := uint64((srcX1 - srcX0) * (srcY1 - srcY0))

			for sy := srcY0; sy < srcY1; sy++ {
				for sx := srcX0; sx < srcX1; sx++ {
					pr, pg, pb, pa := src.At(sx, sy).RGBA()
					r += uint64(pr)
					g += uint64(pg)
					b += uint64(pb)
					a += uint64(pa)
				}
			}

			offset := dst.PixOffset(x, y)
			dst.Pix[offset] = uint8(r / count >> 8)
			dst.Pix[offset+1] = uint8(g / count >> 8)
			dst.Pix[offset+2] = uint8(b / count >> 8)
			dst.Pix[offset+3] = uint8(a / count >> 8)
		}
	}

	return dst
}
