package service

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	xdraw "golang.org/x/image/draw"
)

const jpegQuality = 85

// Thumbnailer derives thumbnails against a fixed target box.
type Thumbnailer struct {
	Width  int
	Height int
}

func NewThumbnailer(width, height int) *Thumbnailer {
	return &Thumbnailer{Width: width, Height: height}
}

// Derive returns the thumbnail for src, or nil when the original already
// fits inside the box and can be served as its own thumbnail.
//
// When only one dimension overflows, the overflowing axis is
// center-cropped and the other kept as-is. When both overflow, the image
// is resampled to exactly the box size. Aspect ratio is NOT preserved in
// that last case; thumbnails issued before this service looked like that,
// so the distortion is kept for compatibility.
func (t *Thumbnailer) Derive(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	switch {
	case w <= t.Width && h <= t.Height:
		return nil

	case w <= t.Width:
		// Clip top and bottom
		top := (h - t.Height) / 2
		dst := image.NewRGBA(image.Rect(0, 0, w, t.Height))
		draw.Draw(dst, dst.Bounds(), src, image.Pt(b.Min.X, b.Min.Y+top), draw.Src)
		return dst

	case h <= t.Height:
		// Clip left and right
		left := (w - t.Width) / 2
		dst := image.NewRGBA(image.Rect(0, 0, t.Width, h))
		draw.Draw(dst, dst.Bounds(), src, image.Pt(b.Min.X+left, b.Min.Y), draw.Src)
		return dst

	default:
		dst := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
		return dst
	}
}

// EncodeJPEG re-encodes a derived thumbnail. Thumbnails are always stored
// as JPEG regardless of the source format.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer

	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail, %w", err)
	}

	return buf.Bytes(), nil
}
