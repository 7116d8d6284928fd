// Package validators contains input validation that runs before anything
// touches the database or the blob store
package validators

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"

	_ "golang.org/x/image/webp"
)

var (
	ErrUnknownType     = errors.New("cannot determine file type")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTypeMismatch    = errors.New("file content does not match its extension")
)

// Extension allow-list mapping to the content type the extension claims.
// WebP is gated behind upload.allow_webp
var allowedTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Canonical extension per decoded format, used for storage keys so that
// .jpeg and .jpg uploads end up under the same convention
var canonicalExt = map[string]string{
	"png":  "png",
	"jpeg": "jpg",
	"gif":  "gif",
	"webp": "webp",
}

type ValidatedImage struct {
	Image image.Image

	// Canonical extension (png, jpg, gif, webp)
	Extension string

	// Content type matching the sniffed format
	MIME string

	Width    int
	Height   int
	Filesize int64
}

// ValidateImage checks an upload before it is allowed anywhere near
// storage. The declared extension only selects the expected type; the
// actual format is sniffed from the bytes, so renaming evil.exe to
// cat.png gets rejected instead of stored.
func ValidateImage(filename string, data []byte) (*ValidatedImage, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		return nil, ErrUnknownType
	}

	declared, ok := allowedTypes[ext]
	if !ok {
		return nil, ErrUnsupportedType
	}

	if ext == "webp" && !viper.GetBool("upload.allow_webp") {
		return nil, ErrUnsupportedType
	}

	// Never trust the extension or any client-supplied content type
	if !mimetype.Detect(data).Is(declared) {
		return nil, ErrTypeMismatch
	}

	// A buffer that sniffs right but fails to decode is corrupt or
	// truncated; reject it like any other bad upload
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w, %v", ErrTypeMismatch, err)
	}

	canonical, ok := canonicalExt[format]
	if !ok {
		// Decoder registrations and the allow-list moved out of sync
		return nil, ErrUnsupportedType
	}

	bounds := img.Bounds()

	return &ValidatedImage{
		Image:     img,
		Extension: canonical,
		MIME:      declared,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Filesize:  int64(len(data)),
	}, nil
}
