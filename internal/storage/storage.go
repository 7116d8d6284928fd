// Package storage holds the blob store implementations where media
// artifacts (originals and thumbnails) live
package storage

import "context"

// ArtifactStore is durable byte storage addressed by key. Keys follow the
// convention of OriginalKey and ThumbnailKey and never contain anything
// user-controlled beyond the validated extension.
type ArtifactStore interface {
	Write(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// OriginalKey is where the untouched upload is stored.
func OriginalKey(hashID, extension string) string {
	return hashID + "." + extension
}

// ThumbnailKey is where the derived thumbnail is stored. Thumbnails are
// always re-encoded as JPEG regardless of the source format.
func ThumbnailKey(hashID string) string {
	return "thumbnails/" + hashID + ".jpg"
}
