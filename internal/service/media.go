// Package service implements the media lifecycle: validation, thumbnail
// derivation, id allocation and the create/fetch/list/update/delete flows
package service

import (
	"context"
	"fmt"
	"time"

	"mizuki/media-api/internal/model"
	"mizuki/media-api/internal/repository"
	"mizuki/media-api/internal/storage"
	"mizuki/media-api/pkg/validators"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CreateInput is an upload after the transport layer has unpacked it.
// Multipart parsing never happens in here.
type CreateInput struct {
	Data     []byte
	Filename string
	Private  bool
	Comment  *string
}

// MediaService coordinates the record store and the artifact store.
// The two can fail independently; see Create and Delete for the ordering
// each one commits to.
type MediaService struct {
	repo  repository.MediaRepository
	store storage.ArtifactStore
	alloc *Allocator
	thumb *Thumbnailer
}

func NewMediaService(repo repository.MediaRepository, store storage.ArtifactStore, alloc *Allocator, thumb *Thumbnailer) *MediaService {
	return &MediaService{
		repo:  repo,
		store: store,
		alloc: alloc,
		thumb: thumb,
	}
}

// Create validates the upload, derives a thumbnail, reserves a record
// and writes the artifacts.
//
// The record row is committed before the artifact writes start: the row
// insert is what reserves the hash ID, so it has to come first. If an
// artifact write then fails, the row stays behind without its files.
// That id is logged here so an out-of-band sweep can reconcile; there is
// no automatic rollback.
func (s *MediaService) Create(ctx context.Context, in CreateInput) (*model.Media, error) {
	v, err := validators.ValidateImage(in.Filename, in.Data)
	if err != nil {
		return nil, err
	}

	thumb := s.thumb.Derive(v.Image)

	var thumbData []byte
	if thumb != nil {
		thumbData, err = EncodeJPEG(thumb)
		if err != nil {
			return nil, err
		}
	}

	rec, err := s.alloc.Reserve(ctx, model.Media{
		Extension:    v.Extension,
		HasThumbnail: thumb != nil,
		Private:      in.Private,
		Width:        v.Width,
		Height:       v.Height,
		Filesize:     v.Filesize,
		Comment:      in.Comment,
		Uploaded:     time.Now(),
	})
	if err != nil {
		return nil, err
	}

	// Original and thumbnail are independent writes; run them
	// concurrently but return only after both landed
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.store.Write(gctx, storage.OriginalKey(rec.HashID, rec.Extension), in.Data, v.MIME)
	})

	if thumbData != nil {
		g.Go(func() error {
			return s.store.Write(gctx, storage.ThumbnailKey(rec.HashID), thumbData, "image/jpeg")
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Artifact write failed after record commit, record is orphaned",
			zap.String("hash_id", rec.HashID),
			zap.Error(err))

		return nil, fmt.Errorf("failed to store artifacts for %s, %w", rec.HashID, err)
	}

	zap.L().Info("Media created",
		zap.String("hash_id", rec.HashID),
		zap.String("extension", rec.Extension),
		zap.Bool("thumbnail", rec.HasThumbnail),
		zap.Int64("filesize", rec.Filesize))

	return rec, nil
}

func (s *MediaService) Fetch(ctx context.Context, hashID string) (*model.Media, error) {
	return s.repo.Get(ctx, hashID)
}

func (s *MediaService) List(ctx context.Context, opts repository.ListOptions) ([]model.Media, error) {
	return s.repo.List(ctx, opts)
}

func (s *MediaService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Update mutates comment and privacy only. Artifacts are never touched.
func (s *MediaService) Update(ctx context.Context, hashID string, comment *string, private *bool) (*model.Media, error) {
	return s.repo.Update(ctx, hashID, comment, private)
}

// Delete removes the original artifact, then the thumbnail if one
// exists, then the record row. Artifacts go first so a half-finished
// delete can never leave a record pointing at files that are gone while
// still claiming they exist; the worst case is an orphaned row, which
// the reconciliation sweep picks up.
func (s *MediaService) Delete(ctx context.Context, hashID string) error {
	rec, err := s.repo.Get(ctx, hashID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, storage.OriginalKey(rec.HashID, rec.Extension)); err != nil {
		return err
	}

	if rec.HasThumbnail {
		if err := s.store.Delete(ctx, storage.ThumbnailKey(rec.HashID)); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, hashID); err != nil {
		return err
	}

	zap.L().Info("Media deleted", zap.String("hash_id", hashID))

	return nil
}
