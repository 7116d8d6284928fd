// Package repository wraps all database access for media records
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mizuki/media-api/internal/model"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no record exists for a hash ID
	ErrNotFound = errors.New("media not found")

	// ErrDuplicateID is returned when an insert hits the uniqueness
	// constraint on hash_id. The allocator recovers from this one by
	// retrying with a longer ID, everything else propagates
	ErrDuplicateID = errors.New("media id already taken")
)

// ListOptions controls pagination of media listings.
type ListOptions struct {
	// Exclusive upper bound on the uploaded timestamp. Records sharing
	// this exact timestamp are skipped, which is acceptable because
	// uploads get sub-second precision timestamps
	Before *time.Time

	Limit int

	// When false, private media is filtered out of the listing
	IncludePrivate bool
}

// MediaRepository is the durable record store. The database's uniqueness
// constraint on hash_id is the only arbitration point for ID allocation,
// so concurrent writers (even across processes) are serialized correctly
// without any in-process locking.
type MediaRepository interface {
	Insert(ctx context.Context, m *model.Media) error
	Get(ctx context.Context, hashID string) (*model.Media, error)
	List(ctx context.Context, opts ListOptions) ([]model.Media, error)
	Update(ctx context.Context, hashID string, comment *string, private *bool) (*model.Media, error)
	Delete(ctx context.Context, hashID string) error
	Count(ctx context.Context) (int64, error)
}

type GormMediaRepository struct {
	db *gorm.DB
}

// NewGormMediaRepository expects a connection opened with
// TranslateError so that constraint violations surface as
// gorm.ErrDuplicatedKey regardless of the driver.
func NewGormMediaRepository(db *gorm.DB) *GormMediaRepository {
	return &GormMediaRepository{db: db}
}

func (r *GormMediaRepository) Insert(ctx context.Context, m *model.Media) error {
	err := r.db.WithContext(ctx).Create(m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateID
		}

		return fmt.Errorf("failed to insert media record, %w", err)
	}

	return nil
}

func (r *GormMediaRepository) Get(ctx context.Context, hashID string) (*model.Media, error) {
	var m model.Media

	err := r.db.
		WithContext(ctx).
		Where("hash_id = ?", hashID).
		First(&m).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to fetch media record, %w", err)
	}

	return &m, nil
}

func (r *GormMediaRepository) List(ctx context.Context, opts ListOptions) ([]model.Media, error) {
	q := r.db.
		WithContext(ctx).
		Order("uploaded DESC")

	if opts.Before != nil {
		q = q.Where("uploaded < ?", *opts.Before)
	}

	if !opts.IncludePrivate {
		q = q.Where("private = ?", false)
	}

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var media []model.Media

	if err := q.Find(&media).Error; err != nil {
		return nil, fmt.Errorf("failed to list media records, %w", err)
	}

	return media, nil
}

// Update mutates only the comment and privacy flag. Nil fields are left
// untouched, so callers can change either one independently. The row is
// re-read after the write, so the returned record reflects what is
// actually stored even when the update raced a delete.
func (r *GormMediaRepository) Update(ctx context.Context, hashID string, comment *string, private *bool) (*model.Media, error) {
	changes := map[string]any{}
	if comment != nil {
		changes["comment"] = *comment
	}

	if private != nil {
		changes["private"] = *private
	}

	if len(changes) > 0 {
		res := r.db.
			WithContext(ctx).
			Model(&model.Media{}).
			Where("hash_id = ?", hashID).
			Updates(changes)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update media record, %w", res.Error)
		}

		// Zero matched rows means the id never existed or a delete
		// got there first; either way the update did not happen
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return r.Get(ctx, hashID)
}

func (r *GormMediaRepository) Delete(ctx context.Context, hashID string) error {
	res := r.db.
		WithContext(ctx).
		Where("hash_id = ?", hashID).
		Delete(&model.Media{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete media record, %w", res.Error)
	}

	// Deleting an unknown or already-deleted ID is reported, not
	// swallowed. Delete is deliberately not idempotent
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *GormMediaRepository) Count(ctx context.Context) (int64, error) {
	var n int64

	err := r.db.
		WithContext(ctx).
		Model(&model.Media{}).
		Count(&n).
		Error
	if err != nil {
		return 0, fmt.Errorf("failed to count media records, %w", err)
	}

	return n, nil
}
