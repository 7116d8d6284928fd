package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"mizuki/media-api/internal/model"
	"mizuki/media-api/internal/repository"

	"go.uber.org/zap"
)

const (
	hashAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	hashMinLength = 6
	maxAllocRetry = 5
)

// ErrAllocationExhausted means every candidate in the retry budget
// collided. Repeated occurrences mean the ID space is filling up and
// somebody should be alarmed
var ErrAllocationExhausted = errors.New("failed to allocate a media id after retries")

// Allocator reserves unique hash IDs by inserting against the store's
// uniqueness constraint. There is no in-process arbitration of
// uniqueness; a collision simply comes back as ErrDuplicateID and the
// allocator retries with one more character, so the collision
// probability shrinks combinatorially per attempt.
type Allocator struct {
	repo repository.MediaRepository

	// mu guards rng only; *rand.Rand is not safe for concurrent use
	mu  sync.Mutex
	rng *rand.Rand
}

// NewAllocator builds an allocator around repo. Pass a seeded rng for
// deterministic tests; nil gets a time-seeded source.
func NewAllocator(repo repository.MediaRepository, rng *rand.Rand) *Allocator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Allocator{
		repo: repo,
		rng:  rng,
	}
}

// Reserve commits proto under a freshly drawn hash ID and returns the
// persisted record. Only duplicate-ID conflicts are retried; any other
// store error propagates immediately.
func (a *Allocator) Reserve(ctx context.Context, proto model.Media) (*model.Media, error) {
	for i := range maxAllocRetry {
		length := hashMinLength + i
		zap.L().Debug("Attempting media id reservation", zap.Int("attempt", i+1), zap.Int("length", length))

		rec := proto
		rec.HashID = a.newHashID(length)

		err := a.repo.Insert(ctx, &rec)
		switch {
		case err == nil:
			return &rec, nil
		case errors.Is(err, repository.ErrDuplicateID):
			continue
		default:
			return nil, err
		}
	}

	return nil, ErrAllocationExhausted
}

// newHashID draws length symbols from the alphabet without replacement,
// preserving draw order. IDs therefore never repeat a character. That
// shrinks the keyspace versus independent draws, but every ID ever
// issued looks like this and the format stays compatible.
func (a *Allocator) newHashID(length int) string {
	a.mu.Lock()
	perm := a.rng.Perm(len(hashAlphabet))
	a.mu.Unlock()

	b := make([]byte, length)
	for i := range b {
		b[i] = hashAlphabet[perm[i]]
	}

	return string(b)
}
