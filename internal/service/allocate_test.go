package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"mizuki/media-api/internal/model"
	"mizuki/media-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasRepeatedChars(s string) bool {
	seen := map[rune]bool{}
	for _, r := range s {
		if seen[r] {
			return true
		}
		seen[r] = true
	}

	return false
}

func TestReserveAssignsShortID(t *testing.T) {
	repo := newFakeRepo()
	alloc := NewAllocator(repo, rand.New(rand.NewSource(1)))

	rec, err := alloc.Reserve(context.Background(), model.Media{Extension: "png"})
	require.NoError(t, err)

	assert.Len(t, rec.HashID, 6)
	assert.False(t, hasRepeatedChars(rec.HashID))

	for _, r := range rec.HashID {
		assert.Contains(t, hashAlphabet, string(r))
	}

	// The committed record is the one returned
	stored, err := repo.Get(context.Background(), rec.HashID)
	require.NoError(t, err)
	assert.Equal(t, "png", stored.Extension)
}

func TestReserveIsDeterministicWithSeededSource(t *testing.T) {
	a := NewAllocator(newFakeRepo(), rand.New(rand.NewSource(42)))
	b := NewAllocator(newFakeRepo(), rand.New(rand.NewSource(42)))

	recA, err := a.Reserve(context.Background(), model.Media{})
	require.NoError(t, err)
	recB, err := b.Reserve(context.Background(), model.Media{})
	require.NoError(t, err)

	assert.Equal(t, recA.HashID, recB.HashID)
}

func TestReserveRetriesLongerOnCollision(t *testing.T) {
	repo := newFakeRepo()
	repo.insertErrs = []error{repository.ErrDuplicateID, repository.ErrDuplicateID}

	alloc := NewAllocator(repo, rand.New(rand.NewSource(7)))

	rec, err := alloc.Reserve(context.Background(), model.Media{})
	require.NoError(t, err)

	assert.Len(t, rec.HashID, 8)
	assert.Equal(t, []int{6, 7, 8}, repo.lengths)
}

func TestReserveDoesNotRetryOtherErrors(t *testing.T) {
	repo := newFakeRepo()
	boom := errors.New("connection refused")
	repo.insertErrs = []error{boom}

	alloc := NewAllocator(repo, rand.New(rand.NewSource(7)))

	_, err := alloc.Reserve(context.Background(), model.Media{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, repo.inserts)
}

func TestReserveExhaustsRetryBudget(t *testing.T) {
	repo := newFakeRepo()
	repo.insertErrs = []error{
		repository.ErrDuplicateID,
		repository.ErrDuplicateID,
		repository.ErrDuplicateID,
		repository.ErrDuplicateID,
		repository.ErrDuplicateID,
	}

	alloc := NewAllocator(repo, rand.New(rand.NewSource(7)))

	_, err := alloc.Reserve(context.Background(), model.Media{})
	require.ErrorIs(t, err, ErrAllocationExhausted)
	assert.Equal(t, []int{6, 7, 8, 9, 10}, repo.lengths)
}

func TestReserveConcurrent(t *testing.T) {
	repo := newFakeRepo()
	alloc := NewAllocator(repo, nil)

	const n = 64

	ids := make([]string, n)

	var wg sync.WaitGroup
	wg.Add(n)

	for i := range n {
		go func() {
			defer wg.Done()

			rec, err := alloc.Reserve(context.Background(), model.Media{})
			assert.NoError(t, err)
			if rec != nil {
				ids[i] = rec.HashID
			}
		}()
	}

	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s allocated", id)
		assert.False(t, hasRepeatedChars(id), "id %s repeats a character", id)
		assert.False(t, strings.ContainsAny(id, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
		seen[id] = true
	}
}
