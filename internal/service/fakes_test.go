package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"mizuki/media-api/internal/model"
	"mizuki/media-api/internal/repository"

	"github.com/stretchr/testify/require"
)

// fakeRepo is an in-memory MediaRepository with the same uniqueness
// semantics the real database enforces.
type fakeRepo struct {
	mu      sync.Mutex
	records map[string]model.Media

	// insertErrs is drained one error per Insert call before the
	// normal path runs. Used to simulate collisions and outages
	insertErrs []error

	inserts int
	lengths []int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]model.Media{}}
}

func (f *fakeRepo) Insert(_ context.Context, m *model.Media) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inserts++
	f.lengths = append(f.lengths, len(m.HashID))

	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return err
		}
	}

	if _, taken := f.records[m.HashID]; taken {
		return repository.ErrDuplicateID
	}

	f.records[m.HashID] = *m
	return nil
}

func (f *fakeRepo) Get(_ context.Context, hashID string) (*model.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.records[hashID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return &m, nil
}

func (f *fakeRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Media
	for _, m := range f.records {
		if opts.Before != nil && !m.Uploaded.Before(*opts.Before) {
			continue
		}
		if !opts.IncludePrivate && m.Private {
			continue
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Uploaded.After(out[j].Uploaded)
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}

	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, hashID string, comment *string, private *bool) (*model.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.records[hashID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if comment != nil {
		m.Comment = comment
	}
	if private != nil {
		m.Private = *private
	}

	f.records[hashID] = m
	return &m, nil
}

func (f *fakeRepo) Delete(_ context.Context, hashID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.records[hashID]; !ok {
		return repository.ErrNotFound
	}

	delete(f.records, hashID)
	return nil
}

func (f *fakeRepo) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return int64(len(f.records)), nil
}

// fakeStore records artifact writes and deletes in call order.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	deletes []string

	// failKey makes writes to that key fail
	failKey string
}

type failedWriteError struct{ key string }

func (e *failedWriteError) Error() string { return "write failed for " + e.key }

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects: map[string][]byte{},
		types:   map[string]string{},
	}
}

func (f *fakeStore) Write(_ context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failKey == key {
		return &failedWriteError{key: key}
	}

	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.objects, key)
	f.deletes = append(f.deletes, key)
	return nil
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}

	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

func newTestService(repo *fakeRepo, store *fakeStore, seed int64) *MediaService {
	alloc := NewAllocator(repo, rand.New(rand.NewSource(seed)))
	return NewMediaService(repo, store, alloc, NewThumbnailer(320, 180))
}
