package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"kointos-backend/pkg/errs"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemStore(maxSize int64) *Store {
	return NewStore("kointosStorage", afero.NewMemMapFs(), maxSize)
}

func TestStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(0)

	obj, err := s.Put(ctx, "profile-pictures/alice/avatar.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), obj.Size)
	assert.Equal(t, "image/png", obj.ContentType)

	rc, got, err := s.Get(ctx, "profile-pictures/alice/avatar.png")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png-bytes", string(body))
	assert.Equal(t, obj.Key, got.Key)

	require.NoError(t, s.Delete(ctx, "profile-pictures/alice/avatar.png"))
	_, _, err = s.Get(ctx, "profile-pictures/alice/avatar.png")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "profile-pictures/alice/avatar.png"), errs.ErrNotFound)
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(0)

	_, err := s.Put(ctx, "public-assets/a.txt", strings.NewReader("first version"))
	require.NoError(t, err)
	obj, err := s.Put(ctx, "public-assets/a.txt", strings.NewReader("v2"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), obj.Size)
}

func TestStoreSizeLimit(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(4)

	_, err := s.Put(ctx, "public-assets/a.bin", strings.NewReader("1234"))
	require.NoError(t, err)
	_, err = s.Put(ctx, "public-assets/b.bin", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(0)

	empty, err := s.List(ctx, "post-images/")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, key := range []string{
		"post-images/alice/2.jpg",
		"post-images/alice/1.jpg",
		"post-images/bob/1.jpg",
		"public-assets/logo.svg",
	} {
		_, err := s.Put(ctx, key, strings.NewReader("x"))
		require.NoError(t, err)
	}

	objs, err := s.List(ctx, "post-images/alice/")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "post-images/alice/1.jpg", objs[0].Key)
	assert.Equal(t, "post-images/alice/2.jpg", objs[1].Key)
}

func TestStoreListMatchesWholeSegments(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(0)

	for _, key := range []string{
		"profile-pictures/u1/avatar.png",
		"profile-pictures/u10/secret.png",
	} {
		_, err := s.Put(ctx, key, strings.NewReader("x"))
		require.NoError(t, err)
	}

	for _, prefix := range []string{"profile-pictures/u1", "profile-pictures/u1/"} {
		objs, err := s.List(ctx, prefix)
		require.NoError(t, err)
		require.Len(t, objs, 1, prefix)
		assert.Equal(t, "profile-pictures/u1/avatar.png", objs[0].Key)
	}

	objs, err := s.List(ctx, "profile-pictures/u1/avatar.png")
	require.NoError(t, err)
	assert.Len(t, objs, 1)
}

func TestStorePutConflicts(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(0)

	_, err := s.Put(ctx, "public-assets/icons/btc.svg", strings.NewReader("x"))
	require.NoError(t, err)

	_, err = s.Put(ctx, "public-assets/icons", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrKeyConflict)
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)

	_, err = s.Put(ctx, "public-assets/icons/btc.svg/large.svg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrKeyConflict)

	_, err = s.Put(ctx, "public-assets/icons/btc.svg", strings.NewReader("y"))
	assert.NoError(t, err)
}

func TestStoreRejectsInvalidKeys(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(0)

	_, err := s.Put(ctx, "../escape", strings.NewReader("x"))
	assert.ErrorIs(t, err, errs.ErrInvalidKey)
	_, _, err = s.Get(ctx, "/abs")
	assert.ErrorIs(t, err, errs.ErrInvalidKey)
}
