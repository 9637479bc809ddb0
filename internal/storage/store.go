package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"kointos-backend/pkg/errs"

	"github.com/spf13/afero"
)

// ErrTooLarge is returned when an upload exceeds the configured size limit.
var ErrTooLarge = errors.New("object too large")

// ErrKeyConflict is returned when a key names a folder of other objects, or runs through an
// existing object as if it were a folder.
var ErrKeyConflict = fmt.Errorf("%w: key overlaps an existing object path", errs.ErrAlreadyExists)

// Object describes a stored object.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	ModifiedAt  time.Time
}

// Store keeps objects of one bucket on an afero filesystem.
type Store struct {
	bucket  string
	fs      afero.Fs
	maxSize int64
}

// NewStore creates a store on fsys. maxSize <= 0 disables the upload limit.
func NewStore(bucket string, fsys afero.Fs, maxSize int64) *Store {
	return &Store{bucket: bucket, fs: fsys, maxSize: maxSize}
}

// NewOSStore creates a store rooted at dir on the local disk.
func NewOSStore(bucket, dir string, maxSize int64) (*Store, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return NewStore(bucket, afero.NewBasePathFs(osFs, dir), maxSize), nil
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string {
	return s.bucket
}

// Put writes r under key, replacing any existing object.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) (*Object, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.maxSize > 0 {
		r = io.LimitReader(r, s.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}

	if err := s.checkConflict(key); err != nil {
		return nil, err
	}
	p := s.path(key)
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := afero.WriteReader(s.fs, p, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to write object: %w", err)
	}
	return s.stat(key)
}

// Get opens the object stored under key. The caller closes the reader.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	if err := ValidateKey(key); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	obj, err := s.stat(key)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.fs.Open(s.path(key))
	if err != nil {
		return nil, nil, translateFsError(err)
	}
	return f, obj, nil
}

// Delete removes the object stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.stat(key); err != nil {
		return err
	}
	return translateFsError(s.fs.Remove(s.path(key)))
}

// List returns the objects under prefix, sorted by key. The prefix is matched on whole
// segments, so "post-images/u1" does not list "post-images/u10/...".
func (s *Store) List(ctx context.Context, prefix string) ([]Object, error) {
	root := "/" + s.bucket
	exists, err := afero.DirExists(s.fs, root)
	if err != nil || !exists {
		return []Object{}, err
	}

	objects := []Object{}
	err = afero.Walk(s.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		key := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(p, "\\", "/")), root+"/")
		if !underPrefix(key, prefix) {
			return nil
		}
		objects = append(objects, s.describe(key, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// checkConflict rejects a key whose parent segments hold an object or which is itself a folder.
func (s *Store) checkConflict(key string) error {
	segs := strings.Split(key, "/")
	for i := 1; i <= len(segs); i++ {
		info, err := s.fs.Stat(s.path(strings.Join(segs[:i], "/")))
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to inspect object path: %w", err)
		}
		last := i == len(segs)
		if last == info.IsDir() {
			return ErrKeyConflict
		}
	}
	return nil
}

func underPrefix(key, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}
	return key == prefix || strings.HasPrefix(key, prefix+"/")
}

func (s *Store) stat(key string) (*Object, error) {
	info, err := s.fs.Stat(s.path(key))
	if err != nil {
		return nil, translateFsError(err)
	}
	if info.IsDir() {
		return nil, errs.ErrNotFound
	}
	obj := s.describe(key, info)
	return &obj, nil
}

func (s *Store) describe(key string, info fs.FileInfo) Object {
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return Object{Key: key, Size: info.Size(), ContentType: contentType, ModifiedAt: info.ModTime().UTC()}
}

func (s *Store) path(key string) string {
	return path.Join("/", s.bucket, key)
}

func translateFsError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return errs.ErrNotFound
	}
	return err
}
