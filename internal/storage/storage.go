// Package storage keeps uploaded ticket attachments on local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrTooLarge is returned when an upload exceeds the store's size limit.
var ErrTooLarge = errors.New("attachment exceeds size limit")

// AttachmentStore persists attachment bytes under opaque keys.
type AttachmentStore interface {
	Save(ctx context.Context, fileName string, r io.Reader) (key string, size int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// DiskStore writes files below a root directory.
type DiskStore struct {
	root     string
	maxBytes int64
}

// NewDiskStore creates root if needed. maxBytes <= 0 disables the limit.
func NewDiskStore(root string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{root: root, maxBytes: maxBytes}, nil
}

// Save stores r under a random key that keeps the original extension. The
// partially written file is removed on any failure.
func (s *DiskStore) Save(ctx context.Context, fileName string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	key := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	path := filepath.Join(s.root, key)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("create attachment: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	size, copyErr := io.Copy(f, src)
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		err = fmt.Errorf("write attachment: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("close attachment: %w", closeErr)
	case s.maxBytes > 0 && size > s.maxBytes:
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	return key, size, nil
}

func (s *DiskStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (s *DiskStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// path rejects keys that would escape the root.
func (s *DiskStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid attachment key %q", key)
	}
	return filepath.Join(s.root, key), nil
}
