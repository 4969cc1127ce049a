package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidKey  = errors.New("invalid storage key")
	ErrKeyExists   = errors.New("storage key already exists")
	ErrKeyNotFound = errors.New("storage key not found")
)

// BlobStore keeps uploaded files under slash-separated keys such as
// "verification/01J....pdf".
type BlobStore interface {
	Put(ctx context.Context, key string, content io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	cleanRoot := strings.TrimSpace(root)
	if cleanRoot == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(cleanRoot, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: cleanRoot}, nil
}

func (store *LocalStore) resolve(key string) (string, error) {
	cleanKey := path.Clean("/" + strings.TrimSpace(key))
	if cleanKey == "/" || cleanKey != "/"+strings.TrimSpace(key) {
		return "", ErrInvalidKey
	}
	return filepath.Join(store.root, filepath.FromSlash(strings.TrimPrefix(cleanKey, "/"))), nil
}

// Put writes content under key. Existing keys are never overwritten.
func (store *LocalStore) Put(ctx context.Context, key string, content io.Reader) (int64, error) {
	target, err := store.resolve(key)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return 0, fmt.Errorf("create storage directory: %w", err)
	}

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return 0, ErrKeyExists
		}
		return 0, fmt.Errorf("create blob: %w", err)
	}

	written, copyErr := io.Copy(file, content)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(target)
		if copyErr != nil {
			return 0, fmt.Errorf("write blob: %w", copyErr)
		}
		return 0, fmt.Errorf("close blob: %w", closeErr)
	}
	return written, nil
}

func (store *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := store.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return file, nil
}

func (store *LocalStore) Delete(ctx context.Context, key string) error {
	target, err := store.resolve(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
