package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore keeps objects on disk under root/bucket. The server exposes root
// as static files under publicPrefix.
type LocalStore struct {
	root         string
	bucket       string
	publicPrefix string
}

func NewLocalStore(root, bucket, publicPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(root, bucket), 0o755); err != nil {
		return nil, fmt.Errorf("create bucket dir: %w", err)
	}
	return &LocalStore{root: root, bucket: bucket, publicPrefix: strings.TrimRight(publicPrefix, "/")}, nil
}

func (s *LocalStore) Bucket() string {
	return s.bucket
}

func (s *LocalStore) Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string, opts UploadOptions) error {
	dst, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !opts.Upsert {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(dst, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("upload %s: %w", objectPath, ErrObjectExists)
		}
		return fmt.Errorf("open object: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("write object: %w", err)
	}
	return f.Close()
}

func (s *LocalStore) URL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	if _, err := s.resolve(objectPath); err != nil {
		return "", err
	}
	return s.publicPrefix + "/" + path.Join(s.bucket, objectPath), nil
}

func (s *LocalStore) resolve(objectPath string) (string, error) {
	clean := path.Clean("/" + objectPath)
	if clean == "/" {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	return filepath.Join(s.root, s.bucket, filepath.FromSlash(clean)), nil
}
