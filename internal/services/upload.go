package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/coursekit/apiserver/internal/storage"
	"github.com/coursekit/apiserver/types"
	"github.com/google/uuid"
)

// ErrStorageDisabled is returned when no object-storage backend is
// configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

const defaultContentType = "application/octet-stream"

// UploadService puts uploaded payloads into object storage and hands back
// FileRefs for the content editor. The store is an opaque blob store:
// get/put/delete by key, nothing more.
type UploadService struct {
	storage   *storage.Storage
	publicURL string
}

func NewUploadService(st *storage.Storage, publicURL string) *UploadService {
	return &UploadService{
		storage:   st,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Enabled reports whether a backend is configured.
func (s *UploadService) Enabled() bool {
	return s.storage != nil
}

// Upload stores a payload under a fresh uuid-prefixed key and returns its
// FileRef.
func (s *UploadService) Upload(ctx context.Context, fileName, contentType string, size int64, r io.Reader) (types.FileRef, error) {
	if s.storage == nil {
		return types.FileRef{}, ErrStorageDisabled
	}

	name := sanitizeFileName(fileName)
	if contentType == "" {
		contentType = defaultContentType
	}

	key := fmt.Sprintf("%s/%s", uuid.NewString(), name)
	if err := s.storage.Put(ctx, key, r, size, contentType); err != nil {
		return types.FileRef{}, err
	}

	return types.FileRef{
		URL:         s.PublicURL(key),
		FileName:    name,
		FileSize:    size,
		ContentType: contentType,
		Key:         key,
	}, nil
}

// Open streams an object by key.
func (s *UploadService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	return s.storage.Get(ctx, key)
}

// Delete removes an object by key.
func (s *UploadService) Delete(ctx context.Context, key string) error {
	if s.storage == nil {
		return ErrStorageDisabled
	}
	return s.storage.Delete(ctx, key)
}

// PublicURL returns the URL the download proxy serves a key under.
func (s *UploadService) PublicURL(key string) string {
	return fmt.Sprintf("%s/uploads/%s", s.publicURL, key)
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
