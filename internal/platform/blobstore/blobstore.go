// Package blobstore stores opaque binary objects, such as the packaging images
// submitted to medicine search. It offers an in-memory store for development
// and tests and an S3-compatible store for deployments.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
)

// MaxFileSize is the largest object accepted by Put (10 MB).
const MaxFileSize = 10 * 1024 * 1024

// AllowedContentTypes lists the image types accepted for archiving.
var AllowedContentTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Object describes a stored blob.
type Object struct {
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (*Object, error)
	Get(ctx context.Context, key string) ([]byte, *Object, error)
}

// Validate checks the size and content type of an object before upload.
func Validate(contentType string, data []byte) error {
	if len(data) > MaxFileSize {
		return ErrFileTooLarge
	}
	if _, ok := AllowedContentTypes[contentType]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidContentType, contentType)
	}
	return nil
}

// NewKey returns a unique key under prefix with the extension matching
// contentType, e.g. search-images/<owner>/<uuid>.png.
func NewKey(prefix, owner, contentType string) string {
	ext := AllowedContentTypes[contentType]
	if ext == "" {
		ext = "bin"
	}
	return path.Join(strings.Trim(prefix, "/"), owner, uuid.New().String()+"."+ext)
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MemoryStore keeps objects in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*memoryObject
}

type memoryObject struct {
	meta Object
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]*memoryObject)}
}

func (s *MemoryStore) Put(_ context.Context, key, contentType string, data []byte) (*Object, error) {
	if err := Validate(contentType, data); err != nil {
		return nil, err
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	meta := Object{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        hashOf(data),
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.objects[key] = &memoryObject{meta: meta, data: buf}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, *Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, nil, ErrBlobNotFound
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	meta := obj.meta
	return data, &meta, nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
