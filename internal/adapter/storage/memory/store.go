// Package memory keeps uploaded objects in process memory. It backs
// development runs without an S3 bucket.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/strogmv/myblog/internal/port"
)

type Object struct {
	ContentType string
	Data        []byte
}

type Store struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
}

func NewStore(baseURL string) *Store {
	return &Store{objects: make(map[string]Object), baseURL: baseURL}
}

func (s *Store) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("read object body: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{ContentType: contentType, Data: buf.Bytes()}
	return key, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *Store) GetURL(ctx context.Context, key string) (string, error) {
	return s.baseURL + "/" + key, nil
}

// Get returns a stored object.
func (s *Store) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

var _ port.FileStorage = (*Store)(nil)
