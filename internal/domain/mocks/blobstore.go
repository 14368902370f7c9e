package mocks

import (
	"context"
	"fmt"
	"sync"
)

// BlobStore is a mock implementation of ports.BlobStore backed by a map.
type BlobStore struct {
	Err error

	mu      sync.Mutex
	Objects map[string][]byte

	// Call tracking
	UploadCallCount int
}

// Upload stores content under key.
func (m *BlobStore) Upload(ctx context.Context, key string, content []byte, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UploadCallCount++
	if m.Err != nil {
		return m.Err
	}
	if m.Objects == nil {
		m.Objects = make(map[string][]byte)
	}
	m.Objects[key] = content
	return nil
}

// Download retrieves the content stored under key.
func (m *BlobStore) Download(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	content, ok := m.Objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return content, nil
}

// Delete removes the object stored under key.
func (m *BlobStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.Objects, key)
	return nil
}
