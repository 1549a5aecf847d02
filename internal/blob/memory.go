package blob

import (
	"context"
	"sync"
)

type Object struct {
	Data        []byte
	ContentType string
}

// Memory keeps objects in process. It backs development setups and tests.
type Memory struct {
	baseURL string

	mu      sync.Mutex
	objects map[string]Object
	// FailWith, when set, is returned by every Upload.
	FailWith error
}

func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: baseURL, objects: make(map[string]Object)}
}

func (m *Memory) Upload(ctx context.Context, p string, data []byte, contentType string, upsert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}
	key := cleanPath(p)
	if _, exists := m.objects[key]; exists && !upsert {
		return ErrObjectExists
	}
	m.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

func (m *Memory) PublicURL(p string) string {
	return joinURL(m.baseURL, p)
}

func (m *Memory) Get(p string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[cleanPath(p)]
	return obj, ok
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
