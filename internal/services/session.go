package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/shelf/internal/models"
)

// SessionHub is the single owner of the current session.
//
// Publish replaces the snapshot and notifies every listener; snapshots are never mutated once published.
type SessionHub struct {
	mu        sync.Mutex
	current   *models.Session
	listeners map[int]func(*models.Session)
	next      int
}

func NewSessionHub() *SessionHub {
	return &SessionHub{listeners: make(map[int]func(*models.Session))}
}

// Current returns the published snapshot, or nil when signed out.
func (h *SessionHub) Current() *models.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Publish stores a copy of s (nil to sign out) and delivers it to every listener.
func (h *SessionHub) Publish(s *models.Session) {
	var snap *models.Session
	if s != nil {
		cp := *s
		snap = &cp
	}

	h.mu.Lock()
	h.current = snap
	fns := make([]func(*models.Session), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Subscribe registers fn, immediately delivers the current snapshot and returns the release handle.
//
// The handle is safe to call more than once.
func (h *SessionHub) Subscribe(fn func(*models.Session)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	h.listeners[id] = fn
	cur := h.current
	h.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Listeners is the number of active subscriptions.
func (h *SessionHub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

// SessionStore persists the token pair between runs.
type SessionStore interface {
	Load() (*models.Session, error)
	Save(s *models.Session) error
	Clear() error
}

// FileSessionStore keeps the session as JSON in a file readable only by the owner.
type FileSessionStore struct {
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// Load returns nil without error when nothing has been saved.
func (f *FileSessionStore) Load() (*models.Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if s.RefreshToken == "" && s.AccessToken == "" {
		return nil, nil
	}
	return &s, nil
}

func (f *FileSessionStore) Save(s *models.Session) error {
	if s == nil {
		return f.Clear()
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (f *FileSessionStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemorySessionStore keeps the session in memory only.
type MemorySessionStore struct {
	mu sync.Mutex
	s  *models.Session
}

func (m *MemorySessionStore) Load() (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *MemorySessionStore) Save(s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}

func (m *MemorySessionStore) Clear() error { return m.Save(nil) }
