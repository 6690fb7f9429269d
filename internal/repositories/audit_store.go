package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/culthread/backoffice/internal/models"
)

// AuditStore is the persistence boundary for the audit log. The durable
// artifact is a single JSON array of entries; everything else in the
// service is memory-only.
type AuditStore interface {
	Load() ([]models.AuditEntry, error)
	Save(entries []models.AuditEntry) error
}

// FileAuditStore persists the audit buffer to a JSON file. Every Save
// rewrites the full buffer via a temp-file rename so a crash mid-write
// never leaves a truncated log.
type FileAuditStore struct {
	path string
}

// NewFileAuditStore creates a new FileAuditStore
func NewFileAuditStore(path string) *FileAuditStore {
	return &FileAuditStore{path: path}
}

// Load reads the persisted buffer. A missing file is not an error: the
// log simply restarts empty.
func (s *FileAuditStore) Load() ([]models.AuditEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audit file: %w", err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var entries []models.AuditEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse audit file: %w", err)
	}

	return entries, nil
}

// Save writes the full buffer atomically
func (s *FileAuditStore) Save(entries []models.AuditEntry) error {
	if entries == nil {
		entries = []models.AuditEntry{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode audit entries: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".audit-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp audit file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write audit file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close audit file: %w", err)
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set audit file permissions: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace audit file: %w", err)
	}

	return nil
}

// MemoryAuditStore is an in-memory AuditStore used in tests and as a
// fallback when no durable path is configured
type MemoryAuditStore struct {
	mu      sync.Mutex
	entries []models.AuditEntry

	// FailSaves makes Save return an error, for exercising the
	// best-effort persistence path
	FailSaves bool
}

// NewMemoryAuditStore creates a new MemoryAuditStore
func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{}
}

func (s *MemoryAuditStore) Load() ([]models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.AuditEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemoryAuditStore) Save(entries []models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSaves {
		return fmt.Errorf("audit store unavailable")
	}

	s.entries = make([]models.AuditEntry, len(entries))
	copy(s.entries, entries)
	return nil
}
