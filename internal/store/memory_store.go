package store

import (
	"context"
	"sync"
	"time"

	"github.com/notesvault/notesvault/internal/catalog"
)

// MemoryStore keeps the catalog document in memory only. It backs tests and
// ephemeral deployments; the jsonfile store is the durable variant.
type MemoryStore struct {
	mu  sync.RWMutex
	doc *catalog.Document
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	now := time.Now
	return &MemoryStore{doc: catalog.NewDocument(now()), now: now}
}

func (m *MemoryStore) CreateSubject(ctx context.Context, key, displayName string) (*catalog.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.CreateSubject(key, displayName, m.now())
}

func (m *MemoryStore) CreateUnit(ctx context.Context, subjectKey string, draft catalog.UnitDraft) (*catalog.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.CreateUnit(subjectKey, draft, m.now())
}

func (m *MemoryStore) UpdateUnit(ctx context.Context, subjectKey string, unitID int, patch catalog.UnitPatch) (*catalog.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.UpdateUnit(subjectKey, unitID, patch, m.now())
}

func (m *MemoryStore) SetUnitFile(ctx context.Context, subjectKey string, unitID int, fileName string, fileSize int64) (*catalog.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.SetUnitFile(subjectKey, unitID, fileName, fileSize, m.now())
}

func (m *MemoryStore) DeleteUnit(ctx context.Context, subjectKey string, unitID int) (*catalog.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.DeleteUnit(subjectKey, unitID)
}

func (m *MemoryStore) DeleteSubject(ctx context.Context, subjectKey string) (*catalog.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.DeleteSubject(subjectKey)
}

func (m *MemoryStore) Unit(ctx context.Context, subjectKey string, unitID int) (*catalog.Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.doc.Subjects[subjectKey]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	for i := range s.Units {
		if s.Units[i].ID == unitID {
			out := s.Units[i]
			return &out, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *MemoryStore) ListSubjects(ctx context.Context) (map[string]*catalog.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.Clone().Subjects, nil
}

func (m *MemoryStore) DisplayName(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.doc.Subjects[key]
	if !ok {
		return "", catalog.ErrNotFound
	}
	return s.DisplayName, nil
}

func (m *MemoryStore) CreatedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.CreatedAt
}

func (m *MemoryStore) Close() error {
	return nil
}
