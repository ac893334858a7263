package store

import (
	"context"
	"time"

	"github.com/notesvault/notesvault/internal/catalog"
	"github.com/notesvault/notesvault/internal/store/shared"
)

// Re-export shared types for convenience
type StoreType = shared.StoreType
type StoreConfig = shared.StoreConfig

// Re-export constants
const (
	StoreTypeMemory   = shared.StoreTypeMemory
	StoreTypeJSONFile = shared.StoreTypeJSONFile
)

// Store is the record store contract. Every mutation is atomic: either the
// whole change is applied (and, for durable stores, flushed) or nothing is.
type Store interface {
	CreateSubject(ctx context.Context, key, displayName string) (*catalog.Subject, error)
	CreateUnit(ctx context.Context, subjectKey string, draft catalog.UnitDraft) (*catalog.Unit, error)
	UpdateUnit(ctx context.Context, subjectKey string, unitID int, patch catalog.UnitPatch) (*catalog.Unit, error)
	SetUnitFile(ctx context.Context, subjectKey string, unitID int, fileName string, fileSize int64) (*catalog.Unit, error)
	DeleteUnit(ctx context.Context, subjectKey string, unitID int) (*catalog.Unit, error)
	DeleteSubject(ctx context.Context, subjectKey string) (*catalog.Subject, error)
	Unit(ctx context.Context, subjectKey string, unitID int) (*catalog.Unit, error)
	ListSubjects(ctx context.Context) (map[string]*catalog.Subject, error)
	DisplayName(ctx context.Context, key string) (string, error)
	CreatedAt() time.Time
	Close() error
}
