// Package service composes the record store and the blob store behind the
// catalog API operations. It is the single logical writer: all mutating
// operations are serialized on one mutex so record and blob state never
// drift under concurrent admin requests.
package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/notesvault/notesvault/internal/blob"
	"github.com/notesvault/notesvault/internal/catalog"
	"github.com/notesvault/notesvault/internal/store"
	"go.uber.org/zap"
)

// FileUpload is an incoming file: opaque bytes plus the client's name.
type FileUpload struct {
	Name   string
	Reader io.Reader
}

// CreateUnitInput carries a create-unit request. When SubjectKey names an
// unknown subject and SubjectDisplay is set, the subject is created first.
type CreateUnitInput struct {
	SubjectKey     string
	SubjectDisplay string
	Draft          catalog.UnitDraft
	File           *FileUpload
}

type Service struct {
	mu     sync.Mutex
	store  store.Store
	blobs  *blob.Store
	logger *zap.Logger
}

func New(st store.Store, blobs *blob.Store, logger *zap.Logger) *Service {
	return &Service{store: st, blobs: blobs, logger: logger.Named("catalog")}
}

// ListSubjects returns the full snapshot. Units are not presorted; display
// ordering is the caller's concern.
func (s *Service) ListSubjects(ctx context.Context) (map[string]*catalog.Subject, error) {
	return s.store.ListSubjects(ctx)
}

// Subject returns one subject with its units sorted for display by number.
func (s *Service) Subject(ctx context.Context, key string) (*catalog.Subject, error) {
	snapshot, err := s.store.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	subj, ok := snapshot[key]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	catalog.SortUnitsByNumber(subj.Units)
	return subj, nil
}

// DisplayName resolves a subject key to its label.
func (s *Service) DisplayName(ctx context.Context, key string) (string, error) {
	return s.store.DisplayName(ctx, key)
}

// CreateUnit creates a unit, the subject when needed, and stores the
// attached file. The draft is validated before any blob is written so a
// rejected request cannot leave an orphan upload behind.
func (s *Service) CreateUnit(ctx context.Context, in CreateUnitInput) (*catalog.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(in.SubjectKey) == "" && strings.TrimSpace(in.SubjectDisplay) == "" {
		return nil, &catalog.ValidationError{Field: "subject", Reason: "required field is missing or empty"}
	}
	// Reject a bad draft before any subject or blob is written, so a failed
	// request leaves no trace in the store.
	if err := in.Draft.Validate(); err != nil {
		return nil, err
	}

	key := in.SubjectKey
	if key == "" {
		key = catalog.DeriveKey(in.SubjectDisplay)
	}
	createdSubject := false
	if _, err := s.store.DisplayName(ctx, key); errors.Is(err, catalog.ErrNotFound) {
		if strings.TrimSpace(in.SubjectDisplay) == "" {
			return nil, catalog.ErrNotFound
		}
		if _, err := s.store.CreateSubject(ctx, key, in.SubjectDisplay); err != nil {
			return nil, err
		}
		createdSubject = true
	} else if err != nil {
		return nil, err
	}

	unit, err := s.store.CreateUnit(ctx, key, in.Draft)
	if err != nil {
		s.rollbackCreate(ctx, key, 0, createdSubject, false)
		return nil, err
	}

	if in.File == nil {
		return unit, nil
	}

	storedName, size, err := s.blobs.Store(in.File.Reader, in.File.Name)
	if err != nil {
		s.rollbackCreate(ctx, key, unit.ID, createdSubject, true)
		return nil, &catalog.StorageError{Op: "store upload", Err: err}
	}
	withFile, err := s.store.SetUnitFile(ctx, key, unit.ID, storedName, size)
	if err != nil {
		s.blobs.Delete(storedName)
		s.rollbackCreate(ctx, key, unit.ID, createdSubject, true)
		return nil, err
	}
	return withFile, nil
}

// rollbackCreate undoes this request's record writes after a later step
// failed. A subject created by this request is removed whole; otherwise only
// the new unit is.
func (s *Service) rollbackCreate(ctx context.Context, key string, unitID int, createdSubject, createdUnit bool) {
	var err error
	switch {
	case createdSubject:
		_, err = s.store.DeleteSubject(ctx, key)
	case createdUnit:
		_, err = s.store.DeleteUnit(ctx, key, unitID)
	default:
		return
	}
	if err != nil {
		s.logger.Error("rollback of failed create failed",
			zap.String("subject", key), zap.Int("unit", unitID), zap.Error(err))
	}
}

// UpdateUnit applies a partial update and, when a replacement file is
// given, stores the new blob, commits the metadata, and only then deletes
// the old blob — the durable record must never name a blob that is gone.
func (s *Service) UpdateUnit(ctx context.Context, subjectKey string, unitID int, patch catalog.UnitPatch, file *FileUpload) (*catalog.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.Unit(ctx, subjectKey, unitID)
	if err != nil {
		return nil, err
	}

	unit, err := s.store.UpdateUnit(ctx, subjectKey, unitID, patch)
	if err != nil {
		return nil, err
	}

	if file == nil {
		return unit, nil
	}

	storedName, size, err := s.blobs.Store(file.Reader, file.Name)
	if err != nil {
		// The field patch stands; the old blob and metadata are untouched.
		return nil, &catalog.StorageError{Op: "store upload", Err: err}
	}
	unit, err = s.store.SetUnitFile(ctx, subjectKey, unitID, storedName, size)
	if err != nil {
		s.blobs.Delete(storedName)
		return nil, err
	}
	if current.FileName != "" && current.FileName != storedName {
		s.blobs.Delete(current.FileName)
	}
	return unit, nil
}

// DeleteUnit removes a unit and its blob.
func (s *Service) DeleteUnit(ctx context.Context, subjectKey string, unitID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.DeleteUnit(ctx, subjectKey, unitID)
	if err != nil {
		return err
	}
	if removed.FileName != "" {
		s.blobs.Delete(removed.FileName)
	}
	s.logger.Info("unit deleted", zap.String("subject", subjectKey), zap.Int("unit", unitID))
	return nil
}

// DeleteSubject removes a subject, all its units and all their blobs.
func (s *Service) DeleteSubject(ctx context.Context, subjectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.store.DeleteSubject(ctx, subjectKey)
	if err != nil {
		return err
	}
	for i := range removed.Units {
		if name := removed.Units[i].FileName; name != "" {
			s.blobs.Delete(name)
		}
	}
	s.logger.Info("subject deleted",
		zap.String("subject", subjectKey), zap.Int("units", len(removed.Units)))
	return nil
}

// Stats recomputes the aggregate counts from the current snapshot.
func (s *Service) Stats(ctx context.Context) (catalog.Stats, error) {
	snapshot, err := s.store.ListSubjects(ctx)
	if err != nil {
		return catalog.Stats{}, err
	}
	return catalog.ComputeStats(snapshot, s.store.CreatedAt()), nil
}

// RecentActivity derives the newest-first activity feed from the snapshot.
func (s *Service) RecentActivity(ctx context.Context) ([]catalog.Activity, error) {
	snapshot, err := s.store.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.RecentActivity(snapshot, catalog.RecentActivityLimit), nil
}

// OpenDownload opens a stored blob by its download name.
func (s *Service) OpenDownload(ctx context.Context, name string) (io.ReadSeekCloser, int64, error) {
	rc, size, err := s.blobs.Open(name)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, 0, catalog.ErrNotFound
	}
	return rc, size, err
}
