package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/notesvault/notesvault/internal/catalog"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Store persists the catalog document as one JSON file, rewritten in full
// on every successful mutation. Mutations run against a clone and the clone
// is only swapped in after the flush succeeds, so an I/O error leaves both
// the in-memory and on-disk documents untouched.
type Store struct {
	mu     sync.RWMutex
	path   string
	doc    *catalog.Document
	logger *zap.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}

	flushes metric.Int64Counter
	reloads metric.Int64Counter
}

// NewStore loads the document at path, creating a default one when absent,
// and starts a watcher that reloads the document on external edits.
func NewStore(path string, logger *zap.Logger, meter metric.Meter) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger.Named("jsonfile"),
		done:   make(chan struct{}),
	}
	if meter != nil {
		var err error
		if s.flushes, err = meter.Int64Counter("catalog_document_flushes_total"); err != nil {
			return nil, err
		}
		if s.reloads, err = meter.Int64Counter("catalog_document_reloads_total"); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &catalog.StorageError{Op: "create data directory", Err: err}
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	if err := s.watch(); err != nil {
		// The store works without the watcher; external edits just need a
		// restart to be picked up.
		s.logger.Warn("document watcher unavailable", zap.Error(err))
	}

	s.logger.Info("catalog document loaded",
		zap.String("path", path),
		zap.Int("subjects", len(s.doc.Subjects)))
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := catalog.NewDocument(time.Now().UTC())
		if err := s.flush(doc); err != nil {
			return err
		}
		s.doc = doc
		return nil
	}
	if err != nil {
		return &catalog.StorageError{Op: "read document", Err: err}
	}
	doc := catalog.NewDocument(time.Now().UTC())
	if err := json.Unmarshal(raw, doc); err != nil {
		return &catalog.StorageError{Op: "decode document", Err: err}
	}
	if doc.Subjects == nil {
		doc.Subjects = make(map[string]*catalog.Subject)
	}
	s.doc = doc
	return nil
}

// flush writes the document to a temp file in the same directory and
// renames it over the target, so readers never observe a partial write.
func (s *Store) flush(doc *catalog.Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &catalog.StorageError{Op: "encode document", Err: err}
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return &catalog.StorageError{Op: "create temp document", Err: err}
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &catalog.StorageError{Op: "write document", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &catalog.StorageError{Op: "close document", Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return &catalog.StorageError{Op: "replace document", Err: err}
	}
	if s.flushes != nil {
		s.flushes.Add(context.Background(), 1)
	}
	return nil
}

// mutate clones the current document, applies fn, flushes the clone and
// swaps it in. fn must leave the clone unchanged when it errors.
func (s *Store) mutate(fn func(doc *catalog.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.doc.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.flush(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *Store) CreateSubject(ctx context.Context, key, displayName string) (*catalog.Subject, error) {
	var out *catalog.Subject
	err := s.mutate(func(doc *catalog.Document) error {
		var err error
		out, err = doc.CreateSubject(key, displayName, time.Now().UTC())
		return err
	})
	return out, err
}

func (s *Store) CreateUnit(ctx context.Context, subjectKey string, draft catalog.UnitDraft) (*catalog.Unit, error) {
	var out *catalog.Unit
	err := s.mutate(func(doc *catalog.Document) error {
		var err error
		out, err = doc.CreateUnit(subjectKey, draft, time.Now().UTC())
		return err
	})
	return out, err
}

func (s *Store) UpdateUnit(ctx context.Context, subjectKey string, unitID int, patch catalog.UnitPatch) (*catalog.Unit, error) {
	var out *catalog.Unit
	err := s.mutate(func(doc *catalog.Document) error {
		var err error
		out, err = doc.UpdateUnit(subjectKey, unitID, patch, time.Now().UTC())
		return err
	})
	return out, err
}

func (s *Store) SetUnitFile(ctx context.Context, subjectKey string, unitID int, fileName string, fileSize int64) (*catalog.Unit, error) {
	var out *catalog.Unit
	err := s.mutate(func(doc *catalog.Document) error {
		var err error
		out, err = doc.SetUnitFile(subjectKey, unitID, fileName, fileSize, time.Now().UTC())
		return err
	})
	return out, err
}

func (s *Store) DeleteUnit(ctx context.Context, subjectKey string, unitID int) (*catalog.Unit, error) {
	var out *catalog.Unit
	err := s.mutate(func(doc *catalog.Document) error {
		var err error
		out, err = doc.DeleteUnit(subjectKey, unitID)
		return err
	})
	return out, err
}

func (s *Store) DeleteSubject(ctx context.Context, subjectKey string) (*catalog.Subject, error) {
	var out *catalog.Subject
	err := s.mutate(func(doc *catalog.Document) error {
		var err error
		out, err = doc.DeleteSubject(subjectKey)
		return err
	})
	return out, err
}

func (s *Store) Unit(ctx context.Context, subjectKey string, unitID int) (*catalog.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subj, ok := s.doc.Subjects[subjectKey]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	for i := range subj.Units {
		if subj.Units[i].ID == unitID {
			out := subj.Units[i]
			return &out, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (s *Store) ListSubjects(ctx context.Context) (map[string]*catalog.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone().Subjects, nil
}

func (s *Store) DisplayName(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subj, ok := s.doc.Subjects[key]
	if !ok {
		return "", catalog.ErrNotFound
	}
	return subj.DisplayName, nil
}

func (s *Store) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.CreatedAt
}

// watch reloads the document when something else rewrites it. The watch is
// on the directory because renames replace the file inode. Our own flushes
// also land here; re-reading what we just wrote is harmless.
func (s *Store) watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return err
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != s.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				s.reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("document watcher error", zap.Error(err))
			case <-s.done:
				return
			}
		}
	}()
	return nil
}

func (s *Store) reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("reload skipped", zap.Error(err))
		return
	}
	doc := catalog.NewDocument(s.doc.CreatedAt)
	if err := json.Unmarshal(raw, doc); err != nil {
		// Keep serving the last good document; an external editor may have
		// written a partial or malformed file.
		s.logger.Warn("reload skipped, document malformed", zap.Error(err))
		return
	}
	if doc.Subjects == nil {
		doc.Subjects = make(map[string]*catalog.Subject)
	}
	s.doc = doc
	if s.reloads != nil {
		s.reloads.Add(context.Background(), 1)
	}
	s.logger.Debug("catalog document reloaded", zap.Int("subjects", len(doc.Subjects)))
}

func (s *Store) Close() error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Path returns the document location, mostly for logs and tests.
func (s *Store) Path() string {
	return s.path
}
