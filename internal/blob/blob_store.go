package blob

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound reports a request for a blob that does not exist.
var ErrNotFound = errors.New("blob not found")

// Store keeps uploaded files as loose blobs in one directory, addressed by
// a sanitized stored name. Every blob is exclusively owned by one unit
// record; the service layer keeps record and blob mutations in lockstep.
type Store struct {
	dir    string
	logger *zap.Logger
}

func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{dir: dir, logger: logger.Named("blob")}, nil
}

// Store persists r under a name derived from suggestedName. When the name
// is already taken by another unit's blob, a numeric suffix is appended
// before the extension rather than silently overwriting unrelated data.
func (s *Store) Store(r io.Reader, suggestedName string) (storedName string, size int64, err error) {
	name := SanitizeName(suggestedName)
	name = s.disambiguate(name)

	size, err = s.write(name, r)
	if err != nil {
		return "", 0, err
	}
	s.logger.Debug("blob stored", zap.String("name", name), zap.Int64("size", size))
	return name, size, nil
}

// Replace stores the new blob first and only then deletes oldName, so a
// failure mid-way leaves the old blob intact. Callers that commit the
// stored name durably sequence the delete after that commit themselves.
func (s *Store) Replace(oldName string, r io.Reader, suggestedName string) (storedName string, size int64, err error) {
	storedName, size, err = s.Store(r, suggestedName)
	if err != nil {
		return "", 0, err
	}
	if oldName != "" && oldName != storedName {
		s.Delete(oldName)
	}
	return storedName, size, nil
}

// Delete removes a blob. A missing blob is logged and ignored: cascading
// deletes may race with manual cleanup, and repeating a delete must not
// fail the surrounding operation.
func (s *Store) Delete(name string) {
	path, err := s.resolve(name)
	if err != nil {
		s.logger.Warn("blob delete skipped", zap.String("name", name), zap.Error(err))
		return
	}
	err = os.Remove(path)
	switch {
	case err == nil:
		s.logger.Debug("blob deleted", zap.String("name", name))
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("blob already absent", zap.String("name", name))
	default:
		s.logger.Error("blob delete failed", zap.String("name", name), zap.Error(err))
	}
}

// Open returns the blob for download along with its size.
func (s *Store) Open(name string) (io.ReadSeekCloser, int64, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, 0, ErrNotFound
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open blob %s: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat blob %s: %w", name, err)
	}
	return f, info.Size(), nil
}

func (s *Store) write(name string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp blob: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to place blob: %w", err)
	}
	return size, nil
}

// resolve maps a stored name to its path, rejecting anything that would
// escape the blob directory.
func (s *Store) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// disambiguate appends -1, -2, ... before the extension until the name is
// free.
func (s *Store) disambiguate(name string) string {
	candidate := name
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(s.dir, candidate)); errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
}

// SanitizeName reduces an upload's original name to a safe stored name:
// path components dropped, anything but letters, digits, dot, dash and
// underscore replaced, leading dots stripped.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		out = "file"
	}
	return out
}
