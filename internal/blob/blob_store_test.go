package blob

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func readBlob(t *testing.T, s *Store, name string) string {
	t.Helper()
	rc, _, err := s.Open(name)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestStore_StoreAndOpen(t *testing.T) {
	s := newTestStore(t)

	name, size, err := s.Store(strings.NewReader("hello"), "notes.pdf")
	require.NoError(t, err)
	require.Equal(t, "notes.pdf", name)
	require.EqualValues(t, 5, size)
	require.Equal(t, "hello", readBlob(t, s, name))
}

func TestStore_DisambiguatesCollidingNames(t *testing.T) {
	s := newTestStore(t)

	first, _, err := s.Store(strings.NewReader("one"), "notes.pdf")
	require.NoError(t, err)
	second, _, err := s.Store(strings.NewReader("two"), "notes.pdf")
	require.NoError(t, err)
	third, _, err := s.Store(strings.NewReader("three"), "notes.pdf")
	require.NoError(t, err)

	require.Equal(t, "notes.pdf", first)
	require.Equal(t, "notes-1.pdf", second)
	require.Equal(t, "notes-2.pdf", third)
	require.Equal(t, "one", readBlob(t, s, first))
	require.Equal(t, "two", readBlob(t, s, second))
}

func TestStore_ReplaceWritesNewThenDeletesOld(t *testing.T) {
	s := newTestStore(t)

	oldName, _, err := s.Store(strings.NewReader("v1"), "notes.pdf")
	require.NoError(t, err)

	newName, size, err := s.Replace(oldName, strings.NewReader("v2 content"), "revised.pdf")
	require.NoError(t, err)
	require.Equal(t, "revised.pdf", newName)
	require.EqualValues(t, 10, size)
	require.Equal(t, "v2 content", readBlob(t, s, newName))

	_, _, err = s.Open(oldName)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	name, _, err := s.Store(strings.NewReader("x"), "notes.pdf")
	require.NoError(t, err)

	s.Delete(name)
	_, _, err = s.Open(name)
	require.ErrorIs(t, err, ErrNotFound)

	// repeated delete of an absent blob must not panic or error out
	s.Delete(name)
	s.Delete("never-existed.pdf")
}

func TestStore_OpenUnknown(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.Open("missing.pdf")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RejectsEscapingNames(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.Open("../etc/passwd")
	require.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.Open(".hidden")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_StoreSanitizesTraversal(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)

	name, _, err := s.Store(strings.NewReader("x"), "../../evil sh.pdf")
	require.NoError(t, err)
	require.Equal(t, "evil_sh.pdf", name)

	// the blob landed inside the directory
	_, statErr := os.Stat(filepath.Join(dir, name))
	require.NoError(t, statErr)
}

func TestSanitizeName(t *testing.T) {
	require.Equal(t, "report_final.pdf", SanitizeName("report final.pdf"))
	require.Equal(t, "passwd", SanitizeName("../../etc/passwd"))
	require.Equal(t, "notes.pdf", SanitizeName(`C:\Users\me\notes.pdf`))
	require.Equal(t, "env", SanitizeName("...env"))
	require.Equal(t, "file", SanitizeName("???"))
}
