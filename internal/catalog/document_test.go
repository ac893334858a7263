package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func draft(title string) UnitDraft {
	return UnitDraft{
		Title:       title,
		Description: "intro material",
		Topics:      "variables, loops",
		PagesCount:  "12",
	}
}

func TestDocument_CreateSubject_DerivesKey(t *testing.T) {
	d := NewDocument(testTime)

	s, err := d.CreateSubject("", "Data   Structures", testTime)
	require.NoError(t, err)
	require.Equal(t, "data-structures", s.Key)
	require.Equal(t, "Data   Structures", s.DisplayName)
	require.Empty(t, s.Units)
}

func TestDocument_CreateSubject_DuplicateKey(t *testing.T) {
	d := NewDocument(testTime)

	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)

	_, err = d.CreateSubject("java", "Java Again", testTime)
	require.ErrorIs(t, err, ErrDuplicateKey)

	// Derived keys collide the same way as explicit ones
	_, err = d.CreateSubject("", "JAVA", testTime)
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestDocument_CreateUnit_AssignsIDsAndDefaults(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)

	u1, err := d.CreateUnit("java", draft("Basics"), testTime)
	require.NoError(t, err)
	require.Equal(t, 1, u1.ID)
	require.Equal(t, "1", u1.Number)
	require.Equal(t, DefaultUnitIcon, u1.Icon)
	require.Equal(t, 12, u1.PagesCount)
	require.Equal(t, testTime, u1.CreatedAt)
	require.Equal(t, u1.CreatedAt, u1.UpdatedAt)

	u2, err := d.CreateUnit("java", draft("Classes"), testTime)
	require.NoError(t, err)
	require.Equal(t, 2, u2.ID)

	// id is max+1, so deleting an early unit never recycles ids
	_, err = d.DeleteUnit("java", 1)
	require.NoError(t, err)
	u3, err := d.CreateUnit("java", draft("Generics"), testTime)
	require.NoError(t, err)
	require.Equal(t, 3, u3.ID)
}

func TestDocument_CreateUnit_TopicsCount(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)

	dr := draft("Basics")
	dr.Topics = "a, b, ,c"
	u, err := d.CreateUnit("java", dr, testTime)
	require.NoError(t, err)
	require.Equal(t, 3, u.TopicsCount)
}

func TestDocument_CreateUnit_ValidationLeavesStoreUnchanged(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)

	cases := map[string]UnitDraft{
		"missing title":       {Description: "d", Topics: "t", PagesCount: "1"},
		"missing description": {Title: "t", Topics: "t", PagesCount: "1"},
		"missing topics":      {Title: "t", Description: "d", PagesCount: "1"},
		"missing pagesCount":  {Title: "t", Description: "d", Topics: "t"},
		"bad pagesCount":      {Title: "t", Description: "d", Topics: "t", PagesCount: "lots"},
	}
	for name, dr := range cases {
		_, err := d.CreateUnit("java", dr, testTime)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, name)
		require.Empty(t, d.Subjects["java"].Units, name)
	}
}

func TestDocument_CreateUnit_UnknownSubject(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateUnit("ghost", draft("Basics"), testTime)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDocument_UpdateUnit_PartialPatch(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)
	u, err := d.CreateUnit("java", draft("Basics"), testTime)
	require.NoError(t, err)

	later := testTime.Add(time.Hour)
	title := "Advanced Basics"
	topics := "a,b,c,d"
	updated, err := d.UpdateUnit("java", u.ID, UnitPatch{Title: &title, Topics: &topics}, later)
	require.NoError(t, err)
	require.Equal(t, "Advanced Basics", updated.Title)
	require.Equal(t, 4, updated.TopicsCount)
	require.Equal(t, "intro material", updated.Description)
	require.Equal(t, testTime, updated.CreatedAt)
	require.Equal(t, later, updated.UpdatedAt)
}

func TestDocument_UpdateUnit_RejectsEmptyRequiredField(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)
	u, err := d.CreateUnit("java", draft("Basics"), testTime)
	require.NoError(t, err)

	empty := "  "
	_, err = d.UpdateUnit("java", u.ID, UnitPatch{Title: &empty}, testTime.Add(time.Hour))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// Nothing changed, including the timestamp
	got := d.Subjects["java"].Units[0]
	require.Equal(t, "Basics", got.Title)
	require.Equal(t, testTime, got.UpdatedAt)
}

func TestDocument_UpdateUnit_NotFound(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)

	_, err = d.UpdateUnit("java", 42, UnitPatch{}, testTime)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = d.UpdateUnit("ghost", 1, UnitPatch{}, testTime)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDocument_SetUnitFile_SetAndClear(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)
	u, err := d.CreateUnit("java", draft("Basics"), testTime)
	require.NoError(t, err)

	withFile, err := d.SetUnitFile("java", u.ID, "notes.pdf", 2048, testTime.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "notes.pdf", withFile.FileName)
	require.EqualValues(t, 2048, withFile.FileSize)

	cleared, err := d.SetUnitFile("java", u.ID, "", 0, testTime.Add(2*time.Minute))
	require.NoError(t, err)
	require.Empty(t, cleared.FileName)
	require.Zero(t, cleared.FileSize)
}

func TestDocument_DeleteUnit_SecondDeleteNotFound(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)
	u, err := d.CreateUnit("java", draft("Basics"), testTime)
	require.NoError(t, err)

	removed, err := d.DeleteUnit("java", u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, removed.ID)
	require.Empty(t, d.Subjects["java"].Units)

	_, err = d.DeleteUnit("java", u.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDocument_DeleteSubject_ReturnsUnitsForCascade(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)
	u, err := d.CreateUnit("java", draft("Basics"), testTime)
	require.NoError(t, err)
	_, err = d.SetUnitFile("java", u.ID, "notes.pdf", 10, testTime)
	require.NoError(t, err)

	removed, err := d.DeleteSubject("java")
	require.NoError(t, err)
	require.Len(t, removed.Units, 1)
	require.Equal(t, "notes.pdf", removed.Units[0].FileName)
	require.NotContains(t, d.Subjects, "java")

	_, err = d.DeleteSubject("java")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDocument_Clone_IsDeep(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)
	_, err = d.CreateUnit("java", draft("Basics"), testTime)
	require.NoError(t, err)

	clone := d.Clone()
	clone.Subjects["java"].Units[0].Title = "mutated"
	clone.Subjects["java"].DisplayName = "mutated"
	delete(clone.Subjects, "java")

	require.Equal(t, "Basics", d.Subjects["java"].Units[0].Title)
	require.Equal(t, "Java", d.Subjects["java"].DisplayName)
}
