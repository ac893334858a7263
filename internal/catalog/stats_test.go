package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func buildSnapshot(t *testing.T) map[string]*Subject {
	t.Helper()
	d := NewDocument(testTime)

	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)
	_, err = d.CreateSubject("html", "HTML", testTime)
	require.NoError(t, err)

	for i, title := range []string{"Basics", "Classes", "Generics"} {
		u, err := d.CreateUnit("java", draft(title), testTime.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		switch i {
		case 0:
			_, err = d.SetUnitFile("java", u.ID, "basics.pdf", 1000, testTime.Add(time.Duration(i)*time.Minute))
			require.NoError(t, err)
		case 1:
			_, err = d.SetUnitFile("java", u.ID, "classes.pdf", 2000, testTime.Add(time.Duration(i)*time.Minute))
			require.NoError(t, err)
		}
	}
	return d.Subjects
}

func TestComputeStats(t *testing.T) {
	snapshot := buildSnapshot(t)

	st := ComputeStats(snapshot, testTime.Add(-time.Hour))
	require.Equal(t, 2, st.TotalSubjects)
	require.Equal(t, 3, st.TotalUnits)
	require.Equal(t, 2, st.TotalFiles)
	require.EqualValues(t, 3000, st.TotalSize)
	require.Equal(t, testTime.Add(2*time.Minute), st.LastUpdated)
}

func TestComputeStats_EmptyUsesStoreCreation(t *testing.T) {
	created := testTime.Add(-24 * time.Hour)
	st := ComputeStats(map[string]*Subject{}, created)
	require.Zero(t, st.TotalSubjects)
	require.Zero(t, st.TotalSize)
	require.Equal(t, created, st.LastUpdated)
}

func TestRecentActivity_OrderAndLimit(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)

	u, err := d.CreateUnit("java", draft("Basics"), testTime)
	require.NoError(t, err)
	_, err = d.CreateUnit("java", draft("Classes"), testTime.Add(time.Minute))
	require.NoError(t, err)

	// An update after both creations must lead the feed
	title := "Basics v2"
	_, err = d.UpdateUnit("java", u.ID, UnitPatch{Title: &title}, testTime.Add(2*time.Minute))
	require.NoError(t, err)

	feed := RecentActivity(d.Subjects, RecentActivityLimit)
	require.Len(t, feed, 3)
	require.Equal(t, "unit_updated", feed[0].Type)
	require.Equal(t, "Basics v2", feed[0].UnitTitle)
	require.Equal(t, "unit_created", feed[1].Type)
	require.Equal(t, "Classes", feed[1].UnitTitle)
	require.Equal(t, "unit_created", feed[2].Type)
}

func TestRecentActivity_CapsAtLimit(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)
	for i := 0; i < 15; i++ {
		_, err := d.CreateUnit("java", draft("Unit"), testTime.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	feed := RecentActivity(d.Subjects, RecentActivityLimit)
	require.Len(t, feed, RecentActivityLimit)
	for i := 1; i < len(feed); i++ {
		require.False(t, feed[i].Time.After(feed[i-1].Time), "feed must be newest first")
	}
}

func TestRecentActivity_NoUpdateEventWhenUntouched(t *testing.T) {
	d := NewDocument(testTime)
	_, err := d.CreateSubject("java", "Java", testTime)
	require.NoError(t, err)
	_, err = d.CreateUnit("java", draft("Basics"), testTime)
	require.NoError(t, err)

	feed := RecentActivity(d.Subjects, RecentActivityLimit)
	require.Len(t, feed, 1)
	require.Equal(t, "unit_created", feed[0].Type)
}
