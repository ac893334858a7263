package catalog

import (
	"sort"
	"time"
)

// Stats are derived counts over a snapshot, recomputed on demand.
type Stats struct {
	TotalSubjects int       `json:"totalSubjects"`
	TotalUnits    int       `json:"totalUnits"`
	TotalFiles    int       `json:"totalFiles"`
	TotalSize     int64     `json:"totalSize"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// Activity is one entry of the recent-activity feed.
type Activity struct {
	Type        string    `json:"type"` // unit_created or unit_updated
	SubjectKey  string    `json:"subjectKey"`
	SubjectName string    `json:"subjectName"`
	UnitTitle   string    `json:"unitTitle"`
	Time        time.Time `json:"time"`
}

// RecentActivityLimit bounds the activity feed.
const RecentActivityLimit = 10

// ComputeStats scans a snapshot. createdAt is the store creation time,
// reported as LastUpdated when the catalog holds no records.
func ComputeStats(snapshot map[string]*Subject, createdAt time.Time) Stats {
	st := Stats{TotalSubjects: len(snapshot), LastUpdated: createdAt}
	for _, s := range snapshot {
		if s.CreatedAt.After(st.LastUpdated) {
			st.LastUpdated = s.CreatedAt
		}
		st.TotalUnits += len(s.Units)
		for i := range s.Units {
			u := &s.Units[i]
			if u.FileName != "" {
				st.TotalFiles++
				st.TotalSize += u.FileSize
			}
			if u.UpdatedAt.After(st.LastUpdated) {
				st.LastUpdated = u.UpdatedAt
			}
		}
	}
	return st
}

// RecentActivity collects creation and update events per unit, newest
// first, capped at limit. Ties keep the original subject-key/unit order.
func RecentActivity(snapshot map[string]*Subject, limit int) []Activity {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var events []Activity
	for _, k := range keys {
		s := snapshot[k]
		for i := range s.Units {
			u := &s.Units[i]
			events = append(events, Activity{
				Type:        "unit_created",
				SubjectKey:  s.Key,
				SubjectName: s.DisplayName,
				UnitTitle:   u.Title,
				Time:        u.CreatedAt,
			})
			if u.UpdatedAt.After(u.CreatedAt) {
				events = append(events, Activity{
					Type:        "unit_updated",
					SubjectKey:  s.Key,
					SubjectName: s.DisplayName,
					UnitTitle:   u.Title,
					Time:        u.UpdatedAt,
				})
			}
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.After(events[j].Time)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}
