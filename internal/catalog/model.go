package catalog

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Subject groups units under a stable URL-safe key.
type Subject struct {
	Key         string    `json:"key"`
	DisplayName string    `json:"displayName"`
	Units       []Unit    `json:"units"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Unit is a single study-material entry within a subject. FileName and
// FileSize are set together or not at all.
type Unit struct {
	ID          int       `json:"id"`
	Number      string    `json:"number"`
	Icon        string    `json:"icon"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Topics      string    `json:"topics"`
	TopicsCount int       `json:"topicsCount"`
	PagesCount  int       `json:"pagesCount"`
	FileName    string    `json:"fileName,omitempty"`
	FileSize    int64     `json:"fileSize,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UnitDraft carries the raw fields of a create-unit request. Values arrive
// as form strings; validation and parsing happen when the draft is applied.
type UnitDraft struct {
	Number      string
	Icon        string
	Title       string
	Description string
	Topics      string
	PagesCount  string
}

// Validate reports the first missing or malformed required field. Callers
// that stage other writes around CreateUnit check the draft up front so a
// rejected draft costs nothing.
func (d UnitDraft) Validate() error {
	_, err := d.parse()
	return err
}

func (d UnitDraft) parse() (int, error) {
	if strings.TrimSpace(d.Title) == "" {
		return 0, missingField("title")
	}
	if strings.TrimSpace(d.Description) == "" {
		return 0, missingField("description")
	}
	if strings.TrimSpace(d.Topics) == "" {
		return 0, missingField("topics")
	}
	if strings.TrimSpace(d.PagesCount) == "" {
		return 0, missingField("pagesCount")
	}
	pages, err := strconv.Atoi(strings.TrimSpace(d.PagesCount))
	if err != nil || pages < 0 {
		return 0, &ValidationError{Field: "pagesCount", Reason: "must be a non-negative number"}
	}
	return pages, nil
}

// UnitPatch is a partial update. Nil fields are left untouched.
type UnitPatch struct {
	Number      *string
	Icon        *string
	Title       *string
	Description *string
	Topics      *string
	PagesCount  *int
}

// DefaultUnitIcon is applied when a draft does not name one.
const DefaultUnitIcon = "fas fa-book"

// DeriveKey turns a display name into a subject key: lowercased, whitespace
// runs collapsed to single hyphens.
func DeriveKey(displayName string) string {
	return strings.Join(strings.Fields(strings.ToLower(displayName)), "-")
}

// CountTopics counts the non-empty comma-separated entries in a topics
// string, e.g. "a, b, ,c" counts 3.
func CountTopics(topics string) int {
	n := 0
	for _, t := range strings.Split(topics, ",") {
		if strings.TrimSpace(t) != "" {
			n++
		}
	}
	return n
}

func (s *Subject) clone() *Subject {
	if s == nil {
		return nil
	}
	out := *s
	out.Units = append([]Unit(nil), s.Units...)
	return &out
}

func (s *Subject) unit(id int) *Unit {
	for i := range s.Units {
		if s.Units[i].ID == id {
			return &s.Units[i]
		}
	}
	return nil
}

// SortUnitsByNumber orders units for display by the numeric value of their
// Number field. Non-numeric numbers sort after numeric ones; ties keep
// insertion order.
func SortUnitsByNumber(units []Unit) {
	numeric := func(u Unit) (int, bool) {
		n, err := strconv.Atoi(strings.TrimSpace(u.Number))
		return n, err == nil
	}
	sort.SliceStable(units, func(i, j int) bool {
		a, aok := numeric(units[i])
		b, bok := numeric(units[j])
		switch {
		case aok && bok:
			return a < b
		case aok:
			return true
		default:
			return false
		}
	})
}
