package catalog

import (
	"strings"
	"time"
)

// Document is the whole catalog: the key→Subject mapping plus the store
// creation time. It is the unit of persistence — durable providers rewrite
// it in full on every successful mutation.
//
// Mutation methods validate before touching any state, so a returned error
// means the document is unchanged.
type Document struct {
	CreatedAt time.Time           `json:"createdAt"`
	Subjects  map[string]*Subject `json:"subjects"`
}

// NewDocument returns an empty catalog created at now.
func NewDocument(now time.Time) *Document {
	return &Document{CreatedAt: now, Subjects: make(map[string]*Subject)}
}

// Clone deep-copies the document.
func (d *Document) Clone() *Document {
	out := &Document{CreatedAt: d.CreatedAt, Subjects: make(map[string]*Subject, len(d.Subjects))}
	for k, s := range d.Subjects {
		out.Subjects[k] = s.clone()
	}
	return out
}

// CreateSubject adds a subject. An empty key is derived from displayName.
func (d *Document) CreateSubject(key, displayName string, now time.Time) (*Subject, error) {
	if strings.TrimSpace(displayName) == "" {
		return nil, missingField("displayName")
	}
	if key == "" {
		key = DeriveKey(displayName)
	}
	if key == "" {
		return nil, missingField("key")
	}
	if _, ok := d.Subjects[key]; ok {
		return nil, ErrDuplicateKey
	}
	s := &Subject{Key: key, DisplayName: displayName, Units: []Unit{}, CreatedAt: now}
	d.Subjects[key] = s
	return s.clone(), nil
}

// CreateUnit validates the draft and appends a unit to the subject,
// assigning the next free id within the subject.
func (d *Document) CreateUnit(subjectKey string, draft UnitDraft, now time.Time) (*Unit, error) {
	s, ok := d.Subjects[subjectKey]
	if !ok {
		return nil, ErrNotFound
	}
	pages, err := parseDraft(&draft)
	if err != nil {
		return nil, err
	}
	u := Unit{
		ID:          nextUnitID(s),
		Number:      draft.Number,
		Icon:        draft.Icon,
		Title:       draft.Title,
		Description: draft.Description,
		Topics:      draft.Topics,
		TopicsCount: CountTopics(draft.Topics),
		PagesCount:  pages,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Units = append(s.Units, u)
	return &u, nil
}

// UpdateUnit applies a partial update. CreatedAt is immutable; UpdatedAt is
// bumped on every successful call.
func (d *Document) UpdateUnit(subjectKey string, unitID int, patch UnitPatch, now time.Time) (*Unit, error) {
	s, ok := d.Subjects[subjectKey]
	if !ok {
		return nil, ErrNotFound
	}
	u := s.unit(unitID)
	if u == nil {
		return nil, ErrNotFound
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.Number != nil {
		u.Number = *patch.Number
	}
	if patch.Icon != nil {
		u.Icon = *patch.Icon
	}
	if patch.Title != nil {
		u.Title = *patch.Title
	}
	if patch.Description != nil {
		u.Description = *patch.Description
	}
	if patch.Topics != nil {
		u.Topics = *patch.Topics
		u.TopicsCount = CountTopics(*patch.Topics)
	}
	if patch.PagesCount != nil {
		u.PagesCount = *patch.PagesCount
	}
	u.UpdatedAt = now
	out := *u
	return &out, nil
}

// SetUnitFile records file metadata on a unit, or clears it when fileName
// is empty. Called in lockstep with blob writes so the two never drift.
func (d *Document) SetUnitFile(subjectKey string, unitID int, fileName string, fileSize int64, now time.Time) (*Unit, error) {
	s, ok := d.Subjects[subjectKey]
	if !ok {
		return nil, ErrNotFound
	}
	u := s.unit(unitID)
	if u == nil {
		return nil, ErrNotFound
	}
	if fileName == "" {
		u.FileName = ""
		u.FileSize = 0
	} else {
		u.FileName = fileName
		u.FileSize = fileSize
	}
	u.UpdatedAt = now
	out := *u
	return &out, nil
}

// DeleteUnit removes a unit and returns it so the caller can release its
// blob. Deleting an already-deleted id reports ErrNotFound.
func (d *Document) DeleteUnit(subjectKey string, unitID int) (*Unit, error) {
	s, ok := d.Subjects[subjectKey]
	if !ok {
		return nil, ErrNotFound
	}
	for i := range s.Units {
		if s.Units[i].ID == unitID {
			removed := s.Units[i]
			s.Units = append(s.Units[:i], s.Units[i+1:]...)
			return &removed, nil
		}
	}
	return nil, ErrNotFound
}

// DeleteSubject removes a subject and returns it with all its units for
// cascading blob cleanup.
func (d *Document) DeleteSubject(subjectKey string) (*Subject, error) {
	s, ok := d.Subjects[subjectKey]
	if !ok {
		return nil, ErrNotFound
	}
	delete(d.Subjects, subjectKey)
	return s, nil
}

func nextUnitID(s *Subject) int {
	max := 0
	for i := range s.Units {
		if s.Units[i].ID > max {
			max = s.Units[i].ID
		}
	}
	return max + 1
}

func parseDraft(draft *UnitDraft) (pages int, err error) {
	pages, err = draft.parse()
	if err != nil {
		return 0, err
	}
	if draft.Number == "" {
		draft.Number = "1"
	}
	if draft.Icon == "" {
		draft.Icon = DefaultUnitIcon
	}
	return pages, nil
}

func validatePatch(patch UnitPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return missingField("title")
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return missingField("description")
	}
	if patch.Topics != nil && strings.TrimSpace(*patch.Topics) == "" {
		return missingField("topics")
	}
	if patch.PagesCount != nil && *patch.PagesCount < 0 {
		return &ValidationError{Field: "pagesCount", Reason: "must be a non-negative number"}
	}
	return nil
}
