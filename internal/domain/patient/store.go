package patient

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("patient not found")
	ErrDuplicateID = errors.New("duplicate patient id")
)

// Field names a filterable patient column.
type Field string

const (
	FieldID        Field = "Patient_ID"
	FieldFirstName Field = "First_Name"
	FieldLastName  Field = "Last_Name"
	FieldGender    Field = "Gender"
	FieldBirthDate Field = "Birth_Date"
)

// Store is the in-memory patient table. Rows keep their load/insert order
// and are never removed.
type Store struct {
	rows []Patient
	byID map[ID]int
}

func NewStore(rows []Patient) (*Store, error) {
	s := &Store{byID: make(map[ID]int, len(rows))}
	for _, p := range rows {
		if err := s.Insert(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Len() int { return len(s.rows) }

// All returns a copy of every row in storage order.
func (s *Store) All() []Patient {
	return append([]Patient(nil), s.rows...)
}

func (s *Store) Get(id ID) (Patient, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Patient{}, false
	}
	return s.rows[i], true
}

// NextID returns one past the highest id ever assigned. Soft-deleted rows
// still count, so ids are never reused.
func (s *Store) NextID() ID {
	var max ID
	for _, p := range s.rows {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}

func (s *Store) Insert(p Patient) error {
	if _, ok := s.byID[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}
	s.byID[p.ID] = len(s.rows)
	s.rows = append(s.rows, p)
	return nil
}

// SetProfile overwrites the profile of an existing row in place.
func (s *Store) SetProfile(id ID, profile Profile) error {
	i, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.rows[i].Profile = profile
	return nil
}

// SoftDelete overwrites every non-id field with the NULL sentinel.
func (s *Store) SoftDelete(id ID) error {
	return s.SetProfile(id, NullProfile)
}

// FindDuplicate returns the first non-deleted patient whose profile matches
// exactly, field for field.
func (s *Store) FindDuplicate(profile Profile) (Patient, bool) {
	for _, p := range s.rows {
		if !p.Deleted() && p.Profile == profile {
			return p, true
		}
	}
	return Patient{}, false
}

// Filter returns rows whose field equals value, in storage order.
func (s *Store) Filter(field Field, value string) []Patient {
	var out []Patient
	for _, p := range s.rows {
		if p.value(field) == value {
			out = append(out, p)
		}
	}
	return out
}

func (p Patient) value(field Field) string {
	switch field {
	case FieldID:
		return p.ID.String()
	case FieldFirstName:
		return p.FirstName
	case FieldLastName:
		return p.LastName
	case FieldGender:
		return p.Gender.String()
	case FieldBirthDate:
		return p.BirthDate
	}
	return ""
}
