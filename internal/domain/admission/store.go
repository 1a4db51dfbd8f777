package admission

import (
	"errors"
	"fmt"

	"github.com/ehr/bedtrack/internal/domain/patient"
)

var (
	ErrNotFound       = errors.New("room admission not found")
	ErrDuplicateIndex = errors.New("duplicate room admission index")
)

// Field names a filterable admission column.
type Field string

const (
	FieldPatientID     Field = "Patient_ID"
	FieldRoomType      Field = "Room_Type"
	FieldAdmissionDate Field = "Admission_Date"
	FieldDischargeDate Field = "Discharge_Date"
	FieldStatus        Field = "Status"
)

// Store is the in-memory room admission table. Rows are never removed and
// their Index is never renumbered; positional display indices are derived
// by the presenter.
type Store struct {
	rows    []Admission
	byIndex map[int]int
}

func NewStore(rows []Admission) (*Store, error) {
	s := &Store{byIndex: make(map[int]int, len(rows))}
	for _, a := range rows {
		if err := s.Insert(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Len() int { return len(s.rows) }

func (s *Store) All() []Admission {
	return append([]Admission(nil), s.rows...)
}

func (s *Store) Get(index int) (Admission, bool) {
	i, ok := s.byIndex[index]
	if !ok {
		return Admission{}, false
	}
	return s.rows[i], true
}

// NextIndex returns the current max index plus one.
func (s *Store) NextIndex() int {
	max := 0
	for _, a := range s.rows {
		if a.Index > max {
			max = a.Index
		}
	}
	return max + 1
}

func (s *Store) Insert(a Admission) error {
	if _, ok := s.byIndex[a.Index]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateIndex, a.Index)
	}
	s.byIndex[a.Index] = len(s.rows)
	s.rows = append(s.rows, a)
	return nil
}

// Put replaces the row stored under a.Index.
func (s *Store) Put(a Admission) error {
	i, ok := s.byIndex[a.Index]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, a.Index)
	}
	s.rows[i] = a
	return nil
}

// Ongoing returns the patient's ONGOING row, if any.
func (s *Store) Ongoing(id patient.ID) (Admission, bool) {
	for _, a := range s.rows {
		if a.PatientID == id && a.Status == Ongoing {
			return a, true
		}
	}
	return Admission{}, false
}

// ForPatient returns every row that references id, in storage order.
func (s *Store) ForPatient(id patient.ID) []Admission {
	var out []Admission
	for _, a := range s.rows {
		if a.PatientID == id {
			out = append(out, a)
		}
	}
	return out
}

// Filter returns rows whose field equals value, in storage order.
func (s *Store) Filter(field Field, value string) []Admission {
	var out []Admission
	for _, a := range s.rows {
		if a.value(field) == value {
			out = append(out, a)
		}
	}
	return out
}

func (a Admission) value(field Field) string {
	switch field {
	case FieldPatientID:
		return a.PatientID.String()
	case FieldRoomType:
		return a.RoomType.String()
	case FieldAdmissionDate:
		return a.AdmissionDate
	case FieldDischargeDate:
		return a.DischargeDate
	case FieldStatus:
		return a.Status.String()
	}
	return ""
}
