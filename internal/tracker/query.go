package tracker

import (
	"fmt"
	"time"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
)

func (s *Session) Patients() []patient.Patient { return s.patients.All() }

func (s *Session) Patient(id patient.ID) (patient.Patient, error) {
	p, ok := s.patients.Get(id)
	if !ok {
		return patient.Patient{}, fmt.Errorf("%w: %s", ErrPatientNotFound, id)
	}
	return p, nil
}

func (s *Session) FilterPatients(field patient.Field, value string) []patient.Patient {
	return s.patients.Filter(field, value)
}

func (s *Session) Admissions() []admission.Admission { return s.admissions.All() }

func (s *Session) Admission(index int) (admission.Admission, error) {
	a, ok := s.admissions.Get(index)
	if !ok {
		return admission.Admission{}, fmt.Errorf("%w: index %d", ErrAdmissionNotFound, index)
	}
	return a, nil
}

func (s *Session) FilterAdmissions(field admission.Field, value string) []admission.Admission {
	return s.admissions.Filter(field, value)
}

func (s *Session) Snapshots() []bed.Snapshot { return s.ledger.Snapshots() }

func (s *Session) LatestSnapshot() bed.Snapshot { return s.ledger.Latest() }

func (s *Session) IsAvailable(room bed.RoomType) bool { return s.ledger.IsAvailable(room) }

func (s *Session) Occupancy() bed.Occupancy { return s.ledger.Occupancy() }

// SnapshotsBetween returns the snapshots recorded on the calendar days from
// start through end inclusive, in the session clock's location.
func (s *Session) SnapshotsBetween(start, end time.Time) ([]bed.Snapshot, error) {
	loc := s.now().Location()
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	to := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1).Add(-time.Second)
	if from.After(to) {
		return nil, fmt.Errorf("%w: start date must be before end date", ErrInvalidInput)
	}
	return s.ledger.Between(from, to), nil
}
