package tracker

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
)

// NewPatientChange registers a patient and opens their first stay.
type NewPatientChange struct {
	staged

	Patient   patient.Patient
	Admission admission.Admission
	// Beds previews the snapshot that will be appended.
	Beds bed.Snapshot
	// Duplicate is set when a live patient already has the same profile.
	// The operator decides whether this is the same person; if so the
	// change should be dropped and a new visit prepared instead.
	Duplicate *patient.Patient
}

func (c *NewPatientChange) Operation() string { return "admit_new_patient" }

func (c *NewPatientChange) MarshalZerologObject(e *zerolog.Event) {
	e.Str("patient_id", c.Patient.ID.String()).
		Int("admission_index", c.Admission.Index).
		Str("room_type", c.Admission.RoomType.String()).
		Int("bed_index", c.Beds.Index)
}

func (c *NewPatientChange) apply(s *Session) error {
	if err := s.patients.Insert(c.Patient); err != nil {
		return err
	}
	if err := s.admissions.Insert(c.Admission); err != nil {
		return err
	}
	c.Beds = s.ledger.Append(bed.NoRoom, c.Admission.RoomType)
	return nil
}

// PrepareNewPatient stages the admission of a first-time patient into room.
func (s *Session) PrepareNewPatient(profile patient.Profile, room bed.RoomType) (*NewPatientChange, error) {
	if profile == patient.NullProfile {
		return nil, fmt.Errorf("%w: empty profile", ErrInvalidInput)
	}
	if err := s.checkRoom(room); err != nil {
		return nil, err
	}

	p := patient.Patient{ID: s.patients.NextID(), Profile: profile}
	c := &NewPatientChange{
		staged:    s.stage(),
		Patient:   p,
		Admission: s.newAdmission(p.ID, room),
		Beds:      s.ledger.Next(bed.NoRoom, room),
	}
	if dup, ok := s.patients.FindDuplicate(profile); ok {
		c.Duplicate = &dup
	}
	return c, nil
}

// NewVisitChange opens a new stay for a returning patient.
type NewVisitChange struct {
	staged

	Patient   patient.Patient
	Admission admission.Admission
	Beds      bed.Snapshot
}

func (c *NewVisitChange) Operation() string { return "admit_returning_patient" }

func (c *NewVisitChange) MarshalZerologObject(e *zerolog.Event) {
	e.Str("patient_id", c.Patient.ID.String()).
		Int("admission_index", c.Admission.Index).
		Str("room_type", c.Admission.RoomType.String()).
		Int("bed_index", c.Beds.Index)
}

func (c *NewVisitChange) apply(s *Session) error {
	if err := s.admissions.Insert(c.Admission); err != nil {
		return err
	}
	c.Beds = s.ledger.Append(bed.NoRoom, c.Admission.RoomType)
	return nil
}

// PrepareNewVisit stages a new stay in room for an existing patient.
func (s *Session) PrepareNewVisit(id patient.ID, room bed.RoomType) (*NewVisitChange, error) {
	p, err := s.livePatient(id)
	if err != nil {
		return nil, err
	}
	if ongoing, ok := s.admissions.Ongoing(id); ok {
		return nil, fmt.Errorf("%w: %s in room admission %d", ErrOngoingAdmission, id, ongoing.Index)
	}
	if err := s.checkRoom(room); err != nil {
		return nil, err
	}

	return &NewVisitChange{
		staged:    s.stage(),
		Patient:   p,
		Admission: s.newAdmission(id, room),
		Beds:      s.ledger.Next(bed.NoRoom, room),
	}, nil
}

func (s *Session) newAdmission(id patient.ID, room bed.RoomType) admission.Admission {
	return admission.Admission{
		Index:         s.admissions.NextIndex(),
		PatientID:     id,
		RoomType:      room,
		AdmissionDate: s.today(),
		DischargeDate: admission.NotDischarged,
		Status:        admission.Ongoing,
	}
}

func (s *Session) checkRoom(room bed.RoomType) error {
	if !room.Valid() {
		return fmt.Errorf("%w: room type %d", ErrInvalidInput, room)
	}
	if !s.ledger.IsAvailable(room) {
		return fmt.Errorf("%w: %s", ErrRoomUnavailable, room.Label())
	}
	return nil
}

func (s *Session) livePatient(id patient.ID) (patient.Patient, error) {
	p, ok := s.patients.Get(id)
	if !ok {
		return patient.Patient{}, fmt.Errorf("%w: %s", ErrPatientNotFound, id)
	}
	if p.Deleted() {
		return patient.Patient{}, fmt.Errorf("%w: %s", ErrPatientDeleted, id)
	}
	return p, nil
}
