package tracker

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ehr/bedtrack/internal/domain/patient"
)

// ProfileChange edits the demographic fields of a live patient.
type ProfileChange struct {
	staged

	Before patient.Patient
	After  patient.Patient
}

func (c *ProfileChange) Operation() string { return "update_profile" }

func (c *ProfileChange) MarshalZerologObject(e *zerolog.Event) {
	e.Str("patient_id", c.After.ID.String())
}

func (c *ProfileChange) apply(s *Session) error {
	return s.patients.SetProfile(c.After.ID, c.After.Profile)
}

// PrepareProfileUpdate stages replacing the profile of id.
func (s *Session) PrepareProfileUpdate(id patient.ID, profile patient.Profile) (*ProfileChange, error) {
	before, err := s.livePatient(id)
	if err != nil {
		return nil, err
	}
	if profile == patient.NullProfile {
		return nil, fmt.Errorf("%w: empty profile", ErrInvalidInput)
	}
	return &ProfileChange{
		staged: s.stage(),
		Before: before,
		After:  patient.Patient{ID: id, Profile: profile},
	}, nil
}
