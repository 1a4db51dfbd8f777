package tracker

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
)

// DeletionChange soft-deletes a patient and voids every room admission row
// that references them.
type DeletionChange struct {
	staged

	Patient patient.Patient
	// Voided holds the linked rows as they will look after the change.
	Voided []admission.Admission
	// Ongoing is the stay that was still open, if any.
	Ongoing *admission.Admission
	// Release is set when the policy frees the ongoing bed; Beds then
	// previews the appended snapshot.
	Release bool
	Beds    bed.Snapshot
}

func (c *DeletionChange) Operation() string { return "delete_patient" }

func (c *DeletionChange) MarshalZerologObject(e *zerolog.Event) {
	e.Str("patient_id", c.Patient.ID.String()).
		Int("voided_rows", len(c.Voided)).
		Bool("had_ongoing", c.Ongoing != nil).
		Bool("released_bed", c.Release)
	if c.Release {
		e.Int("bed_index", c.Beds.Index)
	}
}

func (c *DeletionChange) apply(s *Session) error {
	if err := s.patients.SoftDelete(c.Patient.ID); err != nil {
		return err
	}
	for _, a := range c.Voided {
		if err := s.admissions.Put(a); err != nil {
			return err
		}
	}
	if c.Release {
		c.Beds = s.ledger.Append(c.Ongoing.RoomType, bed.NoRoom)
	}
	return nil
}

// PrepareDeletion stages a soft delete of id. What happens to a bed still
// held by the patient depends on the session's DeletePolicy.
func (s *Session) PrepareDeletion(id patient.ID) (*DeletionChange, error) {
	p, err := s.livePatient(id)
	if err != nil {
		return nil, err
	}

	c := &DeletionChange{staged: s.stage(), Patient: p}
	if ongoing, ok := s.admissions.Ongoing(id); ok {
		if s.deletePolicy == DeleteReject {
			return nil, fmt.Errorf("%w: mark room admission %d COMPLETED first", ErrOngoingAdmission, ongoing.Index)
		}
		c.Ongoing = &ongoing
		if s.deletePolicy == DeleteRelease {
			c.Release = true
			c.Beds = s.ledger.Next(ongoing.RoomType, bed.NoRoom)
		}
	}
	for _, a := range s.admissions.ForPatient(id) {
		a.Status = admission.StatusNull
		c.Voided = append(c.Voided, a)
	}
	return c, nil
}
