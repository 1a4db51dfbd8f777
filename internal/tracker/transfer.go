package tracker

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
)

// DischargeChange marks an ONGOING stay COMPLETED and frees its bed.
type DischargeChange struct {
	staged

	Before admission.Admission
	After  admission.Admission
	Beds   bed.Snapshot
}

func (c *DischargeChange) Operation() string { return "discharge" }

func (c *DischargeChange) MarshalZerologObject(e *zerolog.Event) {
	e.Int("admission_index", c.After.Index).
		Str("patient_id", c.After.PatientID.String()).
		Str("room_type", c.After.RoomType.String()).
		Str("discharge_date", c.After.DischargeDate).
		Int("bed_index", c.Beds.Index)
}

func (c *DischargeChange) apply(s *Session) error {
	if err := s.admissions.Put(c.After); err != nil {
		return err
	}
	c.Beds = s.ledger.Append(c.After.RoomType, bed.NoRoom)
	return nil
}

// PrepareDischarge stages completion of the admission stored under index.
func (s *Session) PrepareDischarge(index int) (*DischargeChange, error) {
	before, err := s.openAdmission(index)
	if err != nil {
		return nil, err
	}

	after := before
	after.DischargeDate = s.today()
	after.Status = admission.Completed
	return &DischargeChange{
		staged: s.stage(),
		Before: before,
		After:  after,
		Beds:   s.ledger.Next(before.RoomType, bed.NoRoom),
	}, nil
}

// TransferChange moves an ONGOING stay to another room type. The ledger
// records the move as a single snapshot.
type TransferChange struct {
	staged

	Before admission.Admission
	After  admission.Admission
	Beds   bed.Snapshot
}

func (c *TransferChange) Operation() string { return "transfer" }

func (c *TransferChange) MarshalZerologObject(e *zerolog.Event) {
	e.Int("admission_index", c.After.Index).
		Str("patient_id", c.After.PatientID.String()).
		Str("from", c.Before.RoomType.String()).
		Str("to", c.After.RoomType.String()).
		Int("bed_index", c.Beds.Index)
}

func (c *TransferChange) apply(s *Session) error {
	if err := s.admissions.Put(c.After); err != nil {
		return err
	}
	c.Beds = s.ledger.Append(c.Before.RoomType, c.After.RoomType)
	return nil
}

// PrepareTransfer stages moving the admission stored under index to room.
func (s *Session) PrepareTransfer(index int, room bed.RoomType) (*TransferChange, error) {
	before, err := s.openAdmission(index)
	if err != nil {
		return nil, err
	}
	if room == before.RoomType {
		return nil, fmt.Errorf("%w: %s", ErrSameRoomType, room.Label())
	}
	if err := s.checkRoom(room); err != nil {
		return nil, err
	}

	after := before
	after.RoomType = room
	return &TransferChange{
		staged: s.stage(),
		Before: before,
		After:  after,
		Beds:   s.ledger.Next(before.RoomType, room),
	}, nil
}

func (s *Session) openAdmission(index int) (admission.Admission, error) {
	a, ok := s.admissions.Get(index)
	if !ok {
		return admission.Admission{}, fmt.Errorf("%w: index %d", ErrAdmissionNotFound, index)
	}
	if !a.Open() {
		return admission.Admission{}, fmt.Errorf("%w: index %d is %s", ErrAdmissionClosed, index, a.Status)
	}
	return a, nil
}
