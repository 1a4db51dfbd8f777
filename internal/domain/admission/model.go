package admission

import (
	"fmt"
	"strings"

	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
)

// NotDischarged is the discharge date carried while a stay is ongoing.
const NotDischarged = "N/A"

// Status is the lifecycle state of a room admission.
type Status int

const (
	// StatusNull marks a row voided by patient deletion.
	StatusNull Status = iota
	Ongoing
	Completed
)

func (s Status) String() string {
	switch s {
	case Ongoing:
		return "ONGOING"
	case Completed:
		return "COMPLETED"
	}
	return patient.Null
}

// ParseStatus accepts ONGOING, COMPLETED or NULL in any case.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ONGOING":
		return Ongoing, nil
	case "COMPLETED":
		return Completed, nil
	case patient.Null:
		return StatusNull, nil
	}
	return StatusNull, fmt.Errorf("invalid status %q", s)
}

// Admission is one room stay. Index is the stored key, assigned as max+1
// and never reassigned.
type Admission struct {
	Index         int
	PatientID     patient.ID
	RoomType      bed.RoomType
	AdmissionDate string
	DischargeDate string
	Status        Status
}

// Open reports whether the row may still be discharged or moved.
func (a Admission) Open() bool {
	return a.Status == Ongoing
}
