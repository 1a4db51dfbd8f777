package report

import (
	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
)

const dateLayout = "2006-01-02"

type Patient struct {
	PatientID string `json:"patient_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
	BirthDate string `json:"birth_date"`
	Deleted   bool   `json:"deleted"`
}

type Admission struct {
	Index         int    `json:"index"`
	PatientID     string `json:"patient_id"`
	RoomType      string `json:"room_type"`
	AdmissionDate string `json:"admission_date"`
	DischargeDate string `json:"discharge_date"`
	Status        string `json:"status"`
}

// Snapshot counts are keyed by room type code.
type Snapshot struct {
	Index     int            `json:"index"`
	Timestamp string         `json:"timestamp"`
	Counts    map[string]int `json:"counts"`
}

type Occupancy struct {
	Timestamp string         `json:"timestamp"`
	Counts    map[string]int `json:"counts"`
	Total     int            `json:"total"`
}

func toPatient(p patient.Patient) Patient {
	return Patient{
		PatientID: p.ID.String(),
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Gender:    p.Gender.String(),
		BirthDate: p.BirthDate,
		Deleted:   p.Deleted(),
	}
}

func toAdmission(a admission.Admission) Admission {
	return Admission{
		Index:         a.Index,
		PatientID:     a.PatientID.String(),
		RoomType:      a.RoomType.String(),
		AdmissionDate: a.AdmissionDate,
		DischargeDate: a.DischargeDate,
		Status:        a.Status.String(),
	}
}

func countsMap(c bed.Counts) map[string]int {
	m := make(map[string]int, len(bed.RoomTypes))
	for _, r := range bed.RoomTypes {
		m[r.String()] = c.Get(r)
	}
	return m
}

func toSnapshot(s bed.Snapshot) Snapshot {
	return Snapshot{Index: s.Index, Timestamp: s.Timestamp, Counts: countsMap(s.Counts)}
}

func toOccupancy(o bed.Occupancy) Occupancy {
	return Occupancy{Timestamp: o.Timestamp, Counts: countsMap(o.Counts), Total: o.Total}
}
