// Package storage defines the persisted shape of the three admission tables
// and the backends that load and save them at session boundaries.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
)

// ErrEmptySource is returned when a source table holds no data at all.
var ErrEmptySource = errors.New("source is empty")

// Fixed header rows.
var (
	PatientHeader   = []string{"Patient_ID", "First_Name", "Last_Name", "Gender", "Birth_Date"}
	AdmissionHeader = []string{"Index", "Patient_ID", "Room_Type", "Admission_Date", "Discharge_Date", "Status"}
	BedHeader       = []string{"Index", "Timestamp", "VVIP", "VIP", "Kelas_1", "Kelas_2", "Kelas_3"}
)

// Tables is everything a session loads at start and flushes at exit.
type Tables struct {
	Patients   []patient.Patient
	Admissions []admission.Admission
	Beds       []bed.Snapshot
}

// Validate enforces the startup rule that the first bed row is the
// CAPACITY seed row.
func (t Tables) Validate() error {
	if len(t.Beds) == 0 || !t.Beds[0].IsCapacity() {
		return bed.ErrCapacityMissing
	}
	return nil
}

// Backend loads and saves Tables.
type Backend interface {
	Load(ctx context.Context) (Tables, error)
	Save(ctx context.Context, t Tables) error
}

// PatientRecord flattens p into header order.
func PatientRecord(p patient.Patient) []string {
	return []string{p.ID.String(), p.FirstName, p.LastName, p.Gender.String(), p.BirthDate}
}

func ParsePatientRecord(rec []string) (patient.Patient, error) {
	if len(rec) != len(PatientHeader) {
		return patient.Patient{}, fmt.Errorf("patient record: expected %d fields, got %d", len(PatientHeader), len(rec))
	}
	id, err := patient.ParseID(rec[0])
	if err != nil {
		return patient.Patient{}, fmt.Errorf("patient record: %w", err)
	}
	if id == patient.NullID {
		return patient.Patient{}, fmt.Errorf("patient record: missing id")
	}
	gender, err := patient.ParseGender(rec[3])
	if err != nil {
		return patient.Patient{}, fmt.Errorf("patient record %s: %w", id, err)
	}
	return patient.Patient{
		ID: id,
		Profile: patient.Profile{
			FirstName: rec[1],
			LastName:  rec[2],
			Gender:    gender,
			BirthDate: rec[4],
		},
	}, nil
}

// AdmissionRecord flattens a into header order.
func AdmissionRecord(a admission.Admission) []string {
	return []string{
		strconv.Itoa(a.Index),
		a.PatientID.String(),
		a.RoomType.String(),
		a.AdmissionDate,
		a.DischargeDate,
		a.Status.String(),
	}
}

func ParseAdmissionRecord(rec []string) (admission.Admission, error) {
	if len(rec) != len(AdmissionHeader) {
		return admission.Admission{}, fmt.Errorf("room record: expected %d fields, got %d", len(AdmissionHeader), len(rec))
	}
	index, err := strconv.Atoi(rec[0])
	if err != nil {
		return admission.Admission{}, fmt.Errorf("room record: index %q: %w", rec[0], err)
	}
	id, err := patient.ParseID(rec[1])
	if err != nil {
		return admission.Admission{}, fmt.Errorf("room record %d: %w", index, err)
	}
	roomType, err := bed.ParseRoomType(rec[2])
	if err != nil {
		return admission.Admission{}, fmt.Errorf("room record %d: %w", index, err)
	}
	status, err := admission.ParseStatus(rec[5])
	if err != nil {
		return admission.Admission{}, fmt.Errorf("room record %d: %w", index, err)
	}
	return admission.Admission{
		Index:         index,
		PatientID:     id,
		RoomType:      roomType,
		AdmissionDate: rec[3],
		DischargeDate: rec[4],
		Status:        status,
	}, nil
}

// SnapshotRecord flattens s into header order.
func SnapshotRecord(s bed.Snapshot) []string {
	rec := []string{strconv.Itoa(s.Index), s.Timestamp}
	for _, r := range bed.RoomTypes {
		rec = append(rec, strconv.Itoa(s.Counts.Get(r)))
	}
	return rec
}

func ParseSnapshotRecord(rec []string) (bed.Snapshot, error) {
	if len(rec) != len(BedHeader) {
		return bed.Snapshot{}, fmt.Errorf("bed record: expected %d fields, got %d", len(BedHeader), len(rec))
	}
	index, err := strconv.Atoi(rec[0])
	if err != nil {
		return bed.Snapshot{}, fmt.Errorf("bed record: index %q: %w", rec[0], err)
	}
	s := bed.Snapshot{Index: index, Timestamp: rec[1]}
	for i, r := range bed.RoomTypes {
		n, err := strconv.Atoi(rec[2+i])
		if err != nil {
			return bed.Snapshot{}, fmt.Errorf("bed record %d: %s %q: %w", index, r, rec[2+i], err)
		}
		s.Counts[r] = n
	}
	return s, nil
}

// OccupancyHeader and OccupancyRecord describe the derived total-patient row.
var OccupancyHeader = []string{"Timestamp", "VVIP", "VIP", "Kelas_1", "Kelas_2", "Kelas_3", "Total"}

func OccupancyRecord(o bed.Occupancy) []string {
	rec := []string{o.Timestamp}
	for _, r := range bed.RoomTypes {
		rec = append(rec, strconv.Itoa(o.Counts.Get(r)))
	}
	return append(rec, strconv.Itoa(o.Total))
}
