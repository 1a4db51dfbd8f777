package admission

import (
	"errors"
	"testing"

	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
)

func row(index int, id patient.ID, rt bed.RoomType, status Status) Admission {
	discharge := NotDischarged
	if status == Completed {
		discharge = "2024-01-05"
	}
	return Admission{
		Index:         index,
		PatientID:     id,
		RoomType:      rt,
		AdmissionDate: "2024-01-01",
		DischargeDate: discharge,
		Status:        status,
	}
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]Status{
		"ONGOING":   Ongoing,
		"completed": Completed,
		"NULL":      StatusNull,
	} {
		got, err := ParseStatus(in)
		if err != nil || got != want {
			t.Errorf("ParseStatus(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseStatus("DONE"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestStore_NextIndexIsMaxPlusOne(t *testing.T) {
	s, err := NewStore([]Admission{
		row(1, 1, bed.VIP, Completed),
		row(9, 2, bed.VVIP, Ongoing),
		row(4, 3, bed.Kelas1, Completed),
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := s.NextIndex(); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}

	empty, _ := NewStore(nil)
	if got := empty.NextIndex(); got != 1 {
		t.Errorf("expected 1 for empty store, got %d", got)
	}
}

func TestStore_DuplicateIndex(t *testing.T) {
	_, err := NewStore([]Admission{row(1, 1, bed.VIP, Ongoing), row(1, 2, bed.VIP, Ongoing)})
	if !errors.Is(err, ErrDuplicateIndex) {
		t.Errorf("expected ErrDuplicateIndex, got %v", err)
	}
}

func TestStore_Ongoing(t *testing.T) {
	s, _ := NewStore([]Admission{
		row(1, 1, bed.VIP, Completed),
		row(2, 1, bed.VVIP, Ongoing),
		row(3, 2, bed.Kelas2, StatusNull),
	})

	a, ok := s.Ongoing(1)
	if !ok || a.Index != 2 {
		t.Errorf("expected ongoing row 2, got %v %v", a, ok)
	}
	if _, ok := s.Ongoing(2); ok {
		t.Error("expected no ongoing row for voided patient")
	}
	if got := s.ForPatient(1); len(got) != 2 {
		t.Errorf("expected 2 rows for P-1, got %d", len(got))
	}
}

func TestStore_PutKeepsPosition(t *testing.T) {
	s, _ := NewStore([]Admission{row(5, 1, bed.VIP, Ongoing), row(2, 2, bed.VIP, Ongoing)})

	a, _ := s.Get(5)
	a.Status = Completed
	if err := s.Put(a); err != nil {
		t.Fatalf("Put: %v", err)
	}
	all := s.All()
	if all[0].Index != 5 || all[0].Status != Completed {
		t.Errorf("expected row 5 updated in place, got %v", all[0])
	}
	if err := s.Put(row(99, 1, bed.VIP, Ongoing)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Filter(t *testing.T) {
	s, _ := NewStore([]Admission{
		row(1, 1, bed.Kelas1, Completed),
		row(2, 2, bed.Kelas1, Ongoing),
		row(3, 3, bed.VIP, Ongoing),
	})
	if got := s.Filter(FieldRoomType, "Kelas_1"); len(got) != 2 {
		t.Errorf("expected 2 Kelas_1 rows, got %d", len(got))
	}
	if got := s.Filter(FieldStatus, "ONGOING"); len(got) != 2 {
		t.Errorf("expected 2 ONGOING rows, got %d", len(got))
	}
	if got := s.Filter(FieldDischargeDate, "N/A"); len(got) != 2 {
		t.Errorf("expected 2 undischarged rows, got %d", len(got))
	}
	if got := s.Filter(FieldPatientID, "P-3"); len(got) != 1 || got[0].Index != 3 {
		t.Errorf("expected row 3 for P-3, got %v", got)
	}
}
