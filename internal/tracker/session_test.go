package tracker

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
	"github.com/ehr/bedtrack/internal/storage"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600))

func capacity(counts bed.Counts) bed.Snapshot {
	return bed.Snapshot{Index: 0, Timestamp: bed.CapacityMarker, Counts: counts}
}

func newTestSession(t *testing.T, tables storage.Tables, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	s, err := New(tables, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func ana() patient.Profile {
	return patient.Profile{FirstName: "Ana", LastName: "Doe", Gender: patient.Female, BirthDate: "1990-01-01"}
}

func bob() patient.Profile {
	return patient.Profile{FirstName: "Bob", LastName: "Lee", Gender: patient.Male, BirthDate: "1980-06-15"}
}

func mustCommit(t *testing.T, s *Session, c Change, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("prepare %T: %v", c, err)
	}
	if err := s.Commit(c); err != nil {
		t.Fatalf("commit %s: %v", c.Operation(), err)
	}
}

func admitNew(t *testing.T, s *Session, p patient.Profile, room bed.RoomType) *NewPatientChange {
	t.Helper()
	c, err := s.PrepareNewPatient(p, room)
	mustCommit(t, s, c, err)
	return c
}

func ongoingCount(s *Session, id patient.ID) int {
	n := 0
	for _, a := range s.Admissions() {
		if a.PatientID == id && a.Status == admission.Ongoing {
			n++
		}
	}
	return n
}

func TestNew_RequiresCapacity(t *testing.T) {
	_, err := New(storage.Tables{})
	if !errors.Is(err, bed.ErrCapacityMissing) {
		t.Errorf("expected ErrCapacityMissing, got %v", err)
	}
}

func TestScenario_AdmitThenDischarge(t *testing.T) {
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{capacity(bed.Counts{2, 3})}})

	c := admitNew(t, s, ana(), bed.VVIP)
	if c.Patient.ID.String() != "P-1" {
		t.Errorf("expected P-1, got %s", c.Patient.ID)
	}

	rows := s.Admissions()
	if len(rows) != 1 {
		t.Fatalf("expected 1 room row, got %d", len(rows))
	}
	want := admission.Admission{
		Index:         1,
		PatientID:     1,
		RoomType:      bed.VVIP,
		AdmissionDate: "2024-03-01",
		DischargeDate: admission.NotDischarged,
		Status:        admission.Ongoing,
	}
	if rows[0] != want {
		t.Errorf("room row = %+v, want %+v", rows[0], want)
	}

	latest := s.LatestSnapshot()
	if latest.Index != 1 || latest.Counts.Get(bed.VVIP) != 1 || latest.Counts.Get(bed.VIP) != 3 {
		t.Errorf("unexpected snapshot after admit: %+v", latest)
	}

	d, err := s.PrepareDischarge(1)
	mustCommit(t, s, d, err)

	latest = s.LatestSnapshot()
	if latest.Index != 2 || latest.Counts.Get(bed.VVIP) != 2 || latest.Counts.Get(bed.VIP) != 3 {
		t.Errorf("unexpected snapshot after discharge: %+v", latest)
	}
	row, _ := s.Admission(1)
	if row.Status != admission.Completed || row.DischargeDate != "2024-03-01" {
		t.Errorf("unexpected row after discharge: %+v", row)
	}
}

func TestAdmitNew_MonotonicIDsAfterSoftDelete(t *testing.T) {
	s := newTestSession(t, storage.Tables{
		Patients: []patient.Patient{{ID: 7, Profile: bob()}},
		Beds:     []bed.Snapshot{capacity(bed.Counts{10, 10, 10, 10, 10})},
	})

	del, err := s.PrepareDeletion(7)
	mustCommit(t, s, del, err)

	var got []patient.ID
	for i := 0; i < 3; i++ {
		p := ana()
		p.BirthDate = time.Date(1990, 1, 1+i, 0, 0, 0, 0, time.UTC).Format(DateLayout)
		got = append(got, admitNew(t, s, p, bed.Kelas3).Patient.ID)
	}
	want := []patient.ID{8, 9, 10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

func TestAdmitNew_DuplicateProfileIsReported(t *testing.T) {
	s := newTestSession(t, storage.Tables{
		Patients: []patient.Patient{{ID: 1, Profile: ana()}},
		Beds:     []bed.Snapshot{capacity(bed.Counts{1})},
	})

	c, err := s.PrepareNewPatient(ana(), bed.VVIP)
	if err != nil {
		t.Fatalf("PrepareNewPatient: %v", err)
	}
	if c.Duplicate == nil || c.Duplicate.ID != 1 {
		t.Fatalf("expected duplicate P-1, got %v", c.Duplicate)
	}
	if c.Patient.ID != 2 {
		t.Errorf("expected staged P-2, got %s", c.Patient.ID)
	}
	// Declaring it a different person and confirming still admits.
	if err := s.Commit(c); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(s.Patients()) != 2 {
		t.Errorf("expected 2 patients, got %d", len(s.Patients()))
	}
}

func TestAdmitNew_RoomUnavailable(t *testing.T) {
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{capacity(bed.Counts{0, 1})}})
	_, err := s.PrepareNewPatient(ana(), bed.VVIP)
	if !errors.Is(err, ErrRoomUnavailable) || !IsInvariantViolation(err) {
		t.Errorf("expected ErrRoomUnavailable, got %v", err)
	}
}

func TestAdmitNew_RejectsInvalidInput(t *testing.T) {
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{capacity(bed.Counts{1})}})
	if _, err := s.PrepareNewPatient(patient.NullProfile, bed.VVIP); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for NULL profile, got %v", err)
	}
	if _, err := s.PrepareNewPatient(ana(), bed.NoRoom); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for NoRoom, got %v", err)
	}
}

func TestNewVisit_SingleOngoingInvariant(t *testing.T) {
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{capacity(bed.Counts{5, 5})}})
	admitNew(t, s, ana(), bed.VVIP)

	_, err := s.PrepareNewVisit(1, bed.VIP)
	if !errors.Is(err, ErrOngoingAdmission) {
		t.Fatalf("expected ErrOngoingAdmission, got %v", err)
	}
	if ongoingCount(s, 1) != 1 {
		t.Errorf("expected exactly one ONGOING row")
	}

	d, err := s.PrepareDischarge(1)
	mustCommit(t, s, d, err)

	v, err := s.PrepareNewVisit(1, bed.VIP)
	mustCommit(t, s, v, err)
	if v.Admission.Index != 2 {
		t.Errorf("expected room index 2, got %d", v.Admission.Index)
	}
	if ongoingCount(s, 1) != 1 {
		t.Errorf("expected exactly one ONGOING row after new visit")
	}
	if len(s.Patients()) != 1 {
		t.Errorf("new visit must not add a patient row")
	}
	if got := s.LatestSnapshot().Counts.Get(bed.VIP); got != 4 {
		t.Errorf("expected VIP 4, got %d", got)
	}
}

func TestNewVisit_Rejections(t *testing.T) {
	s := newTestSession(t, storage.Tables{
		Patients: []patient.Patient{{ID: 1, Profile: patient.NullProfile}},
		Beds:     []bed.Snapshot{capacity(bed.Counts{5})},
	})

	_, err := s.PrepareNewVisit(9, bed.VVIP)
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	_, err = s.PrepareNewVisit(1, bed.VVIP)
	if !errors.Is(err, ErrPatientDeleted) {
		t.Errorf("expected ErrPatientDeleted, got %v", err)
	}
}

func TestDischarge_Guards(t *testing.T) {
	s := newTestSession(t, storage.Tables{
		Patients: []patient.Patient{{ID: 1, Profile: ana()}},
		Admissions: []admission.Admission{
			{Index: 4, PatientID: 1, RoomType: bed.VIP, AdmissionDate: "2024-01-01", DischargeDate: "2024-01-03", Status: admission.Completed},
			{Index: 5, PatientID: 1, RoomType: bed.VIP, AdmissionDate: "2024-01-04", DischargeDate: admission.NotDischarged, Status: admission.StatusNull},
		},
		Beds: []bed.Snapshot{capacity(bed.Counts{5, 5})},
	})

	for _, idx := range []int{4, 5} {
		if _, err := s.PrepareDischarge(idx); !errors.Is(err, ErrAdmissionClosed) {
			t.Errorf("discharge %d: expected ErrAdmissionClosed, got %v", idx, err)
		}
		if _, err := s.PrepareTransfer(idx, bed.VVIP); !errors.Is(err, ErrAdmissionClosed) {
			t.Errorf("transfer %d: expected ErrAdmissionClosed, got %v", idx, err)
		}
	}
	if _, err := s.PrepareDischarge(1); !IsNotFound(err) {
		t.Errorf("expected not found for index 1, got %v", err)
	}
}

func TestDischarge_OnlyOnce(t *testing.T) {
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{capacity(bed.Counts{1})}})
	admitNew(t, s, ana(), bed.VVIP)

	d, err := s.PrepareDischarge(1)
	mustCommit(t, s, d, err)
	if _, err := s.PrepareDischarge(1); !errors.Is(err, ErrAdmissionClosed) {
		t.Errorf("expected ErrAdmissionClosed on second discharge, got %v", err)
	}
}

func TestTransfer_SingleSnapshotNetZero(t *testing.T) {
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{capacity(bed.Counts{2, 2, 2})}})
	admitNew(t, s, ana(), bed.VIP)
	before := s.LatestSnapshot()
	lenBefore := len(s.Snapshots())

	c, err := s.PrepareTransfer(1, bed.Kelas1)
	mustCommit(t, s, c, err)

	if len(s.Snapshots()) != lenBefore+1 {
		t.Errorf("expected exactly one new snapshot")
	}
	after := s.LatestSnapshot()
	if after.Counts.Get(bed.VIP) != before.Counts.Get(bed.VIP)+1 {
		t.Errorf("expected VIP freed")
	}
	if after.Counts.Get(bed.Kelas1) != before.Counts.Get(bed.Kelas1)-1 {
		t.Errorf("expected Kelas_1 occupied")
	}
	if after.Counts.Sum() != before.Counts.Sum() {
		t.Errorf("expected net zero, %d -> %d", before.Counts.Sum(), after.Counts.Sum())
	}
	row, _ := s.Admission(1)
	if row.RoomType != bed.Kelas1 || row.Status != admission.Ongoing {
		t.Errorf("unexpected row after transfer: %+v", row)
	}
}

func TestTransfer_Rejections(t *testing.T) {
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{capacity(bed.Counts{2, 0})}})
	admitNew(t, s, ana(), bed.VVIP)

	if _, err := s.PrepareTransfer(1, bed.VVIP); !errors.Is(err, ErrSameRoomType) {
		t.Errorf("expected ErrSameRoomType, got %v", err)
	}
	if _, err := s.PrepareTransfer(1, bed.VIP); !errors.Is(err, ErrRoomUnavailable) {
		t.Errorf("expected ErrRoomUnavailable, got %v", err)
	}
}

func TestDelete_VoidPolicy(t *testing.T) {
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{capacity(bed.Counts{2})}})
	admitNew(t, s, ana(), bed.VVIP)
	d, err := s.PrepareDischarge(1)
	mustCommit(t, s, d, err)
	v, err := s.PrepareNewVisit(1, bed.VVIP)
	mustCommit(t, s, v, err)
	snapshots := len(s.Snapshots())

	c, err := s.PrepareDeletion(1)
	if err != nil {
		t.Fatalf("PrepareDeletion: %v", err)
	}
	if c.Ongoing == nil || c.Ongoing.Index != 2 {
		t.Errorf("expected ongoing row 2 flagged, got %v", c.Ongoing)
	}
	if c.Release {
		t.Error("void policy must not release the bed")
	}
	mustCommit(t, s, c, nil)

	p, _ := s.Patient(1)
	if !p.Deleted() || p.ID != 1 {
		t.Errorf("expected P-1 soft-deleted, got %+v", p)
	}
	for _, a := range s.Admissions() {
		if a.Status != admission.StatusNull {
			t.Errorf("row %d status = %s, want NULL", a.Index, a.Status)
		}
	}
	if len(s.Snapshots()) != snapshots {
		t.Error("void policy must not append a snapshot")
	}
}

func TestDelete_ReleasePolicy(t *testing.T) {
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{capacity(bed.Counts{2})}},
		WithDeletePolicy(DeleteRelease))
	admitNew(t, s, ana(), bed.VVIP)

	c, err := s.PrepareDeletion(1)
	mustCommit(t, s, c, err)
	if !c.Release {
		t.Fatal("expected release")
	}
	if got := s.LatestSnapshot().Counts.Get(bed.VVIP); got != 2 {
		t.Errorf("expected VVIP freed back to 2, got %d", got)
	}
}

func TestDelete_RejectPolicy(t *testing.T) {
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{capacity(bed.Counts{2})}},
		WithDeletePolicy(DeleteReject))
	admitNew(t, s, ana(), bed.VVIP)

	if _, err := s.PrepareDeletion(1); !errors.Is(err, ErrOngoingAdmission) {
		t.Errorf("expected ErrOngoingAdmission, got %v", err)
	}
	d, err := s.PrepareDischarge(1)
	mustCommit(t, s, d, err)
	c, err := s.PrepareDeletion(1)
	mustCommit(t, s, c, err)
}

func TestDelete_AlreadyDeletedIsRejected(t *testing.T) {
	s := newTestSession(t, storage.Tables{
		Patients: []patient.Patient{{ID: 1, Profile: ana()}},
		Beds:     []bed.Snapshot{capacity(bed.Counts{1})},
	})
	c, err := s.PrepareDeletion(1)
	mustCommit(t, s, c, err)
	before := s.Tables()

	_, err = s.PrepareDeletion(1)
	if !errors.Is(err, ErrPatientDeleted) {
		t.Errorf("expected ErrPatientDeleted, got %v", err)
	}
	if _, err := s.PrepareDeletion(2); !IsNotFound(err) {
		t.Errorf("expected not found for P-2, got %v", err)
	}
	if !reflect.DeepEqual(before, s.Tables()) {
		t.Error("rejected deletion mutated the session")
	}
}

func TestProfileUpdate(t *testing.T) {
	s := newTestSession(t, storage.Tables{
		Patients: []patient.Patient{{ID: 1, Profile: ana()}, {ID: 2, Profile: patient.NullProfile}},
		Beds:     []bed.Snapshot{capacity(bed.Counts{1})},
	})

	updated := ana()
	updated.LastName = "Smith"
	c, err := s.PrepareProfileUpdate(1, updated)
	mustCommit(t, s, c, err)
	if p, _ := s.Patient(1); p.LastName != "Smith" {
		t.Errorf("expected Smith, got %s", p.LastName)
	}

	if _, err := s.PrepareProfileUpdate(2, updated); !errors.Is(err, ErrPatientDeleted) {
		t.Errorf("expected ErrPatientDeleted, got %v", err)
	}
	if _, err := s.PrepareProfileUpdate(3, updated); !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

// Dropping a prepared change must leave every table exactly as it was.
func TestDeclinedChangesLeaveNoTrace(t *testing.T) {
	s := newTestSession(t, storage.Tables{
		Patients: []patient.Patient{{ID: 1, Profile: ana()}, {ID: 2, Profile: bob()}},
		Admissions: []admission.Admission{
			{Index: 1, PatientID: 1, RoomType: bed.VIP, AdmissionDate: "2024-02-01", DischargeDate: admission.NotDischarged, Status: admission.Ongoing},
		},
		Beds: []bed.Snapshot{capacity(bed.Counts{3, 3, 3}), {Index: 1, Timestamp: "2024-02-01T08:00:00+07:00", Counts: bed.Counts{3, 2, 3}}},
	}, WithDeletePolicy(DeleteRelease))
	before := s.Tables()

	prepares := []func() (Change, error){
		func() (Change, error) { return s.PrepareNewPatient(patient.Profile{FirstName: "Cy", LastName: "Ng", Gender: patient.Male, BirthDate: "2000-01-01"}, bed.VVIP) },
		func() (Change, error) { return s.PrepareNewVisit(2, bed.Kelas1) },
		func() (Change, error) { return s.PrepareDischarge(1) },
		func() (Change, error) { return s.PrepareTransfer(1, bed.Kelas1) },
		func() (Change, error) { return s.PrepareDeletion(1) },
		func() (Change, error) { return s.PrepareProfileUpdate(2, ana()) },
	}
	for i, prepare := range prepares {
		c, err := prepare()
		if err != nil {
			t.Fatalf("prepare %d: %v", i, err)
		}
		_ = c
		if !reflect.DeepEqual(before, s.Tables()) {
			t.Fatalf("prepare %d (%s) mutated the session", i, c.Operation())
		}
	}
	if s.Revision() != 0 {
		t.Errorf("expected revision 0, got %d", s.Revision())
	}
}

func TestCommit_RejectsStaleChange(t *testing.T) {
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{capacity(bed.Counts{1, 1})}})

	first, err := s.PrepareNewPatient(ana(), bed.VVIP)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.PrepareNewPatient(bob(), bed.VIP)
	if err != nil {
		t.Fatal(err)
	}
	mustCommit(t, s, first, nil)

	before := s.Tables()
	if err := s.Commit(second); !errors.Is(err, ErrStaleChange) {
		t.Errorf("expected ErrStaleChange, got %v", err)
	}
	if !reflect.DeepEqual(before, s.Tables()) {
		t.Error("stale commit mutated the session")
	}
	if err := s.Commit(nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil change, got %v", err)
	}
}

func TestCommit_LogsChange(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{capacity(bed.Counts{1})}}, WithLogger(logger))

	admitNew(t, s, ana(), bed.VVIP)

	out := buf.String()
	for _, want := range []string{`"op":"admit_new_patient"`, `"patient_id":"P-1"`, `"session_id":"` + s.ID.String() + `"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %s, got %s", want, out)
		}
	}
}

func TestSnapshotsBetween(t *testing.T) {
	s := newTestSession(t, storage.Tables{Beds: []bed.Snapshot{
		capacity(bed.Counts{3}),
		{Index: 1, Timestamp: "2024-02-01T23:30:00+07:00", Counts: bed.Counts{2}},
		{Index: 2, Timestamp: "2024-02-02T00:10:00+07:00", Counts: bed.Counts{1}},
	}})

	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	got, err := s.SnapshotsBetween(day, day)
	if err != nil {
		t.Fatalf("SnapshotsBetween: %v", err)
	}
	if len(got) != 1 || got[0].Index != 1 {
		t.Errorf("expected only row 1, got %v", got)
	}

	if _, err := s.SnapshotsBetween(day.AddDate(0, 0, 1), day); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for reversed range, got %v", err)
	}
}

func TestParseDeletePolicy(t *testing.T) {
	if p, err := ParseDeletePolicy(""); err != nil || p != DeleteVoid {
		t.Errorf("expected void default, got %q %v", p, err)
	}
	if _, err := ParseDeletePolicy("purge"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
