package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ana", "Ana"},
		{"  mARIA   de la   cRUZ ", "Maria De La Cruz"},
		{"élodie", "Élodie"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidPersonName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Ana", true},
		{"de la Cruz", true},
		{"", false},
		{"   ", false},
		{"R2D2", false},
		{"O'Neil", false},
		{"NULL", false},
		{"ANULLA", false},
	}
	for _, tt := range tests {
		if got := validPersonName(tt.in); got != tt.want {
			t.Errorf("validPersonName(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func prompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return NewPrompter(strings.NewReader(input), &out), &out
}

func TestPrompter_PatientID(t *testing.T) {
	p, out := prompter("P-0\nNULL\nx-1\np-12\n")
	id, cancelled, err := p.PatientID()
	if err != nil || cancelled {
		t.Fatalf("unexpected result cancelled=%v err=%v", cancelled, err)
	}
	if id != patient.ID(12) {
		t.Errorf("expected P-12, got %s", id)
	}
	if n := strings.Count(out.String(), "Invalid input."); n != 3 {
		t.Errorf("expected 3 rejections, got %d", n)
	}
}

func TestPrompter_DateAndCancel(t *testing.T) {
	p, _ := prompter("2024-02-30\n2024-02-29\n0\n")
	d, cancelled, err := p.Date("birth")
	if err != nil || cancelled || d != "2024-02-29" {
		t.Fatalf("got %q cancelled=%v err=%v", d, cancelled, err)
	}
	_, cancelled, err = p.Date("birth")
	if err != nil || !cancelled {
		t.Fatalf("expected cancel, got cancelled=%v err=%v", cancelled, err)
	}
}

func TestPrompter_RoomTypeAndReturn(t *testing.T) {
	p, out := prompter("3\n6\n")
	room, cancelled, err := p.RoomType()
	if err != nil || cancelled || room != bed.Kelas1 {
		t.Fatalf("got %s cancelled=%v err=%v", room, cancelled, err)
	}
	if !strings.Contains(out.String(), "3. Kelas 1") {
		t.Errorf("expected human labels in menu:\n%s", out.String())
	}
	_, cancelled, err = p.RoomType()
	if err != nil || !cancelled {
		t.Fatalf("expected return, got cancelled=%v err=%v", cancelled, err)
	}
}

func TestPrompter_IndexBounds(t *testing.T) {
	p, out := prompter("abc\n3\n-2\n2\n-1\n")
	i, cancelled, err := p.Index("mark as completed", 3)
	if err != nil || cancelled || i != 2 {
		t.Fatalf("got %d cancelled=%v err=%v", i, cancelled, err)
	}
	if n := strings.Count(out.String(), "Number must be between 0 and 2."); n != 2 {
		t.Errorf("expected 2 range errors, got %d", n)
	}
	_, cancelled, _ = p.Index("mark as completed", 3)
	if !cancelled {
		t.Error("expected -1 to cancel")
	}
}

func TestPrompter_InputClosed(t *testing.T) {
	p, _ := prompter("")
	if _, err := p.YesNo("? "); !errors.Is(err, ErrInputClosed) {
		t.Fatalf("expected ErrInputClosed, got %v", err)
	}
}

func TestPresenter_LatestCapacityShowsNow(t *testing.T) {
	var out bytes.Buffer
	now := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	NewPresenter(&out, func() time.Time { return now }).
		Latest(bed.Snapshot{Timestamp: bed.CapacityMarker, Counts: bed.Counts{1, 2, 3, 4, 5}})

	got := out.String()
	if strings.Contains(got, bed.CapacityMarker) {
		t.Errorf("CAPACITY marker should not be shown:\n%s", got)
	}
	for _, want := range []string{"2024-03-01T08:30:00Z", "Kelas 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestPresenter_Record(t *testing.T) {
	var out bytes.Buffer
	NewPresenter(&out, nil).Profile("Patient Profile", patient.Patient{
		ID:      3,
		Profile: patient.Profile{FirstName: "Ana", LastName: "Doe", Gender: patient.Female, BirthDate: "1990-01-01"},
	})

	want := "\n=== Patient Profile ===\n" +
		"Patient ID           : P-3\n" +
		"First Name           : Ana\n" +
		"Last Name            : Doe\n" +
		"Gender               : Female\n" +
		"Birth Date           : 1990-01-01\n"
	if out.String() != want {
		t.Errorf("got:\n%q\nwant:\n%q", out.String(), want)
	}
}
