// Package csvfile stores the admission tables as delimited text files, one
// file per table, each starting with a fixed header row.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
	"github.com/ehr/bedtrack/internal/storage"
)

// DefaultDelimiter separates fields in every table.
const DefaultDelimiter = ';'

// ErrSeedExists is returned by Seed when a target file already has content.
var ErrSeedExists = errors.New("refusing to overwrite existing data")

// Paths locates the three table files.
type Paths struct {
	Patients   string
	Admissions string
	Beds       string
}

// InDir returns the conventional file names under dir.
func InDir(dir string) Paths {
	return Paths{
		Patients:   filepath.Join(dir, "patient_data.csv"),
		Admissions: filepath.Join(dir, "room_data.csv"),
		Beds:       filepath.Join(dir, "bed_data.csv"),
	}
}

func (p Paths) all() []string { return []string{p.Patients, p.Admissions, p.Beds} }

// Store implements storage.Backend over text files.
type Store struct {
	paths  Paths
	comma  rune
	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

func WithDelimiter(r rune) Option {
	return func(s *Store) { s.comma = r }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns a Store reading and writing the files in paths.
func New(paths Paths, opts ...Option) *Store {
	s := &Store{paths: paths, comma: DefaultDelimiter, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ storage.Backend = (*Store)(nil)

// Load reads all three tables. Files with no content at all are reported
// together in one ErrEmptySource error; a header-only file is an empty table.
func (s *Store) Load(ctx context.Context) (storage.Tables, error) {
	var (
		records = make([][][]string, 3)
		empty   []error
	)
	headers := [][]string{storage.PatientHeader, storage.AdmissionHeader, storage.BedHeader}
	for i, path := range s.paths.all() {
		if err := ctx.Err(); err != nil {
			return storage.Tables{}, err
		}
		rows, err := s.readFile(path)
		if err != nil {
			return storage.Tables{}, err
		}
		if len(rows) == 0 {
			empty = append(empty, fmt.Errorf("%w: %s", storage.ErrEmptySource, filepath.Base(path)))
			continue
		}
		if !slices.Equal(rows[0], headers[i]) {
			s.logger.Warn().
				Str("file", path).
				Strs("found", rows[0]).
				Strs("expected", headers[i]).
				Msg("unexpected header row, using canonical header")
		}
		records[i] = rows[1:]
	}
	if len(empty) > 0 {
		return storage.Tables{}, errors.Join(empty...)
	}

	var t storage.Tables
	for n, rec := range records[0] {
		p, err := storage.ParsePatientRecord(rec)
		if err != nil {
			return storage.Tables{}, fmt.Errorf("%s line %d: %w", s.paths.Patients, n+2, err)
		}
		t.Patients = append(t.Patients, p)
	}
	for n, rec := range records[1] {
		a, err := storage.ParseAdmissionRecord(rec)
		if err != nil {
			return storage.Tables{}, fmt.Errorf("%s line %d: %w", s.paths.Admissions, n+2, err)
		}
		t.Admissions = append(t.Admissions, a)
	}
	for n, rec := range records[2] {
		b, err := storage.ParseSnapshotRecord(rec)
		if err != nil {
			return storage.Tables{}, fmt.Errorf("%s line %d: %w", s.paths.Beds, n+2, err)
		}
		t.Beds = append(t.Beds, b)
	}
	if err := t.Validate(); err != nil {
		return storage.Tables{}, err
	}

	s.logger.Debug().
		Int("patients", len(t.Patients)).
		Int("admissions", len(t.Admissions)).
		Int("snapshots", len(t.Beds)).
		Msg("tables loaded")
	return t, nil
}

// Save rewrites all three files. Each file is replaced atomically; the set
// as a whole is not.
func (s *Store) Save(ctx context.Context, t storage.Tables) error {
	patients := [][]string{storage.PatientHeader}
	for _, p := range t.Patients {
		patients = append(patients, storage.PatientRecord(p))
	}
	admissions := [][]string{storage.AdmissionHeader}
	for _, a := range t.Admissions {
		admissions = append(admissions, storage.AdmissionRecord(a))
	}
	beds := [][]string{storage.BedHeader}
	for _, b := range t.Beds {
		beds = append(beds, storage.SnapshotRecord(b))
	}

	for i, rows := range [][][]string{patients, admissions, beds} {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.writeFile(s.paths.all()[i], rows); err != nil {
			return err
		}
	}
	s.logger.Debug().Msg("tables saved")
	return nil
}

// Seed creates the three files with their headers and a CAPACITY row built
// from capacity. Files that already hold data are left alone and reported.
func Seed(paths Paths, capacity bed.Counts, opts ...Option) error {
	for _, path := range paths.all() {
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return err
		case info.Size() > 0:
			return fmt.Errorf("%w: %s", ErrSeedExists, path)
		}
	}

	s := New(paths, opts...)
	t := storage.Tables{
		Patients:   []patient.Patient{},
		Admissions: []admission.Admission{},
		Beds:       []bed.Snapshot{{Index: 0, Timestamp: bed.CapacityMarker, Counts: capacity}},
	}
	if err := s.Save(context.Background(), t); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.logger.Info().Strs("files", paths.all()).Msg("seeded tables")
	return nil
}

func (s *Store) readFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = s.comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(rec) == 1 && rec[0] == "" {
			continue
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func (s *Store) writeFile(path string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Comma = s.comma
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
