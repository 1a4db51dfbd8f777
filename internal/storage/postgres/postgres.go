// Package postgres stores the admission tables in a PostgreSQL schema
// created by the migrations package.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
	"github.com/ehr/bedtrack/internal/platform/db"
	"github.com/ehr/bedtrack/internal/storage"
)

const (
	patientsTable   = "patients"
	admissionsTable = "room_admissions"
	bedsTable       = "bed_snapshots"
)

var (
	patientCols   = []string{"position", "patient_id", "first_name", "last_name", "gender", "birth_date"}
	admissionCols = []string{"position", "idx", "patient_id", "room_type", "admission_date", "discharge_date", "status"}
	bedCols       = []string{"position", "idx", "ts", "vvip", "vip", "kelas_1", "kelas_2", "kelas_3"}
)

// Store implements storage.Backend over a pgx pool.
type Store struct {
	pool   *pgxpool.Pool
	schema string
	logger zerolog.Logger
}

// New returns a Store for the tables in schema.
func New(pool *pgxpool.Pool, schema string, logger zerolog.Logger) (*Store, error) {
	if err := db.ValidSchema(schema); err != nil {
		return nil, err
	}
	return &Store{pool: pool, schema: schema, logger: logger}, nil
}

var _ storage.Backend = (*Store)(nil)

func (s *Store) table(name string) pgx.Identifier {
	return pgx.Identifier{s.schema, name}
}

func (s *Store) selectAll(name string, cols []string) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY position", strings.Join(cols[1:], ", "), s.table(name).Sanitize())
}

// Load reads every table in stored row order.
func (s *Store) Load(ctx context.Context) (storage.Tables, error) {
	var t storage.Tables

	rows, err := s.pool.Query(ctx, s.selectAll(patientsTable, patientCols))
	if err != nil {
		return t, fmt.Errorf("query patients: %w", err)
	}
	t.Patients, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (patient.Patient, error) {
		var (
			id                            int
			first, last, gender, birthday string
		)
		if err := row.Scan(&id, &first, &last, &gender, &birthday); err != nil {
			return patient.Patient{}, err
		}
		return patientFromColumns(id, first, last, gender, birthday)
	})
	if err != nil {
		return t, fmt.Errorf("load patients: %w", err)
	}

	rows, err = s.pool.Query(ctx, s.selectAll(admissionsTable, admissionCols))
	if err != nil {
		return t, fmt.Errorf("query room admissions: %w", err)
	}
	t.Admissions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (admission.Admission, error) {
		var (
			index, id                         int
			room, admitted, discharged, state string
		)
		if err := row.Scan(&index, &id, &room, &admitted, &discharged, &state); err != nil {
			return admission.Admission{}, err
		}
		return admissionFromColumns(index, id, room, admitted, discharged, state)
	})
	if err != nil {
		return t, fmt.Errorf("load room admissions: %w", err)
	}

	rows, err = s.pool.Query(ctx, s.selectAll(bedsTable, bedCols))
	if err != nil {
		return t, fmt.Errorf("query bed snapshots: %w", err)
	}
	t.Beds, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (bed.Snapshot, error) {
		var snap bed.Snapshot
		err := row.Scan(&snap.Index, &snap.Timestamp,
			&snap.Counts[bed.VVIP], &snap.Counts[bed.VIP],
			&snap.Counts[bed.Kelas1], &snap.Counts[bed.Kelas2], &snap.Counts[bed.Kelas3])
		return snap, err
	})
	if err != nil {
		return t, fmt.Errorf("load bed snapshots: %w", err)
	}

	if len(t.Beds) == 0 {
		return storage.Tables{}, fmt.Errorf("%w: %s", storage.ErrEmptySource, s.table(bedsTable).Sanitize())
	}
	if err := t.Validate(); err != nil {
		return storage.Tables{}, err
	}
	return t, nil
}

// Save replaces the contents of all three tables in one transaction.
func (s *Store) Save(ctx context.Context, t storage.Tables) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	copies := []struct {
		name string
		cols []string
		rows [][]any
	}{
		{patientsTable, patientCols, patientValues(t.Patients)},
		{admissionsTable, admissionCols, admissionValues(t.Admissions)},
		{bedsTable, bedCols, snapshotValues(t.Beds)},
	}
	for _, c := range copies {
		ident := s.table(c.name)
		if _, err := tx.Exec(ctx, "DELETE FROM "+ident.Sanitize()); err != nil {
			return fmt.Errorf("clear %s: %w", c.name, err)
		}
		n, err := tx.CopyFrom(ctx, ident, c.cols, pgx.CopyFromRows(c.rows))
		if err != nil {
			return fmt.Errorf("copy %s: %w", c.name, err)
		}
		s.logger.Debug().Str("table", c.name).Int64("rows", n).Msg("table replaced")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func patientValues(ps []patient.Patient) [][]any {
	out := make([][]any, 0, len(ps))
	for i, p := range ps {
		out = append(out, []any{i, int(p.ID), p.FirstName, p.LastName, p.Gender.String(), p.BirthDate})
	}
	return out
}

func admissionValues(as []admission.Admission) [][]any {
	out := make([][]any, 0, len(as))
	for i, a := range as {
		out = append(out, []any{i, a.Index, int(a.PatientID), a.RoomType.String(), a.AdmissionDate, a.DischargeDate, a.Status.String()})
	}
	return out
}

func snapshotValues(bs []bed.Snapshot) [][]any {
	out := make([][]any, 0, len(bs))
	for i, b := range bs {
		row := []any{i, b.Index, b.Timestamp}
		for _, r := range bed.RoomTypes {
			row = append(row, b.Counts.Get(r))
		}
		out = append(out, row)
	}
	return out
}

// Column values go back through the text codecs so both backends accept
// exactly the same data.
func patientFromColumns(id int, first, last, gender, birthDate string) (patient.Patient, error) {
	return storage.ParsePatientRecord([]string{patient.ID(id).String(), first, last, gender, birthDate})
}

func admissionFromColumns(index, id int, room, admitted, discharged, status string) (admission.Admission, error) {
	return storage.ParseAdmissionRecord([]string{
		strconv.Itoa(index), patient.ID(id).String(), room, admitted, discharged, status,
	})
}
