// Package tracker keeps the patient, room admission and bed availability
// tables consistent with each other. Every mutation is prepared as a Change
// that can be inspected and then committed or dropped; nothing is written
// until Commit.
package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
	"github.com/ehr/bedtrack/internal/storage"
)

// DeletePolicy decides what happens to the bed of a patient who is deleted
// while an admission is still ONGOING.
type DeletePolicy string

const (
	// DeleteVoid voids the patient's rows and leaves the ledger alone.
	DeleteVoid DeletePolicy = "void"
	// DeleteRelease voids the rows and appends a snapshot freeing the bed.
	DeleteRelease DeletePolicy = "release"
	// DeleteReject refuses the deletion until the stay is completed.
	DeleteReject DeletePolicy = "reject"
)

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch DeletePolicy(s) {
	case DeleteVoid, DeleteRelease, DeleteReject:
		return DeletePolicy(s), nil
	case "":
		return DeleteVoid, nil
	}
	return "", fmt.Errorf("unknown delete policy %q", s)
}

// DateLayout is used for admission, discharge and birth dates.
const DateLayout = "2006-01-02"

// Session owns the in-memory tables for one interactive run.
type Session struct {
	ID uuid.UUID

	patients   *patient.Store
	admissions *admission.Store
	ledger     *bed.Ledger

	deletePolicy DeletePolicy
	now          func() time.Time
	logger       zerolog.Logger
	revision     int
}

type options struct {
	order        bed.Order
	deletePolicy DeletePolicy
	now          func() time.Time
	logger       zerolog.Logger
}

// Option configures a Session.
type Option func(*options)

func WithSnapshotOrder(o bed.Order) Option {
	return func(opts *options) { opts.order = o }
}

func WithDeletePolicy(p DeletePolicy) Option {
	return func(opts *options) { opts.deletePolicy = p }
}

func WithClock(now func() time.Time) Option {
	return func(opts *options) { opts.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(opts *options) { opts.logger = l }
}

// New builds a session over loaded tables.
func New(t storage.Tables, opts ...Option) (*Session, error) {
	o := options{
		order:        bed.OrderInsertion,
		deletePolicy: DeleteVoid,
		now:          time.Now,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	patients, err := patient.NewStore(t.Patients)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	admissions, err := admission.NewStore(t.Admissions)
	if err != nil {
		return nil, fmt.Errorf("load room admissions: %w", err)
	}
	ledger, err := bed.NewLedger(t.Beds, bed.WithOrder(o.order), bed.WithClock(o.now))
	if err != nil {
		return nil, fmt.Errorf("load bed snapshots: %w", err)
	}

	id := uuid.New()
	return &Session{
		ID:           id,
		patients:     patients,
		admissions:   admissions,
		ledger:       ledger,
		deletePolicy: o.deletePolicy,
		now:          o.now,
		logger:       o.logger.With().Str("session_id", id.String()).Logger(),
	}, nil
}

// Tables returns a copy of the current state for persistence.
func (s *Session) Tables() storage.Tables {
	return storage.Tables{
		Patients:   s.patients.All(),
		Admissions: s.admissions.All(),
		Beds:       s.ledger.Snapshots(),
	}
}

// Revision counts committed changes since the session started.
func (s *Session) Revision() int { return s.revision }

// DeletePolicy returns the configured policy for deleting admitted patients.
func (s *Session) DeletePolicy() DeletePolicy { return s.deletePolicy }

func (s *Session) today() string {
	return s.now().Format(DateLayout)
}
