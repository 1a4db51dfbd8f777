// Package console is the interactive menu front end. It collects input,
// stages changes on a tracker.Session and commits them only after the
// operator confirms.
package console

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/patient"
	"github.com/ehr/bedtrack/internal/tracker"
)

const defaultTitle = "Patient Admission Data System"

// App runs the menu loop for one session.
type App struct {
	session *tracker.Session
	in      *Prompter
	view    *Presenter
	logger  zerolog.Logger
	title   string
}

// Option configures an App.
type Option func(*App)

func WithLogger(l zerolog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithClock sets the time used when displaying the CAPACITY row.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.view.now = now }
}

func WithTitle(title string) Option {
	return func(a *App) { a.title = title }
}

func New(s *tracker.Session, in io.Reader, out io.Writer, opts ...Option) *App {
	a := &App{
		session: s,
		in:      NewPrompter(in, out),
		view:    NewPresenter(out, time.Now),
		logger:  zerolog.Nop(),
		title:   defaultTitle,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run shows the main menu until the operator exits or input ends. The
// caller persists the session afterwards.
func (a *App) Run(ctx context.Context) error {
	a.view.Printf("\n=== Welcome to %s ===\n", a.title)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := a.in.Menu("=== Main Menu ===\nPlease select one of the following:", []string{
			"Display data",
			"Add new admission",
			"Modify data",
			"Delete data",
			"Exit",
		})
		if err == nil {
			switch n {
			case 0:
				err = a.displayMenu()
			case 1:
				err = a.addMenu()
			case 2:
				err = a.modifyMenu()
			case 3:
				err = a.deleteMenu()
			case 4:
				a.view.Println("\nExiting. Goodbye.")
				return nil
			}
		}
		if errors.Is(err, ErrInputClosed) {
			a.logger.Debug().Msg("input closed, leaving menu")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *App) hasPatients() bool {
	if len(a.session.Patients()) == 0 {
		a.view.Println("\nPatient database empty. Please add new patient first.")
		return false
	}
	return true
}

func (a *App) hasAdmissions() bool {
	if len(a.session.Admissions()) == 0 {
		a.view.Println("\nRoom database empty. Please add new room admission first.")
		return false
	}
	return true
}

// confirm asks for confirmation and commits c on yes.
func (a *App) confirm(c tracker.Change) error {
	ok, err := a.in.YesNo("\nConfirm changes? (yes/no): ")
	if err != nil {
		return err
	}
	if !ok {
		a.view.Println("Data not saved.")
		return nil
	}
	if err := a.session.Commit(c); err != nil {
		a.logger.Error().Err(err).Str("op", c.Operation()).Msg("commit rejected")
		a.view.Printf("Data not saved: %v\n", err)
		return nil
	}
	a.view.Println("Data saved.")
	return nil
}

// reportPatientErr prints the operator-facing message for a failed
// patient lookup. It reports false for errors it does not recognise.
func (a *App) reportPatientErr(id patient.ID, err error) bool {
	switch {
	case errors.Is(err, tracker.ErrPatientNotFound):
		a.view.Printf("Patient ID %s does not exist.\n", id)
	case errors.Is(err, tracker.ErrPatientDeleted):
		a.view.Printf("%s is a deleted patient ID.\n", id)
	default:
		return false
	}
	return true
}

func (a *App) fail(err error) {
	a.logger.Warn().Err(err).Msg("operation rejected")
	a.view.Printf("Operation failed: %v\n", err)
}

func (a *App) readProfile() (patient.Profile, bool, error) {
	var p patient.Profile
	var cancelled bool
	var err error

	if p.FirstName, cancelled, err = a.in.Name("first"); err != nil || cancelled {
		return p, cancelled, err
	}
	if p.LastName, cancelled, err = a.in.Name("last"); err != nil || cancelled {
		return p, cancelled, err
	}
	if p.Gender, cancelled, err = a.in.Gender(); err != nil || cancelled {
		return p, cancelled, err
	}
	p.BirthDate, cancelled, err = a.in.Date("birth")
	return p, cancelled, err
}

// selectAdmission shows the room admission table and asks for a display
// position until it points at an ONGOING row.
func (a *App) selectAdmission(action string) (admission.Admission, bool, error) {
	rows := a.session.Admissions()
	a.view.Admissions(rows)
	for {
		i, cancelled, err := a.in.Index(action, len(rows))
		if err != nil || cancelled {
			return admission.Admission{}, cancelled, err
		}
		if !rows[i].Open() {
			a.view.Println("Cannot modify COMPLETED or NULL entries.")
			continue
		}
		return rows[i], false, nil
	}
}
