package console

import (
	"errors"
	"time"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/patient"
	"github.com/ehr/bedtrack/internal/tracker"
)

func (a *App) displayMenu() error {
	for {
		n, err := a.in.Menu("=== Display Menu ===", []string{
			"Display patient data",
			"Display room data",
			"Display bed data",
			"Display total patient",
			"Return to main menu",
		})
		if err != nil {
			return err
		}
		switch n {
		case 0:
			if a.hasPatients() {
				err = a.displayPatients()
			}
		case 1:
			if a.hasAdmissions() {
				err = a.displayAdmissions()
			}
		case 2:
			err = a.displayBeds()
		case 3:
			a.view.Occupancy(a.session.Occupancy())
		case 4:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

var patientFilters = []string{
	"All data",
	"Patient ID",
	"First name",
	"Last name",
	"Gender",
	"Birth date",
	returnLabel,
}

func (a *App) displayPatients() error {
	for {
		n, err := a.in.Menu("Display by:", patientFilters)
		if err != nil {
			return err
		}

		var (
			field     patient.Field
			value     string
			cancelled bool
		)
		switch n {
		case 0:
			a.view.Patients(a.session.Patients())
			continue
		case 1:
			var id patient.ID
			id, cancelled, err = a.in.PatientID()
			field, value = patient.FieldID, id.String()
		case 2:
			field = patient.FieldFirstName
			value, cancelled, err = a.in.Name("first")
		case 3:
			field = patient.FieldLastName
			value, cancelled, err = a.in.Name("last")
		case 4:
			var g patient.Gender
			g, cancelled, err = a.in.Gender()
			field, value = patient.FieldGender, g.String()
		case 5:
			field = patient.FieldBirthDate
			value, cancelled, err = a.in.Date("birth")
		default:
			return nil
		}
		if err != nil {
			return err
		}
		if cancelled {
			continue
		}

		rows := a.session.FilterPatients(field, value)
		if len(rows) == 0 {
			a.view.Printf("\n%s %s does not exist.\n", patientFilters[n], value)
			continue
		}
		a.view.Patients(rows)
	}
}

var admissionFilters = []string{
	"All data",
	"Patient ID",
	"Room type",
	"Admission date",
	"Discharge date",
	"Status",
	returnLabel,
}

func (a *App) displayAdmissions() error {
	for {
		n, err := a.in.Menu("Display by:", admissionFilters)
		if err != nil {
			return err
		}

		var (
			field     admission.Field
			value     string
			shown     string
			cancelled bool
		)
		switch n {
		case 0:
			a.view.Admissions(a.session.Admissions())
			continue
		case 1:
			id, c, e := a.in.PatientID()
			field, value, cancelled, err = admission.FieldPatientID, id.String(), c, e
		case 2:
			room, c, e := a.in.RoomType()
			field, value, shown, cancelled, err = admission.FieldRoomType, room.String(), room.Label(), c, e
		case 3:
			field = admission.FieldAdmissionDate
			value, cancelled, err = a.in.Date("admission")
		case 4:
			field = admission.FieldDischargeDate
			value, cancelled, err = a.in.Date("discharge")
		case 5:
			status, c, e := a.in.Status()
			field, value, cancelled, err = admission.FieldStatus, status.String(), c, e
		default:
			return nil
		}
		if err != nil {
			return err
		}
		if cancelled {
			continue
		}
		if shown == "" {
			shown = value
		}

		rows := a.session.FilterAdmissions(field, value)
		if len(rows) == 0 {
			a.view.Printf("\n%s %s does not exist in Room Admission data.\n", admissionFilters[n], shown)
			continue
		}
		a.view.Admissions(rows)
	}
}

func (a *App) displayBeds() error {
	for {
		n, err := a.in.Menu("Display by:", []string{"All data", "Most recent", "Range date", returnLabel})
		if err != nil {
			return err
		}
		switch n {
		case 0:
			a.view.Snapshots(a.session.Snapshots())
		case 1:
			a.view.Latest(a.session.LatestSnapshot())
		case 2:
			if err := a.displayBedRange(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (a *App) displayBedRange() error {
	for {
		start, cancelled, err := a.in.Date("start")
		if err != nil || cancelled {
			return err
		}
		end, cancelled, err := a.in.Date("end")
		if err != nil || cancelled {
			return err
		}

		// Both inputs already passed the date validator.
		from, _ := time.Parse(tracker.DateLayout, start)
		to, _ := time.Parse(tracker.DateLayout, end)
		rows, err := a.session.SnapshotsBetween(from, to)
		if errors.Is(err, tracker.ErrInvalidInput) {
			a.view.Println("Start date must be before end date.")
			continue
		}
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			a.view.Println("Data does not exist.")
			continue
		}
		a.view.Snapshots(rows)
		return nil
	}
}
