package console

import (
	"errors"

	"github.com/ehr/bedtrack/internal/domain/patient"
	"github.com/ehr/bedtrack/internal/tracker"
)

func (a *App) modifyMenu() error {
	for {
		n, err := a.in.Menu("=== Modify Menu ===", []string{"Modify patient data", "Modify room data", "Return to main menu"})
		if err != nil {
			return err
		}
		switch n {
		case 0:
			if a.hasPatients() {
				err = a.modifyPatient()
			}
		case 1:
			if a.hasAdmissions() {
				err = a.modifyRoom()
			}
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *App) modifyPatient() error {
	a.view.Patients(a.session.Patients())
	for {
		id, cancelled, err := a.in.PatientID()
		if err != nil || cancelled {
			return err
		}
		p, err := a.session.Patient(id)
		if err != nil {
			a.reportPatientErr(id, err)
			continue
		}
		if p.Deleted() {
			a.view.Println("Cannot modify deleted patient ID.")
			continue
		}
		a.view.Profile("Patient Profile", p)
		return a.editProfile(p)
	}
}

func (a *App) editProfile(p patient.Patient) error {
	for {
		n, err := a.in.Menu("Modify:", []string{"First name", "Last name", "Gender", "Birth date", returnLabel})
		if err != nil {
			return err
		}

		profile := p.Profile
		var cancelled bool
		switch n {
		case 0:
			var name string
			name, cancelled, err = a.in.Name("first")
			if !cancelled {
				profile.FirstName = name
			}
		case 1:
			var name string
			name, cancelled, err = a.in.Name("last")
			if !cancelled {
				profile.LastName = name
			}
		case 2:
			var g patient.Gender
			g, cancelled, err = a.in.Gender()
			if !cancelled {
				profile.Gender = g
			}
		case 3:
			var date string
			date, cancelled, err = a.in.Date("birth")
			if !cancelled {
				profile.BirthDate = date
			}
		default:
			return nil
		}
		if err != nil {
			return err
		}
		if cancelled {
			continue
		}

		c, err := a.session.PrepareProfileUpdate(p.ID, profile)
		if err != nil {
			a.fail(err)
			return nil
		}
		a.view.Profile("Modified Patient Profile", c.After)
		return a.confirm(c)
	}
}

func (a *App) modifyRoom() error {
	for {
		n, err := a.in.Menu("Modify:", []string{"Update room status", "Change room type", returnLabel})
		if err != nil {
			return err
		}
		switch n {
		case 0:
			err = a.dischargeAdmission()
		case 1:
			err = a.transferAdmission()
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *App) dischargeAdmission() error {
	row, cancelled, err := a.selectAdmission("mark as completed")
	if err != nil || cancelled {
		return err
	}
	c, err := a.session.PrepareDischarge(row.Index)
	if err != nil {
		a.fail(err)
		return nil
	}
	a.view.Admission("Modified Room Admission Data", c.After)
	return a.confirm(c)
}

func (a *App) transferAdmission() error {
	for {
		row, cancelled, err := a.selectAdmission("change room type")
		if err != nil || cancelled {
			return err
		}

		room, cancelled, err := a.in.RoomType()
		if err != nil {
			return err
		}
		if cancelled {
			continue
		}

		c, err := a.session.PrepareTransfer(row.Index, room)
		switch {
		case errors.Is(err, tracker.ErrSameRoomType):
			a.view.Printf("Patient is already in %s room.\n", room.Label())
			continue
		case errors.Is(err, tracker.ErrRoomUnavailable):
			a.view.Println("Room is not available.")
			continue
		case err != nil:
			a.fail(err)
			return nil
		}
		a.view.Admission("Modified Room Admission Data", c.After)
		return a.confirm(c)
	}
}
