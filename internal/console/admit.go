package console

import (
	"errors"

	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/tracker"
)

func (a *App) addMenu() error {
	for {
		a.view.Title("Bed Availability")
		a.view.Latest(a.session.LatestSnapshot())

		room, cancelled, err := a.in.RoomType()
		if err != nil || cancelled {
			return err
		}
		if !a.session.IsAvailable(room) {
			again, err := a.in.YesNo("\nRoom is not available. Reenter room type? (yes/no): ")
			if err != nil || !again {
				return err
			}
			continue
		}

		n, err := a.in.Menu("=== Add Menu ===", []string{"Add new patient", "Add returning patient", returnLabel})
		if err != nil {
			return err
		}
		switch n {
		case 0:
			return a.addNewPatient(room)
		case 1:
			if a.hasPatients() {
				return a.addReturningPatient(room)
			}
		}
	}
}

func (a *App) addNewPatient(room bed.RoomType) error {
	profile, cancelled, err := a.readProfile()
	if err != nil || cancelled {
		return err
	}

	c, err := a.session.PrepareNewPatient(profile, room)
	if err != nil {
		a.fail(err)
		return nil
	}
	if c.Duplicate != nil {
		a.view.Printf("\nPatient profile already exists under Patient ID %s.\n", c.Duplicate.ID)
		a.view.Profile("Patient Profile", *c.Duplicate)
		same, err := a.in.YesNo("\nIs it the same patient? (yes/no): ")
		if err != nil {
			return err
		}
		if same {
			a.view.Println("Please add new visit instead.")
			return nil
		}
	}

	a.view.Profile("New Patient", c.Patient)
	a.view.Admission("New Room Admission", c.Admission)
	return a.confirm(c)
}

func (a *App) addReturningPatient(room bed.RoomType) error {
	for {
		id, cancelled, err := a.in.PatientID()
		if err != nil || cancelled {
			return err
		}

		c, err := a.session.PrepareNewVisit(id, room)
		if errors.Is(err, tracker.ErrOngoingAdmission) {
			a.view.Println("Cannot add new visit for ONGOING patient.")
			continue
		}
		if err != nil {
			if a.reportPatientErr(id, err) {
				continue
			}
			a.fail(err)
			return nil
		}

		a.view.Profile("Patient Profile", c.Patient)
		other, err := a.in.YesNo("\nLooking for different patient? (yes/no): ")
		if err != nil {
			return err
		}
		if other {
			continue
		}

		a.view.Admission("New Visit", c.Admission)
		return a.confirm(c)
	}
}
