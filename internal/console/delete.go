package console

import (
	"errors"

	"github.com/ehr/bedtrack/internal/tracker"
)

func (a *App) deleteMenu() error {
	for {
		n, err := a.in.Menu("=== Delete Menu ===", []string{"Delete patient data", "Return to main menu"})
		if err != nil {
			return err
		}
		if n != 0 {
			return nil
		}
		if !a.hasPatients() {
			continue
		}
		if err := a.deletePatient(); err != nil {
			return err
		}
	}
}

func (a *App) deletePatient() error {
	a.view.Patients(a.session.Patients())
	for {
		id, cancelled, err := a.in.PatientID()
		if err != nil || cancelled {
			return err
		}

		c, err := a.session.PrepareDeletion(id)
		switch {
		case errors.Is(err, tracker.ErrPatientDeleted):
			a.view.Printf("Patient ID %s is already deleted.\n", id)
			continue
		case errors.Is(err, tracker.ErrOngoingAdmission):
			a.view.Println("Cannot delete ONGOING patient. Please mark status as COMPLETED first.")
			continue
		case err != nil:
			if a.reportPatientErr(id, err) {
				continue
			}
			a.fail(err)
			return nil
		}

		a.view.Profile("Patient Profile", c.Patient)
		if c.Ongoing != nil {
			if c.Release {
				a.view.Printf("\nRoom admission %d is ONGOING. Its %s bed will be released.\n",
					c.Ongoing.Index, c.Ongoing.RoomType.Label())
			} else {
				a.view.Printf("\nWarning: room admission %d is ONGOING. Its %s bed will stay occupied.\n",
					c.Ongoing.Index, c.Ongoing.RoomType.Label())
			}
		}

		ok, err := a.in.YesNo("\nConfirm deletion? (yes/no): ")
		if err != nil {
			return err
		}
		if !ok {
			a.view.Println("Deletion canceled.")
			return nil
		}
		if err := a.session.Commit(c); err != nil {
			a.fail(err)
			return nil
		}
		a.view.Println("Data successfully deleted.")
		return nil
	}
}
