// Package report serves the loaded admission tables as read-only JSON.
package report

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
	"github.com/ehr/bedtrack/pkg/pagination"
)

// Reader is the query surface of a tracker session.
type Reader interface {
	Patients() []patient.Patient
	FilterPatients(field patient.Field, value string) []patient.Patient
	Admissions() []admission.Admission
	Snapshots() []bed.Snapshot
	LatestSnapshot() bed.Snapshot
	Occupancy() bed.Occupancy
	SnapshotsBetween(start, end time.Time) ([]bed.Snapshot, error)
}

type Handler struct {
	r Reader
}

func NewHandler(r Reader) *Handler {
	return &Handler{r: r}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/beds", h.ListSnapshots)
	e.GET("/beds/latest", h.LatestSnapshot)
	e.GET("/beds/occupancy", h.Occupancy)
	e.GET("/patients", h.ListPatients)
	e.GET("/admissions", h.ListAdmissions)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ListSnapshots returns the ledger, optionally restricted to the whole days
// between from and to (YYYY-MM-DD, both required together).
func (h *Handler) ListSnapshots(c echo.Context) error {
	from, to := c.QueryParam("from"), c.QueryParam("to")

	var snaps []bed.Snapshot
	switch {
	case from == "" && to == "":
		snaps = h.r.Snapshots()
	case from == "" || to == "":
		return echo.NewHTTPError(http.StatusBadRequest, "from and to must be given together")
	default:
		start, err := time.Parse(dateLayout, from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
		end, err := time.Parse(dateLayout, to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
		snaps, err = h.r.SnapshotsBetween(start, end)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	out := make([]Snapshot, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, toSnapshot(s))
	}
	return c.JSON(http.StatusOK, pagination.Page(out, pagination.FromContext(c)))
}

func (h *Handler) LatestSnapshot(c echo.Context) error {
	return c.JSON(http.StatusOK, toSnapshot(h.r.LatestSnapshot()))
}

func (h *Handler) Occupancy(c echo.Context) error {
	return c.JSON(http.StatusOK, toOccupancy(h.r.Occupancy()))
}

var patientFields = map[string]patient.Field{
	"patient_id": patient.FieldID,
	"first_name": patient.FieldFirstName,
	"last_name":  patient.FieldLastName,
	"gender":     patient.FieldGender,
	"birth_date": patient.FieldBirthDate,
}

// ListPatients filters on one column when field and value are given.
func (h *Handler) ListPatients(c echo.Context) error {
	field, value := strings.ToLower(c.QueryParam("field")), c.QueryParam("value")

	var rows []patient.Patient
	if field == "" {
		rows = h.r.Patients()
	} else {
		f, ok := patientFields[field]
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown patient field: "+field)
		}
		normalized, err := normalizePatientValue(f, value)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		rows = h.r.FilterPatients(f, normalized)
	}

	out := make([]Patient, 0, len(rows))
	for _, p := range rows {
		out = append(out, toPatient(p))
	}
	return c.JSON(http.StatusOK, pagination.Page(out, pagination.FromContext(c)))
}

func normalizePatientValue(f patient.Field, value string) (string, error) {
	switch f {
	case patient.FieldID:
		id, err := patient.ParseID(value)
		if err != nil {
			return "", err
		}
		return id.String(), nil
	case patient.FieldGender:
		g, err := patient.ParseGender(value)
		if err != nil {
			return "", err
		}
		return g.String(), nil
	}
	return value, nil
}

// ListAdmissions applies every given filter.
func (h *Handler) ListAdmissions(c echo.Context) error {
	var keep []func(admission.Admission) bool

	if v := c.QueryParam("status"); v != "" {
		status, err := admission.ParseStatus(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		keep = append(keep, func(a admission.Admission) bool { return a.Status == status })
	}
	if v := c.QueryParam("room_type"); v != "" {
		room, err := bed.ParseRoomType(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		keep = append(keep, func(a admission.Admission) bool { return a.RoomType == room })
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := patient.ParseID(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		keep = append(keep, func(a admission.Admission) bool { return a.PatientID == id })
	}

	out := []Admission{}
rows:
	for _, a := range h.r.Admissions() {
		for _, k := range keep {
			if !k(a) {
				continue rows
			}
		}
		out = append(out, toAdmission(a))
	}
	return c.JSON(http.StatusOK, pagination.Page(out, pagination.FromContext(c)))
}
