// Package export writes the admission tables to an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
	"github.com/ehr/bedtrack/internal/storage"
)

// Sheet names, in workbook order.
const (
	SheetPatients   = "Patients"
	SheetAdmissions = "Admissions"
	SheetBeds       = "Beds"
	SheetOccupancy  = "Occupancy"
)

// Source is the read side of a tracker session.
type Source interface {
	Patients() []patient.Patient
	Admissions() []admission.Admission
	Snapshots() []bed.Snapshot
	Occupancy() bed.Occupancy
}

type sheet struct {
	name   string
	header []string
	rows   [][]interface{}
}

// Write builds the workbook for src and writes it to w.
func Write(w io.Writer, src Source) error {
	f, err := Workbook(src)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Workbook builds one sheet per table plus the occupancy summary. The
// caller owns the returned file and must Close it.
func Workbook(src Source) (*excelize.File, error) {
	sheets := []sheet{
		{SheetPatients, storage.PatientHeader, patientRows(src.Patients())},
		{SheetAdmissions, storage.AdmissionHeader, admissionRows(src.Admissions())},
		{SheetBeds, storage.BedHeader, snapshotRows(src.Snapshots())},
		{SheetOccupancy, storage.OccupancyHeader, occupancyRows(src.Occupancy())},
	}

	f := excelize.NewFile()
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, s := range sheets {
		if err := writeSheet(f, s, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", s.name, err)
		}
		if i == 0 {
			if err := f.DeleteSheet("Sheet1"); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	if _, err := f.NewSheet(s.name); err != nil {
		return err
	}

	header := make([]interface{}, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(s.header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(s.header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(s.name, "A", lastCol, 16); err != nil {
		return err
	}
	return f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func patientRows(ps []patient.Patient) [][]interface{} {
	rows := make([][]interface{}, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []interface{}{p.ID.String(), p.FirstName, p.LastName, p.Gender.String(), p.BirthDate})
	}
	return rows
}

func admissionRows(as []admission.Admission) [][]interface{} {
	rows := make([][]interface{}, 0, len(as))
	for _, a := range as {
		rows = append(rows, []interface{}{a.Index, a.PatientID.String(), a.RoomType.String(), a.AdmissionDate, a.DischargeDate, a.Status.String()})
	}
	return rows
}

func snapshotRows(bs []bed.Snapshot) [][]interface{} {
	rows := make([][]interface{}, 0, len(bs))
	for _, b := range bs {
		row := []interface{}{b.Index, b.Timestamp}
		for _, r := range bed.RoomTypes {
			row = append(row, b.Counts.Get(r))
		}
		rows = append(rows, row)
	}
	return rows
}

func occupancyRows(o bed.Occupancy) [][]interface{} {
	row := []interface{}{o.Timestamp}
	for _, r := range bed.RoomTypes {
		row = append(row, o.Counts.Get(r))
	}
	return [][]interface{}{append(row, o.Total)}
}
