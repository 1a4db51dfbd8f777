package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
	"github.com/ehr/bedtrack/internal/storage"
)

// Presenter renders tables and single records for the operator.
type Presenter struct {
	out io.Writer
	now func() time.Time
}

func NewPresenter(out io.Writer, now func() time.Time) *Presenter {
	if now == nil {
		now = time.Now
	}
	return &Presenter{out: out, now: now}
}

func (p *Presenter) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

func (p *Presenter) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Title prints a "=== title ===" banner.
func (p *Presenter) Title(title string) {
	fmt.Fprintf(p.out, "\n=== %s ===\n", title)
}

func label(column string) string {
	return strings.ReplaceAll(column, "_", " ")
}

// Table writes an aligned grid. Column names are shown with underscores
// replaced by spaces.
func (p *Presenter) Table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', tabwriter.Debug)
	labels := make([]string, len(header))
	rules := make([]string, len(header))
	for i, h := range header {
		labels[i] = label(h)
		rules[i] = strings.Repeat("-", len(labels[i]))
	}
	fmt.Fprintln(tw, strings.Join(labels, "\t")+"\t")
	fmt.Fprintln(tw, strings.Join(rules, "\t")+"\t")
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	tw.Flush()
}

// Record prints one row as "label : value" lines.
func (p *Presenter) Record(title string, header, values []string) {
	p.Title(title)
	for i, h := range header {
		fmt.Fprintf(p.out, "%-20s : %s\n", label(h), values[i])
	}
}

func (p *Presenter) Patients(ps []patient.Patient) {
	rows := make([][]string, 0, len(ps))
	for _, pt := range ps {
		rows = append(rows, storage.PatientRecord(pt))
	}
	p.Table(storage.PatientHeader, rows)
}

func (p *Presenter) Profile(title string, pt patient.Patient) {
	p.Record(title, storage.PatientHeader, storage.PatientRecord(pt))
}

// Admissions prints room admission rows prefixed with their display
// position. Positions are what the operator types at index prompts.
func (p *Presenter) Admissions(as []admission.Admission) {
	header := append([]string{"No"}, storage.AdmissionHeader...)
	rows := make([][]string, 0, len(as))
	for i, a := range as {
		rows = append(rows, append([]string{strconv.Itoa(i)}, storage.AdmissionRecord(a)...))
	}
	p.Table(header, rows)
}

func (p *Presenter) Admission(title string, a admission.Admission) {
	p.Record(title, storage.AdmissionHeader, storage.AdmissionRecord(a))
}

func (p *Presenter) Snapshots(bs []bed.Snapshot) {
	rows := make([][]string, 0, len(bs))
	for _, b := range bs {
		rows = append(rows, storage.SnapshotRecord(b))
	}
	p.Table(storage.BedHeader, rows)
}

// Latest prints the current availability row. While the ledger only holds
// the CAPACITY row it is shown as of now.
func (p *Presenter) Latest(s bed.Snapshot) {
	if s.IsCapacity() {
		s.Timestamp = p.now().Format(bed.TimestampLayout)
	}
	p.Snapshots([]bed.Snapshot{s})
}

func (p *Presenter) Occupancy(o bed.Occupancy) {
	p.Record("Total Patient", storage.OccupancyHeader, storage.OccupancyRecord(o))
}
