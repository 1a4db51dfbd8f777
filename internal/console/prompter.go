package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/bed"
	"github.com/ehr/bedtrack/internal/domain/patient"
)

// ErrInputClosed is returned when the operator's input stream ends.
var ErrInputClosed = errors.New("input closed")

const (
	cancelText  = "0"
	cancelIndex = -1
	returnLabel = "Return to previous menu"
)

// Prompter reads and validates operator input line by line. Every prompt
// re-asks on invalid input; text prompts are cancelled with 0 and index
// prompts with -1.
type Prompter struct {
	in       *bufio.Scanner
	out      io.Writer
	validate *validator.Validate
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:       bufio.NewScanner(in),
		out:      out,
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return validPersonName(fl.Field().String())
	})
	v.RegisterValidation("patientid", func(fl validator.FieldLevel) bool {
		id, err := patient.ParseID(fl.Field().String())
		return err == nil && id != patient.NullID
	})
	return v
}

func validPersonName(s string) bool {
	if strings.Contains(s, patient.Null) {
		return false
	}
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsSpace(r):
		default:
			return false
		}
	}
	return letters > 0
}

// NormalizeName capitalises each word and collapses whitespace.
func NormalizeName(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func (p *Prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Prompter) readLine(prompt string) (string, error) {
	p.printf("%s", prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *Prompter) invalid() {
	p.printf("Invalid input.\n")
}

// Menu prints a numbered list and returns the 0-based choice.
func (p *Prompter) Menu(title string, choices []string) (int, error) {
	for {
		p.printf("\n%s\n", title)
		for i, c := range choices {
			p.printf("%d. %s\n", i+1, c)
		}
		line, err := p.readLine("> ")
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(choices) {
			p.invalid()
			continue
		}
		return n - 1, nil
	}
}

// YesNo accepts yes/no or y/n in any case.
func (p *Prompter) YesNo(prompt string) (bool, error) {
	for {
		line, err := p.readLine(prompt)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
		p.printf("Please respond with 'yes' or 'no'.\n")
	}
}

// text loops until the input is "0" (cancelled) or passes tag.
func (p *Prompter) text(prompt, tag string) (string, bool, error) {
	for {
		line, err := p.readLine(prompt)
		if err != nil {
			return "", false, err
		}
		if line == cancelText {
			return "", true, nil
		}
		if err := p.validate.Var(line, tag); err != nil {
			p.invalid()
			continue
		}
		return line, false, nil
	}
}

// Name asks for a first or last name and returns it normalised.
func (p *Prompter) Name(kind string) (string, bool, error) {
	s, cancelled, err := p.text(fmt.Sprintf("\nEnter %s name or 0 to cancel: ", kind), "required,personname")
	if err != nil || cancelled {
		return "", cancelled, err
	}
	return NormalizeName(s), false, nil
}

func (p *Prompter) PatientID() (patient.ID, bool, error) {
	s, cancelled, err := p.text("\nEnter Patient ID (e.g. P-1) or 0 to cancel: ", "required,patientid")
	if err != nil || cancelled {
		return patient.NullID, cancelled, err
	}
	id, err := patient.ParseID(s)
	return id, false, err
}

// Date asks for a YYYY-MM-DD date.
func (p *Prompter) Date(kind string) (string, bool, error) {
	return p.text(fmt.Sprintf("\nEnter %s date (YYYY-MM-DD) or 0 to cancel: ", kind), "required,datetime=2006-01-02")
}

func (p *Prompter) Gender() (patient.Gender, bool, error) {
	choices := []patient.Gender{patient.Male, patient.Female}
	labels := []string{"Male", "Female", returnLabel}
	n, err := p.Menu("Select gender:", labels)
	if err != nil || n == len(choices) {
		return patient.GenderNull, n == len(choices), err
	}
	return choices[n], false, nil
}

func (p *Prompter) RoomType() (bed.RoomType, bool, error) {
	labels := make([]string, 0, len(bed.RoomTypes)+1)
	for _, r := range bed.RoomTypes {
		labels = append(labels, r.Label())
	}
	labels = append(labels, returnLabel)
	n, err := p.Menu("Select room type:", labels)
	if err != nil || n == len(bed.RoomTypes) {
		return bed.NoRoom, n == len(bed.RoomTypes), err
	}
	return bed.RoomTypes[n], false, nil
}

func (p *Prompter) Status() (admission.Status, bool, error) {
	choices := []admission.Status{admission.Completed, admission.Ongoing}
	n, err := p.Menu("Select status:", []string{"Completed", "Ongoing", returnLabel})
	if err != nil || n == len(choices) {
		return admission.StatusNull, n == len(choices), err
	}
	return choices[n], false, nil
}

// Index asks for a display index in [0, count). -1 cancels.
func (p *Prompter) Index(action string, count int) (int, bool, error) {
	prompt := fmt.Sprintf("\nEnter index to %s or -1 to cancel: ", action)
	for {
		line, err := p.readLine(prompt)
		if err != nil {
			return 0, false, err
		}
		n, err := strconv.Atoi(line)
		switch {
		case err != nil:
			p.invalid()
		case n == cancelIndex:
			return 0, true, nil
		case n < 0 || n >= count:
			p.printf("Number must be between 0 and %d.\n", count-1)
		default:
			return n, false, nil
		}
	}
}
