package patient

import (
	"fmt"
	"strconv"
	"strings"
)

// Null is the sentinel written over every field of a soft-deleted record.
const Null = "NULL"

// ID is the numeric suffix of a patient identifier such as "P-12".
type ID int

// NullID marks a missing patient reference.
const NullID ID = 0

const idPrefix = "P-"

func (id ID) String() string {
	if id == NullID {
		return Null
	}
	return idPrefix + strconv.Itoa(int(id))
}

// ParseID parses "P-<n>". The prefix is matched case-insensitively.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == Null {
		return NullID, nil
	}
	if len(s) <= len(idPrefix) || !strings.EqualFold(s[:len(idPrefix)], idPrefix) {
		return NullID, fmt.Errorf("invalid patient id %q", s)
	}
	n, err := strconv.Atoi(s[len(idPrefix):])
	if err != nil || n <= 0 {
		return NullID, fmt.Errorf("invalid patient id %q", s)
	}
	return ID(n), nil
}

// Gender is the closed set of recorded genders. GenderNull is only carried
// by soft-deleted records.
type Gender int

const (
	GenderNull Gender = iota
	Male
	Female
)

func (g Gender) String() string {
	switch g {
	case Male:
		return "Male"
	case Female:
		return "Female"
	}
	return Null
}

// ParseGender accepts "Male", "Female" or the NULL sentinel.
func ParseGender(s string) (Gender, error) {
	switch {
	case strings.EqualFold(s, "Male"):
		return Male, nil
	case strings.EqualFold(s, "Female"):
		return Female, nil
	case s == Null:
		return GenderNull, nil
	}
	return GenderNull, fmt.Errorf("invalid gender %q", s)
}

// Profile is the editable part of a patient record.
type Profile struct {
	FirstName string
	LastName  string
	Gender    Gender
	BirthDate string
}

// NullProfile is the profile of a soft-deleted patient.
var NullProfile = Profile{FirstName: Null, LastName: Null, Gender: GenderNull, BirthDate: Null}

// Patient is a patient record keyed by ID.
type Patient struct {
	ID ID
	Profile
}

// Deleted reports whether the record has been soft-deleted.
func (p Patient) Deleted() bool {
	return p.Profile == NullProfile
}
