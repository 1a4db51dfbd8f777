package tracker

import (
	"errors"

	"github.com/ehr/bedtrack/internal/domain/admission"
	"github.com/ehr/bedtrack/internal/domain/patient"
)

// NotFound errors.
var (
	ErrPatientNotFound   = patient.ErrNotFound
	ErrAdmissionNotFound = admission.ErrNotFound
)

// Invariant violations. Each is returned before any store is touched.
var (
	ErrPatientDeleted   = errors.New("patient has been deleted")
	ErrOngoingAdmission = errors.New("patient has an ONGOING room admission")
	ErrAdmissionClosed  = errors.New("cannot modify COMPLETED or NULL entries")
	ErrRoomUnavailable  = errors.New("room is not available")
	ErrSameRoomType     = errors.New("admission is already in that room type")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStaleChange      = errors.New("change was prepared against an older session state")
)

// IsNotFound reports whether err refers to a missing patient or admission.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPatientNotFound) || errors.Is(err, ErrAdmissionNotFound)
}

// IsInvariantViolation reports whether err is a rejected state transition.
func IsInvariantViolation(err error) bool {
	for _, target := range []error{
		ErrPatientDeleted,
		ErrOngoingAdmission,
		ErrAdmissionClosed,
		ErrRoomUnavailable,
		ErrSameRoomType,
		ErrInvalidInput,
		ErrStaleChange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
