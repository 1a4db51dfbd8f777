package tracker

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Change is a fully validated mutation waiting for operator confirmation.
// Dropping a Change leaves the session untouched.
type Change interface {
	zerolog.LogObjectMarshaler

	// Operation names the workflow that produced the change.
	Operation() string

	base() int
	apply(s *Session) error
}

// staged records the session revision a change was prepared against.
type staged struct {
	rev int
}

func (st staged) base() int { return st.rev }

func (s *Session) stage() staged {
	return staged{rev: s.revision}
}

// Commit applies c. A change prepared before another commit is rejected
// with ErrStaleChange because its preconditions may no longer hold.
func (s *Session) Commit(c Change) error {
	if c == nil {
		return fmt.Errorf("%w: nil change", ErrInvalidInput)
	}
	if c.base() != s.revision {
		return fmt.Errorf("%w: %s prepared at revision %d, session at %d",
			ErrStaleChange, c.Operation(), c.base(), s.revision)
	}
	if err := c.apply(s); err != nil {
		s.logger.Error().Err(err).Str("op", c.Operation()).Msg("commit failed")
		return fmt.Errorf("commit %s: %w", c.Operation(), err)
	}
	s.revision++

	s.logger.Info().
		Str("op", c.Operation()).
		Int("revision", s.revision).
		Object("change", c).
		Msg("change committed")
	return nil
}
