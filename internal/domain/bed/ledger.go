package bed

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCapacityMissing is returned when the first ledger row is not the
	// CAPACITY seed row.
	ErrCapacityMissing = errors.New("bed capacity data missing")
	// ErrDuplicateIndex is returned when two snapshots share an index.
	ErrDuplicateIndex = errors.New("duplicate snapshot index")
)

// Order selects how the authoritative latest snapshot is chosen.
type Order string

const (
	// OrderInsertion treats the last appended row as latest.
	OrderInsertion Order = "insertion"
	// OrderTimestamp treats the row with the greatest timestamp as latest,
	// falling back to insertion order on ties. The seed row sorts first.
	OrderTimestamp Order = "timestamp"
)

// ParseOrder validates an order name.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case OrderInsertion, OrderTimestamp:
		return Order(s), nil
	case "":
		return OrderInsertion, nil
	}
	return "", fmt.Errorf("unknown snapshot order %q", s)
}

// Ledger is the append-only bed availability history.
type Ledger struct {
	snapshots []Snapshot
	order     Order
	now       func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithOrder selects how Latest picks the authoritative snapshot.
func WithOrder(o Order) LedgerOption {
	return func(l *Ledger) { l.order = o }
}

// WithClock overrides the time source used for appended timestamps.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// NewLedger builds a ledger over existing snapshots. The first snapshot must
// be the CAPACITY seed row.
func NewLedger(snapshots []Snapshot, opts ...LedgerOption) (*Ledger, error) {
	if len(snapshots) == 0 || !snapshots[0].IsCapacity() {
		return nil, ErrCapacityMissing
	}
	seen := make(map[int]bool, len(snapshots))
	for _, s := range snapshots {
		if seen[s.Index] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateIndex, s.Index)
		}
		seen[s.Index] = true
	}

	l := &Ledger{
		snapshots: append([]Snapshot(nil), snapshots...),
		order:     OrderInsertion,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Len returns the number of snapshots including the seed row.
func (l *Ledger) Len() int { return len(l.snapshots) }

// Snapshots returns a copy of every snapshot in insertion order.
func (l *Ledger) Snapshots() []Snapshot {
	return append([]Snapshot(nil), l.snapshots...)
}

// Capacity returns the seed row.
func (l *Ledger) Capacity() Snapshot { return l.snapshots[0] }

// Latest returns the authoritative current availability.
func (l *Ledger) Latest() Snapshot {
	if l.order != OrderTimestamp {
		return l.snapshots[len(l.snapshots)-1]
	}

	best := 0
	bestTime, _ := l.snapshots[0].Time()
	for i := 1; i < len(l.snapshots); i++ {
		t, ok := l.snapshots[i].Time()
		if !ok {
			continue
		}
		if !t.Before(bestTime) {
			best, bestTime = i, t
		}
	}
	return l.snapshots[best]
}

// IsAvailable reports whether at least one bed of type r is free.
func (l *Ledger) IsAvailable(r RoomType) bool {
	return l.Latest().Counts.Get(r) > 0
}

// Next builds the snapshot Append would add without recording it. Pass
// NoRoom for either side to leave it untouched. Counters are not checked
// for non-negativity.
func (l *Ledger) Next(free, occupy RoomType) Snapshot {
	next := Snapshot{
		Index:     l.maxIndex() + 1,
		Timestamp: l.now().Format(TimestampLayout),
		Counts:    l.Latest().Counts,
	}
	if free.Valid() {
		next.Counts[free]++
	}
	if occupy.Valid() {
		next.Counts[occupy]--
	}
	return next
}

// Append records a new snapshot derived from Latest with the counter for
// free incremented and the counter for occupy decremented.
func (l *Ledger) Append(free, occupy RoomType) Snapshot {
	next := l.Next(free, occupy)
	l.snapshots = append(l.snapshots, next)
	return next
}

// Occupancy returns the beds in use per room type: capacity minus latest.
func (l *Ledger) Occupancy() Occupancy {
	capacity, latest := l.Capacity(), l.Latest()
	occ := Occupancy{Timestamp: l.now().Format(TimestampLayout)}
	for _, r := range RoomTypes {
		occ.Counts[r] = capacity.Counts[r] - latest.Counts[r]
	}
	occ.Total = occ.Counts.Sum()
	return occ
}

// Between returns the timestamped snapshots whose time falls within
// [start, end], in insertion order. The seed row never matches.
func (l *Ledger) Between(start, end time.Time) []Snapshot {
	var out []Snapshot
	for _, s := range l.snapshots {
		t, ok := s.Time()
		if !ok {
			continue
		}
		if t.Before(start) || t.After(end) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (l *Ledger) maxIndex() int {
	max := l.snapshots[0].Index
	for _, s := range l.snapshots[1:] {
		if s.Index > max {
			max = s.Index
		}
	}
	return max
}
