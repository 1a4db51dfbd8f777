package bed

import "time"

// CapacityMarker is the timestamp value carried by the seed row that
// establishes starting bed counts.
const CapacityMarker = "CAPACITY"

// TimestampLayout is used for every appended snapshot.
const TimestampLayout = time.RFC3339

// Counts holds one bed counter per room type, indexed by RoomType.
type Counts [numRoomTypes]int

// Get returns the counter for r.
func (c Counts) Get(r RoomType) int {
	if !r.Valid() {
		return 0
	}
	return c[r]
}

// Sum returns the total over all room types.
func (c Counts) Sum() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Snapshot is one row of the bed availability history.
type Snapshot struct {
	Index     int
	Timestamp string
	Counts    Counts
}

// IsCapacity reports whether s is the CAPACITY seed row.
func (s Snapshot) IsCapacity() bool {
	return s.Timestamp == CapacityMarker
}

// Time parses the snapshot timestamp. The seed row and malformed
// timestamps report ok=false.
func (s Snapshot) Time() (time.Time, bool) {
	if s.IsCapacity() {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, s.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Occupancy is the derived total-patient aggregate: beds in use per room
// type, computed as capacity minus current availability.
type Occupancy struct {
	Timestamp string
	Counts    Counts
	Total     int
}
