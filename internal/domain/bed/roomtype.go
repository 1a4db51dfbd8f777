package bed

import (
	"fmt"
	"strings"
)

// RoomType is one of the fixed ward classes tracked by the ledger.
type RoomType int

const (
	NoRoom RoomType = iota - 1
	VVIP
	VIP
	Kelas1
	Kelas2
	Kelas3

	numRoomTypes = 5
)

// RoomTypes lists every room type in ledger column order.
var RoomTypes = []RoomType{VVIP, VIP, Kelas1, Kelas2, Kelas3}

var roomTypeCodes = [numRoomTypes]string{"VVIP", "VIP", "Kelas_1", "Kelas_2", "Kelas_3"}

// Valid reports whether r names a real room type.
func (r RoomType) Valid() bool {
	return r >= VVIP && r <= Kelas3
}

// String returns the stored code, e.g. "Kelas_1".
func (r RoomType) String() string {
	if !r.Valid() {
		return "NULL"
	}
	return roomTypeCodes[r]
}

// Label returns the human form shown on screen, e.g. "Kelas 1".
func (r RoomType) Label() string {
	return strings.ReplaceAll(r.String(), "_", " ")
}

// ParseRoomType accepts either the stored code or the human label.
func ParseRoomType(s string) (RoomType, error) {
	code := strings.Join(strings.Fields(s), "_")
	for i, c := range roomTypeCodes {
		if strings.EqualFold(c, code) {
			return RoomType(i), nil
		}
	}
	return NoRoom, fmt.Errorf("unknown room type %q", s)
}
