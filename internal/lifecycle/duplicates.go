package lifecycle

import (
	"fmt"

	"github.com/google/uuid"
)

// SerialGroup is a set of records sharing one non-empty serial number, in the
// order the store returned them. The first record keeps the serial.
type SerialGroup struct {
	SerialNumber string
	IDs          []uuid.UUID
}

// SerialRename is a planned serial number change for one record.
type SerialRename struct {
	ID        uuid.UUID
	OldSerial string
	NewSerial string
}

// PlanSerialRenames returns the renames that make every group unique. All but
// the first record of each group get "<serial>_DUPLICATE_<n>" with n counting
// from 1 and skipping values for which taken reports true or that an earlier
// rename in the plan already uses.
func PlanSerialRenames(groups []SerialGroup, taken func(serial string) bool) []SerialRename {
	planned := make(map[string]bool)
	var renames []SerialRename

	for _, group := range groups {
		if group.SerialNumber == "" || len(group.IDs) < 2 {
			continue
		}
		n := 1
		for _, id := range group.IDs[1:] {
			candidate := duplicateSerial(group.SerialNumber, n)
			for planned[candidate] || (taken != nil && taken(candidate)) {
				n++
				candidate = duplicateSerial(group.SerialNumber, n)
			}
			planned[candidate] = true
			renames = append(renames, SerialRename{
				ID:        id,
				OldSerial: group.SerialNumber,
				NewSerial: candidate,
			})
			n++
		}
	}
	return renames
}

func duplicateSerial(serial string, n int) string {
	return fmt.Sprintf("%s_DUPLICATE_%d", serial, n)
}
