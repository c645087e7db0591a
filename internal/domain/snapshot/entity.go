package snapshot

import (
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
	"github.com/cmlabs-hris/timeclock/internal/pkg/geo"
)

// Version is written into every document pushed by this module.
const Version = 1

// Collection names a local collection that can travel in a snapshot.
type Collection string

const (
	Branches    Collection = "branches"
	Employees   Collection = "employees"
	TimeEntries Collection = "timeEntries"
)

// AllCollections lists every syncable collection in a stable order.
var AllCollections = []Collection{Branches, Employees, TimeEntries}

// ParseCollection maps a name to a Collection.
func ParseCollection(name string) (Collection, bool) {
	for _, c := range AllCollections {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Snapshot is the whole-document image of one or more local collections.
// A nil slice means the collection is not part of the document (encoded as
// null); an empty slice means it is part of it and has no items. The document
// carries no push time, so the same items always encode to the same content.
type Snapshot struct {
	Version     int                 `json:"version"`
	DeviceID    string              `json:"deviceId,omitempty"`
	Branches    []branch.Branch     `json:"branches"`
	Employees   []employee.Employee `json:"employees"`
	TimeEntries []shift.ShiftEvent  `json:"timeEntries"`
}

// Has reports whether c is part of the snapshot.
func (s Snapshot) Has(c Collection) bool {
	switch c {
	case Branches:
		return s.Branches != nil
	case Employees:
		return s.Employees != nil
	case TimeEntries:
		return s.TimeEntries != nil
	}
	return false
}

// Count returns the number of items s carries for c.
func (s Snapshot) Count(c Collection) int {
	switch c {
	case Branches:
		return len(s.Branches)
	case Employees:
		return len(s.Employees)
	case TimeEntries:
		return len(s.TimeEntries)
	}
	return 0
}

// Collections lists the collections present in s.
func (s Snapshot) Collections() []Collection {
	var out []Collection
	for _, c := range AllCollections {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Target is a named sync destination and the collections it carries.
type Target struct {
	Name        string
	Collections []Collection
}

// Built-in targets, mirroring the configuration/shifts split of the app.
var (
	ConfigTarget = Target{Name: "config", Collections: []Collection{Branches, Employees}}
	ShiftsTarget = Target{Name: "shifts", Collections: []Collection{TimeEntries}}
	// LocationsTarget carries tracker fixes rather than collections.
	LocationsTarget = Target{Name: "locations"}
)

// LookupTarget returns a built-in target by name.
func LookupTarget(name string) (Target, bool) {
	switch name {
	case ConfigTarget.Name:
		return ConfigTarget, true
	case ShiftsTarget.Name:
		return ShiftsTarget, true
	case LocationsTarget.Name:
		return LocationsTarget, true
	}
	return Target{}, false
}

// PushResult describes a completed push.
type PushResult struct {
	TargetID    string       `json:"target_id"`
	Created     bool         `json:"created"`
	Collections []Collection `json:"collections"`
	Description string       `json:"description"`
}

// LocationFix is one tracked position of an employee during an open shift.
type LocationFix struct {
	EmployeeID int64     `json:"employeeId"`
	Coord      geo.Coord `json:"coord"`
	At         time.Time `json:"at"`
}

// LocationReport is the document pushed to the locations target.
type LocationReport struct {
	Version  int           `json:"version"`
	DeviceID string        `json:"deviceId,omitempty"`
	Fixes    []LocationFix `json:"fixes"`
}
