package employee

import "time"

// Employee is a person who clocks in and out. BranchID is a weak reference:
// it is only used for lookups and may point at a branch that no longer exists.
type Employee struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	BranchID  *int64    `json:"branchId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
