package employee

import (
	"github.com/cmlabs-hris/timeclock/internal/pkg/validator"
)

// NoBranchLabel is shown for employees without a resolvable branch.
const NoBranchLabel = "no branch"

type EmployeeResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	BranchID   *int64 `json:"branch_id,omitempty"`
	BranchName string `json:"branch_name"`
	CreatedAt  string `json:"created_at"`
}

type CreateEmployeeRequest struct {
	Name     string `json:"name"`
	BranchID *int64 `json:"branch_id,omitempty"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	} else if !validator.MaxLen(r.Name, 100) {
		errs.Add("name", "name must not exceed 100 characters")
	}

	if r.BranchID != nil && *r.BranchID <= 0 {
		errs.Add("branch_id", "branch_id must be a positive number")
	}

	return errs.Err()
}

type UpdateEmployeeRequest struct {
	ID          int64   `json:"-"`
	Name        *string `json:"name,omitempty"`
	BranchID    *int64  `json:"branch_id,omitempty"`
	ClearBranch bool    `json:"clear_branch,omitempty"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.ID <= 0 {
		errs.Add("id", "id is required")
	}

	if r.Name != nil {
		if validator.IsEmpty(*r.Name) {
			errs.Add("name", "name must not be empty")
		} else if !validator.MaxLen(*r.Name, 100) {
			errs.Add("name", "name must not exceed 100 characters")
		}
	}

	if r.BranchID != nil && *r.BranchID <= 0 {
		errs.Add("branch_id", "branch_id must be a positive number")
	}
	if r.ClearBranch && r.BranchID != nil {
		errs.Add("clear_branch", "cannot clear and set branch at the same time")
	}

	return errs.Err()
}
