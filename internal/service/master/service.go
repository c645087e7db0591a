package master

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock/internal/domain/setting"
	"github.com/cmlabs-hris/timeclock/internal/repository"
)

type MasterService interface {
	// Branch operations
	CreateBranch(ctx context.Context, req branch.CreateBranchRequest) (branch.BranchResponse, error)
	GetBranch(ctx context.Context, id int64) (branch.BranchResponse, error)
	ListBranches(ctx context.Context) ([]branch.BranchResponse, error)
	UpdateBranch(ctx context.Context, req branch.UpdateBranchRequest) (branch.BranchResponse, error)
	DeleteBranch(ctx context.Context, id int64) error

	// Employee operations
	CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error)
	GetEmployee(ctx context.Context, id int64) (employee.EmployeeResponse, error)
	ListEmployees(ctx context.Context) ([]employee.EmployeeResponse, error)
	UpdateEmployee(ctx context.Context, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error)
	DeleteEmployee(ctx context.Context, id int64) error

	// Admin PIN gate
	HasPIN(ctx context.Context) (bool, error)
	SetPIN(ctx context.Context, pin string) error
	VerifyPIN(ctx context.Context, pin string) error
	Unlock(ctx context.Context, pin string) (created bool, err error)
}

type MasterServiceImpl struct {
	tx        repository.Transactor
	branches  branch.BranchRepository
	employees employee.EmployeeRepository
	settings  setting.SettingRepository
	logger    *slog.Logger
}

func NewMasterService(
	tx repository.Transactor,
	branches branch.BranchRepository,
	employees employee.EmployeeRepository,
	settings setting.SettingRepository,
	logger *slog.Logger,
) *MasterServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &MasterServiceImpl{
		tx:        tx,
		branches:  branches,
		employees: employees,
		settings:  settings,
		logger:    logger,
	}
}

// ==================== BRANCH OPERATIONS ====================

func (s *MasterServiceImpl) CreateBranch(ctx context.Context, req branch.CreateBranchRequest) (branch.BranchResponse, error) {
	if err := req.Validate(); err != nil {
		return branch.BranchResponse{}, err
	}

	entity := branch.Branch{
		Name:      strings.TrimSpace(req.Name),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if req.RadiusMeters != nil {
		entity.RadiusMeters = *req.RadiusMeters
	}

	var created branch.Branch
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureUniqueBranchName(ctx, entity.Name, 0); err != nil {
			return err
		}
		var err error
		created, err = s.branches.Create(ctx, entity)
		return err
	})
	if err != nil {
		if errors.Is(err, branch.ErrBranchNameExists) {
			return branch.BranchResponse{}, err
		}
		return branch.BranchResponse{}, fmt.Errorf("failed to create branch: %w", err)
	}

	s.logger.Info("branch created", "branch_id", created.ID, "name", created.Name)
	return branch.NewBranchResponse(created), nil
}

func (s *MasterServiceImpl) GetBranch(ctx context.Context, id int64) (branch.BranchResponse, error) {
	entity, err := s.branches.GetByID(ctx, id)
	if err != nil {
		return branch.BranchResponse{}, err
	}
	return branch.NewBranchResponse(entity), nil
}

func (s *MasterServiceImpl) ListBranches(ctx context.Context) ([]branch.BranchResponse, error) {
	branches, err := s.branches.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]branch.BranchResponse, 0, len(branches))
	for _, b := range branches {
		responses = append(responses, branch.NewBranchResponse(b))
	}
	return responses, nil
}

func (s *MasterServiceImpl) UpdateBranch(ctx context.Context, req branch.UpdateBranchRequest) (branch.BranchResponse, error) {
	if err := req.Validate(); err != nil {
		return branch.BranchResponse{}, err
	}

	var updated branch.Branch
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		entity, err := s.branches.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			entity.Name = strings.TrimSpace(*req.Name)
			if err := s.ensureUniqueBranchName(ctx, entity.Name, entity.ID); err != nil {
				return err
			}
		}
		switch {
		case req.ClearLocation:
			entity.Latitude, entity.Longitude = nil, nil
		case req.Latitude != nil:
			entity.Latitude, entity.Longitude = req.Latitude, req.Longitude
		}
		if req.RadiusMeters != nil {
			entity.RadiusMeters = *req.RadiusMeters
		}

		if err := s.branches.Update(ctx, entity); err != nil {
			return err
		}
		updated, err = s.branches.GetByID(ctx, entity.ID)
		return err
	})
	if err != nil {
		return branch.BranchResponse{}, err
	}

	return branch.NewBranchResponse(updated), nil
}

// DeleteBranch leaves employees and shifts pointing at the removed branch;
// they render as "no branch" from then on.
func (s *MasterServiceImpl) DeleteBranch(ctx context.Context, id int64) error {
	if err := s.branches.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("branch deleted", "branch_id", id)
	return nil
}

func (s *MasterServiceImpl) ensureUniqueBranchName(ctx context.Context, name string, selfID int64) error {
	branches, err := s.branches.List(ctx)
	if err != nil {
		return err
	}
	for _, b := range branches {
		if b.ID != selfID && strings.EqualFold(b.Name, name) {
			return branch.ErrBranchNameExists
		}
	}
	return nil
}

// ==================== EMPLOYEE OPERATIONS ====================

func (s *MasterServiceImpl) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	created, err := s.employees.Create(ctx, employee.Employee{
		Name:     strings.TrimSpace(req.Name),
		BranchID: req.BranchID,
	})
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to create employee: %w", err)
	}

	s.logger.Info("employee created", "employee_id", created.ID)
	return s.employeeResponse(ctx, created)
}

func (s *MasterServiceImpl) GetEmployee(ctx context.Context, id int64) (employee.EmployeeResponse, error) {
	entity, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return s.employeeResponse(ctx, entity)
}

func (s *MasterServiceImpl) ListEmployees(ctx context.Context) ([]employee.EmployeeResponse, error) {
	employees, err := s.employees.List(ctx)
	if err != nil {
		return nil, err
	}
	branches, err := s.branches.List(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(branches))
	for _, b := range branches {
		names[b.ID] = b.Name
	}

	responses := make([]employee.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		responses = append(responses, newEmployeeResponse(e, names))
	}
	return responses, nil
}

func (s *MasterServiceImpl) UpdateEmployee(ctx context.Context, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	var updated employee.Employee
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		entity, err := s.employees.GetByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if req.Name != nil {
			entity.Name = strings.TrimSpace(*req.Name)
		}
		switch {
		case req.ClearBranch:
			entity.BranchID = nil
		case req.BranchID != nil:
			entity.BranchID = req.BranchID
		}

		if err := s.employees.Update(ctx, entity); err != nil {
			return err
		}
		updated, err = s.employees.GetByID(ctx, entity.ID)
		return err
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	return s.employeeResponse(ctx, updated)
}

func (s *MasterServiceImpl) DeleteEmployee(ctx context.Context, id int64) error {
	if err := s.employees.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("employee deleted", "employee_id", id)
	return nil
}

func (s *MasterServiceImpl) employeeResponse(ctx context.Context, e employee.Employee) (employee.EmployeeResponse, error) {
	names := map[int64]string{}
	if e.BranchID != nil {
		b, err := s.branches.GetByID(ctx, *e.BranchID)
		switch {
		case err == nil:
			names[b.ID] = b.Name
		case !errors.Is(err, branch.ErrBranchNotFound):
			return employee.EmployeeResponse{}, err
		}
	}
	return newEmployeeResponse(e, names), nil
}

func newEmployeeResponse(e employee.Employee, branchNames map[int64]string) employee.EmployeeResponse {
	resp := employee.EmployeeResponse{
		ID:         e.ID,
		Name:       e.Name,
		BranchID:   e.BranchID,
		BranchName: employee.NoBranchLabel,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
	if e.BranchID != nil {
		if name, ok := branchNames[*e.BranchID]; ok {
			resp.BranchName = name
		}
	}
	return resp
}
