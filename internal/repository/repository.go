// Package repository bundles the Local Store repositories of one backend.
package repository

import (
	"context"

	"github.com/cmlabs-hris/timeclock/internal/domain/branch"
	"github.com/cmlabs-hris/timeclock/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock/internal/domain/setting"
	"github.com/cmlabs-hris/timeclock/internal/domain/shift"
)

// Transactor runs fn atomically. Repositories called with the context passed
// to fn take part in the same transaction; nested calls join it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is the device-local system of record.
type Store struct {
	Transactor
	Branches  branch.BranchRepository
	Employees employee.EmployeeRepository
	Shifts    shift.ShiftRepository
	Settings  setting.SettingRepository

	close func() error
}

func NewStore(tx Transactor, branches branch.BranchRepository, employees employee.EmployeeRepository,
	shifts shift.ShiftRepository, settings setting.SettingRepository, closeFn func() error) *Store {
	return &Store{
		Transactor: tx,
		Branches:   branches,
		Employees:  employees,
		Shifts:     shifts,
		Settings:   settings,
		close:      closeFn,
	}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
