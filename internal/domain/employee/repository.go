package employee

import "context"

type EmployeeRepository interface {
	Create(ctx context.Context, employee Employee) (Employee, error)
	GetByID(ctx context.Context, id int64) (Employee, error)
	List(ctx context.Context) ([]Employee, error)
	Update(ctx context.Context, employee Employee) error
	Delete(ctx context.Context, id int64) error

	// ReplaceAll clears the collection and inserts employees keeping their IDs.
	ReplaceAll(ctx context.Context, employees []Employee) error
}
