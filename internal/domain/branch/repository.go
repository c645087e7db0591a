package branch

import "context"

type BranchRepository interface {
	Create(ctx context.Context, branch Branch) (Branch, error)
	GetByID(ctx context.Context, id int64) (Branch, error)
	List(ctx context.Context) ([]Branch, error)
	Update(ctx context.Context, branch Branch) error
	Delete(ctx context.Context, id int64) error

	// ReplaceAll clears the collection and inserts branches keeping their IDs.
	ReplaceAll(ctx context.Context, branches []Branch) error
}
