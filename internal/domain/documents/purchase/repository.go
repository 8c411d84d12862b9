package purchase

import (
	"context"

	"gstbooks/internal/core/id"
	"gstbooks/internal/domain"
)

// Repository defines storage operations for purchases.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	GetByID(ctx context.Context, purchaseID id.ID) (*Purchase, error)

	// GetForUpdate loads the purchase with a row lock for payment mutations
	GetForUpdate(ctx context.Context, purchaseID id.ID) (*Purchase, error)

	Update(ctx context.Context, p *Purchase) error
	Delete(ctx context.Context, purchaseID id.ID) error

	GetLines(ctx context.Context, purchaseID id.ID) ([]Line, error)

	// SaveLines replaces all lines of the purchase (old rows are discarded)
	SaveLines(ctx context.Context, purchaseID id.ID, lines []Line) error

	ExistsByNumber(ctx context.Context, number string) (bool, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Purchase], error)
}
