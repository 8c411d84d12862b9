package product

import (
	"context"

	"gstbooks/internal/core/id"
	"gstbooks/internal/domain"
)

// Repository defines storage operations for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)
}
