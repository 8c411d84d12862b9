package invoice

import (
	"context"

	"gstbooks/internal/core/id"
	"gstbooks/internal/domain"
)

// Repository defines storage operations for invoices.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	// GetForUpdate loads the invoice with a row lock. Payment mutations are
	// read-modify-write and must serialize per document.
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, invoiceID id.ID) error

	GetLines(ctx context.Context, invoiceID id.ID) ([]Line, error)

	// SaveLines replaces all lines of the invoice (old rows are discarded)
	SaveLines(ctx context.Context, invoiceID id.ID, lines []Line) error

	ExistsByNumber(ctx context.Context, number string) (bool, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Invoice], error)
}
