// Package stockledger provides the append-only stock ledger.
package stockledger

import (
	"context"
	"time"

	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
)

// Repository defines storage operations for the stock ledger.
// All methods run against the transaction carried in ctx when one is active.
type Repository interface {
	// Entry operations

	// AppendEntries batch inserts ledger entries (used during document posting)
	AppendEntries(ctx context.Context, entries []entity.StockEntry) error

	// DeleteEntriesByRef removes entries of superseded generations for a document.
	// Used by reverse-and-replay on document edit: DELETE WHERE ref_id = X AND ref_version < Y.
	DeleteEntriesByRef(ctx context.Context, refID id.ID, beforeVersion int) error

	// GetEntriesByRef retrieves all entries a document produced
	GetEntriesByRef(ctx context.Context, refID id.ID) ([]entity.StockEntry, error)

	// GetEntries returns a product's entries up to asOf, ordered by
	// (period, line_id). A zero asOf means the full log.
	GetEntries(ctx context.Context, productID id.ID, asOf time.Time) ([]entity.StockEntry, error)

	// Cache operations (Product.stock is a materialized view of the log)

	// GetStockForUpdate returns the cached balance with a row lock on the product
	GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error)

	// GetStock returns the cached balance without locking
	GetStock(ctx context.Context, productID id.ID) (types.Quantity, error)

	// SetStock writes the cached balance. Must be called in the same
	// transaction as the entry insert that justifies it.
	SetStock(ctx context.Context, productID id.ID, stock types.Quantity) error
}
