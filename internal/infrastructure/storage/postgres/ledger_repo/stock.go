// Package ledger_repo provides the PostgreSQL implementation of the stock
// ledger repository.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/stockledger"
	"gstbooks/internal/infrastructure/storage/postgres"
)

const (
	entriesTable  = "stock_ledger_entries"
	productsTable = "cat_products"
)

// Compile-time check.
var _ stockledger.Repository = (*StockRepo)(nil)

// StockRepo implements stockledger.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var entryColumns = []string{
	"line_id", "ref_id", "ref_type", "ref_version",
	"product_id", "entry_type", "qty", "unit_cost",
	"period", "created_at",
}

// AppendEntries batch inserts ledger entries. Uses COPY when inside a
// transaction, which posting always is.
func (r *StockRepo) AppendEntries(ctx context.Context, entries []entity.StockEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				e.LineID, e.RefID, e.RefType, e.RefVersion,
				e.ProductID, e.EntryType, int64(e.Qty), e.UnitCost,
				e.Period, e.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, entriesTable, entryColumns, rows); err != nil {
			return fmt.Errorf("copy entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(entriesTable).Columns(entryColumns...)
	for _, e := range entries {
		q = q.Values(
			e.LineID, e.RefID, e.RefType, e.RefVersion,
			e.ProductID, e.EntryType, int64(e.Qty), e.UnitCost,
			e.Period, e.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}
	return nil
}

// DeleteEntriesByRef removes entries of superseded generations for a document.
func (r *StockRepo) DeleteEntriesByRef(ctx context.Context, refID id.ID, beforeVersion int) error {
	q := r.builder.Delete(entriesTable).
		Where(squirrel.Eq{"ref_id": refID}).
		Where(squirrel.Lt{"ref_version": beforeVersion})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	return nil
}

// GetEntriesByRef retrieves all entries a document produced.
func (r *StockRepo) GetEntriesByRef(ctx context.Context, refID id.ID) ([]entity.StockEntry, error) {
	q := r.builder.Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"ref_id": refID}).
		OrderBy("period", "line_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.StockEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return entries, nil
}

// GetEntries returns a product's entries up to asOf, ordered by
// (period, line_id). A zero asOf means the full log.
func (r *StockRepo) GetEntries(ctx context.Context, productID id.ID, asOf time.Time) ([]entity.StockEntry, error) {
	q := r.builder.Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"product_id": productID})

	if !asOf.IsZero() {
		q = q.Where(squirrel.LtOrEq{"period": asOf})
	}
	q = q.OrderBy("period", "line_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.StockEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return entries, nil
}

// GetStockForUpdate returns the cached balance with a row lock on the product.
func (r *StockRepo) GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error) {
	sql := `SELECT stock FROM cat_products WHERE id = $1 FOR UPDATE`

	var stock int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, productID).Scan(&stock)
	if err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewNotFound("product", productID)
		}
		return 0, fmt.Errorf("get stock for update: %w", err)
	}
	return types.Quantity(stock), nil
}

// GetStock returns the cached balance without locking.
func (r *StockRepo) GetStock(ctx context.Context, productID id.ID) (types.Quantity, error) {
	sql := `SELECT stock FROM cat_products WHERE id = $1`

	var stock int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, productID).Scan(&stock)
	if err != nil {
		if pgxscan.NotFound(err) {
			return 0, apperror.NewNotFound("product", productID)
		}
		return 0, fmt.Errorf("get stock: %w", err)
	}
	return types.Quantity(stock), nil
}

// SetStock writes the cached balance. Callers run this in the same
// transaction as the ledger mutation it reflects.
func (r *StockRepo) SetStock(ctx context.Context, productID id.ID, stock types.Quantity) error {
	q := r.builder.Update(productsTable).
		Set("stock", int64(stock)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}
