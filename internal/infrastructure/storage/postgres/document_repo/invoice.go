// Package document_repo provides PostgreSQL implementations of the
// document repositories.
package document_repo

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
	"gstbooks/internal/domain"
	"gstbooks/internal/domain/documents"
	"gstbooks/internal/domain/documents/invoice"
	"gstbooks/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "doc_invoices"
	invoiceLinesTable = "doc_invoice_lines"
)

// Compile-time check.
var _ invoice.Repository = (*InvoiceRepo)(nil)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// invoiceRow is the flat scan target; the totals block is stored as plain
// columns alongside the header.
type invoiceRow struct {
	ID            id.ID                 `db:"id"`
	DeletionMark  bool                  `db:"deletion_mark"`
	Version       int                   `db:"version"`
	CreatedAt     time.Time             `db:"created_at"`
	UpdatedAt     time.Time             `db:"updated_at"`
	Number        string                `db:"number"`
	Date          time.Time             `db:"date"`
	DueDate       time.Time             `db:"due_date"`
	PlaceOfSupply string                `db:"place_of_supply"`
	IntraState    bool                  `db:"intra_state"`
	Status        entity.DocumentStatus `db:"status"`
	LedgerVersion int                   `db:"ledger_version"`
	CustomerID    id.ID                 `db:"customer_id"`
	TaxableValue  types.Money           `db:"taxable_value"`
	Discount      types.Money           `db:"discount"`
	CGST          types.Money           `db:"cgst"`
	SGST          types.Money           `db:"sgst"`
	IGST          types.Money           `db:"igst"`
	UTGST         types.Money           `db:"utgst"`
	Cess          types.Money           `db:"cess"`
	RoundOff      types.Money           `db:"round_off"`
	GrandTotal    types.Money           `db:"grand_total"`
	PaidAmount    types.Money           `db:"paid_amount"`
	BalanceAmount types.Money           `db:"balance_amount"`
}

var invoiceColumns = []string{
	"id", "deletion_mark", "version", "created_at", "updated_at",
	"number", "date", "due_date", "place_of_supply", "intra_state",
	"status", "ledger_version", "customer_id",
	"taxable_value", "discount", "cgst", "sgst", "igst", "utgst", "cess",
	"round_off", "grand_total", "paid_amount", "balance_amount",
}

func (row *invoiceRow) toModel() *invoice.Invoice {
	inv := &invoice.Invoice{
		Document: entity.Document{
			BaseDocument: entity.BaseDocument{
				BaseEntity: entity.BaseEntity{
					ID:           row.ID,
					DeletionMark: row.DeletionMark,
					Version:      row.Version,
				},
				CreatedAt: row.CreatedAt,
				UpdatedAt: row.UpdatedAt,
			},
			Number:        row.Number,
			Date:          row.Date,
			DueDate:       row.DueDate,
			PlaceOfSupply: row.PlaceOfSupply,
			IntraState:    row.IntraState,
			Status:        row.Status,
			LedgerVersion: row.LedgerVersion,
		},
		CustomerID: row.CustomerID,
		Totals: documents.Totals{
			TaxableValue: row.TaxableValue,
			Discount:     row.Discount,
			CGST:         row.CGST,
			SGST:         row.SGST,
			IGST:         row.IGST,
			UTGST:        row.UTGST,
			Cess:         row.Cess,
			RoundOff:     row.RoundOff,
			GrandTotal:   row.GrandTotal,
		},
		PaidAmount:    row.PaidAmount,
		BalanceAmount: row.BalanceAmount,
	}
	return inv
}

func invoiceValues(inv *invoice.Invoice) []any {
	return []any{
		inv.ID, inv.DeletionMark, inv.Version, inv.CreatedAt, inv.UpdatedAt,
		inv.Number, inv.Date, inv.DueDate, inv.PlaceOfSupply, inv.IntraState,
		inv.Status, inv.LedgerVersion, inv.CustomerID,
		inv.Totals.TaxableValue, inv.Totals.Discount,
		inv.Totals.CGST, inv.Totals.SGST, inv.Totals.IGST,
		inv.Totals.UTGST, inv.Totals.Cess,
		inv.Totals.RoundOff, inv.Totals.GrandTotal,
		inv.PaidAmount, inv.BalanceAmount,
	}
}

// Create inserts an invoice header.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	q := r.builder.Insert(invoicesTable).
		Columns(invoiceColumns...).
		Values(invoiceValues(inv)...)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) getBySQL(ctx context.Context, sql string, args ...any) (*invoice.Invoice, error) {
	var row invoiceRow
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", args[0])
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return row.toModel(), nil
}

// GetByID loads an invoice header.
func (r *InvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	q := r.builder.Select(invoiceColumns...).
		From(invoicesTable).
		Where(squirrel.Eq{"id": invoiceID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.getBySQL(ctx, sql, args...)
}

// GetForUpdate loads an invoice header with a row lock.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	q := r.builder.Select(invoiceColumns...).
		From(invoicesTable).
		Where(squirrel.Eq{"id": invoiceID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.getBySQL(ctx, sql, args...)
}

// Update rewrites the invoice header with optimistic version check.
func (r *InvoiceRepo) Update(ctx context.Context, inv *invoice.Invoice) error {
	q := r.builder.Update(invoicesTable).
		Set("deletion_mark", inv.DeletionMark).
		Set("version", inv.Version+1).
		Set("updated_at", inv.UpdatedAt).
		Set("number", inv.Number).
		Set("date", inv.Date).
		Set("due_date", inv.DueDate).
		Set("place_of_supply", inv.PlaceOfSupply).
		Set("intra_state", inv.IntraState).
		Set("status", inv.Status).
		Set("ledger_version", inv.LedgerVersion).
		Set("customer_id", inv.CustomerID).
		Set("taxable_value", inv.Totals.TaxableValue).
		Set("discount", inv.Totals.Discount).
		Set("cgst", inv.Totals.CGST).
		Set("sgst", inv.Totals.SGST).
		Set("igst", inv.Totals.IGST).
		Set("utgst", inv.Totals.UTGST).
		Set("cess", inv.Totals.Cess).
		Set("round_off", inv.Totals.RoundOff).
		Set("grand_total", inv.Totals.GrandTotal).
		Set("paid_amount", inv.PaidAmount).
		Set("balance_amount", inv.BalanceAmount).
		Where(squirrel.Eq{"id": inv.ID, "version": inv.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("invoice", inv.ID)
	}
	inv.SetVersion(inv.Version + 1)
	return nil
}

// Delete removes the invoice and its lines.
func (r *InvoiceRepo) Delete(ctx context.Context, invoiceID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+invoiceLinesTable+" WHERE document_id = $1", invoiceID); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	tag, err := querier.Exec(ctx, "DELETE FROM "+invoicesTable+" WHERE id = $1", invoiceID)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("invoice", invoiceID)
	}
	return nil
}

var invoiceLineColumns = []string{
	"line_id", "line_no", "product_id",
	"quantity", "unit_rate", "discount_kind", "discount_value", "gst_rate",
	"discount", "taxable_value", "cgst", "sgst", "igst", "line_total",
}

// GetLines loads the table part ordered by line number.
func (r *InvoiceRepo) GetLines(ctx context.Context, invoiceID id.ID) ([]invoice.Line, error) {
	q := r.builder.Select(invoiceLineColumns...).
		From(invoiceLinesTable).
		Where(squirrel.Eq{"document_id": invoiceID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []invoice.Line
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces all lines of the invoice.
func (r *InvoiceRepo) SaveLines(ctx context.Context, invoiceID id.ID, lines []invoice.Line) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+invoiceLinesTable+" WHERE document_id = $1", invoiceID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(invoiceLinesTable).
		Columns(append([]string{"document_id"}, invoiceLineColumns...)...)

	for _, line := range lines {
		q = q.Values(
			invoiceID,
			line.LineID, line.LineNo, line.ProductID,
			int64(line.Quantity), line.UnitRate, line.DiscountKind, line.DiscountValue, line.GSTRate,
			line.Discount, line.TaxableValue, line.CGST, line.SGST, line.IGST, line.LineTotal,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// ExistsByNumber reports whether an invoice with the number exists.
func (r *InvoiceRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	sql := "SELECT EXISTS(SELECT 1 FROM " + invoicesTable + " WHERE number = $1)"

	var exists bool
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by number: %w", err)
	}
	return exists, nil
}

// List returns a filtered page of invoices.
func (r *InvoiceRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	result := domain.ListResult[*invoice.Invoice]{
		Items:  []*invoice.Invoice{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	where := squirrel.And{}
	if !filter.IncludeDeleted {
		where = append(where, squirrel.Eq{"deletion_mark": false})
	}
	if len(filter.IDs) > 0 {
		where = append(where, squirrel.Eq{"id": filter.IDs})
	}
	if filter.Search != "" {
		where = append(where, squirrel.ILike{"number": "%" + filter.Search + "%"})
	}
	if filter.FromDate != nil {
		where = append(where, squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		where = append(where, squirrel.Lt{"date": *filter.ToDate})
	}

	countQ := r.builder.Select("COUNT(*)").From(invoicesTable).Where(where)
	sql, args, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count invoices: %w", err)
	}

	q := r.builder.Select(invoiceColumns...).
		From(invoicesTable).
		Where(where).
		OrderBy(orderClause(filter.OrderBy)).
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	sql, args, err = q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var rows []invoiceRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return result, fmt.Errorf("select invoices: %w", err)
	}

	for i := range rows {
		result.Items = append(result.Items, rows[i].toModel())
	}
	return result, nil
}

// orderClause translates "-date" style order keys to SQL. Only known
// columns are accepted; anything else falls back to date descending.
func orderClause(orderBy string) string {
	desc := false
	key := orderBy
	if len(key) > 0 && key[0] == '-' {
		desc = true
		key = key[1:]
	}
	switch key {
	case "date", "number", "grand_total", "created_at":
	default:
		key, desc = "date", true
	}
	if desc {
		return key + " DESC"
	}
	return key + " ASC"
}
