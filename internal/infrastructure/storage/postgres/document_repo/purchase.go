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
	"gstbooks/internal/domain/documents/purchase"
	"gstbooks/internal/infrastructure/storage/postgres"
)

const (
	purchasesTable     = "doc_purchases"
	purchaseLinesTable = "doc_purchase_lines"
)

// Compile-time check.
var _ purchase.Repository = (*PurchaseRepo)(nil)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

type purchaseRow struct {
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
	VendorID      id.ID                 `db:"vendor_id"`
	VendorBillNo  string                `db:"vendor_bill_no"`
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

var purchaseColumns = []string{
	"id", "deletion_mark", "version", "created_at", "updated_at",
	"number", "date", "due_date", "place_of_supply", "intra_state",
	"status", "ledger_version", "vendor_id", "vendor_bill_no",
	"taxable_value", "discount", "cgst", "sgst", "igst", "utgst", "cess",
	"round_off", "grand_total", "paid_amount", "balance_amount",
}

func (row *purchaseRow) toModel() *purchase.Purchase {
	return &purchase.Purchase{
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
		VendorID:     row.VendorID,
		VendorBillNo: row.VendorBillNo,
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
}

func purchaseValues(doc *purchase.Purchase) []any {
	return []any{
		doc.ID, doc.DeletionMark, doc.Version, doc.CreatedAt, doc.UpdatedAt,
		doc.Number, doc.Date, doc.DueDate, doc.PlaceOfSupply, doc.IntraState,
		doc.Status, doc.LedgerVersion, doc.VendorID, doc.VendorBillNo,
		doc.Totals.TaxableValue, doc.Totals.Discount,
		doc.Totals.CGST, doc.Totals.SGST, doc.Totals.IGST,
		doc.Totals.UTGST, doc.Totals.Cess,
		doc.Totals.RoundOff, doc.Totals.GrandTotal,
		doc.PaidAmount, doc.BalanceAmount,
	}
}

// Create inserts a purchase header.
func (r *PurchaseRepo) Create(ctx context.Context, doc *purchase.Purchase) error {
	q := r.builder.Insert(purchasesTable).
		Columns(purchaseColumns...).
		Values(purchaseValues(doc)...)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (r *PurchaseRepo) getBySQL(ctx context.Context, sql string, args ...any) (*purchase.Purchase, error) {
	var row purchaseRow
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase", args[0])
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return row.toModel(), nil
}

// GetByID loads a purchase header.
func (r *PurchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	q := r.builder.Select(purchaseColumns...).
		From(purchasesTable).
		Where(squirrel.Eq{"id": purchaseID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.getBySQL(ctx, sql, args...)
}

// GetForUpdate loads a purchase header with a row lock.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	q := r.builder.Select(purchaseColumns...).
		From(purchasesTable).
		Where(squirrel.Eq{"id": purchaseID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.getBySQL(ctx, sql, args...)
}

// Update rewrites the purchase header with optimistic version check.
func (r *PurchaseRepo) Update(ctx context.Context, doc *purchase.Purchase) error {
	q := r.builder.Update(purchasesTable).
		Set("deletion_mark", doc.DeletionMark).
		Set("version", doc.Version+1).
		Set("updated_at", doc.UpdatedAt).
		Set("number", doc.Number).
		Set("date", doc.Date).
		Set("due_date", doc.DueDate).
		Set("place_of_supply", doc.PlaceOfSupply).
		Set("intra_state", doc.IntraState).
		Set("status", doc.Status).
		Set("ledger_version", doc.LedgerVersion).
		Set("vendor_id", doc.VendorID).
		Set("vendor_bill_no", doc.VendorBillNo).
		Set("taxable_value", doc.Totals.TaxableValue).
		Set("discount", doc.Totals.Discount).
		Set("cgst", doc.Totals.CGST).
		Set("sgst", doc.Totals.SGST).
		Set("igst", doc.Totals.IGST).
		Set("utgst", doc.Totals.UTGST).
		Set("cess", doc.Totals.Cess).
		Set("round_off", doc.Totals.RoundOff).
		Set("grand_total", doc.Totals.GrandTotal).
		Set("paid_amount", doc.PaidAmount).
		Set("balance_amount", doc.BalanceAmount).
		Where(squirrel.Eq{"id": doc.ID, "version": doc.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("purchase", doc.ID)
	}
	doc.SetVersion(doc.Version + 1)
	return nil
}

// Delete removes the purchase and its lines.
func (r *PurchaseRepo) Delete(ctx context.Context, purchaseID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+purchaseLinesTable+" WHERE document_id = $1", purchaseID); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	tag, err := querier.Exec(ctx, "DELETE FROM "+purchasesTable+" WHERE id = $1", purchaseID)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase", purchaseID)
	}
	return nil
}

var purchaseLineColumns = []string{
	"line_id", "line_no", "product_id",
	"quantity", "unit_rate", "discount_kind", "discount_value", "gst_rate",
	"discount", "taxable_value", "cgst", "sgst", "igst", "line_total",
}

// GetLines loads the table part ordered by line number.
func (r *PurchaseRepo) GetLines(ctx context.Context, purchaseID id.ID) ([]purchase.Line, error) {
	q := r.builder.Select(purchaseLineColumns...).
		From(purchaseLinesTable).
		Where(squirrel.Eq{"document_id": purchaseID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []purchase.Line
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces all lines of the purchase.
func (r *PurchaseRepo) SaveLines(ctx context.Context, purchaseID id.ID, lines []purchase.Line) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, "DELETE FROM "+purchaseLinesTable+" WHERE document_id = $1", purchaseID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(purchaseLinesTable).
		Columns(append([]string{"document_id"}, purchaseLineColumns...)...)

	for _, line := range lines {
		q = q.Values(
			purchaseID,
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

// ExistsByNumber reports whether a purchase with the number exists.
func (r *PurchaseRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	sql := "SELECT EXISTS(SELECT 1 FROM " + purchasesTable + " WHERE number = $1)"

	var exists bool
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by number: %w", err)
	}
	return exists, nil
}

// List returns a filtered page of purchases.
func (r *PurchaseRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	result := domain.ListResult[*purchase.Purchase]{
		Items:  []*purchase.Purchase{},
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
		where = append(where, squirrel.Or{
			squirrel.ILike{"number": "%" + filter.Search + "%"},
			squirrel.ILike{"vendor_bill_no": "%" + filter.Search + "%"},
		})
	}
	if filter.FromDate != nil {
		where = append(where, squirrel.GtOrEq{"date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		where = append(where, squirrel.Lt{"date": *filter.ToDate})
	}

	countQ := r.builder.Select("COUNT(*)").From(purchasesTable).Where(where)
	sql, args, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count purchases: %w", err)
	}

	q := r.builder.Select(purchaseColumns...).
		From(purchasesTable).
		Where(where).
		OrderBy(orderClause(filter.OrderBy)).
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	sql, args, err = q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var rows []purchaseRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return result, fmt.Errorf("select purchases: %w", err)
	}

	for i := range rows {
		result.Items = append(result.Items, rows[i].toModel())
	}
	return result, nil
}
