// Package catalog_repo provides PostgreSQL implementations of the catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/id"
	"gstbooks/internal/domain"
	"gstbooks/internal/domain/catalogs/product"
	"gstbooks/internal/infrastructure/storage/postgres"
)

const productsTable = "cat_products"

// Compile-time check.
var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo implements product.Repository.
//
// The stock column is the ledger cache and is written only by the ledger
// repository; Update deliberately leaves it alone.
type ProductRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var productColumns = []string{
	"id", "deletion_mark", "version",
	"name", "hsn", "unit", "gst_rate", "purchase_price", "sales_price", "stock",
}

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.builder.Insert(productsTable).
		Columns(productColumns...).
		Values(
			p.ID, p.DeletionMark, p.Version,
			p.Name, p.HSN, p.Unit, p.GSTRate, p.PurchasePrice, p.SalesPrice, int64(p.Stock),
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	out := make(map[id.ID]*product.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": ids})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []*product.Product
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := r.builder.Update(productsTable).
		Set("deletion_mark", p.DeletionMark).
		Set("version", p.Version+1).
		Set("name", p.Name).
		Set("hsn", p.HSN).
		Set("unit", p.Unit).
		Set("gst_rate", p.GSTRate).
		Set("purchase_price", p.PurchasePrice).
		Set("sales_price", p.SalesPrice).
		Where(squirrel.Eq{"id": p.ID, "version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("product", p.ID)
	}
	p.SetVersion(p.Version + 1)
	return nil
}

// Delete soft-deletes the product; ledger history must stay resolvable.
func (r *ProductRepo) Delete(ctx context.Context, productID id.ID) error {
	q := r.builder.Update(productsTable).
		Set("deletion_mark", true).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}

func (r *ProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Items:  []*product.Product{},
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
			squirrel.ILike{"name": "%" + filter.Search + "%"},
			squirrel.ILike{"hsn": "%" + filter.Search + "%"},
		})
	}

	countQ := r.builder.Select("COUNT(*)").From(productsTable).Where(where)
	sql, args, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count products: %w", err)
	}

	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(where).
		OrderBy("name").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	sql, args, err = q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select products: %w", err)
	}
	return result, nil
}
