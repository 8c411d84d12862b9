// Package product provides the product catalog.
package product

import (
	"context"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/tax"
)

// Product is a stocked, taxable item.
type Product struct {
	entity.BaseCatalog

	Name string `db:"name" json:"name"`

	// HSN is the Harmonized System Nomenclature code classifying the
	// product for GST purposes.
	HSN string `db:"hsn" json:"hsn"`

	// Unit of measure (pcs, kg, ...)
	Unit string `db:"unit" json:"unit"`

	// GSTRate is the statutory rate applied to this product's supplies
	GSTRate types.Percent `db:"gst_rate" json:"gstRate"`

	PurchasePrice types.Money `db:"purchase_price" json:"purchasePrice"`
	SalesPrice    types.Money `db:"sales_price" json:"salesPrice"`

	// Stock is a denormalized cache of the current ledger balance.
	// A materialized view, not a second source of truth: it is written only
	// in the same transaction as the ledger entry that justifies it.
	Stock types.Quantity `db:"stock" json:"stock"`
}

// NewProduct creates a product with generated ID and zero stock.
func NewProduct(name string) *Product {
	return &Product{
		BaseCatalog:   entity.NewBaseCatalog(),
		Name:          name,
		GSTRate:       types.Zero(),
		PurchasePrice: types.Zero(),
		SalesPrice:    types.Zero(),
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if err := tax.ValidateRate(p.GSTRate); err != nil {
		return err
	}
	if p.PurchasePrice.IsNegative() || p.SalesPrice.IsNegative() {
		return apperror.NewValidation("prices must not be negative").
			WithDetail("field", "price")
	}
	return nil
}
