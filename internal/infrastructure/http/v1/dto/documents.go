package dto

import (
	"time"

	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/documents"
	"gstbooks/internal/domain/documents/invoice"
	"gstbooks/internal/domain/documents/purchase"
)

// --- Request DTOs ---

// DocumentLineRequest is one line of an invoice or purchase.
// Monetary values are decimal strings to avoid float drift in transit.
type DocumentLineRequest struct {
	ProductID     string  `json:"productId" binding:"required,uuid"`
	Quantity      float64 `json:"quantity" binding:"required,gt=0"`
	UnitRate      string  `json:"unitRate" binding:"required,money"`
	DiscountKind  string  `json:"discountKind,omitempty" binding:"omitempty,oneof=none amount percent"`
	DiscountValue string  `json:"discountValue,omitempty" binding:"omitempty,money"`
}

func (r DocumentLineRequest) toSpec() (lineSpec, error) {
	productID, err := ParseID("productId", r.ProductID)
	if err != nil {
		return lineSpec{}, err
	}

	unitRate, err := ParseMoney("unitRate", r.UnitRate)
	if err != nil {
		return lineSpec{}, err
	}

	kind := documents.DiscountKind(r.DiscountKind)
	if r.DiscountKind == "" {
		kind = documents.DiscountNone
	}

	discountValue := types.Zero()
	if r.DiscountValue != "" {
		discountValue, err = ParseMoney("discountValue", r.DiscountValue)
		if err != nil {
			return lineSpec{}, err
		}
	}

	return lineSpec{
		productID:     productID,
		quantity:      types.NewQuantityFromFloat64(r.Quantity),
		unitRate:      unitRate,
		discountKind:  kind,
		discountValue: discountValue,
	}, nil
}

// lineSpec is the parsed form shared by both document types.
type lineSpec struct {
	productID     id.ID
	quantity      types.Quantity
	unitRate      types.Money
	discountKind  documents.DiscountKind
	discountValue types.Money
}

// CreateInvoiceRequest creates or replaces a sales invoice.
type CreateInvoiceRequest struct {
	CustomerID    string                `json:"customerId" binding:"required,uuid"`
	Date          time.Time             `json:"date" binding:"required"`
	DueDate       time.Time             `json:"dueDate"`
	PlaceOfSupply string                `json:"placeOfSupply"`
	IntraState    bool                  `json:"intraState"`
	Lines         []DocumentLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request into the invoice service input.
func (r CreateInvoiceRequest) ToInput() (invoice.CreateInput, error) {
	customerID, err := ParseID("customerId", r.CustomerID)
	if err != nil {
		return invoice.CreateInput{}, err
	}

	lines := make([]invoice.LineSpec, 0, len(r.Lines))
	for _, lr := range r.Lines {
		spec, err := lr.toSpec()
		if err != nil {
			return invoice.CreateInput{}, err
		}
		lines = append(lines, invoice.LineSpec{
			ProductID:     spec.productID,
			Quantity:      spec.quantity,
			UnitRate:      spec.unitRate,
			DiscountKind:  spec.discountKind,
			DiscountValue: spec.discountValue,
		})
	}

	return invoice.CreateInput{
		CustomerID:    customerID,
		Date:          r.Date,
		DueDate:       r.DueDate,
		PlaceOfSupply: r.PlaceOfSupply,
		IntraState:    r.IntraState,
		Lines:         lines,
	}, nil
}

// CreatePurchaseRequest creates or replaces a purchase.
type CreatePurchaseRequest struct {
	VendorID      string                `json:"vendorId" binding:"required,uuid"`
	VendorBillNo  string                `json:"vendorBillNo,omitempty"`
	Date          time.Time             `json:"date" binding:"required"`
	DueDate       time.Time             `json:"dueDate"`
	PlaceOfSupply string                `json:"placeOfSupply"`
	IntraState    bool                  `json:"intraState"`
	Lines         []DocumentLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request into the purchase service input.
func (r CreatePurchaseRequest) ToInput() (purchase.CreateInput, error) {
	vendorID, err := ParseID("vendorId", r.VendorID)
	if err != nil {
		return purchase.CreateInput{}, err
	}

	lines := make([]purchase.LineSpec, 0, len(r.Lines))
	for _, lr := range r.Lines {
		spec, err := lr.toSpec()
		if err != nil {
			return purchase.CreateInput{}, err
		}
		lines = append(lines, purchase.LineSpec{
			ProductID:     spec.productID,
			Quantity:      spec.quantity,
			UnitRate:      spec.unitRate,
			DiscountKind:  spec.discountKind,
			DiscountValue: spec.discountValue,
		})
	}

	return purchase.CreateInput{
		VendorID:      vendorID,
		VendorBillNo:  r.VendorBillNo,
		Date:          r.Date,
		DueDate:       r.DueDate,
		PlaceOfSupply: r.PlaceOfSupply,
		IntraState:    r.IntraState,
		Lines:         lines,
	}, nil
}
