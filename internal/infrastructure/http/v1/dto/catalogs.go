package dto

import (
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/catalogs/party"
	"gstbooks/internal/domain/catalogs/product"
)

// --- Products ---

// ProductRequest creates or updates a product. Stock is absent on purpose:
// only the stock ledger writes it.
type ProductRequest struct {
	Name          string  `json:"name" binding:"required"`
	HSN           string  `json:"hsn,omitempty"`
	Unit          string  `json:"unit,omitempty"`
	GSTRate       float64 `json:"gstRate" binding:"omitempty,gte=0,lte=100"`
	PurchasePrice string  `json:"purchasePrice,omitempty" binding:"omitempty,money"`
	SalesPrice    string  `json:"salesPrice,omitempty" binding:"omitempty,money"`
	Version       int     `json:"version,omitempty"`
}

// ToEntity converts the request into a new product.
func (r ProductRequest) ToEntity() (*product.Product, error) {
	p := product.NewProduct(r.Name)
	p.HSN = r.HSN
	p.Unit = r.Unit
	p.GSTRate = types.NewPercent(r.GSTRate)

	if r.PurchasePrice != "" {
		price, err := ParseMoney("purchasePrice", r.PurchasePrice)
		if err != nil {
			return nil, err
		}
		p.PurchasePrice = price
	}
	if r.SalesPrice != "" {
		price, err := ParseMoney("salesPrice", r.SalesPrice)
		if err != nil {
			return nil, err
		}
		p.SalesPrice = price
	}

	return p, nil
}

// Apply overlays the request onto an existing product for update.
func (r ProductRequest) Apply(p *product.Product) error {
	p.Name = r.Name
	p.HSN = r.HSN
	p.Unit = r.Unit
	p.GSTRate = types.NewPercent(r.GSTRate)
	p.Version = r.Version

	if r.PurchasePrice != "" {
		price, err := ParseMoney("purchasePrice", r.PurchasePrice)
		if err != nil {
			return err
		}
		p.PurchasePrice = price
	}
	if r.SalesPrice != "" {
		price, err := ParseMoney("salesPrice", r.SalesPrice)
		if err != nil {
			return err
		}
		p.SalesPrice = price
	}

	return nil
}

// --- Parties ---

// PartyRequest creates or updates a customer or vendor.
type PartyRequest struct {
	Name       string `json:"name" binding:"required"`
	Kind       string `json:"kind" binding:"required,oneof=customer vendor"`
	GSTIN      string `json:"gstin,omitempty"`
	StateCode  string `json:"stateCode,omitempty"`
	GSTEnabled *bool  `json:"gstEnabled,omitempty"`
	Version    int    `json:"version,omitempty"`
}

// ToEntity converts the request into a new party.
func (r PartyRequest) ToEntity() *party.Party {
	p := party.NewParty(r.Name, party.Kind(r.Kind))
	p.GSTIN = r.GSTIN
	p.StateCode = r.StateCode
	if r.GSTEnabled != nil {
		p.GSTEnabled = *r.GSTEnabled
	}
	return p
}

// Apply overlays the request onto an existing party for update.
func (r PartyRequest) Apply(p *party.Party) {
	p.Name = r.Name
	p.Kind = party.Kind(r.Kind)
	p.GSTIN = r.GSTIN
	p.StateCode = r.StateCode
	if r.GSTEnabled != nil {
		p.GSTEnabled = *r.GSTEnabled
	}
	p.Version = r.Version
}
