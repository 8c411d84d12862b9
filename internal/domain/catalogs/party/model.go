// Package party provides the counterparty catalog (customers and vendors).
package party

import (
	"context"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/domain"
)

// Kind classifies a party by which side of trade it sits on.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindVendor   Kind = "vendor"
)

// Party is a customer or vendor.
type Party struct {
	entity.BaseCatalog

	Name string `db:"name" json:"name"`
	Kind Kind   `db:"kind" json:"kind"`

	// GSTIN is the party's GST registration number; empty for unregistered parties
	GSTIN string `db:"gstin" json:"gstin,omitempty"`

	// StateCode determines intra vs inter-state supply against our own state
	StateCode string `db:"state_code" json:"stateCode"`

	// GSTEnabled disables tax computation entirely for unregistered
	// counterparties when false
	GSTEnabled bool `db:"gst_enabled" json:"gstEnabled"`
}

// NewParty creates a party with generated ID.
func NewParty(name string, kind Kind) *Party {
	return &Party{
		BaseCatalog: entity.NewBaseCatalog(),
		Name:        name,
		Kind:        kind,
		GSTEnabled:  true,
	}
}

// Validate implements entity.Validatable.
func (p *Party) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.Kind != KindCustomer && p.Kind != KindVendor {
		return apperror.NewValidation("kind must be customer or vendor").
			WithDetail("field", "kind")
	}
	return nil
}

// Repository defines storage operations for parties.
type Repository interface {
	Create(ctx context.Context, p *Party) error
	GetByID(ctx context.Context, partyID id.ID) (*Party, error)
	Update(ctx context.Context, p *Party) error
	Delete(ctx context.Context, partyID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Party], error)
}
