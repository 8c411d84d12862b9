package invoice

import (
	"context"
	"fmt"
	"time"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/tx"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain"
	"gstbooks/internal/domain/catalogs/party"
	"gstbooks/internal/domain/catalogs/product"
	"gstbooks/internal/domain/documents"
	"gstbooks/internal/domain/stockledger"
	"gstbooks/pkg/logger"
)

// NumberPrefix for generated invoice numbers.
const NumberPrefix = "INV"

// LineSpec is a raw invoice line from the caller. The unit rate defaults to
// the product's sales price when zero; the GST rate always comes from the
// product catalog.
type LineSpec struct {
	ProductID     id.ID
	Quantity      types.Quantity
	UnitRate      types.Money
	DiscountKind  documents.DiscountKind
	DiscountValue types.Money
}

// CreateInput carries the header and lines for a new or edited invoice.
type CreateInput struct {
	CustomerID    id.ID
	Date          time.Time
	DueDate       time.Time
	PlaceOfSupply string
	IntraState    bool
	Lines         []LineSpec
}

// Service provides business operations for invoices.
type Service struct {
	repo      Repository
	products  product.Repository
	parties   party.Repository
	ledger    *stockledger.Service
	numbers   documents.NumberGenerator
	txManager tx.Manager
}

// NewService creates a new invoice service.
func NewService(
	repo Repository,
	products product.Repository,
	parties party.Repository,
	ledger *stockledger.Service,
	numbers documents.NumberGenerator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		parties:   parties,
		ledger:    ledger,
		numbers:   numbers,
		txManager: txManager,
	}
}

// resolveLines turns raw line specs into computation inputs by resolving
// product prices and GST rates from the catalog.
func (s *Service) resolveLines(ctx context.Context, specs []LineSpec) ([]documents.LineInput, error) {
	if len(specs) == 0 {
		return nil, apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	ids := make([]id.ID, 0, len(specs))
	for _, spec := range specs {
		ids = append(ids, spec.ProductID)
	}
	prods, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	inputs := make([]documents.LineInput, 0, len(specs))
	for i, spec := range specs {
		p, ok := prods[spec.ProductID]
		if !ok {
			return nil, apperror.NewNotFound("product", spec.ProductID).
				WithDetail("lineNo", i+1)
		}
		rate := spec.UnitRate
		if rate.IsZero() {
			rate = p.SalesPrice
		}
		inputs = append(inputs, documents.LineInput{
			ProductID:     spec.ProductID,
			Quantity:      spec.Quantity,
			UnitRate:      rate,
			DiscountKind:  spec.DiscountKind,
			DiscountValue: spec.DiscountValue,
			GSTRate:       p.GSTRate,
		})
	}
	return inputs, nil
}

// Create computes totals and persists the invoice together with its `out`
// stock entries. One transaction: a stock floor rejection rolls the whole
// document back.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Invoice, error) {
	cust, err := s.parties.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	inputs, err := s.resolveLines(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	computed, totals, err := documents.ComputeTotals(inputs, in.IntraState, cust.GSTEnabled)
	if err != nil {
		return nil, err
	}

	inv := NewInvoice(in.CustomerID, in.Date)
	inv.DueDate = in.DueDate
	inv.PlaceOfSupply = in.PlaceOfSupply
	inv.IntraState = in.IntraState
	inv.LedgerVersion = 1
	inv.ApplyComputed(computed, totals)

	if err := inv.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if inv.Number == "" {
			number, err := s.numbers.Next(ctx, NumberPrefix, in.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			inv.Number = number
		}
		if taken, err := s.repo.ExistsByNumber(ctx, inv.Number); err != nil {
			return err
		} else if taken {
			return apperror.NewDuplicate("invoice", "number", inv.Number)
		}

		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, inv.ID, inv.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.ledger.Append(ctx, inv.GenerateStockEntries())
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created",
		"id", inv.ID,
		"number", inv.Number,
		"grand_total", inv.Totals.GrandTotal,
	)
	return inv, nil
}

// Update recomputes the invoice wholesale: prior lines are discarded, totals
// are recomputed from the new lines, and the stock effect is reversed and
// replayed under a new ledger version. Tax already invoiced is never
// renegotiated by payments, only by this full recompute.
func (s *Service) Update(ctx context.Context, invoiceID id.ID, in CreateInput) (*Invoice, error) {
	inv, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == entity.StatusCancelled {
		return nil, apperror.NewConflict("cancelled invoice cannot be edited")
	}

	cust, err := s.parties.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	inputs, err := s.resolveLines(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	computed, totals, err := documents.ComputeTotals(inputs, in.IntraState, cust.GSTEnabled)
	if err != nil {
		return nil, err
	}

	if totals.GrandTotal.LessThan(inv.PaidAmount) {
		return nil, apperror.NewConflict("new grand total is below the amount already paid").
			WithDetail("paid", inv.PaidAmount.String()).
			WithDetail("grand_total", totals.GrandTotal.String())
	}

	inv.CustomerID = in.CustomerID
	inv.Date = in.Date
	inv.DueDate = in.DueDate
	inv.PlaceOfSupply = in.PlaceOfSupply
	inv.IntraState = in.IntraState
	inv.MarkRecomputed()
	inv.ApplyComputed(computed, totals)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ledger.Replace(ctx, inv.ID, inv.LedgerVersion, inv.GenerateStockEntries()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, inv.ID, inv.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice recomputed",
		"id", inv.ID,
		"ledger_version", inv.LedgerVersion,
	)
	return inv, nil
}

// GetByID retrieves an invoice with lines.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	inv.Lines = lines

	return inv, nil
}

// Delete removes an unpaid invoice and reverses its stock effect.
func (s *Service) Delete(ctx context.Context, invoiceID id.ID) error {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if !inv.PaidAmount.IsZero() {
		return apperror.NewConflict("invoice with recorded payments cannot be deleted")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ledger.Reverse(ctx, inv.ID, inv.LedgerVersion+1); err != nil {
			return err
		}
		return s.repo.Delete(ctx, invoiceID)
	})
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}
