package purchase

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

// NumberPrefix for generated purchase numbers.
const NumberPrefix = "PUR"

// LineSpec is a raw purchase line from the caller. The unit rate defaults to
// the product's purchase price when zero.
type LineSpec struct {
	ProductID     id.ID
	Quantity      types.Quantity
	UnitRate      types.Money
	DiscountKind  documents.DiscountKind
	DiscountValue types.Money
}

// CreateInput carries the header and lines for a new or edited purchase.
type CreateInput struct {
	VendorID      id.ID
	VendorBillNo  string
	Date          time.Time
	DueDate       time.Time
	PlaceOfSupply string
	IntraState    bool
	Lines         []LineSpec
}

// Service provides business operations for purchases.
type Service struct {
	repo      Repository
	products  product.Repository
	parties   party.Repository
	ledger    *stockledger.Service
	numbers   documents.NumberGenerator
	txManager tx.Manager
}

// NewService creates a new purchase service.
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
			rate = p.PurchasePrice
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

// Create computes totals and persists the purchase together with its `in`
// stock entries, all in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Purchase, error) {
	vendor, err := s.parties.GetByID(ctx, in.VendorID)
	if err != nil {
		return nil, err
	}

	inputs, err := s.resolveLines(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	computed, totals, err := documents.ComputeTotals(inputs, in.IntraState, vendor.GSTEnabled)
	if err != nil {
		return nil, err
	}

	p := NewPurchase(in.VendorID, in.Date)
	p.VendorBillNo = in.VendorBillNo
	p.DueDate = in.DueDate
	p.PlaceOfSupply = in.PlaceOfSupply
	p.IntraState = in.IntraState
	p.LedgerVersion = 1
	p.ApplyComputed(computed, totals)

	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if p.Number == "" {
			number, err := s.numbers.Next(ctx, NumberPrefix, in.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			p.Number = number
		}
		if taken, err := s.repo.ExistsByNumber(ctx, p.Number); err != nil {
			return err
		} else if taken {
			return apperror.NewDuplicate("purchase", "number", p.Number)
		}

		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, p.ID, p.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.ledger.Append(ctx, p.GenerateStockEntries())
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase created",
		"id", p.ID,
		"number", p.Number,
		"grand_total", p.Totals.GrandTotal,
	)
	return p, nil
}

// Update recomputes the purchase wholesale with reverse-and-replay of its
// stock entries. Reversing an `in` can legitimately fail the floor policy
// when the received goods were already sold on; the conflict surfaces to the
// caller and nothing is mutated.
func (s *Service) Update(ctx context.Context, purchaseID id.ID, in CreateInput) (*Purchase, error) {
	p, err := s.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if p.Status == entity.StatusCancelled {
		return nil, apperror.NewConflict("cancelled purchase cannot be edited")
	}

	vendor, err := s.parties.GetByID(ctx, in.VendorID)
	if err != nil {
		return nil, err
	}

	inputs, err := s.resolveLines(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	computed, totals, err := documents.ComputeTotals(inputs, in.IntraState, vendor.GSTEnabled)
	if err != nil {
		return nil, err
	}

	if totals.GrandTotal.LessThan(p.PaidAmount) {
		return nil, apperror.NewConflict("new grand total is below the amount already paid").
			WithDetail("paid", p.PaidAmount.String()).
			WithDetail("grand_total", totals.GrandTotal.String())
	}

	p.VendorID = in.VendorID
	p.VendorBillNo = in.VendorBillNo
	p.Date = in.Date
	p.DueDate = in.DueDate
	p.PlaceOfSupply = in.PlaceOfSupply
	p.IntraState = in.IntraState
	p.MarkRecomputed()
	p.ApplyComputed(computed, totals)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ledger.Replace(ctx, p.ID, p.LedgerVersion, p.GenerateStockEntries()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, p.ID, p.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase recomputed",
		"id", p.ID,
		"ledger_version", p.LedgerVersion,
	)
	return p, nil
}

// GetByID retrieves a purchase with lines.
func (s *Service) GetByID(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	p, err := s.repo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	p.Lines = lines

	return p, nil
}

// Delete removes an unpaid purchase and reverses its stock effect.
func (s *Service) Delete(ctx context.Context, purchaseID id.ID) error {
	p, err := s.repo.GetByID(ctx, purchaseID)
	if err != nil {
		return err
	}
	if !p.PaidAmount.IsZero() {
		return apperror.NewConflict("purchase with recorded payments cannot be deleted")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ledger.Reverse(ctx, p.ID, p.LedgerVersion+1); err != nil {
			return err
		}
		return s.repo.Delete(ctx, purchaseID)
	})
}

// List retrieves purchases with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Purchase], error) {
	return s.repo.List(ctx, filter)
}
