package stockledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/tx"
	"gstbooks/internal/core/types"
	"gstbooks/pkg/logger"
)

// Policy controls the negative-stock floor.
type Policy struct {
	// AllowNegative disables the hard floor at 0 for `out` entries.
	// Manual `adjust` entries always bypass the floor regardless.
	AllowNegative bool
}

// Service provides business operations for the stock ledger.
// Entry inserts and the Product.stock cache write are one atomic unit.
type Service struct {
	repo      Repository
	txManager tx.Manager
	policy    Policy
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, txManager tx.Manager, policy Policy) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		policy:    policy,
	}
}

func validateEntries(entries []entity.StockEntry) error {
	for i, e := range entries {
		if !e.EntryType.Valid() {
			return apperror.NewValidation(fmt.Sprintf("entry %d: unknown entry type %q", i, e.EntryType))
		}
		if e.EntryType != entity.EntryAdjust && !e.Qty.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("entry %d: quantity must be positive", i))
		}
		if e.EntryType == entity.EntryAdjust && e.Qty.IsZero() {
			return apperror.NewValidation(fmt.Sprintf("entry %d: adjustment quantity must not be zero", i))
		}
		if id.IsNil(e.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("entry %d: product_id is required", i))
		}
		if id.IsNil(e.RefID) {
			return apperror.NewValidation(fmt.Sprintf("entry %d: ref_id is required", i))
		}
	}
	return nil
}

// Append validates and records ledger entries, updating each affected
// product's cached balance in the same transaction. For `out` entries the
// floor policy is enforced against the running balance; a violation aborts
// the whole batch with InsufficientStock and nothing is mutated.
//
// Callers posting a document invoke this inside the document's transaction so
// a floor rejection rolls back the document as well (all-or-nothing).
func (s *Service) Append(ctx context.Context, entries []entity.StockEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := validateEntries(entries); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Per-product running balances, locked in a stable order to avoid
		// deadlocks between concurrent batches.
		balances := make(map[id.ID]types.Quantity)
		order := make([]id.ID, 0)
		for _, e := range entries {
			if _, seen := balances[e.ProductID]; !seen {
				order = append(order, e.ProductID)
				balances[e.ProductID] = 0
			}
		}
		sort.Slice(order, func(i, j int) bool {
			return order[i].String() < order[j].String()
		})
		for _, pid := range order {
			stock, err := s.repo.GetStockForUpdate(ctx, pid)
			if err != nil {
				return fmt.Errorf("lock stock for %s: %w", pid, err)
			}
			balances[pid] = stock
		}

		for _, e := range entries {
			running := balances[e.ProductID]
			delta := e.SignedQty()

			if e.EntryType == entity.EntryOut && !s.policy.AllowNegative {
				if running+delta < 0 {
					return apperror.NewInsufficientStock(
						e.ProductID.String(),
						e.Qty.Float64(),
						running.Float64(),
					)
				}
			}
			balances[e.ProductID] = running + delta
		}

		if err := s.repo.AppendEntries(ctx, entries); err != nil {
			return fmt.Errorf("append entries: %w", err)
		}

		for _, pid := range order {
			if err := s.repo.SetStock(ctx, pid, balances[pid]); err != nil {
				return fmt.Errorf("update stock cache for %s: %w", pid, err)
			}
		}

		logger.Info(ctx, "recorded stock entries",
			"count", len(entries),
			"ref_id", entries[0].RefID,
			"ref_type", entries[0].RefType,
		)
		return nil
	})
}

// Reverse removes entries of superseded generations for a document and rolls
// their net effect out of the cached balances. Used by document deletion.
// Reversing a net `in` document is itself a reduce, so the floor policy
// applies: deleting a receipt whose goods were already issued fails with
// InsufficientStock.
func (s *Service) Reverse(ctx context.Context, refID id.ID, beforeVersion int) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetEntriesByRef(ctx, refID)
		if err != nil {
			return fmt.Errorf("get entries by ref: %w", err)
		}

		net := make(map[id.ID]types.Quantity)
		order := make([]id.ID, 0)
		for _, e := range existing {
			if e.RefVersion >= beforeVersion {
				continue
			}
			if _, seen := net[e.ProductID]; !seen {
				order = append(order, e.ProductID)
			}
			net[e.ProductID] += e.SignedQty()
		}
		if len(order) == 0 {
			return nil
		}
		sort.Slice(order, func(i, j int) bool {
			return order[i].String() < order[j].String()
		})

		for _, pid := range order {
			stock, err := s.repo.GetStockForUpdate(ctx, pid)
			if err != nil {
				return fmt.Errorf("lock stock for %s: %w", pid, err)
			}
			remaining := stock - net[pid]
			if remaining < 0 && net[pid] > 0 && !s.policy.AllowNegative {
				return apperror.NewInsufficientStock(
					pid.String(),
					net[pid].Float64(),
					stock.Float64(),
				)
			}
			if err := s.repo.SetStock(ctx, pid, remaining); err != nil {
				return fmt.Errorf("update stock cache for %s: %w", pid, err)
			}
		}

		if err := s.repo.DeleteEntriesByRef(ctx, refID, beforeVersion); err != nil {
			return fmt.Errorf("delete entries: %w", err)
		}

		logger.Info(ctx, "reversed stock entries",
			"ref_id", refID,
			"before_version", beforeVersion,
		)
		return nil
	})
}

// Replace atomically swaps a document's superseded ledger generations for
// its replacement entries. Used by reverse-and-replay on document edit.
// The floor policy is checked against each product's final balance after
// both the reversal and the replacement, so shrinking a receipt below the
// quantity already issued — or growing an issue past the available stock —
// fails with InsufficientStock and nothing is mutated.
func (s *Service) Replace(ctx context.Context, refID id.ID, beforeVersion int, entries []entity.StockEntry) error {
	if err := validateEntries(entries); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetEntriesByRef(ctx, refID)
		if err != nil {
			return fmt.Errorf("get entries by ref: %w", err)
		}

		// delta = replacement effect minus superseded effect, per product
		delta := make(map[id.ID]types.Quantity)
		order := make([]id.ID, 0)
		touch := func(pid id.ID, q types.Quantity) {
			if _, seen := delta[pid]; !seen {
				order = append(order, pid)
			}
			delta[pid] += q
		}
		for _, e := range existing {
			if e.RefVersion >= beforeVersion {
				continue
			}
			touch(e.ProductID, -e.SignedQty())
		}
		for _, e := range entries {
			touch(e.ProductID, e.SignedQty())
		}
		sort.Slice(order, func(i, j int) bool {
			return order[i].String() < order[j].String()
		})

		balances := make(map[id.ID]types.Quantity, len(order))
		for _, pid := range order {
			stock, err := s.repo.GetStockForUpdate(ctx, pid)
			if err != nil {
				return fmt.Errorf("lock stock for %s: %w", pid, err)
			}
			final := stock + delta[pid]
			if final < 0 && delta[pid] < 0 && !s.policy.AllowNegative {
				return apperror.NewInsufficientStock(
					pid.String(),
					(-delta[pid]).Float64(),
					stock.Float64(),
				)
			}
			balances[pid] = final
		}

		if err := s.repo.DeleteEntriesByRef(ctx, refID, beforeVersion); err != nil {
			return fmt.Errorf("delete entries: %w", err)
		}
		if err := s.repo.AppendEntries(ctx, entries); err != nil {
			return fmt.Errorf("append entries: %w", err)
		}
		for _, pid := range order {
			if err := s.repo.SetStock(ctx, pid, balances[pid]); err != nil {
				return fmt.Errorf("update stock cache for %s: %w", pid, err)
			}
		}

		logger.Info(ctx, "replaced stock entries",
			"ref_id", refID,
			"before_version", beforeVersion,
			"count", len(entries),
		)
		return nil
	})
}

// BalanceAt replays the product's log up to asOf and returns the balance.
// Total over all timestamps: before any entries the balance is 0.
// Idempotent: the same log always folds to the same result.
func (s *Service) BalanceAt(ctx context.Context, productID id.ID, asOf time.Time) (types.Quantity, error) {
	entries, err := s.repo.GetEntries(ctx, productID, asOf)
	if err != nil {
		return 0, fmt.Errorf("get entries: %w", err)
	}

	var balance types.Quantity
	for _, e := range entries {
		balance += e.SignedQty()
	}
	return balance, nil
}

// VerifyCache replays the full log and compares it against the cached
// Product.stock. Divergence is an invariant violation: it is surfaced as
// InconsistentState for operator investigation, never silently corrected.
func (s *Service) VerifyCache(ctx context.Context, productID id.ID) error {
	replayed, err := s.BalanceAt(ctx, productID, time.Time{})
	if err != nil {
		return err
	}

	cached, err := s.repo.GetStock(ctx, productID)
	if err != nil {
		return fmt.Errorf("get cached stock: %w", err)
	}

	if cached != replayed {
		return apperror.NewInconsistentState("cached stock diverges from ledger replay").
			WithDetail("product_id", productID.String()).
			WithDetail("cached", cached.String()).
			WithDetail("replayed", replayed.String())
	}
	return nil
}

// RecordAdjustment appends a manual stock adjustment. Positive quantities add
// stock (unitCost prices the added lot for valuation), negative quantities
// remove it. Adjustments are the explicit override path past the floor policy.
func (s *Service) RecordAdjustment(ctx context.Context, productID id.ID, qty types.Quantity, unitCost types.Money, period time.Time) error {
	adjID := id.New()
	cost := types.Zero()
	if qty.IsPositive() {
		cost = unitCost
	}
	entry := entity.NewStockEntry(adjID, "Adjustment", 1, productID, entity.EntryAdjust, qty, cost, period)
	return s.Append(ctx, []entity.StockEntry{entry})
}
