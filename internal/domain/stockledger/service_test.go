package stockledger

import (
	"context"
	"sort"
	"testing"
	"time"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
)

// --- Mocks ---

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	entries []entity.StockEntry
	stock   map[id.ID]types.Quantity
}

func newMemRepo() *memRepo {
	return &memRepo{stock: make(map[id.ID]types.Quantity)}
}

func (r *memRepo) AppendEntries(_ context.Context, entries []entity.StockEntry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memRepo) DeleteEntriesByRef(_ context.Context, refID id.ID, beforeVersion int) error {
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.RefID == refID && e.RefVersion < beforeVersion {
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return nil
}

func (r *memRepo) GetEntriesByRef(_ context.Context, refID id.ID) ([]entity.StockEntry, error) {
	var out []entity.StockEntry
	for _, e := range r.entries {
		if e.RefID == refID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepo) GetEntries(_ context.Context, productID id.ID, asOf time.Time) ([]entity.StockEntry, error) {
	var out []entity.StockEntry
	for _, e := range r.entries {
		if e.ProductID != productID {
			continue
		}
		if !asOf.IsZero() && e.Period.After(asOf) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Period.Equal(out[j].Period) {
			return out[i].Period.Before(out[j].Period)
		}
		return out[i].LineID.String() < out[j].LineID.String()
	})
	return out, nil
}

func (r *memRepo) GetStockForUpdate(_ context.Context, productID id.ID) (types.Quantity, error) {
	return r.stock[productID], nil
}

func (r *memRepo) GetStock(_ context.Context, productID id.ID) (types.Quantity, error) {
	return r.stock[productID], nil
}

func (r *memRepo) SetStock(_ context.Context, productID id.ID, stock types.Quantity) error {
	r.stock[productID] = stock
	return nil
}

var _ Repository = (*memRepo)(nil)

// --- Helpers ---

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

func in(product id.ID, q float64, cost string, day int) entity.StockEntry {
	return entity.NewStockEntry(
		id.New(), "Purchase", 1, product, entity.EntryIn,
		qty(q), types.MustMoney(cost), date(day),
	)
}

func out(product id.ID, q float64, day int) entity.StockEntry {
	return entity.NewStockEntry(
		id.New(), "Invoice", 1, product, entity.EntryOut,
		qty(q), types.Zero(), date(day),
	)
}

func date(day int) time.Time {
	return time.Date(2026, 4, day, 0, 0, 0, 0, time.UTC)
}

func newTestService(repo *memRepo) *Service {
	return NewService(repo, nopTxManager{}, Policy{})
}

// --- Tests ---

func TestAppend_FloorRejectsOverdraw(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	product := id.New()

	if err := svc.Append(ctx, []entity.StockEntry{in(product, 10, "50.00", 1)}); err != nil {
		t.Fatalf("append in: %v", err)
	}

	err := svc.Append(ctx, []entity.StockEntry{out(product, 15, 2)})
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("expected InsufficientStock, got %v", err)
	}

	// Nothing mutated: stock still 10, only the receipt in the log.
	if got := repo.stock[product]; got != qty(10) {
		t.Errorf("stock changed on rejected append: %s", got)
	}
	if len(repo.entries) != 1 {
		t.Errorf("entries appended despite rejection: %d", len(repo.entries))
	}
}

func TestAppend_UpdatesCache(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	product := id.New()

	entries := []entity.StockEntry{
		in(product, 10, "50.00", 1),
		out(product, 4, 1),
	}
	if err := svc.Append(ctx, entries); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := repo.stock[product]; got != qty(6) {
		t.Errorf("cached stock = %s, want 6", got)
	}
	if err := svc.VerifyCache(ctx, product); err != nil {
		t.Errorf("cache should match replay: %v", err)
	}
}

func TestAppend_AdjustBypassesFloor(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	product := id.New()

	// Negative adjustment below zero is the explicit override path.
	if err := svc.RecordAdjustment(ctx, product, qty(-3), types.Zero(), date(1)); err != nil {
		t.Fatalf("adjustment should bypass floor: %v", err)
	}
	if got := repo.stock[product]; got != qty(-3) {
		t.Errorf("stock = %s, want -3", got)
	}
}

func TestBalanceAt_ReplayIsTotalAndIdempotent(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	product := id.New()

	// Before any entries the balance is 0 at any timestamp.
	b, err := svc.BalanceAt(ctx, product, date(15))
	if err != nil || b != 0 {
		t.Fatalf("empty log balance = %s, err=%v", b, err)
	}

	_ = svc.Append(ctx, []entity.StockEntry{in(product, 10, "50.00", 1)})
	_ = svc.Append(ctx, []entity.StockEntry{out(product, 3, 5)})
	_ = svc.Append(ctx, []entity.StockEntry{in(product, 5, "60.00", 10)})

	first, err := svc.BalanceAt(ctx, product, time.Time{})
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	second, _ := svc.BalanceAt(ctx, product, time.Time{})
	if first != second {
		t.Errorf("replay not idempotent: %s vs %s", first, second)
	}
	if first != qty(12) {
		t.Errorf("balance = %s, want 12", first)
	}

	// As-of mid-log.
	mid, _ := svc.BalanceAt(ctx, product, date(5))
	if mid != qty(7) {
		t.Errorf("balance at day 5 = %s, want 7", mid)
	}
}

func TestVerifyCache_DetectsDivergence(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	product := id.New()

	_ = svc.Append(ctx, []entity.StockEntry{in(product, 10, "50.00", 1)})

	// Corrupt the cache behind the ledger's back.
	repo.stock[product] = qty(99)

	err := svc.VerifyCache(ctx, product)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeInconsistentState {
		t.Fatalf("expected InconsistentState, got %v", err)
	}
}

func TestReverse_RemovesSupersededGenerations(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	product := id.New()
	docID := id.New()

	_ = svc.Append(ctx, []entity.StockEntry{in(product, 20, "10.00", 1)})

	v1 := entity.NewStockEntry(docID, "Invoice", 1, product, entity.EntryOut, qty(5), types.Zero(), date(2))
	if err := svc.Append(ctx, []entity.StockEntry{v1}); err != nil {
		t.Fatalf("append v1: %v", err)
	}
	if repo.stock[product] != qty(15) {
		t.Fatalf("stock after v1 = %s", repo.stock[product])
	}

	// Edit: reverse generation 1, replay with generation 2 quantity 8.
	if err := svc.Reverse(ctx, docID, 2); err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if repo.stock[product] != qty(20) {
		t.Fatalf("stock after reverse = %s, want 20", repo.stock[product])
	}

	v2 := entity.NewStockEntry(docID, "Invoice", 2, product, entity.EntryOut, qty(8), types.Zero(), date(2))
	if err := svc.Append(ctx, []entity.StockEntry{v2}); err != nil {
		t.Fatalf("append v2: %v", err)
	}
	if repo.stock[product] != qty(12) {
		t.Fatalf("stock after v2 = %s, want 12", repo.stock[product])
	}
	if err := svc.VerifyCache(ctx, product); err != nil {
		t.Errorf("cache diverged after reverse-and-replay: %v", err)
	}
}

func TestReplace_FloorChecksFinalBalance(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	product := id.New()
	receiptID := id.New()

	receipt := entity.NewStockEntry(receiptID, "Purchase", 1, product, entity.EntryIn, qty(10), types.MustMoney("50.00"), date(1))
	if err := svc.Append(ctx, []entity.StockEntry{receipt}); err != nil {
		t.Fatalf("append receipt: %v", err)
	}
	if err := svc.Append(ctx, []entity.StockEntry{out(product, 8, 2)}); err != nil {
		t.Fatalf("append issue: %v", err)
	}

	// Shrinking the receipt below the 8 already issued would leave -6.
	v2 := entity.NewStockEntry(receiptID, "Purchase", 2, product, entity.EntryIn, qty(2), types.MustMoney("50.00"), date(1))
	err := svc.Replace(ctx, receiptID, 2, []entity.StockEntry{v2})
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("expected InsufficientStock, got %v", err)
	}
	if repo.stock[product] != qty(2) {
		t.Errorf("stock changed on rejected replace: %s", repo.stock[product])
	}
	kept, _ := repo.GetEntriesByRef(ctx, receiptID)
	if len(kept) != 1 || kept[0].RefVersion != 1 || kept[0].Qty != qty(10) {
		t.Errorf("superseded generation lost on rejected replace: %+v", kept)
	}

	// Down to exactly the issued quantity is valid: final balance 0.
	v2 = entity.NewStockEntry(receiptID, "Purchase", 2, product, entity.EntryIn, qty(8), types.MustMoney("50.00"), date(1))
	if err := svc.Replace(ctx, receiptID, 2, []entity.StockEntry{v2}); err != nil {
		t.Fatalf("replace to issued quantity: %v", err)
	}
	if repo.stock[product] != 0 {
		t.Errorf("stock after replace = %s, want 0", repo.stock[product])
	}
	kept, _ = repo.GetEntriesByRef(ctx, receiptID)
	if len(kept) != 1 || kept[0].RefVersion != 2 {
		t.Errorf("expected only generation 2 to remain: %+v", kept)
	}
	if err := svc.VerifyCache(ctx, product); err != nil {
		t.Errorf("cache diverged after replace: %v", err)
	}
}

func TestReverse_FloorBlocksReceiptRemoval(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	product := id.New()
	receiptID := id.New()

	receipt := entity.NewStockEntry(receiptID, "Purchase", 1, product, entity.EntryIn, qty(10), types.MustMoney("50.00"), date(1))
	if err := svc.Append(ctx, []entity.StockEntry{receipt}); err != nil {
		t.Fatalf("append receipt: %v", err)
	}
	if err := svc.Append(ctx, []entity.StockEntry{out(product, 8, 2)}); err != nil {
		t.Fatalf("append issue: %v", err)
	}

	err := svc.Reverse(ctx, receiptID, 2)
	if !apperror.IsInsufficientStock(err) {
		t.Fatalf("expected InsufficientStock, got %v", err)
	}
	if repo.stock[product] != qty(2) {
		t.Errorf("stock changed on rejected reverse: %s", repo.stock[product])
	}
	kept, _ := repo.GetEntriesByRef(ctx, receiptID)
	if len(kept) != 1 {
		t.Errorf("receipt entries removed on rejected reverse: %+v", kept)
	}
}

func TestValuate_FIFO_LIFO_Average(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	product := id.New()

	// Lots: 10 @ 50 (day 1), 10 @ 60 (day 10). Consumed: 5 (day 15).
	_ = svc.Append(ctx, []entity.StockEntry{in(product, 10, "50.00", 1)})
	_ = svc.Append(ctx, []entity.StockEntry{in(product, 10, "60.00", 10)})
	_ = svc.Append(ctx, []entity.StockEntry{out(product, 5, 15)})

	tests := []struct {
		method    ValuationMethod
		wantValue string
	}{
		// FIFO consumes the 50s: remaining 5@50 + 10@60 = 850
		{FIFO, "850.00"},
		// LIFO consumes the 60s: remaining 10@50 + 5@60 = 800
		{LIFO, "800.00"},
		// Average cost (10*50+10*60)/20 = 55; 15 * 55 = 825
		{WeightedAverage, "825.00"},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			v, err := svc.Valuate(ctx, product, tt.method, time.Time{})
			if err != nil {
				t.Fatalf("valuate: %v", err)
			}
			if v.Quantity != qty(15) {
				t.Errorf("quantity = %s, want 15", v.Quantity)
			}
			if v.Value.StringFixed(2) != tt.wantValue {
				t.Errorf("value = %s, want %s", v.Value.StringFixed(2), tt.wantValue)
			}
		})
	}
}

func TestValuate_EmptyAndUnknownMethod(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	product := id.New()

	v, err := svc.Valuate(ctx, product, FIFO, time.Time{})
	if err != nil {
		t.Fatalf("valuate empty: %v", err)
	}
	if !v.Value.IsZero() || v.Quantity != 0 {
		t.Errorf("empty valuation should be zero, got %+v", v)
	}

	if _, err := svc.Valuate(ctx, product, ValuationMethod("bogus"), time.Time{}); err == nil {
		t.Error("unknown method must be rejected")
	}
}
