package purchase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain"
	"gstbooks/internal/domain/catalogs/party"
	"gstbooks/internal/domain/catalogs/product"
	"gstbooks/internal/domain/stockledger"
)

type nopTxManager struct{}

func (nopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	docs  map[id.ID]*Purchase
	lines map[id.ID][]Line
}

func newMemRepo() *memRepo {
	return &memRepo{docs: make(map[id.ID]*Purchase), lines: make(map[id.ID][]Line)}
}

func (r *memRepo) Create(ctx context.Context, p *Purchase) error {
	cp := *p
	r.docs[p.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	p, ok := r.docs[purchaseID]
	if !ok {
		return nil, apperror.NewNotFound("purchase", purchaseID)
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	return r.GetByID(ctx, purchaseID)
}

func (r *memRepo) Update(ctx context.Context, p *Purchase) error {
	if _, ok := r.docs[p.ID]; !ok {
		return apperror.NewNotFound("purchase", p.ID)
	}
	cp := *p
	r.docs[p.ID] = &cp
	return nil
}

func (r *memRepo) Delete(ctx context.Context, purchaseID id.ID) error {
	delete(r.docs, purchaseID)
	delete(r.lines, purchaseID)
	return nil
}

func (r *memRepo) GetLines(ctx context.Context, purchaseID id.ID) ([]Line, error) {
	return r.lines[purchaseID], nil
}

func (r *memRepo) SaveLines(ctx context.Context, purchaseID id.ID, lines []Line) error {
	r.lines[purchaseID] = append([]Line(nil), lines...)
	return nil
}

func (r *memRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	for _, p := range r.docs {
		if p.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Purchase], error) {
	out := make([]*Purchase, 0, len(r.docs))
	for _, p := range r.docs {
		cp := *p
		out = append(out, &cp)
	}
	return domain.ListResult[*Purchase]{Items: out, TotalCount: int64(len(out))}, nil
}

type memProductRepo struct {
	products map[id.ID]*product.Product
}

func (r *memProductRepo) Create(ctx context.Context, p *product.Product) error { return nil }

func (r *memProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (r *memProductRepo) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	out := make(map[id.ID]*product.Product)
	for _, pid := range ids {
		if p, ok := r.products[pid]; ok {
			out[pid] = p
		}
	}
	return out, nil
}

func (r *memProductRepo) Update(ctx context.Context, p *product.Product) error { return nil }
func (r *memProductRepo) Delete(ctx context.Context, productID id.ID) error    { return nil }

func (r *memProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

type memPartyRepo struct {
	parties map[id.ID]*party.Party
}

func (r *memPartyRepo) Create(ctx context.Context, p *party.Party) error { return nil }

func (r *memPartyRepo) GetByID(ctx context.Context, partyID id.ID) (*party.Party, error) {
	p, ok := r.parties[partyID]
	if !ok {
		return nil, apperror.NewNotFound("party", partyID)
	}
	return p, nil
}

func (r *memPartyRepo) Update(ctx context.Context, p *party.Party) error { return nil }
func (r *memPartyRepo) Delete(ctx context.Context, partyID id.ID) error  { return nil }

func (r *memPartyRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*party.Party], error) {
	return domain.ListResult[*party.Party]{}, nil
}

type memLedgerRepo struct {
	entries []entity.StockEntry
	stock   map[id.ID]types.Quantity
}

func (r *memLedgerRepo) AppendEntries(ctx context.Context, entries []entity.StockEntry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memLedgerRepo) DeleteEntriesByRef(ctx context.Context, refID id.ID, beforeVersion int) error {
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

func (r *memLedgerRepo) GetEntriesByRef(ctx context.Context, refID id.ID) ([]entity.StockEntry, error) {
	var out []entity.StockEntry
	for _, e := range r.entries {
		if e.RefID == refID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) GetEntries(ctx context.Context, productID id.ID, asOf time.Time) ([]entity.StockEntry, error) {
	var out []entity.StockEntry
	for _, e := range r.entries {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return r.stock[productID], nil
}

func (r *memLedgerRepo) GetStock(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return r.stock[productID], nil
}

func (r *memLedgerRepo) SetStock(ctx context.Context, productID id.ID, stock types.Quantity) error {
	r.stock[productID] = stock
	return nil
}

type seqNumbers struct {
	n int
}

func (g *seqNumbers) Next(ctx context.Context, prefix string, at time.Time) (string, error) {
	g.n++
	return fmt.Sprintf("%s-%d-%05d", prefix, at.Year(), g.n), nil
}

func setup(t *testing.T) (*Service, *memLedgerRepo, *party.Party, *product.Product) {
	t.Helper()

	vendor := party.NewParty("Patel Steel Traders", party.KindVendor)
	vendor.StateCode = "27"

	pipe := product.NewProduct("Steel Pipe")
	pipe.GSTRate = types.NewPercent(18)
	pipe.PurchasePrice = types.MustMoney("250.00")

	ledger := &memLedgerRepo{stock: map[id.ID]types.Quantity{}}
	products := &memProductRepo{products: map[id.ID]*product.Product{pipe.ID: pipe}}
	parties := &memPartyRepo{parties: map[id.ID]*party.Party{vendor.ID: vendor}}

	ledgerService := stockledger.NewService(ledger, nopTxManager{}, stockledger.Policy{})
	svc := NewService(newMemRepo(), products, parties, ledgerService, &seqNumbers{}, nopTxManager{})
	return svc, ledger, vendor, pipe
}

func TestCreate_ReceivesStockAtCost(t *testing.T) {
	svc, ledger, vendor, pipe := setup(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{
		VendorID:     vendor.ID,
		VendorBillNo: "PST/1042",
		Date:         time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		IntraState:   true,
		Lines: []LineSpec{{
			ProductID: pipe.ID,
			Quantity:  types.NewQuantityFromFloat64(100),
			UnitRate:  types.MustMoney("250.00"),
		}},
	})
	require.NoError(t, err)

	require.Equal(t, "PUR-2026-00001", p.Number)
	require.True(t, p.Totals.TaxableValue.Equal(types.MustMoney("25000.00")))
	require.True(t, p.Totals.GrandTotal.Equal(types.MustMoney("29500.00")), "grand %s", p.Totals.GrandTotal)

	entries, err := ledger.GetEntriesByRef(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entity.EntryIn, entries[0].EntryType)
	require.True(t, entries[0].UnitCost.Equal(types.MustMoney("250.00")), "cost %s", entries[0].UnitCost)
	require.Equal(t, types.NewQuantityFromFloat64(100), ledger.stock[pipe.ID])
}

func TestUpdate_ReplaysReceipt(t *testing.T) {
	svc, ledger, vendor, pipe := setup(t)
	ctx := context.Background()

	in := CreateInput{
		VendorID:   vendor.ID,
		Date:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		IntraState: true,
		Lines: []LineSpec{{
			ProductID: pipe.ID,
			Quantity:  types.NewQuantityFromFloat64(100),
			UnitRate:  types.MustMoney("250.00"),
		}},
	}
	p, err := svc.Create(ctx, in)
	require.NoError(t, err)

	in.Lines[0].Quantity = types.NewQuantityFromFloat64(60)
	updated, err := svc.Update(ctx, p.ID, in)
	require.NoError(t, err)

	require.Equal(t, 2, updated.LedgerVersion)
	require.Equal(t, types.NewQuantityFromFloat64(60), ledger.stock[pipe.ID])
}

func TestUpdate_ReceiptBelowIssuedRejected(t *testing.T) {
	svc, ledger, vendor, pipe := setup(t)
	ctx := context.Background()

	in := CreateInput{
		VendorID:   vendor.ID,
		Date:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		IntraState: true,
		Lines: []LineSpec{{
			ProductID: pipe.ID,
			Quantity:  types.NewQuantityFromFloat64(10),
			UnitRate:  types.MustMoney("250.00"),
		}},
	}
	p, err := svc.Create(ctx, in)
	require.NoError(t, err)

	// 8 of the 10 received have since been issued on an invoice.
	ledgerService := stockledger.NewService(ledger, nopTxManager{}, stockledger.Policy{})
	issue := entity.NewStockEntry(id.New(), "Invoice", 1, pipe.ID, entity.EntryOut,
		types.NewQuantityFromFloat64(8), types.Zero(), in.Date)
	require.NoError(t, ledgerService.Append(ctx, []entity.StockEntry{issue}))

	// Shrinking the receipt to 2 would leave the balance at -6.
	in.Lines[0].Quantity = types.NewQuantityFromFloat64(2)
	_, err = svc.Update(ctx, p.ID, in)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	require.Equal(t, types.NewQuantityFromFloat64(2), ledger.stock[pipe.ID])

	stored, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.LedgerVersion)

	// Down to exactly the issued quantity passes: final balance 0.
	in.Lines[0].Quantity = types.NewQuantityFromFloat64(8)
	_, err = svc.Update(ctx, p.ID, in)
	require.NoError(t, err)
	require.Equal(t, types.Quantity(0), ledger.stock[pipe.ID])
}

func TestDelete_IssuedStockRejected(t *testing.T) {
	svc, ledger, vendor, pipe := setup(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{
		VendorID:   vendor.ID,
		Date:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		IntraState: true,
		Lines: []LineSpec{{
			ProductID: pipe.ID,
			Quantity:  types.NewQuantityFromFloat64(10),
			UnitRate:  types.MustMoney("250.00"),
		}},
	})
	require.NoError(t, err)

	ledgerService := stockledger.NewService(ledger, nopTxManager{}, stockledger.Policy{})
	issue := entity.NewStockEntry(id.New(), "Invoice", 1, pipe.ID, entity.EntryOut,
		types.NewQuantityFromFloat64(8), types.Zero(), p.Date)
	require.NoError(t, ledgerService.Append(ctx, []entity.StockEntry{issue}))

	err = svc.Delete(ctx, p.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	require.Equal(t, types.NewQuantityFromFloat64(2), ledger.stock[pipe.ID])
	_, err = svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
}

func TestDelete_ReversesReceipt(t *testing.T) {
	svc, ledger, vendor, pipe := setup(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{
		VendorID:   vendor.ID,
		Date:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		IntraState: true,
		Lines: []LineSpec{{
			ProductID: pipe.ID,
			Quantity:  types.NewQuantityFromFloat64(100),
			UnitRate:  types.MustMoney("250.00"),
		}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, p.ID))
	require.Equal(t, types.Quantity(0), ledger.stock[pipe.ID])
}
