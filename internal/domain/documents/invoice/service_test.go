package invoice

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

// --- in-memory repositories ---

type memRepo struct {
	docs  map[id.ID]*Invoice
	lines map[id.ID][]Line
}

func newMemRepo() *memRepo {
	return &memRepo{docs: make(map[id.ID]*Invoice), lines: make(map[id.ID][]Line)}
}

func (r *memRepo) Create(ctx context.Context, inv *Invoice) error {
	cp := *inv
	r.docs[inv.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, ok := r.docs[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	cp := *inv
	return &cp, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return r.GetByID(ctx, invoiceID)
}

func (r *memRepo) Update(ctx context.Context, inv *Invoice) error {
	if _, ok := r.docs[inv.ID]; !ok {
		return apperror.NewNotFound("invoice", inv.ID)
	}
	cp := *inv
	r.docs[inv.ID] = &cp
	return nil
}

func (r *memRepo) Delete(ctx context.Context, invoiceID id.ID) error {
	delete(r.docs, invoiceID)
	delete(r.lines, invoiceID)
	return nil
}

func (r *memRepo) GetLines(ctx context.Context, invoiceID id.ID) ([]Line, error) {
	return r.lines[invoiceID], nil
}

func (r *memRepo) SaveLines(ctx context.Context, invoiceID id.ID, lines []Line) error {
	r.lines[invoiceID] = append([]Line(nil), lines...)
	return nil
}

func (r *memRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	for _, inv := range r.docs {
		if inv.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Invoice], error) {
	out := make([]*Invoice, 0, len(r.docs))
	for _, inv := range r.docs {
		cp := *inv
		out = append(out, &cp)
	}
	return domain.ListResult[*Invoice]{Items: out, TotalCount: int64(len(out))}, nil
}

type memProductRepo struct {
	products map[id.ID]*product.Product
}

func (r *memProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

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
		if e.ProductID != productID {
			continue
		}
		if !asOf.IsZero() && e.Period.After(asOf) {
			continue
		}
		out = append(out, e)
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

// --- fixtures ---

type fixture struct {
	svc      *Service
	repo     *memRepo
	ledger   *memLedgerRepo
	customer *party.Party
	pipe     *product.Product
	wire     *product.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	customer := party.NewParty("Sharma Constructions", party.KindCustomer)
	customer.StateCode = "27"

	pipe := product.NewProduct("Steel Pipe")
	pipe.GSTRate = types.NewPercent(18)
	pipe.SalesPrice = types.MustMoney("100.00")

	wire := product.NewProduct("Copper Wire")
	wire.GSTRate = types.NewPercent(12)
	wire.SalesPrice = types.MustMoney("58.00")

	repo := newMemRepo()
	ledger := &memLedgerRepo{stock: map[id.ID]types.Quantity{
		pipe.ID: types.NewQuantityFromFloat64(100),
		wire.ID: types.NewQuantityFromFloat64(100),
	}}
	products := &memProductRepo{products: map[id.ID]*product.Product{pipe.ID: pipe, wire.ID: wire}}
	parties := &memPartyRepo{parties: map[id.ID]*party.Party{customer.ID: customer}}

	ledgerService := stockledger.NewService(ledger, nopTxManager{}, stockledger.Policy{})
	svc := NewService(repo, products, parties, ledgerService, &seqNumbers{}, nopTxManager{})

	return &fixture{
		svc:      svc,
		repo:     repo,
		ledger:   ledger,
		customer: customer,
		pipe:     pipe,
		wire:     wire,
	}
}

func (f *fixture) input(lines ...LineSpec) CreateInput {
	return CreateInput{
		CustomerID:    f.customer.ID,
		Date:          time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		PlaceOfSupply: "27",
		IntraState:    true,
		Lines:         lines,
	}
}

// --- tests ---

func TestCreate_ComputesTotalsAndIssuesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.input(LineSpec{
		ProductID: f.pipe.ID,
		Quantity:  types.NewQuantityFromFloat64(10),
		UnitRate:  types.MustMoney("100.00"),
	}))
	require.NoError(t, err)

	require.Equal(t, "INV-2026-00001", inv.Number)
	require.True(t, inv.Totals.TaxableValue.Equal(types.MustMoney("1000.00")), "taxable %s", inv.Totals.TaxableValue)
	require.True(t, inv.Totals.CGST.Equal(types.MustMoney("90.00")), "cgst %s", inv.Totals.CGST)
	require.True(t, inv.Totals.SGST.Equal(types.MustMoney("90.00")), "sgst %s", inv.Totals.SGST)
	require.True(t, inv.Totals.IGST.IsZero())
	require.True(t, inv.Totals.GrandTotal.Equal(types.MustMoney("1180.00")), "grand %s", inv.Totals.GrandTotal)
	require.True(t, inv.BalanceAmount.Equal(inv.Totals.GrandTotal))
	require.Equal(t, entity.StatusDraft, inv.Status)

	// Stock issued and cache updated in the same unit of work.
	entries, err := f.ledger.GetEntriesByRef(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entity.EntryOut, entries[0].EntryType)
	require.Equal(t, types.NewQuantityFromFloat64(10), entries[0].Qty)
	require.Equal(t, types.NewQuantityFromFloat64(90), f.ledger.stock[f.pipe.ID])
}

func TestCreate_InterStateUsesIGST(t *testing.T) {
	f := newFixture(t)

	in := f.input(LineSpec{
		ProductID: f.pipe.ID,
		Quantity:  types.NewQuantityFromFloat64(10),
		UnitRate:  types.MustMoney("100.00"),
	})
	in.IntraState = false

	inv, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)

	require.True(t, inv.Totals.CGST.IsZero())
	require.True(t, inv.Totals.SGST.IsZero())
	require.True(t, inv.Totals.IGST.Equal(types.MustMoney("180.00")), "igst %s", inv.Totals.IGST)
}

func TestCreate_UnitRateDefaultsToSalesPrice(t *testing.T) {
	f := newFixture(t)

	inv, err := f.svc.Create(context.Background(), f.input(LineSpec{
		ProductID: f.wire.ID,
		Quantity:  types.NewQuantityFromFloat64(5),
	}))
	require.NoError(t, err)

	require.Len(t, inv.Lines, 1)
	require.True(t, inv.Lines[0].UnitRate.Equal(types.MustMoney("58.00")))
	require.True(t, inv.Totals.TaxableValue.Equal(types.MustMoney("290.00")))
}

func TestCreate_GSTDisabledCustomer(t *testing.T) {
	f := newFixture(t)
	f.customer.GSTEnabled = false

	inv, err := f.svc.Create(context.Background(), f.input(LineSpec{
		ProductID: f.pipe.ID,
		Quantity:  types.NewQuantityFromFloat64(10),
		UnitRate:  types.MustMoney("100.00"),
	}))
	require.NoError(t, err)

	require.True(t, inv.Totals.CGST.IsZero())
	require.True(t, inv.Totals.SGST.IsZero())
	require.True(t, inv.Totals.IGST.IsZero())
	require.True(t, inv.Totals.GrandTotal.Equal(types.MustMoney("1000.00")))
}

func TestCreate_InsufficientStockRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.input(LineSpec{
		ProductID: f.pipe.ID,
		Quantity:  types.NewQuantityFromFloat64(150),
		UnitRate:  types.MustMoney("100.00"),
	}))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	// Floor rejection never touches the cache.
	require.Equal(t, types.NewQuantityFromFloat64(100), f.ledger.stock[f.pipe.ID])
}

func TestCreate_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.input(LineSpec{
		ProductID: id.New(),
		Quantity:  types.NewQuantityFromFloat64(1),
	}))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeNotFound, appErr.Code)
}

func TestUpdate_ReversesAndReplaysStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.input(LineSpec{
		ProductID: f.pipe.ID,
		Quantity:  types.NewQuantityFromFloat64(10),
		UnitRate:  types.MustMoney("100.00"),
	}))
	require.NoError(t, err)
	require.Equal(t, 1, inv.LedgerVersion)

	updated, err := f.svc.Update(ctx, inv.ID, f.input(LineSpec{
		ProductID: f.pipe.ID,
		Quantity:  types.NewQuantityFromFloat64(4),
		UnitRate:  types.MustMoney("100.00"),
	}))
	require.NoError(t, err)
	require.Equal(t, 2, updated.LedgerVersion)

	// Only the new generation survives, and the cache nets to the new qty.
	entries, err := f.ledger.GetEntriesByRef(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 2, entries[0].RefVersion)
	require.Equal(t, types.NewQuantityFromFloat64(96), f.ledger.stock[f.pipe.ID])

	require.True(t, updated.Totals.GrandTotal.Equal(types.MustMoney("472.00")), "grand %s", updated.Totals.GrandTotal)
}

func TestUpdate_BelowPaidAmountRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.input(LineSpec{
		ProductID: f.pipe.ID,
		Quantity:  types.NewQuantityFromFloat64(10),
		UnitRate:  types.MustMoney("100.00"),
	}))
	require.NoError(t, err)

	// Simulate a recorded payment.
	stored := f.repo.docs[inv.ID]
	stored.PaidAmount = types.MustMoney("800.00")

	_, err = f.svc.Update(ctx, inv.ID, f.input(LineSpec{
		ProductID: f.pipe.ID,
		Quantity:  types.NewQuantityFromFloat64(1),
		UnitRate:  types.MustMoney("100.00"),
	}))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestDelete_ReversesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.input(LineSpec{
		ProductID: f.pipe.ID,
		Quantity:  types.NewQuantityFromFloat64(10),
		UnitRate:  types.MustMoney("100.00"),
	}))
	require.NoError(t, err)
	require.Equal(t, types.NewQuantityFromFloat64(90), f.ledger.stock[f.pipe.ID])

	require.NoError(t, f.svc.Delete(ctx, inv.ID))

	_, err = f.svc.GetByID(ctx, inv.ID)
	require.Error(t, err)
	require.Equal(t, types.NewQuantityFromFloat64(100), f.ledger.stock[f.pipe.ID])

	entries, err := f.ledger.GetEntriesByRef(ctx, inv.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestDelete_PaidInvoiceRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, f.input(LineSpec{
		ProductID: f.pipe.ID,
		Quantity:  types.NewQuantityFromFloat64(10),
		UnitRate:  types.MustMoney("100.00"),
	}))
	require.NoError(t, err)

	f.repo.docs[inv.ID].PaidAmount = types.MustMoney("100.00")

	err = f.svc.Delete(ctx, inv.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestCreate_DuplicateNumberRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	line := LineSpec{
		ProductID: f.pipe.ID,
		Quantity:  types.NewQuantityFromFloat64(1),
		UnitRate:  types.MustMoney("100.00"),
	}

	first, err := f.svc.Create(ctx, f.input(line))
	require.NoError(t, err)

	// Force the generator to hand out the taken number again.
	f.svc.numbers = &seqNumbers{n: 0}

	_, err = f.svc.Create(ctx, f.input(line))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeDuplicate, appErr.Code)
	require.Equal(t, "INV-2026-00001", first.Number)
}
