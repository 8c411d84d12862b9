package cashflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gstbooks/internal/core/entity"
	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/payments"
)

type memPaymentRepo struct {
	payments  []*payments.Payment
	purchPays []*payments.PurchasePayment
	expenses  []*payments.Expense
}

func inRange(date time.Time, f payments.Filter) bool {
	if f.FromDate != nil && date.Before(*f.FromDate) {
		return false
	}
	if f.ToDate != nil && !date.Before(*f.ToDate) {
		return false
	}
	return true
}

func (r *memPaymentRepo) CreatePayment(_ context.Context, p *payments.Payment) error {
	r.payments = append(r.payments, p)
	return nil
}

func (r *memPaymentRepo) GetPayment(_ context.Context, _ id.ID) (*payments.Payment, error) {
	return nil, nil
}

func (r *memPaymentRepo) DeletePayment(_ context.Context, _ id.ID) error { return nil }

func (r *memPaymentRepo) ListPayments(_ context.Context, f payments.Filter) ([]*payments.Payment, error) {
	var out []*payments.Payment
	for _, p := range r.payments {
		if !inRange(p.Date, f) {
			continue
		}
		if f.Method != nil && p.Method != *f.Method {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memPaymentRepo) CreatePurchasePayment(_ context.Context, p *payments.PurchasePayment) error {
	r.purchPays = append(r.purchPays, p)
	return nil
}

func (r *memPaymentRepo) GetPurchasePayment(_ context.Context, _ id.ID) (*payments.PurchasePayment, error) {
	return nil, nil
}

func (r *memPaymentRepo) DeletePurchasePayment(_ context.Context, _ id.ID) error { return nil }

func (r *memPaymentRepo) ListPurchasePayments(_ context.Context, f payments.Filter) ([]*payments.PurchasePayment, error) {
	var out []*payments.PurchasePayment
	for _, p := range r.purchPays {
		if !inRange(p.Date, f) {
			continue
		}
		if f.Method != nil && p.Method != *f.Method {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memPaymentRepo) CreateExpense(_ context.Context, e *payments.Expense) error {
	r.expenses = append(r.expenses, e)
	return nil
}

func (r *memPaymentRepo) GetExpense(_ context.Context, _ id.ID) (*payments.Expense, error) {
	return nil, nil
}

func (r *memPaymentRepo) DeleteExpense(_ context.Context, _ id.ID) error { return nil }

func (r *memPaymentRepo) ListExpenses(_ context.Context, f payments.Filter) ([]*payments.Expense, error) {
	var out []*payments.Expense
	for _, e := range r.expenses {
		if !inRange(e.Date, f) {
			continue
		}
		if f.Method != nil && e.Method != *f.Method {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type memPendingSource struct {
	receivables []PendingPayment
	payables    []PendingPayment
}

func (s *memPendingSource) OutstandingReceivables(_ context.Context) ([]PendingPayment, error) {
	return s.receivables, nil
}

func (s *memPendingSource) OutstandingPayables(_ context.Context) ([]PendingPayment, error) {
	return s.payables, nil
}

// snapshotSpy counts top-level read-only spans so tests can assert a
// multi-source read happened inside a single snapshot.
type snapshotSpy struct {
	spans int
	depth int
}

func (s *snapshotSpy) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *snapshotSpy) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.depth == 0 {
		s.spans++
	}
	s.depth++
	defer func() { s.depth-- }()
	return fn(ctx)
}

func day(d int) time.Time {
	return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC)
}

func seedRepo() *memPaymentRepo {
	repo := &memPaymentRepo{}
	ctx := context.Background()

	// inflows: 300 on the 5th, 880 on the 10th
	_ = repo.CreatePayment(ctx, &payments.Payment{
		BaseDocument: entity.NewBaseDocument(),
		InvoiceID:    id.New(),
		Amount:       types.MustMoney("300.00"),
		Method:       payments.MethodUPI,
		Date:         day(5),
	})
	_ = repo.CreatePayment(ctx, &payments.Payment{
		BaseDocument: entity.NewBaseDocument(),
		InvoiceID:    id.New(),
		Amount:       types.MustMoney("880.00"),
		Method:       payments.MethodBank,
		Date:         day(10),
	})

	// outflows: vendor payment 500 on the 7th, expense 150 on the 10th
	_ = repo.CreatePurchasePayment(ctx, &payments.PurchasePayment{
		BaseDocument: entity.NewBaseDocument(),
		PurchaseID:   id.New(),
		Amount:       types.MustMoney("500.00"),
		Method:       payments.MethodBank,
		Date:         day(7),
	})
	_ = repo.CreateExpense(ctx, &payments.Expense{
		BaseDocument: entity.NewBaseDocument(),
		Amount:       types.MustMoney("150.00"),
		Method:       payments.MethodCash,
		Date:         day(10),
		Category:     payments.CategoryTransport,
	})
	return repo
}

func TestListTransactions_MergedAndOrdered(t *testing.T) {
	svc := NewService(seedRepo(), &memPendingSource{}, &snapshotSpy{})
	ctx := context.Background()

	page, err := svc.ListTransactions(ctx, ListInput{})
	require.NoError(t, err)
	require.Len(t, page.Items, 4)
	require.EqualValues(t, 4, page.TotalCount)

	// date descending
	for i := 1; i < len(page.Items); i++ {
		require.False(t, page.Items[i].Date.After(page.Items[i-1].Date))
	}

	// union covers all three sources with correct directions
	bySource := map[Source]Direction{}
	for _, txn := range page.Items {
		bySource[txn.Source] = txn.Direction
	}
	require.Equal(t, DirectionInflow, bySource[SourcePayment])
	require.Equal(t, DirectionOutflow, bySource[SourcePurchasePayment])
	require.Equal(t, DirectionOutflow, bySource[SourceExpense])

	// synthetic ids carry the source prefix
	for _, txn := range page.Items {
		require.Contains(t, txn.ID, string(txn.Source)+"_")
	}
}

func TestListTransactions_Pagination(t *testing.T) {
	svc := NewService(seedRepo(), &memPendingSource{}, &snapshotSpy{})
	ctx := context.Background()

	page1, err := svc.ListTransactions(ctx, ListInput{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page1.Items, 3)
	require.EqualValues(t, 4, page1.TotalCount)

	page2, err := svc.ListTransactions(ctx, ListInput{Limit: 3, Offset: 3})
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)

	// beyond the end: empty page, not an error
	page3, err := svc.ListTransactions(ctx, ListInput{Limit: 3, Offset: 10})
	require.NoError(t, err)
	require.Empty(t, page3.Items)
	require.EqualValues(t, 4, page3.TotalCount)
}

func TestListTransactions_MethodFilter(t *testing.T) {
	svc := NewService(seedRepo(), &memPendingSource{}, &snapshotSpy{})
	ctx := context.Background()

	bank := payments.MethodBank
	page, err := svc.ListTransactions(ctx, ListInput{Method: &bank})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	for _, txn := range page.Items {
		require.Equal(t, payments.MethodBank, txn.Method)
	}
}

func TestSummarize_CrossChecksList(t *testing.T) {
	svc := NewService(seedRepo(), &memPendingSource{}, &snapshotSpy{})
	ctx := context.Background()

	from := day(1)
	to := day(30)
	sum, err := svc.Summarize(ctx, &from, &to)
	require.NoError(t, err)

	require.True(t, sum.TotalIncome.Equal(types.MustMoney("1180.00")))
	require.True(t, sum.TotalOutflow.Equal(types.MustMoney("650.00")))
	require.True(t, sum.Net.Equal(types.MustMoney("530.00")))

	// summarize must reconcile with the listed inflows for the same range
	page, err := svc.ListTransactions(ctx, ListInput{FromDate: &from, ToDate: &to, Limit: 100})
	require.NoError(t, err)
	inflows := types.Zero()
	for _, txn := range page.Items {
		if txn.Direction == DirectionInflow {
			inflows = inflows.Add(txn.Amount)
		}
	}
	require.True(t, sum.TotalIncome.Equal(inflows))
}

func TestSummarize_EmptyRangeIsZero(t *testing.T) {
	svc := NewService(seedRepo(), &memPendingSource{}, &snapshotSpy{})
	ctx := context.Background()

	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)
	sum, err := svc.Summarize(ctx, &from, &to)
	require.NoError(t, err)
	require.True(t, sum.TotalIncome.IsZero())
	require.True(t, sum.TotalOutflow.IsZero())
	require.True(t, sum.Net.IsZero())
}

func TestSummarize_RangeBoundaries(t *testing.T) {
	svc := NewService(seedRepo(), &memPendingSource{}, &snapshotSpy{})
	ctx := context.Background()

	// half-open range: the 10th excluded
	from := day(1)
	to := day(10)
	sum, err := svc.Summarize(ctx, &from, &to)
	require.NoError(t, err)
	require.True(t, sum.TotalIncome.Equal(types.MustMoney("300.00")))
	require.True(t, sum.TotalOutflow.Equal(types.MustMoney("500.00")))
	require.True(t, sum.Net.Equal(types.MustMoney("-200.00")))
}

func TestSummarize_SingleReadOnlySpan(t *testing.T) {
	spy := &snapshotSpy{}
	svc := NewService(seedRepo(), &memPendingSource{}, spy)
	ctx := context.Background()

	from := day(1)
	to := day(30)
	_, err := svc.Summarize(ctx, &from, &to)
	require.NoError(t, err)
	require.Equal(t, 1, spy.spans, "all three sources must be read in one snapshot")

	_, err = svc.ListTransactions(ctx, ListInput{})
	require.NoError(t, err)
	require.Equal(t, 2, spy.spans)

	_, err = svc.PendingPayments(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, spy.spans)
}

func TestPendingPayments_DerivesOverdue(t *testing.T) {
	past := time.Now().UTC().Add(-48 * time.Hour)
	future := time.Now().UTC().Add(48 * time.Hour)
	pending := &memPendingSource{
		receivables: []PendingPayment{
			{DocumentNo: "INV-2026-00001", Status: entity.StatusSent, DueDate: past, PendingAmount: types.MustMoney("880.00")},
			{DocumentNo: "INV-2026-00002", Status: entity.StatusPartiallyPaid, DueDate: future, PendingAmount: types.MustMoney("120.00")},
		},
		payables: []PendingPayment{
			{DocumentNo: "PUR-2026-00003", Status: entity.StatusSent, DueDate: past, PendingAmount: types.MustMoney("2360.00")},
		},
	}
	svc := NewService(&memPaymentRepo{}, pending, &snapshotSpy{})

	got, err := svc.PendingPayments(context.Background())
	require.NoError(t, err)
	require.Equal(t, entity.StatusOverdue, got.Receivables[0].Status)
	require.Equal(t, entity.StatusPartiallyPaid, got.Receivables[1].Status)
	require.Equal(t, entity.StatusOverdue, got.Payables[0].Status)
}

func TestPendingPayments(t *testing.T) {
	pending := &memPendingSource{
		receivables: []PendingPayment{
			{DocumentNo: "INV-2026-00001", PartyName: "Acme Traders", PendingAmount: types.MustMoney("880.00")},
			{DocumentNo: "INV-2026-00002", PartyName: "Bright Mart", PendingAmount: types.MustMoney("120.00")},
		},
		payables: []PendingPayment{
			{DocumentNo: "PUR-2026-00003", PartyName: "Chawla Supplies", PendingAmount: types.MustMoney("2360.00")},
		},
	}
	svc := NewService(&memPaymentRepo{}, pending, &snapshotSpy{})

	got, err := svc.PendingPayments(context.Background())
	require.NoError(t, err)
	require.True(t, got.TotalReceivable.Equal(types.MustMoney("1000.00")))
	require.True(t, got.TotalPayable.Equal(types.MustMoney("2360.00")))
	require.True(t, got.TotalPending.Equal(types.MustMoney("3360.00")))
	require.Len(t, got.Receivables, 2)
	require.Len(t, got.Payables, 1)
}
