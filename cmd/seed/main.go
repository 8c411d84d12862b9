// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"gstbooks/internal/core/id"
	"gstbooks/internal/core/types"
	"gstbooks/internal/domain/catalogs/party"
	"gstbooks/internal/domain/catalogs/product"
	"gstbooks/internal/domain/documents"
	"gstbooks/internal/domain/documents/invoice"
	"gstbooks/internal/domain/documents/purchase"
	"gstbooks/internal/domain/payments"
	"gstbooks/internal/domain/stockledger"
	"gstbooks/internal/infrastructure/storage/postgres"
	"gstbooks/internal/infrastructure/storage/postgres/catalog_repo"
	"gstbooks/internal/infrastructure/storage/postgres/document_repo"
	"gstbooks/internal/infrastructure/storage/postgres/ledger_repo"
	"gstbooks/internal/infrastructure/storage/postgres/payment_repo"
	"gstbooks/pkg/logger"
	"gstbooks/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	productRepo := catalog_repo.NewProductRepo(txManager)
	partyRepo := catalog_repo.NewPartyRepo(txManager)
	invoiceRepo := document_repo.NewInvoiceRepo(txManager)
	purchaseRepo := document_repo.NewPurchaseRepo(txManager)
	paymentRepo := payment_repo.NewPaymentRepo(txManager)
	stockRepo := ledger_repo.NewStockRepo(txManager)

	numbers := numerator.New(txManager)
	ledgerService := stockledger.NewService(stockRepo, txManager, stockledger.Policy{})
	invoiceService := invoice.NewService(invoiceRepo, productRepo, partyRepo, ledgerService, numbers, txManager)
	purchaseService := purchase.NewService(purchaseRepo, productRepo, partyRepo, ledgerService, numbers, txManager)
	paymentService := payments.NewService(paymentRepo, invoiceRepo, purchaseRepo, txManager)

	seeded, err := alreadySeeded(ctx, pool)
	if err != nil {
		log.Fatalw("failed to check existing data", "error", err)
	}
	if seeded {
		log.Info("database already contains data, nothing to do")
		return
	}

	products, err := seedProducts(ctx, productRepo)
	if err != nil {
		log.Fatalw("failed to seed products", "error", err)
	}
	log.Infow("products seeded", "count", len(products))

	customer, vendor, err := seedParties(ctx, partyRepo)
	if err != nil {
		log.Fatalw("failed to seed parties", "error", err)
	}
	log.Info("parties seeded")

	if err := seedDocuments(ctx, purchaseService, invoiceService, paymentService, products, customer, vendor); err != nil {
		log.Fatalw("failed to seed documents", "error", err)
	}

	log.Info("seeding completed successfully")
}

// alreadySeeded reports whether any products exist.
func alreadySeeded(ctx context.Context, pool *postgres.Pool) (bool, error) {
	var productID id.ID
	err := pool.QueryRow(ctx, `SELECT id FROM cat_products LIMIT 1`).Scan(&productID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

func seedProducts(ctx context.Context, repo *catalog_repo.ProductRepo) ([]*product.Product, error) {
	specs := []struct {
		name, hsn, unit           string
		gstRate                   float64
		purchasePrice, salesPrice string
	}{
		{"Steel Pipe 25mm", "7306", "pcs", 18, "250.00", "340.00"},
		{"Copper Wire 2.5sqmm", "7408", "m", 18, "42.50", "58.00"},
		{"PVC Conduit 20mm", "3917", "pcs", 12, "65.00", "92.00"},
		{"Cement 50kg", "2523", "bag", 28, "380.00", "455.00"},
	}

	out := make([]*product.Product, 0, len(specs))
	for _, spec := range specs {
		p := product.NewProduct(spec.name)
		p.HSN = spec.hsn
		p.Unit = spec.unit
		p.GSTRate = types.NewPercent(spec.gstRate)
		p.PurchasePrice = types.MustMoney(spec.purchasePrice)
		p.SalesPrice = types.MustMoney(spec.salesPrice)

		if err := repo.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("create product %q: %w", spec.name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func seedParties(ctx context.Context, repo *catalog_repo.PartyRepo) (*party.Party, *party.Party, error) {
	customer := party.NewParty("Sharma Constructions", party.KindCustomer)
	customer.GSTIN = "27AABCS1234A1Z5"
	customer.StateCode = "27"
	if err := repo.Create(ctx, customer); err != nil {
		return nil, nil, fmt.Errorf("create customer: %w", err)
	}

	vendor := party.NewParty("Patel Steel Traders", party.KindVendor)
	vendor.GSTIN = "27AACPT5678B1Z3"
	vendor.StateCode = "27"
	if err := repo.Create(ctx, vendor); err != nil {
		return nil, nil, fmt.Errorf("create vendor: %w", err)
	}

	return customer, vendor, nil
}

func seedDocuments(
	ctx context.Context,
	purchases *purchase.Service,
	invoices *invoice.Service,
	pays *payments.Service,
	products []*product.Product,
	customer, vendor *party.Party,
) error {
	now := time.Now()
	lastMonth := now.AddDate(0, -1, 0)

	// Stock in first, so the invoice has something to issue.
	p, err := purchases.Create(ctx, purchase.CreateInput{
		VendorID:      vendor.ID,
		VendorBillNo:  "PST/1042",
		Date:          lastMonth,
		DueDate:       lastMonth.AddDate(0, 0, 30),
		PlaceOfSupply: "27",
		IntraState:    true,
		Lines: []purchase.LineSpec{
			{ProductID: products[0].ID, Quantity: types.NewQuantityFromFloat64(100), UnitRate: types.MustMoney("250.00")},
			{ProductID: products[1].ID, Quantity: types.NewQuantityFromFloat64(500), UnitRate: types.MustMoney("42.50")},
		},
	})
	if err != nil {
		return fmt.Errorf("create purchase: %w", err)
	}

	inv, err := invoices.Create(ctx, invoice.CreateInput{
		CustomerID:    customer.ID,
		Date:          now.AddDate(0, 0, -10),
		DueDate:       now.AddDate(0, 0, 20),
		PlaceOfSupply: "27",
		IntraState:    true,
		Lines: []invoice.LineSpec{
			{ProductID: products[0].ID, Quantity: types.NewQuantityFromFloat64(40), UnitRate: types.MustMoney("340.00")},
			{
				ProductID:     products[1].ID,
				Quantity:      types.NewQuantityFromFloat64(200),
				UnitRate:      types.MustMoney("58.00"),
				DiscountKind:  documents.DiscountPercent,
				DiscountValue: types.MustMoney("5"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}

	// Partial settlement on both sides.
	if _, err := pays.RecordPayment(ctx, payments.RecordInput{
		DocumentID: inv.ID,
		Amount:     types.MustMoney("10000.00"),
		Method:     payments.MethodBank,
		Date:       now.AddDate(0, 0, -5),
		Note:       "advance against " + inv.Number,
	}); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}

	if _, err := pays.RecordPurchasePayment(ctx, payments.RecordInput{
		DocumentID: p.ID,
		Amount:     types.MustMoney("20000.00"),
		Method:     payments.MethodBank,
		Date:       lastMonth.AddDate(0, 0, 7),
	}); err != nil {
		return fmt.Errorf("record purchase payment: %w", err)
	}

	// A couple of operating expenses for the statements.
	for _, e := range []*payments.Expense{
		{Amount: types.MustMoney("15000.00"), Method: payments.MethodBank, Date: now.AddDate(0, 0, -8), Category: payments.CategoryRent, Note: "godown rent"},
		{Amount: types.MustMoney("2400.00"), Method: payments.MethodUPI, Date: now.AddDate(0, 0, -3), Category: payments.CategoryTransport},
	} {
		if err := pays.RecordExpense(ctx, e); err != nil {
			return fmt.Errorf("record expense: %w", err)
		}
	}

	return nil
}
