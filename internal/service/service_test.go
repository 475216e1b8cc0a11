package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"restaurantos/backend/internal/cache"
	"restaurantos/backend/internal/cart"
	"restaurantos/backend/internal/domain"
	"restaurantos/backend/internal/store"
	"restaurantos/backend/internal/store/memory"
)

func newTestService() *Service {
	return New(memory.NewSeeded(), cache.NoopSummaryCache{}, "Asia/Dhaka", 0.05)
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func staffCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "kasem", Role: "staff"})
}

func TestCreateSaleComputesVATInclusiveTotals(t *testing.T) {
	svc := newTestService()

	resp, err := svc.CreateSale(staffCtx(), domain.SaleCreateRequest{
		IdempotencyKey: "idem-curry",
		OrderType:      domain.OrderTypeTakeaway,
		PaymentMethod:  "cash",
		Lines: []domain.SaleLineRequest{
			{ItemID: "item-beef-curry", Qty: 2},
			{ItemID: "item-cola", Qty: 1},
		},
	})
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}
	if resp.Duplicate {
		t.Fatalf("first submission must not be marked duplicate")
	}

	sale := resp.Sale
	// 2x320 at 15% inclusive plus 1x40 at 0%.
	if sale.InclusiveSubtotal != 680 {
		t.Fatalf("inclusive subtotal = %d, want 680", sale.InclusiveSubtotal)
	}
	// VAT portion of 640 at 15% inclusive is 640*15/115 = 83.48 -> 83.
	if sale.VATAmount != 83 {
		t.Fatalf("vat = %d, want 83", sale.VATAmount)
	}
	if sale.Subtotal != 597 {
		t.Fatalf("subtotal = %d, want 597", sale.Subtotal)
	}
	if sale.Total != sale.Subtotal+sale.VATAmount {
		t.Fatalf("total = %d, want subtotal+vat = %d", sale.Total, sale.Subtotal+sale.VATAmount)
	}
	if sale.Status != domain.SaleStatusPaid {
		t.Fatalf("status = %s, want paid", sale.Status)
	}
}

func TestCreateSaleIsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	req := domain.SaleCreateRequest{
		IdempotencyKey: "idem-repeat",
		PaymentMethod:  "cash",
		Lines:          []domain.SaleLineRequest{{ItemID: "item-water", Qty: 3}},
	}
	first, err := svc.CreateSale(ctx, req)
	if err != nil {
		t.Fatalf("first sale failed: %v", err)
	}
	second, err := svc.CreateSale(ctx, req)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.Duplicate {
		t.Fatalf("replay must be marked duplicate")
	}
	if second.Sale.ID != first.Sale.ID {
		t.Fatalf("replay returned a different sale: %s vs %s", second.Sale.ID, first.Sale.ID)
	}

	// Stock must only be taken once.
	items, err := svc.repo.GetMenuItems(ctx, []string{"item-water"})
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got := items["item-water"].Stock; got != 117 {
		t.Fatalf("stock after replay = %d, want 117", got)
	}
}

func TestCreateSaleRejectsDineIn(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateSale(staffCtx(), domain.SaleCreateRequest{
		OrderType:     domain.OrderTypeDineIn,
		PaymentMethod: "cash",
		Lines:         []domain.SaleLineRequest{{ItemID: "item-naan", Qty: 1}},
	})
	if !errors.Is(err, cart.ErrDineInCart) {
		t.Fatalf("expected ErrDineInCart, got %v", err)
	}
}

func TestCreateSaleStockGuard(t *testing.T) {
	svc := newTestService()

	// Seeded firni stock is 25.
	_, err := svc.CreateSale(staffCtx(), domain.SaleCreateRequest{
		PaymentMethod: "cash",
		Lines:         []domain.SaleLineRequest{{ItemID: "item-firni", Qty: 26}},
	})
	if !errors.Is(err, cart.ErrStockExceeded) {
		t.Fatalf("expected ErrStockExceeded, got %v", err)
	}
}

func TestTableLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	sale, err := svc.OpenTable(ctx, "table-1", []domain.SaleLineRequest{
		{ItemID: "item-kacchi", Qty: 2},
	})
	if err != nil {
		t.Fatalf("open table failed: %v", err)
	}
	if sale.Status != domain.SaleStatusOpen {
		t.Fatalf("open order status = %s, want open", sale.Status)
	}

	tables, err := svc.ListTables(ctx)
	if err != nil {
		t.Fatalf("list tables: %v", err)
	}
	var opened *domain.DiningTable
	for i := range tables {
		if tables[i].ID == "table-1" {
			opened = &tables[i]
		}
	}
	if opened == nil || opened.Status != domain.TableStatusOccupied {
		t.Fatalf("table-1 must be occupied after open")
	}

	// A second party cannot take the same table.
	if _, err := svc.OpenTable(ctx, "table-1", []domain.SaleLineRequest{{ItemID: "item-naan", Qty: 1}}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict opening occupied table, got %v", err)
	}

	grown, err := svc.AddToTable(ctx, "table-1", []domain.SaleLineRequest{
		{ItemID: "item-borhani", Qty: 2},
	})
	if err != nil {
		t.Fatalf("add to table failed: %v", err)
	}
	if len(grown.Lines) != 2 {
		t.Fatalf("lines after add = %d, want 2", len(grown.Lines))
	}
	if grown.InclusiveSubtotal != 2*420+2*70 {
		t.Fatalf("inclusive subtotal after add = %d, want %d", grown.InclusiveSubtotal, 2*420+2*70)
	}

	settled, err := svc.SettleTable(ctx, "table-1", domain.TableSettleRequest{
		PaymentMethod: "cash",
		ServiceCharge: true,
		Discount:      50,
	})
	if err != nil {
		t.Fatalf("settle table failed: %v", err)
	}
	if settled.Status != domain.SaleStatusPaid {
		t.Fatalf("settled status = %s, want paid", settled.Status)
	}
	if settled.SettledAt == nil {
		t.Fatalf("settled order must carry a settled_at time")
	}
	if settled.ServiceCharge == 0 {
		t.Fatalf("service charge requested but not applied")
	}
	if settled.Discount != 50 {
		t.Fatalf("discount = %d, want 50", settled.Discount)
	}

	tables, _ = svc.ListTables(ctx)
	for _, table := range tables {
		if table.ID == "table-1" && table.Status != domain.TableStatusFree {
			t.Fatalf("table-1 must be free after settle")
		}
	}

	// Settling twice is a conflict.
	if _, err := svc.SettleTable(ctx, "table-1", domain.TableSettleRequest{}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict settling a free table, got %v", err)
	}
}

func TestMenuItemCreateRequiresManagerRole(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateMenuItem(staffCtx(), domain.MenuItemCreateRequest{
		Name:      "Halim",
		UnitPrice: 150,
		VATRate:   15,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for staff, got %v", err)
	}

	item, err := svc.CreateMenuItem(adminCtx(), domain.MenuItemCreateRequest{
		Name:      "Halim",
		Category:  "Mains",
		UnitPrice: 150,
		VATRate:   15,
	})
	if err != nil {
		t.Fatalf("admin create failed: %v", err)
	}
	if item.Category != "mains" {
		t.Fatalf("category must be normalized, got %q", item.Category)
	}
	if !item.Active {
		t.Fatalf("new items start active")
	}
}

func TestRestockRejectsUntrackedItems(t *testing.T) {
	svc := newTestService()

	// item-beef-curry is not stock tracked.
	if _, err := svc.RestockItem(adminCtx(), "item-beef-curry", 10); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	item, err := svc.RestockItem(adminCtx(), "item-cola", 24)
	if err != nil {
		t.Fatalf("restock failed: %v", err)
	}
	if item.Stock != 120 {
		t.Fatalf("stock after restock = %d, want 120", item.Stock)
	}
}

func TestExpensePostsLedgerAndCash(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	before, err := svc.GetBalances(ctx)
	if err != nil {
		t.Fatalf("balances: %v", err)
	}

	expense, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{
		Category:      "Utilities",
		Description:   "Gas bill",
		Amount:        1200,
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("create expense failed: %v", err)
	}
	if expense.Category != "utilities" {
		t.Fatalf("category must be normalized, got %q", expense.Category)
	}

	after, err := svc.GetBalances(ctx)
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if after.CashInHand != before.CashInHand-1200 {
		t.Fatalf("cash = %d, want %d", after.CashInHand, before.CashInHand-1200)
	}
}

func TestExpenseCashGuard(t *testing.T) {
	svc := newTestService()

	// Seeded cash is 5000.
	_, err := svc.CreateExpense(adminCtx(), domain.ExpenseCreateRequest{
		Category:      "rent",
		Amount:        999999,
		PaymentMethod: "cash",
	})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestTransferDebitsOnCreateCreditsOnComplete(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	transfer, err := svc.CreateTransfer(ctx, domain.TransferRequest{
		FromType: domain.AccountTypeBank,
		FromID:   "bank-city-01",
		ToType:   domain.AccountTypeMFS,
		ToID:     "mfs-bkash-01",
		Amount:   10000,
		Fee:      50,
	})
	if err != nil {
		t.Fatalf("create transfer failed: %v", err)
	}
	if transfer.Status != domain.TransferStatusPending {
		t.Fatalf("new transfer status = %s, want pending", transfer.Status)
	}

	banks, _ := svc.ListBankAccounts(ctx)
	if banks[0].Balance != 150000-10050 {
		t.Fatalf("bank balance = %d, want %d", banks[0].Balance, 150000-10050)
	}

	completed, err := svc.CompleteTransfer(ctx, transfer.ID)
	if err != nil {
		t.Fatalf("complete transfer failed: %v", err)
	}
	if completed.CompletedAt == nil {
		t.Fatalf("completed transfer must carry completed_at")
	}

	wallets, _ := svc.ListMFSAccounts(ctx)
	for _, wallet := range wallets {
		if wallet.ID == "mfs-bkash-01" && wallet.Balance != 35000 {
			t.Fatalf("bkash balance = %d, want 35000", wallet.Balance)
		}
	}

	// Completing again is a conflict.
	if _, err := svc.CompleteTransfer(ctx, transfer.ID); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on double completion, got %v", err)
	}
}

func TestTransferInsufficientSourceFails(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateTransfer(adminCtx(), domain.TransferRequest{
		FromType: domain.AccountTypeMFS,
		FromID:   "mfs-nagad-01",
		ToType:   domain.AccountTypeCash,
		Amount:   999999,
	})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestPayrollDuplicateMonthRejected(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	staff, err := svc.CreateStaff(ctx, domain.StaffCreateRequest{
		Name:          "Rahima",
		Position:      "cook",
		MonthlySalary: 3000,
	})
	if err != nil {
		t.Fatalf("create staff failed: %v", err)
	}

	record, err := svc.PaySalary(ctx, domain.PayrollRequest{
		StaffID:       staff.ID,
		Month:         "2026-08",
		Bonus:         500,
		Deduction:     200,
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("pay salary failed: %v", err)
	}
	if record.NetAmount != 3300 {
		t.Fatalf("net = %d, want 3300", record.NetAmount)
	}

	if _, err := svc.PaySalary(ctx, domain.PayrollRequest{
		StaffID:       staff.ID,
		Month:         "2026-08",
		PaymentMethod: "cash",
	}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict paying the same month twice, got %v", err)
	}
}

func TestAttendanceCheckInOnceCheckOutOnce(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	staff, err := svc.CreateStaff(ctx, domain.StaffCreateRequest{Name: "Jamal", MonthlySalary: 2500})
	if err != nil {
		t.Fatalf("create staff failed: %v", err)
	}

	record, err := svc.CheckIn(ctx, staff.ID)
	if err != nil {
		t.Fatalf("check in failed: %v", err)
	}
	if record.Date == "" {
		t.Fatalf("attendance must be keyed by a local date")
	}

	if _, err := svc.CheckIn(ctx, staff.ID); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on double check in, got %v", err)
	}

	out, err := svc.CheckOut(ctx, staff.ID)
	if err != nil {
		t.Fatalf("check out failed: %v", err)
	}
	if out.CheckOut == nil {
		t.Fatalf("check out must record a time")
	}

	if _, err := svc.CheckOut(ctx, staff.ID); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on double check out, got %v", err)
	}
}

func TestPurchaseOrderReceiveRestocksAndAddsDue(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	supplier, err := svc.CreateSupplier(ctx, domain.SupplierCreateRequest{Name: "Karim Traders"})
	if err != nil {
		t.Fatalf("create supplier failed: %v", err)
	}

	po, err := svc.CreatePurchaseOrder(ctx, domain.PurchaseOrderCreateRequest{
		SupplierID: supplier.ID,
		Items: []domain.PurchaseOrderItem{
			{ItemID: "item-cola", Qty: 48, UnitCost: 25},
		},
	})
	if err != nil {
		t.Fatalf("create purchase order failed: %v", err)
	}
	if po.TotalCost != 1200 {
		t.Fatalf("po total = %d, want 1200", po.TotalCost)
	}
	if po.Status != domain.POStatusDraft {
		t.Fatalf("new po status = %s, want draft", po.Status)
	}

	received, err := svc.ReceivePurchaseOrder(ctx, po.ID)
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if received.Status != domain.POStatusReceived {
		t.Fatalf("status = %s, want received", received.Status)
	}

	items, _ := svc.repo.GetMenuItems(ctx, []string{"item-cola"})
	if items["item-cola"].Stock != 96+48 {
		t.Fatalf("stock after receive = %d, want 144", items["item-cola"].Stock)
	}

	suppliers, _ := svc.ListSuppliers(ctx)
	for _, entry := range suppliers {
		if entry.ID == supplier.ID && entry.DueAmount != 1200 {
			t.Fatalf("supplier due = %d, want 1200", entry.DueAmount)
		}
	}

	// A received order cannot be received again.
	if _, err := svc.ReceivePurchaseOrder(ctx, po.ID); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on double receive, got %v", err)
	}
}

func TestPaySupplierDueClampsToOutstanding(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	supplier, _ := svc.CreateSupplier(ctx, domain.SupplierCreateRequest{Name: "Fresh Fish"})
	if _, err := svc.PaySupplierDue(ctx, supplier.ID, 500, "cash"); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("paying more than due must fail validation, got %v", err)
	}
}

func TestSummaryReflectsSalesAndExpenses(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	if _, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		IdempotencyKey: "idem-summary",
		PaymentMethod:  "cash",
		Lines:          []domain.SaleLineRequest{{ItemID: "item-fried-rice", Qty: 2}},
	}); err != nil {
		t.Fatalf("create sale failed: %v", err)
	}
	if _, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{
		Category: "supplies",
		Amount:   300,
	}); err != nil {
		t.Fatalf("create expense failed: %v", err)
	}

	summary, err := svc.Summary(ctx, "", "", "Asia/Dhaka")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.OrderCount != 1 {
		t.Fatalf("order count = %d, want 1", summary.OrderCount)
	}
	if summary.TotalSales != 440 {
		t.Fatalf("total sales = %d, want 440", summary.TotalSales)
	}
	if summary.TotalExpense != 300 {
		t.Fatalf("total expense = %d, want 300", summary.TotalExpense)
	}
	if summary.Net != summary.TotalIncome-summary.TotalExpense {
		t.Fatalf("net = %d, want income-expense", summary.Net)
	}
}

func TestReceiptAndKOTRendering(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	resp, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		IdempotencyKey: "idem-receipt",
		PaymentMethod:  "cash",
		Lines:          []domain.SaleLineRequest{{ItemID: "item-chicken-fry", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}

	receipt, err := svc.BuildReceipt(ctx, domain.ReceiptRequest{SaleID: resp.Sale.ID})
	if err != nil {
		t.Fatalf("build receipt failed: %v", err)
	}
	if receipt.Kind != "receipt" {
		t.Fatalf("default kind = %s, want receipt", receipt.Kind)
	}
	if !containsAll(receipt.PreviewText, "Chicken Fry", "Total") {
		t.Fatalf("receipt missing expected lines:\n%s", receipt.PreviewText)
	}

	kot, err := svc.BuildReceipt(ctx, domain.ReceiptRequest{SaleID: resp.Sale.ID, Kind: "kot"})
	if err != nil {
		t.Fatalf("build kot failed: %v", err)
	}
	if containsAll(kot.PreviewText, "Total") {
		t.Fatalf("kot must not show money:\n%s", kot.PreviewText)
	}
	if !containsAll(kot.PreviewText, "2x Chicken Fry") {
		t.Fatalf("kot missing item line:\n%s", kot.PreviewText)
	}
}

func TestStaffUserManagementRequiresAdmin(t *testing.T) {
	svc := newTestService()

	if _, err := svc.ListStaffUsers(staffCtx()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for staff, got %v", err)
	}

	user, err := svc.CreateStaffUser(adminCtx(), domain.StaffUserCreateRequest{
		Username: "Waiter1",
		Role:     "staff",
	}, "$2a$10$fakehashfortest")
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if user.Username != "waiter1" {
		t.Fatalf("username must be lowercased, got %q", user.Username)
	}

	if _, err := svc.CreateStaffUser(adminCtx(), domain.StaffUserCreateRequest{
		Username: "waiter1",
		Role:     "staff",
	}, "$2a$10$fakehashfortest"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict for duplicate username, got %v", err)
	}
}

func TestAuditTrailRecordsActions(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	if _, err := svc.CreateMenuItem(ctx, domain.MenuItemCreateRequest{
		Name:      "Shingara",
		UnitPrice: 15,
		VATRate:   15,
	}); err != nil {
		t.Fatalf("create item failed: %v", err)
	}

	logs, err := svc.ListAuditLogs(ctx, "", 50)
	if err != nil {
		t.Fatalf("list audit logs failed: %v", err)
	}
	found := false
	for _, entry := range logs {
		if entry.Action == "menu_item_create" && entry.ActorUsername == "admin" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected menu_item_create audit entry")
	}
}

func containsAll(text string, wants ...string) bool {
	for _, want := range wants {
		if !strings.Contains(text, want) {
			return false
		}
	}
	return true
}

// flakyStore wraps the seeded memory store and fails selected writes, so
// tests can observe what a sale path leaves behind after a transient store
// error.
type flakyStore struct {
	store.Repository
	failCreateSale bool
	failUpdateSale bool
}

func (f *flakyStore) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if f.failCreateSale {
		return nil, errors.New("connection reset by peer")
	}
	return f.Repository.CreateSale(ctx, sale)
}

func (f *flakyStore) UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if f.failUpdateSale {
		return nil, errors.New("connection reset by peer")
	}
	return f.Repository.UpdateSale(ctx, sale)
}

func TestCreateSaleRestocksOnStoreFailure(t *testing.T) {
	repo := &flakyStore{Repository: memory.NewSeeded(), failCreateSale: true}
	svc := New(repo, cache.NoopSummaryCache{}, "Asia/Dhaka", 0.05)

	_, err := svc.CreateSale(staffCtx(), domain.SaleCreateRequest{
		IdempotencyKey: "idem-flaky",
		PaymentMethod:  "cash",
		Lines:          []domain.SaleLineRequest{{ItemID: "item-cola", Qty: 3}},
	})
	if err == nil {
		t.Fatalf("expected sale to fail")
	}

	item, err := repo.GetMenuItem(context.Background(), "item-cola")
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if item.Stock != 96 {
		t.Fatalf("stock = %d after failed sale, want 96", item.Stock)
	}
}

func TestAddToTableRestocksOnStoreFailure(t *testing.T) {
	repo := &flakyStore{Repository: memory.NewSeeded()}
	svc := New(repo, cache.NoopSummaryCache{}, "Asia/Dhaka", 0.05)
	ctx := staffCtx()

	if _, err := svc.OpenTable(ctx, "table-2", []domain.SaleLineRequest{{ItemID: "item-water", Qty: 1}}); err != nil {
		t.Fatalf("open table failed: %v", err)
	}

	repo.failUpdateSale = true
	_, err := svc.AddToTable(ctx, "table-2", []domain.SaleLineRequest{{ItemID: "item-borhani", Qty: 2}})
	if err == nil {
		t.Fatalf("expected add to fail")
	}

	item, err := repo.GetMenuItem(context.Background(), "item-borhani")
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if item.Stock != 40 {
		t.Fatalf("stock = %d after failed add, want 40", item.Stock)
	}
}

func TestListSalesPagesTodaysSales(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	for _, key := range []string{"idem-list-1", "idem-list-2", "idem-list-3"} {
		if _, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
			IdempotencyKey: key,
			PaymentMethod:  "cash",
			Lines:          []domain.SaleLineRequest{{ItemID: "item-water", Qty: 1}},
		}); err != nil {
			t.Fatalf("seed sale %s failed: %v", key, err)
		}
	}

	all, err := svc.ListSales(ctx, "", "", 50, 0)
	if err != nil {
		t.Fatalf("list sales failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d sales, want 3", len(all))
	}

	page, err := svc.ListSales(ctx, "", "", 2, 2)
	if err != nil {
		t.Fatalf("paged list failed: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("got %d sales on last page, want 1", len(page))
	}
	if page[0].ID != all[2].ID {
		t.Fatalf("last page returned %s, want %s", page[0].ID, all[2].ID)
	}
}

func TestSettledSaleLedgerDatesFromSettlement(t *testing.T) {
	repo := memory.NewSeeded()
	svc := New(repo, cache.NoopSummaryCache{}, "Asia/Dhaka", 0.05)

	opened := time.Date(2026, 3, 10, 17, 30, 0, 0, time.UTC)
	settled := time.Date(2026, 3, 10, 19, 5, 0, 0, time.UTC)
	sale := domain.Sale{
		ID:            "sale-late-settle",
		OrderType:     domain.OrderTypeDineIn,
		PaymentMethod: "cash",
		Total:         460,
		VATAmount:     60,
		Status:        domain.SaleStatusPaid,
		CreatedAt:     opened,
		SettledAt:     &settled,
	}
	svc.settleSaleLedger(context.Background(), &sale)

	txs, err := repo.ListTransactions(context.Background(), domain.TransactionQuery{Limit: 10})
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	// 17:30Z is 23:30 in Dhaka; 19:05Z is already the next local day. The
	// ledger entry must carry the settlement instant so reports bucket the
	// revenue on the day it was collected.
	if !txs[0].Date.Equal(settled) {
		t.Fatalf("transaction dated %s, want settlement instant %s", txs[0].Date, settled)
	}

	entries, err := repo.ListVATEntries(context.Background(), opened, settled.Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("list vat entries failed: %v", err)
	}
	if len(entries) != 1 || !entries[0].Date.Equal(settled) {
		t.Fatalf("vat entry dated from creation, want settlement instant")
	}
}
