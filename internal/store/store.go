package store

import (
	"context"
	"errors"
	"time"

	"restaurantos/backend/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("conflicting state")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Repository is the persistence boundary for the back office. The memory
// implementation seeds demo data for development and tests; postgres backs
// production.
type Repository interface {
	ListMenuItems(ctx context.Context) ([]domain.MenuItem, error)
	CreateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	GetMenuItems(ctx context.Context, ids []string) (map[string]domain.MenuItem, error)
	IncreaseStock(ctx context.Context, adjustments []domain.StockAdjustment) error
	DecreaseStock(ctx context.Context, adjustments []domain.StockAdjustment) error
	ListLowStock(ctx context.Context) ([]domain.LowStockItem, error)

	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	FindSaleByIdempotency(ctx context.Context, key string) (*domain.Sale, error)
	UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	ListSalesRange(ctx context.Context, from, to time.Time, limit, offset int) ([]domain.Sale, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.TopProduct, error)

	CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, q domain.TransactionQuery) ([]domain.Transaction, error)
	GetBalances(ctx context.Context) (domain.Balances, error)

	CreateBankAccount(ctx context.Context, account domain.BankAccount) (*domain.BankAccount, error)
	ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error)
	GetBankAccount(ctx context.Context, id string) (*domain.BankAccount, error)
	AdjustBankBalance(ctx context.Context, id string, delta int64) (*domain.BankAccount, error)

	CreateMFSAccount(ctx context.Context, account domain.MFSAccount) (*domain.MFSAccount, error)
	ListMFSAccounts(ctx context.Context) ([]domain.MFSAccount, error)
	GetMFSAccount(ctx context.Context, id string) (*domain.MFSAccount, error)
	AdjustMFSBalance(ctx context.Context, id string, delta int64) (*domain.MFSAccount, error)

	AdjustCashBalance(ctx context.Context, delta int64) (int64, error)

	CreateTransfer(ctx context.Context, transfer domain.Transfer) (*domain.Transfer, error)
	ListTransfers(ctx context.Context, limit int) ([]domain.Transfer, error)
	CompleteTransfer(ctx context.Context, id string, at time.Time) (*domain.Transfer, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, from, to time.Time, limit int) ([]domain.Expense, error)

	CreateStaff(ctx context.Context, staff domain.StaffMember) (*domain.StaffMember, error)
	ListStaff(ctx context.Context) ([]domain.StaffMember, error)
	GetStaff(ctx context.Context, id string) (*domain.StaffMember, error)
	CreatePayroll(ctx context.Context, record domain.PayrollRecord) (*domain.PayrollRecord, error)
	FindPayroll(ctx context.Context, staffID, month string) (*domain.PayrollRecord, error)
	ListPayroll(ctx context.Context, month string) ([]domain.PayrollRecord, error)

	CreateAttendance(ctx context.Context, record domain.AttendanceRecord) (*domain.AttendanceRecord, error)
	FindAttendance(ctx context.Context, staffID, dateKey string) (*domain.AttendanceRecord, error)
	UpdateAttendance(ctx context.Context, record domain.AttendanceRecord) (*domain.AttendanceRecord, error)
	ListAttendance(ctx context.Context, dateKey string) ([]domain.AttendanceRecord, error)

	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	AdjustSupplierDue(ctx context.Context, id string, delta int64) (*domain.Supplier, error)

	CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) (*domain.PurchaseOrder, error)
	GetPurchaseOrderByID(ctx context.Context, id string) (*domain.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, status string, limit int) ([]domain.PurchaseOrder, error)
	ReceivePurchaseOrder(ctx context.Context, id, receivedBy string, at time.Time) (*domain.PurchaseOrder, error)

	CreateVATEntry(ctx context.Context, entry domain.VATEntry) (*domain.VATEntry, error)
	ListVATEntries(ctx context.Context, from, to time.Time, limit int) ([]domain.VATEntry, error)

	CreateTable(ctx context.Context, table domain.DiningTable) (*domain.DiningTable, error)
	ListTables(ctx context.Context) ([]domain.DiningTable, error)
	GetTable(ctx context.Context, id string) (*domain.DiningTable, error)
	UpdateTable(ctx context.Context, table domain.DiningTable) (*domain.DiningTable, error)

	GetPrintSettings(ctx context.Context) (domain.PrintSettings, error)
	SavePrintSettings(ctx context.Context, settings domain.PrintSettings) error

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	FindUser(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username, password string) error
}

// DefaultPrintSettings is the base layer merged under stored settings on
// every read, so partially-saved settings always render.
func DefaultPrintSettings() domain.PrintSettings {
	return domain.PrintSettings{
		PaperSize:      "80mm",
		RestaurantName: "Restaurant OS",
		FooterText:     "Thank you, come again",
		ShowVATLines:   true,
	}
}
