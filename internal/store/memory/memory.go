package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"restaurantos/backend/internal/domain"
	"restaurantos/backend/internal/store"
)

// Store is a process-local Repository for development and tests. All mutation
// goes through one RWMutex; values are copied on the way in and out so
// callers never share backing slices with the store.
type Store struct {
	mu               sync.RWMutex
	menuItems        map[string]domain.MenuItem
	salesByID        map[string]*domain.Sale
	salesByIdem      map[string]*domain.Sale
	transactions     []domain.Transaction
	bankAccounts     map[string]domain.BankAccount
	mfsAccounts      map[string]domain.MFSAccount
	cashBalance      int64
	transfersByID    map[string]domain.Transfer
	expenses         []domain.Expense
	staffByID        map[string]domain.StaffMember
	payrollByID      map[string]domain.PayrollRecord
	attendanceByID   map[string]domain.AttendanceRecord
	suppliersByID    map[string]domain.Supplier
	purchaseOrders   map[string]domain.PurchaseOrder
	vatEntries       []domain.VATEntry
	tablesByID       map[string]domain.DiningTable
	printSettings    *domain.PrintSettings
	auditLogs        []domain.AuditLog
	usersByUsername  map[string]domain.UserAccount
	menuInsertOrder  []string
	tableInsertOrder []string
}

// seedUsers builds the initial accounts for dev/demo mode. Credentials come
// from SEED_ADMIN_PASSWORD / SEED_MANAGER_PASSWORD / SEED_STAFF_PASSWORD; if
// unset, dev defaults are used with a warning. Production deployments use
// PostgreSQL (DATABASE_URL) and never hit this path.
func seedUsers() map[string]domain.UserAccount {
	defaults := []struct {
		username string
		envKey   string
		fallback string
		role     string
	}{
		{"admin", "SEED_ADMIN_PASSWORD", "admin123", "admin"},
		{"manager", "SEED_MANAGER_PASSWORD", "manager123", "manager"},
		{"staff", "SEED_STAFF_PASSWORD", "staff123", "staff"},
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range defaults {
		password := os.Getenv(u.envKey)
		if password == "" {
			password = u.fallback
			log.Printf("[memory-store] WARNING: using default dev credential for %s. Set %s to override.", u.username, u.envKey)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func NewSeeded() *Store {
	now := time.Now().UTC()
	items := []domain.MenuItem{
		{ID: "item-beef-curry", Name: "Beef Curry", Category: "main", UnitPrice: 320, VATRate: 15, Active: true},
		{ID: "item-kacchi", Name: "Kacchi Biriyani", Category: "main", UnitPrice: 420, VATRate: 15, Active: true},
		{ID: "item-fried-rice", Name: "Fried Rice", Category: "main", UnitPrice: 220, VATRate: 15, Active: true},
		{ID: "item-chicken-fry", Name: "Chicken Fry", Category: "main", UnitPrice: 180, VATRate: 15, Active: true},
		{ID: "item-naan", Name: "Butter Naan", Category: "bread", UnitPrice: 60, VATRate: 15, Active: true},
		{ID: "item-borhani", Name: "Borhani", Category: "beverage", UnitPrice: 70, VATRate: 15, TrackStock: true, Stock: 40, ReorderLevel: 10, Active: true},
		{ID: "item-cola", Name: "Cola 500ml", Category: "beverage", UnitPrice: 40, VATRate: 0, TrackStock: true, Stock: 96, ReorderLevel: 24, Active: true},
		{ID: "item-water", Name: "Mineral Water 500ml", Category: "beverage", UnitPrice: 20, VATRate: 0, TrackStock: true, Stock: 120, ReorderLevel: 36, Active: true},
		{ID: "item-firni", Name: "Firni", Category: "dessert", UnitPrice: 90, VATRate: 15, TrackStock: true, Stock: 25, ReorderLevel: 8, Active: true},
	}

	tables := []domain.DiningTable{
		{ID: "table-1", Name: "Table 1", Capacity: 4, Status: domain.TableStatusFree},
		{ID: "table-2", Name: "Table 2", Capacity: 4, Status: domain.TableStatusFree},
		{ID: "table-3", Name: "Table 3", Capacity: 6, Status: domain.TableStatusFree},
		{ID: "table-4", Name: "Family Booth", Capacity: 8, Status: domain.TableStatusFree},
	}

	s := &Store{
		menuItems:       make(map[string]domain.MenuItem, len(items)),
		salesByID:       make(map[string]*domain.Sale),
		salesByIdem:     make(map[string]*domain.Sale),
		bankAccounts:    make(map[string]domain.BankAccount),
		mfsAccounts:     make(map[string]domain.MFSAccount),
		transfersByID:   make(map[string]domain.Transfer),
		staffByID:       make(map[string]domain.StaffMember),
		payrollByID:     make(map[string]domain.PayrollRecord),
		attendanceByID:  make(map[string]domain.AttendanceRecord),
		suppliersByID:   make(map[string]domain.Supplier),
		purchaseOrders:  make(map[string]domain.PurchaseOrder),
		tablesByID:      make(map[string]domain.DiningTable, len(tables)),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: seedUsers(),
		cashBalance:     5000,
	}
	for _, item := range items {
		s.menuItems[item.ID] = item
		s.menuInsertOrder = append(s.menuInsertOrder, item.ID)
	}
	for _, table := range tables {
		s.tablesByID[table.ID] = table
		s.tableInsertOrder = append(s.tableInsertOrder, table.ID)
	}

	s.bankAccounts["bank-city-01"] = domain.BankAccount{
		ID: "bank-city-01", BankName: "City Bank", AccountName: "Restaurant OS Ltd",
		AccountNumber: "110245678901", Branch: "Gulshan", Balance: 150000, CreatedAt: now,
	}
	s.mfsAccounts["mfs-bkash-01"] = domain.MFSAccount{
		ID: "mfs-bkash-01", Provider: "bkash", AccountNumber: "01711000000", Balance: 25000, CreatedAt: now,
	}
	s.mfsAccounts["mfs-nagad-01"] = domain.MFSAccount{
		ID: "mfs-nagad-01", Provider: "nagad", AccountNumber: "01811000000", Balance: 12000, CreatedAt: now,
	}

	return s
}

func (s *Store) ListMenuItems(_ context.Context) ([]domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MenuItem, 0, len(s.menuInsertOrder))
	for _, id := range s.menuInsertOrder {
		out = append(out, s.menuItems[id])
	}
	return out, nil
}

func (s *Store) CreateMenuItem(_ context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	if item.ID == "" || item.Name == "" || item.UnitPrice < 1 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.menuItems[item.ID]; exists {
		return nil, store.ErrConflict
	}
	s.menuItems[item.ID] = item
	s.menuInsertOrder = append(s.menuInsertOrder, item.ID)
	saved := item
	return &saved, nil
}

func (s *Store) GetMenuItem(_ context.Context, id string) (*domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.menuItems[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := item
	return &found, nil
}

func (s *Store) UpdateMenuItem(_ context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.menuItems[item.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	// Stock is adjusted through Increase/DecreaseStock, not updates.
	item.Stock = existing.Stock
	s.menuItems[item.ID] = item
	saved := item
	return &saved, nil
}

func (s *Store) GetMenuItems(_ context.Context, ids []string) (map[string]domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.MenuItem, len(ids))
	for _, id := range ids {
		if item, exists := s.menuItems[id]; exists {
			out[id] = item
		}
	}
	return out, nil
}

func (s *Store) IncreaseStock(_ context.Context, adjustments []domain.StockAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, adj := range adjustments {
		item, exists := s.menuItems[adj.ItemID]
		if !exists {
			return store.ErrNotFound
		}
		if !item.TrackStock || adj.Qty < 1 {
			continue
		}
		item.Stock += adj.Qty
		s.menuItems[adj.ItemID] = item
	}
	return nil
}

// DecreaseStock applies all adjustments or none: availability is verified
// for the whole batch before any write.
func (s *Store) DecreaseStock(_ context.Context, adjustments []domain.StockAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, adj := range adjustments {
		item, exists := s.menuItems[adj.ItemID]
		if !exists {
			return store.ErrNotFound
		}
		if item.TrackStock && item.Stock < adj.Qty {
			return store.ErrInsufficientStock
		}
	}
	for _, adj := range adjustments {
		item := s.menuItems[adj.ItemID]
		if !item.TrackStock {
			continue
		}
		item.Stock -= adj.Qty
		s.menuItems[adj.ItemID] = item
	}
	return nil
}

func (s *Store) ListLowStock(_ context.Context) ([]domain.LowStockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LowStockItem, 0, 8)
	for _, id := range s.menuInsertOrder {
		item := s.menuItems[id]
		if item.TrackStock && item.Active && item.Stock <= item.ReorderLevel {
			out = append(out, domain.LowStockItem{
				ItemID: item.ID, Name: item.Name, Stock: item.Stock, ReorderLevel: item.ReorderLevel,
			})
		}
	}
	return out, nil
}

func cloneSale(sale *domain.Sale) *domain.Sale {
	copied := *sale
	copied.Lines = append([]domain.SaleLine(nil), sale.Lines...)
	return &copied
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" || len(sale.Lines) == 0 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.IdempotencyKey != "" {
		if _, exists := s.salesByIdem[sale.IdempotencyKey]; exists {
			return nil, store.ErrConflict
		}
	}
	stored := cloneSale(&sale)
	s.salesByID[sale.ID] = stored
	if sale.IdempotencyKey != "" {
		s.salesByIdem[sale.IdempotencyKey] = stored
	}
	return cloneSale(stored), nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneSale(sale), nil
}

func (s *Store) FindSaleByIdempotency(_ context.Context, key string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByIdem[key]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneSale(sale), nil
}

func (s *Store) UpdateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.salesByID[sale.ID]; !exists {
		return nil, store.ErrNotFound
	}
	stored := cloneSale(&sale)
	s.salesByID[sale.ID] = stored
	if sale.IdempotencyKey != "" {
		s.salesByIdem[sale.IdempotencyKey] = stored
	}
	return cloneSale(stored), nil
}

func (s *Store) ListSalesRange(_ context.Context, from, to time.Time, limit, offset int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Sale, 0, 64)
	for _, sale := range s.salesByID {
		if sale.CreatedAt.Before(from) || sale.CreatedAt.After(to) {
			continue
		}
		matched = append(matched, *cloneSale(sale))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return pageSales(matched, limit, offset), nil
}

func pageSales(sales []domain.Sale, limit, offset int) []domain.Sale {
	if offset >= len(sales) {
		return nil
	}
	sales = sales[offset:]
	if limit > 0 && len(sales) > limit {
		sales = sales[:limit]
	}
	return sales
}

func (s *Store) TopProducts(_ context.Context, from, to time.Time, limit int) ([]domain.TopProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byItem := make(map[string]*domain.TopProduct)
	for _, sale := range s.salesByID {
		if sale.Status != domain.SaleStatusPaid || sale.CreatedAt.Before(from) || sale.CreatedAt.After(to) {
			continue
		}
		for _, line := range sale.Lines {
			entry, exists := byItem[line.ItemID]
			if !exists {
				entry = &domain.TopProduct{ItemID: line.ItemID, Name: line.Name}
				byItem[line.ItemID] = entry
			}
			entry.QtySold += line.Qty
			entry.Revenue += line.LineTotal
		}
	}

	out := make([]domain.TopProduct, 0, len(byItem))
	for _, entry := range byItem {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue == out[j].Revenue {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].Revenue > out[j].Revenue
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if tx.ID == "" || tx.Amount < 1 {
		return nil, store.ErrValidation
	}
	if tx.Type != domain.TxTypeIncome && tx.Type != domain.TxTypeExpense {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, tx)
	saved := tx
	return &saved, nil
}

func (s *Store) ListTransactions(_ context.Context, q domain.TransactionQuery) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Transaction, 0, 64)
	for _, tx := range s.transactions {
		if !q.From.IsZero() && tx.Date.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && tx.Date.After(q.To) {
			continue
		}
		if q.Type != "" && tx.Type != q.Type {
			continue
		}
		matched = append(matched, tx)
	}
	// Equal timestamps tiebreak on ID so pagination sees a stable order.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date.Equal(matched[j].Date) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Date.Before(matched[j].Date)
	})

	if q.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	out := make([]domain.Transaction, len(matched))
	copy(out, matched)
	return out, nil
}

func (s *Store) GetBalances(_ context.Context) (domain.Balances, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balances := domain.Balances{CashInHand: s.cashBalance}
	for _, account := range s.bankAccounts {
		balances.BankBalance += account.Balance
	}
	for _, account := range s.mfsAccounts {
		balances.MFSBalance += account.Balance
	}
	for _, transfer := range s.transfersByID {
		if transfer.Status == domain.TransferStatusPending {
			balances.PendingTransfers += transfer.Amount
		}
	}
	return balances, nil
}

func (s *Store) CreateBankAccount(_ context.Context, account domain.BankAccount) (*domain.BankAccount, error) {
	if account.ID == "" || account.BankName == "" || account.AccountNumber == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.bankAccounts[account.ID] = account
	saved := account
	return &saved, nil
}

func (s *Store) ListBankAccounts(_ context.Context) ([]domain.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.BankAccount, 0, len(s.bankAccounts))
	for _, account := range s.bankAccounts {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetBankAccount(_ context.Context, id string) (*domain.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.bankAccounts[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := account
	return &found, nil
}

func (s *Store) AdjustBankBalance(_ context.Context, id string, delta int64) (*domain.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.bankAccounts[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if account.Balance+delta < 0 {
		return nil, store.ErrInsufficientBalance
	}
	account.Balance += delta
	s.bankAccounts[id] = account
	saved := account
	return &saved, nil
}

func (s *Store) CreateMFSAccount(_ context.Context, account domain.MFSAccount) (*domain.MFSAccount, error) {
	if account.ID == "" || account.Provider == "" || account.AccountNumber == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mfsAccounts[account.ID] = account
	saved := account
	return &saved, nil
}

func (s *Store) ListMFSAccounts(_ context.Context) ([]domain.MFSAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MFSAccount, 0, len(s.mfsAccounts))
	for _, account := range s.mfsAccounts {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetMFSAccount(_ context.Context, id string) (*domain.MFSAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.mfsAccounts[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := account
	return &found, nil
}

func (s *Store) AdjustMFSBalance(_ context.Context, id string, delta int64) (*domain.MFSAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.mfsAccounts[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if account.Balance+delta < 0 {
		return nil, store.ErrInsufficientBalance
	}
	account.Balance += delta
	s.mfsAccounts[id] = account
	saved := account
	return &saved, nil
}

func (s *Store) AdjustCashBalance(_ context.Context, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cashBalance+delta < 0 {
		return s.cashBalance, store.ErrInsufficientBalance
	}
	s.cashBalance += delta
	return s.cashBalance, nil
}

func (s *Store) CreateTransfer(_ context.Context, transfer domain.Transfer) (*domain.Transfer, error) {
	if transfer.ID == "" || transfer.Amount < 1 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transfersByID[transfer.ID] = transfer
	saved := transfer
	return &saved, nil
}

func (s *Store) ListTransfers(_ context.Context, limit int) ([]domain.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transfer, 0, len(s.transfersByID))
	for _, transfer := range s.transfersByID {
		out = append(out, transfer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CompleteTransfer(_ context.Context, id string, at time.Time) (*domain.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transfer, exists := s.transfersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if transfer.Status != domain.TransferStatusPending {
		return nil, store.ErrConflict
	}
	transfer.Status = domain.TransferStatusCompleted
	transfer.CompletedAt = &at
	s.transfersByID[id] = transfer
	saved := transfer
	return &saved, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" || expense.Amount < 1 || expense.Category == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expenses = append(s.expenses, expense)
	saved := expense
	return &saved, nil
}

func (s *Store) ListExpenses(_ context.Context, from, to time.Time, limit int) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, 0, 32)
	for _, expense := range s.expenses {
		if expense.Date.Before(from) || expense.Date.After(to) {
			continue
		}
		out = append(out, expense)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateStaff(_ context.Context, staff domain.StaffMember) (*domain.StaffMember, error) {
	if staff.ID == "" || staff.Name == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.staffByID[staff.ID] = staff
	saved := staff
	return &saved, nil
}

func (s *Store) ListStaff(_ context.Context) ([]domain.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StaffMember, 0, len(s.staffByID))
	for _, staff := range s.staffByID {
		out = append(out, staff)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetStaff(_ context.Context, id string) (*domain.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	staff, exists := s.staffByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := staff
	return &found, nil
}

func (s *Store) CreatePayroll(_ context.Context, record domain.PayrollRecord) (*domain.PayrollRecord, error) {
	if record.ID == "" || record.StaffID == "" || record.Month == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.payrollByID {
		if existing.StaffID == record.StaffID && existing.Month == record.Month {
			return nil, store.ErrConflict
		}
	}
	s.payrollByID[record.ID] = record
	saved := record
	return &saved, nil
}

func (s *Store) FindPayroll(_ context.Context, staffID, month string) (*domain.PayrollRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.payrollByID {
		if record.StaffID == staffID && record.Month == month {
			found := record
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListPayroll(_ context.Context, month string) ([]domain.PayrollRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PayrollRecord, 0, len(s.payrollByID))
	for _, record := range s.payrollByID {
		if month != "" && record.Month != month {
			continue
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}

func (s *Store) CreateAttendance(_ context.Context, record domain.AttendanceRecord) (*domain.AttendanceRecord, error) {
	if record.ID == "" || record.StaffID == "" || record.Date == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.attendanceByID {
		if existing.StaffID == record.StaffID && existing.Date == record.Date {
			return nil, store.ErrConflict
		}
	}
	s.attendanceByID[record.ID] = record
	saved := record
	return &saved, nil
}

func (s *Store) FindAttendance(_ context.Context, staffID, dateKey string) (*domain.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.attendanceByID {
		if record.StaffID == staffID && record.Date == dateKey {
			found := record
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateAttendance(_ context.Context, record domain.AttendanceRecord) (*domain.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.attendanceByID[record.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.attendanceByID[record.ID] = record
	saved := record
	return &saved, nil
}

func (s *Store) ListAttendance(_ context.Context, dateKey string) ([]domain.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AttendanceRecord, 0, len(s.attendanceByID))
	for _, record := range s.attendanceByID {
		if record.Date == dateKey {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.ID == "" || supplier.Name == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.suppliersByID[supplier.ID] = supplier
	saved := supplier
	return &saved, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Supplier, 0, len(s.suppliersByID))
	for _, supplier := range s.suppliersByID {
		out = append(out, supplier)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetSupplier(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, exists := s.suppliersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := supplier
	return &found, nil
}

func (s *Store) AdjustSupplierDue(_ context.Context, id string, delta int64) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier, exists := s.suppliersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	supplier.DueAmount += delta
	if supplier.DueAmount < 0 {
		supplier.DueAmount = 0
	}
	s.suppliersByID[id] = supplier
	saved := supplier
	return &saved, nil
}

func clonePO(po domain.PurchaseOrder) domain.PurchaseOrder {
	po.Items = append([]domain.PurchaseOrderItem(nil), po.Items...)
	return po
}

func (s *Store) CreatePurchaseOrder(_ context.Context, po domain.PurchaseOrder) (*domain.PurchaseOrder, error) {
	if po.ID == "" || po.SupplierID == "" || len(po.Items) == 0 {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.purchaseOrders[po.ID] = clonePO(po)
	saved := clonePO(po)
	return &saved, nil
}

func (s *Store) GetPurchaseOrderByID(_ context.Context, id string) (*domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	po, exists := s.purchaseOrders[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := clonePO(po)
	return &found, nil
}

func (s *Store) ListPurchaseOrders(_ context.Context, status string, limit int) ([]domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PurchaseOrder, 0, len(s.purchaseOrders))
	for _, po := range s.purchaseOrders {
		if status != "" && po.Status != status {
			continue
		}
		out = append(out, clonePO(po))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ReceivePurchaseOrder(_ context.Context, id, receivedBy string, at time.Time) (*domain.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	po, exists := s.purchaseOrders[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if po.Status == domain.POStatusReceived {
		return nil, store.ErrConflict
	}
	po.Status = domain.POStatusReceived
	po.ReceivedAt = &at
	po.ReceivedBy = receivedBy
	s.purchaseOrders[id] = po
	saved := clonePO(po)
	return &saved, nil
}

func (s *Store) CreateVATEntry(_ context.Context, entry domain.VATEntry) (*domain.VATEntry, error) {
	if entry.ID == "" || entry.SaleID == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.vatEntries = append(s.vatEntries, entry)
	saved := entry
	return &saved, nil
}

func (s *Store) ListVATEntries(_ context.Context, from, to time.Time, limit int) ([]domain.VATEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.VATEntry, 0, 32)
	for _, entry := range s.vatEntries {
		if entry.Date.Before(from) || entry.Date.After(to) {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateTable(_ context.Context, table domain.DiningTable) (*domain.DiningTable, error) {
	if table.ID == "" || table.Name == "" {
		return nil, store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tablesByID[table.ID]; exists {
		return nil, store.ErrConflict
	}
	s.tablesByID[table.ID] = table
	s.tableInsertOrder = append(s.tableInsertOrder, table.ID)
	saved := table
	return &saved, nil
}

func (s *Store) ListTables(_ context.Context) ([]domain.DiningTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.DiningTable, 0, len(s.tableInsertOrder))
	for _, id := range s.tableInsertOrder {
		out = append(out, s.tablesByID[id])
	}
	return out, nil
}

func (s *Store) GetTable(_ context.Context, id string) (*domain.DiningTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, exists := s.tablesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := table
	return &found, nil
}

func (s *Store) UpdateTable(_ context.Context, table domain.DiningTable) (*domain.DiningTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tablesByID[table.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.tablesByID[table.ID] = table
	saved := table
	return &saved, nil
}

func (s *Store) GetPrintSettings(_ context.Context) (domain.PrintSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	merged := store.DefaultPrintSettings()
	if s.printSettings != nil {
		mergePrintSettings(&merged, *s.printSettings)
	}
	return merged, nil
}

func mergePrintSettings(base *domain.PrintSettings, saved domain.PrintSettings) {
	if saved.PaperSize != "" {
		base.PaperSize = saved.PaperSize
	}
	if saved.RestaurantName != "" {
		base.RestaurantName = saved.RestaurantName
	}
	if saved.AddressLine != "" {
		base.AddressLine = saved.AddressLine
	}
	if saved.Phone != "" {
		base.Phone = saved.Phone
	}
	if saved.FooterText != "" {
		base.FooterText = saved.FooterText
	}
	base.ShowVATLines = saved.ShowVATLines
}

func (s *Store) SavePrintSettings(_ context.Context, settings domain.PrintSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := settings
	s.printSettings = &copied
	return nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || entry.CreatedAt.After(to) {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrConflict
	}
	user.Username = username
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) FindUser(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[strings.ToLower(strings.TrimSpace(username))]
	if !exists || !user.Active {
		return nil, store.ErrNotFound
	}
	found := user
	return &found, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

var _ store.Repository = (*Store)(nil)
