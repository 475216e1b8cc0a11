package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"restaurantos/backend/internal/cache"
	"restaurantos/backend/internal/cart"
	"restaurantos/backend/internal/domain"
	"restaurantos/backend/internal/localdate"
	"restaurantos/backend/internal/report"
	"restaurantos/backend/internal/store"
	"restaurantos/backend/internal/xid"
)

// ErrForbidden marks operations the caller's role does not permit.
var ErrForbidden = errors.New("insufficient role")

const summaryTTL = 60 * time.Second

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo            store.Repository
	reports         *report.Engine
	summaries       cache.SummaryCache
	defaultTimezone string
	serviceRate     float64
}

func New(repo store.Repository, summaries cache.SummaryCache, defaultTimezone string, serviceRate float64) *Service {
	if defaultTimezone == "" {
		defaultTimezone = "Asia/Dhaka"
	}
	if summaries == nil {
		summaries = cache.NoopSummaryCache{}
	}
	if serviceRate < 0 {
		serviceRate = 0
	}

	return &Service{
		repo:            repo,
		reports:         report.NewEngine(repo),
		summaries:       summaries,
		defaultTimezone: defaultTimezone,
		serviceRate:     serviceRate,
	}
}

func (s *Service) requireRole(ctx context.Context, roles ...string) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, ErrForbidden
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return domain.Actor{}, ErrForbidden
}

// Menu and stock.

func (s *Service) ListMenu(ctx context.Context) ([]domain.MenuItem, error) {
	return s.repo.ListMenuItems(ctx)
}

func (s *Service) CreateMenuItem(ctx context.Context, req domain.MenuItemCreateRequest) (domain.MenuItem, error) {
	if _, err := s.requireRole(ctx, "admin", "manager"); err != nil {
		return domain.MenuItem{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(strings.ToLower(req.Category))
	if req.Name == "" || req.UnitPrice < 1 {
		return domain.MenuItem{}, store.ErrValidation
	}
	if req.VATRate < 0 || req.VATRate > 100 {
		return domain.MenuItem{}, store.ErrValidation
	}
	if req.InitialStock < 0 || req.ReorderLevel < 0 {
		return domain.MenuItem{}, store.ErrValidation
	}

	item := domain.MenuItem{
		ID:           xid.New("item"),
		Name:         req.Name,
		Category:     req.Category,
		UnitPrice:    req.UnitPrice,
		VATRate:      req.VATRate,
		TrackStock:   req.TrackStock,
		Stock:        req.InitialStock,
		ReorderLevel: req.ReorderLevel,
		Active:       true,
	}
	if !item.TrackStock {
		item.Stock = 0
		item.ReorderLevel = 0
	}

	created, err := s.repo.CreateMenuItem(ctx, item)
	if err != nil {
		return domain.MenuItem{}, err
	}
	s.logAudit(ctx, "menu_item_create", "menu_item", created.ID, fmt.Sprintf("name=%s,price=%d", created.Name, created.UnitPrice))
	return *created, nil
}

func (s *Service) UpdateMenuItem(ctx context.Context, id string, req domain.MenuItemUpdateRequest) (domain.MenuItem, error) {
	if _, err := s.requireRole(ctx, "admin", "manager"); err != nil {
		return domain.MenuItem{}, err
	}

	existing, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return domain.MenuItem{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.MenuItem{}, store.ErrValidation
		}
		updated.Name = name
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(strings.ToLower(*req.Category))
	}
	if req.UnitPrice != nil {
		if *req.UnitPrice < 1 {
			return domain.MenuItem{}, store.ErrValidation
		}
		updated.UnitPrice = *req.UnitPrice
	}
	if req.VATRate != nil {
		if *req.VATRate < 0 || *req.VATRate > 100 {
			return domain.MenuItem{}, store.ErrValidation
		}
		updated.VATRate = *req.VATRate
	}
	if req.TrackStock != nil {
		updated.TrackStock = *req.TrackStock
	}
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			return domain.MenuItem{}, store.ErrValidation
		}
		updated.ReorderLevel = *req.ReorderLevel
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateMenuItem(ctx, updated)
	if err != nil {
		return domain.MenuItem{}, err
	}
	s.logAudit(ctx, "menu_item_update", "menu_item", saved.ID, fmt.Sprintf("active=%t,price=%d", saved.Active, saved.UnitPrice))
	return *saved, nil
}

func (s *Service) RestockItem(ctx context.Context, id string, qty int) (domain.MenuItem, error) {
	if _, err := s.requireRole(ctx, "admin", "manager"); err != nil {
		return domain.MenuItem{}, err
	}
	if qty < 1 {
		return domain.MenuItem{}, store.ErrValidation
	}

	item, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return domain.MenuItem{}, err
	}
	if !item.TrackStock {
		return domain.MenuItem{}, store.ErrValidation
	}

	if err := s.repo.IncreaseStock(ctx, []domain.StockAdjustment{{ItemID: id, Qty: qty}}); err != nil {
		return domain.MenuItem{}, err
	}
	s.logAudit(ctx, "stock_increase", "menu_item", id, fmt.Sprintf("qty=%d", qty))

	restocked, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return domain.MenuItem{}, err
	}
	return *restocked, nil
}

func (s *Service) ListLowStock(ctx context.Context) ([]domain.LowStockItem, error) {
	return s.repo.ListLowStock(ctx)
}

// Sales.

// buildCart replays the requested lines against current menu data, applying
// the same guards a terminal applies while the order is composed. Requested
// quantities beyond available stock fail the whole sale.
func (s *Service) buildCart(ctx context.Context, orderType string, serviceOn bool, discount int64, lines []domain.SaleLineRequest) (*cart.Cart, map[string]domain.MenuItem, error) {
	if len(lines) == 0 {
		return nil, nil, cart.ErrEmptyCart
	}

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.Qty < 1 {
			return nil, nil, store.ErrValidation
		}
		ids = append(ids, line.ItemID)
	}

	items, err := s.repo.GetMenuItems(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	c := cart.New(s.serviceRate)
	c.OrderType = orderType
	c.ServiceOn = serviceOn
	for _, line := range lines {
		item, exists := items[line.ItemID]
		if !exists || !item.Active {
			return nil, nil, store.ErrValidation
		}
		for i := 0; i < line.Qty; i++ {
			if err := c.Add(item); err != nil {
				return nil, nil, err
			}
		}
	}
	if discount != 0 {
		c.SetDiscount(discount)
	}
	return c, items, nil
}

func saleLinesFromCart(c *cart.Cart) []domain.SaleLine {
	cartLines := c.Lines()
	lines := make([]domain.SaleLine, 0, len(cartLines))
	for _, line := range cartLines {
		lines = append(lines, domain.SaleLine{
			ItemID:    line.ItemID,
			Name:      line.Name,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice,
			VATRate:   line.VATRate,
			LineTotal: line.LineTotal(),
		})
	}
	return lines
}

func adjustmentsFromLines(lines []domain.SaleLine) []domain.StockAdjustment {
	adjustments := make([]domain.StockAdjustment, 0, len(lines))
	for _, line := range lines {
		adjustments = append(adjustments, domain.StockAdjustment{ItemID: line.ItemID, Qty: line.Qty})
	}
	return adjustments
}

// CreateSale settles a takeaway or delivery order immediately. Dine-in orders
// go through the table flow; submitting one here returns cart.ErrDineInCart.
func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.SaleResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.SaleResponse{}, ErrForbidden
	}

	if req.OrderType == "" {
		req.OrderType = domain.OrderTypeTakeaway
	}
	if req.OrderType != domain.OrderTypeTakeaway && req.OrderType != domain.OrderTypeDelivery && req.OrderType != domain.OrderTypeDineIn {
		return domain.SaleResponse{}, store.ErrValidation
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = xid.New("idem")
	}

	if existing, err := s.repo.FindSaleByIdempotency(ctx, req.IdempotencyKey); err == nil {
		return domain.SaleResponse{Sale: *existing, Duplicate: true}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.SaleResponse{}, err
	}

	c, _, err := s.buildCart(ctx, req.OrderType, req.ServiceCharge, req.Discount, req.Lines)
	if err != nil {
		return domain.SaleResponse{}, err
	}
	if err := c.CheckoutGuard(); err != nil {
		return domain.SaleResponse{}, err
	}

	lines := saleLinesFromCart(c)
	if err := s.repo.DecreaseStock(ctx, adjustmentsFromLines(lines)); err != nil {
		return domain.SaleResponse{}, err
	}

	totals := c.Totals()
	now := time.Now().UTC()
	sale := domain.Sale{
		ID:                xid.New("sale"),
		OrderType:         req.OrderType,
		PaymentMethod:     req.PaymentMethod,
		InclusiveSubtotal: totals.InclusiveSubtotal,
		Subtotal:          totals.Subtotal,
		VATAmount:         totals.VATAmount,
		ServiceCharge:     totals.ServiceCharge,
		Discount:          totals.Discount,
		Total:             totals.Total,
		Status:            domain.SaleStatusPaid,
		IdempotencyKey:    req.IdempotencyKey,
		CreatedBy:         actor.Username,
		CreatedAt:         now,
		SettledAt:         &now,
		Lines:             lines,
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		s.restock(ctx, adjustmentsFromLines(sale.Lines))
		if errors.Is(err, store.ErrConflict) {
			if existing, lookupErr := s.repo.FindSaleByIdempotency(ctx, req.IdempotencyKey); lookupErr == nil {
				return domain.SaleResponse{Sale: *existing, Duplicate: true}, nil
			}
		}
		return domain.SaleResponse{}, err
	}

	s.settleSaleLedger(ctx, created)
	s.logAudit(ctx, "sale_create", "sale", created.ID, fmt.Sprintf("total=%d,method=%s", created.Total, created.PaymentMethod))
	return domain.SaleResponse{Sale: *created}, nil
}

// settleSaleLedger posts the finance side effects of a paid sale: the income
// transaction the reports aggregate, the VAT entry, and the receiving balance.
// Entries are dated from settlement, so a table paid after midnight lands on
// the local day the money actually arrived.
func (s *Service) settleSaleLedger(ctx context.Context, sale *domain.Sale) {
	postedAt := sale.CreatedAt
	if sale.SettledAt != nil {
		postedAt = *sale.SettledAt
	}

	_, err := s.repo.CreateTransaction(ctx, domain.Transaction{
		ID:            xid.New("tx"),
		Type:          domain.TxTypeIncome,
		Amount:        sale.Total,
		PaymentMethod: sale.PaymentMethod,
		Description:   "Sale " + sale.ID,
		Date:          postedAt,
		Status:        domain.TxStatusCompleted,
		SourceType:    "sale",
		SourceID:      sale.ID,
	})
	if err != nil {
		log.Printf("[service] WARN: failed to post income transaction sale=%s: %v", sale.ID, err)
	}

	if sale.VATAmount > 0 {
		_, err := s.repo.CreateVATEntry(ctx, domain.VATEntry{
			ID:     xid.New("vat"),
			SaleID: sale.ID,
			Amount: sale.VATAmount,
			Date:   postedAt,
		})
		if err != nil {
			log.Printf("[service] WARN: failed to record VAT entry sale=%s: %v", sale.ID, err)
		}
	}

	if sale.PaymentMethod == "cash" {
		if _, err := s.repo.AdjustCashBalance(ctx, sale.Total); err != nil {
			log.Printf("[service] WARN: failed to adjust cash balance sale=%s: %v", sale.ID, err)
		}
	}
}

func (s *Service) restock(ctx context.Context, adjustments []domain.StockAdjustment) {
	if err := s.repo.IncreaseStock(ctx, adjustments); err != nil {
		log.Printf("[service] WARN: failed to restock after aborted sale: %v", err)
	}
}

// ListSales pages the sales whose creation instant falls inside the local
// date range [fromKey, toKey]; empty keys default to today.
func (s *Service) ListSales(ctx context.Context, fromKey, toKey string, limit, offset int) ([]domain.Sale, error) {
	from, to, err := s.resolveRange(fromKey, toKey)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSalesRange(ctx, from, to, limit, offset)
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSaleByID(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

// Tables.

func (s *Service) ListTables(ctx context.Context) ([]domain.DiningTable, error) {
	return s.repo.ListTables(ctx)
}

func (s *Service) CreateTable(ctx context.Context, req domain.TableCreateRequest) (domain.DiningTable, error) {
	if _, err := s.requireRole(ctx, "admin", "manager"); err != nil {
		return domain.DiningTable{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Capacity < 1 {
		return domain.DiningTable{}, store.ErrValidation
	}

	table := domain.DiningTable{
		ID:       xid.New("table"),
		Name:     req.Name,
		Capacity: req.Capacity,
		Status:   domain.TableStatusFree,
	}
	created, err := s.repo.CreateTable(ctx, table)
	if err != nil {
		return domain.DiningTable{}, err
	}
	s.logAudit(ctx, "table_create", "table", created.ID, created.Name)
	return *created, nil
}

// OpenTable starts a dine-in order: an open sale bound to the table. Stock is
// decremented as each line lands so a second table cannot oversell.
func (s *Service) OpenTable(ctx context.Context, tableID string, lines []domain.SaleLineRequest) (domain.Sale, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Sale{}, ErrForbidden
	}

	table, err := s.repo.GetTable(ctx, tableID)
	if err != nil {
		return domain.Sale{}, err
	}
	if table.Status != domain.TableStatusFree {
		return domain.Sale{}, store.ErrConflict
	}

	c, _, err := s.buildCart(ctx, domain.OrderTypeDineIn, false, 0, lines)
	if err != nil {
		return domain.Sale{}, err
	}

	saleLines := saleLinesFromCart(c)
	if err := s.repo.DecreaseStock(ctx, adjustmentsFromLines(saleLines)); err != nil {
		return domain.Sale{}, err
	}

	totals := c.Totals()
	sale := domain.Sale{
		ID:                xid.New("sale"),
		OrderType:         domain.OrderTypeDineIn,
		TableID:           table.ID,
		InclusiveSubtotal: totals.InclusiveSubtotal,
		Subtotal:          totals.Subtotal,
		VATAmount:         totals.VATAmount,
		Total:             totals.Total,
		Status:            domain.SaleStatusOpen,
		CreatedBy:         actor.Username,
		CreatedAt:         time.Now().UTC(),
		Lines:             saleLines,
	}
	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		s.restock(ctx, adjustmentsFromLines(saleLines))
		return domain.Sale{}, err
	}

	table.Status = domain.TableStatusOccupied
	table.OpenOrderID = created.ID
	if _, err := s.repo.UpdateTable(ctx, *table); err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "table_open", "table", table.ID, "sale="+created.ID)
	return *created, nil
}

// AddToTable appends lines to the table's open order.
func (s *Service) AddToTable(ctx context.Context, tableID string, lines []domain.SaleLineRequest) (domain.Sale, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.Sale{}, ErrForbidden
	}

	table, err := s.repo.GetTable(ctx, tableID)
	if err != nil {
		return domain.Sale{}, err
	}
	if table.Status != domain.TableStatusOccupied || table.OpenOrderID == "" {
		return domain.Sale{}, store.ErrConflict
	}

	sale, err := s.repo.GetSaleByID(ctx, table.OpenOrderID)
	if err != nil {
		return domain.Sale{}, err
	}
	if sale.Status != domain.SaleStatusOpen {
		return domain.Sale{}, store.ErrConflict
	}

	merged := mergeLineRequests(sale.Lines, lines)
	c, _, err := s.buildCartFromExisting(ctx, merged, lines)
	if err != nil {
		return domain.Sale{}, err
	}

	newAdjustments := make([]domain.StockAdjustment, 0, len(lines))
	for _, line := range lines {
		newAdjustments = append(newAdjustments, domain.StockAdjustment{ItemID: line.ItemID, Qty: line.Qty})
	}
	if err := s.repo.DecreaseStock(ctx, newAdjustments); err != nil {
		return domain.Sale{}, err
	}

	totals := c.Totals()
	sale.Lines = saleLinesFromCart(c)
	sale.InclusiveSubtotal = totals.InclusiveSubtotal
	sale.Subtotal = totals.Subtotal
	sale.VATAmount = totals.VATAmount
	sale.Total = totals.Total

	updated, err := s.repo.UpdateSale(ctx, *sale)
	if err != nil {
		s.restock(ctx, newAdjustments)
		return domain.Sale{}, err
	}
	s.logAudit(ctx, "table_add_items", "table", table.ID, "sale="+updated.ID)
	return *updated, nil
}

// buildCartFromExisting rebuilds the cart for the merged order but checks
// stock ceilings only against the newly requested quantities, since existing
// lines already hold their stock.
func (s *Service) buildCartFromExisting(ctx context.Context, merged []domain.SaleLineRequest, added []domain.SaleLineRequest) (*cart.Cart, map[string]domain.MenuItem, error) {
	ids := make([]string, 0, len(merged))
	for _, line := range merged {
		if line.Qty < 1 {
			return nil, nil, store.ErrValidation
		}
		ids = append(ids, line.ItemID)
	}
	items, err := s.repo.GetMenuItems(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	addedQty := make(map[string]int, len(added))
	for _, line := range added {
		addedQty[line.ItemID] += line.Qty
	}

	c := cart.New(s.serviceRate)
	c.OrderType = domain.OrderTypeDineIn
	for _, line := range merged {
		item, exists := items[line.ItemID]
		if !exists || !item.Active {
			return nil, nil, store.ErrValidation
		}
		if item.TrackStock && addedQty[line.ItemID] > item.Stock {
			return nil, nil, cart.ErrStockExceeded
		}
		// Held stock makes the plain ceiling too strict for existing lines.
		loose := item
		loose.TrackStock = false
		for i := 0; i < line.Qty; i++ {
			if err := c.Add(loose); err != nil {
				return nil, nil, err
			}
		}
	}
	return c, items, nil
}

func mergeLineRequests(existing []domain.SaleLine, added []domain.SaleLineRequest) []domain.SaleLineRequest {
	merged := make([]domain.SaleLineRequest, 0, len(existing)+len(added))
	index := make(map[string]int, len(existing))
	for _, line := range existing {
		index[line.ItemID] = len(merged)
		merged = append(merged, domain.SaleLineRequest{ItemID: line.ItemID, Qty: line.Qty})
	}
	for _, line := range added {
		if idx, exists := index[line.ItemID]; exists {
			merged[idx].Qty += line.Qty
			continue
		}
		index[line.ItemID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// SettleTable closes the table's open order: totals are recomputed with the
// settle-time discount and service charge, the sale is marked paid, and the
// table is freed.
func (s *Service) SettleTable(ctx context.Context, tableID string, req domain.TableSettleRequest) (domain.Sale, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.Sale{}, ErrForbidden
	}

	table, err := s.repo.GetTable(ctx, tableID)
	if err != nil {
		return domain.Sale{}, err
	}
	if table.Status != domain.TableStatusOccupied || table.OpenOrderID == "" {
		return domain.Sale{}, store.ErrConflict
	}

	sale, err := s.repo.GetSaleByID(ctx, table.OpenOrderID)
	if err != nil {
		return domain.Sale{}, err
	}
	if sale.Status != domain.SaleStatusOpen {
		return domain.Sale{}, store.ErrConflict
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}

	merged := make([]domain.SaleLineRequest, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		merged = append(merged, domain.SaleLineRequest{ItemID: line.ItemID, Qty: line.Qty})
	}
	c, _, err := s.buildCartFromExisting(ctx, merged, nil)
	if err != nil {
		return domain.Sale{}, err
	}
	c.ServiceOn = req.ServiceCharge
	if req.Discount != 0 {
		c.SetDiscount(req.Discount)
	}

	totals := c.Totals()
	now := time.Now().UTC()
	sale.PaymentMethod = req.PaymentMethod
	sale.InclusiveSubtotal = totals.InclusiveSubtotal
	sale.Subtotal = totals.Subtotal
	sale.VATAmount = totals.VATAmount
	sale.ServiceCharge = totals.ServiceCharge
	sale.Discount = totals.Discount
	sale.Total = totals.Total
	sale.Status = domain.SaleStatusPaid
	sale.SettledAt = &now

	updated, err := s.repo.UpdateSale(ctx, *sale)
	if err != nil {
		return domain.Sale{}, err
	}

	table.Status = domain.TableStatusFree
	table.OpenOrderID = ""
	if _, err := s.repo.UpdateTable(ctx, *table); err != nil {
		return domain.Sale{}, err
	}

	s.settleSaleLedger(ctx, updated)
	s.logAudit(ctx, "table_settle", "table", table.ID, fmt.Sprintf("sale=%s,total=%d", updated.ID, updated.Total))
	return *updated, nil
}

// Finance.

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	actor, err := s.requireRole(ctx, "admin", "manager")
	if err != nil {
		return domain.Expense{}, err
	}

	req.Category = strings.TrimSpace(strings.ToLower(req.Category))
	req.Description = strings.TrimSpace(req.Description)
	if req.Category == "" || req.Amount < 1 {
		return domain.Expense{}, store.ErrValidation
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}

	date := time.Now().UTC()
	if req.Date != "" {
		loc := localdate.Resolve(s.defaultTimezone)
		parsed, parseErr := localdate.ParseKey(req.Date, loc)
		if parseErr != nil {
			return domain.Expense{}, store.ErrValidation
		}
		date = localdate.StartOfDay(parsed, loc)
	}

	if req.PaymentMethod == "cash" {
		if _, err := s.repo.AdjustCashBalance(ctx, -req.Amount); err != nil {
			return domain.Expense{}, err
		}
	}

	expense := domain.Expense{
		ID:            xid.New("exp"),
		Category:      req.Category,
		Description:   req.Description,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Date:          date,
		CreatedBy:     actor.Username,
		CreatedAt:     time.Now().UTC(),
	}
	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}

	_, err = s.repo.CreateTransaction(ctx, domain.Transaction{
		ID:            xid.New("tx"),
		Type:          domain.TxTypeExpense,
		Amount:        created.Amount,
		PaymentMethod: created.PaymentMethod,
		Description:   created.Category + ": " + created.Description,
		Date:          created.Date,
		Status:        domain.TxStatusCompleted,
		SourceType:    "expense",
		SourceID:      created.ID,
	})
	if err != nil {
		log.Printf("[service] WARN: failed to post expense transaction expense=%s: %v", created.ID, err)
	}

	s.logAudit(ctx, "expense_create", "expense", created.ID, fmt.Sprintf("amount=%d,category=%s", created.Amount, created.Category))
	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context, fromKey, toKey string, limit int) ([]domain.Expense, error) {
	from, to, err := s.resolveRange(fromKey, toKey)
	if err != nil {
		return nil, err
	}
	return s.repo.ListExpenses(ctx, from, to, limit)
}

func (s *Service) CreateBankAccount(ctx context.Context, req domain.BankAccountCreateRequest) (domain.BankAccount, error) {
	if _, err := s.requireRole(ctx, "admin"); err != nil {
		return domain.BankAccount{}, err
	}

	req.BankName = strings.TrimSpace(req.BankName)
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	if req.BankName == "" || req.AccountNumber == "" || req.OpeningBalance < 0 {
		return domain.BankAccount{}, store.ErrValidation
	}

	account := domain.BankAccount{
		ID:            xid.New("bank"),
		BankName:      req.BankName,
		AccountName:   strings.TrimSpace(req.AccountName),
		AccountNumber: req.AccountNumber,
		Branch:        strings.TrimSpace(req.Branch),
		Balance:       req.OpeningBalance,
		CreatedAt:     time.Now().UTC(),
	}
	created, err := s.repo.CreateBankAccount(ctx, account)
	if err != nil {
		return domain.BankAccount{}, err
	}
	s.logAudit(ctx, "bank_account_create", "bank_account", created.ID, created.BankName)
	return *created, nil
}

func (s *Service) ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	return s.repo.ListBankAccounts(ctx)
}

func (s *Service) CreateMFSAccount(ctx context.Context, req domain.MFSAccountCreateRequest) (domain.MFSAccount, error) {
	if _, err := s.requireRole(ctx, "admin"); err != nil {
		return domain.MFSAccount{}, err
	}

	req.Provider = strings.TrimSpace(strings.ToLower(req.Provider))
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	if req.Provider == "" || req.AccountNumber == "" || req.OpeningBalance < 0 {
		return domain.MFSAccount{}, store.ErrValidation
	}

	account := domain.MFSAccount{
		ID:            xid.New("mfs"),
		Provider:      req.Provider,
		AccountNumber: req.AccountNumber,
		Balance:       req.OpeningBalance,
		CreatedAt:     time.Now().UTC(),
	}
	created, err := s.repo.CreateMFSAccount(ctx, account)
	if err != nil {
		return domain.MFSAccount{}, err
	}
	s.logAudit(ctx, "mfs_account_create", "mfs_account", created.ID, created.Provider)
	return *created, nil
}

func (s *Service) ListMFSAccounts(ctx context.Context) ([]domain.MFSAccount, error) {
	return s.repo.ListMFSAccounts(ctx)
}

func (s *Service) GetBalances(ctx context.Context) (domain.Balances, error) {
	return s.repo.GetBalances(ctx)
}

// CreateTransfer moves money between cash, a bank account, and an MFS wallet.
// The source is debited immediately (amount plus fee); the destination is
// credited when the transfer completes.
func (s *Service) CreateTransfer(ctx context.Context, req domain.TransferRequest) (domain.Transfer, error) {
	actor, err := s.requireRole(ctx, "admin", "manager")
	if err != nil {
		return domain.Transfer{}, err
	}

	if req.Amount < 1 || req.Fee < 0 {
		return domain.Transfer{}, store.ErrValidation
	}
	if !validAccountRef(req.FromType, req.FromID) || !validAccountRef(req.ToType, req.ToID) {
		return domain.Transfer{}, store.ErrValidation
	}
	if req.FromType == req.ToType && req.FromID == req.ToID {
		return domain.Transfer{}, store.ErrValidation
	}

	debit := req.Amount + req.Fee
	if err := s.adjustAccount(ctx, req.FromType, req.FromID, -debit); err != nil {
		return domain.Transfer{}, err
	}

	transfer := domain.Transfer{
		ID:        xid.New("trf"),
		FromType:  req.FromType,
		FromID:    req.FromID,
		ToType:    req.ToType,
		ToID:      req.ToID,
		Amount:    req.Amount,
		Fee:       req.Fee,
		Note:      strings.TrimSpace(req.Note),
		Status:    domain.TransferStatusPending,
		CreatedBy: actor.Username,
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.repo.CreateTransfer(ctx, transfer)
	if err != nil {
		if rollbackErr := s.adjustAccount(ctx, req.FromType, req.FromID, debit); rollbackErr != nil {
			log.Printf("[service] WARN: failed to roll back transfer debit: %v", rollbackErr)
		}
		return domain.Transfer{}, err
	}

	s.logAudit(ctx, "transfer_create", "transfer", created.ID, fmt.Sprintf("%s->%s amount=%d", created.FromType, created.ToType, created.Amount))
	return *created, nil
}

func (s *Service) CompleteTransfer(ctx context.Context, id string) (domain.Transfer, error) {
	if _, err := s.requireRole(ctx, "admin", "manager"); err != nil {
		return domain.Transfer{}, err
	}

	completed, err := s.repo.CompleteTransfer(ctx, id, time.Now().UTC())
	if err != nil {
		return domain.Transfer{}, err
	}

	if err := s.adjustAccount(ctx, completed.ToType, completed.ToID, completed.Amount); err != nil {
		log.Printf("[service] WARN: failed to credit transfer destination transfer=%s: %v", completed.ID, err)
	}
	s.logAudit(ctx, "transfer_complete", "transfer", completed.ID, "")
	return *completed, nil
}

func (s *Service) ListTransfers(ctx context.Context, limit int) ([]domain.Transfer, error) {
	return s.repo.ListTransfers(ctx, limit)
}

func validAccountRef(accountType, accountID string) bool {
	switch accountType {
	case domain.AccountTypeCash:
		return true
	case domain.AccountTypeBank, domain.AccountTypeMFS:
		return accountID != ""
	default:
		return false
	}
}

func (s *Service) adjustAccount(ctx context.Context, accountType, accountID string, delta int64) error {
	switch accountType {
	case domain.AccountTypeCash:
		_, err := s.repo.AdjustCashBalance(ctx, delta)
		return err
	case domain.AccountTypeBank:
		_, err := s.repo.AdjustBankBalance(ctx, accountID, delta)
		return err
	case domain.AccountTypeMFS:
		_, err := s.repo.AdjustMFSBalance(ctx, accountID, delta)
		return err
	default:
		return store.ErrValidation
	}
}

// Staff, payroll, attendance.

func (s *Service) CreateStaff(ctx context.Context, req domain.StaffCreateRequest) (domain.StaffMember, error) {
	if _, err := s.requireRole(ctx, "admin", "manager"); err != nil {
		return domain.StaffMember{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.MonthlySalary < 0 {
		return domain.StaffMember{}, store.ErrValidation
	}

	staff := domain.StaffMember{
		ID:            xid.New("staff"),
		Name:          req.Name,
		Phone:         strings.TrimSpace(req.Phone),
		Position:      strings.TrimSpace(req.Position),
		MonthlySalary: req.MonthlySalary,
		Active:        true,
		JoinedAt:      time.Now().UTC(),
	}
	created, err := s.repo.CreateStaff(ctx, staff)
	if err != nil {
		return domain.StaffMember{}, err
	}
	s.logAudit(ctx, "staff_create", "staff", created.ID, created.Name)
	return *created, nil
}

func (s *Service) ListStaff(ctx context.Context) ([]domain.StaffMember, error) {
	return s.repo.ListStaff(ctx)
}

// PaySalary runs one month's payroll for one staff member. A month can only
// be paid once; the payment is posted to the ledger as an expense.
func (s *Service) PaySalary(ctx context.Context, req domain.PayrollRequest) (domain.PayrollRecord, error) {
	if _, err := s.requireRole(ctx, "admin", "manager"); err != nil {
		return domain.PayrollRecord{}, err
	}

	req.Month = strings.TrimSpace(req.Month)
	if req.StaffID == "" || !validMonth(req.Month) {
		return domain.PayrollRecord{}, store.ErrValidation
	}
	if req.Bonus < 0 || req.Deduction < 0 {
		return domain.PayrollRecord{}, store.ErrValidation
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}

	staff, err := s.repo.GetStaff(ctx, req.StaffID)
	if err != nil {
		return domain.PayrollRecord{}, err
	}
	if !staff.Active {
		return domain.PayrollRecord{}, store.ErrValidation
	}

	if _, err := s.repo.FindPayroll(ctx, req.StaffID, req.Month); err == nil {
		return domain.PayrollRecord{}, store.ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.PayrollRecord{}, err
	}

	net := staff.MonthlySalary + req.Bonus - req.Deduction
	if net < 0 {
		net = 0
	}

	if req.PaymentMethod == "cash" && net > 0 {
		if _, err := s.repo.AdjustCashBalance(ctx, -net); err != nil {
			return domain.PayrollRecord{}, err
		}
	}

	now := time.Now().UTC()
	record := domain.PayrollRecord{
		ID:            xid.New("pay"),
		StaffID:       staff.ID,
		StaffName:     staff.Name,
		Month:         req.Month,
		BaseAmount:    staff.MonthlySalary,
		Bonus:         req.Bonus,
		Deduction:     req.Deduction,
		NetAmount:     net,
		PaymentMethod: req.PaymentMethod,
		PaidAt:        now,
	}
	created, err := s.repo.CreatePayroll(ctx, record)
	if err != nil {
		return domain.PayrollRecord{}, err
	}

	if net > 0 {
		_, err = s.repo.CreateTransaction(ctx, domain.Transaction{
			ID:            xid.New("tx"),
			Type:          domain.TxTypeExpense,
			Amount:        net,
			PaymentMethod: req.PaymentMethod,
			Description:   "Salary " + staff.Name + " " + req.Month,
			Date:          now,
			Status:        domain.TxStatusCompleted,
			SourceType:    "payroll",
			SourceID:      created.ID,
		})
		if err != nil {
			log.Printf("[service] WARN: failed to post payroll transaction payroll=%s: %v", created.ID, err)
		}
	}

	s.logAudit(ctx, "payroll_pay", "payroll", created.ID, fmt.Sprintf("staff=%s,month=%s,net=%d", staff.ID, req.Month, net))
	return *created, nil
}

func (s *Service) ListPayroll(ctx context.Context, month string) ([]domain.PayrollRecord, error) {
	return s.repo.ListPayroll(ctx, strings.TrimSpace(month))
}

func validMonth(month string) bool {
	_, err := time.Parse("2006-01", month)
	return err == nil
}

// CheckIn records today's attendance for a staff member. "Today" is the
// restaurant's local calendar date, not the UTC date.
func (s *Service) CheckIn(ctx context.Context, staffID string) (domain.AttendanceRecord, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.AttendanceRecord{}, ErrForbidden
	}

	staff, err := s.repo.GetStaff(ctx, staffID)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}

	loc := localdate.Resolve(s.defaultTimezone)
	now := time.Now().UTC()
	dateKey := localdate.Key(now, loc)

	if _, err := s.repo.FindAttendance(ctx, staff.ID, dateKey); err == nil {
		return domain.AttendanceRecord{}, store.ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.AttendanceRecord{}, err
	}

	status := domain.AttendancePresent
	if now.In(loc).Hour() >= 11 {
		status = domain.AttendanceLate
	}

	record := domain.AttendanceRecord{
		ID:      xid.New("att"),
		StaffID: staff.ID,
		Date:    dateKey,
		CheckIn: now,
		Status:  status,
	}
	created, err := s.repo.CreateAttendance(ctx, record)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	return *created, nil
}

func (s *Service) CheckOut(ctx context.Context, staffID string) (domain.AttendanceRecord, error) {
	if _, ok := ActorFromContext(ctx); !ok {
		return domain.AttendanceRecord{}, ErrForbidden
	}

	loc := localdate.Resolve(s.defaultTimezone)
	now := time.Now().UTC()
	dateKey := localdate.Key(now, loc)

	record, err := s.repo.FindAttendance(ctx, staffID, dateKey)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	if record.CheckOut != nil {
		return domain.AttendanceRecord{}, store.ErrConflict
	}

	record.CheckOut = &now
	updated, err := s.repo.UpdateAttendance(ctx, *record)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	return *updated, nil
}

func (s *Service) ListAttendance(ctx context.Context, dateKey string) ([]domain.AttendanceRecord, error) {
	if dateKey == "" {
		dateKey = localdate.Key(time.Now().UTC(), localdate.Resolve(s.defaultTimezone))
	}
	return s.repo.ListAttendance(ctx, dateKey)
}

// Suppliers and purchasing.

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	if _, err := s.requireRole(ctx, "admin", "manager"); err != nil {
		return domain.Supplier{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Supplier{}, store.ErrValidation
	}

	supplier := domain.Supplier{
		ID:        xid.New("sup"),
		Name:      req.Name,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}
	s.logAudit(ctx, "supplier_create", "supplier", created.ID, created.Name)
	return *created, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) CreatePurchaseOrder(ctx context.Context, req domain.PurchaseOrderCreateRequest) (domain.PurchaseOrder, error) {
	if _, err := s.requireRole(ctx, "admin", "manager"); err != nil {
		return domain.PurchaseOrder{}, err
	}
	if req.SupplierID == "" || len(req.Items) == 0 {
		return domain.PurchaseOrder{}, store.ErrValidation
	}

	if _, err := s.repo.GetSupplier(ctx, req.SupplierID); err != nil {
		return domain.PurchaseOrder{}, err
	}

	total := int64(0)
	items := make([]domain.PurchaseOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ItemID == "" || item.Qty < 1 || item.UnitCost < 1 {
			return domain.PurchaseOrder{}, store.ErrValidation
		}
		menuItem, err := s.repo.GetMenuItem(ctx, item.ItemID)
		if err != nil {
			return domain.PurchaseOrder{}, err
		}
		item.Name = menuItem.Name
		total += int64(item.Qty) * item.UnitCost
		items = append(items, item)
	}

	po := domain.PurchaseOrder{
		ID:         xid.New("po"),
		SupplierID: req.SupplierID,
		Status:     domain.POStatusDraft,
		TotalCost:  total,
		CreatedAt:  time.Now().UTC(),
		Items:      items,
	}
	created, err := s.repo.CreatePurchaseOrder(ctx, po)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	s.logAudit(ctx, "purchase_order_create", "purchase_order", created.ID, fmt.Sprintf("supplier=%s,total=%d", created.SupplierID, created.TotalCost))
	return *created, nil
}

func (s *Service) ListPurchaseOrders(ctx context.Context, status string, limit int) ([]domain.PurchaseOrder, error) {
	return s.repo.ListPurchaseOrders(ctx, status, limit)
}

// ReceivePurchaseOrder marks a draft PO received: stock-tracked items are
// restocked and the PO total lands on the supplier's due balance.
func (s *Service) ReceivePurchaseOrder(ctx context.Context, id string) (domain.PurchaseOrder, error) {
	actor, err := s.requireRole(ctx, "admin", "manager")
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	received, err := s.repo.ReceivePurchaseOrder(ctx, id, actor.Username, time.Now().UTC())
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	adjustments := make([]domain.StockAdjustment, 0, len(received.Items))
	for _, item := range received.Items {
		adjustments = append(adjustments, domain.StockAdjustment{ItemID: item.ItemID, Qty: item.Qty})
	}
	if err := s.repo.IncreaseStock(ctx, adjustments); err != nil {
		log.Printf("[service] WARN: failed to restock received purchase order po=%s: %v", received.ID, err)
	}
	if _, err := s.repo.AdjustSupplierDue(ctx, received.SupplierID, received.TotalCost); err != nil {
		log.Printf("[service] WARN: failed to add supplier due po=%s: %v", received.ID, err)
	}

	s.logAudit(ctx, "purchase_order_receive", "purchase_order", received.ID, fmt.Sprintf("total=%d", received.TotalCost))
	return *received, nil
}

// PaySupplierDue settles part of a supplier's outstanding due and posts the
// payment as an expense.
func (s *Service) PaySupplierDue(ctx context.Context, supplierID string, amount int64, paymentMethod string) (domain.Supplier, error) {
	if _, err := s.requireRole(ctx, "admin", "manager"); err != nil {
		return domain.Supplier{}, err
	}
	if amount < 1 {
		return domain.Supplier{}, store.ErrValidation
	}
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	supplier, err := s.repo.GetSupplier(ctx, supplierID)
	if err != nil {
		return domain.Supplier{}, err
	}
	if amount > supplier.DueAmount {
		return domain.Supplier{}, store.ErrValidation
	}

	if paymentMethod == "cash" {
		if _, err := s.repo.AdjustCashBalance(ctx, -amount); err != nil {
			return domain.Supplier{}, err
		}
	}

	updated, err := s.repo.AdjustSupplierDue(ctx, supplierID, -amount)
	if err != nil {
		return domain.Supplier{}, err
	}

	_, err = s.repo.CreateTransaction(ctx, domain.Transaction{
		ID:            xid.New("tx"),
		Type:          domain.TxTypeExpense,
		Amount:        amount,
		PaymentMethod: paymentMethod,
		Description:   "Supplier payment " + supplier.Name,
		Date:          time.Now().UTC(),
		Status:        domain.TxStatusCompleted,
		SourceType:    "supplier_payment",
		SourceID:      supplier.ID,
	})
	if err != nil {
		log.Printf("[service] WARN: failed to post supplier payment transaction supplier=%s: %v", supplier.ID, err)
	}

	s.logAudit(ctx, "supplier_pay_due", "supplier", supplier.ID, fmt.Sprintf("amount=%d", amount))
	return *updated, nil
}

// Reports.

func (s *Service) normalizeTimezone(timezone string) string {
	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		return s.defaultTimezone
	}
	return timezone
}

func (s *Service) resolveRange(fromKey, toKey string) (time.Time, time.Time, error) {
	loc := localdate.Resolve(s.defaultTimezone)
	now := time.Now().UTC()
	if toKey == "" {
		toKey = localdate.Key(now, loc)
	}
	if fromKey == "" {
		fromKey = toKey
	}
	from, err := localdate.ParseKey(fromKey, loc)
	if err != nil {
		return time.Time{}, time.Time{}, store.ErrValidation
	}
	to, err := localdate.ParseKey(toKey, loc)
	if err != nil {
		return time.Time{}, time.Time{}, store.ErrValidation
	}
	return localdate.StartOfDay(from, loc), localdate.EndOfDay(to, loc), nil
}

func (s *Service) Summary(ctx context.Context, fromKey, toKey, timezone string) (domain.PeriodSummary, error) {
	timezone = s.normalizeTimezone(timezone)
	loc := localdate.Resolve(timezone)
	now := time.Now().UTC()
	if toKey == "" {
		toKey = localdate.Key(now, loc)
	}
	if fromKey == "" {
		fromKey = toKey
	}

	key := "summary:" + fromKey + ":" + toKey + ":" + timezone
	if cached, hit, err := s.summaries.Get(ctx, key); err == nil && hit {
		return *cached, nil
	}

	summary, err := s.reports.PeriodSummary(ctx, fromKey, toKey, timezone)
	if err != nil {
		return domain.PeriodSummary{}, err
	}

	if err := s.summaries.Set(ctx, key, &summary, summaryTTL); err != nil {
		log.Printf("[service] WARN: failed to cache summary: %v", err)
	}
	return summary, nil
}

func (s *Service) ListTransactions(ctx context.Context, fromKey, toKey, txType string, limit, offset int) ([]domain.Transaction, error) {
	from, to, err := s.resolveRange(fromKey, toKey)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, domain.TransactionQuery{
		From:   from,
		To:     to,
		Type:   txType,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Service) Trend(ctx context.Context, fromKey, toKey, timezone string) ([]domain.DayBucket, error) {
	timezone = s.normalizeTimezone(timezone)
	loc := localdate.Resolve(timezone)
	if toKey == "" {
		toKey = localdate.Key(time.Now().UTC(), loc)
	}
	if fromKey == "" {
		fromKey = toKey
	}
	return s.reports.Trend(ctx, fromKey, toKey, timezone)
}

func (s *Service) TopProducts(ctx context.Context, fromKey, toKey string, limit int) ([]domain.TopProduct, error) {
	from, to, err := s.resolveRange(fromKey, toKey)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 10
	}
	return s.repo.TopProducts(ctx, from, to, limit)
}

func (s *Service) ListVATEntries(ctx context.Context, fromKey, toKey string, limit int) ([]domain.VATEntry, error) {
	from, to, err := s.resolveRange(fromKey, toKey)
	if err != nil {
		return nil, err
	}
	return s.repo.ListVATEntries(ctx, from, to, limit)
}

// ExportTransactionsCSV renders the period's transactions as CSV. The file
// name carries the viewer's local date so "today's export" matches the screen.
func (s *Service) ExportTransactionsCSV(ctx context.Context, fromKey, toKey, timezone string) (string, string, error) {
	timezone = s.normalizeTimezone(timezone)
	loc := localdate.Resolve(timezone)
	if toKey == "" {
		toKey = localdate.Key(time.Now().UTC(), loc)
	}
	if fromKey == "" {
		fromKey = toKey
	}
	csv, err := s.reports.ExportCSV(ctx, fromKey, toKey, timezone)
	if err != nil {
		return "", "", err
	}
	return csv, report.CSVFileName(timezone, time.Now().UTC()), nil
}

// Receipts.

func (s *Service) BuildReceipt(ctx context.Context, req domain.ReceiptRequest) (domain.ReceiptResponse, error) {
	req.SaleID = strings.TrimSpace(req.SaleID)
	if req.SaleID == "" {
		return domain.ReceiptResponse{}, store.ErrValidation
	}
	if req.Kind == "" {
		req.Kind = "receipt"
	}
	if req.Kind != "receipt" && req.Kind != "kot" {
		return domain.ReceiptResponse{}, store.ErrValidation
	}

	sale, err := s.repo.GetSaleByID(ctx, req.SaleID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}
	settings, err := s.repo.GetPrintSettings(ctx)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	var preview string
	if req.Kind == "kot" {
		preview = renderKOT(sale, settings)
	} else {
		preview = renderReceipt(sale, settings, s.defaultTimezone)
	}

	return domain.ReceiptResponse{
		SaleID:      sale.ID,
		Kind:        req.Kind,
		PreviewText: preview,
		FileName:    fmt.Sprintf("%s-%s.txt", req.Kind, sale.ID),
	}, nil
}

func renderReceipt(sale *domain.Sale, settings domain.PrintSettings, timezone string) string {
	loc := localdate.Resolve(timezone)
	lines := []string{
		settings.RestaurantName,
	}
	if settings.AddressLine != "" {
		lines = append(lines, settings.AddressLine)
	}
	if settings.Phone != "" {
		lines = append(lines, "Phone: "+settings.Phone)
	}
	lines = append(lines,
		"========================",
		"Order: "+sale.ID,
		"Type : "+sale.OrderType,
		"Date : "+sale.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		"------------------------",
	)
	for _, line := range sale.Lines {
		lines = append(lines, fmt.Sprintf("%s x%d", line.Name, line.Qty))
		lines = append(lines, fmt.Sprintf("  %d", line.LineTotal))
	}
	lines = append(lines, "------------------------")
	if settings.ShowVATLines {
		lines = append(lines,
			fmt.Sprintf("Subtotal : %d", sale.Subtotal),
			fmt.Sprintf("VAT      : %d", sale.VATAmount),
		)
	} else {
		lines = append(lines, fmt.Sprintf("Subtotal : %d", sale.InclusiveSubtotal))
	}
	if sale.ServiceCharge > 0 {
		lines = append(lines, fmt.Sprintf("Service  : %d", sale.ServiceCharge))
	}
	if sale.Discount > 0 {
		lines = append(lines, fmt.Sprintf("Discount : %d", sale.Discount))
	}
	lines = append(lines,
		fmt.Sprintf("Total    : %d", sale.Total),
		"========================",
		settings.FooterText,
		"",
	)
	return strings.Join(lines, "\n")
}

// renderKOT is the kitchen ticket: items and quantities only, no money.
func renderKOT(sale *domain.Sale, settings domain.PrintSettings) string {
	lines := []string{
		settings.RestaurantName + " KOT",
		"Order: " + sale.ID,
	}
	if sale.TableID != "" {
		lines = append(lines, "Table: "+sale.TableID)
	}
	lines = append(lines, "------------------------")
	for _, line := range sale.Lines {
		lines = append(lines, fmt.Sprintf("%dx %s", line.Qty, line.Name))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// Print settings.

func (s *Service) GetPrintSettings(ctx context.Context) (domain.PrintSettings, error) {
	return s.repo.GetPrintSettings(ctx)
}

func (s *Service) UpdatePrintSettings(ctx context.Context, settings domain.PrintSettings) (domain.PrintSettings, error) {
	if _, err := s.requireRole(ctx, "admin", "manager"); err != nil {
		return domain.PrintSettings{}, err
	}
	if settings.PaperSize != "" && settings.PaperSize != "58mm" && settings.PaperSize != "80mm" {
		return domain.PrintSettings{}, store.ErrValidation
	}

	if err := s.repo.SavePrintSettings(ctx, settings); err != nil {
		return domain.PrintSettings{}, err
	}
	s.logAudit(ctx, "print_settings_update", "print_settings", "1", "")
	return s.repo.GetPrintSettings(ctx)
}

// Users and audit.

func (s *Service) Authenticate(ctx context.Context, username string) (domain.UserAccount, error) {
	user, err := s.repo.FindUser(ctx, username)
	if err != nil {
		return domain.UserAccount{}, err
	}
	return *user, nil
}

func (s *Service) CreateStaffUser(ctx context.Context, req domain.StaffUserCreateRequest, passwordHash string) (domain.StaffUser, error) {
	if _, err := s.requireRole(ctx, "admin"); err != nil {
		return domain.StaffUser{}, err
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || passwordHash == "" {
		return domain.StaffUser{}, store.ErrValidation
	}
	if req.Role != "admin" && req.Role != "manager" && req.Role != "staff" {
		return domain.StaffUser{}, store.ErrValidation
	}

	now := time.Now().UTC()
	err := s.repo.CreateUser(ctx, domain.UserAccount{
		Username:  req.Username,
		Password:  passwordHash,
		Role:      req.Role,
		Active:    true,
		CreatedAt: now,
	})
	if err != nil {
		return domain.StaffUser{}, err
	}

	s.logAudit(ctx, "user_create", "user", req.Username, "role="+req.Role)
	return domain.StaffUser{Username: req.Username, Role: req.Role, Active: true, CreatedAt: now}, nil
}

func (s *Service) ListStaffUsers(ctx context.Context) ([]domain.StaffUser, error) {
	if _, err := s.requireRole(ctx, "admin"); err != nil {
		return nil, err
	}

	accounts, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]domain.StaffUser, 0, len(accounts))
	for _, account := range accounts {
		users = append(users, domain.StaffUser{
			Username:  account.Username,
			Role:      account.Role,
			Active:    account.Active,
			CreatedAt: account.CreatedAt,
		})
	}
	return users, nil
}

func (s *Service) ChangePassword(ctx context.Context, username, passwordHash string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return ErrForbidden
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || passwordHash == "" {
		return store.ErrValidation
	}
	if actor.Role != "admin" && actor.Username != username {
		return ErrForbidden
	}

	if err := s.repo.UpdateUserPassword(ctx, username, passwordHash); err != nil {
		return err
	}
	s.logAudit(ctx, "user_password_change", "user", username, "")
	return nil
}

func (s *Service) ListAuditLogs(ctx context.Context, dateKey string, limit int) ([]domain.AuditLog, error) {
	if _, err := s.requireRole(ctx, "admin", "manager"); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 100
	}

	var from, to time.Time
	if strings.TrimSpace(dateKey) == "" {
		to = time.Now().UTC()
		from = to.Add(-24 * time.Hour)
	} else {
		loc := localdate.Resolve(s.defaultTimezone)
		day, err := localdate.ParseKey(dateKey, loc)
		if err != nil {
			return nil, store.ErrValidation
		}
		from = localdate.StartOfDay(day, loc)
		to = localdate.EndOfDay(day, loc)
	}
	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, action, entityType, entityID, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Printf("[service] WARN: failed to write audit log action=%s: %v", action, err)
	}
}
