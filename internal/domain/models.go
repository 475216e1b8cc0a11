package domain

import "time"

// Money amounts are whole taka (BDT has no practical subunit in retail).
// Menu prices are VAT-inclusive; the cart decomposes them for accounting.

type MenuItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	UnitPrice    int64   `json:"unit_price"`
	VATRate      float64 `json:"vat_rate"`
	TrackStock   bool    `json:"track_stock"`
	Stock        int     `json:"stock"`
	ReorderLevel int     `json:"reorder_level"`
	Active       bool    `json:"active"`
}

type MenuItemCreateRequest struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	UnitPrice    int64   `json:"unit_price"`
	VATRate      float64 `json:"vat_rate"`
	TrackStock   bool    `json:"track_stock"`
	InitialStock int     `json:"initial_stock"`
	ReorderLevel int     `json:"reorder_level"`
}

type MenuItemUpdateRequest struct {
	Name         *string  `json:"name,omitempty"`
	Category     *string  `json:"category,omitempty"`
	UnitPrice    *int64   `json:"unit_price,omitempty"`
	VATRate      *float64 `json:"vat_rate,omitempty"`
	TrackStock   *bool    `json:"track_stock,omitempty"`
	ReorderLevel *int     `json:"reorder_level,omitempty"`
	Active       *bool    `json:"active,omitempty"`
}

type StockAdjustment struct {
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
}

type SaleLineRequest struct {
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
}

type SaleLine struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	UnitPrice int64   `json:"unit_price"`
	VATRate   float64 `json:"vat_rate"`
	LineTotal int64   `json:"line_total"`
}

type SaleCreateRequest struct {
	IdempotencyKey string            `json:"idempotency_key"`
	OrderType      string            `json:"order_type"`
	TableID        string            `json:"table_id,omitempty"`
	PaymentMethod  string            `json:"payment_method"`
	Discount       int64             `json:"discount"`
	ServiceCharge  bool              `json:"service_charge"`
	Lines          []SaleLineRequest `json:"lines"`
}

type Sale struct {
	ID                string     `json:"id"`
	OrderType         string     `json:"order_type"`
	TableID           string     `json:"table_id,omitempty"`
	PaymentMethod     string     `json:"payment_method"`
	InclusiveSubtotal int64      `json:"inclusive_subtotal"`
	Subtotal          int64      `json:"subtotal"`
	VATAmount         int64      `json:"vat_amount"`
	ServiceCharge     int64      `json:"service_charge"`
	Discount          int64      `json:"discount"`
	Total             int64      `json:"total"`
	Status            string     `json:"status"`
	IdempotencyKey    string     `json:"-"`
	CreatedBy         string     `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	SettledAt         *time.Time `json:"settled_at,omitempty"`
	Lines             []SaleLine `json:"lines"`
}

type SaleResponse struct {
	Sale      Sale `json:"sale"`
	Duplicate bool `json:"duplicate"`
}

// Transaction is the finance ledger projection reports aggregate over.
// Date is a UTC instant; callers bucket it by their local calendar date.
type Transaction struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	Status        string    `json:"status"`
	SourceType    string    `json:"source_type,omitempty"`
	SourceID      string    `json:"source_id,omitempty"`
}

// TransactionQuery is an instant-granularity range filter. Limit/Offset page
// through large ranges; the report engine accumulates pages sequentially.
type TransactionQuery struct {
	From   time.Time
	To     time.Time
	Type   string
	Limit  int
	Offset int
}

type BankAccount struct {
	ID            string    `json:"id"`
	BankName      string    `json:"bank_name"`
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	Branch        string    `json:"branch"`
	Balance       int64     `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
}

type BankAccountCreateRequest struct {
	BankName       string `json:"bank_name"`
	AccountName    string `json:"account_name"`
	AccountNumber  string `json:"account_number"`
	Branch         string `json:"branch"`
	OpeningBalance int64  `json:"opening_balance"`
}

type MFSAccount struct {
	ID            string    `json:"id"`
	Provider      string    `json:"provider"`
	AccountNumber string    `json:"account_number"`
	Balance       int64     `json:"balance"`
	CreatedAt     time.Time `json:"created_at"`
}

type MFSAccountCreateRequest struct {
	Provider       string `json:"provider"`
	AccountNumber  string `json:"account_number"`
	OpeningBalance int64  `json:"opening_balance"`
}

type TransferRequest struct {
	FromType string `json:"from_type"`
	FromID   string `json:"from_id,omitempty"`
	ToType   string `json:"to_type"`
	ToID     string `json:"to_id,omitempty"`
	Amount   int64  `json:"amount"`
	Fee      int64  `json:"fee"`
	Note     string `json:"note"`
}

type Transfer struct {
	ID          string     `json:"id"`
	FromType    string     `json:"from_type"`
	FromID      string     `json:"from_id,omitempty"`
	ToType      string     `json:"to_type"`
	ToID        string     `json:"to_id,omitempty"`
	Amount      int64      `json:"amount"`
	Fee         int64      `json:"fee"`
	Note        string     `json:"note"`
	Status      string     `json:"status"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type ExpenseCreateRequest struct {
	Category      string `json:"category"`
	Description   string `json:"description"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	Date          string `json:"date,omitempty"`
}

type Expense struct {
	ID            string    `json:"id"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	Amount        int64     `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Date          time.Time `json:"date"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

type StaffMember struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Position      string    `json:"position"`
	MonthlySalary int64     `json:"monthly_salary"`
	Active        bool      `json:"active"`
	JoinedAt      time.Time `json:"joined_at"`
}

type StaffCreateRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Position      string `json:"position"`
	MonthlySalary int64  `json:"monthly_salary"`
}

type PayrollRequest struct {
	StaffID       string `json:"staff_id"`
	Month         string `json:"month"`
	Bonus         int64  `json:"bonus"`
	Deduction     int64  `json:"deduction"`
	PaymentMethod string `json:"payment_method"`
}

type PayrollRecord struct {
	ID            string    `json:"id"`
	StaffID       string    `json:"staff_id"`
	StaffName     string    `json:"staff_name"`
	Month         string    `json:"month"`
	BaseAmount    int64     `json:"base_amount"`
	Bonus         int64     `json:"bonus"`
	Deduction     int64     `json:"deduction"`
	NetAmount     int64     `json:"net_amount"`
	PaymentMethod string    `json:"payment_method"`
	PaidAt        time.Time `json:"paid_at"`
}

type AttendanceRecord struct {
	ID       string     `json:"id"`
	StaffID  string     `json:"staff_id"`
	Date     string     `json:"date"`
	CheckIn  time.Time  `json:"check_in"`
	CheckOut *time.Time `json:"check_out,omitempty"`
	Status   string     `json:"status"`
}

type Supplier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	DueAmount int64     `json:"due_amount"`
	CreatedAt time.Time `json:"created_at"`
}

type SupplierCreateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type PurchaseOrderItem struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Qty      int    `json:"qty"`
	UnitCost int64  `json:"unit_cost"`
}

type PurchaseOrder struct {
	ID         string              `json:"id"`
	SupplierID string              `json:"supplier_id"`
	Status     string              `json:"status"`
	TotalCost  int64               `json:"total_cost"`
	CreatedAt  time.Time           `json:"created_at"`
	ReceivedAt *time.Time          `json:"received_at,omitempty"`
	ReceivedBy string              `json:"received_by,omitempty"`
	Items      []PurchaseOrderItem `json:"items"`
}

type PurchaseOrderCreateRequest struct {
	SupplierID string              `json:"supplier_id"`
	Items      []PurchaseOrderItem `json:"items"`
}

type VATEntry struct {
	ID     string    `json:"id"`
	SaleID string    `json:"sale_id"`
	Amount int64     `json:"amount"`
	Date   time.Time `json:"date"`
}

type DiningTable struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	Status      string `json:"status"`
	OpenOrderID string `json:"open_order_id,omitempty"`
}

type TableCreateRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type TableSettleRequest struct {
	PaymentMethod string `json:"payment_method"`
	Discount      int64  `json:"discount"`
	ServiceCharge bool   `json:"service_charge"`
}

// PrintSettings drives receipt and KOT rendering. Reads are merged with
// defaults so partially-written settings never break printing.
type PrintSettings struct {
	PaperSize      string `json:"paper_size"`
	RestaurantName string `json:"restaurant_name"`
	AddressLine    string `json:"address_line"`
	Phone          string `json:"phone"`
	FooterText     string `json:"footer_text"`
	ShowVATLines   bool   `json:"show_vat_lines"`
}

type ReceiptRequest struct {
	SaleID string `json:"sale_id"`
	Kind   string `json:"kind"`
}

type ReceiptResponse struct {
	SaleID      string `json:"sale_id"`
	Kind        string `json:"kind"`
	PreviewText string `json:"preview_text"`
	FileName    string `json:"file_name"`
}

// Report shapes. All period-scoped figures are re-derived from transactions
// filtered by local calendar date; only the point-in-time balances are read
// verbatim from the store.

type DayBucket struct {
	Date         string `json:"date"`
	TotalIncome  int64  `json:"total_income"`
	TotalExpense int64  `json:"total_expense"`
	OrderCount   int    `json:"order_count"`
}

type PaymentBreakdownEntry struct {
	Method string `json:"method"`
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
	Count  int    `json:"count"`
}

type PeriodSummary struct {
	From              string                  `json:"from"`
	To                string                  `json:"to"`
	Timezone          string                  `json:"timezone"`
	TotalSales        int64                   `json:"total_sales"`
	OrderCount        int                     `json:"order_count"`
	AverageOrderValue int64                   `json:"average_order_value"`
	TotalIncome       int64                   `json:"total_income"`
	TotalExpense      int64                   `json:"total_expense"`
	Net               int64                   `json:"net"`
	CashInHand        int64                   `json:"cash_in_hand"`
	BankBalance       int64                   `json:"bank_balance"`
	MFSBalance        int64                   `json:"mfs_balance"`
	PendingTransfers  int64                   `json:"pending_transfers"`
	Trend             []DayBucket             `json:"trend"`
	ByPayment         []PaymentBreakdownEntry `json:"by_payment"`
}

type Balances struct {
	CashInHand       int64 `json:"cash_in_hand"`
	BankBalance      int64 `json:"bank_balance"`
	MFSBalance       int64 `json:"mfs_balance"`
	PendingTransfers int64 `json:"pending_transfers"`
}

type TopProduct struct {
	ItemID  string `json:"item_id"`
	Name    string `json:"name"`
	QtySold int    `json:"qty_sold"`
	Revenue int64  `json:"revenue"`
}

type LowStockItem struct {
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	Stock        int    `json:"stock"`
	ReorderLevel int    `json:"reorder_level"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type StaffUserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	TxTypeIncome  = "income"
	TxTypeExpense = "expense"
)

const (
	TxStatusCompleted = "completed"
	TxStatusPending   = "pending"
)

const (
	SaleStatusOpen      = "open"
	SaleStatusPaid      = "paid"
	SaleStatusCancelled = "cancelled"
)

const (
	OrderTypeTakeaway = "takeaway"
	OrderTypeDelivery = "delivery"
	OrderTypeDineIn   = "dine_in"
)

const (
	TableStatusFree     = "free"
	TableStatusOccupied = "occupied"
)

const (
	TransferStatusPending   = "pending"
	TransferStatusCompleted = "completed"
)

const (
	AccountTypeCash = "cash"
	AccountTypeBank = "bank"
	AccountTypeMFS  = "mfs"
)

const (
	POStatusDraft    = "draft"
	POStatusReceived = "received"
)

const (
	AttendancePresent = "present"
	AttendanceLate    = "late"
)
