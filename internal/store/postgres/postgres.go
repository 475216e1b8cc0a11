package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"restaurantos/backend/internal/domain"
	"restaurantos/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, unit_price, vat_rate, track_stock, stock, reorder_level, active
		FROM menu_items
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0, 64)
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.UnitPrice, &item.VATRate, &item.TrackStock, &item.Stock, &item.ReorderLevel, &item.Active); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	if item.ID == "" || item.Name == "" || item.UnitPrice < 1 {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO menu_items (id, name, category, unit_price, vat_rate, track_stock, stock, reorder_level, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
	`, item.ID, item.Name, item.Category, item.UnitPrice, item.VATRate, item.TrackStock, item.Stock, item.ReorderLevel, item.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	created := item
	return &created, nil
}

func (s *Store) GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	var item domain.MenuItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, unit_price, vat_rate, track_stock, stock, reorder_level, active
		FROM menu_items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Category, &item.UnitPrice, &item.VATRate, &item.TrackStock, &item.Stock, &item.ReorderLevel, &item.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE menu_items
		SET name = $2, category = $3, unit_price = $4, vat_rate = $5, track_stock = $6,
			reorder_level = $7, active = $8, updated_at = now()
		WHERE id = $1
	`, item.ID, item.Name, item.Category, item.UnitPrice, item.VATRate, item.TrackStock, item.ReorderLevel, item.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetMenuItem(ctx, item.ID)
}

func (s *Store) GetMenuItems(ctx context.Context, ids []string) (map[string]domain.MenuItem, error) {
	result := make(map[string]domain.MenuItem, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, unit_price, vat_rate, track_stock, stock, reorder_level, active
		FROM menu_items
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.UnitPrice, &item.VATRate, &item.TrackStock, &item.Stock, &item.ReorderLevel, &item.Active); err != nil {
			return nil, err
		}
		result[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) IncreaseStock(ctx context.Context, adjustments []domain.StockAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, adj := range adjustments {
		if adj.Qty < 1 {
			continue
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE menu_items
			SET stock = stock + $2, updated_at = now()
			WHERE id = $1 AND track_stock = true
		`, adj.ItemID, adj.Qty)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			if _, lookupErr := s.GetMenuItem(ctx, adj.ItemID); errors.Is(lookupErr, store.ErrNotFound) {
				return store.ErrNotFound
			}
		}
	}
	return tx.Commit()
}

func (s *Store) DecreaseStock(ctx context.Context, adjustments []domain.StockAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, adj := range adjustments {
		var trackStock bool
		var stock int
		err := tx.QueryRowContext(ctx, `
			SELECT track_stock, stock
			FROM menu_items
			WHERE id = $1
			FOR UPDATE
		`, adj.ItemID).Scan(&trackStock, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}
		if !trackStock {
			continue
		}
		if stock < adj.Qty {
			return store.ErrInsufficientStock
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE menu_items
			SET stock = stock - $2, updated_at = now()
			WHERE id = $1
		`, adj.ItemID, adj.Qty)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListLowStock(ctx context.Context) ([]domain.LowStockItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, stock, reorder_level
		FROM menu_items
		WHERE track_stock = true AND active = true AND stock <= reorder_level
		ORDER BY stock ASC, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.LowStockItem, 0, 16)
	for rows.Next() {
		var item domain.LowStockItem
		if err := rows.Scan(&item.ItemID, &item.Name, &item.Stock, &item.ReorderLevel); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" || len(sale.Lines) == 0 {
		return nil, store.ErrValidation
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (
			id, order_type, table_id, payment_method, inclusive_subtotal, subtotal,
			vat_amount, service_charge, discount, total, status, idempotency_key,
			created_by, created_at, settled_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, sale.ID, sale.OrderType, nullIfEmpty(sale.TableID), sale.PaymentMethod,
		sale.InclusiveSubtotal, sale.Subtotal, sale.VATAmount, sale.ServiceCharge,
		sale.Discount, sale.Total, sale.Status, nullIfEmpty(sale.IdempotencyKey),
		sale.CreatedBy, sale.CreatedAt, nullTime(sale.SettledAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	for _, line := range sale.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_lines (sale_id, item_id, name, qty, unit_price, vat_rate, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, sale.ID, line.ItemID, line.Name, line.Qty, line.UnitPrice, line.VATRate, line.LineTotal)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	return s.findSale(ctx, "id", id)
}

func (s *Store) FindSaleByIdempotency(ctx context.Context, key string) (*domain.Sale, error) {
	return s.findSale(ctx, "idempotency_key", key)
}

func (s *Store) findSale(ctx context.Context, column string, value string) (*domain.Sale, error) {
	if column != "id" && column != "idempotency_key" {
		return nil, store.ErrValidation
	}

	var sale domain.Sale
	var tableID sql.NullString
	var idemKey sql.NullString
	var settledAt sql.NullTime

	query := `
		SELECT id, order_type, table_id, payment_method, inclusive_subtotal, subtotal,
			vat_amount, service_charge, discount, total, status, idempotency_key,
			created_by, created_at, settled_at
		FROM sales
		WHERE ` + column + ` = $1`

	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&sale.ID, &sale.OrderType, &tableID, &sale.PaymentMethod,
		&sale.InclusiveSubtotal, &sale.Subtotal, &sale.VATAmount, &sale.ServiceCharge,
		&sale.Discount, &sale.Total, &sale.Status, &idemKey,
		&sale.CreatedBy, &sale.CreatedAt, &settledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if tableID.Valid {
		sale.TableID = tableID.String
	}
	if idemKey.Valid {
		sale.IdempotencyKey = idemKey.String
	}
	sale.CreatedAt = sale.CreatedAt.UTC()
	if settledAt.Valid {
		at := settledAt.Time.UTC()
		sale.SettledAt = &at
	}

	lines, err := s.saleLines(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	sale.Lines = lines
	return &sale, nil
}

func (s *Store) saleLines(ctx context.Context, saleID string) ([]domain.SaleLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, name, qty, unit_price, vat_rate, line_total
		FROM sale_lines
		WHERE sale_id = $1
		ORDER BY id ASC
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.SaleLine, 0, 8)
	for rows.Next() {
		var line domain.SaleLine
		if err := rows.Scan(&line.ItemID, &line.Name, &line.Qty, &line.UnitPrice, &line.VATRate, &line.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *Store) UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET order_type = $2, table_id = $3, payment_method = $4, inclusive_subtotal = $5,
			subtotal = $6, vat_amount = $7, service_charge = $8, discount = $9,
			total = $10, status = $11, settled_at = $12
		WHERE id = $1
	`, sale.ID, sale.OrderType, nullIfEmpty(sale.TableID), sale.PaymentMethod,
		sale.InclusiveSubtotal, sale.Subtotal, sale.VATAmount, sale.ServiceCharge,
		sale.Discount, sale.Total, sale.Status, nullTime(sale.SettledAt))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM sale_lines WHERE sale_id = $1`, sale.ID)
	if err != nil {
		return nil, err
	}
	for _, line := range sale.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_lines (sale_id, item_id, name, qty, unit_price, vat_rate, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, sale.ID, line.ItemID, line.Name, line.Qty, line.UnitPrice, line.VATRate, line.LineTotal)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	updated := sale
	return &updated, nil
}

func (s *Store) ListSalesRange(ctx context.Context, from, to time.Time, limit, offset int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id
		FROM sales
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC, id ASC
		LIMIT $3 OFFSET $4
	`, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	sales := make([]domain.Sale, 0, len(ids))
	for _, id := range ids {
		sale, err := s.findSale(ctx, "id", id)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	return sales, nil
}

func (s *Store) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.TopProduct, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sl.item_id, MAX(sl.name), COALESCE(SUM(sl.qty),0)::int, COALESCE(SUM(sl.line_total),0)::bigint
		FROM sale_lines sl
		JOIN sales sa ON sa.id = sl.sale_id
		WHERE sa.status = $1 AND sa.created_at >= $2 AND sa.created_at <= $3
		GROUP BY sl.item_id
		ORDER BY 4 DESC, sl.item_id
		LIMIT $4
	`, domain.SaleStatusPaid, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.TopProduct, 0, limit)
	for rows.Next() {
		var p domain.TopProduct
		if err := rows.Scan(&p.ItemID, &p.Name, &p.QtySold, &p.Revenue); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if tx.ID == "" || tx.Amount < 1 {
		return nil, store.ErrValidation
	}
	if tx.Type != domain.TxTypeIncome && tx.Type != domain.TxTypeExpense {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, type, amount, payment_method, description, date, status, source_type, source_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, tx.ID, tx.Type, tx.Amount, tx.PaymentMethod, tx.Description, tx.Date, tx.Status,
		nullIfEmpty(tx.SourceType), nullIfEmpty(tx.SourceID))
	if err != nil {
		return nil, err
	}
	created := tx
	return &created, nil
}

func (s *Store) ListTransactions(ctx context.Context, q domain.TransactionQuery) ([]domain.Transaction, error) {
	limit := q.Limit
	if limit < 1 {
		limit = 500
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, amount, payment_method, description, date, status,
			COALESCE(source_type,''), COALESCE(source_id,'')
		FROM transactions
		WHERE ($1::timestamptz IS NULL OR date >= $1)
			AND ($2::timestamptz IS NULL OR date <= $2)
			AND ($3 = '' OR type = $3)
		ORDER BY date ASC, id ASC
		LIMIT $4 OFFSET $5
	`, nullTimeValue(q.From), nullTimeValue(q.To), q.Type, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0, limit)
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.Type, &tx.Amount, &tx.PaymentMethod, &tx.Description, &tx.Date, &tx.Status, &tx.SourceType, &tx.SourceID); err != nil {
			return nil, err
		}
		tx.Date = tx.Date.UTC()
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *Store) GetBalances(ctx context.Context) (domain.Balances, error) {
	var balances domain.Balances

	err := s.db.QueryRowContext(ctx, `SELECT balance FROM cash_balance WHERE id = 1`).Scan(&balances.CashInHand)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return balances, err
	}

	err = s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(balance),0)::bigint FROM bank_accounts`).Scan(&balances.BankBalance)
	if err != nil {
		return balances, err
	}
	err = s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(balance),0)::bigint FROM mfs_accounts`).Scan(&balances.MFSBalance)
	if err != nil {
		return balances, err
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount),0)::bigint FROM transfers WHERE status = $1
	`, domain.TransferStatusPending).Scan(&balances.PendingTransfers)
	if err != nil {
		return balances, err
	}
	return balances, nil
}

func (s *Store) CreateBankAccount(ctx context.Context, account domain.BankAccount) (*domain.BankAccount, error) {
	if account.ID == "" || account.BankName == "" || account.AccountNumber == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bank_accounts (id, bank_name, account_name, account_number, branch, balance, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, account.ID, account.BankName, account.AccountName, account.AccountNumber, account.Branch, account.Balance, account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	created := account
	return &created, nil
}

func (s *Store) ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bank_name, account_name, account_number, branch, balance, created_at
		FROM bank_accounts
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.BankAccount, 0, 8)
	for rows.Next() {
		var account domain.BankAccount
		if err := rows.Scan(&account.ID, &account.BankName, &account.AccountName, &account.AccountNumber, &account.Branch, &account.Balance, &account.CreatedAt); err != nil {
			return nil, err
		}
		account.CreatedAt = account.CreatedAt.UTC()
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Store) GetBankAccount(ctx context.Context, id string) (*domain.BankAccount, error) {
	var account domain.BankAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT id, bank_name, account_name, account_number, branch, balance, created_at
		FROM bank_accounts
		WHERE id = $1
	`, id).Scan(&account.ID, &account.BankName, &account.AccountName, &account.AccountNumber, &account.Branch, &account.Balance, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	return &account, nil
}

func (s *Store) AdjustBankBalance(ctx context.Context, id string, delta int64) (*domain.BankAccount, error) {
	var account domain.BankAccount
	err := s.db.QueryRowContext(ctx, `
		UPDATE bank_accounts
		SET balance = balance + $2
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING id, bank_name, account_name, account_number, branch, balance, created_at
	`, id, delta).Scan(&account.ID, &account.BankName, &account.AccountName, &account.AccountNumber, &account.Branch, &account.Balance, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, lookupErr := s.GetBankAccount(ctx, id); errors.Is(lookupErr, store.ErrNotFound) {
				return nil, store.ErrNotFound
			}
			return nil, store.ErrInsufficientBalance
		}
		return nil, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	return &account, nil
}

func (s *Store) CreateMFSAccount(ctx context.Context, account domain.MFSAccount) (*domain.MFSAccount, error) {
	if account.ID == "" || account.Provider == "" || account.AccountNumber == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mfs_accounts (id, provider, account_number, balance, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, account.ID, account.Provider, account.AccountNumber, account.Balance, account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	created := account
	return &created, nil
}

func (s *Store) ListMFSAccounts(ctx context.Context) ([]domain.MFSAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, account_number, balance, created_at
		FROM mfs_accounts
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.MFSAccount, 0, 8)
	for rows.Next() {
		var account domain.MFSAccount
		if err := rows.Scan(&account.ID, &account.Provider, &account.AccountNumber, &account.Balance, &account.CreatedAt); err != nil {
			return nil, err
		}
		account.CreatedAt = account.CreatedAt.UTC()
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Store) GetMFSAccount(ctx context.Context, id string) (*domain.MFSAccount, error) {
	var account domain.MFSAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT id, provider, account_number, balance, created_at
		FROM mfs_accounts
		WHERE id = $1
	`, id).Scan(&account.ID, &account.Provider, &account.AccountNumber, &account.Balance, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	return &account, nil
}

func (s *Store) AdjustMFSBalance(ctx context.Context, id string, delta int64) (*domain.MFSAccount, error) {
	var account domain.MFSAccount
	err := s.db.QueryRowContext(ctx, `
		UPDATE mfs_accounts
		SET balance = balance + $2
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING id, provider, account_number, balance, created_at
	`, id, delta).Scan(&account.ID, &account.Provider, &account.AccountNumber, &account.Balance, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, lookupErr := s.GetMFSAccount(ctx, id); errors.Is(lookupErr, store.ErrNotFound) {
				return nil, store.ErrNotFound
			}
			return nil, store.ErrInsufficientBalance
		}
		return nil, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	return &account, nil
}

func (s *Store) AdjustCashBalance(ctx context.Context, delta int64) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE cash_balance
		SET balance = balance + $1, updated_at = now()
		WHERE id = 1 AND balance + $1 >= 0
		RETURNING balance
	`, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrInsufficientBalance
		}
		return 0, err
	}
	return balance, nil
}

func (s *Store) CreateTransfer(ctx context.Context, transfer domain.Transfer) (*domain.Transfer, error) {
	if transfer.ID == "" || transfer.Amount < 1 {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transfers (id, from_type, from_id, to_type, to_id, amount, fee, note, status, created_by, created_at, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, transfer.ID, transfer.FromType, nullIfEmpty(transfer.FromID), transfer.ToType, nullIfEmpty(transfer.ToID),
		transfer.Amount, transfer.Fee, transfer.Note, transfer.Status, transfer.CreatedBy, transfer.CreatedAt, nullTime(transfer.CompletedAt))
	if err != nil {
		return nil, err
	}
	created := transfer
	return &created, nil
}

func (s *Store) ListTransfers(ctx context.Context, limit int) ([]domain.Transfer, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_type, COALESCE(from_id,''), to_type, COALESCE(to_id,''), amount, fee, note, status, created_by, created_at, completed_at
		FROM transfers
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transfers := make([]domain.Transfer, 0, limit)
	for rows.Next() {
		var transfer domain.Transfer
		var completedAt sql.NullTime
		if err := rows.Scan(&transfer.ID, &transfer.FromType, &transfer.FromID, &transfer.ToType, &transfer.ToID, &transfer.Amount, &transfer.Fee, &transfer.Note, &transfer.Status, &transfer.CreatedBy, &transfer.CreatedAt, &completedAt); err != nil {
			return nil, err
		}
		transfer.CreatedAt = transfer.CreatedAt.UTC()
		if completedAt.Valid {
			at := completedAt.Time.UTC()
			transfer.CompletedAt = &at
		}
		transfers = append(transfers, transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transfers, nil
}

func (s *Store) CompleteTransfer(ctx context.Context, id string, at time.Time) (*domain.Transfer, error) {
	var transfer domain.Transfer
	var completedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		UPDATE transfers
		SET status = $2, completed_at = $3
		WHERE id = $1 AND status = $4
		RETURNING id, from_type, COALESCE(from_id,''), to_type, COALESCE(to_id,''), amount, fee, note, status, created_by, created_at, completed_at
	`, id, domain.TransferStatusCompleted, at, domain.TransferStatusPending).Scan(
		&transfer.ID, &transfer.FromType, &transfer.FromID, &transfer.ToType, &transfer.ToID,
		&transfer.Amount, &transfer.Fee, &transfer.Note, &transfer.Status, &transfer.CreatedBy,
		&transfer.CreatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if lookupErr := s.db.QueryRowContext(ctx, `SELECT true FROM transfers WHERE id = $1`, id).Scan(&exists); lookupErr == nil {
				return nil, store.ErrConflict
			}
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	transfer.CreatedAt = transfer.CreatedAt.UTC()
	if completedAt.Valid {
		done := completedAt.Time.UTC()
		transfer.CompletedAt = &done
	}
	return &transfer, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" || expense.Amount < 1 || expense.Category == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, category, description, amount, payment_method, date, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, expense.ID, expense.Category, expense.Description, expense.Amount, expense.PaymentMethod, expense.Date, expense.CreatedBy, expense.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := expense
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context, from, to time.Time, limit int) ([]domain.Expense, error) {
	if limit < 1 {
		limit = 200
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, description, amount, payment_method, date, created_by, created_at
		FROM expenses
		WHERE date >= $1 AND date <= $2
		ORDER BY date DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, limit)
	for rows.Next() {
		var expense domain.Expense
		if err := rows.Scan(&expense.ID, &expense.Category, &expense.Description, &expense.Amount, &expense.PaymentMethod, &expense.Date, &expense.CreatedBy, &expense.CreatedAt); err != nil {
			return nil, err
		}
		expense.Date = expense.Date.UTC()
		expense.CreatedAt = expense.CreatedAt.UTC()
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) CreateStaff(ctx context.Context, staff domain.StaffMember) (*domain.StaffMember, error) {
	if staff.ID == "" || staff.Name == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff_members (id, name, phone, position, monthly_salary, active, joined_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, staff.ID, staff.Name, staff.Phone, staff.Position, staff.MonthlySalary, staff.Active, staff.JoinedAt)
	if err != nil {
		return nil, err
	}
	created := staff
	return &created, nil
}

func (s *Store) ListStaff(ctx context.Context) ([]domain.StaffMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, position, monthly_salary, active, joined_at
		FROM staff_members
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]domain.StaffMember, 0, 16)
	for rows.Next() {
		var staff domain.StaffMember
		if err := rows.Scan(&staff.ID, &staff.Name, &staff.Phone, &staff.Position, &staff.MonthlySalary, &staff.Active, &staff.JoinedAt); err != nil {
			return nil, err
		}
		staff.JoinedAt = staff.JoinedAt.UTC()
		members = append(members, staff)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Store) GetStaff(ctx context.Context, id string) (*domain.StaffMember, error) {
	var staff domain.StaffMember
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, position, monthly_salary, active, joined_at
		FROM staff_members
		WHERE id = $1
	`, id).Scan(&staff.ID, &staff.Name, &staff.Phone, &staff.Position, &staff.MonthlySalary, &staff.Active, &staff.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	staff.JoinedAt = staff.JoinedAt.UTC()
	return &staff, nil
}

func (s *Store) CreatePayroll(ctx context.Context, record domain.PayrollRecord) (*domain.PayrollRecord, error) {
	if record.ID == "" || record.StaffID == "" || record.Month == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_records (id, staff_id, staff_name, month, base_amount, bonus, deduction, net_amount, payment_method, paid_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, record.ID, record.StaffID, record.StaffName, record.Month, record.BaseAmount, record.Bonus, record.Deduction, record.NetAmount, record.PaymentMethod, record.PaidAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	created := record
	return &created, nil
}

func (s *Store) FindPayroll(ctx context.Context, staffID, month string) (*domain.PayrollRecord, error) {
	var record domain.PayrollRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, staff_id, staff_name, month, base_amount, bonus, deduction, net_amount, payment_method, paid_at
		FROM payroll_records
		WHERE staff_id = $1 AND month = $2
	`, staffID, month).Scan(&record.ID, &record.StaffID, &record.StaffName, &record.Month, &record.BaseAmount, &record.Bonus, &record.Deduction, &record.NetAmount, &record.PaymentMethod, &record.PaidAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	record.PaidAt = record.PaidAt.UTC()
	return &record, nil
}

func (s *Store) ListPayroll(ctx context.Context, month string) ([]domain.PayrollRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, staff_id, staff_name, month, base_amount, bonus, deduction, net_amount, payment_method, paid_at
		FROM payroll_records
		WHERE ($1 = '' OR month = $1)
		ORDER BY paid_at ASC
	`, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.PayrollRecord, 0, 16)
	for rows.Next() {
		var record domain.PayrollRecord
		if err := rows.Scan(&record.ID, &record.StaffID, &record.StaffName, &record.Month, &record.BaseAmount, &record.Bonus, &record.Deduction, &record.NetAmount, &record.PaymentMethod, &record.PaidAt); err != nil {
			return nil, err
		}
		record.PaidAt = record.PaidAt.UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) CreateAttendance(ctx context.Context, record domain.AttendanceRecord) (*domain.AttendanceRecord, error) {
	if record.ID == "" || record.StaffID == "" || record.Date == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, staff_id, date, check_in, check_out, status)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, record.ID, record.StaffID, record.Date, record.CheckIn, nullTime(record.CheckOut), record.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	created := record
	return &created, nil
}

func (s *Store) FindAttendance(ctx context.Context, staffID, dateKey string) (*domain.AttendanceRecord, error) {
	var record domain.AttendanceRecord
	var checkOut sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, staff_id, date, check_in, check_out, status
		FROM attendance_records
		WHERE staff_id = $1 AND date = $2
	`, staffID, dateKey).Scan(&record.ID, &record.StaffID, &record.Date, &record.CheckIn, &checkOut, &record.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	record.CheckIn = record.CheckIn.UTC()
	if checkOut.Valid {
		out := checkOut.Time.UTC()
		record.CheckOut = &out
	}
	return &record, nil
}

func (s *Store) UpdateAttendance(ctx context.Context, record domain.AttendanceRecord) (*domain.AttendanceRecord, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE attendance_records
		SET check_in = $2, check_out = $3, status = $4
		WHERE id = $1
	`, record.ID, record.CheckIn, nullTime(record.CheckOut), record.Status)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := record
	return &updated, nil
}

func (s *Store) ListAttendance(ctx context.Context, dateKey string) ([]domain.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, staff_id, date, check_in, check_out, status
		FROM attendance_records
		WHERE date = $1
		ORDER BY check_in ASC
	`, dateKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.AttendanceRecord, 0, 16)
	for rows.Next() {
		var record domain.AttendanceRecord
		var checkOut sql.NullTime
		if err := rows.Scan(&record.ID, &record.StaffID, &record.Date, &record.CheckIn, &checkOut, &record.Status); err != nil {
			return nil, err
		}
		record.CheckIn = record.CheckIn.UTC()
		if checkOut.Valid {
			out := checkOut.Time.UTC()
			record.CheckOut = &out
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.ID == "" || supplier.Name == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, phone, address, due_amount, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, supplier.ID, supplier.Name, supplier.Phone, supplier.Address, supplier.DueAmount, supplier.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := supplier
	return &created, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, address, due_amount, created_at
		FROM suppliers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 16)
	for rows.Next() {
		var supplier domain.Supplier
		if err := rows.Scan(&supplier.ID, &supplier.Name, &supplier.Phone, &supplier.Address, &supplier.DueAmount, &supplier.CreatedAt); err != nil {
			return nil, err
		}
		supplier.CreatedAt = supplier.CreatedAt.UTC()
		suppliers = append(suppliers, supplier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, address, due_amount, created_at
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&supplier.ID, &supplier.Name, &supplier.Phone, &supplier.Address, &supplier.DueAmount, &supplier.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	supplier.CreatedAt = supplier.CreatedAt.UTC()
	return &supplier, nil
}

func (s *Store) AdjustSupplierDue(ctx context.Context, id string, delta int64) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := s.db.QueryRowContext(ctx, `
		UPDATE suppliers
		SET due_amount = GREATEST(due_amount + $2, 0)
		WHERE id = $1
		RETURNING id, name, phone, address, due_amount, created_at
	`, id, delta).Scan(&supplier.ID, &supplier.Name, &supplier.Phone, &supplier.Address, &supplier.DueAmount, &supplier.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	supplier.CreatedAt = supplier.CreatedAt.UTC()
	return &supplier, nil
}

func (s *Store) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) (*domain.PurchaseOrder, error) {
	if po.ID == "" || po.SupplierID == "" || len(po.Items) == 0 {
		return nil, store.ErrValidation
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO purchase_orders (id, supplier_id, status, total_cost, created_at, received_at, received_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, po.ID, po.SupplierID, po.Status, po.TotalCost, po.CreatedAt, nullTime(po.ReceivedAt), nullIfEmpty(po.ReceivedBy))
	if err != nil {
		return nil, err
	}
	for _, item := range po.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO purchase_order_items (po_id, item_id, name, qty, unit_cost)
			VALUES ($1,$2,$3,$4,$5)
		`, po.ID, item.ItemID, item.Name, item.Qty, item.UnitCost)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := po
	return &created, nil
}

func (s *Store) GetPurchaseOrderByID(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	var receivedAt sql.NullTime
	var receivedBy sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, supplier_id, status, total_cost, created_at, received_at, received_by
		FROM purchase_orders
		WHERE id = $1
	`, id).Scan(&po.ID, &po.SupplierID, &po.Status, &po.TotalCost, &po.CreatedAt, &receivedAt, &receivedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	po.CreatedAt = po.CreatedAt.UTC()
	if receivedAt.Valid {
		at := receivedAt.Time.UTC()
		po.ReceivedAt = &at
	}
	if receivedBy.Valid {
		po.ReceivedBy = receivedBy.String
	}

	items, err := s.purchaseOrderItems(ctx, po.ID)
	if err != nil {
		return nil, err
	}
	po.Items = items
	return &po, nil
}

func (s *Store) purchaseOrderItems(ctx context.Context, poID string) ([]domain.PurchaseOrderItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, name, qty, unit_cost
		FROM purchase_order_items
		WHERE po_id = $1
		ORDER BY id ASC
	`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.PurchaseOrderItem, 0, 8)
	for rows.Next() {
		var item domain.PurchaseOrderItem
		if err := rows.Scan(&item.ItemID, &item.Name, &item.Qty, &item.UnitCost); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListPurchaseOrders(ctx context.Context, status string, limit int) ([]domain.PurchaseOrder, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id
		FROM purchase_orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	orders := make([]domain.PurchaseOrder, 0, len(ids))
	for _, id := range ids {
		po, err := s.GetPurchaseOrderByID(ctx, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *po)
	}
	return orders, nil
}

func (s *Store) ReceivePurchaseOrder(ctx context.Context, id, receivedBy string, at time.Time) (*domain.PurchaseOrder, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE purchase_orders
		SET status = $2, received_at = $3, received_by = $4
		WHERE id = $1 AND status <> $2
	`, id, domain.POStatusReceived, at, receivedBy)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, lookupErr := s.GetPurchaseOrderByID(ctx, id); errors.Is(lookupErr, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, store.ErrConflict
	}
	return s.GetPurchaseOrderByID(ctx, id)
}

func (s *Store) CreateVATEntry(ctx context.Context, entry domain.VATEntry) (*domain.VATEntry, error) {
	if entry.ID == "" || entry.SaleID == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vat_entries (id, sale_id, amount, date)
		VALUES ($1,$2,$3,$4)
	`, entry.ID, entry.SaleID, entry.Amount, entry.Date)
	if err != nil {
		return nil, err
	}
	created := entry
	return &created, nil
}

func (s *Store) ListVATEntries(ctx context.Context, from, to time.Time, limit int) ([]domain.VATEntry, error) {
	if limit < 1 {
		limit = 500
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_id, amount, date
		FROM vat_entries
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.VATEntry, 0, limit)
	for rows.Next() {
		var entry domain.VATEntry
		if err := rows.Scan(&entry.ID, &entry.SaleID, &entry.Amount, &entry.Date); err != nil {
			return nil, err
		}
		entry.Date = entry.Date.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) CreateTable(ctx context.Context, table domain.DiningTable) (*domain.DiningTable, error) {
	if table.ID == "" || table.Name == "" {
		return nil, store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dining_tables (id, name, capacity, status, open_order_id)
		VALUES ($1,$2,$3,$4,$5)
	`, table.ID, table.Name, table.Capacity, table.Status, nullIfEmpty(table.OpenOrderID))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}
	created := table
	return &created, nil
}

func (s *Store) ListTables(ctx context.Context) ([]domain.DiningTable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, capacity, status, COALESCE(open_order_id,'')
		FROM dining_tables
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]domain.DiningTable, 0, 16)
	for rows.Next() {
		var table domain.DiningTable
		if err := rows.Scan(&table.ID, &table.Name, &table.Capacity, &table.Status, &table.OpenOrderID); err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *Store) GetTable(ctx context.Context, id string) (*domain.DiningTable, error) {
	var table domain.DiningTable
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, capacity, status, COALESCE(open_order_id,'')
		FROM dining_tables
		WHERE id = $1
	`, id).Scan(&table.ID, &table.Name, &table.Capacity, &table.Status, &table.OpenOrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &table, nil
}

func (s *Store) UpdateTable(ctx context.Context, table domain.DiningTable) (*domain.DiningTable, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE dining_tables
		SET name = $2, capacity = $3, status = $4, open_order_id = $5
		WHERE id = $1
	`, table.ID, table.Name, table.Capacity, table.Status, nullIfEmpty(table.OpenOrderID))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := table
	return &updated, nil
}

func (s *Store) GetPrintSettings(ctx context.Context) (domain.PrintSettings, error) {
	merged := store.DefaultPrintSettings()

	var saved domain.PrintSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT paper_size, restaurant_name, address_line, phone, footer_text, show_vat_lines
		FROM print_settings
		WHERE id = 1
	`).Scan(&saved.PaperSize, &saved.RestaurantName, &saved.AddressLine, &saved.Phone, &saved.FooterText, &saved.ShowVATLines)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return merged, nil
		}
		return merged, err
	}

	if saved.PaperSize != "" {
		merged.PaperSize = saved.PaperSize
	}
	if saved.RestaurantName != "" {
		merged.RestaurantName = saved.RestaurantName
	}
	if saved.AddressLine != "" {
		merged.AddressLine = saved.AddressLine
	}
	if saved.Phone != "" {
		merged.Phone = saved.Phone
	}
	if saved.FooterText != "" {
		merged.FooterText = saved.FooterText
	}
	merged.ShowVATLines = saved.ShowVATLines
	return merged, nil
}

func (s *Store) SavePrintSettings(ctx context.Context, settings domain.PrintSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO print_settings (id, paper_size, restaurant_name, address_line, phone, footer_text, show_vat_lines, updated_at)
		VALUES (1,$1,$2,$3,$4,$5,$6,now())
		ON CONFLICT (id)
		DO UPDATE SET paper_size = EXCLUDED.paper_size, restaurant_name = EXCLUDED.restaurant_name,
			address_line = EXCLUDED.address_line, phone = EXCLUDED.phone,
			footer_text = EXCLUDED.footer_text, show_vat_lines = EXCLUDED.show_vat_lines,
			updated_at = now()
	`, settings.PaperSize, settings.RestaurantName, settings.AddressLine, settings.Phone, settings.FooterText, settings.ShowVATLines)
	return err
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) FindUser(ctx context.Context, username string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password_hash, role, active, created_at
		FROM users
		WHERE username = $1 AND active = true
	`, strings.ToLower(strings.TrimSpace(username))).Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password_hash, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

var _ store.Repository = (*Store)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullTimeValue(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return val
}
