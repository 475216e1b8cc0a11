// Package report derives period summaries and trend series from the raw
// transaction ledger. The store filters at date granularity in UTC, so the
// engine over-fetches the UTC range covering the local window and re-filters
// precisely by local calendar date before computing any figure. Every
// period-scoped number is re-derived from the filtered set; only point-in-time
// balances are taken verbatim from the store.
package report

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"restaurantos/backend/internal/domain"
	"restaurantos/backend/internal/localdate"
)

const (
	// pageSize is the sequential fetch page; page N+1 is requested only
	// after page N resolves.
	pageSize = 500
	// maxRecords bounds accumulation even against a store that paginates
	// indefinitely.
	maxRecords = 10000
)

// ErrNoRows is returned when an export would produce an empty file.
var ErrNoRows = errors.New("no transactions in the selected period")

// Source is the slice of the repository the engine needs.
type Source interface {
	ListTransactions(ctx context.Context, q domain.TransactionQuery) ([]domain.Transaction, error)
	GetBalances(ctx context.Context) (domain.Balances, error)
}

type Engine struct {
	source Source
}

func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// fetchRange accumulates transaction pages for the UTC window that covers the
// local period [fromKey, toKey] in loc, then keeps only transactions whose
// local calendar date falls inside the period.
func (e *Engine) fetchRange(ctx context.Context, fromKey, toKey string, loc *time.Location) ([]domain.Transaction, error) {
	fromDate, err := localdate.ParseKey(fromKey, loc)
	if err != nil {
		return nil, err
	}
	toDate, err := localdate.ParseKey(toKey, loc)
	if err != nil {
		return nil, err
	}

	// The UTC window is intentionally wider than the local-day window; the
	// precise cut happens in the refilter below.
	utcFrom := localdate.StartOfDay(fromDate, loc)
	utcTo := localdate.EndOfDay(toDate, loc)

	fetched := make([]domain.Transaction, 0, pageSize)
	for offset := 0; offset < maxRecords; offset += pageSize {
		page, err := e.source.ListTransactions(ctx, domain.TransactionQuery{
			From:   utcFrom,
			To:     utcTo,
			Limit:  pageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}
		fetched = append(fetched, page...)
		if len(page) < pageSize {
			break
		}
	}

	filtered := fetched[:0]
	for _, tx := range fetched {
		if localdate.WithinKeys(tx.Date, loc, fromKey, toKey) {
			filtered = append(filtered, tx)
		}
	}
	return filtered, nil
}

// PeriodSummary computes the full dashboard summary for the local period.
func (e *Engine) PeriodSummary(ctx context.Context, fromKey, toKey, timezone string) (domain.PeriodSummary, error) {
	loc := localdate.Resolve(timezone)

	txs, err := e.fetchRange(ctx, fromKey, toKey, loc)
	if err != nil {
		return domain.PeriodSummary{}, err
	}

	summary := domain.PeriodSummary{
		From:      fromKey,
		To:        toKey,
		Timezone:  timezone,
		Trend:     buildTrend(txs, loc),
		ByPayment: buildPaymentBreakdown(txs),
	}

	for _, tx := range txs {
		switch tx.Type {
		case domain.TxTypeIncome:
			summary.TotalIncome += tx.Amount
			summary.TotalSales += tx.Amount
			summary.OrderCount++
		case domain.TxTypeExpense:
			summary.TotalExpense += tx.Amount
		}
	}
	summary.Net = summary.TotalIncome - summary.TotalExpense
	if summary.OrderCount > 0 {
		summary.AverageOrderValue = summary.TotalSales / int64(summary.OrderCount)
	}

	// Balances are as-of-now and never re-derived from the period window.
	balances, err := e.source.GetBalances(ctx)
	if err != nil {
		return domain.PeriodSummary{}, err
	}
	summary.CashInHand = balances.CashInHand
	summary.BankBalance = balances.BankBalance
	summary.MFSBalance = balances.MFSBalance
	summary.PendingTransfers = balances.PendingTransfers

	return summary, nil
}

// Trend returns only the day buckets for the local period.
func (e *Engine) Trend(ctx context.Context, fromKey, toKey, timezone string) ([]domain.DayBucket, error) {
	loc := localdate.Resolve(timezone)
	txs, err := e.fetchRange(ctx, fromKey, toKey, loc)
	if err != nil {
		return nil, err
	}
	return buildTrend(txs, loc), nil
}

func buildTrend(txs []domain.Transaction, loc *time.Location) []domain.DayBucket {
	buckets := make(map[string]*domain.DayBucket)
	for _, tx := range txs {
		key := localdate.Key(tx.Date, loc)
		bucket, exists := buckets[key]
		if !exists {
			bucket = &domain.DayBucket{Date: key}
			buckets[key] = bucket
		}
		switch tx.Type {
		case domain.TxTypeIncome:
			bucket.TotalIncome += tx.Amount
			bucket.OrderCount++
		case domain.TxTypeExpense:
			bucket.TotalExpense += tx.Amount
		}
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	// Lexicographic order equals chronological order for YYYY-MM-DD keys.
	sort.Strings(keys)

	out := make([]domain.DayBucket, 0, len(keys))
	for _, key := range keys {
		out = append(out, *buckets[key])
	}
	return out
}

// paymentLabels relabels known methods for presentation. Unknown methods pass
// through capitalized.
var paymentLabels = map[string]string{
	"cash":   "Cash",
	"card":   "Card",
	"bkash":  "bKash",
	"nagad":  "Nagad",
	"rocket": "Rocket",
	"bank":   "Bank Transfer",
}

func labelPaymentMethod(method string) string {
	if label, ok := paymentLabels[method]; ok {
		return label
	}
	if method == "" {
		return "Unknown"
	}
	return strings.ToUpper(method[:1]) + method[1:]
}

func buildPaymentBreakdown(txs []domain.Transaction) []domain.PaymentBreakdownEntry {
	byMethod := make(map[string]*domain.PaymentBreakdownEntry)
	for _, tx := range txs {
		if tx.Type != domain.TxTypeIncome {
			continue
		}
		entry, exists := byMethod[tx.PaymentMethod]
		if !exists {
			entry = &domain.PaymentBreakdownEntry{
				Method: tx.PaymentMethod,
				Label:  labelPaymentMethod(tx.PaymentMethod),
			}
			byMethod[tx.PaymentMethod] = entry
		}
		entry.Amount += tx.Amount
		entry.Count++
	}

	out := make([]domain.PaymentBreakdownEntry, 0, len(byMethod))
	for _, entry := range byMethod {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount == out[j].Amount {
			return out[i].Method < out[j].Method
		}
		return out[i].Amount > out[j].Amount
	})
	return out
}

// ExportCSV renders the period's transactions as a CSV document. A period
// with no transactions is refused rather than producing an empty file.
func (e *Engine) ExportCSV(ctx context.Context, fromKey, toKey, timezone string) (string, error) {
	loc := localdate.Resolve(timezone)
	txs, err := e.fetchRange(ctx, fromKey, toKey, loc)
	if err != nil {
		return "", err
	}
	if len(txs) == 0 {
		return "", ErrNoRows
	}

	sort.Slice(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })

	var b strings.Builder
	b.WriteString("Date,Type,Description,Payment Method,Amount,Status\n")
	for _, tx := range txs {
		row := []string{
			localdate.Key(tx.Date, loc),
			tx.Type,
			tx.Description,
			labelPaymentMethod(tx.PaymentMethod),
			strconv.FormatInt(tx.Amount, 10),
			tx.Status,
		}
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteCell(cell))
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// CSVFileName builds the download filename carrying the viewer's local
// current date.
func CSVFileName(timezone string, now time.Time) string {
	loc := localdate.Resolve(timezone)
	return "transactions-" + localdate.Key(now, loc) + ".csv"
}

func quoteCell(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
