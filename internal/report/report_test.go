package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"restaurantos/backend/internal/domain"
)

// fakeSource serves canned transactions with the same instant-range +
// limit/offset semantics as the real store.
type fakeSource struct {
	txs      []domain.Transaction
	balances domain.Balances
	calls    int
}

func (f *fakeSource) ListTransactions(_ context.Context, q domain.TransactionQuery) ([]domain.Transaction, error) {
	f.calls++
	matched := make([]domain.Transaction, 0, len(f.txs))
	for _, tx := range f.txs {
		if tx.Date.Before(q.From) || tx.Date.After(q.To) {
			continue
		}
		matched = append(matched, tx)
	}
	if q.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (f *fakeSource) GetBalances(context.Context) (domain.Balances, error) {
	return f.balances, nil
}

func income(id string, amount int64, method string, at time.Time) domain.Transaction {
	return domain.Transaction{ID: id, Type: domain.TxTypeIncome, Amount: amount, PaymentMethod: method, Date: at, Status: domain.TxStatusCompleted}
}

func expense(id string, amount int64, at time.Time) domain.Transaction {
	return domain.Transaction{ID: id, Type: domain.TxTypeExpense, Amount: amount, PaymentMethod: "cash", Date: at, Status: domain.TxStatusCompleted}
}

func TestSummaryExcludesNextLocalDay(t *testing.T) {
	// 23:30Z Jan 15 is already Jan 16 in Dhaka. A summary for local Jan 15
	// must exclude it even though its UTC calendar date matches.
	src := &fakeSource{txs: []domain.Transaction{
		income("tx-1", 500, "cash", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)),
		income("tx-2", 300, "bkash", time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)),
	}}
	eng := NewEngine(src)

	summary, err := eng.PeriodSummary(context.Background(), "2024-01-15", "2024-01-15", "Asia/Dhaka")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalSales != 500 || summary.OrderCount != 1 {
		t.Fatalf("expected only the daytime sale, got sales=%d count=%d", summary.TotalSales, summary.OrderCount)
	}

	next, err := eng.PeriodSummary(context.Background(), "2024-01-16", "2024-01-16", "Asia/Dhaka")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if next.TotalSales != 300 || next.OrderCount != 1 {
		t.Fatalf("late-night sale must land on local Jan 16, got sales=%d count=%d", next.TotalSales, next.OrderCount)
	}
}

func TestBucketCompleteness(t *testing.T) {
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	src := &fakeSource{txs: []domain.Transaction{
		income("tx-1", 100, "cash", base),
		income("tx-2", 250, "card", base.Add(26*time.Hour)),
		income("tx-3", 400, "cash", base.Add(50*time.Hour)),
		expense("tx-4", 80, base.Add(2*time.Hour)),
	}}
	eng := NewEngine(src)

	summary, err := eng.PeriodSummary(context.Background(), "2024-02-01", "2024-02-03", "Asia/Dhaka")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	var bucketIncome, bucketExpense int64
	var bucketOrders int
	for _, bucket := range summary.Trend {
		bucketIncome += bucket.TotalIncome
		bucketExpense += bucket.TotalExpense
		bucketOrders += bucket.OrderCount
	}
	if bucketIncome != summary.TotalIncome {
		t.Fatalf("bucket income %d != period income %d", bucketIncome, summary.TotalIncome)
	}
	if bucketExpense != summary.TotalExpense {
		t.Fatalf("bucket expense %d != period expense %d", bucketExpense, summary.TotalExpense)
	}
	if bucketOrders != summary.OrderCount {
		t.Fatalf("bucket orders %d != period orders %d", bucketOrders, summary.OrderCount)
	}

	for i := 1; i < len(summary.Trend); i++ {
		if summary.Trend[i-1].Date >= summary.Trend[i].Date {
			t.Fatalf("trend not sorted: %s before %s", summary.Trend[i-1].Date, summary.Trend[i].Date)
		}
	}
}

func TestAverageOfEmptyPeriodIsZero(t *testing.T) {
	eng := NewEngine(&fakeSource{})
	summary, err := eng.PeriodSummary(context.Background(), "2024-03-01", "2024-03-31", "Asia/Dhaka")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.AverageOrderValue != 0 {
		t.Fatalf("expected zero average for empty period, got %d", summary.AverageOrderValue)
	}
}

func TestBalancesTakenVerbatim(t *testing.T) {
	src := &fakeSource{balances: domain.Balances{
		CashInHand: 12000, BankBalance: 90000, MFSBalance: 4500, PendingTransfers: 700,
	}}
	eng := NewEngine(src)

	summary, err := eng.PeriodSummary(context.Background(), "2024-03-01", "2024-03-01", "UTC")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.CashInHand != 12000 || summary.BankBalance != 90000 || summary.MFSBalance != 4500 || summary.PendingTransfers != 700 {
		t.Fatalf("balances must pass through untouched, got %+v", summary)
	}
}

func TestPaginationAccumulatesUntilShortPage(t *testing.T) {
	at := time.Date(2024, 4, 10, 6, 0, 0, 0, time.UTC)
	src := &fakeSource{}
	for i := 0; i < pageSize+50; i++ {
		src.txs = append(src.txs, income("tx", 10, "cash", at))
	}
	eng := NewEngine(src)

	summary, err := eng.PeriodSummary(context.Background(), "2024-04-10", "2024-04-10", "Asia/Dhaka")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if want := int64(10 * (pageSize + 50)); summary.TotalSales != want {
		t.Fatalf("expected %d across pages, got %d", want, summary.TotalSales)
	}
	if src.calls < 2 {
		t.Fatalf("expected at least two sequential pages, got %d calls", src.calls)
	}
}

func TestPaginationSafetyCap(t *testing.T) {
	at := time.Date(2024, 4, 10, 6, 0, 0, 0, time.UTC)
	src := &fakeSource{}
	for i := 0; i < maxRecords+pageSize; i++ {
		src.txs = append(src.txs, income("tx", 1, "cash", at))
	}
	eng := NewEngine(src)

	summary, err := eng.PeriodSummary(context.Background(), "2024-04-10", "2024-04-10", "Asia/Dhaka")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalSales > maxRecords {
		t.Fatalf("safety cap exceeded: accumulated %d records", summary.TotalSales)
	}
}

func TestPaymentBreakdownLabels(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{txs: []domain.Transaction{
		income("tx-1", 100, "bkash", at),
		income("tx-2", 200, "bkash", at),
		income("tx-3", 50, "giftcard", at),
	}}
	eng := NewEngine(src)

	summary, err := eng.PeriodSummary(context.Background(), "2024-05-01", "2024-05-01", "Asia/Dhaka")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	labels := map[string]string{}
	for _, entry := range summary.ByPayment {
		labels[entry.Method] = entry.Label
	}
	if labels["bkash"] != "bKash" {
		t.Fatalf("known method must be relabeled, got %q", labels["bkash"])
	}
	if labels["giftcard"] != "Giftcard" {
		t.Fatalf("unknown method must be capitalized, got %q", labels["giftcard"])
	}
}

func TestExportCSVQuotingAndRefusal(t *testing.T) {
	eng := NewEngine(&fakeSource{})
	if _, err := eng.ExportCSV(context.Background(), "2024-06-01", "2024-06-01", "Asia/Dhaka"); !errors.Is(err, ErrNoRows) {
		t.Fatalf("expected refusal for empty export, got %v", err)
	}

	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{txs: []domain.Transaction{
		{ID: "tx-1", Type: domain.TxTypeIncome, Amount: 500, PaymentMethod: "cash", Description: `sale of "special" platter`, Date: at, Status: domain.TxStatusCompleted},
	}}
	eng = NewEngine(src)

	csv, err := eng.ExportCSV(context.Background(), "2024-06-01", "2024-06-01", "Asia/Dhaka")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(csv, "Date,Type,Description,Payment Method,Amount,Status\n") {
		t.Fatalf("unexpected header: %q", csv)
	}
	if !strings.Contains(csv, `"sale of ""special"" platter"`) {
		t.Fatalf("embedded quotes must be doubled: %q", csv)
	}
}

func TestCSVFileNameUsesViewerLocalDate(t *testing.T) {
	now := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)
	if got := CSVFileName("Asia/Dhaka", now); got != "transactions-2024-01-16.csv" {
		t.Fatalf("expected local-date filename, got %s", got)
	}
}
