package collector

import (
	"bytes"
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"FinSight/internal/model"
	"FinSight/internal/synth"
)

const sampleCSV = `user_id,date,amount,type,category
u1,2024-01-03,2500,income,salary
u1,2024-01-05,80.5,expense,food
u1,2024-01-09,,expense,food
u2,2024-01-04,40,expense,transport
u1,2024-02-02,1200,expense,rent
`

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if tbl.Len() != 5 {
		t.Fatalf("got %d rows, want 5", tbl.Len())
	}
	for _, col := range []string{model.ColUserID, model.ColDate, model.ColAmount, model.ColType, model.ColCategory} {
		if !tbl.HasColumn(col) {
			t.Errorf("missing column %s", col)
		}
	}
	if !math.IsNaN(tbl.Rows[2].Amount) {
		t.Errorf("blank amount = %v, want NaN", tbl.Rows[2].Amount)
	}
	if tbl.Rows[1].Amount != 80.5 || tbl.Rows[1].Type != model.TypeExpense {
		t.Errorf("row 1 = %+v", tbl.Rows[1])
	}
}

func TestReadCSV_PartialHeader(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("user_id,amount,note\nu1,5,hello\n"))
	if err != nil {
		t.Fatal(err)
	}
	if tbl.HasColumn(model.ColDate) || len(tbl.Columns) != 2 {
		t.Errorf("Columns = %v", tbl.Columns)
	}
}

func TestReadCSV_BadAmount(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("user_id,date,amount\nu1,2024-01-01,abc\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line-numbered error, got %v", err)
	}
}

func TestCSVFetcher_FiltersUserAndRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewCSVFetcher(path)
	start := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	tbl, err := f.FetchTransactions(context.Background(), "u1", start, end)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("got %d rows, want 2", tbl.Len())
	}
	for _, tx := range tbl.Rows {
		if tx.UserID != "u1" {
			t.Errorf("unexpected user %s", tx.UserID)
		}
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	src := synth.Ledger(synth.Options{Users: 2, IncomePerUser: 3, ExpensePerUser: 3})
	var buf bytes.Buffer
	if err := WriteCSV(&buf, src); err != nil {
		t.Fatal(err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != src.Len() {
		t.Fatalf("got %d rows, want %d", got.Len(), src.Len())
	}
	for i := range src.Rows {
		a, b := src.Rows[i], got.Rows[i]
		if a.UserID != b.UserID || !a.Date.Equal(b.Date) || a.Amount != b.Amount || a.Type != b.Type || a.Category != b.Category {
			t.Fatalf("row %d: %+v != %+v", i, b, a)
		}
	}
}

func TestLedgerFetcher(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"user_id":"u1","date":"2024-01-05","amount":20,"type":"expense","category":"food"},
			{"user_id":"u1","date":"2024-01-02","amount":null,"type":"income","category":null}
		]`))
	}))
	defer srv.Close()

	f := NewLedgerFetcher(srv.URL, "secret", "", 5*time.Second)
	tbl, err := f.FetchTransactions(context.Background(), "u1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	if err != nil {
		t.Fatalf("FetchTransactions: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !strings.Contains(gotQuery, "user_id=u1") || !strings.Contains(gotQuery, "start=2024-01-01") {
		t.Errorf("query = %q", gotQuery)
	}
	if tbl.Len() != 2 || !tbl.HasColumn(model.ColCategory) {
		t.Fatalf("table = %+v", tbl)
	}
	if !tbl.Rows[0].Date.Before(tbl.Rows[1].Date) {
		t.Error("rows not sorted by date")
	}
	if tbl.Rows[0].HasAmount() {
		t.Error("null amount should be missing")
	}
}

func TestLedgerFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewLedgerFetcher(srv.URL, "", "", time.Second).FetchTransactions(context.Background(), "u1", time.Time{}, time.Time{})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestCollector_Collect(t *testing.T) {
	tbl := synth.Ledger(synth.Options{Users: 2, IncomePerUser: 20, ExpensePerUser: 20})
	c := NewCollector(&StaticFetcher{Table: tbl}, 10)
	c.Now = func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }

	got, err := c.Collect(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 11 {
		t.Errorf("got %d rows, want 11", got.Len())
	}

	c.Fetcher = &StaticFetcher{Err: errors.New("down")}
	if _, err := c.Collect(context.Background(), "user-1"); err == nil {
		t.Error("expected fetch error")
	}
}

func TestBuildSnapshot(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	tbl := model.NewTable([]model.Transaction{
		{UserID: "u", Date: day(1), Amount: 1000, Type: model.TypeIncome, Category: "salary"},
		{UserID: "u", Date: day(2), Amount: 100, Type: model.TypeExpense, Category: "food"},
		{UserID: "u", Date: day(3), Amount: 50, Type: model.TypeExpense, Category: "food"},
		{UserID: "u", Date: day(4), Amount: 600, Type: model.TypeExpense, Category: "rent"},
		{UserID: "u", Date: day(10), Amount: 2000, Type: model.TypeIncome, Category: "salary"},
		{UserID: "other", Date: day(5), Amount: 9, Type: model.TypeExpense, Category: "misc"},
	})
	snap := BuildSnapshot(tbl, "u")

	if snap.UserTransactionCount != 5 {
		t.Errorf("UserTransactionCount = %d", snap.UserTransactionCount)
	}
	if snap.AvgIncome7d != 1500 || snap.UserAvgIncome != 1500 {
		t.Errorf("income avg = %v / %v, want 1500", snap.AvgIncome7d, snap.UserAvgIncome)
	}
	if snap.AvgExpense30d != 250 {
		t.Errorf("AvgExpense30d = %v, want 250", snap.AvgExpense30d)
	}
	if snap.RecentTransactionAmount != 2000 {
		t.Errorf("RecentTransactionAmount = %v", snap.RecentTransactionAmount)
	}
	if snap.AvgMonthlyIncome != 3000 || snap.AvgMonthlyExpense != 750 {
		t.Errorf("monthly = %v / %v", snap.AvgMonthlyIncome, snap.AvgMonthlyExpense)
	}
	if snap.TransactionFrequency != 0.5 {
		t.Errorf("TransactionFrequency = %v, want 0.5", snap.TransactionFrequency)
	}
	if snap.PrimaryCategory != "food" {
		t.Errorf("PrimaryCategory = %q, want food", snap.PrimaryCategory)
	}
	if len(snap.TopCategories) != 2 || snap.TopCategories[0] != "rent" {
		t.Errorf("TopCategories = %v", snap.TopCategories)
	}
}

func TestBuildSnapshot_UnknownUser(t *testing.T) {
	snap := BuildSnapshot(model.NewTable(nil), "ghost")
	if snap.UserTransactionCount != 0 || snap.TopCategories != nil || snap.AvgMonthlyIncome != 0 {
		t.Errorf("expected an empty snapshot, got %+v", snap)
	}
}
