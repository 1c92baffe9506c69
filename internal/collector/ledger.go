package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"FinSight/internal/model"
)

// LedgerFetcher implements Fetcher against the ledger service REST API.
type LedgerFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewLedgerFetcher creates a new fetcher with optional proxy support.
func NewLedgerFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *LedgerFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &LedgerFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *LedgerFetcher) Name() string { return "ledger" }

// ledgerTx is the expected JSON shape from the ledger API. A null amount is kept as missing.
type ledgerTx struct {
	UserID   string   `json:"user_id"`
	Date     string   `json:"date"`
	Amount   *float64 `json:"amount"`
	Type     string   `json:"type"`
	Category *string  `json:"category"`
}

func (f *LedgerFetcher) FetchTransactions(ctx context.Context, userID string, start, end time.Time) (model.Table, error) {
	q := url.Values{}
	if userID != "" {
		q.Set("user_id", userID)
	}
	if !start.IsZero() {
		q.Set("start", start.Format("2006-01-02"))
	}
	if !end.IsZero() {
		q.Set("end", end.Format("2006-01-02"))
	}
	endpoint := fmt.Sprintf("%s/api/v1/transactions?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Table{}, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return model.Table{}, fmt.Errorf("fetch transactions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return model.Table{}, fmt.Errorf("fetch transactions: status %d, body: %s", resp.StatusCode, string(body))
	}

	var items []ledgerTx
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return model.Table{}, fmt.Errorf("decode transactions: %w", err)
	}

	tbl := model.Table{Columns: []string{model.ColUserID, model.ColDate, model.ColAmount, model.ColType}}
	hasCategory := false
	for i, it := range items {
		date, err := parseDate(it.Date)
		if err != nil {
			return model.Table{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		tx := model.Transaction{
			UserID: it.UserID,
			Date:   date,
			Amount: math.NaN(),
			Type:   model.TransactionType(it.Type),
		}
		if it.Amount != nil {
			tx.Amount = *it.Amount
		}
		if it.Category != nil {
			tx.Category = *it.Category
			hasCategory = true
		}
		tbl.Rows = append(tbl.Rows, tx)
	}
	if hasCategory {
		tbl.Columns = append(tbl.Columns, model.ColCategory)
	}
	// Ensure chronological order
	sort.SliceStable(tbl.Rows, func(i, j int) bool { return tbl.Rows[i].Date.Before(tbl.Rows[j].Date) })
	return tbl, nil
}
