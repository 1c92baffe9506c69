package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"FinSight/internal/model"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// CSVFetcher reads transactions from a CSV file with a header row. The file is
// re-read on every call so edits are picked up between training runs.
type CSVFetcher struct {
	Path string
}

// NewCSVFetcher creates a fetcher over the file at path.
func NewCSVFetcher(path string) *CSVFetcher {
	return &CSVFetcher{Path: path}
}

func (f *CSVFetcher) Name() string { return "csv" }

func (f *CSVFetcher) FetchTransactions(ctx context.Context, userID string, start, end time.Time) (model.Table, error) {
	if err := ctx.Err(); err != nil {
		return model.Table{}, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return model.Table{}, fmt.Errorf("open ledger csv: %w", err)
	}
	defer file.Close()

	tbl, err := ReadCSV(file)
	if err != nil {
		return model.Table{}, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return filter(tbl, userID, start, end), nil
}

// ReadCSV parses a transaction table. The header names the columns; only the
// known columns are kept. A blank amount becomes NaN.
func ReadCSV(r io.Reader) (model.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.Table{}, errors.New("empty csv")
		}
		return model.Table{}, err
	}

	index := make(map[string]int)
	var tbl model.Table
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch name {
		case model.ColUserID, model.ColDate, model.ColAmount, model.ColType, model.ColCategory:
			index[name] = i
			tbl.Columns = append(tbl.Columns, name)
		}
	}

	field := func(rec []string, col string) string {
		if i, ok := index[col]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Table{}, err
		}
		tx := model.Transaction{
			UserID:   field(rec, model.ColUserID),
			Type:     model.TransactionType(strings.ToLower(field(rec, model.ColType))),
			Category: field(rec, model.ColCategory),
			Amount:   math.NaN(),
		}
		if raw := field(rec, model.ColDate); raw != "" {
			if tx.Date, err = parseDate(raw); err != nil {
				return model.Table{}, fmt.Errorf("line %d: %w", line, err)
			}
		}
		if raw := field(rec, model.ColAmount); raw != "" {
			if tx.Amount, err = strconv.ParseFloat(raw, 64); err != nil {
				return model.Table{}, fmt.Errorf("line %d: amount %q: %w", line, raw, err)
			}
		}
		tbl.Rows = append(tbl.Rows, tx)
	}
	return tbl, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// WriteCSV writes tbl with every known column.
func WriteCSV(w io.Writer, tbl model.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{model.ColUserID, model.ColDate, model.ColAmount, model.ColType, model.ColCategory}); err != nil {
		return err
	}
	for _, tx := range tbl.Rows {
		amount := ""
		if tx.HasAmount() {
			amount = strconv.FormatFloat(tx.Amount, 'f', -1, 64)
		}
		rec := []string{tx.UserID, tx.Date.Format("2006-01-02"), amount, string(tx.Type), tx.Category}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
