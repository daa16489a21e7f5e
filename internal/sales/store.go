// Package sales owns the canonical sales dataset. Records land here
// from the import pipeline and are served to the analytics and
// forecast layers. The dataset is a single CSV file under the
// configured data dir, loaded into memory at startup and rewritten on
// every merge.
package sales

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	apierrors "dbusana/internal/errors"
	"dbusana/internal/forecast"
	"dbusana/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

var csvHeader = []string{
	"OrderNumber", "Date", "ProductName", "Color", "Size",
	"Quantity", "UnitPrice", "Revenue", "HPP",
	"SettlementAmount", "PlatformFee", "Marketplace", "ImportBatchID",
}

// Store is the file-backed sales dataset. All reads are served from
// memory; Merge is the only writer.
type Store struct {
	mu      sync.RWMutex
	path    string
	logger  *slog.Logger
	records map[string]domain.SaleRecord
}

// NewStore opens the dataset at path, loading any existing file.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:    path,
		logger:  logger,
		records: make(map[string]domain.SaleRecord),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Merge upserts records keyed by SaleRecord.Key and rewrites the
// dataset file. Implements the import pipeline's RecordSink.
func (s *Store) Merge(ctx context.Context, records []domain.SaleRecord) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added, replaced := 0, 0
	for _, r := range records {
		key := r.Key()
		if _, exists := s.records[key]; exists {
			replaced++
		} else {
			added++
		}
		s.records[key] = r
	}

	if err := s.persistLocked(); err != nil {
		return 0, 0, apierrors.NewStorageError("persist dataset", err)
	}

	s.logger.InfoContext(ctx, "sales dataset updated",
		slog.Int("added", added),
		slog.Int("replaced", replaced),
		slog.Int("total", len(s.records)))

	return added, replaced, nil
}

// Count returns the number of records in the dataset.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns every record ordered by date, then order number.
func (s *Store) All() []domain.SaleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

// Between returns records with from <= date <= to. Zero bounds are
// open on that side.
func (s *Store) Between(from, to time.Time) []domain.SaleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SaleRecord
	for _, r := range s.sortedLocked() {
		if inRange(r.Date, from, to) {
			out = append(out, r)
		}
	}
	return out
}

// DailyRevenue sums revenue per calendar day over the given range and
// returns an ascending series ready for the forecast engine. Dates
// with no sales are absent, not zero.
func (s *Store) DailyRevenue(from, to time.Time) ([]forecast.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[time.Time]float64)
	for _, r := range s.records {
		day := r.Date.Truncate(24 * time.Hour)
		if !inRange(day, from, to) {
			continue
		}
		totals[day] += r.Revenue
	}
	if len(totals) == 0 {
		return nil, apierrors.ErrNoSalesData
	}

	points := make([]forecast.Point, 0, len(totals))
	for day, total := range totals {
		points = append(points, forecast.Point{Date: day, Value: total})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, nil
}

// MarketplaceTotals aggregates revenue, settlement, and order counts
// per marketplace over the given range.
type MarketplaceTotal struct {
	Marketplace domain.Marketplace `json:"marketplace"`
	Revenue     float64            `json:"revenue"`
	Settlement  float64            `json:"settlement"`
	Orders      int                `json:"orders"`
	Units       int                `json:"units"`
}

func (s *Store) MarketplaceTotals(from, to time.Time) []MarketplaceTotal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMarketplace := make(map[domain.Marketplace]*MarketplaceTotal)
	orders := make(map[domain.Marketplace]map[string]struct{})
	for _, r := range s.records {
		if !inRange(r.Date, from, to) {
			continue
		}
		mt, ok := byMarketplace[r.Marketplace]
		if !ok {
			mt = &MarketplaceTotal{Marketplace: r.Marketplace}
			byMarketplace[r.Marketplace] = mt
			orders[r.Marketplace] = make(map[string]struct{})
		}
		mt.Revenue += r.Revenue
		mt.Settlement += r.SettlementAmount
		mt.Units += r.Quantity
		orders[r.Marketplace][r.OrderNumber] = struct{}{}
	}

	out := make([]MarketplaceTotal, 0, len(byMarketplace))
	for mp, mt := range byMarketplace {
		mt.Orders = len(orders[mp])
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Revenue > out[j].Revenue
	})
	return out
}

// ProductTotal aggregates per product name.
type ProductTotal struct {
	ProductName string  `json:"product_name"`
	Revenue     float64 `json:"revenue"`
	Units       int     `json:"units"`
	GrossProfit float64 `json:"gross_profit"`
}

// ProductTotals returns per-product aggregates sorted by revenue,
// capped at limit (0 means all).
func (s *Store) ProductTotals(from, to time.Time, limit int) []ProductTotal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byProduct := make(map[string]*ProductTotal)
	for _, r := range s.records {
		if !inRange(r.Date, from, to) {
			continue
		}
		pt, ok := byProduct[r.ProductName]
		if !ok {
			pt = &ProductTotal{ProductName: r.ProductName}
			byProduct[r.ProductName] = pt
		}
		pt.Revenue += r.Revenue
		pt.Units += r.Quantity
		pt.GrossProfit += r.GrossProfit()
	}

	out := make([]ProductTotal, 0, len(byProduct))
	for _, pt := range byProduct {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Revenue > out[j].Revenue
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) sortedLocked() []domain.SaleRecord {
	out := make([]domain.SaleRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].OrderNumber < out[j].OrderNumber
	})
	return out
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

// load reads the dataset file if it exists. Corrupt rows are skipped
// with a warning rather than failing startup.
func (s *Store) load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apierrors.NewStorageError("open dataset", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return apierrors.NewStorageError("read dataset", err)
	}

	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		record, err := unmarshalRow(row)
		if err != nil {
			skipped++
			s.logger.Warn("skipping corrupt dataset row",
				slog.Int("row", i+1),
				slog.String("error", err.Error()))
			continue
		}
		s.records[record.Key()] = record
	}

	s.logger.Info("sales dataset loaded",
		slog.String("path", s.path),
		slog.Int("records", len(s.records)),
		slog.Int("skipped", skipped))
	return nil
}

// persistLocked rewrites the dataset file. Callers hold the write lock.
func (s *Store) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open temp file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return err
	}
	for _, r := range s.sortedLocked() {
		if err := writer.Write(marshalRow(r)); err != nil {
			f.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}

func marshalRow(r domain.SaleRecord) []string {
	return []string{
		r.OrderNumber,
		r.Date.Format(dateLayout),
		r.ProductName,
		r.Color,
		r.Size,
		strconv.Itoa(r.Quantity),
		formatFloat(r.UnitPrice),
		formatFloat(r.Revenue),
		formatFloat(r.HPP),
		formatFloat(r.SettlementAmount),
		formatFloat(r.PlatformFee),
		string(r.Marketplace),
		r.ImportBatchID,
	}
}

func unmarshalRow(row []string) (domain.SaleRecord, error) {
	if len(row) < len(csvHeader) {
		return domain.SaleRecord{}, fmt.Errorf("expected %d fields, got %d", len(csvHeader), len(row))
	}

	date, err := time.Parse(dateLayout, row[1])
	if err != nil {
		return domain.SaleRecord{}, fmt.Errorf("bad date %q", row[1])
	}
	quantity, err := strconv.Atoi(row[5])
	if err != nil {
		return domain.SaleRecord{}, fmt.Errorf("bad quantity %q", row[5])
	}

	floats := make([]float64, 5)
	for i, idx := range []int{6, 7, 8, 9, 10} {
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return domain.SaleRecord{}, fmt.Errorf("bad number %q in column %s", row[idx], csvHeader[idx])
		}
		floats[i] = v
	}

	record := domain.SaleRecord{
		OrderNumber:      row[0],
		Date:             date,
		ProductName:      row[2],
		Color:            row[3],
		Size:             row[4],
		Quantity:         quantity,
		UnitPrice:        floats[0],
		Revenue:          floats[1],
		HPP:              floats[2],
		SettlementAmount: floats[3],
		PlatformFee:      floats[4],
		Marketplace:      domain.Marketplace(row[11]),
		ImportBatchID:    row[12],
	}
	if !record.IsValid() {
		return domain.SaleRecord{}, fmt.Errorf("record fails validation")
	}
	return record, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
