package exporter

import (
	"fmt"

	"dbusana/internal/sales"
	"dbusana/pkg/contracts/domain"
)

// ReportExporter writes the dashboard aggregates to CSV.
type ReportExporter struct {
	csvWriter *CSVWriter
}

// NewReportExporter creates a report exporter rooted at exportDir.
func NewReportExporter(exportDir string) *ReportExporter {
	return &ReportExporter{csvWriter: NewCSVWriter(exportDir)}
}

// ExportDailyRevenue writes the per-day revenue series.
func (e *ReportExporter) ExportDailyRevenue(series []domain.DailyRevenuePoint, filePath string) error {
	if len(series) == 0 {
		return fmt.Errorf("no daily revenue data to export")
	}

	records := make([][]string, 0, len(series))
	for _, p := range series {
		records = append(records, []string{
			p.Date.Format("2006-01-02"),
			formatFloat(p.Revenue),
			formatFloat(p.Settlement),
			formatInt(p.Orders),
			formatInt(p.Units),
		})
	}

	headers := []string{"Date", "Revenue", "Settlement", "Orders", "Units"}
	if err := e.csvWriter.WriteSimpleCSV(filePath, headers, records); err != nil {
		return fmt.Errorf("export daily revenue: %w", err)
	}
	return nil
}

// ExportMarketplaceTotals writes the channel breakdown.
func (e *ReportExporter) ExportMarketplaceTotals(totals []sales.MarketplaceTotal, filePath string) error {
	if len(totals) == 0 {
		return fmt.Errorf("no marketplace data to export")
	}

	records := make([][]string, 0, len(totals))
	for _, t := range totals {
		records = append(records, []string{
			string(t.Marketplace),
			formatFloat(t.Revenue),
			formatFloat(t.Settlement),
			formatInt(t.Orders),
			formatInt(t.Units),
		})
	}

	headers := []string{"Marketplace", "Revenue", "Settlement", "Orders", "Units"}
	if err := e.csvWriter.WriteSimpleCSV(filePath, headers, records); err != nil {
		return fmt.Errorf("export marketplace totals: %w", err)
	}
	return nil
}
