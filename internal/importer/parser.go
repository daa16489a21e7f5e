package importer

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	apierrors "dbusana/internal/errors"
	"dbusana/pkg/contracts/domain"
)

// ParseResult is the outcome of reading one export file.
type ParseResult struct {
	Records   []domain.SaleRecord
	Issues    []domain.RowIssue
	TotalRows int // data rows seen, excluding header
}

// ParseExcel reads a marketplace xlsx export and extracts sale records.
// The sheet is chosen by scanning for one whose leading rows contain a
// recognizable header.
func ParseExcel(filePath string, logger *slog.Logger) (*ParseResult, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apierrors.NewParsingError("open xlsx", err)
	}
	defer f.Close()

	var rows [][]string
	var sheetName string
	for _, name := range f.GetSheetList() {
		candidate, rerr := f.GetRows(name)
		if rerr != nil || len(candidate) < 2 {
			continue
		}
		if cm, _, herr := findHeader(candidate); herr == nil && cm != nil {
			rows = candidate
			sheetName = name
			break
		}
	}
	if sheetName == "" {
		// Fall back to the first non-empty sheet so header errors
		// surface with the missing-column detail.
		for _, name := range f.GetSheetList() {
			candidate, rerr := f.GetRows(name)
			if rerr == nil && len(candidate) > 0 {
				rows = candidate
				sheetName = name
				break
			}
		}
	}
	if len(rows) == 0 {
		return nil, apierrors.ErrEmptyFile
	}

	logger.Debug("selected sheet for import",
		slog.String("sheet", sheetName),
		slog.Int("rows", len(rows)))

	return parseRows(rows, logger)
}

// ParseCSV reads a csv export. Both comma and semicolon delimited
// files are accepted; the delimiter is sniffed from the header line.
func ParseCSV(filePath string, logger *slog.Logger) (*ParseResult, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, apierrors.NewParsingError("open csv", err)
	}
	defer f.Close()

	// Sniff the delimiter from the first line.
	head := make([]byte, 4096)
	n, _ := f.Read(head)
	if n == 0 {
		return nil, apierrors.ErrEmptyFile
	}
	firstLine := string(head[:n])
	if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
		firstLine = firstLine[:idx]
	}
	delimiter := ','
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		delimiter = ';'
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, apierrors.NewParsingError("rewind csv", err)
	}

	reader := csv.NewReader(f)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apierrors.NewParsingError("read csv", err)
	}
	if len(rows) == 0 {
		return nil, apierrors.ErrEmptyFile
	}

	return parseRows(rows, logger)
}

// parseRows locates the header and converts each data row into a sale
// record. Rows that fail conversion become RowIssues, not errors; only
// structural problems (no header, no data) abort the parse.
func parseRows(rows [][]string, logger *slog.Logger) (*ParseResult, error) {
	cm, headerRow, err := findHeader(rows)
	if err != nil {
		if cm != nil {
			return nil, fmt.Errorf("%w: %s", apierrors.ErrMissingColumns,
				strings.Join(cm.missingRequired(), ", "))
		}
		return nil, fmt.Errorf("%w: %v", apierrors.ErrMissingColumns, err)
	}

	logger.Debug("mapped export columns",
		slog.Int("header_row", headerRow),
		slog.Int("columns", len(cm)))

	result := &ParseResult{}
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		result.TotalRows++

		record, issue := convertRow(cm, row, i+1)
		if issue != nil {
			result.Issues = append(result.Issues, *issue)
			continue
		}
		result.Records = append(result.Records, record)
	}

	if result.TotalRows == 0 {
		return nil, apierrors.ErrEmptyFile
	}

	logger.Info("parsed export file",
		slog.Int("rows", result.TotalRows),
		slog.Int("records", len(result.Records)),
		slog.Int("issues", len(result.Issues)))

	return result, nil
}

// convertRow maps one data row to a SaleRecord. The row number is
// 1-based as a spreadsheet user would count it.
func convertRow(cm columnMap, row []string, rowNum int) (domain.SaleRecord, *domain.RowIssue) {
	fail := func(col, msg string) (domain.SaleRecord, *domain.RowIssue) {
		return domain.SaleRecord{}, &domain.RowIssue{Row: rowNum, Column: col, Message: msg}
	}

	orderNumber := cm.cell(row, colOrder)
	if orderNumber == "" {
		return fail(colOrder, "empty order number")
	}

	date, err := parseDate(cm.cell(row, colDate))
	if err != nil {
		return fail(colDate, err.Error())
	}

	productName := cm.cell(row, colProduct)
	if productName == "" {
		return fail(colProduct, "empty product name")
	}

	quantity, err := parseQuantity(cm.cell(row, colQuantity))
	if err != nil {
		return fail(colQuantity, err.Error())
	}
	if quantity <= 0 {
		return fail(colQuantity, "quantity must be positive")
	}

	revenue, err := parseMoney(cm.cell(row, colRevenue))
	if err != nil {
		return fail(colRevenue, err.Error())
	}

	unitPrice, err := parseMoney(cm.cell(row, colUnitPrice))
	if err != nil {
		return fail(colUnitPrice, err.Error())
	}
	if unitPrice == 0 && quantity > 0 {
		unitPrice = revenue / float64(quantity)
	}

	hpp, err := parseMoney(cm.cell(row, colHPP))
	if err != nil {
		return fail(colHPP, err.Error())
	}

	settlement, err := parseMoney(cm.cell(row, colSettlement))
	if err != nil {
		return fail(colSettlement, err.Error())
	}

	fee, err := parseMoney(cm.cell(row, colFee))
	if err != nil {
		return fail(colFee, err.Error())
	}
	if settlement == 0 {
		settlement = revenue - fee
	}

	record := domain.SaleRecord{
		OrderNumber:      orderNumber,
		Date:             date,
		ProductName:      productName,
		Color:            cm.cell(row, colColor),
		Size:             cm.cell(row, colSize),
		Quantity:         quantity,
		UnitPrice:        unitPrice,
		Revenue:          revenue,
		HPP:              hpp,
		SettlementAmount: settlement,
		PlatformFee:      fee,
		Marketplace:      domain.NormalizeMarketplace(cm.cell(row, colMarketplace)),
	}
	if !record.IsValid() {
		return fail("", "record failed validation")
	}
	return record, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
