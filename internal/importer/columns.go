package importer

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical column names used by the parser. Header cells from the
// uploaded file are matched against the alias table below.
const (
	colOrder       = "order_number"
	colDate        = "date"
	colProduct     = "product_name"
	colColor       = "color"
	colSize        = "size"
	colQuantity    = "quantity"
	colUnitPrice   = "unit_price"
	colRevenue     = "revenue"
	colHPP         = "hpp"
	colSettlement  = "settlement_amount"
	colFee         = "platform_fee"
	colMarketplace = "marketplace"
)

// columnAliases maps the header variants seen across TikTok Shop,
// Shopee, Tokopedia, and Lazada exports (English and Indonesian) onto
// canonical columns. Matching is case-insensitive on the normalized
// header text.
var columnAliases = map[string]string{
	"order number":  colOrder,
	"order id":      colOrder,
	"no pesanan":    colOrder,
	"nomor pesanan": colOrder,
	"no. pesanan":   colOrder,
	"invoice":       colOrder,

	"date":                 colDate,
	"order date":           colDate,
	"created time":         colDate,
	"order created time":   colDate,
	"tanggal":              colDate,
	"tanggal pesanan":      colDate,
	"waktu pesanan dibuat": colDate,

	"product name": colProduct,
	"product":      colProduct,
	"item name":    colProduct,
	"nama produk":  colProduct,
	"nama barang":  colProduct,

	"color":  colColor,
	"colour": colColor,
	"warna":  colColor,

	"size":   colSize,
	"ukuran": colSize,

	"quantity":  colQuantity,
	"qty":       colQuantity,
	"jumlah":    colQuantity,
	"kuantitas": colQuantity,

	"unit price":   colUnitPrice,
	"price":        colUnitPrice,
	"harga satuan": colUnitPrice,
	"harga produk": colUnitPrice,

	"revenue":          colRevenue,
	"total revenue":    colRevenue,
	"order amount":     colRevenue,
	"total harga":      colRevenue,
	"subtotal":         colRevenue,
	"total pembayaran": colRevenue,

	"hpp":         colHPP,
	"cogs":        colHPP,
	"cost":        colHPP,
	"modal":       colHPP,
	"harga pokok": colHPP,

	"settlement amount":       colSettlement,
	"total settlement amount": colSettlement,
	"net amount":              colSettlement,
	"penghasilan":             colSettlement,
	"total penghasilan":       colSettlement,

	"platform fee":  colFee,
	"admin fee":     colFee,
	"total fees":    colFee,
	"biaya admin":   colFee,
	"biaya layanan": colFee,

	"marketplace": colMarketplace,
	"channel":     colMarketplace,
	"platform":    colMarketplace,
	"sumber":      colMarketplace,
}

// requiredColumns must all resolve for a header row to be usable.
var requiredColumns = []string{colOrder, colDate, colProduct, colQuantity, colRevenue}

// columnMap holds the resolved position of each canonical column in
// the source file.
type columnMap map[string]int

// mapHeader resolves one row of header cells against the alias table.
// Returns nil when the row does not look like a header at all.
func mapHeader(row []string) columnMap {
	cm := make(columnMap)
	for idx, cell := range row {
		key := normalizeHeader(cell)
		if canonical, ok := columnAliases[key]; ok {
			if _, taken := cm[canonical]; !taken {
				cm[canonical] = idx
			}
		}
	}
	if len(cm) == 0 {
		return nil
	}
	return cm
}

// missingRequired lists the required columns the map does not cover,
// in stable order.
func (cm columnMap) missingRequired() []string {
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := cm[col]; !ok {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)
	return missing
}

// cell returns the trimmed value at a canonical column, or "" when the
// column is absent or the row is short.
func (cm columnMap) cell(row []string, col string) string {
	idx, ok := cm[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// findHeader scans the leading rows of a sheet for a usable header.
// Marketplace exports often carry title or summary rows first, so up
// to maxHeaderScanRows rows are inspected before giving up.
const maxHeaderScanRows = 10

func findHeader(rows [][]string) (columnMap, int, error) {
	limit := len(rows)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}

	var best columnMap
	bestRow := -1
	for i := 0; i < limit; i++ {
		cm := mapHeader(rows[i])
		if cm == nil {
			continue
		}
		if len(cm.missingRequired()) == 0 {
			return cm, i, nil
		}
		if best == nil || len(cm) > len(best) {
			best = cm
			bestRow = i
		}
	}

	if best == nil {
		return nil, -1, fmt.Errorf("no recognizable header row in first %d rows", limit)
	}
	return best, bestRow, fmt.Errorf("header on row %d is missing required columns: %s",
		bestRow+1, strings.Join(best.missingRequired(), ", "))
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	h = strings.Join(strings.Fields(h), " ")
	return h
}
