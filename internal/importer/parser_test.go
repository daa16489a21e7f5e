package importer

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "dbusana/internal/errors"
	"dbusana/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFindHeader(t *testing.T) {
	t.Run("english headers", func(t *testing.T) {
		rows := [][]string{
			{"Order Number", "Date", "Product Name", "Quantity", "Revenue"},
		}
		cm, headerRow, err := findHeader(rows)
		require.NoError(t, err)
		assert.Equal(t, 0, headerRow)
		assert.Empty(t, cm.missingRequired())
	})

	t.Run("indonesian headers below title rows", func(t *testing.T) {
		rows := [][]string{
			{"Laporan Penjualan"},
			{},
			{"No Pesanan", "Tanggal", "Nama Produk", "Jumlah", "Total Harga", "Penghasilan"},
		}
		cm, headerRow, err := findHeader(rows)
		require.NoError(t, err)
		assert.Equal(t, 2, headerRow)
		assert.Contains(t, cm, colSettlement)
	})

	t.Run("missing required columns", func(t *testing.T) {
		rows := [][]string{
			{"Order Number", "Product Name"},
		}
		cm, _, err := findHeader(rows)
		require.Error(t, err)
		require.NotNil(t, cm)
		assert.Contains(t, cm.missingRequired(), colDate)
		assert.Contains(t, cm.missingRequired(), colQuantity)
	})

	t.Run("no header at all", func(t *testing.T) {
		rows := [][]string{
			{"foo", "bar"},
			{"1", "2"},
		}
		_, _, err := findHeader(rows)
		require.Error(t, err)
	})
}

func TestParseCSV(t *testing.T) {
	csvContent := `Order Number,Date,Product Name,Color,Size,Quantity,Unit Price,Revenue,HPP,Settlement Amount,Platform Fee,Marketplace
INV-001,2024-03-01,Gamis Aurora,Navy,M,2,"Rp 150.000","Rp 300.000","Rp 160.000","Rp 280.000","Rp 20.000",Shopee
INV-002,2024-03-01,Hijab Voal,Dusty Pink,,1,45000,45000,20000,42000,3000,TikTok Shop
INV-003,bad-date,Gamis Aurora,Navy,L,1,150000,150000,80000,140000,10000,Shopee
`
	path := writeTempFile(t, "sales.csv", csvContent)

	result, err := ParseCSV(path, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	require.Len(t, result.Records, 2)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 4, result.Issues[0].Row)
	assert.Equal(t, colDate, result.Issues[0].Column)

	first := result.Records[0]
	assert.Equal(t, "INV-001", first.OrderNumber)
	assert.Equal(t, "Gamis Aurora", first.ProductName)
	assert.Equal(t, 2, first.Quantity)
	assert.InDelta(t, 300000, first.Revenue, 0.001)
	assert.InDelta(t, 280000, first.SettlementAmount, 0.001)
	assert.Equal(t, domain.MarketplaceShopee, first.Marketplace)

	second := result.Records[1]
	assert.Equal(t, domain.MarketplaceTikTokShop, second.Marketplace)
}

func TestParseCSV_SemicolonDelimited(t *testing.T) {
	csvContent := "No Pesanan;Tanggal;Nama Produk;Jumlah;Total Harga\nINV-9;15/03/2024;Khimar Basic;1;99000\n"
	path := writeTempFile(t, "toko.csv", csvContent)

	result, err := ParseCSV(path, discardLogger())
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "INV-9", result.Records[0].OrderNumber)
	assert.Equal(t, 15, result.Records[0].Date.Day())
	// No marketplace column; the record is tagged unknown.
	assert.Equal(t, domain.MarketplaceUnknown, result.Records[0].Marketplace)
}

func TestParseCSV_MissingColumns(t *testing.T) {
	path := writeTempFile(t, "bad.csv", "Order Number,Product Name\nINV-1,Gamis\n")

	_, err := ParseCSV(path, discardLogger())
	require.ErrorIs(t, err, apierrors.ErrMissingColumns)
}

func TestParseCSV_EmptyFile(t *testing.T) {
	path := writeTempFile(t, "empty.csv", "")

	_, err := ParseCSV(path, discardLogger())
	require.ErrorIs(t, err, apierrors.ErrEmptyFile)
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	path := writeTempFile(t, "headeronly.csv", "Order Number,Date,Product Name,Quantity,Revenue\n")

	_, err := ParseCSV(path, discardLogger())
	require.ErrorIs(t, err, apierrors.ErrEmptyFile)
}

func TestParseExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Order Number", "Date", "Product Name", "Quantity", "Revenue", "HPP", "Settlement Amount", "Marketplace"},
		{"INV-100", "2024-03-10", "Gamis Aurora", 1, 150000, 80000, 140000, "tokopedia"},
		{"INV-101", "2024-03-11", "Hijab Voal", 3, 135000, 60000, 126000, "lazada"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	result, err := ParseExcel(path, discardLogger())
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Empty(t, result.Issues)
	assert.Equal(t, "INV-100", result.Records[0].OrderNumber)
	assert.Equal(t, domain.MarketplaceTokopedia, result.Records[0].Marketplace)
	assert.Equal(t, 3, result.Records[1].Quantity)
	assert.InDelta(t, 135000, result.Records[1].Revenue, 0.001)
}

func TestParseExcel_NotAWorkbook(t *testing.T) {
	path := writeTempFile(t, "fake.xlsx", "this is not a zip archive")

	_, err := ParseExcel(path, discardLogger())
	require.Error(t, err)

	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeParsing, appErr.Type)
}
