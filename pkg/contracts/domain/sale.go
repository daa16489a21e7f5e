package domain

import (
	"time"
)

// Marketplace identifies the sales channel a record came from.
type Marketplace string

const (
	MarketplaceTikTokShop Marketplace = "tiktok_shop"
	MarketplaceShopee     Marketplace = "shopee"
	MarketplaceTokopedia  Marketplace = "tokopedia"
	MarketplaceLazada     Marketplace = "lazada"
	MarketplaceOffline    Marketplace = "offline"
	MarketplaceUnknown    Marketplace = "unknown"
)

// NormalizeMarketplace maps the free-text channel names seen in
// marketplace exports onto the known set.
func NormalizeMarketplace(raw string) Marketplace {
	switch normalized := normalizeKey(raw); normalized {
	case "tiktok", "tiktokshop", "tiktok_shop":
		return MarketplaceTikTokShop
	case "shopee":
		return MarketplaceShopee
	case "tokopedia", "toped":
		return MarketplaceTokopedia
	case "lazada":
		return MarketplaceLazada
	case "offline", "store", "toko":
		return MarketplaceOffline
	default:
		return MarketplaceUnknown
	}
}

// SaleRecord is one sold line item from a marketplace export.
type SaleRecord struct {
	OrderNumber      string      `json:"order_number" csv:"OrderNumber"`
	Date             time.Time   `json:"date" csv:"Date"`
	ProductName      string      `json:"product_name" csv:"ProductName"`
	Color            string      `json:"color,omitempty" csv:"Color"`
	Size             string      `json:"size,omitempty" csv:"Size"`
	Quantity         int         `json:"quantity" csv:"Quantity"`
	UnitPrice        float64     `json:"unit_price" csv:"UnitPrice"`
	Revenue          float64     `json:"revenue" csv:"Revenue"`
	HPP              float64     `json:"hpp" csv:"HPP"`                 // cost of goods sold
	SettlementAmount float64     `json:"settlement_amount" csv:"SettlementAmount"` // payout after platform fees
	PlatformFee      float64     `json:"platform_fee" csv:"PlatformFee"`
	Marketplace      Marketplace `json:"marketplace" csv:"Marketplace"`
	ImportBatchID    string      `json:"import_batch_id,omitempty" csv:"ImportBatchID"`
}

// IsValid checks the structural invariants of an imported record.
func (s SaleRecord) IsValid() bool {
	return s.OrderNumber != "" && !s.Date.IsZero() &&
		s.ProductName != "" && s.Quantity > 0 &&
		s.Revenue >= 0 && s.HPP >= 0 && s.SettlementAmount >= 0
}

// Key identifies a record for dedup on re-import: the same product
// line of the same order replaces the earlier row.
func (s SaleRecord) Key() string {
	return s.OrderNumber + "|" + s.ProductName + "|" + s.Color + "|" + s.Size
}

// GrossProfit is settlement minus cost of goods sold.
func (s SaleRecord) GrossProfit() float64 {
	return s.SettlementAmount - s.HPP
}

func normalizeKey(raw string) string {
	out := make([]rune, 0, len(raw))
	for _, r := range raw {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '-':
			// collapse separators so "TikTok Shop" == "tiktokshop"
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
