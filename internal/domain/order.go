package domain

import "github.com/shopspring/decimal"

// Order is the canonical shape produced by response normalization. The
// upstream API returns differently-shaped payloads across accounts and
// versions; only ID is guaranteed, every other field may be empty and is
// degraded to a sentinel at render time.
type Order struct {
	ID         string
	CreatedAt  string // raw upstream timestamp, formatted for display later
	BuyerEmail string
	BuyerIP    string
	Currency   string
	Paid       decimal.Decimal
	PaidKnown  bool // false when the settled gross could not be parsed
	Items      []OrderItem
}

// OrderItem is one entry of the order's purchased file set.
type OrderItem struct {
	FileID string
	ID     string
	Raw    string // compact rendering of the original record
}

// Key is the identity used when counting distinct purchased files:
// file_id, else id, else the raw item text.
func (it OrderItem) Key() string {
	if it.FileID != "" {
		return it.FileID
	}
	if it.ID != "" {
		return it.ID
	}
	return it.Raw
}

// DownloadRecord is one download event of a purchased file.
type DownloadRecord struct {
	FileID      string
	ID          string
	ProductID   string
	ProductName string
	CreatedAt   string
}

// Key is the identity used when counting distinct downloaded files:
// file_id, else id, else product_id.
func (d DownloadRecord) Key() string {
	if d.FileID != "" {
		return d.FileID
	}
	if d.ID != "" {
		return d.ID
	}
	return d.ProductID
}

// OrderSummary is a listing row returned by an email search, with dates and
// amounts already formatted for display.
type OrderSummary struct {
	ID         string `json:"id"`
	CreatedAt  string `json:"createdAt"`
	BuyerEmail string `json:"buyerEmail"`
	Currency   string `json:"currency"`
	AmountPaid string `json:"amountPaid"`
}
