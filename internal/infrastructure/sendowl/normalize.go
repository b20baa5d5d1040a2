package sendowl

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"downloads-report/internal/domain"
)

const defaultCurrency = "BRL"

// NormalizeOrder turns a decoded /orders/{id} payload into the canonical
// order. A single-level {"order": {...}} envelope is unwrapped. The order id
// is the only required field; everything else is coalesced across the field
// names different accounts return.
func NormalizeOrder(raw any) (domain.Order, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return domain.Order{}, &MalformedResponseError{Endpoint: "orders", Detail: fmt.Sprintf("expected an object, got %T", raw)}
	}
	if inner, ok := obj["order"].(map[string]any); ok {
		obj = inner
	}
	id := coalesce(obj, "id")
	if id == "" {
		return domain.Order{}, &MalformedResponseError{Endpoint: "orders", Detail: "order id missing"}
	}
	paid, known := coercePaidAmount(firstPresent(obj, "settled_gross", "settled_gross_cents"))
	o := domain.Order{
		ID:         id,
		CreatedAt:  coalesce(obj, "created_at", "created_at_iso"),
		BuyerEmail: coalesce(obj, "buyer_email", "email"),
		BuyerIP:    coalesce(obj, "buyer_ip_address", "buyer_ip"),
		Currency:   coalesce(obj, "currency", "currency_code"),
		Paid:       paid,
		PaidKnown:  known,
		Items:      normalizeItems(firstPresent(obj, "download_items", "items")),
	}
	if o.Currency == "" {
		o.Currency = defaultCurrency
	}
	return o, nil
}

// NormalizeDownloads accepts {"downloads":[...]}, a bare list, or anything
// else (treated as no downloads). It never fails: absence of downloads is a
// valid state.
func NormalizeDownloads(raw any) []domain.DownloadRecord {
	var list []any
	switch t := raw.(type) {
	case []any:
		list = t
	case map[string]any:
		if dl, ok := t["downloads"].([]any); ok {
			list = dl
		}
	}
	records := make([]domain.DownloadRecord, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, domain.DownloadRecord{
			FileID:      coalesce(obj, "file_id"),
			ID:          coalesce(obj, "id"),
			ProductID:   coalesce(obj, "product_id"),
			ProductName: coalesce(obj, "product_name", "file_name"),
			CreatedAt:   coalesce(obj, "created_at", "downloaded_at"),
		})
	}
	return records
}

// NormalizeSearch accepts a bare list of order-or-envelope objects, a dict
// with an "orders" key, or null. Any other top-level shape fails. Entries
// without an order id are skipped rather than failing the whole search.
func NormalizeSearch(raw any) ([]domain.Order, error) {
	var list []any
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		list = t
	case map[string]any:
		v, ok := t["orders"]
		if !ok {
			return nil, &MalformedResponseError{Endpoint: "orders/search", Detail: "object without an orders key"}
		}
		if v == nil {
			return nil, nil
		}
		inner, ok := v.([]any)
		if !ok {
			return nil, &MalformedResponseError{Endpoint: "orders/search", Detail: fmt.Sprintf("orders key holds %T, not a list", v)}
		}
		list = inner
	default:
		return nil, &MalformedResponseError{Endpoint: "orders/search", Detail: fmt.Sprintf("unexpected top-level %T", raw)}
	}
	orders := make([]domain.Order, 0, len(list))
	for _, entry := range list {
		o, err := NormalizeOrder(entry)
		if err != nil {
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// coercePaidAmount applies the single settled-gross coercion rule: an
// integral JSON number is minor currency units, a string or a fractional
// number is already a decimal amount. Unparsable input degrades to zero with
// ok=false instead of failing the report.
func coercePaidAmount(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		if t == math.Trunc(t) {
			return decimal.NewFromInt(int64(t)).Shift(-2), true
		}
		return decimal.NewFromFloat(t), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

func normalizeItems(v any) []domain.OrderItem {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]domain.OrderItem, 0, len(list))
	for _, entry := range list {
		if obj, ok := entry.(map[string]any); ok {
			items = append(items, domain.OrderItem{
				FileID: coalesce(obj, "file_id"),
				ID:     coalesce(obj, "id"),
				Raw:    stringify(obj),
			})
			continue
		}
		items = append(items, domain.OrderItem{Raw: stringify(entry)})
	}
	return items
}

func firstPresent(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}

func coalesce(obj map[string]any, keys ...string) string {
	return stringify(firstPresent(obj, keys...))
}

// stringify renders a JSON value without the float64 artifacts of
// encoding/json (an upstream id 123 must become "123", not "1.23e+02").
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
