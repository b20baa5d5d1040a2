package sendowl

import (
	"encoding/json"
	"errors"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func TestNormalizeOrderUnwrapsEnvelope(t *testing.T) {
	raw := decode(t, `{"order":{"id":123456789,"created_at":"2025-01-02T10:00:00Z",
		"buyer_email":"ana@example.com","buyer_ip_address":"10.0.0.1",
		"settled_gross":1500,"download_items":[{"file_id":1},{"file_id":2}]}}`)
	o, err := NormalizeOrder(raw)
	if err != nil {
		t.Fatalf("NormalizeOrder: %v", err)
	}
	if o.ID != "123456789" {
		t.Fatalf("id = %q", o.ID)
	}
	if o.BuyerEmail != "ana@example.com" || o.BuyerIP != "10.0.0.1" {
		t.Fatalf("buyer fields: %+v", o)
	}
	if o.Currency != "BRL" {
		t.Fatalf("currency default = %q", o.Currency)
	}
	if !o.PaidKnown || o.Paid.StringFixed(2) != "15.00" {
		t.Fatalf("paid = %s known=%v", o.Paid, o.PaidKnown)
	}
	if len(o.Items) != 2 {
		t.Fatalf("items = %d", len(o.Items))
	}
}

func TestNormalizeOrderAlternateFieldNames(t *testing.T) {
	raw := decode(t, `{"id":"77","email":"b@x.com","buyer_ip":"1.2.3.4",
		"currency_code":"USD","settled_gross_cents":990,"items":[{"id":9}]}`)
	o, err := NormalizeOrder(raw)
	if err != nil {
		t.Fatalf("NormalizeOrder: %v", err)
	}
	if o.BuyerEmail != "b@x.com" || o.BuyerIP != "1.2.3.4" || o.Currency != "USD" {
		t.Fatalf("coalesced fields: %+v", o)
	}
	if o.Paid.StringFixed(2) != "9.90" {
		t.Fatalf("paid = %s", o.Paid)
	}
	if len(o.Items) != 1 || o.Items[0].Key() != "9" {
		t.Fatalf("items: %+v", o.Items)
	}
}

func TestNormalizeOrderMissingID(t *testing.T) {
	_, err := NormalizeOrder(decode(t, `{"buyer_email":"x@y.com"}`))
	var mal *MalformedResponseError
	if !errors.As(err, &mal) {
		t.Fatalf("err = %v, want MalformedResponseError", err)
	}
}

func TestCoercePaidAmount(t *testing.T) {
	cases := []struct {
		name  string
		in    any
		want  string
		known bool
	}{
		{"integral number is minor units", float64(1500), "15.00", true},
		{"fractional number is decimal", 12.5, "12.50", true},
		{"string is decimal", "149.90", "149.90", true},
		{"garbage string degrades", "abc", "0.00", false},
		{"absent degrades", nil, "0.00", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, known := coercePaidAmount(tc.in)
			if known != tc.known || d.StringFixed(2) != tc.want {
				t.Fatalf("coercePaidAmount(%v) = %s, %v; want %s, %v", tc.in, d.StringFixed(2), known, tc.want, tc.known)
			}
		})
	}
}

func TestNormalizeDownloadsShapes(t *testing.T) {
	wrapped := NormalizeDownloads(decode(t, `{"downloads":[{"file_id":1,"product_name":"Apostila","created_at":"2025-01-03T08:00:00Z"}]}`))
	if len(wrapped) != 1 || wrapped[0].FileID != "1" || wrapped[0].ProductName != "Apostila" {
		t.Fatalf("wrapped: %+v", wrapped)
	}

	bare := NormalizeDownloads(decode(t, `[{"id":2,"file_name":"aula.pdf"},{"product_id":3}]`))
	if len(bare) != 2 || bare[0].ProductName != "aula.pdf" || bare[1].Key() != "3" {
		t.Fatalf("bare: %+v", bare)
	}

	if got := NormalizeDownloads(decode(t, `{"downloads":[]}`)); len(got) != 0 {
		t.Fatalf("empty wrapped: %+v", got)
	}
	if got := NormalizeDownloads(decode(t, `"unexpected"`)); len(got) != 0 {
		t.Fatalf("unexpected shape: %+v", got)
	}
}

func TestNormalizeSearchShapes(t *testing.T) {
	bare, err := NormalizeSearch(decode(t, `[{"id":1},{"order":{"id":2}},{"no_id":true}]`))
	if err != nil {
		t.Fatalf("bare list: %v", err)
	}
	if len(bare) != 2 || bare[0].ID != "1" || bare[1].ID != "2" {
		t.Fatalf("bare: %+v", bare)
	}

	keyed, err := NormalizeSearch(decode(t, `{"orders":[{"id":"5"}]}`))
	if err != nil || len(keyed) != 1 || keyed[0].ID != "5" {
		t.Fatalf("keyed: %+v err=%v", keyed, err)
	}

	empty, err := NormalizeSearch(nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("null: %+v err=%v", empty, err)
	}

	var mal *MalformedResponseError
	if _, err := NormalizeSearch(decode(t, `{"surprise":true}`)); !errors.As(err, &mal) {
		t.Fatalf("object without orders key: %v", err)
	}
	if _, err := NormalizeSearch(decode(t, `"text"`)); !errors.As(err, &mal) {
		t.Fatalf("scalar top level: %v", err)
	}
}

func TestStringifyAvoidsFloatArtifacts(t *testing.T) {
	if got := stringify(float64(123456789)); got != "123456789" {
		t.Fatalf("stringify int-valued float = %q", got)
	}
	if got := stringify(1.5); got != "1.5" {
		t.Fatalf("stringify fractional = %q", got)
	}
}
