package sendowl

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "key", "secret", 5*time.Second, nil)
	c.retryWait = time.Millisecond
	return c
}

func TestFetchOrderSendsBasicAuth(t *testing.T) {
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("key:secret"))
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != want {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/orders/42.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"order":{"id":42}}`))
	}))
	o, err := c.FetchOrder(context.Background(), "42")
	if err != nil {
		t.Fatalf("FetchOrder: %v", err)
	}
	if o.ID != "42" {
		t.Fatalf("id = %q", o.ID)
	}
}

func TestFetchOrderNotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no such order"}`, http.StatusNotFound)
	}))
	_, err := c.FetchOrder(context.Background(), "999")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if nf.OrderID != "999" {
		t.Fatalf("order id = %q", nf.OrderID)
	}
}

func TestFetchOrderUpstreamErrorCarriesDetail(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusForbidden)
	}))
	_, err := c.FetchOrder(context.Background(), "1")
	var up *UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if up.Status != http.StatusForbidden {
		t.Fatalf("status = %d", up.Status)
	}
	if up.Detail != `{"error":"quota exceeded"}` {
		t.Fatalf("detail = %q", up.Detail)
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"order":{"id":7}}`))
	}))
	o, err := c.FetchOrder(context.Background(), "7")
	if err != nil {
		t.Fatalf("FetchOrder after retries: %v", err)
	}
	if o.ID != "7" || calls.Load() != 3 {
		t.Fatalf("id=%q calls=%d", o.ID, calls.Load())
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	_, err := c.FetchOrder(context.Background(), "7")
	var up *UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestGetExhaustsRetriesOnPersistent500(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	_, err := c.FetchOrder(context.Background(), "7")
	var up *UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("err = %v, want UpstreamError", err)
	}
	if up.Status != http.StatusInternalServerError {
		t.Fatalf("status = %d", up.Status)
	}
	if calls.Load() != 1+retryAttempts {
		t.Fatalf("calls = %d, want %d", calls.Load(), 1+retryAttempts)
	}
}

func TestFetchOrderTimeout(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	c.HTTP.Timeout = 20 * time.Millisecond
	_, err := c.FetchOrder(context.Background(), "7")
	var to *TimeoutError
	if !errors.As(err, &to) {
		t.Fatalf("err = %v, want TimeoutError", err)
	}
}

func TestFetchOrderDownloadsEmptyStates(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/1/downloads.json":
			w.Write([]byte(`{"downloads":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	got, err := c.FetchOrderDownloads(context.Background(), "1")
	if err != nil || len(got) != 0 {
		t.Fatalf("wrapped empty: %+v err=%v", got, err)
	}
	// 404 is a valid "no downloads" state, not a fault
	got, err = c.FetchOrderDownloads(context.Background(), "2")
	if err != nil || len(got) != 0 {
		t.Fatalf("404: %+v err=%v", got, err)
	}
}

func TestSearchOrdersByEmail(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/search.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("email"); got != "ana@example.com" {
			t.Errorf("email = %q", got)
		}
		w.Write([]byte(`{"orders":[{"id":1},{"id":2}]}`))
	}))
	orders, err := c.SearchOrdersByEmail(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("SearchOrdersByEmail: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %+v", orders)
	}
}

func TestSearchOrdersMalformedTopLevel(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":"shape"}`))
	}))
	_, err := c.SearchOrdersByEmail(context.Background(), "x@y.com")
	var mal *MalformedResponseError
	if !errors.As(err, &mal) {
		t.Fatalf("err = %v, want MalformedResponseError", err)
	}
}

func TestLookupProductNameBestEffortAndCached(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/products/10.json":
			w.Write([]byte(`{"product":{"name":"Curso Completo"}}`))
		default:
			http.Error(w, "boom", http.StatusBadRequest)
		}
	}))
	if got := c.LookupProductName(context.Background(), "10"); got != "Curso Completo" {
		t.Fatalf("name = %q", got)
	}
	if got := c.LookupProductName(context.Background(), "10"); got != "Curso Completo" {
		t.Fatalf("cached name = %q", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (second lookup served from cache)", calls.Load())
	}
	// failures are swallowed and replaced with a placeholder
	if got := c.LookupProductName(context.Background(), "404"); got != "Produto 404" {
		t.Fatalf("placeholder = %q", got)
	}
	if got := c.LookupProductName(context.Background(), ""); got != "Produto ?" {
		t.Fatalf("empty id placeholder = %q", got)
	}
}

func TestWithCredentialsSharesCache(t *testing.T) {
	cache := NewProductNameCache()
	cache.Put("5", "Apostila")
	c := NewClient("http://127.0.0.1:1", "k", "s", time.Second, cache)
	derived := c.WithCredentials("other", "pair")
	if derived.auth == c.auth {
		t.Fatalf("derived auth not rebuilt")
	}
	// the unreachable base URL proves the answer came from the shared cache
	if got := derived.LookupProductName(context.Background(), "5"); got != "Apostila" {
		t.Fatalf("name = %q", got)
	}
}
