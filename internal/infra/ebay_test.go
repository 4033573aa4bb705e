package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMarketplace serves the OAuth and Browse endpoints the client uses.
func fakeMarketplace(t *testing.T, tokenCalls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "app-token", "expires_in": 7200})
	})
	mux.HandleFunc("/buy/browse/v1/item_summary/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer app-token", r.Header.Get("Authorization"))
		assert.Equal(t, "EBAY_US", r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
		assert.Equal(t, "9355", r.URL.Query().Get("category_ids"))
		assert.Equal(t, "price:[10.00..50.00],priceCurrency:USD", r.URL.Query().Get("filter"))
		_, _ = w.Write([]byte(`{"itemSummaries":[
			{"itemId":"v1|1","title":"Headset","price":{"value":"19.99","currency":"USD"},"image":{"imageUrl":"https://img/1.jpg"}},
			{"itemId":"v1|2","title":"No price"}
		]}`))
	})
	mux.HandleFunc("/buy/browse/v1/item/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/buy/browse/v1/item/v1|1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"itemId":"v1|1","title":"Headset","price":{"value":"19.99","currency":"USD"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestEbay(srv *httptest.Server) *EbayClient {
	return NewEbayClient(EbayConfig{
		APIURL:        srv.URL,
		OAuthURL:      srv.URL + "/oauth",
		ClientID:      "id",
		ClientSecret:  "secret",
		MarketplaceID: "EBAY_US",
		Timeout:       2 * time.Second,
	}, NewCircuitBreaker(DefaultCBConfig("ebay-test")))
}

func TestEbaySearch(t *testing.T) {
	var tokenCalls int32
	c := newTestEbay(fakeMarketplace(t, &tokenCalls))
	lo, hi := decimal.NewFromInt(10), decimal.NewFromInt(50)

	items, err := c.Search(context.Background(), CatalogSearch{CategoryID: "9355", MinPrice: &lo, MaxPrice: &hi})
	require.NoError(t, err)
	require.Len(t, items, 1, "listings without a price are skipped")
	assert.Equal(t, "v1|1", items[0].ID)
	assert.True(t, decimal.RequireFromString("19.99").Equal(items[0].Price))
	require.NotNil(t, items[0].ImageURL)

	_, err = c.Search(context.Background(), CatalogSearch{CategoryID: "9355", MinPrice: &lo, MaxPrice: &hi})
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&tokenCalls), "application token is cached")
}

func TestEbayGetItem_NotFoundDoesNotTripBreaker(t *testing.T) {
	var tokenCalls int32
	c := newTestEbay(fakeMarketplace(t, &tokenCalls))

	item, err := c.GetItem(context.Background(), "v1|1")
	require.NoError(t, err)
	assert.Equal(t, "Headset", item.Title)

	for i := 0; i < 10; i++ {
		_, err = c.GetItem(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrCatalogItemNotFound)
	}
	assert.Equal(t, CBClosed, c.Breaker().State())
}

func TestEbay_MissingCredentials(t *testing.T) {
	c := NewEbayClient(EbayConfig{APIURL: "http://127.0.0.1:1"}, NewCircuitBreaker(DefaultCBConfig("ebay-test")))
	_, err := c.Search(context.Background(), CatalogSearch{CategoryID: "1"})
	assert.ErrorContains(t, err, "client credentials not configured")
}

func TestGenerateOrderReceiptPDF(t *testing.T) {
	dir := t.TempDir()
	path, err := GenerateOrderReceiptPDF(OrderReceipt{
		OrderID:     "ord-1",
		DriverName:  "Dana Test",
		SponsorName: "Acme Logistics",
		PurchasedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Lines:       []ReceiptLine{{Title: "Headset", Quantity: 2, Points: 400}},
		TotalPoints: 400,
		Balance:     100,
	}, filepath.Join(dir, "receipts"))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Equal(t, "receipt_ord-1.pdf", filepath.Base(path))
}
