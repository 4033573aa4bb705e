package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrCatalogItemNotFound is returned by GetItem when the marketplace does not
// know the item id.
var ErrCatalogItemNotFound = errors.New("catalog item not found")

// CatalogItem is the subset of a marketplace listing the store needs.
type CatalogItem struct {
	ID       string
	Title    string
	Price    decimal.Decimal
	ImageURL *string
}

// CatalogSearch narrows an item search. CategoryID is required by the store.
type CatalogSearch struct {
	CategoryID string
	Keywords   string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Limit      int
}

type EbayConfig struct {
	APIURL        string
	OAuthURL      string
	ClientID      string
	ClientSecret  string
	MarketplaceID string
	Timeout       time.Duration
}

// EbayClient talks to the eBay Browse API using an application token
// (client-credentials grant) cached until shortly before expiry. Every call
// goes through the circuit breaker and carries the configured timeout.
type EbayClient struct {
	cfg        EbayConfig
	httpClient *http.Client
	cb         *CircuitBreaker

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewEbayClient(cfg EbayConfig, cb *CircuitBreaker) *EbayClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &EbayClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb:         cb,
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (c *EbayClient) Breaker() *CircuitBreaker { return c.cb }

type ebayPrice struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ebayImage struct {
	ImageURL string `json:"imageUrl"`
}

type ebayItem struct {
	ItemID string     `json:"itemId"`
	Title  string     `json:"title"`
	Price  *ebayPrice `json:"price"`
	Image  *ebayImage `json:"image"`
}

type ebaySearchResponse struct {
	ItemSummaries []ebayItem `json:"itemSummaries"`
}

func (it ebayItem) toCatalogItem() (CatalogItem, bool) {
	if it.Price == nil {
		return CatalogItem{}, false
	}
	price, err := decimal.NewFromString(it.Price.Value)
	if err != nil {
		return CatalogItem{}, false
	}
	item := CatalogItem{ID: it.ItemID, Title: it.Title, Price: price}
	if it.Image != nil && it.Image.ImageURL != "" {
		img := it.Image.ImageURL
		item.ImageURL = &img
	}
	return item, true
}

// Search returns listings of a category filtered by keywords and price range.
// Listings without a parseable price are skipped.
func (c *EbayClient) Search(ctx context.Context, q CatalogSearch) ([]CatalogItem, error) {
	params := url.Values{}
	params.Set("category_ids", q.CategoryID)
	if q.Keywords != "" {
		params.Set("q", q.Keywords)
	}
	if f := priceFilter(q.MinPrice, q.MaxPrice); f != "" {
		params.Set("filter", f)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	params.Set("limit", strconv.Itoa(limit))

	var resp ebaySearchResponse
	err := c.cb.Execute(func() error {
		return c.get(ctx, "/buy/browse/v1/item_summary/search?"+params.Encode(), &resp)
	})
	if err != nil {
		return nil, err
	}

	items := make([]CatalogItem, 0, len(resp.ItemSummaries))
	for _, it := range resp.ItemSummaries {
		if ci, ok := it.toCatalogItem(); ok {
			items = append(items, ci)
		}
	}
	return items, nil
}

// GetItem fetches a single listing; used to price cart additions server-side.
func (c *EbayClient) GetItem(ctx context.Context, itemID string) (*CatalogItem, error) {
	var resp ebayItem
	err := c.cb.Execute(func() error {
		return c.get(ctx, "/buy/browse/v1/item/"+url.PathEscape(itemID), &resp)
	}, func(err error) bool { return errors.Is(err, ErrCatalogItemNotFound) })
	if err != nil {
		return nil, err
	}
	item, ok := resp.toCatalogItem()
	if !ok {
		return nil, fmt.Errorf("ebay: item %s has no price", itemID)
	}
	return &item, nil
}

func priceFilter(minPrice, maxPrice *decimal.Decimal) string {
	if minPrice == nil && maxPrice == nil {
		return ""
	}
	lo, hi := "", ""
	if minPrice != nil {
		lo = minPrice.StringFixed(2)
	}
	if maxPrice != nil {
		hi = maxPrice.StringFixed(2)
	}
	return fmt.Sprintf("price:[%s..%s],priceCurrency:USD", lo, hi)
}

func (c *EbayClient) get(ctx context.Context, path string, dest any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+path, nil)
	if err != nil {
		return fmt.Errorf("ebay: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.cfg.MarketplaceID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ebay: api unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrCatalogItemNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return errors.New("ebay: token rejected")
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("ebay: api returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("ebay: decode response: %w", err)
	}
	return nil
}

type ebayTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *EbayClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}
	if c.cfg.ClientID == "" {
		return "", errors.New("ebay: client credentials not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "https://api.ebay.com/oauth/api_scope")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("ebay: create token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ebay: oauth unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ebay: oauth returned %d", resp.StatusCode)
	}

	var tr ebayTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("ebay: decode token: %w", err)
	}
	c.token = tr.AccessToken
	// refresh a minute early
	c.tokenExp = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}
