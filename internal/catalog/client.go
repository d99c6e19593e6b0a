package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kabs/internal"
	"kabs/internal/config"
	"kabs/internal/metrics"
	"kabs/internal/util"
)

const (
	linesEndpoint   = "rest/v1/cabinet_lines"
	pricingEndpoint = "rest/v1/pricing_items"
	maxAttempts     = 5
)

// Client reads manufacturer lines and price lists from the hosted price
// store's REST interface.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

// APIError is a non-2xx answer from the price store.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("price store error: endpoint=%s status=%d body=%s", e.Endpoint, e.Status, e.Body)
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.PriceStoreTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.PriceStoreRateLimitRPS),
	}
}

func (c *Client) GetLines(ctx context.Context) ([]internal.ManufacturerLine, error) {
	body, _, err := c.fetchJSON(ctx, linesEndpoint, map[string]string{"select": "*", "order": "id.asc"}, -1, -1)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode lines: %w", err)
	}

	out := make([]internal.ManufacturerLine, 0, len(rows))
	for _, raw := range rows {
		line, err := toManufacturerLine(raw)
		if err != nil {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

// GetPricing pages through every pricing row and groups them per line.
func (c *Client) GetPricing(ctx context.Context) (internal.PricingTable, error) {
	pageSize := c.cfg.PriceStorePageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	table := internal.PricingTable{}
	params := map[string]string{"select": "*", "order": "line_id.asc,type.asc"}
	offset := 0
	for {
		body, total, err := c.fetchJSON(ctx, pricingEndpoint, params, offset, offset+pageSize-1)
		if err != nil {
			return nil, err
		}

		var rows []map[string]any
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode pricing: %w", err)
		}
		if len(rows) == 0 {
			break
		}

		for _, raw := range rows {
			lineID, key, entry, ok := toPricingRow(raw)
			if !ok {
				continue
			}
			if table[lineID] == nil {
				table[lineID] = internal.LineTable{}
			}
			table[lineID][key] = entry
		}

		// The store may cap rows per response below pageSize, so a short
		// page only ends the pull when the total is unknown.
		offset += len(rows)
		if total >= 0 {
			if offset >= total {
				break
			}
			continue
		}
		if len(rows) < pageSize {
			break
		}
	}
	return table, nil
}

// fetchJSON issues a GET and returns the body and, for ranged requests, the
// total row count announced in Content-Range (-1 when unknown).
func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string, from, to int) ([]byte, int, error) {
	if strings.TrimSpace(c.cfg.PriceStoreURL) == "" {
		return nil, -1, errors.New("missing PRICE_STORE_URL")
	}
	if strings.TrimSpace(c.cfg.PriceStoreKey) == "" {
		return nil, -1, errors.New("missing PRICE_STORE_KEY")
	}

	baseURL := strings.TrimRight(c.cfg.PriceStoreURL, "/") + "/"
	u, err := url.Parse(baseURL + endpoint)
	if err != nil {
		return nil, -1, err
	}

	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return nil, -1, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, -1, err
		}
		req.Header.Set("apikey", c.cfg.PriceStoreKey)
		req.Header.Set("Authorization", "Bearer "+c.cfg.PriceStoreKey)
		req.Header.Set("Accept", "application/json")
		if from >= 0 {
			req.Header.Set("Range-Unit", "items")
			req.Header.Set("Range", fmt.Sprintf("%d-%d", from, to))
			req.Header.Set("Prefer", "count=exact")
		}

		timer := metrics.NewTimer()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordAPICall(endpoint, "error", timer.Duration())
			lastErr = err
			if ctx.Err() != nil {
				return nil, -1, ctx.Err()
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		metrics.RecordAPICall(endpoint, strconv.Itoa(resp.StatusCode), timer.Duration())
		if readErr != nil {
			lastErr = readErr
			continue
		}

		// 416: the requested range starts past the last row.
		if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
			return []byte("[]"), contentRangeTotal(resp.Header.Get("Content-Range")), nil
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{Endpoint: endpoint, Status: resp.StatusCode, Body: string(body)}
			if isRetryableStatus(resp.StatusCode) && attempt < maxAttempts {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				if err := sleepCtx(ctx, backoff); err != nil {
					return nil, -1, err
				}
				lastErr = apiErr
				continue
			}
			return nil, -1, apiErr
		}

		return body, contentRangeTotal(resp.Header.Get("Content-Range")), nil
	}

	if lastErr == nil {
		lastErr = errors.New("price store request failed")
	}
	return nil, -1, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// contentRangeTotal reads "0-999/2500" or "*/0"; -1 when absent or "*".
func contentRangeTotal(header string) int {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(header[idx+1:]))
	if err != nil {
		return -1
	}
	return n
}

func toManufacturerLine(raw map[string]any) (internal.ManufacturerLine, error) {
	id := toString(raw["id"])
	if id == "" {
		return internal.ManufacturerLine{}, errors.New("missing id")
	}

	line := internal.ManufacturerLine{
		ID:             id,
		Name:           toString(raw["name"]),
		Tier:           internal.LineTier(toString(raw["tier"])),
		Description:    toString(raw["description"]),
		Finish:         toString(raw["finish"]),
		Multiplier:     toFloat(raw["multiplier"]),
		FinishPremium:  toFloat(raw["finish_premium"]),
		ShippingFactor: toFloat(raw["shipping_factor"]),
	}
	if line.Name == "" {
		line.Name = id
	}
	if line.Multiplier <= 0 {
		line.Multiplier = 1
	}
	line.Rates = toRates(raw["rates"])
	return line, nil
}

func toRates(v any) *internal.LineRates {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	rates := internal.LineRates{
		BasePerFoot:      toFloat(m["basePerFoot"]),
		WallPerFoot:      toFloat(m["wallPerFoot"]),
		TallPerUnit:      toFloat(m["tallPerUnit"]),
		AccessoryPerFoot: toFloat(m["accessoryPerFoot"]),
	}
	if rates == (internal.LineRates{}) {
		return nil
	}
	return &rates
}

// toPricingRow maps a pricing_items row. The lookup key is the row's type
// column, falling back to its sku.
func toPricingRow(raw map[string]any) (string, string, internal.CatalogEntry, bool) {
	lineID := toString(raw["line_id"])
	sku := toString(raw["sku"])
	key := toString(raw["type"])
	if key == "" {
		key = sku
	}
	key = strings.ToUpper(key)
	if lineID == "" || key == "" {
		return "", "", internal.CatalogEntry{}, false
	}

	price, ok := toFloatOK(raw["price"])
	if !ok {
		return "", "", internal.CatalogEntry{}, false
	}
	if sku == "" {
		sku = key
	}
	return lineID, key, internal.CatalogEntry{SKU: sku, Price: price}, true
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func toFloat(v any) float64 {
	f, _ := toFloatOK(v)
	return f
}

func toFloatOK(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		return util.ParsePrice(t)
	default:
		return 0, false
	}
}
