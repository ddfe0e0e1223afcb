// Package custombackend adapts the in-house ordering backend to the
// upstream.Source contract. Auth is a static API key header; unlike Zettle
// this backend also accepts completion notifications, so the adapter
// implements upstream.RemoteCompleter.
package custombackend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brewkit/orderboard/internal/clock"
	"github.com/brewkit/orderboard/internal/common"
	"github.com/brewkit/orderboard/internal/logging"
	"github.com/brewkit/orderboard/internal/server/models"
	"github.com/brewkit/orderboard/internal/server/upstream"
)

// SourceName tags orders fetched from the custom backend.
const SourceName = "custom"

const apiKeyHeader = "X-API-Key"

// Source fetches today's orders from the custom ordering backend.
type Source struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	location   *time.Location
	clock      clock.Clock
	logger     logging.Logger
}

func NewSource(httpClient *http.Client, baseURL, apiKey string, loc *time.Location, clk clock.Clock, logger logging.Logger) *Source {
	return &Source{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		location:   loc,
		clock:      clk,
		logger:     logger.With("source", SourceName),
	}
}

func (s *Source) Name() string { return SourceName }

// FetchToday returns orders created since local midnight in the shop time
// zone. The API key is static, so a 401 here means misconfiguration and is
// terminal immediately.
func (s *Source) FetchToday(ctx context.Context) ([]models.Order, error) {
	since := upstream.StartOfDay(s.clock.Now(), s.location)

	u, err := url.Parse(s.baseURL + "/orders")
	if err != nil {
		return nil, fmt.Errorf("orders url: %w", err)
	}
	q := u.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("orders request: %w", err)
	}
	req.Header.Set(apiKeyHeader, s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("orders request: %v: %w", err, common.ErrUpstream)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("backend rejected api key (%d): %w", resp.StatusCode, common.ErrAuth)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("backend returned %d: %w", resp.StatusCode, common.ErrUpstream)
	}

	var body ordersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode orders: %v: %w", err, common.ErrSchema)
	}

	return s.normalize(ctx, body.Orders), nil
}

// CompleteRemote tells the backend an order was completed on the display.
func (s *Source) CompleteRemote(ctx context.Context, orderID string) error {
	u := s.baseURL + "/orders/" + url.PathEscape(orderID) + "/complete"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return fmt.Errorf("complete request: %w", err)
	}
	req.Header.Set(apiKeyHeader, s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("complete request: %v: %w", err, common.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("complete returned %d: %w", resp.StatusCode, common.ErrUpstream)
	}
	return nil
}

type ordersResponse struct {
	Orders []rawOrder `json:"orders"`
}

type rawOrder struct {
	ID           string    `json:"id"`
	OrderNumber  string    `json:"orderNumber"`
	CreatedAt    time.Time `json:"createdAt"`
	Items        []rawItem `json:"items"`
	TableNumber  int       `json:"tableNumber,omitempty"`
	CustomerName string    `json:"customerName,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

type rawItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Variant  string `json:"variant"`
	Comment  string `json:"comment"`
}

func (s *Source) normalize(ctx context.Context, raw []rawOrder) []models.Order {
	orders := make([]models.Order, 0, len(raw))

	for _, r := range raw {
		if r.ID == "" {
			s.logger.Warn(ctx, "dropping order without id")
			continue
		}
		if len(r.Items) == 0 {
			s.logger.Warn(ctx, "dropping order with no items", "order", r.ID)
			continue
		}

		items := make([]models.LineItem, 0, len(r.Items))
		for _, it := range r.Items {
			qty := it.Quantity
			if qty <= 0 {
				qty = 1
			}
			items = append(items, models.LineItem{
				Name:     it.Name,
				Quantity: qty,
				Variant:  it.Variant,
				Comment:  it.Comment,
			})
		}

		var meta map[string]string
		if r.TableNumber > 0 || r.CustomerName != "" || r.Notes != "" {
			meta = make(map[string]string, 3)
			if r.TableNumber > 0 {
				meta["tableNumber"] = strconv.Itoa(r.TableNumber)
			}
			if r.CustomerName != "" {
				meta["customerName"] = r.CustomerName
			}
			if r.Notes != "" {
				meta["notes"] = r.Notes
			}
		}

		orders = append(orders, models.Order{
			ID:          r.ID,
			Source:      SourceName,
			OrderNumber: r.OrderNumber,
			CreatedAt:   r.CreatedAt,
			Items:       items,
			Completed:   false,
			Metadata:    meta,
		})
	}

	return orders
}
