// Package zettle adapts the Zettle POS purchases API to the upstream.Source
// contract: JWT-bearer token acquisition, a day-scoped purchase fetch with a
// single refresh retry on 401, and normalization into the canonical schema.
package zettle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/brewkit/orderboard/internal/clock"
	"github.com/brewkit/orderboard/internal/common"
	"github.com/brewkit/orderboard/internal/logging"
	"github.com/brewkit/orderboard/internal/server/models"
	"github.com/brewkit/orderboard/internal/server/upstream"
)

// SourceName tags orders fetched from Zettle.
const SourceName = "zettle"

// Source fetches today's purchases from Zettle.
type Source struct {
	httpClient   *http.Client
	purchasesURL string
	tokens       *TokenProvider
	location     *time.Location
	clock        clock.Clock
	logger       logging.Logger
}

func NewSource(httpClient *http.Client, purchasesURL string, tokens *TokenProvider, loc *time.Location, clk clock.Clock, logger logging.Logger) *Source {
	return &Source{
		httpClient:   httpClient,
		purchasesURL: purchasesURL,
		tokens:       tokens,
		location:     loc,
		clock:        clk,
		logger:       logger.With("source", SourceName),
	}
}

func (s *Source) Name() string { return SourceName }

// FetchToday returns purchases created since local midnight in the shop time
// zone. On a 401 the cached token is invalidated and the fetch is retried
// exactly once with a fresh credential; a second 401 is terminal.
func (s *Source) FetchToday(ctx context.Context) ([]models.Order, error) {
	since := upstream.StartOfDay(s.clock.Now(), s.location)

	cred, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.fetch(ctx, cred, since)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		s.tokens.Invalidate()

		cred, err = s.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		resp, err = s.fetch(ctx, cred, since)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("purchases rejected refreshed token: %w", common.ErrAuth)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("purchases returned %d: %w", resp.StatusCode, common.ErrUpstream)
	}

	var body purchasesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode purchases: %v: %w", err, common.ErrSchema)
	}

	return s.normalize(ctx, body.Purchases), nil
}

func (s *Source) fetch(ctx context.Context, cred Credential, since time.Time) (*http.Response, error) {
	u, err := url.Parse(s.purchasesURL)
	if err != nil {
		return nil, fmt.Errorf("purchases url: %w", err)
	}
	q := u.Query()
	q.Set("startDate", since.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("purchases request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("purchases request: %v: %w", err, common.ErrUpstream)
	}
	return resp, nil
}

type purchasesResponse struct {
	Purchases []purchase `json:"purchases"`
}

type purchase struct {
	PurchaseUUID   string    `json:"purchaseUUID"`
	PurchaseNumber string    `json:"purchaseNumber"`
	Timestamp      time.Time `json:"timestamp"`
	Products       []product `json:"products"`
}

type product struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	VariantName string `json:"variantName"`
	Comment     string `json:"comment"`
}

// normalize converts raw purchases into canonical orders. Entries without an
// id or with no products are dropped with a warning; partial data beats no
// data.
func (s *Source) normalize(ctx context.Context, purchases []purchase) []models.Order {
	orders := make([]models.Order, 0, len(purchases))

	for _, p := range purchases {
		if p.PurchaseUUID == "" {
			s.logger.Warn(ctx, "dropping purchase without purchaseUUID")
			continue
		}
		if len(p.Products) == 0 {
			s.logger.Warn(ctx, "dropping purchase with no products", "purchase", p.PurchaseUUID)
			continue
		}

		items := make([]models.LineItem, 0, len(p.Products))
		for _, prod := range p.Products {
			name := prod.Name
			if name == "" {
				name = "Unknown Item"
			}
			qty := prod.Quantity
			if qty <= 0 {
				qty = 1
			}
			items = append(items, models.LineItem{
				Name:     name,
				Quantity: qty,
				Variant:  prod.VariantName,
				Comment:  prod.Comment,
			})
		}

		number := p.PurchaseNumber
		if number == "" {
			number = "Unknown"
		}

		orders = append(orders, models.Order{
			ID:          p.PurchaseUUID,
			Source:      SourceName,
			OrderNumber: number,
			CreatedAt:   p.Timestamp,
			Items:       items,
			Completed:   false,
		})
	}

	return orders
}
