package zettle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/brewkit/orderboard/internal/clock"
	"github.com/brewkit/orderboard/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// expiryMargin is subtracted from the token expiry so a credential is never
// handed out moments before the upstream would reject it.
const expiryMargin = 30 * time.Second

// defaultTokenTTL is used when the token response carries neither a readable
// exp claim nor expires_in.
const defaultTokenTTL = time.Hour

// Credential is a short-lived access token for the Zettle API.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenProvider obtains and caches an access token via the OAuth2 JWT-bearer
// assertion grant (the API-key flow Zettle documents): the pre-issued API key
// is sent as the assertion together with the client id.
//
// A cached credential is returned without a network call while it is still
// comfortably inside its lifetime. A cache miss performs exactly one
// acquisition round-trip; retry policy belongs to the caller.
type TokenProvider struct {
	httpClient *http.Client
	tokenURL   string
	clientID   string
	assertion  string
	clock      clock.Clock

	mu     sync.Mutex
	cached Credential
}

func NewTokenProvider(httpClient *http.Client, tokenURL, clientID, assertion string, clk clock.Clock) *TokenProvider {
	return &TokenProvider{
		httpClient: httpClient,
		tokenURL:   tokenURL,
		clientID:   clientID,
		assertion:  assertion,
		clock:      clk,
	}
}

// Token returns a credential that is valid for at least expiryMargin from now,
// acquiring a fresh one if needed.
func (p *TokenProvider) Token(ctx context.Context) (Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	if p.cached.AccessToken != "" && now.Before(p.cached.ExpiresAt.Add(-expiryMargin)) {
		return p.cached, nil
	}

	cred, err := p.acquire(ctx)
	if err != nil {
		return Credential{}, err
	}
	p.cached = cred
	return cred, nil
}

// Invalidate drops the cached credential so the next Token call hits the
// token endpoint. Adapters call it after a 401 from the orders API.
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = Credential{}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (p *TokenProvider) acquire(ctx context.Context) (Credential, error) {
	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("client_id", p.clientID)
	form.Set("assertion", p.assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Credential{}, fmt.Errorf("token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("token request: %v: %w", err, common.ErrAuth)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Credential{}, fmt.Errorf("token endpoint returned %d: %w", resp.StatusCode, common.ErrAuth)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Credential{}, fmt.Errorf("decode token response: %v: %w", err, common.ErrAuth)
	}
	if tr.AccessToken == "" {
		return Credential{}, fmt.Errorf("token response missing access_token: %w", common.ErrAuth)
	}

	return Credential{
		AccessToken: tr.AccessToken,
		ExpiresAt:   p.expiry(tr),
	}, nil
}

// expiry prefers the exp claim of the access token (Zettle access tokens are
// JWTs), falls back to expires_in, then to a conservative default. The token
// is not verified here; its signature only matters to the upstream.
func (p *TokenProvider) expiry(tr tokenResponse) time.Time {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tr.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if tr.ExpiresIn > 0 {
		return p.clock.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return p.clock.Now().Add(defaultTokenTTL)
}
