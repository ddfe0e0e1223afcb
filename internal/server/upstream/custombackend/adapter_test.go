package custombackend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brewkit/orderboard/internal/clock"
	"github.com/brewkit/orderboard/internal/common"
	"github.com/brewkit/orderboard/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestSource(baseURL string, now time.Time) *Source {
	client := &http.Client{Timeout: 5 * time.Second}
	return NewSource(client, baseURL, "key-1", time.UTC, clock.Fixed{Instant: now}, testLogger())
}

func TestFetchToday_NormalizesOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("X-API-Key"))
		assert.Equal(t, "2024-01-15T00:00:00Z", r.URL.Query().Get("since"))

		fmt.Fprint(w, `{"orders":[
			{"id":"c1","orderNumber":"7","createdAt":"2024-01-15T10:00:00Z",
			 "items":[{"name":"Cappuccino","quantity":1,"variant":"Large"}],
			 "tableNumber":4,"customerName":"Dana","notes":"to go"},
			{"id":"","items":[{"name":"ghost"}]},
			{"id":"c2","createdAt":"2024-01-15T10:05:00Z","items":[]}
		]}`)
	}))
	defer srv.Close()

	s := newTestSource(srv.URL, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))

	orders, err := s.FetchToday(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, "c1", o.ID)
	assert.Equal(t, SourceName, o.Source)
	assert.Equal(t, "7", o.OrderNumber)
	assert.Equal(t, map[string]string{
		"tableNumber":  "4",
		"customerName": "Dana",
		"notes":        "to go",
	}, o.Metadata)
}

func TestFetchToday_RejectedKeyIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := newTestSource(srv.URL, time.Now())

	_, err := s.FetchToday(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrAuth))
}

func TestFetchToday_ServerErrorIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestSource(srv.URL, time.Now())

	_, err := s.FetchToday(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstream))
}

func TestFetchToday_MalformedBodyIsSchemaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	s := newTestSource(srv.URL, time.Now())

	_, err := s.FetchToday(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrSchema))
}

func TestCompleteRemote(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key-1", r.Header.Get("X-API-Key"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := newTestSource(srv.URL, time.Now())

	require.NoError(t, s.CompleteRemote(context.Background(), "c1"))
	assert.Equal(t, "/orders/c1/complete", gotPath)
}

func TestCompleteRemote_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := newTestSource(srv.URL, time.Now())

	err := s.CompleteRemote(context.Background(), "c1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUpstream))
}
