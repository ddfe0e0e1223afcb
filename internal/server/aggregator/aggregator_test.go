package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/brewkit/orderboard/internal/common"
	"github.com/brewkit/orderboard/internal/logging"
	"github.com/brewkit/orderboard/internal/server/models"
	"github.com/brewkit/orderboard/internal/server/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeSource implements upstream.Source for aggregator tests.
type fakeSource struct {
	name   string
	orders []models.Order
	err    error
	delay  time.Duration
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchToday(ctx context.Context) ([]models.Order, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch: %v: %w", ctx.Err(), common.ErrUpstream)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func order(id, source string, createdAt time.Time) models.Order {
	return models.Order{
		ID:        id,
		Source:    source,
		CreatedAt: createdAt,
		Items:     []models.LineItem{{Name: "Espresso", Quantity: 1}},
	}
}

func sources(ss ...upstream.Source) []upstream.Source { return ss }

func TestFetchAll_MergesAllSources(t *testing.T) {
	t0 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	agg := New(sources(
		&fakeSource{name: "zettle", orders: []models.Order{order("z1", "zettle", t0.Add(time.Minute))}},
		&fakeSource{name: "custom", orders: []models.Order{order("c1", "custom", t0.Add(2 * time.Minute))}},
	), time.Second, testLogger())

	result := agg.FetchAll(context.Background())

	require.Len(t, result.Orders, 2)
	assert.Equal(t, "c1", result.Orders[0].ID, "most recent first")
	assert.Equal(t, "z1", result.Orders[1].ID)
	assert.Equal(t, SourceStatus{OK: true, Count: 1}, result.Sources["zettle"])
	assert.Equal(t, SourceStatus{OK: true, Count: 1}, result.Sources["custom"])
}

func TestFetchAll_PartialFailure(t *testing.T) {
	t0 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	agg := New(sources(
		&fakeSource{name: "zettle", err: fmt.Errorf("boom: %w", common.ErrUpstream)},
		&fakeSource{name: "custom", orders: []models.Order{order("c1", "custom", t0)}},
	), time.Second, testLogger())

	result := agg.FetchAll(context.Background())

	require.Len(t, result.Orders, 1)
	assert.Equal(t, "c1", result.Orders[0].ID)
	assert.False(t, result.Sources["zettle"].OK)
	assert.Contains(t, result.Sources["zettle"].Err, "boom")
	assert.True(t, result.Sources["custom"].OK)
}

func TestFetchAll_AllSourcesFail(t *testing.T) {
	agg := New(sources(
		&fakeSource{name: "zettle", err: errors.New("down")},
		&fakeSource{name: "custom", err: errors.New("also down")},
	), time.Second, testLogger())

	result := agg.FetchAll(context.Background())

	assert.Empty(t, result.Orders)
	assert.False(t, result.Sources["zettle"].OK)
	assert.False(t, result.Sources["custom"].OK)
}

func TestFetchAll_TimeoutTreatedAsFailure(t *testing.T) {
	t0 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	agg := New(sources(
		&fakeSource{name: "slow", delay: 500 * time.Millisecond, orders: []models.Order{order("s1", "slow", t0)}},
		&fakeSource{name: "fast", orders: []models.Order{order("f1", "fast", t0)}},
	), 50*time.Millisecond, testLogger())

	result := agg.FetchAll(context.Background())

	require.Len(t, result.Orders, 1)
	assert.Equal(t, "f1", result.Orders[0].ID)
	assert.False(t, result.Sources["slow"].OK)
}

func TestFetchAll_DeterministicOrderingOnTies(t *testing.T) {
	ts := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	// same timestamps from two sources; slow one finishes last but ordering
	// must not depend on that
	agg := New(sources(
		&fakeSource{name: "zettle", delay: 50 * time.Millisecond, orders: []models.Order{
			order("b", "zettle", ts),
			order("a", "zettle", ts),
		}},
		&fakeSource{name: "custom", orders: []models.Order{
			order("a", "custom", ts),
		}},
	), time.Second, testLogger())

	result := agg.FetchAll(context.Background())

	require.Len(t, result.Orders, 3)
	// tie on CreatedAt: source asc, then id asc
	assert.Equal(t, "custom", result.Orders[0].Source)
	assert.Equal(t, "a", result.Orders[1].ID)
	assert.Equal(t, "zettle", result.Orders[1].Source)
	assert.Equal(t, "b", result.Orders[2].ID)
}

func TestFetchAll_SortsByCreatedAtDescending(t *testing.T) {
	t0 := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	agg := New(sources(
		&fakeSource{name: "zettle", orders: []models.Order{
			order("old", "zettle", t0),
			order("newest", "zettle", t0.Add(10*time.Minute)),
			order("mid", "zettle", t0.Add(5*time.Minute)),
		}},
	), time.Second, testLogger())

	result := agg.FetchAll(context.Background())

	require.Len(t, result.Orders, 3)
	assert.Equal(t, "newest", result.Orders[0].ID)
	assert.Equal(t, "mid", result.Orders[1].ID)
	assert.Equal(t, "old", result.Orders[2].ID)
}
