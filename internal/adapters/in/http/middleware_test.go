package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observedRequest struct {
	method, path string
	status       int
}

type recordingObserver struct {
	mu       sync.Mutex
	requests []observedRequest
}

func (r *recordingObserver) ObserveRequest(method, path string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, observedRequest{method: method, path: path, status: status})
}

func TestObservability_UsesRoutePattern(t *testing.T) {
	observer := &recordingObserver{}
	e := echo.New()
	e.Use(RequestLogger(slog.New(slog.DiscardHandler)), Observability(observer))
	e.GET("/things/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/broken", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "no")
	})

	do(e, http.MethodGet, "/things/42", "")
	rec := do(e, http.MethodGet, "/broken", "")

	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.Len(t, observer.requests, 2)
	assert.Equal(t, observedRequest{http.MethodGet, "/things/:id", http.StatusNoContent}, observer.requests[0])
	assert.Equal(t, observedRequest{http.MethodGet, "/broken", http.StatusTeapot}, observer.requests[1])
}

func TestRegisterOperational(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total", Help: "probe"})
	reg.MustRegister(counter)
	counter.Inc()

	e := echo.New()
	RegisterOperational(e, reg)

	rec := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "probe_total 1")
	assert.InDelta(t, 1, testutil.ToFloat64(counter), 0)
}

func TestReportedPosition(t *testing.T) {
	courierID := kernel.NewUUID()
	loc, err := kernel.NewLocation(32.08, 34.78)
	require.NoError(t, err)

	t.Run("should return the reported position", func(t *testing.T) {
		ctx := WithReportedPosition(t.Context(), courierID, loc)

		got, err := ReportedPosition{}.CurrentPosition(ctx, courierID)

		require.NoError(t, err)
		assert.InDelta(t, 32.08, got.Lat(), 1e-9)
	})

	t.Run("should not hand one courier's position to another", func(t *testing.T) {
		ctx := WithReportedPosition(t.Context(), courierID, loc)

		_, err := ReportedPosition{}.CurrentPosition(ctx, kernel.NewUUID())

		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should fail without a position", func(t *testing.T) {
		_, err := ReportedPosition{}.CurrentPosition(t.Context(), courierID)

		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should honour cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(WithReportedPosition(t.Context(), courierID, loc))
		cancel()

		_, err := ReportedPosition{}.CurrentPosition(ctx, courierID)

		assert.True(t, errors.Is(err, context.Canceled))
	})
}
