package embeddings

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/sony/gobreaker/v2"
)

const (
	breakerName         = "embeddings"
	breakerResetTimeout = 30 * time.Second
	breakerFailMax      = 3
)

// newBreaker builds the circuit breaker: it opens after three consecutive
// counted failures, stays open for the reset timeout, then lets a single
// probe through and closes again on the first success.
func newBreaker(hook StateHook) *gobreaker.CircuitBreaker[[][]float32] {
	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     breakerResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailMax
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
	}
	if hook != nil {
		settings.OnStateChange = func(name string, _, to gobreaker.State) {
			hook(name, to)
		}
	}
	return gobreaker.NewCircuitBreaker[[][]float32](settings)
}

// countsAsFailure decides which errors indicate an unhealthy provider.
// Caller-side mistakes (bad request payloads, unparseable base URLs) and
// canceled contexts say nothing about service health, so they pass through
// without moving the breaker.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op == "parse" {
		return false
	}
	return true
}
