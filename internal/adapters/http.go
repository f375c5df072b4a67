package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mselser95/arb-scanner/internal/circuitbreaker"
	"github.com/mselser95/arb-scanner/pkg/ratelimit"
	"github.com/mselser95/arb-scanner/pkg/retry"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// httpClient is the shared rate-limited, retry-wrapped, circuit-breaker
// guarded GET helper every adapter builds on, in the style of the teacher's
// discovery.Client.
type httpClient struct {
	platform types.Platform
	baseURL  string
	client   *http.Client
	limiter  *ratelimit.Limiter
	breaker  *circuitbreaker.Breaker
	logger   *zap.Logger
}

func newHTTPClient(platform types.Platform, baseURL string, timeout time.Duration, limiter *ratelimit.Limiter, logger *zap.Logger) *httpClient {
	breaker, err := circuitbreaker.New(circuitbreaker.DefaultConfig(string(platform), logger))
	if err != nil {
		// DefaultConfig is always internally consistent; this would only
		// fail on a programmer error in the envelope itself.
		panic(fmt.Sprintf("adapters: invalid circuit breaker config: %v", err))
	}

	return &httpClient{
		platform: platform,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
		limiter:  limiter,
		breaker:  breaker,
		logger:   logger,
	}
}

// getJSON performs a rate-limited, retried GET against path with params,
// returning the response body on 2xx. A 404 returns (nil, nil) so callers
// implementing fetchMarketById can report "not found" without an error.
func (c *httpClient) getJSON(ctx context.Context, path string, params url.Values) ([]byte, error) {
	requestURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if len(params) > 0 {
		requestURL = fmt.Sprintf("%s?%s", requestURL, params.Encode())
	}

	var body []byte
	op := func(ctx context.Context) error {
		return c.limiter.Schedule(ctx, func(ctx context.Context) error {
			err := c.breaker.Do(ctx, func(ctx context.Context) error {
				b, err := c.doOnce(ctx, requestURL)
				if err != nil {
					return err
				}
				body = b
				return nil
			})
			if errors.Is(err, circuitbreaker.ErrOpen) {
				return types.Classify(err, c.platform, 0, 0)
			}
			return err
		})
	}

	cfg := retry.DefaultConfig(types.Retryable)
	err := retry.Do(ctx, cfg, op)
	if err != nil {
		if pe, ok := asNotFound(err); ok {
			c.logger.Debug("not-found", zap.String("url", requestURL), zap.Error(pe))
			return nil, nil
		}
		return nil, err
	}
	return body, nil
}

func asNotFound(err error) (*types.PlatformError, bool) {
	pe, ok := err.(*types.PlatformError)
	if !ok {
		return nil, false
	}
	return pe, pe.Kind == types.KindHTTPStatus && pe.StatusCode == http.StatusNotFound
}

func (c *httpClient) doOnce(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, types.Classify(err, c.platform, 0, 0)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "arb-scanner/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, types.Classify(err, c.platform, 0, 0)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.Classify(err, c.platform, 0, 0)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, types.Classify(nil, c.platform, http.StatusNotFound, 0)
	}

	if resp.StatusCode != http.StatusOK {
		retryAfterS := 0
		if v := resp.Header.Get("Retry-After"); v != "" {
			if n, convErr := strconv.Atoi(v); convErr == nil {
				retryAfterS = n
			}
		}
		return nil, types.Classify(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)), c.platform, resp.StatusCode, retryAfterS)
	}

	return body, nil
}
