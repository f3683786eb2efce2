// Package client implements the single rate-limited, circuit-breaking HTTP
// access primitive every source adapter is built on (C1).
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/ugent-pgx/knowledge-graph/internal/domain"
)

// host is one registered upstream: its own token bucket and circuit breaker.
type host struct {
	cfg     domain.HostConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// Client is the shared, thread-safe HTTP access point for all source adapters.
type Client struct {
	httpClient *http.Client
	hosts      map[string]*host
	log        *logrus.Logger
}

// New builds a Client with one host registered per ExternalAPIConfig entry.
func New(cfg domain.ExternalAPIConfig, log *logrus.Logger) *Client {
	c := &Client{
		httpClient: &http.Client{},
		hosts:      make(map[string]*host),
		log:        log,
	}
	c.Register("uniprot", cfg.UniProt)
	c.Register("clinvar", cfg.ClinVar)
	c.Register("pharmgkb", cfg.PharmGKB)
	c.Register("chembl", cfg.ChEMBL)
	c.Register("openfda", cfg.OpenFDA)
	c.Register("europepmc", cfg.EuropePMC)
	c.Register("bioportal", cfg.BioPortal)
	c.Register("rxnorm", cfg.RxNorm)
	c.Register("clinical_tables", cfg.ClinicalTables)
	return c
}

// Register adds or replaces a host's rate limiter and circuit breaker.
func (c *Client) Register(name string, cfg domain.HostConfig) {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(breakerName string, from, to gobreaker.State) {
			c.log.WithFields(logrus.Fields{
				"host": breakerName, "from": from.String(), "to": to.String(),
			}).Warn("circuit breaker state change")
		},
	})
	c.hosts[name] = &host{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		breaker: breaker,
	}
}

// Response is the raw body plus status returned by a successful fetch.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Get fetches host+path with query params and returns the raw body; callers
// decode it themselves. It never returns an *http.Response-shaped error: the Result's Status tags
// the failure per the §4.1/§7 taxonomy.
func (c *Client) Get(ctx context.Context, hostName, path string, query url.Values, headers map[string]string) domain.Result[Response] {
	h, ok := c.hosts[hostName]
	if !ok {
		return domain.Failed[Response](domain.StatusPermanentFailed,
			fmt.Errorf("client: unregistered host %q", hostName))
	}

	fullURL := path
	if len(query) > 0 {
		fullURL = fmt.Sprintf("%s?%s", path, query.Encode())
	}

	start := time.Now()
	var resp Response
	operation := func() error {
		if err := h.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		out, err := h.breaker.Execute(func() (interface{}, error) {
			return c.doRequest(ctx, h, fullURL, headers)
		})
		if err != nil {
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return backoff.Permanent(fmt.Errorf("%s: circuit open: %w", hostName, err))
			}
			return err
		}
		resp = out.(Response)
		if resp.StatusCode == http.StatusTooManyRequests {
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, perr := strconv.Atoi(retryAfter); perr == nil {
					time.Sleep(time.Duration(seconds) * time.Second)
				}
			}
			return fmt.Errorf("%s: rate limited (429)", hostName)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%s: upstream status %d", hostName, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("%s: client error %d", hostName, resp.StatusCode))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = h.cfg.MaxElapsed
	if bo.MaxElapsedTime == 0 {
		bo.MaxElapsedTime = 30 * time.Second
	}

	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Result[Response]{Status: domain.StatusTransientFailed, Err: domain.Cancelled(hostName), Elapsed: elapsed}
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return domain.Result[Response]{Status: domain.StatusPermanentFailed, Err: domain.PermanentUpstream(hostName, err.Error()), Elapsed: elapsed}
		}
		return domain.Result[Response]{Status: domain.StatusTransientFailed, Err: domain.TransientUpstream(hostName, err.Error()), Elapsed: elapsed}
	}
	return domain.Result[Response]{Status: domain.StatusOK, Value: resp, Elapsed: elapsed}
}

func (c *Client) doRequest(ctx context.Context, h *host, fullURL string, headers map[string]string) (Response, error) {
	timeout := h.cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, h.cfg.BaseURL+fullURL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pgx-knowledge-graph/1.0")
	if h.cfg.Email != "" {
		req.Header.Set("From", h.cfg.Email)
	}
	if h.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("reading response body: %w", err)
	}
	return Response{StatusCode: resp.StatusCode, Body: body, Header: resp.Header}, nil
}
