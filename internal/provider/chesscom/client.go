// Package chesscom implements provider.Provider against the chess.com
// published-data API.
package chesscom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/discochess/archivist/internal/provider"
)

const (
	// DefaultBaseURL is the root of the published-data API.
	DefaultBaseURL = "https://api.chess.com/pub"

	// DefaultUserAgent identifies the client to the API operators.
	DefaultUserAgent = "archivist (+https://github.com/discochess/archivist)"

	// DefaultResponseHeaderTimeout is the default timeout for receiving response headers.
	DefaultResponseHeaderTimeout = 30 * time.Second

	// DefaultRequestsPerSecond paces requests across all goroutines sharing a client.
	DefaultRequestsPerSecond = 6
)

// Compile-time check that Client implements provider.Provider.
var _ provider.Provider = (*Client)(nil)

// Client talks to the chess.com API.
type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithBaseURL points the client at a different API root (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRateLimit sets the sustained request rate and burst size.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client with sensible defaults.
func New(opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: 0, // Per-request deadlines come from the context.
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		limiter:   rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultRequestsPerSecond),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type archivesResponse struct {
	Archives []string `json:"archives"`
}

// Archives returns the player's archive months as "YYYY-MM".
func (c *Client) Archives(ctx context.Context, username string) ([]string, error) {
	body, err := c.get(ctx, "/player/"+url.PathEscape(strings.ToLower(username))+"/games/archives")
	if err != nil {
		return nil, err
	}

	var resp archivesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding archives: %v", provider.ErrUnavailable, err)
	}

	months := make([]string, 0, len(resp.Archives))
	for _, u := range resp.Archives {
		m, err := MonthFromArchiveURL(u)
		if err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, nil
}

// MonthPGN returns the month's games as concatenated PGN text.
func (c *Client) MonthPGN(ctx context.Context, username string, year, month int) (string, error) {
	path := fmt.Sprintf("/player/%s/games/%04d/%02d/pgn", url.PathEscape(strings.ToLower(username)), year, month)
	body, err := c.get(ctx, path)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Stats returns the player's rating records. Categories without a record
// block (puzzles, tactics, fide) are skipped.
func (c *Client) Stats(ctx context.Context, username string) (*provider.PlayerStats, error) {
	body, err := c.get(ctx, "/player/"+url.PathEscape(strings.ToLower(username))+"/stats")
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding stats: %v", provider.ErrUnavailable, err)
	}

	stats := &provider.PlayerStats{Records: make(map[string]provider.Record)}
	for category, msg := range raw {
		var block struct {
			Record *provider.Record `json:"record"`
		}
		if err := json.Unmarshal(msg, &block); err != nil || block.Record == nil {
			continue
		}
		stats.Records[category] = *block.Record
	}
	return stats, nil
}

// MonthFromArchiveURL extracts "YYYY-MM" from an archive URL such as
// https://api.chess.com/pub/player/alice/games/2024/01.
func MonthFromArchiveURL(u string) (string, error) {
	parts := strings.Split(strings.TrimSuffix(u, "/"), "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: malformed archive url %q", provider.ErrUnavailable, u)
	}
	year, month := parts[len(parts)-2], parts[len(parts)-1]
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	if errY != nil || errM != nil || len(year) != 4 || m < 1 || m > 12 {
		return "", fmt.Errorf("%w: malformed archive url %q", provider.ErrUnavailable, u)
	}
	return fmt.Sprintf("%04d-%02d", y, m), nil
}

// get performs a paced GET and maps HTTP failures to provider errors.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := statusError(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", provider.ErrUnavailable, err)
	}
	return body, nil
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", provider.ErrRateLimited, resp.Status)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: %s", provider.ErrUnknownPlayer, resp.Status)
	default:
		return fmt.Errorf("%w: unexpected status: %s", provider.ErrUnavailable, resp.Status)
	}
}
