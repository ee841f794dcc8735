package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fitelo/sales-dashboard/pkg/retry"
	"github.com/fitelo/sales-dashboard/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://sheets.googleapis.com"

// StatusError is a non-2xx answer from a Google endpoint.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d", e.Op, e.Code)
}

// retryable reports whether a later attempt could get a different answer.
func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client reads cell values from one spreadsheet through the Sheets v4 API.
// It is safe for concurrent use; the token cache and limiter are shared,
// nothing about the fetched data is.
type Client struct {
	spreadsheetID string
	baseURL       string
	client        *http.Client
	tokens        *TokenSource
	limiter       *rate.Limiter
	retry         retry.Config
	logger        *zap.Logger
}

// Opts is the set of options for a new Client.
type Opts struct {
	SpreadsheetID string
	// Credentials is the raw service-account key file.
	Credentials []byte
	// BaseURL overrides the API host, mostly for tests.
	BaseURL    string
	Timeout    time.Duration
	RPS        int
	Burst      int
	Retry      retry.Config
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient validates opts and builds a Client. Errors here are
// configuration errors.
func NewClient(o Opts) (*Client, error) {
	if o.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	account, err := ParseServiceAccount(o.Credentials)
	if err != nil {
		return nil, err
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.RPS <= 0 {
		o.RPS = 1
	}
	if o.Burst <= 0 {
		o.Burst = 4
	}
	if o.Retry.MaxRetries <= 0 {
		o.Retry = retry.DefaultConfig()
	}
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	} else if client.Timeout == 0 {
		client.Timeout = o.Timeout
	}

	tokens, err := NewTokenSource(account, client)
	if err != nil {
		return nil, err
	}

	return &Client{
		spreadsheetID: o.SpreadsheetID,
		baseURL:       strings.TrimRight(o.BaseURL, "/"),
		client:        client,
		tokens:        tokens,
		limiter:       rate.NewLimiter(rate.Limit(o.RPS), o.Burst),
		retry:         o.Retry,
		logger:        o.Logger,
	}, nil
}

// Values fetches a1Range, retrying transient failures.
func (c *Client) Values(ctx context.Context, a1Range string) (Grid, error) {
	var grid Grid
	err := retry.WithBackoff(ctx, c.retry, c.logger, "sheets.values "+a1Range, func() error {
		g, err := c.fetch(ctx, a1Range)
		if err != nil {
			return err
		}
		grid = g
		return nil
	})
	if err != nil {
		c.logger.Error("Sheet fetch failed", zap.String("range", a1Range), zap.Error(err))
		return nil, err
	}
	return grid, nil
}

// Check verifies the credentials can be exchanged for a token.
func (c *Client) Check(ctx context.Context) error {
	_, err := c.tokens.Token(ctx, ReadOnlyScope)
	return err
}

func (c *Client) valuesURL(a1Range string) string {
	return fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?majorDimension=ROWS",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(a1Range))
}

func (c *Client) fetch(ctx context.Context, a1Range string) (Grid, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, retry.Permanent(err)
	}

	token, err := c.tokens.Token(ctx, ReadOnlyScope)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.valuesURL(a1Range), nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = utils.DrainAndClose(resp.Body) }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// token revoked or rotated underneath us; next attempt re-exchanges
		c.tokens.Invalidate(ReadOnlyScope)
		return nil, &StatusError{Op: "values", Code: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Permanent(fmt.Errorf("%w: %s", ErrRangeNotFound, a1Range))
	case resp.StatusCode >= 300:
		se := &StatusError{Op: "values", Code: resp.StatusCode}
		if se.retryable() {
			return nil, se
		}
		return nil, retry.Permanent(se)
	}

	var body struct {
		Values [][]any `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, retry.Permanent(fmt.Errorf("decode values %s: %w", a1Range, err))
	}
	return toGrid(body.Values), nil
}

// toGrid stringifies cells. FORMATTED_VALUE responses are already strings,
// but numbers and booleans show up when the render option is changed.
func toGrid(values [][]any) Grid {
	grid := make(Grid, len(values))
	for i, row := range values {
		out := make([]string, len(row))
		for j, cell := range row {
			switch v := cell.(type) {
			case nil:
			case string:
				out[j] = v
			case float64:
				out[j] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				out[j] = strings.ToUpper(strconv.FormatBool(v))
			default:
				out[j] = fmt.Sprint(v)
			}
		}
		grid[i] = out
	}
	return grid
}
