// Package ewa wraps the RRC EWA wellbore query web application: a cookie-
// session form POST whose results come back as HTML.
package ewa

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the live EWA application root.
const DefaultBaseURL = "https://webapps2.rrc.texas.gov/EWA"

// Client holds one logical EWA session. The server requires cookies
// established by two bootstrap page visits before it will answer query
// POSTs; ensureSession performs them exactly once. Whether the remote
// session tolerates concurrent requests is unspecified, so every call
// serializes on an internal mutex: one in-flight request owns the session
// at a time.
type Client struct {
	http          *resty.Client
	apiTimeout    time.Duration
	countyTimeout time.Duration
	logger        *slog.Logger

	mu          sync.Mutex
	established bool
}

// NewClient creates an EWA client with a fresh cookie jar. Session state is
// process-scoped; it does not survive restarts.
func NewClient(baseURL string, apiTimeout, countyTimeout time.Duration, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")

	return &Client{
		http:          client,
		apiTimeout:    apiTimeout,
		countyTimeout: countyTimeout,
		logger:        logger,
	}, nil
}

// ensureSession visits the two bootstrap endpoints. Callers must hold mu.
func (c *Client) ensureSession(ctx context.Context) error {
	if c.established {
		return nil
	}

	res, err := c.http.R().SetContext(ctx).Get("/ewaMain.do")
	if err != nil {
		return fmt.Errorf("ewa session bootstrap: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("ewa session bootstrap: status %d", res.StatusCode())
	}
	res, err = c.http.R().
		SetContext(ctx).
		SetQueryParam("methodToCall", "beginWellboreQuery").
		Get("/wellboreQueryAction.do")
	if err != nil {
		return fmt.Errorf("ewa wellbore query bootstrap: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("ewa wellbore query bootstrap: status %d", res.StatusCode())
	}

	c.established = true
	c.logger.Debug("ewa session established")
	return nil
}

// searchForm returns the full search-argument field set the wellbore form
// expects, all blank. Callers fill in the fields for their query shape.
func searchForm(page, pageSize int) map[string]string {
	return map[string]string{
		"methodToCall":                  "search",
		"searchArgs.apiNoPrefixArg":     "",
		"searchArgs.apiNoSuffixArg":     "",
		"searchArgs.districtCodeArg":    "",
		"searchArgs.countyCodeArg":      "",
		"searchArgs.operatorNoArg":      "",
		"searchArgs.leaseNameArg":       "",
		"searchArgs.rrcIdNoArg":         "",
		"searchArgs.fieldNoArg":         "",
		"searchArgs.wellNoArg":          "",
		"searchArgs.wellTypeArg":        "",
		"searchArgs.apiNoCompleteArg":   "",
		"searchArgs.operatorNumbersArg": "",
		"page":                          strconv.Itoa(page),
		"pagesize":                      strconv.Itoa(pageSize),
	}
}

// SearchByAPI looks up the operator of record for one fully specified API
// number, split into county prefix and well suffix. ok is false when the
// query matched nothing.
func (c *Client) SearchByAPI(ctx context.Context, prefix, suffix string) (op Operator, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.apiTimeout)
	defer cancel()

	if err := c.ensureSession(ctx); err != nil {
		return Operator{}, false, err
	}

	form := searchForm(1, 50)
	form["searchArgs.apiNoPrefixArg"] = prefix
	form["searchArgs.apiNoSuffixArg"] = suffix

	res, err := c.http.R().SetContext(ctx).SetFormData(form).Post("/wellboreQueryAction.do")
	if err != nil {
		return Operator{}, false, fmt.Errorf("ewa api search %s-%s: %w", prefix, suffix, err)
	}
	// A rejected or expired session answers with an error page, not matches.
	if res.IsError() {
		return Operator{}, false, fmt.Errorf("ewa api search %s-%s: status %d", prefix, suffix, res.StatusCode())
	}

	page, err := ParseResultsPage(res.Body())
	if err != nil {
		return Operator{}, false, fmt.Errorf("ewa api search %s-%s: %w", prefix, suffix, err)
	}
	if len(page.Operators) == 0 {
		return Operator{}, false, nil
	}
	return page.Operators[0], true, nil
}

// SearchByCounty queries all wells whose API number starts with the 3-digit
// county code, one page at a time. The result classifies the response as
// pairs, overflow, or empty.
func (c *Client) SearchByCounty(ctx context.Context, county string, page, pageSize int) (PageResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.countyTimeout)
	defer cancel()

	if err := c.ensureSession(ctx); err != nil {
		return PageResult{}, err
	}

	form := searchForm(page, pageSize)
	form["searchArgs.apiNoPrefixArg"] = county

	res, err := c.http.R().SetContext(ctx).SetFormData(form).Post("/wellboreQueryAction.do")
	if err != nil {
		return PageResult{}, fmt.Errorf("ewa county search %s page %d: %w", county, page, err)
	}
	if res.IsError() {
		return PageResult{}, fmt.Errorf("ewa county search %s page %d: status %d", county, page, res.StatusCode())
	}

	result, err := ParseResultsPage(res.Body())
	if err != nil {
		return PageResult{}, fmt.Errorf("ewa county search %s page %d: %w", county, page, err)
	}
	return result, nil
}
