// Package nsapi talks to the remote service. The API side returns XML and
// is used for rosters, region lookups and login; the site side returns
// HTML and is used for region control actions.
package nsapi

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
)

const (
	DefaultAPIBase  = "https://www.nationstates.net/cgi-bin/api.cgi"
	DefaultSiteBase = "https://www.nationstates.net"

	requestTimeout = 5 * time.Second
)

var (
	// ErrBadCredentials is returned when the API rejects a login.
	ErrBadCredentials = errors.New("nsapi: login rejected")
	// ErrRateLimited is returned when the API keeps answering 429.
	ErrRateLimited = errors.New("nsapi: rate limited")
	// ErrNotFound is returned for unknown nations and regions.
	ErrNotFound = errors.New("nsapi: not found")
)

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nsapi: HTTP %d from %s", e.Code, e.URL)
}

// Options configures a Client.
type Options struct {
	Version  string // samsite version, used in user agents
	User     string // operator's main nation, used in user agents
	APIBase  string
	SiteBase string
	HTTP     *http.Client
	Logger   zerolog.Logger
}

// Client is safe for concurrent use. The poller and the engagement path
// share one Client; the governor paces API requests across both.
type Client struct {
	http     *http.Client
	apiBase  string
	siteBase string
	apiUA    string
	siteUA   string
	gov      *governor
	log      zerolog.Logger
}

// New creates a Client. Zero fields in opts take defaults.
func New(opts Options) *Client {
	if opts.APIBase == "" {
		opts.APIBase = DefaultAPIBase
	}
	if opts.SiteBase == "" {
		opts.SiteBase = DefaultSiteBase
	}
	if opts.HTTP == nil {
		opts.HTTP = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		http:     opts.HTTP,
		apiBase:  opts.APIBase,
		siteBase: opts.SiteBase,
		apiUA:    fmt.Sprintf("samsite/%s (API Component); In use by %s", opts.Version, opts.User),
		siteUA:   fmt.Sprintf("samsite/%s (HTML Component); In use by %s", opts.Version, opts.User),
		gov:      newGovernor(),
		log:      opts.Logger,
	}
}

// apiGet issues one API request. A 429 pauses the governor for Retry-After
// and re-issues the request once.
func (c *Client) apiGet(ctx context.Context, query url.Values, header http.Header) (*http.Response, error) {
	u := c.apiBase + "?" + query.Encode()

	for attempt := 0; attempt < 2; attempt++ {
		if err := c.gov.wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.apiUA)
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("nsapi: request failed: %w", err)
		}
		c.gov.observe(resp.Header)

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		wait := retryAfter(resp.Header)
		c.log.Warn().Dur("retry_after", wait).Msg("rate limited by API")
		c.gov.pauseFor(wait)
	}
	return nil, ErrRateLimited
}

// decodeXML reads an API response body into v. Non-2xx responses are
// returned as errors; 404 maps to ErrNotFound.
func decodeXML(resp *http.Response, v any) error {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode, URL: resp.Request.URL.String()}
	}

	dec := xml.NewDecoder(resp.Body)
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("nsapi: parse response: %w", err)
	}
	return nil
}

func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs < 0 {
		return time.Second
	}
	return time.Duration(secs) * time.Second
}
