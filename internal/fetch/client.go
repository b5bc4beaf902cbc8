// Package fetch issues the single GET behind every panel and turns the
// response into a typed collection or a *fetch.Error.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tarediiran-industries.com/transit-dashboard/internal/common"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "transit-dashboard/1.0"

	maxBodyBytes = 64 << 20
)

// Client holds the base URL every path is resolved against. It is safe for
// concurrent use and never mutated after NewClient returns.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	accept    string
	log       zerolog.Logger
	metrics   *common.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(client *Client) { client.http = hc }
}

func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		if timeout > 0 {
			client.http.Timeout = timeout
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(client *Client) {
		if ua != "" {
			client.userAgent = ua
		}
	}
}

// WithAccept overrides the Accept header, e.g. for protobuf feeds.
func WithAccept(accept string) Option {
	return func(client *Client) { client.accept = accept }
}

func WithLogger(log zerolog.Logger) Option {
	return func(client *Client) { client.log = log }
}

func WithMetrics(metrics *common.Metrics) Option {
	return func(client *Client) { client.metrics = metrics }
}

func newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: DefaultTimeout}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) url", baseURL)
	}

	client := &Client{
		base:      base,
		http:      newHTTPClient(),
		userAgent: DefaultUserAgent,
		accept:    "application/json",
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (client *Client) BaseURL() string { return client.base.String() }

func (client *Client) Metrics() *common.Metrics { return client.metrics }

func (client *Client) Logger() zerolog.Logger { return client.log }

// BuildURL resolves path against the base URL. Each {name} segment of path
// is replaced by the path-escaped value of params[name], and that key is
// left out of the query string. Remaining params are encoded in sorted key
// order after any query already present on the base URL.
func (client *Client) BuildURL(path string, params url.Values) (string, error) {
	rest := url.Values{}
	for key, values := range params {
		rest[key] = append([]string(nil), values...)
	}

	filled, err := fillTemplate(path, rest)
	if err != nil {
		return "", err
	}

	u := *client.base
	if filled != "" {
		if !strings.HasPrefix(filled, "/") {
			filled = "/" + filled
		}
		u.RawPath = strings.TrimRight(client.base.EscapedPath(), "/") + filled
		u.Path, err = url.PathUnescape(u.RawPath)
		if err != nil {
			return "", fmt.Errorf("path %q: %w", path, err)
		}
	}

	query := client.base.Query()
	for key, values := range rest {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func fillTemplate(path string, params url.Values) (string, error) {
	if !strings.Contains(path, "{") {
		return path, nil
	}

	var out strings.Builder
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			out.WriteString(path)
			return out.String(), nil
		}
		end := strings.IndexByte(path[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("path %q: unterminated parameter", path)
		}
		name := path[open+1 : open+end]
		value := strings.TrimSpace(params.Get(name))
		if value == "" {
			return "", fmt.Errorf("path parameter %q is empty", name)
		}
		params.Del(name)

		out.WriteString(path[:open])
		out.WriteString(url.PathEscape(value))
		path = path[open+end+1:]
	}
}

// Endpoint is the metrics label for a path template.
func Endpoint(path string) string {
	if path == "" {
		return "feed"
	}
	return path
}

// Get performs one GET and returns the body of a 2xx response.
func (client *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := Endpoint(path)
	target, err := client.BuildURL(path, params)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "request not sent: " + err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: target, Message: "request not sent: " + err.Error(), Err: err}
	}
	req.Header.Set("User-Agent", client.userAgent)
	req.Header.Set("Accept", client.accept)

	start := time.Now()
	resp, err := client.http.Do(req)
	if err != nil {
		fe := networkError(target, err)
		client.fail(endpoint, fe)
		return nil, fe
	}
	defer resp.Body.Close()
	ttfb := time.Since(start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		fe := networkError(target, err)
		client.fail(endpoint, fe)
		return nil, fe
	}
	client.metrics.ObserveResponse(endpoint, ttfb, time.Since(start)-ttfb, len(body))

	client.log.Debug().
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("ttfb", ttfb).
		Int("bytes", len(body)).
		Msg("fetch")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fe := statusError(target, resp.StatusCode, serverMessage(body))
		client.fail(endpoint, fe)
		return nil, fe
	}
	return body, nil
}

func (client *Client) fail(endpoint string, fe *Error) {
	if errors.Is(fe.Err, context.Canceled) {
		client.log.Debug().Str("url", fe.URL).Msg(fe.Message)
		return
	}
	client.metrics.ObserveError(endpoint, fe.Kind.String())
	client.log.Warn().
		Str("url", fe.URL).
		Str("kind", fe.Kind.String()).
		Int("status", fe.Status).
		Msg(fe.Message)
}

// serverMessage pulls {"error": "..."} or {"message": "..."} out of an
// error body, returning "" for anything else.
func serverMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
