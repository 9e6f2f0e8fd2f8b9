package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.pexels.com/v1"
	responseBodyReadLimit int64 = 1 << 20
)

var errAPIKeyRequired = errors.New("pexels api key is required")

// UpstreamError carries the status and body Pexels returned so callers
// can relay the failure verbatim.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("pexels responded with status %d", e.StatusCode)
}

// Client wraps the Pexels photo search API that backs the product catalog.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Pexels base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Pexels client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// PhotoSource holds the rendered sizes Pexels provides per photo.
type PhotoSource struct {
	Original string `json:"original"`
	Large    string `json:"large"`
	Medium   string `json:"medium"`
	Small    string `json:"small"`
	Tiny     string `json:"tiny"`
}

// Photo is a single search hit.
type Photo struct {
	ID           int64       `json:"id"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	URL          string      `json:"url"`
	Photographer string      `json:"photographer"`
	AvgColor     string      `json:"avg_color"`
	Src          PhotoSource `json:"src"`
	Alt          string      `json:"alt"`
}

// SearchResult is the decoded search response plus the raw payload for relaying.
type SearchResult struct {
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	TotalResults int     `json:"total_results"`
	NextPage     string  `json:"next_page"`
	Photos       []Photo `json:"photos"`

	Raw []byte `json:"-"`
}

// Search queries the photo search endpoint for the provided query and page.
func (c *Client) Search(ctx context.Context, query string, page, perPage int) (*SearchResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pexels client not configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 15
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	endpoint := fmt.Sprintf("%s/search?%s", strings.TrimRight(c.baseURL, "/"), params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build pexels search request")
	}
	httpReq.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute pexels search request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read pexels search response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, &UpstreamError{StatusCode: resp.StatusCode, Body: body}, "pexels search request failed")
	}

	result := &SearchResult{Raw: body}
	if err := json.Unmarshal(body, result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode pexels search response")
	}

	return result, nil
}
