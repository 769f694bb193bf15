// Package jsonapi implements a catalog source backed by a generic JSON
// HTTP API exposing popular/search/details endpoints. Source definitions
// are loaded from a YAML file, so new deployments of the same API shape
// need no code changes.
package jsonapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yomuapp/yomu/pkg/lib"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: lib.DefaultHTTPClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type itemJSON struct {
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Description  string   `json:"description"`
	Genres       []string `json:"genres"`
	Status       string   `json:"status"`
	ThumbnailURL string   `json:"thumbnail_url"`
}

type pageJSON struct {
	Items       []itemJSON `json:"items"`
	HasNextPage bool       `json:"has_next_page"`
}

func (c *Client) Popular(ctx context.Context, page int) (*pageJSON, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	return c.fetchPage(ctx, "/popular", query)
}

func (c *Client) Search(ctx context.Context, page int, searchQuery string, filters url.Values) (*pageJSON, error) {
	query := url.Values{}
	for k, vs := range filters {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("q", searchQuery)
	return c.fetchPage(ctx, "/search", query)
}

func (c *Client) Details(ctx context.Context, itemURL string) (*itemJSON, error) {
	query := url.Values{}
	query.Set("url", itemURL)

	req, err := c.newRequest(ctx, "/manga", query)
	if err != nil {
		return nil, err
	}

	item, err := lib.DecodeJSONFromRequest[itemJSON](c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("fetching details: %w", err)
	}
	return &item, nil
}

func (c *Client) fetchPage(ctx context.Context, path string, query url.Values) (*pageJSON, error) {
	req, err := c.newRequest(ctx, path, query)
	if err != nil {
		return nil, err
	}

	page, err := lib.DecodeJSONFromRequest[pageJSON](c.httpClient, req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	return &page, nil
}

func (c *Client) newRequest(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return req, nil
}
