// Package google provides Sheets and Docs REST access authenticated with a
// service account.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultSheetsBaseURL = "https://sheets.googleapis.com/v4"
	defaultDocsBaseURL   = "https://docs.googleapis.com/v1"
)

// ErrNotFound is returned when the spreadsheet or document does not exist.
var ErrNotFound = eris.New("google: not found")

// ErrRangeNotFound is returned when a sheet name does not resolve to a sheet.
var ErrRangeNotFound = eris.New("google: range not found")

// APIError is a non-success response from a Google API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client performs the Sheets and Docs operations used by this application.
type Client interface {
	SheetValues(ctx context.Context, spreadsheetID, sheet string) ([][]string, error)
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	GetDocument(ctx context.Context, documentID string) (*Document, error)
	CreateDocument(ctx context.Context, title string) (*Document, error)
	BatchUpdateDocument(ctx context.Context, documentID string, reqs []DocRequest) error
}

// Option configures the client.
type Option func(*httpClient)

// WithSheetsBaseURL overrides the Sheets API base URL.
func WithSheetsBaseURL(u string) Option {
	return func(c *httpClient) {
		c.sheetsURL = strings.TrimRight(u, "/")
	}
}

// WithDocsBaseURL overrides the Docs API base URL.
func WithDocsBaseURL(u string) Option {
	return func(c *httpClient) {
		c.docsURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default limit of 5 req/s. Zero disables it.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	tokens    TokenSource
	sheetsURL string
	docsURL   string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a Sheets and Docs client authenticating through tokens.
func NewClient(tokens TokenSource, opts ...Option) Client {
	c := &httpClient{
		tokens:    tokens,
		sheetsURL: defaultSheetsBaseURL,
		docsURL:   defaultDocsBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// sheetRange quotes a sheet name for use as an A1 range.
func sheetRange(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

func (c *httpClient) SheetValues(ctx context.Context, spreadsheetID, sheet string) ([][]string, error) {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s?majorDimension=ROWS&valueRenderOption=FORMATTED_VALUE",
		c.sheetsURL, url.PathEscape(spreadsheetID), url.PathEscape(sheetRange(sheet)))

	var out struct {
		Values [][]string `json:"values"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, eris.Wrapf(err, "google: get values %s", sheet)
	}
	return out.Values, nil
}

func (c *httpClient) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	u := fmt.Sprintf("%s/spreadsheets/%s?fields=sheets.properties.title", c.sheetsURL, url.PathEscape(spreadsheetID))

	var out struct {
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, eris.Wrap(err, "google: get spreadsheet")
	}
	titles := make([]string, 0, len(out.Sheets))
	for _, s := range out.Sheets {
		titles = append(titles, s.Properties.Title)
	}
	return titles, nil
}

func (c *httpClient) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	var doc Document
	u := fmt.Sprintf("%s/documents/%s", c.docsURL, url.PathEscape(documentID))
	if err := c.do(ctx, http.MethodGet, u, nil, &doc); err != nil {
		return nil, eris.Wrapf(err, "google: get document %s", documentID)
	}
	return &doc, nil
}

func (c *httpClient) CreateDocument(ctx context.Context, title string) (*Document, error) {
	var doc Document
	body := map[string]string{"title": title}
	if err := c.do(ctx, http.MethodPost, c.docsURL+"/documents", body, &doc); err != nil {
		return nil, eris.Wrap(err, "google: create document")
	}
	return &doc, nil
}

func (c *httpClient) BatchUpdateDocument(ctx context.Context, documentID string, reqs []DocRequest) error {
	u := fmt.Sprintf("%s/documents/%s:batchUpdate", c.docsURL, url.PathEscape(documentID))
	body := map[string]any{"requests": reqs}
	if err := c.do(ctx, http.MethodPost, u, body, nil); err != nil {
		return eris.Wrapf(err, "google: batch update %s", documentID)
	}
	return nil
}

// do sends an authenticated JSON request and decodes the response into out
// when out is non-nil.
func (c *httpClient) do(ctx context.Context, method, u string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "google: rate limit")
		}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return eris.Wrap(err, "google: marshal request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return eris.Wrap(err, "google: create request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return eris.Wrap(err, "google: obtain token")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "google: read response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(string(respBody), "Unable to parse range"):
		return ErrRangeNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "google: unmarshal response")
	}
	return nil
}
