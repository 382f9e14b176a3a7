// Package openlibrary talks to the Open Library catalog and normalizes
// what it returns: work-level title search, per-work edition lookup, and
// the heuristics turning heterogeneous edition records into measurements
// in centimeters.
package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"bookshelf/internal/types"
)

const (
	DefaultBaseUrl   = "https://openlibrary.org"
	DefaultCoversUrl = "https://covers.openlibrary.org"

	defaultSearchLimit = 12
	editionsLimit      = 50
	maxSubjects        = 8

	requestTimeout = 12 * time.Second
	retryAttempts  = 3
)

// Edition is one printed version of a work, as the editions endpoint
// reports it. Only the physical attributes matter here.
type Edition struct {
	PhysicalDimensions string `json:"physical_dimensions"`
	NumberOfPages      int    `json:"number_of_pages"`
}

type Client struct {
	BaseUrl   string
	CoversUrl string
	Client    *http.Client
	Limiter   *rate.Limiter
	Logger    *slog.Logger
}

func NewClient(baseUrl, coversUrl string, l *slog.Logger) *Client {
	return &Client{
		BaseUrl:   strings.TrimSuffix(baseUrl, "/"),
		CoversUrl: strings.TrimSuffix(coversUrl, "/"),
		Client:    &http.Client{Timeout: requestTimeout},
		Limiter:   rate.NewLimiter(1, 1),
		Logger:    l,
	}
}

type searchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	FirstPublishYear int      `json:"first_publish_year"`
	AuthorName       []string `json:"author_name"`
	Subject          []string `json:"subject"`
	CoverI           int      `json:"cover_i"`
	Language         []string `json:"language"`
}

// SearchByTitle runs one loose title search against the external catalog
// and returns work-level hits. An empty query yields an empty result
// without touching the network; transport failures surface as a single
// error, never as partial results.
func (c *Client) SearchByTitle(ctx context.Context, query string, limit int) ([]types.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []types.SearchHit{}, nil
	}

	if limit <= 0 {
		limit = defaultSearchLimit
	}

	endpoint := c.BaseUrl + "/search.json?" + url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(limit)},
	}.Encode()

	var body struct {
		Docs []searchDoc `json:"docs"`
	}

	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	docs := body.Docs
	if len(docs) > limit {
		docs = docs[:limit]
	}

	hits := make([]types.SearchHit, 0, len(docs))
	for _, d := range docs {
		subjects := d.Subject
		if len(subjects) > maxSubjects {
			subjects = subjects[:maxSubjects]
		}

		language := ""
		if len(d.Language) > 0 {
			language = d.Language[0]
		}

		hits = append(hits, types.SearchHit{
			ExternalId: d.Key,
			Title:      d.Title,
			Year:       d.FirstPublishYear,
			Authors:    d.AuthorName,
			Subjects:   subjects,
			CoverUrl:   c.CoverUrl(d.CoverI, "L"),
			Language:   language,
		})
	}

	return hits, nil
}

// CoverUrl synthesizes a cover image URL from a numeric cover id and a
// size code (S, M or L); nothing is fetched. Returns "" for id 0.
func (c *Client) CoverUrl(coverId int, size string) string {
	if coverId == 0 {
		return ""
	}

	if size == "" {
		size = "L"
	}

	return fmt.Sprintf("%s/b/id/%d-%s.jpg", c.CoversUrl, coverId, size)
}

// FetchEditionData lists the editions of one work. The external id is the
// work key from a search hit, e.g. "/works/OL12345W".
func (c *Client) FetchEditionData(ctx context.Context, externalId string) ([]Edition, error) {
	externalId = strings.TrimSpace(externalId)
	if externalId == "" {
		return nil, errors.New("empty work key")
	}

	parts := strings.Split(externalId, "/")
	workId := parts[len(parts)-1]

	endpoint := c.BaseUrl + "/works/" + url.PathEscape(workId) + "/editions.json?limit=" +
		strconv.Itoa(editionsLimit)

	var body struct {
		Entries []Edition `json:"entries"`
	}

	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("fetching editions of %s: %w", workId, err)
	}

	return body.Entries, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return "unexpected status " + strconv.Itoa(e.code) + ": " + e.body
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	var lastErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}

		err := c.doJSONRequest(ctx, endpoint, target)
		if err == nil {
			return nil
		}

		lastErr = err
		if !isRetryable(err) || attempt == retryAttempts {
			return err
		}

		c.Logger.WarnContext(ctx, "Retrying transient catalog failure: "+err.Error(),
			slog.Int("attempt", attempt))
		time.Sleep(backoffDelay(attempt))
	}

	return lastErr
}

func (c *Client) doJSONRequest(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	res, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &statusError{code: res.StatusCode, body: strings.TrimSpace(string(body))}
	}

	return json.NewDecoder(res.Body).Decode(target)
}

// isRetryable admits connection failures, timeouts, 5xx and 429; any
// other client error is final.
func isRetryable(err error) bool {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr.code >= 500 || statusErr.code == http.StatusTooManyRequests
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		return strings.Contains(urlErr.Error(), "connection")
	}

	return false
}

func backoffDelay(attempt int) time.Duration {
	// exponential backoff capped at 10 seconds
	delay := time.Duration(1<<uint(attempt-1)) * time.Second
	if delay > 10*time.Second {
		return 10 * time.Second
	}
	return delay
}
