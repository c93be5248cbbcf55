package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/baiserke/promobot/internal/config"
	"github.com/baiserke/promobot/internal/metrics"
)

// Client checks comments on a single media post through the Graph API.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	baseURL     string
	accessToken string
	mediaID     string
	pageSize    int
}

// New creates a Graph API client for the configured media post.
func New(cfg config.InstagramConfig) *Client {
	limit := rate.Limit(cfg.RequestsPerSecond)
	if limit <= 0 {
		limit = rate.Inf
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		limiter:     rate.NewLimiter(limit, 1),
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		mediaID:     cfg.MediaID,
		pageSize:    cfg.PageSize,
	}
}

// commentsPage mirrors one page of GET /{media-id}/comments.
type commentsPage struct {
	Data []struct {
		Username string `json:"username"`
		Text     string `json:"text"`
	} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
	Error *apiError `json:"error"`
}

// apiError is the Graph API error envelope.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("graph api error %d (%s): %s", e.Code, e.Type, e.Message)
}

// HasCommented reports whether username left a comment on the configured
// media post. Matching is case-insensitive. Transport and API failures are
// returned as errors, never as a negative verification result.
func (c *Client) HasCommented(ctx context.Context, username string) (bool, error) {
	want := strings.ToLower(username)

	next := c.firstPageURL()
	for next != "" {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return false, err
		}

		for _, comment := range page.Data {
			if strings.ToLower(comment.Username) == want {
				return true, nil
			}
		}

		next = page.Paging.Next
	}

	return false, nil
}

func (c *Client) firstPageURL() string {
	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("fields", "username,text")
	params.Set("limit", strconv.Itoa(c.pageSize))

	return fmt.Sprintf("%s/%s/comments?%s", c.baseURL, c.mediaID, params.Encode())
}

// fetchPage gets one comments page. The paging.next URL returned by the API
// already carries the access token and cursor, so it is followed verbatim.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (*commentsPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build comments request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments page: %w", err)
	}
	defer resp.Body.Close()

	var page commentsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode comments page: %w", err)
	}
	if page.Error != nil {
		return nil, page.Error
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from comments endpoint", resp.StatusCode)
	}

	metrics.IncCommentPages()

	return &page, nil
}
