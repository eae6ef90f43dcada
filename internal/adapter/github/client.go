package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cpp-linter/cpp-linter/internal/adapter/httpx"
	"github.com/cpp-linter/cpp-linter/internal/diff"
	"github.com/cpp-linter/cpp-linter/internal/domain"
)

const (
	defaultBaseURL        = "https://api.github.com"
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second

	// acceptJSON is the media type for regular REST calls; acceptDiff asks
	// the pulls endpoint for the raw unified diff instead.
	acceptJSON = "application/vnd.github+json"
	acceptDiff = "application/vnd.github.diff"

	filesPerPage = 100
)

// Client is an HTTP client for the GitHub pull request APIs this linter
// needs: diff retrieval, review posting, and the persistent summary comment.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  httpx.RetryConfig
	logger     httpx.Logger

	// rateRemaining mirrors the most recent x-ratelimit-remaining header,
	// -1 before the first call or when the header was absent.
	// Informational only; rate-limit handling happens in the error mapper.
	rateRemaining int
}

// NewClient creates a new GitHub API client with the given token.
// The token should be a personal access token or GITHUB_TOKEN from Actions.
func NewClient(token string) *Client {
	return &Client{
		token:         token,
		baseURL:       defaultBaseURL,
		rateRemaining: -1,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		retryConf: httpx.RetryConfig{
			MaxRetries:     defaultMaxRetries,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     32 * time.Second,
			Multiplier:     2.0,
		},
	}
}

// SetBaseURL sets a custom base URL (GitHub Enterprise, tests).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetMaxRetries sets the maximum number of retry attempts.
func (c *Client) SetMaxRetries(maxRetries int) {
	c.retryConf.MaxRetries = maxRetries
}

// SetLogger attaches a structured logger for request/response records.
func (c *Client) SetLogger(logger httpx.Logger) {
	c.logger = logger
}

// RateLimitRemaining reports the x-ratelimit-remaining value of the most
// recent response, or -1 before the first call.
func (c *Client) RateLimitRemaining() int {
	return c.rateRemaining
}

// do executes one API call with retry and typed error mapping. The caller
// owns the returned body.
func (c *Client) do(ctx context.Context, method, url, accept string, payload []byte) ([]byte, http.Header, error) {
	var respBody []byte
	var respHeader http.Header

	err := httpx.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, reqErr := http.NewRequestWithContext(ctx, method, url, reader)
		if reqErr != nil {
			return &httpx.Error{
				Type:      httpx.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Service:   serviceName,
			}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", accept)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		if c.logger != nil {
			c.logger.LogRequest(ctx, httpx.RequestLog{
				Service:   serviceName,
				Method:    method,
				URL:       url,
				Timestamp: time.Now(),
				Token:     c.token,
			})
		}

		start := time.Now()
		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			return &httpx.Error{
				Type:      httpx.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
				Service:   serviceName,
			}
		}
		defer resp.Body.Close()

		c.rateRemaining = -1
		if v, convErr := strconv.Atoi(resp.Header.Get("x-ratelimit-remaining")); convErr == nil {
			c.rateRemaining = v
		}
		if c.logger != nil {
			c.logger.LogResponse(ctx, httpx.ResponseLog{
				Service:       serviceName,
				Method:        method,
				URL:           url,
				Timestamp:     start,
				Duration:      time.Since(start),
				StatusCode:    resp.StatusCode,
				RateRemaining: c.rateRemaining,
			})
		}

		body, readErr := io.ReadAll(resp.Body)
		if resp.StatusCode >= 400 {
			if readErr != nil {
				return &httpx.Error{
					Type:       httpx.ErrTypeUnknown,
					Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
					StatusCode: resp.StatusCode,
					Retryable:  resp.StatusCode >= 500,
					Service:    serviceName,
				}
			}
			return MapHTTPError(resp.StatusCode, body, resp.Header)
		}
		if readErr != nil {
			return &httpx.Error{
				Type:      httpx.ErrTypeUnknown,
				Message:   readErr.Error(),
				Retryable: true,
				Service:   serviceName,
			}
		}

		respBody = body
		respHeader = resp.Header
		return nil
	}, c.retryConf)

	if err != nil {
		return nil, nil, err
	}
	return respBody, respHeader, nil
}

// FetchDiff retrieves the pull request's unified diff in one response.
// Very large diffs make GitHub refuse this media type; FetchDiffPages
// falls back to the paginated files listing when that happens.
func (c *Client) FetchDiff(ctx context.Context, owner, repo string, pullNumber int) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, pullNumber)
	body, _, err := c.do(ctx, http.MethodGet, url, acceptDiff, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchDiffPages retrieves the pull request's changes as diff pages. The
// single-response diff endpoint is tried first; when GitHub refuses it
// (diffs past its size cap get a non-retryable error), the paginated
// changed-files listing takes over, one synthesized page per API page.
func (c *Client) FetchDiffPages(ctx context.Context, owner, repo string, pullNumber int) ([]diff.Page, error) {
	text, err := c.FetchDiff(ctx, owner, repo, pullNumber)
	if err == nil {
		return []diff.Page{{Text: text}}, nil
	}
	var apiErr *httpx.Error
	if !errors.As(err, &apiErr) || apiErr.Retryable || apiErr.Type == httpx.ErrTypeAuthentication {
		return nil, err
	}

	filePages, err := c.changedFilePages(ctx, owner, repo, pullNumber)
	if err != nil {
		return nil, err
	}
	pages := make([]diff.Page, 0, len(filePages))
	for _, files := range filePages {
		pages = append(pages, SynthesizeDiffPage(files))
	}
	return pages, nil
}

// changedFilePages walks GET /pulls/{n}/files, following RFC 5988 Link
// headers until no rel="next" remains, preserving page boundaries.
func (c *Client) changedFilePages(ctx context.Context, owner, repo string, pullNumber int) ([][]PullFile, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d",
		c.baseURL, owner, repo, pullNumber, filesPerPage)

	var pages [][]PullFile
	for url != "" {
		body, header, err := c.do(ctx, http.MethodGet, url, acceptJSON, nil)
		if err != nil {
			return nil, err
		}
		var page []PullFile
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to parse changed files: %w", err)
		}
		pages = append(pages, page)
		url = nextPageURL(header.Get("Link"))
	}
	return pages, nil
}

// nextPageURL extracts the rel="next" target from a Link header, or ""
// when pagination is exhausted.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if strings.TrimSpace(section[1]) != `rel="next"` {
			continue
		}
		target := strings.TrimSpace(section[0])
		return strings.Trim(target, "<>")
	}
	return ""
}

// CreateReviewInput contains all data needed to post a review.
type CreateReviewInput struct {
	Owner      string
	Repo       string
	PullNumber int
	Payload    domain.ReviewPayload
}

// CreateReview posts the aggregated review with its inline suggestions.
func (c *Client) CreateReview(ctx context.Context, input CreateReviewInput) (*CreateReviewResponse, error) {
	reqBody := CreateReviewRequest{
		CommitID: input.Payload.CommitSHA,
		Event:    MapVerdict(input.Payload.Verdict),
		Body:     input.Payload.SummaryBody,
		Comments: BuildReviewComments(input.Payload.Suggestions),
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews",
		c.baseURL, input.Owner, input.Repo, input.PullNumber)
	body, _, err := c.do(ctx, http.MethodPost, url, acceptJSON, jsonData)
	if err != nil {
		return nil, err
	}

	var reviewResp CreateReviewResponse
	if err := json.Unmarshal(body, &reviewResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &reviewResp, nil
}

// ListReviews fetches all reviews for a pull request, oldest first.
func (c *Client) ListReviews(ctx context.Context, owner, repo string, pullNumber int) ([]ReviewSummary, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.baseURL, owner, repo, pullNumber)
	body, _, err := c.do(ctx, http.MethodGet, url, acceptJSON, nil)
	if err != nil {
		return nil, err
	}

	var reviews []ReviewSummary
	if err := json.Unmarshal(body, &reviews); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return reviews, nil
}

// DismissReview dismisses a review with the given message.
func (c *Client) DismissReview(ctx context.Context, owner, repo string, pullNumber int, reviewID int64, message string) (*DismissReviewResponse, error) {
	jsonData, err := json.Marshal(DismissReviewRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews/%d/dismissals",
		c.baseURL, owner, repo, pullNumber, reviewID)
	body, _, err := c.do(ctx, http.MethodPut, url, acceptJSON, jsonData)
	if err != nil {
		return nil, err
	}

	var dismissResp DismissReviewResponse
	if err := json.Unmarshal(body, &dismissResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &dismissResp, nil
}

// ListComments fetches the PR's conversation comments, used to find a
// previously posted summary comment.
func (c *Client) ListComments(ctx context.Context, owner, repo string, pullNumber int) ([]IssueComment, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, pullNumber)
	body, _, err := c.do(ctx, http.MethodGet, url, acceptJSON, nil)
	if err != nil {
		return nil, err
	}

	var comments []IssueComment
	if err := json.Unmarshal(body, &comments); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return comments, nil
}

// CreateComment posts a new conversation comment.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, pullNumber int, text string) (*IssueComment, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, pullNumber)
	return c.writeComment(ctx, http.MethodPost, url, text)
}

// UpdateComment replaces the body of an existing conversation comment.
func (c *Client) UpdateComment(ctx context.Context, owner, repo string, commentID int64, text string) (*IssueComment, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/comments/%d", c.baseURL, owner, repo, commentID)
	return c.writeComment(ctx, http.MethodPatch, url, text)
}

// DeleteComment removes a conversation comment.
func (c *Client) DeleteComment(ctx context.Context, owner, repo string, commentID int64) error {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/comments/%d", c.baseURL, owner, repo, commentID)
	_, _, err := c.do(ctx, http.MethodDelete, url, acceptJSON, nil)
	return err
}

func (c *Client) writeComment(ctx context.Context, method, url, text string) (*IssueComment, error) {
	jsonData, err := json.Marshal(map[string]string{"body": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	body, _, err := c.do(ctx, method, url, acceptJSON, jsonData)
	if err != nil {
		return nil, err
	}

	var comment IssueComment
	if err := json.Unmarshal(body, &comment); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &comment, nil
}
