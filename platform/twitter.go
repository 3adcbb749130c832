package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/postgatehq/postgate/internal/strutil"
)

const (
	defaultTwitterBaseURL = "https://api.twitter.com"
	maxTweetRunes         = 280
)

// ErrMissingCredentials is returned before any request is attempted when
// the client has no bearer token.
var ErrMissingCredentials = fmt.Errorf("missing twitter credentials")

type TwitterClient struct {
	BaseURL     string
	BearerToken string
	Username    string
	UserAgent   string
	DryRun      bool

	HTTP             *http.Client
	MaxResponseBytes int64
}

func NewTwitterClient(baseURL, bearerToken, username string, timeout time.Duration) *TwitterClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultTwitterBaseURL
	}
	return &TwitterClient{
		BaseURL:          strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		BearerToken:      strings.TrimSpace(bearerToken),
		Username:         strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(username), "@")),
		UserAgent:        "postgate/1.0",
		HTTP:             &http.Client{Timeout: timeout},
		MaxResponseBytes: 512 * 1024,
	}
}

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (c *TwitterClient) Post(ctx context.Context, text string) (PostResult, error) {
	if c == nil {
		return PostResult{}, fmt.Errorf("nil twitter client")
	}
	if c.BearerToken == "" {
		return PostResult{}, ErrMissingCredentials
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return PostResult{}, fmt.Errorf("empty post text")
	}
	// The drafter only soft-targets the limit; enforce it at the wire.
	text = strutil.TruncateRunes(text, maxTweetRunes)

	if c.DryRun {
		id := fmt.Sprintf("dryrun-%d", time.Now().UnixNano())
		return PostResult{ID: id, URL: c.statusURL(id)}, nil
	}

	body, err := json.Marshal(tweetRequest{Text: text})
	if err != nil {
		return PostResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return PostResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.UserAgent) != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return PostResult{}, fmt.Errorf("post tweet: %w", err)
	}
	defer resp.Body.Close()

	limit := c.MaxResponseBytes
	if limit <= 0 {
		limit = 512 * 1024
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return PostResult{}, fmt.Errorf("read tweet response: %w", err)
	}

	var parsed tweetResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return PostResult{}, fmt.Errorf("parse tweet response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(parsed.Detail)
		if detail == "" {
			detail = strings.TrimSpace(parsed.Title)
		}
		if detail == "" {
			detail = strutil.TruncateUTF8(strings.TrimSpace(string(raw)), 256)
		}
		return PostResult{}, fmt.Errorf("tweet rejected (status %d): %s", resp.StatusCode, detail)
	}
	if strings.TrimSpace(parsed.Data.ID) == "" {
		return PostResult{}, fmt.Errorf("tweet response missing id")
	}

	return PostResult{
		ID:  parsed.Data.ID,
		URL: c.statusURL(parsed.Data.ID),
	}, nil
}

func (c *TwitterClient) statusURL(id string) string {
	user := c.Username
	if user == "" {
		user = "i"
	}
	return fmt.Sprintf("https://twitter.com/%s/status/%s", user, id)
}
