package hn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://hacker-news.firebaseio.com/v0"

// Fetcher is the read-only view of the HN API used by the service layer.
// GetItem and GetUser return (nil, nil) when upstream reports null.
type Fetcher interface {
	GetItem(ctx context.Context, id int) (*Item, error)
	GetUser(ctx context.Context, username string) (*User, error)
	GetMaxItem(ctx context.Context) (int, error)
	GetStoryIDs(ctx context.Context, c Category) ([]int, error)
	GetUpdates(ctx context.Context) (*Updates, error)
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     logrus.FieldLogger
}

// Client talks to the HN Firebase API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        logrus.FieldLogger
}

var _ Fetcher = (*Client)(nil)

func NewClient(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		httpClient: hc,
		baseURL:    base,
		log:        logger.WithField("component", "hn"),
	}
}

// GetItem fetches an item by ID. The `type` field is validated during
// decoding; unrecognized values pass through as KindUnknown.
func (c *Client) GetItem(ctx context.Context, id int) (*Item, error) {
	var item Item
	found, err := c.getJSON(ctx, fmt.Sprintf("/item/%d.json", id), &item)
	if err != nil || !found {
		return nil, err
	}
	return &item, nil
}

// GetUser fetches a profile. Usernames are case-sensitive.
func (c *Client) GetUser(ctx context.Context, username string) (*User, error) {
	var user User
	found, err := c.getJSON(ctx, "/user/"+url.PathEscape(username)+".json", &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetMaxItem(ctx context.Context) (int, error) {
	var maxID int
	found, err := c.getJSON(ctx, "/maxitem.json", &maxID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, &MalformedResponseError{Path: "/maxitem.json", Reason: "null max item"}
	}
	return maxID, nil
}

// GetStoryIDs returns the ranked ID listing for a category, in rank order.
func (c *Client) GetStoryIDs(ctx context.Context, cat Category) ([]int, error) {
	var ids []int
	if _, err := c.getJSON(ctx, cat.Endpoint(), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) GetUpdates(ctx context.Context) (*Updates, error) {
	var up Updates
	if _, err := c.getJSON(ctx, "/updates.json", &up); err != nil {
		return nil, err
	}
	return &up, nil
}

// getJSON performs a GET and decodes the body into v. A JSON null body is
// reported as found=false with no error.
func (c *Client) getJSON(ctx context.Context, path string, v any) (bool, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, errors.Wrap(err, "hn: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithField("path", path).WithError(err).Warn("upstream request failed")
		return false, errors.Wrapf(err, "hn: GET %s", path)
	}
	defer resp.Body.Close()

	fields := logrus.Fields{"path": path, "status": resp.StatusCode, "elapsed": time.Since(start)}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.log.WithFields(fields).Warn("upstream non-success status")
		return false, &UpstreamError{Path: path, StatusCode: resp.StatusCode, Reason: reasonPhrase(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, errors.Wrapf(err, "hn: read %s", path)
	}
	c.log.WithFields(fields).Debug("upstream request")

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false, &MalformedResponseError{Path: path, Reason: "empty body"}
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return false, &MalformedResponseError{Path: path, Err: err}
	}
	return true, nil
}

func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
