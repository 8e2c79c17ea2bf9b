// Package source provides the camera-API video source.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/perchlab/birdwatch/internal/errors"
	"github.com/perchlab/birdwatch/internal/logging"
	"github.com/perchlab/birdwatch/internal/processing"
	"github.com/perchlab/birdwatch/internal/util"
)

// mediaItem is one entry in the camera API's media listing.
type mediaItem struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	ProxyURL         string `json:"proxyUrl"`
	DownloadFilename string `json:"downloadFilename"`
}

// Client fetches videos from the camera browser API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	scratchDir string
	log        *logging.Logger
}

// Option configures the client.
type Option func(*Client)

// WithScratchDir sets the directory for downloaded video files.
func WithScratchDir(dir string) Option {
	return func(c *Client) { c.scratchDir = dir }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a camera-API client. The timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		scratchDir: os.TempDir(),
		log:        logging.Global().WithPrefix("source"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches the media listing and returns the video entries. An empty
// listing is reported as a no-videos-found error.
func (c *Client) List(ctx context.Context) ([]processing.VideoItem, error) {
	url := c.baseURL + "/api/media"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewFetchError("cannot build media request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewFetchError(fmt.Sprintf("cannot reach %s", url), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewFetchError(
			fmt.Sprintf("media listing returned %s", resp.Status), nil)
	}

	var entries []mediaItem
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, errors.NewJSONParseError("cannot parse media listing", err)
	}

	var items []processing.VideoItem
	for _, entry := range entries {
		if entry.Type != "video" {
			continue
		}
		items = append(items, processing.VideoItem{
			Filename:     entry.Name,
			Locator:      entry.ProxyURL,
			DownloadName: entry.DownloadFilename,
		})
	}

	c.log.Debug("listed videos", "total", len(entries), "videos", len(items))

	if len(items) == 0 {
		return nil, errors.NewNoVideosFoundError(c.baseURL)
	}
	return items, nil
}

// Fetch downloads the video behind the item's proxy URL into a scratch file.
// The returned cleanup removes the file.
func (c *Client) Fetch(ctx context.Context, item processing.VideoItem) (string, func(), error) {
	if item.Locator == "" {
		return "", nil, errors.NewFetchError(
			fmt.Sprintf("%s has no download URL", item.Filename), nil)
	}

	url := c.baseURL + item.Locator

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", nil, errors.NewFetchError("cannot build download request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, errors.NewFetchError(
			fmt.Sprintf("cannot download %s", item.Filename), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", nil, errors.NewFetchError(
			fmt.Sprintf("download of %s returned %s", item.Filename, resp.Status), nil)
	}

	localPath := filepath.Join(c.scratchDir, fmt.Sprintf("video-%s.mp4", uuid.NewString()))

	out, err := os.Create(localPath)
	if err != nil {
		return "", nil, errors.NewIOError(fmt.Sprintf("cannot create %s", localPath), err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		util.RemoveQuietly(localPath)
		return "", nil, errors.NewFetchError(
			fmt.Sprintf("download of %s interrupted", item.Filename), err)
	}
	if err := out.Close(); err != nil {
		util.RemoveQuietly(localPath)
		return "", nil, errors.NewIOError(fmt.Sprintf("cannot finish writing %s", localPath), err)
	}

	if size, err := util.GetFileSize(localPath); err == nil {
		c.log.Debug("downloaded video",
			"video", item.Filename, "path", localPath, "size", util.FormatBytes(size))
	}

	return localPath, func() { util.RemoveQuietly(localPath) }, nil
}
