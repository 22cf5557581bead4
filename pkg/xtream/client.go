package xtream

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

	"golang.org/x/time/rate"

	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/httpclient"
)

// API paths, actions and parameters.
const (
	pathPlayerAPI = "/player_api.php"
	pathLive      = "live"
	pathMovie     = "movie"
	pathSeries    = "series"

	actionGetLiveCategories   = "get_live_categories"
	actionGetVODCategories    = "get_vod_categories"
	actionGetSeriesCategories = "get_series_categories"
	actionGetLiveStreams      = "get_live_streams"
	actionGetVODStreams       = "get_vod_streams"
	actionGetSeries           = "get_series"
	actionGetSeriesInfo       = "get_series_info"
	actionGetShortEPG         = "get_short_epg"
	actionGetSimpleDataTable  = "get_simple_data_table"

	paramUsername   = "username"
	paramPassword   = "password"
	paramAction     = "action"
	paramCategoryID = "category_id"
	paramSeriesID   = "series_id"
	paramStreamID   = "stream_id"
	paramLimit      = "limit"

	// DefaultLiveExtension is the container requested for live streams.
	DefaultLiveExtension  = "m3u8"
	defaultMovieExtension = "mp4"
	defaultSerieExtension = "mkv"

	// errorSnippetSize bounds the body kept in a StatusError.
	errorSnippetSize = 1024
)

// Errors returned by the client.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// StatusError is returned when the panel answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client talks to one account on one panel. Create one per profile.
type Client struct {
	BaseURL  string
	Username string
	Password string `masq:"secret"`

	http      *httpclient.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger
}

// ClientOption customizes NewClient.
type ClientOption func(*Client)

// NewClient returns a client for the account at baseURL. Without
// WithHTTPClient it uses an httpclient with the default retry policy.
func NewClient(baseURL, username, password string, opts ...ClientOption) *Client {
	c := &Client{
		BaseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Username: username,
		Password: password,
		logger:   slog.Default(),
	}
	for _, apply := range opts {
		apply(c)
	}
	if c.http == nil {
		cfg := httpclient.DefaultConfig()
		cfg.Logger = c.logger
		c.http = httpclient.New(cfg)
	}
	return c
}

func WithHTTPClient(client *httpclient.Client) ClientOption {
	return func(c *Client) { c.http = client }
}

// WithUserAgent sets the User-Agent of API calls. Some panels reject
// unknown agents.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// WithRateLimit spaces API calls to rps per second, allowing bursts of
// burst calls. rps <= 0 removes the limit.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = nil
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// apiURL builds a player_api.php URL for action with extra parameters.
func (c *Client) apiURL(action string, params url.Values) string {
	q := url.Values{paramUsername: {c.Username}, paramPassword: {c.Password}}
	if action != "" {
		q.Set(paramAction, action)
	}
	for k, vs := range params {
		q[k] = append(q[k], vs...)
	}
	return c.BaseURL + pathPlayerAPI + "?" + q.Encode()
}

// get waits for the limiter, sends a GET and decodes a 200 JSON body into
// target. Other statuses become a *StatusError carrying the start of the
// body.
func (c *Client) get(ctx context.Context, requestURL string, target any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("building panel request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set(httpclient.HeaderUserAgent, c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling panel: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetSize))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding panel response: %w", err)
	}
	return nil
}

// fetch calls action with params and decodes the JSON answer as T.
func fetch[T any](ctx context.Context, c *Client, action string, params url.Values) (T, error) {
	var out T
	err := c.get(ctx, c.apiURL(action, params), &out)
	return out, err
}

// GetAuthInfo returns the account and server block the panel answers a
// bare player_api.php call with. It does not judge the auth flag.
func (c *Client) GetAuthInfo(ctx context.Context) (*AuthInfo, error) {
	info, err := fetch[AuthInfo](ctx, c, "", nil)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Authenticate is GetAuthInfo that fails with ErrInvalidCredentials when
// the panel reports auth=0.
func (c *Client) Authenticate(ctx context.Context) (*AuthInfo, error) {
	info, err := c.GetAuthInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticating: %w", err)
	}
	if info.UserInfo.Auth.Int() == 0 {
		return nil, ErrInvalidCredentials
	}
	return info, nil
}

func (c *Client) GetLiveCategories(ctx context.Context) ([]Category, error) {
	return fetch[[]Category](ctx, c, actionGetLiveCategories, nil)
}

func (c *Client) GetVODCategories(ctx context.Context) ([]Category, error) {
	return fetch[[]Category](ctx, c, actionGetVODCategories, nil)
}

func (c *Client) GetSeriesCategories(ctx context.Context) ([]Category, error) {
	return fetch[[]Category](ctx, c, actionGetSeriesCategories, nil)
}

// inCategory narrows a listing to categoryID; empty means every category.
func inCategory(categoryID string) url.Values {
	if categoryID == "" {
		return nil
	}
	return url.Values{paramCategoryID: {categoryID}}
}

// GetLiveStreams lists live channels in categoryID, or all of them.
func (c *Client) GetLiveStreams(ctx context.Context, categoryID string) ([]Stream, error) {
	return fetch[[]Stream](ctx, c, actionGetLiveStreams, inCategory(categoryID))
}

// GetVODStreams lists movies in categoryID, or all of them.
func (c *Client) GetVODStreams(ctx context.Context, categoryID string) ([]VODStream, error) {
	return fetch[[]VODStream](ctx, c, actionGetVODStreams, inCategory(categoryID))
}

// GetSeries lists series in categoryID, or all of them.
func (c *Client) GetSeries(ctx context.Context, categoryID string) ([]Series, error) {
	return fetch[[]Series](ctx, c, actionGetSeries, inCategory(categoryID))
}

// GetSeriesInfo returns a series with its seasons and episodes.
func (c *Client) GetSeriesInfo(ctx context.Context, seriesID int) (*SeriesInfo, error) {
	info, err := fetch[SeriesInfo](ctx, c, actionGetSeriesInfo, url.Values{paramSeriesID: {strconv.Itoa(seriesID)}})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GetShortEPG returns up to limit upcoming listings for a stream, or the
// panel's default count when limit is not positive. Text fields come back
// as the panel sent them, usually base64.
func (c *Client) GetShortEPG(ctx context.Context, streamID, limit int) ([]EPGListing, error) {
	params := url.Values{paramStreamID: {strconv.Itoa(streamID)}}
	if limit > 0 {
		params.Set(paramLimit, strconv.Itoa(limit))
	}
	resp, err := fetch[EPGResponse](ctx, c, actionGetShortEPG, params)
	return resp.EPGListings, err
}

// GetFullEPG returns every listing the panel holds for a stream.
func (c *Client) GetFullEPG(ctx context.Context, streamID int) ([]EPGListing, error) {
	resp, err := fetch[EPGResponse](ctx, c, actionGetSimpleDataTable, url.Values{paramStreamID: {strconv.Itoa(streamID)}})
	return resp.EPGListings, err
}

// LiveStreamURL returns the canonical live URL for streamID.
func (c *Client) LiveStreamURL(streamID int, extension string) string {
	if extension == "" {
		extension = DefaultLiveExtension
	}
	return c.contentURL(pathLive, streamID, extension)
}

// MovieStreamURL returns the URL of a movie. extension should be the
// container_extension reported for it.
func (c *Client) MovieStreamURL(streamID int, extension string) string {
	if extension == "" {
		extension = defaultMovieExtension
	}
	return c.contentURL(pathMovie, streamID, extension)
}

// SeriesStreamURL returns the URL of a series episode.
func (c *Client) SeriesStreamURL(episodeID int, extension string) string {
	if extension == "" {
		extension = defaultSerieExtension
	}
	return c.contentURL(pathSeries, episodeID, extension)
}

func (c *Client) contentURL(kind string, id int, extension string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%d.%s",
		c.BaseURL, kind, url.PathEscape(c.Username), url.PathEscape(c.Password), id, extension)
}
