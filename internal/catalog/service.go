// Package catalog browses one account on an Xtream panel: categories,
// streams, playable URLs and the programme guide.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/metrics"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/observability"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/playback"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/proxy"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/urlutil"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/version"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/httpclient"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/xtream"
)

// DefaultGuideLimit is the number of listings fetched by ShortGuide when no
// limit is given.
const DefaultGuideLimit = 4

// Kind selects a section of the catalog.
type Kind string

// Catalog kinds.
const (
	KindLive   Kind = "live"
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// Kinds lists every catalog kind.
var Kinds = []Kind{KindLive, KindMovie, KindSeries}

// ErrUnknownKind is returned for a kind outside Kinds.
var ErrUnknownKind = errors.New("unknown catalog kind")

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindLive, KindMovie, KindSeries:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Item is a stream of any kind, flattened for listings.
type Item struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IconURL    string `json:"icon_url,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	Extension  string `json:"extension,omitempty"`
}

// Account identifies the panel account a Service is scoped to.
type Account struct {
	ServerURL string
	Username  string
	Password  string `masq:"secret"`
}

// Service is a catalog client bound to one account. Create one per profile.
type Service struct {
	client        *xtream.Client
	proxyEndpoint string
	guideLimit    int
	logger        *slog.Logger
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger        *slog.Logger
	proxyEndpoint string
	httpClient    *httpclient.Client
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithProxyEndpoint routes playback URLs through the stream proxy at endpoint.
func WithProxyEndpoint(endpoint string) Option {
	return func(o *serviceOptions) {
		o.proxyEndpoint = endpoint
	}
}

// WithHTTPClient overrides the HTTP client built from the catalog config.
func WithHTTPClient(client *httpclient.Client) Option {
	return func(o *serviceOptions) {
		o.httpClient = client
	}
}

// New creates a catalog service for account.
func New(account Account, cfg config.CatalogConfig, opts ...Option) *Service {
	o := serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := observability.WithComponent(o.logger, "catalog")

	if o.httpClient == nil {
		httpCfg := httpclient.DefaultConfig()
		if cfg.Timeout > 0 {
			httpCfg.Timeout = cfg.Timeout
		}
		httpCfg.RetryAttempts = cfg.RetryAttempts
		httpCfg.EnableDecompression = true
		httpCfg.UserAgent = version.UserAgent()
		httpCfg.Logger = logger
		o.httpClient = httpclient.New(httpCfg)
	}

	guideLimit := cfg.EPGLimit
	if guideLimit <= 0 {
		guideLimit = DefaultGuideLimit
	}

	client := xtream.NewClient(
		urlutil.NormalizeBaseURL(account.ServerURL),
		account.Username,
		account.Password,
		xtream.WithHTTPClient(o.httpClient),
		xtream.WithRateLimit(cfg.RequestsPerSecond, 1),
		xtream.WithUserAgent(version.UserAgent()),
		xtream.WithLogger(logger),
	)

	return &Service{
		client:        client,
		proxyEndpoint: o.proxyEndpoint,
		guideLimit:    guideLimit,
		logger:        logger,
	}
}

// Client returns the underlying panel client.
func (s *Service) Client() *xtream.Client {
	return s.client
}

// Authenticate verifies the account credentials.
func (s *Service) Authenticate(ctx context.Context) (*xtream.AuthInfo, error) {
	info, err := s.client.Authenticate(ctx)
	metrics.RecordCatalogRequest("authenticate", err)
	return info, err
}

// Categories lists the categories of one kind.
func (s *Service) Categories(ctx context.Context, kind Kind) ([]xtream.Category, error) {
	var (
		categories []xtream.Category
		err        error
	)
	switch kind {
	case KindLive:
		categories, err = s.client.GetLiveCategories(ctx)
	case KindMovie:
		categories, err = s.client.GetVODCategories(ctx)
	case KindSeries:
		categories, err = s.client.GetSeriesCategories(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	metrics.RecordCatalogRequest(string(kind)+"_categories", err)
	if err != nil {
		return nil, fmt.Errorf("fetching %s categories: %w", kind, err)
	}
	return categories, nil
}

// AllCategories fetches the categories of every kind concurrently.
func (s *Service) AllCategories(ctx context.Context) (map[Kind][]xtream.Category, error) {
	results := make([][]xtream.Category, len(Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range Kinds {
		g.Go(func() error {
			categories, err := s.Categories(gctx, kind)
			if err != nil {
				return err
			}
			results[i] = categories
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make(map[Kind][]xtream.Category, len(Kinds))
	for i, kind := range Kinds {
		all[kind] = results[i]
	}
	return all, nil
}

// LiveStreams lists live channels, optionally filtered by category.
func (s *Service) LiveStreams(ctx context.Context, categoryID string) ([]xtream.Stream, error) {
	streams, err := s.client.GetLiveStreams(ctx, categoryID)
	metrics.RecordCatalogRequest("live_streams", err)
	if err != nil {
		return nil, fmt.Errorf("fetching live streams: %w", err)
	}
	return streams, nil
}

// Streams lists the streams of one kind as flat items.
func (s *Service) Streams(ctx context.Context, kind Kind, categoryID string) ([]Item, error) {
	switch kind {
	case KindLive:
		streams, err := s.LiveStreams(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		items := make([]Item, 0, len(streams))
		for _, st := range streams {
			items = append(items, Item{
				ID:         st.StreamID.Int(),
				Name:       st.Name,
				IconURL:    st.StreamIcon,
				CategoryID: st.CategoryID.String(),
				Extension:  xtream.DefaultLiveExtension,
			})
		}
		return items, nil

	case KindMovie:
		movies, err := s.client.GetVODStreams(ctx, categoryID)
		metrics.RecordCatalogRequest("movie_streams", err)
		if err != nil {
			return nil, fmt.Errorf("fetching movies: %w", err)
		}
		items := make([]Item, 0, len(movies))
		for _, m := range movies {
			items = append(items, Item{
				ID:         m.StreamID.Int(),
				Name:       m.Name,
				IconURL:    m.StreamIcon,
				CategoryID: m.CategoryID.String(),
				Extension:  m.ContainerExtension,
			})
		}
		return items, nil

	case KindSeries:
		series, err := s.client.GetSeries(ctx, categoryID)
		metrics.RecordCatalogRequest("series_streams", err)
		if err != nil {
			return nil, fmt.Errorf("fetching series: %w", err)
		}
		items := make([]Item, 0, len(series))
		for _, se := range series {
			items = append(items, Item{
				ID:         se.SeriesID.Int(),
				Name:       se.Name,
				IconURL:    se.Cover,
				CategoryID: se.CategoryID.String(),
			})
		}
		return items, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// LiveChannels lists live channels as a playback channel list with
// proxied URLs.
func (s *Service) LiveChannels(ctx context.Context, categoryID string) ([]playback.Channel, error) {
	streams, err := s.LiveStreams(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	channels := make([]playback.Channel, 0, len(streams))
	for _, st := range streams {
		channels = append(channels, playback.Channel{
			StreamID: int(st.StreamID.Int()),
			Name:     st.Name,
			IconURL:  st.StreamIcon,
			URL:      s.PlaybackURL(st),
		})
	}
	return channels, nil
}

// ResolveStreamURL returns the upstream URL of a live channel. A trimmed
// direct_source wins: absolute values are used as they are, others are
// joined to the server URL. Otherwise the panel's live path is used.
func (s *Service) ResolveStreamURL(stream xtream.Stream) string {
	direct := strings.TrimSpace(stream.DirectSource)
	if direct == "" {
		return s.client.LiveStreamURL(int(stream.StreamID.Int()), xtream.DefaultLiveExtension)
	}
	if urlutil.IsRemoteURL(direct) {
		return direct
	}
	if strings.HasPrefix(direct, "/") {
		return s.client.BaseURL + direct
	}
	return s.client.BaseURL + "/" + direct
}

// PlaybackURL returns the URL a player should load for stream: the
// resolved URL, routed through the proxy when an endpoint is configured.
func (s *Service) PlaybackURL(stream xtream.Stream) string {
	resolved := s.ResolveStreamURL(stream)
	if s.proxyEndpoint == "" {
		return resolved
	}
	return proxy.ProxyURL(s.proxyEndpoint, resolved)
}

// MovieURL returns the upstream URL of a movie.
func (s *Service) MovieURL(streamID int, extension string) string {
	return s.client.MovieStreamURL(streamID, extension)
}

// EpisodeURL returns the upstream URL of a series episode.
func (s *Service) EpisodeURL(episodeID int, extension string) string {
	return s.client.SeriesStreamURL(episodeID, extension)
}

// ShortGuide returns up to limit upcoming listings for a live stream with
// decoded text. A non-positive limit uses the configured default. Panel
// failures are logged and yield an empty guide.
func (s *Service) ShortGuide(ctx context.Context, streamID, limit int) []xtream.EPGListing {
	if limit <= 0 {
		limit = s.guideLimit
	}
	listings, err := s.client.GetShortEPG(ctx, streamID, limit)
	metrics.RecordCatalogRequest("short_epg", err)
	if err != nil {
		s.logger.WarnContext(ctx, "short EPG unavailable",
			slog.Int("stream_id", streamID),
			slog.String("error", err.Error()),
		)
		return []xtream.EPGListing{}
	}
	return decodeListings(listings)
}

// FullGuide returns every listing the panel holds for a live stream. It
// degrades like ShortGuide.
func (s *Service) FullGuide(ctx context.Context, streamID int) []xtream.EPGListing {
	listings, err := s.client.GetFullEPG(ctx, streamID)
	metrics.RecordCatalogRequest("full_epg", err)
	if err != nil {
		s.logger.WarnContext(ctx, "full EPG unavailable",
			slog.Int("stream_id", streamID),
			slog.String("error", err.Error()),
		)
		return []xtream.EPGListing{}
	}
	return decodeListings(listings)
}

func decodeListings(listings []xtream.EPGListing) []xtream.EPGListing {
	decoded := make([]xtream.EPGListing, len(listings))
	for i, l := range listings {
		decoded[i] = l.Decoded()
	}
	return decoded
}

// CurrentProgram returns the listing airing at now, if any.
func CurrentProgram(listings []xtream.EPGListing, now time.Time) (xtream.EPGListing, bool) {
	ts := now.Unix()
	for _, l := range listings {
		if l.StartTimestamp.Int() <= ts && l.StopTimestamp.Int() >= ts {
			return l, true
		}
	}
	return xtream.EPGListing{}, false
}

// NextProgram returns the first listing starting after now, if any.
func NextProgram(listings []xtream.EPGListing, now time.Time) (xtream.EPGListing, bool) {
	ts := now.Unix()
	for _, l := range listings {
		if l.StartTimestamp.Int() > ts {
			return l, true
		}
	}
	return xtream.EPGListing{}, false
}
