package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/catalog"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/service"
	"github.com/digitallive06-cyber/Elite-wave-GO/pkg/xtream"
)

// CatalogHandler browses the catalog of a saved profile.
type CatalogHandler struct {
	profiles      *service.ProfileService
	proxyEndpoint string
	now           func() time.Time
}

// NewCatalogHandler creates a catalog handler. Playback URLs it returns are
// routed through proxyEndpoint when it is set.
func NewCatalogHandler(profiles *service.ProfileService, proxyEndpoint string) *CatalogHandler {
	return &CatalogHandler{
		profiles:      profiles,
		proxyEndpoint: proxyEndpoint,
		now:           time.Now,
	}
}

// ListCategoriesInput is the input for listing categories.
type ListCategoriesInput struct {
	ID   string `path:"id" doc:"Profile ID (ULID) or name"`
	Kind string `path:"kind" enum:"live,movie,series" doc:"Catalog kind"`
}

// ListCategoriesOutput is the output for listing categories.
type ListCategoriesOutput struct {
	Body struct {
		Categories []CategoryResponse `json:"categories"`
	}
}

// ListStreamsInput is the input for listing streams.
type ListStreamsInput struct {
	ID         string `path:"id" doc:"Profile ID (ULID) or name"`
	Kind       string `path:"kind" enum:"live,movie,series" doc:"Catalog kind"`
	CategoryID string `query:"category_id" doc:"Restrict to one category"`
}

// ListStreamsOutput is the output for listing streams.
type ListStreamsOutput struct {
	Body struct {
		Streams []StreamItemResponse `json:"streams"`
	}
}

// LiveURLInput is the input for resolving a live channel URL.
type LiveURLInput struct {
	ID         string `path:"id" doc:"Profile ID (ULID) or name"`
	StreamID   int    `path:"streamId" minimum:"1" doc:"Live stream ID"`
	CategoryID string `query:"category_id" doc:"Category the stream belongs to, narrows the lookup"`
}

// LiveURLOutput is the output for resolving a live channel URL.
type LiveURLOutput struct {
	Body struct {
		StreamID    int    `json:"stream_id"`
		Name        string `json:"name"`
		PlaybackURL string `json:"playback_url"`
	}
}

// LiveGuideInput is the input for a live channel's guide.
type LiveGuideInput struct {
	ID       string `path:"id" doc:"Profile ID (ULID) or name"`
	StreamID int    `path:"streamId" minimum:"1" doc:"Live stream ID"`
	Limit    int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum listings; 0 uses the configured default"`
}

// LiveGuideOutput is the output for a live channel's guide.
type LiveGuideOutput struct {
	Body struct {
		Listings []ProgramResponse `json:"listings"`
		Now      *ProgramResponse  `json:"now,omitempty"`
		Next     *ProgramResponse  `json:"next,omitempty"`
	}
}

// Register registers the catalog routes with the API.
func (h *CatalogHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listCategories",
		Method:      "GET",
		Path:        "/api/v1/profiles/{id}/categories/{kind}",
		Summary:     "List categories",
		Description: "Returns the panel categories of one kind",
		Tags:        []string{"Catalog"},
	}, h.ListCategories)

	huma.Register(api, huma.Operation{
		OperationID: "listStreams",
		Method:      "GET",
		Path:        "/api/v1/profiles/{id}/streams/{kind}",
		Summary:     "List streams",
		Description: "Returns live channels, movies or series, optionally filtered by category",
		Tags:        []string{"Catalog"},
	}, h.ListStreams)

	huma.Register(api, huma.Operation{
		OperationID: "getLiveURL",
		Method:      "GET",
		Path:        "/api/v1/profiles/{id}/live/{streamId}/url",
		Summary:     "Get live playback URL",
		Description: "Resolves a live channel's stream URL, routed through the stream proxy",
		Tags:        []string{"Catalog"},
	}, h.GetLiveURL)

	huma.Register(api, huma.Operation{
		OperationID: "getLiveGuide",
		Method:      "GET",
		Path:        "/api/v1/profiles/{id}/live/{streamId}/epg",
		Summary:     "Get live channel guide",
		Description: "Returns upcoming programme listings with the current and next programme",
		Tags:        []string{"Catalog"},
	}, h.GetLiveGuide)
}

// ListCategories returns the categories of a kind.
func (h *CatalogHandler) ListCategories(ctx context.Context, input *ListCategoriesInput) (*ListCategoriesOutput, error) {
	kind, err := catalog.ParseKind(input.Kind)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	svc, err := h.connect(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	categories, err := svc.Categories(ctx, kind)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to fetch categories", err)
	}

	resp := &ListCategoriesOutput{}
	resp.Body.Categories = make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp.Body.Categories = append(resp.Body.Categories, CategoryFromXtream(c))
	}
	return resp, nil
}

// ListStreams returns the streams of a kind.
func (h *CatalogHandler) ListStreams(ctx context.Context, input *ListStreamsInput) (*ListStreamsOutput, error) {
	kind, err := catalog.ParseKind(input.Kind)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	svc, err := h.connect(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	items, err := svc.Streams(ctx, kind, input.CategoryID)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to fetch streams", err)
	}

	resp := &ListStreamsOutput{}
	resp.Body.Streams = make([]StreamItemResponse, 0, len(items))
	for _, item := range items {
		resp.Body.Streams = append(resp.Body.Streams, StreamItemFromCatalog(item))
	}
	return resp, nil
}

// GetLiveURL resolves the playback URL of a live channel.
func (h *CatalogHandler) GetLiveURL(ctx context.Context, input *LiveURLInput) (*LiveURLOutput, error) {
	svc, err := h.connect(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	streams, err := svc.LiveStreams(ctx, input.CategoryID)
	if err != nil {
		return nil, huma.Error502BadGateway("failed to fetch live streams", err)
	}
	stream, ok := findStream(streams, input.StreamID)
	if !ok {
		return nil, huma.Error404NotFound("live stream not found")
	}

	resp := &LiveURLOutput{}
	resp.Body.StreamID = input.StreamID
	resp.Body.Name = stream.Name
	resp.Body.PlaybackURL = svc.PlaybackURL(stream)
	return resp, nil
}

// GetLiveGuide returns the short guide of a live channel. Guide failures
// produce an empty listing rather than an error.
func (h *CatalogHandler) GetLiveGuide(ctx context.Context, input *LiveGuideInput) (*LiveGuideOutput, error) {
	svc, err := h.connect(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	listings := svc.ShortGuide(ctx, input.StreamID, input.Limit)
	now := h.now()

	resp := &LiveGuideOutput{}
	resp.Body.Listings = make([]ProgramResponse, 0, len(listings))
	for _, l := range listings {
		resp.Body.Listings = append(resp.Body.Listings, ProgramFromListing(l))
	}
	if cur, ok := catalog.CurrentProgram(listings, now); ok {
		p := ProgramFromListing(cur)
		resp.Body.Now = &p
	}
	if next, ok := catalog.NextProgram(listings, now); ok {
		p := ProgramFromListing(next)
		resp.Body.Next = &p
	}
	return resp, nil
}

func (h *CatalogHandler) connect(ctx context.Context, ref string) (*catalog.Service, error) {
	profile, err := h.profiles.Find(ctx, ref)
	if err != nil {
		return nil, profileError(err)
	}

	var opts []catalog.Option
	if h.proxyEndpoint != "" {
		opts = append(opts, catalog.WithProxyEndpoint(h.proxyEndpoint))
	}
	svc, err := h.profiles.Connect(ctx, profile.ID, opts...)
	if err != nil {
		return nil, profileError(err)
	}
	return svc, nil
}

func findStream(streams []xtream.Stream, id int) (xtream.Stream, bool) {
	for _, st := range streams {
		if int(st.StreamID.Int()) == id {
			return st, true
		}
	}
	return xtream.Stream{}, false
}
