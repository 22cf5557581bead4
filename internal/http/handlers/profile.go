package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/models"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/service"
)

// ProfileHandler handles saved panel account endpoints.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// ListProfilesInput is the input for listing profiles.
type ListProfilesInput struct{}

// ListProfilesOutput is the output for listing profiles.
type ListProfilesOutput struct {
	Body struct {
		Profiles []ProfileResponse `json:"profiles"`
	}
}

// GetProfileInput is the input for getting a profile.
type GetProfileInput struct {
	ID string `path:"id" doc:"Profile ID (ULID) or name"`
}

// GetProfileOutput is the output for getting a profile.
type GetProfileOutput struct {
	Body ProfileResponse
}

// CreateProfileInput is the input for saving a profile.
type CreateProfileInput struct {
	Body CreateProfileRequest
}

// CreateProfileOutput is the output for saving a profile.
type CreateProfileOutput struct {
	Body ProfileResponse
}

// DeleteProfileInput is the input for deleting a profile.
type DeleteProfileInput struct {
	ID string `path:"id" doc:"Profile ID (ULID) or name"`
}

// DeleteProfileOutput is the output for deleting a profile.
type DeleteProfileOutput struct{}

// Register registers the profile routes with the API.
func (h *ProfileHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listProfiles",
		Method:      "GET",
		Path:        "/api/v1/profiles",
		Summary:     "List profiles",
		Description: "Returns all saved panel accounts ordered by name",
		Tags:        []string{"Profiles"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getProfile",
		Method:      "GET",
		Path:        "/api/v1/profiles/{id}",
		Summary:     "Get profile",
		Description: "Returns a saved panel account by ID or name",
		Tags:        []string{"Profiles"},
	}, h.GetByID)

	huma.Register(api, huma.Operation{
		OperationID:   "createProfile",
		Method:        "POST",
		Path:          "/api/v1/profiles",
		Summary:       "Create profile",
		Description:   "Checks the credentials against the panel and saves the account",
		Tags:          []string{"Profiles"},
		DefaultStatus: 201,
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteProfile",
		Method:        "DELETE",
		Path:          "/api/v1/profiles/{id}",
		Summary:       "Delete profile",
		Description:   "Deletes a saved panel account",
		Tags:          []string{"Profiles"},
		DefaultStatus: 204,
	}, h.Delete)
}

// List returns all profiles.
func (h *ProfileHandler) List(ctx context.Context, _ *ListProfilesInput) (*ListProfilesOutput, error) {
	profiles, err := h.profiles.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list profiles", err)
	}

	resp := &ListProfilesOutput{}
	resp.Body.Profiles = make([]ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		resp.Body.Profiles = append(resp.Body.Profiles, ProfileFromModel(p))
	}
	return resp, nil
}

// GetByID returns a profile.
func (h *ProfileHandler) GetByID(ctx context.Context, input *GetProfileInput) (*GetProfileOutput, error) {
	profile, err := h.profiles.Find(ctx, input.ID)
	if err != nil {
		return nil, profileError(err)
	}
	return &GetProfileOutput{Body: ProfileFromModel(profile)}, nil
}

// Create validates, authenticates and saves a profile.
func (h *ProfileHandler) Create(ctx context.Context, input *CreateProfileInput) (*CreateProfileOutput, error) {
	profile := input.Body.ToModel()
	if err := h.profiles.Save(ctx, profile); err != nil {
		return nil, profileError(err)
	}
	return &CreateProfileOutput{Body: ProfileFromModel(profile)}, nil
}

// Delete removes a profile.
func (h *ProfileHandler) Delete(ctx context.Context, input *DeleteProfileInput) (*DeleteProfileOutput, error) {
	profile, err := h.profiles.Find(ctx, input.ID)
	if err != nil {
		return nil, profileError(err)
	}
	if err := h.profiles.Delete(ctx, profile.ID); err != nil {
		return nil, profileError(err)
	}
	return &DeleteProfileOutput{}, nil
}

// profileError maps profile and panel errors to API errors.
func profileError(err error) error {
	var validation models.ErrValidation
	switch {
	case errors.As(err, &validation):
		return huma.Error400BadRequest(validation.Error())
	case errors.Is(err, service.ErrProfileNotFound):
		return huma.Error404NotFound("profile not found")
	case errors.Is(err, service.ErrProfileExists):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return huma.Error422UnprocessableEntity("the panel rejected the credentials")
	default:
		return huma.Error502BadGateway("panel request failed", err)
	}
}
