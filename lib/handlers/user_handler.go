package handlers

import (
	"clinic/lib/api"
	"clinic/lib/apperrors"
	"clinic/lib/clients"
	"clinic/lib/constants"
	"clinic/lib/data"
	"clinic/lib/models"
	"context"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	MaxUsersPageSize   = 60
	ProfileImageExpiry = 15 * time.Minute
)

// UserHandler serves the Cognito user routes. Images may be nil, in which case
// the profile image route is not registered.
type UserHandler struct {
	Repository data.UserRepository
	Images     clients.S3ClientInterface
	Logger     *logrus.Logger
	NewID      func() string
}

func NewUserHandler(repository data.UserRepository, images clients.S3ClientInterface, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		Repository: repository,
		Images:     images,
		Logger:     logger,
		NewID:      func() string { return uuid.New().String() },
	}
}

func (h *UserHandler) Routes() []api.Route {
	routes := []api.Route{
		{
			Method:         http.MethodPost,
			Resource:       "/users",
			RequiredFields: []string{"email", "password", "firstName", "lastName"},
			Handle:         h.CreateUser,
		},
		{Method: http.MethodGet, Resource: "/users", Handle: h.ListUsers},
		{Method: http.MethodGet, Resource: "/users/{username}", Handle: h.GetUser},
		{Method: http.MethodPut, Resource: "/users/{username}", Handle: h.UpdateUser},
	}

	if h.Images != nil {
		routes = append(routes, api.Route{
			Method:         http.MethodPost,
			Resource:       "/users/{username}/profile-image",
			RequiredFields: []string{"fileName"},
			Handle:         h.CreateProfileImageUpload,
		})
	}
	return routes
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(ctx context.Context, req *api.Request) (*api.Result, error) {
	var createRequest models.CreateUserRequest
	if err := req.Decode(&createRequest); err != nil {
		return nil, err
	}
	createRequest.Email = strings.ToLower(strings.TrimSpace(createRequest.Email))

	user, err := h.Repository.CreateUser(ctx, &createRequest)
	if err != nil {
		return nil, err
	}

	h.Logger.WithFields(logrus.Fields{
		"operation": "CreateUser",
		"username":  user.Username,
		"actor":     req.Claims.Actor(),
	}).Info("User created")

	return api.Created(user), nil
}

// GetUser handles GET /users/{username}
func (h *UserHandler) GetUser(ctx context.Context, req *api.Request) (*api.Result, error) {
	user, err := h.Repository.GetUser(ctx, req.PathParam("username"))
	if err != nil {
		return nil, err
	}
	return api.OK(user), nil
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(ctx context.Context, req *api.Request) (*api.Result, error) {
	params := models.ListUsersParams{
		Limit:           MaxUsersPageSize,
		PaginationToken: req.Query("paginationToken"),
		EmailPrefix:     strings.TrimSpace(req.Query("email")),
	}

	if value := req.Query("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 1 || limit > MaxUsersPageSize {
			return nil, apperrors.NewValidation("limit must be a number between 1 and 60")
		}
		params.Limit = int32(limit)
	}

	users, err := h.Repository.ListUsers(ctx, params)
	if err != nil {
		return nil, err
	}
	return api.OK(users), nil
}

// UpdateUser handles PUT /users/{username}
func (h *UserHandler) UpdateUser(ctx context.Context, req *api.Request) (*api.Result, error) {
	var updateRequest models.UpdateUserRequest
	if err := req.Decode(&updateRequest); err != nil {
		return nil, err
	}
	if updateRequest.IsEmpty() {
		return nil, apperrors.NewValidation("At least one of " + strings.Join(models.UpdatableUserFields, ", ") + " is required")
	}

	username := req.PathParam("username")
	user, err := h.Repository.UpdateUser(ctx, username, &updateRequest)
	if err != nil {
		return nil, err
	}

	h.Logger.WithFields(logrus.Fields{
		"operation": "UpdateUser",
		"username":  username,
		"actor":     req.Claims.Actor(),
	}).Info("User updated")

	return api.OK(user), nil
}

// CreateProfileImageUpload handles POST /users/{username}/profile-image. The new
// object key is stored on the user right away; the client uploads with the URL.
func (h *UserHandler) CreateProfileImageUpload(ctx context.Context, req *api.Request) (*api.Result, error) {
	var uploadRequest models.ProfileImageUploadRequest
	if err := req.Decode(&uploadRequest); err != nil {
		return nil, err
	}

	username := req.PathParam("username")
	user, err := h.Repository.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	key := profileImageKey(username, h.NewID(), uploadRequest.FileName)
	uploadURL, err := h.Images.GenerateUploadURL(ctx, key, uploadRequest.ContentType, ProfileImageExpiry)
	if err != nil {
		return nil, apperrors.NewInternal("Failed to generate upload URL", err)
	}

	if _, err := h.Repository.UpdateUser(ctx, username, &models.UpdateUserRequest{ProfileImage: &key}); err != nil {
		return nil, err
	}

	if previous := user.ProfileImage; previous != "" && strings.HasPrefix(previous, profileImageDir(username)) {
		if err := h.Images.DeleteObject(ctx, previous); err != nil {
			h.Logger.WithFields(logrus.Fields{
				"operation": "CreateProfileImageUpload",
				"username":  username,
				"key":       previous,
				"error":     err.Error(),
			}).Warn("Failed to delete previous profile image")
		}
	}

	h.Logger.WithFields(logrus.Fields{
		"operation": "CreateProfileImageUpload",
		"username":  username,
		"key":       key,
	}).Info("Profile image upload URL generated")

	return api.OK(models.ProfileImageUploadResponse{
		UploadURL:    uploadURL,
		ProfileImage: key,
		ExpiresIn:    int(ProfileImageExpiry.Seconds()),
	}), nil
}

func profileImageDir(username string) string {
	return constants.PROFILE_IMAGE_PREFIX + "/" + username + "/"
}

// profileImageKey builds profile-images/<username>/<id><ext>, keeping only the
// lower-cased extension of the client's file name
func profileImageKey(username, id, fileName string) string {
	return profileImageDir(username) + id + strings.ToLower(path.Ext(fileName))
}
