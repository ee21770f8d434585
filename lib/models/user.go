package models

import (
	"clinic/lib/constants"
	"clinic/lib/util"
	"time"
)

// User is the client-facing shape of a Cognito user. Cognito stays the system
// of record; nothing here is persisted by the application.
type User struct {
	Username        string     `json:"username"`
	DisplayUsername string     `json:"displayUsername"` // local part of the email
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Phone           string     `json:"phone,omitempty"`
	Role            string     `json:"role,omitempty"`
	ProfileImage    string     `json:"profileImage,omitempty"`
	Enabled         bool       `json:"enabled"`
	Status          string     `json:"status"` // Cognito UserStatusType, e.g. CONFIRMED
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

// UserFromAttributes flattens Cognito's attribute list (already turned into a
// name→value map) into a User.
func UserFromAttributes(username string, attributes map[string]string, enabled bool, status string, createdAt, updatedAt *time.Time) User {
	email := attributes[constants.ATTR_EMAIL]
	display := email
	if display == "" {
		display = username
	}

	return User{
		Username:        username,
		DisplayUsername: util.DisplayUsername(display),
		Email:           email,
		FirstName:       attributes[constants.ATTR_GIVEN_NAME],
		LastName:        attributes[constants.ATTR_FAMILY_NAME],
		Phone:           attributes[constants.ATTR_PHONE],
		Role:            attributes[constants.ATTR_ROLE],
		ProfileImage:    attributes[constants.ATTR_PROFILE_IMAGE],
		Enabled:         enabled,
		Status:          status,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
}

// CreateUserRequest represents the request payload for creating a new user
type CreateUserRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=256"`
	FirstName    string `json:"firstName" validate:"required,max=100"`
	LastName     string `json:"lastName" validate:"required,max=100"`
	Phone        string `json:"phone,omitempty" validate:"omitempty,e164"`
	Role         string `json:"role,omitempty" validate:"omitempty,max=50"`
	ProfileImage string `json:"profileImage,omitempty" validate:"omitempty,max=1024"`
}

// Attributes returns the Cognito attributes to set on creation
func (r *CreateUserRequest) Attributes() map[string]string {
	attributes := map[string]string{
		constants.ATTR_EMAIL:          r.Email,
		constants.ATTR_EMAIL_VERIFIED: "true",
		constants.ATTR_GIVEN_NAME:     r.FirstName,
		constants.ATTR_FAMILY_NAME:    r.LastName,
	}
	if r.Phone != "" {
		attributes[constants.ATTR_PHONE] = r.Phone
	}
	if r.Role != "" {
		attributes[constants.ATTR_ROLE] = r.Role
	}
	if r.ProfileImage != "" {
		attributes[constants.ATTR_PROFILE_IMAGE] = r.ProfileImage
	}
	return attributes
}

// UpdateUserRequest carries a partial update. Nil fields are left untouched.
type UpdateUserRequest struct {
	FirstName    *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName     *string `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Role         *string `json:"role,omitempty" validate:"omitempty,max=50"`
	ProfileImage *string `json:"profileImage,omitempty" validate:"omitempty,max=1024"`
	Enabled      *bool   `json:"enabled,omitempty"`
}

// UpdatableUserFields lists the body fields accepted by PUT /users/{username}
var UpdatableUserFields = []string{"firstName", "lastName", "phone", "role", "profileImage", "enabled"}

// Attributes returns the Cognito attributes changed by the request
func (r *UpdateUserRequest) Attributes() map[string]string {
	attributes := map[string]string{}
	set := func(name string, value *string) {
		if value != nil {
			attributes[name] = *value
		}
	}
	set(constants.ATTR_GIVEN_NAME, r.FirstName)
	set(constants.ATTR_FAMILY_NAME, r.LastName)
	set(constants.ATTR_PHONE, r.Phone)
	set(constants.ATTR_ROLE, r.Role)
	set(constants.ATTR_PROFILE_IMAGE, r.ProfileImage)
	return attributes
}

// IsEmpty reports whether the request changes nothing
func (r *UpdateUserRequest) IsEmpty() bool {
	return len(r.Attributes()) == 0 && r.Enabled == nil
}

// ListUsersParams are the query options of GET /users
type ListUsersParams struct {
	Limit           int32
	PaginationToken string
	EmailPrefix     string
}

// UserListResponse represents the response for listing users
type UserListResponse struct {
	Users           []User `json:"users"`
	Count           int    `json:"count"`
	PaginationToken string `json:"paginationToken,omitempty"`
}

// ProfileImageUploadRequest asks for a presigned upload URL for a user's picture
type ProfileImageUploadRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType,omitempty" validate:"omitempty,max=100"`
}

type ProfileImageUploadResponse struct {
	UploadURL    string `json:"uploadUrl"`
	ProfileImage string `json:"profileImage"`
	ExpiresIn    int    `json:"expiresIn"` // seconds
}
