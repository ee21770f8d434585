package handlers

import (
	"clinic/lib/constants"
	"clinic/lib/data"
	"clinic/lib/models"
	"clinic/lib/util"
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var tokenGenerationSources = map[string]bool{
	"TokenGeneration_HostedAuth":           true,
	"TokenGeneration_Authentication":       true,
	"TokenGeneration_NewPasswordChallenge": true,
	"TokenGeneration_AuthenticateDevice":   true,
	"TokenGeneration_RefreshTokens":        true,
}

// TokenCustomizer is the Pre Token Generation V2.0 trigger. It adds the user's
// role and display names to the ID and access tokens.
type TokenCustomizer struct {
	Logger *logrus.Logger
}

func (t *TokenCustomizer) Handle(ctx context.Context, event events.CognitoEventUserPoolsPreTokenGenV2_0) (events.CognitoEventUserPoolsPreTokenGenV2_0, error) {
	log := t.Logger.WithFields(logrus.Fields{
		"operation":      "TokenCustomizer",
		"trigger_source": event.TriggerSource,
		"user_pool_id":   event.UserPoolID,
		"username":       event.UserName,
	})

	if !tokenGenerationSources[event.TriggerSource] {
		log.Warn("Unsupported trigger source, returning event unchanged")
		return event, nil
	}

	attributes := event.Request.UserAttributes
	claims := BuildTokenClaims(attributes)
	if len(claims) == 0 {
		log.Debug("No custom claims for user")
		return event, nil
	}

	groups := event.Request.GroupConfiguration.GroupsToOverride
	if role := attributes[constants.ATTR_ROLE]; role != "" {
		groups = []string{role}
	}
	if groups == nil {
		groups = []string{}
	}

	event.Response.ClaimsAndScopeOverrideDetails = events.ClaimsAndScopeOverrideDetailsV2_0{
		IDTokenGeneration: events.IDTokenGenerationV2_0{
			ClaimsToAddOrOverride: claims,
			ClaimsToSuppress:      []string{},
		},
		AccessTokenGeneration: events.AccessTokenGenerationV2_0{
			ClaimsToAddOrOverride: claims,
			ClaimsToSuppress:      []string{},
			ScopesToAdd:           []string{},
			ScopesToSuppress:      []string{},
		},
		GroupOverrideDetails: events.GroupConfigurationV2_0{
			GroupsToOverride:   groups,
			IAMRolesToOverride: event.Request.GroupConfiguration.IAMRolesToOverride,
			PreferredRole:      event.Request.GroupConfiguration.PreferredRole,
		},
	}

	log.WithField("claims_count", len(claims)).Debug("Added custom claims to token")
	return event, nil
}

// BuildTokenClaims derives role, display_username and full_name from Cognito
// user attributes. Empty values are left out.
func BuildTokenClaims(attributes map[string]string) map[string]interface{} {
	claims := map[string]interface{}{}

	if role := attributes[constants.ATTR_ROLE]; role != "" {
		claims["role"] = role
	}
	if email := attributes[constants.ATTR_EMAIL]; email != "" {
		claims["display_username"] = util.DisplayUsername(email)
	}

	fullName := strings.TrimSpace(attributes[constants.ATTR_GIVEN_NAME] + " " + attributes[constants.ATTR_FAMILY_NAME])
	if fullName != "" {
		claims["full_name"] = fullName
	}
	return claims
}

// SignupHandler is the Post Confirmation trigger. Users confirmed without a role
// get the default patient role. It never returns an error, so a failure here
// cannot block confirmation.
type SignupHandler struct {
	// NewRepository builds a repository for the pool named in the event
	NewRepository func(userPoolID string) data.UserRepository
	Logger        *logrus.Logger
}

func (s *SignupHandler) Handle(ctx context.Context, event events.CognitoEventUserPoolsPostConfirmation) (events.CognitoEventUserPoolsPostConfirmation, error) {
	log := s.Logger.WithFields(logrus.Fields{
		"operation":      "SignupHandler",
		"correlation_id": uuid.New().String(),
		"trigger_source": event.TriggerSource,
		"username":       event.UserName,
	})

	if event.UserName == "" {
		log.Error("Username is empty in Cognito event")
		return event, nil
	}

	if role := event.Request.UserAttributes[constants.ATTR_ROLE]; role != "" {
		log.WithField("role", role).Debug("User already has a role")
		return event, nil
	}

	role := constants.DEFAULT_ROLE
	repository := s.NewRepository(event.UserPoolID)
	if _, err := repository.UpdateUser(ctx, event.UserName, &models.UpdateUserRequest{Role: &role}); err != nil {
		log.WithError(err).Error("Failed to assign default role, user can still login")
		return event, nil
	}

	log.WithField("role", role).Info("Assigned default role")
	return event, nil
}
