package data

import (
	"clinic/lib/apperrors"
	"clinic/lib/constants"
	"clinic/lib/models"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
)

// UserRepository defines the user operations backed by the Cognito user pool
type UserRepository interface {
	// CreateUser creates a confirmed user with a permanent password. The email is the username.
	CreateUser(ctx context.Context, request *models.CreateUserRequest) (*models.User, error)

	// GetUser retrieves a user by username
	GetUser(ctx context.Context, username string) (*models.User, error)

	// ListUsers returns one page of users
	ListUsers(ctx context.Context, params models.ListUsersParams) (*models.UserListResponse, error)

	// UpdateUser applies attribute changes and the enabled flag, then returns the stored user
	UpdateUser(ctx context.Context, username string, request *models.UpdateUserRequest) (*models.User, error)
}

// CognitoClientInterface is the subset of the Cognito admin API used by the DAO
type CognitoClientInterface interface {
	AdminCreateUser(ctx context.Context, params *cognitoidentityprovider.AdminCreateUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error)
	AdminSetUserPassword(ctx context.Context, params *cognitoidentityprovider.AdminSetUserPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminSetUserPasswordOutput, error)
	AdminGetUser(ctx context.Context, params *cognitoidentityprovider.AdminGetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminGetUserOutput, error)
	ListUsers(ctx context.Context, params *cognitoidentityprovider.ListUsersInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ListUsersOutput, error)
	AdminUpdateUserAttributes(ctx context.Context, params *cognitoidentityprovider.AdminUpdateUserAttributesInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminUpdateUserAttributesOutput, error)
	AdminEnableUser(ctx context.Context, params *cognitoidentityprovider.AdminEnableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminEnableUserOutput, error)
	AdminDisableUser(ctx context.Context, params *cognitoidentityprovider.AdminDisableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDisableUserOutput, error)
	AdminDeleteUser(ctx context.Context, params *cognitoidentityprovider.AdminDeleteUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDeleteUserOutput, error)
}

// CognitoUserDao implements UserRepository on a single user pool
type CognitoUserDao struct {
	Client     CognitoClientInterface
	UserPoolID string
	Logger     *logrus.Logger
}

// CreateUser creates the user with the welcome message suppressed, then sets the
// password as permanent so the account is usable immediately. If the password is
// rejected the new user is deleted again so the email can be retried.
func (dao *CognitoUserDao) CreateUser(ctx context.Context, request *models.CreateUserRequest) (*models.User, error) {
	username := request.Email

	_, err := dao.Client.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId:     aws.String(dao.UserPoolID),
		Username:       aws.String(username),
		UserAttributes: toAttributeTypes(request.Attributes()),
		MessageAction:  types.MessageActionTypeSuppress,
	})
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "CreateUser",
			"email":     request.Email,
			"error":     err.Error(),
		}).Error("Failed to create Cognito user")
		return nil, apperrors.FromAWS(err, "User")
	}

	_, err = dao.Client.AdminSetUserPassword(ctx, &cognitoidentityprovider.AdminSetUserPasswordInput{
		UserPoolId: aws.String(dao.UserPoolID),
		Username:   aws.String(username),
		Password:   aws.String(request.Password),
		Permanent:  true,
	})
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "CreateUser",
			"email":     request.Email,
			"error":     err.Error(),
		}).Error("Failed to set password for Cognito user")

		dao.deleteUser(ctx, username)
		return nil, apperrors.FromAWS(err, "User")
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation": "CreateUser",
		"email":     request.Email,
	}).Info("Successfully created Cognito user")

	return dao.GetUser(ctx, username)
}

// deleteUser rolls back a half-created user. Failures are only logged; the caller
// already has the error to return.
func (dao *CognitoUserDao) deleteUser(ctx context.Context, username string) {
	_, err := dao.Client.AdminDeleteUser(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
		UserPoolId: aws.String(dao.UserPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "CreateUser",
			"username":  username,
			"error":     err.Error(),
		}).Error("Failed to delete Cognito user after password failure")
		return
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation": "CreateUser",
		"username":  username,
	}).Warn("Deleted Cognito user after password failure")
}

// GetUser retrieves a user by username
func (dao *CognitoUserDao) GetUser(ctx context.Context, username string) (*models.User, error) {
	output, err := dao.Client.AdminGetUser(ctx, &cognitoidentityprovider.AdminGetUserInput{
		UserPoolId: aws.String(dao.UserPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		appErr := apperrors.FromAWS(err, "User")
		if apperrors.IsNotFound(appErr) {
			dao.Logger.WithField("username", username).Debug("Cognito user not found")
		} else {
			dao.Logger.WithFields(logrus.Fields{
				"operation": "GetUser",
				"username":  username,
				"error":     err.Error(),
			}).Error("Failed to get Cognito user")
		}
		return nil, appErr
	}

	user := models.UserFromAttributes(
		aws.ToString(output.Username),
		fromAttributeTypes(output.UserAttributes),
		output.Enabled,
		string(output.UserStatus),
		output.UserCreateDate,
		output.UserLastModifiedDate,
	)
	return &user, nil
}

// ListUsers returns one page of users, optionally filtered by email prefix
func (dao *CognitoUserDao) ListUsers(ctx context.Context, params models.ListUsersParams) (*models.UserListResponse, error) {
	input := &cognitoidentityprovider.ListUsersInput{
		UserPoolId: aws.String(dao.UserPoolID),
	}
	if params.Limit > 0 {
		input.Limit = aws.Int32(params.Limit)
	}
	if params.PaginationToken != "" {
		input.PaginationToken = aws.String(params.PaginationToken)
	}
	if params.EmailPrefix != "" {
		input.Filter = aws.String(emailPrefixFilter(params.EmailPrefix))
	}

	output, err := dao.Client.ListUsers(ctx, input)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"operation": "ListUsers",
			"error":     err.Error(),
		}).Error("Failed to list Cognito users")
		return nil, apperrors.FromAWS(err, "User")
	}

	users := make([]models.User, 0, len(output.Users))
	for _, u := range output.Users {
		users = append(users, models.UserFromAttributes(
			aws.ToString(u.Username),
			fromAttributeTypes(u.Attributes),
			u.Enabled,
			string(u.UserStatus),
			u.UserCreateDate,
			u.UserLastModifiedDate,
		))
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation": "ListUsers",
		"count":     len(users),
	}).Debug("Successfully listed Cognito users")

	return &models.UserListResponse{
		Users:           users,
		Count:           len(users),
		PaginationToken: aws.ToString(output.PaginationToken),
	}, nil
}

// UpdateUser applies the attribute changes first and the enabled flag second
func (dao *CognitoUserDao) UpdateUser(ctx context.Context, username string, request *models.UpdateUserRequest) (*models.User, error) {
	if attributes := request.Attributes(); len(attributes) > 0 {
		_, err := dao.Client.AdminUpdateUserAttributes(ctx, &cognitoidentityprovider.AdminUpdateUserAttributesInput{
			UserPoolId:     aws.String(dao.UserPoolID),
			Username:       aws.String(username),
			UserAttributes: toAttributeTypes(attributes),
		})
		if err != nil {
			dao.Logger.WithFields(logrus.Fields{
				"operation": "UpdateUser",
				"username":  username,
				"error":     err.Error(),
			}).Error("Failed to update Cognito user attributes")
			return nil, apperrors.FromAWS(err, "User")
		}
	}

	if request.Enabled != nil {
		var err error
		if *request.Enabled {
			_, err = dao.Client.AdminEnableUser(ctx, &cognitoidentityprovider.AdminEnableUserInput{
				UserPoolId: aws.String(dao.UserPoolID),
				Username:   aws.String(username),
			})
		} else {
			_, err = dao.Client.AdminDisableUser(ctx, &cognitoidentityprovider.AdminDisableUserInput{
				UserPoolId: aws.String(dao.UserPoolID),
				Username:   aws.String(username),
			})
		}
		if err != nil {
			dao.Logger.WithFields(logrus.Fields{
				"operation": "UpdateUser",
				"username":  username,
				"enabled":   *request.Enabled,
				"error":     err.Error(),
			}).Error("Failed to change Cognito user status")
			return nil, apperrors.FromAWS(err, "User")
		}
	}

	dao.Logger.WithFields(logrus.Fields{
		"operation": "UpdateUser",
		"username":  username,
	}).Info("Successfully updated Cognito user")

	return dao.GetUser(ctx, username)
}

// toAttributeTypes converts a name→value map into Cognito attributes, sorted by name
func toAttributeTypes(attributes map[string]string) []types.AttributeType {
	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]types.AttributeType, 0, len(names))
	for _, name := range names {
		result = append(result, types.AttributeType{
			Name:  aws.String(name),
			Value: aws.String(attributes[name]),
		})
	}
	return result
}

func fromAttributeTypes(attributes []types.AttributeType) map[string]string {
	result := make(map[string]string, len(attributes))
	for _, attr := range attributes {
		result[aws.ToString(attr.Name)] = aws.ToString(attr.Value)
	}
	return result
}

// emailPrefixFilter builds a ListUsers filter. Quotes and backslashes are stripped
// since the filter grammar has no escaping.
func emailPrefixFilter(prefix string) string {
	prefix = strings.NewReplacer(`"`, "", `\`, "").Replace(prefix)
	return fmt.Sprintf("%s ^= \"%s\"", constants.ATTR_EMAIL, prefix)
}
