package data

import (
	"clinic/lib/apperrors"
	"clinic/lib/models"
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCognitoClient keeps users in memory, keyed by username
type MockCognitoClient struct {
	Users       map[string]*types.UserType
	Passwords   map[string]string
	CreateErr   error
	PasswordErr error

	ListInputs []*cognitoidentityprovider.ListUsersInput
	Calls      []string
}

func NewMockCognitoClient() *MockCognitoClient {
	return &MockCognitoClient{
		Users:     map[string]*types.UserType{},
		Passwords: map[string]string{},
	}
}

func (m *MockCognitoClient) AdminCreateUser(ctx context.Context, input *cognitoidentityprovider.AdminCreateUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error) {
	m.Calls = append(m.Calls, "AdminCreateUser")
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	username := aws.ToString(input.Username)
	if _, exists := m.Users[username]; exists {
		return nil, &types.UsernameExistsException{Message: aws.String("An account with the given email already exists.")}
	}
	now := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	user := &types.UserType{
		Username:             input.Username,
		Attributes:           input.UserAttributes,
		Enabled:              true,
		UserStatus:           types.UserStatusTypeForceChangePassword,
		UserCreateDate:       &now,
		UserLastModifiedDate: &now,
	}
	m.Users[username] = user
	return &cognitoidentityprovider.AdminCreateUserOutput{User: user}, nil
}

func (m *MockCognitoClient) AdminSetUserPassword(ctx context.Context, input *cognitoidentityprovider.AdminSetUserPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminSetUserPasswordOutput, error) {
	m.Calls = append(m.Calls, "AdminSetUserPassword")
	user, err := m.user(input.Username)
	if err != nil {
		return nil, err
	}
	if m.PasswordErr != nil {
		return nil, m.PasswordErr
	}
	m.Passwords[aws.ToString(input.Username)] = aws.ToString(input.Password)
	if input.Permanent {
		user.UserStatus = types.UserStatusTypeConfirmed
	}
	return &cognitoidentityprovider.AdminSetUserPasswordOutput{}, nil
}

func (m *MockCognitoClient) AdminGetUser(ctx context.Context, input *cognitoidentityprovider.AdminGetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminGetUserOutput, error) {
	m.Calls = append(m.Calls, "AdminGetUser")
	user, err := m.user(input.Username)
	if err != nil {
		return nil, err
	}
	return &cognitoidentityprovider.AdminGetUserOutput{
		Username:             user.Username,
		UserAttributes:       user.Attributes,
		Enabled:              user.Enabled,
		UserStatus:           user.UserStatus,
		UserCreateDate:       user.UserCreateDate,
		UserLastModifiedDate: user.UserLastModifiedDate,
	}, nil
}

func (m *MockCognitoClient) ListUsers(ctx context.Context, input *cognitoidentityprovider.ListUsersInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.ListUsersOutput, error) {
	m.Calls = append(m.Calls, "ListUsers")
	m.ListInputs = append(m.ListInputs, input)
	output := &cognitoidentityprovider.ListUsersOutput{}
	for _, user := range m.Users {
		output.Users = append(output.Users, *user)
	}
	if input.PaginationToken == nil {
		output.PaginationToken = aws.String("next-page")
	}
	return output, nil
}

func (m *MockCognitoClient) AdminUpdateUserAttributes(ctx context.Context, input *cognitoidentityprovider.AdminUpdateUserAttributesInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminUpdateUserAttributesOutput, error) {
	m.Calls = append(m.Calls, "AdminUpdateUserAttributes")
	user, err := m.user(input.Username)
	if err != nil {
		return nil, err
	}
	for _, changed := range input.UserAttributes {
		replaced := false
		for i, existing := range user.Attributes {
			if aws.ToString(existing.Name) == aws.ToString(changed.Name) {
				user.Attributes[i] = changed
				replaced = true
			}
		}
		if !replaced {
			user.Attributes = append(user.Attributes, changed)
		}
	}
	return &cognitoidentityprovider.AdminUpdateUserAttributesOutput{}, nil
}

func (m *MockCognitoClient) AdminEnableUser(ctx context.Context, input *cognitoidentityprovider.AdminEnableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminEnableUserOutput, error) {
	m.Calls = append(m.Calls, "AdminEnableUser")
	user, err := m.user(input.Username)
	if err != nil {
		return nil, err
	}
	user.Enabled = true
	return &cognitoidentityprovider.AdminEnableUserOutput{}, nil
}

func (m *MockCognitoClient) AdminDisableUser(ctx context.Context, input *cognitoidentityprovider.AdminDisableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDisableUserOutput, error) {
	m.Calls = append(m.Calls, "AdminDisableUser")
	user, err := m.user(input.Username)
	if err != nil {
		return nil, err
	}
	user.Enabled = false
	return &cognitoidentityprovider.AdminDisableUserOutput{}, nil
}

func (m *MockCognitoClient) AdminDeleteUser(ctx context.Context, input *cognitoidentityprovider.AdminDeleteUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDeleteUserOutput, error) {
	m.Calls = append(m.Calls, "AdminDeleteUser")
	if _, err := m.user(input.Username); err != nil {
		return nil, err
	}
	delete(m.Users, aws.ToString(input.Username))
	delete(m.Passwords, aws.ToString(input.Username))
	return &cognitoidentityprovider.AdminDeleteUserOutput{}, nil
}

func (m *MockCognitoClient) user(username *string) (*types.UserType, error) {
	user, ok := m.Users[aws.ToString(username)]
	if !ok {
		return nil, &types.UserNotFoundException{Message: aws.String("User does not exist.")}
	}
	return user, nil
}

func newUserDao(mock *MockCognitoClient) *CognitoUserDao {
	return &CognitoUserDao{
		Client:     mock,
		UserPoolID: "us-east-1_test",
		Logger:     logrus.New(),
	}
}

func createRequest() *models.CreateUserRequest {
	return &models.CreateUserRequest{
		Email:     "jane.doe@clinic.example.com",
		Password:  "Sup3rSecret!",
		FirstName: "Jane",
		LastName:  "Doe",
		Phone:     "+14155550100",
		Role:      "doctor",
	}
}

func Test_CognitoUserDao_CreateUser(t *testing.T) {
	//Arrange
	mock := NewMockCognitoClient()
	dao := newUserDao(mock)

	//Act
	user, err := dao.CreateUser(context.Background(), createRequest())

	//Assert
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@clinic.example.com", user.Username)
	assert.Equal(t, "jane.doe", user.DisplayUsername)
	assert.Equal(t, "Jane", user.FirstName)
	assert.Equal(t, "Doe", user.LastName)
	assert.Equal(t, "+14155550100", user.Phone)
	assert.Equal(t, "doctor", user.Role)
	assert.Equal(t, "CONFIRMED", user.Status)
	assert.True(t, user.Enabled)
	assert.Equal(t, "Sup3rSecret!", mock.Passwords["jane.doe@clinic.example.com"])
	assert.Equal(t, []string{"AdminCreateUser", "AdminSetUserPassword", "AdminGetUser"}, mock.Calls)
}

func Test_CognitoUserDao_CreateUser_Exists(t *testing.T) {
	//Arrange
	mock := NewMockCognitoClient()
	dao := newUserDao(mock)
	_, err := dao.CreateUser(context.Background(), createRequest())
	require.NoError(t, err)

	//Act
	_, err = dao.CreateUser(context.Background(), createRequest())

	//Assert
	assert.True(t, apperrors.IsConflict(err))
}

func Test_CognitoUserDao_CreateUser_InvalidPassword(t *testing.T) {
	//Arrange
	mock := NewMockCognitoClient()
	mock.CreateErr = &types.InvalidPasswordException{Message: aws.String("Password does not conform to policy")}
	dao := newUserDao(mock)

	//Act
	_, err := dao.CreateUser(context.Background(), createRequest())

	//Assert
	assert.True(t, apperrors.IsValidation(err))
}

func Test_CognitoUserDao_CreateUser_PasswordRejectedRollsBack(t *testing.T) {
	//Arrange
	mock := NewMockCognitoClient()
	mock.PasswordErr = &types.InvalidPasswordException{Message: aws.String("Password must have symbol characters")}
	dao := newUserDao(mock)

	//Act
	_, err := dao.CreateUser(context.Background(), createRequest())

	//Assert
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, mock.Users)
	assert.Equal(t, []string{"AdminCreateUser", "AdminSetUserPassword", "AdminDeleteUser"}, mock.Calls)

	//Act
	mock.PasswordErr = nil
	user, err := dao.CreateUser(context.Background(), createRequest())

	//Assert
	require.NoError(t, err)
	assert.False(t, apperrors.IsConflict(err))
	assert.Equal(t, "jane.doe@clinic.example.com", user.Username)
}

func Test_CognitoUserDao_GetUser_NotFound(t *testing.T) {
	//Arrange
	dao := newUserDao(NewMockCognitoClient())

	//Act
	user, err := dao.GetUser(context.Background(), "nobody@clinic.example.com")

	//Assert
	assert.Nil(t, user)
	assert.True(t, apperrors.IsNotFound(err))
}

func Test_CognitoUserDao_ListUsers(t *testing.T) {
	//Arrange
	mock := NewMockCognitoClient()
	dao := newUserDao(mock)
	_, err := dao.CreateUser(context.Background(), createRequest())
	require.NoError(t, err)

	//Act
	result, err := dao.ListUsers(context.Background(), models.ListUsersParams{Limit: 10, EmailPrefix: `ja"ne`})

	//Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, "jane.doe@clinic.example.com", result.Users[0].Email)
	assert.Equal(t, "next-page", result.PaginationToken)

	input := mock.ListInputs[0]
	assert.Equal(t, int32(10), aws.ToInt32(input.Limit))
	assert.Equal(t, `email ^= "jane"`, aws.ToString(input.Filter))
	assert.Nil(t, input.PaginationToken)
}

func Test_CognitoUserDao_UpdateUser(t *testing.T) {
	//Arrange
	mock := NewMockCognitoClient()
	dao := newUserDao(mock)
	_, err := dao.CreateUser(context.Background(), createRequest())
	require.NoError(t, err)
	mock.Calls = nil

	firstName := "Janet"
	enabled := false

	//Act
	user, err := dao.UpdateUser(context.Background(), "jane.doe@clinic.example.com", &models.UpdateUserRequest{
		FirstName: &firstName,
		Enabled:   &enabled,
	})

	//Assert
	require.NoError(t, err)
	assert.Equal(t, "Janet", user.FirstName)
	assert.Equal(t, "Doe", user.LastName)
	assert.False(t, user.Enabled)
	assert.Equal(t, []string{"AdminUpdateUserAttributes", "AdminDisableUser", "AdminGetUser"}, mock.Calls)
}

func Test_CognitoUserDao_UpdateUser_OnlyEnabled(t *testing.T) {
	//Arrange
	mock := NewMockCognitoClient()
	dao := newUserDao(mock)
	_, err := dao.CreateUser(context.Background(), createRequest())
	require.NoError(t, err)
	mock.Calls = nil
	enabled := true

	//Act
	_, err = dao.UpdateUser(context.Background(), "jane.doe@clinic.example.com", &models.UpdateUserRequest{Enabled: &enabled})

	//Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"AdminEnableUser", "AdminGetUser"}, mock.Calls)
}

func Test_CognitoUserDao_UpdateUser_NotFound(t *testing.T) {
	//Arrange
	dao := newUserDao(NewMockCognitoClient())
	role := "admin"

	//Act
	_, err := dao.UpdateUser(context.Background(), "ghost", &models.UpdateUserRequest{Role: &role})

	//Assert
	assert.True(t, apperrors.IsNotFound(err))
}

func Test_ToAttributeTypes_SortedByName(t *testing.T) {
	attributes := toAttributeTypes(map[string]string{"given_name": "Jane", "email": "j@x.io", "custom:role": "doctor"})

	require.Len(t, attributes, 3)
	assert.Equal(t, "custom:role", aws.ToString(attributes[0].Name))
	assert.Equal(t, "email", aws.ToString(attributes[1].Name))
	assert.Equal(t, "given_name", aws.ToString(attributes[2].Name))
}
