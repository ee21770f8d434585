// Package main implements the Cognito Post Confirmation trigger that gives newly
// confirmed users the default patient role.
package main

import (
	"clinic/lib/clients"
	"clinic/lib/config"
	"clinic/lib/data"
	"clinic/lib/handlers"
	"clinic/lib/util"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

var (
	logger        *logrus.Logger
	isLocal       bool
	cognitoClient data.CognitoClientInterface
	signupHandler *handlers.SignupHandler
)

func main() {
	lambda.Start(signupHandler.Handle)
}

func init() {
	isLocal, _ = strconv.ParseBool(os.Getenv("IS_LOCAL"))

	logger = logrus.New()
	util.SetLogLevel(logger, os.Getenv("LOG_LEVEL"))
	logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: isLocal})

	cfg := config.Load(nil)
	cognitoClient = clients.NewCognitoIdentityProviderClient(clients.Options{
		IsLocal: isLocal,
		Region:  cfg.Region,
		Tracing: cfg.TracingEnabled,
	})

	// the trigger event names its own user pool
	signupHandler = &handlers.SignupHandler{
		NewRepository: func(userPoolID string) data.UserRepository {
			return &data.CognitoUserDao{
				Client:     cognitoClient,
				UserPoolID: userPoolID,
				Logger:     logger,
			}
		},
		Logger: logger,
	}

	logger.WithField("operation", "init").Info("User Signup Lambda initialization completed successfully")
}
