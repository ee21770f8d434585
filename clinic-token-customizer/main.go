// Package main implements the Cognito Pre Token Generation V2.0 trigger.
//
// The trigger reads the user attributes Cognito passes in the event and adds
// role, display_username and full_name claims to the ID and access tokens. It
// makes no AWS calls, so it cannot fail authentication.
package main

import (
	"clinic/lib/handlers"
	"clinic/lib/util"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

var (
	logger     *logrus.Logger
	isLocal    bool
	customizer *handlers.TokenCustomizer
)

func main() {
	lambda.Start(customizer.Handle)
}

func init() {
	isLocal, _ = strconv.ParseBool(os.Getenv("IS_LOCAL"))

	logger = logrus.New()
	util.SetLogLevel(logger, os.Getenv("LOG_LEVEL"))
	logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: isLocal})

	customizer = &handlers.TokenCustomizer{Logger: logger}

	logger.WithField("operation", "init").Debug("Token Customizer Lambda initialization completed successfully")
}
