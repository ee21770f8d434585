package main

import (
	"clinic/lib/api"
	"clinic/lib/clients"
	"clinic/lib/config"
	"clinic/lib/data"
	"clinic/lib/util"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

var (
	logger     *logrus.Logger
	isLocal    bool
	corsPolicy *api.CORSPolicy
)

func handler(request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestOrigin := api.OriginFromHeaders(request.Headers, request.MultiValueHeaders)
	allowedOrigin := corsPolicy.ResolveOrigin(requestOrigin)

	log := logger.WithFields(logrus.Fields{
		"operation":      "Preflight",
		"path":           request.Path,
		"request_origin": requestOrigin,
		"allowed_origin": allowedOrigin,
	})
	if requestOrigin != "" && requestOrigin != allowedOrigin {
		log.Warn("Origin is not in the allow-list")
	} else {
		log.Debug("Preflight request")
	}

	return corsPolicy.PreflightResponse(requestOrigin), nil
}

func main() {
	lambda.Start(handler)
}

func init() {
	isLocal, _ = strconv.ParseBool(os.Getenv("IS_LOCAL"))

	logger = logrus.New()
	util.SetLogLevel(logger, os.Getenv("LOG_LEVEL"))
	logger.SetFormatter(&logrus.JSONFormatter{
		PrettyPrint: isLocal,
	})

	cfg := config.Load(nil)
	if cfg.SSMParameterPath != "" {
		ssmRepository := &data.SSMDao{
			SSM:    clients.NewSSMClient(clients.Options{IsLocal: isLocal, Region: cfg.Region}),
			Logger: logger,
			Path:   cfg.SSMParameterPath,
		}
		ssmParams, err := ssmRepository.GetParameters()
		if err != nil {
			logger.WithFields(logrus.Fields{
				"error": err.Error(),
			}).Fatal("Error while getting ssm params from param store")
		}
		cfg = config.Load(ssmParams)
	}

	corsPolicy = api.NewCORSPolicy(cfg.Stage, cfg.AllowedOrigins)
}
