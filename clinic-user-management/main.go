package main

import (
	"clinic/lib/api"
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

// Global variables for Lambda cold start optimization
var (
	logger         *logrus.Logger
	isLocal        bool
	cfg            *config.Config
	userRepository data.UserRepository
	imageStore     clients.S3ClientInterface
	pipeline       *api.Pipeline
)

func main() {
	lambda.Start(pipeline.Handle)
}

func init() {
	isLocal = parseIsLocal()
	logger = setupLogger(isLocal)

	cfg = loadConfig()
	if err := cfg.Require("USER_POOL_ID"); err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Invalid configuration")
	}

	opts := clients.Options{IsLocal: isLocal, Region: cfg.Region, Tracing: cfg.TracingEnabled}
	userRepository = &data.CognitoUserDao{
		Client:     clients.NewCognitoIdentityProviderClient(opts),
		UserPoolID: cfg.UserPoolID,
		Logger:     logger,
	}

	// profile image uploads are optional
	if cfg.ProfileImagesBucket != "" {
		imageStore = clients.NewS3Client(opts, cfg.ProfileImagesBucket)
	} else {
		logger.WithField("operation", "init").Warn("PROFILE_IMAGES_BUCKET not set, profile image uploads disabled")
	}

	pipeline = api.NewPipeline(api.NewCORSPolicy(cfg.Stage, cfg.AllowedOrigins), logger, cfg.IsDev())
	pipeline.Register(handlers.NewUserHandler(userRepository, imageStore, logger).Routes()...)

	logger.WithFields(logrus.Fields{
		"operation":    "init",
		"stage":        cfg.Stage,
		"user_pool_id": cfg.UserPoolID,
	}).Info("User Management Lambda initialization completed successfully")
}

// loadConfig reads the environment and, when SSM_PARAMETER_PATH is set, overlays
// the parameters stored below that path
func loadConfig() *config.Config {
	cfg := config.Load(nil)
	if cfg.SSMParameterPath == "" {
		return cfg
	}

	ssmRepository := &data.SSMDao{
		SSM:    clients.NewSSMClient(clients.Options{IsLocal: isLocal, Region: cfg.Region}),
		Logger: logger,
		Path:   cfg.SSMParameterPath,
	}
	ssmParams, err := ssmRepository.GetParameters()
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error while getting SSM params from parameter store")
	}
	return config.Load(ssmParams)
}

func parseIsLocal() bool {
	isLocal, _ := strconv.ParseBool(os.Getenv("IS_LOCAL"))
	return isLocal
}

func setupLogger(isLocal bool) *logrus.Logger {
	logger := logrus.New()
	util.SetLogLevel(logger, os.Getenv("LOG_LEVEL"))
	logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: isLocal})
	return logger
}
