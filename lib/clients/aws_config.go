package clients

import (
	"clinic/lib/constants"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
)

// Options controls how AWS service clients are built
type Options struct {
	IsLocal bool   // point every client at LocalStack
	Region  string // AWS_REGION
	Tracing bool   // instrument SDK calls with X-Ray subsegments
}

func loadAWSConfig(opts Options) aws.Config {
	region := opts.Region
	if region == "" {
		region = constants.DEFAULT_REGION
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		panic("failed to load AWS configuration: " + err.Error())
	}

	if opts.IsLocal {
		cfg.BaseEndpoint = aws.String(constants.LOCALSTACK_ENDPOINT)
	}
	if opts.Tracing {
		awsv2.AWSV2Instrumentor(&cfg.APIOptions)
	}

	return cfg
}
