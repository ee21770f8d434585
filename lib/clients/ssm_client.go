package clients

import (
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

func NewSSMClient(opts Options) *ssm.Client {
	return ssm.NewFromConfig(loadAWSConfig(opts))
}
