package clients

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// NewDynamoDBClient creates a DynamoDB client. Create it once in init() and reuse it
// across invocations.
func NewDynamoDBClient(opts Options) *dynamodb.Client {
	return dynamodb.NewFromConfig(loadAWSConfig(opts))
}
