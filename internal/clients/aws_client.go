package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// NewAWSConfig loads the default credential chain for region.
func NewAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	slog.Info("[AWSClient] Initializing AWS Config...", slog.String("region", region))
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("[AWSClient] failed to load AWS config: %w", err)
	}
	slog.Info("[AWSClient] AWS Config Initialized")
	return cfg, nil
}

// NewDynamoDBClient builds a client for cfg. A non-empty endpoint points it
// at a local DynamoDB.
func NewDynamoDBClient(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}
