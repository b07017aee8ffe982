// Where: internal/awsclient/factory.go
// What: AWS SDK client construction for ECS and DynamoDB.
// Why: Encapsulate region, credential, and endpoint overrides in one place.
package awsclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/poruru/ecs-scheduled-scaling/internal/config"
	"github.com/poruru/ecs-scheduled-scaling/internal/constants"
)

// Clients bundles the SDK clients used by one invocation.
type Clients struct {
	ECS      *ecs.Client
	DynamoDB *dynamodb.Client
}

// New loads the AWS configuration for cfg and builds both clients.
func New(ctx context.Context, cfg config.Config) (Clients, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg.Region)
	if err != nil {
		return Clients{}, err
	}
	return Clients{
		ECS:      newECS(awsCfg, cfg.ECSEndpoint),
		DynamoDB: newDynamoDB(awsCfg, cfg.DynamoDBEndpoint),
	}, nil
}

func newECS(awsCfg aws.Config, endpoint string) *ecs.Client {
	return ecs.NewFromConfig(awsCfg, func(options *ecs.Options) {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
		}
	})
}

func newDynamoDB(awsCfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			options.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// loadAWSConfig uses the default credential chain unless static keys are
// supplied, which is how local DynamoDB/ECS emulators are reached.
func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	accessKey := strings.TrimSpace(os.Getenv(constants.EnvAccessKeyID))
	secretKey := strings.TrimSpace(os.Getenv(constants.EnvSecretAccessKey))
	if accessKey != "" || secretKey != "" {
		if accessKey == "" || secretKey == "" {
			return aws.Config{}, fmt.Errorf("%s and %s must be set together",
				constants.EnvAccessKeyID, constants.EnvSecretAccessKey)
		}
		creds := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
