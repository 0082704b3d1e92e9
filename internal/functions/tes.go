package functions

import (
	"context"
	"fmt"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// TableLister is the part of the DynamoDB client the TES example uses
type TableLister interface {
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

// NewDynamoDBClient creates a DynamoDB client from the default credential
// chain. On a core device the chain picks up the token exchange service
// endpoint from AWS_CONTAINER_CREDENTIALS_FULL_URI.
func NewDynamoDBClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// ListTables lists up to the configured number of DynamoDB tables using
// credentials vended by the token exchange service
func (e *Examples) ListTables(ctx context.Context) ([]string, error) {
	if e.Tables == nil {
		return nil, fmt.Errorf("no DynamoDB client configured")
	}

	out, err := e.Tables.ListTables(ctx, &dynamodb.ListTablesInput{
		Limit: aws.Int32(int32(e.Config.ListTablesLimit)),
	})
	if err != nil {
		e.Logger.Errorf("Error: %v", err)
		return nil, err
	}

	e.Logger.Info("Tables:")
	for _, name := range out.TableNames {
		e.Logger.Infof("  %s", name)
	}
	return out.TableNames, nil
}

// TESHandler lists tables on every event
func (e *Examples) TESHandler(ctx context.Context, inv greengrass.Invocation) {
	e.ListTables(ctx)
}
