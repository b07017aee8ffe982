// Where: internal/snapshot/store.go
// What: DynamoDB-backed store of per-service desired counts.
// Why: Persist capacity before scale-down so scale-up can restore it.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/poruru/ecs-scheduled-scaling/internal/config"
	"github.com/sirupsen/logrus"
)

const (
	keyAttribute   = "service"
	countAttribute = "desiredCount"
)

// DynamoDBAPI is the subset of the DynamoDB client used here. *dynamodb.Client satisfies it.
type DynamoDBAPI interface {
	dynamodb.DescribeTableAPIClient
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Snapshot is the recorded desired count of one service.
type Snapshot struct {
	Service      string
	ServiceARN   string
	DesiredCount int32
}

// item is the persisted shape. The count is kept as a decimal string.
type item struct {
	Service      string `dynamodbav:"service"`
	ServiceARN   string `dynamodbav:"serviceArn"`
	DesiredCount string `dynamodbav:"desiredCount"`
}

// Store reads and writes snapshots in a single DynamoDB table.
type Store struct {
	api         DynamoDBAPI
	table       string
	waitTimeout time.Duration
	logger      *logrus.Entry
}

// New returns a Store for the table named in cfg.
func New(api DynamoDBAPI, cfg config.Config, logger *logrus.Entry) *Store {
	waitTimeout := cfg.TableWaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = config.DefaultTableWaitTimeout
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Store{
		api:         api,
		table:       cfg.TableName,
		waitTimeout: waitTimeout,
		logger:      logger.WithField("table", cfg.TableName),
	}
}

// Table returns the table name.
func (s *Store) Table() string {
	return s.table
}

// Exists probes the table. It returns an error wrapping ErrStoreNotFound when
// the table is missing.
func (s *Store) Exists(ctx context.Context) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("dynamodb client is nil")
	}
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return s.wrap("describe table", err)
	}
	return nil
}

// Create creates the table with on-demand billing and blocks until it is ACTIVE.
// A table already being created by a concurrent invocation is waited on.
func (s *Store) Create(ctx context.Context) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("dynamodb client is nil")
	}
	_, err := s.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(keyAttribute), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(keyAttribute), AttributeType: types.ScalarAttributeTypeS},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	switch {
	case err == nil:
		s.logger.Info("creating snapshot table")
	case errors.As(err, &inUse):
		s.logger.Info("snapshot table is already being created")
	default:
		return fmt.Errorf("create table %s: %w", s.table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}, s.waitTimeout); err != nil {
		return fmt.Errorf("wait for table %s: %w", s.table, err)
	}
	s.logger.Info("snapshot table created")
	return nil
}

// EnsureReady creates the table when it does not exist. It reports whether
// the table was created by this call.
func (s *Store) EnsureReady(ctx context.Context) (bool, error) {
	err := s.Exists(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrStoreNotFound) {
		return false, err
	}
	if err := s.Create(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Put records snap, overwriting any earlier snapshot for the same service.
func (s *Store) Put(ctx context.Context, snap Snapshot) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("dynamodb client is nil")
	}
	if snap.Service == "" {
		return fmt.Errorf("snapshot service name is required")
	}
	av, err := attributevalue.MarshalMap(item{
		Service:      snap.Service,
		ServiceARN:   snap.ServiceARN,
		DesiredCount: strconv.FormatInt(int64(snap.DesiredCount), 10),
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", snap.Service, err)
	}
	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return s.wrap("put snapshot for "+snap.Service, err)
	}
	return nil
}

// Get returns the recorded desired count for the service short name.
func (s *Store) Get(ctx context.Context, service string) (int32, error) {
	if s == nil || s.api == nil {
		return 0, fmt.Errorf("dynamodb client is nil")
	}
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			keyAttribute: &types.AttributeValueMemberS{Value: service},
		},
		ProjectionExpression:     aws.String("#count"),
		ExpressionAttributeNames: map[string]string{"#count": countAttribute},
		ConsistentRead:           aws.Bool(true),
	})
	if err != nil {
		return 0, s.wrap("get snapshot for "+service, err)
	}
	if len(out.Item) == 0 {
		return 0, fmt.Errorf("%w: %s in table %s", ErrSnapshotNotFound, service, s.table)
	}

	var record item
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return 0, fmt.Errorf("unmarshal snapshot for %s: %w", service, err)
	}
	if record.DesiredCount == "" {
		return 0, fmt.Errorf("%w: %s has no %s", ErrSnapshotNotFound, service, countAttribute)
	}
	count, err := strconv.ParseInt(record.DesiredCount, 10, 32)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("invalid %s %q for %s", countAttribute, record.DesiredCount, service)
	}
	return int32(count), nil
}

func (s *Store) wrap(op string, err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%s: table %s: %w: %w", op, s.table, ErrStoreNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
