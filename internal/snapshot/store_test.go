// Where: internal/snapshot/store_test.go
// What: Tests for the DynamoDB snapshot store.
// Why: Ensure lazy creation, overwrite semantics, and error mapping behave as expected.
package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/poruru/ecs-scheduled-scaling/internal/config"
	"github.com/poruru/ecs-scheduled-scaling/internal/logging"
)

type fakeDynamo struct {
	exists      bool
	created     []dynamodb.CreateTableInput
	createErr   error
	describeErr error
	items       map[string]map[string]types.AttributeValue
	gets        []dynamodb.GetItemInput
}

func newFakeDynamo(exists bool) *fakeDynamo {
	return &fakeDynamo{exists: exists, items: map[string]map[string]types.AttributeValue{}}
}

func (f *fakeDynamo) DescribeTable(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	if !f.exists {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   params.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeDynamo) CreateTable(_ context.Context, params *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.created = append(f.created, *params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.exists = true
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if !f.exists {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	key := params.Item["service"].(*types.AttributeValueMemberS).Value
	f.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.gets = append(f.gets, *params)
	if !f.exists {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	key := params.Key["service"].(*types.AttributeValueMemberS).Value
	stored, ok := f.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"desiredCount": stored["desiredCount"],
	}}, nil
}

func newTestStore(api DynamoDBAPI) *Store {
	cfg := config.Default()
	cfg.Cluster = "prod"
	cfg.TableWaitTimeout = time.Second
	return New(api, cfg, logging.Discard())
}

func TestExistsMapsResourceNotFound(t *testing.T) {
	store := newTestStore(newFakeDynamo(false))

	err := store.Exists(context.Background())
	if !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		t.Fatalf("expected original SDK error to stay reachable, got %v", err)
	}
}

func TestExistsKeepsOtherErrorsDistinct(t *testing.T) {
	api := newFakeDynamo(true)
	api.describeErr = errors.New("AccessDeniedException")
	store := newTestStore(api)

	err := store.Exists(context.Background())
	if err == nil || errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected a non-not-found error, got %v", err)
	}
}

func TestEnsureReadyCreatesMissingTable(t *testing.T) {
	api := newFakeDynamo(false)
	store := newTestStore(api)

	created, err := store.EnsureReady(context.Background())
	if err != nil {
		t.Fatalf("ensure ready: %v", err)
	}
	if !created {
		t.Fatalf("expected table to be created")
	}
	if len(api.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(api.created))
	}

	input := api.created[0]
	if aws.ToString(input.TableName) != config.DefaultTableName {
		t.Fatalf("unexpected table name: %s", aws.ToString(input.TableName))
	}
	if input.BillingMode != types.BillingModePayPerRequest {
		t.Fatalf("unexpected billing mode: %s", input.BillingMode)
	}
	if len(input.KeySchema) != 1 || aws.ToString(input.KeySchema[0].AttributeName) != "service" ||
		input.KeySchema[0].KeyType != types.KeyTypeHash {
		t.Fatalf("unexpected key schema: %+v", input.KeySchema)
	}
	if len(input.AttributeDefinitions) != 1 || input.AttributeDefinitions[0].AttributeType != types.ScalarAttributeTypeS {
		t.Fatalf("unexpected attribute definitions: %+v", input.AttributeDefinitions)
	}
}

func TestEnsureReadyIsNoopOnExistingTable(t *testing.T) {
	api := newFakeDynamo(true)
	store := newTestStore(api)

	created, err := store.EnsureReady(context.Background())
	if err != nil {
		t.Fatalf("ensure ready: %v", err)
	}
	if created || len(api.created) != 0 {
		t.Fatalf("expected no table creation")
	}
}

func TestCreateWaitsWhenTableAlreadyBeingCreated(t *testing.T) {
	api := newFakeDynamo(true)
	api.createErr = &types.ResourceInUseException{Message: aws.String("Table already exists")}
	store := newTestStore(api)

	if err := store.Create(context.Background()); err != nil {
		t.Fatalf("expected in-use table to be waited on, got %v", err)
	}
}

func TestCreatePropagatesOtherErrors(t *testing.T) {
	api := newFakeDynamo(false)
	api.createErr = errors.New("LimitExceededException")
	store := newTestStore(api)

	if err := store.Create(context.Background()); err == nil {
		t.Fatalf("expected create error")
	}
}

func TestPutOverwritesAndGetReadsBack(t *testing.T) {
	api := newFakeDynamo(true)
	store := newTestStore(api)
	ctx := context.Background()

	if err := store.Put(ctx, Snapshot{Service: "web", ServiceARN: "arn:svc/prod/web", DesiredCount: 3}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, Snapshot{Service: "web", ServiceARN: "arn:svc/prod/web", DesiredCount: 7}); err != nil {
		t.Fatalf("put: %v", err)
	}

	stored := api.items["web"]
	if got := stored["desiredCount"].(*types.AttributeValueMemberS).Value; got != "7" {
		t.Fatalf("expected count stored as string 7, got %q", got)
	}
	if got := stored["serviceArn"].(*types.AttributeValueMemberS).Value; got != "arn:svc/prod/web" {
		t.Fatalf("unexpected serviceArn: %q", got)
	}

	count, err := store.Get(ctx, "web")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if count != 7 {
		t.Fatalf("expected latest snapshot, got %d", count)
	}
	if !aws.ToBool(api.gets[0].ConsistentRead) {
		t.Fatalf("expected consistent read")
	}
}

func TestGetMissingSnapshot(t *testing.T) {
	store := newTestStore(newFakeDynamo(true))

	_, err := store.Get(context.Background(), "ghost")
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	if errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("missing snapshot must not look like a missing table")
	}
}

func TestGetMissingTable(t *testing.T) {
	store := newTestStore(newFakeDynamo(false))

	_, err := store.Get(context.Background(), "web")
	if !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestGetRejectsCorruptCount(t *testing.T) {
	api := newFakeDynamo(true)
	api.items["web"] = map[string]types.AttributeValue{
		"service":      &types.AttributeValueMemberS{Value: "web"},
		"desiredCount": &types.AttributeValueMemberS{Value: "three"},
	}
	store := newTestStore(api)

	if _, err := store.Get(context.Background(), "web"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestPutRequiresServiceName(t *testing.T) {
	store := newTestStore(newFakeDynamo(true))

	if err := store.Put(context.Background(), Snapshot{DesiredCount: 1}); err == nil {
		t.Fatalf("expected error for empty service name")
	}
}
