package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/spacesedan/wctweets/config"
	"github.com/spacesedan/wctweets/internal/clients"
	"github.com/spacesedan/wctweets/internal/models"
)

const (
	DYNAMO_BATCH_SIZE    = 25
	DYNAMO_PARTITION_KEY = "post_key"
	DYNAMO_TABLE_WAIT    = 2 * time.Minute
)

// DynamoAPI is the part of the DynamoDB client the sink uses.
type DynamoAPI interface {
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type DynamoSink struct {
	client DynamoAPI
	table  string
}

func NewDynamoSink(ctx context.Context, cfg config.SinkConfig) (*DynamoSink, error) {
	awsCfg, err := clients.NewAWSConfig(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	s := NewDynamoSinkWithClient(clients.NewDynamoDBClient(awsCfg, cfg.Endpoint), cfg.Collection)
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func NewDynamoSinkWithClient(client DynamoAPI, table string) *DynamoSink {
	return &DynamoSink{client: client, table: table}
}

func (s *DynamoSink) ensureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("[DynamoDB] describe table %s: %w", s.table, err)
	}

	slog.Info("[DynamoDB] Creating table", slog.String("table", s.table))
	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(DYNAMO_PARTITION_KEY), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(DYNAMO_PARTITION_KEY), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] create table %s: %w", s.table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}, DYNAMO_TABLE_WAIT); err != nil {
		return fmt.Errorf("[DynamoDB] waiting for table %s: %w", s.table, err)
	}
	return nil
}

// PostKey is the partition key for p: its id plus a fresh uuid, or just a
// uuid for posts without one. Every record gets its own item, so posts
// repeated in the input are all stored, as in the other sinks.
func PostKey(p models.CleanedPost) string {
	if p.PostID != nil && *p.PostID != "" {
		return *p.PostID + "#" + uuid.NewString()
	}
	return uuid.NewString()
}

// PostToItem marshals p and adds its partition key.
func PostToItem(p models.CleanedPost) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] marshal post: %w", err)
	}
	item[DYNAMO_PARTITION_KEY] = &types.AttributeValueMemberS{Value: PostKey(p)}
	return item, nil
}

// keyedChunks groups write requests into batches of at most
// DYNAMO_BATCH_SIZE. A key repeated inside a batch is rejected by
// BatchWriteItem, so a repeat starts a new batch.
func keyedChunks(keys []string, reqs []types.WriteRequest) [][]types.WriteRequest {
	var (
		chunks [][]types.WriteRequest
		cur    []types.WriteRequest
		seen   = make(map[string]struct{})
	)
	for i, req := range reqs {
		_, dup := seen[keys[i]]
		if len(cur) == DYNAMO_BATCH_SIZE || dup {
			chunks = append(chunks, cur)
			cur = nil
			seen = make(map[string]struct{})
		}
		cur = append(cur, req)
		seen[keys[i]] = struct{}{}
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

// writeBatches sends every chunk and returns how many requests were
// processed. Unprocessed items are reported, not retried.
func (s *DynamoSink) writeBatches(ctx context.Context, chunks [][]types.WriteRequest) (int, error) {
	done, unprocessed := 0, 0
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			slog.Warn("[DynamoDB] context canceled")
			return done, err
		}

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.table: chunk},
		})
		if err != nil {
			return done, fmt.Errorf("[DynamoDB] Failed to batch write: %w", err)
		}

		left := len(out.UnprocessedItems[s.table])
		unprocessed += left
		done += len(chunk) - left
	}

	if unprocessed > 0 {
		slog.Error("[DynamoDB] Some items were not written",
			slog.String("table", s.table),
			slog.Int("remaining_items", unprocessed))
		return done, fmt.Errorf("[DynamoDB] %d items unprocessed", unprocessed)
	}
	return done, nil
}

func (s *DynamoSink) InsertMany(ctx context.Context, posts []models.CleanedPost) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	keys := make([]string, len(posts))
	reqs := make([]types.WriteRequest, len(posts))
	for i, p := range posts {
		item, err := PostToItem(p)
		if err != nil {
			return 0, err
		}
		keys[i] = item[DYNAMO_PARTITION_KEY].(*types.AttributeValueMemberS).Value
		reqs[i] = types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}
	}
	return s.writeBatches(ctx, keyedChunks(keys, reqs))
}

func (s *DynamoSink) Clear(ctx context.Context) (int64, error) {
	var (
		keys []string
		reqs []types.WriteRequest
	)
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                aws.String(s.table),
		ProjectionExpression:     aws.String("#k"),
		ExpressionAttributeNames: map[string]string{"#k": DYNAMO_PARTITION_KEY},
	})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("[DynamoDB] Scan for keys failed: %w", err)
		}
		for _, item := range out.Items {
			k, ok := item[DYNAMO_PARTITION_KEY].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			keys = append(keys, k.Value)
			reqs = append(reqs, types.WriteRequest{DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{DYNAMO_PARTITION_KEY: k},
			}})
		}
	}

	deleted, err := s.writeBatches(ctx, keyedChunks(keys, reqs))
	if err != nil {
		return int64(deleted), err
	}
	slog.Info("[DynamoDB] Cleared table", slog.String("table", s.table), slog.Int("deleted", deleted))
	return int64(deleted), nil
}

func (s *DynamoSink) Find(ctx context.Context, fields []string) ([]models.CleanedPost, error) {
	if err := checkFields(fields); err != nil {
		return nil, err
	}

	input := &dynamodb.ScanInput{TableName: aws.String(s.table)}
	if len(fields) > 0 {
		names := make(map[string]string, len(fields))
		expr := ""
		for i, f := range fields {
			alias := "#f" + strconv.Itoa(i)
			names[alias] = f
			if i > 0 {
				expr += ", "
			}
			expr += alias
		}
		input.ProjectionExpression = aws.String(expr)
		input.ExpressionAttributeNames = names
	}

	posts := []models.CleanedPost{}
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan for posts failed: %w", err)
		}
		var page []models.CleanedPost
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			slog.Error("[DynamoDB] Unable to unmarshal current page", slog.String("error", err.Error()))
			return nil, err
		}
		posts = append(posts, page...)
	}
	for i := range posts {
		if posts[i].Hashtags == nil {
			posts[i].Hashtags = []string{}
		}
	}
	slog.Info("[DynamoDB] Successfully retrieved posts", slog.Int("count", len(posts)))
	return posts, nil
}

func (s *DynamoSink) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	return err
}

func (s *DynamoSink) Close(context.Context) error { return nil }
