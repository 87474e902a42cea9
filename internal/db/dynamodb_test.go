package db

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/wctweets/internal/models"
)

type fakeDynamo struct {
	batches     [][]types.WriteRequest
	unprocessed int
	writeErr    error
	items       []map[string]types.AttributeValue
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	out := &dynamodb.BatchWriteItemOutput{}
	for table, reqs := range in.RequestItems {
		f.batches = append(f.batches, reqs)
		if f.unprocessed > 0 {
			n := min(f.unprocessed, len(reqs))
			out.UnprocessedItems = map[string][]types.WriteRequest{table: reqs[:n]}
			f.unprocessed -= n
		}
	}
	return out, nil
}

func (f *fakeDynamo) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{Items: f.items}, nil
}

func (f *fakeDynamo) DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, nil
}

func (f *fakeDynamo) CreateTable(context.Context, *dynamodb.CreateTableInput, ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	return &dynamodb.CreateTableOutput{}, nil
}

func postsWithIDs(n int) []models.CleanedPost {
	posts := make([]models.CleanedPost, n)
	for i := range posts {
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		posts[i] = models.CleanedPost{PostID: models.Ptr(id), Text: models.Ptr("t"), Hashtags: []string{}}
	}
	return posts
}

func TestDynamoInsertChunksOf25(t *testing.T) {
	f := &fakeDynamo{}
	s := NewDynamoSinkWithClient(f, "worldcup_tweets")

	n, err := s.InsertMany(context.Background(), postsWithIDs(60))
	if err != nil || n != 60 {
		t.Fatalf("InsertMany = %d, %v", n, err)
	}
	if len(f.batches) != 3 || len(f.batches[0]) != 25 || len(f.batches[2]) != 10 {
		t.Fatalf("unexpected batch sizes: %d batches", len(f.batches))
	}
}

func TestDynamoInsertKeepsRepeatedPosts(t *testing.T) {
	f := &fakeDynamo{}
	s := NewDynamoSinkWithClient(f, "worldcup_tweets")
	posts := []models.CleanedPost{
		{PostID: models.Ptr("1"), Hashtags: []string{}},
		{PostID: models.Ptr("1"), Hashtags: []string{}},
		{PostID: nil, Hashtags: []string{}},
		{PostID: nil, Hashtags: []string{}},
	}

	n, err := s.InsertMany(context.Background(), posts)
	if err != nil || n != 4 {
		t.Fatalf("InsertMany = %d, %v", n, err)
	}
	if len(f.batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(f.batches))
	}
	keys := make(map[string]struct{})
	for _, req := range f.batches[0] {
		keys[req.PutRequest.Item[DYNAMO_PARTITION_KEY].(*types.AttributeValueMemberS).Value] = struct{}{}
	}
	if len(keys) != 4 {
		t.Fatalf("distinct keys = %d, want 4 so no item overwrites another", len(keys))
	}
}

func TestKeyedChunksSplitsOnRepeatedKey(t *testing.T) {
	reqs := make([]types.WriteRequest, 4)
	chunks := keyedChunks([]string{"a", "b", "a", "c"}, reqs)
	if len(chunks) != 2 || len(chunks[0]) != 2 || len(chunks[1]) != 2 {
		t.Fatalf("chunk sizes = %v", chunks)
	}
}

func TestDynamoInsertReportsUnprocessed(t *testing.T) {
	f := &fakeDynamo{unprocessed: 3}
	s := NewDynamoSinkWithClient(f, "worldcup_tweets")

	n, err := s.InsertMany(context.Background(), postsWithIDs(10))
	if err == nil {
		t.Fatal("expected error for unprocessed items")
	}
	if n != 7 {
		t.Fatalf("inserted = %d, want 7", n)
	}
}

func TestDynamoInsertError(t *testing.T) {
	f := &fakeDynamo{writeErr: errors.New("throttled")}
	s := NewDynamoSinkWithClient(f, "worldcup_tweets")

	if n, err := s.InsertMany(context.Background(), postsWithIDs(2)); err == nil || n != 0 {
		t.Fatalf("InsertMany = %d, %v", n, err)
	}
}

func TestDynamoInsertEmptySkipsBackend(t *testing.T) {
	f := &fakeDynamo{}
	s := NewDynamoSinkWithClient(f, "worldcup_tweets")
	if _, err := s.InsertMany(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(f.batches) != 0 {
		t.Fatal("empty insert should not call BatchWriteItem")
	}
}

func TestDynamoClear(t *testing.T) {
	f := &fakeDynamo{items: []map[string]types.AttributeValue{
		{DYNAMO_PARTITION_KEY: &types.AttributeValueMemberS{Value: "1"}},
		{DYNAMO_PARTITION_KEY: &types.AttributeValueMemberS{Value: "2"}},
	}}
	s := NewDynamoSinkWithClient(f, "worldcup_tweets")

	deleted, err := s.Clear(context.Background())
	if err != nil || deleted != 2 {
		t.Fatalf("Clear = %d, %v", deleted, err)
	}
	if f.batches[0][0].DeleteRequest == nil {
		t.Fatal("Clear should send delete requests")
	}
}

func TestPostToItem(t *testing.T) {
	item, err := PostToItem(models.CleanedPost{PostID: models.Ptr("42"), Hashtags: []string{"BRA"}})
	if err != nil {
		t.Fatal(err)
	}
	if k := item[DYNAMO_PARTITION_KEY].(*types.AttributeValueMemberS).Value; !strings.HasPrefix(k, "42#") {
		t.Errorf("partition key = %q, want a 42# prefix", k)
	}
	if _, ok := item[models.FIELD_TEXT].(*types.AttributeValueMemberNULL); !ok {
		t.Errorf("absent text should be stored as NULL, got %T", item[models.FIELD_TEXT])
	}

	a, b := PostKey(models.CleanedPost{}), PostKey(models.CleanedPost{})
	if a == "" || a == b {
		t.Errorf("posts without ids need distinct keys, got %q and %q", a, b)
	}
}
