package noncestore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	smithy "github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// DefaultTableName is the table NewDynamoStore uses when given an empty
// table name.
const DefaultTableName = "facilitator-nonces"

// dynamoClient is the subset of *dynamodb.Client this package calls,
// narrowed for testability.
type dynamoClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoStore is the persistent nonce-store backend. Schema: primary key
// "pk" (S) equal to the nonce key, plus "chain" (S), "created_at" (N), and
// "expires_at" (N) — the table's TTL attribute, which the backend relies on
// for eventual reclamation of stale rows (TTL deletion is best-effort and
// lags real time; the conditional write is what enforces the contract).
type DynamoStore struct {
	client dynamoClient
	table  string
	log    zerolog.Logger
}

// NewDynamoStore wraps an already-configured *dynamodb.Client.
func NewDynamoStore(client *dynamodb.Client, table string, log zerolog.Logger) *DynamoStore {
	if table == "" {
		table = DefaultTableName
	}
	return &DynamoStore{client: client, table: table, log: log}
}

// CheckAndMarkUsed performs a conditional PutItem: insert only if the key is
// absent, or present with an expires_at in the past. A conditional-check
// failure maps to AlreadyUsed; every other error is a transient write error.
func (s *DynamoStore) CheckAndMarkUsed(ctx context.Context, network, key string, ttlSeconds int64) (CheckResult, error) {
	now := time.Now().Unix()
	expiresAt := now + ttlSeconds

	cond := expression.Or(
		expression.AttributeNotExists(expression.Name("pk")),
		expression.LessThan(expression.Name("expires_at"), expression.Value(now)),
	)
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return Ok, err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			"pk":         &types.AttributeValueMemberS{Value: key},
			"chain":      &types.AttributeValueMemberS{Value: network},
			"created_at": &types.AttributeValueMemberN{Value: itoa(now)},
			"expires_at": &types.AttributeValueMemberN{Value: itoa(expiresAt)},
		},
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return AlreadyUsed, nil
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return AlreadyUsed, nil
		}
		s.log.Error().Err(err).Str("key", key).Msg("nonce store write failed")
		return Ok, err
	}
	return Ok, nil
}

func (s *DynamoStore) IsUsed(ctx context.Context, key string) (bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return false, err
	}
	if out.Item == nil {
		return false, nil
	}
	expiresAttr, ok := out.Item["expires_at"].(*types.AttributeValueMemberN)
	if !ok {
		return false, nil
	}
	expiresAt, err := parseInt64(expiresAttr.Value)
	if err != nil {
		return false, nil
	}
	return expiresAt > time.Now().Unix(), nil
}

func (s *DynamoStore) HealthCheck(ctx context.Context) error {
	_, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: "__healthcheck__"},
		},
	})
	return err
}

func (s *DynamoStore) StoreType() string {
	return "dynamodb"
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
