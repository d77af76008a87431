/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/errors"
)

// Client is the subset of the DynamoDB API used by the store.
// *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
}

const (
	partitionPrefix = "STORE#"
	metaPrefix      = "META#"
	recordPrefix    = "REC#"
	metaSortKey     = "META"

	attrPK         = "PK"
	attrSK         = "SK"
	attrEntityType = "EntityType"
	attrKeys       = "Keys"
	attrData       = "Data"
	attrRev        = "Rev"
	attrVersion    = "Version"
)

// Store implements datastore.RecordStore on a single DynamoDB table.
//
// Every record of the store lives in partition STORE#<name> with sort key
// REC#<hex(pk)>. Secondary index i is the GSI configured for it, keyed by
// PK<i>=STORE#<name> and SK<i>=<hex(key)>#<hex(pk)>. Hex encoding keeps
// DynamoDB's string order identical to byte order. A META#<name> item
// holds the modification counter used as freshness marker.
type Store struct {
	client    Client
	tableName string
	name      string
	indexes   int
	gsis      []GSIConfig

	pageSize     int32
	maxRetries   int
	retryBackoff time.Duration
	logger       *slog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithGSIConfigs overrides the GSIs backing secondary indices 1..n, in order.
func WithGSIConfigs(cfgs ...GSIConfig) Option {
	return func(s *Store) { s.gsis = cfgs }
}

// WithPageSize sets the Query page size used by cursors.
func WithPageSize(n int32) Option {
	return func(s *Store) { s.pageSize = n }
}

// WithRetry configures retries of throttled or failed queries.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(s *Store) {
		s.maxRetries = maxRetries
		s.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a record store named name with the given number of
// ordered indices on table tableName.
func New(client Client, tableName, name string, indexes int, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.NewArgumentError("client", "is nil")
	}
	if tableName == "" {
		return nil, errors.NewArgumentError("tableName", "is empty")
	}
	if name == "" {
		return nil, errors.NewArgumentError("name", "is empty")
	}
	if indexes < 1 {
		indexes = 1
	}
	s := &Store{
		client:       client,
		tableName:    tableName,
		name:         name,
		indexes:      indexes,
		pageSize:     100,
		maxRetries:   3,
		retryBackoff: 100 * time.Millisecond,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for i := 1; i < indexes; i++ {
		s.gsis = append(s.gsis, gsiFor(i))
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.gsis) < indexes-1 {
		return nil, errors.NewArgumentError("gsis", fmt.Sprintf("%d secondary indices need %d GSI configs, got %d", indexes-1, indexes-1, len(s.gsis)))
	}
	return s, nil
}

// NewDynamoDBClient initializes a DynamoDB client using AWS credentials.
// Empty keys fall back to the default credential chain.
func NewDynamoDBClient(ctx context.Context, awsAccessKey, awsSecretKey, awsRegion string) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(awsRegion)}
	if awsAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsAccessKey, awsSecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return sdk.NewFromConfig(cfg), nil
}

// NewFromCredentials builds the DynamoDB client and the store in one step.
func NewFromCredentials(ctx context.Context, awsAccessKey, awsSecretKey, awsRegion, tableName, name string, indexes int, opts ...Option) (*Store, error) {
	client, err := NewDynamoDBClient(ctx, awsAccessKey, awsSecretKey, awsRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	s, err := New(client, tableName, name, indexes, opts...)
	if err != nil {
		return nil, err
	}
	s.logger.Info("dynamodb record store initialized", "table", tableName, "store", name, "region", awsRegion)
	return s, nil
}

// Name returns the store name
func (s *Store) Name() string { return s.name }

// Indexes returns the number of ordered indices
func (s *Store) Indexes() int { return s.indexes }

// Open acquires a handle. DynamoDB has no sessions; the handle only
// tracks the cursor and the revisions of records it has read-locked.
func (s *Store) Open(ctx context.Context, mode datastore.OpenMode) (datastore.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &handle{store: s, mode: mode, locks: make(map[string]int64)}, nil
}

// Freshness returns the modification counter of the store.
func (s *Store) Freshness(ctx context.Context) (string, error) {
	out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.metaKey(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", errors.WrapStoreError(s.name, "freshness", err)
	}
	if out.Item == nil {
		return "0", nil
	}
	var meta struct {
		Version int64 `dynamodbav:"Version"`
	}
	if err := attributevalue.UnmarshalMap(out.Item, &meta); err != nil {
		return "", errors.WrapStoreError(s.name, "freshness", err)
	}
	return strconv.FormatInt(meta.Version, 10), nil
}

// bumpVersion increments the modification counter after a write.
func (s *Store) bumpVersion(ctx context.Context) error {
	one, err := attributevalue.Marshal(1)
	if err != nil {
		return err
	}
	_, err = s.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       s.metaKey(),
		UpdateExpression:          aws.String("ADD #v :one"),
		ExpressionAttributeNames:  map[string]string{"#v": attrVersion},
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": one},
	})
	if err != nil {
		return errors.WrapStoreError(s.name, "bump_version", err)
	}
	return nil
}

func (s *Store) partition() string {
	return partitionPrefix + s.name
}

func (s *Store) metaKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: metaPrefix + s.name},
		attrSK: &types.AttributeValueMemberS{Value: metaSortKey},
	}
}

func (s *Store) recordKey(pk []byte) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: s.partition()},
		attrSK: &types.AttributeValueMemberS{Value: recordPrefix + hex.EncodeToString(pk)},
	}
}

// secondarySortKey orders by key, then by primary key. '#' sorts below
// every hex digit, so a shorter key sorts before its extensions.
func secondarySortKey(key, pk []byte) string {
	return hex.EncodeToString(key) + "#" + hex.EncodeToString(pk)
}

func encodeKeys(keys [][]byte, n int) string {
	parts := make([]string, n)
	for i := 0; i < n && i < len(keys); i++ {
		parts[i] = hex.EncodeToString(keys[i])
	}
	return strings.Join(parts, ",")
}

func decodeKeys(s string) ([][]byte, error) {
	parts := strings.Split(s, ",")
	keys := make([][]byte, len(parts))
	for i, p := range parts {
		k, err := hex.DecodeString(p)
		if err != nil {
			return nil, fmt.Errorf("malformed key %d: %w", i, err)
		}
		keys[i] = k
	}
	return keys, nil
}

// encodeItem builds the table item for rec at revision rev.
func (s *Store) encodeItem(rec *datastore.Record, rev int64) map[string]types.AttributeValue {
	pk := rec.PrimaryKey()
	item := s.recordKey(pk)
	item[attrEntityType] = &types.AttributeValueMemberS{Value: s.name}
	item[attrKeys] = &types.AttributeValueMemberS{Value: encodeKeys(rec.Keys, s.indexes)}
	item[attrRev] = &types.AttributeValueMemberN{Value: strconv.FormatInt(rev, 10)}
	if len(rec.Data) > 0 {
		item[attrData] = &types.AttributeValueMemberB{Value: rec.Data}
	}
	for i := 1; i < s.indexes; i++ {
		g := s.gsis[i-1]
		item[g.PartitionKeyName] = &types.AttributeValueMemberS{Value: s.partition()}
		item[g.SortKeyName] = &types.AttributeValueMemberS{Value: secondarySortKey(rec.Key(i), pk)}
	}
	return item
}

type storedItem struct {
	Keys string `dynamodbav:"Keys"`
	Data []byte `dynamodbav:"Data"`
	Rev  int64  `dynamodbav:"Rev"`
}

// decodeItem converts a table item back into a record and its revision.
func decodeItem(item map[string]types.AttributeValue) (*datastore.Record, int64, error) {
	var si storedItem
	if err := attributevalue.UnmarshalMap(item, &si); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	keys, err := decodeKeys(si.Keys)
	if err != nil {
		return nil, 0, err
	}
	return &datastore.Record{Keys: keys, Data: si.Data}, si.Rev, nil
}

var _ datastore.RecordStore = (*Store)(nil)
