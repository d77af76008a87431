/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// cursor walks the pages of one Query, following LastEvaluatedKey.
type cursor struct {
	input   *sdk.QueryInput
	items   []map[string]types.AttributeValue
	lastKey map[string]types.AttributeValue
	started bool
	pages   int
}

func (c *cursor) exhausted() bool {
	return c.started && c.lastKey == nil
}

// fetch loads the next page into the cursor buffer.
func (c *cursor) fetch(ctx context.Context, s *Store) error {
	if c.lastKey != nil {
		c.input.ExclusiveStartKey = c.lastKey
	}
	out, err := s.queryWithRetry(ctx, c.input)
	if err != nil {
		return err
	}
	c.started = true
	c.pages++
	c.items = out.Items
	c.lastKey = out.LastEvaluatedKey
	return nil
}

// queryWithRetry executes a query, retrying throttling and server errors
// with linear backoff.
func (s *Store) queryWithRetry(ctx context.Context, input *sdk.QueryInput) (*sdk.QueryOutput, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := s.client.Query(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}
		if attempt < s.maxRetries {
			backoff := time.Duration(attempt+1) * s.retryBackoff
			s.logger.Debug("retrying query", "store", s.name, "attempt", attempt+1, "backoff", backoff, "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return nil, fmt.Errorf("query failed after %d retries: %w", s.maxRetries, lastErr)
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	var limit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if errors.As(err, &throughput) || errors.As(err, &limit) || errors.As(err, &internal) {
		return true
	}

	var retryable interface{ RetryableError() bool }
	if errors.As(err, &retryable) {
		return retryable.RetryableError()
	}
	return false
}
