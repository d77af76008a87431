/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/recordengine/datastore"
	recerrors "github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/storagemodels"
)

// handle locks optimistically: ReadLock remembers the revision it saw and
// Rewrite/Delete are conditional on that revision being unchanged.
type handle struct {
	store  *Store
	mode   datastore.OpenMode
	cur    *cursor
	locks  map[string]int64
	closed bool
}

func (h *handle) check(op string, write bool) error {
	if h.closed {
		return recerrors.WrapStoreError(h.store.name, op, fmt.Errorf("handle closed"))
	}
	if write && h.mode != datastore.ReadWrite {
		return recerrors.WrapStoreError(h.store.name, op, recerrors.ErrReadOnly)
	}
	return nil
}

func (h *handle) Start(ctx context.Context, index int, from *storagemodels.Position, mode datastore.PositionMode) (bool, error) {
	if err := h.check("start", false); err != nil {
		return false, err
	}
	if index < 0 || index >= h.store.indexes {
		return false, recerrors.NewArgumentError("index", fmt.Sprintf("store %s has no index %d", h.store.name, index))
	}
	if mode != datastore.First && from == nil {
		return false, recerrors.NewArgumentError("from", "position required")
	}

	cond := h.store.conditionFor(index, from, mode)
	h.cur = &cursor{input: cond.queryInput(h.store.tableName, h.store.pageSize)}
	for {
		if err := h.cur.fetch(ctx, h.store); err != nil {
			return false, recerrors.WrapStoreError(h.store.name, "start", err)
		}
		if len(h.cur.items) > 0 {
			return true, nil
		}
		if h.cur.exhausted() {
			return false, nil
		}
	}
}

func (h *handle) ReadNext(ctx context.Context) (*datastore.Record, error) {
	if err := h.check("read_next", false); err != nil {
		return nil, err
	}
	if h.cur == nil {
		return nil, recerrors.WrapStoreError(h.store.name, "read_next", fmt.Errorf("cursor not started"))
	}
	for len(h.cur.items) == 0 {
		if h.cur.exhausted() {
			return nil, nil
		}
		if err := h.cur.fetch(ctx, h.store); err != nil {
			return nil, recerrors.WrapStoreError(h.store.name, "read_next", err)
		}
	}
	item := h.cur.items[0]
	h.cur.items = h.cur.items[1:]
	rec, _, err := decodeItem(item)
	if err != nil {
		return nil, recerrors.WrapStoreError(h.store.name, "read_next", err)
	}
	return rec, nil
}

// get performs a strongly consistent point read.
func (h *handle) get(ctx context.Context, op string, key *datastore.Record) (*datastore.Record, int64, error) {
	out, err := h.store.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      aws.String(h.store.tableName),
		Key:            h.store.recordKey(key.PrimaryKey()),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, 0, recerrors.WrapStoreError(h.store.name, op, err)
	}
	if out.Item == nil {
		return nil, 0, nil
	}
	rec, rev, err := decodeItem(out.Item)
	if err != nil {
		return nil, 0, recerrors.WrapStoreError(h.store.name, op, err)
	}
	return rec, rev, nil
}

func (h *handle) Read(ctx context.Context, key *datastore.Record) (*datastore.Record, error) {
	if err := h.check("read", false); err != nil {
		return nil, err
	}
	rec, _, err := h.get(ctx, "read", key)
	return rec, err
}

func (h *handle) ReadLock(ctx context.Context, key *datastore.Record) (*datastore.Record, error) {
	if err := h.check("read_lock", true); err != nil {
		return nil, err
	}
	rec, rev, err := h.get(ctx, "read_lock", key)
	if err != nil || rec == nil {
		return nil, err
	}
	h.locks[string(rec.PrimaryKey())] = rev
	return rec, nil
}

func (h *handle) Write(ctx context.Context, rec *datastore.Record) error {
	if err := h.check("write", true); err != nil {
		return err
	}
	pk := rec.PrimaryKey()
	if len(pk) == 0 {
		return recerrors.NewArgumentError("record", "primary key is empty")
	}
	_, err := h.store.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                aws.String(h.store.tableName),
		Item:                     h.store.encodeItem(rec, 1),
		ConditionExpression:      aws.String("attribute_not_exists(#sk)"),
		ExpressionAttributeNames: map[string]string{"#sk": attrSK},
	})
	if err != nil {
		if isConditionFailed(err) {
			return recerrors.NewAlreadyExistsError(h.store.name, datastore.KeyString(pk))
		}
		return recerrors.WrapStoreError(h.store.name, "write", err)
	}
	return h.store.bumpVersion(ctx)
}

func (h *handle) lockedRevision(op string, rec *datastore.Record) (int64, error) {
	rev, ok := h.locks[string(rec.PrimaryKey())]
	if !ok {
		return 0, recerrors.WrapStoreError(h.store.name, op, fmt.Errorf("record %q is not locked by this handle", rec.KeyString()))
	}
	return rev, nil
}

func revisionCondition(rev int64) (*string, map[string]string, map[string]types.AttributeValue) {
	return aws.String("#rev = :rev"),
		map[string]string{"#rev": attrRev},
		map[string]types.AttributeValue{":rev": &types.AttributeValueMemberN{Value: fmt.Sprint(rev)}}
}

func (h *handle) Rewrite(ctx context.Context, rec *datastore.Record) error {
	if err := h.check("rewrite", true); err != nil {
		return err
	}
	rev, err := h.lockedRevision("rewrite", rec)
	if err != nil {
		return err
	}
	cond, names, values := revisionCondition(rev)
	_, err = h.store.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:                 aws.String(h.store.tableName),
		Item:                      h.store.encodeItem(rec, rev+1),
		ConditionExpression:       cond,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	delete(h.locks, string(rec.PrimaryKey()))
	if err != nil {
		if isConditionFailed(err) {
			return recerrors.NewConcurrencyError("update", rec.KeyString(), "changed concurrently")
		}
		return recerrors.WrapStoreError(h.store.name, "rewrite", err)
	}
	return h.store.bumpVersion(ctx)
}

func (h *handle) Delete(ctx context.Context, rec *datastore.Record) error {
	if err := h.check("delete", true); err != nil {
		return err
	}
	rev, err := h.lockedRevision("delete", rec)
	if err != nil {
		return err
	}
	cond, names, values := revisionCondition(rev)
	_, err = h.store.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:                 aws.String(h.store.tableName),
		Key:                       h.store.recordKey(rec.PrimaryKey()),
		ConditionExpression:       cond,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	delete(h.locks, string(rec.PrimaryKey()))
	if err != nil {
		if isConditionFailed(err) {
			return recerrors.NewConcurrencyError("delete", rec.KeyString(), "changed concurrently")
		}
		return recerrors.WrapStoreError(h.store.name, "delete", err)
	}
	return h.store.bumpVersion(ctx)
}

func (h *handle) NewRecord() *datastore.Record {
	return datastore.NewRecord(h.store.indexes)
}

func (h *handle) Close() error {
	h.closed = true
	h.cur = nil
	clear(h.locks)
	return nil
}

func isConditionFailed(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	return errors.As(err, &cfe)
}
