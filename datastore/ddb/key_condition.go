/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"encoding/hex"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/storagemodels"
)

// keyCondition describes a range query over one ordered index.
type keyCondition struct {
	indexName  string // empty for the base table
	pkName     string
	skName     string
	pkValue    string
	skOperator string // "", "begins_with", ">", ">="
	skValue    string
}

// conditionFor builds the key condition that positions a cursor on index.
func (s *Store) conditionFor(index int, from *storagemodels.Position, mode datastore.PositionMode) keyCondition {
	c := keyCondition{pkValue: s.partition()}
	if index == 0 {
		c.pkName, c.skName = attrPK, attrSK
		switch mode {
		case datastore.First:
			c.skOperator, c.skValue = "begins_with", recordPrefix
		case datastore.AtOrAfter:
			c.skOperator, c.skValue = ">=", recordPrefix+hex.EncodeToString(from.Key)
		case datastore.After:
			c.skOperator, c.skValue = ">", recordPrefix+hex.EncodeToString(from.Key)
		}
		return c
	}

	g := s.gsis[index-1]
	c.indexName, c.pkName, c.skName = g.IndexName, g.PartitionKeyName, g.SortKeyName
	if mode == datastore.First {
		return c
	}
	if from.Pk != nil {
		c.skValue = secondarySortKey(from.Key, from.Pk)
		c.skOperator = ">"
		if mode == datastore.AtOrAfter {
			c.skOperator = ">="
		}
		return c
	}
	// Without a primary key the position covers every record with that key:
	// "#" starts the group and "$" sorts right after it.
	if mode == datastore.AtOrAfter {
		c.skOperator, c.skValue = ">=", hex.EncodeToString(from.Key)+"#"
	} else {
		c.skOperator, c.skValue = ">", hex.EncodeToString(from.Key)+"$"
	}
	return c
}

// expression returns the key condition expression and its placeholders.
func (c keyCondition) expression() (string, map[string]string, map[string]types.AttributeValue) {
	expr := "#pk = :pk"
	names := map[string]string{"#pk": c.pkName}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: c.pkValue},
	}
	switch c.skOperator {
	case "":
	case "begins_with":
		expr += " AND begins_with(#sk, :sk)"
	default:
		expr += fmt.Sprintf(" AND #sk %s :sk", c.skOperator)
	}
	if c.skOperator != "" {
		names["#sk"] = c.skName
		values[":sk"] = &types.AttributeValueMemberS{Value: c.skValue}
	}
	return expr, names, values
}

// queryInput builds the Query request. Base table reads are strongly
// consistent; GSI reads are eventually consistent.
func (c keyCondition) queryInput(tableName string, limit int32) *sdk.QueryInput {
	expr, names, values := c.expression()
	in := &sdk.QueryInput{
		TableName:                 aws.String(tableName),
		KeyConditionExpression:    aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(true),
	}
	if limit > 0 {
		in.Limit = aws.Int32(limit)
	}
	if c.indexName != "" {
		in.IndexName = aws.String(c.indexName)
	} else {
		in.ConsistentRead = aws.Bool(true)
	}
	return in
}
