/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import "fmt"

// GSIConfig holds the configuration for GSI key mappings
type GSIConfig struct {
	// IndexName is the actual GSI name in DynamoDB (e.g., "GSI1")
	IndexName string
	// PartitionKeyName is the actual partition key attribute name in the GSI (e.g., "PK1")
	PartitionKeyName string
	// SortKeyName is the actual sort key attribute name in the GSI (e.g., "SK1")
	SortKeyName string
}

// DefaultGSIConfigs holds the default GSI configurations
var DefaultGSIConfigs = map[string]GSIConfig{
	"GSI1": {
		IndexName:        "GSI1",
		PartitionKeyName: "PK1",
		SortKeyName:      "SK1",
	},
	"GSI2": {
		IndexName:        "GSI2",
		PartitionKeyName: "PK2",
		SortKeyName:      "SK2",
	},
}

// GetGSIConfig returns the GSI configuration for a given index name
func GetGSIConfig(indexName string) (GSIConfig, bool) {
	config, ok := DefaultGSIConfigs[indexName]
	return config, ok
}

// gsiFor returns the GSI backing secondary index i (i >= 1). Unknown
// indices follow the GSI<i>/PK<i>/SK<i> naming convention.
func gsiFor(i int) GSIConfig {
	name := fmt.Sprintf("GSI%d", i)
	if cfg, ok := GetGSIConfig(name); ok {
		return cfg
	}
	return GSIConfig{
		IndexName:        name,
		PartitionKeyName: fmt.Sprintf("PK%d", i),
		SortKeyName:      fmt.Sprintf("SK%d", i),
	}
}
