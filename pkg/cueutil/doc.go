// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates decoded configuration values against embedded
// CUE schemas.
//
// Configuration arrives as TOML and is decoded to plain Go maps first. The
// maps are then encoded into CUE, unified with a schema definition, validated
// and decoded into a typed result:
//
//  1. Compile the embedded schema
//  2. Encode the value and unify it with the schema definition
//  3. Validate and decode to a Go value
//
// # Usage
//
//	//go:embed config_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.DecodeValue[project](
//	    schemaBytes,
//	    table,
//	    "#Project",
//	    cueutil.WithFilename("pyproject.toml [project]"),
//	)
//	if err != nil {
//	    return nil, err // *ValidationError carrying CUE paths
//	}
//	return result.Value, nil
package cueutil
