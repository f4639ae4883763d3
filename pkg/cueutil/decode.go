// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Result holds a decoded value together with the unified CUE value it came from.
type Result[T any] struct {
	// Value is the decoded Go value.
	Value *T

	// Unified is the schema-unified CUE value.
	Unified cue.Value
}

// DecodeValue validates data against the schema definition at schemaPath and
// decodes the unified value into T.
//
// data is any Go value cuecontext can encode, typically the map produced by
// a TOML decoder. Schema violations are returned as *ValidationError.
func DecodeValue[T any](schema []byte, data any, schemaPath string, opts ...Option) (*Result[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	unified, err := unify(schema, data, schemaPath, o)
	if err != nil {
		return nil, err
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, FormatError(err, o.filename)
	}

	return &Result[T]{Value: &out, Unified: unified}, nil
}

// ValidateValue checks data against the schema definition at schemaPath
// without decoding it.
func ValidateValue(schema []byte, data any, schemaPath string, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	_, err := unify(schema, data, schemaPath, o)
	return err
}

func unify(schema []byte, data any, schemaPath string, o options) (cue.Value, error) {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	userValue := ctx.Encode(data)
	if userValue.Err() != nil {
		return cue.Value{}, FormatError(userValue.Err(), o.filename)
	}

	unified := schemaRoot.Unify(userValue)

	var validateOpts []cue.Option
	if o.concrete {
		validateOpts = append(validateOpts, cue.Concrete(true))
	}
	if err := unified.Validate(validateOpts...); err != nil {
		return cue.Value{}, FormatError(err, o.filename)
	}

	return unified, nil
}
