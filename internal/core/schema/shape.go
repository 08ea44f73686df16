package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed archive_meta.schema.json
var archiveMetaSchema []byte

const archiveMetaSchemaID = "inmemory://archive-meta"

var (
	shapeOnce   sync.Once
	shapeSchema *jsonschema.Schema
	shapeErr    error
)

func compiledShape() (*jsonschema.Schema, error) {
	shapeOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(archiveMetaSchemaID, bytes.NewReader(archiveMetaSchema)); err != nil {
			shapeErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		shapeSchema, shapeErr = compiler.Compile(archiveMetaSchemaID)
		if shapeErr != nil {
			shapeErr = fmt.Errorf("compile schema: %w", shapeErr)
		}
	})
	return shapeSchema, shapeErr
}

// checkShape runs the JSON Schema pass and reports type mismatches per field.
// It only looks at JSON types; required fields and value formats are left to
// the field descriptors.
func checkShape(doc map[string]any) (map[string]FieldError, error) {
	compiled, err := compiledShape()
	if err != nil {
		return nil, err
	}

	verr := compiled.Validate(doc)
	if verr == nil {
		return nil, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(verr, &ve) {
		return nil, fmt.Errorf("schema validation failed: %w", verr)
	}

	out := make(map[string]FieldError)
	for _, leaf := range leaves(ve) {
		field := strings.TrimPrefix(strings.TrimPrefix(leaf.InstanceLocation, "#"), "/")
		if i := strings.Index(field, "/"); i >= 0 {
			field = field[:i]
		}
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = FieldError{Field: field, Reason: ReasonWrongType, Detail: leaf.Message}
	}
	return out, nil
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InstanceLocation < out[j].InstanceLocation
	})
	return out
}
