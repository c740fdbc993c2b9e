package httpapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ZaguanLabs/tlcache"
)

const (
	cacheRequestSchema = "cache_request.schema.json"
	batchRequestSchema = "batch_request.schema.json"
	htmlRequestSchema  = "html_request.schema.json"
)

//go:embed schemas/*.schema.json
var schemaFiles embed.FS

var (
	compileOnce     sync.Once
	compiledSchemas map[string]*jsonschema.Schema
	compileErr      error
)

func loadSchemas() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		names := []string{cacheRequestSchema, batchRequestSchema, htmlRequestSchema}
		for _, name := range names {
			raw, err := schemaFiles.ReadFile("schemas/" + name)
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
				compileErr = fmt.Errorf("add schema resource %s: %w", name, err)
				return
			}
		}

		schemas := make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			schema, err := compiler.Compile(name)
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			schemas[name] = schema
		}
		compiledSchemas = schemas
	})

	if compileErr != nil {
		return nil, compileErr
	}
	return compiledSchemas, nil
}

// decodePayload validates raw against the named schema and decodes it into
// dst. Malformed input is reported as a *tlcache.ValidationError.
func decodePayload(raw []byte, schemaName string, dst any) error {
	value, err := decodeStrictJSON(raw)
	if err != nil {
		return &tlcache.ValidationError{Message: "invalid JSON body: " + err.Error()}
	}

	schemas, err := loadSchemas()
	if err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}
	schema, ok := schemas[schemaName]
	if !ok {
		return fmt.Errorf("unknown schema %q", schemaName)
	}

	if err := schema.Validate(value); err != nil {
		return schemaValidationError(err)
	}

	// Shape was checked by the schema.
	if err := json.Unmarshal(bytes.TrimSpace(raw), dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

// schemaValidationError reduces a schema failure to its most specific cause.
func schemaValidationError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &tlcache.ValidationError{Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}

	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	field = strings.ReplaceAll(field, "/", ".")
	return &tlcache.ValidationError{Field: field, Message: ve.Message}
}
