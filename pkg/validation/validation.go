// Package validation checks documents against embedded JSON Schemas
// (Draft 7) before they reach the document store.
package validation

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemas embed.FS

const baseURL = "https://job-board.local/schemas/"

// Schema names.
const (
	Job     = "job"
	Company = "company"
)

var ErrValidation = errors.New("validation failed")

// FieldError is one failed constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error lists every failed constraint of one document.
type Error struct {
	Schema string
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		field := f.Field
		if field == "" {
			field = "(root)"
		}
		parts[i] = fmt.Sprintf("%s: %s", field, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Schema, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error {
	return ErrValidation
}

// Validator holds the compiled schemas.
type Validator struct {
	compiled map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	compiler.AssertFormat = true

	entries, err := fs.ReadDir(schemas, "schemas")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		data, err := schemas.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, err
		}
		if err := compiler.AddResource(baseURL+e.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", e.Name(), err)
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}

	v := &Validator{compiled: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		s, err := compiler.Compile(baseURL + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.compiled[name] = s
	}
	return v, nil
}

// Validate checks doc, a value in the JSON data model, against schema.
func (v *Validator) Validate(schema string, doc any) error {
	s, ok := v.compiled[schema]
	if !ok {
		return fmt.Errorf("unknown schema %q", schema)
	}

	err := s.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate %s: %w", schema, err)
	}

	fields := leaves(ve, nil)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &Error{Schema: schema, Fields: fields}
}

func leaves(ve *jsonschema.ValidationError, out []FieldError) []FieldError {
	if len(ve.Causes) == 0 {
		return append(out, FieldError{
			Field:   strings.ReplaceAll(strings.TrimPrefix(ve.InstanceLocation, "/"), "/", "."),
			Message: ve.Message,
		})
	}
	for _, c := range ve.Causes {
		out = leaves(c, out)
	}
	return out
}

// Fields returns the field errors carried by err, if any.
func Fields(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// MapHTTPStatus converts validation errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrValidation) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
