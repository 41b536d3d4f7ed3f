// Package validation rejects malformed request bodies before they reach the
// use cases. Schemas are reflected from the dto types and compiled once.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"photoshare/backend/internal/apperror"
	"photoshare/backend/internal/dto"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

var (
	// ErrEmptyBody rejects a request with no body.
	ErrEmptyBody = apperror.New(apperror.BadInput, "Request body is required")
	// ErrMalformedJSON rejects a body that is not JSON.
	ErrMalformedJSON = apperror.New(apperror.BadInput, "Malformed JSON body")
)

// Validator checks request bodies against the schemas of their dto types.
type Validator struct {
	schemas map[reflect.Type]*jschema.Schema
}

// New compiles a schema for every dto request type.
func New() (*Validator, error) {
	reflector := jsonschema.Reflector{
		DoNotReference:             true,
		Anonymous:                  true,
		RequiredFromJSONSchemaTags: true,
	}
	compiler := jschema.NewCompiler()
	compiler.AssertFormat()

	v := &Validator{schemas: make(map[reflect.Type]*jschema.Schema)}
	for _, target := range dto.All() {
		typ := reflect.TypeOf(target).Elem()
		raw, err := json.Marshal(reflector.Reflect(target))
		if err != nil {
			return nil, oops.Code("SCHEMA_REFLECT_FAILED").With("type", typ.Name()).Wrap(err)
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, oops.Code("SCHEMA_REFLECT_FAILED").With("type", typ.Name()).Wrap(err)
		}

		url := typ.Name() + ".json"
		if err := compiler.AddResource(url, doc); err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("type", typ.Name()).Wrap(err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("type", typ.Name()).Wrap(err)
		}
		v.schemas[typ] = schema
	}
	return v, nil
}

// Decode validates body against the schema registered for dst's type and
// then decodes it into dst. Every rejection is BadInput.
func (v *Validator) Decode(body []byte, dst any) error {
	typ := reflect.TypeOf(dst)
	if typ == nil || typ.Kind() != reflect.Pointer {
		return oops.Code("SCHEMA_TARGET_INVALID").Errorf("decode target must be a pointer, got %T", dst)
	}
	schema, ok := v.schemas[typ.Elem()]
	if !ok {
		return oops.Code("SCHEMA_NOT_REGISTERED").Errorf("no schema for %s", typ.Elem())
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return apperror.Wrap(apperror.BadInput, ErrMalformedJSON.Message, err)
	}

	if err := schema.Validate(doc); err != nil {
		var verr *jschema.ValidationError
		if errors.As(err, &verr) {
			return apperror.Wrap(apperror.BadInput, describe(verr), err)
		}
		return apperror.Wrap(apperror.BadInput, "Validation failed", err)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return apperror.Wrap(apperror.BadInput, ErrMalformedJSON.Message, err)
	}
	return nil
}

// describe turns the first leaf of a validation error tree into a short
// client-facing message.
func describe(verr *jschema.ValidationError) string {
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	switch k := leaf.ErrorKind.(type) {
	case *kind.Required:
		return "Missing required field: " + strings.Join(k.Missing, ", ")
	case *kind.AdditionalProperties:
		return "Unknown field: " + strings.Join(k.Properties, ", ")
	}
	if len(leaf.InstanceLocation) == 0 {
		return "Validation failed"
	}
	return fmt.Sprintf("Invalid value for field: %s", strings.Join(leaf.InstanceLocation, "."))
}
