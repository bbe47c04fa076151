package response

import (
	"bytes"
	"encoding/json"
	"fmt"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "datenollm://query-list.schema.json"

// JSONSchemaExtend lets filters be null as well as an array.
func (QueryRequest) JSONSchemaExtend(s *invopop.Schema) {
	if s.Properties == nil {
		return
	}
	if f, ok := s.Properties.Get("filters"); ok {
		s.Properties.Set("filters", &invopop.Schema{
			AnyOf: []*invopop.Schema{f, {Type: "null"}},
		})
	}
}

// Schema reflects the JSON Schema of QueryList.
func Schema() *invopop.Schema {
	r := &invopop.Reflector{
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		Anonymous:                  true,
	}
	s := r.Reflect(&QueryList{})
	s.Title = "Dateno query list"
	// An empty object is not an answer; a clarifying reply still has a question.
	s.AnyOf = []*invopop.Schema{
		{Required: []string{"question"}},
		{Required: []string{"queries"}},
	}
	return s
}

// SchemaValidator accepts output that parses as JSON and conforms to the
// QueryList schema; it returns the re-serialized payload.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles the QueryList schema.
func NewSchemaValidator() (*SchemaValidator, error) {
	data, err := json.Marshal(Schema())
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("adding schema: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return &SchemaValidator{schema: compiled}, nil
}

func (v *SchemaValidator) Validate(cleaned string) (string, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return "", &ValidationError{Kind: KindParse, Err: err}
	}
	if dec.More() {
		return "", &ValidationError{Kind: KindParse, Err: fmt.Errorf("trailing data after JSON value")}
	}
	if err := v.schema.Validate(doc); err != nil {
		return "", &ValidationError{Kind: KindSchema, Err: err}
	}

	var ql QueryList
	if err := json.Unmarshal([]byte(cleaned), &ql); err != nil {
		return "", &ValidationError{Kind: KindSchema, Err: err}
	}
	out, err := ql.Encode()
	if err != nil {
		return "", &ValidationError{Kind: KindSchema, Err: err}
	}
	return out, nil
}
