package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v5"
)

const strictRetrySuffix = "\n\nIMPORTANT: your previous answer did not conform to the required JSON schema. " +
	"Respond with a single JSON object that matches the schema exactly. No prose, no markdown fences, no extra keys."

// Temperature used on the stricter retry after a schema failure.
const strictRetryTemperature = 0.1

// Run performs a structured completion and decodes it into T. The schema is
// derived from T, sent as the response format, and enforced again locally.
// A response the schema rejects gets exactly one retry with a stricter
// system prompt at low temperature; a second failure is final.
func Run[T any](ctx context.Context, c *Client, req Request) (*T, error) {
	schemaJSON, schemaDoc, err := schemaFor[T]()
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	validator, err := compileSchema(schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	if req.SchemaName == "" {
		req.SchemaName = schemaName[T]()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	system := req.System
	temperature := req.Temperature
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		attemptReq := req
		attemptReq.System = system
		content, err := c.complete(ctx, attemptReq, schemaDoc, temperature)
		if err != nil {
			return nil, err
		}

		out := new(T)
		if err := decodeValidated(content, validator, out); err != nil {
			lastErr = err
			system = req.System + strictRetrySuffix
			temperature = strictRetryTemperature
			continue
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, lastErr)
}

// schemaFor reflects T into a JSON schema, returned both as raw JSON for
// the local validator and as a decoded document for the API request.
func schemaFor[T any]() ([]byte, any, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.Reflect(new(T))
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, err
	}
	return raw, doc, nil
}

func compileSchema(raw []byte) (*jsv.Schema, error) {
	compiler := jsv.NewCompiler()
	if err := compiler.AddResource("response.json", bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile("response.json")
}

// decodeValidated checks the completion against the schema before binding
// it to the output struct, so a malformed answer never half-fills out.
func decodeValidated(content string, validator *jsv.Schema, out any) error {
	content = stripFences(content)

	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	if err := validator.Validate(doc); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return json.Unmarshal([]byte(content), out)
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func schemaName[T any]() string {
	t := reflect.TypeOf(new(T)).Elem()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return strings.ToLower(name)
	}
	return "structured_output"
}
