package stubapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/getmockd/stubrouter/pkg/stub"
)

// maxPayloadSize bounds the body of a save request.
const maxPayloadSize = 1 << 20

// payloadSchema describes a normalized save payload. Form values arrive as
// strings and are converted before validation.
const payloadSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["code"],
	"properties": {
		"path": {"type": "string"},
		"code": {"type": "integer", "minimum": 100, "maximum": 599},
		"headers": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		},
		"data": {"type": "string"},
		"timeout": {"type": "integer", "minimum": 0, "maximum": 2147483647}
	}
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("stub.json", strings.NewReader(payloadSchema)); err != nil {
			schemaErr = fmt.Errorf("add stub schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("stub.json")
	})
	return schema, schemaErr
}

// PayloadError describes why a save payload was rejected.
type PayloadError struct {
	Fields []string
	Err    error
}

func (e *PayloadError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid stub payload: " + e.Err.Error()
	}
	return "invalid stub payload: " + strings.Join(e.Fields, "; ")
}

func (e *PayloadError) Unwrap() error { return e.Err }

// DecodePayload reads a save request body into a stub.
//
// code and timeout may be JSON numbers or decimal strings, headers a JSON
// object or JSON text. An empty code is rejected, an empty timeout is 0
// and empty headers are {}.
func DecodePayload(r io.Reader) (stub.Stub, error) {
	var doc map[string]any
	if err := json.NewDecoder(io.LimitReader(r, maxPayloadSize)).Decode(&doc); err != nil {
		return stub.Stub{}, &PayloadError{Err: err}
	}
	if doc == nil {
		return stub.Stub{}, &PayloadError{Err: errors.New("body must be a JSON object")}
	}
	normalize(doc)

	sch, err := compiledSchema()
	if err != nil {
		return stub.Stub{}, err
	}
	if err := sch.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return stub.Stub{}, &PayloadError{Fields: schemaMessages(ve, nil), Err: err}
		}
		return stub.Stub{}, &PayloadError{Err: err}
	}

	st := stub.Stub{
		Code:    int(doc["code"].(float64)),
		Headers: map[string]string{},
	}
	if h, ok := doc["headers"].(map[string]any); ok {
		for k, v := range h {
			st.Headers[k] = v.(string)
		}
	}
	if d, ok := doc["data"].(string); ok {
		st.Data = d
	}
	if t, ok := doc["timeout"].(float64); ok {
		st.Timeout = int(t)
	}
	return st, nil
}

// normalize converts form-style string values in place. Values that do not
// parse are left alone for the schema to report.
func normalize(doc map[string]any) {
	for _, key := range []string{"code", "timeout"} {
		s, ok := doc[key].(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			delete(doc, key)
			continue
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
			doc[key] = n
		}
	}

	switch h := doc["headers"].(type) {
	case nil:
		delete(doc, "headers")
	case string:
		h = strings.TrimSpace(h)
		if h == "" {
			delete(doc, "headers")
			return
		}
		var v any
		if err := json.Unmarshal([]byte(h), &v); err == nil {
			doc["headers"] = v
		}
	}
}

func schemaMessages(err *jsonschema.ValidationError, out []string) []string {
	if len(err.Causes) == 0 {
		field := strings.TrimPrefix(err.InstanceLocation, "/")
		if field == "" {
			return append(out, err.Message)
		}
		return append(out, field+": "+err.Message)
	}
	for _, cause := range err.Causes {
		out = schemaMessages(cause, out)
	}
	return out
}
