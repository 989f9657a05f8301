package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/bitop-dev/shellagent/pkg/ai"
)

const schemaURL = "mem://tool/parameters.json"

// ValidateAndCoerce checks model-supplied args against def.Parameters.
//
// Models routinely send scalars with the wrong JSON type, so a failed
// validation is retried once after coercing top-level properties toward
// their declared type:
//   - number → string ("command": 42 becomes "42")
//   - numeric string → number/integer
//   - "true"/"false" → boolean
//
// A definition without parameters, or with a schema that does not compile,
// accepts args unchanged.
func ValidateAndCoerce(def ai.ToolDefinition, args map[string]any) (map[string]any, error) {
	if len(def.Parameters) == 0 {
		return args, nil
	}
	if args == nil {
		args = map[string]any{}
	}

	schema, err := compile(def.Parameters)
	if err != nil {
		return args, nil
	}

	if err := validate(schema, args); err == nil {
		return args, nil
	}

	coerced := coerce(args, def.Parameters)
	if err := validate(schema, coerced); err != nil {
		received, _ := json.Marshal(args)
		return nil, fmt.Errorf("tool %q: invalid arguments %s: %w", def.Name, received, err)
	}
	return coerced, nil
}

func compile(raw json.RawMessage) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return c.Compile(schemaURL)
}

// validate round-trips args through JSON so the validator sees the same
// number representation it would for a raw request body.
func validate(schema *jsonschema.Schema, args map[string]any) error {
	b, err := json.Marshal(args)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return err
	}
	return schema.Validate(inst)
}

func coerce(args map[string]any, raw json.RawMessage) map[string]any {
	var decl struct {
		Properties map[string]struct {
			Type string `json:"type"`
		} `json:"properties"`
	}
	_ = json.Unmarshal(raw, &decl)

	out := make(map[string]any, len(args))
	for k, v := range args {
		if p, ok := decl.Properties[k]; ok {
			v = coerceValue(v, p.Type)
		}
		out[k] = v
	}
	return out
}

func coerceValue(v any, want string) any {
	switch want {
	case "string":
		switch n := v.(type) {
		case float64:
			return strconv.FormatFloat(n, 'f', -1, 64)
		case int:
			return strconv.Itoa(n)
		case int64:
			return strconv.FormatInt(n, 10)
		case json.Number:
			return n.String()
		case bool:
			return strconv.FormatBool(n)
		}
	case "number", "integer":
		s, ok := v.(string)
		if !ok {
			return v
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return v
		}
		if want == "integer" {
			return int64(f)
		}
		return f
	case "boolean":
		if s, ok := v.(string); ok {
			if b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(s))); err == nil {
				return b
			}
		}
	}
	return v
}
