package util

import (
	"fmt"
	"strings"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// FieldSpec declares one builtin tool parameter.
type FieldSpec struct {
	Name       string
	Required   bool
	AllowEmpty bool // literal-block fields may carry empty payloads
	Default    string
	Aliases    []string
	Normalize  func(string) string
}

// KVSchema declares the accepted key/value parameters of a builtin tool.
type KVSchema struct {
	Tool         string
	Fields       []FieldSpec
	AllowUnknown bool
}

// Validate folds aliases onto canonical names, rejects unknown fields (unless
// allowed), applies defaults and normalizers, and enforces required fields.
// The input map is not mutated.
func (s KVSchema) Validate(raw map[string]string) (map[string]string, error) {
	fields := make(map[string]*FieldSpec, len(s.Fields))
	aliases := make(map[string]string)
	for i := range s.Fields {
		f := &s.Fields[i]
		fields[f.Name] = f
		for _, a := range f.Aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if a != "" {
				aliases[a] = f.Name
			}
		}
	}

	args := make(map[string]string, len(raw))
	for key, value := range raw {
		name := strings.ToLower(strings.TrimSpace(key))
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}

		spec, known := fields[name]
		if !known {
			if s.AllowUnknown {
				continue
			}
			return nil, &ValidationError{Field: name, Value: value, Message: "unknown field"}
		}

		if strings.TrimSpace(value) == "" && !spec.AllowEmpty {
			return nil, &ValidationError{Field: spec.Name, Message: "field must not be empty"}
		}

		if spec.Normalize != nil {
			value = spec.Normalize(value)
		}

		args[spec.Name] = value
	}

	for _, f := range s.Fields {
		if _, ok := args[f.Name]; !ok && f.Default != "" {
			args[f.Name] = f.Default
		}
	}

	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		if _, ok := args[f.Name]; !ok {
			return nil, &ValidationError{Field: f.Name, Message: "required field is missing"}
		}
	}

	return args, nil
}
