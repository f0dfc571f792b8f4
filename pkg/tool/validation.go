package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// Issue is one field-level validation finding.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	path := i.Path
	if path == "" {
		path = "arguments"
	}
	return path + ": " + i.Message
}

// ValidationError carries the ordered, non-empty list of findings for one argument bundle.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.String())
	}
	return strings.Join(parts, "; ")
}

// Validate checks raw against schema and returns the normalized arguments: defaults
// substituted, integers widened to float64, nested objects copied. Validation stops
// at the first violation met in declaration order; no coercion is attempted.
func Validate(schema *Schema, raw any) (Arguments, error) {
	if schema == nil {
		schema = &Schema{Type: TypeObject}
	}
	if raw == nil && schema.Type == TypeObject {
		raw = map[string]any{}
	}
	v, issue := validateValue(schema, raw, "")
	if issue != nil {
		return Arguments{}, &ValidationError{Issues: []Issue{*issue}}
	}
	m, _ := v.(map[string]any)
	return Arguments{values: m}, nil
}

func validateValue(s *Schema, v any, path string) (any, *Issue) {
	switch s.Type {
	case TypeObject:
		return validateObject(s, v, path)
	case TypeArray:
		return validateArray(s, v, path)
	case TypeString:
		return validateString(s, v, path)
	case TypeNumber, TypeInteger:
		return validateNumber(s, v, path)
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return nil, mismatch(path, "boolean", v)
		}
		return v, nil
	case "":
		return v, nil
	default:
		return nil, &Issue{Path: path, Message: fmt.Sprintf("unsupported schema type %q", s.Type)}
	}
}

func validateObject(s *Schema, v any, path string) (any, *Issue) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, mismatch(path, "object", v)
	}
	out := make(map[string]any, len(obj))
	for _, p := range s.Properties {
		child, present := obj[p.Name]
		if !present {
			if s.IsRequired(p.Name) {
				return nil, &Issue{Path: joinPath(path, p.Name), Message: "is required"}
			}
			if p.Schema != nil && p.Schema.Default != nil {
				out[p.Name] = cloneValue(p.Schema.Default)
			}
			continue
		}
		if p.Schema == nil {
			out[p.Name] = child
			continue
		}
		nv, issue := validateValue(p.Schema, child, joinPath(path, p.Name))
		if issue != nil {
			return nil, issue
		}
		out[p.Name] = nv
	}
	// Required names without a declared property still have to be present.
	for _, name := range s.Required {
		if _, declared := s.Property(name); declared {
			continue
		}
		if _, present := obj[name]; !present {
			return nil, &Issue{Path: joinPath(path, name), Message: "is required"}
		}
	}
	extra := make([]string, 0)
	for k := range obj {
		if _, declared := s.Property(k); !declared {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		if s.AdditionalProperties != nil && !*s.AdditionalProperties {
			return nil, &Issue{Path: joinPath(path, k), Message: "is not a permitted field"}
		}
		out[k] = obj[k]
	}
	return out, nil
}

func validateArray(s *Schema, v any, path string) (any, *Issue) {
	arr, ok := asSlice(v)
	if !ok {
		return nil, mismatch(path, "array", v)
	}
	if s.MinItems != nil && len(arr) < *s.MinItems {
		return nil, &Issue{Path: path, Message: fmt.Sprintf("must contain at least %d item(s), got %d", *s.MinItems, len(arr))}
	}
	if s.MaxItems != nil && len(arr) > *s.MaxItems {
		return nil, &Issue{Path: path, Message: fmt.Sprintf("must contain at most %d item(s), got %d", *s.MaxItems, len(arr))}
	}
	out := make([]any, 0, len(arr))
	seen := make(map[string]int, len(arr))
	for i, item := range arr {
		ip := indexPath(path, i)
		nv := item
		if s.Items != nil {
			var issue *Issue
			nv, issue = validateValue(s.Items, item, ip)
			if issue != nil {
				return nil, issue
			}
		}
		if s.UniqueItems {
			key, err := json.Marshal(nv)
			if err == nil {
				if first, dup := seen[string(key)]; dup {
					return nil, &Issue{Path: ip, Message: fmt.Sprintf("duplicates item %d", first)}
				}
				seen[string(key)] = i
			}
		}
		out = append(out, nv)
	}
	return out, nil
}

func validateString(s *Schema, v any, path string) (any, *Issue) {
	str, ok := v.(string)
	if !ok {
		return nil, mismatch(path, "string", v)
	}
	if len(s.Enum) > 0 && !slices.Contains(s.Enum, str) {
		return nil, &Issue{Path: path, Message: fmt.Sprintf("must be one of [%s], got %q", strings.Join(s.Enum, ", "), str)}
	}
	n := utf8.RuneCountInString(str)
	if s.MinLength != nil && n < *s.MinLength {
		return nil, &Issue{Path: path, Message: fmt.Sprintf("must be at least %d character(s) long", *s.MinLength)}
	}
	if s.MaxLength != nil && n > *s.MaxLength {
		return nil, &Issue{Path: path, Message: fmt.Sprintf("must be at most %d character(s) long", *s.MaxLength)}
	}
	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, &Issue{Path: path, Message: fmt.Sprintf("invalid pattern %q: %v", s.Pattern, err)}
		}
		if !re.MatchString(str) {
			return nil, &Issue{Path: path, Message: fmt.Sprintf("must match pattern %q", s.Pattern)}
		}
	}
	return str, nil
}

func validateNumber(s *Schema, v any, path string) (any, *Issue) {
	f, ok := toFloat64(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, mismatch(path, string(s.Type), v)
	}
	if s.Type == TypeInteger && math.Trunc(f) != f {
		return nil, &Issue{Path: path, Message: fmt.Sprintf("must be an integer, got %v", f)}
	}
	if s.Minimum != nil && f < *s.Minimum {
		return nil, &Issue{Path: path, Message: fmt.Sprintf("must be >= %v, got %v", *s.Minimum, f)}
	}
	if s.Maximum != nil && f > *s.Maximum {
		return nil, &Issue{Path: path, Message: fmt.Sprintf("must be <= %v, got %v", *s.Maximum, f)}
	}
	if s.MultipleOf != nil && *s.MultipleOf > 0 {
		q := f / *s.MultipleOf
		if math.Abs(q-math.Round(q)) > 1e-9 {
			return nil, &Issue{Path: path, Message: fmt.Sprintf("must be a multiple of %v", *s.MultipleOf)}
		}
	}
	return f, nil
}

func mismatch(path, want string, got any) *Issue {
	return &Issue{Path: path, Message: fmt.Sprintf("expected %s, got %s", want, kindOf(got))}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return "number"
	case map[string]any:
		return "object"
	case []any, []string, []map[string]any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// toFloat64 accepts Go numeric types and json.Number. Strings are never numbers here.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// asSlice accepts decoded JSON arrays plus the typed slices in-process callers tend to build.
func asSlice(v any) ([]any, bool) {
	switch a := v.(type) {
	case []any:
		return a, true
	case []string:
		out := make([]any, len(a))
		for i, s := range a {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(a))
		for i, m := range a {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = cloneValue(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneValue(x)
		}
		return out
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

func indexPath(base string, idx int) string {
	return base + "[" + strconv.Itoa(idx) + "]"
}

// CompileJSONSchema compiles the JSON Schema rendering of s and returns an error only
// if the rendered document is not a valid schema. It does not validate instance data.
func CompileJSONSchema(s *Schema) error {
	_, err := compile(s)
	return err
}

// JSONSchemaValidator validates data against the JSON Schema rendering of s using a
// full draft 2020-12 implementation. It is the reference the tree walker is checked against.
func JSONSchemaValidator(s *Schema, data any) error {
	sch, err := compile(s)
	if err != nil || sch == nil {
		return err
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return err
	}
	return sch.Validate(v)
}

func compile(s *Schema) (*jsonschema.Schema, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s.JSONSchema())
	if err != nil {
		return nil, err
	}
	// anonymous in-memory schema from parsed JSON
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("mem://schema.json", doc); err != nil {
		return nil, err
	}
	return c.Compile("mem://schema.json")
}
