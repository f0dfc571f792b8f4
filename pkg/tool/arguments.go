package tool

// Arguments is the typed view over a validated argument bundle. The zero value is an
// empty bundle; non-empty values are only produced by Validate.
type Arguments struct {
	values map[string]any
}

// Has reports whether name is present after defaults were applied.
func (a Arguments) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// String returns the string value of name, or "" when absent.
func (a Arguments) String(name string) string {
	s, _ := a.values[name].(string)
	return s
}

// Float returns the numeric value of name, or 0 when absent.
func (a Arguments) Float(name string) float64 {
	f, _ := a.values[name].(float64)
	return f
}

// Int returns the numeric value of name truncated to int.
func (a Arguments) Int(name string) int {
	return int(a.Float(name))
}

// Bool returns the boolean value of name, or false when absent.
func (a Arguments) Bool(name string) bool {
	b, _ := a.values[name].(bool)
	return b
}

// Strings returns the elements of a string array.
func (a Arguments) Strings(name string) []string {
	arr, _ := a.values[name].([]any)
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Objects returns the elements of an object array, each as its own Arguments view.
func (a Arguments) Objects(name string) []Arguments {
	arr, _ := a.values[name].([]any)
	out := make([]Arguments, 0, len(arr))
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Arguments{values: m})
		}
	}
	return out
}

// Map returns a deep copy of the underlying values.
func (a Arguments) Map() map[string]any {
	out, _ := cloneValue(a.values).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out
}
