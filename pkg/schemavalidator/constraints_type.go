package schemavalidator

// typeConstraint implements the "type" keyword, including "type: [...]"
// (a union of acceptable types) and the "null" pseudo-type.
type typeConstraint struct {
	types []string
}

func parseType(raw any) typeConstraint {
	switch t := raw.(type) {
	case string:
		return typeConstraint{types: []string{t}}
	case []any:
		types := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				types = append(types, s)
			}
		}
		return typeConstraint{types: types}
	default:
		return typeConstraint{}
	}
}

func (c typeConstraint) check(v any, path Location, r *Result) {
	if len(c.types) == 0 {
		return
	}
	for _, t := range c.types {
		if matchesType(v, t) {
			return
		}
	}
	r.addError(path, "must be of type %v, got %s", c.types, jsonTypeOf(v))
}

// matchesType reports whether v satisfies the named JSON-schema type.
// "number" accepts any numeric value, including whole numbers; "integer"
// additionally requires the value to have no fractional part.
func matchesType(v any, want string) bool {
	if want == "number" {
		_, ok := asFloat(v)
		return ok
	}
	if want == "integer" {
		f, ok := asFloat(v)
		return ok && f == float64(int64(f))
	}
	return jsonTypeOf(v) == want
}

// jsonTypeOf maps a Go value decoded from JSON to its JSON-schema type
// name, used only for error messages (matchesType handles the
// number/integer overlap for actual matching).
func jsonTypeOf(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64:
		if t == float64(int64(t)) {
			return "integer"
		}
		return "number"
	case int, int32, int64:
		return "integer"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}

// requiredConstraint implements "required": a list of property names
// that must be present on an object value. It is a no-op against
// non-object values (type mismatch is that constraint's job).
type requiredConstraint struct {
	fields []string
}

func parseRequired(raw any) requiredConstraint {
	list, _ := raw.([]any)
	fields := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			fields = append(fields, s)
		}
	}
	return requiredConstraint{fields: fields}
}

func (c requiredConstraint) check(v any, path Location, r *Result) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	for _, field := range c.fields {
		if _, present := obj[field]; !present {
			r.addError(childPath(path, field), "is required")
		}
	}
}

// enumConstraint implements "enum": value must deep-equal one of a
// fixed set.
type enumConstraint struct {
	values []any
}

func parseEnum(raw any) enumConstraint {
	list, _ := raw.([]any)
	return enumConstraint{values: list}
}

func (c enumConstraint) check(v any, path Location, r *Result) {
	for _, candidate := range c.values {
		if deepEqual(v, candidate) {
			return
		}
	}
	r.addError(path, "must be one of %v", c.values)
}

// constConstraint implements "const": value must deep-equal exactly one
// fixed value.
type constConstraint struct {
	value any
}

func (c constConstraint) check(v any, path Location, r *Result) {
	if !deepEqual(v, c.value) {
		r.addError(path, "must equal %v", c.value)
	}
}
