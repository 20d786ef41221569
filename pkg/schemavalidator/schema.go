package schemavalidator

import "fmt"

// Node is a parsed schema: a closed-set AST, parsed once instead of
// re-interpreting a raw map[string]any at every value.
// Constraints holds one entry per recognized keyword present on the
// node; an unrecognized keyword is simply absent from this slice (JSON
// schema is additive: unknown keywords are ignored, not an error).
type Node struct {
	constraints []Constraint
}

// Constraint is the closed sum type of schema-keyword validators: Type,
// Required, Enum, Const, Number, String, Array, Object, AnyOf, OneOf,
// AllOf, Format. Every concrete type below implements it; there is no
// other way to add a new validation rule than adding a case here.
type Constraint interface {
	check(v any, path Location, r *Result)
}

// Parse builds a Node from a raw JSON-schema-shaped map. A nil or empty
// schema matches anything.
func Parse(raw map[string]any) *Node {
	n := &Node{}
	if raw == nil {
		return n
	}

	if t, ok := raw["type"]; ok {
		n.constraints = append(n.constraints, parseType(t))
	}
	if req, ok := raw["required"]; ok {
		n.constraints = append(n.constraints, parseRequired(req))
	}
	if enum, ok := raw["enum"]; ok {
		n.constraints = append(n.constraints, parseEnum(enum))
	}
	if cst, ok := raw["const"]; ok {
		n.constraints = append(n.constraints, constConstraint{value: cst})
	}
	if nc, ok := parseNumber(raw); ok {
		n.constraints = append(n.constraints, nc)
	}
	if sc, ok := parseString(raw); ok {
		n.constraints = append(n.constraints, sc)
	}
	if ac, ok := parseArray(raw); ok {
		n.constraints = append(n.constraints, ac)
	}
	if oc, ok := parseObject(raw); ok {
		n.constraints = append(n.constraints, oc)
	}
	if schemas, ok := parseSchemaList(raw["anyOf"]); ok {
		n.constraints = append(n.constraints, anyOfConstraint{schemas: schemas})
	}
	if schemas, ok := parseSchemaList(raw["oneOf"]); ok {
		n.constraints = append(n.constraints, oneOfConstraint{schemas: schemas})
	}
	if schemas, ok := parseSchemaList(raw["allOf"]); ok {
		n.constraints = append(n.constraints, allOfConstraint{schemas: schemas})
	}
	if format, ok := raw["format"].(string); ok {
		n.constraints = append(n.constraints, formatConstraint{name: format})
	}
	return n
}

// Validate walks v against n, accumulating errors at path.
func (n *Node) Validate(v any, path Location) *Result {
	r := newResult()
	for _, c := range n.constraints {
		c.check(v, path, r)
	}
	return r
}

// Validate is the package-level entry point: parse schema then validate
// value against it, rooted at "" (the empty path).
func Validate(schema map[string]any, value any) *Result {
	return Parse(schema).Validate(value, "")
}

func parseSchemaList(raw any) ([]*Node, bool) {
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]*Node, 0, len(list))
	for _, item := range list {
		m, _ := item.(map[string]any)
		out = append(out, Parse(m))
	}
	return out, true
}

func childPath(path Location, segment string) Location {
	if path == "" {
		return Location(segment)
	}
	return Location(fmt.Sprintf("%s.%s", path, segment))
}

func childIndexPath(path Location, i int) Location {
	return childPath(path, fmt.Sprintf("%d", i))
}
