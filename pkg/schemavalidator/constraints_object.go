package schemavalidator

// objectConstraint implements properties/additionalProperties. A no-op
// against non-object values.
type objectConstraint struct {
	properties     map[string]*Node
	additionalBool *bool
	additionalNode *Node
}

func parseObject(raw map[string]any) (objectConstraint, bool) {
	var c objectConstraint
	found := false

	if props, ok := raw["properties"].(map[string]any); ok {
		c.properties = make(map[string]*Node, len(props))
		for name, sub := range props {
			m, _ := sub.(map[string]any)
			c.properties[name] = Parse(m)
		}
		found = true
	}
	if ap, ok := raw["additionalProperties"]; ok {
		switch t := ap.(type) {
		case bool:
			c.additionalBool = &t
		case map[string]any:
			c.additionalNode = Parse(t)
		}
		found = true
	}
	return c, found
}

func (c objectConstraint) check(v any, path Location, r *Result) {
	obj, ok := v.(map[string]any)
	if !ok {
		return
	}
	for name, sub := range c.properties {
		val, present := obj[name]
		if !present {
			continue
		}
		r.merge(sub.Validate(val, childPath(path, name)))
	}

	if c.additionalBool == nil && c.additionalNode == nil {
		return
	}
	for name, val := range obj {
		if _, declared := c.properties[name]; declared {
			continue
		}
		switch {
		case c.additionalBool != nil && !*c.additionalBool:
			r.addError(childPath(path, name), "additional property is not allowed")
		case c.additionalNode != nil:
			r.merge(c.additionalNode.Validate(val, childPath(path, name)))
		}
	}
}
