package schemavalidator

// itemsSpec represents the "items" keyword, either a single schema
// applied to every element or a tuple of per-position schemas, with
// "additionalItems" governing elements past the tuple's length.
type itemsSpec struct {
	single         *Node
	tuple          []*Node
	additionalBool *bool
	additionalNode *Node
}

// arrayConstraint implements minItems/maxItems/uniqueItems/items/
// additionalItems/contains. A no-op against non-array values.
type arrayConstraint struct {
	minItems    *int
	maxItems    *int
	uniqueItems bool
	items       *itemsSpec
	contains    *Node
}

func parseArray(raw map[string]any) (arrayConstraint, bool) {
	var c arrayConstraint
	found := false

	if v, ok := asInt(raw["minItems"]); ok {
		c.minItems = &v
		found = true
	}
	if v, ok := asInt(raw["maxItems"]); ok {
		c.maxItems = &v
		found = true
	}
	if b, ok := raw["uniqueItems"].(bool); ok {
		c.uniqueItems = b
		found = true
	}
	if items, ok := raw["items"]; ok {
		c.items = parseItems(items, raw["additionalItems"])
		found = true
	}
	if contains, ok := raw["contains"].(map[string]any); ok {
		c.contains = Parse(contains)
		found = true
	}
	return c, found
}

func parseItems(raw any, additional any) *itemsSpec {
	spec := &itemsSpec{}
	switch t := raw.(type) {
	case map[string]any:
		spec.single = Parse(t)
	case []any:
		for _, item := range t {
			m, _ := item.(map[string]any)
			spec.tuple = append(spec.tuple, Parse(m))
		}
	}
	switch t := additional.(type) {
	case bool:
		spec.additionalBool = &t
	case map[string]any:
		spec.additionalNode = Parse(t)
	}
	return spec
}

func (c arrayConstraint) check(v any, path Location, r *Result) {
	arr, ok := v.([]any)
	if !ok {
		return
	}
	if c.minItems != nil && len(arr) < *c.minItems {
		r.addError(path, "must contain at least %d items", *c.minItems)
	}
	if c.maxItems != nil && len(arr) > *c.maxItems {
		r.addError(path, "must contain at most %d items", *c.maxItems)
	}
	if c.uniqueItems && hasDuplicate(arr) {
		r.addError(path, "items must be unique")
	}
	if c.items != nil {
		checkItems(c.items, arr, path, r)
	}
	if c.contains != nil {
		found := false
		for _, item := range arr {
			sub := c.contains.Validate(item, path)
			if sub.Valid {
				found = true
				break
			}
		}
		if !found {
			r.addError(path, "must contain at least one matching item")
		}
	}
}

func checkItems(spec *itemsSpec, arr []any, path Location, r *Result) {
	if spec.single != nil {
		for i, item := range arr {
			r.merge(spec.single.Validate(item, childIndexPath(path, i)))
		}
		return
	}
	for i, item := range arr {
		if i < len(spec.tuple) {
			r.merge(spec.tuple[i].Validate(item, childIndexPath(path, i)))
			continue
		}
		switch {
		case spec.additionalBool != nil && !*spec.additionalBool:
			r.addError(childIndexPath(path, i), "additional items are not allowed")
		case spec.additionalNode != nil:
			r.merge(spec.additionalNode.Validate(item, childIndexPath(path, i)))
		}
	}
}

func hasDuplicate(arr []any) bool {
	for i := 0; i < len(arr); i++ {
		for j := i + 1; j < len(arr); j++ {
			if deepEqual(arr[i], arr[j]) {
				return true
			}
		}
	}
	return false
}
