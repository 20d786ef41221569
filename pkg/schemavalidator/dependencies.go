package schemavalidator

// ModuleInfo is the minimal shape schemavalidator needs to run the
// cross-module dependency check, independent of any concrete snapshot
// type so this package has no dependency on internal/configstore.
type ModuleInfo struct {
	Name         string
	Dependencies []string
}

// CheckModuleDependencies verifies every declared dependency names a
// present module. A dependency on a module that doesn't exist at all is
// fatal (an Error); a dependency on a module that exists but isn't
// listed in activeModules is a Warning.
func CheckModuleDependencies(modules []ModuleInfo, activeModules []string) *Result {
	r := newResult()

	present := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		present[m.Name] = struct{}{}
	}
	active := make(map[string]struct{}, len(activeModules))
	for _, name := range activeModules {
		active[name] = struct{}{}
	}

	for _, m := range modules {
		for _, dep := range m.Dependencies {
			path := childPath(Location(m.Name), "moduleDependencies")
			if _, ok := present[dep]; !ok {
				r.addError(path, "depends on missing module %q", dep)
				continue
			}
			if _, ok := active[dep]; !ok {
				r.addWarning(path, "depends on module %q which is not active", dep)
			}
		}
	}
	return r
}
