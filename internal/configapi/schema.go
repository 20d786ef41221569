package configapi

import (
	"encoding/json"
	"fmt"

	"github.com/vitaliisemenov/transform-edge/internal/configstore"
	"github.com/vitaliisemenov/transform-edge/pkg/schemavalidator"
)

// SchemaValidator is the default SnapshotValidator: every module
// carrying a schema is walked by pkg/schemavalidator, then the
// cross-module dependency check runs over the whole snapshot.
type SchemaValidator struct{}

func (SchemaValidator) ValidateSnapshot(snap configstore.ConfigSnapshot) (bool, []string) {
	var errs []string

	for name, mod := range snap.Modules {
		if mod.Meta.Schema == nil {
			continue
		}
		result := schemavalidator.Validate(mod.Meta.Schema, anyTree(mod.Config))
		for _, e := range result.Errors {
			errs = append(errs, fmt.Sprintf("modules.%s.config.%s", name, e.String()))
		}
	}

	modules := make([]schemavalidator.ModuleInfo, 0, len(snap.Modules))
	for name, mod := range snap.Modules {
		modules = append(modules, schemavalidator.ModuleInfo{
			Name:         name,
			Dependencies: mod.Meta.ModuleDependencies,
		})
	}
	deps := schemavalidator.CheckModuleDependencies(modules, snap.Meta.ActiveModules)
	for _, e := range deps.Errors {
		errs = append(errs, e.String())
	}

	return len(errs) == 0, errs
}

// anyTree round-trips a typed map through JSON so the validator sees the
// same float64/[]any leaf shapes a decoded snapshot would have.
func anyTree(v map[string]any) any {
	b, _ := json.Marshal(v)
	var out any
	_ = json.Unmarshal(b, &out)
	return out
}
