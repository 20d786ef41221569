package cachedconfig

import (
	"context"

	"github.com/vitaliisemenov/transform-edge/internal/configstore"
)

// ConfigSource is the capability cachedconfig needs from the Config API
// to refresh its hot copy: a single read of the active snapshot,
// already environment-resolved. internal/configapi.Facade satisfies this.
type ConfigSource interface {
	Snapshot(ctx context.Context) (configstore.ConfigSnapshot, error)
}
