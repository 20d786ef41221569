package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vitaliisemenov/transform-edge/internal/configapi"
	"github.com/vitaliisemenov/transform-edge/internal/configstore"
	"github.com/vitaliisemenov/transform-edge/internal/kvstore"
)

// buildFacade wires a Config API facade over the KV backend selected by
// the --kv-backend flag, the same choice a host binary would make from
// internal/hostconfig.Config.KVStore.Backend.
func buildFacade(ctx context.Context) (*configapi.Facade, error) {
	var store kvstore.Store

	switch kvBackend {
	case "memory":
		store = kvstore.NewMemoryStore(nil)
	case "redis":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		redisStore, err := kvstore.NewRedisStore(dialCtx, kvstore.RedisOptions{Addr: redisAddr}, nil)
		if err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", redisAddr, err)
		}
		store = redisStore
	default:
		return nil, fmt.Errorf("unknown --kv-backend %q (want memory or redis)", kvBackend)
	}

	cs := configstore.NewStore(store, nil)
	return configapi.New(cs, configapi.Options{
		Env:       environMap(),
		Validator: configapi.SchemaValidator{},
	}), nil
}

// environMap converts os.Environ into the map configapi resolves
// "${NAME}" references against.
func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if idx := strings.IndexByte(kv, '='); idx > 0 {
			env[kv[:idx]] = kv[idx+1:]
		}
	}
	return env
}
