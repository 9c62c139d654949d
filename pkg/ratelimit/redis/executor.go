// Package redis implements every admission algorithm, the concurrency
// gate, and the composer from pkg/ratelimit against a go-redis store
// handle. State is addressed through the key-prefix contract
// (sliding:<key>, fixed:<key>:<slot>, leaky:<key>, token:<key>,
// gcra:<key>, gate:<key>) so independent algorithms over the same
// logical identifier never collide.
package redis

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/distlimit/engine/pkg/ratelimit"
	"github.com/distlimit/engine/pkg/ratelimit/scripts"
)

// Executor runs catalogue scripts against a store handle, running by
// hash first and uploading-then-rerunning on a cache miss. It is safe
// for concurrent use; the only state it holds is the store handle
// itself, so there is nothing to protect with a mutex.
type Executor struct {
	client redis.Cmdable
}

// NewExecutor returns an Executor bound to client. client is any
// redis.Cmdable (a *redis.Client, *redis.ClusterClient, or a test
// double) so the core never depends on a concrete transport.
func NewExecutor(client redis.Cmdable) *Executor {
	return &Executor{client: client}
}

// Run executes the named catalogue script, reloading it into the
// store's script cache on a NOSCRIPT miss. A hash mismatch after reload
// is fatal: it means the script source the binary was built with no
// longer matches what it just uploaded, which can only happen if the
// catalogue and this function have drifted apart.
func (e *Executor) Run(ctx context.Context, scriptID string, keys []string, args ...interface{}) ([]interface{}, error) {
	script, ok := scripts.Lookup(scriptID)
	if !ok {
		return nil, ratelimit.ErrScriptHashMismatch(scriptID, "<registered>", "<unregistered>")
	}

	result, err := e.client.EvalSha(ctx, script.SHA1, keys, args...).Result()
	if err == nil {
		return toSlice(result), nil
	}
	if !isNoScript(err) {
		return nil, ratelimit.ErrTransport(err)
	}

	loaded, loadErr := e.client.ScriptLoad(ctx, script.Source).Result()
	if loadErr != nil {
		return nil, ratelimit.ErrTransport(loadErr)
	}
	if loaded != script.SHA1 {
		return nil, ratelimit.ErrScriptHashMismatch(scriptID, script.SHA1, loaded)
	}

	result, err = e.client.EvalSha(ctx, script.SHA1, keys, args...).Result()
	if err != nil {
		return nil, ratelimit.ErrTransport(err)
	}
	return toSlice(result), nil
}

// Warm loads every catalogue script into the store's script cache up
// front, verifying each returned hash against the one computed at
// package init. Called once by the Factory when eager warm-up is
// requested; correctness never depends on having called it, since Run
// reloads on miss regardless.
func (e *Executor) Warm(ctx context.Context, scriptIDs []string) error {
	for _, id := range scriptIDs {
		script, ok := scripts.Lookup(id)
		if !ok {
			continue
		}
		loaded, err := e.client.ScriptLoad(ctx, script.Source).Result()
		if err != nil {
			return ratelimit.ErrTransport(err)
		}
		if loaded != script.SHA1 {
			return ratelimit.ErrScriptHashMismatch(id, script.SHA1, loaded)
		}
	}
	return nil
}

func isNoScript(err error) bool {
	return strings.HasPrefix(err.Error(), "NOSCRIPT")
}

// toSlice normalizes EvalSha's result into a []interface{} regardless of
// whether the script returned a single scalar or a Lua table; the
// count scripts (sliding:count, gate:current, gate:cleanup) return a
// bare integer, which comes back as a one-element slice.
func toSlice(v interface{}) []interface{} {
	if s, ok := v.([]interface{}); ok {
		return s
	}
	return []interface{}{v}
}
