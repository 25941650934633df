package storage

import (
	"context"
	"errors"
)

// Durable keys written by the session manager. They match the layout the
// browser client kept in local storage.
const (
	KeyToken       = "token"
	KeyCurrentUser = "currentUser"
)

// ErrUnavailable wraps backend failures (connection refused, timeouts).
var ErrUnavailable = errors.New("storage unavailable")

// Adapter is a durable string key/value store.
//
// Get reports ok=false for a missing key; err is reserved for backend
// failures.
type Adapter interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// Entry is one key/value pair written by [Replacer.Replace].
type Entry struct {
	Key   string
	Value string
}

// Replacer is implemented by adapters that can remove and write several keys
// as one unit. Adapters without it are driven with Remove followed by Set.
type Replacer interface {
	Replace(ctx context.Context, remove []string, set []Entry) error
}

// Replace removes then writes entries on a, atomically when a implements
// [Replacer].
func Replace(ctx context.Context, a Adapter, remove []string, set []Entry) error {
	if r, ok := a.(Replacer); ok {
		return r.Replace(ctx, remove, set)
	}
	if len(remove) > 0 {
		if err := a.Remove(ctx, remove...); err != nil {
			return err
		}
	}
	for _, e := range set {
		if err := a.Set(ctx, e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}
