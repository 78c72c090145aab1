package lock

import "errors"

// ErrLockTimeout means another caller kept the key past the wait limit.
// A cancelled context is reported as the context error instead.
var ErrLockTimeout = errors.New("timed out waiting for key lock")
