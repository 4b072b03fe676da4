package tripsync

import "errors"

// ErrNotReady is returned when an operation is attempted before the remote
// service connection has been established. No remote call is made and the
// cache is left untouched.
var ErrNotReady = errors.New("remote service not ready")
