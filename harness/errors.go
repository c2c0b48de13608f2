package harness

import "errors"

// ErrInvalidVNode wraps every malformed-input failure. Always raised before
// any DOM mutation, so the caller can fix the input and retry.
var ErrInvalidVNode = errors.New("harness: invalid virtual node")

// ErrRenderFailed means the backend returned no element. Fatal for the
// render call; surfaced immediately.
var ErrRenderFailed = errors.New("harness: render failed")

// ErrUnmounted is returned by operations on a handle after Unmount.
var ErrUnmounted = errors.New("harness: handle has been unmounted")
