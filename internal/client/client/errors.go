package client

import "errors"

// ErrDecode wraps failures to decode a successful response body.
var ErrDecode = errors.New("decode response")
