package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/dashapi/internal/common"
)

// Kind classifies a failed attempt.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindTimeout
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	default:
		return "unknown"
	}
}

// Error is the normalized failure of one HTTP attempt. Status, Body and
// Detail are set only for KindHTTP.
type Error struct {
	Kind   Kind
	Method string
	Path   string
	Status int
	Body   []byte
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		if e.Detail != "" {
			return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.Path, e.Status, e.Detail)
		}
		return fmt.Sprintf("%s %s: http %d", e.Method, e.Path, e.Status)
	default:
		return fmt.Sprintf("%s %s: %s error: %v", e.Method, e.Path, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, common.ErrNetwork) and errors.Is(err, common.ErrTimeout)
// match by kind, and common.ErrNotFound match a 404.
func (e *Error) Is(target error) bool {
	switch target {
	case common.ErrNetwork:
		return e.Kind == KindNetwork
	case common.ErrTimeout:
		return e.Kind == KindTimeout
	case common.ErrNotFound:
		return e.Kind == KindHTTP && e.Status == http.StatusNotFound
	}
	return false
}

// IsStatus reports whether err is an HTTP failure with the given status.
func IsStatus(err error, status int) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindHTTP && e.Status == status
}

// IsUnauthorized reports whether err is an HTTP 401.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// AsError unwraps err to *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return nil, false
	}
	return e, true
}

// errorBody is the structured error payload the backend sends: either
// {"detail": "..."} or {"error": "..."}, sometimes with a list instead.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  json.RawMessage `json:"error"`
}

func parseDetail(body []byte) string {
	var eb errorBody
	if len(body) == 0 || json.Unmarshal(body, &eb) != nil {
		return ""
	}
	if s := rawText(eb.Detail); s != "" {
		return s
	}
	return rawText(eb.Error)
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return list[0]
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Message
	}
	return ""
}
