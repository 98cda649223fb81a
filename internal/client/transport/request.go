package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"time"
)

// Request describes one logical API call. It is immutable while in flight:
// retries and post-refresh replays re-encode the same content.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is encoded as JSON unless it is already []byte or json.RawMessage.
	Body any
	// Form switches the body to multipart/form-data. Body is ignored then.
	Form *Form

	Header   http.Header
	SkipAuth bool
	Timeout  time.Duration

	// ID tags every attempt with X-Request-ID; IdempotencyKey is sent as
	// Idempotency-Key so the backend can deduplicate retried mutations.
	ID             string
	IdempotencyKey string
}

// Form is a multipart upload payload.
type Form struct {
	Fields map[string]string
	Files  []FormFile
}

type FormFile struct {
	Field       string
	FileName    string
	ContentType string
	Content     []byte
}

// Response is a successful (2xx) exchange.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Request) encodeBody() (io.Reader, string, error) {
	if r.Form != nil {
		return r.Form.encode()
	}
	switch b := r.Body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), "application/json", nil
	case json.RawMessage:
		return bytes.NewReader(b), "application/json", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, f.Fields[k]); err != nil {
			return nil, "", fmt.Errorf("encode form field %s: %w", k, err)
		}
	}

	for _, file := range f.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.FileName))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("encode form file %s: %w", file.FileName, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", fmt.Errorf("encode form file %s: %w", file.FileName, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("encode form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
