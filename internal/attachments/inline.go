package attachments

import (
	"context"
	"encoding/base64"
	"strings"
)

// Inline stores nothing: the body is encoded into a data URL on the invoice
// itself.
type Inline struct{}

func NewInline() *Inline { return &Inline{} }

func (Inline) Put(_ context.Context, _ string, body []byte, contentType string) (string, error) {
	return DataURL(body, contentType), nil
}

// Get cannot resolve keys; inline bodies live in the URL. Use DecodeDataURL.
func (Inline) Get(context.Context, string) ([]byte, string, error) {
	return nil, "", ErrNotFound
}

func (Inline) Delete(context.Context, string) error { return nil }

// DataURL renders body as a base64 data URL.
func DataURL(body []byte, contentType string) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body)
}

// DecodeDataURL reverses DataURL. ok is false for any other URL form.
func DecodeDataURL(url string) (body []byte, contentType string, ok bool) {
	rest, found := strings.CutPrefix(url, "data:")
	if !found {
		return nil, "", false
	}
	meta, data, found := strings.Cut(rest, ",")
	if !found {
		return nil, "", false
	}
	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", false
	}
	body, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", false
	}
	return body, contentType, true
}
