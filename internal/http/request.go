package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fatture/internal/core"
)

const maxJSONBody = 1 << 20

// ListQuery holds the parsed list/export query string.
type ListQuery struct {
	Criteria core.Criteria
	Sort     core.SortKey
	Order    core.SortOrder
}

// ParseListQuery reads status, startDate, endDate, q, sort and order.
// Unknown sort keys and orders fall back to date/desc; an unknown status is
// an error.
func ParseListQuery(q url.Values) (ListQuery, error) {
	lq := ListQuery{
		Criteria: core.Criteria{
			Status:      core.PaymentStatus(strings.ToLower(strings.TrimSpace(q.Get("status")))),
			StartDate:   strings.TrimSpace(q.Get("startDate")),
			EndDate:     strings.TrimSpace(q.Get("endDate")),
			SearchQuery: stripControl(q.Get("q")),
		},
		Sort:  core.ParseSortKey(q.Get("sort")),
		Order: core.ParseSortOrder(q.Get("order")),
	}
	if lq.Criteria.Status == "all" {
		lq.Criteria.Status = ""
	}
	if s := lq.Criteria.Status; s != "" && !s.IsValid() {
		return ListQuery{}, fmt.Errorf("unknown status %q", s)
	}
	return lq, nil
}

// decodeJSON decodes a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// sanitizeInput trims and removes control characters except tab and newlines.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

// stripControl removes control characters except tab and newlines.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
