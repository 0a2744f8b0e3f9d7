// Package pagination implements page-number pagination with a client-chosen page size.
package pagination

import (
	"net/http"
	"net/url"
	"strconv"

	dErrors "foodgram/pkg/domain-errors"
)

const (
	DefaultLimit = 6
	MaxLimit     = 100
)

// Params is a validated page request.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// FromRequest reads `page` and `limit` from the query string.
// A missing or empty limit falls back to defaultLimit; limits above MaxLimit are clamped.
func FromRequest(r *http.Request, defaultLimit int) (Params, error) {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	q := r.URL.Query()
	p := Params{Page: 1, Limit: defaultLimit}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Params{}, dErrors.New(dErrors.CodeNotFound, "invalid page")
		}
		p.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return Params{}, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
		}
		p.Limit = min(limit, MaxLimit)
	}
	return p, nil
}

// Page is the paginated response envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// CheckRange rejects pages past the last one. The first page always exists.
func CheckRange(p Params, count int) error {
	if p.Page > 1 && p.Offset() >= count {
		return dErrors.New(dErrors.CodeNotFound, "invalid page")
	}
	return nil
}

// New builds the envelope with absolute next/previous links derived from r.
func New[T any](r *http.Request, p Params, count int, results []T) Page[T] {
	if results == nil {
		results = []T{}
	}
	page := Page[T]{Count: count, Results: results}
	if p.Offset()+len(results) < count {
		page.Next = link(r, p.Page+1)
	}
	if p.Page > 1 {
		page.Previous = link(r, p.Page-1)
	}
	return page
}

func link(r *http.Request, page int) *string {
	u := url.URL{
		Scheme: scheme(r),
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	q := r.URL.Query()
	if page == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

func scheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
