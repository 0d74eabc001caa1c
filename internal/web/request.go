package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"restaurant-pos/internal/models"
)

const maxBodyBytes = 1 << 20

// DecodeJSON reads the request body into v. Syntax errors become a
// *MalformedBodyError; type mismatches become a validation error on the
// offending field.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	err := dec.Decode(v)
	if err == nil {
		if dec.Decode(&struct{}{}) != io.EOF {
			return &MalformedBodyError{Err: errors.New("unexpected data after JSON value")}
		}
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return models.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		}
	}
	if errors.Is(err, io.EOF) {
		return &MalformedBodyError{Err: errors.New("request body is empty")}
	}
	return &MalformedBodyError{Err: err}
}

// PathID parses the {name} URL parameter as a positive integer id
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, models.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return id, nil
}

// Query reads typed query parameters and collects every parse failure
type Query struct {
	r    *http.Request
	errs models.ValidationErrors
}

// NewQuery wraps the request's query string
func NewQuery(r *http.Request) *Query {
	return &Query{r: r}
}

// String returns a non-empty parameter or nil
func (q *Query) String(name string) *string {
	v := strings.TrimSpace(q.r.URL.Query().Get(name))
	if v == "" {
		return nil
	}
	return &v
}

// Float parses a parameter as a number
func (q *Query) Float(name string) *float64 {
	raw := q.String(name)
	if raw == nil {
		return nil
	}
	v, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		q.errs = append(q.errs, models.ValidationError{Field: name, Message: "must be a number"})
		return nil
	}
	return &v
}

// Int parses a parameter as an integer within [lo, hi]
func (q *Query) Int(name string, lo, hi int) int {
	raw := q.String(name)
	if raw == nil {
		return 0
	}
	v, err := strconv.Atoi(*raw)
	if err != nil {
		q.errs = append(q.errs, models.ValidationError{Field: name, Message: "must be an integer"})
		return 0
	}
	if v < lo || v > hi {
		q.errs = append(q.errs, models.ValidationError{
			Field:   name,
			Message: fmt.Sprintf("must be between %d and %d", lo, hi),
		})
		return 0
	}
	return v
}

// Page reads page and size, defaulting to the first page of 50
func (q *Query) Page() models.PageRequest {
	return models.PageRequest{
		Page: q.Int("page", 1, math.MaxInt32),
		Size: q.Int("size", 1, models.MaxPageSize),
	}.Normalize()
}

// Err returns the collected parse failures, if any
func (q *Query) Err() error {
	return q.errs.Err()
}
