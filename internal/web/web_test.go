package web

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"not found", models.OrderNotFound(3), http.StatusNotFound, "Order 3 not found"},
		{"wrapped not found", fmt.Errorf("lookup: %w", models.MenuItemNotFound(9)), http.StatusNotFound, "Menu item 9 not found"},
		{"conflict", models.DuplicateMenuItemName("Cola"), http.StatusConflict, "Menu item with name 'Cola' already exists"},
		{"single field", models.ValidationError{Field: "id", Message: "bad"}, http.StatusUnprocessableEntity, "id: bad"},
		{"many fields", models.ValidationErrors{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}}, http.StatusUnprocessableEntity, "a: x; b: y"},
		{"malformed", &MalformedBodyError{Err: fmt.Errorf("eof")}, http.StatusBadRequest, "Invalid JSON body: eof"},
		{"unknown", fmt.Errorf("disk full"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := StatusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.detail, detail)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var logs bytes.Buffer
	log := logger.NewWithWriter("test", &logs, slog.LevelDebug)
	r := httptest.NewRequest(http.MethodGet, "/orders", nil)

	t.Run("encodes body", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, r, log, http.StatusCreated, MessageResponse{Message: "ok"})
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())
	})

	t.Run("unencodable value", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteJSON(w, r, log, http.StatusOK, map[string]float64{"total_price": math.Inf(1)})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"detail":"Internal server error"}`, w.Body.String())
		assert.Contains(t, logs.String(), "response_encoding_failed")
	})
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Price *float64 `json:"price"`
	}

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"price": 2.5, "extra": true}`, http.StatusOK},
		{"empty", ``, http.StatusBadRequest},
		{"syntax", `{"price": }`, http.StatusBadRequest},
		{"wrong type", `{"price": "two"}`, http.StatusUnprocessableEntity},
		{"trailing garbage", `{"price": 2.5} garbage`, http.StatusBadRequest},
		{"second value", `{"price": 2.5} {}`, http.StatusBadRequest},
		{"trailing whitespace", "{\"price\": 2.5}\n\t ", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(r, &p)
			if tt.status == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, 2.5, *p.Price)
				return
			}
			status, _ := StatusFor(err)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestDecodeJSON_OptionalFieldTypeError(t *testing.T) {
	tests := []struct {
		body  string
		field string
	}{
		{`{"status": 5}`, "status"},
		{`{"status": "ready", "items": "none"}`, "items"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(tt.body))
			var req models.OrderUpdate
			err := DecodeJSON(r, &req)

			var verr models.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestQuery(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		q := NewQuery(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Nil(t, q.String("status"))
		assert.Nil(t, q.Float("min_total"))
		assert.Equal(t, models.PageRequest{Page: 1, Size: models.DefaultPageSize}, q.Page())
		assert.NoError(t, q.Err())
	})

	t.Run("values", func(t *testing.T) {
		q := NewQuery(httptest.NewRequest(http.MethodGet, "/?status=+ready+&min_total=4.5&page=3&size=20", nil))
		require.NotNil(t, q.String("status"))
		assert.Equal(t, "ready", *q.String("status"))
		assert.Equal(t, 4.5, *q.Float("min_total"))
		assert.Equal(t, models.PageRequest{Page: 3, Size: 20}, q.Page())
		assert.NoError(t, q.Err())
	})

	t.Run("errors accumulate", func(t *testing.T) {
		q := NewQuery(httptest.NewRequest(http.MethodGet, "/?min_total=lots&size=500", nil))
		q.Float("min_total")
		q.Page()

		var errs models.ValidationErrors
		require.ErrorAs(t, q.Err(), &errs)
		assert.Len(t, errs, 2)
	})
}
