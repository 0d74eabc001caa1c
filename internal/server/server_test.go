package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/models"
	"restaurant-pos/internal/services/menu"
	"restaurant-pos/internal/services/order"
	"restaurant-pos/internal/store"
	"restaurant-pos/internal/testutil"
)

type apiClient struct {
	t      *testing.T
	server *httptest.Server
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	return newAPIWithStore(t, testutil.NewStore(t))
}

func newAPIWithStore(t *testing.T, st store.Store) *apiClient {
	t.Helper()
	log := testutil.NewLogger()
	router := NewRouter(Deps{
		Store:  st,
		Menu:   menu.NewService(st, nil, log),
		Orders: order.NewService(st, nil, log),
		Logger: log,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &apiClient{t: t, server: srv}
}

// do sends body (raw string or JSON-encoded value) and decodes the JSON reply
func (c *apiClient) do(method, path string, body any) (int, map[string]any, http.Header) {
	c.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out, resp.Header
}

func (c *apiClient) createMenuItem(name string, price float64) int64 {
	c.t.Helper()
	status, body, _ := c.do(http.MethodPost, "/menu/", map[string]any{
		"name": name, "price": price, "category": "drink",
	})
	require.Equal(c.t, http.StatusOK, status, body)
	return int64(body["id"].(float64))
}

func TestRoot(t *testing.T) {
	api := newAPI(t)

	status, body, header := api.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Restaurant POS API running 🚀", body["message"])
	assert.NotEmpty(t, header.Get("X-Request-Id"))
}

func TestHealth(t *testing.T) {
	api := newAPI(t)

	status, body, _ := api.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

type downStore struct{ store.Store }

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth_DatabaseDown(t *testing.T) {
	api := newAPIWithStore(t, downStore{testutil.NewStore(t)})

	status, body, _ := api.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestMenuEndpoints(t *testing.T) {
	api := newAPI(t)

	id := api.createMenuItem("Cola", 3.0)

	t.Run("duplicate name", func(t *testing.T) {
		status, body, _ := api.do(http.MethodPost, "/menu/", map[string]any{"name": "Cola", "price": 1})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "Menu item with name 'Cola' already exists", body["detail"])
	})

	t.Run("validation", func(t *testing.T) {
		status, _, _ := api.do(http.MethodPost, "/menu/", map[string]any{"name": "Free", "price": -1})
		assert.Equal(t, http.StatusUnprocessableEntity, status)

		status, _, _ = api.do(http.MethodPost, "/menu/", map[string]any{"price": 1})
		assert.Equal(t, http.StatusUnprocessableEntity, status)

		status, _, _ = api.do(http.MethodPost, "/menu/", map[string]any{"name": "Tea", "price": "cheap"})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})

	t.Run("malformed json", func(t *testing.T) {
		status, body, _ := api.do(http.MethodPost, "/menu/", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["detail"], "Invalid JSON body")
	})

	t.Run("get with and without trailing slash", func(t *testing.T) {
		for _, path := range []string{fmt.Sprintf("/menu/%d", id), fmt.Sprintf("/menu/%d/", id)} {
			status, body, _ := api.do(http.MethodGet, path, nil)
			assert.Equal(t, http.StatusOK, status, path)
			assert.Equal(t, "Cola", body["name"])
		}
	})

	t.Run("partial update", func(t *testing.T) {
		status, body, _ := api.do(http.MethodPut, fmt.Sprintf("/menu/%d", id), map[string]any{"price": 3.5})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Cola", body["name"])
		assert.Equal(t, 3.5, body["price"])
		assert.Equal(t, "drink", body["category"])
	})

	t.Run("null name rejected", func(t *testing.T) {
		status, _, _ := api.do(http.MethodPut, fmt.Sprintf("/menu/%d", id), `{"name": null}`)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})

	t.Run("list", func(t *testing.T) {
		api.createMenuItem("Water", 1.0)

		status, body, _ := api.do(http.MethodGet, "/menu?search=col&size=10", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(1), body["total"])
		assert.Equal(t, float64(10), body["size"])
		assert.Len(t, body["items"], 1)

		status, body, _ = api.do(http.MethodGet, "/menu/?max_price=2", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(1), body["total"])
	})

	t.Run("bad query params", func(t *testing.T) {
		for _, query := range []string{"min_price=abc", "size=0", "size=101", "page=0", "page=x"} {
			status, _, _ := api.do(http.MethodGet, "/menu/?"+query, nil)
			assert.Equal(t, http.StatusUnprocessableEntity, status, query)
		}
	})

	t.Run("missing and invalid ids", func(t *testing.T) {
		status, body, _ := api.do(http.MethodGet, "/menu/999", nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Menu item 999 not found", body["detail"])

		status, _, _ = api.do(http.MethodGet, "/menu/abc", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
	})

	t.Run("delete", func(t *testing.T) {
		status, body, _ := api.do(http.MethodDelete, fmt.Sprintf("/menu/%d", id), nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, fmt.Sprintf("Menu item %d deleted successfully", id), body["message"])

		status, _, _ = api.do(http.MethodDelete, fmt.Sprintf("/menu/%d", id), nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestOrderLifecycle(t *testing.T) {
	api := newAPI(t)
	cola := api.createMenuItem("Cola", 3.0)
	salad := api.createMenuItem("Salad", 8.0)

	status, created, _ := api.do(http.MethodPost, "/orders/", map[string]any{
		"items": []map[string]any{{"menu_item_id": cola, "quantity": 4}},
	})
	require.Equal(t, http.StatusOK, status, created)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, 12.0, created["total_price"])
	assert.NotEmpty(t, created["created_at"])
	items := created["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, 12.0, items[0].(map[string]any)["price"])

	orderPath := fmt.Sprintf("/orders/%d", int64(created["id"].(float64)))

	status, patched, _ := api.do(http.MethodPatch, orderPath, map[string]any{"status": "ready"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", patched["status"])
	assert.Equal(t, 12.0, patched["total_price"])
	assert.Equal(t, created["items"], patched["items"])

	status, replaced, _ := api.do(http.MethodPut, orderPath, map[string]any{
		"status": "served",
		"items":  []map[string]any{{"menu_item_id": salad, "quantity": 1}, {"menu_item_id": cola, "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "served", replaced["status"])
	assert.Equal(t, 11.0, replaced["total_price"])
	assert.Len(t, replaced["items"], 2)

	status, got, _ := api.do(http.MethodGet, orderPath+"/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, replaced, got)

	status, page, _ := api.do(http.MethodGet, "/orders?status=SERV&min_total=10", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), page["total"])
	assert.Equal(t, float64(1), page["pages"])

	status, body, _ := api.do(http.MethodDelete, orderPath, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, fmt.Sprintf("Order %d deleted successfully", int64(created["id"].(float64))), body["message"])

	status, body, _ = api.do(http.MethodGet, orderPath, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body["detail"], "not found")
}

func TestOrderErrors(t *testing.T) {
	api := newAPI(t)
	cola := api.createMenuItem("Cola", 3.0)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		detail string
	}{
		{
			name: "unknown menu item", method: http.MethodPost, path: "/orders/",
			body:   map[string]any{"items": []map[string]any{{"menu_item_id": 999, "quantity": 1}}},
			status: http.StatusNotFound, detail: "Menu item 999 not found",
		},
		{
			name: "empty items", method: http.MethodPost, path: "/orders/",
			body:   map[string]any{"items": []any{}},
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "missing items", method: http.MethodPost, path: "/orders/",
			body:   map[string]any{"status": "pending"},
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "zero quantity", method: http.MethodPost, path: "/orders/",
			body:   map[string]any{"items": []map[string]any{{"menu_item_id": cola, "quantity": 0}}},
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "replace missing order", method: http.MethodPut, path: "/orders/42",
			body:   map[string]any{"items": []map[string]any{{"menu_item_id": cola, "quantity": 1}}},
			status: http.StatusNotFound, detail: "Order 42 not found",
		},
		{
			name: "patch missing order", method: http.MethodPatch, path: "/orders/42",
			body:   map[string]any{"status": "ready"},
			status: http.StatusNotFound, detail: "Order 42 not found",
		},
		{
			name: "patch null status", method: http.MethodPatch, path: "/orders/42",
			body:   `{"status": null}`,
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "delete missing order", method: http.MethodDelete, path: "/orders/42",
			status: http.StatusNotFound, detail: "Order 42 not found",
		},
		{
			name: "non-integer id", method: http.MethodGet, path: "/orders/one",
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown route", method: http.MethodGet, path: "/tables",
			status: http.StatusNotFound, detail: "Not Found",
		},
		{
			name: "wrong method", method: http.MethodPatch, path: "/menu/1",
			status: http.StatusMethodNotAllowed, detail: "Method Not Allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, body["detail"])
			}
		})
	}

	status, page, _ := api.do(http.MethodGet, "/orders/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), page["total"])
	assert.Equal(t, []any{}, page["items"])
}

func TestOrderTotalOutOfRange(t *testing.T) {
	st := testutil.NewStore(t)
	api := newAPIWithStore(t, st)

	status, body, _ := api.do(http.MethodPost, "/menu/", map[string]any{"name": "Caviar", "price": 1e308})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["detail"], "price")

	// a row priced above the bound, written before it was enforced
	caviar := &models.MenuItem{Name: "Caviar", Price: 1e308}
	require.NoError(t, st.Queries().InsertMenuItem(context.Background(), caviar))

	status, body, _ = api.do(http.MethodPost, "/orders/", map[string]any{
		"items": []map[string]any{{"menu_item_id": caviar.ID, "quantity": 10}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "items[0].price: amount is out of range", body["detail"])

	status, page, _ := api.do(http.MethodGet, "/orders/", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), page["total"])
}
