package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zestora/zestora-orders/internal/order/domain"
	"github.com/zestora/zestora-orders/internal/order/engine"
	"github.com/zestora/zestora-orders/internal/order/storage"
	"github.com/zestora/zestora-orders/internal/pkg/cache"
)

func newTestServer(t *testing.T) (http.Handler, *engine.Engine) {
	t.Helper()
	cfg := engine.DefaultConfig()
	// Keep timers far away so handlers are exercised in a stable state.
	cfg.SimMinute = time.Hour
	eng := engine.New(cfg, storage.NewMemoryStore(), cache.NewMemory(), nil, nil)
	require.NoError(t, eng.Load(context.Background()))
	t.Cleanup(eng.Close)
	return NewRouter(NewHandler(eng, nil)), eng
}

func placeBody() []byte {
	body, _ := json.Marshal(PlaceOrderRequest{
		Items: []OrderItemDTO{
			{ID: "m1", Name: "Paneer Tikka", Price: 120, Quantity: 2, RestaurantName: "Tandoor Tales"},
			{ID: "m2", Name: "Garlic Naan", Price: 5, Quantity: 2},
		},
		PaymentMethod: "upi",
		Address:       AddressDTO{Label: "Home", Line: "12 MG Road", City: "Jaipur", Phone: "+911234567890"},
	})
	return body
}

func doRequest(t *testing.T, h http.Handler, method, path string, body []byte, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPlaceOrderEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/orders", placeBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var placed domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))
	assert.Equal(t, domain.StatusPreparing, placed.Status)
	assert.Equal(t, "Tandoor Tales", placed.RestaurantName)
	// subtotal 250: delivery 29, platform 5, gst 12.5
	assert.Equal(t, 296.5, placed.Totals.GrandTotal)
}

func TestPlaceOrderValidation(t *testing.T) {
	h, _ := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/orders", []byte(`{"items":[]}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, h, http.MethodPost, "/orders", []byte(`{not json`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, h, http.MethodPost, "/orders",
		[]byte(`{"items":[{"name":"Fries","price":99,"quantity":0}]}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceOrderIdempotencyHeader(t *testing.T) {
	h, _ := newTestServer(t)
	header := http.Header{}
	header.Set("X-Idempotency-Key", "checkout-1")

	first := doRequest(t, h, http.MethodPost, "/orders", placeBody(), header)
	require.Equal(t, http.StatusCreated, first.Code)
	repeat := doRequest(t, h, http.MethodPost, "/orders", placeBody(), header)
	require.Equal(t, http.StatusCreated, repeat.Code)

	var a, b domain.Order
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(repeat.Body.Bytes(), &b))
	assert.Equal(t, a.ID, b.ID, "a repeated idempotency key returns the original order")

	list := doRequest(t, h, http.MethodGet, "/orders", nil, nil)
	var resp OrderListResponse
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &resp))
	assert.Len(t, resp.Orders, 1)
}

func TestListAndGetOrders(t *testing.T) {
	h, _ := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/orders", placeBody(), nil)
	var placed domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))

	list := doRequest(t, h, http.MethodGet, "/orders", nil, nil)
	require.Equal(t, http.StatusOK, list.Code)
	var resp OrderListResponse
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, placed.ID, resp.Orders[0].ID)

	get := doRequest(t, h, http.MethodGet, "/orders/"+placed.ID, nil, nil)
	assert.Equal(t, http.StatusOK, get.Code)

	missing := doRequest(t, h, http.MethodGet, "/orders/ZST-NOPE", nil, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestCancelOrderEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/orders", placeBody(), nil)
	var placed domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))

	cancel := doRequest(t, h, http.MethodPost, "/orders/"+placed.ID+"/cancel",
		[]byte(`{"reason":"changed_mind","details":" too long "}`), nil)
	require.Equal(t, http.StatusOK, cancel.Code, cancel.Body.String())

	var cancelled domain.Order
	require.NoError(t, json.Unmarshal(cancel.Body.Bytes(), &cancelled))
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.Cancellation)
	assert.Equal(t, "changed_mind", cancelled.Cancellation.Reason)
	assert.Equal(t, "too long", cancelled.Cancellation.Details)
	assert.Equal(t, "original_source", cancelled.Cancellation.RefundPreference)

	again := doRequest(t, h, http.MethodPost, "/orders/"+placed.ID+"/cancel", nil, nil)
	assert.Equal(t, http.StatusConflict, again.Code)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/orders", placeBody(), nil)
	var placed domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))

	ok := doRequest(t, h, http.MethodPatch, "/orders/"+placed.ID+"/status",
		[]byte(`{"status":"out_for_delivery"}`), nil)
	require.Equal(t, http.StatusOK, ok.Code, ok.Body.String())

	illegal := doRequest(t, h, http.MethodPatch, "/orders/"+placed.ID+"/status",
		[]byte(`{"status":"preparing"}`), nil)
	assert.Equal(t, http.StatusConflict, illegal.Code)

	missing := doRequest(t, h, http.MethodPatch, "/orders/ZST-NOPE/status",
		[]byte(`{"status":"delivered"}`), nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestTrackingEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/orders", placeBody(), nil)
	var placed domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &placed))

	track := doRequest(t, h, http.MethodGet, "/orders/"+placed.ID+"/tracking", nil, nil)
	require.Equal(t, http.StatusOK, track.Code)

	var snap engine.TrackingSnapshot
	require.NoError(t, json.Unmarshal(track.Body.Bytes(), &snap))
	assert.Equal(t, placed.ID, snap.OrderID)
	assert.Equal(t, 30, snap.EtaMinutes)
	assert.Len(t, snap.Steps, 4)
	assert.NotZero(t, snap.Driver.Name)
	assert.Greater(t, snap.DistanceKm, 0.0)
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	w := doRequest(t, h, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
