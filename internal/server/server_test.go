package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/orderquote/internal/events"
	"github.com/tournevent/orderquote/internal/quoting"
	"github.com/tournevent/orderquote/internal/server"
	"github.com/tournevent/orderquote/internal/store/memory"
	"github.com/tournevent/orderquote/internal/telemetry"
	"github.com/tournevent/orderquote/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

type testServer struct {
	handler http.Handler
	service *quoting.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := otelzap.New(zap.NewNop())
	reg := prometheus.NewRegistry()
	st := memory.New()
	t.Cleanup(func() { _ = st.Close() })

	svc := quoting.New(quoting.Config{Rates: shipper.DefaultRateTable(), MaxItemWeight: 50000},
		st, events.Nop{}, logger, telemetry.NewMetrics(reg))
	srv := server.New(server.Config{Port: 8080}, svc, reg, logger)
	return &testServer{handler: srv.Handler(), service: svc}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) pendingOrder(t *testing.T) *shipper.Order {
	t.Helper()
	order, err := ts.service.CreateOrder(context.Background(), quoting.NewOrder{
		Customer: "Sally Bob",
		Status:   shipper.StatusPending,
		Items: []shipper.LineItem{
			{SKU: "SHOE-RED-1", Quantity: 1, GramsPerItem: 100, PriceCents: 1200},
			{SKU: "HAT-GRN-3", Quantity: 1, GramsPerItem: 200, PriceCents: 900},
		},
	})
	require.NoError(t, err)
	return order
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t)
	order := ts.pendingOrder(t)
	ts.do(t, http.MethodPost, "/orders/"+order.ID+"/quotes", `{"carriers":["UPS"]}`)

	rec := ts.do(t, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orderquote_quotes_generated_total")
}

func TestServer_CreateAndGetOrder(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/orders",
		`{"customer":"Sally Bob","items":[{"sku":"SHOE-RED-1","quantity":1,"gramsPerItem":100,"price":1200}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created shipper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, shipper.StatusDraft, created.Status)
	assert.Equal(t, []shipper.ShippingQuote{}, created.Quotes)

	rec = ts.do(t, http.MethodGet, "/orders/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got shipper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Items, got.Items)
}

func TestServer_CreateOrder_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"customer":`},
		{"missing customer", `{"items":[]}`},
		{"unknown status", `{"customer":"c","status":"SHIPPED"}`},
		{"booked status", `{"customer":"c","status":"BOOKED"}`},
		{"negative quantity", `{"customer":"c","items":[{"sku":"A","quantity":-1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(t, http.MethodPost, "/orders", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_REQUEST_BODY", decodeError(t, rec))
		})
	}
}

func TestServer_GetOrder_NotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/orders/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ORDER_NOT_FOUND", decodeError(t, rec))
}

func TestServer_GenerateQuote(t *testing.T) {
	ts := newTestServer(t)
	order := ts.pendingOrder(t)

	rec := ts.do(t, http.MethodPost, "/orders/"+order.ID+"/quotes", `{"carriers":["UPS","USPS","FEDEX"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Outcome string        `json:"outcome"`
		Order   shipper.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SUCCESS", body.Outcome)
	assert.Equal(t, shipper.StatusQuoted, body.Order.Status)
	assert.Equal(t, []shipper.ShippingQuote{
		{Carrier: shipper.CarrierUPS, PriceCents: 815},
		{Carrier: shipper.CarrierUSPS, PriceCents: 1056},
		{Carrier: shipper.CarrierFedEx, PriceCents: 1009},
	}, body.Order.Quotes)
}

func TestServer_GenerateQuote_EmptyCarriers(t *testing.T) {
	ts := newTestServer(t)
	order := ts.pendingOrder(t)

	rec := ts.do(t, http.MethodPost, "/orders/"+order.ID+"/quotes", `{"carriers":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Order shipper.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, shipper.StatusQuoted, body.Order.Status)
	assert.Empty(t, body.Order.Quotes)
}

func TestServer_GenerateQuote_Errors(t *testing.T) {
	ts := newTestServer(t)
	order := ts.pendingOrder(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed json", "/orders/" + order.ID + "/quotes", `{"carriers":`, http.StatusBadRequest, "INVALID_REQUEST_BODY"},
		{"missing carriers", "/orders/" + order.ID + "/quotes", `{}`, http.StatusBadRequest, "INVALID_REQUEST_BODY"},
		{"unknown carrier", "/orders/" + order.ID + "/quotes", `{"carriers":["UPS","DHL"]}`, http.StatusBadRequest, "INVALID_REQUEST_BODY"},
		{"wrong carrier type", "/orders/" + order.ID + "/quotes", `{"carriers":[1]}`, http.StatusBadRequest, "INVALID_REQUEST_BODY"},
		{"blank id", "/orders/%20/quotes", `{"carriers":["UPS"]}`, http.StatusBadRequest, "INVALID_URL_PARAMETER"},
		{"unknown order", "/orders/missing/quotes", `{"carriers":["UPS"]}`, http.StatusNotFound, "ORDER_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec))
		})
	}
}

func TestServer_BookingFlow(t *testing.T) {
	ts := newTestServer(t)
	order := ts.pendingOrder(t)
	base := "/orders/" + order.ID

	rec := ts.do(t, http.MethodPost, base+"/booking", `{"carrier":"UPS"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "QUOTE_NOT_FOUND", decodeError(t, rec))

	rec = ts.do(t, http.MethodPost, base+"/quotes", `{"carriers":["UPS","FEDEX"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/booking", `{"carrier":"USPS"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"/booking", `{"carrier":"FEDEX"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Outcome string        `json:"outcome"`
		Order   shipper.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, shipper.StatusBooked, body.Order.Status)
	require.NotNil(t, body.Order.BookedQuote)
	assert.Equal(t, shipper.CarrierFedEx, body.Order.BookedQuote.Carrier)

	rec = ts.do(t, http.MethodPost, base+"/booking", `{"carrier":"FEDEX"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ORDER_ALREADY_BOOKED", decodeError(t, rec))

	rec = ts.do(t, http.MethodPost, base+"/quotes", `{"carriers":["UPS"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ORDER_ALREADY_BOOKED", decodeError(t, rec))
}

func TestServer_Booking_Errors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/orders/missing/booking", `{"carrier":"UPS"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/orders/missing/booking", `{"carrier":"DHL"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST_BODY", decodeError(t, rec))
}
