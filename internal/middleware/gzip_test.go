package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderRequest struct {
	CropID   int64  `json:"crop_id"`
	BuyerID  int64  `json:"buyer_id"`
	Quantity string `json:"quantity"`
}

// echoOrder отвечает созданным заказом в формате API, повторяя тело запроса.
func echoOrder(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"order_id": 1,
		"crop_id":  req.CropID,
		"buyer_id": req.BuyerID,
		"quantity": req.Quantity,
		"status":   "pending",
	})
}

func gzipped(t *testing.T, s string) io.Reader {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return &buf
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()

	var r io.Reader = res.Body
	if res.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(res.Body)
		require.NoError(t, err)
		defer gr.Close()
		r = gr
	}

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(body)
}

func TestGzipMiddleware_Orders(t *testing.T) {
	const order = `{"crop_id":3,"buyer_id":5,"quantity":"30"}`

	tests := []struct {
		name           string
		acceptEncoding string
		gzipRequest    bool
		wantEncoding   string
	}{
		{name: "compressed response", acceptEncoding: "gzip", wantEncoding: "gzip"},
		{name: "plain response", acceptEncoding: "", wantEncoding: ""},
		{name: "compressed request and response", acceptEncoding: "gzip", gzipRequest: true, wantEncoding: "gzip"},
		{name: "compressed request, plain response", gzipRequest: true, wantEncoding: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader = strings.NewReader(order)
			if tt.gzipRequest {
				body = gzipped(t, order)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/orders", body)
			req.Header.Set("Content-Type", "application/json")
			if tt.gzipRequest {
				req.Header.Set("Content-Encoding", "gzip")
			}
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}

			rec := httptest.NewRecorder()
			GzipMiddleware(http.HandlerFunc(echoOrder)).ServeHTTP(rec, req)

			res := rec.Result()
			defer res.Body.Close()

			require.Equal(t, http.StatusCreated, res.StatusCode)
			assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
			assert.Equal(t, tt.wantEncoding, res.Header.Get("Content-Encoding"))
			assert.JSONEq(t,
				`{"order_id":1,"crop_id":3,"buyer_id":5,"quantity":"30","status":"pending"}`,
				readBody(t, res),
			)
		})
	}
}

func TestGzipMiddleware_EventStreamIsNotCompressed(t *testing.T) {
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`data:{"type":"connected","payload":{"ok":true}}` + "\n\n"))
		w.(http.Flusher).Flush()
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.True(t, rec.Flushed)
	assert.Contains(t, rec.Body.String(), `"type":"connected"`)
}

func TestGzipMiddleware_BrokenRequestBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/crops", strings.NewReader(`{"crop_name":"onion"}`))
	req.Header.Set("Content-Encoding", "gzip")

	called := false
	h := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}
