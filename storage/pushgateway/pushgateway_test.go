package pushgateway

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/maddsua/pingline"
	"github.com/stretchr/testify/require"
)

type pushRequest struct {
	method string
	path   string
	body   string
}

func newGateway(t *testing.T, statusCode int) (*httptest.Server, func() []pushRequest) {
	t.Helper()

	var mu sync.Mutex
	var pushes []pushRequest

	srv := httptest.NewServer(http.HandlerFunc(func(wrt http.ResponseWriter, req *http.Request) {

		if req.URL.Path == "/api/v1/status" {
			wrt.WriteHeader(statusCode)
			return
		}

		body, _ := io.ReadAll(req.Body)

		mu.Lock()
		pushes = append(pushes, pushRequest{method: req.Method, path: req.URL.Path, body: string(body)})
		mu.Unlock()

		wrt.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []pushRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]pushRequest(nil), pushes...)
	}
}

func TestNewPushgatewayStorage_urls(t *testing.T) {
	t.Parallel()

	_, err := NewPushgatewayStorage(t.Context(), "ftp://localhost:9091")
	require.ErrorContains(t, err, "unsupported protocol scheme")

	_, err = NewPushgatewayStorage(t.Context(), "/metrics")
	require.ErrorContains(t, err, "missing url host")
}

func TestNewPushgatewayStorage_pingFails(t *testing.T) {
	t.Parallel()

	srv, _ := newGateway(t, http.StatusServiceUnavailable)

	_, err := NewPushgatewayStorage(t.Context(), srv.URL)
	require.ErrorContains(t, err, "unable to connect")
}

func TestPushgatewayStorage_WriteSample(t *testing.T) {
	t.Parallel()

	srv, pushes := newGateway(t, http.StatusOK)

	storage, err := NewPushgatewayStorage(t.Context(), srv.URL)
	require.NoError(t, err)
	defer storage.Close()

	require.Equal(t, "prometheus", storage.Type())

	err = storage.WriteSample(t.Context(), net.ParseIP("127.0.0.1"), pingline.Sample{Timestamp: 1700000000.5, Rtt: 8.25})
	require.NoError(t, err)

	require.Error(t, storage.WriteSample(t.Context(), nil, pingline.Sample{}))

	requests := pushes()
	require.Len(t, requests, 1)
	require.Equal(t, http.MethodPut, requests[0].method)
	require.Equal(t, "/metrics/job/pingline/target/127.0.0.1", requests[0].path)
	require.Contains(t, requests[0].body, "pingline_last_rtt_ms")
	require.Contains(t, requests[0].body, "pingline_last_sample_timestamp_seconds")
}
