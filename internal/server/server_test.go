package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terrors "github.com/rileyhilliard/televisor/internal/errors"
	"github.com/rileyhilliard/televisor/internal/feed"
	"github.com/rileyhilliard/televisor/internal/lifecycle"
	"github.com/rileyhilliard/televisor/internal/logger"
	"github.com/rileyhilliard/televisor/internal/remote"
	"github.com/rileyhilliard/televisor/internal/televisor"
)

type recordingPublisher struct {
	states []lifecycle.AppState
}

func (p *recordingPublisher) Publish(s lifecycle.AppState) {
	p.states = append(p.states, s)
}

type fakeTransport struct {
	connected bool
	sid       string
	pending   int
}

func (f *fakeTransport) Endpoint() string { return "http://10.0.0.5:3000" }
func (f *fakeTransport) Connected() bool  { return f.connected }
func (f *fakeTransport) SID() string      { return f.sid }
func (f *fakeTransport) Pending() int     { return f.pending }

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New("127.0.0.1:0", deps)
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	transport := &fakeTransport{connected: true, sid: "sock-7", pending: 2}
	s := newTestServer(t, Deps{Transport: transport})

	w := do(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","connected":true,"endpoint":"http://10.0.0.5:3000","sid":"sock-7","pending":2}`, w.Body.String())

	transport.connected = false
	w = do(t, s, http.MethodGet, "/healthz")
	assert.JSONEq(t, `{"status":"degraded","connected":false,"endpoint":"http://10.0.0.5:3000"}`, w.Body.String())

	w = do(t, newTestServer(t, Deps{}), http.MethodGet, "/healthz")
	assert.JSONEq(t, `{"status":"degraded","connected":false}`, w.Body.String())
}

func TestSnapshot(t *testing.T) {
	store := televisor.NewStore()
	store.Apply(lifecycle.PrimaryLoaded{Result: remote.Ok(remote.TelevisorRecord{
		ENF: "EF1-3", Predio: "p1", TipoFruta: "Limon", NombrePredio: "La Loma",
	})})
	store.Apply(lifecycle.ThroughputUpdated{Sample: feed.Sample{Processed: 72, Exported: 12}})
	store.Apply(lifecycle.Tick{Elapsed: 9})

	s := newTestServer(t, Deps{Snapshots: store})
	w := do(t, s, http.MethodGet, "/api/televisor")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Display struct {
			Stopwatch string `json:"stopwatch"`
			Fruit     string `json:"fruit"`
			ENF       string `json:"enf"`
			SiteName  string `json:"site_name"`
			Processed struct {
				Percent float64 `json:"percent"`
				Color   string  `json:"color"`
				Label   string  `json:"label"`
			} `json:"processed"`
			Yield struct {
				Percent float64 `json:"percent"`
				Color   string  `json:"color"`
			} `json:"yield"`
		} `json:"display"`
		AppState string `json:"app_state"`
		LastCall struct {
			Action string `json:"action"`
			Status string `json:"status"`
		} `json:"last_call"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "00:09", body.Display.Stopwatch)
	assert.Equal(t, "lemon", body.Display.Fruit)
	assert.Equal(t, "EF1-3", body.Display.ENF)
	assert.Equal(t, "La Loma", body.Display.SiteName)
	assert.Equal(t, 72.0, body.Display.Processed.Percent)
	assert.Equal(t, "green", body.Display.Processed.Color)
	assert.Equal(t, "72 kg", body.Display.Processed.Label)
	assert.Zero(t, body.Display.Yield.Percent)
	assert.Equal(t, "red", body.Display.Yield.Color)
	assert.Equal(t, "unknown", body.AppState)
	assert.Equal(t, "obtenerEF1Sistema", body.LastCall.Action)
	assert.Equal(t, "ok", body.LastCall.Status)
}

func TestSnapshotUnavailable(t *testing.T) {
	s := newTestServer(t, Deps{})
	w := do(t, s, http.MethodGet, "/api/televisor")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRefresh(t *testing.T) {
	calls := 0
	s := newTestServer(t, Deps{Refresh: func() { calls++ }})

	w := do(t, s, http.MethodPost, "/api/televisor/refresh")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, calls)

	w = do(t, newTestServer(t, Deps{}), http.MethodPost, "/api/televisor/refresh")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestState(t *testing.T) {
	pub := &recordingPublisher{}
	s := newTestServer(t, Deps{Transitions: pub})

	tests := []struct {
		path string
		code int
	}{
		{"/api/televisor/state/active", http.StatusOK},
		{"/api/televisor/state/background", http.StatusOK},
		{"/api/televisor/state/inactive", http.StatusOK},
		{"/api/televisor/state/asleep", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(t, s, http.MethodPut, tt.path)
			assert.Equal(t, tt.code, w.Code)
		})
	}

	assert.Equal(t, []lifecycle.AppState{
		lifecycle.StateActive,
		lifecycle.StateBackground,
		lifecycle.StateInactive,
	}, pub.states)
}

func TestRequestLogging(t *testing.T) {
	log := logger.NewBufferLogger()
	s := newTestServer(t, Deps{Logger: log})

	do(t, s, http.MethodGet, "/healthz")
	assert.True(t, log.Contains("debug", "GET /healthz 200"))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, Deps{Transport: &fakeTransport{connected: true}})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s := New(ln.Addr().String(), Deps{})
	err = s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, terrors.IsCode(err, terrors.ErrServer))
}
