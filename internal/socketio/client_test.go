package socketio_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rileyhilliard/televisor/internal/socketio"
	sitesting "github.com/rileyhilliard/televisor/internal/socketio/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(event string, args []json.RawMessage) (any, bool) {
	if len(args) == 0 {
		return nil, true
	}
	return args[0], true
}

func never(string, []json.RawMessage) (any, bool) {
	return nil, false
}

func dial(t *testing.T, srv *sitesting.FakeServer, opts ...socketio.Option) *socketio.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts = append([]socketio.Option{socketio.WithBackoff(10*time.Millisecond, 50*time.Millisecond)}, opts...)
	c, err := socketio.Dial(ctx, srv.URL, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		endpoint string
		path     string
		want     string
		wantErr  bool
	}{
		{endpoint: "http://192.168.0.172:3000", want: "ws://192.168.0.172:3000/socket.io/?EIO=4&transport=websocket"},
		{endpoint: "https://example.com", path: "/rt/", want: "wss://example.com/rt/?EIO=4&transport=websocket"},
		{endpoint: "ws://host:1", want: "ws://host:1/socket.io/?EIO=4&transport=websocket"},
		{endpoint: "ftp://host", wantErr: true},
		{endpoint: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			got, err := socketio.BuildURL(tt.endpoint, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDial_ConnectsToNamespace(t *testing.T) {
	srv := sitesting.NewFakeServer(echo)
	defer srv.Close()

	c := dial(t, srv)

	assert.True(t, c.Connected())
	assert.Equal(t, "sock-1", c.SID())
	assert.Equal(t, srv.URL, c.Endpoint())
	assert.Equal(t, 1, srv.Connects())
}

func TestDial_Refused(t *testing.T) {
	srv := sitesting.NewFakeServer(echo)
	srv.RefuseConnect = true
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := socketio.Dial(ctx, srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestDial_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := socketio.Dial(ctx, "http://127.0.0.1:1")
	assert.Error(t, err)
}

func TestEmitWithAck_ReturnsFirstReplyArgument(t *testing.T) {
	srv := sitesting.NewFakeServer(echo)
	defer srv.Close()
	c := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := c.EmitWithAck(ctx, "Desktop", map[string]any{"data": map[string]string{"action": "obtenerEF1Sistema"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"action":"obtenerEF1Sistema"}}`, string(reply))

	events := srv.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Desktop", events[0].Name)
	assert.Equal(t, 0, c.Pending())
}

func TestEmit_CallbackInvokedOnce(t *testing.T) {
	srv := sitesting.NewFakeServer(func(string, []json.RawMessage) (any, bool) {
		return map[string]string{"status": "ok"}, true
	})
	defer srv.Close()
	c := dial(t, srv)

	var calls atomic.Int32
	done := make(chan json.RawMessage, 1)
	_, err := c.Emit("Desktop", map[string]string{"x": "y"}, func(reply json.RawMessage, err error) {
		assert.NoError(t, err)
		calls.Add(1)
		done <- reply
	})
	require.NoError(t, err)

	select {
	case reply := <-done:
		assert.JSONEq(t, `{"status":"ok"}`, string(reply))
	case <-time.After(2 * time.Second):
		t.Fatal("ack never arrived")
	}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmit_WithoutAck(t *testing.T) {
	srv := sitesting.NewFakeServer(echo)
	defer srv.Close()
	c := dial(t, srv)

	_, err := c.Emit("Desktop", "fire-and-forget", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(srv.Events()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, socketio.NoID, srv.Events()[0].ID)
	assert.Equal(t, 0, c.Pending())
}

func TestEmit_CancelForgetsCall(t *testing.T) {
	srv := sitesting.NewFakeServer(never)
	defer srv.Close()
	c := dial(t, srv)

	var calls atomic.Int32
	cancel, err := c.Emit("Desktop", "hello", func(json.RawMessage, error) {
		calls.Add(1)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Pending())

	cancel()
	assert.Equal(t, 0, c.Pending())

	srv.DropConnections()
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load(), "a cancelled ack is never invoked")
}

func TestEmit_DropReportsError(t *testing.T) {
	srv := sitesting.NewFakeServer(never)
	defer srv.Close()
	c := dial(t, srv)

	errCh := make(chan error, 1)
	_, err := c.Emit("Desktop", "hello", func(_ json.RawMessage, err error) {
		errCh <- err
	})
	require.NoError(t, err)

	srv.DropConnections()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, socketio.ErrDisconnected)
	case <-time.After(2 * time.Second):
		t.Fatal("ack was not told about the drop")
	}
}

func TestEmitWithAck_ContextTimeout(t *testing.T) {
	srv := sitesting.NewFakeServer(never)
	defer srv.Close()
	c := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.EmitWithAck(ctx, "Desktop", "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, c.Pending(), "timed out calls are forgotten")
}

func TestEmitWithAck_DropFailsPending(t *testing.T) {
	srv := sitesting.NewFakeServer(never)
	defer srv.Close()
	c := dial(t, srv)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.EmitWithAck(context.Background(), "Desktop", "hello")
		errCh <- err
	}()

	require.Eventually(t, func() bool { return c.Pending() == 1 }, 2*time.Second, 5*time.Millisecond)
	srv.DropConnections()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, socketio.ErrDisconnected)
	case <-time.After(2 * time.Second):
		t.Fatal("pending call was not failed on drop")
	}
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	srv := sitesting.NewFakeServer(echo)
	defer srv.Close()

	var mu sync.Mutex
	var states []bool
	c := dial(t, srv, socketio.WithStateHandler(func(connected bool) {
		mu.Lock()
		states = append(states, connected)
		mu.Unlock()
	}))

	srv.DropConnections()

	require.Eventually(t, func() bool { return srv.Connects() == 2 && c.Connected() }, 3*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := c.EmitWithAck(ctx, "Desktop", "again")
	require.NoError(t, err)
	assert.JSONEq(t, `"again"`, string(reply))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false, true}, states)
}

func TestClient_AnswersPing(t *testing.T) {
	srv := sitesting.NewFakeServer(echo)
	defer srv.Close()
	_ = dial(t, srv)

	srv.Ping()

	require.Eventually(t, func() bool { return srv.Pongs() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestClient_ServerEvents(t *testing.T) {
	srv := sitesting.NewFakeServer(echo)
	defer srv.Close()

	got := make(chan string, 1)
	_ = dial(t, srv, socketio.WithEventHandler(func(event string, args []json.RawMessage) {
		got <- event + " " + string(args[0])
	}))

	require.NoError(t, srv.Push("Televisor", map[string]int{"n": 1}))

	select {
	case s := <-got:
		assert.Equal(t, `Televisor {"n":1}`, s)
	case <-time.After(2 * time.Second):
		t.Fatal("server event not delivered")
	}
}

func TestClose(t *testing.T) {
	srv := sitesting.NewFakeServer(echo)
	defer srv.Close()
	c := dial(t, srv)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "close is idempotent")

	assert.False(t, c.Connected())
	_, err := c.EmitWithAck(context.Background(), "Desktop", "x")
	assert.ErrorIs(t, err, socketio.ErrClosed)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, srv.Connects(), "closed clients do not reconnect")
}
