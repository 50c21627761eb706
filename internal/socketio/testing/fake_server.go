// Package testing provides a fake socket.io server for exercising clients
// without a real Desktop backend.
package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rileyhilliard/televisor/internal/socketio"
)

// Handler answers an event. Returning ok=false leaves the call unacknowledged.
type Handler func(event string, args []json.RawMessage) (reply any, ok bool)

// Event is an event received by the fake server.
type Event struct {
	Name string
	Args []json.RawMessage
	ID   int
}

type fakeConn struct {
	ws  *websocket.Conn
	wmu sync.Mutex
}

func (c *fakeConn) write(frame string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, []byte(frame))
}

// FakeServer speaks just enough Engine.IO v4 / socket.io v5 for the client.
type FakeServer struct {
	URL string

	// PingInterval and PingTimeout (ms) are advertised in the open packet.
	PingInterval int
	PingTimeout  int

	// RefuseConnect answers CONNECT with CONNECT_ERROR.
	RefuseConnect bool

	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	handler  Handler
	events   []Event
	conns    map[*fakeConn]struct{}
	connects int
	pongs    int
}

// NewFakeServer starts a fake server that answers events with handler.
func NewFakeServer(handler Handler) *FakeServer {
	s := &FakeServer{
		PingInterval: 25000,
		PingTimeout:  20000,
		handler:      handler,
		conns:        make(map[*fakeConn]struct{}),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	s.URL = s.srv.URL
	return s
}

// SetHandler swaps the event handler.
func (s *FakeServer) SetHandler(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Close shuts the server down.
func (s *FakeServer) Close() {
	s.DropConnections()
	s.srv.Close()
}

// Events returns every event received so far.
func (s *FakeServer) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Connects returns how many namespace connections were accepted.
func (s *FakeServer) Connects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

// Pongs returns how many pong frames clients sent.
func (s *FakeServer) Pongs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pongs
}

// DropConnections closes every open websocket from the server side.
func (s *FakeServer) DropConnections() {
	for _, c := range s.snapshotConns() {
		_ = c.ws.Close()
	}
}

// Ping sends an Engine.IO ping to every connected client.
func (s *FakeServer) Ping() {
	for _, c := range s.snapshotConns() {
		_ = c.write("2")
	}
}

// Push emits a server-initiated event to every connected client.
func (s *FakeServer) Push(event string, args ...any) error {
	pkt, err := socketio.NewEvent(socketio.NoID, event, args...)
	if err != nil {
		return err
	}
	for _, c := range s.snapshotConns() {
		if err := c.write(socketio.Encode(pkt)); err != nil {
			return err
		}
	}
	return nil
}

func (s *FakeServer) snapshotConns() []*fakeConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*fakeConn, 0, len(s.conns))
	for c := range s.conns {
		out = append(out, c)
	}
	return out
}

func (s *FakeServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("EIO") != "4" || r.URL.Query().Get("transport") != "websocket" {
		http.Error(w, "unsupported transport", http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &fakeConn{ws: ws}

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	open := fmt.Sprintf(`0{"sid":"eio-%p","upgrades":[],"pingInterval":%d,"pingTimeout":%d,"maxPayload":1000000}`,
		c, s.PingInterval, s.PingTimeout)
	if err := c.write(open); err != nil {
		return
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		frame := string(data)

		switch {
		case frame == "3":
			s.mu.Lock()
			s.pongs++
			s.mu.Unlock()
		case frame == "40" || strings.HasPrefix(frame, "40{"):
			if s.RefuseConnect {
				_ = c.write(`44{"message":"not authorized"}`)
				continue
			}
			s.mu.Lock()
			s.connects++
			n := s.connects
			s.mu.Unlock()
			_ = c.write(fmt.Sprintf(`40{"sid":"sock-%d"}`, n))
		case frame == "41":
			return
		case strings.HasPrefix(frame, "42"):
			s.handleEvent(c, frame)
		}
	}
}

func (s *FakeServer) handleEvent(c *fakeConn, frame string) {
	pkt, err := socketio.Decode(frame)
	if err != nil {
		return
	}
	name, args, err := pkt.Event()
	if err != nil {
		return
	}

	s.mu.Lock()
	s.events = append(s.events, Event{Name: name, Args: args, ID: pkt.ID})
	handler := s.handler
	s.mu.Unlock()

	if !pkt.HasID() || handler == nil {
		return
	}

	reply, ok := handler(name, args)
	if !ok {
		return
	}
	ack, err := socketio.NewAck(pkt.ID, reply)
	if err != nil {
		return
	}
	_ = c.write(socketio.Encode(ack))
}
