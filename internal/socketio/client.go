package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rileyhilliard/televisor/internal/logger"
)

// DefaultPath is the socket.io handshake path.
const DefaultPath = "/socket.io/"

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

var (
	// ErrDisconnected is returned to calls whose connection dropped before the reply arrived.
	ErrDisconnected = errors.New("connection dropped before the reply arrived")
	// ErrNotConnected is returned when emitting while the client is reconnecting.
	ErrNotConnected = errors.New("not connected")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("client closed")

	errServerClosed = errors.New("server closed the connection")
)

// ackHandler receives the first reply argument, or an error if the call was abandoned.
type ackHandler func(reply json.RawMessage, err error)

// EventHandler receives server-initiated events.
type EventHandler func(event string, args []json.RawMessage)

// StateHandler is notified when the connection goes up or down.
type StateHandler func(connected bool)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for connection diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithPath overrides the handshake path (default /socket.io/).
func WithPath(path string) Option {
	return func(c *Client) { c.path = path }
}

// WithHeader adds HTTP headers to the websocket handshake.
func WithHeader(h http.Header) Option {
	return func(c *Client) { c.header = h }
}

// WithBackoff sets the reconnect delay bounds.
func WithBackoff(min, max time.Duration) Option {
	return func(c *Client) {
		c.backoffMin = min
		c.backoffMax = max
	}
}

// WithEventHandler registers a handler for events pushed by the server.
func WithEventHandler(h EventHandler) Option {
	return func(c *Client) { c.onEvent = h }
}

// WithStateHandler registers a handler for connection state changes.
func WithStateHandler(h StateHandler) Option {
	return func(c *Client) { c.onState = h }
}

// Client is a long-lived socket.io connection shared by every caller in the process.
type Client struct {
	endpoint   string
	path       string
	url        string
	header     http.Header
	dialer     *websocket.Dialer
	log        logger.Logger
	backoffMin time.Duration
	backoffMax time.Duration
	onEvent    EventHandler
	onState    StateHandler

	writeMu sync.Mutex

	mu         sync.Mutex
	conn       *websocket.Conn
	sid        string
	pingWindow time.Duration
	connected  bool
	closed     bool
	nextID     int
	pending    map[int]ackHandler
	done       chan struct{}
}

// BuildURL converts an http(s) or ws(s) endpoint into the Engine.IO websocket URL.
func BuildURL(endpoint, path string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}

	if path == "" {
		path = DefaultPath
	}
	u.Path = path

	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Dial connects to the endpoint and waits for the namespace CONNECT reply.
// The returned client keeps itself connected until Close is called.
func Dial(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	c := &Client{
		endpoint:   endpoint,
		path:       DefaultPath,
		dialer:     &websocket.Dialer{HandshakeTimeout: handshakeTimeout, Proxy: http.ProxyFromEnvironment},
		log:        logger.Noop(),
		backoffMin: time.Second,
		backoffMax: 5 * time.Second,
		pending:    make(map[int]ackHandler),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	u, err := BuildURL(endpoint, c.path)
	if err != nil {
		return nil, err
	}
	c.url = u

	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	go c.run(conn)
	return c, nil
}

// Endpoint returns the endpoint the client was dialed with.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Connected reports whether the namespace connection is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SID returns the socket.io session id of the current connection.
func (c *Client) SID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sid
}

// Pending returns the number of calls waiting for an acknowledgement.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Emit sends an event. If ack is non-nil it is invoked at most once: with
// the first reply argument, or with an error when the connection drops or
// the client closes. cancel forgets the call, after which ack is never
// invoked.
func (c *Client) Emit(event string, payload any, ack func(reply json.RawMessage, err error)) (cancel func(), err error) {
	id, err := c.emit(event, payload, ack)
	if err != nil {
		return func() {}, err
	}
	return func() { c.forget(id) }, nil
}

// EmitWithAck sends an event and blocks until the reply arrives, ctx ends,
// or the connection drops.
func (c *Client) EmitWithAck(ctx context.Context, event string, payload any) (json.RawMessage, error) {
	type result struct {
		reply json.RawMessage
		err   error
	}
	ch := make(chan result, 1)

	cancel, err := c.Emit(event, payload, func(reply json.RawMessage, err error) {
		ch <- result{reply: reply, err: err}
	})
	if err != nil {
		return nil, err
	}

	select {
	case res := <-ch:
		return res.reply, res.err
	case <-ctx.Done():
		cancel()
		return nil, ctx.Err()
	}
}

// Close disconnects from the namespace and stops reconnecting.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.connected = false
	pending := c.takePendingLocked()
	c.mu.Unlock()

	for _, h := range pending {
		h(nil, ErrClosed)
	}

	if conn == nil {
		return nil
	}
	_ = c.writeFrame(conn, Encode(Packet{Type: PacketDisconnect, ID: NoID}))
	return conn.Close()
}

func (c *Client) emit(event string, payload any, handler ackHandler) (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return NoID, ErrClosed
	}
	if !c.connected || c.conn == nil {
		c.mu.Unlock()
		return NoID, ErrNotConnected
	}
	conn := c.conn
	id := NoID
	if handler != nil {
		id = c.nextID
		c.nextID++
		c.pending[id] = handler
	}
	c.mu.Unlock()

	pkt, err := NewEvent(id, event, payload)
	if err != nil {
		c.forget(id)
		return NoID, err
	}

	c.log.Debug("emit %s (ack %d)", event, id)
	if err := c.writeFrame(conn, Encode(pkt)); err != nil {
		c.forget(id)
		return NoID, fmt.Errorf("write %s: %w", event, err)
	}
	return id, nil
}

func (c *Client) forget(id int) {
	if id == NoID {
		return
	}
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) takePendingLocked() []ackHandler {
	out := make([]ackHandler, 0, len(c.pending))
	for id, h := range c.pending {
		out = append(out, h)
		delete(c.pending, id)
	}
	return out
}

func (c *Client) writeFrame(conn *websocket.Conn, frame string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

// connect dials the websocket and performs the Engine.IO and namespace handshakes.
func (c *Client) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.url, err)
	}

	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)

	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read open packet: %w", err)
	}
	hs, err := parseOpen(string(data))
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := c.writeFrame(conn, Encode(Packet{Type: PacketConnect, ID: NoID})); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send connect: %w", err)
	}

	sid, err := c.awaitConnect(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	window := time.Duration(hs.PingInterval+hs.PingTimeout) * time.Millisecond
	if window > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(window))
	} else {
		_ = conn.SetReadDeadline(time.Time{})
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return nil, ErrClosed
	}
	c.conn = conn
	c.sid = sid
	c.pingWindow = window
	c.connected = true
	c.mu.Unlock()

	c.log.Info("connected to %s (sid %s)", c.endpoint, sid)
	if c.onState != nil {
		c.onState(true)
	}
	return conn, nil
}

// awaitConnect reads frames until the namespace CONNECT (or CONNECT_ERROR) arrives.
func (c *Client) awaitConnect(conn *websocket.Conn) (string, error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("await connect: %w", err)
		}
		frame := string(data)
		if frame == "" {
			continue
		}

		switch frame[0] {
		case enginePing:
			if err := c.writeFrame(conn, string(enginePong)); err != nil {
				return "", fmt.Errorf("answer ping: %w", err)
			}
			continue
		case engineClose:
			return "", errServerClosed
		case engineMessage:
		default:
			continue
		}

		pkt, err := Decode(frame)
		if err != nil {
			return "", err
		}
		switch pkt.Type {
		case PacketConnect:
			var payload struct {
				SID string `json:"sid"`
			}
			if len(pkt.Data) > 0 {
				_ = json.Unmarshal(pkt.Data, &payload)
			}
			return payload.SID, nil
		case PacketConnectError:
			return "", fmt.Errorf("namespace connect refused: %s", string(pkt.Data))
		}
	}
}

// run owns the connection: it reads until the socket drops, then reconnects.
func (c *Client) run(conn *websocket.Conn) {
	for {
		err := c.readLoop(conn)
		c.drop(conn, err)

		if c.isClosed() {
			return
		}

		conn = c.reconnect()
		if conn == nil {
			return
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.extendDeadline(conn)

		frame := string(data)
		if frame == "" {
			continue
		}

		switch frame[0] {
		case enginePing:
			if err := c.writeFrame(conn, string(enginePong)); err != nil {
				return err
			}
		case engineClose:
			return errServerClosed
		case enginePong, engineNoop:
		case engineMessage:
			if err := c.handlePacket(frame); err != nil {
				return err
			}
		default:
			c.log.Debug("ignoring engine frame %q", truncate(frame))
		}
	}
}

func (c *Client) extendDeadline(conn *websocket.Conn) {
	c.mu.Lock()
	window := c.pingWindow
	c.mu.Unlock()
	if window > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(window))
	}
}

func (c *Client) handlePacket(frame string) error {
	pkt, err := Decode(frame)
	if err != nil {
		c.log.Warn("dropping bad packet: %v", err)
		return nil
	}

	switch pkt.Type {
	case PacketAck:
		c.mu.Lock()
		handler, ok := c.pending[pkt.ID]
		delete(c.pending, pkt.ID)
		c.mu.Unlock()
		if !ok {
			c.log.Debug("ack %d has no pending call", pkt.ID)
			return nil
		}

		args, err := pkt.Args()
		if err != nil {
			handler(nil, err)
			return nil
		}
		reply := json.RawMessage("null")
		if len(args) > 0 {
			reply = args[0]
		}
		handler(reply, nil)

	case PacketEvent:
		name, args, err := pkt.Event()
		if err != nil {
			c.log.Warn("dropping bad event: %v", err)
			return nil
		}
		if c.onEvent != nil {
			c.onEvent(name, args)
		} else {
			c.log.Debug("unhandled server event %s", name)
		}

	case PacketDisconnect:
		return errServerClosed

	case PacketConnectError:
		c.log.Warn("server reported connect error: %s", string(pkt.Data))
	}
	return nil
}

func (c *Client) drop(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.connected = false
	}
	closed := c.closed
	pending := c.takePendingLocked()
	c.mu.Unlock()

	_ = conn.Close()
	for _, h := range pending {
		h(nil, ErrDisconnected)
	}

	if closed {
		return
	}
	c.log.Warn("connection to %s lost: %v", c.endpoint, cause)
	if c.onState != nil {
		c.onState(false)
	}
}

func (c *Client) reconnect() *websocket.Conn {
	delay := c.backoffMin
	for attempt := 1; ; attempt++ {
		select {
		case <-c.done:
			return nil
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
		conn, err := c.connect(ctx)
		cancel()
		if err == nil {
			return conn
		}
		if errors.Is(err, ErrClosed) {
			return nil
		}

		c.log.Debug("reconnect attempt %d failed: %v", attempt, err)
		delay *= 2
		if delay > c.backoffMax {
			delay = c.backoffMax
		}
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
