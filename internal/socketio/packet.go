package socketio

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Engine.IO packet types, the first byte of every websocket frame.
const (
	engineOpen    = '0'
	engineClose   = '1'
	enginePing    = '2'
	enginePong    = '3'
	engineMessage = '4'
	engineNoop    = '6'
)

// PacketType is the socket.io packet type carried inside an Engine.IO message.
type PacketType int

const (
	PacketConnect PacketType = iota
	PacketDisconnect
	PacketEvent
	PacketAck
	PacketConnectError
	PacketBinaryEvent
	PacketBinaryAck
)

// String returns the protocol name of the packet type.
func (t PacketType) String() string {
	switch t {
	case PacketConnect:
		return "CONNECT"
	case PacketDisconnect:
		return "DISCONNECT"
	case PacketEvent:
		return "EVENT"
	case PacketAck:
		return "ACK"
	case PacketConnectError:
		return "CONNECT_ERROR"
	case PacketBinaryEvent:
		return "BINARY_EVENT"
	case PacketBinaryAck:
		return "BINARY_ACK"
	default:
		return "UNKNOWN"
	}
}

// NoID marks a packet without an acknowledgement id.
const NoID = -1

// Packet is a decoded socket.io packet.
type Packet struct {
	Type      PacketType
	Namespace string // "/" for the default namespace
	ID        int    // NoID when absent
	Data      json.RawMessage
}

// HasID reports whether the packet carries an acknowledgement id.
func (p Packet) HasID() bool {
	return p.ID >= 0
}

// Encode renders the packet as an Engine.IO message frame, e.g. `42["Desktop",{...}]`.
func Encode(p Packet) string {
	var b strings.Builder
	b.WriteByte(engineMessage)
	b.WriteString(strconv.Itoa(int(p.Type)))
	if p.Namespace != "" && p.Namespace != "/" {
		b.WriteString(p.Namespace)
		b.WriteByte(',')
	}
	if p.HasID() {
		b.WriteString(strconv.Itoa(p.ID))
	}
	b.Write(p.Data)
	return b.String()
}

// Decode parses an Engine.IO message frame into a socket.io packet.
func Decode(frame string) (Packet, error) {
	if len(frame) < 2 || frame[0] != engineMessage {
		return Packet{}, fmt.Errorf("not a socket.io message frame: %q", truncate(frame))
	}

	t := frame[1]
	if t < '0' || t > '6' {
		return Packet{}, fmt.Errorf("unknown socket.io packet type %q", t)
	}

	p := Packet{Type: PacketType(t - '0'), Namespace: "/", ID: NoID}
	if p.Type == PacketBinaryEvent || p.Type == PacketBinaryAck {
		return Packet{}, fmt.Errorf("binary socket.io packets are not supported")
	}

	rest := frame[2:]
	if strings.HasPrefix(rest, "/") {
		if i := strings.IndexByte(rest, ','); i >= 0 {
			p.Namespace = rest[:i]
			rest = rest[i+1:]
		} else {
			p.Namespace = rest
			rest = ""
		}
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		id, err := strconv.Atoi(rest[:digits])
		if err != nil {
			return Packet{}, fmt.Errorf("bad ack id in %q: %w", truncate(frame), err)
		}
		p.ID = id
		rest = rest[digits:]
	}

	if rest != "" {
		if !json.Valid([]byte(rest)) {
			return Packet{}, fmt.Errorf("invalid JSON payload in %q", truncate(frame))
		}
		p.Data = json.RawMessage(rest)
	}

	return p, nil
}

// NewEvent builds an EVENT packet: the data is the array [event, args...].
func NewEvent(id int, event string, args ...any) (Packet, error) {
	items := make([]any, 0, len(args)+1)
	items = append(items, event)
	items = append(items, args...)

	data, err := json.Marshal(items)
	if err != nil {
		return Packet{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Packet{Type: PacketEvent, Namespace: "/", ID: id, Data: data}, nil
}

// NewAck builds an ACK packet replying to id with the given arguments.
func NewAck(id int, args ...any) (Packet, error) {
	if args == nil {
		args = []any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return Packet{}, fmt.Errorf("encode ack payload: %w", err)
	}
	return Packet{Type: PacketAck, Namespace: "/", ID: id, Data: data}, nil
}

// Args splits the packet's JSON array payload into its elements.
func (p Packet) Args() ([]json.RawMessage, error) {
	if len(p.Data) == 0 {
		return nil, nil
	}
	var args []json.RawMessage
	if err := json.Unmarshal(p.Data, &args); err != nil {
		return nil, fmt.Errorf("%s payload is not an array: %w", p.Type, err)
	}
	return args, nil
}

// Event returns the event name and arguments of an EVENT packet.
func (p Packet) Event() (string, []json.RawMessage, error) {
	args, err := p.Args()
	if err != nil {
		return "", nil, err
	}
	if len(args) == 0 {
		return "", nil, fmt.Errorf("event packet without a name")
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", nil, fmt.Errorf("event name is not a string: %w", err)
	}
	return name, args[1:], nil
}

// handshake is the payload of the Engine.IO open packet.
type handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

func parseOpen(frame string) (handshake, error) {
	var hs handshake
	if len(frame) == 0 || frame[0] != engineOpen {
		return hs, fmt.Errorf("expected Engine.IO open packet, got %q", truncate(frame))
	}
	if err := json.Unmarshal([]byte(frame[1:]), &hs); err != nil {
		return hs, fmt.Errorf("bad Engine.IO open payload: %w", err)
	}
	return hs, nil
}

func truncate(s string) string {
	const max = 64
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
