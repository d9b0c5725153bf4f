package ipc

import (
	"bufio"
	"fmt"
	"net"
)

// Client is a typed client for the daemon protocol, used by inputctl
// and by the end-to-end tests. It is not safe for concurrent use; the
// protocol itself is strictly ordered per connection.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to the daemon socket. The caller should Handshake
// before anything else.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection; handy for tests over
// net.Pipe.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, r: bufio.NewReader(conn)}
}

// Handshake performs the version exchange. A version mismatch comes
// back as an error carrying the daemon's explanation.
func (c *Client) Handshake() error {
	if err := writeHandshake(c.conn, ProtocolVersion); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}

	op, err := readOpcode(c.r)
	if err != nil {
		return fmt.Errorf("read handshake reply: %w", err)
	}
	switch op {
	case OpHandshake:
		version, err := readInt32(c.r)
		if err != nil {
			return err
		}
		if version != ProtocolVersion {
			return fmt.Errorf("daemon protocol version %d, want %d", version, ProtocolVersion)
		}
		return nil
	case OpError:
		msg, err := readErrorPayload(c.r)
		if err != nil {
			return fmt.Errorf("read error reply: %w", err)
		}
		return fmt.Errorf("daemon refused handshake: %s", msg)
	default:
		return fmt.Errorf("unexpected reply opcode %s", op)
	}
}

// StartCapture asks the daemon to begin forwarding physical events.
func (c *Client) StartCapture(mouse, keyboard bool) error {
	return writeStartCapture(c.conn, mouse, keyboard)
}

// StopCapture halts event forwarding.
func (c *Client) StopCapture() error {
	return writeStopCapture(c.conn)
}

// ConfigureResolution switches the virtual device to absolute mode at
// the given resolution, or back to relative mode with (0, 0).
func (c *Client) ConfigureResolution(width, height int32) error {
	return writeConfigureResolution(c.conn, width, height)
}

// Simulate injects one raw input event through the virtual device.
func (c *Client) Simulate(typ, code uint16, value int32) error {
	return writeSimulateEvent(c.conn, SimulateRequest{Type: typ, Code: code, Value: value})
}

// ReadEvent blocks until the next captured event arrives. An Error
// frame from the daemon is surfaced as a Go error; the connection is
// dead after that.
func (c *Client) ReadEvent() (InputEvent, error) {
	op, err := readOpcode(c.r)
	if err != nil {
		return InputEvent{}, err
	}
	switch op {
	case OpInputEvent:
		return readInputEventPayload(c.r)
	case OpError:
		msg, err := readErrorPayload(c.r)
		if err != nil {
			return InputEvent{}, err
		}
		return InputEvent{}, fmt.Errorf("daemon error: %s", msg)
	default:
		return InputEvent{}, fmt.Errorf("unexpected opcode %s", op)
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
