package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameSize bounds a single frame so a corrupt or hostile peer cannot
// make the daemon allocate unbounded memory for a length prefix.
const maxFrameSize uint32 = 16 << 20 // 16MB

// Conn wraps a socket with the wire framing of §6: every message is a
// 4-byte big-endian length prefix followed by that many bytes of UTF-8
// JSON.
type Conn struct {
	rw io.ReadWriter
}

func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw}
}

func (c *Conn) writeFrame(payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := c.rw.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := c.rw.Write(payload)
	return err
}

func (c *Conn) readFrame() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.rw, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 {
		return nil, fmt.Errorf("protocol: empty message frame")
	}
	if length > maxFrameSize {
		return nil, fmt.Errorf("protocol: message frame too large: %d bytes", length)
	}
	frame := make([]byte, length)
	if _, err := io.ReadFull(c.rw, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// WriteHandshakeRequest sends the initial request body a client opens a
// connection with.
func (c *Conn) WriteHandshakeRequest(req HandshakeRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("protocol: marshal handshake request: %w", err)
	}
	return c.writeFrame(payload)
}

// ReadHandshakeRequest reads the request body the daemon accepts before
// deciding whether to create or attach.
func (c *Conn) ReadHandshakeRequest() (HandshakeRequest, error) {
	var req HandshakeRequest
	frame, err := c.readFrame()
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(frame, &req); err != nil {
		return req, fmt.Errorf("protocol: unmarshal handshake request: %w", err)
	}
	return req, nil
}

// WriteHandshakeResponse sends the daemon's reply to a handshake
// request.
func (c *Conn) WriteHandshakeResponse(resp HandshakeResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("protocol: marshal handshake response: %w", err)
	}
	return c.writeFrame(payload)
}

// ReadHandshakeResponse reads the daemon's reply to a handshake request.
func (c *Conn) ReadHandshakeResponse() (HandshakeResponse, error) {
	var resp HandshakeResponse
	frame, err := c.readFrame()
	if err != nil {
		return resp, err
	}
	if err := json.Unmarshal(frame, &resp); err != nil {
		return resp, fmt.Errorf("protocol: unmarshal handshake response: %w", err)
	}
	return resp, nil
}

// WriteCliEvent sends a post-handshake client→daemon event.
func (c *Conn) WriteCliEvent(ev CliEvent) error {
	payload, err := MarshalCliEvent(ev)
	if err != nil {
		return err
	}
	return c.writeFrame(payload)
}

// ReadCliEvent reads a post-handshake client→daemon event.
func (c *Conn) ReadCliEvent() (CliEvent, error) {
	frame, err := c.readFrame()
	if err != nil {
		return nil, err
	}
	return UnmarshalCliEvent(frame)
}

// WriteDaemonEvent sends a post-handshake daemon→client event.
func (c *Conn) WriteDaemonEvent(ev DaemonEvent) error {
	payload, err := MarshalDaemonEvent(ev)
	if err != nil {
		return err
	}
	return c.writeFrame(payload)
}

// ReadDaemonEvent reads a post-handshake daemon→client event.
func (c *Conn) ReadDaemonEvent() (DaemonEvent, error) {
	frame, err := c.readFrame()
	if err != nil {
		return nil, err
	}
	return UnmarshalDaemonEvent(frame)
}
