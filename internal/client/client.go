// Package client is the daemon-facing half of the attach CLI: dialing
// the control socket, running the handshake, and forwarding a raw
// terminal to an attached session. Client-side TUI rendering is out of
// scope; this package does raw byte passthrough only.
package client

import (
	"fmt"
	"net"

	"github.com/Prometheus1400/remux/internal/protocol"
)

// Client manages a connection to the remux daemon.
type Client struct {
	conn    *protocol.Conn
	netConn net.Conn
}

// Connect dials the daemon's Unix socket.
func Connect(sockPath string) (*Client, error) {
	nc, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("client: connect to daemon: %w", err)
	}
	return &Client{conn: protocol.NewConn(nc), netConn: nc}, nil
}

// Close closes the connection to the daemon.
func (c *Client) Close() error { return c.netConn.Close() }

// Attach performs the handshake half of an attach: sessionID 0 asks the
// daemon to create a fresh session. It returns the session that was
// attached to and whether the daemon created it.
func (c *Client) Attach(sessionID uint32) (attached uint32, created bool, err error) {
	if err := c.conn.WriteHandshakeRequest(protocol.HandshakeRequest{
		Attach: &protocol.AttachRequest{SessionID: sessionID},
	}); err != nil {
		return 0, false, fmt.Errorf("client: send attach request: %w", err)
	}
	resp, err := c.conn.ReadHandshakeResponse()
	if err != nil {
		return 0, false, fmt.Errorf("client: read attach response: %w", err)
	}
	if resp.Result.Type != "Success" {
		return 0, false, fmt.Errorf("client: attach failed: %s", resp.Result.Message)
	}
	return resp.Result.SessionID, resp.Result.Created, nil
}

// ListSessions asks the daemon for every live session id without
// attaching to any of them.
func (c *Client) ListSessions() ([]uint32, error) {
	if err := c.conn.WriteHandshakeRequest(protocol.HandshakeRequest{
		SessionsList: &protocol.SessionsListRequest{},
	}); err != nil {
		return nil, fmt.Errorf("client: send sessions list request: %w", err)
	}
	resp, err := c.conn.ReadHandshakeResponse()
	if err != nil {
		return nil, fmt.Errorf("client: read sessions list response: %w", err)
	}
	if resp.Result.Type != "Success" {
		return nil, fmt.Errorf("client: list failed: %s", resp.Result.Message)
	}
	return resp.Result.SessionIDs, nil
}

// WriteCliEvent forwards a parsed client-bound event to the daemon.
func (c *Client) WriteCliEvent(ev protocol.CliEvent) error { return c.conn.WriteCliEvent(ev) }

// ReadDaemonEvent reads the next daemon-bound event.
func (c *Client) ReadDaemonEvent() (protocol.DaemonEvent, error) { return c.conn.ReadDaemonEvent() }

// DaemonRunning reports whether a daemon is already listening on sock.
func DaemonRunning(sock string) bool {
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
