package client

import (
	"net"
	"testing"

	"github.com/Prometheus1400/remux/internal/protocol"
	"gotest.tools/v3/assert"
)

// fakeDaemon answers exactly one handshake request the way the real
// daemon would, letting these tests exercise Client's wire encoding
// without spinning up the actor graph in internal/daemon.
func fakeDaemon(t *testing.T, conn net.Conn, respond func(protocol.HandshakeRequest) protocol.HandshakeResponse) {
	t.Helper()
	c := protocol.NewConn(conn)
	req, err := c.ReadHandshakeRequest()
	assert.NilError(t, err)
	assert.NilError(t, c.WriteHandshakeResponse(respond(req)))
}

func clientOverPipe(t *testing.T) (*Client, net.Conn) {
	t.Helper()
	clientRaw, daemonRaw := net.Pipe()
	return &Client{conn: protocol.NewConn(clientRaw), netConn: clientRaw}, daemonRaw
}

func TestAttachCreatesNewSessionWhenIDIsZero(t *testing.T) {
	c, daemonRaw := clientOverPipe(t)
	defer daemonRaw.Close()

	go fakeDaemon(t, daemonRaw, func(req protocol.HandshakeRequest) protocol.HandshakeResponse {
		assert.Assert(t, req.Attach != nil)
		assert.Equal(t, req.Attach.SessionID, uint32(0))
		return protocol.HandshakeResponse{
			Result: protocol.HandshakeResult{Type: "Success", Created: true, SessionID: 42},
		}
	})

	sessionID, created, err := c.Attach(0)
	assert.NilError(t, err)
	assert.Equal(t, sessionID, uint32(42))
	assert.Assert(t, created)
}

func TestAttachReturnsErrorOnFailureResult(t *testing.T) {
	c, daemonRaw := clientOverPipe(t)
	defer daemonRaw.Close()

	go fakeDaemon(t, daemonRaw, func(req protocol.HandshakeRequest) protocol.HandshakeResponse {
		return protocol.HandshakeResponse{
			Result: protocol.HandshakeResult{Type: "Failure", Message: "no such session"},
		}
	})

	_, _, err := c.Attach(7)
	assert.ErrorContains(t, err, "no such session")
}

func TestListSessionsReturnsIDs(t *testing.T) {
	c, daemonRaw := clientOverPipe(t)
	defer daemonRaw.Close()

	go fakeDaemon(t, daemonRaw, func(req protocol.HandshakeRequest) protocol.HandshakeResponse {
		assert.Assert(t, req.SessionsList != nil)
		return protocol.HandshakeResponse{
			Result: protocol.HandshakeResult{Type: "Success", SessionIDs: []uint32{1, 2, 3}},
		}
	})

	ids, err := c.ListSessions()
	assert.NilError(t, err)
	assert.DeepEqual(t, ids, []uint32{1, 2, 3})
}

func TestDaemonRunningFalseWhenNothingListening(t *testing.T) {
	assert.Assert(t, !DaemonRunning("/nonexistent/remux-test.sock"))
}
