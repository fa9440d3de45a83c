package daemon

import (
	"net"
	"testing"
	"time"

	"github.com/Prometheus1400/remux/internal/protocol"
	"gotest.tools/v3/assert"
)

func testShell() shellSpec {
	return shellSpec{path: "/bin/sh", args: []string{"-i"}}
}

// dialPair returns two ends of an in-memory socket wrapped in the wire
// codec, plus the raw net.Conns so the test can close them.
func dialPair(t *testing.T) (daemonConn, clientConn *protocol.Conn, daemonRaw, clientRaw net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	return protocol.NewConn(a), protocol.NewConn(b), a, b
}

func awaitDaemonEvent(t *testing.T, conn *protocol.Conn, timeout time.Duration) protocol.DaemonEvent {
	t.Helper()
	type result struct {
		ev  protocol.DaemonEvent
		err error
	}
	ch := make(chan result, 1)
	go func() {
		ev, err := conn.ReadDaemonEvent()
		ch <- result{ev, err}
	}()
	select {
	case r := <-ch:
		assert.NilError(t, r.err)
		return r.ev
	case <-time.After(timeout):
		t.Fatal("timed out waiting for daemon event")
		return nil
	}
}

func TestClientConnectCreatesSessionAndEchoesActiveSession(t *testing.T) {
	mgr := spawnSessionManager(testShell(), "last", 24, 80)
	daemonSide, clientSide, daemonRaw, clientRaw := dialPair(t)
	defer daemonRaw.Close()
	defer clientRaw.Close()

	sid := newSessionID()
	spawnClientConnection(daemonSide, mgr, sid)

	ev := awaitDaemonEvent(t, clientSide, 2*time.Second)
	active, ok := ev.(protocol.DaemonActiveSession)
	assert.Assert(t, ok, "expected DaemonActiveSession, got %#v", ev)
	assert.Equal(t, active.SessionID, sid)

	assert.Assert(t, mgr.sessionExists(sid))
}

func TestListSessionIDsReflectsLiveSessions(t *testing.T) {
	mgr := spawnSessionManager(testShell(), "last", 24, 80)

	assert.Equal(t, len(mgr.listSessionIDs()), 0)

	daemonSide, clientSide, daemonRaw, clientRaw := dialPair(t)
	defer daemonRaw.Close()
	defer clientRaw.Close()

	sid := newSessionID()
	spawnClientConnection(daemonSide, mgr, sid)
	awaitDaemonEvent(t, clientSide, 2*time.Second)

	ids := mgr.listSessionIDs()
	assert.Equal(t, len(ids), 1)
	assert.Equal(t, ids[0], sid)
}

func TestSessionExistsFalseForUnknownID(t *testing.T) {
	mgr := spawnSessionManager(testShell(), "last", 24, 80)
	assert.Assert(t, !mgr.sessionExists(12345))
}

func TestRemoveUint32(t *testing.T) {
	in := []uint32{1, 2, 3, 2}
	out := removeUint32(in, 2)
	assert.DeepEqual(t, out, []uint32{1, 3})
}
