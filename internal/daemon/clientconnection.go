package daemon

import (
	"errors"
	"log/slog"

	"github.com/Prometheus1400/remux/internal/layout"
	"github.com/Prometheus1400/remux/internal/protocol"
)

// clientConnectionEvent is the inbound event sum type of §4.6.
type clientConnectionEvent interface{ isClientConnectionEvent() }

type ccAttachToSession struct{ sessionID uint32 }
type ccSuccessAttach struct{ sessionID uint32 }
type ccFailedAttach struct{ sessionID uint32 }
type ccDetachFromSession struct{}
type ccSessionOutput struct{ data []byte }
type ccNewSession struct{ sessionID uint32 }
type ccDeletedSession struct{ sessionID uint32 }
type ccCurrentSessions struct{ sessionIDs []uint32 }
type ccSwitchSessionOptions struct{ sessionIDs []uint32 }
type ccDisconnect struct{}

func (ccAttachToSession) isClientConnectionEvent()     {}
func (ccSuccessAttach) isClientConnectionEvent()       {}
func (ccFailedAttach) isClientConnectionEvent()        {}
func (ccDetachFromSession) isClientConnectionEvent()   {}
func (ccSessionOutput) isClientConnectionEvent()       {}
func (ccNewSession) isClientConnectionEvent()          {}
func (ccDeletedSession) isClientConnectionEvent()      {}
func (ccCurrentSessions) isClientConnectionEvent()     {}
func (ccSwitchSessionOptions) isClientConnectionEvent() {}
func (ccDisconnect) isClientConnectionEvent()          {}

// clientState is the three-state machine of §4.6.
type clientState int

const (
	stateUnattached clientState = iota
	stateAttaching
	stateAttached
)

// ClientConnection is the per-socket endpoint actor. Grounded on
// daemon/src/actors/client_connection.rs; its state machine governs
// when inbound CliEvents are forwarded to the SessionManager, per the
// table in §4.6.
type ClientConnection struct {
	id      uint32
	conn    *protocol.Conn
	manager SessionManagerHandle

	events chan clientConnectionEvent
	done   chan struct{}

	state     clientState
	sessionID uint32
}

// ClientConnectionHandle is the clonable handle to a running
// ClientConnection.
type ClientConnectionHandle struct {
	client *ClientConnection
}

func (h ClientConnectionHandle) send(ev clientConnectionEvent) bool {
	if h.client == nil {
		return false
	}
	select {
	case h.client.events <- ev:
		return true
	case <-h.client.done:
		return false
	}
}

func (h ClientConnectionHandle) SuccessAttachToSession(sessionID uint32) bool {
	return h.send(ccSuccessAttach{sessionID})
}
func (h ClientConnectionHandle) FailedAttachToSession(sessionID uint32) bool {
	return h.send(ccFailedAttach{sessionID})
}
func (h ClientConnectionHandle) SessionOutput(data []byte) bool {
	return h.send(ccSessionOutput{data})
}
func (h ClientConnectionHandle) NewSession(sessionID uint32) bool {
	return h.send(ccNewSession{sessionID})
}
func (h ClientConnectionHandle) DeletedSession(sessionID uint32) bool {
	return h.send(ccDeletedSession{sessionID})
}
func (h ClientConnectionHandle) CurrentSessions(ids []uint32) bool {
	return h.send(ccCurrentSessions{ids})
}
func (h ClientConnectionHandle) SwitchSessionOptions(ids []uint32) bool {
	return h.send(ccSwitchSessionOptions{ids})
}
func (h ClientConnectionHandle) Disconnect() bool { return h.send(ccDisconnect{}) }

// spawnClientConnection starts a ClientConnection over an already
// accepted, handshake-framed socket and immediately kicks off an attach
// to sessionID (creating it if it does not exist, matching the
// always-true create flag the original source's AttachToSession path
// uses).
func spawnClientConnection(conn *protocol.Conn, manager SessionManagerHandle, sessionID uint32) ClientConnectionHandle {
	c := &ClientConnection{
		id:      newClientID(),
		conn:    conn,
		manager: manager,
		events:  make(chan clientConnectionEvent, 10),
		done:    make(chan struct{}),
		state:   stateUnattached,
	}
	h := ClientConnectionHandle{client: c}

	go c.run(h)
	h.send(ccAttachToSession{sessionID})
	go c.readLoop(h)

	return h
}

func (c *ClientConnection) run(self ClientConnectionHandle) {
	defer close(c.done)
	for ev := range c.events {
		switch e := ev.(type) {
		case ccAttachToSession:
			c.manager.ClientConnect(c.id, self, e.sessionID, true)
			c.state = stateAttaching
			c.sessionID = e.sessionID
		case ccSuccessAttach:
			c.state = stateAttached
			c.sessionID = e.sessionID
			if err := c.conn.WriteDaemonEvent(protocol.DaemonActiveSession{SessionID: e.sessionID}); err != nil {
				slog.Debug("client connection: write active session", "err", err)
				return
			}
		case ccFailedAttach:
			_ = c.conn.WriteDaemonEvent(protocol.DaemonDisconnected{})
			return
		case ccDetachFromSession:
			c.state = stateUnattached
			if err := c.conn.WriteDaemonEvent(protocol.DaemonDisconnected{}); err != nil {
				slog.Debug("client connection: write detach", "err", err)
				return
			}
		case ccDisconnect:
			_ = c.conn.WriteDaemonEvent(protocol.DaemonDisconnected{})
			return
		case ccSessionOutput:
			if err := c.conn.WriteDaemonEvent(protocol.DaemonRaw{Data: e.data}); err != nil {
				slog.Debug("client connection: write session output", "err", err)
				return
			}
		case ccNewSession:
			if err := c.conn.WriteDaemonEvent(protocol.DaemonNewSession{SessionID: e.sessionID}); err != nil {
				return
			}
		case ccDeletedSession:
			if err := c.conn.WriteDaemonEvent(protocol.DaemonDeletedSession{SessionID: e.sessionID}); err != nil {
				return
			}
		case ccCurrentSessions:
			if err := c.conn.WriteDaemonEvent(protocol.DaemonCurrentSessions{SessionIDs: e.sessionIDs}); err != nil {
				return
			}
		case ccSwitchSessionOptions:
			if err := c.conn.WriteDaemonEvent(protocol.DaemonSwitchSessionOptions{SessionIDs: e.sessionIDs}); err != nil {
				return
			}
		}
	}
}

// readLoop is the inbound half of §4.6: CliEvents are only acted on
// while Attached. A read error at any point disconnects the client from
// the SessionManager and terminates the connection.
func (c *ClientConnection) readLoop(self ClientConnectionHandle) {
	for {
		ev, err := c.conn.ReadCliEvent()
		if err != nil {
			if !errors.Is(err, errClientClosed) {
				slog.Debug("client connection: read error", "client_id", c.id, "err", err)
			}
			c.manager.ClientDisconnect(c.id)
			self.send(ccDisconnect{})
			return
		}
		if c.state != stateAttached {
			continue
		}

		switch e := ev.(type) {
		case protocol.CliRaw:
			c.manager.UserInput(c.id, e.Data)
		case protocol.CliKillPane:
			c.manager.UserKillPane(c.id)
		case protocol.CliNextPane:
			c.manager.UserIteratePane(c.id, true)
		case protocol.CliPrevPane:
			c.manager.UserIteratePane(c.id, false)
		case protocol.CliSplitPaneVertical:
			c.manager.UserSplitPane(c.id, layout.Vertical)
		case protocol.CliSplitPaneHorizontal:
			c.manager.UserSplitPane(c.id, layout.Horizontal)
		case protocol.CliDetach:
			c.manager.ClientDisconnect(c.id)
			self.send(ccDetachFromSession{})
		case protocol.CliSwitchSession:
			// SessionID 0 means "show me the options" (the SwitchSessionPicker
			// local action), mirroring AttachRequest's 0-means-create
			// convention rather than adding a second wire event for it.
			if e.SessionID == 0 {
				c.manager.ClientRequestSwitchSession(c.id)
			} else {
				c.manager.ClientSwitchSession(c.id, e.SessionID)
			}
		case protocol.CliTerminalResize:
			c.manager.UserResize(c.id, e.Rows, e.Cols)
		}
	}
}

// errClientClosed marks an expected read error from a deliberately
// closed connection, distinguishing it from a genuine I/O failure in
// logs. The wire layer does not distinguish these today, so this is
// always false in practice and exists as a named hook for server
// shutdown paths.
var errClientClosed = errors.New("client connection: closed")
