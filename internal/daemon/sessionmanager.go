package daemon

import (
	"log/slog"

	"github.com/Prometheus1400/remux/internal/layout"
)

// sessionManagerEvent is the inbound event sum type of §4.1.
type sessionManagerEvent interface{ isSessionManagerEvent() }

type smClientConnect struct {
	clientID  uint32
	client    ClientConnectionHandle
	sessionID uint32
	create    bool
}
type smClientDisconnect struct{ clientID uint32 }
type smClientSwitchSession struct {
	clientID  uint32
	sessionID uint32
}
type smClientRequestSwitchSession struct{ clientID uint32 }
type smUserInput struct {
	clientID uint32
	data     []byte
}
type smUserSplitPane struct {
	clientID  uint32
	direction layout.SplitDirection
}
type smUserIteratePane struct {
	clientID uint32
	next     bool
}
type smUserKillPane struct{ clientID uint32 }
type smUserResize struct {
	clientID   uint32
	rows, cols uint16
}
type smSessionSendOutput struct {
	sessionID uint32
	data      []byte
}
type smSessionDied struct{ sessionID uint32 }
type smQuerySessionExists struct {
	sessionID uint32
	reply     chan bool
}
type smQuerySessionIDs struct{ reply chan []uint32 }

func (smClientConnect) isSessionManagerEvent()              {}
func (smClientDisconnect) isSessionManagerEvent()           {}
func (smClientSwitchSession) isSessionManagerEvent()        {}
func (smClientRequestSwitchSession) isSessionManagerEvent() {}
func (smUserInput) isSessionManagerEvent()                  {}
func (smUserSplitPane) isSessionManagerEvent()              {}
func (smUserIteratePane) isSessionManagerEvent()            {}
func (smUserKillPane) isSessionManagerEvent()               {}
func (smUserResize) isSessionManagerEvent()                 {}
func (smSessionSendOutput) isSessionManagerEvent()          {}
func (smSessionDied) isSessionManagerEvent()                {}
func (smQuerySessionExists) isSessionManagerEvent()         {}
func (smQuerySessionIDs) isSessionManagerEvent()            {}

// SessionManager is the single entry point for everything client-side,
// per §4.1. Grounded on daemon/src/actors/session_manager.rs, with the
// four-map bookkeeping (§3's invariants 1) kept exactly as that file
// models it.
type SessionManager struct {
	events chan sessionManagerEvent
	done   chan struct{}

	shell        shellSpec
	resizePolicy string
	rows, cols   uint16

	sessions         map[uint32]SessionHandle
	clients          map[uint32]ClientConnectionHandle
	sessionToClients map[uint32][]uint32
	clientToSession  map[uint32]uint32
}

// SessionManagerHandle is the clonable handle to the running
// SessionManager.
type SessionManagerHandle struct {
	mgr *SessionManager
}

func (h SessionManagerHandle) send(ev sessionManagerEvent) bool {
	if h.mgr == nil {
		return false
	}
	select {
	case h.mgr.events <- ev:
		return true
	case <-h.mgr.done:
		return false
	}
}

func (h SessionManagerHandle) ClientConnect(clientID uint32, client ClientConnectionHandle, sessionID uint32, create bool) bool {
	return h.send(smClientConnect{clientID: clientID, client: client, sessionID: sessionID, create: create})
}
func (h SessionManagerHandle) ClientDisconnect(clientID uint32) bool {
	return h.send(smClientDisconnect{clientID: clientID})
}
func (h SessionManagerHandle) ClientSwitchSession(clientID, sessionID uint32) bool {
	return h.send(smClientSwitchSession{clientID: clientID, sessionID: sessionID})
}
func (h SessionManagerHandle) ClientRequestSwitchSession(clientID uint32) bool {
	return h.send(smClientRequestSwitchSession{clientID: clientID})
}
func (h SessionManagerHandle) UserInput(clientID uint32, data []byte) bool {
	return h.send(smUserInput{clientID: clientID, data: data})
}
func (h SessionManagerHandle) UserSplitPane(clientID uint32, direction layout.SplitDirection) bool {
	return h.send(smUserSplitPane{clientID: clientID, direction: direction})
}
func (h SessionManagerHandle) UserIteratePane(clientID uint32, next bool) bool {
	return h.send(smUserIteratePane{clientID: clientID, next: next})
}
func (h SessionManagerHandle) UserKillPane(clientID uint32) bool {
	return h.send(smUserKillPane{clientID: clientID})
}
func (h SessionManagerHandle) UserResize(clientID uint32, rows, cols uint16) bool {
	return h.send(smUserResize{clientID: clientID, rows: rows, cols: cols})
}

// sessionExists and listSessionIDs are synchronous queries the listener
// uses during the handshake, before any ClientConnectionHandle exists to
// receive an asynchronous reply. They block on a reply channel the same
// way an "ask" pattern would in any actor framework; the manager's own
// event loop is never blocked, since it only ever sends to reply once per
// request.
func (h SessionManagerHandle) sessionExists(sessionID uint32) bool {
	reply := make(chan bool, 1)
	if !h.send(smQuerySessionExists{sessionID: sessionID, reply: reply}) {
		return false
	}
	return <-reply
}

func (h SessionManagerHandle) listSessionIDs() []uint32 {
	reply := make(chan []uint32, 1)
	if !h.send(smQuerySessionIDs{reply: reply}) {
		return nil
	}
	return <-reply
}

// SessionSendOutput is called by a Session forwarding its Window's
// composed output; it is not part of the public client-facing surface.
func (h SessionManagerHandle) SessionSendOutput(sessionID uint32, data []byte) bool {
	return h.send(smSessionSendOutput{sessionID: sessionID, data: data})
}

// spawnSessionManager starts the single per-daemon SessionManager. shell,
// resizePolicy, and the default rows/cols are used whenever a new session
// is created.
func spawnSessionManager(shell shellSpec, resizePolicy string, rows, cols uint16) SessionManagerHandle {
	m := &SessionManager{
		events:           make(chan sessionManagerEvent, 10),
		done:             make(chan struct{}),
		shell:            shell,
		resizePolicy:     resizePolicy,
		rows:             rows,
		cols:             cols,
		sessions:         make(map[uint32]SessionHandle),
		clients:          make(map[uint32]ClientConnectionHandle),
		sessionToClients: make(map[uint32][]uint32),
		clientToSession:  make(map[uint32]uint32),
	}
	h := SessionManagerHandle{mgr: m}
	go m.run()
	return h
}

func (m *SessionManager) run() {
	defer close(m.done)
	for ev := range m.events {
		switch e := ev.(type) {
		case smClientConnect:
			m.handleClientConnect(e.clientID, e.client, e.sessionID, e.create)
		case smClientDisconnect:
			m.handleClientDisconnect(e.clientID)
		case smClientSwitchSession:
			m.handleClientSwitchSession(e.clientID, e.sessionID)
		case smClientRequestSwitchSession:
			m.handleClientRequestSwitchSession(e.clientID)
		case smUserInput:
			m.routeToSession(e.clientID, func(s SessionHandle) { s.UserInput(e.data) })
		case smUserSplitPane:
			m.routeToSession(e.clientID, func(s SessionHandle) { s.UserSplitPane(e.direction) })
		case smUserIteratePane:
			m.routeToSession(e.clientID, func(s SessionHandle) { s.UserIteratePane(e.next) })
		case smUserKillPane:
			m.routeToSession(e.clientID, func(s SessionHandle) { s.UserKillPane() })
		case smUserResize:
			m.routeToSession(e.clientID, func(s SessionHandle) { s.UserResize(e.rows, e.cols) })
		case smSessionSendOutput:
			m.handleSessionSendOutput(e.sessionID, e.data)
		case smSessionDied:
			m.handleSessionDied(e.sessionID)
		case smQuerySessionExists:
			_, ok := m.sessions[e.sessionID]
			e.reply <- ok
		case smQuerySessionIDs:
			ids := make([]uint32, 0, len(m.sessions))
			for id := range m.sessions {
				ids = append(ids, id)
			}
			e.reply <- ids
		}
	}
}

func (m *SessionManager) routeToSession(clientID uint32, fn func(SessionHandle)) {
	sessionID, ok := m.clientToSession[clientID]
	if !ok {
		return
	}
	session, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	fn(session)
}

func (m *SessionManager) handleClientConnect(clientID uint32, client ClientConnectionHandle, sessionID uint32, create bool) {
	session, exists := m.sessions[sessionID]
	if !exists {
		if !create {
			client.FailedAttachToSession(sessionID)
			return
		}
		var err error
		session, err = spawnSession(sessionID, SessionManagerHandle{mgr: m}, m.shell, m.resizePolicy, m.rows, m.cols)
		if err != nil {
			slog.Error("session manager: failed to create session", "session_id", sessionID, "err", err)
			client.FailedAttachToSession(sessionID)
			return
		}
		m.sessions[sessionID] = session
		go m.watchSession(session)

		for id, c := range m.clients {
			if id != clientID {
				c.NewSession(sessionID)
			}
		}
	}

	m.clients[clientID] = client
	m.sessionToClients[sessionID] = append(m.sessionToClients[sessionID], clientID)
	m.clientToSession[clientID] = sessionID

	client.SuccessAttachToSession(sessionID)
	session.UserConnection()
}

func (m *SessionManager) handleClientDisconnect(clientID uint32) {
	delete(m.clients, clientID)
	sessionID, ok := m.clientToSession[clientID]
	if !ok {
		return
	}
	delete(m.clientToSession, clientID)
	m.sessionToClients[sessionID] = removeUint32(m.sessionToClients[sessionID], clientID)
}

func (m *SessionManager) handleClientSwitchSession(clientID, sessionID uint32) {
	oldSessionID, hadSession := m.clientToSession[clientID]
	if _, ok := m.clients[clientID]; !ok {
		return
	}
	session, ok := m.sessions[sessionID]
	if !ok {
		// Per §9: switching to a non-existent session is a silent no-op.
		return
	}

	if hadSession {
		m.sessionToClients[oldSessionID] = removeUint32(m.sessionToClients[oldSessionID], clientID)
	}
	m.sessionToClients[sessionID] = append(m.sessionToClients[sessionID], clientID)
	m.clientToSession[clientID] = sessionID

	session.Redraw()
}

func (m *SessionManager) handleClientRequestSwitchSession(clientID uint32) {
	client, ok := m.clients[clientID]
	if !ok {
		return
	}
	ids := make([]uint32, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	// A mid-session picker gets SwitchSessionOptions; CurrentSessions is
	// reserved for the handshake-time session listing (§6).
	client.SwitchSessionOptions(ids)
}

func (m *SessionManager) handleSessionSendOutput(sessionID uint32, data []byte) {
	for _, clientID := range m.sessionToClients[sessionID] {
		if client, ok := m.clients[clientID]; ok {
			client.SessionOutput(data)
		}
	}
}

// watchSession blocks until a Session's actor loop exits (e.g. Kill)
// and reports its death back onto the manager's own event loop.
func (m *SessionManager) watchSession(session SessionHandle) {
	session.Wait()
	h := SessionManagerHandle{mgr: m}
	h.send(smSessionDied{sessionID: session.ID()})
}

func (m *SessionManager) handleSessionDied(sessionID uint32) {
	delete(m.sessions, sessionID)
	clientIDs := m.sessionToClients[sessionID]
	delete(m.sessionToClients, sessionID)
	for _, clientID := range clientIDs {
		delete(m.clientToSession, clientID)
	}
	for _, client := range m.clients {
		client.DeletedSession(sessionID)
	}
}

func removeUint32(s []uint32, v uint32) []uint32 {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
