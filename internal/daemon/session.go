package daemon

import "github.com/Prometheus1400/remux/internal/layout"

// sessionEvent is the inbound event sum type of §4.2.
type sessionEvent interface{ isSessionEvent() }

type sessionUserInput struct{ data []byte }
type sessionUserConnection struct{}
type sessionUserSplitPane struct{ direction layout.SplitDirection }
type sessionUserIteratePane struct{ next bool }
type sessionUserKillPane struct{}
type sessionUserResize struct{ rows, cols uint16 }
type sessionWindowOutput struct{ data []byte }
type sessionRedraw struct{}
type sessionKill struct{}

func (sessionUserInput) isSessionEvent()       {}
func (sessionUserConnection) isSessionEvent()  {}
func (sessionUserSplitPane) isSessionEvent()   {}
func (sessionUserIteratePane) isSessionEvent() {}
func (sessionUserKillPane) isSessionEvent()    {}
func (sessionUserResize) isSessionEvent()      {}
func (sessionWindowOutput) isSessionEvent()    {}
func (sessionRedraw) isSessionEvent()          {}
func (sessionKill) isSessionEvent()            {}

// Session is a thin router with no synchronous logic of its own, per
// §4.2: it exists so that future features (multiple windows per
// session, session-scoped key handling) have a place to live. Grounded
// on daemon/src/actors/session.rs.
type Session struct {
	id      uint32
	manager SessionManagerHandle
	window  WindowHandle

	events chan sessionEvent
	done   chan struct{}
}

// SessionHandle is the clonable handle to a running Session.
type SessionHandle struct {
	session *Session
}

func (h SessionHandle) send(ev sessionEvent) bool {
	if h.session == nil {
		return false
	}
	select {
	case h.session.events <- ev:
		return true
	case <-h.session.done:
		return false
	}
}

func (h SessionHandle) ID() uint32 { return h.session.id }

func (h SessionHandle) UserInput(data []byte) bool { return h.send(sessionUserInput{data}) }
func (h SessionHandle) UserConnection() bool        { return h.send(sessionUserConnection{}) }
func (h SessionHandle) UserSplitPane(d layout.SplitDirection) bool {
	return h.send(sessionUserSplitPane{d})
}
func (h SessionHandle) UserIteratePane(next bool) bool { return h.send(sessionUserIteratePane{next}) }
func (h SessionHandle) UserKillPane() bool             { return h.send(sessionUserKillPane{}) }
func (h SessionHandle) UserResize(rows, cols uint16) bool {
	return h.send(sessionUserResize{rows, cols})
}
func (h SessionHandle) Redraw() bool { return h.send(sessionRedraw{}) }
func (h SessionHandle) Kill() bool   { return h.send(sessionKill{}) }

// Wait blocks until this session's actor loop has exited.
func (h SessionHandle) Wait() { <-h.session.done }

// windowOutput is called by this session's own Window; it is not part
// of the public actor surface other components use. Its signature must
// match the WindowOwner interface in window.go exactly.
func (h SessionHandle) windowOutput(data []byte) { h.send(sessionWindowOutput{data}) }

var _ WindowOwner = SessionHandle{}

// spawnSession starts a Session with one Window of a single pane.
func spawnSession(id uint32, manager SessionManagerHandle, shell shellSpec, resizePolicy string, rows, cols uint16) (SessionHandle, error) {
	s := &Session{
		id:      id,
		manager: manager,
		events:  make(chan sessionEvent, 10),
		done:    make(chan struct{}),
	}
	h := SessionHandle{session: s}

	window, err := spawnWindow(h, shell, resizePolicy, rows, cols)
	if err != nil {
		close(s.done)
		return SessionHandle{}, err
	}
	s.window = window

	go s.run()
	return h, nil
}

func (s *Session) run() {
	defer close(s.done)
	for ev := range s.events {
		switch e := ev.(type) {
		case sessionUserInput:
			s.window.UserInput(e.data)
		case sessionUserConnection:
			s.window.Redraw()
		case sessionUserSplitPane:
			s.window.SplitPane(e.direction)
		case sessionUserIteratePane:
			s.window.IteratePane(e.next)
		case sessionUserKillPane:
			s.window.KillPane()
		case sessionUserResize:
			s.window.Resize(e.rows, e.cols)
		case sessionWindowOutput:
			s.manager.SessionSendOutput(s.id, e.data)
		case sessionRedraw:
			s.window.Redraw()
		case sessionKill:
			s.window.Kill()
			return
		}
	}
}
