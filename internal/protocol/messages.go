// Package protocol defines the wire taxonomy exchanged on the daemon's
// control socket and the length-prefixed JSON framing it rides on.
//
// Grounded on core/src/events.rs (CliEvent/DaemonEvent variant set) and
// core/src/comm.rs (send_event/recv_event), with the handshake and
// message shapes of the original spec's wire section.
package protocol

import (
	"encoding/json"
	"fmt"
)

// CliEvent is everything a client can send the daemon once attached.
type CliEvent interface{ cliEventType() string }

type CliRaw struct {
	Data []byte `json:"data"`
}

type CliKillPane struct{}
type CliNextPane struct{}
type CliPrevPane struct{}
type CliSplitPaneVertical struct{}
type CliSplitPaneHorizontal struct{}
type CliDetach struct{}

type CliSwitchSession struct {
	SessionID uint32 `json:"session_id"`
}

type CliTerminalResize struct {
	Rows uint16 `json:"rows"`
	Cols uint16 `json:"cols"`
}

func (CliRaw) cliEventType() string                 { return "Raw" }
func (CliKillPane) cliEventType() string            { return "KillPane" }
func (CliNextPane) cliEventType() string            { return "NextPane" }
func (CliPrevPane) cliEventType() string            { return "PrevPane" }
func (CliSplitPaneVertical) cliEventType() string   { return "SplitPaneVertical" }
func (CliSplitPaneHorizontal) cliEventType() string { return "SplitPaneHorizontal" }
func (CliDetach) cliEventType() string              { return "Detach" }
func (CliSwitchSession) cliEventType() string       { return "SwitchSession" }
func (CliTerminalResize) cliEventType() string      { return "TerminalResize" }

// DaemonEvent is everything the daemon can send an attached client.
type DaemonEvent interface{ daemonEventType() string }

type DaemonRaw struct {
	Data []byte `json:"data"`
}

type DaemonCurrentSessions struct {
	SessionIDs []uint32 `json:"session_ids"`
}

type DaemonActiveSession struct {
	SessionID uint32 `json:"session_id"`
}

type DaemonNewSession struct {
	SessionID uint32 `json:"session_id"`
}

type DaemonDeletedSession struct {
	SessionID uint32 `json:"session_id"`
}

type DaemonSwitchSessionOptions struct {
	SessionIDs []uint32 `json:"session_ids"`
}

type DaemonDisconnected struct{}

func (DaemonRaw) daemonEventType() string                 { return "Raw" }
func (DaemonCurrentSessions) daemonEventType() string      { return "CurrentSessions" }
func (DaemonActiveSession) daemonEventType() string        { return "ActiveSession" }
func (DaemonNewSession) daemonEventType() string           { return "NewSession" }
func (DaemonDeletedSession) daemonEventType() string       { return "DeletedSession" }
func (DaemonSwitchSessionOptions) daemonEventType() string { return "SwitchSessionOptions" }
func (DaemonDisconnected) daemonEventType() string         { return "Disconnected" }

// AttachRequest and SessionsListRequest are the two handshake request
// bodies a client may open a connection with.
type AttachRequest struct {
	SessionID uint32 `json:"session_id"`
}

type SessionsListRequest struct{}

// HandshakeRequest is the envelope a client writes immediately after
// connecting.
type HandshakeRequest struct {
	Attach       *AttachRequest       `json:"Attach,omitempty"`
	SessionsList *SessionsListRequest `json:"SessionsList,omitempty"`
}

// HandshakeResponse is the envelope the daemon writes in reply.
type HandshakeResponse struct {
	ID     uint32          `json:"id"`
	Result HandshakeResult `json:"result"`
}

type HandshakeResult struct {
	Type       string   `json:"type"` // "Success" | "Failure"
	Created    bool     `json:"created,omitempty"`
	SessionID  uint32   `json:"session_id,omitempty"`
	SessionIDs []uint32 `json:"session_ids,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// envelope is the wire shape: a discriminant tag plus the variant's own
// fields. It lets a single interface-typed value (CliEvent/DaemonEvent)
// round-trip through JSON via explicit per-variant encode/decode dispatch
// rather than a reflection-based sum-type library.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalCliEvent encodes a CliEvent as a tagged JSON envelope.
func MarshalCliEvent(ev CliEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s: %w", ev.cliEventType(), err)
	}
	return json.Marshal(envelope{Type: ev.cliEventType(), Data: data})
}

// UnmarshalCliEvent decodes a tagged JSON envelope into a concrete
// CliEvent.
func UnmarshalCliEvent(raw []byte) (CliEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("protocol: unmarshal envelope: %w", err)
	}
	switch env.Type {
	case "Raw":
		var v CliRaw
		return v, unmarshalData(env.Data, &v)
	case "KillPane":
		return CliKillPane{}, nil
	case "NextPane":
		return CliNextPane{}, nil
	case "PrevPane":
		return CliPrevPane{}, nil
	case "SplitPaneVertical":
		return CliSplitPaneVertical{}, nil
	case "SplitPaneHorizontal":
		return CliSplitPaneHorizontal{}, nil
	case "Detach":
		return CliDetach{}, nil
	case "SwitchSession":
		var v CliSwitchSession
		return v, unmarshalData(env.Data, &v)
	case "TerminalResize":
		var v CliTerminalResize
		return v, unmarshalData(env.Data, &v)
	default:
		return nil, fmt.Errorf("protocol: unknown CliEvent type %q", env.Type)
	}
}

// MarshalDaemonEvent encodes a DaemonEvent as a tagged JSON envelope.
func MarshalDaemonEvent(ev DaemonEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s: %w", ev.daemonEventType(), err)
	}
	return json.Marshal(envelope{Type: ev.daemonEventType(), Data: data})
}

// UnmarshalDaemonEvent decodes a tagged JSON envelope into a concrete
// DaemonEvent.
func UnmarshalDaemonEvent(raw []byte) (DaemonEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("protocol: unmarshal envelope: %w", err)
	}
	switch env.Type {
	case "Raw":
		var v DaemonRaw
		return v, unmarshalData(env.Data, &v)
	case "CurrentSessions":
		var v DaemonCurrentSessions
		return v, unmarshalData(env.Data, &v)
	case "ActiveSession":
		var v DaemonActiveSession
		return v, unmarshalData(env.Data, &v)
	case "NewSession":
		var v DaemonNewSession
		return v, unmarshalData(env.Data, &v)
	case "DeletedSession":
		var v DaemonDeletedSession
		return v, unmarshalData(env.Data, &v)
	case "SwitchSessionOptions":
		var v DaemonSwitchSessionOptions
		return v, unmarshalData(env.Data, &v)
	case "Disconnected":
		return DaemonDisconnected{}, nil
	default:
		return nil, fmt.Errorf("protocol: unknown DaemonEvent type %q", env.Type)
	}
}

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
