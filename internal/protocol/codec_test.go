package protocol

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

func TestHandshakeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	conn := NewConn(&buf)

	req := HandshakeRequest{Attach: &AttachRequest{SessionID: 7}}
	assert.NilError(t, conn.WriteHandshakeRequest(req))

	got, err := conn.ReadHandshakeRequest()
	assert.NilError(t, err)
	assert.Equal(t, got.Attach.SessionID, uint32(7))
	assert.Assert(t, got.SessionsList == nil)
}

func TestHandshakeResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	conn := NewConn(&buf)

	resp := HandshakeResponse{ID: 1, Result: HandshakeResult{Type: "Success", Created: true, SessionID: 7}}
	assert.NilError(t, conn.WriteHandshakeResponse(resp))

	got, err := conn.ReadHandshakeResponse()
	assert.NilError(t, err)
	assert.DeepEqual(t, got, resp)
}

func TestCliEventRoundTrip(t *testing.T) {
	cases := []CliEvent{
		CliRaw{Data: []byte("ls\n")},
		CliKillPane{},
		CliNextPane{},
		CliPrevPane{},
		CliSplitPaneVertical{},
		CliSplitPaneHorizontal{},
		CliDetach{},
		CliSwitchSession{SessionID: 42},
		CliTerminalResize{Rows: 24, Cols: 80},
	}

	for _, want := range cases {
		var buf bytes.Buffer
		conn := NewConn(&buf)
		assert.NilError(t, conn.WriteCliEvent(want))

		got, err := conn.ReadCliEvent()
		assert.NilError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round-trip mismatch for %T (-want +got):\n%s", want, diff)
		}
	}
}

func TestDaemonEventRoundTrip(t *testing.T) {
	cases := []DaemonEvent{
		DaemonRaw{Data: []byte("\x1b[2J")},
		DaemonCurrentSessions{SessionIDs: []uint32{1, 2, 3}},
		DaemonActiveSession{SessionID: 1},
		DaemonNewSession{SessionID: 2},
		DaemonDeletedSession{SessionID: 3},
		DaemonSwitchSessionOptions{SessionIDs: []uint32{1, 2}},
		DaemonDisconnected{},
	}

	for _, want := range cases {
		var buf bytes.Buffer
		conn := NewConn(&buf)
		assert.NilError(t, conn.WriteDaemonEvent(want))

		got, err := conn.ReadDaemonEvent()
		assert.NilError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round-trip mismatch for %T (-want +got):\n%s", want, diff)
		}
	}
}

func TestReadCliEventRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff})
	conn := NewConn(&buf)

	_, err := conn.ReadCliEvent()
	assert.ErrorContains(t, err, "too large")
}

func TestReadCliEventRejectsUnknownType(t *testing.T) {
	var buf bytes.Buffer
	conn := NewConn(&buf)
	assert.NilError(t, conn.writeFrame([]byte(`{"type":"Bogus"}`)))

	_, err := conn.ReadCliEvent()
	assert.ErrorContains(t, err, "unknown CliEvent type")
}
