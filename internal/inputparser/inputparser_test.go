package inputparser

import (
	"testing"

	"github.com/Prometheus1400/remux/internal/protocol"
	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

func collectDaemon(t *testing.T, events []Event) []protocol.CliEvent {
	t.Helper()
	var out []protocol.CliEvent
	for _, e := range events {
		if !e.IsLocal() {
			out = append(out, e.Daemon)
		}
	}
	return out
}

func TestPlainTextIsRaw(t *testing.T) {
	p := New()
	events := p.Process([]byte("ls\n"))
	assert.Equal(t, len(events), 1)
	assert.DeepEqual(t, events[0].Daemon, protocol.CliEvent(protocol.CliRaw{Data: []byte("ls\n")}))
}

func TestSplitCommand(t *testing.T) {
	p := New()
	events := p.Process([]byte{prefixByte, '%'})
	assert.Equal(t, len(events), 1)
	assert.DeepEqual(t, events[0].Daemon, protocol.CliEvent(protocol.CliSplitPaneVertical{}))
}

func TestPrefixAndCommandSurroundedByText(t *testing.T) {
	p := New()
	input := append([]byte("echo hi"), prefixByte, 'x')
	input = append(input, []byte("more")...)
	events := p.Process(input)

	want := []protocol.CliEvent{
		protocol.CliRaw{Data: []byte("echo hi")},
		protocol.CliKillPane{},
		protocol.CliRaw{Data: []byte("more")},
	}
	got := collectDaemon(t, events)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownCommandByteConsumesBothAndEmitsNothing(t *testing.T) {
	p := New()
	events := p.Process([]byte{'a', prefixByte, 'z', 'b'})

	want := []protocol.CliEvent{
		protocol.CliRaw{Data: []byte("a")},
		protocol.CliRaw{Data: []byte("b")},
	}
	got := collectDaemon(t, events)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLoneTrailingPrefixIsHeld(t *testing.T) {
	p := New()
	events := p.Process([]byte{'a', 'b', prefixByte})
	want := []protocol.CliEvent{protocol.CliRaw{Data: []byte("ab")}}
	got := collectDaemon(t, events)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	// Next call completes the held prefix into a command, not Raw(0x02).
	events = p.Process([]byte{'x'})
	assert.Equal(t, len(events), 1)
	assert.DeepEqual(t, events[0].Daemon, protocol.CliEvent(protocol.CliKillPane{}))
}

func TestLocalSwitchSessionAction(t *testing.T) {
	p := New()
	events := p.Process([]byte{prefixByte, 's'})
	assert.Equal(t, len(events), 1)
	assert.Assert(t, events[0].IsLocal())
	assert.Equal(t, events[0].Local, SwitchSessionPicker)
}

func TestIdempotentAcrossChunking(t *testing.T) {
	full := append([]byte("echo hi"), prefixByte, '%')
	full = append(full, []byte("more text")...)
	full = append(full, prefixByte, 'n')

	whole := New().Process(full)

	chunked := New()
	var piecewise []Event
	for _, chunk := range splitArbitrary(full) {
		piecewise = append(piecewise, chunked.Process(chunk)...)
	}

	wantD := collectDaemon(t, whole)
	gotD := collectDaemon(t, piecewise)
	if diff := cmp.Diff(wantD, gotD); diff != "" {
		t.Errorf("chunking changed result (-want +got):\n%s", diff)
	}
}

func splitArbitrary(b []byte) [][]byte {
	var out [][]byte
	for i := 0; i < len(b); i += 3 {
		end := i + 3
		if end > len(b) {
			end = len(b)
		}
		out = append(out, b[i:end])
	}
	return out
}
