// Package inputparser recognizes the prefix-key command grammar typed by
// an attached client, turning a raw keystroke stream into a sequence of
// daemon-bound wire events (or a client-local action).
//
// Grounded on cli/src/input_parser/parser.rs, the authoritative
// implementation in the original source (a like-named file under
// daemon/src/ is an abandoned, unreferenced earlier draft and is not
// used as grounding).
package inputparser

import "github.com/Prometheus1400/remux/internal/protocol"

const (
	prefixByte  byte = 0x02 // Ctrl-B
	percent     byte = '%'
	doubleQuote byte = '"'
	nByte       byte = 'n'
	pByte       byte = 'p'
	sByte       byte = 's'
	xByte       byte = 'x'
	dByte       byte = 'd'
)

// LocalAction is a command the parser recognizes but never forwards to
// the daemon; it is handled entirely by the client.
type LocalAction int

const (
	SwitchSessionPicker LocalAction = iota
)

// Event is one parsed unit of input: exactly one of Local or Daemon is
// set.
type Event struct {
	Local LocalAction
	Daemon protocol.CliEvent
	isLocal bool
}

func daemonEvent(ev protocol.CliEvent) Event { return Event{Daemon: ev} }

func localEvent(a LocalAction) Event { return Event{Local: a, isLocal: true} }

// IsLocal reports whether this event is a LocalAction rather than a
// protocol.CliEvent bound for the daemon.
func (e Event) IsLocal() bool { return e.isLocal }

// Parser is a stateful byte accumulator that recognizes the prefix-key
// grammar of §4.7: a single prefix byte (Ctrl-B) followed by one command
// byte. Within one call, any byte sequence not matching prefix+command is
// coalesced into a single Raw event, preserving order. A trailing lone
// prefix byte at a chunk boundary is held until the next call, so the
// sequence of commands and the concatenated raw bytes do not depend on
// how the input is chunked. Raw bytes are flushed at the end of every
// call, so a raw run split across calls arrives as several Raw events.
type Parser struct {
	buf []byte
}

// New returns an empty Parser.
func New() *Parser {
	return &Parser{}
}

// Process appends input to the internal buffer and returns every Event
// that can be produced from the buffer so far, leaving behind only a
// possible trailing lone prefix byte.
func (p *Parser) Process(input []byte) []Event {
	p.buf = append(p.buf, input...)

	var events []Event
	i := 0
	for i < len(p.buf) {
		b := p.buf[i]
		if b != prefixByte {
			i++
			continue
		}

		if i+1 >= len(p.buf) {
			// Lone prefix at the end of the buffer: flush everything
			// before it as Raw and hold the prefix byte for next time.
			if i > 0 {
				events = append(events, daemonEvent(protocol.CliRaw{Data: clone(p.buf[:i])}))
			}
			p.buf = p.buf[i:]
			return events
		}

		next := p.buf[i+1]
		if i > 0 {
			events = append(events, daemonEvent(protocol.CliRaw{Data: clone(p.buf[:i])}))
		}

		switch next {
		case percent:
			events = append(events, daemonEvent(protocol.CliSplitPaneVertical{}))
		case doubleQuote:
			events = append(events, daemonEvent(protocol.CliSplitPaneHorizontal{}))
		case nByte:
			events = append(events, daemonEvent(protocol.CliNextPane{}))
		case pByte:
			events = append(events, daemonEvent(protocol.CliPrevPane{}))
		case xByte:
			events = append(events, daemonEvent(protocol.CliKillPane{}))
		case dByte:
			events = append(events, daemonEvent(protocol.CliDetach{}))
		case sByte:
			events = append(events, localEvent(SwitchSessionPicker))
		default:
			// Unknown command byte: both bytes are consumed, nothing
			// emitted.
		}

		p.buf = p.buf[i+2:]
		i = 0
	}

	if len(p.buf) > 0 {
		events = append(events, daemonEvent(protocol.CliRaw{Data: clone(p.buf)}))
		p.buf = p.buf[:0]
	}
	return events
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
