package nats

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
)

// recordingMsg remembers how it was settled
type recordingMsg struct {
	jetstream.Msg
	settled string
}

func (m *recordingMsg) Ack() error  { m.settled = "ack"; return nil }
func (m *recordingMsg) Nak() error  { m.settled = "nak"; return nil }
func (m *recordingMsg) Term() error { m.settled = "term"; return nil }

func TestSettle(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"stored", nil, "ack"},
		{"store failed", errors.New("database is locked"), "nak"},
		{"bad payload", fmt.Errorf("%w: unexpected end of JSON input", errUndecodable), "term"},
	}
	for _, tt := range tests {
		msg := &recordingMsg{}
		settle(msg, tt.err)
		if msg.settled != tt.want {
			t.Errorf("%s: settled with %q, want %q", tt.name, msg.settled, tt.want)
		}
	}
}
