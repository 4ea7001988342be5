package trace

import (
	"strings"

	"github.com/robotalks/sixstep/pkg/commutation"
	"github.com/robotalks/sixstep/pkg/msgs"
	"github.com/robotalks/sixstep/pkg/timer"
)

// Message is one trace record.
type Message struct {
	Action   string    `json:"action"`
	Event    uint64    `json:"event,omitempty"`
	Next     string    `json:"next,omitempty"`
	Active   string    `json:"active,omitempty"`
	Channels []Channel `json:"channels,omitempty"`
	Levels   []string  `json:"levels,omitempty"`
	Error    string    `json:"error,omitempty"`
	Dropped  int       `json:"dropped,omitempty"`
	Period   uint32    `json:"period,omitempty"`
	Pulse    []uint32  `json:"pulse,omitempty"`
}

// Channel is the state of a channel in a record.
type Channel struct {
	Main bool `json:"main,omitempty"`
	Comp bool `json:"comp,omitempty"`
	PWM  bool `json:"pwm,omitempty"`
}

// Actions
const (
	ActionReset = "reset"
	ActionCom   = "com"
	ActionFault = "fault"
	ActionDrop  = "drop"
)

// ComMessage creates the record of a commutation.
func ComMessage(snap msgs.Snapshot) Message {
	m := Message{
		Action: ActionCom,
		Event:  snap.Events,
		Next:   snap.Step.String(),
		Active: snap.Active.String(),
	}
	for _, st := range snap.Active {
		m.Channels = append(m.Channels, Channel{
			Main: st.Main,
			Comp: st.Complementary,
			PWM:  st.Mode == commutation.ModePWM,
		})
	}
	return m
}

// LevelString renders pin levels as CH1 CH1N CH2 CH2N CH3 CH3N, e.g.
// "100001".
func LevelString(levels [commutation.ChannelCount]timer.PinLevels) string {
	var sb strings.Builder
	for _, l := range levels {
		sb.WriteByte(levelChar(l.Main))
		sb.WriteByte(levelChar(l.Complementary))
	}
	return sb.String()
}

func levelChar(on bool) byte {
	if on {
		return '1'
	}
	return '0'
}
