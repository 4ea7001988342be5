package sh

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
	"time"

	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/msgs"
	pb "github.com/robotalks/sixstep/pkg/proto/sixstep/v1"
	"github.com/robotalks/sixstep/pkg/remote"
)

// FormatState renders a state in a single line, e.g.
// "next=S2 events=2 active=CH1 CH2N paused interval=1ms".
func FormatState(st *pb.State) string {
	var w strings.Builder
	fmt.Fprintf(&w, "next=%s events=%d active=%s", msgs.StepOf(st), st.Events, msgs.ActivationOf(st))
	if st.Running {
		w.WriteString(" running")
	} else {
		w.WriteString(" paused")
	}
	fmt.Fprintf(&w, " interval=%s", time.Duration(st.IntervalUs)*time.Microsecond)
	if st.Halted {
		fmt.Fprintf(&w, " HALTED: %s", st.Error)
	}
	return w.String()
}

// FormatMessage renders a reply or an event for display.
func FormatMessage(msg fx.Message, asJSON bool) (string, error) {
	serializable, ok := msg.(msgs.SerializableMessage)
	if !ok {
		return "", msgs.ErrNotSerializable
	}
	if asJSON {
		out, err := json.Marshal(serializable.Serializable())
		return string(out), err
	}
	switch m := msg.(type) {
	case *msgs.CommandOK:
		return "OK", nil
	case *msgs.State:
		return FormatState(&m.State), nil
	case *msgs.StateEvent:
		return "EVENT " + FormatState(&m.State), nil
	case *msgs.FaultEvent:
		return "FAULT " + m.Message, nil
	}
	name := reflect.Indirect(reflect.ValueOf(msg)).Type().Name()
	return name + " " + serializable.Serializable().String(), nil
}

// WriteControllers prints discovered controllers as a table.
func WriteControllers(w io.Writer, infoList []remote.ControllerInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tID\tDESCRIPTION")
	for _, info := range infoList {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Ref.Type, info.Ref.ID, info.Meta.Description)
	}
	return tw.Flush()
}
