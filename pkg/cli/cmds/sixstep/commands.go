// Package sixstep provides shell commands of the commutation controller.
package sixstep

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/sixstep/pkg/cli/sh"
	"github.com/robotalks/sixstep/pkg/msgs"
)

// ParseInterval parses an event interval, either a duration like "500us"
// or plain microseconds.
func ParseInterval(s string) (uint32, error) {
	if us, err := strconv.ParseUint(s, 10, 32); err == nil {
		return uint32(us), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < time.Microsecond {
		return 0, fmt.Errorf("interval %v too small", d)
	}
	return uint32(d / time.Microsecond), nil
}

var (
	// StateCmd exposes StateQuery command.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.StateQuery{})
		}),
	}

	// AdvanceCmd exposes Advance command.
	AdvanceCmd = ishell.Cmd{
		Name:    "advance",
		Aliases: []string{"a", "step"},
		Help:    "[COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			count := uint64(1)
			if len(c.Args) > 0 {
				val, err := strconv.ParseUint(c.Args[0], 10, 32)
				if err != nil {
					c.Err(fmt.Errorf("Invalid COUNT: %v", err))
					return
				}
				count = val
			}
			sh.DoCommand(c, msgs.NewAdvance(uint32(count)))
		}),
	}

	// RunCmd starts periodic commutation events.
	RunCmd = ishell.Cmd{
		Name:    "run",
		Aliases: []string{"r"},
		Help:    "[INTERVAL(us or duration)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var msg msgs.RunControl
			msg.Running = true
			if len(c.Args) > 0 {
				us, err := ParseInterval(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("Invalid INTERVAL: %v", err))
					return
				}
				msg.IntervalUs = us
			}
			sh.DoCommand(c, &msg)
		}),
	}

	// PauseCmd stops periodic commutation events.
	PauseCmd = ishell.Cmd{
		Name:    "pause",
		Aliases: []string{"p"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.RunControl{})
		}),
	}
)

func init() {
	sh.AddCmds(
		&StateCmd,
		&AdvanceCmd,
		&RunCmd,
		&PauseCmd,
	)
}
