package sh

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/sixstep/pkg/remote"
)

func builtinCmds() []*ishell.Cmd {
	return []*ishell.Cmd{
		{
			Name:    "discover",
			Aliases: []string{"list", "l"},
			Help:    "[TYPE] list controllers",
			Func:    discover,
		},
		{
			Name:    "connect",
			Aliases: []string{"c"},
			Help:    "[TYPE/ID | TYPE [ID]] connect a controller",
			Func:    connect,
		},
		{
			Name:    "disconnect",
			Aliases: []string{"d"},
			Help:    "disconnect the controller",
			Func:    func(c *ishell.Context) { ShellFrom(c).Disconnect() },
		},
		{
			Name:    "watch",
			Aliases: []string{"w"},
			Help:    "[COUNT] print events",
			Func:    MustBeConnected(watch),
		},
		{
			Name:    "source",
			Aliases: []string{"."},
			Help:    "FILE run commands from FILE",
			Func:    source,
		},
	}
}

func discover(c *ishell.Context) {
	s := ShellFrom(c)
	var typ string
	if len(c.Args) > 0 {
		typ = c.Args[0]
	}
	infoList, err := s.Discover(typ)
	if err != nil {
		c.Err(err)
		return
	}
	switch {
	case s.OutputJSON:
		if infoList == nil {
			infoList = []remote.ControllerInfo{}
		}
		out, err := json.Marshal(infoList)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
	case len(infoList) == 0:
		c.Println("No controllers found")
	default:
		var out strings.Builder
		if err := WriteControllers(&out, infoList); err != nil {
			c.Err(err)
			return
		}
		c.Print(out.String())
	}
}

// connectRef resolves the arguments of connect. It returns an invalid ref
// with the type to discover when the ID is missing.
func connectRef(args []string) (ref remote.ControllerRef, err error) {
	switch len(args) {
	case 0:
	case 1:
		if ref, err = remote.ParseRef(args[0]); err != nil {
			return remote.ControllerRef{Type: args[0]}, nil
		}
	case 2:
		ref = remote.ControllerRef{Type: args[0], ID: args[1]}
	default:
		err = errors.New("too many arguments")
	}
	return
}

func connect(c *ishell.Context) {
	s := ShellFrom(c)
	ref, err := connectRef(c.Args)
	if err == nil && !ref.IsValid() {
		ref, err = s.choose(ref.Type)
	}
	if err == nil {
		err = s.Connect(ref)
	}
	if err != nil {
		c.Err(err)
	}
}

func watch(c *ishell.Context) {
	s := ShellFrom(c)
	count := 1
	if len(c.Args) > 0 {
		n, err := strconv.Atoi(c.Args[0])
		if err != nil || n <= 0 {
			c.Err(fmt.Errorf("invalid COUNT %q", c.Args[0]))
			return
		}
		count = n
	}
	for ; count > 0; count-- {
		select {
		case msg := <-s.Loop.Events:
			if err := s.print(c, msg); err != nil {
				c.Err(err)
				return
			}
		case <-time.After(5 * s.Timeout):
			c.Err(errors.New("no events"))
			return
		}
	}
}

func source(c *ishell.Context) {
	if len(c.Args) != 1 {
		c.Err(errors.New("FILE required"))
		return
	}
	if err := ShellFrom(c).Source(c.Args[0]); err != nil {
		c.Err(err)
	}
}
