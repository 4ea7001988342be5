// Package sh is the interactive shell of sixstepctl.
package sh

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"github.com/google/shlex"

	env "github.com/robotalks/sixstep/pkg/env/connector"
	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/remote"
)

// ErrNotConnected is reported by commands requiring a controller.
var ErrNotConnected = errors.New("not connected")

const (
	shellKey     = "$shell"
	promptSuffix = " > "
)

var (
	evalOnly   bool
	outputJSON bool
	timeout    = time.Second

	extraCmds []*ishell.Cmd
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluate the command line and exit.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print replies and events in JSON.")
	flag.DurationVar(&timeout, "timeout", timeout, "Wait for a reply at most this long.")
}

// AddCmds registers commands. It must be called from init funcs.
func AddCmds(cmds ...*ishell.Cmd) {
	extraCmds = append(extraCmds, cmds...)
}

// Shell wraps an ishell.Shell with at most one connected controller.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *env.Config
	Loop   *ConnLoop
}

// New creates a Shell from flags.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     timeout,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Shell.Set(shellKey, s)
	s.setPrompt()
	for _, cmd := range builtinCmds() {
		s.Shell.AddCmd(cmd)
	}
	for _, cmd := range extraCmds {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps a command func requiring a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Loop == nil {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// DoCommand sends a command to the connected controller and prints the
// reply.
func DoCommand(c *ishell.Context, msg fx.Message) error {
	s := ShellFrom(c)
	reply, err := s.Do(msg)
	if err == nil {
		err = s.print(c, reply)
	}
	if err != nil {
		c.Err(err)
	}
	return err
}

// Do sends a command and waits for the reply up to Timeout.
func (s *Shell) Do(msg fx.Message) (fx.Message, error) {
	if s.Loop == nil {
		return nil, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()
	return remote.Do(ctx, s.Loop.Conn, msg)
}

func (s *Shell) print(c *ishell.Context, msg fx.Message) error {
	out, err := FormatMessage(msg, s.OutputJSON)
	if err == nil {
		c.Println(out)
	}
	return err
}

// Discover lists controllers, keeping those of typ unless typ is empty.
func (s *Shell) Discover(typ string) ([]remote.ControllerInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*s.Timeout)
	defer cancel()
	infoList, err := connector.Discover(ctx)
	if err != nil || typ == "" {
		return infoList, err
	}
	found := infoList[:0]
	for _, info := range infoList {
		if info.Ref.Type == typ {
			found = append(found, info)
		}
	}
	return found, nil
}

// choose discovers controllers of typ and picks one, asking when more than
// one is found in interactive mode.
func (s *Shell) choose(typ string) (remote.ControllerRef, error) {
	infoList, err := s.Discover(typ)
	switch {
	case err != nil:
		return remote.ControllerRef{}, err
	case len(infoList) == 0:
		return remote.ControllerRef{}, errors.New("no controller discovered")
	case len(infoList) == 1:
		return infoList[0].Ref, nil
	case !s.Interactive:
		return remote.ControllerRef{}, fmt.Errorf("%d controllers discovered, specify one", len(infoList))
	}
	names := make([]string, len(infoList))
	for n, info := range infoList {
		names[n] = info.Ref.Name()
		if desc := info.Meta.Description; desc != "" {
			names[n] += ": " + desc
		}
	}
	return infoList[s.Shell.MultiChoice(names, "Which one to connect?")].Ref, nil
}

// Connect replaces the current connection with ref.
func (s *Shell) Connect(ref remote.ControllerRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	l, err := Dial(connector, ref)
	if err != nil {
		return err
	}
	s.Disconnect()
	s.Loop = l
	s.setPrompt()
	return nil
}

// Disconnect closes the current connection if any.
func (s *Shell) Disconnect() {
	if s.Loop == nil {
		return
	}
	if err := s.Loop.Close(); err != nil {
		glog.V(2).Infof("close %s: %v", s.Loop.Ref, err)
	}
	s.Loop = nil
	s.setPrompt()
}

func (s *Shell) setPrompt() {
	name := "[none]"
	if s.Loop != nil {
		name = s.Loop.Ref.Name()
	}
	s.Shell.SetPrompt(name + promptSuffix)
}

// Source runs commands from a script, one command per line. Empty lines
// and lines starting with # are skipped. The first failure stops the script.
func (s *Shell) Source(fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		args, err := shlex.Split(line)
		if err == nil {
			err = s.Shell.Process(args...)
		}
		if err != nil {
			return fmt.Errorf("%s:%d: %v", fn, lineNo, err)
		}
	}
	return scanner.Err()
}

// Run connects the configured controller if any, then evaluates args or
// enters the interactive shell.
func (s *Shell) Run(args ...string) error {
	if ref := s.Config.Ref; ref.IsValid() {
		if err := s.Connect(ref); err != nil {
			return fmt.Errorf("connect %s: %v", ref, err)
		}
	}
	switch {
	case len(args) > 0:
		return s.Shell.Process(args...)
	case s.Interactive:
		s.Shell.Run()
		return nil
	}
	return errors.New("command expected")
}

// Main parses flags and runs the shell.
func Main() {
	flag.Parse()
	if err := New(env.NewConfig()).Run(flag.Args()...); err != nil {
		glog.Exit(err)
	}
}
