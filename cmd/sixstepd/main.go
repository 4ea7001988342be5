package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	"github.com/robotalks/sixstep/pkg/bridge"
	"github.com/robotalks/sixstep/pkg/drive"
	env "github.com/robotalks/sixstep/pkg/env/controller"
	"github.com/robotalks/sixstep/pkg/fault"
	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/remote"
	"github.com/robotalks/sixstep/pkg/timer"
	"github.com/robotalks/sixstep/pkg/trace"
)

var traceEnabled bool

func init() {
	env.SetControllerType(env.DefaultType, remote.ControllerMeta{Description: "Six-step commutation controller"})
	env.SetupFlags()
	drive.SetupFlags()
	timer.SetupFlags()
	bridge.SetupFlags()
	trace.SetupFlags()
	flag.BoolVar(&traceEnabled, "trace", traceEnabled, "Print commutations as JSON lines to stdout.")
}

func main() {
	flag.Parse()

	env := env.NewConfig().MustNewEnv()
	halter := fault.NewHalter(&fault.LogIndicator{Name: "FAULT"})
	loop := fx.NewLoop()

	driveConf := drive.NewConfig()
	var target drive.Target
	var sim *timer.Sim
	var board *bridge.Driver
	if serialConf := bridge.NewSerialConfig(); serialConf.Device != "" {
		link, _, err := serialConf.Open()
		if err != nil {
			log.Fatalf("open %s: %v", serialConf.Device, err)
		}
		board = bridge.NewDriver(link)
		target = board
	} else {
		var err error
		if sim, err = timer.NewConfig().NewSim(); err != nil {
			log.Fatalln(err)
		}
		target = sim
	}

	autoStart := driveConf.AutoStart
	if board != nil {
		// events before the link is synchronized would fail.
		driveConf.AutoStart = false
	}
	ctl, err := driveConf.NewController(target, halter)
	if err != nil {
		log.Fatalln(err)
	}
	ctl.Registrar = env.Registrar

	if board != nil {
		board.FaultHandler = ctl
		loop.AddRunnable(fx.NamedRun("board", board))
		if autoStart {
			loop.AddRunnable(fx.RunnableFunc(func(ctx context.Context) error {
				if err := board.WaitReady(ctx); err != nil {
					return err
				}
				ctl.SetRunning(true, 0)
				return nil
			}))
		}
	}

	if traceEnabled {
		rec := trace.NewConfig().NewRecorder()
		if sim != nil {
			rec.WithSource(sim)
		}
		ctl.Observer = rec
		halter.OnFault = rec.Fault
		loop.Add(rec)
	}

	loop.Add(env, ctl).RunOrFail()
}
