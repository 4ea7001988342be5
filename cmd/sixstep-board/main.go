package main

//go-build: CGO_ENABLED=0

import (
	"errors"
	"flag"
	"log"
	"sync/atomic"

	"github.com/robotalks/sixstep/pkg/bridge"
	"github.com/robotalks/sixstep/pkg/commutation"
	"github.com/robotalks/sixstep/pkg/fault"
	fx "github.com/robotalks/sixstep/pkg/framework"
	"github.com/robotalks/sixstep/pkg/timer"
)

var rejectAfter int64

func init() {
	bridge.SetupFlags()
	timer.SetupFlags()
	flag.Int64Var(&rejectAfter, "reject-after", rejectAfter, "Reject channel commands after this many, 0 never rejects.")
}

func main() {
	flag.Parse()

	serialConf := bridge.NewSerialConfig()
	if serialConf.Device == "" {
		log.Fatalln("serial port required")
	}
	sim, err := timer.NewConfig().NewSim()
	if err != nil {
		log.Fatalln(err)
	}
	link, _, err := serialConf.Open()
	if err != nil {
		log.Fatalf("open %s: %v", serialConf.Device, err)
	}
	resp := bridge.NewResponder(link, sim)
	halter := fault.NewHalter(&fault.LogIndicator{Name: "LED"})
	halter.OnFault = resp.Fault

	var accepted int64
	sim.Reject = func(cmd commutation.Command) error {
		if halter.Faulted() {
			return commutation.ErrHalted
		}
		if rejectAfter > 0 && atomic.AddInt64(&accepted, 1) > rejectAfter {
			err := errors.New("output stage fault on " + cmd.String())
			halter.Fault(err)
			return err
		}
		return nil
	}

	if err := fx.NewRunner().HandleSignals().Go(fx.NamedRun("link", resp), fx.NamedRun("halter", halter)).Wait(); err != nil {
		log.Fatalln(err)
	}
}
