package main

import (
	"github.com/robotalks/sixstep/pkg/cli/sh"
	env "github.com/robotalks/sixstep/pkg/env/connector"

	_ "github.com/robotalks/sixstep/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
