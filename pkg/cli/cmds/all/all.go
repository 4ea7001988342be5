// Package all imports all shell command providers.
package all

import (
	// commands of the commutation controller.
	_ "github.com/robotalks/sixstep/pkg/cli/cmds/sixstep"
)
