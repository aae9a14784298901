package main

import (
	"os"

	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/cmd"
	"github.com/firefly-engineering/firefly-forage/packages/spawn-ctl/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
